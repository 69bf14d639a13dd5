package tiles

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"math"

	"github.com/disintegration/imaging"
)

const tilePixels = 256

// CompositeMetadata describes a composed image: which zoom was actually
// used, how complete the tile coverage was, and which archive it came
// from.
type CompositeMetadata struct {
	RequestedZoom  int
	ActualZoom     int
	ZoomAdjusted   bool
	TilesFound     int
	TilesMissing   int
	AvailabilityRatio float64
	CenterLat      float64
	CenterLon      float64
	ImageW         int
	ImageH         int
	ArchiveName    string
}

// Composer assembles a centered raster composite from a single reader.
type Composer struct{}

// NewComposer creates a TileComposer. It is stateless; one instance is
// shared across calls.
func NewComposer() *Composer {
	return &Composer{}
}

// Compose implements §4.3: select the best zoom, assemble the tile grid
// around (lat, lon), inpaint missing tiles, crop to (pxW, pxH) centered on
// the requested coordinate, and optionally rescale when the resolved zoom
// differs from the request.
func (c *Composer) Compose(r *Reader, lat, lon float64, zoom, pxW, pxH int, useFallback bool) ([]byte, CompositeMetadata, error) {
	actualZoom, adjusted := r.BestAvailableZoom(zoom, lat, lon, tilesAcross(pxW), tilesAcross(pxH))
	if !useFallback {
		actualZoom = zoom
		adjusted = false
	}

	centerX, centerY := tileCoordinates(lat, lon, actualZoom)

	tilesX := tilesAcross(pxW)
	tilesY := tilesAcross(pxH)

	canvasW := tilesX * tilePixels
	canvasH := tilesY * tilePixels
	canvas := imaging.New(canvasW, canvasH, color.NRGBA{220, 220, 220, 255})

	originX := int(math.Floor(centerX)) - tilesX/2
	originY := int(math.Floor(centerY)) - tilesY/2
	maxTile := 1 << uint(actualZoom)

	found, missing := 0, 0
	for dy := 0; dy < tilesY; dy++ {
		for dx := 0; dx < tilesX; dx++ {
			tx := originX + dx
			ty := originY + dy

			var tileImg image.Image
			if tx >= 0 && ty >= 0 && tx < maxTile && ty < maxTile {
				if raw, ok := r.GetTile(actualZoom, tx, ty); ok {
					img, _, decErr := image.Decode(bytes.NewReader(raw))
					if decErr == nil {
						tileImg = img
						found++
					} else {
						missing++
					}
				} else {
					missing++
				}
			} else {
				missing++
			}

			if tileImg == nil {
				tileImg = placeholderTile()
			}

			pasteAt := image.Pt(dx*tilePixels, dy*tilePixels)
			canvas = imaging.Paste(canvas, tileImg, pasteAt)
		}
	}

	// Subpixel offset of the requested center within the canvas, used to
	// crop the final frame so (lat, lon) lands in the middle of the
	// output image rather than at a tile boundary.
	fracX := centerX - math.Floor(centerX)
	fracY := centerY - math.Floor(centerY)
	centerPxX := float64(tilesX/2)*tilePixels + fracX*tilePixels
	centerPxY := float64(tilesY/2)*tilePixels + fracY*tilePixels

	cropX := int(centerPxX) - pxW/2
	cropY := int(centerPxY) - pxH/2

	// The subpixel offset above can push the naive crop rectangle's far
	// edge past the canvas: the canvas is only ever padded by one tile
	// beyond the requested frame (tilesAcross), and centerPx can land
	// anywhere up to a full tile width/height from the grid's middle.
	// Clamp the origin so the full (pxW, pxH) rectangle always lands
	// inside the canvas; canvasW/H exceed pxW/H by at least one tile, so
	// a clamped crop is always available, just not perfectly centered in
	// that edge case.
	if maxX := canvasW - pxW; cropX < 0 {
		cropX = 0
	} else if cropX > maxX {
		cropX = maxX
	}
	if maxY := canvasH - pxH; cropY < 0 {
		cropY = 0
	} else if cropY > maxY {
		cropY = maxY
	}

	cropped := imaging.Crop(canvas, image.Rect(cropX, cropY, cropX+pxW, cropY+pxH))

	if adjusted && zoom != actualZoom {
		scale := math.Pow(2, float64(zoom-actualZoom))
		newW := int(float64(pxW) * scale)
		newH := int(float64(pxH) * scale)
		rescaled := imaging.Resize(cropped, newW, newH, imaging.Lanczos)
		cropped = imaging.CropCenter(rescaled, pxW, pxH)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, cropped); err != nil {
		return nil, CompositeMetadata{}, fmt.Errorf("encode composite: %w", err)
	}

	total := found + missing
	ratio := 0.0
	if total > 0 {
		ratio = float64(found) / float64(total)
	}

	meta := CompositeMetadata{
		RequestedZoom:     zoom,
		ActualZoom:        actualZoom,
		ZoomAdjusted:      adjusted,
		TilesFound:        found,
		TilesMissing:      missing,
		AvailabilityRatio: ratio,
		CenterLat:         lat,
		CenterLon:         lon,
		ImageW:            pxW,
		ImageH:            pxH,
		ArchiveName:       r.Metadata().Name,
	}

	return buf.Bytes(), meta, nil
}

// tilesAcross is ceil(px/256)+1, the grid width/height from §4.3 step 3.
func tilesAcross(px int) int {
	return (px+tilePixels-1)/tilePixels + 1
}

// placeholderTile paints a light grid with a diagonal cross to mark a
// missing tile, matching §4.3's "grid + No Data" requirement without a
// font rasterizer (font rendering is out of scope per §1).
func placeholderTile() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, tilePixels, tilePixels))
	bg := color.RGBA{235, 235, 235, 255}
	draw.Draw(img, img.Bounds(), &image.Uniform{bg}, image.Point{}, draw.Src)

	line := color.RGBA{190, 190, 190, 255}
	for i := 0; i < tilePixels; i++ {
		img.Set(i, i, line)
		img.Set(tilePixels-1-i, i, line)
	}
	for x := 0; x < tilePixels; x += 32 {
		for y := 0; y < tilePixels; y++ {
			img.Set(x, y, line)
			img.Set(y, x, line)
		}
	}
	return img
}
