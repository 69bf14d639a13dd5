// Package render produces the navigator's monochrome frame buffer: the
// five screens (splash, sync-setup, waiting, map, menu) and their shared
// status bar, info panel, and compass rose.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	ourdisplay "github.com/oleche/elcano-nav-go/internal/display"
)

// ScreenMode selects which screen Render draws, chosen by the Supervisor.
type ScreenMode int

const (
	ScreenSplash ScreenMode = iota
	ScreenSyncSetup
	ScreenWaiting
	ScreenMap
	ScreenMenu
)

const statusBarHeight = 30

var (
	black = color.Gray{Y: 0}
	white = color.Gray{Y: 255}
	gray  = color.Gray{Y: 160}
)

// RoutePoint is a waypoint or fix already projected to map space by the
// caller (TileComposer/MBTilesManager owns the projection math); Renderer
// only turns screen coordinates into pixels.
type RoutePoint struct {
	ScreenX, ScreenY float64
	OnScreen         bool
}

// MapContext carries everything the Map screen needs to draw the
// composite and its overlays.
type MapContext struct {
	Composite      image.Image
	ArchiveName    string
	CenterLat      float64
	CenterLon      float64
	RequestedZoom  int
	ActualZoom     int
	ZoomAdjusted   bool
	AvailabilityPct float64
	Route          []RoutePoint
	HeadingDeg     float64
	HasHeading     bool
}

// MenuContext carries the current menu panel's title, items, and
// selection for the Menu screen.
type MenuContext struct {
	Title       string
	Items       []string
	SelectedIdx int
	Footer      string
}

// StatusContext carries the shared status bar's three fields.
type StatusContext struct {
	Satellites int
	HasFix     bool
	WifiSSID   string
	WifiUp     bool
	Now        time.Time
}

// SyncLine is the one-line sync status shown in the map overlay. The
// Supervisor fills it with one of "Sync: setup required", "Sync: N pending"
// or "Sync: up to date"; it has no in-progress or last-sync-time line.
type SyncLine string

// Renderer draws screens at the panel's native resolution and converts
// them to the monochrome wire format.
type Renderer struct {
	Width, Height int
	face          font.Face
}

// NewRenderer creates a Renderer targeting a panel of the given
// resolution (default 800x480 per §6).
func NewRenderer(width, height int) *Renderer {
	return &Renderer{Width: width, Height: height, face: basicfont.Face7x13}
}

// RenderSplash draws the boot splash: brand title, subtitle, decorative
// frame.
func (r *Renderer) RenderSplash(title, subtitle string) *image.Gray {
	canvas := r.blankCanvas()
	r.drawRect(canvas, image.Rect(20, 20, r.Width-20, r.Height-20), black, false)
	r.drawTextCentered(canvas, title, r.Height/2-20, 3)
	r.drawTextCentered(canvas, subtitle, r.Height/2+20, 1)
	return r.finalize(canvas)
}

// RenderSyncSetup draws instructions to configure via the AP portal.
func (r *Renderer) RenderSyncSetup(instructions string) *image.Gray {
	canvas := r.blankCanvas()
	r.drawStatusBar(canvas, StatusContext{Now: time.Now()})
	r.drawTextCentered(canvas, "Sync Setup Required", r.Height/2-30, 2)
	r.drawTextCentered(canvas, instructions, r.Height/2+10, 1)
	return r.finalize(canvas)
}

// RenderWaiting draws the "waiting for GPS" card with the satellite count.
// The fix quality is not shown on the card.
func (r *Renderer) RenderWaiting(status StatusContext) *image.Gray {
	canvas := r.blankCanvas()
	r.drawStatusBar(canvas, status)

	cardW, cardH := 400, 160
	cardX := (r.Width - cardW) / 2
	cardY := (r.Height - cardH) / 2
	r.drawRoundedRect(canvas, image.Rect(cardX, cardY, cardX+cardW, cardY+cardH), black)

	r.drawTextCentered(canvas, "Waiting for GPS Signal", cardY+50, 2)
	r.drawTextCentered(canvas, fmt.Sprintf("%d satellites", status.Satellites), cardY+90, 1)
	return r.finalize(canvas)
}

// RenderNoMap draws the "No Map Available" banner used when coverage is
// zero for the requested region (§8 scenario 2).
func (r *Renderer) RenderNoMap(status StatusContext) *image.Gray {
	canvas := r.blankCanvas()
	r.drawStatusBar(canvas, status)
	r.drawTextCentered(canvas, "No Map Available", r.Height/2, 2)
	return r.finalize(canvas)
}

// RenderMap draws the composite tile, route, compass rose, info panel,
// and status bar.
func (r *Renderer) RenderMap(status StatusContext, mapCtx MapContext, syncLine SyncLine) (*image.Gray, error) {
	canvas := r.blankCanvas()

	if mapCtx.Composite != nil {
		draw.Draw(canvas, canvas.Bounds(), mapCtx.Composite, image.Point{}, draw.Over)
	}

	r.drawRoute(canvas, mapCtx.Route)
	r.drawCrosshair(canvas)
	r.drawCompassRose(canvas, mapCtx.HeadingDeg, mapCtx.HasHeading)
	r.drawInfoPanel(canvas, mapCtx)
	r.drawStatusBar(canvas, status)

	if syncLine != "" {
		r.drawText(canvas, string(syncLine), 10, r.Height-10, 1)
	}

	return r.finalize(canvas), nil
}

// RenderMenu draws a titled vertical list with a selection highlight and
// a navigation-hint footer.
func (r *Renderer) RenderMenu(menuCtx MenuContext) *image.Gray {
	canvas := r.blankCanvas()

	r.drawText(canvas, menuCtx.Title, 20, 40, 2)

	itemY := 80
	for i, item := range menuCtx.Items {
		if i == menuCtx.SelectedIdx {
			r.drawRect(canvas, image.Rect(10, itemY-16, r.Width-10, itemY+6), gray, true)
		}
		r.drawText(canvas, item, 20, itemY, 1)
		itemY += 32
	}

	r.drawText(canvas, menuCtx.Footer, 20, r.Height-20, 1)
	return r.finalize(canvas)
}

// blankCanvas returns a white RGBA canvas at the panel resolution.
func (r *Renderer) blankCanvas() *image.RGBA {
	canvas := image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)
	return canvas
}

// finalize applies the monochrome conversion decided for this panel
// class: grayscale, threshold at 100 on the pre-inversion luminance,
// invert, then contrast-enhance. This yields dark map features on a
// light background.
func (r *Renderer) finalize(canvas *image.RGBA) *image.Gray {
	gray := ourdisplay.Threshold(imaging.Grayscale(canvas), 100)
	inverted := imaging.Invert(gray)
	enhanced := imaging.AdjustContrast(inverted, 20)
	out := image.NewGray(enhanced.Bounds())
	draw.Draw(out, out.Bounds(), enhanced, image.Point{}, draw.Src)
	return out
}

func (r *Renderer) drawStatusBar(canvas *image.RGBA, status StatusContext) {
	r.drawRect(canvas, image.Rect(0, 0, r.Width, statusBarHeight), white, true)
	r.drawRect(canvas, image.Rect(0, statusBarHeight-1, r.Width, statusBarHeight), black, true)

	gpsText := "✗ No fix"
	if status.HasFix {
		gpsText = fmt.Sprintf("✓ %d sats", status.Satellites)
	}
	r.drawText(canvas, gpsText, 8, 20, 1)

	wifiText := "✗ Disconnected"
	if status.WifiUp {
		wifiText = "✓ " + status.WifiSSID
	}
	r.drawText(canvas, wifiText, r.Width/2-40, 20, 1)

	clock := status.Now.Format("15:04")
	r.drawText(canvas, clock, r.Width-60, 20, 1)
}

func (r *Renderer) drawInfoPanel(canvas *image.RGBA, mapCtx MapContext) {
	panelW, panelH := 220, 110
	x0 := r.Width - panelW - 10
	y0 := r.Height - panelH - 10
	r.drawRoundedRect(canvas, image.Rect(x0, y0, x0+panelW, y0+panelH), black)

	zoomLine := fmt.Sprintf("Zoom %d", mapCtx.ActualZoom)
	if mapCtx.ZoomAdjusted {
		zoomLine = fmt.Sprintf("Zoom %d (req %d)", mapCtx.ActualZoom, mapCtx.RequestedZoom)
	}

	r.drawText(canvas, fmt.Sprintf("%.5f, %.5f", mapCtx.CenterLat, mapCtx.CenterLon), x0+10, y0+20, 1)
	r.drawText(canvas, zoomLine, x0+10, y0+40, 1)
	r.drawText(canvas, fmt.Sprintf("Tiles %.0f%%", mapCtx.AvailabilityPct*100), x0+10, y0+60, 1)
	r.drawText(canvas, mapCtx.ArchiveName, x0+10, y0+80, 1)
}

func (r *Renderer) drawCompassRose(canvas *image.RGBA, headingDeg float64, hasHeading bool) {
	cx, cy := 60, r.Height-70
	radius := 40

	labels := map[string][2]int{
		"N": {cx, cy - radius - 10},
		"S": {cx, cy + radius + 4},
		"E": {cx + radius + 4, cy},
		"W": {cx - radius - 14, cy},
	}
	for label, pos := range labels {
		r.drawText(canvas, label, pos[0], pos[1], 1)
	}

	r.drawCircle(canvas, cx, cy, radius, black)

	if hasHeading {
		rad := headingDeg * math.Pi / 180
		tipX := cx + int(float64(radius)*math.Sin(rad))
		tipY := cy - int(float64(radius)*math.Cos(rad))
		r.drawLine(canvas, cx, cy, tipX, tipY, black, 2)
	}
}

// drawRoute draws only segments with at least one on-screen endpoint,
// 3px wide, with 6px discs at the points, per §4.9.
func (r *Renderer) drawRoute(canvas *image.RGBA, points []RoutePoint) {
	for i := 0; i < len(points); i++ {
		p := points[i]
		if p.OnScreen {
			r.drawDisc(canvas, int(p.ScreenX), int(p.ScreenY), 3, black)
		}
		if i == 0 {
			continue
		}
		prev := points[i-1]
		if !p.OnScreen && !prev.OnScreen {
			continue
		}
		r.drawLine(canvas, int(prev.ScreenX), int(prev.ScreenY), int(p.ScreenX), int(p.ScreenY), black, 3)
	}
}

func (r *Renderer) drawCrosshair(canvas *image.RGBA) {
	cx, cy := r.Width/2, r.Height/2
	r.drawLine(canvas, cx-8, cy, cx+8, cy, black, 1)
	r.drawLine(canvas, cx, cy-8, cx, cy+8, black, 1)
}

func (r *Renderer) drawRect(canvas *image.RGBA, rect image.Rectangle, c color.Color, fill bool) {
	if fill {
		draw.Draw(canvas, rect, &image.Uniform{c}, image.Point{}, draw.Src)
		return
	}
	for x := rect.Min.X; x < rect.Max.X; x++ {
		canvas.Set(x, rect.Min.Y, c)
		canvas.Set(x, rect.Max.Y-1, c)
	}
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		canvas.Set(rect.Min.X, y, c)
		canvas.Set(rect.Max.X-1, y, c)
	}
}

// drawRoundedRect approximates a rounded rectangle by insetting the
// corners; good enough at this resolution and avoids a dedicated curve
// rasterizer.
func (r *Renderer) drawRoundedRect(canvas *image.RGBA, rect image.Rectangle, c color.Color) {
	const corner = 8
	draw.Draw(canvas, image.Rect(rect.Min.X+corner, rect.Min.Y, rect.Max.X-corner, rect.Max.Y), &image.Uniform{white}, image.Point{}, draw.Src)
	draw.Draw(canvas, image.Rect(rect.Min.X, rect.Min.Y+corner, rect.Max.X, rect.Max.Y-corner), &image.Uniform{white}, image.Point{}, draw.Src)
	r.drawRect(canvas, rect, c, false)
}

func (r *Renderer) drawCircle(canvas *image.RGBA, cx, cy, radius int, c color.Color) {
	steps := 64
	for i := 0; i < steps; i++ {
		theta := 2 * math.Pi * float64(i) / float64(steps)
		x := cx + int(float64(radius)*math.Cos(theta))
		y := cy + int(float64(radius)*math.Sin(theta))
		canvas.Set(x, y, c)
	}
}

func (r *Renderer) drawDisc(canvas *image.RGBA, cx, cy, radius int, c color.Color) {
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= radius*radius {
				canvas.Set(cx+dx, cy+dy, c)
			}
		}
	}
}

func (r *Renderer) drawLine(canvas *image.RGBA, x0, y0, x1, y1 int, c color.Color, width int) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	x, y := x0, y0
	for {
		r.drawDisc(canvas, x, y, width/2, c)
		if x == x1 && y == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// drawText draws a line of text at baseline (x, y) using a fixed bitmap
// font face; scale replicates each glyph pixel scale x scale so headings
// can stand out without rasterizing a different font.
func (r *Renderer) drawText(canvas *image.RGBA, text string, x, y, scale int) {
	if text == "" {
		return
	}
	if scale <= 1 {
		drawer := &font.Drawer{
			Dst:  canvas,
			Src:  image.NewUniform(black),
			Face: r.face,
			Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
		}
		drawer.DrawString(text)
		return
	}

	small := image.NewRGBA(image.Rect(0, 0, len(text)*7+4, 13))
	draw.Draw(small, small.Bounds(), &image.Uniform{color.Transparent}, image.Point{}, draw.Src)
	drawer := &font.Drawer{
		Dst:  small,
		Src:  image.NewUniform(black),
		Face: r.face,
		Dot:  fixed.Point26_6{X: fixed.I(2), Y: fixed.I(11)},
	}
	drawer.DrawString(text)

	scaled := imaging.Resize(small, small.Bounds().Dx()*scale, small.Bounds().Dy()*scale, imaging.NearestNeighbor)
	draw.Draw(canvas, image.Rect(x, y-scaled.Bounds().Dy()+2, x+scaled.Bounds().Dx(), y+2), scaled, image.Point{}, draw.Over)
}

func (r *Renderer) drawTextCentered(canvas *image.RGBA, text string, y, scale int) {
	approxWidth := len(text) * 7 * scale
	x := (r.Width - approxWidth) / 2
	if x < 0 {
		x = 0
	}
	r.drawText(canvas, text, x, y, scale)
}
