package tiles

import (
	"bytes"
	"image"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComposeCompleteness(t *testing.T) {
	dir := t.TempDir()
	path := writeTestArchive(t, dir, "europe.mbtiles", Bounds{South: 35, West: -10, North: 60, East: 30}, []int{10, 11, 13})

	r, err := OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	c := NewComposer()
	data, meta, err := c.Compose(r, 45.0, 10.0, 14, 320, 240, true)
	require.NoError(t, err)

	img, _, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	bounds := img.Bounds()
	require.Equal(t, 320, bounds.Dx())
	require.Equal(t, 240, bounds.Dy())
	require.Equal(t, 320, meta.ImageW)
	require.Equal(t, 240, meta.ImageH)
}

func TestComposeZoomFallback(t *testing.T) {
	dir := t.TempDir()
	// Tile payload is a bogus PNG-looking header, so every decode fails
	// and the composer paints placeholders; this still exercises the
	// zoom-adjustment path without needing real tile imagery.
	path := writeTestArchive(t, dir, "europe.mbtiles", Bounds{South: 35, West: -10, North: 60, East: 30}, []int{10, 11, 13})

	r, err := OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	c := NewComposer()
	_, meta, err := c.Compose(r, 45.0, 10.0, 14, 256, 256, true)
	require.NoError(t, err)
	require.Equal(t, 13, meta.ActualZoom)
	require.True(t, meta.ZoomAdjusted)
}
