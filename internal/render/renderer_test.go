package render

import (
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderSplashProducesPanelSizedFrame(t *testing.T) {
	r := NewRenderer(800, 480)
	frame := r.RenderSplash("Elcano", "Chart Plotter")
	require.Equal(t, 800, frame.Bounds().Dx())
	require.Equal(t, 480, frame.Bounds().Dy())
}

func TestRenderWaitingProducesPanelSizedFrame(t *testing.T) {
	r := NewRenderer(800, 480)
	frame := r.RenderWaiting(StatusContext{Satellites: 3, Now: time.Now()})
	assert.Equal(t, 800, frame.Bounds().Dx())
	assert.Equal(t, 480, frame.Bounds().Dy())
}

func TestRenderMapWithoutCompositeStillProducesFrame(t *testing.T) {
	r := NewRenderer(800, 480)
	mapCtx := MapContext{
		CenterLat:       52.3676,
		CenterLon:       4.9041,
		RequestedZoom:   14,
		ActualZoom:      13,
		ZoomAdjusted:    true,
		AvailabilityPct: 0.82,
		Route: []RoutePoint{
			{ScreenX: 100, ScreenY: 100, OnScreen: true},
			{ScreenX: 900, ScreenY: 100, OnScreen: false},
			{ScreenX: 400, ScreenY: 300, OnScreen: true},
		},
		HeadingDeg: 45,
		HasHeading: true,
	}

	frame, err := r.RenderMap(StatusContext{HasFix: true, Satellites: 6, WifiUp: true, WifiSSID: "fleet-ap", Now: time.Now()}, mapCtx, "Queue: 3")
	require.NoError(t, err)
	assert.Equal(t, 800, frame.Bounds().Dx())
	assert.Equal(t, 480, frame.Bounds().Dy())
}

func TestRenderMapWithComposite(t *testing.T) {
	r := NewRenderer(200, 150)
	composite := image.NewRGBA(image.Rect(0, 0, 200, 150))

	frame, err := r.RenderMap(StatusContext{Now: time.Now()}, MapContext{Composite: composite, ActualZoom: 12}, "")
	require.NoError(t, err)
	assert.Equal(t, 200, frame.Bounds().Dx())
	assert.Equal(t, 150, frame.Bounds().Dy())
}

func TestRenderMenuHighlightsSelection(t *testing.T) {
	r := NewRenderer(800, 480)
	frame := r.RenderMenu(MenuContext{
		Title:       "Trips",
		Items:       []string{"Start Trip A", "Stop Trip B", "Back"},
		SelectedIdx: 1,
		Footer:      "Up/Down select, Center choose, Left back",
	})
	assert.Equal(t, 800, frame.Bounds().Dx())
	assert.Equal(t, 480, frame.Bounds().Dy())
}

func TestRenderNoMapBanner(t *testing.T) {
	r := NewRenderer(800, 480)
	frame := r.RenderNoMap(StatusContext{Now: time.Now()})
	assert.Equal(t, 800, frame.Bounds().Dx())
	assert.Equal(t, 480, frame.Bounds().Dy())
}

func TestRenderSyncSetup(t *testing.T) {
	r := NewRenderer(800, 480)
	frame := r.RenderSyncSetup("Connect to elcano-setup and visit 192.168.4.1")
	assert.Equal(t, 800, frame.Bounds().Dx())
	assert.Equal(t, 480, frame.Bounds().Dy())
}
