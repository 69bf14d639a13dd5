package tiles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlipYRoundTrip(t *testing.T) {
	for z := 0; z <= 16; z++ {
		max := 1 << uint(z)
		for y := 0; y < max; y++ {
			got := flipY(z, flipY(z, y))
			assert.Equal(t, y, got, "z=%d y=%d", z, y)
		}
	}
}

func TestTileCoordinatesMonotonicity(t *testing.T) {
	z := 10

	x1, _ := tileCoordinates(10.0, -5.0, z)
	x2, _ := tileCoordinates(10.0, 5.0, z)
	assert.LessOrEqual(t, x1, x2, "x should not decrease as longitude increases")

	_, y1 := tileCoordinates(10.0, 0.0, z)
	_, y2 := tileCoordinates(20.0, 0.0, z)
	assert.GreaterOrEqual(t, y1, y2, "y should not increase as latitude increases")
}

func TestClampLatitude(t *testing.T) {
	assert.Equal(t, maxWebMercatorLatitude, clampLatitude(90))
	assert.Equal(t, -maxWebMercatorLatitude, clampLatitude(-90))
	assert.Equal(t, 10.0, clampLatitude(10))
}

func TestWrapLongitude(t *testing.T) {
	assert.InDelta(t, 0.0, wrapLongitude(360), 1e-9)
	assert.InDelta(t, -170.0, wrapLongitude(190), 1e-9)
	assert.InDelta(t, 10.0, wrapLongitude(10), 1e-9)
}

func TestBoundsContains(t *testing.T) {
	b := Bounds{South: 40, West: -10, North: 50, East: 10}
	assert.True(t, b.Contains(45, 0))
	assert.False(t, b.Contains(60, 0))
	assert.False(t, b.Contains(45, 20))
}

func TestParseBounds(t *testing.T) {
	b := parseBounds("-10.0,40.0,10.0,50.0")
	assert.Equal(t, Bounds{West: -10, South: 40, East: 10, North: 50}, b)

	assert.Equal(t, Bounds{}, parseBounds("garbage"))
	assert.Equal(t, Bounds{}, parseBounds(""))
}
