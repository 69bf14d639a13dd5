package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAngularDifferenceNeverExceeds180(t *testing.T) {
	cases := []struct{ h1, h2 float64 }{
		{0, 350}, {10, 200}, {359, 1}, {0, 180}, {90, 270},
	}
	for _, c := range cases {
		d := angularDifference(c.h1, c.h2)
		assert.LessOrEqual(t, d, 180.0)
		assert.GreaterOrEqual(t, d, 0.0)
	}
}

func TestSignificantChangeScenarios(t *testing.T) {
	c := &Core{}
	c.havePrev = true
	c.speedPrev = 5.0
	c.headingPrev = 100

	// Δs = 2.1 >= 2.0 -> significant
	assert.GreaterOrEqual(t, abs(7.1-5.0), significantSpeedDeltaKmh)

	// heading delta 14 does not trigger, 16 does
	assert.Less(t, angularDifference(100, 114), significantHeadingDelta)
	assert.GreaterOrEqual(t, angularDifference(100, 116), significantHeadingDelta)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
