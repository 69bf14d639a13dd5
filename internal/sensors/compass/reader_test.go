package compass

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTiltCompensatedHeadingLevel(t *testing.T) {
	heading, compensated := tiltCompensatedHeading(0, 0, 1, 0.3, 0, 0)
	assert.True(t, compensated)
	assert.InDelta(t, 0.0, heading, 1e-6)

	heading, compensated = tiltCompensatedHeading(0, 0, 1, 0, 0.3, 0)
	assert.True(t, compensated)
	assert.InDelta(t, 90.0, heading, 1e-6)
}

func TestTiltCompensatedHeadingFallsBackWithoutAccel(t *testing.T) {
	heading, compensated := tiltCompensatedHeading(0, 0, 0, 0, 0.3, 0)
	assert.False(t, compensated)
	assert.InDelta(t, 90.0, heading, 1e-6)
}

func TestNormalizeDegrees(t *testing.T) {
	assert.InDelta(t, 0.0, normalizeDegrees(360), 1e-9)
	assert.InDelta(t, 350.0, normalizeDegrees(-10), 1e-9)
	assert.InDelta(t, 10.0, normalizeDegrees(10), 1e-9)
}

func TestScaleOrUnit(t *testing.T) {
	assert.Equal(t, 1.0, scaleOrUnit(10, 0))
	assert.Equal(t, 2.0, scaleOrUnit(10, 5))
}
