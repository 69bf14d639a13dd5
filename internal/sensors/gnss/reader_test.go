package gnss

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLatLon(t *testing.T) {
	lat, ok := parseLatLon("5222.0990", "N")
	require.True(t, ok)
	assert.InDelta(t, 52.3683, lat, 1e-4)

	lon, ok := parseLatLon("00454.2460", "E")
	require.True(t, ok)
	assert.InDelta(t, 4.9041, lon, 1e-4)

	south, ok := parseLatLon("3351.6230", "S")
	require.True(t, ok)
	assert.Less(t, south, 0.0)

	_, ok = parseLatLon("", "N")
	assert.False(t, ok)
}

func TestParseGGAUpdatesFix(t *testing.T) {
	r := NewReader("/dev/null", 9600)

	sentence := "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47"
	r.parseSentence(sentence)

	fix := r.LatestFix()
	require.Equal(t, 1, fix.FixQuality)
	require.Equal(t, 8, fix.Satellites)
	assert.InDelta(t, 545.4, fix.Altitude, 1e-6)
	assert.True(t, fix.Valid())
	assert.InDelta(t, 48.1173, fix.Latitude, 1e-3)
	assert.InDelta(t, 11.5166, fix.Longitude, 1e-3)
}

func TestParseGGANoFixClearsQuality(t *testing.T) {
	r := NewReader("/dev/null", 9600)
	r.parseSentence("$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47")
	r.parseSentence("$GPGGA,123520,,,,,0,00,,,M,,M,,*66")

	fix := r.LatestFix()
	assert.Equal(t, 0, fix.FixQuality)
	assert.False(t, fix.Valid())
	// Previous position is retained when fields are empty.
	assert.InDelta(t, 48.1173, fix.Latitude, 1e-3)
}

func TestParseRMCUpdatesSpeedAndHeading(t *testing.T) {
	r := NewReader("/dev/null", 9600)
	sentence := "$GPRMC,123519,A,4807.038,N,01131.000,E,22.4,084.4,230394,003.1,W*6A"
	r.parseSentence(sentence)

	fix := r.LatestFix()
	assert.InDelta(t, 22.4*1.852, fix.SpeedKmh, 1e-6)
	assert.InDelta(t, 84.4, fix.HeadingDeg, 1e-6)
}

func TestParseRMCInvalidStatusIgnored(t *testing.T) {
	r := NewReader("/dev/null", 9600)
	sentence := "$GPRMC,123519,V,4807.038,N,01131.000,E,22.4,084.4,230394,003.1,W*68"
	r.parseSentence(sentence)

	fix := r.LatestFix()
	assert.Equal(t, 0.0, fix.SpeedKmh)
}
