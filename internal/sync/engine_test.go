package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidSyncKey(t *testing.T) {
	assert.False(t, IsValidSyncKey(""))
	assert.False(t, IsValidSyncKey("short"))
	assert.False(t, IsValidSyncKey("ABC1234567"))
	assert.False(t, IsValidSyncKey("PLACEHOLDER"))
	assert.False(t, IsValidSyncKey("DEFAULT"))
	assert.False(t, IsValidSyncKey("TEST123456"))
	assert.True(t, IsValidSyncKey("a-real-device-sync-key-1234"))
}

func TestPingPayloadShape(t *testing.T) {
	lat, lon, heading := 52.3676, 4.9041, 90.0
	req := pingRequest{
		LastLatitude:  &lat,
		LastLongitude: &lon,
		LastHeading:   &heading,
		LastCourse:    &heading,
	}

	assert.Equal(t, 52.3676, *req.LastLatitude)
	assert.Equal(t, 4.9041, *req.LastLongitude)
	assert.Equal(t, 90.0, *req.LastHeading)
	assert.Equal(t, 90.0, *req.LastCourse)
}
