package display

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackMonochromeBitOrder(t *testing.T) {
	frame := image.NewGray(image.Rect(0, 0, 8, 1))
	// All white except the first pixel, which is black.
	for x := 1; x < 8; x++ {
		frame.SetGray(x, 0, color.Gray{Y: 255})
	}
	frame.SetGray(0, 0, color.Gray{Y: 0})

	packed := PackMonochrome(frame)
	require.Len(t, packed, 1)
	assert.Equal(t, byte(0x7F), packed[0], "MSB (first pixel) should be clear since it's black")
}

func TestThresholdSplitsAtCutoff(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 2, 1))
	src.SetGray(0, 0, color.Gray{Y: 50})
	src.SetGray(1, 0, color.Gray{Y: 200})

	out := Threshold(src, 100)
	assert.Equal(t, uint8(0), out.GrayAt(0, 0).Y)
	assert.Equal(t, uint8(255), out.GrayAt(1, 0).Y)
}

func TestPanelPushFramePackedAndRefreshed(t *testing.T) {
	bus := NewMemoryBus()
	panel := NewPanel(bus, 4, 1)

	frame := image.NewGray(image.Rect(0, 0, 4, 1))
	require.NoError(t, panel.PushFrame(frame))

	require.Contains(t, bus.Commands, byte(0x24))
	require.Contains(t, bus.Commands, byte(0x20))
	require.Len(t, bus.Writes, 1)
}

func TestPanelClearWritesAllWhite(t *testing.T) {
	bus := NewMemoryBus()
	panel := NewPanel(bus, 8, 1)

	require.NoError(t, panel.Clear())
	require.Len(t, bus.Writes, 1)
	assert.Equal(t, byte(0xFF), bus.Writes[0][0])
}
