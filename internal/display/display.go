// Package display drives the monochrome e-paper panel. It only exposes
// the abstract operations named in §6 (init, push_frame, clear, sleep);
// raw SPI/reset/busy-line bit-twiddling is a collaborator's job, not
// this package's.
package display

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Device is the panel's full external surface. push_frame is blocking and
// may take several seconds for a full refresh; it and every other method
// here are called exclusively by the Supervisor (not thread-safe).
type Device interface {
	Init() error
	PushFrame(frame *image.Gray) error
	Clear() error
	Sleep() error
}

// Bus is the abstract SPI-like transport a Device writes to: raw command
// and data bytes, plus the two control lines real e-paper controllers
// need. A concrete implementation maps these onto actual GPIO/SPI calls;
// this package never touches hardware registers directly, per §1.
type Bus interface {
	WriteCommand(cmd byte) error
	WriteData(data []byte) error
	Reset() error
	WaitUntilIdle() error
}

// Panel is the default Device implementation: it packs a grayscale frame
// into the panel's native 1-bit-per-pixel wire format and drives it
// through a Bus.
type Panel struct {
	bus           Bus
	width, height int
}

// NewPanel creates a Panel of the given native resolution (default
// 800x480 per §6) driven over bus.
func NewPanel(bus Bus, width, height int) *Panel {
	return &Panel{bus: bus, width: width, height: height}
}

// Init resets the controller and sends the panel's startup command
// sequence. The exact command bytes are controller-specific and owned by
// the Bus implementation; Panel only sequences the abstract calls.
func (p *Panel) Init() error {
	if err := p.bus.Reset(); err != nil {
		return fmt.Errorf("display: reset: %w", err)
	}
	if err := p.bus.WaitUntilIdle(); err != nil {
		return fmt.Errorf("display: wait idle after reset: %w", err)
	}
	if err := p.bus.WriteCommand(0x12); err != nil { // software reset, per common e-paper controller convention
		return fmt.Errorf("display: software reset: %w", err)
	}
	return p.bus.WaitUntilIdle()
}

// PushFrame rescales frame to the panel's native resolution if needed,
// packs it to 1bpp, and writes it as a full-frame update.
func (p *Panel) PushFrame(frame *image.Gray) error {
	fitted := frame
	if frame.Bounds().Dx() != p.width || frame.Bounds().Dy() != p.height {
		fitted = image.NewGray(image.Rect(0, 0, p.width, p.height))
		draw.NearestNeighbor.Scale(fitted, fitted.Bounds(), frame, frame.Bounds(), draw.Over, nil)
	}

	packed := PackMonochrome(fitted)

	if err := p.bus.WriteCommand(0x24); err != nil { // write image data to RAM, per common convention
		return fmt.Errorf("display: write image command: %w", err)
	}
	if err := p.bus.WriteData(packed); err != nil {
		return fmt.Errorf("display: write image data: %w", err)
	}
	if err := p.bus.WriteCommand(0x20); err != nil { // trigger display refresh
		return fmt.Errorf("display: refresh command: %w", err)
	}
	return p.bus.WaitUntilIdle()
}

// Clear fills the panel white and pushes it, leaving it blank.
func (p *Panel) Clear() error {
	blank := image.NewGray(image.Rect(0, 0, p.width, p.height))
	for i := range blank.Pix {
		blank.Pix[i] = 0xFF
	}
	return p.PushFrame(blank)
}

// Sleep puts the controller into its low-power state.
func (p *Panel) Sleep() error {
	if err := p.bus.WriteCommand(0x10); err != nil { // deep sleep, per common convention
		return fmt.Errorf("display: sleep command: %w", err)
	}
	return nil
}

// PackMonochrome converts a grayscale frame to the panel's 1-bit-per-pixel
// wire format: each byte holds 8 horizontal pixels, MSB first, set bit
// means white (the common e-paper polarity). Pixels at or above the
// midpoint threshold are treated as white.
func PackMonochrome(frame *image.Gray) []byte {
	bounds := frame.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	rowBytes := (w + 7) / 8
	out := make([]byte, rowBytes*h)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gray := frame.GrayAt(bounds.Min.X+x, bounds.Min.Y+y)
			if gray.Y >= 128 {
				out[y*rowBytes+x/8] |= 0x80 >> uint(x%8)
			}
		}
	}
	return out
}

// Threshold converts an arbitrary image to 1-bit black/white at the given
// luminance cutoff, used by the Renderer before handing a frame to
// PushFrame.
func Threshold(src image.Image, cutoff uint8) *image.Gray {
	bounds := src.Bounds()
	out := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray := color.GrayModel.Convert(src.At(x, y)).(color.Gray)
			v := uint8(0)
			if gray.Y >= cutoff {
				v = 255
			}
			out.SetGray(x-bounds.Min.X, y-bounds.Min.Y, color.Gray{Y: v})
		}
	}
	return out
}
