// Package gnss reads NMEA-0183 sentences from a serial GNSS receiver and
// exposes the latest position fix to the rest of the navigator.
package gnss

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/oleche/elcano-nav-go/internal/core"
	"github.com/oleche/elcano-nav-go/internal/logging"
)

// Fix is a GNSS position solution. FixQuality > 0 means usable; when it is
// 0, Latitude/Longitude are not meaningful.
type Fix struct {
	Timestamp  time.Time
	Latitude   float64
	Longitude  float64
	Altitude   float64
	SpeedKmh   float64
	HeadingDeg float64
	Satellites int
	FixQuality int
}

// Valid reports whether the fix carries a usable position.
func (f Fix) Valid() bool {
	return f.FixQuality > 0
}

// Reader owns the serial link to the GNSS receiver, continuously parsing
// GGA and RMC sentences and publishing the latest Fix behind a mutex. It
// implements core.Module so the Supervisor can bring it up and down with
// the rest of the sensor stack.
type Reader struct {
	*core.BaseModule

	portName string
	baudRate int

	mu     sync.RWMutex
	fix    Fix
	port   serial.Port
	cancel context.CancelFunc
	done   chan struct{}

	log *logging.Logger
}

// NewReader creates a GnssReader bound to the given serial device.
func NewReader(portName string, baudRate int) *Reader {
	return &Reader{
		BaseModule: core.NewBaseModule("gnss"),
		portName:   portName,
		baudRate:   baudRate,
		log:        logging.NewLogger("gnss"),
	}
}

// Enable opens the serial port and starts the read loop. A failure here is
// fatal to the process per §7 ("Hardware unavailability: ... GNSS absence
// -> fatal").
func (r *Reader) Enable(ctx context.Context) error {
	mode := &serial.Mode{
		BaudRate: r.baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(r.portName, mode)
	if err != nil {
		return fmt.Errorf("open gnss serial port %s: %w", r.portName, err)
	}
	r.port = port

	loopCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})

	go r.readLoop(loopCtx)

	return r.BaseModule.Enable(ctx)
}

// Disable cancels the read loop and closes the port. Closing the port
// unblocks the scanner's blocking read so the goroutine exits promptly.
func (r *Reader) Disable(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}
	if r.port != nil {
		_ = r.port.Close()
	}
	if r.done != nil {
		<-r.done
	}
	return r.BaseModule.Disable(ctx)
}

func (r *Reader) readLoop(ctx context.Context) {
	defer close(r.done)

	scanner := bufio.NewScanner(r.port)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		r.parseSentence(line)
	}
}

// LatestFix returns a copy of the most recently parsed fix.
func (r *Reader) LatestFix() Fix {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fix
}

// parseSentence dispatches a single NMEA sentence to the GGA or RMC
// parser, discarding the checksum. Unrecognized sentence types are
// ignored.
func (r *Reader) parseSentence(sentence string) {
	body := sentence
	if idx := strings.Index(sentence, "*"); idx >= 0 {
		body = sentence[:idx]
	}

	parts := strings.Split(body, ",")
	if len(parts) == 0 || len(parts[0]) < 3 {
		return
	}
	msgType := parts[0]

	switch {
	case strings.HasSuffix(msgType, "GGA"):
		r.parseGGA(parts)
	case strings.HasSuffix(msgType, "RMC"):
		r.parseRMC(parts)
	}
}

// parseGGA updates position, fix quality, satellite count, and altitude
// from a $G*GGA sentence. Empty fields leave the previous value in place
// except fix_quality, which is authoritative per sentence.
func (r *Reader) parseGGA(parts []string) {
	if len(parts) < 10 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if lat, lon, ok := parseLatLonPair(parts[2], parts[3], parts[4], parts[5]); ok {
		r.fix.Latitude = lat
		r.fix.Longitude = lon
	}

	if q, err := strconv.Atoi(parts[6]); err == nil {
		r.fix.FixQuality = q
	} else {
		r.fix.FixQuality = 0
	}

	if sat, err := strconv.Atoi(parts[7]); err == nil {
		r.fix.Satellites = sat
	}

	if alt, err := strconv.ParseFloat(parts[9], 64); err == nil {
		r.fix.Altitude = alt
	}

	r.fix.Timestamp = time.Now().UTC()
}

// parseRMC updates speed and course from a $G*RMC sentence when the
// sentence reports a valid fix (status field "A").
func (r *Reader) parseRMC(parts []string) {
	if len(parts) < 9 {
		return
	}

	if parts[2] != "A" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if lat, lon, ok := parseLatLonPair(parts[3], parts[4], parts[5], parts[6]); ok {
		r.fix.Latitude = lat
		r.fix.Longitude = lon
	}

	if knots, err := strconv.ParseFloat(parts[7], 64); err == nil {
		r.fix.SpeedKmh = knots * 1.852
	}

	if course, err := strconv.ParseFloat(parts[8], 64); err == nil {
		r.fix.HeadingDeg = course
	}

	r.fix.Timestamp = time.Now().UTC()
}

// parseLatLonPair parses NMEA ddmm.mmmm/dddmm.mmmm latitude and longitude
// fields with their hemisphere letters. Returns ok=false if either value
// fails to parse, in which case the caller must leave the previous fix
// untouched.
func parseLatLonPair(latRaw, latHemi, lonRaw, lonHemi string) (lat, lon float64, ok bool) {
	lat, okLat := parseLatLon(latRaw, latHemi)
	lon, okLon := parseLatLon(lonRaw, lonHemi)
	return lat, lon, okLat && okLon
}

// parseLatLon converts one NMEA coordinate field (degrees and minutes
// concatenated) plus its hemisphere letter into signed decimal degrees.
// Latitude fields have a 2-digit degree part; longitude fields have 3.
func parseLatLon(value, hemisphere string) (float64, bool) {
	if value == "" {
		return 0, false
	}

	dotIdx := strings.Index(value, ".")
	if dotIdx < 2 {
		return 0, false
	}

	degreeDigits := 2
	if hemisphere == "E" || hemisphere == "W" {
		degreeDigits = 3
	}
	if dotIdx < degreeDigits {
		return 0, false
	}

	degrees, err := strconv.ParseFloat(value[:degreeDigits], 64)
	if err != nil {
		return 0, false
	}
	minutes, err := strconv.ParseFloat(value[degreeDigits:], 64)
	if err != nil {
		return 0, false
	}

	result := degrees + minutes/60.0
	if hemisphere == "S" || hemisphere == "W" {
		result = -result
	}
	return result, true
}
