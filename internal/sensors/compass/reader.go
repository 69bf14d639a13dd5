// Package compass polls an accelerometer and magnetometer over I2C and
// produces a tilt-compensated heading, with calibration support and a
// graceful "unavailable" fallback when the bus has no device.
package compass

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sync"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/oleche/elcano-nav-go/internal/core"
	"github.com/oleche/elcano-nav-go/internal/logging"
)

const (
	accelAddress = 0x19
	magAddress   = 0x1E

	accelScaleLSBPerG      = 16384.0
	magScaleXYLSBPerGauss  = 1100.0
	magScaleZLSBPerGauss   = 980.0

	pollInterval       = 100 * time.Millisecond // ~10 Hz per spec
	headingFreshWindow = 5 * time.Second
)

// Sample is one reading of the tilt-compensated heading and the raw
// accelerometer/magnetometer values it was derived from.
type Sample struct {
	Timestamp        time.Time
	HeadingDeg       float64
	AccelX, AccelY, AccelZ float64 // g
	MagX, MagY, MagZ       float64 // gauss
	TiltCompensated  bool
}

// Calibration holds the per-axis offset and scale applied to raw
// magnetometer readings before heading computation.
type Calibration struct {
	OffsetX, OffsetY, OffsetZ float64
	ScaleX, ScaleY, ScaleZ    float64
}

// DefaultCalibration is the identity calibration: no offset, unit scale.
func DefaultCalibration() Calibration {
	return Calibration{ScaleX: 1, ScaleY: 1, ScaleZ: 1}
}

// Reader polls the accelerometer and magnetometer and publishes the
// latest tilt-compensated Sample. It implements core.Module; Enable's
// failure is non-fatal per §7, reported instead via Available().
type Reader struct {
	*core.BaseModule

	accelBus i2c.BusCloser
	magBus   i2c.BusCloser
	accelDev *i2c.Dev
	magDev   *i2c.Dev

	busName          string
	calibrationPath  string

	mu          sync.RWMutex
	sample      Sample
	calibration Calibration
	available   bool

	cancel context.CancelFunc
	done   chan struct{}

	log *logging.Logger
}

// NewReader creates a CompassReader bound to the named I2C bus (empty
// string lets periph.io pick the default bus).
func NewReader(busName, calibrationPath string) *Reader {
	return &Reader{
		BaseModule:      core.NewBaseModule("compass"),
		busName:         busName,
		calibrationPath: calibrationPath,
		calibration:     DefaultCalibration(),
		log:             logging.NewLogger("compass"),
	}
}

// Available reports whether the compass was detected on the bus at Enable
// time. When false, TelemetryCore must fall back to GNSS-only heading.
func (r *Reader) Available() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.available
}

// Enable opens the I2C bus and starts the poll loop. Bus-open failure is
// caught here and reported as unavailable rather than returned, per
// §4.5/§7: compass absence must not be fatal.
func (r *Reader) Enable(ctx context.Context) error {
	r.LoadCalibration()

	if _, err := host.Init(); err != nil {
		r.log.Warning("compass: host init failed, marking unavailable: %v", err)
		return r.BaseModule.Enable(ctx)
	}

	bus, err := i2creg.Open(r.busName)
	if err != nil {
		r.log.Warning("compass: open bus %q failed, marking unavailable: %v", r.busName, err)
		return r.BaseModule.Enable(ctx)
	}

	accelDev := &i2c.Dev{Bus: bus, Addr: accelAddress}
	magDev := &i2c.Dev{Bus: bus, Addr: magAddress}

	// Probe the magnetometer with a harmless register read; treat failure
	// as "not detected" rather than a fatal error.
	probe := make([]byte, 1)
	if err := magDev.Tx([]byte{0x00}, probe); err != nil {
		r.log.Warning("compass: magnetometer not detected on bus %q: %v", r.busName, err)
		bus.Close()
		return r.BaseModule.Enable(ctx)
	}

	r.accelBus = bus
	r.accelDev = accelDev
	r.magDev = magDev

	r.mu.Lock()
	r.available = true
	r.mu.Unlock()

	loopCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	go r.pollLoop(loopCtx)

	return r.BaseModule.Enable(ctx)
}

// Disable stops the poll loop and releases the bus handle, if one was
// opened.
func (r *Reader) Disable(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}
	if r.done != nil {
		<-r.done
	}
	if r.accelBus != nil {
		_ = r.accelBus.Close()
	}
	return r.BaseModule.Disable(ctx)
}

func (r *Reader) pollLoop(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.poll()
		}
	}
}

func (r *Reader) poll() {
	ax, ay, az, err := r.readAccel()
	if err != nil {
		r.log.Warning("compass: accel read failed: %v", err)
		return
	}
	mx, my, mz, err := r.readMag()
	if err != nil {
		r.log.Warning("compass: mag read failed: %v", err)
		return
	}

	cal := r.Calibration()
	mx = (mx - cal.OffsetX) * cal.ScaleX
	my = (my - cal.OffsetY) * cal.ScaleY
	mz = (mz - cal.OffsetZ) * cal.ScaleZ

	heading, compensated := tiltCompensatedHeading(ax, ay, az, mx, my, mz)

	r.mu.Lock()
	r.sample = Sample{
		Timestamp:       time.Now().UTC(),
		HeadingDeg:      heading,
		AccelX:          ax,
		AccelY:          ay,
		AccelZ:          az,
		MagX:            mx,
		MagY:            my,
		MagZ:            mz,
		TiltCompensated: compensated,
	}
	r.mu.Unlock()
}

// tiltCompensatedHeading implements the formula from §4.5: tilt-compensate
// the magnetometer reading using roll/pitch derived from the
// accelerometer, falling back to an uncompensated atan2(my, mx) when the
// accelerometer reads zero magnitude (e.g. a dead or unresponsive sensor).
func tiltCompensatedHeading(ax, ay, az, mx, my, mz float64) (headingDeg float64, compensated bool) {
	if ax == 0 && ay == 0 && az == 0 {
		return normalizeDegrees(math.Atan2(my, mx) * 180 / math.Pi), false
	}

	roll := math.Atan2(ay, az)
	pitch := math.Atan2(-ax, math.Sqrt(ay*ay+az*az))

	mxComp := mx*math.Cos(pitch) + mz*math.Sin(pitch)
	myComp := mx*math.Sin(roll)*math.Sin(pitch) + my*math.Cos(roll) - mz*math.Sin(roll)*math.Cos(pitch)

	heading := math.Atan2(myComp, mxComp) * 180 / math.Pi
	return normalizeDegrees(heading), true
}

func normalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

func (r *Reader) readAccel() (ax, ay, az float64, err error) {
	write := []byte{0x28 | 0x80} // auto-increment start register, LSM303-style layout
	read := make([]byte, 6)
	if err := r.accelDev.Tx(write, read); err != nil {
		return 0, 0, 0, err
	}

	rawX := int16(binary.LittleEndian.Uint16(read[0:2]))
	rawY := int16(binary.LittleEndian.Uint16(read[2:4]))
	rawZ := int16(binary.LittleEndian.Uint16(read[4:6]))

	return float64(rawX) / accelScaleLSBPerG,
		float64(rawY) / accelScaleLSBPerG,
		float64(rawZ) / accelScaleLSBPerG,
		nil
}

func (r *Reader) readMag() (mx, my, mz float64, err error) {
	write := []byte{0x03} // HMC5883L-style data register start, MSB-first X,Z,Y order
	read := make([]byte, 6)
	if err := r.magDev.Tx(write, read); err != nil {
		return 0, 0, 0, err
	}

	rawX := int16(binary.BigEndian.Uint16(read[0:2]))
	rawZ := int16(binary.BigEndian.Uint16(read[2:4]))
	rawY := int16(binary.BigEndian.Uint16(read[4:6]))

	return float64(rawX) / magScaleXYLSBPerGauss,
		float64(rawY) / magScaleXYLSBPerGauss,
		float64(rawZ) / magScaleZLSBPerGauss,
		nil
}

// LatestSample returns a copy of the most recent reading.
func (r *Reader) LatestSample() Sample {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sample
}

// Calibration returns the calibration currently applied to raw readings.
func (r *Reader) Calibration() Calibration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.calibration
}

// Calibrate blocks for duration d, tracking the min/max of each
// magnetometer axis, then derives offset and scale per §4.5: offset is
// the midpoint of the observed range, scale normalizes each axis to the
// mean range across all three. The result is applied immediately and
// persisted via SaveCalibration.
func (r *Reader) Calibrate(ctx context.Context, d time.Duration) (Calibration, error) {
	if !r.Available() {
		return Calibration{}, fmt.Errorf("compass: calibration requested but device unavailable")
	}

	deadline := time.Now().Add(d)
	minX, minY, minZ := math.Inf(1), math.Inf(1), math.Inf(1)
	maxX, maxY, maxZ := math.Inf(-1), math.Inf(-1), math.Inf(-1)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return Calibration{}, ctx.Err()
		case <-ticker.C:
			mx, my, mz, err := r.readMag()
			if err != nil {
				continue
			}
			minX, maxX = math.Min(minX, mx), math.Max(maxX, mx)
			minY, maxY = math.Min(minY, my), math.Max(maxY, my)
			minZ, maxZ = math.Min(minZ, mz), math.Max(maxZ, mz)
		}
	}

	rangeX, rangeY, rangeZ := maxX-minX, maxY-minY, maxZ-minZ
	avgRange := (rangeX + rangeY + rangeZ) / 3

	cal := Calibration{
		OffsetX: (maxX + minX) / 2,
		OffsetY: (maxY + minY) / 2,
		OffsetZ: (maxZ + minZ) / 2,
		ScaleX:  scaleOrUnit(avgRange, rangeX),
		ScaleY:  scaleOrUnit(avgRange, rangeY),
		ScaleZ:  scaleOrUnit(avgRange, rangeZ),
	}

	r.mu.Lock()
	r.calibration = cal
	r.mu.Unlock()

	if err := r.SaveCalibration(); err != nil {
		r.log.Warning("compass: save calibration failed: %v", err)
	}

	return cal, nil
}

func scaleOrUnit(avgRange, axisRange float64) float64 {
	if axisRange <= 0 {
		return 1.0
	}
	return avgRange / axisRange
}

// SaveCalibration persists the current calibration to calibrationPath as
// JSON, so it survives a restart.
func (r *Reader) SaveCalibration() error {
	if r.calibrationPath == "" {
		return nil
	}

	data, err := json.Marshal(r.Calibration())
	if err != nil {
		return fmt.Errorf("marshal calibration: %w", err)
	}

	return os.WriteFile(r.calibrationPath, data, 0o644)
}

// LoadCalibration reads a previously saved calibration from disk, if
// present. A missing or malformed file leaves the identity calibration in
// place rather than failing Enable.
func (r *Reader) LoadCalibration() {
	if r.calibrationPath == "" {
		return
	}

	data, err := os.ReadFile(r.calibrationPath)
	if err != nil {
		return
	}

	var cal Calibration
	if err := json.Unmarshal(data, &cal); err != nil {
		r.log.Warning("compass: malformed calibration file %s: %v", r.calibrationPath, err)
		return
	}

	r.mu.Lock()
	r.calibration = cal
	r.mu.Unlock()
}
