// Package telemetry combines the GNSS and compass readers into a single
// authoritative view of position and heading, and decides when a new fix
// warrants a logbook entry.
package telemetry

import (
	"math"
	"sync"
	"time"

	"github.com/oleche/elcano-nav-go/internal/sensors/compass"
	"github.com/oleche/elcano-nav-go/internal/sensors/gnss"
)

const (
	compassFreshWindow      = 5 * time.Second
	significantSpeedDeltaKmh = 2.0
	significantHeadingDelta  = 15.0
	defaultPeriodicInterval  = 60 * time.Second
)

// TriggerReason names why a logbook entry is being recorded.
type TriggerReason string

const (
	ReasonSignificantChange TriggerReason = "significant_change"
	ReasonPeriodic          TriggerReason = "periodic"
	ReasonTripStart         TriggerReason = "trip_start"
	ReasonTripStop          TriggerReason = "trip_stop"
)

// LogbookTrigger is emitted by OnNewFix when the fix should be recorded.
type LogbookTrigger struct {
	Fix    gnss.Fix
	Reason TriggerReason
}

// Core is the single point of truth for "where are we and which way are
// we pointed", combining the GNSS and compass readers. It exclusively owns
// the latest Fix and CompassSample; every other component reads through
// its accessors, which return copies.
type Core struct {
	gnssReader    *gnss.Reader
	compassReader *compass.Reader

	periodicInterval time.Duration

	mu              sync.Mutex
	speedPrev       float64
	headingPrev     float64
	havePrev        bool
	lastPeriodic    time.Time
	tripActive      bool
}

// NewCore wires a TelemetryCore to its sensor readers. periodicInterval is
// the logbook periodic-trigger cadence (default 60s per §4.6).
func NewCore(gnssReader *gnss.Reader, compassReader *compass.Reader, periodicInterval time.Duration) *Core {
	if periodicInterval <= 0 {
		periodicInterval = defaultPeriodicInterval
	}
	return &Core{
		gnssReader:       gnssReader,
		compassReader:    compassReader,
		periodicInterval: periodicInterval,
	}
}

// LatestFix returns a copy of the most recent GNSS fix.
func (c *Core) LatestFix() gnss.Fix {
	return c.gnssReader.LatestFix()
}

// LatestCompass returns a copy of the most recent compass sample.
func (c *Core) LatestCompass() compass.Sample {
	return c.compassReader.LatestSample()
}

// CurrentHeading prefers a fresh compass sample (<=5s old per §4.6) and
// falls back to the GNSS course over ground otherwise.
func (c *Core) CurrentHeading() (heading float64, fromCompass bool) {
	sample := c.compassReader.LatestSample()
	if c.compassReader.Available() && time.Since(sample.Timestamp) <= compassFreshWindow {
		return sample.HeadingDeg, true
	}
	return c.gnssReader.LatestFix().HeadingDeg, false
}

// SetTripActive toggles whether the periodic logbook trigger is armed; it
// only fires while a trip is active, per §4.6/§4.12.
func (c *Core) SetTripActive(active bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tripActive = active
	if active {
		c.lastPeriodic = time.Now()
	}
}

// OnNewFix evaluates the significant-change and periodic trigger
// conditions against a newly observed fix and returns a LogbookTrigger if
// one should be recorded, or ok=false otherwise.
func (c *Core) OnNewFix(fix gnss.Fix) (trigger LogbookTrigger, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.havePrev {
		deltaSpeed := math.Abs(fix.SpeedKmh - c.speedPrev)
		deltaHeading := angularDifference(c.headingPrev, fix.HeadingDeg)

		if deltaSpeed >= significantSpeedDeltaKmh || deltaHeading >= significantHeadingDelta {
			c.speedPrev = fix.SpeedKmh
			c.headingPrev = fix.HeadingDeg
			return LogbookTrigger{Fix: fix, Reason: ReasonSignificantChange}, true
		}
	} else {
		c.speedPrev = fix.SpeedKmh
		c.headingPrev = fix.HeadingDeg
		c.havePrev = true
	}

	if c.tripActive && time.Since(c.lastPeriodic) >= c.periodicInterval {
		c.lastPeriodic = time.Now()
		return LogbookTrigger{Fix: fix, Reason: ReasonPeriodic}, true
	}

	return LogbookTrigger{}, false
}

// angularDifference returns the smaller of the two arcs between two
// headings in degrees, always in [0, 180].
func angularDifference(h1, h2 float64) float64 {
	diff := math.Abs(h1 - h2)
	if diff > 180 {
		diff = 360 - diff
	}
	return diff
}
