// Package errs defines the navigator's error taxonomy as typed errors
// that wrap an underlying cause. The store returns Integrity errors when
// opening, migrating or reconciling its database; the other components
// return plain wrapped errors, and the Supervisor does not inspect these
// types (its fatal/non-fatal split comes from module registration order).
package errs

import "fmt"

// Transient marks I/O failures expected to clear on their own: a serial
// read timeout, a network call, a tile decode error. The caller should log
// at warn, preserve any queued data, and retry on the next tick.
type Transient struct {
	Op  string
	Err error
}

func (e *Transient) Error() string {
	return fmt.Sprintf("%s: transient: %v", e.Op, e.Err)
}

func (e *Transient) Unwrap() error { return e.Err }

// NewTransient wraps err as a Transient error for operation op.
func NewTransient(op string, err error) *Transient {
	return &Transient{Op: op, Err: err}
}

// Config marks a missing or invalid configuration value: an absent or
// blacklisted sync key, an unreadable config file. These never stop the
// process; they route to a fallback screen or a set of defaults.
type Config struct {
	Op  string
	Err error
}

func (e *Config) Error() string {
	return fmt.Sprintf("%s: config: %v", e.Op, e.Err)
}

func (e *Config) Unwrap() error { return e.Err }

// NewConfig wraps err as a Config error for operation op.
func NewConfig(op string, err error) *Config {
	return &Config{Op: op, Err: err}
}

// Integrity marks store corruption or a schema mismatch discovered at
// runtime. Always fatal: the Supervisor shuts down cleanly with a nonzero
// exit code rather than operate against a store it can't trust.
type Integrity struct {
	Op  string
	Err error
}

func (e *Integrity) Error() string {
	return fmt.Sprintf("%s: integrity: %v", e.Op, e.Err)
}

func (e *Integrity) Unwrap() error { return e.Err }

// NewIntegrity wraps err as an Integrity error for operation op.
func NewIntegrity(op string, err error) *Integrity {
	return &Integrity{Op: op, Err: err}
}

// Hardware marks a peripheral that failed to open or respond. Display and
// GnssReader absence is fatal; CompassReader absence is not — the caller
// decides which, this type only carries the classification.
type Hardware struct {
	Op       string
	Err      error
	Fatal    bool
	Resource string
}

func (e *Hardware) Error() string {
	kind := "non-fatal"
	if e.Fatal {
		kind = "fatal"
	}
	return fmt.Sprintf("%s: hardware (%s, %s): %v", e.Op, e.Resource, kind, e.Err)
}

func (e *Hardware) Unwrap() error { return e.Err }

// NewHardware wraps err as a Hardware error for the named resource.
func NewHardware(op, resource string, fatal bool, err error) *Hardware {
	return &Hardware{Op: op, Err: err, Fatal: fatal, Resource: resource}
}
