// Package core provides the narrow module lifecycle the Supervisor uses
// to bring sensors up and down: a Module knows how to Enable and Disable
// itself, and a Manager drives a fixed set of them in registration order.
//
// There is no dependency graph here. The navigator only ever registers
// two modules - the GNSS reader and the compass reader - and §7's
// startup rule ("GNSS absence is fatal, compass absence is not") is
// purely a function of registration order plus Manager.EnableAll's
// stop-at-first-error behavior: register the fatal module first.
package core

import "context"

// Module is a subsystem the Supervisor starts during boot and stops
// during shutdown.
type Module interface {
	// Name identifies the module in logs and error messages.
	Name() string

	// Enable brings the module up. Returning an error here is what the
	// Manager treats as a startup failure for this module.
	Enable(ctx context.Context) error

	// Disable tears the module down. Manager.DisableAll calls it during
	// shutdown, in reverse registration order, for each module that is
	// still active; DisableAll does nothing unless EnableAll completed, so
	// after a failed startup no module is disabled through the Manager.
	Disable(ctx context.Context) error

	// IsActive reports whether Enable has succeeded and Disable hasn't
	// since been called.
	IsActive() bool
}

// BaseModule gives a Module its Name/IsActive bookkeeping and a default
// Enable/Disable pair that just flips the active flag. Sensor readers
// embed it and override Enable/Disable to do their own hardware setup,
// calling through to BaseModule.Enable/Disable once that setup succeeds.
type BaseModule struct {
	name   string
	active bool
}

// NewBaseModule creates a BaseModule with the given name.
func NewBaseModule(name string) *BaseModule {
	return &BaseModule{name: name}
}

// Name returns the module's name.
func (b *BaseModule) Name() string {
	return b.name
}

// IsActive reports whether the module is currently enabled.
func (b *BaseModule) IsActive() bool {
	return b.active
}

// Enable marks the module active. Embedders call this after their own
// hardware setup succeeds.
func (b *BaseModule) Enable(ctx context.Context) error {
	b.active = true
	return nil
}

// Disable marks the module inactive. Embedders call this after their own
// teardown.
func (b *BaseModule) Disable(ctx context.Context) error {
	b.active = false
	return nil
}
