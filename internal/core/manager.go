package core

import (
	"context"
	"fmt"
	"sync"

	"github.com/oleche/elcano-nav-go/internal/logging"
)

// Manager holds the navigator's registered Modules and drives their
// Enable/Disable in registration order.
type Manager struct {
	mu      sync.Mutex
	modules []Module
	enabled bool
	log     *logging.Logger
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{log: logging.NewLogger("core")}
}

// Register adds a module. Registration order is significant: EnableAll
// walks modules in the order they were registered, so a module whose
// startup failure must be fatal (§7: GNSS) is registered ahead of one
// whose failure is not (§7: compass).
func (m *Manager) Register(module Module) error {
	if module == nil {
		return fmt.Errorf("cannot register nil module")
	}
	if module.Name() == "" {
		return fmt.Errorf("module name cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.modules {
		if existing.Name() == module.Name() {
			return fmt.Errorf("module %q already registered", module.Name())
		}
	}
	m.modules = append(m.modules, module)
	return nil
}

// ModuleCount returns the number of registered modules.
func (m *Manager) ModuleCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.modules)
}

// EnableAll enables every registered module in registration order,
// stopping at the first one that returns an error. A module registered
// after a failed one is never enabled, which is what makes a module's
// position in the registration order its de facto fatality: put the
// modules the process cannot run without first.
func (m *Manager) EnableAll(ctx context.Context) error {
	m.mu.Lock()
	modules := append([]Module(nil), m.modules...)
	m.mu.Unlock()

	for _, module := range modules {
		if err := module.Enable(ctx); err != nil {
			return fmt.Errorf("enable %q: %w", module.Name(), err)
		}
	}

	m.mu.Lock()
	m.enabled = true
	m.mu.Unlock()
	return nil
}

// DisableAll disables every active module in reverse registration order.
// Unlike EnableAll it does not stop at the first failure: shutdown should
// give every module a chance to release its resources even if one of
// them misbehaves. Failures are logged, not returned.
func (m *Manager) DisableAll(ctx context.Context) error {
	m.mu.Lock()
	if !m.enabled {
		m.mu.Unlock()
		return nil
	}
	modules := append([]Module(nil), m.modules...)
	m.enabled = false
	m.mu.Unlock()

	for i := len(modules) - 1; i >= 0; i-- {
		module := modules[i]
		if !module.IsActive() {
			continue
		}
		if err := module.Disable(ctx); err != nil {
			m.log.Warning("disable %q: %v", module.Name(), err)
		}
	}
	return nil
}

// IsEnabled reports whether EnableAll has completed successfully and
// DisableAll hasn't run since.
func (m *Manager) IsEnabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enabled
}
