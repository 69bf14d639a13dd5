package config

import (
	"os"

	"github.com/oleche/elcano-nav-go/internal/netstatus"
)

// WriteStatus writes the one-word connectivity status file consumed by
// operator tooling, per §6. It overwrites unconditionally; the Supervisor
// calls this only when the state actually changes, so writes stay rare.
func WriteStatus(path string, state netstatus.State) error {
	return os.WriteFile(path, []byte(string(state)+"\n"), 0o644)
}
