// Package netstatus samples the device's Wi-Fi connectivity state for the
// Supervisor's status bar and sync-gating logic.
package netstatus

import (
	"net"
	"os/exec"
	"strings"
)

// State is the tri-state connectivity summary written to the status file.
type State string

const (
	Disconnected  State = "DISCONNECTED"
	Connected     State = "CONNECTED"
	CannotConnect State = "CANNOT_CONNECT"
)

// Sample is a point-in-time read of the Wi-Fi interface.
type Sample struct {
	State State
	SSID  string
}

// Prober reports the current Wi-Fi connectivity state. The default
// implementation shells out to iwgetid the way the legacy system probe
// shelled out to setxkbmap, and falls back to a local-address check when
// iwgetid is unavailable (e.g. on a dev machine with no wireless stack).
type Prober struct {
	// Interface restricts SSID lookup to a specific device; empty means
	// "whichever interface iwgetid picks".
	Interface string
}

// NewProber creates a Wi-Fi prober for the named interface ("" = any).
func NewProber(iface string) *Prober {
	return &Prober{Interface: iface}
}

// Sample reports the current connectivity state.
func (p *Prober) Sample() Sample {
	if ssid, ok := p.querySSID(); ok {
		if ssid == "" {
			return Sample{State: Disconnected}
		}
		return Sample{State: Connected, SSID: ssid}
	}

	if p.hasRoutableAddress() {
		return Sample{State: Connected}
	}

	return Sample{State: Disconnected}
}

func (p *Prober) querySSID() (string, bool) {
	args := []string{"-r"}
	if p.Interface != "" {
		args = append(args, p.Interface)
	}

	out, err := exec.Command("iwgetid", args...).Output()
	if err != nil {
		return "", false
	}

	return strings.TrimSpace(string(out)), true
}

// hasRoutableAddress is the fallback probe for hosts without iwgetid: it
// looks for any non-loopback interface holding an IPv4 address, which is
// as close as we get to "associated" without a netlink dependency.
func (p *Prober) hasRoutableAddress() bool {
	ifaces, err := net.Interfaces()
	if err != nil {
		return false
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 || iface.Flags&net.FlagUp == 0 {
			continue
		}
		if p.Interface != "" && iface.Name != p.Interface {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			if ipNet.IP.To4() != nil && !ipNet.IP.IsLinkLocalUnicast() {
				return true
			}
		}
	}

	return false
}
