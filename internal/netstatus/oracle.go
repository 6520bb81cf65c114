// Package netstatus exposes the runtime's network-reachability signal.
//
// The oracle reports link-layer presence only; it does not verify that the
// remote store is actually reachable. A sync attempt may still fail with the
// oracle reporting true — that is handled by the sync engine's per-item error
// path, not here.
package netstatus

import "net"

// Oracle reports the instantaneous online/offline state. No caching, no
// debouncing: each call reflects the current signal.
type Oracle interface {
	IsOnline() bool
}

// InterfaceOracle reads the host's interface table: online means at least one
// non-loopback interface is up and holds an address.
type InterfaceOracle struct{}

// IsOnline implements Oracle.
func (InterfaceOracle) IsOnline() bool {
	ifaces, err := net.Interfaces()
	if err != nil {
		return false
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err == nil && len(addrs) > 0 {
			return true
		}
	}
	return false
}

// StaticOracle reports a fixed state. Used by tests and by the forced-offline
// configuration switch.
type StaticOracle struct {
	Online bool
}

// IsOnline implements Oracle.
func (o *StaticOracle) IsOnline() bool {
	return o.Online
}
