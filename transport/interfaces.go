package transport

import (
	"net"
	"strings"
)

// UsableInterfaces lists the network interfaces worth joining the mDNS
// multicast group on: up, multicast-capable, not loopback, and not one of
// the VPN/container interface families that never carry LAN peers.
func UsableInterfaces() ([]net.Interface, error) {
	all, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	usable := make([]net.Interface, 0, len(all))
	for _, iface := range all {
		if iface.Flags&net.FlagUp == 0 {
			continue
		}
		if iface.Flags&net.FlagMulticast == 0 {
			continue
		}
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		if isTunnelInterface(iface.Name) || isContainerInterface(iface.Name) {
			continue
		}
		usable = append(usable, iface)
	}

	return usable, nil
}

// isTunnelInterface matches common VPN/tunnel interface naming
// conventions (macOS utun, Linux tun/ppp, WireGuard, Tailscale) — these
// never carry link-local multicast peers worth querying.
func isTunnelInterface(name string) bool {
	for _, prefix := range []string{"utun", "tun", "ppp", "wg", "tailscale", "wireguard"} {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// isContainerInterface matches Docker/container bridge and veth naming.
func isContainerInterface(name string) bool {
	return name == "docker0" || strings.HasPrefix(name, "veth") || strings.HasPrefix(name, "br-")
}
