package models

import "net"

// defaultConnectivityProbe reports whether any non-loopback network
// interface is up and has an address assigned. This is the portable
// equivalent of asking the OS for an active Wi-Fi, cellular, or wired
// transport.
func defaultConnectivityProbe() bool {
	ifaces, err := net.Interfaces()
	if err != nil {
		return false
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil || len(addrs) == 0 {
			continue
		}
		return true
	}
	return false
}
