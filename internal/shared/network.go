package shared

import (
	"net"
)

var dialUDP = func() (net.Conn, error) { return net.Dial("udp", "8.8.8.8:53") }

// LocalIP returns the address other hosts on the network should use to reach this machine.
//
// Prefers the source address of the default route and falls back to the first non-loopback interface address.
// Returns "localhost" when no address is found.
func LocalIP() string {
	if conn, err := dialUDP(); err == nil {
		defer conn.Close()
		if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok && !addr.IP.IsLoopback() {
			return addr.IP.String()
		}
	}

	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "localhost"
	}
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipNet.IP.To4(); ip4 != nil {
			return ip4.String()
		}
	}
	return "localhost"
}
