package utils

import (
	"fmt"
	"net"
)

// GetOutboundIp returns the address this host would use to reach the wider
// network. Connecting a UDP socket toward a public resolver selects the right
// interface without sending any packet.
func GetOutboundIp() (net.IP, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return nil, fmt.Errorf("outbound address lookup failed: %v", err)
	}
	defer conn.Close()

	return conn.LocalAddr().(*net.UDPAddr).IP, nil
}
