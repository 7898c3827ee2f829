// Package netutil provides ephemeral UDP socket allocation for the
// chat room relay endpoints.
package netutil

import (
	"fmt"
	"net"
)

// ListenEphemeralUDP binds a UDP socket on an unused local port chosen
// by the kernel. The caller owns the returned socket.
func ListenEphemeralUDP() (*net.UDPConn, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: 0})
	if err != nil {
		return nil, fmt.Errorf("failed to bind ephemeral UDP socket: %w", err)
	}
	return conn, nil
}

// FreeUDPPort reserves and immediately releases an unused UDP port,
// returning its number. The port is not held, so callers that need the
// socket itself should use ListenEphemeralUDP instead; this is for
// addresses handed to other processes (multicast group ports).
func FreeUDPPort() (int, error) {
	conn, err := ListenEphemeralUDP()
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return 0, fmt.Errorf("unexpected local address type %T", conn.LocalAddr())
	}
	return addr.Port, nil
}
