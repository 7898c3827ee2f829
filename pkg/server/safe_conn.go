package server

import (
	"net"
	"sync"
	"time"

	"github.com/GTX96/SocialGossip/pkg/protocol"
)

// SafeConn wraps a net.Conn with automatic write synchronization to
// prevent concurrent writes from corrupting the wire framing.
//
// A request handler answering on a connection and a push targeting the
// same connection (after it became a notification channel) may run
// concurrently; without synchronization their length-prefixed messages
// would interleave on the wire. SafeConn encapsulates the connection
// and its write mutex so unsynchronized writes are impossible.
type SafeConn struct {
	conn net.Conn
	mu   sync.Mutex // Protects writes to conn
}

// NewSafeConn wraps a net.Conn with write synchronization.
func NewSafeConn(conn net.Conn) *SafeConn {
	return &SafeConn{conn: conn}
}

// WriteString encodes and sends one framed message. This is the only
// way to write to the connection — the raw conn is private.
func (sc *SafeConn) WriteString(s string) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return protocol.WriteString(sc.conn, s)
}

// ReadString reads one framed message. Reads don't need write
// synchronization; the caller owns the read side.
func (sc *SafeConn) ReadString() (string, error) {
	return protocol.ReadString(sc.conn)
}

// SetReadDeadline bounds the next read.
func (sc *SafeConn) SetReadDeadline(t time.Time) error {
	return sc.conn.SetReadDeadline(t)
}

// Close closes the underlying connection.
func (sc *SafeConn) Close() error {
	return sc.conn.Close()
}

// RemoteAddr returns the remote network address.
func (sc *SafeConn) RemoteAddr() net.Addr {
	return sc.conn.RemoteAddr()
}
