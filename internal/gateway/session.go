// Package gateway implements the real-time boundary of the game:
// WebSocket admission, the inbound command codec, and the outbound
// event fanout. Game logic lives entirely on the other side of the bus.
package gateway

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Close codes used by the gateway beyond the RFC 6455 set.
const (
	// ClosePolicyViolation rejects a connection that failed admission.
	ClosePolicyViolation = websocket.ClosePolicyViolation // 1008
	// CloseSuperseded tells a client its session was replaced by a
	// newer connection for the same user.
	CloseSuperseded = 4000
)

// sessionConn wraps a WebSocket connection with a write lock so the
// fanout goroutine and the connection's own read loop can both produce
// frames. gorilla/websocket permits at most one concurrent writer.
//
// Writes after Close are harmless no-ops at the protocol level: the
// underlying connection returns an error which callers treat as a
// skipped delivery, never as a fault.
type sessionConn struct {
	mu           sync.Mutex
	conn         *websocket.Conn
	writeTimeout time.Duration
}

func newSessionConn(conn *websocket.Conn, writeTimeout time.Duration) *sessionConn {
	return &sessionConn{
		conn:         conn,
		writeTimeout: writeTimeout,
	}
}

// WriteText writes one text frame. Safe for concurrent use.
func (c *sessionConn) WriteText(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Close sends a close frame with the given code and reason, then closes
// the underlying connection.
func (c *sessionConn) Close(code int, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	deadline := time.Now().Add(c.writeTimeout)
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason), deadline)
	return c.conn.Close()
}

// ping sends a ping control frame. Used by the read loop's keepalive
// ticker.
func (c *sessionConn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.writeTimeout))
}
