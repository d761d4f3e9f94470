// Package registry tracks the live socket for each authenticated user.
// It is the only mutable state shared between connection handlers and
// the event fanout.
package registry

import "sync"

// Conn is the minimal socket handle the registry stores. The concrete
// implementation lives with the WebSocket session; tests substitute
// fakes.
type Conn interface {
	// WriteText writes one text frame. Safe for concurrent use.
	WriteText(data []byte) error
	// Close closes the connection with the given close code and reason.
	Close(code int, reason string) error
}

// Registry maps user identity to the user's current socket.
// All methods are safe for concurrent use.
type Registry interface {
	// Register installs conn as the current socket for userID and
	// returns the previously installed socket, if any. The caller
	// decides whether to close the previous one.
	Register(userID string, conn Conn) (prev Conn)
	// Deregister removes the mapping only if conn is still the
	// currently installed socket, and reports whether removal
	// occurred. A stale close callback from a superseded connection
	// therefore never evicts the newer one.
	Deregister(userID string, conn Conn) bool
	// Lookup returns the current socket for userID.
	Lookup(userID string) (Conn, bool)
}

// Memory is the in-process Registry used by the single-instance
// gateway. The Registry interface exists so a distributed store can
// replace it without touching codec or fanout logic.
type Memory struct {
	mu    sync.RWMutex
	conns map[string]Conn
}

// NewMemory creates an empty in-memory Registry.
func NewMemory() *Memory {
	return &Memory{
		conns: make(map[string]Conn),
	}
}

// Register installs conn for userID and returns the displaced socket.
//
// Precondition: userID must be non-empty; conn must be non-nil.
// Postcondition: Lookup(userID) returns conn until superseded or deregistered.
func (m *Memory) Register(userID string, conn Conn) Conn {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.conns[userID]
	m.conns[userID] = conn
	return prev
}

// Deregister removes the mapping for userID only if conn is the
// currently installed socket.
//
// Postcondition: Returns true if the mapping was removed, false if
// userID was absent or mapped to a different socket.
func (m *Memory) Deregister(userID string, conn Conn) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.conns[userID]
	if !ok || current != conn {
		return false
	}
	delete(m.conns, userID)
	return true
}

// Lookup returns the current socket for userID.
//
// Postcondition: Returns (conn, true) if a socket is installed, or (nil, false).
func (m *Memory) Lookup(userID string) (Conn, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	conn, ok := m.conns[userID]
	return conn, ok
}

// Count returns the number of registered connections.
func (m *Memory) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.conns)
}
