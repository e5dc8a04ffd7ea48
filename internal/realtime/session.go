package realtime

import (
	"sync"

	"github.com/google/uuid"
)

// Conn is the subset of a WebSocket connection the realtime layer writes to.
// *websocket.Conn satisfies it; tests substitute in-memory fakes.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

// Session is one connected client for the lifetime of its connection. It is
// owned by the Gateway; its topic set is a weak back-reference maintained by
// the Registry (under the Registry's lock) and used only for disconnect
// cleanup, never for dispatch.
type Session struct {
	ID   string
	conn Conn

	// serializes writes; gorilla conns allow only one concurrent writer
	writeMu sync.Mutex

	// guarded by the owning Registry's mutex
	topics map[string]struct{}
}

// NewSession wraps a connection in a Session with a fresh ID.
func NewSession(conn Conn) *Session {
	return &Session{
		ID:     uuid.NewString(),
		conn:   conn,
		topics: make(map[string]struct{}),
	}
}

// Send writes one JSON message to the session's connection.
func (s *Session) Send(msg any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(msg)
}

// Close closes the underlying connection.
func (s *Session) Close() error {
	return s.conn.Close()
}
