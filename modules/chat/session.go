package chat

// Connection is the outbound half of a live transport connection. The api
// module wraps WebSocket connections behind it; tests use in-memory fakes.
type Connection interface {
	// Send writes one text frame. It may block on transport I/O and is
	// never called while the manager's state lock is held.
	Send(text string) error
	Close() error
}

// sessionKey identifies a session by its (room, user) pair.
type sessionKey struct {
	roomID string
	userID string
}

// session binds a room member to an open connection and tracks consecutive
// missed heartbeats. Sessions are runtime-only state owned by the Manager;
// one exists only while its user is a room member and the connection is up.
type session struct {
	roomID string
	userID string
	conn   Connection
	missed int
}
