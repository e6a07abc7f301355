package core

import "context"

// Session represents a connected SSE client.
type Session struct {
	ID          string `json:"id"`
	ConnectedAt int64  `json:"connected_at"`
	LastSeen    int64  `json:"last_seen"`
}

// SessionStore defines the interface for tracking SSE sessions and the
// responses queued for them. Implementations must be safe for concurrent use.
type SessionStore interface {
	CreateSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	// TouchSession refreshes LastSeen and extends the session's lifetime.
	TouchSession(ctx context.Context, id string) error
	DeleteSession(ctx context.Context, id string) error
	ListSessions(ctx context.Context) ([]*Session, error)

	// Enqueue appends a message to the session's outbound queue.
	Enqueue(ctx context.Context, id string, message []byte) error
	// Dequeue removes and returns up to limit queued messages in FIFO order.
	Dequeue(ctx context.Context, id string, limit int) ([][]byte, error)

	Close() error
}
