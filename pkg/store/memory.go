package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/go-training/mcp-calculator/pkg/core"
)

var (
	// ErrSessionNotFound is returned when a session is not in the store or has expired.
	ErrSessionNotFound = errors.New("session not found")
	// ErrNilSession is returned when attempting to save a nil session.
	ErrNilSession = errors.New("session cannot be nil")
	// ErrEmptySessionID is returned when the session ID string is empty.
	ErrEmptySessionID = errors.New("session ID cannot be empty")
	// ErrSessionExists is returned when creating a session whose ID is already connected.
	ErrSessionExists = errors.New("session already exists")
	// ErrQueueFull is returned when a session has too many undelivered messages.
	ErrQueueFull = errors.New("session queue is full")
)

// DefaultMaxQueue bounds the number of undelivered messages per session.
const DefaultMaxQueue = 1024

type memorySession struct {
	session core.Session
	queue   [][]byte
}

// MemoryStore implements the core.SessionStore interface using an in-memory map.
// Sessions not seen within the TTL are reaped lazily.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*memorySession
	ttl      time.Duration
	maxQueue int
	now      func() time.Time
}

// NewMemoryStore creates a new instance of MemoryStore. A zero ttl disables expiry.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*memorySession),
		ttl:      ttl,
		maxQueue: DefaultMaxQueue,
		now:      time.Now,
	}
}

func (m *MemoryStore) expired(s *memorySession) bool {
	return m.ttl > 0 && m.now().Sub(time.Unix(s.session.LastSeen, 0)) > m.ttl
}

// lookup returns a live session; the caller must hold the write lock.
func (m *MemoryStore) lookup(id string) (*memorySession, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if m.expired(s) {
		delete(m.sessions, id)
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// CreateSession stores a new session with an empty queue. ConnectedAt and
// LastSeen default to the current time.
func (m *MemoryStore) CreateSession(ctx context.Context, session *core.Session) error {
	if session == nil {
		return ErrNilSession
	}
	if session.ID == "" {
		return ErrEmptySessionID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.lookup(session.ID); err == nil {
		return ErrSessionExists
	}
	s := *session
	now := m.now().Unix()
	if s.ConnectedAt == 0 {
		s.ConnectedAt = now
	}
	if s.LastSeen == 0 {
		s.LastSeen = now
	}
	m.sessions[s.ID] = &memorySession{session: s}
	return nil
}

// GetSession returns a copy of the session.
func (m *MemoryStore) GetSession(ctx context.Context, id string) (*core.Session, error) {
	if id == "" {
		return nil, ErrEmptySessionID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	session := s.session
	return &session, nil
}

// TouchSession marks the session as seen now.
func (m *MemoryStore) TouchSession(ctx context.Context, id string) error {
	if id == "" {
		return ErrEmptySessionID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.lookup(id)
	if err != nil {
		return err
	}
	s.session.LastSeen = m.now().Unix()
	return nil
}

// DeleteSession removes the session and drops its queue.
func (m *MemoryStore) DeleteSession(ctx context.Context, id string) error {
	if id == "" {
		return ErrEmptySessionID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[id]; !exists {
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

// ListSessions returns live sessions ordered by ID, reaping expired ones.
func (m *MemoryStore) ListSessions(ctx context.Context) ([]*core.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*core.Session, 0, len(m.sessions))
	for id, s := range m.sessions {
		if m.expired(s) {
			delete(m.sessions, id)
			continue
		}
		session := s.session
		out = append(out, &session)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Enqueue appends message to the session queue.
func (m *MemoryStore) Enqueue(ctx context.Context, id string, message []byte) error {
	if id == "" {
		return ErrEmptySessionID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.lookup(id)
	if err != nil {
		return err
	}
	if len(s.queue) >= m.maxQueue {
		return ErrQueueFull
	}
	s.queue = append(s.queue, message)
	return nil
}

// Dequeue pops up to limit messages from the session queue.
func (m *MemoryStore) Dequeue(ctx context.Context, id string, limit int) ([][]byte, error) {
	if id == "" {
		return nil, ErrEmptySessionID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	n := min(limit, len(s.queue))
	if n <= 0 {
		return nil, nil
	}
	out := s.queue[:n:n]
	s.queue = s.queue[n:]
	return out, nil
}

// Close releases nothing; it exists to satisfy core.SessionStore.
func (m *MemoryStore) Close() error {
	return nil
}
