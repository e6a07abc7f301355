package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/go-training/mcp-calculator/pkg/core"
)

// testSessionStore exercises the core.SessionStore contract against any backend.
func testSessionStore(t *testing.T, s core.SessionStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		if err := s.CreateSession(ctx, &core.Session{ID: "client-a"}); err != nil {
			t.Fatalf("CreateSession() error = %v", err)
		}
		got, err := s.GetSession(ctx, "client-a")
		if err != nil {
			t.Fatalf("GetSession() error = %v", err)
		}
		if got.ID != "client-a" || got.ConnectedAt == 0 || got.LastSeen == 0 {
			t.Errorf("GetSession() = %+v, want timestamps set", got)
		}
	})

	t.Run("duplicate create", func(t *testing.T) {
		err := s.CreateSession(ctx, &core.Session{ID: "client-a"})
		if !errors.Is(err, ErrSessionExists) {
			t.Errorf("CreateSession(duplicate) error = %v, want %v", err, ErrSessionExists)
		}
	})

	t.Run("invalid input", func(t *testing.T) {
		if err := s.CreateSession(ctx, nil); !errors.Is(err, ErrNilSession) {
			t.Errorf("CreateSession(nil) error = %v, want %v", err, ErrNilSession)
		}
		if err := s.CreateSession(ctx, &core.Session{}); !errors.Is(err, ErrEmptySessionID) {
			t.Errorf("CreateSession(empty id) error = %v, want %v", err, ErrEmptySessionID)
		}
		if _, err := s.GetSession(ctx, ""); !errors.Is(err, ErrEmptySessionID) {
			t.Errorf("GetSession(\"\") error = %v, want %v", err, ErrEmptySessionID)
		}
	})

	t.Run("queue is fifo", func(t *testing.T) {
		for i := range 3 {
			if err := s.Enqueue(ctx, "client-a", []byte(fmt.Sprintf(`{"id":%d}`, i))); err != nil {
				t.Fatalf("Enqueue(%d) error = %v", i, err)
			}
		}
		first, err := s.Dequeue(ctx, "client-a", 2)
		if err != nil {
			t.Fatalf("Dequeue() error = %v", err)
		}
		if len(first) != 2 || string(first[0]) != `{"id":0}` || string(first[1]) != `{"id":1}` {
			t.Errorf("Dequeue(2) = %q", first)
		}
		rest, err := s.Dequeue(ctx, "client-a", 10)
		if err != nil {
			t.Fatalf("Dequeue() error = %v", err)
		}
		if len(rest) != 1 || string(rest[0]) != `{"id":2}` {
			t.Errorf("Dequeue(10) = %q", rest)
		}
		empty, err := s.Dequeue(ctx, "client-a", 10)
		if err != nil {
			t.Fatalf("Dequeue(empty) error = %v", err)
		}
		if len(empty) != 0 {
			t.Errorf("Dequeue(empty) = %q, want none", empty)
		}
	})

	t.Run("unknown session", func(t *testing.T) {
		if err := s.Enqueue(ctx, "ghost", []byte("x")); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("Enqueue(ghost) error = %v, want %v", err, ErrSessionNotFound)
		}
		if _, err := s.Dequeue(ctx, "ghost", 1); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("Dequeue(ghost) error = %v, want %v", err, ErrSessionNotFound)
		}
		if err := s.TouchSession(ctx, "ghost"); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("TouchSession(ghost) error = %v, want %v", err, ErrSessionNotFound)
		}
		if err := s.DeleteSession(ctx, "ghost"); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("DeleteSession(ghost) error = %v, want %v", err, ErrSessionNotFound)
		}
	})

	t.Run("list and delete", func(t *testing.T) {
		if err := s.CreateSession(ctx, &core.Session{ID: "client-b"}); err != nil {
			t.Fatalf("CreateSession() error = %v", err)
		}
		if err := s.TouchSession(ctx, "client-b"); err != nil {
			t.Fatalf("TouchSession() error = %v", err)
		}
		sessions, err := s.ListSessions(ctx)
		if err != nil {
			t.Fatalf("ListSessions() error = %v", err)
		}
		if len(sessions) != 2 {
			t.Fatalf("ListSessions() returned %d sessions, want 2", len(sessions))
		}

		if err := s.Enqueue(ctx, "client-b", []byte("pending")); err != nil {
			t.Fatalf("Enqueue() error = %v", err)
		}
		if err := s.DeleteSession(ctx, "client-b"); err != nil {
			t.Fatalf("DeleteSession() error = %v", err)
		}
		if _, err := s.GetSession(ctx, "client-b"); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("GetSession(deleted) error = %v, want %v", err, ErrSessionNotFound)
		}
		// A reconnect with the same ID starts from an empty queue.
		if err := s.CreateSession(ctx, &core.Session{ID: "client-b"}); err != nil {
			t.Fatalf("CreateSession(reconnect) error = %v", err)
		}
		msgs, err := s.Dequeue(ctx, "client-b", 10)
		if err != nil {
			t.Fatalf("Dequeue() error = %v", err)
		}
		if len(msgs) != 0 {
			t.Errorf("Dequeue(reconnect) = %q, want none", msgs)
		}
	})
}
