package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-training/mcp-calculator/pkg/core"
	"github.com/redis/rueidis"
)

const (
	// Key prefixes for Redis storage
	sessionPrefix = "sse:session:"
	queuePrefix   = "sse:queue:"
	sessionsKey   = "sse:sessions"

	// DefaultSessionTTL is used when no positive TTL is configured.
	DefaultSessionTTL = 10 * time.Minute
)

// RedisStore implements the core.SessionStore interface using Redis via rueidis.
// Sessions and their queues expire together unless refreshed by TouchSession,
// which lets several server instances share one set of SSE sessions.
type RedisStore struct {
	client   rueidis.Client
	ttl      time.Duration
	maxQueue int
}

// NewRedisStore creates a new instance of RedisStore with the provided rueidis client.
func NewRedisStore(client rueidis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &RedisStore{
		client:   client,
		ttl:      ttl,
		maxQueue: DefaultMaxQueue,
	}
}

// RedisOptions contains configuration for Redis connection.
type RedisOptions struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// NewRedisStoreFromOptions creates a new RedisStore with simplified options.
func NewRedisStoreFromOptions(opts RedisOptions, ttl time.Duration) (*RedisStore, error) {
	return NewRedisStoreFromClientOption(rueidis.ClientOption{
		InitAddress: []string{opts.Addr},
		Password:    opts.Password,
		SelectDB:    opts.DB,
	}, ttl)
}

// NewRedisStoreFromClientOption creates a new RedisStore with full rueidis client options.
func NewRedisStoreFromClientOption(opts rueidis.ClientOption, ttl time.Duration) (*RedisStore, error) {
	client, err := rueidis.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis client: %w", err)
	}
	return NewRedisStore(client, ttl), nil
}

// Close closes the Redis client connection.
func (r *RedisStore) Close() error {
	r.client.Close()
	return nil
}

// ttlSeconds rounds the TTL up to whole seconds, the resolution of EX.
func (r *RedisStore) ttlSeconds() int64 {
	return max(1, int64((r.ttl+time.Second-1)/time.Second))
}

// CreateSession stores a new session with an empty queue.
// It returns ErrSessionExists if a live session already uses the ID.
func (r *RedisStore) CreateSession(ctx context.Context, session *core.Session) error {
	if session == nil {
		return ErrNilSession
	}
	if session.ID == "" {
		return ErrEmptySessionID
	}

	s := *session
	now := time.Now().Unix()
	if s.ConnectedAt == 0 {
		s.ConnectedAt = now
	}
	if s.LastSeen == 0 {
		s.LastSeen = now
	}
	data, err := json.Marshal(&s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	cmd := r.client.B().Set().Key(sessionPrefix + s.ID).Value(string(data)).Nx().ExSeconds(r.ttlSeconds()).Build()
	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		if rueidis.IsRedisNil(err) {
			return ErrSessionExists
		}
		return fmt.Errorf("failed to save session to redis: %w", err)
	}

	for _, resp := range r.client.DoMulti(ctx,
		r.client.B().Del().Key(queuePrefix+s.ID).Build(),
		r.client.B().Sadd().Key(sessionsKey).Member(s.ID).Build(),
	) {
		if err := resp.Error(); err != nil {
			return fmt.Errorf("failed to register session in redis: %w", err)
		}
	}
	return nil
}

// GetSession retrieves a session from Redis by its ID.
// Uses client-side caching with 5 second TTL; writes invalidate the cached copy.
func (r *RedisStore) GetSession(ctx context.Context, id string) (*core.Session, error) {
	if id == "" {
		return nil, ErrEmptySessionID
	}

	cmd := r.client.B().Get().Key(sessionPrefix + id).Cache()
	result, err := r.client.DoCache(ctx, cmd, 5*time.Second).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session from redis: %w", err)
	}
	return decodeSession(result)
}

func decodeSession(data string) (*core.Session, error) {
	var session core.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

// TouchSession refreshes LastSeen and the expiry of the session and its queue.
func (r *RedisStore) TouchSession(ctx context.Context, id string) error {
	if id == "" {
		return ErrEmptySessionID
	}

	key := sessionPrefix + id
	result, err := r.client.Do(ctx, r.client.B().Get().Key(key).Build()).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("failed to get session from redis: %w", err)
	}
	session, err := decodeSession(result)
	if err != nil {
		return err
	}
	session.LastSeen = time.Now().Unix()
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	for _, resp := range r.client.DoMulti(ctx,
		r.client.B().Set().Key(key).Value(string(data)).Xx().ExSeconds(r.ttlSeconds()).Build(),
		r.client.B().Expire().Key(queuePrefix+id).Seconds(r.ttlSeconds()).Build(),
	) {
		if err := resp.Error(); err != nil {
			if rueidis.IsRedisNil(err) {
				return ErrSessionNotFound
			}
			return fmt.Errorf("failed to touch session in redis: %w", err)
		}
	}
	return nil
}

// DeleteSession removes a session and its queue.
// It returns ErrSessionNotFound if the session does not exist.
func (r *RedisStore) DeleteSession(ctx context.Context, id string) error {
	if id == "" {
		return ErrEmptySessionID
	}

	resps := r.client.DoMulti(ctx,
		r.client.B().Del().Key(sessionPrefix+id).Build(),
		r.client.B().Del().Key(queuePrefix+id).Build(),
		r.client.B().Srem().Key(sessionsKey).Member(id).Build(),
	)
	deleted, err := resps[0].AsInt64()
	if err != nil {
		return fmt.Errorf("failed to delete session from redis: %w", err)
	}
	for _, resp := range resps[1:] {
		if err := resp.Error(); err != nil {
			return fmt.Errorf("failed to delete session from redis: %w", err)
		}
	}
	if deleted == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// ListSessions returns all live sessions. IDs whose session key has expired
// are pruned from the index.
func (r *RedisStore) ListSessions(ctx context.Context) ([]*core.Session, error) {
	ids, err := r.client.Do(ctx, r.client.B().Smembers().Key(sessionsKey).Build()).AsStrSlice()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions from redis: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	cmds := make(rueidis.Commands, 0, len(ids))
	for _, id := range ids {
		cmds = append(cmds, r.client.B().Get().Key(sessionPrefix+id).Build())
	}

	var (
		sessions []*core.Session
		stale    []string
	)
	for i, resp := range r.client.DoMulti(ctx, cmds...) {
		data, err := resp.ToString()
		if err != nil {
			if rueidis.IsRedisNil(err) {
				stale = append(stale, ids[i])
				continue
			}
			return nil, fmt.Errorf("failed to get session from redis: %w", err)
		}
		session, err := decodeSession(data)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}

	if len(stale) > 0 {
		cmd := r.client.B().Srem().Key(sessionsKey).Member(stale...).Build()
		if err := r.client.Do(ctx, cmd).Error(); err != nil {
			return nil, fmt.Errorf("failed to prune sessions in redis: %w", err)
		}
	}
	return sessions, nil
}

func (r *RedisStore) exists(ctx context.Context, id string) error {
	n, err := r.client.Do(ctx, r.client.B().Exists().Key(sessionPrefix+id).Build()).AsInt64()
	if err != nil {
		return fmt.Errorf("failed to check session existence in redis: %w", err)
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// Enqueue appends message to the session queue and refreshes the queue expiry.
func (r *RedisStore) Enqueue(ctx context.Context, id string, message []byte) error {
	if id == "" {
		return ErrEmptySessionID
	}
	if err := r.exists(ctx, id); err != nil {
		return err
	}

	key := queuePrefix + id
	size, err := r.client.Do(ctx, r.client.B().Llen().Key(key).Build()).AsInt64()
	if err != nil {
		return fmt.Errorf("failed to read queue length from redis: %w", err)
	}
	if size >= int64(r.maxQueue) {
		return ErrQueueFull
	}

	for _, resp := range r.client.DoMulti(ctx,
		r.client.B().Rpush().Key(key).Element(string(message)).Build(),
		r.client.B().Expire().Key(key).Seconds(r.ttlSeconds()).Build(),
	) {
		if err := resp.Error(); err != nil {
			return fmt.Errorf("failed to enqueue message in redis: %w", err)
		}
	}
	return nil
}

// Dequeue pops up to limit messages from the session queue.
func (r *RedisStore) Dequeue(ctx context.Context, id string, limit int) ([][]byte, error) {
	if id == "" {
		return nil, ErrEmptySessionID
	}
	if err := r.exists(ctx, id); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}

	cmd := r.client.B().Lpop().Key(queuePrefix + id).Count(int64(limit)).Build()
	values, err := r.client.Do(ctx, cmd).AsStrSlice()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to dequeue messages from redis: %w", err)
	}

	out := make([][]byte, len(values))
	for i, v := range values {
		out[i] = []byte(v)
	}
	return out, nil
}
