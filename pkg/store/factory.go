package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-training/mcp-calculator/pkg/core"
)

// StoreType represents the type of store backend.
type StoreType string

const (
	// StoreTypeMemory represents in-memory storage.
	StoreTypeMemory StoreType = "memory"
	// StoreTypeRedis represents Redis storage.
	StoreTypeRedis StoreType = "redis"
)

// Config contains configuration for creating a store.
type Config struct {
	// Type specifies the store type (memory or redis).
	Type StoreType `yaml:"type"`
	// SessionTTL is how long a session survives without being touched.
	SessionTTL time.Duration `yaml:"session_ttl"`
	// Redis contains Redis-specific configuration.
	Redis RedisOptions `yaml:"redis"`
}

// Factory creates store instances based on configuration.
type Factory struct {
	config Config
}

// NewFactory creates a new store factory with the provided configuration.
func NewFactory(config Config) *Factory {
	return &Factory{
		config: config,
	}
}

// Create creates and returns a new store instance based on the factory configuration.
// Returns an error if the store type is invalid or if store creation fails.
func (f *Factory) Create() (core.SessionStore, error) {
	switch f.config.Type {
	case StoreTypeMemory:
		return NewMemoryStore(f.config.SessionTTL), nil
	case StoreTypeRedis:
		return NewRedisStoreFromOptions(f.config.Redis, f.config.SessionTTL)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", f.config.Type)
	}
}

// NewStore is a convenience function that creates a store directly from configuration.
// It's equivalent to NewFactory(config).Create().
func NewStore(config Config) (core.SessionStore, error) {
	return NewFactory(config).Create()
}

// ParseStoreType parses a string into a StoreType.
// Returns StoreTypeMemory for invalid inputs.
func ParseStoreType(s string) StoreType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "redis":
		return StoreTypeRedis
	default:
		return StoreTypeMemory
	}
}

// String returns the string representation of a StoreType.
func (t StoreType) String() string {
	return string(t)
}

// IsValid returns true if the StoreType is valid.
func (t StoreType) IsValid() bool {
	switch t {
	case StoreTypeMemory, StoreTypeRedis:
		return true
	default:
		return false
	}
}

// DefaultConfig returns the default store configuration (memory store).
func DefaultConfig() Config {
	return Config{
		Type:       StoreTypeMemory,
		SessionTTL: DefaultSessionTTL,
		Redis: RedisOptions{
			Addr: "localhost:6379",
		},
	}
}
