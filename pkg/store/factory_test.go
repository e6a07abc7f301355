package store

import (
	"testing"
	"time"
)

func TestParseStoreType(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected StoreType
	}{
		{
			name:     "parse memory lowercase",
			input:    "memory",
			expected: StoreTypeMemory,
		},
		{
			name:     "parse memory uppercase",
			input:    "MEMORY",
			expected: StoreTypeMemory,
		},
		{
			name:     "parse redis lowercase",
			input:    "redis",
			expected: StoreTypeRedis,
		},
		{
			name:     "parse redis mixed case with spaces",
			input:    " ReDiS ",
			expected: StoreTypeRedis,
		},
		{
			name:     "invalid input returns memory",
			input:    "invalid",
			expected: StoreTypeMemory,
		},
		{
			name:     "empty string returns memory",
			input:    "",
			expected: StoreTypeMemory,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseStoreType(tt.input)
			if result != tt.expected {
				t.Errorf("ParseStoreType(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestStoreType_IsValid(t *testing.T) {
	tests := []struct {
		storeType StoreType
		want      bool
	}{
		{StoreTypeMemory, true},
		{StoreTypeRedis, true},
		{StoreType("etcd"), false},
		{StoreType(""), false},
	}
	for _, tt := range tests {
		if got := tt.storeType.IsValid(); got != tt.want {
			t.Errorf("StoreType(%q).IsValid() = %v, want %v", tt.storeType, got, tt.want)
		}
	}
}

func TestFactory_Create(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		s, err := NewFactory(Config{Type: StoreTypeMemory, SessionTTL: time.Minute}).Create()
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		mem, ok := s.(*MemoryStore)
		if !ok {
			t.Fatalf("Create() returned %T, want *MemoryStore", s)
		}
		if mem.ttl != time.Minute {
			t.Errorf("ttl = %v, want %v", mem.ttl, time.Minute)
		}
	})

	t.Run("unsupported", func(t *testing.T) {
		if _, err := NewStore(Config{Type: "etcd"}); err == nil {
			t.Error("NewStore(etcd) expected error")
		}
	})

	t.Run("redis", func(t *testing.T) {
		addr := setupRedisContainer(t.Context(), t)
		cfg := DefaultConfig()
		cfg.Type = StoreTypeRedis
		cfg.Redis.Addr = addr

		s, err := NewStore(cfg)
		if err != nil {
			t.Fatalf("NewStore() error = %v", err)
		}
		defer s.Close()
		if _, ok := s.(*RedisStore); !ok {
			t.Errorf("NewStore() returned %T, want *RedisStore", s)
		}
	})
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Type != StoreTypeMemory {
		t.Errorf("DefaultConfig().Type = %v, want %v", cfg.Type, StoreTypeMemory)
	}
	if cfg.SessionTTL != DefaultSessionTTL {
		t.Errorf("DefaultConfig().SessionTTL = %v, want %v", cfg.SessionTTL, DefaultSessionTTL)
	}
}
