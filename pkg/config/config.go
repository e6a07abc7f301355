// Package config assembles the server configuration from compiled-in
// defaults, an optional YAML file and environment variables.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/go-training/mcp-calculator/pkg/logger"
	"github.com/go-training/mcp-calculator/pkg/parser"
	"github.com/go-training/mcp-calculator/pkg/store"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// Transports accepted by Server.Transport.
const (
	TransportHTTP  = "http"
	TransportStdio = "stdio"
)

// Config is the complete server configuration.
type Config struct {
	Server     Server        `yaml:"server"`
	Log        Log           `yaml:"log"`
	Calculator Calculator    `yaml:"calculator"`
	Parser     parser.Config `yaml:"parser"`
	Store      store.Config  `yaml:"store"`
	SSE        SSE           `yaml:"sse"`
}

// Server holds identity and listener settings.
type Server struct {
	Name        string   `yaml:"name"`
	Version     string   `yaml:"version"`
	Addr        string   `yaml:"addr"`
	Transport   string   `yaml:"transport"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// Log holds logger settings.
type Log struct {
	Level string `yaml:"level"`
}

// Calculator bounds every operation and controls result rendering.
type Calculator struct {
	Precision int     `yaml:"precision"`
	MaxValue  float64 `yaml:"max_value"`
}

// SSE tunes the server-sent events transport.
type SSE struct {
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	PollInterval      time.Duration `yaml:"poll_interval"`
	BatchSize         int           `yaml:"batch_size"`
}

// Default returns the compiled-in configuration.
func Default() Config {
	return Config{
		Server: Server{
			Name:        "calculator-server",
			Version:     "1.0",
			Addr:        ":8080",
			Transport:   TransportHTTP,
			CORSOrigins: []string{"*"},
		},
		Log: Log{Level: "INFO"},
		Calculator: Calculator{
			Precision: 10,
			MaxValue:  1e15,
		},
		Parser: parser.DefaultConfig(),
		Store:  store.DefaultConfig(),
		SSE: SSE{
			HeartbeatInterval: 30 * time.Second,
			PollInterval:      time.Second,
			BatchSize:         100,
		},
	}
}

// Load returns the defaults overlaid by the YAML file at path (if non-empty)
// and then by environment variables.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := cfg.Merge(data); err != nil {
			return cfg, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Merge overlays YAML data onto cfg. Vocabulary maps are extended rather
// than replaced; lists and scalars present in data replace the current value.
func (c *Config) Merge(data []byte) error {
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// ApplyEnv overlays environment variables read through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("CALC_SERVER_NAME", &c.Server.Name)
	str("CALC_SERVER_VERSION", &c.Server.Version)
	str("CALC_TRANSPORT", &c.Server.Transport)
	str("LOG_LEVEL", &c.Log.Level)
	str("REDIS_ADDR", &c.Store.Redis.Addr)
	str("REDIS_PASSWORD", &c.Store.Redis.Password)

	if v, ok := lookup("PORT"); ok && v != "" {
		c.Server.Addr = ":" + strings.TrimPrefix(v, ":")
	}
	if v, ok := lookup("CALC_STORE"); ok && v != "" {
		c.Store.Type = store.StoreType(strings.ToLower(v))
	}
	if v, ok := lookup("CALC_PRECISION"); ok && v != "" {
		n, err := cast.ToIntE(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("CALC_PRECISION: %w", err))
		}
		c.Calculator.Precision = n
	}
	if v, ok := lookup("CALC_MAX_VALUE"); ok && v != "" {
		f, err := cast.ToFloat64E(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("CALC_MAX_VALUE: %w", err))
		}
		c.Calculator.MaxValue = f
	}
	if v, ok := lookup("REDIS_DB"); ok && v != "" {
		n, err := cast.ToIntE(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("REDIS_DB: %w", err))
		}
		c.Store.Redis.DB = n
	}
	if v, ok := lookup("CALC_SESSION_TTL"); ok && v != "" {
		d, err := cast.ToDurationE(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("CALC_SESSION_TTL: %w", err))
		}
		c.Store.SessionTTL = d
	}
	return errors.Join(errs...)
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Name == "" {
		errs = append(errs, errors.New("server name must not be empty"))
	}
	switch c.Server.Transport {
	case TransportHTTP, TransportStdio:
	default:
		errs = append(errs, fmt.Errorf("unsupported transport %q", c.Server.Transport))
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Calculator.Precision < 0 || c.Calculator.Precision > 15 {
		errs = append(errs, fmt.Errorf("precision must be within 0..15, got %d", c.Calculator.Precision))
	}
	if !(c.Calculator.MaxValue > 0) || math.IsInf(c.Calculator.MaxValue, 0) {
		errs = append(errs, fmt.Errorf("max value must be a positive finite number, got %g", c.Calculator.MaxValue))
	}
	if err := c.Parser.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("parser: %w", err))
	}
	if !c.Store.Type.IsValid() {
		errs = append(errs, fmt.Errorf("unsupported store type %q", c.Store.Type))
	}
	if c.SSE.HeartbeatInterval <= 0 || c.SSE.PollInterval <= 0 {
		errs = append(errs, errors.New("sse intervals must be positive"))
	}
	if c.SSE.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("sse batch size must be positive, got %d", c.SSE.BatchSize))
	}
	return errors.Join(errs...)
}
