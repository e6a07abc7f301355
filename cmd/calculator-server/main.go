// Command calculator-server serves the calculator MCP tools over HTTP
// (JSON-RPC, SSE and streamable MCP) or stdio.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-training/mcp-calculator/pkg/calc"
	"github.com/go-training/mcp-calculator/pkg/config"
	"github.com/go-training/mcp-calculator/pkg/logger"
	"github.com/go-training/mcp-calculator/pkg/observability"
	"github.com/go-training/mcp-calculator/pkg/operation"
	"github.com/go-training/mcp-calculator/pkg/operation/calculator"
	"github.com/go-training/mcp-calculator/pkg/parser"
	"github.com/go-training/mcp-calculator/pkg/router"
	"github.com/go-training/mcp-calculator/pkg/rpc"
	"github.com/go-training/mcp-calculator/pkg/sse"
	"github.com/go-training/mcp-calculator/pkg/store"

	"github.com/appleboy/graceful"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const shutdownTimeout = 10 * time.Second

type flags struct {
	configPath string
	addr       string
	transport  string
	logLevel   string
	storeType  string
}

func parseFlags() flags {
	var f flags
	flag.StringVar(&f.configPath, "config", "", "path to a YAML config file")
	flag.StringVar(&f.addr, "addr", "", "address to listen on (overrides config)")
	flag.StringVar(&f.transport, "t", "", "Transport type (stdio or http)")
	flag.StringVar(&f.transport, "transport", "", "Transport type (stdio or http)")
	flag.StringVar(&f.logLevel, "log-level", "", "log level: DEBUG, INFO, WARN or ERROR")
	flag.StringVar(&f.storeType, "store", "", "session store: memory or redis")
	flag.Parse()
	return f
}

// apply overlays command-line flags onto cfg.
func (f flags) apply(cfg *config.Config) {
	if f.addr != "" {
		cfg.Server.Addr = f.addr
	}
	if f.transport != "" {
		cfg.Server.Transport = f.transport
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	if f.storeType != "" {
		cfg.Store.Type = store.StoreType(strings.ToLower(f.storeType))
	}
}

func main() {
	f := parseFlags()
	logger.New()

	cfg, err := config.Load(f.configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	f.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid config", "error", err)
		os.Exit(1)
	}

	opts := logger.Options{Level: cfg.Log.Level}
	if cfg.Server.Transport == config.TransportStdio {
		// stdout carries the protocol
		opts.Writer = os.Stderr
	}
	logger.NewWithOptions(opts)

	if err := run(cfg); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	metrics, err := observability.NewMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	engine := calc.NewEngine(cfg.Calculator.MaxValue, cfg.Calculator.Precision)
	p, err := parser.New(cfg.Parser, engine)
	if err != nil {
		return fmt.Errorf("parser: %w", err)
	}
	svc := calculator.NewService(engine, p, metrics)
	registry := operation.NewCalculatorRegistry(svc)
	mcpServer := NewMCPServer(cfg.Server.Name, cfg.Server.Version, registry, cfg.SSE.HeartbeatInterval)

	slog.Info("Calculator configured",
		"server", cfg.Server.Name,
		"version", cfg.Server.Version,
		"transport", cfg.Server.Transport,
		"precision", cfg.Calculator.Precision,
		"max_value", cfg.Calculator.MaxValue,
		"tools", len(registry.Tools()),
	)

	switch cfg.Server.Transport {
	case config.TransportStdio:
		return mcpServer.ServeStdio()
	case config.TransportHTTP:
		return serveHTTP(cfg, svc, registry, mcpServer, metrics)
	default:
		return fmt.Errorf("invalid transport type %q", cfg.Server.Transport)
	}
}

func serveHTTP(
	cfg config.Config,
	svc *calculator.Service,
	registry *operation.Registry,
	mcpServer *MCPServer,
	metrics *observability.Metrics,
) error {
	sessions, err := store.NewStore(cfg.Store)
	if err != nil {
		return fmt.Errorf("session store: %w", err)
	}

	handler := rpc.NewHandler(
		rpc.ServerInfo{Name: cfg.Server.Name, Version: cfg.Server.Version},
		registry,
		observability.TraceCaller(svc, nil),
	)
	broker := sse.NewBroker(sessions, handler, sse.Options{
		HeartbeatInterval: cfg.SSE.HeartbeatInterval,
		PollInterval:      cfg.SSE.PollInterval,
		BatchSize:         cfg.SSE.BatchSize,
	}, metrics)

	gin.SetMode(gin.ReleaseMode)
	r := router.New(router.Options{
		Name:        cfg.Server.Name,
		Version:     cfg.Server.Version,
		CORSOrigins: cfg.Server.CORSOrigins,
	}, router.Handlers{
		RPC:    handler,
		SSE:    broker,
		Stream: mcpServer.ServeHTTP(),
	})

	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		_ = sessions.Close()
		return fmt.Errorf("listen: %w", err)
	}

	// Cancelled on shutdown so open SSE streams return.
	baseCtx, cancelStreams := context.WithCancel(context.Background())
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}

	m := graceful.NewManager()
	m.AddRunningJob(func(ctx context.Context) error {
		slog.Info("Calculator HTTP server listening", "addr", cfg.Server.Addr, "store", cfg.Store.Type.String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	m.AddShutdownJob(func() error {
		cancelStreams()
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return sessions.Close()
	})

	<-m.Done()
	slog.Info("Calculator HTTP server stopped")
	return nil
}
