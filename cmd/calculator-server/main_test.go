package main

import (
	"testing"
	"time"

	"github.com/go-training/mcp-calculator/pkg/calc"
	"github.com/go-training/mcp-calculator/pkg/config"
	"github.com/go-training/mcp-calculator/pkg/operation"
	"github.com/go-training/mcp-calculator/pkg/operation/calculator"
	"github.com/go-training/mcp-calculator/pkg/parser"
	"github.com/go-training/mcp-calculator/pkg/store"
)

func TestFlags_Apply(t *testing.T) {
	cfg := config.Default()
	flags{addr: ":9999", transport: "stdio", logLevel: "debug", storeType: "Redis"}.apply(&cfg)

	if cfg.Server.Addr != ":9999" || cfg.Server.Transport != config.TransportStdio {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
	if cfg.Store.Type != store.StoreTypeRedis {
		t.Errorf("store type = %q", cfg.Store.Type)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestFlags_ApplyEmptyKeepsConfig(t *testing.T) {
	cfg := config.Default()
	want := cfg.Server
	flags{}.apply(&cfg)
	if cfg.Server.Addr != want.Addr || cfg.Server.Transport != want.Transport {
		t.Errorf("server = %+v, want %+v", cfg.Server, want)
	}
}

func TestNewMCPServer(t *testing.T) {
	engine := calc.NewEngine(1e15, 10)
	p, err := parser.New(parser.DefaultConfig(), engine)
	if err != nil {
		t.Fatal(err)
	}
	registry := operation.NewCalculatorRegistry(calculator.NewService(engine, p, nil))
	s := NewMCPServer("calculator-server", "1.0", registry, 30*time.Second)
	if s.ServeHTTP() == nil {
		t.Error("ServeHTTP() = nil")
	}
}
