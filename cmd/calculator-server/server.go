package main

import (
	"context"
	"time"

	"github.com/go-training/mcp-calculator/pkg/core"
	"github.com/go-training/mcp-calculator/pkg/observability"
	"github.com/go-training/mcp-calculator/pkg/operation"

	"github.com/mark3labs/mcp-go/server"
)

// MCPServer wraps the underlying MCP server instance.
type MCPServer struct {
	server    *server.MCPServer
	heartbeat time.Duration
}

// NewMCPServer creates the MCP server, registers every tool in registry and
// wraps tool calls with tracing.
func NewMCPServer(name, version string, registry *operation.Registry, heartbeat time.Duration) *MCPServer {
	mcpServer := server.NewMCPServer(
		name,
		version,
		server.WithToolCapabilities(true),
		server.WithLogging(),
		server.WithRecovery(),
		server.WithToolHandlerMiddleware(observability.ToolHandlerMiddleware(nil)),
	)

	registry.RegisterTools(mcpServer)

	return &MCPServer{
		server:    mcpServer,
		heartbeat: heartbeat,
	}
}

// ServeHTTP returns a streamable HTTP server that carries the request ID
// from HTTP requests into the tool context.
func (s *MCPServer) ServeHTTP() *server.StreamableHTTPServer {
	return server.NewStreamableHTTPServer(s.server,
		server.WithHeartbeatInterval(s.heartbeat),
		server.WithHTTPContextFunc(core.RequestIDFromRequest),
	)
}

// ServeStdio starts the MCP server using stdio transport, assigning a
// request ID to every message context.
func (s *MCPServer) ServeStdio() error {
	return server.ServeStdio(s.server, server.WithStdioContextFunc(func(ctx context.Context) context.Context {
		return core.WithRequestID(ctx)
	}))
}
