// Package operation collects MCP tools and exposes them to both the
// mcp-go server and the plain JSON-RPC endpoint.
package operation

import (
	"github.com/go-training/mcp-calculator/pkg/operation/calculator"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

/*
Registry manages the collection of tools served by the calculator.

Fields:
  - tools: ServerTools in registration order.
  - index: position of each tool by name.
*/
type Registry struct {
	tools []server.ServerTool
	index map[string]int
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

/*
NewCalculatorRegistry returns a Registry holding every calculator tool.

Parameters:
  - svc: the calculator Service whose handlers back the tools.
*/
func NewCalculatorRegistry(svc *calculator.Service) *Registry {
	r := NewRegistry()
	for _, t := range svc.ServerTools() {
		r.Register(t)
	}
	return r
}

/*
Register adds a ServerTool. Registering a name twice replaces the earlier
tool in place and keeps its position.
*/
func (r *Registry) Register(s server.ServerTool) {
	if i, ok := r.index[s.Tool.Name]; ok {
		r.tools[i] = s
		return
	}
	r.index[s.Tool.Name] = len(r.tools)
	r.tools = append(r.tools, s)
}

// Lookup returns the tool registered under name.
func (r *Registry) Lookup(name string) (server.ServerTool, bool) {
	i, ok := r.index[name]
	if !ok {
		return server.ServerTool{}, false
	}
	return r.tools[i], true
}

// Tools returns all registered ServerTools in registration order.
func (r *Registry) Tools() []server.ServerTool {
	tools := make([]server.ServerTool, len(r.tools))
	copy(tools, r.tools)
	return tools
}

// Definitions returns the tool schemas advertised by tools/list.
func (r *Registry) Definitions() []mcp.Tool {
	defs := make([]mcp.Tool, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, t.Tool)
	}
	return defs
}

/*
RegisterTools adds every tool in r to the specified MCPServer instance.

Parameters:
  - s: Pointer to the MCPServer instance where the tools will be registered.
*/
func (r *Registry) RegisterTools(s *server.MCPServer) {
	s.AddTools(r.Tools()...)
}
