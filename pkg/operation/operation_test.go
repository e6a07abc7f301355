package operation

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/go-training/mcp-calculator/pkg/calc"
	"github.com/go-training/mcp-calculator/pkg/operation/calculator"
	"github.com/go-training/mcp-calculator/pkg/parser"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	engine := calc.NewEngine(1e15, 10)
	p, err := parser.New(parser.DefaultConfig(), engine)
	if err != nil {
		t.Fatalf("parser.New() error = %v", err)
	}
	return NewCalculatorRegistry(calculator.NewService(engine, p, nil))
}

func TestNewCalculatorRegistry(t *testing.T) {
	r := newTestRegistry(t)
	defs := r.Definitions()
	if len(defs) != len(calculator.Tools) {
		t.Fatalf("Definitions() len = %d, want %d", len(defs), len(calculator.Tools))
	}
	for i, want := range []string{"add", "subtract", "multiply", "divide", "power", "sqrt", "factorial", "modulo", "absolute", "parse_expression"} {
		if defs[i].Name != want {
			t.Errorf("Definitions()[%d] = %q, want %q", i, defs[i].Name, want)
		}
	}
	if _, ok := r.Lookup("parse_expression"); !ok {
		t.Error("Lookup(parse_expression) not found")
	}
	if _, ok := r.Lookup("echo_message"); ok {
		t.Error("Lookup(echo_message) should not be found")
	}
}

func TestRegistry_RegisterReplaces(t *testing.T) {
	r := NewRegistry()
	first := server.ServerTool{
		Tool: mcp.NewTool("a"),
		Handler: func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("first"), nil
		},
	}
	second := first
	second.Handler = func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText("second"), nil
	}
	r.Register(first)
	r.Register(server.ServerTool{Tool: mcp.NewTool("b"), Handler: first.Handler})
	r.Register(second)

	tools := r.Tools()
	if len(tools) != 2 || tools[0].Tool.Name != "a" || tools[1].Tool.Name != "b" {
		t.Fatalf("Tools() = %v", tools)
	}
	res, _ := tools[0].Handler(context.Background(), mcp.CallToolRequest{})
	if text := res.Content[0].(mcp.TextContent).Text; text != "second" {
		t.Errorf("replaced handler returned %q, want second", text)
	}
}

func TestRegistry_RegisterTools(t *testing.T) {
	r := newTestRegistry(t)
	s := server.NewMCPServer("test", "1.0", server.WithToolCapabilities(true))
	r.RegisterTools(s)

	msg := []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	resp := s.HandleMessage(context.Background(), msg)
	body, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}
	var out struct {
		Result struct {
			Tools []map[string]any `json:"tools"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("unmarshal %s: %v", body, err)
	}
	if len(out.Result.Tools) != len(calculator.Tools) {
		t.Errorf("tools/list returned %d tools, want %d", len(out.Result.Tools), len(calculator.Tools))
	}
}
