package calculator

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Handler returns an MCP tool handler for the named tool. The result text is
// the JSON encoding of the calculator Response; failures set IsError.
func (s *Service) Handler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		resp, err := s.Call(ctx, name, req.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		body, err := json.Marshal(resp)
		if err != nil {
			return nil, err
		}
		if resp.Error != "" {
			return mcp.NewToolResultError(string(body)), nil
		}
		return mcp.NewToolResultText(string(body)), nil
	}
}

// ServerTools pairs every calculator tool with its handler.
func (s *Service) ServerTools() []server.ServerTool {
	tools := make([]server.ServerTool, 0, len(Tools))
	for _, t := range Tools {
		tools = append(tools, server.ServerTool{
			Tool:    t,
			Handler: s.Handler(t.Name),
		})
	}
	return tools
}
