package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-training/mcp-calculator/pkg/calc"
	"github.com/go-training/mcp-calculator/pkg/core"
	"github.com/go-training/mcp-calculator/pkg/operation/calculator"

	"github.com/gin-gonic/gin"
	"github.com/mark3labs/mcp-go/mcp"
)

// maxBodySize caps a JSON-RPC request body.
const maxBodySize = 1 << 20

// Catalog lists the tools advertised by tools/list.
type Catalog interface {
	Definitions() []mcp.Tool
}

// Caller executes a tool by name.
type Caller interface {
	Call(ctx context.Context, name string, args map[string]any) (calc.Response, error)
}

// ServerInfo identifies the server in initialize responses.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Handler dispatches JSON-RPC requests to the calculator tools.
type Handler struct {
	info    ServerInfo
	catalog Catalog
	caller  Caller
}

// NewHandler returns a Handler.
func NewHandler(info ServerInfo, catalog Catalog, caller Caller) *Handler {
	return &Handler{
		info:    info,
		catalog: catalog,
		caller:  caller,
	}
}

// Handle processes req and returns the response together with the HTTP
// status that should carry it. Notifications yield a nil response and
// http.StatusAccepted.
func (h *Handler) Handle(ctx context.Context, req *Request) (*Response, int) {
	logger := core.LoggerFromCtx(ctx)
	logger.Debug("rpc request", "method", req.Method, "id", req.ID)

	if req.Method == "" {
		return newErrorResponse(req.ID, ErrCodeInvalidRequest, "Invalid Request"), http.StatusBadRequest
	}
	if req.IsNotification() && strings.HasPrefix(req.Method, "notifications/") {
		return nil, http.StatusAccepted
	}

	switch req.Method {
	case MethodInitialize:
		return newResponse(req.ID, map[string]any{
			"protocolVersion": mcp.LATEST_PROTOCOL_VERSION,
			"capabilities": map[string]any{
				"tools": map[string]any{},
			},
			"serverInfo": h.info,
		}), http.StatusOK
	case MethodPing:
		return newResponse(req.ID, map[string]any{}), http.StatusOK
	case MethodToolsList:
		tools := h.catalog.Definitions()
		if tools == nil {
			tools = []mcp.Tool{}
		}
		return newResponse(req.ID, map[string]any{"tools": tools}), http.StatusOK
	case MethodToolsCall:
		return h.callTool(ctx, req)
	default:
		return newErrorResponse(req.ID, ErrCodeMethodNotFound, "Method not found: "+req.Method), http.StatusNotFound
	}
}

func (h *Handler) callTool(ctx context.Context, req *Request) (*Response, int) {
	var params CallToolParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return newErrorResponse(req.ID, ErrCodeInvalidParams, "Invalid params: "+err.Error()), http.StatusBadRequest
		}
	}
	if params.Arguments == nil {
		params.Arguments = map[string]any{}
	}

	result, err := h.caller.Call(ctx, params.Name, params.Arguments)
	switch {
	case errors.Is(err, calculator.ErrUnknownTool):
		return newErrorResponse(req.ID, ErrCodeMethodNotFound, "Tool not found: "+params.Name), http.StatusNotFound
	case err != nil:
		core.LoggerFromCtx(ctx).Error("tool call failed", "tool", params.Name, "error", err)
		return newErrorResponse(req.ID, ErrCodeInternal, "Internal error: "+err.Error()), http.StatusInternalServerError
	}
	return newResponse(req.ID, result), http.StatusOK
}

// HandleBody decodes body and processes it.
func (h *Handler) HandleBody(ctx context.Context, body []byte) (*Response, int) {
	req, perr := Decode(body)
	if perr != nil {
		return perr, http.StatusBadRequest
	}
	return h.Handle(ctx, req)
}

// ServeGin is the gin handler for POST /mcp.
func (h *Handler) ServeGin(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodySize))
	if err != nil {
		c.JSON(http.StatusBadRequest, newErrorResponse(nil, ErrCodeParse, "Parse error"))
		return
	}
	resp, status := h.HandleBody(c.Request.Context(), body)
	if resp == nil {
		c.Status(status)
		return
	}
	c.JSON(status, resp)
}
