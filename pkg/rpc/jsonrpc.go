// Package rpc implements the plain JSON-RPC 2.0 endpoint used by HTTP and
// SSE clients that do not speak the streamable MCP transport.
package rpc

import (
	"encoding/json"
	"fmt"
)

// JSONRPCVersion is the only protocol version produced by this package.
const JSONRPCVersion = "2.0"

// Standard JSON-RPC error codes.
const (
	ErrCodeParse          = -32700
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternal       = -32603
)

// Supported methods.
const (
	MethodInitialize = "initialize"
	MethodPing       = "ping"
	MethodToolsList  = "tools/list"
	MethodToolsCall  = "tools/call"
)

// Request is a decoded JSON-RPC request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`

	// ClientID is the optional SSE client field some callers place in the body.
	ClientID string `json:"client_id,omitempty"`
}

// IsNotification reports whether the request carries no id.
func (r *Request) IsNotification() bool {
	return r.ID == nil
}

// Response is a JSON-RPC response. Exactly one of Result or Error is set.
type Response struct {
	JSONRPC string `json:"jsonrpc"`
	ID      any    `json:"id"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
}

// Error is the JSON-RPC error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// CallToolParams are the params of a tools/call request.
type CallToolParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

func newResponse(id, result any) *Response {
	return &Response{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Result:  result,
	}
}

func newErrorResponse(id any, code int, message string) *Response {
	return &Response{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Error:   &Error{Code: code, Message: message},
	}
}

// Decode parses a request body. A nil Request is returned together with a
// parse-error Response when body is empty, null, an empty object or not a
// JSON object.
func Decode(body []byte) (*Request, *Response) {
	if len(body) == 0 {
		return nil, newErrorResponse(nil, ErrCodeParse, "Parse error")
	}
	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, newErrorResponse(nil, ErrCodeParse, "Parse error")
	}
	if req.JSONRPC == "" && req.Method == "" && req.ID == nil && req.Params == nil {
		return nil, newErrorResponse(nil, ErrCodeParse, "Parse error")
	}
	return &req, nil
}
