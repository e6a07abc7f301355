package router

import (
	"net/http"

	"github.com/go-training/mcp-calculator/pkg/sse"

	"github.com/getkin/kin-openapi/openapi3"
)

func jsonResponse(description string, schema *openapi3.Schema) *openapi3.ResponseRef {
	return &openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription(description).WithJSONSchema(schema)}
}

func errorSchema() *openapi3.Schema {
	return openapi3.NewObjectSchema().WithProperty("error", openapi3.NewStringSchema())
}

func jsonRPCSchema() *openapi3.Schema {
	return openapi3.NewObjectSchema().
		WithProperty("jsonrpc", openapi3.NewStringSchema().WithEnum("2.0")).
		WithProperty("id", openapi3.NewSchema()).
		WithProperty("method", openapi3.NewStringSchema().WithEnum("initialize", "ping", "tools/list", "tools/call")).
		WithProperty("params", openapi3.NewObjectSchema()).
		WithRequired([]string{"jsonrpc", "method"})
}

// NewOpenAPI describes the HTTP surface of the server.
func NewOpenAPI(name, version string) *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       name,
			Version:     version,
			Description: "Calculator MCP server: arithmetic tools and natural-language expression evaluation over JSON-RPC and server-sent events.",
		},
		Paths: openapi3.NewPaths(),
	}

	health := openapi3.NewOperation()
	health.OperationID = "health"
	health.Summary = "Service health"
	health.Responses = openapi3.NewResponses(openapi3.WithStatus(http.StatusOK, jsonResponse("Server is healthy",
		openapi3.NewObjectSchema().
			WithProperty("status", openapi3.NewStringSchema()).
			WithProperty("server", openapi3.NewStringSchema()).
			WithProperty("version", openapi3.NewStringSchema()).
			WithProperty("timestamp", openapi3.NewFloat64Schema()).
			WithProperty("services", openapi3.NewObjectSchema().WithAdditionalProperties(openapi3.NewBoolSchema())),
	)))
	doc.AddOperation("/health", http.MethodGet, health)

	rpcOp := openapi3.NewOperation()
	rpcOp.OperationID = "jsonrpc"
	rpcOp.Summary = "JSON-RPC 2.0 endpoint for tools/list and tools/call"
	rpcOp.RequestBody = &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().WithRequired(true).WithJSONSchema(jsonRPCSchema())}
	rpcOp.Responses = openapi3.NewResponses(
		openapi3.WithStatus(http.StatusOK, jsonResponse("JSON-RPC result", openapi3.NewObjectSchema())),
		openapi3.WithStatus(http.StatusBadRequest, jsonResponse("Parse error or invalid request", openapi3.NewObjectSchema())),
		openapi3.WithStatus(http.StatusNotFound, jsonResponse("Unknown method or tool", openapi3.NewObjectSchema())),
	)
	doc.AddOperation("/mcp", http.MethodPost, rpcOp)

	connect := openapi3.NewOperation()
	connect.OperationID = "sseConnect"
	connect.Summary = "Open the server-sent events stream"
	connect.Parameters = openapi3.Parameters{
		&openapi3.ParameterRef{Value: openapi3.NewQueryParameter("client_id").WithSchema(openapi3.NewStringSchema())},
	}
	connect.Responses = openapi3.NewResponses(
		openapi3.WithStatus(http.StatusOK, &openapi3.ResponseRef{Value: openapi3.NewResponse().
			WithDescription("connected, message and heartbeat events").
			WithContent(openapi3.NewContentWithSchema(openapi3.NewStringSchema(), []string{"text/event-stream"}))}),
		openapi3.WithStatus(http.StatusConflict, jsonResponse("Client already connected", errorSchema())),
	)
	doc.AddOperation("/sse/connect", http.MethodGet, connect)

	message := openapi3.NewOperation()
	message.OperationID = "sseMessage"
	message.Summary = "Queue a JSON-RPC request for delivery on an SSE stream"
	message.Parameters = openapi3.Parameters{
		&openapi3.ParameterRef{Value: openapi3.NewHeaderParameter(sse.ClientIDHeader).WithSchema(openapi3.NewStringSchema())},
	}
	message.RequestBody = &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().WithRequired(true).WithJSONSchema(jsonRPCSchema())}
	message.Responses = openapi3.NewResponses(
		openapi3.WithStatus(http.StatusAccepted, jsonResponse("Response queued",
			openapi3.NewObjectSchema().
				WithProperty("status", openapi3.NewStringSchema()).
				WithProperty("request_id", openapi3.NewSchema()))),
		openapi3.WithStatus(http.StatusBadRequest, jsonResponse("Invalid JSON or missing client id", errorSchema())),
		openapi3.WithStatus(http.StatusNotFound, jsonResponse("Client not connected", errorSchema())),
	)
	doc.AddOperation("/sse/mcp", http.MethodPost, message)

	status := openapi3.NewOperation()
	status.OperationID = "sseStatus"
	status.Summary = "Connected SSE clients"
	status.Responses = openapi3.NewResponses(openapi3.WithStatus(http.StatusOK, jsonResponse("Connection summary",
		openapi3.NewObjectSchema().
			WithProperty("active_connections", openapi3.NewIntegerSchema()).
			WithProperty("connected_clients", openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema())).
			WithProperty("timestamp", openapi3.NewFloat64Schema()),
	)))
	doc.AddOperation("/sse/status", http.MethodGet, status)

	metrics := openapi3.NewOperation()
	metrics.OperationID = "metrics"
	metrics.Summary = "Prometheus metrics"
	metrics.Responses = openapi3.NewResponses(openapi3.WithStatus(http.StatusOK, &openapi3.ResponseRef{Value: openapi3.NewResponse().
		WithDescription("Prometheus text exposition").
		WithContent(openapi3.NewContentWithSchema(openapi3.NewStringSchema(), []string{"text/plain"}))}))
	doc.AddOperation("/metrics", http.MethodGet, metrics)

	return doc
}
