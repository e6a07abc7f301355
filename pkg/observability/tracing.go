// Package observability records traces and Prometheus metrics for
// calculator tool calls.
package observability

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-training/mcp-calculator/pkg/calc"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of every span started here.
const TracerName = "github.com/go-training/mcp-calculator"

/*
AddRequestAttributes sets attributes on the current trace span, and if no active span,
logs the attributes via slog at debug level. Also logs trace/span id for correlation.
*/
func AddRequestAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		logAttrs := make([]slog.Attr, 0, len(attrs)+3)
		for _, attr := range attrs {
			logAttrs = append(logAttrs, slog.Any(string(attr.Key), attr.Value.AsInterface()))
		}
		logAttrs = append(logAttrs, slog.Bool("observability.fallback", true))
		sc := span.SpanContext()
		if sc.HasTraceID() {
			logAttrs = append(logAttrs, slog.String("trace_id", sc.TraceID().String()))
		}
		if sc.HasSpanID() {
			logAttrs = append(logAttrs, slog.String("span_id", sc.SpanID().String()))
		}
		slog.LogAttrs(ctx, slog.LevelDebug, "request attributes", logAttrs...)
		return
	}
	span.SetAttributes(attrs...)
}

func tracer(tp trace.TracerProvider) trace.Tracer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return tp.Tracer(TracerName)
}

// finish records status, duration and error attributes on the span in ctx.
func finish(ctx context.Context, start time.Time, errMsg string) {
	status := "ok"
	if errMsg != "" {
		status = "error"
	}
	attrs := []attribute.KeyValue{
		attribute.String("mcp.status", status),
		attribute.Float64("mcp.duration_ms", float64(time.Since(start).Microseconds())/1000.0),
	}
	if errMsg != "" {
		attrs = append(attrs, attribute.String("mcp.error", errMsg))
		trace.SpanFromContext(ctx).SetStatus(codes.Error, errMsg)
	}
	AddRequestAttributes(ctx, attrs...)
}

// ToolHandlerMiddleware starts a span per MCP tool call and records the tool
// name, parameters, status and duration on it. A nil tp uses the global
// tracer provider.
func ToolHandlerMiddleware(tp trace.TracerProvider) server.ToolHandlerMiddleware {
	t := tracer(tp)
	return func(next server.ToolHandlerFunc) server.ToolHandlerFunc {
		return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			ctx, span := t.Start(ctx, "mcp.tool "+req.Params.Name, trace.WithSpanKind(trace.SpanKindServer))
			defer span.End()

			start := time.Now()
			AddRequestAttributes(
				ctx,
				attribute.String("mcp.tool", req.Params.Name),
				attribute.String("mcp.params", fmt.Sprintf("%+v", req.Params.Arguments)),
			)

			res, err := next(ctx, req)

			var errMsg string
			if err != nil {
				errMsg = err.Error()
			} else if res != nil && res.IsError {
				errMsg = "unknown error with no content"
				if len(res.Content) > 0 {
					if txt, ok := res.Content[0].(mcp.TextContent); ok {
						errMsg = txt.Text
					} else {
						errMsg = fmt.Sprintf("unknown error with content type %T", res.Content[0])
					}
				}
			}
			finish(ctx, start, errMsg)
			return res, err
		}
	}
}

// Caller executes a calculator tool by name.
type Caller interface {
	Call(ctx context.Context, name string, args map[string]any) (calc.Response, error)
}

type tracedCaller struct {
	next   Caller
	tracer trace.Tracer
}

// TraceCaller wraps next so every call runs inside a span, mirroring
// ToolHandlerMiddleware for callers that bypass the MCP server.
func TraceCaller(next Caller, tp trace.TracerProvider) Caller {
	return &tracedCaller{next: next, tracer: tracer(tp)}
}

func (c *tracedCaller) Call(ctx context.Context, name string, args map[string]any) (calc.Response, error) {
	ctx, span := c.tracer.Start(ctx, "mcp.tool "+name, trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()

	start := time.Now()
	AddRequestAttributes(
		ctx,
		attribute.String("mcp.tool", name),
		attribute.String("mcp.params", fmt.Sprintf("%+v", args)),
	)
	resp, err := c.next.Call(ctx, name, args)
	errMsg := resp.Error
	if err != nil {
		errMsg = err.Error()
	}
	finish(ctx, start, errMsg)
	return resp, err
}
