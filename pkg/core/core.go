package core

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

// RequestIDHeader carries a caller-supplied request ID over HTTP.
const RequestIDHeader = "X-Request-ID"

// RequestIDKey is a custom context key type for storing the request ID in context.
type RequestIDKey struct{}

// SessionIDKey is a custom context key type for storing the SSE session ID in context.
type SessionIDKey struct{}

// WithRequestID returns a new context with a generated request ID set.
func WithRequestID(ctx context.Context) context.Context {
	return WithRequestIDValue(ctx, uuid.New().String())
}

// WithRequestIDValue returns a new context carrying the given request ID.
func WithRequestIDValue(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey{}, id)
}

// RequestIDFromRequest stores the request's X-Request-ID header in the context,
// generating one when the header is absent. Used for HTTP transport.
func RequestIDFromRequest(ctx context.Context, r *http.Request) context.Context {
	if id := r.Header.Get(RequestIDHeader); id != "" {
		return WithRequestIDValue(ctx, id)
	}
	return WithRequestID(ctx)
}

// RequestIDFromContext returns the request ID, or "" when none is set.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey{}).(string)
	return id
}

// WithSessionID returns a new context with the SSE session ID set.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, SessionIDKey{}, id)
}

// SessionIDFromContext returns the SSE session ID, or "" when none is set.
func SessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(SessionIDKey{}).(string)
	return id
}

// LoggerFromCtx returns a slog.Logger with request_id and session_id fields
// if present in context. Otherwise it returns the default logger.
func LoggerFromCtx(ctx context.Context) *slog.Logger {
	logger := slog.Default()
	if reqID := RequestIDFromContext(ctx); reqID != "" {
		logger = logger.With("request_id", reqID)
	}
	if sessionID := SessionIDFromContext(ctx); sessionID != "" {
		logger = logger.With("session_id", sessionID)
	}
	return logger
}
