// Package sse serves calculator JSON-RPC over server-sent events. Clients
// hold a GET /sse/connect stream open and post requests to /sse/mcp; the
// responses are queued in a SessionStore and delivered on the stream.
package sse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-training/mcp-calculator/pkg/core"
	"github.com/go-training/mcp-calculator/pkg/rpc"
	"github.com/go-training/mcp-calculator/pkg/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ClientIDHeader identifies the SSE client on POST /sse/mcp.
const ClientIDHeader = "X-Client-ID"

const maxBodySize = 1 << 20

// Event names written on the stream.
const (
	EventConnected = "connected"
	EventMessage   = "message"
	EventHeartbeat = "heartbeat"
)

// Processor handles one decoded JSON-RPC request.
type Processor interface {
	Handle(ctx context.Context, req *rpc.Request) (*rpc.Response, int)
}

// SessionObserver is told when streams open and close.
type SessionObserver interface {
	SessionOpened()
	SessionClosed()
}

type nopObserver struct{}

func (nopObserver) SessionOpened() {}
func (nopObserver) SessionClosed() {}

// Options tunes stream timing.
type Options struct {
	HeartbeatInterval time.Duration
	PollInterval      time.Duration
	BatchSize         int
}

// DefaultOptions returns the production timings.
func DefaultOptions() Options {
	return Options{
		HeartbeatInterval: 30 * time.Second,
		PollInterval:      time.Second,
		BatchSize:         100,
	}
}

// Broker pairs SSE streams with queued JSON-RPC responses.
type Broker struct {
	store     core.SessionStore
	processor Processor
	observer  SessionObserver
	opts      Options
	now       func() time.Time
}

// NewBroker returns a Broker. A nil observer is ignored.
func NewBroker(s core.SessionStore, p Processor, opts Options, observer SessionObserver) *Broker {
	if observer == nil {
		observer = nopObserver{}
	}
	def := DefaultOptions()
	if opts.HeartbeatInterval <= 0 {
		opts.HeartbeatInterval = def.HeartbeatInterval
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = def.PollInterval
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = def.BatchSize
	}
	return &Broker{
		store:     s,
		processor: p,
		observer:  observer,
		opts:      opts,
		now:       time.Now,
	}
}

// RegisterRoutes mounts the SSE endpoints on r.
func (b *Broker) RegisterRoutes(r gin.IRoutes) {
	r.GET("/sse/connect", b.Connect)
	r.POST("/sse/mcp", b.Message)
	r.GET("/sse/status", b.Status)
}

// Connect opens the event stream for the client named by the client_id query
// parameter, or for a new random id, and keeps it open until the client goes
// away.
func (b *Broker) Connect(c *gin.Context) {
	clientID := c.Query("client_id")
	if clientID == "" {
		clientID = uuid.New().String()
	}
	ctx := core.WithSessionID(c.Request.Context(), clientID)
	logger := core.LoggerFromCtx(ctx)

	now := b.now().Unix()
	err := b.store.CreateSession(ctx, &core.Session{ID: clientID, ConnectedAt: now, LastSeen: now})
	switch {
	case errors.Is(err, store.ErrSessionExists):
		c.JSON(http.StatusConflict, gin.H{"error": "Client already connected"})
		return
	case err != nil:
		logger.Error("create sse session", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	b.observer.SessionOpened()
	logger.Info("sse client connected")

	defer func() {
		if err := b.store.DeleteSession(context.WithoutCancel(ctx), clientID); err != nil && !errors.Is(err, store.ErrSessionNotFound) {
			logger.Warn("delete sse session", "error", err)
		}
		b.observer.SessionClosed()
		logger.Info("sse client disconnected")
	}()

	w := c.Writer
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, EventConnected, gin.H{"client_id": clientID, "status": "connected"}); err != nil {
		return
	}

	heartbeat := time.NewTicker(b.opts.HeartbeatInterval)
	defer heartbeat.Stop()
	poll := time.NewTicker(b.opts.PollInterval)
	defer poll.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			if err := b.store.TouchSession(ctx, clientID); err != nil {
				logger.Warn("sse session lost", "error", err)
				return
			}
			ts := float64(b.now().UnixMilli()) / 1000
			if err := writeEvent(w, EventHeartbeat, gin.H{"timestamp": ts}); err != nil {
				return
			}
		case <-poll.C:
			if err := b.drain(ctx, w, clientID); err != nil {
				if ctx.Err() == nil {
					logger.Warn("sse delivery failed", "error", err)
				}
				return
			}
		}
	}
}

// drain writes every queued response for clientID.
func (b *Broker) drain(ctx context.Context, w gin.ResponseWriter, clientID string) error {
	for {
		msgs, err := b.store.Dequeue(ctx, clientID, b.opts.BatchSize)
		if err != nil {
			return err
		}
		for _, msg := range msgs {
			if err := writeEvent(w, EventMessage, json.RawMessage(msg)); err != nil {
				return err
			}
		}
		if len(msgs) < b.opts.BatchSize {
			return nil
		}
	}
}

// writeEvent writes one event and flushes it.
func writeEvent(w gin.ResponseWriter, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	w.Flush()
	return nil
}

// Message processes a JSON-RPC request for a connected client and queues
// the response on its stream.
func (b *Broker) Message(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodySize))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON data"})
		return
	}
	req, perr := rpc.Decode(body)
	if perr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON data"})
		return
	}

	clientID := c.GetHeader(ClientIDHeader)
	if clientID == "" {
		clientID = req.ClientID
	}
	if clientID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Client ID required"})
		return
	}

	ctx := core.WithSessionID(c.Request.Context(), clientID)
	logger := core.LoggerFromCtx(ctx)
	if _, err := b.store.GetSession(ctx, clientID); err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Client not connected"})
			return
		}
		logger.Error("lookup sse session", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp, _ := b.processor.Handle(ctx, req)
	if resp == nil {
		c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
		return
	}
	payload, err := json.Marshal(resp)
	if err != nil {
		logger.Error("encode sse response", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	switch err := b.store.Enqueue(ctx, clientID, payload); {
	case errors.Is(err, store.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Client not connected"})
	case errors.Is(err, store.ErrQueueFull):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Client queue full"})
	case err != nil:
		logger.Error("queue sse response", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		logger.Debug("queued sse response", "method", req.Method)
		c.JSON(http.StatusAccepted, gin.H{"status": "queued", "request_id": req.ID})
	}
}

// Status reports the connected clients.
func (b *Broker) Status(c *gin.Context) {
	sessions, err := b.store.ListSessions(c.Request.Context())
	if err != nil {
		core.LoggerFromCtx(c.Request.Context()).Error("list sse sessions", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ids := make([]string, 0, len(sessions))
	for _, s := range sessions {
		ids = append(ids, s.ID)
	}
	c.JSON(http.StatusOK, gin.H{
		"active_connections": len(ids),
		"connected_clients":  ids,
		"timestamp":          float64(b.now().UnixMilli()) / 1000,
	})
}
