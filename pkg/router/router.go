// Package router assembles the gin engine serving the calculator's HTTP
// endpoints.
package router

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-training/mcp-calculator/pkg/rpc"
	"github.com/go-training/mcp-calculator/pkg/sse"

	"github.com/getkin/kin-openapi/openapi3"
	sloggin "github.com/gin-contrib/slog"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StreamPath is where the streamable MCP transport is mounted.
const StreamPath = "/mcp/stream"

// Options configures the router.
type Options struct {
	Name        string
	Version     string
	CORSOrigins []string
	// Gatherer backs /metrics. Nil uses prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
}

// Handlers are the endpoint implementations. Nil members are not mounted.
type Handlers struct {
	RPC    *rpc.Handler
	SSE    *sse.Broker
	Stream http.Handler
}

// New returns the gin engine with every endpoint registered.
func New(opts Options, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(
		gin.Recovery(),
		sloggin.SetLogger(),
		requestIDMiddleware,
		corsMiddleware(opts.CORSOrigins, ssePreflightHeaders...),
	)

	r.GET("/health", healthHandler(opts, h))

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	r.GET("/openapi.json", openAPIHandler(opts))

	if h.RPC != nil {
		r.POST("/mcp", h.RPC.ServeGin)
	}
	if h.SSE != nil {
		h.SSE.RegisterRoutes(r)
	}
	if h.Stream != nil {
		// Register POST, GET, DELETE methods for the stream path, all handled by the MCP server
		for _, method := range []string{http.MethodPost, http.MethodGet, http.MethodDelete} {
			r.Handle(method, StreamPath, gin.WrapH(h.Stream))
		}
	}
	return r
}

func healthHandler(opts Options, h Handlers) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"server":    opts.Name,
			"version":   opts.Version,
			"timestamp": float64(time.Now().UnixMilli()) / 1000,
			"services": gin.H{
				"calculator_engine": h.RPC != nil,
				"mcp_protocol":      h.RPC != nil || h.Stream != nil,
				"sse_transport":     h.SSE != nil,
			},
		})
	}
}

func openAPIHandler(opts Options) gin.HandlerFunc {
	var (
		once sync.Once
		doc  *openapi3.T
	)
	return func(c *gin.Context) {
		once.Do(func() {
			doc = NewOpenAPI(opts.Name, opts.Version)
		})
		c.JSON(http.StatusOK, doc)
	}
}
