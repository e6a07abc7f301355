package router

import (
	"net/http"
	"slices"
	"strings"

	"github.com/go-training/mcp-calculator/pkg/core"
	"github.com/go-training/mcp-calculator/pkg/sse"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var defaultHeaders = []string{"Mcp-Protocol-Version", "Mcp-Session-Id", "Authorization", "Content-Type"}

// corsMiddleware allows the given origins ("*" allows any) and adds
// allowedHeaders to the default allowed request headers.
func corsMiddleware(origins []string, allowedHeaders ...string) gin.HandlerFunc {
	headers := slices.Clone(defaultHeaders)
	for _, h := range allowedHeaders {
		hNorm := strings.TrimSpace(h)
		if hNorm != "" && hNorm != "*" && !containsCI(headers, hNorm) {
			headers = append(headers, hNorm)
		}
	}
	headerList := strings.Join(headers, ", ")
	anyOrigin := len(origins) == 0 || slices.Contains(origins, "*")

	allowedMethods := []string{"GET", "POST", "DELETE", "OPTIONS"}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case anyOrigin:
			c.Header("Access-Control-Allow-Origin", "*")
		case origin != "" && containsCI(origins, origin):
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", strings.Join(allowedMethods, ", "))
		c.Header("Access-Control-Allow-Headers", headerList)
		c.Header("Access-Control-Expose-Headers", core.RequestIDHeader+", Mcp-Session-Id")
		c.Header("Access-Control-Max-Age", "86400")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// requestIDMiddleware propagates or assigns X-Request-ID and stores it in
// the request context.
func requestIDMiddleware(c *gin.Context) {
	id := c.GetHeader(core.RequestIDHeader)
	if id == "" {
		id = uuid.New().String()
		c.Request.Header.Set(core.RequestIDHeader, id)
	}
	c.Request = c.Request.WithContext(core.WithRequestIDValue(c.Request.Context(), id))
	c.Header(core.RequestIDHeader, id)
	c.Next()
}

// ssePreflightHeaders are the extra headers browsers send to the SSE endpoints.
var ssePreflightHeaders = []string{sse.ClientIDHeader, core.RequestIDHeader, "Cache-Control", "Last-Event-ID"}

// containsCI checks if slice contains item (case-insensitive).
func containsCI(slice []string, item string) bool {
	for _, s := range slice {
		if strings.EqualFold(s, item) {
			return true
		}
	}
	return false
}
