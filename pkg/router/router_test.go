package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-training/mcp-calculator/pkg/calc"
	"github.com/go-training/mcp-calculator/pkg/core"
	"github.com/go-training/mcp-calculator/pkg/observability"
	"github.com/go-training/mcp-calculator/pkg/operation"
	"github.com/go-training/mcp-calculator/pkg/operation/calculator"
	"github.com/go-training/mcp-calculator/pkg/parser"
	"github.com/go-training/mcp-calculator/pkg/rpc"
	"github.com/go-training/mcp-calculator/pkg/sse"
	"github.com/go-training/mcp-calculator/pkg/store"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg := prometheus.NewRegistry()
	metrics, err := observability.NewMetrics(reg)
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}
	engine := calc.NewEngine(1e15, 10)
	p, err := parser.New(parser.DefaultConfig(), engine)
	if err != nil {
		t.Fatalf("parser.New() error = %v", err)
	}
	svc := calculator.NewService(engine, p, metrics)
	handler := rpc.NewHandler(rpc.ServerInfo{Name: "calculator-server", Version: "1.0"}, operation.NewCalculatorRegistry(svc), svc)
	broker := sse.NewBroker(store.NewMemoryStore(time.Minute), handler, sse.DefaultOptions(), metrics)

	return New(Options{
		Name:        "calculator-server",
		Version:     "1.0",
		CORSOrigins: []string{"*"},
		Gatherer:    reg,
	}, Handlers{RPC: handler, SSE: broker})
}

func TestRouter_Health(t *testing.T) {
	r := newTestRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var out struct {
		Status   string          `json:"status"`
		Server   string          `json:"server"`
		Version  string          `json:"version"`
		Services map[string]bool `json:"services"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Status != "healthy" || out.Server != "calculator-server" || out.Version != "1.0" {
		t.Errorf("health = %+v", out)
	}
	for _, svc := range []string{"calculator_engine", "mcp_protocol", "sse_transport"} {
		if !out.Services[svc] {
			t.Errorf("services[%s] = false", svc)
		}
	}
	if w.Header().Get(core.RequestIDHeader) == "" {
		t.Error("response missing request id header")
	}
}

func TestRouter_RequestIDPropagated(t *testing.T) {
	r := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(core.RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get(core.RequestIDHeader); got != "req-42" {
		t.Errorf("request id = %q, want req-42", got)
	}
}

func TestRouter_CORS(t *testing.T) {
	r := newTestRouter(t)
	req := httptest.NewRequest(http.MethodOptions, "/mcp", nil)
	req.Header.Set("Origin", "http://example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("allow origin = %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Headers"); !strings.Contains(got, "X-Client-ID") {
		t.Errorf("allow headers = %q, want X-Client-ID", got)
	}
}

func TestCORSMiddleware_Allowlist(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(corsMiddleware([]string{"https://app.example.com"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		origin string
		want   string
	}{
		{"https://app.example.com", "https://app.example.com"},
		{"https://evil.example.com", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", tt.origin)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
			t.Errorf("origin %s: allow origin = %q, want %q", tt.origin, got, tt.want)
		}
	}
}

func TestRouter_RPCAndMetrics(t *testing.T) {
	r := newTestRouter(t)

	body := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"parse_expression","arguments":{"expression":"5 / 0"}}}`
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body)))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "Could not parse expression: Division by zero") {
		t.Errorf("body = %s", w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", w.Code)
	}
	want := `calculator_errors_total{kind="zero_division",operation="parse_expression"} 1`
	if !strings.Contains(w.Body.String(), want) {
		t.Errorf("metrics missing %q:\n%s", want, w.Body.String())
	}
}

func TestRouter_SSEStatus(t *testing.T) {
	r := newTestRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sse/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"active_connections":0`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestRouter_OpenAPI(t *testing.T) {
	r := newTestRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	paths, ok := out["paths"].(map[string]any)
	if !ok {
		t.Fatalf("paths = %T", out["paths"])
	}
	for _, p := range []string{"/health", "/mcp", "/sse/connect", "/sse/mcp", "/sse/status", "/metrics"} {
		if _, ok := paths[p]; !ok {
			t.Errorf("openapi missing path %s", p)
		}
	}
}

func TestNewOpenAPI_Valid(t *testing.T) {
	doc := NewOpenAPI("calculator-server", "1.0")
	if err := doc.Validate(context.Background()); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestRouter_StreamMounted(t *testing.T) {
	gin.SetMode(gin.TestMode)
	called := 0
	stream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called++
		w.WriteHeader(http.StatusAccepted)
	})
	r := New(Options{Name: "calculator-server", Version: "1.0"}, Handlers{Stream: stream})
	for _, method := range []string{http.MethodPost, http.MethodGet, http.MethodDelete} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(method, StreamPath, nil))
		if w.Code != http.StatusAccepted {
			t.Errorf("%s %s status = %d", method, StreamPath, w.Code)
		}
	}
	if called != 3 {
		t.Errorf("stream handler called %d times, want 3", called)
	}
}
