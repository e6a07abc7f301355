package observability

import (
	"context"
	"errors"
	"time"

	"github.com/go-training/mcp-calculator/pkg/calc"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// DefaultBuckets are the latency buckets in milliseconds.
var DefaultBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100}

// Metrics records calculator and SSE activity as Prometheus collectors.
type Metrics struct {
	operations *prometheus.CounterVec
	errors     *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	sessions   prometheus.Gauge
}

// NewMetrics creates the calculator collectors and registers them with reg.
// Collectors already registered under the same names are reused, so calling
// NewMetrics twice against one registry is safe.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "calculator_operations_total",
			Help: "Total calculator tool calls by outcome.",
		}, []string{"operation", "outcome"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "calculator_errors_total",
			Help: "Total calculator tool failures by error kind.",
		}, []string{"operation", "kind"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "calculator_operation_duration_ms",
			Help:    "Latency of calculator tool calls (ms).",
			Buckets: DefaultBuckets,
		}, []string{"operation"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "calculator_sse_sessions",
			Help: "Number of open SSE sessions.",
		}),
	}

	var err error
	if m.operations, err = register(reg, m.operations); err != nil {
		return nil, err
	}
	if m.errors, err = register(reg, m.errors); err != nil {
		return nil, err
	}
	if m.duration, err = register(reg, m.duration); err != nil {
		return nil, err
	}
	if m.sessions, err = register(reg, m.sessions); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var alreadyRegisteredError prometheus.AlreadyRegisteredError
		if errors.As(err, &alreadyRegisteredError) {
			if existing, ok := alreadyRegisteredError.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// ObserveOperation records one tool call.
func (m *Metrics) ObserveOperation(_ context.Context, operation string, elapsed time.Duration, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
		m.errors.WithLabelValues(operation, calc.KindOf(err).String()).Inc()
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
	m.duration.WithLabelValues(operation).Observe(float64(elapsed.Microseconds()) / 1000.0)
}

// SessionOpened increments the open SSE session gauge.
func (m *Metrics) SessionOpened() {
	m.sessions.Inc()
}

// SessionClosed decrements the open SSE session gauge.
func (m *Metrics) SessionClosed() {
	m.sessions.Dec()
}
