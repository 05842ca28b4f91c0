// Package telemetry collects request/agent metrics and exposes them for
// prometheus scraping.
package telemetry

import (
	"log"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "llex_requests_total",
		Help: "Total number of requests",
	}, []string{"endpoint", "agent_type", "status"})

	responseTime = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "llex_response_time_seconds",
		Help:    "Response time in seconds",
		Buckets: []float64{0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
	}, []string{"endpoint", "agent_type"})

	errorCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "llex_errors_total",
		Help: "Total errors",
	}, []string{"endpoint", "error_type"})

	agentUsageCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "llex_agent_usage_total",
		Help: "Agent usage count",
	}, []string{"agent_type"})

	activeRequests = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "llex_active_requests",
		Help: "Number of active requests",
	}, []string{"endpoint"})

	fallbackCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "llex_fallbacks_total",
		Help: "Dispatcher fallback activations",
	}, []string{"from_tool", "to_tool"})
)

// Telemetry tracks service-level metrics.
type Telemetry struct {
	logger        *log.Logger
	startTime     time.Time
	totalRequests atomic.Int64
	totalErrors   atomic.Int64
}

// New creates a telemetry instance.
func New() *Telemetry {
	return &Telemetry{
		logger:    log.New(log.Writer(), "[TELEMETRY] ", log.LstdFlags),
		startTime: time.Now(),
	}
}

// RecordRequest records one finished request.
func (t *Telemetry) RecordRequest(endpoint, agentType, status string) {
	requestCounter.WithLabelValues(endpoint, agentType, status).Inc()
	t.totalRequests.Add(1)
}

// RecordResponseTime records one request's wall time.
func (t *Telemetry) RecordResponseTime(endpoint, agentType string, duration time.Duration) {
	responseTime.WithLabelValues(endpoint, agentType).Observe(duration.Seconds())
}

// RecordError records a request-level error by type.
func (t *Telemetry) RecordError(endpoint, errorType string) {
	errorCounter.WithLabelValues(endpoint, errorType).Inc()
	t.totalErrors.Add(1)
	t.logger.Printf("error recorded: %s / %s", endpoint, errorType)
}

// RecordAgentUsage counts tool/agent selections.
func (t *Telemetry) RecordAgentUsage(agentType string) {
	agentUsageCounter.WithLabelValues(agentType).Inc()
}

// RecordFallback counts dispatcher fallback activations.
func (t *Telemetry) RecordFallback(from, to string) {
	fallbackCounter.WithLabelValues(from, to).Inc()
}

// RequestStarted marks a request in flight; the returned func ends it.
func (t *Telemetry) RequestStarted(endpoint string) func() {
	activeRequests.WithLabelValues(endpoint).Inc()
	return func() { activeRequests.WithLabelValues(endpoint).Dec() }
}

// Summary is the human-readable metrics digest.
type Summary struct {
	UptimeSeconds float64 `json:"uptime_seconds"`
	TotalRequests int64   `json:"total_requests"`
	TotalErrors   int64   `json:"total_errors"`
	ErrorRate     float64 `json:"error_rate"`
	Timestamp     string  `json:"timestamp"`
}

// GetSummary reports coarse totals since process start.
func (t *Telemetry) GetSummary() Summary {
	reqs := t.totalRequests.Load()
	errs := t.totalErrors.Load()
	denom := reqs
	if denom == 0 {
		denom = 1
	}
	return Summary{
		UptimeSeconds: time.Since(t.startTime).Seconds(),
		TotalRequests: reqs,
		TotalErrors:   errs,
		ErrorRate:     float64(errs) / float64(denom),
		Timestamp:     time.Now().Format(time.RFC3339),
	}
}
