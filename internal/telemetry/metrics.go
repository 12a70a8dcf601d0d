package telemetry

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ClientMetrics instruments the LockLLM API client.
type ClientMetrics struct {
	RequestTotal      *prometheus.CounterVec
	RequestDurationMs *prometheus.HistogramVec
	RetryTotal        *prometheus.CounterVec
	ErrorTotal        *prometheus.CounterVec
}

// NewClientMetrics creates the client metrics and registers them with reg.
// A nil reg registers with the default registry.
func NewClientMetrics(reg prometheus.Registerer) *ClientMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &ClientMetrics{
		RequestTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lockllm_client_requests_total",
			Help: "HTTP attempts made against the LockLLM API.",
		}, []string{"method", "status"}),

		RequestDurationMs: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lockllm_client_request_duration_ms",
			Help:    "Duration of a single HTTP attempt in milliseconds.",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
		}, []string{"method"}),

		RetryTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lockllm_client_retries_total",
			Help: "Retries scheduled by the client.",
		}, []string{"reason"}),

		ErrorTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lockllm_client_errors_total",
			Help: "Errors returned to callers, by error kind.",
		}, []string{"type"}),
	}
}

// RecordAttempt records one HTTP attempt. A zero status means the attempt
// failed before a response arrived.
func (m *ClientMetrics) RecordAttempt(method string, status int, durationMs float64) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.RequestTotal.WithLabelValues(method, label).Inc()
	m.RequestDurationMs.WithLabelValues(method).Observe(durationMs)
}

func (m *ClientMetrics) RecordRetry(reason string) {
	m.RetryTotal.WithLabelValues(reason).Inc()
}

func (m *ClientMetrics) RecordError(kind string) {
	m.ErrorTotal.WithLabelValues(kind).Inc()
}

// GatewayMetrics instruments the local forwarding gateway.
type GatewayMetrics struct {
	RequestTotal      *prometheus.CounterVec
	ScanTotal         *prometheus.CounterVec
	CacheTotal        *prometheus.CounterVec
	RateLimitHitTotal prometheus.Counter
	DurationMs        *prometheus.HistogramVec
}

// NewGatewayMetrics creates the gateway metrics and registers them with reg.
// A nil reg registers with the default registry.
func NewGatewayMetrics(reg prometheus.Registerer) *GatewayMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &GatewayMetrics{
		RequestTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lockllm_gateway_requests_total",
			Help: "Requests forwarded through the gateway.",
		}, []string{"provider", "status"}),

		ScanTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lockllm_gateway_scan_total",
			Help: "Scan outcomes reported by LockLLM on forwarded requests.",
		}, []string{"provider", "outcome"}),

		CacheTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lockllm_gateway_cache_total",
			Help: "Response cache lookups reported by LockLLM.",
		}, []string{"status"}),

		RateLimitHitTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "lockllm_gateway_rate_limit_hits_total",
			Help: "Requests rejected by the local rate limiter.",
		}),

		DurationMs: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lockllm_gateway_duration_ms",
			Help:    "End-to-end forwarding duration in milliseconds.",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
		}, []string{"provider"}),
	}
}

// RecordRequest records metrics for a completed forwarded request.
func (m *GatewayMetrics) RecordRequest(labels RequestLabels) {
	m.RequestTotal.WithLabelValues(labels.Provider, labels.Status).Inc()
	m.DurationMs.WithLabelValues(labels.Provider).Observe(labels.DurationMs)

	if labels.Outcome != "" {
		m.ScanTotal.WithLabelValues(labels.Provider, labels.Outcome).Inc()
	}
	if labels.CacheStatus != "" {
		m.CacheTotal.WithLabelValues(labels.CacheStatus).Inc()
	}
}

func (m *GatewayMetrics) RecordRateLimitHit() {
	m.RateLimitHitTotal.Inc()
}

// RequestLabels holds the label values for recording a forwarded request.
type RequestLabels struct {
	Provider    string
	Status      string
	Outcome     string
	CacheStatus string
	DurationMs  float64
}
