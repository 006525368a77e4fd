// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the courtside gateway.
package observability

import "github.com/prometheus/client_golang/prometheus"

// ModelBuckets defines histogram buckets suited for model inference
// latencies, ranging from 100ms to 120s.
var ModelBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

// BackendBuckets covers the much tighter latency envelope of the
// sports-data backends, from 5ms to 10s.
var BackendBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

var (
	// RequestsTotal counts HTTP requests by method, path, and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courtside_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// RequestDuration records HTTP request duration in seconds.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "courtside_request_duration_seconds",
			Help:    "Request duration",
			Buckets: ModelBuckets,
		},
		[]string{"method", "path"},
	)

	// TurnsTotal counts processed turns by domain and final status.
	TurnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courtside_turns_total",
			Help: "Processed turns",
		},
		[]string{"domain", "status"},
	)

	// TurnDuration records end-to-end turn duration in seconds by domain.
	TurnDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "courtside_turn_duration_seconds",
			Help:    "Turn duration",
			Buckets: ModelBuckets,
		},
		[]string{"domain"},
	)

	// StreamingConnections tracks active SSE streaming connections.
	StreamingConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "courtside_streaming_connections_active",
			Help: "Active streaming connections",
		},
	)

	// ModelCallsTotal counts calls to the upstream model endpoint.
	ModelCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courtside_model_calls_total",
			Help: "Model endpoint calls",
		},
		[]string{"status"},
	)

	// ModelLatency records model endpoint latency in seconds.
	ModelLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "courtside_model_latency_seconds",
			Help:    "Model endpoint latency",
			Buckets: ModelBuckets,
		},
	)

	// DispatchesTotal counts tool dispatches by backend, tool, and outcome.
	DispatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courtside_dispatches_total",
			Help: "Tool dispatches",
		},
		[]string{"backend", "tool", "status"},
	)

	// DispatchLatency records backend dispatch latency in seconds.
	DispatchLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "courtside_dispatch_latency_seconds",
			Help:    "Backend dispatch latency",
			Buckets: BackendBuckets,
		},
		[]string{"backend"},
	)

	// CacheRequestsTotal counts cache lookups by result (hit/miss).
	CacheRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courtside_cache_requests_total",
			Help: "Tool result cache lookups",
		},
		[]string{"result"},
	)

	// ToolCallRounds records how many tool-call rounds each turn needed.
	ToolCallRounds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "courtside_tool_call_rounds",
			Help:    "Tool-call rounds per turn",
			Buckets: []float64{0, 1, 2, 3, 4, 5, 6},
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		TurnsTotal,
		TurnDuration,
		StreamingConnections,
		ModelCallsTotal,
		ModelLatency,
		DispatchesTotal,
		DispatchLatency,
		CacheRequestsTotal,
		ToolCallRounds,
	)
}
