// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the strom bridge.
package observability

import "github.com/prometheus/client_golang/prometheus"

// StreamBuckets defines histogram buckets suited for chat stream lifetimes,
// ranging from 100ms to 120s.
var StreamBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

// FetchBuckets defines histogram buckets suited for artifact fetches,
// ranging from 50ms to 60s.
var FetchBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

var (
	// RequestsTotal counts all HTTP requests by method and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strom_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status"},
	)

	// RequestDuration records HTTP request duration in seconds by method.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "strom_request_duration_seconds",
			Help:    "Request duration",
			Buckets: StreamBuckets,
		},
		[]string{"method"},
	)

	// StreamsActive tracks the number of chat streams currently in flight.
	StreamsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "strom_streams_active",
			Help: "Active chat streams",
		},
	)

	// StreamDuration records chat stream lifetime in seconds by provider
	// and outcome.
	StreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "strom_stream_duration_seconds",
			Help:    "Chat stream duration",
			Buckets: StreamBuckets,
		},
		[]string{"provider", "status"},
	)

	// EnvelopesTotal counts stream envelopes emitted to clients by kind.
	EnvelopesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strom_envelopes_total",
			Help: "Emitted envelopes",
		},
		[]string{"kind"},
	)

	// EngineRequestsTotal counts requests sent to the backing engine.
	EngineRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strom_engine_requests_total",
			Help: "Engine requests",
		},
		[]string{"provider", "status"},
	)

	// EngineLatency records time to the engine's response in seconds.
	EngineLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "strom_engine_latency_seconds",
			Help:    "Engine latency",
			Buckets: StreamBuckets,
		},
		[]string{"provider"},
	)

	// MaterializationsTotal counts artifact batch materializations by outcome.
	MaterializationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strom_materializations_total",
			Help: "Artifact batch materializations",
		},
		[]string{"status"},
	)

	// MaterializationDuration records batch materialization duration in seconds.
	MaterializationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "strom_materialization_duration_seconds",
			Help:    "Materialization duration",
			Buckets: FetchBuckets,
		},
		[]string{"status"},
	)

	// ArtifactsTotal counts published artifacts by verified format.
	ArtifactsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strom_artifacts_total",
			Help: "Published artifacts",
		},
		[]string{"format"},
	)

	// ConversationsTracked tracks the number of conversation states held.
	ConversationsTracked = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "strom_conversations_tracked",
			Help: "Tracked conversations",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		StreamsActive,
		StreamDuration,
		EnvelopesTotal,
		EngineRequestsTotal,
		EngineLatency,
		MaterializationsTotal,
		MaterializationDuration,
		ArtifactsTotal,
		ConversationsTracked,
	)
}
