package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds every leaf metric. It is served by the agent status server and
// the collector's /metrics route.
var Registry = prometheus.NewRegistry()

// Agent metrics.
var (
	// CyclesTotal counts measurement cycles by result: ok, connect_failed,
	// sensor_failed, submit_failed, disconnect_failed.
	CyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leaf_cycles_total",
			Help: "Total number of measurement cycles by result.",
		},
		[]string{"result"},
	)

	// StageFailuresTotal counts failures per cycle stage (connect, sample, submit, disconnect).
	StageFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leaf_stage_failures_total",
			Help: "Total number of failed cycle stages.",
		},
		[]string{"stage"},
	)

	// ConnectionState is 1 while the station holds an address, 0 otherwise.
	ConnectionState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "leaf_connection_state",
			Help: "Network connection state (1=Connected, 0=Disconnected).",
		},
	)

	ConnectDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "leaf_connect_duration_seconds",
			Help:    "Time from connect request to address acquisition.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2, 3, 5, 10},
		},
	)

	SubmitDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "leaf_submit_duration_seconds",
			Help:    "Latency of reading submissions.",
			Buckets: prometheus.DefBuckets,
		},
	)

	// HTTPSinkErrorsTotal counts response sink failures by kind: allocation, protocol.
	HTTPSinkErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leaf_http_sink_errors_total",
			Help: "Total number of response sink errors.",
		},
		[]string{"kind"},
	)

	// HTTPResponsesTotal counts completed submissions by status class (2xx, 4xx, 5xx).
	HTTPResponsesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leaf_http_responses_total",
			Help: "Total number of submission responses by status class.",
		},
		[]string{"class"},
	)

	LastReading = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "leaf_last_reading",
			Help: "Most recent averaged sensor value.",
		},
	)
)

// Collector metrics.
var (
	// CollectorReadingsTotal counts received readings by result: stored, rejected, failed.
	CollectorReadingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leaf_collector_readings_total",
			Help: "Total number of readings received by the collector.",
		},
		[]string{"result"},
	)

	CollectorPublishFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "leaf_collector_publish_failures_total",
			Help: "Total number of readings that could not be forwarded over MQTT.",
		},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		CyclesTotal,
		StageFailuresTotal,
		ConnectionState,
		ConnectDuration,
		SubmitDuration,
		HTTPSinkErrorsTotal,
		HTTPResponsesTotal,
		LastReading,
		CollectorReadingsTotal,
		CollectorPublishFailuresTotal,
	)
}

// StatusClass maps an HTTP status code to its class label.
func StatusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	case code >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
