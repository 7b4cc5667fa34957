// Package metrics provides Prometheus metrics for the dodginess scoring service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector the service exports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Pipeline
	effortsLoaded    prometheus.Counter
	effortsEnriched  prometheus.Counter
	effortsRejected  *prometheus.CounterVec
	effortsScored    prometheus.Counter
	effortsFlagged   *prometheus.CounterVec
	batchesCompleted *prometheus.CounterVec
	batchDuration    prometheus.Histogram
	leaderboardSize  prometheus.Gauge

	// Workers
	workerCount      prometheus.Gauge
	workerJobLatency *prometheus.HistogramVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "dodgy",
		subsystem:        "leaderboard",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.effortsLoaded = auto.NewCounter(m.counterOpts("efforts_loaded_total",
		"Raw efforts received for analysis"))
	m.effortsEnriched = auto.NewCounter(m.counterOpts("efforts_enriched_total",
		"Efforts successfully enriched with a speed"))
	m.effortsRejected = auto.NewCounterVec(m.counterOpts("efforts_rejected_total",
		"Efforts dropped before scoring, by reason"), []string{"reason"})
	m.effortsScored = auto.NewCounter(m.counterOpts("efforts_scored_total",
		"Efforts that received a dodginess score"))
	m.effortsFlagged = auto.NewCounterVec(m.counterOpts("efforts_flagged_total",
		"Non-zero scorer contributions, by scorer"), []string{"scorer"})
	m.batchesCompleted = auto.NewCounterVec(m.counterOpts("batches_total",
		"Completed analysis batches, by outcome"), []string{"outcome"})
	m.batchDuration = auto.NewHistogram(m.histogramOpts("batch_duration_milliseconds",
		"End-to-end batch analysis time in milliseconds"))
	m.leaderboardSize = auto.NewGauge(m.gaugeOpts("leaderboard_size",
		"Efforts in the most recently scored working set"))

	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count",
		"Configured worker pool size"))
	m.workerJobLatency = auto.NewHistogramVec(m.histogramOpts("worker_job_latency_milliseconds",
		"Per-job latency inside the worker pool"), []string{"pool"})

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total",
		"HTTP requests by endpoint, method and status"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds"), []string{"endpoint", "method", "status_code"})
	m.httpErrors = auto.NewCounterVec(m.counterOpts("http_errors_total",
		"HTTP error responses by endpoint, type and severity"), []string{"endpoint", "error_type", "severity"})
}

// RecordEffortsLoaded adds n raw efforts to the loaded counter.
func RecordEffortsLoaded(n int) {
	if globalManager.enabled {
		globalManager.effortsLoaded.Add(float64(n))
	}
}

// RecordEffortEnriched increments the enriched counter.
func RecordEffortEnriched() {
	if globalManager.enabled {
		globalManager.effortsEnriched.Inc()
	}
}

// RecordEffortRejected increments the rejected counter for reason.
func RecordEffortRejected(reason string) {
	if globalManager.enabled {
		globalManager.effortsRejected.WithLabelValues(reason).Inc()
	}
}

// RecordEffortScored increments the scored counter.
func RecordEffortScored() {
	if globalManager.enabled {
		globalManager.effortsScored.Inc()
	}
}

// RecordEffortFlagged records a non-zero contribution from scorer.
func RecordEffortFlagged(scorer string) {
	if globalManager.enabled {
		globalManager.effortsFlagged.WithLabelValues(scorer).Inc()
	}
}

// RecordBatch records a finished batch with its outcome ("ok" or "error").
func RecordBatch(outcome string, durationMs float64) {
	if globalManager.enabled {
		globalManager.batchesCompleted.WithLabelValues(outcome).Inc()
		globalManager.batchDuration.Observe(durationMs)
	}
}

// UpdateLeaderboardSize sets the size of the last scored working set.
func UpdateLeaderboardSize(n int) {
	if globalManager.enabled {
		globalManager.leaderboardSize.Set(float64(n))
	}
}

// UpdateWorkerCount sets the worker pool size.
func UpdateWorkerCount(n int) {
	if globalManager.enabled {
		globalManager.workerCount.Set(float64(n))
	}
}

// RecordWorkerJobLatency observes one job's latency for the named pool.
func RecordWorkerJobLatency(pool string, latencyMs float64) {
	if globalManager.enabled {
		globalManager.workerJobLatency.WithLabelValues(pool).Observe(latencyMs)
	}
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

// RecordHTTPError records an HTTP error response.
func RecordHTTPError(endpoint, errorType, severity string) {
	if globalManager.enabled {
		globalManager.httpErrors.WithLabelValues(endpoint, errorType, severity).Inc()
	}
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
