// Package metrics provides Prometheus metrics for the home price service.
package metrics

import (
	"context"
	"runtime"
	"slices"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	defaultRefreshInterval = 10 * time.Second
)

// defaultLatencyBuckets are in milliseconds; geocoding dominates at hundreds of ms.
var defaultLatencyBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace       string
	subsystem       string
	latencyBuckets  []float64
	refreshInterval time.Duration
	constLabels     map[string]string
	registry        prometheus.Registerer

	// Estimate pipeline
	estimates       *prometheus.CounterVec
	estimateLatency prometheus.Histogram
	predictedPrice  prometheus.Histogram

	// Collaborators
	geocodeRequests *prometheus.CounterVec
	geocodeLatency  *prometheus.HistogramVec
	predictions     *prometheus.CounterVec
	predictLatency  *prometheus.HistogramVec

	// Model shape
	schemaColumns     prometheus.Gauge
	categoricalGroups prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton used by package-level recorders

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// Configure rebuilds the global metrics on a fresh registry with opts applied.
// It must run at startup, before recorders or the /metrics handler are used
// concurrently; values recorded earlier are discarded.
func Configure(opts ...Option) {
	registry := prometheus.NewRegistry()
	globalManager = NewManager(append(slices.Clone(opts), WithPrometheusRegistry(registry))...)
	customRegistry = registry
}

// NewManager creates a new metrics manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:       "homeprice",
		subsystem:       "estimator",
		latencyBuckets:  defaultLatencyBuckets,
		refreshInterval: defaultRefreshInterval,
		constLabels:     map[string]string{},
		registry:        prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) initializeMetrics() {
	m.estimates = m.counterVec("estimates_total",
		"Total number of estimate requests by outcome", "outcome")
	m.estimateLatency = m.histogram("estimate_latency_milliseconds",
		"End-to-end estimate latency in milliseconds", m.latencyBuckets)
	m.predictedPrice = m.histogram("predicted_price",
		"Distribution of predicted prices in currency units",
		prometheus.ExponentialBuckets(50_000, 2, 10))

	m.geocodeRequests = m.counterVec("geocode_requests_total",
		"Total number of geocode calls by provider and outcome", "provider", "outcome")
	m.geocodeLatency = m.histogramVec("geocode_latency_milliseconds",
		"Geocode latency in milliseconds", m.latencyBuckets, "provider")
	m.predictions = m.counterVec("predictions_total",
		"Total number of predictor calls by predictor and outcome", "predictor", "outcome")
	m.predictLatency = m.histogramVec("predict_latency_milliseconds",
		"Predictor latency in milliseconds", m.latencyBuckets, "predictor")

	m.schemaColumns = m.gauge("schema_columns", "Number of feature columns expected by the model")
	m.categoricalGroups = m.gauge("categorical_groups", "Number of configured categorical groups")

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", m.latencyBuckets, "endpoint", "method", "status_code")

	m.errorsByComponent = m.counterVec("errors_by_component_total",
		"Total number of errors by component and kind", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap memory in use in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordEstimate counts an estimate outcome and its latency.
func RecordEstimate(outcome string, latencyMs float64) {
	globalManager.estimates.WithLabelValues(outcome).Inc()
	globalManager.estimateLatency.Observe(latencyMs)
}

// RecordPredictedPrice observes a successful prediction.
func RecordPredictedPrice(price float64) {
	globalManager.predictedPrice.Observe(price)
}

// RecordGeocode counts a geocode call.
func RecordGeocode(provider, outcome string, latencyMs float64) {
	globalManager.geocodeRequests.WithLabelValues(provider, outcome).Inc()
	globalManager.geocodeLatency.WithLabelValues(provider).Observe(latencyMs)
}

// RecordPrediction counts a predictor call.
func RecordPrediction(predictor, outcome string, latencyMs float64) {
	globalManager.predictions.WithLabelValues(predictor, outcome).Inc()
	globalManager.predictLatency.WithLabelValues(predictor).Observe(latencyMs)
}

// UpdateSchemaColumns sets the model schema width.
func UpdateSchemaColumns(n int) {
	globalManager.schemaColumns.Set(float64(n))
}

// UpdateCategoricalGroups sets the number of categorical groups.
func UpdateCategoricalGroups(n int) {
	globalManager.categoricalGroups.Set(float64(n))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the heap memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// RunSystemUpdater refreshes system gauges until ctx is done.
func RunSystemUpdater(ctx context.Context) error {
	ticker := time.NewTicker(globalManager.refreshInterval)
	defer ticker.Stop()

	var lastNumGC uint32
	for {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		UpdateSystemMemoryUsage(ms.HeapAlloc)
		UpdateSystemGoroutineCount(runtime.NumGoroutine())
		if ms.NumGC > lastNumGC {
			// PauseNs is a circular buffer of the most recent pauses.
			n := min(ms.NumGC-lastNumGC, uint32(len(ms.PauseNs)))
			for i := uint32(0); i < n; i++ {
				idx := (ms.NumGC - 1 - i) % uint32(len(ms.PauseNs))
				RecordSystemGCPauseTime(float64(ms.PauseNs[idx]) / float64(time.Millisecond))
			}
			lastNumGC = ms.NumGC
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
