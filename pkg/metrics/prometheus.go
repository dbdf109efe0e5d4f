// Package metrics provides Prometheus metrics for the prefixd service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Default metrics configuration constants.
const (
	DefaultNamespace       = "prefixd"
	defaultRefreshInterval = 10 * time.Second
)

// latencyBuckets are shared by every millisecond latency histogram.
var latencyBuckets = []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000} //nolint:gochecknoglobals // fixed bucket layout

// Manager manages all Prometheus metrics for the prefixd service.
type Manager struct {
	namespace       string
	enabled         bool
	refreshInterval time.Duration
	constLabels     map[string]string
	registry        prometheus.Registerer

	// Resolution Metrics
	resolutions     *prometheus.CounterVec
	batchSize       prometheus.Histogram
	batchRejections prometheus.Counter

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Gateway Proxy Metrics
	proxyRequests        *prometheus.CounterVec
	proxyUpstreamLatency prometheus.Histogram
	proxyErrors          *prometheus.CounterVec

	// Outbound Client Metrics
	clientRequests *prometheus.CounterVec
	clientLatency  *prometheus.HistogramVec

	// Error Metrics
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// Init rebuilds the global manager from opts on a fresh registry. It must run
// before metrics are recorded or served, typically once at startup.
func Init(opts ...Option) *Manager {
	registry := prometheus.NewRegistry()
	m := NewManager(append(opts[:len(opts):len(opts)], WithRegistry(registry))...)
	customRegistry = registry
	globalManager = m
	return m
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:       DefaultNamespace,
		enabled:         true,
		refreshInterval: defaultRefreshInterval,
		registry:        prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	constLabels := prometheus.Labels(m.constLabels)

	m.resolutions = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Name:        "resolutions_total",
			Help:        "Total number of path resolutions by target",
			ConstLabels: constLabels,
		},
		[]string{"target"},
	)

	m.batchSize = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Name:        "resolve_batch_size",
		Help:        "Number of paths per batch resolve request",
		Buckets:     []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: constLabels,
	})

	m.batchRejections = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Name:        "resolve_batch_rejections_total",
		Help:        "Total number of batch resolve requests rejected for size",
		ConstLabels: constLabels,
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests by endpoint and method",
			ConstLabels: constLabels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Name:        "http_request_duration_milliseconds",
			Help:        "HTTP request duration in milliseconds",
			Buckets:     latencyBuckets,
			ConstLabels: constLabels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.proxyRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Name:        "proxy_requests_total",
			Help:        "Total number of requests forwarded to the gateway by upstream status",
			ConstLabels: constLabels,
		},
		[]string{"method", "status_code"},
	)

	m.proxyUpstreamLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Name:        "proxy_upstream_latency_milliseconds",
		Help:        "Gateway round-trip latency in milliseconds",
		Buckets:     latencyBuckets,
		ConstLabels: constLabels,
	})

	m.proxyErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Name:        "proxy_errors_total",
			Help:        "Total number of gateway forwarding failures by kind",
			ConstLabels: constLabels,
		},
		[]string{"error_type"},
	)

	m.clientRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Name:        "client_requests_total",
			Help:        "Total number of outbound requests by target and status",
			ConstLabels: constLabels,
		},
		[]string{"target", "status_code"},
	)

	m.clientLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Name:        "client_request_duration_milliseconds",
			Help:        "Outbound request duration in milliseconds by target",
			Buckets:     latencyBuckets,
			ConstLabels: constLabels,
		},
		[]string{"target"},
	)

	m.errorRateByType = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Name:        "errors_by_type_total",
			Help:        "Total number of errors by type and severity",
			ConstLabels: constLabels,
		},
		[]string{"error_type", "severity"},
	)

	m.errorRateByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Name:        "errors_by_endpoint_total",
			Help:        "Total number of errors by endpoint",
			ConstLabels: constLabels,
		},
		[]string{"endpoint", "method", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Name:        "system_memory_usage_bytes",
		Help:        "System memory usage in bytes",
		ConstLabels: constLabels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Name:        "system_goroutine_count",
		Help:        "Number of goroutines",
		ConstLabels: constLabels,
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Name:        "system_gc_pause_time_milliseconds",
		Help:        "GC pause time in milliseconds",
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: constLabels,
	})
}

// RecordResolution increments the resolution counter for a target.
func RecordResolution(target string) {
	if globalManager.enabled {
		globalManager.resolutions.WithLabelValues(target).Inc()
	}
}

// RecordBatchSize observes the number of paths in one batch request.
func RecordBatchSize(n int) {
	if globalManager.enabled {
		globalManager.batchSize.Observe(float64(n))
	}
}

// RecordBatchRejected counts a batch refused for exceeding the size limit.
func RecordBatchRejected() {
	if globalManager.enabled {
		globalManager.batchRejections.Inc()
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

// RecordProxyRequest records a request answered by the gateway.
func RecordProxyRequest(method, statusCode string, latencyMs float64) {
	if globalManager.enabled {
		globalManager.proxyRequests.WithLabelValues(method, statusCode).Inc()
		globalManager.proxyUpstreamLatency.Observe(latencyMs)
	}
}

// RecordProxyError records a forwarding failure.
func RecordProxyError(errorType string) {
	if globalManager.enabled {
		globalManager.proxyErrors.WithLabelValues(errorType).Inc()
	}
}

// RecordClientRequest records an outbound request made through the client helper.
func RecordClientRequest(target, statusCode string, latencyMs float64) {
	if globalManager.enabled {
		globalManager.clientRequests.WithLabelValues(target, statusCode).Inc()
		globalManager.clientLatency.WithLabelValues(target).Observe(latencyMs)
	}
}

// RecordErrorByType records errors by type and severity.
func RecordErrorByType(errorType, severity string) {
	if globalManager.enabled {
		globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
	}
}

// RecordErrorByEndpoint records errors by endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if globalManager.enabled {
		globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// UpdateSystemMemoryUsage updates the system memory usage gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	if globalManager.enabled {
		globalManager.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount updates the goroutine count gauge.
func UpdateSystemGoroutineCount(count int) {
	if globalManager.enabled {
		globalManager.systemGoroutineCount.Set(float64(count))
	}
}

// RecordSystemGCPauseTime records GC pause time.
func RecordSystemGCPauseTime(pauseMs float64) {
	if globalManager.enabled {
		globalManager.systemGCPauseTime.Observe(pauseMs)
	}
}

// GetRegistry returns the custom registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Handler serves the custom registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(customRegistry, promhttp.HandlerOpts{})
}

// RefreshInterval returns how often gauges should be refreshed.
func (m *Manager) RefreshInterval() time.Duration {
	return m.refreshInterval
}

// Enabled reports whether the manager records anything.
func (m *Manager) Enabled() bool {
	return m.enabled
}

// RefreshInterval returns the refresh interval of the global manager.
func RefreshInterval() time.Duration {
	return globalManager.refreshInterval
}
