// Package metrics exposes Prometheus metrics for the HTTP and store layers.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Manager owns the metric instruments and the registry they live in.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	enabled          bool
	registry         *prometheus.Registry

	// HTTP layer
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Store layer
	storeOps       *prometheus.CounterVec
	storeOpLatency *prometheus.HistogramVec
	storeErrors    *prometheus.CounterVec

	// Connection pool
	poolTotalConns prometheus.Gauge
	poolIdleConns  prometheus.Gauge

	// Cross-cutting
	errorsByComponent *prometheus.CounterVec
}

// Global manager on a private registry so the default Go collectors stay out.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager()
}

// NewManager creates a Manager and registers its instruments.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "plinth",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status code.",
	}, []string{"endpoint", "method", "status"})

	m.httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by endpoint and method.",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method"})

	m.storeOps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "store_operations_total",
		Help:      "Store operations by operation and collection.",
	}, []string{"op", "collection"})

	m.storeOpLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "store_operation_duration_seconds",
		Help:      "Store operation latency by operation.",
		Buckets:   m.histogramBuckets,
	}, []string{"op"})

	m.storeErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "store_errors_total",
		Help:      "Store errors by operation and error kind.",
	}, []string{"op", "kind"})

	m.poolTotalConns = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "pool_connections_total",
		Help:      "Connections currently held by the pool.",
	})

	m.poolIdleConns = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "pool_connections_idle",
		Help:      "Idle connections in the pool.",
	})

	m.errorsByComponent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "errors_total",
		Help:      "Errors by component and reason.",
	}, []string{"component", "reason"})

	m.registry.MustRegister(
		m.httpRequests,
		m.httpRequestDuration,
		m.storeOps,
		m.storeOpLatency,
		m.storeErrors,
		m.poolTotalConns,
		m.poolIdleConns,
		m.errorsByComponent,
	)
	return m
}

// Registry returns the manager's registry for serving /metrics.
func (m *Manager) Registry() *prometheus.Registry { return m.registry }

// GetRegistry returns the global manager's registry.
func GetRegistry() *prometheus.Registry { return globalManager.Registry() }

// RecordHTTPRequest counts one handled request.
func RecordHTTPRequest(endpoint, method, status string) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

// RecordHTTPRequestDuration observes one request's latency in seconds.
func RecordHTTPRequestDuration(endpoint, method string, seconds float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method).Observe(seconds)
}

// RecordStoreOp counts one store operation.
func RecordStoreOp(op, collection string) {
	if !globalManager.enabled {
		return
	}
	globalManager.storeOps.WithLabelValues(op, collection).Inc()
}

// RecordStoreOpDuration observes one store operation's latency in seconds.
func RecordStoreOpDuration(op string, seconds float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.storeOpLatency.WithLabelValues(op).Observe(seconds)
}

// RecordStoreError counts one store error by kind.
func RecordStoreError(op, kind string) {
	if !globalManager.enabled {
		return
	}
	globalManager.storeErrors.WithLabelValues(op, kind).Inc()
}

// UpdatePoolConns sets the pool gauges.
func UpdatePoolConns(total, idle int) {
	if !globalManager.enabled {
		return
	}
	globalManager.poolTotalConns.Set(float64(total))
	globalManager.poolIdleConns.Set(float64(idle))
}

// RecordErrorByComponent counts one error for a component.
func RecordErrorByComponent(component, reason string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorsByComponent.WithLabelValues(component, reason).Inc()
}
