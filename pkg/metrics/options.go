package metrics

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace sets the namespace prefix for all metric names.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithHistogramBuckets sets custom buckets for the latency histograms.
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.histogramBuckets = buckets
		}
	}
}

// WithEnabled turns metric recording on or off.
func WithEnabled(enabled bool) Option {
	return func(m *Manager) {
		m.enabled = enabled
	}
}
