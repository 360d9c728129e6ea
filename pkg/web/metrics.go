package web

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the Prometheus instrumentation.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "multiform").
	Namespace string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for validation duration.
	// Default: prometheus.DefBuckets.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus instrumentation.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) { c.Namespace = namespace }
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) { c.ConstLabels = labels }
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) { c.Buckets = buckets }
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) { c.Registry = registry }
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "multiform",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// metrics holds the Prometheus instruments.
type metrics struct {
	validationsTotal   *prometheus.CounterVec
	validationDuration *prometheus.HistogramVec
	crossformErrors    prometheus.Counter
	savesTotal         *prometheus.CounterVec
	liveSessions       prometheus.Gauge
}

var (
	globalMetrics   *metrics
	globalMetricsMu sync.Mutex
)

func initMetrics(config MetricsConfig) *metrics {
	factory := promauto.With(config.Registry)

	return &metrics{
		validationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "validations_total",
			Help:        "Total aggregate validations by form and outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"form", "outcome"}),

		validationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Name:        "validation_duration_seconds",
			Help:        "Aggregate validation duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"form"}),

		crossformErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "crossform_errors_total",
			Help:        "Total validations rejected by cross-form checks",
			ConstLabels: config.ConstLabels,
		}),

		savesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "saves_total",
			Help:        "Total aggregate saves by form and outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"form", "outcome"}),

		liveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Name:        "live_sessions",
			Help:        "Open WebSocket validation sessions",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// EnableMetrics initializes the Prometheus instruments. Handlers record
// into them once enabled; without this call instrumentation is a no-op.
// Expose the registry with promhttp.Handler() as usual.
func EnableMetrics(opts ...MetricsOption) {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	globalMetricsMu.Lock()
	defer globalMetricsMu.Unlock()
	if globalMetrics == nil {
		globalMetrics = initMetrics(config)
	}
}

func recordValidation(form string, valid bool, seconds float64) {
	if globalMetrics == nil {
		return
	}
	outcome := "valid"
	if !valid {
		outcome = "invalid"
	}
	globalMetrics.validationsTotal.WithLabelValues(form, outcome).Inc()
	globalMetrics.validationDuration.WithLabelValues(form).Observe(seconds)
}

func recordCrossFormRejection() {
	if globalMetrics != nil {
		globalMetrics.crossformErrors.Inc()
	}
}

func recordSave(form string, err error) {
	if globalMetrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	globalMetrics.savesTotal.WithLabelValues(form, outcome).Inc()
}

func recordLiveSession(delta float64) {
	if globalMetrics != nil {
		globalMetrics.liveSessions.Add(delta)
	}
}
