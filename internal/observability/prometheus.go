package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rcliao/temporal-events/internal/store"
)

// PrometheusCollector implements store.MetricsCollector on its own registry.
type PrometheusCollector struct {
	registry  *prometheus.Registry
	durations *prometheus.HistogramVec
	fallbacks *prometheus.CounterVec
}

// NewPrometheusCollector registers the event store metrics plus the Go and
// process collectors on a fresh registry.
func NewPrometheusCollector() *PrometheusCollector {
	c := &PrometheusCollector{registry: prometheus.NewRegistry()}

	c.durations = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    store.MetricOperationDuration,
		Help:    "Duration of event store operations by result status",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "status"})

	c.fallbacks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: store.MetricListingFallback,
		Help: "Owner listings served by the in-memory sort fallback",
	}, []string{"operation"})

	c.registry.MustRegister(
		c.durations,
		c.fallbacks,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// RecordDuration observes d in seconds. Unknown metric names are ignored.
func (c *PrometheusCollector) RecordDuration(metric string, d time.Duration, labels map[string]string) {
	if metric != store.MetricOperationDuration {
		return
	}
	c.durations.WithLabelValues(labels["operation"], labels["status"]).Observe(d.Seconds())
}

// IncrementCounter adds one to the named counter. Unknown metric names are ignored.
func (c *PrometheusCollector) IncrementCounter(metric string, labels map[string]string) {
	if metric != store.MetricListingFallback {
		return
	}
	c.fallbacks.WithLabelValues(labels["operation"]).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (c *PrometheusCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Registry exposes the underlying registry.
func (c *PrometheusCollector) Registry() *prometheus.Registry {
	return c.registry
}

var _ store.MetricsCollector = (*PrometheusCollector)(nil)
