// Package obsmetrics wires the self-observability Prometheus registry
// (SUPPLEMENTED FEATURE: GET /metrics, and the backing counters for GET
// /api/internal/rate_limit_stats).
package obsmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry bundles every metric this process exports about itself.
type Registry struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	IngestQueueDepth    *prometheus.GaugeVec
	WriterBatchSize     *prometheus.HistogramVec
	RateLimitRejections *prometheus.CounterVec
}

// New registers and returns the metric set on reg.
func New(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)
	return &Registry{
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "xtrace_http_requests_total",
			Help: "Total HTTP requests processed, by method, path, and status.",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "xtrace_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		IngestQueueDepth: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "xtrace_ingest_queue_depth",
			Help: "Current buffered record count per ingest queue.",
		}, []string{"queue"}),
		WriterBatchSize: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "xtrace_writer_batch_size",
			Help:    "Number of records committed per micro-batch.",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 200, 500},
		}, []string{"queue"}),
		RateLimitRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "xtrace_rate_limit_rejections_total",
			Help: "Total read requests rejected by the per-principal rate limiter.",
		}, []string{"principal"}),
	}
}
