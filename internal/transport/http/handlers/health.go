package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lipish/xtrace/internal/ratelimit"
	"github.com/lipish/xtrace/pkg/response"
)

// Health holds the unauthenticated diagnostic routes: /healthz, /metrics,
// and /api/internal/rate_limit_stats (spec.md §4.7, §4.6, §6).
type Health struct {
	registry *prometheus.Registry
	limiter  *ratelimit.Limiter
}

// NewHealth constructs the health/diagnostics handler set.
func NewHealth(registry *prometheus.Registry, limiter *ratelimit.Limiter) *Health {
	return &Health{registry: registry, limiter: limiter}
}

// Healthz handles GET /healthz: a constant body, bypassing auth and rate
// limiting entirely (spec.md §4.7).
func (h *Health) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Metrics handles GET /metrics: Prometheus exposition format, also
// unauthenticated (SUPPLEMENTED FEATURE 1).
func (h *Health) Metrics(c *gin.Context) {
	promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{}).ServeHTTP(c.Writer, c.Request)
}

// RateLimitStats handles GET /api/internal/rate_limit_stats: an
// unauthenticated diagnostic view of the limiter's tracked principal count
// and the total rejections counted in the Prometheus registry
// (spec.md §4.6/§6).
func (h *Health) RateLimitStats(c *gin.Context) {
	var rejected float64
	if h.registry != nil {
		if families, err := h.registry.Gather(); err == nil {
			for _, mf := range families {
				if mf.GetName() != "xtrace_rate_limit_rejections_total" {
					continue
				}
				for _, m := range mf.GetMetric() {
					rejected += m.GetCounter().GetValue()
				}
			}
		}
	}
	response.OK(c, gin.H{
		"trackedPrincipals": h.limiter.Len(),
		"rejectedTotal":     int64(rejected),
	})
}
