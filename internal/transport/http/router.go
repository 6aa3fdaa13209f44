// Package http wires C7: route registration, middleware ordering, and the
// handler set over gin.
package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lipish/xtrace/internal/config"
	"github.com/lipish/xtrace/internal/ingest"
	"github.com/lipish/xtrace/internal/obsmetrics"
	"github.com/lipish/xtrace/internal/ratelimit"
	"github.com/lipish/xtrace/internal/transport/http/handlers"
	"github.com/lipish/xtrace/internal/transport/http/middleware"
	"github.com/lipish/xtrace/pkg/apperrors"
	"github.com/lipish/xtrace/pkg/response"
	"gorm.io/gorm"
)

// Dependencies bundles everything the router needs to construct handlers.
type Dependencies struct {
	Config   *config.Config
	DB       *gorm.DB
	Pipeline *ingest.Pipeline
	Limiter  *ratelimit.Limiter
	Metrics  *obsmetrics.Registry
	Registry *prometheus.Registry
	Logger   *slog.Logger
}

// NewRouter builds the gin engine with every route in spec.md §6.
func NewRouter(deps Dependencies) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), recoverToEnvelope(deps.Logger), middleware.Instrument(deps.Metrics))

	ingestHandler := handlers.NewIngest(deps.Pipeline, deps.Config.Auth.DefaultProjectID, deps.Logger)
	otlpHandler := handlers.NewOTLP(deps.Pipeline, deps.Config.Auth.DefaultProjectID, "default", deps.Logger)
	tracesHandler := handlers.NewTraces(deps.DB, deps.Config.Auth.DefaultProjectID)
	metricsHandler := handlers.NewMetrics(deps.DB, deps.Config.Auth.DefaultProjectID)
	projectsHandler := handlers.NewProjects(deps.Config.Auth.DefaultProjectID)
	healthHandler := handlers.NewHealth(deps.Registry, deps.Limiter)

	// Unauthenticated routes (spec.md §4.6/§4.7/§6).
	r.GET("/healthz", healthHandler.Healthz)
	r.GET("/metrics", healthHandler.Metrics)
	r.GET("/api/internal/rate_limit_stats", healthHandler.RateLimitStats)

	authMW := middleware.RequireAuth(deps.Config.Auth)
	rateLimitMW := middleware.RateLimit(deps.Limiter, deps.Metrics)

	// Write routes: authenticated, no token bucket (queue backpressure only).
	write := r.Group("/")
	write.Use(authMW)
	{
		write.POST("/v1/l/batch", ingestHandler.Batch)
		write.POST("/v1/l/traces", ingestHandler.Trace)
		write.POST("/v1/l/observations", ingestHandler.Observation)
		write.POST("/v1/metrics/batch", ingestHandler.MetricsBatch)
		write.POST("/api/public/otel/v1/traces", otlpHandler.Traces)
	}

	// Read routes: authenticated + rate limited (spec.md §4.6).
	read := r.Group("/api/public")
	read.Use(authMW, rateLimitMW)
	{
		read.GET("/projects", projectsHandler.List)
		read.GET("/traces", tracesHandler.List)
		read.GET("/traces/:id", tracesHandler.Get)
		read.GET("/metrics/daily", metricsHandler.Daily)
		read.GET("/metrics/names", metricsHandler.Names)
		read.GET("/metrics/query", metricsHandler.Query)
	}

	r.NoRoute(func(c *gin.Context) {
		response.Error(c, apperrors.NewNotFound("route not found"))
	})

	return r
}

// recoverToEnvelope renders the uniform 500 error envelope when a later
// handler panics (instead of gin.Recovery's empty-body 500) or records an
// error without writing a response.
func recoverToEnvelope(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("http: panic", "panic", rec)
				response.Error(c, apperrors.NewInternal("internal error", nil))
				c.Abort()
			}
		}()
		c.Next()
		if len(c.Errors) > 0 && !c.Writer.Written() {
			logger.Error("http: unhandled error", "error", c.Errors.Last())
			response.Error(c, apperrors.NewInternal("internal error", c.Errors.Last()))
		}
	}
}
