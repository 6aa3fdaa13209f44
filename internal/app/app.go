// Package app wires the dependency graph described in spec.md §4.8 and
// drives its lifecycle: startup (config, store, migrations, queues,
// listener) and graceful shutdown (stop enqueues, drain, close pool).
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/lipish/xtrace/internal/config"
	"github.com/lipish/xtrace/internal/core/store"
	"github.com/lipish/xtrace/internal/ingest"
	"github.com/lipish/xtrace/internal/migration"
	"github.com/lipish/xtrace/internal/obsmetrics"
	"github.com/lipish/xtrace/internal/ratelimit"
	transporthttp "github.com/lipish/xtrace/internal/transport/http"
	"github.com/lipish/xtrace/pkg/logging"
)

// App owns every long-lived component and coordinates Start/Shutdown.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.Store
	pipeline *ingest.Pipeline
	limiter  *ratelimit.Limiter
	registry *prometheus.Registry
	server   *http.Server

	shutdownOnce sync.Once
	writerGroup  *errgroup.Group
	writerCancel context.CancelFunc
}

// New constructs the App: connects the store, runs migrations, builds the
// ingest pipeline and rate limiter, and assembles the HTTP router. It does
// not start serving or writer tasks yet (see Start).
func New(cfg *config.Config) (*App, error) {
	logger := logging.NewLoggerWithFormat(cfg.Logging.Level, logging.Format(cfg.Logging.Format))

	st, err := store.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("app: open store: %w", err)
	}

	sqlDB, err := st.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("app: unwrap sql.DB: %w", err)
	}
	mgr, err := migration.NewManager(sqlDB)
	if err != nil {
		return nil, fmt.Errorf("app: init migration manager: %w", err)
	}
	if err := mgr.Up(); err != nil {
		return nil, fmt.Errorf("app: run migrations: %w", err)
	}
	if err := mgr.Close(); err != nil {
		logger.Warn("app: migration manager close", "error", err)
	}

	registry := prometheus.NewRegistry()
	metrics := obsmetrics.New(registry)
	pipeline := ingest.NewPipeline(st, cfg.Ingest, logger, metrics)
	limiter := ratelimit.New(cfg.Auth.RateLimitQPS, cfg.Auth.RateLimitBurst, 0)

	router := transporthttp.NewRouter(transporthttp.Dependencies{
		Config:   cfg,
		DB:       st.DB,
		Pipeline: pipeline,
		Limiter:  limiter,
		Metrics:  metrics,
		Registry: registry,
		Logger:   logger,
	})

	return &App{
		cfg:      cfg,
		logger:   logger,
		store:    st,
		pipeline: pipeline,
		limiter:  limiter,
		registry: registry,
		server:   &http.Server{Addr: cfg.Server.BindAddr, Handler: router},
	}, nil
}

// Start launches the writer tasks and then serves HTTP until Shutdown
// stops the listener. It returns the listener's error if serving fails for
// any other reason. The writer tasks run until Shutdown closes their
// queues; cancelling ctx stops neither the listener nor the writers.
func (a *App) Start(ctx context.Context) error {
	writerCtx, cancel := context.WithCancel(context.Background())
	a.writerCancel = cancel

	group, _ := errgroup.WithContext(ctx)
	a.writerGroup = group

	group.Go(func() error {
		a.pipeline.RunTraceWriter(writerCtx)
		return nil
	})
	group.Go(func() error {
		a.pipeline.RunMetricWriter(writerCtx)
		return nil
	})

	a.logger.Info("app: listening", "addr", a.cfg.Server.BindAddr)
	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("app: http server: %w", err)
	}
	return nil
}

// Shutdown stops accepting new enqueues, closes the queues, waits for the
// writer tasks to drain (bounded by cfg.Ingest.DrainTimeout), and closes
// the store pool (spec.md §4.8).
func (a *App) Shutdown(ctx context.Context) error {
	var err error
	a.shutdownOnce.Do(func() {
		a.logger.Info("app: shutting down")

		shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
		defer cancel()
		if shutErr := a.server.Shutdown(shutdownCtx); shutErr != nil {
			a.logger.Warn("app: http server shutdown", "error", shutErr)
		}

		a.pipeline.Shutdown()

		drained := make(chan struct{})
		go func() {
			if a.writerGroup != nil {
				_ = a.writerGroup.Wait()
			}
			close(drained)
		}()

		select {
		case <-drained:
		case <-time.After(a.cfg.Ingest.DrainTimeout):
			a.logger.Warn("app: writer drain deadline exceeded")
			if a.writerCancel != nil {
				a.writerCancel()
			}
		}

		if closeErr := a.store.Close(); closeErr != nil {
			err = closeErr
		}
	})
	return err
}
