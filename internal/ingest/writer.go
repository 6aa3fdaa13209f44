package ingest

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/lipish/xtrace/internal/config"
	"github.com/lipish/xtrace/internal/core/domain"
	"github.com/lipish/xtrace/internal/core/store"
	"github.com/lipish/xtrace/internal/obsmetrics"
)

// RecordKind distinguishes the two record types sharing the trace queue
// (spec.md §4.2: "two bounded ... queues (trace/observation queue ...,
// metrics queue ...)" — traces and observations share one queue).
type RecordKind int

const (
	KindTrace RecordKind = iota
	KindObservation
)

// Record is the tagged union enqueued on the trace/observation queue.
type Record struct {
	Kind        RecordKind
	Trace       *domain.Trace
	Observation *domain.Observation
}

// Pipeline owns the two queues and their writer tasks (spec.md §4.2/§4.8).
type Pipeline struct {
	TraceQueue  *Queue[Record]
	MetricQueue *Queue[domain.MetricPoint]

	store   *store.Store
	logger  *slog.Logger
	cfg     config.IngestConfig
	metrics *obsmetrics.Registry
}

// NewPipeline constructs the queues. Writer tasks are started separately
// via RunTraceWriter/RunMetricWriter so callers control their lifecycle
// with an errgroup. metrics may
// be nil, in which case queue-depth/batch-size observability is skipped.
func NewPipeline(st *store.Store, cfg config.IngestConfig, logger *slog.Logger, metrics *obsmetrics.Registry) *Pipeline {
	return &Pipeline{
		TraceQueue:  NewQueue[Record](cfg.TraceQueueCapacity),
		MetricQueue: NewQueue[domain.MetricPoint](cfg.MetricQueueCapacity),
		store:       st,
		logger:      logger,
		cfg:         cfg,
		metrics:     metrics,
	}
}

// EnqueueTrace offers a trace to the shared trace/observation queue
// without blocking.
func (p *Pipeline) EnqueueTrace(t *domain.Trace) error {
	err := p.TraceQueue.TrySend(Record{Kind: KindTrace, Trace: t})
	p.reportQueueDepth("trace", p.TraceQueue)
	return err
}

// EnqueueObservation offers an observation to the shared trace/observation
// queue without blocking.
func (p *Pipeline) EnqueueObservation(o *domain.Observation) error {
	err := p.TraceQueue.TrySend(Record{Kind: KindObservation, Observation: o})
	p.reportQueueDepth("trace", p.TraceQueue)
	return err
}

// EnqueueMetric offers a metric point to the metrics queue without
// blocking.
func (p *Pipeline) EnqueueMetric(m domain.MetricPoint) error {
	err := p.MetricQueue.TrySend(m)
	p.reportQueueDepth("metric", p.MetricQueue)
	return err
}

func (p *Pipeline) reportQueueDepth(queue string, q interface{ Len() int }) {
	if p.metrics == nil {
		return
	}
	p.metrics.IngestQueueDepth.WithLabelValues(queue).Set(float64(q.Len()))
}

// RunTraceWriter runs the trace/observation writer task until ctx is
// cancelled and the queue drains (spec.md §4.8 shutdown: stop new
// enqueues, close queues, await drain).
func (p *Pipeline) RunTraceWriter(ctx context.Context) {
	Drain(ctx, p.TraceQueue, p.cfg.MicroBatchWindow, p.cfg.MicroBatchMaxRecords, p.flushTraceBatch)
}

// RunMetricWriter runs the metrics writer task until ctx is cancelled and
// the queue drains.
func (p *Pipeline) RunMetricWriter(ctx context.Context) {
	Drain(ctx, p.MetricQueue, p.cfg.MicroBatchWindow, p.cfg.MicroBatchMaxRecords, p.flushMetricBatch)
}

func (p *Pipeline) flushTraceBatch(records []Record) error {
	start := time.Now()
	if p.metrics != nil {
		p.metrics.WriterBatchSize.WithLabelValues("trace").Observe(float64(len(records)))
		p.metrics.IngestQueueDepth.WithLabelValues("trace").Set(float64(p.TraceQueue.Len()))
	}
	traces := make([]domain.Trace, 0, len(records))
	observations := make([]domain.Observation, 0, len(records))
	for _, r := range records {
		switch r.Kind {
		case KindTrace:
			traces = append(traces, *r.Trace)
		case KindObservation:
			observations = append(observations, *r.Observation)
		}
	}

	err := p.store.DB.Transaction(func(tx *gorm.DB) error {
		if err := store.UpsertTraces(tx, traces); err != nil {
			return err
		}
		return store.UpsertObservations(tx, observations)
	})
	if err != nil {
		p.logger.Error("ingest: trace micro-batch failed",
			"traces", len(traces), "observations", len(observations), "error", err)
		return err
	}
	p.logger.Debug("ingest: trace micro-batch committed",
		"traces", len(traces), "observations", len(observations), "elapsed", time.Since(start))
	return nil
}

func (p *Pipeline) flushMetricBatch(points []domain.MetricPoint) error {
	start := time.Now()
	if p.metrics != nil {
		p.metrics.WriterBatchSize.WithLabelValues("metric").Observe(float64(len(points)))
		p.metrics.IngestQueueDepth.WithLabelValues("metric").Set(float64(p.MetricQueue.Len()))
	}
	err := p.store.DB.Transaction(func(tx *gorm.DB) error {
		return store.InsertMetrics(tx, points)
	})
	if err != nil {
		p.logger.Error("ingest: metric micro-batch failed", "points", len(points), "error", err)
		return err
	}
	p.logger.Debug("ingest: metric micro-batch committed", "points", len(points), "elapsed", time.Since(start))
	return nil
}

// Shutdown closes both queues, signalling writer tasks to drain and
// return once their Drain loops observe the closed channel.
func (p *Pipeline) Shutdown() {
	p.TraceQueue.Close()
	p.MetricQueue.Close()
}
