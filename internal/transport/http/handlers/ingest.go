// Package handlers implements C7's HTTP handlers over the C2-C6 components.
package handlers

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/lipish/xtrace/internal/ingest"
	"github.com/lipish/xtrace/internal/transport/http/dto"
	"github.com/lipish/xtrace/pkg/apperrors"
	"github.com/lipish/xtrace/pkg/response"
)

// Ingest holds the write-path handlers (spec.md §4.2, §6 routes
// /v1/l/batch, /v1/l/traces, /v1/l/observations, /v1/metrics/batch).
type Ingest struct {
	pipeline  *ingest.Pipeline
	projectID string
	logger    *slog.Logger
}

// NewIngest constructs the ingest handler set.
func NewIngest(pipeline *ingest.Pipeline, defaultProjectID string, logger *slog.Logger) *Ingest {
	return &Ingest{pipeline: pipeline, projectID: defaultProjectID, logger: logger}
}

// Batch handles POST /v1/l/batch: a mixed batch of traces and
// observations, enqueued individually onto the shared trace/observation
// queue. The handler never blocks on DB I/O (spec.md §4.2/§5) — it only
// offers to the bounded channel and reports backpressure.
func (h *Ingest) Batch(c *gin.Context) {
	var body dto.BatchIngest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, apperrors.NewBadRequest("invalid batch payload: "+err.Error()))
		return
	}

	for _, t := range body.Traces {
		trace, err := t.ToDomain(h.projectID)
		if err != nil {
			response.Error(c, apperrors.NewBadRequest(err.Error()))
			return
		}
		if err := h.pipeline.EnqueueTrace(trace); err != nil {
			h.respondEnqueueError(c, err)
			return
		}
	}
	for _, o := range body.Observations {
		obs, err := o.ToDomain(h.projectID)
		if err != nil {
			response.Error(c, apperrors.NewBadRequest(err.Error()))
			return
		}
		if err := h.pipeline.EnqueueObservation(obs); err != nil {
			h.respondEnqueueError(c, err)
			return
		}
	}

	response.OK(c, nil)
}

// Trace handles POST /v1/l/traces: a single trace, run through the exact
// same validation/enqueue path as Batch (spec.md supplemented feature:
// debug-route validation parity).
func (h *Ingest) Trace(c *gin.Context) {
	var body dto.TraceIngest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, apperrors.NewBadRequest("invalid trace payload: "+err.Error()))
		return
	}
	trace, err := body.ToDomain(h.projectID)
	if err != nil {
		response.Error(c, apperrors.NewBadRequest(err.Error()))
		return
	}
	if err := h.pipeline.EnqueueTrace(trace); err != nil {
		h.respondEnqueueError(c, err)
		return
	}
	response.OK(c, nil)
}

// Observation handles POST /v1/l/observations: a single observation, run
// through the exact same validation/enqueue path as Batch.
func (h *Ingest) Observation(c *gin.Context) {
	var body dto.ObservationIngest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, apperrors.NewBadRequest("invalid observation payload: "+err.Error()))
		return
	}
	obs, err := body.ToDomain(h.projectID)
	if err != nil {
		response.Error(c, apperrors.NewBadRequest(err.Error()))
		return
	}
	if err := h.pipeline.EnqueueObservation(obs); err != nil {
		h.respondEnqueueError(c, err)
		return
	}
	response.OK(c, nil)
}

// MetricsBatch handles POST /v1/metrics/batch.
func (h *Ingest) MetricsBatch(c *gin.Context) {
	var body dto.MetricBatchIngest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, apperrors.NewBadRequest("invalid metrics batch payload: "+err.Error()))
		return
	}
	for _, m := range body.Metrics {
		point, err := m.ToDomain(h.projectID)
		if err != nil {
			response.Error(c, apperrors.NewBadRequest(err.Error()))
			return
		}
		if err := h.pipeline.EnqueueMetric(*point); err != nil {
			h.respondEnqueueError(c, err)
			return
		}
	}
	response.OK(c, nil)
}

// respondEnqueueError maps queue backpressure to the spec.md §4.2 status
// codes: full queue -> 429 with no Retry-After, closed queue -> 503.
func (h *Ingest) respondEnqueueError(c *gin.Context, err error) {
	switch err {
	case ingest.ErrQueueFull:
		response.Error(c, apperrors.NewTooManyRequests("ingest queue is full, retry later"))
	case ingest.ErrQueueClosed:
		response.Error(c, apperrors.NewServiceUnavailable("server is shutting down"))
	default:
		h.logger.Error("ingest: unexpected enqueue error", "error", err)
		response.Error(c, apperrors.NewInternal("unexpected ingest error", err))
	}
}
