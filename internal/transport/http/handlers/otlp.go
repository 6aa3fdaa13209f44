package handlers

import (
	"io"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/lipish/xtrace/internal/ingest"
	"github.com/lipish/xtrace/internal/otlp"
	"github.com/lipish/xtrace/pkg/apperrors"
	"github.com/lipish/xtrace/pkg/response"
)

// OTLP handles POST /api/public/otel/v1/traces (spec.md §4.3).
type OTLP struct {
	pipeline    *ingest.Pipeline
	projectID   string
	environment string
	logger      *slog.Logger
}

// NewOTLP constructs the OTLP handler.
func NewOTLP(pipeline *ingest.Pipeline, defaultProjectID, defaultEnvironment string, logger *slog.Logger) *OTLP {
	return &OTLP{pipeline: pipeline, projectID: defaultProjectID, environment: defaultEnvironment, logger: logger}
}

// Traces decodes an OTLP/HTTP export request and enqueues the resulting
// traces and observations. A malformed body is 400 BAD_REQUEST; queue
// backpressure maps the same as the native ingest routes.
func (h *OTLP) Traces(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Error(c, apperrors.NewBadRequest("failed to read request body"))
		return
	}

	req, err := otlp.DecodeRequest(c.GetHeader("Content-Type"), c.GetHeader("Content-Encoding"), body)
	if err != nil {
		response.Error(c, apperrors.NewBadRequest(err.Error()))
		return
	}

	converted, err := otlp.Convert(req, h.projectID, h.environment)
	if err != nil {
		response.Error(c, apperrors.NewBadRequest(err.Error()))
		return
	}

	for _, t := range converted.Traces {
		if err := h.pipeline.EnqueueTrace(t); err != nil {
			respondOTLPEnqueueError(c, h.logger, err)
			return
		}
	}
	for _, o := range converted.Observations {
		if err := h.pipeline.EnqueueObservation(o); err != nil {
			respondOTLPEnqueueError(c, h.logger, err)
			return
		}
	}

	response.OK(c, nil)
}

func respondOTLPEnqueueError(c *gin.Context, logger *slog.Logger, err error) {
	switch err {
	case ingest.ErrQueueFull:
		response.Error(c, apperrors.NewTooManyRequests("ingest queue is full, retry later"))
	case ingest.ErrQueueClosed:
		response.Error(c, apperrors.NewServiceUnavailable("server is shutting down"))
	default:
		logger.Error("otlp: unexpected enqueue error", "error", err)
		response.Error(c, apperrors.NewInternal("unexpected ingest error", err))
	}
}
