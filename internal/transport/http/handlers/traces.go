package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/lipish/xtrace/internal/core/store"
	"github.com/lipish/xtrace/internal/query"
	"github.com/lipish/xtrace/pkg/apperrors"
	"github.com/lipish/xtrace/pkg/id"
	"github.com/lipish/xtrace/pkg/pagination"
	"github.com/lipish/xtrace/pkg/response"
)

var traceOrderFields = []string{"timestamp", "latency", "totalCost"}

// Traces holds the trace read handlers (spec.md §4.5).
type Traces struct {
	db        *gorm.DB
	projectID string
}

// NewTraces constructs the trace read handler set.
func NewTraces(db *gorm.DB, defaultProjectID string) *Traces {
	return &Traces{db: db, projectID: defaultProjectID}
}

// List handles GET /api/public/traces.
func (h *Traces) List(c *gin.Context) {
	var params pagination.Params
	if v := c.Query("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			response.Error(c, apperrors.NewBadRequest("page must be an integer"))
			return
		}
		params.Page = n
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			response.Error(c, apperrors.NewBadRequest("limit must be an integer"))
			return
		}
		params.Limit = n
	}
	params.SetDefaults()
	if err := params.Validate(); err != nil {
		response.Error(c, apperrors.NewBadRequest(err.Error()))
		return
	}

	field, desc, err := pagination.ParseOrderBy(c.Query("orderBy"), traceOrderFields, "timestamp", true)
	if err != nil {
		response.Error(c, apperrors.NewBadRequest(err.Error()))
		return
	}

	filter := store.TraceFilter{
		ProjectID:    h.projectID,
		UserID:       c.Query("userId"),
		Name:         c.Query("name"),
		SessionID:    c.Query("sessionId"),
		Version:      c.Query("version"),
		Release:      c.Query("release"),
		OrderByField: field,
		OrderByDesc:  desc,
		Page:         params.Page,
		Limit:        params.Limit,
	}
	if v := c.Query("tags"); v != "" {
		filter.Tags = strings.Split(v, ",")
	}
	if v := c.QueryArray("environment"); len(v) > 0 {
		filter.Environments = v
	}
	if v := c.Query("fromTimestamp"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			response.Error(c, apperrors.NewBadRequest("fromTimestamp must be ISO-8601"))
			return
		}
		filter.FromTimestamp = &t
	}
	if v := c.Query("toTimestamp"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			response.Error(c, apperrors.NewBadRequest("toTimestamp must be ISO-8601"))
			return
		}
		filter.ToTimestamp = &t
	}

	fields := parseTraceFields(c.Query("fields"))

	result, err := query.ListTraces(h.db, filter, fields)
	if err != nil {
		response.Error(c, apperrors.NewInternal("failed to list traces", err))
		return
	}

	meta := &response.Meta{
		Page:       params.Page,
		Limit:      params.Limit,
		TotalItems: result.TotalItems,
		TotalPages: params.TotalPages(result.TotalItems),
	}
	response.OKWithMeta(c, result.Traces, meta)
}

// Get handles GET /api/public/traces/{id}.
func (h *Traces) Get(c *gin.Context) {
	traceID, err := id.FromHex(c.Param("id"))
	if err != nil {
		response.Error(c, apperrors.NewBadRequest("invalid trace id"))
		return
	}

	view, err := query.GetTrace(h.db, h.projectID, traceID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			response.Error(c, apperrors.NewNotFound("trace not found"))
			return
		}
		response.Error(c, apperrors.NewInternal("failed to load trace", err))
		return
	}
	response.OK(c, view)
}

func parseTraceFields(raw string) query.TraceFields {
	if raw == "" {
		return query.TraceFields{IO: true, Scores: true, Observations: true, Metrics: true}
	}
	var f query.TraceFields
	for _, part := range strings.Split(raw, ",") {
		switch strings.TrimSpace(part) {
		case "io":
			f.IO = true
		case "scores":
			f.Scores = true
		case "observations":
			f.Observations = true
		case "metrics":
			f.Metrics = true
		}
	}
	return f
}
