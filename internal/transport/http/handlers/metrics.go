package handlers

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/lipish/xtrace/internal/core/store"
	"github.com/lipish/xtrace/internal/query"
	"github.com/lipish/xtrace/pkg/apperrors"
	"github.com/lipish/xtrace/pkg/response"
)

// Metrics holds the metrics read handlers (spec.md §4.4, §4.5).
type Metrics struct {
	db        *gorm.DB
	projectID string
}

// NewMetrics constructs the metrics read handler set.
func NewMetrics(db *gorm.DB, defaultProjectID string) *Metrics {
	return &Metrics{db: db, projectID: defaultProjectID}
}

// Names handles GET /api/public/metrics/names.
func (h *Metrics) Names(c *gin.Context) {
	names, err := query.MetricNames(h.db, h.projectID)
	if err != nil {
		response.Error(c, apperrors.NewInternal("failed to list metric names", err))
		return
	}
	response.OK(c, names)
}

// Query handles GET /api/public/metrics/query.
func (h *Metrics) Query(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		response.Error(c, apperrors.NewBadRequest("name is required"))
		return
	}

	now := time.Now().UTC()
	from := now.Add(-time.Hour)
	to := now
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			response.Error(c, apperrors.NewBadRequest("from must be ISO-8601"))
			return
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			response.Error(c, apperrors.NewBadRequest("to must be ISO-8601"))
			return
		}
		to = t
	}
	if from.After(to) {
		response.Error(c, apperrors.NewBadRequest("from must not be after to"))
		return
	}

	var labels map[string]interface{}
	if v := c.Query("labels"); v != "" {
		if err := json.Unmarshal([]byte(v), &labels); err != nil {
			response.Error(c, apperrors.NewBadRequest("labels must be a JSON object"))
			return
		}
	}

	step, err := query.ParseStep(c.Query("step"))
	if err != nil {
		response.Error(c, apperrors.NewBadRequest(err.Error()))
		return
	}
	agg, err := query.ParseAgg(c.Query("agg"))
	if err != nil {
		response.Error(c, apperrors.NewBadRequest(err.Error()))
		return
	}

	result, err := query.QueryMetrics(h.db, query.MetricQueryParams{
		ProjectID: h.projectID,
		Name:      name,
		From:      from,
		To:        to,
		Labels:    labels,
		Step:      step,
		Agg:       agg,
		GroupBy:   c.Query("group_by"),
	})
	if err != nil {
		response.Error(c, apperrors.NewInternal("failed to query metrics", err))
		return
	}

	meta := &response.Meta{
		SeriesCount: &result.SeriesCount,
		Truncated:   &result.Truncated,
	}
	if result.LatestTS != nil {
		s := result.LatestTS.Format(time.RFC3339)
		meta.LatestTS = &s
	}

	data := result.Series
	if data == nil {
		data = []query.Series{}
	}
	response.OKWithMeta(c, data, meta)
}

// Daily handles GET /api/public/metrics/daily.
func (h *Metrics) Daily(c *gin.Context) {
	from, to := query.DefaultDailyWindow(time.Now())
	if v := c.Query("fromTimestamp"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			response.Error(c, apperrors.NewBadRequest("fromTimestamp must be ISO-8601"))
			return
		}
		from = t
	}
	if v := c.Query("toTimestamp"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			response.Error(c, apperrors.NewBadRequest("toTimestamp must be ISO-8601"))
			return
		}
		to = t
	}

	filter := store.DailyRollupFilter{
		ProjectID:     h.projectID,
		TraceName:     c.Query("traceName"),
		UserID:        c.Query("userId"),
		Version:       c.Query("version"),
		Release:       c.Query("release"),
		FromTimestamp: from,
		ToTimestamp:   to,
	}
	if v := c.Query("tags"); v != "" {
		filter.Tags = strings.Split(v, ",")
	}

	rows, err := query.DailyMetrics(h.db, filter)
	if err != nil {
		response.Error(c, apperrors.NewInternal("failed to compute daily rollup", err))
		return
	}
	if rows == nil {
		rows = []query.DailyRow{}
	}
	response.OK(c, rows)
}
