package store

import (
	"time"

	"gorm.io/gorm"

	"github.com/lipish/xtrace/internal/core/domain"
	"github.com/lipish/xtrace/pkg/id"
)

// TraceFilter holds the GET /api/public/traces query filters (spec.md
// §4.5). Zero-valued fields are not applied.
type TraceFilter struct {
	ProjectID       string
	UserID          string
	Name            string
	SessionID       string
	FromTimestamp   *time.Time
	ToTimestamp     *time.Time
	Tags            []string
	Version         string
	Release         string
	Environments    []string
	OrderByField    string
	OrderByDesc     bool
	Page            int
	Limit           int
}

// ListTraces returns the page of traces matching filter and the total
// matching row count (for meta.totalItems/totalPages).
func ListTraces(db *gorm.DB, f TraceFilter) ([]domain.Trace, int64, error) {
	q := applyTraceFilter(db.Model(&domain.Trace{}), f)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderCol := traceOrderColumn(f.OrderByField)
	dir := "ASC"
	if f.OrderByDesc {
		dir = "DESC"
	}

	offset := (f.Page - 1) * f.Limit
	var traces []domain.Trace
	err := applyTraceFilter(db.Model(&domain.Trace{}), f).
		Order(orderCol + " " + dir).
		Offset(offset).
		Limit(f.Limit).
		Find(&traces).Error
	if err != nil {
		return nil, 0, err
	}
	return traces, total, nil
}

func traceOrderColumn(field string) string {
	switch field {
	case "latency":
		return "latency"
	case "totalCost":
		return "total_cost"
	default:
		return "timestamp"
	}
}

func applyTraceFilter(q *gorm.DB, f TraceFilter) *gorm.DB {
	q = q.Where("project_id = ?", f.ProjectID)
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Name != "" {
		q = q.Where("name = ?", f.Name)
	}
	if f.SessionID != "" {
		q = q.Where("session_id = ?", f.SessionID)
	}
	if f.FromTimestamp != nil {
		q = q.Where("timestamp >= ?", *f.FromTimestamp)
	}
	if f.ToTimestamp != nil {
		q = q.Where("timestamp <= ?", *f.ToTimestamp)
	}
	if f.Version != "" {
		q = q.Where("version = ?", f.Version)
	}
	if f.Release != "" {
		q = q.Where("release = ?", f.Release)
	}
	if len(f.Environments) > 0 {
		q = q.Where("environment IN ?", f.Environments)
	}
	if len(f.Tags) > 0 {
		q = q.Where("tags @> ?", pqArray(f.Tags))
	}
	return q
}

// GetTraceByID loads a trace with its observations sorted by start_time
// asc (spec.md §4.5). Returns gorm.ErrRecordNotFound if absent.
func GetTraceByID(db *gorm.DB, projectID string, traceID id.ID) (*domain.Trace, error) {
	var t domain.Trace
	err := db.Where("project_id = ? AND id = ?", projectID, traceID).First(&t).Error
	if err != nil {
		return nil, err
	}
	var obs []domain.Observation
	err = db.Where("trace_id = ?", traceID).Order("start_time ASC").Find(&obs).Error
	if err != nil {
		return nil, err
	}
	t.Observations = obs
	return &t, nil
}
