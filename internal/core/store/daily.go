package store

import (
	"time"

	"gorm.io/gorm"
)

// DailyRollupFilter holds the GET /api/public/metrics/daily filters
// (spec.md §4.5).
type DailyRollupFilter struct {
	ProjectID     string
	TraceName     string
	UserID        string
	Tags          []string
	FromTimestamp time.Time
	ToTimestamp   time.Time
	Version       string
	Release       string
}

// TraceDayRow is one day's trace-level rollup: count and cost summed
// directly off the traces table.
type TraceDayRow struct {
	Day          time.Time `gorm:"column:day"`
	CountTraces  int64     `gorm:"column:count_traces"`
	TotalCost    float64   `gorm:"column:total_cost"`
}

// ObservationDayModelRow is one day/model's observation-level rollup,
// joined against traces matching the same filter.
type ObservationDayModelRow struct {
	Day               time.Time `gorm:"column:day"`
	Model             *string   `gorm:"column:model"`
	CountObservations int64     `gorm:"column:count_observations"`
	CountTraces       int64     `gorm:"column:count_traces"`
	InputUsage        int64     `gorm:"column:input_usage"`
	OutputUsage       int64     `gorm:"column:output_usage"`
	TotalUsage        int64     `gorm:"column:total_usage"`
	TotalCost         float64   `gorm:"column:total_cost"`
}

// TraceDayRollup aggregates matching traces per UTC day.
func TraceDayRollup(db *gorm.DB, f DailyRollupFilter) ([]TraceDayRow, error) {
	q := applyDailyTraceFilter(db.Table("traces"), f)
	var rows []TraceDayRow
	err := q.Select("date_trunc('day', timestamp) AS day, count(*) AS count_traces, coalesce(sum(total_cost), 0) AS total_cost").
		Group("date_trunc('day', timestamp)").
		Order("day ASC").
		Scan(&rows).Error
	return rows, err
}

// ObservationDayModelRollup aggregates observations (joined to matching
// traces) per UTC day and model.
func ObservationDayModelRollup(db *gorm.DB, f DailyRollupFilter) ([]ObservationDayModelRow, error) {
	q := applyDailyTraceFilter(db.Table("traces").
		Joins("JOIN observations ON observations.trace_id = traces.id"), f)
	var rows []ObservationDayModelRow
	err := q.Select(`
			date_trunc('day', traces.timestamp) AS day,
			observations.model AS model,
			count(*) AS count_observations,
			count(distinct observations.trace_id) AS count_traces,
			coalesce(sum(observations.usage_input), 0) AS input_usage,
			coalesce(sum(observations.usage_output), 0) AS output_usage,
			coalesce(sum(observations.usage_total), 0) AS total_usage,
			coalesce(sum(observations.cost), 0) AS total_cost
		`).
		Group("date_trunc('day', traces.timestamp), observations.model").
		Order("day ASC").
		Scan(&rows).Error
	return rows, err
}

func applyDailyTraceFilter(q *gorm.DB, f DailyRollupFilter) *gorm.DB {
	q = q.Where("traces.project_id = ? AND traces.timestamp >= ? AND traces.timestamp <= ?",
		f.ProjectID, f.FromTimestamp, f.ToTimestamp)
	if f.TraceName != "" {
		q = q.Where("traces.name = ?", f.TraceName)
	}
	if f.UserID != "" {
		q = q.Where("traces.user_id = ?", f.UserID)
	}
	if f.Version != "" {
		q = q.Where("traces.version = ?", f.Version)
	}
	if f.Release != "" {
		q = q.Where("traces.release = ?", f.Release)
	}
	if len(f.Tags) > 0 {
		q = q.Where("traces.tags @> ?", pqArray(f.Tags))
	}
	return q
}
