package domain

import (
	"math"
	"time"

	"gorm.io/datatypes"
)

// MetricPoint is a single timestamped measurement (spec.md §3). Rows are
// append-only; id is a synthetic auto-incrementing row id, not part of
// any upsert key.
type MetricPoint struct {
	ID          int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	ProjectID   string         `gorm:"size:255;not null;index:idx_metrics_project_name_ts" json:"projectId"`
	Environment string         `gorm:"size:255;not null;default:default" json:"environment"`
	Name        string         `gorm:"size:255;not null;index:idx_metrics_project_name_ts" json:"name"`
	Labels      datatypes.JSON `json:"labels,omitempty"`
	Value       float64        `gorm:"not null" json:"value"`
	Timestamp   time.Time      `gorm:"not null;index:idx_metrics_project_name_ts;index:idx_metrics_ts" json:"timestamp"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"createdAt"`
}

func (MetricPoint) TableName() string { return "metrics" }

// Validate enforces spec.md §3: name must be non-empty, value must be
// finite. No range validation is applied to the value itself — ratios
// outside [0,1] or negative durations are retained as written (spec.md §9).
func (m *MetricPoint) Validate() error {
	if m.Name == "" {
		return errRequired("name")
	}
	if math.IsNaN(m.Value) || math.IsInf(m.Value, 0) {
		return errInvalid("value", "must be finite")
	}
	if m.Environment == "" {
		m.Environment = "default"
	}
	return nil
}
