package query

import (
	"gorm.io/gorm"

	"github.com/lipish/xtrace/internal/core/store"
)

// MetricNames returns every distinct metric name for a project in
// lexicographic order (GET /api/public/metrics/names).
func MetricNames(db *gorm.DB, projectID string) ([]string, error) {
	return store.DistinctMetricNames(db, projectID)
}
