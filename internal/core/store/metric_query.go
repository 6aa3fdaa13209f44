package store

import (
	"time"

	"gorm.io/gorm"

	"github.com/lipish/xtrace/internal/core/domain"
)

// DistinctMetricNames returns every distinct metric name for a project, in
// lexicographic order (spec.md §4.4 GET /api/public/metrics/names).
func DistinctMetricNames(db *gorm.DB, projectID string) ([]string, error) {
	var names []string
	err := db.Model(&domain.MetricPoint{}).
		Where("project_id = ?", projectID).
		Distinct("name").
		Order("name ASC").
		Pluck("name", &names).Error
	return names, err
}

// MetricPointFilter selects the raw rows the query planner buckets and
// aggregates (spec.md §4.4).
type MetricPointFilter struct {
	ProjectID string
	Name      string
	From      time.Time
	To        time.Time
	Labels    map[string]interface{}
}

// RawMetricPoints returns every point matching filter, ordered by
// timestamp then id (insertion order) so the planner's "last" aggregation
// can break timestamp ties deterministically (spec.md §4.4).
func RawMetricPoints(db *gorm.DB, f MetricPointFilter) ([]domain.MetricPoint, error) {
	q := db.Model(&domain.MetricPoint{}).
		Where("project_id = ? AND name = ? AND timestamp >= ? AND timestamp <= ?", f.ProjectID, f.Name, f.From, f.To)
	if len(f.Labels) > 0 {
		raw, err := marshalLabels(f.Labels)
		if err != nil {
			return nil, err
		}
		q = q.Where("labels @> ?", raw)
	}
	var points []domain.MetricPoint
	err := q.Order("timestamp ASC, id ASC").Find(&points).Error
	return points, err
}

func marshalLabels(labels map[string]interface{}) ([]byte, error) {
	return jsonMarshal(labels)
}
