package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lipish/xtrace/internal/core/domain"
)

func newMetricTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.MetricPoint{}))
	return db
}

func TestDistinctMetricNames_ReturnsSortedUniqueNames(t *testing.T) {
	db := newMetricTestDB(t)
	for _, n := range []string{"b_metric", "a_metric", "b_metric"} {
		require.NoError(t, db.Create(&domain.MetricPoint{ProjectID: "default", Name: n, Value: 1, Timestamp: time.Now()}).Error)
	}

	names, err := DistinctMetricNames(db, "default")
	require.NoError(t, err)
	assert.Equal(t, []string{"a_metric", "b_metric"}, names)
}

func TestRawMetricPoints_OrdersByTimestampThenID(t *testing.T) {
	db := newMetricTestDB(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&domain.MetricPoint{ProjectID: "default", Name: "x", Value: 2, Timestamp: base}).Error)
	require.NoError(t, db.Create(&domain.MetricPoint{ProjectID: "default", Name: "x", Value: 1, Timestamp: base}).Error)

	points, err := RawMetricPoints(db, MetricPointFilter{
		ProjectID: "default",
		Name:      "x",
		From:      base.Add(-time.Hour),
		To:        base.Add(time.Hour),
	})
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, 2.0, points[0].Value)
	assert.Equal(t, 1.0, points[1].Value)
}

func TestRawMetricPoints_FiltersByProjectAndName(t *testing.T) {
	db := newMetricTestDB(t)
	now := time.Now()
	require.NoError(t, db.Create(&domain.MetricPoint{ProjectID: "default", Name: "x", Value: 1, Timestamp: now}).Error)
	require.NoError(t, db.Create(&domain.MetricPoint{ProjectID: "default", Name: "y", Value: 1, Timestamp: now}).Error)
	require.NoError(t, db.Create(&domain.MetricPoint{ProjectID: "other", Name: "x", Value: 1, Timestamp: now}).Error)

	points, err := RawMetricPoints(db, MetricPointFilter{
		ProjectID: "default",
		Name:      "x",
		From:      now.Add(-time.Hour),
		To:        now.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Len(t, points, 1)
}
