package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lipish/xtrace/internal/core/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.MetricPoint{}))
	return db
}

func TestQueryMetrics_BucketAlignment(t *testing.T) {
	db := newTestDB(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	// 120 points, one per minute across two hours, falling into 24
	// five-minute buckets, matching the §8 seeded scenario.
	for i := 0; i < 120; i++ {
		require.NoError(t, db.Create(&domain.MetricPoint{
			ProjectID: "default",
			Name:      "latency_ms",
			Value:     float64(i),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}).Error)
	}

	result, err := QueryMetrics(db, MetricQueryParams{
		ProjectID: "default",
		Name:      "latency_ms",
		From:      base,
		To:        base.Add(2 * time.Hour),
		Step:      Step5m,
		Agg:       AggLast,
	})
	require.NoError(t, err)
	require.Len(t, result.Series, 1)
	assert.Len(t, result.Series[0].Points, 24)
	require.NotNil(t, result.LatestTS)

	for _, pt := range result.Series[0].Points {
		assert.Equal(t, int64(0), pt.Timestamp.Unix()%300, "bucket must align to floor(epoch/step)*step")
	}
}

func TestQueryMetrics_EmptyResultHasNoLatestTS(t *testing.T) {
	db := newTestDB(t)
	now := time.Now().UTC()

	result, err := QueryMetrics(db, MetricQueryParams{
		ProjectID: "default",
		Name:      "unmatched_metric",
		From:      now.Add(-time.Hour),
		To:        now,
		Step:      Step1m,
		Agg:       AggAvg,
	})
	require.NoError(t, err)
	assert.Empty(t, result.Series)
	assert.Nil(t, result.LatestTS)
	assert.Equal(t, 0, result.SeriesCount)
}

func TestQueryMetrics_FromAfterToIsError(t *testing.T) {
	db := newTestDB(t)
	now := time.Now().UTC()
	_, err := QueryMetrics(db, MetricQueryParams{
		ProjectID: "default",
		Name:      "x",
		From:      now,
		To:        now.Add(-time.Hour),
	})
	assert.Error(t, err)
}

func TestPercentileMonotonicity(t *testing.T) {
	rows := make([]domain.MetricPoint, 0, 100)
	for i := 1; i <= 100; i++ {
		rows = append(rows, domain.MetricPoint{Value: float64(i)})
	}

	p50 := percentile(rows, 0.50)
	p90 := percentile(rows, 0.90)
	p99 := percentile(rows, 0.99)
	max := aggregate(rows, AggMax)
	min := aggregate(rows, AggMin)
	avg := aggregate(rows, AggAvg)

	assert.LessOrEqual(t, p50, p90)
	assert.LessOrEqual(t, p90, p99)
	assert.LessOrEqual(t, p99, max)
	assert.LessOrEqual(t, min, avg)
	assert.LessOrEqual(t, avg, max)
}

func TestQueryMetrics_CapsSeriesAndTruncates(t *testing.T) {
	db := newTestDB(t)
	now := time.Now().UTC()

	for i := 0; i < 60; i++ {
		require.NoError(t, db.Create(&domain.MetricPoint{
			ProjectID: "default",
			Name:      "per_user_latency",
			Value:     1,
			Timestamp: now,
			Labels:    []byte(`{"user":"` + string(rune('a'+i%60)) + `"}`),
		}).Error)
	}

	result, err := QueryMetrics(db, MetricQueryParams{
		ProjectID: "default",
		Name:      "per_user_latency",
		From:      now.Add(-time.Minute),
		To:        now.Add(time.Minute),
		Step:      Step1m,
		Agg:       AggAvg,
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(result.Series), maxSeries)
	assert.True(t, result.Truncated)
}

func TestQueryMetrics_GroupByAbsentLabelFormsOwnSeries(t *testing.T) {
	db := newTestDB(t)
	now := time.Now().UTC()

	require.NoError(t, db.Create(&domain.MetricPoint{
		ProjectID: "default", Name: "x", Value: 1, Timestamp: now,
		Labels: []byte(`{"region":"us"}`),
	}).Error)
	require.NoError(t, db.Create(&domain.MetricPoint{
		ProjectID: "default", Name: "x", Value: 2, Timestamp: now,
	}).Error)

	result, err := QueryMetrics(db, MetricQueryParams{
		ProjectID: "default",
		Name:      "x",
		From:      now.Add(-time.Minute),
		To:        now.Add(time.Minute),
		Step:      Step1m,
		Agg:       AggSum,
		GroupBy:   "region",
	})
	require.NoError(t, err)
	assert.Len(t, result.Series, 2)
}
