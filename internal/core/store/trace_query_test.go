package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lipish/xtrace/internal/core/domain"
	"github.com/lipish/xtrace/pkg/id"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Trace{}, &domain.Observation{}))
	return db
}

func seedTrace(t *testing.T, db *gorm.DB, projectID string, ts time.Time, latency float64) domain.Trace {
	t.Helper()
	tr := domain.Trace{
		ID:        id.New(),
		ProjectID: projectID,
		Timestamp: ts,
		Latency:   &latency,
	}
	require.NoError(t, tr.Validate())
	require.NoError(t, db.Create(&tr).Error)
	return tr
}

func TestListTraces_FiltersByProjectAndPaginates(t *testing.T) {
	db := newTestDB(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		seedTrace(t, db, "default", base.Add(time.Duration(i)*time.Hour), float64(i))
	}
	seedTrace(t, db, "other-project", base, 99)

	traces, total, err := ListTraces(db, TraceFilter{
		ProjectID: "default",
		Page:      1,
		Limit:     2,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Len(t, traces, 2)
}

func TestListTraces_OrdersByLatencyDescending(t *testing.T) {
	db := newTestDB(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	seedTrace(t, db, "default", base, 10)
	seedTrace(t, db, "default", base.Add(time.Minute), 50)
	seedTrace(t, db, "default", base.Add(2*time.Minute), 30)

	traces, _, err := ListTraces(db, TraceFilter{
		ProjectID:    "default",
		Page:         1,
		Limit:        10,
		OrderByField: "latency",
		OrderByDesc:  true,
	})
	require.NoError(t, err)
	require.Len(t, traces, 3)
	assert.Equal(t, 50.0, *traces[0].Latency)
	assert.Equal(t, 30.0, *traces[1].Latency)
	assert.Equal(t, 10.0, *traces[2].Latency)
}

func TestGetTraceByID_ReturnsNotFoundForMissingTrace(t *testing.T) {
	db := newTestDB(t)
	_, err := GetTraceByID(db, "default", id.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestGetTraceByID_OrdersObservationsByStartTime(t *testing.T) {
	db := newTestDB(t)
	tr := seedTrace(t, db, "default", time.Now(), 1)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	later := domain.Observation{ID: id.New(), TraceID: tr.ID, ProjectID: "default", Type: domain.ObservationSpan, StartTime: base.Add(time.Minute)}
	earlier := domain.Observation{ID: id.New(), TraceID: tr.ID, ProjectID: "default", Type: domain.ObservationSpan, StartTime: base}
	require.NoError(t, db.Create(&later).Error)
	require.NoError(t, db.Create(&earlier).Error)

	got, err := GetTraceByID(db, "default", tr.ID)
	require.NoError(t, err)
	require.Len(t, got.Observations, 2)
	assert.Equal(t, earlier.ID, got.Observations[0].ID)
	assert.Equal(t, later.ID, got.Observations[1].ID)
}
