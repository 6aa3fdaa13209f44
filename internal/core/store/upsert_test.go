package store

import (
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/lipish/xtrace/internal/core/domain"
	"github.com/lipish/xtrace/pkg/id"
)

// newMockDB wires gorm's Postgres dialector onto a sqlmock connection, so
// the raw COALESCE/ON CONFLICT SQL in upsert.go can be exercised without a
// live database (sqlite doesn't support ON CONFLICT DO UPDATE ... EXCLUDED
// or the text[] containment operator these queries rely on).
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       db,
		DriverName: "postgres",
	}), &gorm.Config{})
	require.NoError(t, err)
	return gdb, mock
}

func TestUpsertTraces_UsesNonNullOverwriteCoalesce(t *testing.T) {
	gdb, mock := newMockDB(t)
	mock.ExpectExec(`INSERT INTO traces .* ON CONFLICT \(id\) DO UPDATE SET.*COALESCE\(EXCLUDED\.name, traces\.name\)`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	name := "checkout"
	tr := domain.Trace{ID: id.New(), ProjectID: "default", Timestamp: time.Now(), Name: &name}
	err := UpsertTraces(gdb, []domain.Trace{tr})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertTraces_EmptyBatchIsNoop(t *testing.T) {
	gdb, mock := newMockDB(t)
	err := UpsertTraces(gdb, nil)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertObservations_RetriesWithPlaceholderOnForeignKeyViolation(t *testing.T) {
	gdb, mock := newMockDB(t)

	fkErr := errors.New(`pq: insert or update on table "observations" violates foreign key constraint "fk_observations_trace_id"`)
	mock.ExpectExec(`INSERT INTO observations`).WillReturnError(fkErr)
	mock.ExpectExec(`INSERT INTO traces .* ON CONFLICT \(id\) DO NOTHING`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO observations`).WillReturnResult(sqlmock.NewResult(1, 1))

	obs := domain.Observation{
		ID:        id.New(),
		TraceID:   id.New(),
		ProjectID: "default",
		Type:      domain.ObservationSpan,
		StartTime: time.Now(),
	}
	err := UpsertObservations(gdb, []domain.Observation{obs})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertObservations_NonForeignKeyErrorIsNotRetried(t *testing.T) {
	gdb, mock := newMockDB(t)

	otherErr := errors.New("connection reset by peer")
	mock.ExpectExec(`INSERT INTO observations`).WillReturnError(otherErr)

	obs := domain.Observation{ID: id.New(), TraceID: id.New(), ProjectID: "default", Type: domain.ObservationSpan, StartTime: time.Now()}
	err := UpsertObservations(gdb, []domain.Observation{obs})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListTraces_TagsFilterUsesContainmentOperator(t *testing.T) {
	gdb, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT count\(.*\) FROM "traces" WHERE project_id = \$1 AND tags @> \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT \* FROM "traces" WHERE project_id = \$1 AND tags @> \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	traces, total, err := ListTraces(gdb, TraceFilter{
		ProjectID: "default",
		Tags:      []string{"production"},
		Page:      1,
		Limit:     10,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
	assert.Empty(t, traces)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTraceDayRollup_GroupsByUTCDay(t *testing.T) {
	gdb, mock := newMockDB(t)
	day := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`date_trunc\('day', timestamp\)`).
		WillReturnRows(sqlmock.NewRows([]string{"day", "count_traces", "total_cost"}).
			AddRow(day, int64(3), 1.25))

	rows, err := TraceDayRollup(gdb, DailyRollupFilter{
		ProjectID:     "default",
		FromTimestamp: day,
		ToTimestamp:   day.Add(24 * time.Hour),
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.EqualValues(t, 3, rows[0].CountTraces)
	assert.Equal(t, 1.25, rows[0].TotalCost)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestObservationDayModelRollup_ReportsDistinctTraceCountPerModel(t *testing.T) {
	gdb, mock := newMockDB(t)
	day := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	model := "gpt-4o"
	mock.ExpectQuery(`date_trunc\('day', traces\.timestamp\)`).
		WillReturnRows(sqlmock.NewRows([]string{"day", "model", "count_observations", "count_traces", "input_usage", "output_usage", "total_usage", "total_cost"}).
			AddRow(day, model, int64(5), int64(2), int64(100), int64(50), int64(150), 0.75))

	rows, err := ObservationDayModelRollup(gdb, DailyRollupFilter{
		ProjectID:     "default",
		FromTimestamp: day,
		ToTimestamp:   day.Add(24 * time.Hour),
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.EqualValues(t, 5, rows[0].CountObservations)
	assert.EqualValues(t, 2, rows[0].CountTraces)
	require.NoError(t, mock.ExpectationsWereMet())
}
