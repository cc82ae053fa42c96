package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_GetRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, dataset, ruleset, table_version, scored, possible, report, created_at`).
		WithArgs("nonexistent-run").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetRun(context.Background(), "nonexistent-run")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	report := []byte(`{"dataset":"ocean.yaml","ruleset":"cf","table_version":"78","checked_at":"2026-01-01T00:00:00Z","summary":{"scored":4,"possible":5}}`)
	mock.ExpectQuery(`SELECT id, dataset, ruleset, table_version, scored, possible, report, created_at`).
		WithArgs("run-1").
		WillReturnRows(pgxmock.NewRows(
			[]string{"id", "dataset", "ruleset", "table_version", "scored", "possible", "report", "created_at"}).
			AddRow("run-1", "ocean.yaml", "cf", "78", 4, 5, report, time.Now().UTC()))

	run, err := s.GetRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "ocean.yaml", run.Dataset)
	assert.Equal(t, 4, run.Scored)
	require.NotNil(t, run.Report)
	assert.Equal(t, 5, run.Report.Summary.Possible)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveReport(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO runs`).
		WithArgs(pgxmock.AnyArg(), "ocean.yaml", "cf", "78", 1, 2, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	run, err := s.SaveReport(context.Background(), sampleReport("ocean.yaml"))
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, "ocean.yaml", run.Dataset)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListRuns(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	report := []byte(`{"dataset":"a.yaml","ruleset":"cf","table_version":"78","checked_at":"2026-01-01T00:00:00Z","summary":{"scored":2,"possible":2}}`)
	mock.ExpectQuery(`SELECT id, dataset, ruleset, table_version, scored, possible, report, created_at`).
		WithArgs("a.yaml", 100).
		WillReturnRows(pgxmock.NewRows(
			[]string{"id", "dataset", "ruleset", "table_version", "scored", "possible", "report", "created_at"}).
			AddRow("run-1", "a.yaml", "cf", "78", 2, 2, report, time.Now().UTC()))

	runs, err := s.ListRuns(context.Background(), RunFilter{Dataset: "a.yaml"})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS runs`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
