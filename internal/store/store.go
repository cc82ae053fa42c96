// Package store persists completed check runs so past compliance scores can
// be listed and retrieved. SQLite backs the single-user CLI; Postgres backs
// shared deployments of the check server.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/gridmeta/cfcheck/internal/checker"
)

// ErrNotFound marks a lookup for a run ID that does not exist.
var ErrNotFound = eris.New("store: run not found")

// Run is one persisted check run: the identifying metadata, the aggregate
// score, and the full report.
type Run struct {
	ID           string          `json:"id"`
	Dataset      string          `json:"dataset"`
	Ruleset      string          `json:"ruleset"`
	TableVersion string          `json:"table_version"`
	Scored       int             `json:"scored"`
	Possible     int             `json:"possible"`
	Report       *checker.Report `json:"report,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Dataset string `json:"dataset,omitempty"`
	Ruleset string `json:"ruleset,omitempty"`
	Limit   int    `json:"limit,omitempty"`
	Offset  int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for check runs.
type Store interface {
	SaveReport(ctx context.Context, rep *checker.Report) (*Run, error)
	GetRun(ctx context.Context, runID string) (*Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]Run, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open constructs a Store for the configured driver.
func Open(ctx context.Context, driver, databaseURL string) (Store, error) {
	switch driver {
	case "sqlite":
		return NewSQLite(databaseURL)
	case "postgres":
		return NewPostgres(ctx, databaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}
