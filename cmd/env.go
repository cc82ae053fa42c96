package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/gridmeta/cfcheck/internal/checker"
	"github.com/gridmeta/cfcheck/internal/stdnames"
	"github.com/gridmeta/cfcheck/internal/store"
)

// initStore opens and migrates the configured run-history store. Callers
// should defer Close.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// loadTable fetches the configured standard-name table version, hitting the
// disk cache when possible.
func loadTable(ctx context.Context) (*stdnames.Table, error) {
	f := stdnames.NewFetcher(cfg.Table.CacheDir, stdnames.FetcherOptions{
		BaseURL: cfg.Table.BaseURL,
	})
	return f.Fetch(ctx, cfg.Table.Version)
}

// initSuite builds the full CF rule suite over the configured table.
func initSuite(ctx context.Context) (*checker.Suite, error) {
	table, err := loadTable(ctx)
	if err != nil {
		return nil, err
	}
	return checker.NewSuite(table), nil
}
