package stdnames

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTableServer(t *testing.T, hits *int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*hits++
		if r.URL.Path != "/78/src/cf-standard-name-table.xml" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(testTableXML))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchDownloadsAndCaches(t *testing.T) {
	hits := 0
	srv := newTableServer(t, &hits)
	cacheDir := t.TempDir()

	f := NewFetcher(cacheDir, FetcherOptions{BaseURL: srv.URL})

	tbl, err := f.Fetch(context.Background(), "78")
	require.NoError(t, err)
	assert.Equal(t, "78", tbl.Version())
	assert.Equal(t, 1, hits)

	// The cache file exists under the deterministic name.
	_, err = os.Stat(f.CachePath("78"))
	require.NoError(t, err)

	// A second fetch is served from cache with no network access.
	tbl2, err := f.Fetch(context.Background(), "78")
	require.NoError(t, err)
	assert.Equal(t, tbl.Version(), tbl2.Version())
	assert.Equal(t, 1, hits)
}

func TestFetchUnknownVersion(t *testing.T) {
	hits := 0
	srv := newTableServer(t, &hits)

	f := NewFetcher(t.TempDir(), FetcherOptions{BaseURL: srv.URL})
	_, err := f.Fetch(context.Background(), "9999")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRetrieval))
}

func TestFetchServerDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	f := NewFetcher(t.TempDir(), FetcherOptions{BaseURL: url, MaxRetries: 1})
	_, err := f.Fetch(context.Background(), "78")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRetrieval))
}

func TestDownloadToExplicitDestination(t *testing.T) {
	hits := 0
	srv := newTableServer(t, &hits)
	dest := t.TempDir() + "/sub/cf-table-78.xml"

	f := NewFetcher(t.TempDir(), FetcherOptions{BaseURL: srv.URL})
	require.NoError(t, f.Download(context.Background(), "78", dest))

	tbl, err := Load(dest)
	require.NoError(t, err)
	assert.Equal(t, "78", tbl.Version())
}
