package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridmeta/cfcheck/internal/checker"
	"github.com/gridmeta/cfcheck/internal/stdnames"
	"github.com/gridmeta/cfcheck/internal/store"
)

const serveTestTable = `<?xml version="1.0"?>
<standard_name_table>
  <version_number>78</version_number>
  <entry id="air_temperature"><canonical_units>K</canonical_units></entry>
  <entry id="latitude"><canonical_units>degree_north</canonical_units></entry>
</standard_name_table>`

func newTestServer(t *testing.T) (http.Handler, store.Store) {
	t.Helper()

	table, err := stdnames.Parse(strings.NewReader(serveTestTable))
	require.NoError(t, err)

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "cfcheck.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(t.Context()))

	return newRouter(checker.NewSuite(table), st), st
}

func TestServeHealth(t *testing.T) {
	h, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServeCheckAndFetchRun(t *testing.T) {
	h, _ := newTestServer(t)

	body := `{
		"name": "sst_grid",
		"dimensions": [{"name": "time", "size": 4}],
		"variables": [{
			"name": "temp",
			"dtype": "double",
			"dims": ["time"],
			"attributes": {"standard_name": "air_temperature", "units": "K"}
		}],
		"attributes": {"Conventions": "CF-1.6"}
	}`

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/check", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var run store.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, "sst_grid", run.Dataset)
	assert.Positive(t, run.Possible)
	assert.Equal(t, run.Possible, run.Scored, "fully compliant dataset: %+v", run.Report)

	// The run is immediately retrievable.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs/"+run.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var fetched store.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	assert.Equal(t, run.ID, fetched.ID)
	require.NotNil(t, fetched.Report)
	assert.Equal(t, "cf", fetched.Report.Ruleset)
}

func TestServeCheckBadRequest(t *testing.T) {
	h, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/check", strings.NewReader("not json")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/check", strings.NewReader(`{"variables":[]}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "name is required")
}

func TestServeListRuns(t *testing.T) {
	h, _ := newTestServer(t)

	// Empty store lists as an empty array, not null.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	body := `{"name": "a_grid", "attributes": {"Conventions": "CF-1.6"}}`
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/check", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs?dataset=a_grid", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var runs []store.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "a_grid", runs[0].Dataset)
}

func TestServeRunNotFound(t *testing.T) {
	h, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs/does-not-exist", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
