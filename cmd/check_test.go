package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridmeta/cfcheck/internal/checker"
	"github.com/gridmeta/cfcheck/internal/dataset"
	"github.com/gridmeta/cfcheck/internal/stdnames"
	"github.com/gridmeta/cfcheck/internal/store"
)

func TestFormatReportDeductionsOnly(t *testing.T) {
	rep := &checker.Report{
		Dataset:  "ocean.yaml",
		Ruleset:  "cf",
		TableVer: "78",
		Results: []checker.Result{
			checker.Pass("§2.6.1 Global Attributes"),
			checker.Fail("§3.1 Units", "units attribute missing"),
			checker.Ratio("§3.1 Units", 1, 2, "bad units"),
		},
		Summary: checker.Summary{
			Scored:   2,
			Possible: 4,
			Messages: []string{"units attribute missing", "bad units"},
		},
	}

	var buf bytes.Buffer
	formatReport(&buf, rep, false)
	out := buf.String()

	assert.Contains(t, out, "ocean.yaml (table v78): 2/4")
	assert.Contains(t, out, "§3.1 Units")
	assert.Contains(t, out, "1/3")
	assert.Contains(t, out, "- units attribute missing")
	assert.Contains(t, out, "- bad units")
	// Full-credit sections are hidden unless verbose.
	assert.NotContains(t, out, "§2.6.1")
}

func TestFormatReportVerbose(t *testing.T) {
	rep := &checker.Report{
		Dataset:  "ocean.yaml",
		TableVer: "78",
		Results:  []checker.Result{checker.Pass("§2.6.1 Global Attributes")},
		Summary:  checker.Summary{Scored: 1, Possible: 1},
	}

	var buf bytes.Buffer
	formatReport(&buf, rep, true)
	assert.Contains(t, buf.String(), "§2.6.1 Global Attributes")
	assert.Contains(t, buf.String(), "1/1")
}

func TestGroupBySectionPreservesOrder(t *testing.T) {
	results := []checker.Result{
		checker.Pass("b"),
		checker.Fail("a", "m"),
		checker.Pass("b"),
	}

	var names []string
	for name, pair := range groupBySection(results) {
		names = append(names, name)
		if name == "b" {
			assert.Equal(t, 2, pair.scored)
			assert.Equal(t, 2, pair.possible)
		}
	}
	assert.Equal(t, []string{"b", "a"}, names)
}

func TestFormatRunsList(t *testing.T) {
	runs := []store.Run{
		{
			ID:           "0123456789abcdef",
			Dataset:      "a_very_long_dataset_name_that_keeps_going.yaml",
			TableVersion: "78",
			Scored:       9,
			Possible:     10,
			CreatedAt:    time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)
	out := buf.String()

	assert.Contains(t, out, "01234567")
	assert.NotContains(t, out, "0123456789abcdef")
	assert.Contains(t, out, "...")
	assert.Contains(t, out, "9/10")
	assert.Contains(t, out, "2026-08-01 12:00")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "short", truncateID("short"))
	assert.Equal(t, "12345678", truncateID("1234567890"))
}

func TestCheckYAMLFileEndToEnd(t *testing.T) {
	table, err := stdnames.Parse(strings.NewReader(serveTestTable))
	require.NoError(t, err)
	suite := checker.NewSuite(table)

	path := filepath.Join(t.TempDir(), "grid.yaml")
	desc := `
name: sst_grid
dimensions:
  - name: time
    size: 4
  - name: lat
    size: 18
variables:
  - name: lat
    dtype: double
    dims: [lat]
    attributes:
      standard_name: latitude
      units: degrees_north
  - name: temp
    dtype: double
    dims: [time, lat]
    attributes:
      standard_name: air_temperature
      units: degC
      _FillValue: 5.0
      valid_min: 0.0
      valid_max: 10.0
attributes:
  Conventions: CF-1.6
`
	require.NoError(t, os.WriteFile(path, []byte(desc), 0644))

	ds, err := dataset.LoadFile(path)
	require.NoError(t, err)
	rep := suite.Run(ds)

	// The in-range fill value is the only deduction.
	assert.Equal(t, rep.Summary.Possible-1, rep.Summary.Scored,
		"messages: %v", rep.Summary.Messages)

	var buf bytes.Buffer
	formatReport(&buf, rep, false)
	assert.Contains(t, buf.String(), "temp:_FillValue")
	assert.Contains(t, buf.String(), "§2.5.1 Fill Values")
}
