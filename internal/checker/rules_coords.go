package checker

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gridmeta/cfcheck/internal/dataset"
	"github.com/gridmeta/cfcheck/internal/formulaterms"
	"github.com/gridmeta/cfcheck/internal/units"
)

var latitudeUnits = map[string]bool{
	"degrees_north": true, "degree_north": true,
	"degrees_N": true, "degree_N": true,
	"degreesN": true, "degreeN": true,
}

var longitudeUnits = map[string]bool{
	"degrees_east": true, "degree_east": true,
	"degrees_E": true, "degree_E": true,
	"degreesE": true, "degreeE": true,
}

// checkLatitude verifies latitude coordinates carry a recognized
// degrees_north spelling (CF 4.1).
func checkLatitude(_ Context, ds dataset.Dataset) []Result {
	return checkGeoCoordinate(ds, "latitude", "Y", latitudeUnits, "degrees_north", "§4.1 Latitude Coordinate")
}

// checkLongitude verifies longitude coordinates carry a recognized
// degrees_east spelling (CF 4.2).
func checkLongitude(_ Context, ds dataset.Dataset) []Result {
	return checkGeoCoordinate(ds, "longitude", "X", longitudeUnits, "degrees_east", "§4.2 Longitude Coordinate")
}

func checkGeoCoordinate(ds dataset.Dataset, stdName, axis string, allowed map[string]bool, canonical, section string) []Result {
	var results []Result
	for _, v := range ds.Variables() {
		sn, _ := dataset.AttrString(v.Attr("standard_name"))
		ax, _ := dataset.AttrString(v.Attr("axis"))
		if sn != stdName && ax != axis {
			continue
		}
		u, ok := dataset.AttrString(v.Attr("units"))
		if !ok {
			results = append(results, Fail(section,
				fmt.Sprintf("%s variable %s must define a units attribute", stdName, v.Name())))
			continue
		}
		results = append(results, Bool(section, allowed[u],
			fmt.Sprintf("%s variable %s should define units %s, got %q", stdName, v.Name(), canonical, u)))
	}
	return results
}

// isTimeVariable mirrors the CF convention: a variable is the time
// coordinate if it is named time, carries standard_name time, or axis T.
func isTimeVariable(v dataset.Variable) bool {
	if v.Name() == "time" {
		return true
	}
	if sn, _ := dataset.AttrString(v.Attr("standard_name")); sn == "time" {
		return true
	}
	if ax, _ := dataset.AttrString(v.Attr("axis")); ax == "T" {
		return true
	}
	return false
}

// checkTimeCoordinate verifies time coordinates carry a valid
// reference-time units attribute (CF 4.4).
func checkTimeCoordinate(_ Context, ds dataset.Dataset) []Result {
	var results []Result
	for _, v := range ds.Variables() {
		if !isTimeVariable(v) {
			continue
		}
		u, ok := dataset.AttrString(v.Attr("units"))
		if !ok {
			results = append(results, Fail("§4.4 Time Coordinate",
				fmt.Sprintf("time coordinate variable %s must define a units attribute", v.Name())))
			continue
		}
		results = append(results, Bool("§4.4 Time Coordinate", units.Temporal(u),
			fmt.Sprintf("units %q for time coordinate variable %s are not a valid reference-time unit (\"<unit> since <date>\")",
				u, v.Name())))
	}
	return results
}

// checkDimensionlessVertical verifies dimensionless vertical coordinates
// carry a formula_terms attribute whose term keywords exactly match one of
// the Appendix D alternatives and whose variables all exist (CF 4.3.2).
func checkDimensionlessVertical(_ Context, ds dataset.Dataset) []Result {
	var results []Result
	for _, v := range ds.Variables() {
		sn, ok := dataset.AttrString(v.Attr("standard_name"))
		if !ok || !formulaterms.IsDimensionlessCoordinate(sn) {
			continue
		}

		attr, ok := dataset.AttrString(v.Attr("formula_terms"))
		if !ok {
			results = append(results, Ratio("§4.3 Vertical Coordinate", 0, 3,
				fmt.Sprintf("variable %s with standard_name %s must define a formula_terms attribute", v.Name(), sn)))
			continue
		}

		scored, possible := 1, 3
		var msgs []string
		terms := formulaterms.Parse(attr)
		if formulaterms.RequiredTermsSatisfied(sn, terms) {
			scored++
		} else {
			msgs = append(msgs, fmt.Sprintf("formula_terms for variable %s do not match the terms required by %s (got: %s)",
				v.Name(), sn, termKeywords(terms)))
		}

		missing := 0
		for _, varName := range terms {
			if _, found := ds.Variable(varName); !found {
				missing++
				msgs = append(msgs, fmt.Sprintf("formula_terms variable %s referenced by %s is not present in dataset variables",
					varName, v.Name()))
			}
		}
		if missing == 0 {
			scored++
		}
		results = append(results, Ratio("§4.3 Vertical Coordinate", scored, possible, msgs...))
	}
	return results
}

func termKeywords(terms map[string]string) string {
	keys := make([]string, 0, len(terms))
	for k := range terms {
		keys = append(keys, k)
	}
	// Deterministic message content regardless of map order.
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}
