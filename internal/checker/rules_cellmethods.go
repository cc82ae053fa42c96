package checker

import (
	"fmt"
	"strings"

	"github.com/gridmeta/cfcheck/internal/cellmethods"
	"github.com/gridmeta/cfcheck/internal/dataset"
)

// checkCellMethods parses each cell_methods attribute and scores its
// well-formedness plus the validity of every clause name (CF 7.3).
// Climatological attributes (those using within/over periods) are scored by
// checkClimatologicalStatistics instead.
func checkCellMethods(_ Context, ds dataset.Dataset) []Result {
	var results []Result
	for _, v := range ds.Variables() {
		attr, ok := dataset.AttrString(v.Attr("cell_methods"))
		if !ok || isClimatological(attr) {
			continue
		}

		parsed := cellmethods.Parse(attr)
		scored, possible := 0, 1
		var msgs []string
		if parsed.Ok() {
			scored++
		} else {
			for _, viol := range parsed.Violations {
				msgs = append(msgs, fmt.Sprintf("§7.3.3 %s for variable %s", viol, v.Name()))
			}
		}

		// Every clause name must be a dimension of the variable, a dataset
		// variable, or the special name "area".
		for _, clause := range parsed.Clauses {
			for _, name := range clause.Names {
				possible++
				if validClauseName(ds, v, name) {
					scored++
				} else {
					msgs = append(msgs, fmt.Sprintf("§7.3 %s is not a dimension or auxiliary variable for %s:cell_methods",
						name, v.Name()))
				}
			}
		}
		results = append(results, Ratio("§7.3 Cell Methods", scored, possible, msgs...))
	}
	return results
}

func validClauseName(ds dataset.Dataset, v dataset.Variable, name string) bool {
	if name == "area" {
		return true
	}
	for _, d := range v.Dims() {
		if d == name {
			return true
		}
	}
	if _, ok := ds.Variable(name); ok {
		return true
	}
	if _, ok := ds.Dimension(name); ok {
		return true
	}
	return false
}

func isClimatological(attr string) bool {
	return strings.Contains(attr, " within ") || strings.Contains(attr, " over ")
}

// checkClimatologicalStatistics validates the restricted climatological
// cell_methods grammar and the climatology bounds reference (CF 7.4).
func checkClimatologicalStatistics(_ Context, ds dataset.Dataset) []Result {
	var results []Result

	for _, v := range ds.Variables() {
		// A time coordinate with a climatology attribute must reference an
		// existing bounds variable.
		if isTimeVariable(v) {
			if bounds, ok := dataset.AttrString(v.Attr("climatology")); ok {
				_, found := ds.Variable(bounds)
				results = append(results, Bool("§7.4 Climatological Statistics", found,
					fmt.Sprintf("climatology variable %s referred to by %s is not present in dataset variables",
						bounds, v.Name())))
			}
			continue
		}

		attr, ok := dataset.AttrString(v.Attr("cell_methods"))
		if !ok || !isClimatological(attr) {
			continue
		}
		parsed := cellmethods.ParseClimatology(attr)
		if parsed.Ok() {
			results = append(results, Pass("§7.4 Climatological Statistics"))
			continue
		}
		msgs := make([]string, 0, len(parsed.Violations))
		for _, viol := range parsed.Violations {
			msgs = append(msgs, fmt.Sprintf("§7.4 %s for variable %s", viol, v.Name()))
		}
		results = append(results, Ratio("§7.4 Climatological Statistics", 0, 1, msgs...))
	}
	return results
}
