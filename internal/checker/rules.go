package checker

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gridmeta/cfcheck/internal/dataset"
	"github.com/gridmeta/cfcheck/internal/units"
)

// cfCatalog is the registered CF rule set, in section order. Order is
// cosmetic only: aggregation is order-independent.
var cfCatalog = []Check{
	{Name: "naming_conventions", Run: checkNamingConventions},
	{Name: "fill_value_outside_valid_range", Run: checkFillValueOutsideValidRange},
	{Name: "conventions_attribute", Run: checkConventions},
	{Name: "units", Run: checkUnits},
	{Name: "standard_names", Run: checkStandardNames},
	{Name: "ancillary_variables", Run: checkAncillaryVariables},
	{Name: "latitude", Run: checkLatitude},
	{Name: "longitude", Run: checkLongitude},
	{Name: "dimensionless_vertical", Run: checkDimensionlessVertical},
	{Name: "time_coordinate", Run: checkTimeCoordinate},
	{Name: "grid_mapping", Run: checkGridMapping},
	{Name: "cell_methods", Run: checkCellMethods},
	{Name: "climatological_statistics", Run: checkClimatologicalStatistics},
	{Name: "compression_by_gathering", Run: checkCompression},
	{Name: "feature_type", Run: checkFeatureType},
}

var validNameRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// checkNamingConventions verifies variable and dimension names begin with a
// letter and are composed of letters, digits, and underscores (CF 2.3).
func checkNamingConventions(_ Context, ds dataset.Dataset) []Result {
	var results []Result
	for _, v := range ds.Variables() {
		results = append(results, Bool("§2.3 Naming Conventions", validNameRe.MatchString(v.Name()),
			fmt.Sprintf("variable %s should begin with a letter and be composed of letters, digits, and underscores", v.Name())))
	}
	for _, d := range ds.Dimensions() {
		results = append(results, Bool("§2.3 Naming Conventions", validNameRe.MatchString(d.Name),
			fmt.Sprintf("dimension %s should begin with a letter and be composed of letters, digits, and underscores", d.Name)))
	}
	return results
}

// checkFillValueOutsideValidRange verifies _FillValue lies outside the
// declared valid range (CF 2.5.1). Variables without both a fill value and
// a range contribute nothing.
func checkFillValueOutsideValidRange(_ Context, ds dataset.Dataset) []Result {
	var results []Result
	for _, v := range ds.Variables() {
		fill, ok := dataset.AttrFloat(v.Attr("_FillValue"))
		if !ok {
			continue
		}

		var vmin, vmax float64
		var haveRange bool
		if rng, ok := dataset.AttrFloats(v.Attr("valid_range")); ok && len(rng) == 2 {
			vmin, vmax, haveRange = rng[0], rng[1], true
		} else {
			lo, okLo := dataset.AttrFloat(v.Attr("valid_min"))
			hi, okHi := dataset.AttrFloat(v.Attr("valid_max"))
			if okLo && okHi {
				vmin, vmax, haveRange = lo, hi, true
			}
		}
		if !haveRange {
			continue
		}

		outside := fill < vmin || fill > vmax
		results = append(results, Bool("§2.5.1 Fill Values", outside,
			fmt.Sprintf("%s:_FillValue (%v) should be outside the range specified by valid_min/valid_max (%v, %v)",
				v.Name(), fill, vmin, vmax)))
	}
	return results
}

// checkConventions verifies the global Conventions attribute names a CF
// version (CF 2.6.1).
func checkConventions(_ Context, ds dataset.Dataset) []Result {
	const name = "§2.6.1 Global Attributes"
	conv, ok := dataset.AttrString(ds.Attr("Conventions"))
	if !ok {
		return []Result{Fail(name, "Conventions global attribute is missing")}
	}
	for _, part := range strings.FieldsFunc(conv, func(r rune) bool { return r == ',' || r == ' ' }) {
		if strings.HasPrefix(part, "CF-") {
			return []Result{Pass(name)}
		}
	}
	return []Result{Fail(name,
		fmt.Sprintf("Conventions global attribute (%q) does not contain a CF version identifier", conv))}
}

// checkUnits verifies units attributes parse and, where a standard name with
// dimensional canonical units is present, that the two are convertible
// (CF 3.1).
func checkUnits(cx Context, ds dataset.Dataset) []Result {
	var results []Result
	for _, v := range ds.Variables() {
		u, ok := dataset.AttrString(v.Attr("units"))
		if !ok {
			continue
		}

		scored, possible := 0, 1
		var msgs []string
		if units.Parseable(u) {
			scored++
		} else {
			msgs = append(msgs, fmt.Sprintf("units attribute (%q) for variable %s is not a recognized unit", u, v.Name()))
		}

		if canonical, applicable := canonicalUnitsFor(cx, v); applicable {
			possible++
			if unitsMatchCanonical(u, canonical) {
				scored++
			} else {
				msgs = append(msgs, fmt.Sprintf("units %q for variable %s are not convertible to canonical units %q",
					u, v.Name(), canonical))
			}
		}
		results = append(results, Ratio("§3.1 Units", scored, possible, msgs...))
	}
	return results
}

// canonicalUnitsFor finds the canonical units a variable's units must be
// convertible to. Dimensionless standard names impose no constraint.
func canonicalUnitsFor(cx Context, v dataset.Variable) (string, bool) {
	sn, ok := dataset.AttrString(v.Attr("standard_name"))
	if !ok {
		return "", false
	}
	base, _ := splitModifier(sn)
	if cx.Table.IsDimensionless(base) {
		return "", false
	}
	cu, ok := cx.Table.CanonicalUnits(base)
	if !ok || cu == "" {
		return "", false
	}
	return cu, true
}

// unitsMatchCanonical handles the reference-time special case: a temporal
// units string satisfies a canonical time unit even though the two are
// different algebraic kinds.
func unitsMatchCanonical(u, canonical string) bool {
	if units.Temporal(u) {
		return units.Convertible("s", canonical)
	}
	return units.Convertible(u, canonical)
}

// standard-name modifiers permitted by CF Appendix C.
var standardNameModifiers = map[string]bool{
	"detection_minimum":      true,
	"number_of_observations": true,
	"standard_error":         true,
	"status_flag":            true,
}

func splitModifier(sn string) (base, modifier string) {
	base, modifier, _ = strings.Cut(sn, " ")
	return base, modifier
}

// checkStandardNames verifies each standard_name (with optional modifier)
// appears in the standard-name table (CF 3.3). Deprecated aliases pass.
func checkStandardNames(cx Context, ds dataset.Dataset) []Result {
	var results []Result
	for _, v := range ds.Variables() {
		sn, ok := dataset.AttrString(v.Attr("standard_name"))
		if !ok {
			continue
		}
		base, modifier := splitModifier(sn)

		scored, possible := 0, 1
		var msgs []string
		if _, found := cx.Table.Lookup(base); found {
			scored++
		} else {
			msgs = append(msgs, fmt.Sprintf("standard_name %q for variable %s is not defined in Standard Name Table v%s",
				base, v.Name(), cx.Table.Version()))
		}
		if modifier != "" {
			possible++
			if standardNameModifiers[modifier] {
				scored++
			} else {
				msgs = append(msgs, fmt.Sprintf("standard_name modifier %q for variable %s is not a valid modifier",
					modifier, v.Name()))
			}
		}
		results = append(results, Ratio("§3.3 Standard Name", scored, possible, msgs...))
	}
	return results
}

// checkAncillaryVariables verifies every name in an ancillary_variables
// attribute exists in the dataset (CF 3.4).
func checkAncillaryVariables(_ Context, ds dataset.Dataset) []Result {
	var results []Result
	for _, v := range ds.Variables() {
		anc, ok := dataset.AttrString(v.Attr("ancillary_variables"))
		if !ok {
			continue
		}
		names := strings.Fields(anc)
		if len(names) == 0 {
			continue
		}
		scored := 0
		var msgs []string
		for _, name := range names {
			if _, found := ds.Variable(name); found {
				scored++
			} else {
				msgs = append(msgs, fmt.Sprintf("%s is not a variable in this dataset", name))
			}
		}
		results = append(results, Ratio("§3.4 Ancillary Data", scored, len(names), msgs...))
	}
	return results
}

// knownGridMappings is the CF Appendix F vocabulary.
var knownGridMappings = map[string]bool{
	"albers_conical_equal_area":                true,
	"azimuthal_equidistant":                    true,
	"geostationary":                            true,
	"lambert_azimuthal_equal_area":             true,
	"lambert_conformal_conic":                  true,
	"lambert_cylindrical_equal_area":           true,
	"latitude_longitude":                       true,
	"mercator":                                 true,
	"oblique_mercator":                         true,
	"orthographic":                             true,
	"polar_stereographic":                      true,
	"rotated_latitude_longitude":               true,
	"sinusoidal":                               true,
	"stereographic":                            true,
	"transverse_mercator":                      true,
	"vertical_perspective":                     true,
}

// checkGridMapping verifies grid_mapping references resolve to a variable
// carrying a known grid_mapping_name (CF 5.6).
func checkGridMapping(_ Context, ds dataset.Dataset) []Result {
	var results []Result
	for _, v := range ds.Variables() {
		ref, ok := dataset.AttrString(v.Attr("grid_mapping"))
		if !ok {
			continue
		}

		scored, possible := 0, 2
		var msgs []string
		gmVar, found := ds.Variable(ref)
		if found {
			scored++
			if name, ok := dataset.AttrString(gmVar.Attr("grid_mapping_name")); ok && knownGridMappings[name] {
				scored++
			} else if ok {
				msgs = append(msgs, fmt.Sprintf("grid_mapping_name %q on variable %s is not a recognized grid mapping", name, ref))
			} else {
				msgs = append(msgs, fmt.Sprintf("grid mapping variable %s has no grid_mapping_name attribute", ref))
			}
		} else {
			msgs = append(msgs,
				fmt.Sprintf("grid_mapping variable %s referred to by %s is not present in dataset variables", ref, v.Name()),
				fmt.Sprintf("grid mapping variable %s has no grid_mapping_name attribute", ref))
		}
		results = append(results, Ratio("§5.6 Grid Mapping", scored, possible, msgs...))
	}
	return results
}

// checkCompression verifies a compress attribute lists only existing
// dimensions (CF 8.2).
func checkCompression(_ Context, ds dataset.Dataset) []Result {
	var results []Result
	for _, v := range ds.Variables() {
		compress, ok := dataset.AttrString(v.Attr("compress"))
		if !ok {
			continue
		}
		dims := strings.Fields(compress)
		if len(dims) == 0 {
			results = append(results, Fail("§8.2 Compression by Gathering",
				fmt.Sprintf("compress attribute for variable %s is empty", v.Name())))
			continue
		}
		scored := 0
		var msgs []string
		for _, d := range dims {
			if _, found := ds.Dimension(d); found {
				scored++
			} else {
				msgs = append(msgs, fmt.Sprintf("compress attribute for variable %s references unknown dimension %s", v.Name(), d))
			}
		}
		results = append(results, Ratio("§8.2 Compression by Gathering", scored, len(dims), msgs...))
	}
	return results
}

// knownFeatureTypes is the CF 9.1 discrete-sampling-geometry vocabulary.
var knownFeatureTypes = map[string]bool{
	"point":             true,
	"timeseries":        true,
	"trajectory":        true,
	"profile":           true,
	"timeseriesprofile": true,
	"trajectoryprofile": true,
}

// checkFeatureType verifies a global featureType attribute, when present,
// names a known discrete sampling geometry (CF 9.1).
func checkFeatureType(_ Context, ds dataset.Dataset) []Result {
	ft, ok := dataset.AttrString(ds.Attr("featureType"))
	if !ok {
		return nil
	}
	return []Result{Bool("§9.1 Feature Types", knownFeatureTypes[strings.ToLower(ft)],
		fmt.Sprintf("featureType %q is not a valid CF feature type", ft))}
}
