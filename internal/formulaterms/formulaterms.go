// Package formulaterms parses formula_terms attribute strings and validates
// the parsed term keywords against the per-standard-name term sets of CF
// Appendix D (dimensionless vertical coordinates).
package formulaterms

import "strings"

// termSets maps each dimensionless vertical coordinate standard name to its
// allowed complete term-keyword sets. An attribute passes only when its
// parsed keywords exactly equal one of the alternatives.
var termSets = map[string][][]string{
	"atmosphere_ln_pressure_coordinate":           {{"p0", "lev"}},
	"atmosphere_sigma_coordinate":                 {{"sigma", "ps", "ptop"}},
	"atmosphere_hybrid_sigma_pressure_coordinate": {{"a", "b", "ps"}, {"ap", "b", "ps"}},
	"atmosphere_hybrid_height_coordinate":         {{"a", "b", "orog"}},
	"atmosphere_sleve_coordinate":                 {{"a", "b1", "b2", "ztop", "zsurf1", "zsurf2"}},
	"ocean_sigma_coordinate":                      {{"sigma", "eta", "depth"}},
	"ocean_s_coordinate":                          {{"s", "eta", "depth", "a", "b", "depth_c"}},
	"ocean_sigma_z_coordinate":                    {{"sigma", "eta", "depth", "depth_c", "nsigma", "zlev"}},
	"ocean_double_sigma_coordinate":               {{"sigma", "depth", "z1", "z2", "a", "href", "k_c"}},
}

// IsDimensionlessCoordinate reports whether the standard name is a
// registered dimensionless vertical coordinate. Callers must guard
// RequiredTermsSatisfied with this.
func IsDimensionlessCoordinate(standardName string) bool {
	_, ok := termSets[standardName]
	return ok
}

// Parse extracts "term: variable" pairs from a formula_terms attribute.
// Whitespace around the colon is irregular in the wild; both "a: var" and
// "a:var" are accepted. A trailing bare "term:" with no variable is omitted
// from the result. Parse never fails.
func Parse(attr string) map[string]string {
	terms := make(map[string]string)
	pending := ""
	for _, tok := range strings.Fields(attr) {
		if pending != "" {
			if !strings.HasSuffix(tok, ":") {
				terms[pending] = tok
				pending = ""
				continue
			}
			// Two term keywords in a row: the first had no variable.
			pending = ""
		}
		keyword, rest, ok := strings.Cut(tok, ":")
		if !ok || keyword == "" {
			continue
		}
		if rest == "" {
			pending = keyword
			continue
		}
		terms[keyword] = rest
	}
	return terms
}

// RequiredTermsSatisfied reports whether the parsed keyword set exactly
// equals one of the registered alternatives for the standard name. Missing
// and excess terms both fail. The standard name must be a registered
// dimensionless coordinate; behavior for unknown names is undefined.
func RequiredTermsSatisfied(standardName string, keywords map[string]string) bool {
	for _, alt := range termSets[standardName] {
		if exactMatch(alt, keywords) {
			return true
		}
	}
	return false
}

func exactMatch(want []string, got map[string]string) bool {
	if len(want) != len(got) {
		return false
	}
	for _, term := range want {
		if _, ok := got[term]; !ok {
			return false
		}
	}
	return true
}
