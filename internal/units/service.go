package units

import (
	"strings"

	"github.com/araddon/dateparse"
	"github.com/rotisserie/eris"
)

func errNotTimeInterval(part string) error {
	return eris.Errorf("units: %q is not a time interval", strings.TrimSpace(part))
}

func errBadReferenceDate(part string, err error) error {
	return eris.Wrapf(err, "units: bad reference date %q", strings.TrimSpace(part))
}

// Convertible reports whether two unit expressions denote physically
// comparable quantities. A reference-time unit ("hours since 2000-01-01")
// is never convertible to a plain interval unit ("hours"): they are
// different algebraic kinds. Malformed expressions are not convertible to
// anything; this function never fails.
func Convertible(a, b string) bool {
	ua, err := parseAny(a)
	if err != nil {
		return false
	}
	ub, err := parseAny(b)
	if err != nil {
		return false
	}
	return ua.temporal == ub.temporal && ua.dims == ub.dims
}

// Temporal reports whether the expression is a valid "<unit> since
// <reference-date>" reference-time unit. The unit part must reduce to a pure
// time dimension and the reference clause must parse as a real calendar
// date: "days since the big bang" is not temporal.
func Temporal(expr string) bool {
	u, err := parseAny(expr)
	if err != nil {
		return false
	}
	return u.temporal
}

// Parseable reports whether the expression is a recognizable unit string,
// temporal or not.
func Parseable(expr string) bool {
	_, err := parseAny(expr)
	return err == nil
}

// Dimensionless reports whether the expression is convertible to the
// dimensionless unit "1". Scale factors alone ("1e-3", "0.001") are
// dimensionless; reference-time units are not.
func Dimensionless(expr string) bool {
	u, err := parseAny(expr)
	if err != nil {
		return false
	}
	return u.dimensionless()
}

// timeDims is the dimension vector of a pure time quantity.
var timeDims = func() [numDims]int {
	var d [numDims]int
	d[dimTime] = 1
	return d
}()

// parseAny parses either a plain unit expression or a reference-time
// expression of the form "<unit> since <reference-date>".
func parseAny(expr string) (unit, error) {
	expr = strings.TrimSpace(expr)
	if intervalPart, refPart, ok := cutSince(expr); ok {
		u, err := parse(intervalPart)
		if err != nil {
			return unit{}, err
		}
		if u.dims != timeDims {
			return unit{}, errNotTimeInterval(intervalPart)
		}
		if _, err := dateparse.ParseAny(strings.TrimSpace(refPart)); err != nil {
			return unit{}, errBadReferenceDate(refPart, err)
		}
		u.temporal = true
		return u, nil
	}
	return parse(expr)
}

// cutSince splits on the word "since", case-insensitively.
func cutSince(expr string) (string, string, bool) {
	lower := strings.ToLower(expr)
	idx := strings.Index(lower, " since ")
	if idx < 0 {
		return expr, "", false
	}
	return expr[:idx], expr[idx+len(" since "):], true
}
