// Package units answers convertibility and temporal-classification questions
// about CF unit strings. It evaluates unit expressions to a dimension vector
// over the SI base quantities (plus plane angle), so two expressions are
// convertible exactly when they reduce to the same vector. Reference-time
// units ("hours since 2000-01-01") form a separate kind that never converts
// to plain interval units.
package units

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// dim indexes into the dimension vector.
const (
	dimLength = iota
	dimMass
	dimTime
	dimTemperature
	dimCurrent
	dimAmount
	dimLuminosity
	dimAngle
	numDims
)

// unit is a parsed unit expression: a scale factor times a product of base
// quantities raised to integer powers.
type unit struct {
	scale    float64
	dims     [numDims]int
	temporal bool
}

func (u unit) dimensionless() bool {
	return !u.temporal && u.dims == [numDims]int{}
}

// symbol table: canonical spellings and their common variants.
var symbols = map[string]unit{
	"1": {scale: 1},

	"m": base(1, dimLength), "meter": base(1, dimLength), "metre": base(1, dimLength),
	"meters": base(1, dimLength), "metres": base(1, dimLength),

	"g": base(1e-3, dimMass), "gram": base(1e-3, dimMass), "grams": base(1e-3, dimMass),

	"s": base(1, dimTime), "sec": base(1, dimTime), "second": base(1, dimTime), "seconds": base(1, dimTime),
	"min": base(60, dimTime), "minute": base(60, dimTime), "minutes": base(60, dimTime),
	"h": base(3600, dimTime), "hr": base(3600, dimTime), "hour": base(3600, dimTime), "hours": base(3600, dimTime),
	"d": base(86400, dimTime), "day": base(86400, dimTime), "days": base(86400, dimTime),
	"yr": base(3.15569259747e7, dimTime), "year": base(3.15569259747e7, dimTime), "years": base(3.15569259747e7, dimTime),
	"month": base(3.15569259747e7 / 12, dimTime), "months": base(3.15569259747e7 / 12, dimTime),

	"K": base(1, dimTemperature), "kelvin": base(1, dimTemperature), "degK": base(1, dimTemperature),
	"degC": base(1, dimTemperature), "Celsius": base(1, dimTemperature), "celsius": base(1, dimTemperature),
	"degrees_Celsius": base(1, dimTemperature),
	"degF":            base(5.0 / 9.0, dimTemperature),

	"A": base(1, dimCurrent), "ampere": base(1, dimCurrent), "amperes": base(1, dimCurrent),
	"mol": base(1, dimAmount), "mole": base(1, dimAmount), "moles": base(1, dimAmount),
	"cd": base(1, dimLuminosity), "candela": base(1, dimLuminosity),

	"rad": base(1, dimAngle), "radian": base(1, dimAngle), "radians": base(1, dimAngle),
	"deg": base(0.017453292519943295, dimAngle), "degree": base(0.017453292519943295, dimAngle),
	"degrees": base(0.017453292519943295, dimAngle),

	// CF directional spellings all reduce to plane angle.
	"degrees_north": base(0.017453292519943295, dimAngle), "degree_north": base(0.017453292519943295, dimAngle),
	"degrees_N": base(0.017453292519943295, dimAngle), "degree_N": base(0.017453292519943295, dimAngle),
	"degreesN": base(0.017453292519943295, dimAngle), "degreeN": base(0.017453292519943295, dimAngle),
	"degrees_east": base(0.017453292519943295, dimAngle), "degree_east": base(0.017453292519943295, dimAngle),
	"degrees_E": base(0.017453292519943295, dimAngle), "degree_E": base(0.017453292519943295, dimAngle),
	"degreesE": base(0.017453292519943295, dimAngle), "degreeE": base(0.017453292519943295, dimAngle),

	"%": {scale: 0.01}, "percent": {scale: 0.01},
	"psu": {scale: 1e-3}, "PSU": {scale: 1e-3},
	"ppm": {scale: 1e-6}, "ppb": {scale: 1e-9},

	"L": derived(1e-3, dims{dimLength: 3}), "l": derived(1e-3, dims{dimLength: 3}),
	"liter": derived(1e-3, dims{dimLength: 3}), "litre": derived(1e-3, dims{dimLength: 3}),

	"Hz": derived(1, dims{dimTime: -1}), "hertz": derived(1, dims{dimTime: -1}),
	"N": derived(1, dims{dimMass: 1, dimLength: 1, dimTime: -2}),
	"newton": derived(1, dims{dimMass: 1, dimLength: 1, dimTime: -2}),
	"Pa": derived(1, dims{dimMass: 1, dimLength: -1, dimTime: -2}),
	"pascal": derived(1, dims{dimMass: 1, dimLength: -1, dimTime: -2}),
	"pascals": derived(1, dims{dimMass: 1, dimLength: -1, dimTime: -2}),
	"bar": derived(1e5, dims{dimMass: 1, dimLength: -1, dimTime: -2}),
	"mb": derived(100, dims{dimMass: 1, dimLength: -1, dimTime: -2}),
	"mbar": derived(100, dims{dimMass: 1, dimLength: -1, dimTime: -2}),
	"millibar": derived(100, dims{dimMass: 1, dimLength: -1, dimTime: -2}),
	"millibars": derived(100, dims{dimMass: 1, dimLength: -1, dimTime: -2}),
	"J": derived(1, dims{dimMass: 1, dimLength: 2, dimTime: -2}),
	"joule": derived(1, dims{dimMass: 1, dimLength: 2, dimTime: -2}),
	"W": derived(1, dims{dimMass: 1, dimLength: 2, dimTime: -3}),
	"watt": derived(1, dims{dimMass: 1, dimLength: 2, dimTime: -3}),
	"V": derived(1, dims{dimMass: 1, dimLength: 2, dimTime: -3, dimCurrent: -1}),
	"volt": derived(1, dims{dimMass: 1, dimLength: 2, dimTime: -3, dimCurrent: -1}),
	"C": derived(1, dims{dimCurrent: 1, dimTime: 1}),
	"coulomb": derived(1, dims{dimCurrent: 1, dimTime: 1}),
	"knot":  derived(0.514444, dims{dimLength: 1, dimTime: -1}),
	"knots": derived(0.514444, dims{dimLength: 1, dimTime: -1}),
	"sverdrup": derived(1e6, dims{dimLength: 3, dimTime: -1}),
	"Sv":       derived(1e6, dims{dimLength: 3, dimTime: -1}),
}

type dims map[int]int

func base(scale float64, d int) unit {
	u := unit{scale: scale}
	u.dims[d] = 1
	return u
}

func derived(scale float64, ds dims) unit {
	u := unit{scale: scale}
	for d, exp := range ds {
		u.dims[d] = exp
	}
	return u
}

// SI prefixes; two-letter prefixes are tried before one-letter ones.
var prefixes = []struct {
	sym   string
	scale float64
}{
	{"da", 1e1}, {"Y", 1e24}, {"Z", 1e21}, {"E", 1e18}, {"P", 1e15},
	{"T", 1e12}, {"G", 1e9}, {"M", 1e6}, {"k", 1e3}, {"h", 1e2},
	{"d", 1e-1}, {"c", 1e-2}, {"m", 1e-3}, {"u", 1e-6}, {"µ", 1e-6},
	{"n", 1e-9}, {"p", 1e-12}, {"f", 1e-15}, {"a", 1e-18},
}

// parse evaluates a unit expression to a unit value. It recognizes products
// separated by whitespace, '.', '*' or the word "per"/'/' for division,
// integer exponents in the forms m2, s-2, m^2 and m**2, numeric scale
// factors (1e-3, 0.001, 100), and SI prefixes on known symbols.
func parse(expr string) (unit, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return unit{}, eris.New("units: empty expression")
	}

	result := unit{scale: 1}
	divide := false
	for _, tok := range tokenize(expr) {
		if tok == "/" || tok == "per" {
			if divide {
				return unit{}, eris.Errorf("units: malformed expression %q", expr)
			}
			divide = true
			continue
		}
		f, err := parseFactor(tok)
		if err != nil {
			return unit{}, err
		}
		if divide {
			result.scale /= f.scale
			for i := range f.dims {
				result.dims[i] -= f.dims[i]
			}
			divide = false
		} else {
			result.scale *= f.scale
			for i := range f.dims {
				result.dims[i] += f.dims[i]
			}
		}
	}
	if divide {
		return unit{}, eris.Errorf("units: trailing division in %q", expr)
	}
	return result, nil
}

// tokenize splits an expression into factor and operator tokens.
func tokenize(expr string) []string {
	expr = strings.ReplaceAll(expr, "·", " ")
	expr = strings.ReplaceAll(expr, "**", "^")
	expr = strings.ReplaceAll(expr, "*", " ")
	expr = strings.ReplaceAll(expr, "/", " / ")
	// '.' is a product separator only between letters (not inside "0.001").
	var sb strings.Builder
	rs := []rune(expr)
	for i, r := range rs {
		if r == '.' && i > 0 && i < len(rs)-1 && !isDigit(rs[i-1]) && !isDigit(rs[i+1]) {
			sb.WriteRune(' ')
			continue
		}
		sb.WriteRune(r)
	}
	return strings.Fields(sb.String())
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

// parseFactor parses one token: a number, or [prefix]symbol[exponent].
func parseFactor(tok string) (unit, error) {
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		if f <= 0 {
			return unit{}, eris.Errorf("units: non-positive scale factor %q", tok)
		}
		return unit{scale: f}, nil
	}

	sym, exp, err := splitExponent(tok)
	if err != nil {
		return unit{}, err
	}

	if u, ok := symbols[sym]; ok {
		return pow(u, exp), nil
	}
	for _, p := range prefixes {
		rest, ok := strings.CutPrefix(sym, p.sym)
		if !ok || rest == "" {
			continue
		}
		if u, ok := symbols[rest]; ok {
			u.scale *= p.scale
			return pow(u, exp), nil
		}
	}
	return unit{}, eris.Errorf("units: unknown unit %q", tok)
}

// splitExponent splits a trailing integer exponent off a factor token.
func splitExponent(tok string) (string, int, error) {
	for _, sep := range []string{"**", "^"} {
		if sym, expStr, ok := strings.Cut(tok, sep); ok {
			exp, err := strconv.Atoi(expStr)
			if err != nil {
				return "", 0, eris.Errorf("units: bad exponent in %q", tok)
			}
			return sym, exp, nil
		}
	}
	// Implicit form: trailing digits with optional sign, e.g. m2, s-2.
	i := len(tok)
	for i > 0 && isDigit(rune(tok[i-1])) {
		i--
	}
	if i == len(tok) {
		return tok, 1, nil
	}
	if i > 0 && (tok[i-1] == '-' || tok[i-1] == '+') {
		i--
	}
	if i == 0 {
		// All digits; the caller handles pure numbers before us.
		return tok, 1, nil
	}
	exp, err := strconv.Atoi(tok[i:])
	if err != nil {
		return "", 0, eris.Errorf("units: bad exponent in %q", tok)
	}
	return tok[:i], exp, nil
}

func pow(u unit, exp int) unit {
	out := unit{scale: 1}
	if exp >= 0 {
		for range exp {
			out.scale *= u.scale
		}
	} else {
		for range -exp {
			out.scale /= u.scale
		}
	}
	for i := range u.dims {
		out.dims[i] = u.dims[i] * exp
	}
	return out
}
