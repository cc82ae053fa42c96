// Package dataset defines the capability interface the rule layer consumes:
// enumerable variables and dimensions with attribute lookup. Checks never
// mutate a dataset.
package dataset

// Dimension is a named axis with a size.
type Dimension struct {
	Name      string
	Size      int
	Unlimited bool
}

// Variable exposes one variable's metadata. Attribute values are strings,
// numbers or numeric arrays as found in the source description.
type Variable interface {
	Name() string
	DType() string
	Dims() []string
	Attr(name string) (any, bool)
	AttrNames() []string
}

// Dataset exposes one in-memory dataset description.
type Dataset interface {
	Name() string
	Variables() []Variable
	Variable(name string) (Variable, bool)
	Dimensions() []Dimension
	Dimension(name string) (Dimension, bool)
	Attr(name string) (any, bool)
	AttrNames() []string
}

// AttrString returns a variable or global attribute as a string.
func AttrString(a any, ok bool) (string, bool) {
	if !ok {
		return "", false
	}
	s, ok := a.(string)
	return s, ok
}

// AttrFloat returns a numeric attribute as a float64. Scalars of any
// integer or float width qualify; a one-element array also qualifies.
func AttrFloat(a any, ok bool) (float64, bool) {
	if !ok {
		return 0, false
	}
	return toFloat(a)
}

// AttrFloats returns a numeric attribute as a float64 slice. A scalar
// becomes a one-element slice.
func AttrFloats(a any, ok bool) ([]float64, bool) {
	if !ok {
		return nil, false
	}
	switch v := a.(type) {
	case []float64:
		return v, true
	case []any:
		out := make([]float64, 0, len(v))
		for _, e := range v {
			f, ok := toFloat(e)
			if !ok {
				return nil, false
			}
			out = append(out, f)
		}
		return out, true
	default:
		f, ok := toFloat(a)
		if !ok {
			return nil, false
		}
		return []float64{f}, true
	}
}

func toFloat(a any) (float64, bool) {
	switch v := a.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	case []any:
		if len(v) == 1 {
			return toFloat(v[0])
		}
		return 0, false
	case []float64:
		if len(v) == 1 {
			return v[0], true
		}
		return 0, false
	default:
		return 0, false
	}
}
