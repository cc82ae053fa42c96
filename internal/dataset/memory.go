package dataset

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Description is the serializable form of a dataset: what a YAML or JSON
// description file contains. It is the wire format for the serve API too.
type Description struct {
	Name       string                `yaml:"name" json:"name"`
	Dimensions []DimensionDesc       `yaml:"dimensions" json:"dimensions"`
	Variables  []VariableDesc        `yaml:"variables" json:"variables"`
	Attributes map[string]any        `yaml:"attributes" json:"attributes"`
}

// DimensionDesc describes one dimension.
type DimensionDesc struct {
	Name      string `yaml:"name" json:"name"`
	Size      int    `yaml:"size" json:"size"`
	Unlimited bool   `yaml:"unlimited,omitempty" json:"unlimited,omitempty"`
}

// VariableDesc describes one variable.
type VariableDesc struct {
	Name       string         `yaml:"name" json:"name"`
	DType      string         `yaml:"dtype" json:"dtype"`
	Dims       []string       `yaml:"dims" json:"dims"`
	Attributes map[string]any `yaml:"attributes" json:"attributes"`
}

// Memory is the in-memory Dataset implementation.
type Memory struct {
	name  string
	dims  []Dimension
	vars  []*memVar
	attrs map[string]any
}

type memVar struct {
	name  string
	dtype string
	dims  []string
	attrs map[string]any
}

func (v *memVar) Name() string  { return v.name }
func (v *memVar) DType() string { return v.dtype }
func (v *memVar) Dims() []string {
	return v.dims
}

func (v *memVar) Attr(name string) (any, bool) {
	a, ok := v.attrs[name]
	return a, ok
}

func (v *memVar) AttrNames() []string {
	return sortedKeys(v.attrs)
}

// New builds a Memory dataset from a description.
func New(desc Description) *Memory {
	m := &Memory{name: desc.Name, attrs: desc.Attributes}
	if m.attrs == nil {
		m.attrs = map[string]any{}
	}
	for _, d := range desc.Dimensions {
		m.dims = append(m.dims, Dimension{Name: d.Name, Size: d.Size, Unlimited: d.Unlimited})
	}
	for _, v := range desc.Variables {
		attrs := v.Attributes
		if attrs == nil {
			attrs = map[string]any{}
		}
		m.vars = append(m.vars, &memVar{name: v.Name, dtype: v.DType, dims: v.Dims, attrs: attrs})
	}
	return m
}

func (m *Memory) Name() string { return m.name }

func (m *Memory) Variables() []Variable {
	out := make([]Variable, len(m.vars))
	for i, v := range m.vars {
		out[i] = v
	}
	return out
}

func (m *Memory) Variable(name string) (Variable, bool) {
	for _, v := range m.vars {
		if v.name == name {
			return v, true
		}
	}
	return nil, false
}

func (m *Memory) Dimensions() []Dimension { return m.dims }

func (m *Memory) Dimension(name string) (Dimension, bool) {
	for _, d := range m.dims {
		if d.Name == name {
			return d, true
		}
	}
	return Dimension{}, false
}

func (m *Memory) Attr(name string) (any, bool) {
	a, ok := m.attrs[name]
	return a, ok
}

func (m *Memory) AttrNames() []string {
	return sortedKeys(m.attrs)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Decode reads a description in YAML (JSON is a YAML subset) from r.
func Decode(r io.Reader) (*Memory, error) {
	var desc Description
	if err := yaml.NewDecoder(r).Decode(&desc); err != nil {
		return nil, eris.Wrap(err, "dataset: decode description")
	}
	return New(desc), nil
}

// DecodeJSON reads a description in strict JSON from r.
func DecodeJSON(r io.Reader) (*Memory, error) {
	var desc Description
	if err := json.NewDecoder(r).Decode(&desc); err != nil {
		return nil, eris.Wrap(err, "dataset: decode description")
	}
	return New(desc), nil
}

// LoadFile reads a dataset description from a YAML or JSON file. The
// dataset name defaults to the file's base name.
func LoadFile(path string) (*Memory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	var m *Memory
	if strings.EqualFold(filepath.Ext(path), ".json") {
		m, err = DecodeJSON(f)
	} else {
		m, err = Decode(f)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: load %s", path)
	}
	if m.name == "" {
		m.name = filepath.Base(path)
	}
	return m, nil
}
