// Package stdnames parses and indexes the CF standard-name table: the
// versioned XML reference mapping canonical names to canonical units, and
// deprecated aliases to canonical names. Tables are immutable once parsed
// and safe to share across concurrent checks.
package stdnames

import (
	"encoding/xml"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/gridmeta/cfcheck/internal/units"
)

// ErrTableFormat marks a table whose root structure, version marker or
// alias graph is broken.
var ErrTableFormat = eris.New("stdnames: malformed standard name table")

// Entry is one row of the table. CanonicalUnits may be empty, meaning the
// quantity is unitless. GRIB and AMIP are opaque cross-references.
type Entry struct {
	Name           string
	CanonicalUnits string
	GRIB           string
	AMIP           string
	Description    string
	Aliases        []string
}

// Table is the parsed, indexed standard-name table.
type Table struct {
	version string
	entries map[string]*Entry
	aliases map[string]string
}

type xmlTable struct {
	XMLName xml.Name   `xml:"standard_name_table"`
	Version string     `xml:"version_number"`
	Entries []xmlEntry `xml:"entry"`
	Aliases []xmlAlias `xml:"alias"`
}

type xmlEntry struct {
	ID             string `xml:"id,attr"`
	CanonicalUnits string `xml:"canonical_units"`
	GRIB           string `xml:"grib"`
	AMIP           string `xml:"amip"`
	Description    string `xml:"description"`
}

type xmlAlias struct {
	ID      string `xml:"id,attr"`
	EntryID string `xml:"entry_id"`
}

// Parse reads a standard-name table from an XML byte stream. It fails with
// ErrTableFormat when the root element or version marker is missing, or when
// an alias points at a nonexistent canonical name (alias chains are not a
// thing in the table and are rejected the same way).
func Parse(r io.Reader) (*Table, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return nil, eris.Wrapf(err, "stdnames: unsupported charset %q", charset)
		}
		return enc.NewDecoder().Reader(input), nil
	}

	var doc xmlTable
	if err := dec.Decode(&doc); err != nil {
		return nil, eris.Wrapf(ErrTableFormat, "decode: %v", err)
	}
	if doc.Version == "" {
		return nil, eris.Wrap(ErrTableFormat, "missing version_number")
	}

	t := &Table{
		version: doc.Version,
		entries: make(map[string]*Entry, len(doc.Entries)),
		aliases: make(map[string]string, len(doc.Aliases)),
	}
	for _, e := range doc.Entries {
		if e.ID == "" {
			return nil, eris.Wrap(ErrTableFormat, "entry without id")
		}
		t.entries[e.ID] = &Entry{
			Name:           e.ID,
			CanonicalUnits: e.CanonicalUnits,
			GRIB:           e.GRIB,
			AMIP:           e.AMIP,
			Description:    e.Description,
		}
	}
	for _, a := range doc.Aliases {
		target, ok := t.entries[a.EntryID]
		if !ok {
			return nil, eris.Wrapf(ErrTableFormat, "alias %q resolves to unknown entry %q", a.ID, a.EntryID)
		}
		t.aliases[a.ID] = a.EntryID
		target.Aliases = append(target.Aliases, a.ID)
	}
	return t, nil
}

// Load parses a table from a local file. A nonexistent path surfaces the
// underlying open error.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "stdnames: open %s", path)
	}
	defer f.Close() //nolint:errcheck
	t, err := Parse(f)
	if err != nil {
		return nil, eris.Wrapf(err, "stdnames: load %s", path)
	}
	return t, nil
}

// Version returns the table's version string.
func (t *Table) Version() string { return t.version }

// Len returns the number of canonical entries.
func (t *Table) Len() int { return len(t.entries) }

// Lookup finds the entry for a name, resolving deprecated aliases to their
// canonical entry.
func (t *Table) Lookup(name string) (*Entry, bool) {
	if canonical, ok := t.aliases[name]; ok {
		name = canonical
	}
	e, ok := t.entries[name]
	return e, ok
}

// IsAlias reports whether the name is a deprecated alias.
func (t *Table) IsAlias(name string) bool {
	_, ok := t.aliases[name]
	return ok
}

// CanonicalUnits returns the canonical units for a name or alias.
func (t *Table) CanonicalUnits(name string) (string, bool) {
	e, ok := t.Lookup(name)
	if !ok {
		return "", false
	}
	return e.CanonicalUnits, true
}

// IsDimensionless reports whether the entry's canonical units denote a
// dimensionless quantity: an empty units string, or one convertible to "1"
// including bare scale factors like "1e-3". Unknown names are not
// dimensionless.
func (t *Table) IsDimensionless(name string) bool {
	cu, ok := t.CanonicalUnits(name)
	if !ok {
		return false
	}
	return cu == "" || units.Dimensionless(cu)
}
