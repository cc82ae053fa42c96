package stdnames

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTableXML = `<?xml version="1.0"?>
<standard_name_table>
  <version_number>78</version_number>
  <entry id="air_temperature">
    <canonical_units>K</canonical_units>
    <grib>11</grib>
    <amip>ta</amip>
    <description>Air temperature.</description>
  </entry>
  <entry id="sea_water_practical_salinity">
    <canonical_units>1</canonical_units>
  </entry>
  <entry id="mass_fraction_of_ozone_in_air">
    <canonical_units>1e-3</canonical_units>
  </entry>
  <entry id="region">
    <canonical_units></canonical_units>
  </entry>
  <alias id="sea_water_salinity">
    <entry_id>sea_water_practical_salinity</entry_id>
  </alias>
</standard_name_table>`

func parseTestTable(t *testing.T) *Table {
	t.Helper()
	tbl, err := Parse(strings.NewReader(testTableXML))
	require.NoError(t, err)
	return tbl
}

func TestParseTable(t *testing.T) {
	tbl := parseTestTable(t)
	assert.Equal(t, "78", tbl.Version())
	assert.Equal(t, 4, tbl.Len())

	e, ok := tbl.Lookup("air_temperature")
	require.True(t, ok)
	assert.Equal(t, "K", e.CanonicalUnits)
	assert.Equal(t, "11", e.GRIB)
	assert.Equal(t, "ta", e.AMIP)

	_, ok = tbl.Lookup("not_a_standard_name")
	assert.False(t, ok)
}

func TestAliasResolution(t *testing.T) {
	tbl := parseTestTable(t)

	assert.True(t, tbl.IsAlias("sea_water_salinity"))
	assert.False(t, tbl.IsAlias("sea_water_practical_salinity"))

	// Lookup on an alias resolves to the canonical entry.
	e, ok := tbl.Lookup("sea_water_salinity")
	require.True(t, ok)
	assert.Equal(t, "sea_water_practical_salinity", e.Name)
	assert.Contains(t, e.Aliases, "sea_water_salinity")

	cu, ok := tbl.CanonicalUnits("sea_water_salinity")
	require.True(t, ok)
	assert.Equal(t, "1", cu)
}

func TestIsDimensionless(t *testing.T) {
	tbl := parseTestTable(t)

	assert.False(t, tbl.IsDimensionless("air_temperature"))
	assert.True(t, tbl.IsDimensionless("sea_water_practical_salinity"))
	assert.True(t, tbl.IsDimensionless("mass_fraction_of_ozone_in_air"))
	// Empty canonical units mean unitless.
	assert.True(t, tbl.IsDimensionless("region"))
	assert.False(t, tbl.IsDimensionless("no_such_name"))
}

func TestParseWrongRoot(t *testing.T) {
	_, err := Parse(strings.NewReader(`<?xml version="1.0"?><not_a_table></not_a_table>`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTableFormat))
}

func TestParseMissingVersion(t *testing.T) {
	_, err := Parse(strings.NewReader(`<standard_name_table>
		<entry id="air_temperature"><canonical_units>K</canonical_units></entry>
	</standard_name_table>`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTableFormat))
}

func TestParseDanglingAlias(t *testing.T) {
	_, err := Parse(strings.NewReader(`<standard_name_table>
		<version_number>78</version_number>
		<alias id="old_name"><entry_id>missing_entry</entry_id></alias>
	</standard_name_table>`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTableFormat))
}

func TestParseNotXML(t *testing.T) {
	_, err := Parse(strings.NewReader("definitely not xml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTableFormat))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "dummy_non_existent_file.ext"))
	assert.Error(t, err)
}
