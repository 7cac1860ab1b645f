package registry

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_HasFifteenTemplatesInOrder(t *testing.T) {
	reg := Default()

	ids := reg.IDs()
	require.Len(t, ids, 15)
	assert.Equal(t, "B_01.01", ids[0])
	assert.Equal(t, "B_99.01", ids[len(ids)-1])
	assert.Equal(t, TaxonomyVersion, reg.Version())
	require.NoError(t, reg.Check())
}

func TestDefault_EnumColumnsCarryEnumerations(t *testing.T) {
	for _, tpl := range Default().Templates() {
		for _, c := range tpl.Columns {
			if c.DataType == TypeEnum {
				assert.NotEmpty(t, c.Enumeration, "%s.%s", tpl.ID, c.ESACode)
			}
		}
	}
}

func TestGetTemplateDefinition(t *testing.T) {
	def, err := GetTemplateDefinition("B_05.01")
	require.NoError(t, err)
	assert.Equal(t, "ICT third-party service providers", def.Name)

	key, ok := def.KeyColumn()
	require.True(t, ok)
	assert.Equal(t, "c0010", key.ESACode)

	_, err = GetTemplateDefinition("B_42.01")
	var unknown *UnknownTemplateError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "B_42.01", unknown.TemplateID)
}

func TestFileName(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"B_01.01", "B_01_01.csv"},
		{"B_99.01", "B_99_01.csv"},
		{"B_07.01", "B_07_01.csv"},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.want, FileName(tt.id))
		})
	}
}

func TestNew_RejectsStructuralProblems(t *testing.T) {
	level := Codelist{Entries: []CodeEntry{{Code: "critical"}, {Code: "important"}, {Code: "standard"}}}

	tests := []struct {
		name string
		defs []TemplateDefinition
		want string
	}{
		{
			name: "duplicate template",
			defs: []TemplateDefinition{
				{ID: "T1", Columns: []ColumnDefinition{col("c1", "a", "", TypeString)}},
				{ID: "T1", Columns: []ColumnDefinition{col("c1", "a", "", TypeString)}},
			},
			want: "duplicate template",
		},
		{
			name: "duplicate column",
			defs: []TemplateDefinition{
				{ID: "T1", Columns: []ColumnDefinition{col("c1", "a", "", TypeString), col("c1", "b", "", TypeString)}},
			},
			want: "duplicate column",
		},
		{
			name: "enum without values",
			defs: []TemplateDefinition{
				{ID: "T1", Columns: []ColumnDefinition{col("c1", "a", "", TypeEnum)}},
			},
			want: "enum column without enumeration",
		},
		{
			name: "reference to unknown template",
			defs: []TemplateDefinition{
				{ID: "T1", Columns: []ColumnDefinition{col("c1", "a", "", TypeString).ref("T9", "c1")}},
			},
			want: "references unknown template",
		},
		{
			name: "reference to non key column",
			defs: []TemplateDefinition{
				{ID: "T1", Columns: []ColumnDefinition{col("c1", "a", "", TypeString)}},
				{ID: "T2", Columns: []ColumnDefinition{col("c1", "a", "", TypeString).ref("T1", "c1")}},
			},
			want: "not a key column",
		},
		{
			name: "unknown data type",
			defs: []TemplateDefinition{
				{ID: "T1", Columns: []ColumnDefinition{col("c1", "a", "", DataType("money"))}},
			},
			want: "unknown data type",
		},
		{
			name: "valid enum",
			defs: []TemplateDefinition{
				{ID: "T1", Columns: []ColumnDefinition{col("c1", "a", "", TypeEnum).enum(level)}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New("test", tt.defs...)
			if tt.want == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCodelist_Translations(t *testing.T) {
	tr := Criticality.Translations()
	assert.Equal(t, "eba_BT:x28", tr["critical"])
	assert.Equal(t, "eba_BT:x28", tr["important"])
	assert.Equal(t, "eba_BT:x29", tr["standard"])

	countries := Countries.Translations()
	assert.Equal(t, "eba_GA:DE", countries["de"])
}

func TestIsCurrency(t *testing.T) {
	assert.True(t, IsCurrency("EUR"))
	assert.True(t, IsCurrency("USD"))
	assert.False(t, IsCurrency("eur"))
	assert.False(t, IsCurrency("XYZ"))
	assert.False(t, IsCurrency(""))
}

func TestWithConstraints(t *testing.T) {
	doc := []byte(`
date_window:
  earliest: "1950-01-01"
  years_ahead: 10
templates:
  B_06.01:
    weight: 5
    columns:
      c0080:
        non_negative: false
      c0070:
        date_rule: ""
`)
	c, err := ParseConstraints(doc)
	require.NoError(t, err)

	base := Default()
	reg, err := base.WithConstraints(c)
	require.NoError(t, err)

	def, err := reg.Get("B_06.01")
	require.NoError(t, err)
	assert.Equal(t, 5.0, def.Weight)

	rto, _ := def.Column("c0080")
	assert.False(t, rto.NonNegative)
	assessed, _ := def.Column("c0070")
	assert.Equal(t, DateAny, assessed.DateRule)

	assert.Equal(t, 1950, reg.DateWindow().Earliest.Year())
	assert.Equal(t, 10, reg.DateWindow().YearsAhead)

	// the default registry is untouched
	orig, _ := base.Get("B_06.01")
	assert.Equal(t, 2.0, orig.Weight)
	origRTO, _ := orig.Column("c0080")
	assert.True(t, origRTO.NonNegative)
}

func TestWithConstraints_UnknownTargets(t *testing.T) {
	_, err := Default().WithConstraints(&Constraints{Templates: map[string]TemplateConstraint{"B_00.00": {}}})
	var unknown *UnknownTemplateError
	assert.True(t, errors.As(err, &unknown))

	_, err = Default().WithConstraints(&Constraints{Templates: map[string]TemplateConstraint{
		"B_01.01": {Columns: map[string]ColumnConstraint{"c9999": {}}},
	}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no column c9999")
}

func TestLoadConstraints_MissingFile(t *testing.T) {
	_, err := LoadConstraints(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestDictionary_RoundTripHasNoDrift(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDictionary(Default(), &buf))

	path := filepath.Join(t.TempDir(), "dictionary.xlsx")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	defs, err := ReadDictionary(path)
	require.NoError(t, err)
	require.Len(t, defs, 15)
	assert.Equal(t, "B_01.01", defs[0].ID)
	assert.Equal(t, 3.0, defs[0].Weight)

	assert.Empty(t, Diff(Default(), defs))
}

func TestDiff_ReportsDrift(t *testing.T) {
	defs := Default().Templates()
	defs = defs[:len(defs)-1]

	providers := &defs[10]
	require.Equal(t, "B_05.01", providers.ID)
	providers.Columns = append([]ColumnDefinition(nil), providers.Columns...)
	providers.Columns[1].Required = false

	drift := Diff(Default(), defs)
	joined := strings.Join(drift, "\n")
	assert.Contains(t, joined, "B_05.01.c0020: required false")
	assert.Contains(t, joined, "B_99.01: missing from dictionary")
}
