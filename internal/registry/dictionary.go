package registry

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// =============================================================================
// XLSX DATA DICTIONARY
// =============================================================================
//
// The data dictionary is a workbook describing the registry: one "_templates"
// index sheet plus one sheet per template, named by its ESA code. Sheets whose
// name starts with "_" are never read back as templates.
//
// TEMPLATE SHEET LAYOUT (row 1 is the header, data from row 2):
//   A: ESA code        E: Data type      I: Non-negative
//   B: DB column       F: Format         J: Date rule
//   C: Description     G: Key            K: Enumeration (one "code=label" per line)
//   D: Required        H: References
//
// =============================================================================

const indexSheet = "_templates"

var indexHeader = []interface{}{"Template", "Name", "DB table", "Weight", "Optional when empty", "Columns"}

var columnHeader = []interface{}{
	"ESA code", "DB column", "Description", "Required", "Data type",
	"Format", "Key", "References", "Non-negative", "Date rule", "Enumeration",
}

// DictionaryColumns maps the dictionary layout to 0-based column indexes.
// Workbooks maintained by hand can move columns around.
type DictionaryColumns struct {
	ESACode     int
	DBColumn    int
	Description int
	Required    int
	DataType    int
	Format      int
	Key         int
	References  int
	NonNegative int
	DateRule    int
	Enumeration int

	// DataStartRow is the 0-based index of the first data row.
	DataStartRow int
}

// DefaultDictionaryColumns returns the layout written by WriteDictionary.
func DefaultDictionaryColumns() DictionaryColumns {
	return DictionaryColumns{
		ESACode:      0,  // Column A
		DBColumn:     1,  // Column B
		Description:  2,  // Column C
		Required:     3,  // Column D
		DataType:     4,  // Column E
		Format:       5,  // Column F
		Key:          6,  // Column G
		References:   7,  // Column H
		NonNegative:  8,  // Column I
		DateRule:     9,  // Column J
		Enumeration:  10, // Column K
		DataStartRow: 1,  // Row 2
	}
}

// WriteDictionary renders the registry as an XLSX workbook.
func WriteDictionary(r *Registry, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", indexSheet); err != nil {
		return fmt.Errorf("failed to create index sheet: %w", err)
	}
	if err := f.SetSheetRow(indexSheet, "A1", &indexHeader); err != nil {
		return fmt.Errorf("failed to write index header: %w", err)
	}
	if err := f.SetRowStyle(indexSheet, 1, 1, bold); err != nil {
		return fmt.Errorf("failed to style index header: %w", err)
	}

	for i, t := range r.Templates() {
		row := []interface{}{t.ID, t.Name, t.DBTable, t.Weight, t.OptionalWhenEmpty, len(t.Columns)}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(indexSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write index row for %s: %w", t.ID, err)
		}

		if _, err := f.NewSheet(t.ID); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", t.ID, err)
		}
		if err := f.SetSheetRow(t.ID, "A1", &columnHeader); err != nil {
			return fmt.Errorf("failed to write header for %s: %w", t.ID, err)
		}
		if err := f.SetRowStyle(t.ID, 1, 1, bold); err != nil {
			return fmt.Errorf("failed to style header for %s: %w", t.ID, err)
		}
		for j, c := range t.Columns {
			ref := ""
			if c.References != nil {
				ref = c.References.String()
			}
			row := []interface{}{
				c.ESACode, c.DBColumn, c.Description, yesNo(c.Required), string(c.DataType),
				c.Format, yesNo(c.Key), ref, yesNo(c.NonNegative), string(c.DateRule),
				formatEnumeration(c.Enumeration),
			}
			cell, _ := excelize.CoordinatesToCellName(1, j+2)
			if err := f.SetSheetRow(t.ID, cell, &row); err != nil {
				return fmt.Errorf("failed to write %s.%s: %w", t.ID, c.ESACode, err)
			}
		}
		if err := f.SetColWidth(t.ID, "C", "C", 60); err != nil {
			return fmt.Errorf("failed to size columns for %s: %w", t.ID, err)
		}
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// ReadDictionary parses a data dictionary workbook into definitions, in the
// order of the index sheet (or sheet order when there is no index).
func ReadDictionary(path string) ([]TemplateDefinition, error) {
	return ReadDictionaryWithLayout(path, DefaultDictionaryColumns())
}

// ReadDictionaryWithLayout is ReadDictionary with a custom column layout.
func ReadDictionaryWithLayout(path string, layout DictionaryColumns) ([]TemplateDefinition, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dictionary file: %w", err)
	}
	defer f.Close()

	meta := map[string]TemplateDefinition{}
	var order []string
	if idx, err := f.GetSheetIndex(indexSheet); err == nil && idx >= 0 {
		rows, err := f.GetRows(indexSheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read index sheet: %w", err)
		}
		for _, row := range rows[min(1, len(rows)):] {
			get := cellGetter(row)
			id := get(0)
			if id == "" {
				continue
			}
			weight, _ := strconv.ParseFloat(get(3), 64)
			meta[id] = TemplateDefinition{
				ID:                id,
				Name:              get(1),
				DBTable:           get(2),
				Weight:            weight,
				OptionalWhenEmpty: parseFlag(get(4)),
			}
			order = append(order, id)
		}
	}
	if len(order) == 0 {
		for _, name := range f.GetSheetList() {
			if !strings.HasPrefix(name, "_") {
				order = append(order, name)
				meta[name] = TemplateDefinition{ID: name}
			}
		}
	}

	defs := make([]TemplateDefinition, 0, len(order))
	for _, id := range order {
		def := meta[id]
		rows, err := f.GetRows(id)
		if err != nil {
			return nil, fmt.Errorf("error reading sheet '%s': %w", id, err)
		}
		for i := layout.DataStartRow; i < len(rows); i++ {
			if isRowEmpty(rows[i]) {
				continue
			}
			c, err := parseColumnRow(rows[i], layout)
			if err != nil {
				return nil, fmt.Errorf("error parsing sheet '%s' row %d: %w", id, i+1, err)
			}
			if c.ESACode == "" {
				continue
			}
			def.Columns = append(def.Columns, c)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func parseColumnRow(row []string, layout DictionaryColumns) (ColumnDefinition, error) {
	get := cellGetter(row)

	c := ColumnDefinition{
		ESACode:     get(layout.ESACode),
		DBColumn:    get(layout.DBColumn),
		Description: get(layout.Description),
		Required:    parseFlag(get(layout.Required)),
		DataType:    DataType(strings.ToLower(get(layout.DataType))),
		Format:      get(layout.Format),
		Key:         parseFlag(get(layout.Key)),
		NonNegative: parseFlag(get(layout.NonNegative)),
		DateRule:    DateRule(get(layout.DateRule)),
		Enumeration: parseEnumeration(get(layout.Enumeration)),
	}
	if c.DataType == "" {
		c.DataType = TypeString
	}
	if ref := get(layout.References); ref != "" {
		i := strings.LastIndexByte(ref, '.')
		if i <= 0 || i == len(ref)-1 {
			return c, fmt.Errorf("invalid reference %q", ref)
		}
		c.References = &ColumnRef{Template: ref[:i], Column: ref[i+1:]}
	}
	return c, nil
}

// Diff compares definitions (typically read from a dictionary) with the
// registry and describes every structural difference. An empty result means
// the two agree.
func Diff(r *Registry, defs []TemplateDefinition) []string {
	var out []string
	seen := map[string]bool{}

	for _, d := range defs {
		seen[d.ID] = true
		t, err := r.Get(d.ID)
		if err != nil {
			out = append(out, fmt.Sprintf("%s: not in registry", d.ID))
			continue
		}
		if d.Name != "" && d.Name != t.Name {
			out = append(out, fmt.Sprintf("%s: name %q, registry has %q", d.ID, d.Name, t.Name))
		}
		if got, want := strings.Join(d.ColumnCodes(), ","), strings.Join(t.ColumnCodes(), ","); got != want {
			out = append(out, fmt.Sprintf("%s: columns [%s], registry has [%s]", d.ID, got, want))
		}
		for _, dc := range d.Columns {
			tc, ok := t.Column(dc.ESACode)
			if !ok {
				continue
			}
			out = append(out, diffColumn(d.ID+"."+dc.ESACode, dc, tc)...)
		}
	}
	for _, id := range r.IDs() {
		if !seen[id] {
			out = append(out, fmt.Sprintf("%s: missing from dictionary", id))
		}
	}
	return out
}

func diffColumn(where string, got, want ColumnDefinition) []string {
	var out []string
	if got.Required != want.Required {
		out = append(out, fmt.Sprintf("%s: required %t, registry has %t", where, got.Required, want.Required))
	}
	if got.DataType != want.DataType {
		out = append(out, fmt.Sprintf("%s: data type %s, registry has %s", where, got.DataType, want.DataType))
	}
	if refString(got.References) != refString(want.References) {
		out = append(out, fmt.Sprintf("%s: references %q, registry has %q", where, refString(got.References), refString(want.References)))
	}
	if want.DataType == TypeEnum {
		added, removed := diffKeys(got.Enumeration, want.Enumeration)
		if len(added) > 0 {
			out = append(out, fmt.Sprintf("%s: codes not in registry: %s", where, strings.Join(added, ", ")))
		}
		if len(removed) > 0 {
			out = append(out, fmt.Sprintf("%s: registry codes missing: %s", where, strings.Join(removed, ", ")))
		}
	}
	return out
}

// =============================================================================
// HELPERS
// =============================================================================

func cellGetter(row []string) func(int) string {
	return func(index int) string {
		if index >= 0 && index < len(row) {
			return strings.TrimSpace(row[index])
		}
		return ""
	}
}

func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return ""
}

func parseFlag(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "yes", "y", "true", "1", "x", "required", "mandatory":
		return true
	}
	return false
}

func formatEnumeration(m map[string]string) string {
	if len(m) == 0 {
		return ""
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = k + "=" + m[k]
	}
	return strings.Join(lines, "\n")
}

func parseEnumeration(s string) map[string]string {
	if s == "" {
		return nil
	}
	m := map[string]string{}
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		code, label, _ := strings.Cut(line, "=")
		m[strings.TrimSpace(code)] = strings.TrimSpace(label)
	}
	return m
}

func refString(r *ColumnRef) string {
	if r == nil {
		return ""
	}
	return r.String()
}

func diffKeys(got, want map[string]string) (added, removed []string) {
	for k := range got {
		if _, ok := want[k]; !ok {
			added = append(added, k)
		}
	}
	for k := range want {
		if _, ok := got[k]; !ok {
			removed = append(removed, k)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	return added, removed
}
