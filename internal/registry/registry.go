// =============================================================================
// DORA Register of Information - Template Registry
// =============================================================================
//
// The registry is the single source of truth for the structure of every RoI
// template: its ESA code, its ordered columns, the internal field each column
// is read from, its data type, allowed code values and cross-template
// references. Every other stage (mapper, validator, packager) is driven by
// this data; none of them hard-code template knowledge.
//
// ARCHITECTURE:
//   - registry.go    : types, lookup, structural checks
//   - templates.go   : the built-in template table
//   - codelists.go   : ESA code lists (countries, currencies, ...)
//   - constraints.go : numeric/date constraints and YAML overrides
//   - dictionary.go  : XLSX data dictionary export and import
//
// A Registry is immutable after construction and safe for concurrent use.
//
// =============================================================================

package registry

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// =============================================================================
// COLUMN AND TEMPLATE DEFINITIONS
// =============================================================================

// DataType is the declared type of a column's values.
type DataType string

const (
	TypeString  DataType = "string"
	TypeNumber  DataType = "number"
	TypeBoolean DataType = "boolean"
	TypeDate    DataType = "date"
	TypeEnum    DataType = "enum"
)

// Valid reports whether t is one of the known data types.
func (t DataType) Valid() bool {
	switch t {
	case TypeString, TypeNumber, TypeBoolean, TypeDate, TypeEnum:
		return true
	}
	return false
}

// FormatLEI marks a string column holding a Legal Entity Identifier.
const FormatLEI = "lei"

// DateRule is an extra bound applied to a date column.
type DateRule string

const (
	// DateAny only applies the registry's plausible date window.
	DateAny DateRule = ""

	// DateNotAfterReference flags dates after the reporting date.
	DateNotAfterReference DateRule = "not_after_reference"
)

// ColumnRef points at the key column of another template.
type ColumnRef struct {
	Template string `json:"template" yaml:"template"`
	Column   string `json:"column" yaml:"column"`
}

// String renders the reference as TEMPLATE.column.
func (r ColumnRef) String() string {
	return r.Template + "." + r.Column
}

// ColumnDefinition describes one output column of a template.
type ColumnDefinition struct {
	// ESACode is the column code in the ESA taxonomy, e.g. "c0010".
	ESACode string `json:"esaCode"`

	// DBColumn is the internal field the value is read from.
	DBColumn string `json:"dbColumn"`

	// DBTable overrides the template's table for this column. Informational.
	DBTable string `json:"dbTable,omitempty"`

	// Description is the ESA label of the column.
	Description string `json:"description"`

	// Required columns must be non-empty in every row.
	Required bool `json:"required"`

	// DataType drives both mapping coercion and validation.
	DataType DataType `json:"dataType"`

	// Enumeration maps ESA code to display label. Required for enum columns.
	Enumeration map[string]string `json:"enumeration,omitempty"`

	// Translations maps internal codes to ESA codes for enum columns.
	Translations map[string]string `json:"translations,omitempty"`

	// Format is an additional string format, currently only FormatLEI.
	Format string `json:"format,omitempty"`

	// Key marks the identifying column other templates may reference.
	Key bool `json:"key,omitempty"`

	// References is set when the value must exist in another template.
	References *ColumnRef `json:"references,omitempty"`

	// NonNegative flags negative numbers as warnings.
	NonNegative bool `json:"nonNegative,omitempty"`

	// DateRule adds a bound on top of the plausible date window.
	DateRule DateRule `json:"dateRule,omitempty"`
}

// TemplateDefinition describes one RoI template.
type TemplateDefinition struct {
	// ID is the ESA template code, e.g. "B_01.01".
	ID string `json:"id"`

	// Name is the human-readable title of the template.
	Name string `json:"name"`

	// DBTable is the internal table or view rows are fetched from.
	DBTable string `json:"dbTable"`

	// Columns is the ordered column list. CSV column order comes from here.
	Columns []ColumnDefinition `json:"columns"`

	// OptionalWhenEmpty templates score 100 when they have no rows and are
	// left out of the weighted overall score.
	OptionalWhenEmpty bool `json:"optionalWhenEmpty"`

	// Weight is the template's share in the weighted overall score.
	Weight float64 `json:"weight"`
}

// Column returns the column with the given ESA code.
func (t TemplateDefinition) Column(code string) (ColumnDefinition, bool) {
	for _, c := range t.Columns {
		if c.ESACode == code {
			return c, true
		}
	}
	return ColumnDefinition{}, false
}

// KeyColumn returns the template's key column, if it has one.
func (t TemplateDefinition) KeyColumn() (ColumnDefinition, bool) {
	for _, c := range t.Columns {
		if c.Key {
			return c, true
		}
	}
	return ColumnDefinition{}, false
}

// ColumnCodes returns the ESA codes in declared order.
func (t TemplateDefinition) ColumnCodes() []string {
	codes := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		codes[i] = c.ESACode
	}
	return codes
}

// RequiredColumns returns the number of required columns.
func (t TemplateDefinition) RequiredColumns() int {
	n := 0
	for _, c := range t.Columns {
		if c.Required {
			n++
		}
	}
	return n
}

// FileName returns the CSV file name of the template inside a package:
// the ESA code with "." replaced by "_", e.g. "B_01_01.csv".
func (t TemplateDefinition) FileName() string {
	return FileName(t.ID)
}

// FileName converts a template ID to its CSV file name.
func FileName(templateID string) string {
	return strings.ReplaceAll(templateID, ".", "_") + ".csv"
}

// =============================================================================
// ERRORS
// =============================================================================

// UnknownTemplateError is returned when a template ID is not registered.
type UnknownTemplateError struct {
	TemplateID string
}

func (e *UnknownTemplateError) Error() string {
	return fmt.Sprintf("unknown template %q", e.TemplateID)
}

// =============================================================================
// REGISTRY
// =============================================================================

// DateWindow bounds the dates considered plausible.
type DateWindow struct {
	// Earliest is the first accepted date.
	Earliest time.Time

	// YearsAhead is how far past the reporting date a date may lie.
	YearsAhead int
}

// DefaultDateWindow accepts 1900-01-01 up to fifty years past the
// reporting date.
func DefaultDateWindow() DateWindow {
	return DateWindow{
		Earliest:   time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC),
		YearsAhead: 50,
	}
}

// Registry is an immutable, ordered set of template definitions.
type Registry struct {
	version   string
	templates []TemplateDefinition
	index     map[string]int
	window    DateWindow
}

// New builds a registry from definitions in the given order and checks it.
func New(version string, defs ...TemplateDefinition) (*Registry, error) {
	r := &Registry{
		version:   version,
		templates: make([]TemplateDefinition, 0, len(defs)),
		index:     make(map[string]int, len(defs)),
		window:    DefaultDateWindow(),
	}

	for _, def := range defs {
		if _, dup := r.index[def.ID]; dup {
			return nil, fmt.Errorf("duplicate template %q", def.ID)
		}
		r.index[def.ID] = len(r.templates)
		r.templates = append(r.templates, def)
	}

	if err := r.Check(); err != nil {
		return nil, err
	}
	return r, nil
}

// MustNew is New that panics on error. For static tables only.
func MustNew(version string, defs ...TemplateDefinition) *Registry {
	r, err := New(version, defs...)
	if err != nil {
		panic(err)
	}
	return r
}

// Check verifies the structural invariants of the registry:
//   - every template has an ID and at least one column
//   - column codes are unique within a template
//   - every data type is known and enum columns carry an enumeration
//   - at most one key column per template
//   - references point at the key column of a registered template
func (r *Registry) Check() error {
	var problems []string

	for _, t := range r.templates {
		if t.ID == "" {
			problems = append(problems, "template with empty ID")
			continue
		}
		if len(t.Columns) == 0 {
			problems = append(problems, fmt.Sprintf("%s: no columns", t.ID))
		}
		if t.Weight < 0 {
			problems = append(problems, fmt.Sprintf("%s: negative weight", t.ID))
		}

		seen := make(map[string]bool, len(t.Columns))
		keys := 0
		for _, c := range t.Columns {
			where := t.ID + "." + c.ESACode
			if c.ESACode == "" {
				problems = append(problems, fmt.Sprintf("%s: column with empty code", t.ID))
				continue
			}
			if seen[c.ESACode] {
				problems = append(problems, fmt.Sprintf("%s: duplicate column", where))
			}
			seen[c.ESACode] = true

			if !c.DataType.Valid() {
				problems = append(problems, fmt.Sprintf("%s: unknown data type %q", where, c.DataType))
			}
			if c.DataType == TypeEnum && len(c.Enumeration) == 0 {
				problems = append(problems, fmt.Sprintf("%s: enum column without enumeration", where))
			}
			if c.Key {
				keys++
			}
		}
		if keys > 1 {
			problems = append(problems, fmt.Sprintf("%s: more than one key column", t.ID))
		}
	}

	for _, t := range r.templates {
		for _, c := range t.Columns {
			if c.References == nil {
				continue
			}
			where := t.ID + "." + c.ESACode
			target, ok := r.lookup(c.References.Template)
			if !ok {
				problems = append(problems, fmt.Sprintf("%s: references unknown template %s", where, c.References.Template))
				continue
			}
			key, ok := target.KeyColumn()
			if !ok || key.ESACode != c.References.Column {
				problems = append(problems, fmt.Sprintf("%s: references %s which is not a key column", where, c.References))
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid registry: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (r *Registry) lookup(id string) (TemplateDefinition, bool) {
	i, ok := r.index[id]
	if !ok {
		return TemplateDefinition{}, false
	}
	return r.templates[i], true
}

// Version returns the taxonomy version the registry describes.
func (r *Registry) Version() string {
	return r.version
}

// DateWindow returns the plausible date window.
func (r *Registry) DateWindow() DateWindow {
	return r.window
}

// Get returns the definition of a template.
func (r *Registry) Get(id string) (TemplateDefinition, error) {
	t, ok := r.lookup(id)
	if !ok {
		return TemplateDefinition{}, &UnknownTemplateError{TemplateID: id}
	}
	return t, nil
}

// Has reports whether a template is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.index[id]
	return ok
}

// Templates returns all definitions in declared order. The slice is a copy.
func (r *Registry) Templates() []TemplateDefinition {
	out := make([]TemplateDefinition, len(r.templates))
	copy(out, r.templates)
	return out
}

// IDs returns all template IDs in declared order.
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.templates))
	for i, t := range r.templates {
		ids[i] = t.ID
	}
	return ids
}

// Len returns the number of templates.
func (r *Registry) Len() int {
	return len(r.templates)
}

// =============================================================================
// DEFAULT REGISTRY
// =============================================================================

// TaxonomyVersion is the ESA RoI taxonomy version of the built-in registry.
const TaxonomyVersion = "4.0"

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the built-in registry of the fifteen RoI templates.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultReg = MustNew(TaxonomyVersion, builtinTemplates()...)
	})
	return defaultReg
}

// GetTemplateDefinition looks a template up in the default registry.
func GetTemplateDefinition(id string) (TemplateDefinition, error) {
	return Default().Get(id)
}
