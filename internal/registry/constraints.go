package registry

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// CONSTRAINT OVERRIDES
// =============================================================================
//
// Thresholds used by the validator (which numeric columns must be
// non-negative, which dates may not lie after the reporting date, the
// plausible date window, template weights) are registry data. A deployment
// can adjust them with a YAML file instead of changing validator code:
//
//   date_window:
//     earliest: "1950-01-01"
//     years_ahead: 30
//   templates:
//     B_06.01:
//       weight: 3
//       columns:
//         c0080: { non_negative: false }
//         c0070: { date_rule: not_after_reference }
//
// =============================================================================

// Constraints is the YAML override document.
type Constraints struct {
	DateWindow *DateWindowOverride           `yaml:"date_window"`
	Templates  map[string]TemplateConstraint `yaml:"templates"`
}

// DateWindowOverride adjusts the plausible date window.
type DateWindowOverride struct {
	Earliest   string `yaml:"earliest"`
	YearsAhead *int   `yaml:"years_ahead"`
}

// TemplateConstraint adjusts one template.
type TemplateConstraint struct {
	Weight            *float64                    `yaml:"weight"`
	OptionalWhenEmpty *bool                       `yaml:"optional_when_empty"`
	Columns           map[string]ColumnConstraint `yaml:"columns"`
}

// ColumnConstraint adjusts one column.
type ColumnConstraint struct {
	NonNegative *bool     `yaml:"non_negative"`
	DateRule    *DateRule `yaml:"date_rule"`
	Required    *bool     `yaml:"required"`
}

// LoadConstraints reads a constraints override file.
func LoadConstraints(path string) (*Constraints, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read constraints file: %w", err)
	}
	return ParseConstraints(data)
}

// ParseConstraints decodes a constraints override document.
func ParseConstraints(data []byte) (*Constraints, error) {
	var c Constraints
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse constraints: %w", err)
	}
	return &c, nil
}

// WithConstraints returns a new registry with the overrides applied. The
// receiver is left untouched. Unknown templates or columns are errors so a
// typo in the override file does not silently do nothing.
func (r *Registry) WithConstraints(c *Constraints) (*Registry, error) {
	if c == nil {
		return r, nil
	}

	defs := r.Templates()
	for i := range defs {
		defs[i].Columns = append([]ColumnDefinition(nil), defs[i].Columns...)
	}

	for id, tc := range c.Templates {
		i, ok := r.index[id]
		if !ok {
			return nil, &UnknownTemplateError{TemplateID: id}
		}
		def := &defs[i]
		if tc.Weight != nil {
			def.Weight = *tc.Weight
		}
		if tc.OptionalWhenEmpty != nil {
			def.OptionalWhenEmpty = *tc.OptionalWhenEmpty
		}
		for code, cc := range tc.Columns {
			j := columnIndex(*def, code)
			if j < 0 {
				return nil, fmt.Errorf("constraints: %s has no column %s", id, code)
			}
			column := &def.Columns[j]
			if cc.NonNegative != nil {
				column.NonNegative = *cc.NonNegative
			}
			if cc.Required != nil {
				column.Required = *cc.Required
			}
			if cc.DateRule != nil {
				switch *cc.DateRule {
				case DateAny, DateNotAfterReference:
					column.DateRule = *cc.DateRule
				default:
					return nil, fmt.Errorf("constraints: %s.%s: unknown date rule %q", id, code, *cc.DateRule)
				}
			}
		}
	}

	out, err := New(r.version, defs...)
	if err != nil {
		return nil, err
	}
	out.window = r.window

	if w := c.DateWindow; w != nil {
		if w.Earliest != "" {
			t, err := time.Parse(time.DateOnly, w.Earliest)
			if err != nil {
				return nil, fmt.Errorf("constraints: invalid earliest date: %w", err)
			}
			out.window.Earliest = t
		}
		if w.YearsAhead != nil {
			if *w.YearsAhead < 0 {
				return nil, fmt.Errorf("constraints: years_ahead must not be negative")
			}
			out.window.YearsAhead = *w.YearsAhead
		}
	}
	return out, nil
}

func columnIndex(def TemplateDefinition, code string) int {
	for i, c := range def.Columns {
		if c.ESACode == code {
			return i
		}
	}
	return -1
}
