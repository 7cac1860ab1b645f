// =============================================================================
// DORA Register of Information - Validation Engine
// =============================================================================
//
// This module validates a complete snapshot of mapped template rows before
// it may be packaged for submission.
//
// VALIDATION STRATEGY:
//   Validation is performed at three levels:
//   1. Package-level: the reporting parameters (LEI, date, currency)
//   2. Cell-level: every column of every row against its registry
//      definition (required, enumeration, number, date, boolean, LEI)
//   3. Cross-template: key uniqueness and referential integrity between
//      templates, resolved through one index built per run
//
// ERROR HANDLING:
//   - Findings are collected, never returned as Go errors
//   - Each finding names the template, row, column and offending value
//   - Only error severity blocks a package; warnings are informational
//
// Validation is single-threaded. The reference index must see the whole
// snapshot, so callers fetch everything first and validate afterwards.
//
// =============================================================================

package validation

import (
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/shopspring/decimal"

	"github.com/FedericoTs/dora-comply/internal/params"
	"github.com/FedericoTs/dora-comply/internal/registry"
	"github.com/FedericoTs/dora-comply/internal/types"
)

// =============================================================================
// VALIDATOR
// =============================================================================

// Validator checks template data against a registry.
type Validator struct {
	registry *registry.Registry
	logger   *slog.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithLogger sets the logger used for per-template summaries.
func WithLogger(l *slog.Logger) Option {
	return func(v *Validator) { v.logger = l }
}

// New creates a Validator for the given registry.
func New(reg *registry.Registry, opts ...Option) *Validator {
	v := &Validator{
		registry: reg,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// =============================================================================
// MAIN VALIDATION FUNCTION
// =============================================================================

// Validate checks every template of the registry against data.
//
// PARAMETERS:
//   - data:   mapped rows keyed by template ID. Templates missing from the
//     map are validated as having zero rows.
//   - p:      the reporting parameters of the submission.
//
// RETURNS:
//   - The package result, even when it is invalid.
//   - *registry.UnknownTemplateError if data holds rows for a template the
//     registry does not define.
func (v *Validator) Validate(data types.TemplateData, p types.ReportingParameters) (*PackageResult, error) {
	for id := range data {
		if !v.registry.Has(id) {
			return nil, &registry.UnknownTemplateError{TemplateID: id}
		}
	}

	result := &PackageResult{
		IsValid:              true,
		CrossReferencesValid: true,
	}

	check := params.ValidateParameters(p)
	for _, msg := range check.Errors {
		result.PackageErrors = append(result.PackageErrors, types.ValidationError{
			RowIndex: types.PackageLevel,
			Code:     types.CodeParametersInvalid,
			Severity: types.SeverityError,
			Message:  msg,
		})
	}

	dates := v.dateBounds(p.ReportingDate)
	index := buildIndex(v.registry, data)

	for _, def := range v.registry.Templates() {
		rows := data[def.ID]
		tr := TemplateResult{
			TemplateID:   def.ID,
			RowCount:     len(rows),
			Errors:       make([]types.ValidationError, 0),
			Completeness: completeness(def, rows),
		}

		for i, row := range rows {
			for _, col := range def.Columns {
				tr.Errors = append(tr.Errors, checkCell(def.ID, i, col, row[col.ESACode], dates)...)
			}
		}
		tr.Errors = append(tr.Errors, duplicateKeys(def, rows)...)

		dangling := index.resolve(def, rows)
		if len(dangling) > 0 {
			result.CrossReferencesValid = false
			tr.Errors = append(tr.Errors, dangling...)
		}

		tr.IsValid = tr.ErrorCount() == 0
		v.logger.Debug("validated template",
			slog.String("template", def.ID),
			slog.Int("rows", tr.RowCount),
			slog.Int("errors", tr.ErrorCount()),
			slog.Int("warnings", tr.WarningCount()))

		result.Templates = append(result.Templates, tr)
	}

	result.OverallScore = overallScore(v.registry, result.Templates)
	result.recount()
	return result, nil
}

// =============================================================================
// CELL CHECKS
// =============================================================================

var numberPattern = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?$`)

// dateBounds is the plausible window for date cells. reference is zero when
// the reporting date itself is invalid; only the lower bound applies then.
type dateBounds struct {
	earliest  time.Time
	latest    time.Time
	reference time.Time
}

func (v *Validator) dateBounds(reportingDate string) dateBounds {
	w := v.registry.DateWindow()
	b := dateBounds{earliest: w.Earliest}
	if ref, err := params.ParseDate(reportingDate); err == nil {
		b.reference = ref
		b.latest = ref.AddDate(w.YearsAhead, 0, 0)
	}
	return b
}

// checkCell validates one cell. An empty optional cell is always valid.
func checkCell(templateID string, row int, col registry.ColumnDefinition, value string, dates dateBounds) []types.ValidationError {
	finding := func(code, severity, msg string) types.ValidationError {
		return types.ValidationError{
			TemplateID: templateID,
			RowIndex:   row,
			ESACode:    col.ESACode,
			Code:       code,
			Severity:   severity,
			Message:    msg,
			Value:      value,
		}
	}

	if value == "" {
		if col.Required {
			return []types.ValidationError{finding(types.CodeRequiredMissing, types.SeverityError,
				fmt.Sprintf("required column %s (%s) is empty", col.ESACode, col.Description))}
		}
		return nil
	}

	var out []types.ValidationError
	switch col.DataType {
	case registry.TypeEnum:
		if _, ok := col.Enumeration[value]; !ok {
			out = append(out, finding(types.CodeEnumInvalid, types.SeverityError,
				fmt.Sprintf("value is not an allowed code for %s", col.ESACode)))
		}

	case registry.TypeNumber:
		if !numberPattern.MatchString(value) {
			out = append(out, finding(types.CodeNumberInvalid, types.SeverityError,
				"value is not a number"))
			break
		}
		if col.NonNegative {
			if d, err := decimal.NewFromString(value); err == nil && d.IsNegative() {
				out = append(out, finding(types.CodeNumberNegative, types.SeverityWarning,
					"value is negative"))
			}
		}

	case registry.TypeDate:
		t, err := time.Parse(time.DateOnly, value)
		if err != nil {
			out = append(out, finding(types.CodeDateInvalid, types.SeverityError,
				"value is not a YYYY-MM-DD date"))
			break
		}
		if msg := dates.check(t, col.DateRule); msg != "" {
			out = append(out, finding(types.CodeDateOutOfRange, types.SeverityWarning, msg))
		}

	case registry.TypeBoolean:
		if value != "true" && value != "false" {
			out = append(out, finding(types.CodeBooleanInvalid, types.SeverityError,
				`value must be "true" or "false"`))
		}
	}

	if col.Format == registry.FormatLEI && !params.ValidLEI(value) {
		out = append(out, finding(types.CodeLEIInvalid, types.SeverityError,
			"value is not a valid LEI"))
	}
	return out
}

func (b dateBounds) check(t time.Time, rule registry.DateRule) string {
	if t.Before(b.earliest) {
		return fmt.Sprintf("date is before %s", b.earliest.Format(time.DateOnly))
	}
	if b.reference.IsZero() {
		return ""
	}
	if rule == registry.DateNotAfterReference && t.After(b.reference) {
		return fmt.Sprintf("date is after the reporting date %s", b.reference.Format(time.DateOnly))
	}
	if t.After(b.latest) {
		return fmt.Sprintf("date is after %s", b.latest.Format(time.DateOnly))
	}
	return ""
}

// duplicateKeys flags every repeat of a value in the template's key column.
func duplicateKeys(def registry.TemplateDefinition, rows []types.TemplateRow) []types.ValidationError {
	key, ok := def.KeyColumn()
	if !ok {
		return nil
	}
	first := make(map[string]int, len(rows))
	var out []types.ValidationError
	for i, row := range rows {
		value := row[key.ESACode]
		if value == "" {
			continue
		}
		if prev, seen := first[value]; seen {
			out = append(out, types.ValidationError{
				TemplateID: def.ID,
				RowIndex:   i,
				ESACode:    key.ESACode,
				Code:       types.CodeDuplicateKey,
				Severity:   types.SeverityError,
				Message:    fmt.Sprintf("key already used by row %d", prev+1),
				Value:      value,
			})
			continue
		}
		first[value] = i
	}
	return out
}

// =============================================================================
// COMPLETENESS
// =============================================================================

// completeness is the share of filled required cells, as a percentage.
func completeness(def registry.TemplateDefinition, rows []types.TemplateRow) float64 {
	if len(rows) == 0 {
		if def.OptionalWhenEmpty {
			return 100
		}
		return 0
	}
	required := def.RequiredColumns()
	if required == 0 {
		return 100
	}

	filled := 0
	for _, row := range rows {
		for _, col := range def.Columns {
			if col.Required && row[col.ESACode] != "" {
				filled++
			}
		}
	}
	return float64(filled) / float64(required*len(rows)) * 100
}

// overallScore is the weighted mean completeness. Optional templates with no
// rows are left out entirely.
func overallScore(reg *registry.Registry, templates []TemplateResult) float64 {
	var sum, weights float64
	for _, tr := range templates {
		def, err := reg.Get(tr.TemplateID)
		if err != nil {
			continue
		}
		if def.OptionalWhenEmpty && tr.RowCount == 0 {
			continue
		}
		sum += def.Weight * tr.Completeness
		weights += def.Weight
	}
	if weights == 0 {
		return 100
	}
	return sum / weights
}
