// =============================================================================
// DORA Register of Information - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - mapper
//   - validation
//   - enhancer
//   - packager
//   - pipeline
//
// =============================================================================

package types

import (
	"fmt"
	"strings"
)

// =============================================================================
// TEMPLATE ROWS
// =============================================================================

// TemplateRow is one output row keyed by ESA column code (e.g. "c0010").
// Every column of the template is present; "" is the explicit empty value.
type TemplateRow map[string]string

// Clone returns an independent copy of the row.
func (r TemplateRow) Clone() TemplateRow {
	out := make(TemplateRow, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// TemplateData is a complete snapshot of mapped rows, keyed by template ID.
type TemplateData map[string][]TemplateRow

// RowCount returns the total number of rows across all templates.
func (d TemplateData) RowCount() int {
	n := 0
	for _, rows := range d {
		n += len(rows)
	}
	return n
}

// =============================================================================
// REPORTING PARAMETERS
// =============================================================================

// ReportingParameters is the per-submission metadata. It is treated as
// immutable once an export has started.
type ReportingParameters struct {
	// EntityLEI is the 20 character Legal Entity Identifier of the
	// reporting entity.
	EntityLEI string `json:"entityLei"`

	// ReportingDate is the reference date in YYYY-MM-DD form.
	ReportingDate string `json:"reportingDate"`

	// BaseCurrency is the ISO 4217 code amounts are reported in.
	BaseCurrency string `json:"baseCurrency"`

	// EntityName is informational and never written to the package.
	EntityName string `json:"entityName,omitempty"`
}

// =============================================================================
// VALIDATION FINDINGS
// =============================================================================

// Severity levels. Only SeverityError blocks a package.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Finding codes emitted by the validator.
const (
	CodeRequiredMissing   = "required_missing"
	CodeEnumInvalid       = "enum_invalid"
	CodeNumberInvalid     = "number_invalid"
	CodeNumberNegative    = "number_negative"
	CodeDateInvalid       = "date_invalid"
	CodeDateOutOfRange    = "date_out_of_range"
	CodeBooleanInvalid    = "boolean_invalid"
	CodeLEIInvalid        = "lei_invalid"
	CodeDuplicateKey      = "duplicate_key"
	CodeReferenceDangling = "reference_dangling"
	CodeParametersInvalid = "parameters_invalid"
)

// PackageLevel is the RowIndex used for findings not tied to a single row.
const PackageLevel = -1

// ValidationError is one finding about a cell, row, template or the
// whole package. It is data, not a Go error: a failing validation run still
// returns a nil error.
type ValidationError struct {
	// TemplateID is the ESA template code, empty for package level findings.
	TemplateID string `json:"templateId,omitempty"`

	// RowIndex is the 0-based row position, or PackageLevel.
	RowIndex int `json:"rowIndex"`

	// ESACode is the offending column, empty for row level findings.
	ESACode string `json:"column,omitempty"`

	// Code is a stable machine-readable finding code.
	Code string `json:"code"`

	// Severity is SeverityError or SeverityWarning.
	Severity string `json:"severity"`

	// Message is a human-readable description.
	Message string `json:"message"`

	// Value is the offending cell value, if any.
	Value string `json:"value,omitempty"`

	// Suggestion is filled in by the enhancer.
	Suggestion string `json:"suggestion,omitempty"`
}

// IsError reports whether the finding blocks a package.
func (e ValidationError) IsError() bool {
	return e.Severity == SeverityError
}

// String renders the finding on one line for logs and error files.
func (e ValidationError) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", strings.ToUpper(e.Severity), e.Code)
	if e.TemplateID != "" {
		fmt.Fprintf(&b, " %s", e.TemplateID)
		if e.RowIndex != PackageLevel {
			fmt.Fprintf(&b, " row %d", e.RowIndex+1)
		}
		if e.ESACode != "" {
			fmt.Fprintf(&b, " %s", e.ESACode)
		}
	}
	fmt.Fprintf(&b, ": %s", e.Message)
	if e.Value != "" {
		fmt.Fprintf(&b, " (value: '%s')", e.Value)
	}
	return b.String()
}
