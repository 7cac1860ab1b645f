package validation

import (
	"math"
	"sort"

	"github.com/FedericoTs/dora-comply/internal/types"
)

// =============================================================================
// VALIDATION RESULTS
// =============================================================================

// DefaultTopErrors is the number of findings kept in a report.
const DefaultTopErrors = 20

// TemplateResult holds the findings for one template.
type TemplateResult struct {
	TemplateID string `json:"templateId"`
	RowCount   int    `json:"rowCount"`

	// IsValid is true when the template has no error findings.
	IsValid bool `json:"isValid"`

	// Errors contains all findings, warnings included, in row order.
	Errors []types.ValidationError `json:"errors"`

	// Completeness is the share of filled required cells, 0 to 100.
	Completeness float64 `json:"completeness"`
}

// ErrorCount is the number of error findings.
func (r TemplateResult) ErrorCount() int {
	n := 0
	for _, e := range r.Errors {
		if e.IsError() {
			n++
		}
	}
	return n
}

// WarningCount is the number of warning findings.
func (r TemplateResult) WarningCount() int {
	return len(r.Errors) - r.ErrorCount()
}

// PackageResult aggregates the results of one validation run.
type PackageResult struct {
	IsValid              bool                    `json:"isValid"`
	OverallScore         float64                 `json:"overallScore"`
	TotalErrors          int                     `json:"totalErrors"`
	TotalWarnings        int                     `json:"totalWarnings"`
	Templates            []TemplateResult        `json:"templates"`
	PackageErrors        []types.ValidationError `json:"packageErrors,omitempty"`
	CrossReferencesValid bool                    `json:"crossReferencesValid"`
}

// Template returns the result for one template.
func (r *PackageResult) Template(id string) (TemplateResult, bool) {
	for _, tr := range r.Templates {
		if tr.TemplateID == id {
			return tr, true
		}
	}
	return TemplateResult{}, false
}

// Findings returns every finding: package level first, then templates in
// registry order.
func (r *PackageResult) Findings() []types.ValidationError {
	out := make([]types.ValidationError, 0, r.TotalErrors+r.TotalWarnings)
	out = append(out, r.PackageErrors...)
	for _, tr := range r.Templates {
		out = append(out, tr.Errors...)
	}
	return out
}

// Enhance rewrites every finding list through fn, which must return a list
// of the same length. It is how suggestions get attached after validation.
func (r *PackageResult) Enhance(fn func([]types.ValidationError) []types.ValidationError) {
	if len(r.PackageErrors) > 0 {
		r.PackageErrors = fn(r.PackageErrors)
	}
	for i := range r.Templates {
		if len(r.Templates[i].Errors) > 0 {
			r.Templates[i].Errors = fn(r.Templates[i].Errors)
		}
	}
}

// recount refreshes the totals and the validity flag.
func (r *PackageResult) recount() {
	r.TotalErrors, r.TotalWarnings = 0, 0
	for _, e := range r.PackageErrors {
		if e.IsError() {
			r.TotalErrors++
		} else {
			r.TotalWarnings++
		}
	}
	for _, tr := range r.Templates {
		r.TotalErrors += tr.ErrorCount()
		r.TotalWarnings += tr.WarningCount()
	}
	r.IsValid = r.TotalErrors == 0 && r.CrossReferencesValid
}

// =============================================================================
// REPORT
// =============================================================================

// Report is the JSON validation report returned to callers.
type Report struct {
	IsValid         bool                    `json:"isValid"`
	OverallScore    float64                 `json:"overallScore"`
	TotalErrors     int                     `json:"totalErrors"`
	TotalWarnings   int                     `json:"totalWarnings"`
	TemplateSummary []TemplateSummary       `json:"templateSummary"`
	TopErrors       []types.ValidationError `json:"topErrors"`
}

// TemplateSummary is one line of the report's template table.
type TemplateSummary struct {
	TemplateID   string  `json:"templateId"`
	RowCount     int     `json:"rowCount"`
	IsValid      bool    `json:"isValid"`
	ErrorCount   int     `json:"errorCount"`
	WarningCount int     `json:"warningCount"`
	Completeness float64 `json:"completeness"`
}

// Report builds the summary report. topErrors holds at most limit findings,
// errors before warnings, otherwise in discovery order. limit <= 0 selects
// DefaultTopErrors.
func (r *PackageResult) Report(limit int) Report {
	if limit <= 0 {
		limit = DefaultTopErrors
	}

	rep := Report{
		IsValid:         r.IsValid,
		OverallScore:    round2(r.OverallScore),
		TotalErrors:     r.TotalErrors,
		TotalWarnings:   r.TotalWarnings,
		TemplateSummary: make([]TemplateSummary, 0, len(r.Templates)),
	}
	for _, tr := range r.Templates {
		rep.TemplateSummary = append(rep.TemplateSummary, TemplateSummary{
			TemplateID:   tr.TemplateID,
			RowCount:     tr.RowCount,
			IsValid:      tr.IsValid,
			ErrorCount:   tr.ErrorCount(),
			WarningCount: tr.WarningCount(),
			Completeness: round2(tr.Completeness),
		})
	}

	top := r.Findings()
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].IsError() && !top[j].IsError()
	})
	rep.TopErrors = top[:min(limit, len(top))]
	return rep
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
