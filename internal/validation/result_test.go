package validation

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FedericoTs/dora-comply/internal/types"
)

func finding(template string, row int, severity string) types.ValidationError {
	return types.ValidationError{
		TemplateID: template,
		RowIndex:   row,
		Code:       fmt.Sprintf("%s-%d", template, row),
		Severity:   severity,
	}
}

func sampleResult() *PackageResult {
	r := &PackageResult{
		CrossReferencesValid: true,
		OverallScore:         87.654321,
		Templates: []TemplateResult{
			{
				TemplateID: "T_01.01",
				RowCount:   3,
				Errors: []types.ValidationError{
					finding("T_01.01", 0, types.SeverityWarning),
					finding("T_01.01", 1, types.SeverityError),
					finding("T_01.01", 2, types.SeverityWarning),
				},
				Completeness: 66.666666,
			},
			{
				TemplateID: "T_02.01",
				RowCount:   2,
				IsValid:    false,
				Errors: []types.ValidationError{
					finding("T_02.01", 0, types.SeverityError),
					finding("T_02.01", 1, types.SeverityWarning),
				},
				Completeness: 100,
			},
		},
	}
	r.recount()
	return r
}

func TestReport_TopErrorsOrderedAndStable(t *testing.T) {
	rep := sampleResult().Report(0)

	codes := make([]string, len(rep.TopErrors))
	for i, e := range rep.TopErrors {
		codes[i] = e.Code
	}
	assert.Equal(t, []string{
		"T_01.01-1", "T_02.01-0",
		"T_01.01-0", "T_01.01-2", "T_02.01-1",
	}, codes)
}

func TestReport_Cap(t *testing.T) {
	tests := []struct {
		limit int
		want  int
	}{
		{limit: 1, want: 1},
		{limit: 3, want: 3},
		{limit: 100, want: 5},
		{limit: -1, want: 5},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.limit), func(t *testing.T) {
			rep := sampleResult().Report(tt.limit)
			require.Len(t, rep.TopErrors, tt.want)
			assert.Equal(t, types.SeverityError, rep.TopErrors[0].Severity)
		})
	}
}

func TestReport_Summary(t *testing.T) {
	rep := sampleResult().Report(DefaultTopErrors)

	assert.False(t, rep.IsValid)
	assert.Equal(t, 2, rep.TotalErrors)
	assert.Equal(t, 3, rep.TotalWarnings)
	assert.Equal(t, 87.65, rep.OverallScore)
	require.Len(t, rep.TemplateSummary, 2)
	assert.Equal(t, TemplateSummary{
		TemplateID:   "T_01.01",
		RowCount:     3,
		IsValid:      false,
		ErrorCount:   1,
		WarningCount: 2,
		Completeness: 66.67,
	}, rep.TemplateSummary[0])
}

func TestReport_JSONShape(t *testing.T) {
	r := &PackageResult{CrossReferencesValid: true, OverallScore: 100}
	r.recount()

	raw, err := json.Marshal(r.Report(DefaultTopErrors))
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"isValid": true,
		"overallScore": 100,
		"totalErrors": 0,
		"totalWarnings": 0,
		"templateSummary": [],
		"topErrors": []
	}`, string(raw))
}

func TestPackageResult_Enhance(t *testing.T) {
	r := sampleResult()
	r.PackageErrors = []types.ValidationError{{RowIndex: types.PackageLevel, Severity: types.SeverityError}}

	r.Enhance(func(errs []types.ValidationError) []types.ValidationError {
		out := make([]types.ValidationError, len(errs))
		for i, e := range errs {
			e.Suggestion = "fix it"
			out[i] = e
		}
		return out
	})

	for _, f := range r.Findings() {
		assert.Equal(t, "fix it", f.Suggestion)
	}
}
