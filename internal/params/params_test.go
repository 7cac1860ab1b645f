package params

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FedericoTs/dora-comply/internal/types"
)

func TestValidLEI(t *testing.T) {
	tests := []struct {
		lei  string
		want bool
	}{
		{"529900T8BM49AURSDO55", true},
		{"529900T8BM49AURSDO00", false},
		{"549300ABCDEFGH12IJ08", true},
		{"969500KLMNOPQR34ST12", true},
		{"529900t8bm49aursdo55", false},
		{"529900T8BM49AURSDO5", false},
		{"529900T8BM49AURSDO5X", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.lei, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidLEI(tt.lei))
		})
	}
}

func TestValidateParameters(t *testing.T) {
	valid := types.ReportingParameters{
		EntityLEI:     "529900T8BM49AURSDO55",
		ReportingDate: "2025-03-31",
		BaseCurrency:  "EUR",
	}

	tests := []struct {
		name     string
		mutate   func(p *types.ReportingParameters)
		wantErrs []string
	}{
		{name: "valid", mutate: func(*types.ReportingParameters) {}},
		{
			name:     "bad checksum",
			mutate:   func(p *types.ReportingParameters) { p.EntityLEI = "529900T8BM49AURSDO00" },
			wantErrs: []string{"check digits"},
		},
		{
			name:     "short lei",
			mutate:   func(p *types.ReportingParameters) { p.EntityLEI = "529900T8" },
			wantErrs: []string{"must be 20 characters"},
		},
		{
			name:     "lowercase lei",
			mutate:   func(p *types.ReportingParameters) { p.EntityLEI = "529900t8bm49aursdo55" },
			wantErrs: []string{"upper-case alphanumerics"},
		},
		{
			name:     "impossible date",
			mutate:   func(p *types.ReportingParameters) { p.ReportingDate = "2025-02-30" },
			wantErrs: []string{"not a valid YYYY-MM-DD"},
		},
		{
			name:     "unknown currency",
			mutate:   func(p *types.ReportingParameters) { p.BaseCurrency = "XYZ" },
			wantErrs: []string{"ISO 4217"},
		},
		{
			name: "everything wrong",
			mutate: func(p *types.ReportingParameters) {
				p.EntityLEI = ""
				p.ReportingDate = "31/03/2025"
				p.BaseCurrency = ""
			},
			wantErrs: []string{"LEI is required", "not a valid", "base currency is required"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)

			res := ValidateParameters(p)
			assert.Equal(t, len(tt.wantErrs) == 0, res.Valid)
			require.Len(t, res.Errors, len(tt.wantErrs))
			for i, want := range tt.wantErrs {
				assert.Contains(t, res.Errors[i], want)
			}
		})
	}
}

func TestGetDefaultParameters(t *testing.T) {
	orig := now
	now = func() time.Time { return time.Date(2025, 12, 31, 23, 30, 0, 0, time.UTC) }
	t.Cleanup(func() { now = orig })

	p := GetDefaultParameters(" 529900t8bm49aursdo55 ", "")
	assert.Equal(t, "529900T8BM49AURSDO55", p.EntityLEI)
	assert.Equal(t, "2025-12-31", p.ReportingDate)
	assert.Equal(t, DefaultBaseCurrency, p.BaseCurrency)
	assert.True(t, ValidateParameters(p).Valid)

	p = Build(Organization{LEI: "529900T8BM49AURSDO55", BaseCurrency: "sek", Name: "Acme"}, "2024-06-30")
	assert.Equal(t, "SEK", p.BaseCurrency)
	assert.Equal(t, "2024-06-30", p.ReportingDate)
	assert.Equal(t, "Acme", p.EntityName)
}
