package httpapi

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FedericoTs/dora-comply/internal/packager"
	"github.com/FedericoTs/dora-comply/internal/params"
	"github.com/FedericoTs/dora-comply/internal/pipeline"
	"github.com/FedericoTs/dora-comply/internal/registry"
	"github.com/FedericoTs/dora-comply/internal/roitest"
	"github.com/FedericoTs/dora-comply/internal/source"
	"github.com/FedericoTs/dora-comply/internal/validation"
)

func newServer(t *testing.T, src source.Fetcher) http.Handler {
	t.Helper()
	reg := registry.Default()
	p := pipeline.New(reg, src, pipeline.Options{Timeout: 5 * time.Second})
	return NewServer(Config{
		Pipeline:     p,
		Registry:     reg,
		Organization: params.Organization{LEI: roitest.EntityLEI, Name: "Example Bank S.A."},
		Strict:       true,
		TopErrors:    10,
	}).Handler()
}

func invalidSource() *source.StaticSource {
	src := roitest.Source()
	src.Add(&source.ProviderRecord{
		ProviderCode:        "P-BAD",
		ProviderCodeType:    "lei",
		LegalName:           "Nowhere Ltd",
		PersonType:          "eba_CT:x212",
		HeadquartersCountry: "Atlantis",
		Currency:            "EUR",
	})
	return src
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newServer(t, roitest.Source()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestTemplates(t *testing.T) {
	rec := httptest.NewRecorder()
	newServer(t, roitest.Source()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/roi/templates", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp TemplatesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, registry.TaxonomyVersion, resp.Version)
	require.Len(t, resp.Templates, registry.Default().Len())
	assert.Equal(t, registry.EntityRegister, resp.Templates[0].ID)
	assert.NotEmpty(t, resp.Templates[0].Columns)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		src       source.Fetcher
		wantValid bool
	}{
		{name: "clean data", src: roitest.Source(), wantValid: true},
		{name: "invalid data", src: invalidSource(), wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, newServer(t, tt.src), "/api/roi/validate", `{"reportingDate":"2024-12-31"}`)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.NotEmpty(t, rec.Header().Get("X-Run-ID"))

			var report validation.Report
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
			assert.Equal(t, tt.wantValid, report.IsValid)
			assert.LessOrEqual(t, len(report.TopErrors), 10)
			assert.Len(t, report.TemplateSummary, registry.Default().Len())
		})
	}
}

func TestExport_Package(t *testing.T) {
	rec := post(t, newServer(t, roitest.Source()), "/api/roi/export", `{"reportingDate":"2024-12-31"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="529900T8BM49AURSDO55-2024-12-31.zip"`, rec.Header().Get("Content-Disposition"))

	body := rec.Body.Bytes()
	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	require.NoError(t, err)
	require.NotEmpty(t, zr.File)
	assert.Equal(t, packager.ManifestName, zr.File[0].Name)
}

func TestExport_StrictAndOverride(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{name: "server default is strict", body: `{"reportingDate":"2024-12-31"}`, wantStatus: http.StatusUnprocessableEntity},
		{name: "override", body: `{"reportingDate":"2024-12-31","override":true}`, wantStatus: http.StatusOK},
		{name: "lenient request", body: `{"reportingDate":"2024-12-31","strict":false}`, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, newServer(t, invalidSource()), "/api/roi/export", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			if tt.wantStatus == http.StatusUnprocessableEntity {
				var report validation.Report
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
				assert.False(t, report.IsValid)
				require.NotEmpty(t, report.TopErrors)
				assert.NotEmpty(t, report.TopErrors[0].Suggestion)
			} else {
				assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
				assert.NotEqual(t, "0", rec.Header().Get("X-Validation-Errors"))
			}
		})
	}
}

func TestExport_Errors(t *testing.T) {
	failing := roitest.Source()
	failing.FailWith(registry.Providers, errors.New("connection reset"))

	tests := []struct {
		name       string
		src        source.Fetcher
		body       string
		wantStatus int
		wantError  string
	}{
		{
			name:       "invalid parameters",
			src:        roitest.Source(),
			body:       `{"lei":"529900T8BM49AURSDO00","reportingDate":"2024-12-31"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid reporting parameters",
		},
		{
			name:       "malformed body",
			src:        roitest.Source(),
			body:       `{"reportingDate":`,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid JSON body",
		},
		{
			name:       "unknown field",
			src:        roitest.Source(),
			body:       `{"entity":"x"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid JSON body",
		},
		{
			name:       "fetch failure",
			src:        failing,
			body:       `{"reportingDate":"2024-12-31"}`,
			wantStatus: http.StatusBadGateway,
			wantError:  "connection reset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, newServer(t, tt.src), "/api/roi/export", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Contains(t, resp.Error, tt.wantError)
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: &pipeline.ConfigurationError{Problems: []string{"x"}}, want: http.StatusBadRequest},
		{err: fmt.Errorf("wrapped: %w", &source.FetchError{TemplateID: "B_05.01", Err: errors.New("down")}), want: http.StatusBadGateway},
		{err: &source.FetchError{TemplateID: "B_05.01", Err: context.DeadlineExceeded}, want: http.StatusGatewayTimeout},
		{err: &packager.SerializationError{TemplateID: "B_05.01"}, want: http.StatusInternalServerError},
		{err: context.Canceled, want: http.StatusGatewayTimeout},
		{err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}
