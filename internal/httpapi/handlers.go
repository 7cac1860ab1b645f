package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/FedericoTs/dora-comply/internal/packager"
	"github.com/FedericoTs/dora-comply/internal/params"
	"github.com/FedericoTs/dora-comply/internal/pipeline"
	"github.com/FedericoTs/dora-comply/internal/registry"
	"github.com/FedericoTs/dora-comply/internal/source"
	"github.com/FedericoTs/dora-comply/internal/types"
)

// maxBodyBytes bounds request bodies, which only carry parameters.
const maxBodyBytes = 64 << 10

// ExportRequest is the body of validate and export requests. Every field
// is optional; missing parameters come from the server's organisation.
type ExportRequest struct {
	LEI           string `json:"lei,omitempty"`
	ReportingDate string `json:"reportingDate,omitempty"`
	BaseCurrency  string `json:"baseCurrency,omitempty"`

	// Strict and Override apply to export only.
	Strict   *bool `json:"strict,omitempty"`
	Override bool  `json:"override,omitempty"`
}

// ErrorResponse is the body of every non-2xx response except 422.
type ErrorResponse struct {
	Error    string   `json:"error"`
	Problems []string `json:"problems,omitempty"`
	RunID    string   `json:"runId,omitempty"`
}

// TemplatesResponse is the body of GET /api/roi/templates.
type TemplatesResponse struct {
	Version   string                        `json:"version"`
	Templates []registry.TemplateDefinition `json:"templates"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) templates(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, TemplatesResponse{
		Version:   s.registry.Version(),
		Templates: s.registry.Templates(),
	})
}

func (s *Server) validate(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}

	res, err := s.pipeline.Validate(r.Context(), s.parameters(req))
	if err != nil {
		s.writeRunError(w, r, res, err)
		return
	}
	w.Header().Set("X-Run-ID", res.RunID)
	writeJSON(w, http.StatusOK, res.Report(s.topErrors))
}

func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}

	strict := s.strict
	if req.Strict != nil {
		strict = *req.Strict
	}
	res, err := s.pipeline.Run(r.Context(), pipeline.Request{
		Parameters: s.parameters(req),
		Strict:     strict,
		Override:   req.Override,
	})
	if err != nil {
		s.writeRunError(w, r, res, err)
		return
	}

	w.Header().Set("X-Run-ID", res.RunID)
	if res.State == pipeline.StateRejected {
		writeJSON(w, http.StatusUnprocessableEntity, res.Report(s.topErrors))
		return
	}

	pkg := res.Package
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", pkg.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(pkg.Data)))
	w.Header().Set("X-Validation-Errors", strconv.Itoa(res.Stats.Errors))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pkg.Data); err != nil {
		s.logger.Warn("failed to write package",
			slog.String("run_id", res.RunID),
			slog.Any("error", err))
	}
}

// decode reads the optional request body. An empty body is allowed.
func (s *Server) decode(w http.ResponseWriter, r *http.Request) (ExportRequest, bool) {
	var req ExportRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body: " + err.Error()})
		return req, false
	}
	return req, true
}

// parameters merges the request over the server's organisation.
func (s *Server) parameters(req ExportRequest) types.ReportingParameters {
	org := s.org
	if req.LEI != "" {
		org.LEI = req.LEI
	}
	if req.BaseCurrency != "" {
		org.BaseCurrency = req.BaseCurrency
	}
	return params.Build(org, req.ReportingDate)
}

// writeRunError maps a pipeline error to a status code.
func (s *Server) writeRunError(w http.ResponseWriter, r *http.Request, res *pipeline.Result, err error) {
	status := StatusFor(err)
	resp := ErrorResponse{Error: err.Error()}
	if res != nil {
		resp.RunID = res.RunID
	}
	var cfgErr *pipeline.ConfigurationError
	if errors.As(err, &cfgErr) {
		resp.Error = "invalid reporting parameters"
		resp.Problems = cfgErr.Problems
	}

	level := slog.LevelError
	if status < http.StatusInternalServerError {
		level = slog.LevelWarn
	}
	s.logger.Log(r.Context(), level, "request failed",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Int("status", status),
		slog.Any("error", err))

	writeJSON(w, status, resp)
}

// StatusFor returns the HTTP status for an export error.
func StatusFor(err error) int {
	var (
		cfgErr   *pipeline.ConfigurationError
		fetchErr *source.FetchError
		serErr   *packager.SerializationError
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	case errors.As(err, &cfgErr):
		return http.StatusBadRequest
	case errors.As(err, &fetchErr):
		return http.StatusBadGateway
	case errors.As(err, &serErr):
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
