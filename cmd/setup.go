package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/FedericoTs/dora-comply/internal/pipeline"
	"github.com/FedericoTs/dora-comply/internal/registry"
	"github.com/FedericoTs/dora-comply/internal/source"
	"github.com/FedericoTs/dora-comply/internal/types"
	"github.com/FedericoTs/dora-comply/internal/validation"
	"github.com/FedericoTs/dora-comply/pkg/utils"
)

// loadRegistry returns the built-in registry with any configured
// constraint overrides applied.
func (a *app) loadRegistry() (*registry.Registry, error) {
	reg := registry.Default()
	if a.cfg.Registry.ConstraintsFile == "" {
		return reg, nil
	}
	constraints, err := registry.LoadConstraints(a.cfg.Registry.ConstraintsFile)
	if err != nil {
		return nil, err
	}
	return reg.WithConstraints(constraints)
}

// openFetcher opens the configured data source. The returned close function
// is never nil.
func (a *app) openFetcher(ctx context.Context, reg *registry.Registry) (source.Fetcher, func() error, error) {
	noop := func() error { return nil }
	src := a.cfg.Source

	if src.Driver == "csv" {
		fetcher, err := source.NewCSVSource(src.Dir, reg, source.CSVSettings{
			Delimiter: src.Delimiter,
			Encoding:  src.Encoding,
		})
		if err != nil {
			return nil, noop, err
		}
		return fetcher, noop, nil
	}

	db, dialect, err := a.openDB(ctx)
	if err != nil {
		return nil, noop, err
	}
	fetcher := source.NewSQLSource(db, dialect, reg,
		source.WithOrganization(a.cfg.Organization.ID),
		source.WithLogger(a.logger))
	return fetcher, db.Close, nil
}

// openDB opens the configured database.
func (a *app) openDB(ctx context.Context) (*sql.DB, source.Dialect, error) {
	dialect, err := source.DriverDialect(a.cfg.Source.Driver)
	if err != nil {
		return nil, "", err
	}
	db, err := source.Open(ctx, a.cfg.Source.Driver, a.cfg.Source.DSN)
	if err != nil {
		return nil, "", err
	}
	return db, dialect, nil
}

// newPipeline wires registry, source and pipeline from the configuration.
func (a *app) newPipeline(ctx context.Context) (*pipeline.Pipeline, *registry.Registry, func() error, error) {
	reg, err := a.loadRegistry()
	if err != nil {
		return nil, nil, nil, err
	}
	fetcher, closeFn, err := a.openFetcher(ctx, reg)
	if err != nil {
		return nil, nil, nil, err
	}
	p := pipeline.New(reg, fetcher, pipeline.Options{
		Timeout:        a.cfg.Export.Timeout,
		MaxConcurrency: a.cfg.Export.MaxConcurrency,
	}, pipeline.WithLogger(a.logger))
	return p, reg, closeFn, nil
}

// =============================================================================
// REPORT RENDERING
// =============================================================================

// renderReport prints the template summary and the top findings.
func renderReport(w io.Writer, res *pipeline.Result, report validation.Report) {
	fmt.Fprintf(w, "Run %s: %s\n", res.RunID, res.State)
	fmt.Fprintf(w, "Entity %s, reporting date %s, base currency %s\n\n",
		res.Parameters.EntityLEI, res.Parameters.ReportingDate, res.Parameters.BaseCurrency)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Template", "Rows", "Errors", "Warnings", "Completeness", "Valid"})
	for _, s := range report.TemplateSummary {
		t.AppendRow(table.Row{s.TemplateID, s.RowCount, s.ErrorCount, s.WarningCount,
			fmt.Sprintf("%.2f%%", s.Completeness), yesNo(s.IsValid)})
	}
	t.AppendFooter(table.Row{"Overall", res.Stats.Rows, report.TotalErrors, report.TotalWarnings,
		fmt.Sprintf("%.2f%%", report.OverallScore), yesNo(report.IsValid)})
	t.Render()

	if len(report.TopErrors) == 0 {
		return
	}

	fmt.Fprintln(w)
	f := table.NewWriter()
	f.SetOutputMirror(w)
	f.SetStyle(table.StyleLight)
	f.AppendHeader(table.Row{"Severity", "Template", "Row", "Column", "Code", "Message", "Suggestion"})
	for _, e := range report.TopErrors {
		f.AppendRow(table.Row{e.Severity, e.TemplateID, rowLabel(e), e.ESACode, e.Code, e.Message, e.Suggestion})
	}
	f.Render()
}

// rowLabel renders a 1-based row number, or "-" for package findings.
func rowLabel(e types.ValidationError) string {
	if e.RowIndex < 0 {
		return "-"
	}
	return strconv.Itoa(e.RowIndex + 1)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// logEntries converts findings to error log entries.
func logEntries(findings []types.ValidationError) []utils.ErrorLogEntry {
	entries := make([]utils.ErrorLogEntry, 0, len(findings))
	for _, f := range findings {
		entries = append(entries, utils.ErrorLogEntry{
			Severity:   f.Severity,
			TemplateID: f.TemplateID,
			RowNumber:  f.RowIndex + 1,
			Column:     f.ESACode,
			Code:       f.Code,
			Message:    f.Message,
			Value:      f.Value,
			Suggestion: f.Suggestion,
		})
	}
	return entries
}
