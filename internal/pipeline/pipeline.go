// =============================================================================
// DORA Register of Information - Export Pipeline
// =============================================================================
//
// This module orchestrates one export of the register of information.
//
// PROCESSING FLOW:
//   1. Check the reporting parameters (fail fast, before any I/O)
//   2. Fetch the records of every template concurrently
//   3. Map records to template rows once every fetch has completed
//   4. Validate the complete snapshot and attach suggestions
//   5. Reject the export, or build the report package
//
// STATES:
//   Fetching -> Mapping -> Validating -> Rejected
//                                     -> Packaging -> Complete
//   Any stage may end in Failed.
//
// CONCURRENCY:
//   Only the fetch stage runs in parallel. The first failed fetch cancels
//   the others, and nothing is mapped until all fetches have returned.
//   A run that is cancelled or times out never produces a package.
//
// =============================================================================

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/FedericoTs/dora-comply/internal/enhancer"
	"github.com/FedericoTs/dora-comply/internal/mapper"
	"github.com/FedericoTs/dora-comply/internal/packager"
	"github.com/FedericoTs/dora-comply/internal/params"
	"github.com/FedericoTs/dora-comply/internal/registry"
	"github.com/FedericoTs/dora-comply/internal/source"
	"github.com/FedericoTs/dora-comply/internal/types"
	"github.com/FedericoTs/dora-comply/internal/validation"
)

// =============================================================================
// STATES AND ERRORS
// =============================================================================

// State is the stage an export run is in.
type State string

const (
	StateFetching   State = "fetching"
	StateMapping    State = "mapping"
	StateValidating State = "validating"
	StateRejected   State = "rejected"
	StatePackaging  State = "packaging"
	StateComplete   State = "complete"
	StateFailed     State = "failed"
)

// ConfigurationError reports unusable reporting parameters. No data is
// fetched when it is returned.
type ConfigurationError struct {
	Problems []string
}

func (e *ConfigurationError) Error() string {
	return "invalid reporting parameters: " + strings.Join(e.Problems, "; ")
}

// =============================================================================
// RESULT
// =============================================================================

// Result describes one run.
type Result struct {
	RunID      string
	State      State
	Parameters types.ReportingParameters

	// History lists every state the run went through, in order.
	History []State

	// Validation is set once the Validating stage has completed.
	Validation *validation.PackageResult

	// Package is set only in StateComplete.
	Package *packager.Package

	Stats Stats

	started time.Time
}

// Stats contains run statistics.
type Stats struct {
	Templates int
	Rows      int
	Errors    int
	Warnings  int
	Duration  time.Duration
}

// Report returns the validation report, capped at limit findings.
func (r *Result) Report(limit int) validation.Report {
	if r.Validation == nil {
		return validation.Report{}
	}
	return r.Validation.Report(limit)
}

// =============================================================================
// PIPELINE
// =============================================================================

// Request is one export request.
type Request struct {
	Parameters types.ReportingParameters

	// Strict rejects packages with error findings.
	Strict bool

	// Override packages anyway in strict mode. The findings are still
	// reported.
	Override bool
}

// Options bounds a run.
type Options struct {
	// Timeout bounds the whole run. Zero means only the caller's deadline
	// applies.
	Timeout time.Duration

	// MaxConcurrency caps concurrent fetches. Zero or less means one
	// goroutine per template.
	MaxConcurrency int
}

// Pipeline runs exports against one registry and one fetcher. It holds no
// per-run state and may be shared.
type Pipeline struct {
	registry  *registry.Registry
	fetcher   source.Fetcher
	validator *validation.Validator
	enhancer  *enhancer.Enhancer
	builder   *packager.Builder
	opts      Options
	logger    *slog.Logger
	clock     func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger for the pipeline and its stages.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithEnhancer replaces the default suggestion rules.
func WithEnhancer(e *enhancer.Enhancer) Option {
	return func(p *Pipeline) { p.enhancer = e }
}

// WithClock sets the clock used for package timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.clock = now }
}

// New creates a Pipeline.
func New(reg *registry.Registry, fetcher source.Fetcher, opts Options, options ...Option) *Pipeline {
	p := &Pipeline{
		registry: reg,
		fetcher:  fetcher,
		enhancer: enhancer.Default(),
		opts:     opts,
		logger:   slog.New(slog.DiscardHandler),
		clock:    time.Now,
	}
	for _, o := range options {
		o(p)
	}
	p.validator = validation.New(reg, validation.WithLogger(p.logger))
	p.builder = packager.NewBuilder(reg, packager.WithClock(p.clock), packager.WithLogger(p.logger))
	return p
}

// Run executes a full export.
//
// RETURNS:
//   - The result, which is non-nil even on error and then carries
//     StateFailed.
//   - *ConfigurationError, *source.FetchError, *packager.SerializationError
//     or a context error. A rejected export is not an error.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	res := p.newResult(req.Parameters)
	if err := p.checkParameters(res); err != nil {
		return res, err
	}

	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	data, err := p.prepare(ctx, res)
	if err != nil {
		return res, err
	}
	log := p.logger.With(slog.String("run_id", res.RunID))

	if !res.Validation.IsValid && req.Strict && !req.Override {
		p.transition(res, StateRejected)
		log.Warn("export rejected",
			slog.Int("errors", res.Stats.Errors),
			slog.Int("warnings", res.Stats.Warnings))
		return p.finish(res), nil
	}
	if !res.Validation.IsValid {
		log.Warn("packaging with validation errors",
			slog.Int("errors", res.Stats.Errors),
			slog.Bool("override", req.Override))
	}

	p.transition(res, StatePackaging)
	pkg, err := p.builder.BuildPackageZip(res.Parameters, data)
	if err != nil {
		return res, p.fail(res, err)
	}
	if err := ctx.Err(); err != nil {
		return res, p.fail(res, err)
	}

	res.Package = pkg
	p.transition(res, StateComplete)
	return p.finish(res), nil
}

// Validate runs the export up to and including validation. It never
// builds a package.
func (p *Pipeline) Validate(ctx context.Context, rp types.ReportingParameters) (*Result, error) {
	res := p.newResult(rp)
	if err := p.checkParameters(res); err != nil {
		return res, err
	}

	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	if _, err := p.prepare(ctx, res); err != nil {
		return res, err
	}
	return p.finish(res), nil
}

func (p *Pipeline) newResult(rp types.ReportingParameters) *Result {
	return &Result{
		RunID:      uuid.NewString(),
		Parameters: rp,
		Stats:      Stats{Templates: p.registry.Len()},
		started:    p.clock(),
	}
}

// checkParameters fails the run before any I/O when the parameters are
// unusable.
func (p *Pipeline) checkParameters(res *Result) error {
	check := params.ValidateParameters(res.Parameters)
	if check.Valid {
		return nil
	}
	res.State = StateFailed
	res.History = append(res.History, StateFailed)
	p.logger.Warn("export refused",
		slog.String("run_id", res.RunID),
		slog.Any("problems", check.Errors))
	return &ConfigurationError{Problems: check.Errors}
}

func (p *Pipeline) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.opts.Timeout > 0 {
		return context.WithTimeout(ctx, p.opts.Timeout)
	}
	return context.WithCancel(ctx)
}

// prepare fetches, maps and validates. It returns the mapped snapshot.
func (p *Pipeline) prepare(ctx context.Context, res *Result) (types.TemplateData, error) {
	p.logger.Info("export started",
		slog.String("run_id", res.RunID),
		slog.String("lei", res.Parameters.EntityLEI),
		slog.String("reporting_date", res.Parameters.ReportingDate))

	p.transition(res, StateFetching)
	records, err := p.fetchAll(ctx)
	if err != nil {
		return nil, p.fail(res, err)
	}

	p.transition(res, StateMapping)
	data := make(types.TemplateData, p.registry.Len())
	for _, def := range p.registry.Templates() {
		data[def.ID] = mapper.MapRecords(records[def.ID], def)
	}
	res.Stats.Rows = data.RowCount()

	p.transition(res, StateValidating)
	result, err := p.validator.Validate(data, res.Parameters)
	if err != nil {
		return nil, p.fail(res, err)
	}
	result.Enhance(p.enhancer.Enhance)
	res.Validation = result
	res.Stats.Errors = result.TotalErrors
	res.Stats.Warnings = result.TotalWarnings

	if err := ctx.Err(); err != nil {
		return nil, p.fail(res, err)
	}
	return data, nil
}

// fetchAll fetches every template concurrently and returns the records by
// template ID. It returns only after every fetch has finished.
func (p *Pipeline) fetchAll(ctx context.Context) (map[string][]source.Record, error) {
	defs := p.registry.Templates()
	results := make([]*source.Result, len(defs))

	g, gctx := errgroup.WithContext(ctx)
	if p.opts.MaxConcurrency > 0 {
		g.SetLimit(p.opts.MaxConcurrency)
	}
	for i, def := range defs {
		g.Go(func() error {
			res, err := p.fetcher.FetchTemplateData(gctx, def.ID)
			if err != nil {
				var fe *source.FetchError
				if !errors.As(err, &fe) {
					err = &source.FetchError{TemplateID: def.ID, Err: err}
				}
				return err
			}
			results[i] = res
			p.logger.Debug("fetched template",
				slog.String("template", def.ID),
				slog.Int("rows", res.Count))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make(map[string][]source.Record, len(defs))
	for i, def := range defs {
		if results[i] != nil {
			out[def.ID] = results[i].Records
		}
	}
	return out, nil
}

func (p *Pipeline) transition(res *Result, s State) {
	res.State = s
	res.History = append(res.History, s)
	p.logger.Debug("state changed",
		slog.String("run_id", res.RunID),
		slog.String("state", string(s)))
}

func (p *Pipeline) fail(res *Result, err error) error {
	from := res.State
	res.Package = nil
	p.transition(res, StateFailed)
	res.Stats.Duration = p.clock().Sub(res.started)
	p.logger.Error("export failed",
		slog.String("run_id", res.RunID),
		slog.String("stage", string(from)),
		slog.Any("error", err))
	return fmt.Errorf("export %s failed while %s: %w", res.RunID, from, err)
}

func (p *Pipeline) finish(res *Result) *Result {
	res.Stats.Duration = p.clock().Sub(res.started)
	p.logger.Info("export finished",
		slog.String("run_id", res.RunID),
		slog.String("state", string(res.State)),
		slog.Int("rows", res.Stats.Rows),
		slog.Int("errors", res.Stats.Errors),
		slog.Int("warnings", res.Stats.Warnings),
		slog.Duration("elapsed", res.Stats.Duration))
	return res
}
