package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/FedericoTs/dora-comply/internal/params"
)

// errValidationFailed makes the process exit non-zero for invalid data.
var errValidationFailed = errors.New("validation failed")

type validateOptions struct {
	date       string
	jsonOutput bool
}

func newValidateCmd(a *app) *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the register without building a package",
		Example: `  # Table report
  roi validate --date 2024-12-31

  # JSON report for CI
  roi validate --date 2024-12-31 --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runValidate(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.date, "date", "", "Reporting reference date YYYY-MM-DD (default today)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Print the report as JSON")
	cmd.Flags().Int("top-errors", 0, "Findings listed in the report")
	cmd.Flags().Duration("timeout", 0, "Bound on the whole run")
	cmd.Flags().Int("max-concurrency", 0, "Concurrent template fetches")

	return cmd
}

func (a *app) runValidate(cmd *cobra.Command, opts *validateOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	p, _, closeFn, err := a.newPipeline(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	res, err := p.Validate(ctx, params.Build(a.cfg.Parameters(), opts.date))
	if err != nil {
		return err
	}

	report := res.Report(a.cfg.Export.TopErrors)
	if opts.jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
	} else {
		renderReport(out, res, report)
	}

	if !report.IsValid {
		return fmt.Errorf("%w: %d errors, %d warnings", errValidationFailed, report.TotalErrors, report.TotalWarnings)
	}
	return nil
}
