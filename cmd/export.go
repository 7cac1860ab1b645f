// =============================================================================
// DORA Register of Information - Export Command
// =============================================================================
//
// This file defines the 'export' command, which is the main command. It runs
// the export pipeline and writes the report package.
//
// COMMAND USAGE:
//   roi export --date 2024-12-31 [flags]
//
// FLAGS:
//   --date        : Reporting reference date, YYYY-MM-DD (default today)
//   --override    : Write the package even when validation finds errors
//   --dry-run     : Run the pipeline without writing any file
//   --strict      : Refuse packages with errors (default from config)
//   --output-dir  : Where packages and error logs are written
//
// PROCESSING PIPELINE:
//   1. Load configuration and build the template registry
//   2. Open the data source (database or CSV extracts)
//   3. Fetch, map and validate every template
//   4. Print the validation report
//   5. Write the package atomically, archiving the package it replaces
//   6. Write an error log next to the package when there are findings
//
// =============================================================================

package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/FedericoTs/dora-comply/internal/packager"
	"github.com/FedericoTs/dora-comply/internal/params"
	"github.com/FedericoTs/dora-comply/internal/pipeline"
	"github.com/FedericoTs/dora-comply/pkg/utils"
)

// exportOptions holds the flags of the export command that are not
// configuration keys.
type exportOptions struct {
	date     string
	override bool
	dryRun   bool
}

func newExportCmd(a *app) *cobra.Command {
	opts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Validate the register and write the report package",
		Long: `Fetch every template, validate the snapshot and write the zipped
xBRL-CSV package "<LEI>-<date>.zip" to the output directory.

In strict mode (the default) a snapshot with validation errors is rejected:
no package is written, only the error log. --override writes the package
anyway; the findings are still reported.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runExport(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.date, "date", "", "Reporting reference date YYYY-MM-DD (default today)")
	cmd.Flags().BoolVar(&opts.override, "override", false, "Write the package despite validation errors")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Run the pipeline without writing files")
	cmd.Flags().Bool("strict", true, "Reject packages with validation errors")
	cmd.Flags().String("output-dir", "", "Output directory for packages and error logs")
	cmd.Flags().Int("top-errors", 0, "Findings listed in the report")
	cmd.Flags().Duration("timeout", 0, "Bound on the whole export")
	cmd.Flags().Int("max-concurrency", 0, "Concurrent template fetches")

	return cmd
}

func (a *app) runExport(cmd *cobra.Command, opts *exportOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	p, _, closeFn, err := a.newPipeline(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	rp := params.Build(a.cfg.Parameters(), opts.date)
	res, err := p.Run(ctx, pipeline.Request{
		Parameters: rp,
		Strict:     a.cfg.Export.Strict,
		Override:   opts.override,
	})
	if err != nil {
		return err
	}

	renderReport(out, res, res.Report(a.cfg.Export.TopErrors))
	if opts.dryRun {
		fmt.Fprintln(out, "\nDry run: nothing written")
		return nil
	}

	fm := utils.NewFileManager(a.cfg.Export.OutputDir, a.cfg.Export.ArchiveDir)
	name := packager.FileName(rp)
	logPath, err := fm.WriteErrorLog(logEntries(res.Validation.Findings()), name)
	if err != nil {
		return err
	}
	if logPath != "" {
		fmt.Fprintf(out, "\nError log: %s\n", logPath)
	}

	if res.State == pipeline.StateRejected {
		return fmt.Errorf("export rejected: %d validation errors (use --override to package anyway)", res.Stats.Errors)
	}

	path, archived, err := fm.WritePackage(res.Package.FileName, res.Package.Data)
	if err != nil {
		return err
	}
	if archived != "" {
		a.logger.Info("previous package archived", slog.String("path", archived))
	}
	a.logger.Info("package written",
		slog.String("run_id", res.RunID),
		slog.String("path", path),
		slog.Int("bytes", len(res.Package.Data)))
	fmt.Fprintf(out, "Package: %s\n", path)
	return nil
}
