// =============================================================================
// DORA Register of Information - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   roi
//   ├── export      (build and write the report package)
//   ├── validate    (validate without packaging)
//   ├── serve       (HTTP API)
//   ├── templates   (list, export or check the template registry)
//   ├── db migrate  (create the export tables)
//   └── version
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (e.g., --config, --verbose)
//   2. Loading the layered configuration before any subcommand runs
//   3. Setting up logging
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/FedericoTs/dora-comply/internal/config"
)

// skipConfig marks commands that run without loading configuration.
const skipConfig = "skip-config"

// app holds the state shared by all commands of one invocation.
type app struct {
	// cfgFile is the path given with --config.
	cfgFile string

	// verbose forces debug logging.
	verbose bool

	cfg    *config.Config
	logger *slog.Logger
}

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// newRootCmd builds the command tree.
func newRootCmd() *cobra.Command {
	a := &app{logger: slog.New(slog.DiscardHandler)}

	rootCmd := &cobra.Command{
		Use:   "roi",
		Short: "DORA Register of Information - validate and export xBRL-CSV report packages",
		Long: `roi builds the DORA Register of Information report package from the
export tables (SQLite or Postgres) or from CSV extracts.

Every export fetches all templates, maps them to the ESA column codes,
validates the snapshot (per-template checks and cross-template references)
and writes a zipped xBRL-CSV package with a report.json manifest.

Example Usage:
  roi validate --date 2024-12-31            # Validation report only
  roi export --date 2024-12-31              # Validate and write the package
  roi export --date 2024-12-31 --override   # Package despite errors
  roi serve --addr :8080                    # HTTP API`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Annotations:   map[string]string{skipConfig: "true"},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if _, ok := cmd.Annotations[skipConfig]; ok {
				return nil
			}
			cfg, err := config.Load(a.cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = config.NewLogger(cfg.Log, cmd.ErrOrStderr(), a.verbose)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	// ==========================================================================
	// PERSISTENT FLAGS
	// ==========================================================================
	// Flags shared by all commands. Configuration flags only override the
	// config file and environment when set explicitly.

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "Path to the configuration file (default roi.yaml when present)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	pf.String("log-level", "", "Log level: debug, info, warn, error")
	pf.String("log-format", "", "Log format: text or json")
	pf.String("lei", "", "LEI of the reporting entity")
	pf.String("org", "", "Organisation ID in the export tables")
	pf.String("currency", "", "ISO 4217 base currency")
	pf.String("driver", "", "Data source: sqlite, pgx or csv")
	pf.String("dsn", "", "Database connection string or SQLite file")
	pf.String("source-dir", "", "Directory of CSV extracts (driver csv)")
	pf.String("constraints", "", "YAML file overriding template constraints")

	rootCmd.AddCommand(
		newExportCmd(a),
		newValidateCmd(a),
		newServeCmd(a),
		newTemplatesCmd(a),
		newDBCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the CLI. It is called by main.main(). Interrupts cancel the
// running command's context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
