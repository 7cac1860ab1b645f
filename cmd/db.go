package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/FedericoTs/dora-comply/internal/source"
)

func newDBCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Manage the export tables",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "migrate",
			Short: "Create or upgrade the export tables",
			RunE: func(cmd *cobra.Command, _ []string) error {
				db, dialect, err := a.openDB(cmd.Context())
				if err != nil {
					return err
				}
				defer db.Close()

				if err := source.Migrate(db, dialect); err != nil {
					return err
				}
				version, err := source.MigrationVersion(db, dialect)
				if err != nil {
					return err
				}
				a.logger.Info("migrations applied", slog.Int64("version", version))
				fmt.Fprintf(cmd.OutOrStdout(), "Schema version: %d\n", version)
				return nil
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print the schema version",
			RunE: func(cmd *cobra.Command, _ []string) error {
				db, dialect, err := a.openDB(cmd.Context())
				if err != nil {
					return err
				}
				defer db.Close()

				version, err := source.MigrationVersion(db, dialect)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Schema version: %d\n", version)
				return nil
			},
		},
	)
	return cmd
}
