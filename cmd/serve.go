package cmd

import (
	"github.com/spf13/cobra"

	"github.com/FedericoTs/dora-comply/internal/httpapi"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the validation and export HTTP API",
		Long: `Serve the HTTP API until interrupted.

Routes:
  GET  /healthz
  GET  /api/roi/templates
  POST /api/roi/validate   {"reportingDate": "2024-12-31"}
  POST /api/roi/export     {"reportingDate": "2024-12-31", "override": false}`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, reg, closeFn, err := a.newPipeline(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			srv := httpapi.NewServer(httpapi.Config{
				Pipeline:          p,
				Registry:          reg,
				Organization:      a.cfg.Parameters(),
				Strict:            a.cfg.Export.Strict,
				TopErrors:         a.cfg.Export.TopErrors,
				Addr:              a.cfg.Server.Addr,
				ReadHeaderTimeout: a.cfg.Server.ReadHeaderTimeout,
				RequestTimeout:    a.cfg.Server.RequestTimeout,
				Logger:            a.logger,
			})
			return srv.Serve(cmd.Context())
		},
	}

	cmd.Flags().String("addr", "", "Listen address (default :8080)")
	return cmd
}
