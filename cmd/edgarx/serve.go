package main

import (
	"github.com/spf13/cobra"

	"edgar_export/pkg/api"
	apiConfig "edgar_export/pkg/api/config"
	"edgar_export/pkg/api/filings"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	router := api.NewRouter(api.Routes{
		Filings:  filings.New(edgarx.Filings, edgarx.Exporter, edgarx.ExportLog, edgarx.Forms(), cfg.Export.Dir, logger),
		Config:   apiConfig.NewHandler(cfg, logger),
		Registry: edgarx.Registry,
		Logger:   logger,
	})
	return api.Serve(cmd.Context(), cfg.Server.Addr, router, logger)
}
