package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/phuslu/log"

	"edgar_export/pkg/api"
	apiConfig "edgar_export/pkg/api/config"
	"edgar_export/pkg/api/filings"
	"edgar_export/pkg/core/app"
	"edgar_export/pkg/core/config"
	"edgar_export/pkg/core/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := logging.New(logging.Options{
		Level:      cfg.Logging.Level,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize")
	}
	defer a.Close()

	router := api.NewRouter(api.Routes{
		Filings:  filings.New(a.Filings, a.Exporter, a.ExportLog, a.Forms(), cfg.Export.Dir, logger),
		Config:   apiConfig.NewHandler(cfg, logger),
		Registry: a.Registry,
		Logger:   logger,
	})

	logger.Info().Msg("routes: GET /api/filings/{ticker}, POST /api/export, GET /api/exports, GET /api/config, GET /metrics")
	if err := api.Serve(ctx, cfg.Server.Addr, router, logger); err != nil {
		logger.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
