// Package app wires configuration into the registry clients, cache, exporter and store.
package app

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/phuslu/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"edgar_export/pkg/core/cache"
	"edgar_export/pkg/core/config"
	"edgar_export/pkg/core/edgar"
	"edgar_export/pkg/core/export"
	"edgar_export/pkg/core/logging"
	"edgar_export/pkg/core/metrics"
	"edgar_export/pkg/core/store"
	"edgar_export/pkg/models"
)

// App holds the long-lived components of one process.
type App struct {
	Config    *config.Config
	Logger    *log.Logger
	Registry  *prometheus.Registry
	Metrics   *metrics.Metrics
	Gateway   *edgar.Gateway
	Pipeline  *edgar.Pipeline
	Filings   *cache.FilingCache
	Exporter  *export.Exporter
	ExportLog *store.ExportLog

	pool *pgxpool.Pool
}

// New builds the application. A database that cannot be reached is logged and the
// export log falls back to its file.
func New(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	logger = logging.OrDiscard(logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	gateway := edgar.NewGateway(cfg.EDGAR.UserAgent,
		edgar.WithTimeout(cfg.EDGAR.Timeout),
		edgar.WithRateLimit(cfg.EDGAR.RateLimit),
		edgar.WithLogger(logger),
		edgar.WithMetrics(m),
	)

	pipeline := edgar.NewPipeline(
		edgar.NewResolver(gateway, cfg.EDGAR.SearchURL, logger),
		edgar.NewEnumerator(gateway, cfg.EDGAR.SubmissionsURL, logger),
		edgar.NewIndexer(gateway, cfg.EDGAR.ArchivesURL, logger, m),
		cfg.EDGAR.IndexConcurrency,
		logger,
	)

	a := &App{
		Config:   cfg,
		Logger:   logger,
		Registry: reg,
		Metrics:  m,
		Gateway:  gateway,
		Pipeline: pipeline,
		Filings:  cache.New(pipeline, logger, m),
		Exporter: export.NewExporter(gateway, logger, m),
	}

	var db store.DB
	if cfg.Database.URL != "" {
		pool, err := store.Connect(ctx, cfg.Database.URL)
		if err != nil {
			logger.Warn().Err(err).Msg("database unavailable, export log falls back to file")
		} else {
			a.pool = pool
			db = pool
		}
	}
	a.ExportLog = store.NewExportLog(db, cfg.Export.LogDir)
	logger.Info().Str("backend", a.ExportLog.Backend()).Msg("export log ready")

	return a, nil
}

// Forms returns the configured form filter.
func (a *App) Forms() models.FormSet {
	return models.NewFormSet(a.Config.EDGAR.Forms...)
}

// Close releases the database pool, if any.
func (a *App) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}
