// Package cache memoizes filing pipeline builds per ticker and window.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/phuslu/log"

	"edgar_export/pkg/core/logging"
	"edgar_export/pkg/core/metrics"
	"edgar_export/pkg/models"
)

// Builder produces the bundles for one ticker. It reports false when the ticker
// cannot be resolved. *edgar.Pipeline implements it.
type Builder interface {
	Build(ctx context.Context, ticker string, window models.Window, forms models.FormSet) ([]models.FilingBundle, bool)
}

// BuilderFunc adapts a function to Builder.
type BuilderFunc func(ctx context.Context, ticker string, window models.Window, forms models.FormSet) ([]models.FilingBundle, bool)

// Build calls f.
func (f BuilderFunc) Build(ctx context.Context, ticker string, window models.Window, forms models.FormSet) ([]models.FilingBundle, bool) {
	return f(ctx, ticker, window, forms)
}

type key struct {
	ticker string
	window string
}

// FilingCache runs at most one build per (ticker, window) and keeps the result for the
// life of the process. Published entries are read without locking; builds of the
// same key are serialized on a per-key mutex so different tickers never wait on each other.
type FilingCache struct {
	builder Builder
	logger  *log.Logger
	metrics *metrics.Metrics

	entries sync.Map // key -> []models.FilingBundle

	locksMu sync.Mutex
	locks   map[key]*sync.Mutex
}

// New creates a cache over builder.
func New(builder Builder, logger *log.Logger, m *metrics.Metrics) *FilingCache {
	return &FilingCache{
		builder: builder,
		logger:  logging.OrDiscard(logger),
		metrics: m,
		locks:   make(map[key]*sync.Mutex),
	}
}

// GetOrBuild returns the bundles for ticker within window, building them on first use.
// It reports false when the ticker cannot be resolved; such results are not cached.
//
// The entry key ignores forms: the first successful build for a key fixes its form
// selection. The build itself is detached from ctx cancellation so that callers
// waiting on the same key are not starved by one caller giving up.
func (c *FilingCache) GetOrBuild(ctx context.Context, ticker string, window models.Window, forms models.FormSet) ([]models.FilingBundle, bool) {
	// Windows are whole calendar days; the key and the build see the same cutoff.
	if window.Active() {
		window = models.Since(window.Cutoff)
	}
	k := key{ticker: strings.ToUpper(strings.TrimSpace(ticker)), window: window.String()}

	if v, ok := c.entries.Load(k); ok {
		c.metrics.CacheHit()
		return v.([]models.FilingBundle), true
	}

	mu := c.lockFor(k)
	mu.Lock()
	defer mu.Unlock()

	if v, ok := c.entries.Load(k); ok {
		c.metrics.CacheHit()
		c.logger.Debug().Str("ticker", k.ticker).Str("window", k.window).Msg("filings built by another caller")
		return v.([]models.FilingBundle), true
	}
	c.metrics.CacheMiss()

	c.logger.Info().Str("ticker", k.ticker).Str("window", k.window).Msg("building filings")
	start := time.Now()
	bundles, ok := c.builder.Build(context.WithoutCancel(ctx), k.ticker, window, forms)
	c.metrics.ObserveBuild(start)
	if !ok {
		return nil, false
	}
	if bundles == nil {
		bundles = []models.FilingBundle{}
	}

	c.entries.Store(k, bundles)
	c.logger.Info().Str("ticker", k.ticker).Str("window", k.window).Int("bundles", len(bundles)).
		Dur("elapsed", time.Since(start)).Msg("filings cached")
	return bundles, true
}

func (c *FilingCache) lockFor(k key) *sync.Mutex {
	c.locksMu.Lock()
	defer c.locksMu.Unlock()
	mu, ok := c.locks[k]
	if !ok {
		mu = &sync.Mutex{}
		c.locks[k] = mu
	}
	return mu
}
