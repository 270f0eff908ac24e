package edgar

import (
	"context"
	"errors"
	"strings"

	"github.com/phuslu/log"
	"golang.org/x/sync/errgroup"

	"edgar_export/pkg/core/logging"
	"edgar_export/pkg/models"
)

// DefaultIndexConcurrency bounds concurrent manifest fetches within one build.
const DefaultIndexConcurrency = 4

// Pipeline chains resolution, enumeration and indexing for one ticker.
type Pipeline struct {
	resolver    *Resolver
	enumerator  *Enumerator
	indexer     *Indexer
	concurrency int
	logger      *log.Logger
}

// NewPipeline wires the three stages. concurrency <= 0 uses DefaultIndexConcurrency.
func NewPipeline(r *Resolver, e *Enumerator, ix *Indexer, concurrency int, logger *log.Logger) *Pipeline {
	if concurrency <= 0 {
		concurrency = DefaultIndexConcurrency
	}
	return &Pipeline{
		resolver:    r,
		enumerator:  e,
		indexer:     ix,
		concurrency: concurrency,
		logger:      logging.OrDiscard(logger),
	}
}

// Build resolves ticker, enumerates its filings inside window and indexes every filing whose
// form is in forms. It reports false only when the ticker cannot be resolved.
// Filings without a manifest or whose manifest fails to load are left out.
// Bundles keep enumeration order.
func (p *Pipeline) Build(ctx context.Context, ticker string, window models.Window, forms models.FormSet) ([]models.FilingBundle, bool) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if len(forms) == 0 {
		forms = models.NewFormSet(models.DefaultForms...)
	}

	cik := p.resolver.Resolve(ctx, ticker)
	if !cik.Resolved() {
		p.logger.Error().Str("ticker", ticker).Msg("could not resolve CIK")
		return nil, false
	}

	records := p.enumerator.Enumerate(ctx, cik, window)

	selected := make([]models.FilingRecord, 0, len(records))
	for _, rec := range records {
		if forms.Contains(rec.Form) {
			selected = append(selected, rec)
		}
	}
	p.logger.Info().Str("ticker", ticker).Int("filings", len(records)).Int("selected", len(selected)).
		Msg("indexing filings")

	results := make([]IndexResult, len(selected))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, rec := range selected {
		g.Go(func() error {
			results[i] = p.indexer.Index(gctx, cik, rec.AccessionNumber)
			return nil
		})
	}
	_ = g.Wait()

	bundles := make([]models.FilingBundle, 0, len(selected))
	for i, res := range results {
		rec := selected[i]
		switch res.Status {
		case Indexed:
			bundles = append(bundles, models.FilingBundle{Metadata: rec, Reports: res.Reports})
		case NotIndexed:
			p.logger.Info().Str("accn", rec.AccessionNumber).Msg("filing has no FilingSummary, skipping")
		default:
			err := res.Err
			if err == nil {
				err = errors.New("unknown index failure")
			}
			p.logger.Warn().Err(err).Str("accn", rec.AccessionNumber).Msg("failed to index filing, skipping")
		}
	}

	p.logger.Info().Str("ticker", ticker).Str("cik", string(cik)).Int("bundles", len(bundles)).Msg("filings indexed")
	return bundles, true
}
