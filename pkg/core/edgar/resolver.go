package edgar

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/phuslu/log"

	"edgar_export/pkg/core/logging"
	"edgar_export/pkg/models"
)

// DefaultSearchURL is EDGAR's full-text search index.
const DefaultSearchURL = "https://efts.sec.gov/LATEST/search-index"

// searchResponse is the part of the search-index payload we read.
type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID string `json:"_id"`
		} `json:"hits"`
	} `json:"hits"`
}

// Resolver maps tickers to CIKs through the search endpoint.
type Resolver struct {
	gateway   *Gateway
	searchURL string
	logger    *log.Logger
}

// NewResolver creates a resolver. An empty searchURL uses DefaultSearchURL.
func NewResolver(gateway *Gateway, searchURL string, logger *log.Logger) *Resolver {
	if searchURL == "" {
		searchURL = DefaultSearchURL
	}
	return &Resolver{gateway: gateway, searchURL: searchURL, logger: logging.OrDiscard(logger)}
}

// Resolve returns the padded CIK for ticker, or "" when there is no usable match.
// Failures are logged and never returned.
func (r *Resolver) Resolve(ctx context.Context, ticker string) models.CIK {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		r.logger.Error().Msg("cannot resolve empty ticker")
		return ""
	}

	u := r.searchURL + "?keysTyped=" + url.QueryEscape(ticker)
	r.logger.Debug().Str("ticker", ticker).Str("url", u).Msg("resolving CIK")

	resp, ok := r.gateway.Fetch(ctx, u)
	if !ok {
		r.logger.Warn().Str("ticker", ticker).Msg("CIK lookup request failed")
		return ""
	}

	var sr searchResponse
	if err := json.Unmarshal(resp.Body, &sr); err != nil {
		r.logger.Error().Err(err).Str("ticker", ticker).Msg("failed to parse CIK search response")
		return ""
	}
	if len(sr.Hits.Hits) == 0 {
		r.logger.Error().Str("ticker", ticker).Msg("no CIK match in search response")
		return ""
	}

	raw := strings.TrimSpace(sr.Hits.Hits[0].ID)
	if raw == "" {
		r.logger.Error().Str("ticker", ticker).Msg("first search hit has empty _id")
		return ""
	}

	cik := models.PadCIK(raw)
	r.logger.Debug().Str("ticker", ticker).Str("cik", string(cik)).Msg("resolved CIK")
	return cik
}
