package edgar

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/phuslu/log"

	"edgar_export/pkg/core/logging"
	"edgar_export/pkg/models"
)

// DefaultSubmissionsURL is the base of the EDGAR submissions API.
const DefaultSubmissionsURL = "https://data.sec.gov/submissions"

// SubmissionBatch holds one page of filings as parallel arrays.
// Index i across all arrays describes one filing.
type SubmissionBatch struct {
	AccessionNumber []string `json:"accessionNumber"` // e.g., "0000037996-24-000012"
	Form            []string `json:"form"`            // "10-K", "10-Q", "8-K"
	FilingDate      []string `json:"filingDate"`      // e.g., "2024-02-06"
	ReportDate      []string `json:"reportDate"`      // Fiscal period end
}

// submissionIndex is the top-level CIK##########.json document.
// Overflow pages are listed newest first and share the SubmissionBatch shape.
type submissionIndex struct {
	Filings struct {
		Recent SubmissionBatch `json:"recent"`
		Files  []struct {
			Name string `json:"name"`
		} `json:"files"`
	} `json:"filings"`
}

// Enumerator walks a filer's submission history.
type Enumerator struct {
	gateway *Gateway
	baseURL string
	logger  *log.Logger
	now     func() time.Time
}

// NewEnumerator creates an enumerator. An empty baseURL uses DefaultSubmissionsURL.
func NewEnumerator(gateway *Gateway, baseURL string, logger *log.Logger) *Enumerator {
	if baseURL == "" {
		baseURL = DefaultSubmissionsURL
	}
	return &Enumerator{
		gateway: gateway,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logging.OrDiscard(logger),
		now:     time.Now,
	}
}

// Enumerate returns the filings of cik in enumeration order.
//
// With an active window, records filed before the cutoff are dropped and paging stops
// once a batch's oldest filing date precedes the cutoff. A missing or unreadable
// submission index yields an empty list.
func (e *Enumerator) Enumerate(ctx context.Context, cik models.CIK, window models.Window) []models.FilingRecord {
	records := make([]models.FilingRecord, 0)
	if !cik.Resolved() {
		return records
	}

	u := fmt.Sprintf("%s/CIK%s.json", e.baseURL, cik)
	e.logger.Info().Str("cik", string(cik)).Str("window", window.String()).Msg("fetching submissions")

	resp, ok := e.gateway.Fetch(ctx, u)
	if !ok {
		e.logger.Error().Str("cik", string(cik)).Msg("failed to fetch submissions")
		return records
	}

	var idx submissionIndex
	if err := json.Unmarshal(resp.Body, &idx); err != nil {
		e.logger.Error().Err(err).Str("cik", string(cik)).Msg("failed to parse submissions")
		return records
	}

	recent, within := e.ExtractBatch(idx.Filings.Recent, window)
	records = append(records, recent...)
	e.logger.Debug().Str("cik", string(cik)).Int("count", len(recent)).Msg("extracted recent filings")

	files := idx.Filings.Files
	if window.Active() && !within {
		e.logger.Debug().Str("cik", string(cik)).Int("skipped_files", len(files)).
			Msg("recent filings reach past cutoff, skipping overflow pages")
		e.logger.Info().Str("cik", string(cik)).Int("total", len(records)).Msg("filings fetched")
		return records
	}

	e.logger.Debug().Str("cik", string(cik)).Int("files", len(files)).Msg("overflow pages listed")
	for _, f := range files {
		if f.Name == "" {
			e.logger.Error().Str("cik", string(cik)).Msg("overflow page entry without a name")
			continue
		}
		batch, ok := e.fetchPage(ctx, f.Name)
		if !ok {
			e.logger.Warn().Str("file", f.Name).Msg("skipping overflow page, fetch failed")
			continue
		}

		page, within := e.ExtractBatch(batch, window)
		records = append(records, page...)
		if window.Active() && !within {
			e.logger.Debug().Str("file", f.Name).Str("cik", string(cik)).
				Msg("page reaches past cutoff, stopping pagination")
			break
		}
	}

	e.logger.Info().Str("cik", string(cik)).Int("total", len(records)).Msg("filings fetched")
	return records
}

func (e *Enumerator) fetchPage(ctx context.Context, name string) (SubmissionBatch, bool) {
	var batch SubmissionBatch
	resp, ok := e.gateway.Fetch(ctx, e.baseURL+"/"+name)
	if !ok {
		return batch, false
	}
	if err := json.Unmarshal(resp.Body, &batch); err != nil {
		e.logger.Error().Err(err).Str("file", name).Msg("failed to parse overflow page")
		return batch, false
	}
	return batch, true
}

// ExtractBatch converts one batch into records and reports whether older pages may
// still hold filings inside the window.
//
// The whole batch is always scanned: ordering inside a batch is not guaranteed, so only
// the oldest filing date seen decides whether paging continues. Dates that fail to parse
// count as now. Entries missing any array field are skipped.
func (e *Enumerator) ExtractBatch(batch SubmissionBatch, window models.Window) ([]models.FilingRecord, bool) {
	records := make([]models.FilingRecord, 0, len(batch.AccessionNumber))

	var oldest time.Time
	seenDate := false

	for i, accn := range batch.AccessionNumber {
		if i >= len(batch.FilingDate) {
			e.logger.Error().Int("index", i).Str("accn", accn).Msg("filing entry missing filingDate")
			continue
		}
		filingDate := batch.FilingDate[i]

		if window.Active() {
			date, err := time.Parse(models.DateLayout, filingDate)
			if err != nil {
				e.logger.Debug().Str("accn", accn).Str("filing_date", filingDate).Msg("unparseable filing date, treating as now")
				date = e.now()
			}
			if !seenDate || date.Before(oldest) {
				oldest = date
				seenDate = true
			}
			if date.Before(window.Cutoff) {
				continue
			}
		}

		if i >= len(batch.Form) || i >= len(batch.ReportDate) {
			e.logger.Error().Int("index", i).Str("accn", accn).Msg("filing entry missing form or reportDate")
			continue
		}

		records = append(records, models.FilingRecord{
			AccessionNumber: accn,
			Form:            batch.Form[i],
			FilingDate:      filingDate,
			ReportDate:      batch.ReportDate[i],
		})
	}

	if !window.Active() {
		return records, true
	}
	if !seenDate {
		return records, false
	}
	return records, !oldest.Before(window.Cutoff)
}
