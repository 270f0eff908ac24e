// Package export turns a single EDGAR report page into an xlsx workbook.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/phuslu/log"
	"github.com/xuri/excelize/v2"

	"edgar_export/pkg/core/edgar"
	"edgar_export/pkg/core/logging"
	"edgar_export/pkg/core/metrics"
)

var (
	// ErrFetchFailed means the report page could not be retrieved or read.
	ErrFetchFailed = errors.New("report fetch failed")
	// ErrWriteFailed means no workbook was written to the destination.
	ErrWriteFailed = errors.New("workbook write failed")
)

// StatementCategory reports carry only tables; other categories also get their text.
const StatementCategory = "statement"

// definitionLabels is the first column of the XBRL element definition table
// appended to rendered reports. It carries no report data.
var definitionLabels = []string{
	"Name:",
	"Namespace Prefix:",
	"Data Type:",
	"Balance Type:",
	"Period Type:",
}

// IsDefinitionTable reports whether t is the XBRL definition table.
// Only an exact match of the first column counts.
func IsDefinitionTable(t Table) bool {
	return slices.Equal(t.FirstColumn(), definitionLabels)
}

// Fetcher retrieves report pages. *edgar.Gateway implements it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*edgar.Response, bool)
}

// Result describes a written workbook.
type Result struct {
	Path       string `json:"path"`
	Tables     int    `json:"tables"`
	TextBlocks int    `json:"text_blocks"`
}

// Exporter fetches report pages and writes them as workbooks.
// It holds no per-export state and is safe for concurrent use.
type Exporter struct {
	fetcher Fetcher
	logger  *log.Logger
	metrics *metrics.Metrics
}

// NewExporter creates an exporter.
func NewExporter(fetcher Fetcher, logger *log.Logger, m *metrics.Metrics) *Exporter {
	return &Exporter{fetcher: fetcher, logger: logging.OrDiscard(logger), metrics: m}
}

// Export writes the report at url to dest. See ExportResult.
func (e *Exporter) Export(ctx context.Context, url, dest, category string) error {
	_, err := e.ExportResult(ctx, url, dest, category)
	return err
}

// ExportResult writes one sheet per table of the report at url to dest, plus a
// Text_Content sheet unless category is "statement". The XBRL definition table is dropped.
// Errors wrap ErrFetchFailed or ErrWriteFailed; on error dest is left untouched.
func (e *Exporter) ExportResult(ctx context.Context, url, dest, category string) (*Result, error) {
	if category == "" {
		category = StatementCategory
	}
	e.logger.Info().Str("url", url).Str("dest", dest).Str("category", category).Msg("exporting report")

	resp, ok := e.fetcher.Fetch(ctx, url)
	if !ok {
		e.logger.Error().Str("url", url).Msg("failed to fetch report for export")
		e.metrics.ExportResult(metrics.ExportFetchFailed, 0)
		return nil, fmt.Errorf("%w: %s", ErrFetchFailed, url)
	}

	doc, err := ParseDocument(bytes.NewReader(resp.Body))
	if err != nil {
		e.metrics.ExportResult(metrics.ExportFetchFailed, 0)
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	tables := make([]Table, 0, len(doc.Tables))
	for _, t := range doc.Tables {
		if IsDefinitionTable(t) {
			continue
		}
		if t.Width() > excelize.MaxColumns {
			e.logger.Debug().Str("table", t.Name).Int("width", t.Width()).Msg("table wider than a worksheet, skipping")
			continue
		}
		tables = append(tables, t)
	}
	e.logger.Debug().Int("removed", len(doc.Tables)-len(tables)).Int("remaining", len(tables)).
		Msg("removed XBRL definition and oversized tables")

	sheets := make([]Sheet, 0, len(tables)+1)
	for _, t := range tables {
		sheets = append(sheets, tableSheet(t))
	}
	textBlocks := 0
	if category != StatementCategory {
		sheets = append(sheets, textSheet(doc.Text))
		textBlocks = len(doc.Text)
	}

	if err := writeWorkbook(dest, sheets); err != nil {
		e.logger.Error().Err(err).Str("dest", dest).Msg("failed to write workbook")
		e.metrics.ExportResult(metrics.ExportWriteFailed, 0)
		return nil, err
	}

	e.metrics.ExportResult(metrics.ExportOK, len(tables))
	e.logger.Info().Str("dest", dest).Int("tables", len(tables)).Msg("export complete")
	return &Result{Path: dest, Tables: len(tables), TextBlocks: textBlocks}, nil
}
