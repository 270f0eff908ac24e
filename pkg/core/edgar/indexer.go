package edgar

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/phuslu/log"

	"edgar_export/pkg/core/logging"
	"edgar_export/pkg/core/metrics"
	"edgar_export/pkg/models"
)

// DefaultArchivesURL is the root of the EDGAR filing archives.
const DefaultArchivesURL = "https://www.sec.gov/Archives/edgar/data"

// ErrNotIndexed marks a filing that has no FilingSummary.xml.
var ErrNotIndexed = errors.New("filing has no report manifest")

// IndexStatus tags the outcome of indexing one filing.
type IndexStatus int

const (
	IndexFailed IndexStatus = iota
	Indexed
	NotIndexed
)

func (s IndexStatus) String() string {
	switch s {
	case Indexed:
		return metrics.IndexIndexed
	case NotIndexed:
		return metrics.IndexNotIndexed
	default:
		return metrics.IndexFailed
	}
}

// IndexResult is the outcome of Indexer.Index.
// Reports is set only when Status is Indexed; Err only otherwise.
type IndexResult struct {
	Status  IndexStatus
	Reports models.ReportIndex
	Err     error
}

// Indexer builds the categorized report index of a filing from its manifest.
type Indexer struct {
	gateway *Gateway
	baseURL string
	logger  *log.Logger
	metrics *metrics.Metrics
}

// NewIndexer creates an indexer. An empty baseURL uses DefaultArchivesURL.
func NewIndexer(gateway *Gateway, baseURL string, logger *log.Logger, m *metrics.Metrics) *Indexer {
	if baseURL == "" {
		baseURL = DefaultArchivesURL
	}
	return &Indexer{
		gateway: gateway,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logging.OrDiscard(logger),
		metrics: m,
	}
}

// FilingRoot returns the archive folder of a filing:
// {base}/{cik without padding}/{accession without hyphens}.
func (ix *Indexer) FilingRoot(cik models.CIK, accession string) (string, error) {
	n, err := strconv.ParseUint(string(cik), 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid CIK %q: %w", cik, err)
	}
	return fmt.Sprintf("%s/%d/%s", ix.baseURL, n, strings.ReplaceAll(accession, "-", "")), nil
}

// Index fetches FilingSummary.xml for one filing and groups its reports by category.
// A 404 yields NotIndexed; any other failure yields IndexFailed.
func (ix *Indexer) Index(ctx context.Context, cik models.CIK, accession string) IndexResult {
	res := ix.index(ctx, cik, accession)
	ix.metrics.IndexResult(res.Status.String())
	return res
}

func (ix *Indexer) index(ctx context.Context, cik models.CIK, accession string) IndexResult {
	root, err := ix.FilingRoot(cik, accession)
	if err != nil {
		return IndexResult{Status: IndexFailed, Err: err}
	}

	u := root + "/FilingSummary.xml"
	ix.logger.Debug().Str("accn", accession).Str("url", u).Msg("fetching FilingSummary")

	resp, err := ix.gateway.Get(ctx, u)
	if err != nil {
		return IndexResult{Status: IndexFailed, Err: err}
	}
	if resp.StatusCode == http.StatusNotFound {
		return IndexResult{Status: NotIndexed, Err: ErrNotIndexed}
	}
	if !resp.OK() {
		return IndexResult{Status: IndexFailed, Err: fmt.Errorf("GET %s: status %d", u, resp.StatusCode)}
	}

	return IndexResult{Status: Indexed, Reports: ix.parseManifest(resp.Body, root, accession)}
}

// parseManifest reads MyReports/Report entries. The final entry ("All Reports") is not a
// report of its own and is dropped. Malformed entries are skipped.
func (ix *Indexer) parseManifest(body []byte, root, accession string) models.ReportIndex {
	reports := make(models.ReportIndex)

	doc, err := xmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		ix.logger.Warn().Err(err).Str("accn", accession).Msg("unparseable FilingSummary")
		return reports
	}

	myReports := findElement(doc, "MyReports")
	if myReports == nil {
		ix.logger.Warn().Str("accn", accession).Msg("no MyReports found in FilingSummary")
		return reports
	}

	entries := findElements(myReports, "Report")
	if len(entries) > 0 {
		entries = entries[:len(entries)-1]
	}

	for i, node := range entries {
		category, entry, err := readReport(node, root)
		if err != nil {
			ix.logger.Error().Err(err).Str("accn", accession).Int("index", i).Msg("failed to parse report entry")
			continue
		}
		reports.Add(category, entry)
	}

	ix.logger.Debug().Str("accn", accession).Int("reports", reports.Count()).Int("categories", len(reports)).
		Msg("indexed filing")
	return reports
}

func readReport(node *xmlquery.Node, root string) (string, models.ReportEntry, error) {
	var entry models.ReportEntry

	short := findElement(node, "ShortName")
	if short == nil {
		return "", entry, errors.New("missing ShortName")
	}
	long := findElement(node, "LongName")
	if long == nil {
		return "", entry, errors.New("missing LongName")
	}

	file := findElement(node, "HtmlFileName")
	if file == nil {
		file = findElement(node, "XmlFileName")
	}
	if file == nil {
		return "", entry, errors.New("missing HtmlFileName and XmlFileName")
	}

	entry = models.ReportEntry{
		ShortName: short.InnerText(),
		LongName:  long.InnerText(),
		URL:       root + "/" + file.InnerText(),
	}

	category, err := Category(entry.LongName)
	if err != nil {
		return "", entry, err
	}
	return category, entry, nil
}

// Category derives a report's category from its long name,
// e.g. "0000002 - Statement - Balance Sheet" is "statement".
func Category(longName string) (string, error) {
	parts := strings.Split(longName, " - ")
	if len(parts) < 2 {
		return "", fmt.Errorf("long name %q has no category segment", longName)
	}
	return strings.ToLower(strings.TrimSpace(parts[1])), nil
}

// Manifest element names are matched case-insensitively; older filings vary.

func findElement(n *xmlquery.Node, name string) *xmlquery.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != xmlquery.ElementNode {
			continue
		}
		if strings.EqualFold(c.Data, name) {
			return c
		}
		if found := findElement(c, name); found != nil {
			return found
		}
	}
	return nil
}

func findElements(n *xmlquery.Node, name string) []*xmlquery.Node {
	var out []*xmlquery.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != xmlquery.ElementNode {
			continue
		}
		if strings.EqualFold(c.Data, name) {
			out = append(out, c)
		}
		out = append(out, findElements(c, name)...)
	}
	return out
}
