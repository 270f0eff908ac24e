package models

import (
	"sort"
	"strings"
	"time"
)

// DateLayout is the calendar date format used by EDGAR submission indexes.
const DateLayout = "2006-01-02"

// CIK is the 10 character, zero-padded registry identifier of a filer.
// The empty string means the ticker could not be resolved.
type CIK string

// Resolved reports whether the identifier holds a usable value.
func (c CIK) Resolved() bool { return c != "" }

// PadCIK left-pads a raw numeric id with zeros to 10 characters.
// Ids already 10 characters or longer are returned unchanged.
func PadCIK(raw string) CIK {
	if len(raw) >= 10 {
		return CIK(raw)
	}
	return CIK(strings.Repeat("0", 10-len(raw)) + raw)
}

// FilingRecord is one entry of a company's submission history.
type FilingRecord struct {
	AccessionNumber string `json:"accession_number"` // e.g., "0000320193-24-000123"
	Form            string `json:"form"`             // "10-K", "10-Q", "8-K"
	FilingDate      string `json:"filing_date"`      // YYYY-MM-DD
	ReportDate      string `json:"report_date"`      // Period end, may be empty
}

// Window bounds enumeration to filings made on or after Cutoff.
// The zero value applies no bound.
type Window struct {
	Cutoff time.Time
}

// NoWindow keeps every filing.
var NoWindow = Window{}

// Since returns a window starting at the calendar day of t.
func Since(t time.Time) Window {
	return Window{Cutoff: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// ParseWindow parses a YYYY-MM-DD cutoff. An empty string yields NoWindow.
func ParseWindow(s string) (Window, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return NoWindow, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return NoWindow, err
	}
	return Window{Cutoff: t}, nil
}

// Active reports whether the window bounds anything.
func (w Window) Active() bool { return !w.Cutoff.IsZero() }

// String renders the cutoff, or "*" when no window is set.
func (w Window) String() string {
	if !w.Active() {
		return "*"
	}
	return w.Cutoff.Format(DateLayout)
}

// ReportEntry describes one sub-report listed in a filing's manifest.
type ReportEntry struct {
	ShortName string `json:"name_short"`
	LongName  string `json:"name_long"`
	URL       string `json:"url"`
}

// ReportIndex groups report entries by category ("statement", "disclosure", ...).
// Entries keep manifest order within a category.
type ReportIndex map[string][]ReportEntry

// Add appends an entry under category.
func (r ReportIndex) Add(category string, entry ReportEntry) {
	r[category] = append(r[category], entry)
}

// Count returns the number of entries across all categories.
func (r ReportIndex) Count() int {
	n := 0
	for _, entries := range r {
		n += len(entries)
	}
	return n
}

// FilingBundle pairs a filing with its report index.
// Bundles are read-only once published by the cache.
type FilingBundle struct {
	Metadata FilingRecord `json:"metadata"`
	Reports  ReportIndex  `json:"reports"`
}

// FilingSummary is the flattened view of a bundle served to clients.
type FilingSummary struct {
	AccessionNumber string      `json:"accn"`
	Form            string      `json:"form"`
	FilingDate      string      `json:"filing_date"`
	Reports         ReportIndex `json:"reports"`
}

// Summarize flattens bundles for presentation, keeping their order.
func Summarize(bundles []FilingBundle) []FilingSummary {
	out := make([]FilingSummary, 0, len(bundles))
	for _, b := range bundles {
		out = append(out, FilingSummary{
			AccessionNumber: b.Metadata.AccessionNumber,
			Form:            b.Metadata.Form,
			FilingDate:      b.Metadata.FilingDate,
			Reports:         b.Reports,
		})
	}
	return out
}

// FilingTypes returns the sorted distinct form types present in bundles.
func FilingTypes(bundles []FilingBundle) []string {
	seen := make(map[string]bool)
	types := make([]string, 0)
	for _, b := range bundles {
		if !seen[b.Metadata.Form] {
			seen[b.Metadata.Form] = true
			types = append(types, b.Metadata.Form)
		}
	}
	sort.Strings(types)
	return types
}

// FormSet is a set of form types used to filter filings.
type FormSet map[string]bool

// NewFormSet builds a set from form names, ignoring blanks.
func NewFormSet(forms ...string) FormSet {
	set := make(FormSet, len(forms))
	for _, f := range forms {
		if f = strings.TrimSpace(f); f != "" {
			set[f] = true
		}
	}
	return set
}

// Contains reports whether form is in the set.
func (s FormSet) Contains(form string) bool { return s[form] }

// DefaultForms are the periodic reports indexed when no form set is given.
var DefaultForms = []string{"10-K", "10-Q"}
