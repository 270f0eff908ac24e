package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPadCIK(t *testing.T) {
	tests := []struct {
		raw      string
		expected CIK
	}{
		{"320193", "0000320193"},
		{"1", "0000000001"},
		{"0000320193", "0000320193"},
		{"12345678901", "12345678901"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.expected, PadCIK(tc.raw), "raw %q", tc.raw)
	}
}

func TestParseWindow(t *testing.T) {
	w, err := ParseWindow("")
	require.NoError(t, err)
	assert.False(t, w.Active())
	assert.Equal(t, "*", w.String())

	w, err = ParseWindow("2024-03-01")
	require.NoError(t, err)
	assert.True(t, w.Active())
	assert.Equal(t, "2024-03-01", w.String())

	_, err = ParseWindow("03/01/2024")
	assert.Error(t, err)
}

func TestSinceTruncatesToDay(t *testing.T) {
	w := Since(time.Date(2024, 3, 1, 17, 45, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), w.Cutoff)
}

func TestFilingTypesSortedAndDistinct(t *testing.T) {
	bundles := []FilingBundle{
		{Metadata: FilingRecord{Form: "10-Q"}},
		{Metadata: FilingRecord{Form: "10-K"}},
		{Metadata: FilingRecord{Form: "10-Q"}},
	}

	assert.Equal(t, []string{"10-K", "10-Q"}, FilingTypes(bundles))
	assert.Empty(t, FilingTypes(nil))
}

func TestSummarizeKeepsOrder(t *testing.T) {
	idx := ReportIndex{}
	idx.Add("statement", ReportEntry{ShortName: "Balance Sheet"})
	bundles := []FilingBundle{
		{Metadata: FilingRecord{AccessionNumber: "a", Form: "10-K", FilingDate: "2024-02-01"}, Reports: idx},
		{Metadata: FilingRecord{AccessionNumber: "b", Form: "10-Q", FilingDate: "2023-11-01"}},
	}

	summary := Summarize(bundles)
	require.Len(t, summary, 2)
	assert.Equal(t, "a", summary[0].AccessionNumber)
	assert.Equal(t, 1, summary[0].Reports.Count())
	assert.Equal(t, "b", summary[1].AccessionNumber)
}

func TestFormSet(t *testing.T) {
	set := NewFormSet("10-K", " 10-Q ", "")
	assert.True(t, set.Contains("10-K"))
	assert.True(t, set.Contains("10-Q"))
	assert.False(t, set.Contains("8-K"))
	assert.Len(t, set, 2)
}
