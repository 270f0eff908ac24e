package export

import (
	"fmt"
	"path/filepath"
	"strings"
)

// FileName builds the workbook name for a report:
// {TICKER}_{report name}_{filing date}_{form}.xlsx with spaces in the report name
// turned into underscores. Slashes become hyphens so every part stays in one path element.
func FileName(ticker, reportName, filingDate, form string) string {
	safeReport := strings.ReplaceAll(reportName, " ", "_")
	safeReport = strings.ReplaceAll(safeReport, "/", "-")
	return fmt.Sprintf("%s_%s_%s_%s.xlsx",
		strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(ticker)), "/", "-"),
		safeReport,
		strings.ReplaceAll(filingDate, "/", "-"),
		strings.ReplaceAll(form, "/", "-"),
	)
}

// PathIn joins FileName onto dir.
func PathIn(dir, ticker, reportName, filingDate, form string) string {
	return filepath.Join(dir, FileName(ticker, reportName, filingDate, form))
}
