package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"edgar_export/pkg/models"
)

var filingsSince string

var filingsCmd = &cobra.Command{
	Use:   "filings <ticker>",
	Short: "List a company's filings and their financial reports",
	Long:  `Resolves the ticker, enumerates its periodic filings and prints each filing's report index as JSON.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runFilings,
}

func init() {
	filingsCmd.Flags().StringVar(&filingsSince, "since", "", "only filings on or after this date (YYYY-MM-DD)")
}

func runFilings(cmd *cobra.Command, args []string) error {
	ticker := strings.ToUpper(strings.TrimSpace(args[0]))
	window, err := models.ParseWindow(filingsSince)
	if err != nil {
		return fmt.Errorf("invalid --since %q: %w", filingsSince, err)
	}

	bundles, ok := edgarx.Filings.GetOrBuild(cmd.Context(), ticker, window, edgarx.Forms())
	if !ok {
		return fmt.Errorf("could not resolve ticker %s", ticker)
	}
	logger.Info().Str("ticker", ticker).Int("filings", len(bundles)).Msg("filings loaded")

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"ticker":       ticker,
		"filing_types": models.FilingTypes(bundles),
		"filings":      models.Summarize(bundles),
	})
}
