package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"edgar_export/pkg/core/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := config.Dump(cfg)
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	},
}
