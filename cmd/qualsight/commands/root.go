package commands

import (
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "qualsight",
	Short: "QualSight - multi-source fundamentals quality analysis",
	Long: `QualSight Unified CLI

Fetches multi-year fundamentals from Screener.in, Yahoo Finance, and
Financial Modeling Prep, scores company quality across seven weighted
categories, and flags forensic warning signs.

Usage:
  go run ./cmd/qualsight [command]

Examples:
  go run ./cmd/qualsight analyze TCS
  go run ./cmd/qualsight search "tata motors"
  go run ./cmd/qualsight validate RELIANCE
  go run ./cmd/qualsight api
  go run ./cmd/qualsight refresh --schedule
  go run ./cmd/qualsight extract annual-report.txt --ticker ACME`,
	SilenceUsage: true,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}
