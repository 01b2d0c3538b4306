package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"qualsight/internal/fetch"
	"qualsight/internal/model"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <ticker-or-name>",
	Short: "Fetch fundamentals and produce a quality report",
	Long: `Fetches multi-year fundamentals for a company, scores it across the
seven quality categories, and prints the report.

Example:
  go run ./cmd/qualsight analyze TCS
  go run ./cmd/qualsight analyze AAPL --years 7 --json
  go run ./cmd/qualsight analyze RELIANCE --market india`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

var (
	analyzeYears  int
	analyzeMarket string
	analyzeJSON   bool
	analyzeNoAI   bool
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().IntVar(&analyzeYears, "years", 5, "years of history to analyze (1-10)")
	analyzeCmd.Flags().StringVar(&analyzeMarket, "market", fetch.MarketAuto, "market hint (auto|india|global)")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the raw report as JSON")
	analyzeCmd.Flags().BoolVar(&analyzeNoAI, "no-ai", false, "skip AI narrative enhancement")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	identifier := strings.TrimSpace(args[0])

	d, err := buildDeps()
	if err != nil {
		return err
	}
	defer d.close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	result := d.validator.Validate(ctx, identifier)
	if !result.Valid {
		return fmt.Errorf("%s", result.Message)
	}
	if result.BestMatch != nil && result.BestMatch.Ticker != "" {
		identifier = result.BestMatch.Ticker
	}

	record, err := d.fetcher.FetchData(ctx, identifier, analyzeYears, analyzeMarket)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", identifier, err)
	}

	report := d.analyzer.Analyze(record)

	if !analyzeNoAI {
		narrator, forensic := d.buildAI(ctx)
		if narrator != nil {
			narrator.Enhance(ctx, record, report)
			report.Management = forensic.AssessManagement(ctx, record, report)
		}
	}

	if analyzeJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	}

	printReport(report)
	return nil
}

func printReport(report *model.QualityReport) {
	fmt.Printf("\n%s (%s)\n", report.CompanyName, report.Ticker)
	fmt.Printf("Source: %s | Years: %d\n", report.DataSource, report.YearsAnalyzed)
	fmt.Printf("\nOverall Quality Score: %.1f/10\n\n", report.OverallScore)

	for _, cs := range report.CategoryScores {
		fmt.Printf("  %-36s %5.1f  (weight %.0f%%)\n", cs.Category, cs.Score, cs.Weight*100)
	}

	if len(report.KeyStrengths) > 0 {
		fmt.Println("\nKey Strengths:")
		for _, s := range report.KeyStrengths {
			fmt.Printf("  + %s\n", s)
		}
	}

	if len(report.RedFlags) > 0 {
		fmt.Println("\nRed Flags:")
		for _, rf := range report.RedFlags {
			fmt.Printf("  ! [%s] %s\n", rf.Severity, rf.Description)
		}
	}

	if report.ExecutiveSummary != "" {
		fmt.Println("\nExecutive Summary:")
		fmt.Println(report.ExecutiveSummary)
	}
	if report.Management != nil {
		fmt.Printf("\nManagement Assessment: %s (confidence %.0f%%)\n",
			report.Management.Verdict, report.Management.ConfidenceScore*100)
	}
	fmt.Println()
}
