package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"qualsight/internal/ai"
)

var extractCmd = &cobra.Command{
	Use:   "extract <report.txt>",
	Short: "Analyze a company from annual-report text instead of live sources",
	Long: `Reads raw annual-report text from a file, extracts the financial
figures with the configured model, and scores the result the same way
as a live fetch. Requires GEMINI_API_KEY.

Example:
  go run ./cmd/qualsight extract reliance-ar-2024.txt --name "Reliance Industries" --ticker RELIANCE
  go run ./cmd/qualsight extract report.txt --ticker ACME --json`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

var (
	extractName   string
	extractTicker string
	extractYears  int
	extractJSON   bool
)

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVar(&extractName, "name", "", "company name (defaults to the ticker)")
	extractCmd.Flags().StringVar(&extractTicker, "ticker", "", "ticker symbol to tag the report with (required)")
	extractCmd.Flags().IntVar(&extractYears, "years", 5, "years of history to extract (1-10)")
	extractCmd.Flags().BoolVar(&extractJSON, "json", false, "print the raw report as JSON")
	_ = extractCmd.MarkFlagRequired("ticker")
}

func runExtract(cmd *cobra.Command, args []string) error {
	text, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}

	d, err := buildDeps()
	if err != nil {
		return err
	}
	defer d.close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if d.cfg.Gemini.APIKey == "" {
		return fmt.Errorf("document extraction requires GEMINI_API_KEY")
	}
	gen, err := ai.NewGeminiClient(ctx, d.cfg.Gemini)
	if err != nil {
		return fmt.Errorf("create extraction client: %w", err)
	}
	extractor, err := ai.NewExtractor(gen, d.log)
	if err != nil {
		return err
	}
	narrator := ai.NewNarrator(gen, d.log)
	forensic := ai.NewForensicAnalyst(gen, d.log)

	ticker := strings.ToUpper(strings.TrimSpace(extractTicker))
	name := strings.TrimSpace(extractName)
	if name == "" {
		name = ticker
	}

	record, err := extractor.ExtractRecord(ctx, name, ticker, string(text), extractYears)
	if err != nil {
		return fmt.Errorf("extract %s: %w", args[0], err)
	}

	report := d.analyzer.Analyze(record)
	narrator.Enhance(ctx, record, report)
	report.Management = forensic.AssessManagement(ctx, record, report)

	if extractJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	}

	printReport(report)
	return nil
}
