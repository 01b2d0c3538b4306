package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search for companies across all data sources",
	Long: `Searches every configured data source for companies matching the
query and prints the de-duplicated results.

Example:
  go run ./cmd/qualsight search "tata motors"
  go run ./cmd/qualsight search INFY`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))

	d, err := buildDeps()
	if err != nil {
		return err
	}
	defer d.close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	matches := d.fetcher.SearchCompany(ctx, query)
	if len(matches) == 0 {
		fmt.Printf("No companies found for %q\n", query)
		return nil
	}

	fmt.Printf("Found %d match(es) for %q:\n\n", len(matches), query)
	for _, m := range matches {
		fmt.Printf("  %-14s %-50s %s\n", m.Ticker, m.Name, m.Source)
	}
	return nil
}
