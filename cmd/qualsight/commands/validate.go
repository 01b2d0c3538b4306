package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <ticker-or-name>",
	Short: "Check whether an identifier resolves to a real company",
	Long: `Runs the validation chain (fundamentals search, market search, direct
symbol lookup, known-name table) and reports the best match.

Example:
  go run ./cmd/qualsight validate RELIANCE
  go run ./cmd/qualsight validate "hdfc bank"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	input := strings.TrimSpace(strings.Join(args, " "))

	d, err := buildDeps()
	if err != nil {
		return err
	}
	defer d.close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	result := d.validator.Validate(ctx, input)
	if !result.Valid {
		fmt.Printf("✗ %s\n", result.Message)
		return nil
	}

	fmt.Printf("✓ %q is valid\n", input)
	if result.BestMatch != nil {
		fmt.Printf("  Best match: %s (%s) via %s\n",
			result.BestMatch.Name, result.BestMatch.Ticker, result.BestMatch.Source)
	}
	for _, m := range result.Matches {
		fmt.Printf("  - %-14s %s\n", m.Ticker, m.Name)
	}
	return nil
}
