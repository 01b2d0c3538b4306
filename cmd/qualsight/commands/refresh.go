package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"qualsight/internal/scheduler"
	"qualsight/internal/scheduler/jobs"
	"qualsight/internal/store"
	"qualsight/pkg/database"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Re-fetch and re-analyze the configured watchlist",
	Long: `Runs the watchlist refresh: fetches fresh fundamentals for every
WATCHLIST_TICKERS entry, re-scores it, and stores the results.

By default the refresh runs once and exits. With --schedule it stays
resident and runs on the WATCHLIST_CRON expression instead.

Example:
  go run ./cmd/qualsight refresh
  go run ./cmd/qualsight refresh --schedule`,
	RunE: runRefresh,
}

var refreshSchedule bool

func init() {
	rootCmd.AddCommand(refreshCmd)

	refreshCmd.Flags().BoolVar(&refreshSchedule, "schedule", false, "run as a resident cron job instead of once")
}

func runRefresh(cmd *cobra.Command, args []string) error {
	d, err := buildDeps()
	if err != nil {
		return err
	}
	defer d.close()
	if len(d.cfg.Watchlist.Tickers) == 0 {
		return fmt.Errorf("WATCHLIST_TICKERS is empty, nothing to refresh")
	}

	ctx := context.Background()

	var records jobs.RecordStore
	var reports jobs.ReportStore
	if d.cfg.Database.Enabled {
		db, err := database.New(d.cfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()

		if err := store.Migrate(ctx, db.Pool); err != nil {
			return err
		}
		records = store.NewRecordRepository(db.Pool)
		reports = store.NewReportRepository(db.Pool)
	}

	var enhancer jobs.Enhancer
	if narrator, _ := d.buildAI(ctx); narrator != nil {
		enhancer = narrator
	}

	job := jobs.NewWatchlistRefresh(
		d.fetcher, d.analyzer, enhancer,
		records, reports,
		d.cfg.Watchlist, d.log,
	)

	if !refreshSchedule {
		fmt.Printf("Refreshing %d watchlist ticker(s)...\n", len(d.cfg.Watchlist.Tickers))
		return job.Run(ctx)
	}

	sched := scheduler.New(d.log)
	if err := sched.AddJob(job); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	fmt.Printf("Watchlist refresh scheduled (%s), press Ctrl+C to stop\n", d.cfg.Watchlist.CronSpec)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	return nil
}
