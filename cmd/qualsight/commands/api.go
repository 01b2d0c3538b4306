package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"qualsight/internal/api"
	"qualsight/internal/api/handlers"
	"qualsight/internal/store"
	"qualsight/pkg/database"
	"qualsight/pkg/redis"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the HTTP API server",
	Long: `Starts the REST API server.

Endpoints:
  GET  /health                          - Health check
  GET  /api/company/search?q=           - Cross-source company search
  GET  /api/company/validate?q=         - Identifier validation
  GET  /api/analysis/{ticker}           - Quality report (cached)
  POST /api/analysis/{ticker}/refresh   - Force re-fetch and re-analysis
  GET  /api/analysis/{ticker}/history   - Past score summaries

Example:
  go run ./cmd/qualsight api
  go run ./cmd/qualsight api --port 8080`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "override the listen port")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	d, err := buildDeps()
	if err != nil {
		return err
	}
	defer d.close()
	if apiPort != "" {
		d.cfg.Port = apiPort
	}

	ctx := context.Background()

	// Persistence is optional: without a database the API still serves
	// live analyses, it just cannot keep history
	var records handlers.RecordStore
	var reports handlers.ReportStore
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
		d.log.Info("Connected to database")
	}

	var cache handlers.Cache
	if d.redis.Enabled() {
		cache = redis.NewCache(d.redis, "qualsight")
		d.log.Info("Report cache enabled")
	}

	var enhancer handlers.Enhancer
	var assessor handlers.ManagementAssessor
	if narrator, forensic := d.buildAI(ctx); narrator != nil {
		enhancer = narrator
		assessor = forensic
	}

	companyHandler := handlers.NewCompanyHandler(d.fetcher, d.validator, d.log)
	analysisHandler := handlers.NewAnalysisHandler(
		d.fetcher, d.analyzer, enhancer, assessor,
		cache, records, reports,
		d.cfg.Watchlist.Years, d.log,
	)

	router := api.NewRouter(companyHandler, analysisHandler, d.log)
	server := api.New(d.cfg, d.log, router)

	go func() {
		if err := server.Start(); err != nil {
			d.log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("Server running on http://localhost:%s\n", d.cfg.Port)
	fmt.Println("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}
