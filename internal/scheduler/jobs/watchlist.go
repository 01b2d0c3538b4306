package jobs

import (
	"context"
	"fmt"
	"time"

	"qualsight/internal/fetch"
	"qualsight/internal/model"
	"qualsight/pkg/config"
	"qualsight/pkg/logger"
)

// perTickerTimeout bounds one fetch+analyze cycle inside the job
const perTickerTimeout = 2 * time.Minute

// Fetcher yields a usable financial record for an identifier
type Fetcher interface {
	FetchData(ctx context.Context, identifier string, years int, marketHint string) (*model.FinancialRecord, error)
}

// Analyzer scores a record into a report
type Analyzer interface {
	Analyze(record *model.FinancialRecord) *model.QualityReport
}

// Enhancer fills the report's narrative fields
type Enhancer interface {
	Enhance(ctx context.Context, record *model.FinancialRecord, report *model.QualityReport)
}

// RecordStore persists fetched records
type RecordStore interface {
	Save(ctx context.Context, record *model.FinancialRecord) error
}

// ReportStore persists quality reports
type ReportStore interface {
	Save(ctx context.Context, report *model.QualityReport) error
}

// WatchlistRefresh re-fetches and re-analyzes every watchlist ticker on its
// cron schedule. Narrative enhancement and persistence are optional; a nil
// collaborator is skipped.
type WatchlistRefresh struct {
	fetcher  Fetcher
	analyzer Analyzer
	enhancer Enhancer
	records  RecordStore
	reports  ReportStore
	cfg      config.WatchlistConfig
	log      *logger.Logger
}

// NewWatchlistRefresh creates the refresh job
func NewWatchlistRefresh(
	fetcher Fetcher,
	analyzer Analyzer,
	enhancer Enhancer,
	records RecordStore,
	reports ReportStore,
	cfg config.WatchlistConfig,
	log *logger.Logger,
) *WatchlistRefresh {
	return &WatchlistRefresh{
		fetcher:  fetcher,
		analyzer: analyzer,
		enhancer: enhancer,
		records:  records,
		reports:  reports,
		cfg:      cfg,
		log:      log,
	}
}

// Name implements scheduler.Job
func (j *WatchlistRefresh) Name() string { return "watchlist_refresh" }

// Schedule implements scheduler.Job
func (j *WatchlistRefresh) Schedule() string { return j.cfg.CronSpec }

// Run refreshes every ticker; one failing ticker does not stop the rest
func (j *WatchlistRefresh) Run(ctx context.Context) error {
	if len(j.cfg.Tickers) == 0 {
		j.log.Warn("Watchlist is empty, nothing to refresh")
		return nil
	}

	failed := 0
	var lastErr error
	for _, symbol := range j.cfg.Tickers {
		if err := j.refreshOne(ctx, symbol); err != nil {
			failed++
			lastErr = err
			j.log.WithError(err).WithField("ticker", symbol).Warn("Watchlist refresh failed for ticker")
		}
	}

	if failed > 0 {
		return fmt.Errorf("refresh failed for %d of %d tickers: %w", failed, len(j.cfg.Tickers), lastErr)
	}
	return nil
}

func (j *WatchlistRefresh) refreshOne(ctx context.Context, symbol string) error {
	ctx, cancel := context.WithTimeout(ctx, perTickerTimeout)
	defer cancel()

	record, err := j.fetcher.FetchData(ctx, symbol, j.cfg.Years, fetch.MarketAuto)
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}

	report := j.analyzer.Analyze(record)
	if j.enhancer != nil {
		j.enhancer.Enhance(ctx, record, report)
	}

	if j.records != nil {
		if err := j.records.Save(ctx, record); err != nil {
			return fmt.Errorf("record save failed: %w", err)
		}
	}
	if j.reports != nil {
		if err := j.reports.Save(ctx, report); err != nil {
			return fmt.Errorf("report save failed: %w", err)
		}
	}

	j.log.WithFields(map[string]interface{}{
		"ticker": symbol,
		"score":  report.OverallScore,
	}).Info("Watchlist ticker refreshed")

	return nil
}
