package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"qualsight/internal/fetch"
	"qualsight/internal/model"
	"qualsight/internal/store"
	"qualsight/pkg/logger"
	"qualsight/pkg/redis"
)

// Fetcher yields a usable financial record for an identifier
type Fetcher interface {
	FetchData(ctx context.Context, identifier string, years int, marketHint string) (*model.FinancialRecord, error)
}

// Scorer turns a record into a quality report
type Scorer interface {
	Analyze(record *model.FinancialRecord) *model.QualityReport
}

// Enhancer fills the report's narrative fields
type Enhancer interface {
	Enhance(ctx context.Context, record *model.FinancialRecord, report *model.QualityReport)
}

// ManagementAssessor produces the management assessment
type ManagementAssessor interface {
	AssessManagement(ctx context.Context, record *model.FinancialRecord, report *model.QualityReport) *model.ManagementAssessment
}

// Cache is the report/record cache seam; *redis.Cache satisfies it
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// RecordStore persists fetched records
type RecordStore interface {
	Save(ctx context.Context, record *model.FinancialRecord) error
	GetByTicker(ctx context.Context, ticker string) (*model.FinancialRecord, error)
}

// ReportStore persists and serves quality reports
type ReportStore interface {
	Save(ctx context.Context, report *model.QualityReport) error
	LatestByTicker(ctx context.Context, ticker string) (*model.QualityReport, error)
	History(ctx context.Context, ticker string, limit int) ([]store.ReportSummary, error)
}

// AnalysisHandler runs the fetch → analyze → enhance pipeline behind the
// analysis endpoints. Cache, persistence, and AI collaborators are optional;
// nil disables the concern.
type AnalysisHandler struct {
	fetcher      Fetcher
	scorer       Scorer
	enhancer     Enhancer
	assessor     ManagementAssessor
	cache        Cache
	records      RecordStore
	reports      ReportStore
	defaultYears int
	log          *logger.Logger
}

// NewAnalysisHandler creates the analysis handler
func NewAnalysisHandler(
	fetcher Fetcher,
	scorer Scorer,
	enhancer Enhancer,
	assessor ManagementAssessor,
	cache Cache,
	records RecordStore,
	reports ReportStore,
	defaultYears int,
	log *logger.Logger,
) *AnalysisHandler {
	if defaultYears < 1 {
		defaultYears = 5
	}
	return &AnalysisHandler{
		fetcher:      fetcher,
		scorer:       scorer,
		enhancer:     enhancer,
		assessor:     assessor,
		cache:        cache,
		records:      records,
		reports:      reports,
		defaultYears: defaultYears,
		log:          log,
	}
}

// Get serves the quality report for a ticker, from cache when fresh
// GET /api/analysis/{ticker}?years=5&market=auto
func (h *AnalysisHandler) Get(w http.ResponseWriter, r *http.Request) {
	ticker := strings.TrimSpace(mux.Vars(r)["ticker"])
	if ticker == "" {
		respondError(w, http.StatusBadRequest, "Ticker is required")
		return
	}
	years := h.yearsParam(r)
	market := marketParam(r)

	if h.cache != nil {
		var cached model.QualityReport
		if hit, err := h.cache.Get(r.Context(), redis.ReportKey(ticker), &cached); err == nil && hit {
			respondJSON(w, http.StatusOK, &cached)
			return
		}
	}

	report, err := h.analyze(r.Context(), ticker, years, market)
	if err != nil {
		// Stale stored data beats an empty answer when every source is down
		if stale := h.staleReport(r.Context(), ticker); stale != nil {
			respondJSON(w, http.StatusOK, stale)
			return
		}
		h.respondFetchError(w, ticker, err)
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// Refresh forces a re-fetch and re-analysis, bypassing and rewriting the cache
// POST /api/analysis/{ticker}/refresh
func (h *AnalysisHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ticker := strings.TrimSpace(mux.Vars(r)["ticker"])
	if ticker == "" {
		respondError(w, http.StatusBadRequest, "Ticker is required")
		return
	}
	years := h.yearsParam(r)
	market := marketParam(r)

	if h.cache != nil {
		_ = h.cache.Delete(r.Context(), redis.ReportKey(ticker))
		_ = h.cache.Delete(r.Context(), redis.RecordKey(ticker, years))
	}

	report, err := h.analyze(r.Context(), ticker, years, market)
	if err != nil {
		h.respondFetchError(w, ticker, err)
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// History serves recent score summaries for a ticker
// GET /api/analysis/{ticker}/history?limit=20
func (h *AnalysisHandler) History(w http.ResponseWriter, r *http.Request) {
	if h.reports == nil {
		respondError(w, http.StatusServiceUnavailable, "Report history requires database storage")
		return
	}

	ticker := strings.TrimSpace(mux.Vars(r)["ticker"])
	if ticker == "" {
		respondError(w, http.StatusBadRequest, "Ticker is required")
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	summaries, err := h.reports.History(r.Context(), ticker, limit)
	if err != nil {
		h.log.WithError(err).Error("Failed to load report history")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve report history")
		return
	}
	if summaries == nil {
		summaries = []store.ReportSummary{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ticker":  ticker,
		"history": summaries,
	})
}

// analyze runs the full pipeline and persists the results best-effort
func (h *AnalysisHandler) analyze(ctx context.Context, ticker string, years int, market string) (*model.QualityReport, error) {
	record, err := h.fetchRecord(ctx, ticker, years, market)
	if err != nil {
		return nil, err
	}

	report := h.scorer.Analyze(record)
	if h.enhancer != nil {
		h.enhancer.Enhance(ctx, record, report)
	}
	if h.assessor != nil {
		report.Management = h.assessor.AssessManagement(ctx, record, report)
	}

	if h.records != nil {
		if err := h.records.Save(ctx, record); err != nil {
			h.log.WithError(err).WithField("ticker", ticker).Warn("Failed to persist record")
		}
	}
	if h.reports != nil {
		if err := h.reports.Save(ctx, report); err != nil {
			h.log.WithError(err).WithField("ticker", ticker).Warn("Failed to persist report")
		}
	}
	if h.cache != nil {
		if err := h.cache.Set(ctx, redis.ReportKey(ticker), report, redis.TTLReport); err != nil {
			h.log.WithError(err).WithField("ticker", ticker).Warn("Failed to cache report")
		}
	}

	return report, nil
}

// fetchRecord serves the financial record from cache when fresh, otherwise
// fetching live and caching the result with the record TTL
func (h *AnalysisHandler) fetchRecord(ctx context.Context, ticker string, years int, market string) (*model.FinancialRecord, error) {
	if h.cache != nil {
		var cached model.FinancialRecord
		if hit, err := h.cache.Get(ctx, redis.RecordKey(ticker, years), &cached); err == nil && hit {
			return &cached, nil
		}
	}

	record, err := h.fetcher.FetchData(ctx, ticker, years, market)
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, redis.RecordKey(ticker, years), record, redis.TTLRecord); err != nil {
			h.log.WithError(err).WithField("ticker", ticker).Warn("Failed to cache record")
		}
	}
	return record, nil
}

// staleReport falls back to persisted data: the last stored report, or a
// fresh scoring of the last stored record
func (h *AnalysisHandler) staleReport(ctx context.Context, ticker string) *model.QualityReport {
	if h.reports != nil {
		if stored, err := h.reports.LatestByTicker(ctx, ticker); err == nil {
			h.log.WithField("ticker", ticker).Warn("Serving stored report, live fetch failed")
			return stored
		}
	}
	if h.records != nil {
		if record, err := h.records.GetByTicker(ctx, ticker); err == nil {
			h.log.WithField("ticker", ticker).Warn("Re-scoring stored record, live fetch failed")
			return h.scorer.Analyze(record)
		}
	}
	return nil
}

func (h *AnalysisHandler) respondFetchError(w http.ResponseWriter, ticker string, err error) {
	if errors.Is(err, fetch.ErrNoUsableData) {
		respondError(w, http.StatusNotFound, "No usable financial data found for '"+ticker+"'")
		return
	}
	h.log.WithError(err).WithField("ticker", ticker).Error("Analysis failed")
	respondError(w, http.StatusBadGateway, "Failed to fetch financial data")
}

func (h *AnalysisHandler) yearsParam(r *http.Request) int {
	years := h.defaultYears
	if raw := r.URL.Query().Get("years"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 1 && n <= 10 {
			years = n
		}
	}
	return years
}

func marketParam(r *http.Request) string {
	switch strings.ToLower(r.URL.Query().Get("market")) {
	case fetch.MarketIndia:
		return fetch.MarketIndia
	case fetch.MarketGlobal:
		return fetch.MarketGlobal
	default:
		return fetch.MarketAuto
	}
}
