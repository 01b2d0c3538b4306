package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qualsight/internal/fetch"
	"qualsight/internal/model"
	"qualsight/internal/store"
	"qualsight/pkg/logger"
	"qualsight/pkg/redis"
)

type stubPipelineFetcher struct {
	record *model.FinancialRecord
	err    error
	calls  int
	years  []int
	market []string
}

func (s *stubPipelineFetcher) FetchData(_ context.Context, _ string, years int, market string) (*model.FinancialRecord, error) {
	s.calls++
	s.years = append(s.years, years)
	s.market = append(s.market, market)
	return s.record, s.err
}

type stubScorer struct{}

func (stubScorer) Analyze(record *model.FinancialRecord) *model.QualityReport {
	return &model.QualityReport{
		CompanyName:  record.CompanyName,
		Ticker:       record.Ticker,
		OverallScore: 7.0,
	}
}

type memCache struct {
	data    map[string][]byte
	deleted []string
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (c *memCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *memCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = raw
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.deleted = append(c.deleted, key)
	delete(c.data, key)
	return nil
}

type stubRecordRepo struct {
	stored *model.FinancialRecord
	saved  []*model.FinancialRecord
}

func (s *stubRecordRepo) Save(_ context.Context, record *model.FinancialRecord) error {
	s.saved = append(s.saved, record)
	return nil
}

func (s *stubRecordRepo) GetByTicker(_ context.Context, _ string) (*model.FinancialRecord, error) {
	if s.stored == nil {
		return nil, store.ErrNotFound
	}
	return s.stored, nil
}

type stubReportRepo struct {
	latest *model.QualityReport
	saved  []*model.QualityReport
}

func (s *stubReportRepo) Save(_ context.Context, report *model.QualityReport) error {
	s.saved = append(s.saved, report)
	return nil
}

func (s *stubReportRepo) LatestByTicker(_ context.Context, _ string) (*model.QualityReport, error) {
	if s.latest == nil {
		return nil, store.ErrNotFound
	}
	return s.latest, nil
}

func (s *stubReportRepo) History(_ context.Context, ticker string, _ int) ([]store.ReportSummary, error) {
	return []store.ReportSummary{{Ticker: ticker, OverallScore: 7.0}}, nil
}

func analysisRouter(h *AnalysisHandler) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/api/analysis/{ticker}", h.Get).Methods("GET")
	r.HandleFunc("/api/analysis/{ticker}/refresh", h.Refresh).Methods("POST")
	r.HandleFunc("/api/analysis/{ticker}/history", h.History).Methods("GET")
	return r
}

func usableRecord() *model.FinancialRecord {
	record := model.NewFinancialRecord("Tata Consultancy Services", "TCS.NS")
	record.Revenue.Set("2024", 240893)
	return record
}

func TestAnalysisGetRunsPipelineAndCaches(t *testing.T) {
	fetcher := &stubPipelineFetcher{record: usableRecord()}
	cache := newMemCache()
	h := NewAnalysisHandler(fetcher, stubScorer{}, nil, nil, cache, nil, nil, 5, logger.NewNop())
	router := analysisRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analysis/TCS.NS?years=3", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int{3}, fetcher.years)
	assert.Equal(t, []string{fetch.MarketAuto}, fetcher.market)

	var report model.QualityReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 7.0, report.OverallScore)

	// Second request is served from cache without another fetch
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analysis/TCS.NS?years=3", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, fetcher.calls)
}

func TestAnalysisGetCachesFetchedRecord(t *testing.T) {
	fetcher := &stubPipelineFetcher{record: usableRecord()}
	cache := newMemCache()
	h := NewAnalysisHandler(fetcher, stubScorer{}, nil, nil, cache, nil, nil, 5, logger.NewNop())

	rec := httptest.NewRecorder()
	analysisRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analysis/TCS.NS?years=3", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, cache.data, redis.RecordKey("TCS.NS", 3))
	assert.Contains(t, cache.data, redis.ReportKey("TCS.NS"))
}

func TestAnalysisGetServesFromRecordCache(t *testing.T) {
	fetcher := &stubPipelineFetcher{}
	cache := newMemCache()
	require.NoError(t, cache.Set(context.Background(), redis.RecordKey("TCS.NS", 5), usableRecord(), 0))
	h := NewAnalysisHandler(fetcher, stubScorer{}, nil, nil, cache, nil, nil, 5, logger.NewNop())

	rec := httptest.NewRecorder()
	analysisRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analysis/TCS.NS", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, fetcher.calls, "cached record must not trigger a live fetch")

	var report model.QualityReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 7.0, report.OverallScore)
}

func TestAnalysisGetNoUsableData(t *testing.T) {
	fetcher := &stubPipelineFetcher{err: fetch.ErrNoUsableData}
	h := NewAnalysisHandler(fetcher, stubScorer{}, nil, nil, nil, nil, nil, 5, logger.NewNop())

	rec := httptest.NewRecorder()
	analysisRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analysis/UNKNOWN", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNKNOWN")
}

func TestAnalysisGetFallsBackToStoredReport(t *testing.T) {
	fetcher := &stubPipelineFetcher{err: fetch.ErrNoUsableData}
	reports := &stubReportRepo{latest: &model.QualityReport{Ticker: "TCS.NS", OverallScore: 6.5}}
	h := NewAnalysisHandler(fetcher, stubScorer{}, nil, nil, nil, nil, reports, 5, logger.NewNop())

	rec := httptest.NewRecorder()
	analysisRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analysis/TCS.NS", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var report model.QualityReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 6.5, report.OverallScore)
}

func TestAnalysisGetRescoresStoredRecord(t *testing.T) {
	fetcher := &stubPipelineFetcher{err: fetch.ErrNoUsableData}
	records := &stubRecordRepo{stored: usableRecord()}
	h := NewAnalysisHandler(fetcher, stubScorer{}, nil, nil, nil, records, nil, 5, logger.NewNop())

	rec := httptest.NewRecorder()
	analysisRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analysis/TCS.NS", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var report model.QualityReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "TCS.NS", report.Ticker)
	assert.Equal(t, 7.0, report.OverallScore)
}

func TestAnalysisRefreshBypassesCache(t *testing.T) {
	fetcher := &stubPipelineFetcher{record: usableRecord()}
	cache := newMemCache()
	reports := &stubReportRepo{}
	h := NewAnalysisHandler(fetcher, stubScorer{}, nil, nil, cache, nil, reports, 5, logger.NewNop())
	router := analysisRouter(h)

	// Warm the cache
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analysis/TCS.NS", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, fetcher.calls)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/analysis/TCS.NS/refresh", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, fetcher.calls, "refresh must re-fetch despite a warm cache")
	assert.NotEmpty(t, cache.deleted)
	assert.Len(t, reports.saved, 2)
}

func TestAnalysisYearsParamClamped(t *testing.T) {
	fetcher := &stubPipelineFetcher{record: usableRecord()}
	h := NewAnalysisHandler(fetcher, stubScorer{}, nil, nil, nil, nil, nil, 5, logger.NewNop())

	rec := httptest.NewRecorder()
	analysisRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analysis/TCS.NS?years=50", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int{5}, fetcher.years, "out-of-range years falls back to the default")
}

func TestAnalysisHistoryWithoutStore(t *testing.T) {
	h := NewAnalysisHandler(&stubPipelineFetcher{}, stubScorer{}, nil, nil, nil, nil, nil, 5, logger.NewNop())

	rec := httptest.NewRecorder()
	analysisRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analysis/TCS.NS/history", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAnalysisHistory(t *testing.T) {
	h := NewAnalysisHandler(&stubPipelineFetcher{}, stubScorer{}, nil, nil, nil, nil, &stubReportRepo{}, 5, logger.NewNop())

	rec := httptest.NewRecorder()
	analysisRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analysis/TCS.NS/history", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"overall_score":7`)
}
