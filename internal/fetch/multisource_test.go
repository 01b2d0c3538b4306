package fetch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qualsight/internal/model"
	"qualsight/internal/ticker"
	"qualsight/pkg/logger"
)

type stubAdapter struct {
	name    string
	record  *model.FinancialRecord
	err     error
	matches []model.CompanyMatch
	calls   *[]string
}

func (s *stubAdapter) Name() string { return s.name }

func (s *stubAdapter) Search(ctx context.Context, query string) ([]model.CompanyMatch, error) {
	return s.matches, s.err
}

func (s *stubAdapter) Fetch(ctx context.Context, identifier string, years int) (*model.FinancialRecord, error) {
	if s.calls != nil {
		*s.calls = append(*s.calls, s.name)
	}
	return s.record, s.err
}

func usableRecord(name string) *model.FinancialRecord {
	r := model.NewFinancialRecord(name, "TEST")
	r.Revenue.Set("2024", 1000)
	return r
}

func newTestMultiSource(adapters ...SourceAdapter) *MultiSource {
	return NewMultiSourceWithAdapters(adapters, ticker.NewResolver(), logger.NewNop())
}

func TestFetchDataFallsBackToSecondAdapter(t *testing.T) {
	want := usableRecord("Second Co")
	m := newTestMultiSource(
		&stubAdapter{name: "first"},
		&stubAdapter{name: "second", record: want},
	)

	got, err := m.FetchData(context.Background(), "TEST", 5, MarketGlobal)

	require.NoError(t, err)
	assert.Same(t, want, got, "record must be returned unchanged, no merging")
}

func TestFetchDataSkipsFailingAdapter(t *testing.T) {
	want := usableRecord("Second Co")
	m := newTestMultiSource(
		&stubAdapter{name: "first", err: errors.New("provider down")},
		&stubAdapter{name: "second", record: want},
	)

	got, err := m.FetchData(context.Background(), "TEST", 5, MarketGlobal)

	require.NoError(t, err)
	assert.Same(t, want, got)
}

func TestFetchDataIgnoresUnusableRecords(t *testing.T) {
	empty := model.NewFinancialRecord("Empty Co", "TEST")
	empty.ROE.Set("2024", 20) // ratios alone are not usable
	want := usableRecord("Second Co")

	m := newTestMultiSource(
		&stubAdapter{name: "first", record: empty},
		&stubAdapter{name: "second", record: want},
	)

	got, err := m.FetchData(context.Background(), "TEST", 5, MarketGlobal)

	require.NoError(t, err)
	assert.Same(t, want, got)
}

func TestFetchDataExhaustedReturnsErrNoUsableData(t *testing.T) {
	m := newTestMultiSource(
		&stubAdapter{name: "first"},
		&stubAdapter{name: "second", err: errors.New("provider down")},
	)

	got, err := m.FetchData(context.Background(), "TEST", 5, MarketAuto)

	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrNoUsableData)
}

func TestFetchDataIndianMarketTriesYahooBeforeScreener(t *testing.T) {
	var calls []string
	m := newTestMultiSource(
		&stubAdapter{name: "screener.in", calls: &calls},
		&stubAdapter{name: "yahoo", calls: &calls},
		&stubAdapter{name: "fmp", calls: &calls, record: usableRecord("Tata Consultancy Services Limited")},
	)

	// TCS is in the known NSE set, so auto resolves to the Indian ordering
	_, err := m.FetchData(context.Background(), "TCS", 5, MarketAuto)

	require.NoError(t, err)
	assert.Equal(t, []string{"yahoo", "screener.in", "fmp"}, calls)
}

func TestFetchDataGlobalMarketKeepsNaturalOrder(t *testing.T) {
	var calls []string
	m := newTestMultiSource(
		&stubAdapter{name: "screener.in", calls: &calls},
		&stubAdapter{name: "yahoo", calls: &calls, record: usableRecord("Apple Inc.")},
	)

	_, err := m.FetchData(context.Background(), "AAPL", 5, MarketAuto)

	require.NoError(t, err)
	assert.Equal(t, []string{"screener.in", "yahoo"}, calls)
}

func TestSearchCompanyDeduplicates(t *testing.T) {
	m := newTestMultiSource(
		&stubAdapter{name: "first", matches: []model.CompanyMatch{
			{Name: "Infosys Limited", Ticker: "INFY"},
			{Name: "Infosys BPM", Ticker: "INFYBPM"},
		}},
		&stubAdapter{name: "second", err: errors.New("provider down")},
		&stubAdapter{name: "third", matches: []model.CompanyMatch{
			{Name: "infosys limited", Ticker: "infy"}, // same company, different casing
			{Name: "Infosys Limited", Ticker: "INFY.NS"},
		}},
	)

	results := m.SearchCompany(context.Background(), "infosys")

	require.Len(t, results, 3)
	assert.Equal(t, "INFY", results[0].Ticker)
	assert.Equal(t, "INFYBPM", results[1].Ticker)
	assert.Equal(t, "INFY.NS", results[2].Ticker)
}
