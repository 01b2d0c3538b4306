package validate

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

type stubSearcher struct {
	results map[string][]model.CompanyMatch
	err     error
	queries []string
}

func (s *stubSearcher) Search(ctx context.Context, query string) ([]model.CompanyMatch, error) {
	s.queries = append(s.queries, query)
	if s.err != nil {
		return nil, s.err
	}
	return s.results[query], nil
}

type stubProfiles struct {
	names map[string]string
}

func (s *stubProfiles) FetchProfileName(ctx context.Context, symbol string) (string, error) {
	return s.names[symbol], nil
}

func newTestValidator(fund, market Searcher, profiles ProfileLookup) *Validator {
	return NewValidator(ticker.NewResolver(), fund, market, profiles, logger.NewNop())
}

func TestValidateEmptyInput(t *testing.T) {
	v := newTestValidator(nil, nil, nil)

	result := v.Validate(context.Background(), "   ")

	assert.False(t, result.Valid)
	assert.Equal(t, "Company name or ticker cannot be empty", result.Message)
}

func TestValidateFundamentalsSearchWins(t *testing.T) {
	fund := &stubSearcher{results: map[string][]model.CompanyMatch{
		"AAPL": {{Name: "Apple Inc.", Ticker: "AAPL"}},
	}}
	market := &stubSearcher{}
	v := newTestValidator(fund, market, nil)

	result := v.Validate(context.Background(), "AAPL")

	require.True(t, result.Valid)
	require.NotNil(t, result.BestMatch)
	assert.Equal(t, "Apple Inc.", result.BestMatch.Name)
	assert.Empty(t, market.queries, "market search must not run after a fundamentals hit")
}

func TestValidateEchoRejection(t *testing.T) {
	// Provider echoes the query back as the "name" instead of failing
	fund := &stubSearcher{results: map[string][]model.CompanyMatch{
		"XYZQ": {{Name: "XYZQ", Ticker: "XYZQ"}},
	}}
	v := newTestValidator(fund, nil, nil)

	result := v.Validate(context.Background(), "XYZQ")

	assert.False(t, result.Valid)
	assert.Contains(t, result.Message, "Ticker 'XYZQ' not found")
}

func TestValidateFallsThroughToMarketSearch(t *testing.T) {
	fund := &stubSearcher{err: errors.New("provider down")}
	market := &stubSearcher{results: map[string][]model.CompanyMatch{
		"INFY.NS": {{Name: "Infosys Limited", Ticker: "INFY.NS"}},
	}}
	v := newTestValidator(fund, market, nil)

	result := v.Validate(context.Background(), "INFY")

	require.True(t, result.Valid)
	assert.Equal(t, "Infosys Limited", result.BestMatch.Name)
	// Known Indian ticker gets the NSE-suffixed variant tried too
	assert.Contains(t, market.queries, "INFY.NS")
}

func TestValidateDirectProfileLookup(t *testing.T) {
	profiles := &stubProfiles{names: map[string]string{"NVDA": "NVIDIA Corporation"}}
	v := newTestValidator(&stubSearcher{}, &stubSearcher{}, profiles)

	result := v.Validate(context.Background(), "NVDA")

	require.True(t, result.Valid)
	assert.Equal(t, "NVIDIA Corporation", result.BestMatch.Name)
	assert.Equal(t, "NVDA", result.BestMatch.Ticker)
}

func TestValidateStaticTableFallback(t *testing.T) {
	// Every provider empty: the static Indian symbol table still answers
	v := newTestValidator(&stubSearcher{}, &stubSearcher{}, &stubProfiles{})

	result := v.Validate(context.Background(), "RELIANCE")

	require.True(t, result.Valid)
	assert.Equal(t, "Reliance Industries Limited", result.BestMatch.Name)
	assert.Equal(t, "RELIANCE.NS", result.BestMatch.Ticker)
}

func TestValidateNotFoundMessages(t *testing.T) {
	v := newTestValidator(&stubSearcher{}, &stubSearcher{}, nil)

	tickerResult := v.Validate(context.Background(), "ZZZZ")
	assert.False(t, tickerResult.Valid)
	assert.Contains(t, tickerResult.Message, "verify the ticker symbol")

	nameResult := v.Validate(context.Background(), "Some Unknown Company Name")
	assert.False(t, nameResult.Valid)
	assert.Contains(t, nameResult.Message, "check the spelling")
}

func TestIsTickerShaped(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"AAPL", true},
		{"RELIANCE.NS", false}, // 11 chars, too long
		{"BRK.B", true},
		{"BAJAJ-AUTO", true},
		{"Apple Inc", false},
		{"aapl", false},
		{"M&M", false}, // ampersand is not a ticker separator here
		{"123", false}, // digits only
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, isTickerShaped(tt.input), "input %q", tt.input)
	}
}
