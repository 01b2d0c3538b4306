package fetch

import (
	"context"
	"errors"
	"strings"

	"qualsight/internal/model"
	"qualsight/internal/ticker"
	"qualsight/pkg/config"
	"qualsight/pkg/httputil"
	"qualsight/pkg/logger"
)

// ErrNoUsableData is returned when every configured source was tried and
// none produced a record with revenue or net income. Distinct from transport
// errors, which never escape the adapter boundary.
var ErrNoUsableData = errors.New("no usable financial data found across configured sources")

// Market hints accepted by FetchData
const (
	MarketAuto   = "auto"
	MarketIndia  = "india"
	MarketGlobal = "global"
)

// MultiSource tries adapters in a deterministic order and returns the first
// usable record. No merging happens across adapters: one record, one source.
type MultiSource struct {
	adapters []SourceAdapter
	resolver *ticker.Resolver
	log      *logger.Logger
}

// NewMultiSource wires the standard adapter chain: screener.in, Yahoo
// Finance, and Financial Modeling Prep when an API key is configured
func NewMultiSource(cfg *config.Config, client *httputil.Client, resolver *ticker.Resolver, log *logger.Logger) *MultiSource {
	adapters := []SourceAdapter{
		NewScreenerAdapter(cfg.Screener.BaseURL, client, log),
		NewYahooAdapter(cfg.Yahoo.BaseURL, client, resolver, log),
	}
	if cfg.FMP.APIKey != "" {
		if fmp, err := NewFMPAdapter(cfg.FMP.BaseURL, cfg.FMP.APIKey, client, log); err == nil {
			adapters = append(adapters, fmp)
		}
	}
	return NewMultiSourceWithAdapters(adapters, resolver, log)
}

// NewMultiSourceWithAdapters builds an orchestrator over an explicit adapter
// list, in natural trial order
func NewMultiSourceWithAdapters(adapters []SourceAdapter, resolver *ticker.Resolver, log *logger.Logger) *MultiSource {
	return &MultiSource{
		adapters: adapters,
		resolver: resolver,
		log:      log,
	}
}

// FetchData resolves the market hint and walks the adapter chain, returning
// the first record with usable data. Adapter failures are logged and skipped;
// only total exhaustion surfaces as ErrNoUsableData.
func (m *MultiSource) FetchData(ctx context.Context, identifier string, years int, marketHint string) (*model.FinancialRecord, error) {
	market := strings.ToLower(strings.TrimSpace(marketHint))
	if market == "" || market == MarketAuto {
		market = m.detectMarket(identifier)
	}

	for _, adapter := range m.orderFor(market) {
		record, err := adapter.Fetch(ctx, identifier, years)
		if err != nil {
			m.log.WithError(err).WithFields(map[string]interface{}{
				"adapter": adapter.Name(),
				"ticker":  identifier,
			}).Debug("Source fetch failed, trying next")
			continue
		}
		if record.Usable() {
			m.log.WithFields(map[string]interface{}{
				"adapter": adapter.Name(),
				"ticker":  identifier,
				"years":   record.YearsCovered(),
			}).Info("Financial data fetched")
			return record, nil
		}
	}

	return nil, ErrNoUsableData
}

// SearchCompany queries every adapter and merges the results, de-duplicating
// by (name, ticker) and preserving first-seen order
func (m *MultiSource) SearchCompany(ctx context.Context, query string) []model.CompanyMatch {
	var merged []model.CompanyMatch
	seen := make(map[[2]string]struct{})

	for _, adapter := range m.adapters {
		matches, err := adapter.Search(ctx, query)
		if err != nil {
			m.log.WithError(err).WithField("adapter", adapter.Name()).Debug("Source search failed, skipping")
			continue
		}
		for _, match := range matches {
			key := [2]string{strings.ToLower(match.Name), strings.ToUpper(match.Ticker)}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, match)
		}
	}
	return merged
}

// detectMarket infers a market from the identifier: explicit Indian exchange
// suffix or membership in the known NSE symbol set means India
func (m *MultiSource) detectMarket(identifier string) string {
	if m.resolver.IsIndian(identifier) {
		return MarketIndia
	}
	return MarketGlobal
}

// orderFor returns the adapter trial order for a market. For Indian symbols
// Yahoo goes first (suffix-qualified lookups are more reliable there), then
// the scrape adapter, then everything else in natural order.
func (m *MultiSource) orderFor(market string) []SourceAdapter {
	if market != MarketIndia {
		return m.adapters
	}

	var yahoo, screener, rest []SourceAdapter
	for _, adapter := range m.adapters {
		switch adapter.Name() {
		case "yahoo":
			yahoo = append(yahoo, adapter)
		case "screener.in":
			screener = append(screener, adapter)
		default:
			rest = append(rest, adapter)
		}
	}

	ordered := make([]SourceAdapter, 0, len(m.adapters))
	ordered = append(ordered, yahoo...)
	ordered = append(ordered, screener...)
	return append(ordered, rest...)
}
