package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"qualsight/internal/model"
	"qualsight/internal/ticker"
	"qualsight/pkg/httputil"
	"qualsight/pkg/logger"
)

// minQuoteFields is the validity heuristic for quote responses: the provider
// answers sparse but well-formed payloads for unknown symbols, so a real
// company is recognized by having more than a handful of populated fields.
// Known-fragile against provider schema changes.
const minQuoteFields = 5

// annual timeseries line items mapped to record series names
var yahooIncomeTypes = map[string]string{
	"annualTotalRevenue":    "revenue",
	"annualNetIncome":       "net_income",
	"annualOperatingIncome": "operating_income",
	"annualGrossProfit":     "gross_profit",
	"annualEBITDA":          "ebitda",
}

var yahooBalanceTypes = map[string]string{
	"annualTotalAssets":                         "total_assets",
	"annualTotalLiabilitiesNetMinorityInterest": "total_liabilities",
	"annualStockholdersEquity":                  "shareholders_equity",
	"annualTotalDebt":                           "total_debt",
	"annualCashAndCashEquivalents":              "cash_and_equivalents",
}

var yahooCashFlowTypes = map[string]string{
	"annualOperatingCashFlow":  "operating_cash_flow",
	"annualFreeCashFlow":       "free_cash_flow",
	"annualCapitalExpenditure": "capex",
}

// YahooAdapter pulls fundamentals from the public Yahoo Finance JSON
// endpoints. Statement values are in the listing currency as reported.
// Ratio series are always derived arithmetically from the raw statements
// rather than taken from the provider, so ratio semantics stay consistent
// with the other adapters.
type YahooAdapter struct {
	baseURL  string
	client   *httputil.Client
	resolver *ticker.Resolver
	log      *logger.Logger
}

// NewYahooAdapter creates the Yahoo Finance adapter
func NewYahooAdapter(baseURL string, client *httputil.Client, resolver *ticker.Resolver, log *logger.Logger) *YahooAdapter {
	return &YahooAdapter{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   client,
		resolver: resolver,
		log:      log,
	}
}

// Name implements SourceAdapter
func (a *YahooAdapter) Name() string { return "yahoo" }

type yahooValue struct {
	Raw float64 `json:"raw"`
}

type yahooQuoteResponse struct {
	QuoteSummary struct {
		Result []struct {
			Price          map[string]json.RawMessage `json:"price"`
			SummaryProfile struct {
				Sector   string `json:"sector"`
				Industry string `json:"industry"`
			} `json:"summaryProfile"`
			SummaryDetail struct {
				MarketCap     yahooValue `json:"marketCap"`
				TrailingPE    yahooValue `json:"trailingPE"`
				PriceToBook   yahooValue `json:"priceToBook"`
				DividendYield yahooValue `json:"dividendYield"`
			} `json:"summaryDetail"`
		} `json:"result"`
	} `json:"quoteSummary"`
}

type yahooQuote struct {
	name          string
	sector        string
	industry      string
	marketCap     float64
	peRatio       float64
	pbRatio       float64
	dividendYield float64
}

// Search implements SourceAdapter. A match is emitted only when the provider
// returns a real display name; a name that merely echoes the ticker is
// rejected so the validator never treats placeholder payloads as hits.
func (a *YahooAdapter) Search(ctx context.Context, query string) ([]model.CompanyMatch, error) {
	base := strings.ToUpper(strings.TrimSpace(query))

	for _, symbol := range a.resolver.Resolve(base) {
		quote, ok, err := a.quoteSummary(ctx, symbol)
		if err != nil || !ok {
			continue
		}
		if quote.name == "" || isEchoName(quote.name, base, symbol) {
			continue
		}
		return []model.CompanyMatch{{
			Name:   quote.name,
			Ticker: symbol,
			Source: a.Name(),
		}}, nil
	}
	return nil, nil
}

// Fetch implements SourceAdapter, trying each resolved symbol candidate until
// one yields usable statements
func (a *YahooAdapter) Fetch(ctx context.Context, identifier string, years int) (*model.FinancialRecord, error) {
	for _, symbol := range a.resolver.Resolve(identifier) {
		record, err := a.fetchSymbol(ctx, symbol, years)
		if err != nil {
			a.log.WithError(err).WithField("symbol", symbol).Debug("Yahoo fetch candidate failed")
			continue
		}
		if record.Usable() {
			return record, nil
		}
	}
	return nil, nil
}

func (a *YahooAdapter) fetchSymbol(ctx context.Context, symbol string, years int) (*model.FinancialRecord, error) {
	quote, ok, err := a.quoteSummary(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no quote data for %s", symbol)
	}

	name := quote.name
	if name == "" {
		name = symbol
	}
	record := model.NewFinancialRecord(name, strings.ToUpper(symbol))
	record.DataSource = a.Name()
	record.FetchTimestamp = time.Now()
	record.YearsRequested = years

	for _, types := range []map[string]string{yahooIncomeTypes, yahooBalanceTypes, yahooCashFlowTypes} {
		if err := a.fetchStatement(ctx, symbol, types, years, record); err != nil {
			return nil, err
		}
	}
	record.TrimToLast(years)

	record.Sector = quote.sector
	record.Industry = quote.industry
	record.MarketCap = quote.marketCap
	record.PERatio = quote.peRatio
	record.PBRatio = quote.pbRatio
	if quote.dividendYield > 0 {
		record.DividendYield = quote.dividendYield * 100
	}

	deriveRatios(record)
	return record, nil
}

// quoteSummary returns the parsed quote plus a validity verdict per the
// populated-field heuristic
func (a *YahooAdapter) quoteSummary(ctx context.Context, symbol string) (yahooQuote, bool, error) {
	quoteURL := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=price,summaryProfile,summaryDetail",
		a.baseURL, url.PathEscape(symbol))

	resp, err := a.client.Get(ctx, quoteURL)
	if err != nil {
		return yahooQuote{}, false, fmt.Errorf("yahoo quote: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return yahooQuote{}, false, nil
	}

	var payload yahooQuoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return yahooQuote{}, false, fmt.Errorf("yahoo quote decode: %w", err)
	}
	if len(payload.QuoteSummary.Result) == 0 {
		return yahooQuote{}, false, nil
	}

	result := payload.QuoteSummary.Result[0]
	if populatedFields(result.Price) <= minQuoteFields {
		return yahooQuote{}, false, nil
	}

	quote := yahooQuote{
		name:          firstStringField(result.Price, "longName", "shortName"),
		sector:        result.SummaryProfile.Sector,
		industry:      result.SummaryProfile.Industry,
		marketCap:     result.SummaryDetail.MarketCap.Raw,
		peRatio:       result.SummaryDetail.TrailingPE.Raw,
		pbRatio:       result.SummaryDetail.PriceToBook.Raw,
		dividendYield: result.SummaryDetail.DividendYield.Raw,
	}
	return quote, true, nil
}

type yahooTimeseriesResponse struct {
	Timeseries struct {
		Result []json.RawMessage `json:"result"`
	} `json:"timeseries"`
}

type yahooTimeseriesMeta struct {
	Meta struct {
		Type []string `json:"type"`
	} `json:"meta"`
}

type yahooTimeseriesEntry struct {
	AsOfDate      string     `json:"asOfDate"`
	ReportedValue yahooValue `json:"reportedValue"`
}

// fetchStatement pulls one annual-statement group through the fundamentals
// timeseries endpoint and writes the mapped series onto the record
func (a *YahooAdapter) fetchStatement(ctx context.Context, symbol string, types map[string]string, years int, record *model.FinancialRecord) error {
	typeNames := make([]string, 0, len(types))
	for t := range types {
		typeNames = append(typeNames, t)
	}

	now := time.Now()
	start := now.AddDate(-(years + 1), 0, 0)

	tsURL := fmt.Sprintf("%s/ws/fundamentals-timeseries/v1/finance/timeseries/%s?symbol=%s&type=%s&period1=%d&period2=%d",
		a.baseURL, url.PathEscape(symbol), url.QueryEscape(symbol),
		url.QueryEscape(strings.Join(typeNames, ",")), start.Unix(), now.Unix())

	resp, err := a.client.Get(ctx, tsURL)
	if err != nil {
		return fmt.Errorf("yahoo timeseries: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var payload yahooTimeseriesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("yahoo timeseries decode: %w", err)
	}

	for _, raw := range payload.Timeseries.Result {
		var meta yahooTimeseriesMeta
		if err := json.Unmarshal(raw, &meta); err != nil || len(meta.Meta.Type) == 0 {
			continue
		}
		typeName := meta.Meta.Type[0]
		seriesName, ok := types[typeName]
		if !ok {
			continue
		}

		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			continue
		}
		entriesRaw, ok := fields[typeName]
		if !ok {
			continue
		}

		var entries []*yahooTimeseriesEntry
		if err := json.Unmarshal(entriesRaw, &entries); err != nil {
			continue
		}
		for _, entry := range entries {
			if entry == nil || len(entry.AsOfDate) < 4 {
				continue
			}
			record.SetSeriesValue(seriesName, entry.AsOfDate[:4], entry.ReportedValue.Raw)
		}
	}
	return nil
}

// deriveRatios computes ratio series from the raw statements for every year
// with revenue data, guarding each zero denominator
func deriveRatios(record *model.FinancialRecord) {
	for _, year := range record.Revenue.Years() {
		revenue, _ := record.Revenue.Get(year)

		if ni, ok := record.NetIncome.Get(year); ok {
			if equity, ok := record.ShareholdersEquity.Get(year); ok && equity != 0 {
				record.ROE.Set(year, ni/equity*100)
			}
			if assets, ok := record.TotalAssets.Get(year); ok && assets != 0 {
				record.ROA.Set(year, ni/assets*100)
			}
			if revenue != 0 {
				record.NetMargin.Set(year, ni/revenue*100)
			}
		}

		if debt, ok := record.TotalDebt.Get(year); ok {
			if equity, ok := record.ShareholdersEquity.Get(year); ok && equity != 0 {
				record.DebtToEquity.Set(year, debt/equity)
			}
		}

		if oi, ok := record.OperatingIncome.Get(year); ok && revenue != 0 {
			record.OperatingMargin.Set(year, oi/revenue*100)
		}
	}
}

func populatedFields(fields map[string]json.RawMessage) int {
	count := 0
	for _, raw := range fields {
		if len(raw) > 0 && string(raw) != "null" && string(raw) != "{}" && string(raw) != `""` {
			count++
		}
	}
	return count
}

func firstStringField(fields map[string]json.RawMessage, names ...string) string {
	for _, name := range names {
		raw, ok := fields[name]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			return s
		}
	}
	return ""
}

// isEchoName reports whether a provider "name" is just the query or symbol
// echoed back, which several providers do instead of failing
func isEchoName(name, query, symbol string) bool {
	upper := strings.ToUpper(strings.TrimSpace(name))
	base := ticker.StripSuffix(strings.ToUpper(symbol))
	switch upper {
	case strings.ToUpper(query), strings.ToUpper(symbol), base, "EQUITY", "MUTUALFUND", "ETF":
		return true
	}
	return false
}
