package ticker

import (
	"strings"
)

// Exchange suffixes for Indian listings. NSE is preferred over BSE because
// its symbols are the canonical form on most providers.
const (
	SuffixNSE = ".NS"
	SuffixBSE = ".BO"
)

// nseTickers is the maintained set of well-known NSE symbols used for market
// auto-detection and suffix expansion. Large-cap NIFTY constituents; the set
// is a heuristic, not a registry.
var nseTickers = map[string]struct{}{
	"TCS": {}, "RELIANCE": {}, "INFY": {}, "HDFCBANK": {}, "ICICIBANK": {},
	"HINDUNILVR": {}, "SBIN": {}, "BHARTIARTL": {}, "ITC": {}, "KOTAKBANK": {},
	"LT": {}, "AXISBANK": {}, "WIPRO": {}, "ASIANPAINT": {}, "MARUTI": {},
	"HCLTECH": {}, "SUNPHARMA": {}, "TITAN": {}, "ULTRACEMCO": {}, "BAJFINANCE": {},
	"NESTLEIND": {}, "TECHM": {}, "POWERGRID": {}, "NTPC": {}, "TATAMOTORS": {},
	"TATASTEEL": {}, "JSWSTEEL": {}, "ONGC": {}, "COALINDIA": {}, "ADANIENT": {},
	"ADANIPORTS": {}, "BAJAJFINSV": {}, "DRREDDY": {}, "CIPLA": {}, "EICHERMOT": {},
	"GRASIM": {}, "DIVISLAB": {}, "BRITANNIA": {}, "APOLLOHOSP": {}, "INDUSINDBK": {},
	"M&M": {}, "BPCL": {}, "HEROMOTOCO": {}, "HINDALCO": {}, "TATACONSUM": {},
	"BAJAJ-AUTO": {}, "UPL": {},
}

// indianCompanyNames maps well-known NSE symbols to canonical company names.
// Used as the last-resort lookup when every provider search fails.
var indianCompanyNames = map[string]string{
	"RELIANCE":   "Reliance Industries Limited",
	"TCS":        "Tata Consultancy Services Limited",
	"INFY":       "Infosys Limited",
	"HDFCBANK":   "HDFC Bank Limited",
	"ICICIBANK":  "ICICI Bank Limited",
	"HINDUNILVR": "Hindustan Unilever Limited",
	"SBIN":       "State Bank of India",
	"BHARTIARTL": "Bharti Airtel Limited",
	"ITC":        "ITC Limited",
	"KOTAKBANK":  "Kotak Mahindra Bank Limited",
	"LT":         "Larsen & Toubro Limited",
	"AXISBANK":   "Axis Bank Limited",
	"WIPRO":      "Wipro Limited",
	"ASIANPAINT": "Asian Paints Limited",
	"MARUTI":     "Maruti Suzuki India Limited",
	"HCLTECH":    "HCL Technologies Limited",
	"SUNPHARMA":  "Sun Pharmaceutical Industries Limited",
	"TITAN":      "Titan Company Limited",
	"ULTRACEMCO": "UltraTech Cement Limited",
	"BAJFINANCE": "Bajaj Finance Limited",
	"NESTLEIND":  "Nestle India Limited",
	"TECHM":      "Tech Mahindra Limited",
	"POWERGRID":  "Power Grid Corporation of India Limited",
	"NTPC":       "NTPC Limited",
	"TATAMOTORS": "Tata Motors Limited",
	"TATASTEEL":  "Tata Steel Limited",
	"JSWSTEEL":   "JSW Steel Limited",
	"ONGC":       "Oil and Natural Gas Corporation Limited",
	"COALINDIA":  "Coal India Limited",
	"ADANIENT":   "Adani Enterprises Limited",
	"ADANIPORTS": "Adani Ports and Special Economic Zone Limited",
	"BAJAJFINSV": "Bajaj Finserv Limited",
	"DRREDDY":    "Dr. Reddy's Laboratories Limited",
	"CIPLA":      "Cipla Limited",
	"EICHERMOT":  "Eicher Motors Limited",
	"GRASIM":     "Grasim Industries Limited",
	"DIVISLAB":   "Divi's Laboratories Limited",
	"BRITANNIA":  "Britannia Industries Limited",
	"APOLLOHOSP": "Apollo Hospitals Enterprise Limited",
	"INDUSINDBK": "IndusInd Bank Limited",
	"M&M":        "Mahindra & Mahindra Limited",
	"BPCL":       "Bharat Petroleum Corporation Limited",
	"HEROMOTOCO": "Hero MotoCorp Limited",
	"HINDALCO":   "Hindalco Industries Limited",
	"TATACONSUM": "Tata Consumer Products Limited",
	"BAJAJ-AUTO": "Bajaj Auto Limited",
	"UPL":        "UPL Limited",
}

// Resolver expands a free-form identifier into provider-specific symbol
// candidates. Symbol tables are injected so tests can use synthetic sets.
type Resolver struct {
	indianTickers map[string]struct{}
	indianNames   map[string]string
}

// NewResolver creates a resolver backed by the built-in NSE symbol tables
func NewResolver() *Resolver {
	return &Resolver{
		indianTickers: nseTickers,
		indianNames:   indianCompanyNames,
	}
}

// NewResolverWithTables creates a resolver with custom symbol tables
func NewResolverWithTables(tickers map[string]struct{}, names map[string]string) *Resolver {
	return &Resolver{
		indianTickers: tickers,
		indianNames:   names,
	}
}

// Resolve returns candidate symbols in trial order. Never returns an empty
// slice: the worst case is the normalized input alone. An identifier that
// already carries a dot (exchange suffix, class share) passes through
// unchanged. Known Indian tickers expand to NSE then BSE suffixed variants
// before the bare symbol, so the exchange-qualified form is tried first.
func (r *Resolver) Resolve(identifier string) []string {
	symbol := strings.ToUpper(strings.TrimSpace(identifier))
	if symbol == "" {
		return []string{symbol}
	}

	if strings.Contains(symbol, ".") {
		return []string{symbol}
	}

	var candidates []string
	if _, ok := r.indianTickers[symbol]; ok {
		candidates = append(candidates, symbol+SuffixNSE, symbol+SuffixBSE)
	}
	return append(candidates, symbol)
}

// IsIndian reports whether an identifier belongs to the Indian market, by
// explicit exchange suffix or by membership in the known NSE symbol set
func (r *Resolver) IsIndian(identifier string) bool {
	symbol := strings.ToUpper(strings.TrimSpace(identifier))
	if strings.HasSuffix(symbol, SuffixNSE) || strings.HasSuffix(symbol, SuffixBSE) {
		return true
	}
	_, ok := r.indianTickers[StripSuffix(symbol)]
	return ok
}

// KnownName returns the canonical company name for a well-known Indian
// ticker, suffixed or not
func (r *Resolver) KnownName(identifier string) (string, bool) {
	name, ok := r.indianNames[StripSuffix(strings.ToUpper(strings.TrimSpace(identifier)))]
	return name, ok
}

// StripSuffix removes a recognized exchange suffix from a symbol
func StripSuffix(symbol string) string {
	symbol = strings.TrimSuffix(symbol, SuffixNSE)
	return strings.TrimSuffix(symbol, SuffixBSE)
}
