package model

import (
	"time"
)

// FinancialRecord holds the multi-year fundamentals for one company as
// assembled by a source adapter. Every metric is a Series keyed by fiscal
// year; absent metrics are simply empty. Monetary series are in the
// provider's reporting currency (INR crores for Indian companies, USD for
// US companies) and ratio series are percentages unless noted.
type FinancialRecord struct {
	CompanyName string `json:"company_name"`
	Ticker      string `json:"ticker"`

	// Income statement
	Revenue         Series `json:"revenue,omitempty"`
	NetIncome       Series `json:"net_income,omitempty"`
	OperatingIncome Series `json:"operating_income,omitempty"`
	GrossProfit     Series `json:"gross_profit,omitempty"`
	EBITDA          Series `json:"ebitda,omitempty"`

	// Balance sheet
	TotalAssets        Series `json:"total_assets,omitempty"`
	TotalLiabilities   Series `json:"total_liabilities,omitempty"`
	ShareholdersEquity Series `json:"shareholders_equity,omitempty"`
	TotalDebt          Series `json:"total_debt,omitempty"`
	CashAndEquivalents Series `json:"cash_and_equivalents,omitempty"`

	// Cash flow
	OperatingCashFlow Series `json:"operating_cash_flow,omitempty"`
	FreeCashFlow      Series `json:"free_cash_flow,omitempty"`
	CapEx             Series `json:"capex,omitempty"`

	// Ratios (percent unless noted)
	ROE              Series `json:"roe,omitempty"`
	ROA              Series `json:"roa,omitempty"`
	ROCE             Series `json:"roce,omitempty"`
	DebtToEquity     Series `json:"debt_to_equity,omitempty"` // ratio, not percent
	CurrentRatio     Series `json:"current_ratio,omitempty"`  // ratio, not percent
	InterestCoverage Series `json:"interest_coverage,omitempty"`
	RevenueGrowth    Series `json:"revenue_growth,omitempty"`
	ProfitGrowth     Series `json:"profit_growth,omitempty"`
	OperatingMargin  Series `json:"operating_margin,omitempty"`
	NetMargin        Series `json:"net_margin,omitempty"`

	// Company-level scalars
	Sector        string  `json:"sector,omitempty"`
	Industry      string  `json:"industry,omitempty"`
	MarketCap     float64 `json:"market_cap,omitempty"`
	PERatio       float64 `json:"pe_ratio,omitempty"`
	PBRatio       float64 `json:"pb_ratio,omitempty"`
	DividendYield float64 `json:"dividend_yield,omitempty"`

	DataSource     string    `json:"data_source,omitempty"`
	FetchTimestamp time.Time `json:"fetch_timestamp,omitempty"`
	YearsRequested int       `json:"years_requested,omitempty"`
}

// NewFinancialRecord creates an empty record for a company
func NewFinancialRecord(companyName, ticker string) *FinancialRecord {
	return &FinancialRecord{
		CompanyName: companyName,
		Ticker:      ticker,
	}
}

// Usable reports whether the record carries enough data to score: at least
// one of revenue or net income must be populated. Adapters use this to decide
// whether a fetch produced real fundamentals or an empty shell.
func (r *FinancialRecord) Usable() bool {
	if r == nil {
		return false
	}
	return !r.Revenue.IsEmpty() || !r.NetIncome.IsEmpty()
}

// YearsCovered returns the number of fiscal years with revenue data, falling
// back to net income when revenue is absent
func (r *FinancialRecord) YearsCovered() int {
	if !r.Revenue.IsEmpty() {
		return r.Revenue.Len()
	}
	return r.NetIncome.Len()
}

// SeriesByName returns named metric series for generic iteration (store
// serialization, AI extraction). Unknown names return an empty series.
func (r *FinancialRecord) SeriesByName(name string) Series {
	switch name {
	case "revenue":
		return r.Revenue
	case "net_income":
		return r.NetIncome
	case "operating_income":
		return r.OperatingIncome
	case "gross_profit":
		return r.GrossProfit
	case "ebitda":
		return r.EBITDA
	case "total_assets":
		return r.TotalAssets
	case "total_liabilities":
		return r.TotalLiabilities
	case "shareholders_equity":
		return r.ShareholdersEquity
	case "total_debt":
		return r.TotalDebt
	case "cash_and_equivalents":
		return r.CashAndEquivalents
	case "operating_cash_flow":
		return r.OperatingCashFlow
	case "free_cash_flow":
		return r.FreeCashFlow
	case "capex":
		return r.CapEx
	case "roe":
		return r.ROE
	case "roa":
		return r.ROA
	case "roce":
		return r.ROCE
	case "debt_to_equity":
		return r.DebtToEquity
	case "current_ratio":
		return r.CurrentRatio
	case "interest_coverage":
		return r.InterestCoverage
	case "revenue_growth":
		return r.RevenueGrowth
	case "profit_growth":
		return r.ProfitGrowth
	case "operating_margin":
		return r.OperatingMargin
	case "net_margin":
		return r.NetMargin
	}
	return nil
}

// SetSeriesValue sets a single observation on a named metric series.
// Unknown names are ignored.
func (r *FinancialRecord) SetSeriesValue(name, year string, value float64) {
	switch name {
	case "revenue":
		r.Revenue.Set(year, value)
	case "net_income":
		r.NetIncome.Set(year, value)
	case "operating_income":
		r.OperatingIncome.Set(year, value)
	case "gross_profit":
		r.GrossProfit.Set(year, value)
	case "ebitda":
		r.EBITDA.Set(year, value)
	case "total_assets":
		r.TotalAssets.Set(year, value)
	case "total_liabilities":
		r.TotalLiabilities.Set(year, value)
	case "shareholders_equity":
		r.ShareholdersEquity.Set(year, value)
	case "total_debt":
		r.TotalDebt.Set(year, value)
	case "cash_and_equivalents":
		r.CashAndEquivalents.Set(year, value)
	case "operating_cash_flow":
		r.OperatingCashFlow.Set(year, value)
	case "free_cash_flow":
		r.FreeCashFlow.Set(year, value)
	case "capex":
		r.CapEx.Set(year, value)
	case "roe":
		r.ROE.Set(year, value)
	case "roa":
		r.ROA.Set(year, value)
	case "roce":
		r.ROCE.Set(year, value)
	case "debt_to_equity":
		r.DebtToEquity.Set(year, value)
	case "current_ratio":
		r.CurrentRatio.Set(year, value)
	case "interest_coverage":
		r.InterestCoverage.Set(year, value)
	case "revenue_growth":
		r.RevenueGrowth.Set(year, value)
	case "profit_growth":
		r.ProfitGrowth.Set(year, value)
	case "operating_margin":
		r.OperatingMargin.Set(year, value)
	case "net_margin":
		r.NetMargin.Set(year, value)
	}
}

// allSeries returns pointers to every metric series for in-place mutation
func (r *FinancialRecord) allSeries() []*Series {
	return []*Series{
		&r.Revenue, &r.NetIncome, &r.OperatingIncome, &r.GrossProfit, &r.EBITDA,
		&r.TotalAssets, &r.TotalLiabilities, &r.ShareholdersEquity, &r.TotalDebt,
		&r.CashAndEquivalents,
		&r.OperatingCashFlow, &r.FreeCashFlow, &r.CapEx,
		&r.ROE, &r.ROA, &r.ROCE, &r.DebtToEquity, &r.CurrentRatio,
		&r.InterestCoverage, &r.RevenueGrowth, &r.ProfitGrowth,
		&r.OperatingMargin, &r.NetMargin,
	}
}

// TrimToLast caps every metric series at the n most recent fiscal years
func (r *FinancialRecord) TrimToLast(n int) {
	for _, s := range r.allSeries() {
		s.TrimToLast(n)
	}
}

// SeriesNames lists the metric series names in statement order
func SeriesNames() []string {
	return []string{
		"revenue", "net_income", "operating_income", "gross_profit", "ebitda",
		"total_assets", "total_liabilities", "shareholders_equity", "total_debt",
		"cash_and_equivalents",
		"operating_cash_flow", "free_cash_flow", "capex",
		"roe", "roa", "roce", "debt_to_equity", "current_ratio",
		"interest_coverage", "revenue_growth", "profit_growth",
		"operating_margin", "net_margin",
	}
}

// CompanyMatch is one search result from a source adapter
type CompanyMatch struct {
	Name   string `json:"name"`
	Ticker string `json:"ticker"`
	URL    string `json:"url,omitempty"`
	Source string `json:"source"`
}
