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
	"qualsight/pkg/httputil"
	"qualsight/pkg/logger"
)

// FMPAdapter pulls fundamentals from the Financial Modeling Prep REST API.
// Requires an API key; construction without one is a caller error, so the
// orchestrator simply omits this adapter when no credential is configured.
type FMPAdapter struct {
	baseURL string
	apiKey  string
	client  *httputil.Client
	log     *logger.Logger
}

// NewFMPAdapter creates the Financial Modeling Prep adapter
func NewFMPAdapter(baseURL, apiKey string, client *httputil.Client, log *logger.Logger) (*FMPAdapter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("fmp adapter requires an API key")
	}
	return &FMPAdapter{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  client,
		log:     log,
	}, nil
}

// Name implements SourceAdapter
func (a *FMPAdapter) Name() string { return "fmp" }

type fmpSearchItem struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// Search implements SourceAdapter
func (a *FMPAdapter) Search(ctx context.Context, query string) ([]model.CompanyMatch, error) {
	searchURL := fmt.Sprintf("%s/search?query=%s&apikey=%s", a.baseURL, url.QueryEscape(query), url.QueryEscape(a.apiKey))

	var items []fmpSearchItem
	if err := a.getJSON(ctx, searchURL, &items); err != nil {
		return nil, err
	}

	if len(items) > 10 {
		items = items[:10]
	}
	var matches []model.CompanyMatch
	for _, item := range items {
		matches = append(matches, model.CompanyMatch{
			Name:   item.Name,
			Ticker: item.Symbol,
			Source: a.Name(),
		})
	}
	return matches, nil
}

type fmpProfile struct {
	CompanyName string  `json:"companyName"`
	Sector      string  `json:"sector"`
	Industry    string  `json:"industry"`
	MktCap      float64 `json:"mktCap"`
	PE          float64 `json:"pe"`
}

type fmpIncomeStatement struct {
	Date            string  `json:"date"`
	Revenue         float64 `json:"revenue"`
	NetIncome       float64 `json:"netIncome"`
	OperatingIncome float64 `json:"operatingIncome"`
	GrossProfit     float64 `json:"grossProfit"`
	EBITDA          float64 `json:"ebitda"`
}

type fmpBalanceSheet struct {
	Date                    string  `json:"date"`
	TotalAssets             float64 `json:"totalAssets"`
	TotalLiabilities        float64 `json:"totalLiabilities"`
	TotalStockholdersEquity float64 `json:"totalStockholdersEquity"`
	TotalDebt               float64 `json:"totalDebt"`
	CashAndCashEquivalents  float64 `json:"cashAndCashEquivalents"`
}

type fmpCashFlow struct {
	Date               string  `json:"date"`
	OperatingCashFlow  float64 `json:"operatingCashFlow"`
	FreeCashFlow       float64 `json:"freeCashFlow"`
	CapitalExpenditure float64 `json:"capitalExpenditure"`
}

// Fetch implements SourceAdapter. Statements come newest-first from the API;
// year keys are the leading year of the reporting date.
func (a *FMPAdapter) Fetch(ctx context.Context, identifier string, years int) (*model.FinancialRecord, error) {
	profile, err := a.fetchProfile(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, nil
	}

	name := profile.CompanyName
	if name == "" {
		name = identifier
	}
	record := model.NewFinancialRecord(name, strings.ToUpper(identifier))
	record.DataSource = a.Name()
	record.FetchTimestamp = time.Now()
	record.YearsRequested = years

	var income []fmpIncomeStatement
	incomeURL := fmt.Sprintf("%s/income-statement/%s?limit=%d&apikey=%s", a.baseURL, url.PathEscape(identifier), years, url.QueryEscape(a.apiKey))
	if err := a.getJSON(ctx, incomeURL, &income); err == nil {
		for _, item := range income {
			year, ok := statementYear(item.Date)
			if !ok {
				continue
			}
			record.Revenue.Set(year, item.Revenue)
			record.NetIncome.Set(year, item.NetIncome)
			record.OperatingIncome.Set(year, item.OperatingIncome)
			record.GrossProfit.Set(year, item.GrossProfit)
			record.EBITDA.Set(year, item.EBITDA)
		}
	}

	var balance []fmpBalanceSheet
	balanceURL := fmt.Sprintf("%s/balance-sheet-statement/%s?limit=%d&apikey=%s", a.baseURL, url.PathEscape(identifier), years, url.QueryEscape(a.apiKey))
	if err := a.getJSON(ctx, balanceURL, &balance); err == nil {
		for _, item := range balance {
			year, ok := statementYear(item.Date)
			if !ok {
				continue
			}
			record.TotalAssets.Set(year, item.TotalAssets)
			record.TotalLiabilities.Set(year, item.TotalLiabilities)
			record.ShareholdersEquity.Set(year, item.TotalStockholdersEquity)
			record.TotalDebt.Set(year, item.TotalDebt)
			record.CashAndEquivalents.Set(year, item.CashAndCashEquivalents)
		}
	}

	var cashflow []fmpCashFlow
	cashflowURL := fmt.Sprintf("%s/cash-flow-statement/%s?limit=%d&apikey=%s", a.baseURL, url.PathEscape(identifier), years, url.QueryEscape(a.apiKey))
	if err := a.getJSON(ctx, cashflowURL, &cashflow); err == nil {
		for _, item := range cashflow {
			year, ok := statementYear(item.Date)
			if !ok {
				continue
			}
			record.OperatingCashFlow.Set(year, item.OperatingCashFlow)
			record.FreeCashFlow.Set(year, item.FreeCashFlow)
			record.CapEx.Set(year, item.CapitalExpenditure)
		}
	}

	record.Sector = profile.Sector
	record.Industry = profile.Industry
	record.MarketCap = profile.MktCap
	record.PERatio = profile.PE

	deriveRatios(record)
	return record, nil
}

// FetchProfileName looks up the company display name for a symbol. Used by
// the validator for direct ticker confirmation without a full statement pull.
func (a *FMPAdapter) FetchProfileName(ctx context.Context, symbol string) (string, error) {
	profile, err := a.fetchProfile(ctx, symbol)
	if err != nil {
		return "", err
	}
	if profile == nil {
		return "", nil
	}
	return profile.CompanyName, nil
}

func (a *FMPAdapter) fetchProfile(ctx context.Context, identifier string) (*fmpProfile, error) {
	profileURL := fmt.Sprintf("%s/profile/%s?apikey=%s", a.baseURL, url.PathEscape(identifier), url.QueryEscape(a.apiKey))

	var profiles []fmpProfile
	if err := a.getJSON(ctx, profileURL, &profiles); err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, nil
	}
	return &profiles[0], nil
}

// getJSON performs a GET and decodes the body; any non-success status is
// treated as "no data" by returning an error the caller can drop
func (a *FMPAdapter) getJSON(ctx context.Context, requestURL string, dest interface{}) error {
	resp, err := a.client.Get(ctx, requestURL)
	if err != nil {
		return fmt.Errorf("fmp request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fmp request: status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("fmp decode: %w", err)
	}
	return nil
}

// statementYear extracts the fiscal year from a reporting date ("2024-03-31")
func statementYear(date string) (string, bool) {
	if len(date) < 4 {
		return "", false
	}
	return date[:4], true
}
