package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"qualsight/internal/model"
	"qualsight/pkg/httputil"
	"qualsight/pkg/logger"
)

// browser-like headers; the site serves a bot-check page to default clients
var screenerHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Accept-Language": "en-US,en;q=0.5",
}

// ScreenerAdapter scrapes fundamentals from screener.in company pages.
// Values are in INR crores as published; year labels are the table headers
// ("Mar 2024").
type ScreenerAdapter struct {
	baseURL string
	client  *httputil.Client
	log     *logger.Logger
}

// NewScreenerAdapter creates the screener.in scrape adapter
func NewScreenerAdapter(baseURL string, client *httputil.Client, log *logger.Logger) *ScreenerAdapter {
	return &ScreenerAdapter{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		log:     log,
	}
}

// Name implements SourceAdapter
func (a *ScreenerAdapter) Name() string { return "screener.in" }

type screenerSearchItem struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Search implements SourceAdapter using the site's typeahead endpoint
func (a *ScreenerAdapter) Search(ctx context.Context, query string) ([]model.CompanyMatch, error) {
	searchURL := fmt.Sprintf("%s/api/company/search/?q=%s", a.baseURL, url.QueryEscape(query))

	resp, err := a.client.GetWithHeaders(ctx, searchURL, screenerHeaders)
	if err != nil {
		return nil, fmt.Errorf("screener search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}

	var items []screenerSearchItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("screener search decode: %w", err)
	}

	if len(items) > 10 {
		items = items[:10]
	}

	var matches []model.CompanyMatch
	for _, item := range items {
		// URL format: /company/TCS/ or /company/TCS/consolidated/
		parts := strings.FieldsFunc(item.URL, func(r rune) bool { return r == '/' })
		if len(parts) < 2 || parts[0] != "company" {
			continue
		}
		symbol := strings.ToUpper(parts[1])
		if symbol == "CONSOLIDATED" || symbol == "STANDALONE" {
			continue
		}
		matches = append(matches, model.CompanyMatch{
			Name:   item.Name,
			Ticker: symbol,
			URL:    item.URL,
			Source: a.Name(),
		})
	}
	return matches, nil
}

// Fetch implements SourceAdapter. The consolidated view is preferred; when a
// company reports standalone only, the plain page is used instead.
func (a *ScreenerAdapter) Fetch(ctx context.Context, identifier string, years int) (*model.FinancialRecord, error) {
	doc, err := a.loadCompanyPage(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}

	companyName := strings.TrimSpace(doc.Find("h1.h2").First().Text())

	record := model.NewFinancialRecord(companyName, strings.ToUpper(identifier))
	record.DataSource = a.Name()
	record.FetchTimestamp = time.Now()
	record.YearsRequested = years

	a.extractProfitLoss(doc, record, years)
	a.extractBalanceSheet(doc, record, years)
	a.extractCashFlow(doc, record, years)
	a.extractRatios(doc, record, years)
	a.extractCompanyInfo(doc, record)

	return record, nil
}

func (a *ScreenerAdapter) loadCompanyPage(ctx context.Context, identifier string) (*goquery.Document, error) {
	urls := []string{
		fmt.Sprintf("%s/company/%s/consolidated/", a.baseURL, url.PathEscape(identifier)),
		fmt.Sprintf("%s/company/%s/", a.baseURL, url.PathEscape(identifier)),
	}

	for _, pageURL := range urls {
		resp, err := a.client.GetWithHeaders(ctx, pageURL, screenerHeaders)
		if err != nil {
			return nil, fmt.Errorf("screener page: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			continue
		}

		doc, err := goquery.NewDocumentFromReader(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("screener parse: %w", err)
		}
		return doc, nil
	}
	return nil, nil
}

// extractSeries pulls one metric row out of a named statement section. The
// row is matched by case-insensitive substring against the first cell; the
// rightmost `years` columns are taken and aligned to the header year labels,
// so the adapter never assumes a column direction.
func (a *ScreenerAdapter) extractSeries(doc *goquery.Document, sectionID, rowLabel string, years int) model.Series {
	var series model.Series

	table := doc.Find("section#" + sectionID).First().Find("table").First()
	if table.Length() == 0 {
		return series
	}

	var yearLabels []string
	table.Find("thead th").Each(func(i int, cell *goquery.Selection) {
		if i == 0 {
			return
		}
		yearLabels = append(yearLabels, strings.TrimSpace(cell.Text()))
	})
	if len(yearLabels) == 0 {
		return series
	}
	yearLabels = lastN(yearLabels, years)

	needle := strings.ToLower(rowLabel)
	table.Find("tbody tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := row.Find("td")
		if cells.Length() == 0 {
			return true
		}
		label := strings.ToLower(strings.TrimSpace(cells.First().Text()))
		if !strings.Contains(label, needle) {
			return true
		}

		var values []string
		cells.Each(func(i int, cell *goquery.Selection) {
			if i == 0 {
				return
			}
			values = append(values, strings.TrimSpace(cell.Text()))
		})
		values = lastN(values, years)

		for i, year := range yearLabels {
			if i >= len(values) {
				break
			}
			if v, ok := parseTableCell(values[i]); ok {
				series.Set(year, v)
			}
		}
		return false
	})

	return series
}

func (a *ScreenerAdapter) extractProfitLoss(doc *goquery.Document, record *model.FinancialRecord, years int) {
	record.Revenue = a.extractSeries(doc, "profit-loss", "sales", years)
	if record.Revenue.IsEmpty() {
		record.Revenue = a.extractSeries(doc, "profit-loss", "revenue", years)
	}
	record.OperatingIncome = a.extractSeries(doc, "profit-loss", "operating profit", years)
	record.NetIncome = a.extractSeries(doc, "profit-loss", "net profit", years)
	record.OperatingMargin = a.extractSeries(doc, "profit-loss", "opm", years)
}

func (a *ScreenerAdapter) extractBalanceSheet(doc *goquery.Document, record *model.FinancialRecord, years int) {
	record.ShareholdersEquity = a.extractSeries(doc, "balance-sheet", "equity", years)
	record.TotalDebt = a.extractSeries(doc, "balance-sheet", "borrowing", years)
	record.TotalAssets = a.extractSeries(doc, "balance-sheet", "total assets", years)
}

func (a *ScreenerAdapter) extractCashFlow(doc *goquery.Document, record *model.FinancialRecord, years int) {
	record.OperatingCashFlow = a.extractSeries(doc, "cash-flow", "operating", years)
	record.FreeCashFlow = a.extractSeries(doc, "cash-flow", "free cash flow", years)
}

func (a *ScreenerAdapter) extractRatios(doc *goquery.Document, record *model.FinancialRecord, years int) {
	record.ROE = a.extractSeries(doc, "ratios", "roe", years)
	record.ROCE = a.extractSeries(doc, "ratios", "roce", years)
}

func (a *ScreenerAdapter) extractCompanyInfo(doc *goquery.Document, record *model.FinancialRecord) {
	doc.Find("ul#top-ratios li").Each(func(_ int, item *goquery.Selection) {
		name := strings.ToLower(strings.TrimSpace(item.Find("span.name").First().Text()))
		value := strings.TrimSpace(item.Find("span.number").First().Text())
		if name == "" || value == "" {
			return
		}

		switch {
		case strings.Contains(name, "market cap"):
			record.MarketCap = parseTopRatio(value)
		case strings.Contains(name, "p/e"):
			record.PERatio = parseTopRatio(value)
		case strings.Contains(name, "dividend yield"):
			record.DividendYield = parseTopRatio(value)
		case strings.Contains(name, "roce"):
			if record.ROCE.IsEmpty() {
				record.ROCE.Set("current", parseTopRatio(value))
			}
		case strings.Contains(name, "roe"):
			if record.ROE.IsEmpty() {
				record.ROE.Set("current", parseTopRatio(value))
			}
		}
	})

	doc.Find("div.company-info a").EachWithBreak(func(_ int, link *goquery.Selection) bool {
		href, _ := link.Attr("href")
		if strings.Contains(href, "/screen/raw/") {
			record.Sector = strings.TrimSpace(link.Text())
			return false
		}
		return true
	})
}

// parseTableCell converts a statement cell to a number. Blank and dash cells
// mean "not reported", not zero.
func parseTableCell(raw string) (float64, bool) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(raw, ",", ""), "%", ""))
	if cleaned == "" || cleaned == "-" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseTopRatio handles the summary-ratio format ("1,23,456 Cr.", "24.5 %")
func parseTopRatio(raw string) float64 {
	cleaned := strings.NewReplacer(",", "", "%", "", "Cr.", "", "Cr", "").Replace(raw)
	v, err := strconv.ParseFloat(strings.TrimSpace(cleaned), 64)
	if err != nil {
		return 0
	}
	return v
}

func lastN(items []string, n int) []string {
	if n >= 0 && len(items) > n {
		return items[len(items)-n:]
	}
	return items
}
