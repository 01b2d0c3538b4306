package analysis

import (
	"fmt"
	"sort"
	"strings"

	"qualsight/internal/model"
	"qualsight/pkg/logger"
)

// maxKeyStrengths caps the flattened strengths list on a report
const maxKeyStrengths = 8

// Analyzer converts a financial record into a weighted quality report.
// Pure computation: no I/O, no external calls, deterministic for the same
// record.
type Analyzer struct {
	log *logger.Logger
}

// NewAnalyzer creates the scoring engine
func NewAnalyzer(log *logger.Logger) *Analyzer {
	return &Analyzer{log: log}
}

// Analyze scores all seven categories, derives the composite score, and runs
// the red-flag battery. Narrative fields are left empty for a later
// enrichment pass.
func (a *Analyzer) Analyze(record *model.FinancialRecord) *model.QualityReport {
	report := &model.QualityReport{
		CompanyName:   record.CompanyName,
		Ticker:        record.Ticker,
		AnalysisDate:  record.FetchTimestamp,
		YearsAnalyzed: record.YearsRequested,
		DataSource:    record.DataSource,
	}

	report.CategoryScores = []model.QualityScore{
		scoreProfitability(record),
		scoreGrowth(record),
		scoreFinancialHealth(record),
		scoreCashManagement(record),
		scoreCapitalEfficiency(record),
		scoreEarningsQuality(record),
		scoreGovernance(record),
	}

	report.OverallScore = overallScore(report.CategoryScores)
	report.KeyStrengths = keyStrengths(report.CategoryScores)
	report.RedFlags = detectRedFlags(record, report.CategoryScores)
	report.MetricsSummary = metricsSummary(record)

	a.log.WithFields(map[string]interface{}{
		"ticker":    record.Ticker,
		"score":     report.OverallScore,
		"red_flags": len(report.RedFlags),
	}).Info("Quality analysis completed")

	return report
}

// overallScore is the weighted mean of the category scores, rounded to one
// decimal. Degenerate empty input keeps the neutral 5.0.
func overallScore(scores []model.QualityScore) float64 {
	totalScore := 0.0
	totalWeight := 0.0
	for _, cs := range scores {
		totalScore += cs.Score * cs.Weight
		totalWeight += cs.Weight
	}
	if totalWeight == 0 {
		return baseScore
	}
	return round1(totalScore / totalWeight)
}

// keyStrengths flattens all strengths ordered by descending category score,
// each prefixed with its source category, capped at maxKeyStrengths
func keyStrengths(scores []model.QualityScore) []string {
	ordered := make([]model.QualityScore, len(scores))
	copy(ordered, scores)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Score > ordered[j].Score
	})

	var strengths []string
	for _, cs := range ordered {
		for _, s := range cs.Strengths {
			strengths = append(strengths, fmt.Sprintf("[%s] %s", cs.Category, s))
			if len(strengths) == maxKeyStrengths {
				return strengths
			}
		}
	}
	return strengths
}

// detectRedFlags runs the fixed cross-category battery. Flags deliberately
// overlap categories already penalized in scoring: the score captures
// magnitude, the flag carries the discrete risk narrative.
func detectRedFlags(record *model.FinancialRecord, scores []model.QualityScore) []model.RedFlag {
	var flags []model.RedFlag

	// 1. Multi-year revenue decline
	if record.Revenue.Len() >= 3 {
		revenues := record.Revenue.Values()
		declines := 0
		for i := 1; i < len(revenues); i++ {
			if revenues[i] < revenues[i-1] {
				declines++
			}
		}
		if declines >= 2 {
			flags = append(flags, model.RedFlag{
				Severity:       model.SeverityHigh,
				Category:       "Growth",
				Description:    "Revenue declining for multiple consecutive years",
				Impact:         "May indicate loss of competitive position or market share",
				Recommendation: "Investigate reasons for revenue decline and management's turnaround plans",
			})
		}
	}

	// 2. Consistently unprofitable
	if !record.NetIncome.IsEmpty() && countNegative(record.NetIncome.Values()) == record.NetIncome.Len() {
		flags = append(flags, model.RedFlag{
			Severity:       model.SeverityHigh,
			Category:       "Profitability",
			Description:    "Company has been consistently unprofitable",
			Impact:         "Cash burn may require additional funding, diluting shareholders",
			Recommendation: "Assess path to profitability and cash runway",
		})
	}

	// 3. High leverage
	if latest, ok := record.DebtToEquity.Latest(); ok && latest.Value > 2 {
		severity := model.SeverityMedium
		if latest.Value > 3 {
			severity = model.SeverityHigh
		}
		flags = append(flags, model.RedFlag{
			Severity:       severity,
			Category:       "Financial Health",
			Description:    fmt.Sprintf("High debt-to-equity ratio of %.2f", latest.Value),
			Impact:         "High interest burden and vulnerability to rising rates",
			Recommendation: "Monitor debt covenants and refinancing risk",
		})
	}

	// 4. Negative operating cash flow in half or more of the years
	if !record.OperatingCashFlow.IsEmpty() {
		values := record.OperatingCashFlow.Values()
		if countNegative(values)*2 >= len(values) {
			flags = append(flags, model.RedFlag{
				Severity:       model.SeverityHigh,
				Category:       "Cash Management",
				Description:    "Negative operating cash flow in multiple years",
				Impact:         "Core business not generating cash - sustainability concerns",
				Recommendation: "Analyze working capital and cash conversion cycle",
			})
		}
	}

	// 5. Earnings far ahead of cash in repeated years
	concernYears := 0
	for _, p := range pairNetIncomeWithOCF(record) {
		if p.netIncome > 0 && p.ocf > 0 && p.netIncome > p.ocf*2 {
			concernYears++
		}
	}
	if concernYears >= 2 {
		flags = append(flags, model.RedFlag{
			Severity:       model.SeverityMedium,
			Category:       "Earnings Quality",
			Description:    "Net income significantly exceeds operating cash flow",
			Impact:         "Earnings may include non-cash items or aggressive accounting",
			Recommendation: "Review receivables aging and revenue recognition policies",
		})
	}

	// 6. Surface concerns from badly scoring categories
	for _, cs := range scores {
		if cs.Score >= 4 {
			continue
		}
		for i, concern := range cs.Concerns {
			if i == 2 {
				break
			}
			flags = append(flags, model.RedFlag{
				Severity:       model.SeverityMedium,
				Category:       cs.Category,
				Description:    concern,
				Impact:         fmt.Sprintf("Below-average performance in %s", strings.ToLower(cs.Category)),
				Recommendation: fmt.Sprintf("Deep-dive analysis of %s required", strings.ToLower(cs.Category)),
			})
		}
	}

	return flags
}

// metricsSummary snapshots the raw inputs alongside the report for
// downstream rendering and persistence
func metricsSummary(record *model.FinancialRecord) map[string]interface{} {
	return map[string]interface{}{
		"company_info": map[string]interface{}{
			"name":       record.CompanyName,
			"ticker":     record.Ticker,
			"sector":     record.Sector,
			"industry":   record.Industry,
			"market_cap": record.MarketCap,
		},
		"valuation": map[string]interface{}{
			"pe_ratio":       record.PERatio,
			"pb_ratio":       record.PBRatio,
			"dividend_yield": record.DividendYield,
		},
		"revenue_trend": record.Revenue.Map(),
		"profit_trend":  record.NetIncome.Map(),
		"margins": map[string]interface{}{
			"operating_margin": record.OperatingMargin.Map(),
			"net_margin":       record.NetMargin.Map(),
		},
		"returns": map[string]interface{}{
			"roe":  record.ROE.Map(),
			"roce": record.ROCE.Map(),
			"roa":  record.ROA.Map(),
		},
		"leverage": map[string]interface{}{
			"debt_to_equity": record.DebtToEquity.Map(),
		},
		"cash_flow": map[string]interface{}{
			"operating_cf": record.OperatingCashFlow.Map(),
			"free_cf":      record.FreeCashFlow.Map(),
		},
	}
}
