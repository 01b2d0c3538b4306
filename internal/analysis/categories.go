package analysis

import (
	"fmt"
	"strings"

	"qualsight/internal/model"
)

// Category weights, summing to 1.0
const (
	weightProfitability     = 0.20
	weightGrowth            = 0.15
	weightFinancialHealth   = 0.20
	weightCashManagement    = 0.15
	weightCapitalEfficiency = 0.15
	weightQualityEarnings   = 0.10
	weightGovernance        = 0.05
)

// baseScore is the neutral starting point on the 0-10 scale. A category with
// no scorable data keeps it.
const baseScore = 5.0

// scoreBuilder accumulates threshold adjustments, findings, and explanation
// fragments for one category
type scoreBuilder struct {
	category  string
	weight    float64
	score     float64
	strengths []string
	concerns  []string
	parts     []string
}

func newScoreBuilder(category string, weight float64) *scoreBuilder {
	return &scoreBuilder{category: category, weight: weight, score: baseScore}
}

func (b *scoreBuilder) add(delta float64) { b.score += delta }

func (b *scoreBuilder) strengthf(format string, args ...interface{}) {
	b.strengths = append(b.strengths, fmt.Sprintf(format, args...))
}

func (b *scoreBuilder) concernf(format string, args ...interface{}) {
	b.concerns = append(b.concerns, fmt.Sprintf(format, args...))
}

// notef records an explanation fragment with the computed figures embedded
func (b *scoreBuilder) notef(format string, args ...interface{}) {
	b.parts = append(b.parts, fmt.Sprintf(format, args...))
}

// qualityBand maps a clamped score onto the four verdict labels
func qualityBand(score float64, bands [4]string) string {
	switch {
	case score >= 7.5:
		return bands[0]
	case score >= 6.5:
		return bands[1]
	case score >= 5.5:
		return bands[2]
	default:
		return bands[3]
	}
}

// build clamps the score and assembles the explanation. With no fragments at
// all the generic fallback text is used.
func (b *scoreBuilder) build(prefix, tailFormat, fallback string, bands [4]string) model.QualityScore {
	b.score = clamp(b.score, 0, 10)

	explanation := fallback
	if len(b.parts) > 0 {
		explanation = prefix + strings.Join(b.parts, "; ") + ". " +
			fmt.Sprintf(tailFormat, qualityBand(b.score, bands)) + "."
	}

	return model.QualityScore{
		Category:    b.category,
		Score:       b.score,
		Weight:      b.weight,
		Strengths:   b.strengths,
		Concerns:    b.concerns,
		Explanation: explanation,
	}
}

func scoreProfitability(r *model.FinancialRecord) model.QualityScore {
	b := newScoreBuilder(model.CategoryProfitability, weightProfitability)

	if !r.OperatingMargin.IsEmpty() {
		margins := r.OperatingMargin.Values()
		avg := mean(margins)
		latest := margins[len(margins)-1]

		switch {
		case avg > 20:
			b.add(2)
			b.strengthf("Strong operating margin of %.1f%% (latest %.1f%%)", avg, latest)
		case avg > 15:
			b.add(1)
			b.strengthf("Healthy operating margin of %.1f%% (latest %.1f%%)", avg, latest)
		case avg < 5:
			b.add(-2)
			b.concernf("Low operating margin of %.1f%% (latest %.1f%%)", avg, latest)
		case avg < 10:
			b.add(-1)
			b.concernf("Below-average operating margin of %.1f%% (latest %.1f%%)", avg, latest)
		}

		trend := "stable"
		if len(margins) >= 2 {
			oldest := margins[0]
			switch {
			case latest > oldest:
				b.add(0.5)
				b.strengthf("Improving operating margins over time")
				trend = "improving"
			case latest < oldest*0.9:
				b.add(-0.5)
				b.concernf("Declining operating margins")
				trend = "declining"
			}
		}
		b.notef("Operating Margin: %.1f%% average over %d years (%s trend)", avg, len(margins), trend)
	}

	if !r.NetMargin.IsEmpty() {
		avg := mean(r.NetMargin.Values())
		if avg > 15 {
			b.add(1)
			b.strengthf("Excellent net profit margin of %.1f%%", avg)
		} else if avg < 0 {
			b.add(-2)
			b.concernf("Company is operating at a loss")
		}
		b.notef("Net Profit Margin: %.1f%% average", avg)
	}

	if !r.ROE.IsEmpty() {
		avg := mean(r.ROE.Values())
		if avg > 20 {
			b.add(1)
			b.strengthf("High ROE of %.1f%% indicates efficient equity usage", avg)
		} else if avg < 10 {
			b.add(-0.5)
			b.concernf("Low ROE of %.1f%%", avg)
		}

		efficiency := "moderate"
		if avg > 20 {
			efficiency = "excellent"
		} else if avg > 15 {
			efficiency = "good"
		}
		b.notef("Return on Equity (ROE): %.1f%% average, indicating %s capital efficiency", avg, efficiency)
	}

	return b.build(
		"Profitability Analysis: ",
		"Overall profitability is %s",
		"Assessment of profit margins, ROE, and overall profitability trends.",
		[4]string{"excellent", "strong", "moderate", "concerning"},
	)
}

func scoreGrowth(r *model.FinancialRecord) model.QualityScore {
	b := newScoreBuilder(model.CategoryGrowth, weightGrowth)

	if r.Revenue.Len() >= 2 {
		revenues := r.Revenue.Values()
		oldest, latest := revenues[0], revenues[len(revenues)-1]

		if rate, ok := cagr(oldest, latest, len(revenues)-1); ok {
			switch {
			case rate > 20:
				b.add(2)
				b.strengthf("Excellent revenue CAGR of %.1f%%", rate)
			case rate > 10:
				b.add(1)
				b.strengthf("Strong revenue CAGR of %.1f%%", rate)
			case rate < 0:
				b.add(-2)
				b.concernf("Declining revenue (CAGR: %.1f%%)", rate)
			case rate < 5:
				b.add(-0.5)
				b.concernf("Slow revenue growth (CAGR: %.1f%%)", rate)
			}
			b.notef("Revenue CAGR: %.1f%% over %d years", rate, len(revenues)-1)
		}

		if rates := yoyGrowthRates(revenues); len(rates) > 0 {
			positive := countPositive(rates)
			if positive == len(rates) {
				b.add(1)
				b.strengthf("Consistent revenue growth across all analyzed years")
			} else if float64(positive) < float64(len(rates))/2 {
				b.concernf("Inconsistent revenue growth")
			}
			b.notef("Growth consistency: %d/%d years positive", positive, len(rates))
		}
	}

	if r.NetIncome.Len() >= 2 {
		profits := r.NetIncome.Values()
		oldest, latest := profits[0], profits[len(profits)-1]

		// profit CAGR is only meaningful when both endpoints are positive
		if oldest > 0 && latest > 0 {
			if rate, ok := cagr(oldest, latest, len(profits)-1); ok {
				if rate > 25 {
					b.add(1)
					b.strengthf("Strong profit growth (CAGR: %.1f%%)", rate)
				} else if rate < -10 {
					b.add(-1.5)
					b.concernf("Declining profits (CAGR: %.1f%%)", rate)
				}
				b.notef("Profit CAGR: %.1f%%", rate)
			}
		}
	}

	return b.build(
		"Growth & Revenue Stability: ",
		"Overall growth momentum is %s",
		"Assessment of revenue and profit growth trends and consistency.",
		[4]string{"excellent", "strong", "moderate", "weak"},
	)
}

func scoreFinancialHealth(r *model.FinancialRecord) model.QualityScore {
	b := newScoreBuilder(model.CategoryFinancialHealth, weightFinancialHealth)

	if !r.DebtToEquity.IsEmpty() {
		values := r.DebtToEquity.Values()
		avg := mean(values)
		latest := values[len(values)-1]

		switch {
		case avg < 0.3:
			b.add(2)
			b.strengthf("Very low debt levels (D/E: %.2f)", avg)
		case avg < 0.5:
			b.add(1)
			b.strengthf("Conservative debt levels (D/E: %.2f)", avg)
		case avg > 1.5:
			b.add(-2)
			b.concernf("High leverage (D/E: %.2f)", avg)
		case avg > 1:
			b.add(-1)
			b.concernf("Elevated debt levels (D/E: %.2f)", avg)
		}

		trend := "stable"
		if len(values) >= 2 {
			oldest := values[0]
			if latest > oldest*1.3 {
				b.add(-0.5)
				b.concernf("Increasing leverage over time")
			}
			if latest > oldest*1.1 {
				trend = "increasing"
			}
		}
		b.notef("Debt-to-Equity: %.2f (avg: %.2f, %s)", latest, avg, trend)
	}

	if !r.InterestCoverage.IsEmpty() {
		avg := mean(r.InterestCoverage.Values())
		switch {
		case avg > 10:
			b.add(1)
			b.strengthf("Excellent interest coverage (%.1fx)", avg)
		case avg < 2:
			b.add(-2)
			b.concernf("Low interest coverage (%.1fx) - potential debt servicing risk", avg)
		case avg < 3:
			b.add(-1)
			b.concernf("Moderate interest coverage (%.1fx)", avg)
		}

		servicing := "concerning"
		if avg > 5 {
			servicing = "comfortable"
		} else if avg > 3 {
			servicing = "manageable"
		}
		b.notef("Interest Coverage: %.1fx (debt servicing %s)", avg, servicing)
	}

	if !r.CurrentRatio.IsEmpty() {
		avg := mean(r.CurrentRatio.Values())
		if avg > 2 {
			b.add(0.5)
			b.strengthf("Strong liquidity position (Current Ratio: %.2f)", avg)
		} else if avg < 1 {
			b.add(-1.5)
			b.concernf("Liquidity concerns (Current Ratio: %.2f)", avg)
		}

		liquidity := "weak"
		if avg > 2 {
			liquidity = "strong"
		} else if avg > 1.5 {
			liquidity = "adequate"
		}
		b.notef("Current Ratio: %.2f (%s liquidity)", avg, liquidity)
	}

	if !r.TotalDebt.IsEmpty() && !r.ShareholdersEquity.IsEmpty() {
		debt, _ := r.TotalDebt.Latest()
		equity, _ := r.ShareholdersEquity.Latest()
		if debt.Value == 0 || (equity.Value > 0 && debt.Value/equity.Value < 0.1) {
			b.add(1)
			b.strengthf("Debt-free or minimal debt balance sheet")
		}
	}

	return b.build(
		"Financial Health & Leverage: ",
		"Overall financial stability is %s",
		"Assessment of leverage, liquidity, and overall financial stability.",
		[4]string{"excellent", "strong", "moderate", "concerning"},
	)
}

func scoreCashManagement(r *model.FinancialRecord) model.QualityScore {
	b := newScoreBuilder(model.CategoryCashManagement, weightCashManagement)

	if !r.OperatingCashFlow.IsEmpty() {
		values := r.OperatingCashFlow.Values()
		positive := countPositive(values)

		if positive == len(values) {
			b.add(2)
			b.strengthf("Consistently positive operating cash flow")
		} else if float64(positive) < float64(len(values))/2 {
			b.add(-2)
			b.concernf("Inconsistent or negative operating cash flows")
		}

		if len(values) >= 2 {
			oldest, latest := values[0], values[len(values)-1]
			if latest > oldest*1.5 {
				b.add(0.5)
				b.strengthf("Growing operating cash flow")
			} else if latest < oldest*0.7 {
				b.concernf("Declining operating cash flow")
			}
		}
		b.notef("Operating Cash Flow: %d/%d years positive (avg: %.1f)", positive, len(values), mean(values))
	}

	if pairs := pairNetIncomeWithOCF(r); len(pairs) > 0 {
		ocfGreater := 0
		allProfitable := true
		for _, p := range pairs {
			if p.netIncome > 0 && p.ocf > p.netIncome {
				ocfGreater++
			}
			if p.netIncome <= 0 {
				allProfitable = false
			}
		}

		if ocfGreater == len(pairs) {
			b.add(1)
			b.strengthf("OCF consistently exceeds net income - high earnings quality")
		} else if float64(ocfGreater) < float64(len(pairs))/2 && allProfitable {
			b.add(-1)
			b.concernf("Net income often exceeds OCF - potential earnings quality issue")
		}

		quality := "moderate"
		if ocfGreater == len(pairs) {
			quality = "strong"
		}
		b.notef("OCF exceeds Net Income in %d/%d years (%s earnings quality)", ocfGreater, len(pairs), quality)
	}

	if !r.FreeCashFlow.IsEmpty() {
		values := r.FreeCashFlow.Values()
		positive := countPositive(values)

		if positive == len(values) {
			b.add(1)
			b.strengthf("Consistently positive free cash flow")
		} else if positive == 0 {
			b.add(-1)
			b.concernf("Negative free cash flow across all years")
		}
		b.notef("Free Cash Flow: %d/%d years positive", positive, len(values))
	}

	return b.build(
		"Cash Flow Management: ",
		"Overall cash generation is %s",
		"Assessment of cash flow generation and quality.",
		[4]string{"excellent", "strong", "moderate", "weak"},
	)
}

func scoreCapitalEfficiency(r *model.FinancialRecord) model.QualityScore {
	b := newScoreBuilder(model.CategoryCapitalEfficiency, weightCapitalEfficiency)

	if !r.ROCE.IsEmpty() {
		values := r.ROCE.Values()
		avg := mean(values)

		switch {
		case avg > 20:
			b.add(2)
			b.strengthf("Excellent ROCE of %.1f%% - efficient capital deployment", avg)
		case avg > 15:
			b.add(1)
			b.strengthf("Good ROCE of %.1f%%", avg)
		case avg < 8:
			b.add(-1.5)
			b.concernf("Low ROCE of %.1f%% - poor capital efficiency", avg)
		case avg < 10:
			b.add(-0.5)
			b.concernf("Below-average ROCE of %.1f%%", avg)
		}

		consistent := len(values) >= 3 && countBelow(values, 15) == 0
		if consistent {
			b.add(0.5)
			b.strengthf("Consistently high returns on capital employed")
		}
		label := "variable"
		if consistent {
			label = "consistent"
		}
		b.notef("Return on Capital Employed (ROCE): %.1f%% average (%s)", avg, label)
	}

	if !r.ROA.IsEmpty() {
		avg := mean(r.ROA.Values())
		if avg > 10 {
			b.add(1)
			b.strengthf("Strong ROA of %.1f%%", avg)
		} else if avg < 3 {
			b.add(-1)
			b.concernf("Low ROA of %.1f%%", avg)
		}
		b.notef("Return on Assets (ROA): %.1f%% average", avg)
	}

	if turnovers := assetTurnovers(r); len(turnovers) > 0 {
		avg := mean(turnovers)
		if avg > 1.5 {
			b.strengthf("High asset turnover (%.2fx)", avg)
		} else if avg < 0.3 {
			b.concernf("Low asset utilization (%.2fx)", avg)
		}

		utilization := "moderate"
		if avg > 1.0 {
			utilization = "efficient"
		}
		b.notef("Asset Turnover: %.2fx (%s utilization)", avg, utilization)
	}

	return b.build(
		"Capital Efficiency & Returns: ",
		"Overall capital deployment is %s",
		"Assessment of return on capital and asset efficiency.",
		[4]string{"excellent", "strong", "moderate", "inefficient"},
	)
}

func scoreEarningsQuality(r *model.FinancialRecord) model.QualityScore {
	b := newScoreBuilder(model.CategoryQualityEarnings, weightQualityEarnings)

	if ratio, ok := accrualRatio(r); ok {
		switch {
		case ratio < 0: // negative accruals: earnings fully backed by cash
			b.add(2)
			b.strengthf("High cash conversion - earnings backed by cash")
		case ratio > 0.5:
			b.add(-2)
			b.concernf("High accruals - earnings quality concerns")
		case ratio > 0.3:
			b.add(-1)
			b.concernf("Moderate accruals in earnings")
		}

		label := "high - quality concerns"
		if ratio < 0.1 {
			label = "low - high cash quality"
		} else if ratio < 0.3 {
			label = "moderate"
		}
		b.notef("Accruals Ratio: %.2f (%s)", ratio, label)
	}

	if r.NetIncome.Len() >= 3 {
		if cv, ok := coefficientOfVariation(r.NetIncome.Values()); ok {
			if cv < 0.2 {
				b.add(1)
				b.strengthf("Stable and predictable earnings")
			} else if cv > 0.5 {
				b.add(-1)
				b.concernf("High earnings volatility")
			}

			label := "volatile"
			if cv < 0.2 {
				label = "stable"
			} else if cv < 0.5 {
				label = "moderate"
			}
			b.notef("Earnings Volatility (CV): %.2f (%s)", cv, label)
		}
	}

	if r.OperatingMargin.Len() >= 2 {
		spread := valueRange(r.OperatingMargin.Values())
		if spread < 3 {
			b.add(0.5)
			b.strengthf("Stable margins indicating consistent business model")
		} else if spread > 10 {
			b.concernf("Volatile margins - business model stability concerns")
		}

		label := "volatile"
		if spread < 3 {
			label = "consistent"
		} else if spread < 10 {
			label = "variable"
		}
		b.notef("Margin Stability: %.1f%% range (%s)", spread, label)
	}

	return b.build(
		"Quality of Earnings: ",
		"Overall earnings quality is %s",
		"Assessment of earnings sustainability and accounting quality.",
		[4]string{"excellent", "strong", "acceptable", "concerning"},
	)
}

func scoreGovernance(r *model.FinancialRecord) model.QualityScore {
	b := newScoreBuilder(model.CategoryGovernance, weightGovernance)

	if r.DividendYield > 0 {
		if r.DividendYield > 2 {
			b.add(1)
			b.strengthf("Regular dividend payer (%.1f%% yield)", r.DividendYield)
		} else if r.DividendYield > 0.5 {
			b.strengthf("Maintains dividend payments")
		}

		policy := "maintained"
		if r.DividendYield > 2 {
			policy = "shareholder-friendly"
		}
		b.notef("Dividend Yield: %.1f%% (%s)", r.DividendYield, policy)
	}

	if !r.Revenue.IsEmpty() && r.YearsRequested > 0 && r.Revenue.Len() >= r.YearsRequested {
		b.add(0.5)
		b.strengthf("Consistent financial reporting")
		b.notef("Financial Reporting: Complete %d-year data available", r.YearsRequested)
	}

	if !r.FreeCashFlow.IsEmpty() {
		values := r.FreeCashFlow.Values()
		positive := countPositive(values)
		if positive == len(values) {
			b.add(1)
			b.strengthf("Positive FCF indicates disciplined capital allocation")
		}
		b.notef("Capital Discipline: Positive FCF in %d/%d years", positive, len(values))
	}

	if pairs := pairNetIncomeWithOCF(r); len(pairs) > 0 {
		concernYears := 0
		for _, p := range pairs {
			if p.netIncome > 0 && p.ocf > 0 && p.netIncome > p.ocf*1.5 {
				concernYears++
			}
		}
		if concernYears >= 2 {
			b.add(-1)
			b.concernf("Pattern of net income significantly exceeding cash flow")
		}

		if concernYears > 0 {
			label := "monitor"
			if concernYears >= 2 {
				label = "concern"
			}
			b.notef("Accounting Quality: NI>OCF in %d years (%s)", concernYears, label)
		} else {
			b.notef("Accounting Quality: Clean pattern")
		}
	}

	return b.build(
		"Management & Governance: ",
		"Overall management quality indicators are %s",
		"Assessment of management quality through financial indicators.",
		[4]string{"excellent", "strong", "acceptable", "concerning"},
	)
}

type niOcfPair struct {
	netIncome float64
	ocf       float64
}

// pairNetIncomeWithOCF matches net income and operating cash flow by fiscal
// year, in chronological order. Years present in only one series are skipped.
func pairNetIncomeWithOCF(r *model.FinancialRecord) []niOcfPair {
	var pairs []niOcfPair
	for _, p := range r.NetIncome {
		if ocf, ok := r.OperatingCashFlow.Get(p.Year); ok {
			pairs = append(pairs, niOcfPair{netIncome: p.Value, ocf: ocf})
		}
	}
	return pairs
}

// accrualRatio aggregates (net income − OCF) over profitable years,
// normalized by the OCF of those same years. Negative means earnings are
// more than fully backed by cash.
func accrualRatio(r *model.FinancialRecord) (float64, bool) {
	totalAccruals := 0.0
	totalOCF := 0.0
	for _, p := range pairNetIncomeWithOCF(r) {
		if p.netIncome > 0 {
			totalAccruals += p.netIncome - p.ocf
			totalOCF += p.ocf
		}
	}
	if totalOCF <= 0 {
		return 0, false
	}
	return totalAccruals / totalOCF, true
}

// assetTurnovers computes revenue/assets for years present in both series
func assetTurnovers(r *model.FinancialRecord) []float64 {
	var turnovers []float64
	for _, p := range r.Revenue {
		if assets, ok := r.TotalAssets.Get(p.Year); ok && assets > 0 {
			turnovers = append(turnovers, p.Value/assets)
		}
	}
	return turnovers
}

func countBelow(values []float64, threshold float64) int {
	n := 0
	for _, v := range values {
		if v <= threshold {
			n++
		}
	}
	return n
}
