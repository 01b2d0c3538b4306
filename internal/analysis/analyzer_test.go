package analysis

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qualsight/internal/model"
	"qualsight/pkg/logger"
)

func newTestAnalyzer() *Analyzer {
	return NewAnalyzer(logger.NewNop())
}

// strongRecord builds a healthy multi-year record exercising every category
func strongRecord() *model.FinancialRecord {
	r := model.NewFinancialRecord("Quality Co", "QLTY")
	r.YearsRequested = 4
	r.FetchTimestamp = time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	r.DividendYield = 2.5

	years := []string{"2021", "2022", "2023", "2024"}
	revenue := []float64{1000, 1150, 1320, 1500}
	netIncome := []float64{150, 175, 205, 240}
	ocf := []float64{180, 210, 245, 290}
	fcf := []float64{120, 140, 165, 200}
	opMargin := []float64{21, 21.5, 22, 22.5}
	netMargin := []float64{15, 15.2, 15.5, 16}
	roe := []float64{22, 23, 24, 25}
	roce := []float64{26, 27, 28, 29}
	de := []float64{0.2, 0.18, 0.15, 0.12}

	for i, y := range years {
		r.Revenue.Set(y, revenue[i])
		r.NetIncome.Set(y, netIncome[i])
		r.OperatingCashFlow.Set(y, ocf[i])
		r.FreeCashFlow.Set(y, fcf[i])
		r.OperatingMargin.Set(y, opMargin[i])
		r.NetMargin.Set(y, netMargin[i])
		r.ROE.Set(y, roe[i])
		r.ROCE.Set(y, roce[i])
		r.DebtToEquity.Set(y, de[i])
	}
	return r
}

func TestAnalyzeScoresAreBoundedAndWeighted(t *testing.T) {
	report := newTestAnalyzer().Analyze(strongRecord())

	require.Len(t, report.CategoryScores, 7)

	totalWeight := 0.0
	weighted := 0.0
	for _, cs := range report.CategoryScores {
		assert.GreaterOrEqual(t, cs.Score, 0.0, cs.Category)
		assert.LessOrEqual(t, cs.Score, 10.0, cs.Category)
		totalWeight += cs.Weight
		weighted += cs.Score * cs.Weight
	}
	assert.InDelta(t, 1.0, totalWeight, 1e-9)
	assert.InDelta(t, round1(weighted/totalWeight), report.OverallScore, 1e-9)
}

func TestAnalyzeIsIdempotent(t *testing.T) {
	a := newTestAnalyzer()
	record := strongRecord()

	first := a.Analyze(record)
	second := a.Analyze(record)

	assert.Equal(t, first, second)
}

func TestAnalyzeEmptyRecordIsNeutral(t *testing.T) {
	record := model.NewFinancialRecord("Ghost Co", "GHST")

	report := newTestAnalyzer().Analyze(record)

	assert.Equal(t, 5.0, report.OverallScore)
	for _, cs := range report.CategoryScores {
		assert.Equal(t, 5.0, cs.Score, cs.Category)
	}
	assert.Empty(t, report.KeyStrengths)
	assert.Empty(t, report.RedFlags)
}

func TestRedFlagRevenueDecline(t *testing.T) {
	record := model.NewFinancialRecord("Fading Co", "FADE")
	revenue := []float64{1000, 950, 980, 900, 850} // two separate decline streaks
	for i, y := range []string{"2020", "2021", "2022", "2023", "2024"} {
		record.Revenue.Set(y, revenue[i])
	}

	report := newTestAnalyzer().Analyze(record)

	var found *model.RedFlag
	for i := range report.RedFlags {
		if report.RedFlags[i].Category == "Growth" {
			found = &report.RedFlags[i]
			break
		}
	}
	require.NotNil(t, found, "expected a Growth red flag")
	assert.Equal(t, model.SeverityHigh, found.Severity)
	assert.Contains(t, found.Description, "Revenue declining")
}

func TestRedFlagHighLeverageEmbedsRatio(t *testing.T) {
	record := model.NewFinancialRecord("Levered Co", "LEVR")
	record.Revenue.Set("2024", 100)
	record.DebtToEquity.Set("2023", 1.8)
	record.DebtToEquity.Set("2024", 3.5)

	report := newTestAnalyzer().Analyze(record)

	var found *model.RedFlag
	for i := range report.RedFlags {
		if report.RedFlags[i].Category == "Financial Health" {
			found = &report.RedFlags[i]
			break
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, model.SeverityHigh, found.Severity)
	assert.Contains(t, found.Description, "3.50")
}

func TestRedFlagMediumLeverage(t *testing.T) {
	record := model.NewFinancialRecord("Levered Co", "LEVR")
	record.DebtToEquity.Set("2024", 2.4)

	report := newTestAnalyzer().Analyze(record)

	var found *model.RedFlag
	for i := range report.RedFlags {
		if report.RedFlags[i].Category == "Financial Health" {
			found = &report.RedFlags[i]
			break
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, model.SeverityMedium, found.Severity)
}

func TestRedFlagConsistentLosses(t *testing.T) {
	record := model.NewFinancialRecord("Burner Co", "BURN")
	for i, y := range []string{"2021", "2022", "2023", "2024"} {
		record.NetIncome.Set(y, -10*float64(i+1))
		record.NetMargin.Set(y, -5)
	}

	report := newTestAnalyzer().Analyze(record)

	assert.Less(t, report.OverallScore, 5.0)

	var found *model.RedFlag
	for i := range report.RedFlags {
		if report.RedFlags[i].Description == "Company has been consistently unprofitable" {
			found = &report.RedFlags[i]
			break
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, model.SeverityHigh, found.Severity)
	assert.Equal(t, "Profitability", found.Category)
}

func TestRedFlagNegativeOperatingCashFlow(t *testing.T) {
	record := model.NewFinancialRecord("Dry Co", "DRYC")
	record.OperatingCashFlow.Set("2021", -50)
	record.OperatingCashFlow.Set("2022", 20)
	record.OperatingCashFlow.Set("2023", -30)
	record.OperatingCashFlow.Set("2024", -10)

	report := newTestAnalyzer().Analyze(record)

	var found bool
	for _, f := range report.RedFlags {
		if f.Category == "Cash Management" && f.Severity == model.SeverityHigh {
			found = true
		}
	}
	assert.True(t, found, "expected a High Cash Management flag")
}

func TestRedFlagEarningsAheadOfCash(t *testing.T) {
	record := model.NewFinancialRecord("Paper Profits Co", "PAPR")
	record.NetIncome.Set("2022", 90)
	record.NetIncome.Set("2023", 100)
	record.NetIncome.Set("2024", 120)
	record.OperatingCashFlow.Set("2022", 40)
	record.OperatingCashFlow.Set("2023", 45)
	record.OperatingCashFlow.Set("2024", 50)

	report := newTestAnalyzer().Analyze(record)

	var found *model.RedFlag
	for i := range report.RedFlags {
		if report.RedFlags[i].Description == "Net income significantly exceeds operating cash flow" {
			found = &report.RedFlags[i]
			break
		}
	}
	require.NotNil(t, found, "expected an Earnings Quality red flag")
	assert.Equal(t, model.SeverityMedium, found.Severity)
	assert.Equal(t, "Earnings Quality", found.Category)
}

func TestRedFlagEarningsAheadOfCashNeedsTwoYears(t *testing.T) {
	record := model.NewFinancialRecord("One Off Co", "ONEO")
	record.NetIncome.Set("2023", 100)
	record.NetIncome.Set("2024", 100)
	record.OperatingCashFlow.Set("2023", 40) // NI > 2x OCF
	record.OperatingCashFlow.Set("2024", 90)

	report := newTestAnalyzer().Analyze(record)

	for _, f := range report.RedFlags {
		assert.NotEqual(t, "Net income significantly exceeds operating cash flow", f.Description)
	}
}

func TestRedFlagsSurfaceWeakCategoryConcerns(t *testing.T) {
	record := model.NewFinancialRecord("Thin Margins Co", "THIN")
	// Four profitability concerns drag the category below 4; only the first
	// two may surface as flags
	record.OperatingMargin.Set("2022", 4)
	record.OperatingMargin.Set("2023", 3.5)
	record.OperatingMargin.Set("2024", 3)
	record.NetMargin.Set("2022", -2)
	record.NetMargin.Set("2023", -2)
	record.NetMargin.Set("2024", -2)
	record.ROE.Set("2022", 5)
	record.ROE.Set("2023", 5)
	record.ROE.Set("2024", 5)

	report := newTestAnalyzer().Analyze(record)

	var profitability model.QualityScore
	for _, cs := range report.CategoryScores {
		if cs.Category == model.CategoryProfitability {
			profitability = cs
		}
	}
	require.Less(t, profitability.Score, 4.0)
	require.Greater(t, len(profitability.Concerns), 2)

	var surfaced []model.RedFlag
	for _, f := range report.RedFlags {
		if f.Category == model.CategoryProfitability {
			surfaced = append(surfaced, f)
		}
	}
	require.Len(t, surfaced, 2, "weak-category concerns are capped at two flags")
	for _, f := range surfaced {
		assert.Equal(t, model.SeverityMedium, f.Severity)
		assert.Contains(t, f.Impact, "profitability & margins")
	}
	assert.Contains(t, surfaced[0].Description, "Low operating margin")
}

func TestKeyStrengthsOrderedAndPrefixed(t *testing.T) {
	report := newTestAnalyzer().Analyze(strongRecord())

	require.NotEmpty(t, report.KeyStrengths)
	assert.LessOrEqual(t, len(report.KeyStrengths), 8)
	for _, s := range report.KeyStrengths {
		assert.True(t, strings.HasPrefix(s, "["), "strength %q must carry its category prefix", s)
	}
}

func TestAnalyzeInsertionOrderDoesNotMatter(t *testing.T) {
	forward := model.NewFinancialRecord("Order Co", "ORDR")
	backward := model.NewFinancialRecord("Order Co", "ORDR")

	years := []string{"2021", "2022", "2023", "2024"}
	revenue := []float64{100, 120, 140, 160}
	for i := range years {
		forward.Revenue.Set(years[i], revenue[i])
	}
	for i := len(years) - 1; i >= 0; i-- {
		backward.Revenue.Set(years[i], revenue[i])
	}

	a := newTestAnalyzer()
	assert.Equal(t, a.Analyze(forward), a.Analyze(backward))
}

func TestMetricsSummarySnapshot(t *testing.T) {
	report := newTestAnalyzer().Analyze(strongRecord())

	require.NotNil(t, report.MetricsSummary)
	info, ok := report.MetricsSummary["company_info"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Quality Co", info["name"])

	trend, ok := report.MetricsSummary["revenue_trend"].(map[string]float64)
	require.True(t, ok)
	assert.Equal(t, 1500.0, trend["2024"])
}
