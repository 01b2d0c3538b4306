package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qualsight/internal/model"
)

func TestScoreProfitabilityStrongScenario(t *testing.T) {
	r := model.NewFinancialRecord("Margin Co", "MRGN")
	r.OperatingMargin.Set("2023", 18)
	r.OperatingMargin.Set("2024", 22)
	r.NetMargin.Set("2024", 16)
	r.ROE.Set("2024", 25)

	cs := scoreProfitability(r)

	// base 5 + margin level 1 + improving trend 0.5 + net margin 1 + ROE 1
	assert.InDelta(t, 8.5, cs.Score, 1e-9)

	var mentionsLatest bool
	for _, s := range cs.Strengths {
		if strings.Contains(s, "22.0%") {
			mentionsLatest = true
		}
	}
	assert.True(t, mentionsLatest, "strengths must mention the latest margin figure: %v", cs.Strengths)
	assert.Contains(t, cs.Explanation, "Profitability Analysis:")
}

func TestScoreProfitabilityAverageVersusLatest(t *testing.T) {
	// Average sits on the 20 boundary: the +2 rung requires strictly above
	r := model.NewFinancialRecord("Edge Co", "EDGE")
	r.OperatingMargin.Set("2023", 18)
	r.OperatingMargin.Set("2024", 22)

	cs := scoreProfitability(r)

	// +1 for the 15-20 band, +0.5 improving trend
	assert.InDelta(t, 6.5, cs.Score, 1e-9)
}

func TestScoreProfitabilityLoss(t *testing.T) {
	r := model.NewFinancialRecord("Loss Co", "LOSS")
	r.OperatingMargin.Set("2023", 4)
	r.OperatingMargin.Set("2024", 2)
	r.NetMargin.Set("2023", -3)
	r.NetMargin.Set("2024", -6)

	cs := scoreProfitability(r)

	// base 5 - low margin 2 - declining trend 0.5 - loss 2
	assert.InDelta(t, 0.5, cs.Score, 1e-9)
	assert.Contains(t, cs.Concerns, "Company is operating at a loss")
}

func TestScoreGrowthCAGRUsesChronologicalEndpoints(t *testing.T) {
	r := model.NewFinancialRecord("Grower Co", "GROW")
	// 100 -> 210 over 4 steps is ~20.4% CAGR, just above the +2 rung
	values := []float64{100, 125, 150, 180, 210}
	for i, y := range []string{"2020", "2021", "2022", "2023", "2024"} {
		r.Revenue.Set(y, values[i])
	}

	cs := scoreGrowth(r)

	// +2 CAGR > 20, +1 all years positive
	assert.InDelta(t, 8.0, cs.Score, 1e-9)
	assert.Contains(t, cs.Strengths, "Consistent revenue growth across all analyzed years")
}

func TestScoreGrowthDecline(t *testing.T) {
	r := model.NewFinancialRecord("Shrinker Co", "SHRK")
	values := []float64{210, 180, 150, 125}
	for i, y := range []string{"2021", "2022", "2023", "2024"} {
		r.Revenue.Set(y, values[i])
	}

	cs := scoreGrowth(r)

	// negative CAGR -2; no positive years, concern only
	assert.InDelta(t, 3.0, cs.Score, 1e-9)
	assert.Contains(t, cs.Concerns, "Inconsistent revenue growth")
}

func TestScoreFinancialHealthDebtFreeBonus(t *testing.T) {
	r := model.NewFinancialRecord("Clean Co", "CLNB")
	r.DebtToEquity.Set("2024", 0.05)
	r.TotalDebt.Set("2024", 0)
	r.ShareholdersEquity.Set("2024", 500)

	cs := scoreFinancialHealth(r)

	// +2 very low D/E, +1 debt-free bonus
	assert.InDelta(t, 8.0, cs.Score, 1e-9)
	assert.Contains(t, cs.Strengths, "Debt-free or minimal debt balance sheet")
}

func TestScoreCashManagementEarningsQualityPenalty(t *testing.T) {
	r := model.NewFinancialRecord("Paper Co", "PAPR")
	years := []string{"2022", "2023", "2024"}
	ni := []float64{100, 110, 120}
	ocf := []float64{40, 50, 45} // profitable but cash lags badly
	for i, y := range years {
		r.NetIncome.Set(y, ni[i])
		r.OperatingCashFlow.Set(y, ocf[i])
	}

	cs := scoreCashManagement(r)

	// +2 all OCF positive, -1 NI exceeds OCF in every year
	assert.InDelta(t, 6.0, cs.Score, 1e-9)
	assert.Contains(t, cs.Concerns, "Net income often exceeds OCF - potential earnings quality issue")
}

func TestAccrualRatio(t *testing.T) {
	r := model.NewFinancialRecord("Cash Co", "CASH")
	r.NetIncome.Set("2023", 100)
	r.NetIncome.Set("2024", 120)
	r.OperatingCashFlow.Set("2023", 130)
	r.OperatingCashFlow.Set("2024", 150)

	ratio, ok := accrualRatio(r)

	require.True(t, ok)
	// (100-130 + 120-150) / (130+150)
	assert.InDelta(t, -60.0/280.0, ratio, 1e-9)

	cs := scoreEarningsQuality(r)
	assert.Contains(t, cs.Strengths, "High cash conversion - earnings backed by cash")
}

func TestAccrualRatioSkipsLossYears(t *testing.T) {
	r := model.NewFinancialRecord("Mixed Co", "MIXD")
	r.NetIncome.Set("2023", -50)
	r.NetIncome.Set("2024", 100)
	r.OperatingCashFlow.Set("2023", 20)
	r.OperatingCashFlow.Set("2024", 60)

	ratio, ok := accrualRatio(r)

	require.True(t, ok)
	// only 2024 counts: (100-60)/60
	assert.InDelta(t, 40.0/60.0, ratio, 1e-9)
}

func TestScoreGovernanceReportingCompleteness(t *testing.T) {
	r := model.NewFinancialRecord("Steady Co", "STDY")
	r.YearsRequested = 3
	r.DividendYield = 2.5
	for i, y := range []string{"2022", "2023", "2024"} {
		r.Revenue.Set(y, 100+float64(i)*10)
		r.FreeCashFlow.Set(y, 20)
	}

	cs := scoreGovernance(r)

	// +1 dividend, +0.5 complete reporting, +1 positive FCF
	assert.InDelta(t, 7.5, cs.Score, 1e-9)
}

func TestCategoryScoresClampToRange(t *testing.T) {
	// Stack enough penalties to drive the raw score below zero
	r := model.NewFinancialRecord("Wreck Co", "WRCK")
	years := []string{"2021", "2022", "2023", "2024"}
	for i, y := range years {
		r.OperatingMargin.Set(y, 2-float64(i))
		r.NetMargin.Set(y, -10)
		r.ROE.Set(y, 2)
	}

	cs := scoreProfitability(r)

	assert.GreaterOrEqual(t, cs.Score, 0.0)
	assert.LessOrEqual(t, cs.Score, 10.0)
}
