package model

import (
	"time"
)

// Severity classifies how serious a red flag is
type Severity string

const (
	SeverityHigh   Severity = "High"
	SeverityMedium Severity = "Medium"
	SeverityLow    Severity = "Low"
)

// Category labels for quality scoring. The analyzer walks them in this order.
const (
	CategoryProfitability     = "Profitability & Margins"
	CategoryGrowth            = "Growth & Revenue Stability"
	CategoryFinancialHealth   = "Financial Health & Leverage"
	CategoryCashManagement    = "Cash Flow Management"
	CategoryCapitalEfficiency = "Capital Efficiency & Returns"
	CategoryQualityEarnings   = "Quality of Earnings"
	CategoryGovernance        = "Management & Governance Indicators"
)

// QualityScore is one scored category on the 0-10 scale
type QualityScore struct {
	Category    string   `json:"category"`
	Score       float64  `json:"score"`
	Weight      float64  `json:"weight"`
	Strengths   []string `json:"strengths,omitempty"`
	Concerns    []string `json:"concerns,omitempty"`
	Explanation string   `json:"explanation,omitempty"`
}

// RedFlag is a detected warning sign in the fundamentals
type RedFlag struct {
	Severity       Severity `json:"severity"`
	Category       string   `json:"category"`
	Description    string   `json:"description"`
	Impact         string   `json:"impact,omitempty"`
	Recommendation string   `json:"recommendation,omitempty"`
}

// ManagementAssessment is the AI-derived forensic view of management quality
// and accounting conservatism. Verdict is one of "clean", "caution", "avoid".
type ManagementAssessment struct {
	Verdict           string   `json:"verdict"`
	ConfidenceScore   float64  `json:"confidence_score"`
	AccountingQuality string   `json:"accounting_quality"`
	KeyObservations   []string `json:"key_observations,omitempty"`
	AreasToMonitor    []string `json:"areas_to_monitor,omitempty"`
}

// QualityReport is the complete scored assessment for one company
type QualityReport struct {
	CompanyName   string    `json:"company_name"`
	Ticker        string    `json:"ticker"`
	AnalysisDate  time.Time `json:"analysis_date"`
	YearsAnalyzed int       `json:"years_analyzed"`
	DataSource    string    `json:"data_source,omitempty"`

	OverallScore   float64        `json:"overall_score"`
	CategoryScores []QualityScore `json:"category_scores"`
	KeyStrengths   []string       `json:"key_strengths,omitempty"`
	RedFlags       []RedFlag      `json:"red_flags,omitempty"`

	MetricsSummary map[string]interface{} `json:"metrics_summary,omitempty"`

	ExecutiveSummary string                `json:"executive_summary,omitempty"`
	InvestmentThesis string                `json:"investment_thesis,omitempty"`
	RiskAssessment   string                `json:"risk_assessment,omitempty"`
	Management       *ManagementAssessment `json:"management_assessment,omitempty"`
}

// HighSeverityFlags returns only the high-severity red flags
func (r *QualityReport) HighSeverityFlags() []RedFlag {
	var out []RedFlag
	for _, f := range r.RedFlags {
		if f.Severity == SeverityHigh {
			out = append(out, f)
		}
	}
	return out
}

// CategoryScore returns the score for a named category, or -1 when absent
func (r *QualityReport) CategoryScore(category string) float64 {
	for _, cs := range r.CategoryScores {
		if cs.Category == category {
			return cs.Score
		}
	}
	return -1
}
