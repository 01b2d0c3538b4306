package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"qualsight/internal/model"
	"qualsight/pkg/logger"
)

const analystSystemPrompt = "You are a senior financial analyst specializing in quality assessment. Provide clear, actionable insights."

// Narrator fills the narrative fields of a quality report. With no generator
// configured, or when any call fails, it degrades to deterministic template
// text so a report is never left without a summary.
type Narrator struct {
	gen Generator
	log *logger.Logger
}

// NewNarrator creates the narrative enhancer. gen may be nil.
func NewNarrator(gen Generator, log *logger.Logger) *Narrator {
	return &Narrator{gen: gen, log: log}
}

// Enhance populates ExecutiveSummary, InvestmentThesis, and RiskAssessment on
// the report in place
func (n *Narrator) Enhance(ctx context.Context, record *model.FinancialRecord, report *model.QualityReport) {
	if n.gen == nil {
		n.applyTemplates(report)
		return
	}

	promptContext := narrativeContext(record, report)

	summary, err := n.generate(ctx, summaryPrompt(promptContext))
	if err != nil {
		n.log.WithError(err).WithField("ticker", report.Ticker).Warn("Narrative generation failed, using template text")
		n.applyTemplates(report)
		return
	}
	report.ExecutiveSummary = summary

	if thesis, err := n.generate(ctx, thesisPrompt(promptContext)); err == nil {
		report.InvestmentThesis = thesis
	} else {
		report.InvestmentThesis = basicThesis(report)
	}

	if risks, err := n.generate(ctx, riskPrompt(promptContext)); err == nil {
		report.RiskAssessment = risks
	} else {
		report.RiskAssessment = basicRisks(report)
	}
}

func (n *Narrator) generate(ctx context.Context, prompt string) (string, error) {
	text, err := n.gen.Generate(ctx, analystSystemPrompt, prompt, false)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("model returned an empty response")
	}
	return text, nil
}

func (n *Narrator) applyTemplates(report *model.QualityReport) {
	report.ExecutiveSummary = basicSummary(report)
	report.InvestmentThesis = basicThesis(report)
	report.RiskAssessment = basicRisks(report)
}

// narrativeContext condenses the record and report into the prompt context
// shared by all three narrative calls
func narrativeContext(record *model.FinancialRecord, report *model.QualityReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Company: %s (%s)\n", record.CompanyName, record.Ticker)
	fmt.Fprintf(&b, "Sector: %s\n", record.Sector)
	fmt.Fprintf(&b, "Industry: %s\n", record.Industry)
	fmt.Fprintf(&b, "Years Analyzed: %d\n\n", report.YearsAnalyzed)

	b.WriteString("FINANCIAL METRICS:\n")
	writeSeriesLine(&b, "Revenue Trend", record.Revenue)
	writeSeriesLine(&b, "Net Income Trend", record.NetIncome)
	writeSeriesLine(&b, "Operating Margin", record.OperatingMargin)
	writeSeriesLine(&b, "ROE", record.ROE)
	writeSeriesLine(&b, "ROCE", record.ROCE)
	writeSeriesLine(&b, "Debt-to-Equity", record.DebtToEquity)
	writeSeriesLine(&b, "Operating Cash Flow", record.OperatingCashFlow)
	writeSeriesLine(&b, "Free Cash Flow", record.FreeCashFlow)

	fmt.Fprintf(&b, "\nQUALITY SCORES:\n- Overall Score: %.1f/10\n", report.OverallScore)
	for _, cs := range report.CategoryScores {
		fmt.Fprintf(&b, "- %s: %.1f/10\n", cs.Category, cs.Score)
	}

	b.WriteString("\nKEY STRENGTHS:\n")
	for i, s := range report.KeyStrengths {
		if i == 5 {
			break
		}
		fmt.Fprintf(&b, "- %s\n", s)
	}

	b.WriteString("\nRED FLAGS:\n")
	for i, rf := range report.RedFlags {
		if i == 5 {
			break
		}
		fmt.Fprintf(&b, "- [%s] %s\n", rf.Severity, rf.Description)
	}

	return b.String()
}

func writeSeriesLine(b *strings.Builder, label string, s model.Series) {
	encoded, err := json.Marshal(s.Map())
	if err != nil {
		return
	}
	fmt.Fprintf(b, "- %s: %s\n", label, encoded)
}

func summaryPrompt(context string) string {
	return fmt.Sprintf(`Based on the following financial analysis, write a concise executive summary (200-250 words) for a research analyst. Focus on the key takeaways about the company's quality and investment merit.

%s

Write in a professional, analytical tone. Include the overall quality score and highlight the most important findings.`, context)
}

func thesisPrompt(context string) string {
	return fmt.Sprintf(`Based on the following financial analysis, write a brief investment thesis (150-200 words). Include:
1. Core investment case (bull case)
2. Key risks to the thesis
3. Suitable investor profile

%s

Be balanced but actionable.`, context)
}

func riskPrompt(context string) string {
	return fmt.Sprintf(`Based on the following financial analysis, write a focused risk assessment (150-200 words). Prioritize the most material risks and their potential impact on the investment.

%s

Include both quantifiable risks from the data and qualitative risks implied by the analysis.`, context)
}

// basicSummary is the deterministic template used when AI is unavailable
func basicSummary(report *model.QualityReport) string {
	strengths := "See detailed analysis"
	if len(report.KeyStrengths) > 0 {
		top := report.KeyStrengths
		if len(top) > 3 {
			top = top[:3]
		}
		strengths = strings.Join(top, ", ")
	}

	return fmt.Sprintf(`%s (%s) received an overall quality score of %.1f/10 based on %d years of financial data analysis.

The analysis evaluated profitability, growth, financial health, cash management, capital efficiency, earnings quality, and governance indicators.

Top strengths: %s
Key concerns: %d red flags identified requiring attention.`,
		report.CompanyName, report.Ticker, report.OverallScore, report.YearsAnalyzed,
		strengths, len(report.RedFlags))
}

func basicThesis(report *model.QualityReport) string {
	level := "concerning"
	switch {
	case report.OverallScore >= 7:
		level = "high"
	case report.OverallScore >= 5:
		level = "moderate"
	}

	return fmt.Sprintf(`%s demonstrates %s quality characteristics with a score of %.1f/10.
Investors should consider the identified strengths and red flags in their analysis.
Further due diligence recommended on specific concerns identified in this report.`,
		report.CompanyName, level, report.OverallScore)
}

func basicRisks(report *model.QualityReport) string {
	var lines []string
	for i, rf := range report.RedFlags {
		if i == 5 {
			break
		}
		lines = append(lines, fmt.Sprintf("- %s (%s severity)", rf.Description, rf.Severity))
	}
	if len(lines) == 0 {
		lines = append(lines, "- No critical red flags identified")
	}

	return fmt.Sprintf(`Key risks identified:
%s

Monitor these factors as they may impact future performance and investment returns.`,
		strings.Join(lines, "\n"))
}
