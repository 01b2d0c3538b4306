package ai

import (
	"context"
	"fmt"
	"strings"

	"qualsight/internal/model"
	"qualsight/pkg/logger"
)

const forensicSystemPrompt = "You are a forensic accounting analyst. Provide objective, data-driven assessments and respond only with JSON."

// Verdict values for the management assessment
const (
	VerdictClean   = "clean"
	VerdictCaution = "caution"
	VerdictAvoid   = "avoid"
)

// ForensicAnalyst produces the management and accounting-quality assessment
// attached to a report. The model is asked for a fixed JSON schema; any
// failure degrades to a metrics-derived assessment.
type ForensicAnalyst struct {
	gen Generator
	log *logger.Logger
}

// NewForensicAnalyst creates the assessor. gen may be nil.
func NewForensicAnalyst(gen Generator, log *logger.Logger) *ForensicAnalyst {
	return &ForensicAnalyst{gen: gen, log: log}
}

// AssessManagement returns a management assessment for the analyzed company.
// Never returns nil.
func (f *ForensicAnalyst) AssessManagement(ctx context.Context, record *model.FinancialRecord, report *model.QualityReport) *model.ManagementAssessment {
	if f.gen == nil {
		return basicAssessment(report)
	}

	raw, err := f.gen.Generate(ctx, forensicSystemPrompt, forensicPrompt(record, report), true)
	if err != nil {
		f.log.WithError(err).WithField("ticker", report.Ticker).Warn("Forensic assessment failed, using basic assessment")
		return basicAssessment(report)
	}

	assessment, err := parseAssessment(raw)
	if err != nil {
		f.log.WithError(err).WithField("ticker", report.Ticker).Warn("Forensic assessment unparseable, using basic assessment")
		return basicAssessment(report)
	}
	return assessment
}

func forensicPrompt(record *model.FinancialRecord, report *model.QualityReport) string {
	return fmt.Sprintf(`Evaluate management quality and accounting conservatism for the company below. Consider earnings-versus-cash divergence, leverage trends, margin stability, and capital allocation as evidenced by the numbers.

%s

Respond in JSON with exactly this structure:
{
    "verdict": "clean|caution|avoid",
    "confidence_score": 0.0,
    "accounting_quality": "High|Moderate|Low",
    "key_observations": ["observation"],
    "areas_to_monitor": ["area"]
}`, narrativeContext(record, report))
}

// parseAssessment decodes the model JSON defensively and normalizes the
// enum-ish fields to safe defaults
func parseAssessment(raw string) (*model.ManagementAssessment, error) {
	var assessment model.ManagementAssessment
	if err := decodeModelJSON(raw, &assessment); err != nil {
		return nil, err
	}

	switch strings.ToLower(strings.TrimSpace(assessment.Verdict)) {
	case VerdictClean:
		assessment.Verdict = VerdictClean
	case VerdictAvoid:
		assessment.Verdict = VerdictAvoid
	default:
		assessment.Verdict = VerdictCaution
	}

	if assessment.ConfidenceScore < 0 {
		assessment.ConfidenceScore = 0
	}
	if assessment.ConfidenceScore > 1 {
		assessment.ConfidenceScore = 1
	}
	if assessment.AccountingQuality == "" {
		assessment.AccountingQuality = "Moderate"
	}

	return &assessment, nil
}

// basicAssessment derives a conservative verdict from the quantitative report
// alone. Confidence is deliberately low: no qualitative evidence was read.
func basicAssessment(report *model.QualityReport) *model.ManagementAssessment {
	highFlags := len(report.HighSeverityFlags())

	verdict := VerdictCaution
	switch {
	case report.OverallScore >= 7 && highFlags == 0:
		verdict = VerdictClean
	case report.OverallScore < 4 || highFlags >= 2:
		verdict = VerdictAvoid
	}

	var observations []string
	for i, s := range report.KeyStrengths {
		if i == 3 {
			break
		}
		observations = append(observations, s)
	}

	var monitor []string
	for i, rf := range report.RedFlags {
		if i == 3 {
			break
		}
		monitor = append(monitor, rf.Description)
	}
	if len(monitor) == 0 {
		monitor = append(monitor, "No critical red flags identified")
	}

	quality := "Moderate"
	if report.CategoryScore(model.CategoryQualityEarnings) >= 7 {
		quality = "High"
	} else if score := report.CategoryScore(model.CategoryQualityEarnings); score >= 0 && score < 4 {
		quality = "Low"
	}

	return &model.ManagementAssessment{
		Verdict:           verdict,
		ConfidenceScore:   0.4,
		AccountingQuality: quality,
		KeyObservations:   observations,
		AreasToMonitor:    monitor,
	}
}
