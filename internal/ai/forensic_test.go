package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qualsight/internal/model"
	"qualsight/pkg/logger"
)

func TestAssessManagementParsesModelJSON(t *testing.T) {
	record, report := sampleReport()
	gen := &stubGenerator{response: "```json\n{\"verdict\": \"Clean\", \"confidence_score\": 0.8, \"accounting_quality\": \"High\", \"key_observations\": [\"Cash conversion consistently above 100%\"], \"areas_to_monitor\": [\"Working capital build-up\"]}\n```"}

	assessment := NewForensicAnalyst(gen, logger.NewNop()).AssessManagement(context.Background(), record, report)

	require.NotNil(t, assessment)
	assert.Equal(t, VerdictClean, assessment.Verdict)
	assert.Equal(t, 0.8, assessment.ConfidenceScore)
	assert.Equal(t, "High", assessment.AccountingQuality)
	assert.Equal(t, []string{"Cash conversion consistently above 100%"}, assessment.KeyObservations)
}

func TestAssessManagementNormalizesUnknownVerdict(t *testing.T) {
	record, report := sampleReport()
	gen := &stubGenerator{response: `{"verdict": "probably fine", "confidence_score": 1.7}`}

	assessment := NewForensicAnalyst(gen, logger.NewNop()).AssessManagement(context.Background(), record, report)

	require.NotNil(t, assessment)
	assert.Equal(t, VerdictCaution, assessment.Verdict)
	assert.Equal(t, 1.0, assessment.ConfidenceScore)
	assert.Equal(t, "Moderate", assessment.AccountingQuality)
}

func TestAssessManagementGarbageFallsBack(t *testing.T) {
	record, report := sampleReport()
	gen := &stubGenerator{response: "I cannot comply with this request."}

	assessment := NewForensicAnalyst(gen, logger.NewNop()).AssessManagement(context.Background(), record, report)

	require.NotNil(t, assessment)
	assert.Equal(t, 0.4, assessment.ConfidenceScore)
}

func TestBasicAssessmentVerdictBands(t *testing.T) {
	tests := []struct {
		name      string
		score     float64
		highFlags int
		want      string
	}{
		{"strong and clean", 7.5, 0, VerdictClean},
		{"strong but flagged", 7.5, 1, VerdictCaution},
		{"middling", 5.5, 0, VerdictCaution},
		{"weak", 3.5, 0, VerdictAvoid},
		{"repeat offender", 6.0, 2, VerdictAvoid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := &model.QualityReport{OverallScore: tt.score}
			for i := 0; i < tt.highFlags; i++ {
				report.RedFlags = append(report.RedFlags, model.RedFlag{Severity: model.SeverityHigh})
			}

			assessment := basicAssessment(report)

			assert.Equal(t, tt.want, assessment.Verdict)
			assert.NotEmpty(t, assessment.AreasToMonitor)
		})
	}
}

func TestBasicAssessmentAccountingQualityFromCategory(t *testing.T) {
	report := &model.QualityReport{
		OverallScore: 6.0,
		CategoryScores: []model.QualityScore{
			{Category: model.CategoryQualityEarnings, Score: 7.5},
		},
	}

	assert.Equal(t, "High", basicAssessment(report).AccountingQuality)
}
