package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"qualsight/internal/model"
	"qualsight/pkg/logger"
)

const extractionSystemPrompt = "You are a financial data extraction engine. Extract figures exactly as reported and respond only with JSON."

// maxDocumentChars bounds how much raw report text goes into one prompt
const maxDocumentChars = 60000

// Extractor converts raw annual-report text into a FinancialRecord by asking
// the model for a fixed JSON schema keyed by the record's series names
type Extractor struct {
	gen Generator
	log *logger.Logger
}

// NewExtractor creates the document extractor. Errors when no generator is
// configured: unlike the narrative path there is no deterministic fallback
// for reading a document.
func NewExtractor(gen Generator, log *logger.Logger) (*Extractor, error) {
	if gen == nil {
		return nil, fmt.Errorf("document extraction requires a configured generator")
	}
	return &Extractor{gen: gen, log: log}, nil
}

// ExtractRecord reads document text and returns a populated record.
// Figures the document does not state are simply absent from the series.
func (e *Extractor) ExtractRecord(ctx context.Context, companyName, ticker, text string, years int) (*model.FinancialRecord, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("document text is empty")
	}
	if len(text) > maxDocumentChars {
		text = text[:maxDocumentChars]
	}

	raw, err := e.gen.Generate(ctx, extractionSystemPrompt, extractionPrompt(companyName, years, text), true)
	if err != nil {
		return nil, fmt.Errorf("extraction call failed: %w", err)
	}

	record, err := parseExtraction(raw, companyName, ticker)
	if err != nil {
		return nil, err
	}

	record.DataSource = "document"
	record.FetchTimestamp = time.Now()
	record.YearsRequested = years
	record.TrimToLast(years)

	e.log.WithFields(map[string]interface{}{
		"ticker": ticker,
		"years":  record.YearsCovered(),
	}).Info("Extracted financial record from document")

	return record, nil
}

func extractionPrompt(companyName string, years int, text string) string {
	return fmt.Sprintf(`Extract the annual financial figures for %s from the report text below, covering up to %d fiscal years.

Respond in JSON. Each metric is an object mapping a fiscal year label (for example "2024" or "Mar 2024") to a number. Omit any metric the text does not state; never invent figures. Percentages as plain numbers (12.5 for 12.5%%), monetary amounts in the document's reporting unit.

{
    "company_name": "",
    "sector": "",
    "industry": "",
%s
}

REPORT TEXT:
%s`, companyName, years, schemaLines(), text)
}

// schemaLines renders one JSON schema line per known series name
func schemaLines() string {
	names := model.SeriesNames()
	lines := make([]string, len(names))
	for i, name := range names {
		lines[i] = fmt.Sprintf(`    "%s": {"2024": 0.0}`, name)
	}
	return strings.Join(lines, ",\n")
}

// parseExtraction decodes the fixed schema into a record. Unknown keys are
// ignored; malformed individual series are skipped rather than failing the
// whole document.
func parseExtraction(raw string, companyName, ticker string) (*model.FinancialRecord, error) {
	var payload map[string]json.RawMessage
	if err := decodeModelJSON(raw, &payload); err != nil {
		return nil, err
	}

	record := model.NewFinancialRecord(companyName, ticker)

	if name := decodeString(payload["company_name"]); name != "" {
		record.CompanyName = name
	}
	record.Sector = decodeString(payload["sector"])
	record.Industry = decodeString(payload["industry"])

	for _, name := range model.SeriesNames() {
		encoded, ok := payload[name]
		if !ok {
			continue
		}
		var points map[string]float64
		if err := json.Unmarshal(encoded, &points); err != nil {
			continue
		}
		for year, value := range points {
			record.SetSeriesValue(name, year, value)
		}
	}

	if !record.Usable() {
		return nil, fmt.Errorf("document yielded no revenue or net income figures")
	}
	return record, nil
}

func decodeString(encoded json.RawMessage) string {
	if encoded == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(encoded, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}
