package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
)

// stripMarkdownFences removes a ```json ... ``` (or bare ```) wrapper that
// models often emit around JSON payloads
func stripMarkdownFences(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.Index(s, "```json"); idx >= 0 {
		s = s[idx+len("```json"):]
	} else if idx := strings.Index(s, "```"); idx >= 0 {
		s = s[idx+len("```"):]
	} else {
		return s
	}
	if end := strings.Index(s, "```"); end >= 0 {
		s = s[:end]
	}
	return strings.TrimSpace(s)
}

// decodeModelJSON unmarshals model output into target, repairing common
// LLM JSON defects (single quotes, trailing commas, unquoted keys) first
func decodeModelJSON(raw string, target interface{}) error {
	cleaned := stripMarkdownFences(raw)

	if err := json.Unmarshal([]byte(cleaned), target); err == nil {
		return nil
	}

	repaired, err := jsonrepair.RepairJSON(cleaned)
	if err != nil {
		return fmt.Errorf("json repair failed: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), target); err != nil {
		return fmt.Errorf("model returned unparseable JSON: %w", err)
	}
	return nil
}
