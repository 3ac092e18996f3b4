package planner

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// extractDecisionJSON pulls the decision object out of a raw model response.
// Models wrap JSON in prose and markdown fences and routinely emit truncated
// or single-quoted JSON; plain parsing is tried first, then jsonrepair.
func extractDecisionJSON(response string) (map[string]any, error) {
	candidate := stripFences(response)

	start := strings.Index(candidate, "{")
	end := strings.LastIndex(candidate, "}")
	if start >= 0 && end > start {
		candidate = candidate[start : end+1]
	} else if start >= 0 {
		// Truncated mid-object; jsonrepair can often complete it.
		candidate = candidate[start:]
	} else {
		return nil, fmt.Errorf("no JSON object in model response")
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(candidate), &raw); err == nil {
		return raw, nil
	}

	fixed, err := jsonrepair.JSONRepair(candidate)
	if err != nil {
		return nil, fmt.Errorf("json repair failed: %w", err)
	}
	if err := json.Unmarshal([]byte(fixed), &raw); err != nil {
		return nil, fmt.Errorf("unparseable even after repair: %w", err)
	}
	return raw, nil
}

// stripFences removes a ```json ... ``` (or bare ```) wrapper when present.
func stripFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
