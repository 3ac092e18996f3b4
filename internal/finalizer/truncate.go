package finalizer

import (
	"encoding/json"

	tokenutil "bantz/internal/token"
	"bantz/pkg/types"
)

const (
	tierThreeOutcomes = 3
	tierThreeRunes    = 160
)

// serializeOutcomes renders tool outcomes for the finalizer prompt under a
// token budget, degrading through three tiers: full raw results, summaries
// only, then the first few outcomes at aggressive character truncation. The
// smallest tier that fits wins; tier three is used unconditionally when
// nothing fits.
func serializeOutcomes(outcomes []types.ToolOutcome, budget int) (string, int) {
	if len(outcomes) == 0 {
		return "[]", 1
	}

	if text := marshalOutcomes(outcomes, false); tokenutil.CountTokens(text) <= budget {
		return text, 1
	}
	if text := marshalOutcomes(outcomes, true); tokenutil.CountTokens(text) <= budget {
		return text, 2
	}

	head := outcomes
	if len(head) > tierThreeOutcomes {
		head = head[:tierThreeOutcomes]
	}
	clipped := make([]types.ToolOutcome, len(head))
	for i, outcome := range head {
		clipped[i] = outcome
		clipped[i].RawResult = ""
		clipped[i].ResultSummary = tokenutil.TruncateRunes(outcome.ResultSummary, tierThreeRunes)
	}
	return marshalOutcomes(clipped, true), 3
}

// marshalOutcomes serializes outcomes to JSON, optionally dropping raw
// results so only summaries remain.
func marshalOutcomes(outcomes []types.ToolOutcome, summaryOnly bool) string {
	view := make([]map[string]any, 0, len(outcomes))
	for _, outcome := range outcomes {
		entry := map[string]any{
			"tool":          outcome.Tool,
			"success":       outcome.Success,
			"resultSummary": outcome.ResultSummary,
		}
		if !summaryOnly && outcome.RawResult != "" {
			entry["rawResult"] = outcome.RawResult
		}
		if outcome.Error != "" {
			entry["error"] = outcome.Error
		}
		view = append(view, entry)
	}
	data, err := json.Marshal(view)
	if err != nil {
		return "[]"
	}
	return string(data)
}
