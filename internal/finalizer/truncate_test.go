package finalizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"bantz/pkg/types"
)

func TestSerializeOutcomesEmpty(t *testing.T) {
	text, tier := serializeOutcomes(nil, 100)

	assert.Equal(t, "[]", text)
	assert.Equal(t, 1, tier)
}

func TestSerializeOutcomesFullFits(t *testing.T) {
	outcomes := []types.ToolOutcome{{Tool: "calendar.list", Success: true, RawResult: "raw", ResultSummary: "summary"}}

	text, tier := serializeOutcomes(outcomes, 10_000)

	assert.Equal(t, 1, tier)
	assert.Contains(t, text, "raw")
	assert.Contains(t, text, "summary")
}

func TestSerializeOutcomesDropsRawUnderPressure(t *testing.T) {
	outcomes := []types.ToolOutcome{{
		Tool:          "calendar.list",
		Success:       true,
		RawResult:     strings.Repeat("uzun ham sonuç ", 400),
		ResultSummary: "3 etkinlik",
	}}

	text, tier := serializeOutcomes(outcomes, 200)

	assert.Equal(t, 2, tier)
	assert.NotContains(t, text, "rawResult")
	assert.Contains(t, text, "3 etkinlik")
}

func TestSerializeOutcomesTierThreeClipsHard(t *testing.T) {
	outcomes := make([]types.ToolOutcome, 6)
	for i := range outcomes {
		outcomes[i] = types.ToolOutcome{
			Tool:          "calendar.list",
			Success:       true,
			ResultSummary: strings.Repeat("çok uzun özet ", 200),
		}
	}

	text, tier := serializeOutcomes(outcomes, 50)

	assert.Equal(t, 3, tier)
	// Only the first three outcomes survive.
	assert.Equal(t, 3, strings.Count(text, `"tool"`))
}

func TestMarshalOutcomesIncludesErrors(t *testing.T) {
	outcomes := []types.ToolOutcome{{Tool: "x", Success: false, Error: "boom", ResultSummary: "boom"}}

	text := marshalOutcomes(outcomes, true)

	assert.Contains(t, text, `"error":"boom"`)
}
