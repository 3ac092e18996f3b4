package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bantz/pkg/types"
)

func validRaw() map[string]any {
	return map[string]any{
		"route":          "calendar",
		"intent":         "create",
		"confidence":     0.9,
		"toolPlan":       []any{map[string]any{"name": "calendar.create", "args": map[string]any{"title": "standup"}}},
		"assistantReply": "Ekledim.",
	}
}

func TestRepairValidInputPassesThrough(t *testing.T) {
	decision, report := Repair(validRaw())

	assert.True(t, report.ValidBefore)
	assert.True(t, report.ValidAfter)
	assert.False(t, report.Repaired())
	assert.Equal(t, types.RouteCalendar, decision.Route)
	assert.Equal(t, "create", decision.Intent)
	require.Len(t, decision.ToolPlan, 1)
	assert.Equal(t, "calendar.create", decision.ToolPlan[0].Name)
}

func TestRepairNonMapInputYieldsDefaults(t *testing.T) {
	tests := []struct {
		name  string
		input any
	}{
		{name: "nil", input: nil},
		{name: "string", input: "not json"},
		{name: "list", input: []any{"a", "b"}},
		{name: "number", input: 42.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision, report := Repair(tt.input)

			assert.Equal(t, types.DefaultDecision(), decision)
			assert.False(t, report.ValidBefore)
			assert.True(t, report.ValidAfter)
			assert.ElementsMatch(t, []string{"route", "intent", "confidence", "toolPlan", "assistantReply"}, report.FieldsMissing)
		})
	}
}

func TestRepairFuzzyEnums(t *testing.T) {
	raw := validRaw()
	raw["route"] = "calender"
	raw["intent"] = "creat"

	decision, report := Repair(raw)

	assert.Equal(t, types.RouteCalendar, decision.Route)
	assert.Equal(t, "create", decision.Intent)
	assert.True(t, report.ValidAfter)
	assert.Contains(t, report.FieldsInvalid, "route")
	assert.Contains(t, report.FieldsInvalid, "intent")
}

func TestRepairUnrecognizableRouteFallsToUnknown(t *testing.T) {
	raw := validRaw()
	raw["route"] = "weather"
	raw["intent"] = "forecast"

	decision, report := Repair(raw)

	assert.Equal(t, types.RouteUnknown, decision.Route)
	assert.Equal(t, types.IntentNone, decision.Intent)
	assert.True(t, report.ValidAfter)
}

func TestRepairIntentRecheckedAgainstRepairedRoute(t *testing.T) {
	// "send" is valid for mail but the route repairs to calendar, so the
	// intent must not survive as-is.
	raw := validRaw()
	raw["route"] = "calender"
	raw["intent"] = "send"

	decision, _ := Repair(raw)

	assert.Equal(t, types.RouteCalendar, decision.Route)
	assert.NotEqual(t, "send", decision.Intent)
	assert.True(t, types.ValidIntent(decision.Route, decision.Intent) || decision.Intent == types.IntentNone)
}

func TestRepairConfidenceClamp(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected float64
	}{
		{name: "above one", value: 2.5, expected: 1.0},
		{name: "negative", value: -1.0, expected: 0.0},
		{name: "numeric string", value: "0.7", expected: 0.7},
		{name: "garbage string", value: "high", expected: 0.0},
		{name: "bool", value: true, expected: 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := validRaw()
			raw["confidence"] = tt.value

			decision, report := Repair(raw)

			assert.InDelta(t, tt.expected, decision.Confidence, 1e-9)
			assert.Contains(t, report.FieldsRepaired, "confidence")
		})
	}
}

func TestRepairToolPlanCoercion(t *testing.T) {
	t.Run("comma separated string", func(t *testing.T) {
		raw := validRaw()
		raw["toolPlan"] = "calendar.list, system.time"

		decision, _ := Repair(raw)

		require.Len(t, decision.ToolPlan, 2)
		assert.Equal(t, "calendar.list", decision.ToolPlan[0].Name)
		assert.Equal(t, "system.time", decision.ToolPlan[1].Name)
	})

	t.Run("mixed list keeps well-formed items", func(t *testing.T) {
		raw := validRaw()
		raw["toolPlan"] = []any{
			"calendar.list",
			map[string]any{"name": "", "args": map[string]any{}},
			42.0,
			map[string]any{"name": "system.time"},
		}

		decision, _ := Repair(raw)

		require.Len(t, decision.ToolPlan, 2)
		assert.Equal(t, "calendar.list", decision.ToolPlan[0].Name)
		assert.Equal(t, "system.time", decision.ToolPlan[1].Name)
	})

	t.Run("object becomes empty plan", func(t *testing.T) {
		raw := validRaw()
		raw["toolPlan"] = map[string]any{"name": "x"}

		decision, _ := Repair(raw)

		assert.Empty(t, decision.ToolPlan)
	})
}

func TestRepairBoolCoercion(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected bool
	}{
		{name: "evet", value: "evet", expected: true},
		{name: "yes", value: "YES", expected: true},
		{name: "one", value: 1.0, expected: true},
		{name: "zero", value: 0.0, expected: false},
		{name: "no", value: "no", expected: false},
		{name: "object", value: map[string]any{}, expected: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := validRaw()
			raw["requiresConfirmation"] = tt.value

			decision, _ := Repair(raw)

			assert.Equal(t, tt.expected, decision.RequiresConfirmation)
		})
	}
}

func TestRepairAskUserWithoutQuestionCleared(t *testing.T) {
	raw := validRaw()
	raw["askUser"] = "evet"

	decision, report := Repair(raw)

	assert.False(t, decision.AskUser)
	assert.Empty(t, decision.Question)
	assert.True(t, report.ValidAfter)
}

func TestRepairAskUserClearCountsAsRepaired(t *testing.T) {
	// askUser is a well-formed bool here; only the cross-field rule (askUser
	// without a question) changes it, and the confidence clamp forces the
	// record through the repair path.
	raw := validRaw()
	raw["confidence"] = 2.5
	raw["askUser"] = true

	decision, report := Repair(raw)

	assert.False(t, decision.AskUser)
	assert.Contains(t, report.FieldsRepaired, "askUser")
	assert.NotContains(t, report.FieldsInvalid, "askUser")
	assert.NotContains(t, report.FieldsMissing, "askUser")
}

func TestRepairAskUserListedOnce(t *testing.T) {
	raw := validRaw()
	raw["askUser"] = "evet"

	_, report := Repair(raw)

	count := 0
	for _, field := range report.FieldsRepaired {
		if field == "askUser" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestRepairStatusFuzzy(t *testing.T) {
	raw := validRaw()
	raw["status"] = "doen"

	decision, _ := Repair(raw)

	assert.Equal(t, types.StatusDone, decision.Status)
}

func TestRepairIsIdempotent(t *testing.T) {
	inputs := []map[string]any{
		{"route": "calender", "intent": "creat", "confidence": "2.5", "toolPlan": "calendar.create", "assistantReply": 7.0},
		{"route": 3.0},
		{},
	}
	for _, raw := range inputs {
		first, firstReport := Repair(raw)
		second, secondReport := Repair(rawFromDecision(first))

		assert.True(t, firstReport.ValidAfter)
		assert.True(t, secondReport.ValidBefore, "repaired output must validate clean")
		assert.Equal(t, first.Route, second.Route)
		assert.Equal(t, first.Intent, second.Intent)
		assert.Equal(t, first.Status, second.Status)
	}
}

func TestRepairTotalityNeverPanics(t *testing.T) {
	inputs := []any{
		nil,
		map[string]any{"route": []any{1, 2}, "intent": map[string]any{}, "confidence": []any{}, "toolPlan": 9.0, "assistantReply": false},
		map[string]any{"slots": "not an object", "reasoningSummary": []any{1.0, "ok", true}},
	}
	for _, input := range inputs {
		assert.NotPanics(t, func() {
			decision, report := Repair(input)
			assert.True(t, report.ValidAfter)
			assert.True(t, types.ValidRoute(decision.Route))
		})
	}
}

func TestRepairReasoningSummaryKeepsStrings(t *testing.T) {
	raw := validRaw()
	raw["reasoningSummary"] = []any{"looked up events", 3.0, "answered"}

	decision, _ := Repair(raw)

	assert.Equal(t, []string{"looked up events", "answered"}, decision.ReasoningSummary)
}
