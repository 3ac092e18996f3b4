package finalizer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bantz/internal/llm"
	"bantz/internal/logging"
	"bantz/pkg/types"
)

func calendarDecision() types.Decision {
	decision := types.DefaultDecision()
	decision.Route = types.RouteCalendar
	decision.Intent = "list"
	decision.Status = types.StatusDone
	return decision
}

func listOutcomes() []types.ToolOutcome {
	return []types.ToolOutcome{{
		Tool:          "calendar.list",
		Success:       true,
		ResultSummary: "1 etkinlik: standup 2026-09-01 14:00",
	}}
}

func TestFinalizeQualityTier(t *testing.T) {
	quality := llm.NewMockClient("quality", llm.MockResponse{Content: "Yarın 14:00'te standup toplantın var."})
	fast := llm.NewMockClient("fast")
	f := New(quality, fast, Config{Mode: types.FinalizeAlways}, logging.Nop())

	result := f.Finalize(context.Background(), "yarın ne var", "", calendarDecision(), listOutcomes(), "1 etkinlik var.")

	assert.True(t, result.UsedFinalizer)
	assert.Equal(t, types.TierQuality, result.Tier)
	assert.Equal(t, "Yarın 14:00'te standup toplantın var.", result.Text)
	assert.False(t, result.GuardViolated)
	assert.Zero(t, fast.CallCount())
}

func TestFinalizeFallsBackToFastTier(t *testing.T) {
	quality := llm.NewMockClient("quality", llm.MockResponse{Err: errors.New("model down")})
	fast := llm.NewMockClient("fast", llm.MockResponse{Content: "Tamam."})
	f := New(quality, fast, Config{Mode: types.FinalizeAlways}, logging.Nop())

	result := f.Finalize(context.Background(), "yarın ne var", "", calendarDecision(), listOutcomes(), "1 etkinlik var.")

	assert.True(t, result.UsedFinalizer)
	assert.Equal(t, types.TierFast, result.Tier)
	assert.Equal(t, "Tamam.", result.Text)
}

func TestFinalizeBothTiersFailFallsToDraft(t *testing.T) {
	quality := llm.NewMockClient("quality", llm.MockResponse{Err: errors.New("down")})
	fast := llm.NewMockClient("fast", llm.MockResponse{Content: "   "})
	f := New(quality, fast, Config{Mode: types.FinalizeAlways}, logging.Nop())

	result := f.Finalize(context.Background(), "yarın ne var", "", calendarDecision(), listOutcomes(), "1 etkinlik var.")

	assert.False(t, result.UsedFinalizer)
	assert.Equal(t, types.TierDraft, result.Tier)
	assert.Equal(t, "1 etkinlik var.", result.Text)
}

func TestFinalizeGuardViolationRetriesConstrained(t *testing.T) {
	quality := llm.NewMockClient("quality",
		llm.MockResponse{Content: "Toplantın 15:30'da."},
		llm.MockResponse{Content: "Toplantın 14:00'te."},
	)
	f := New(quality, nil, Config{Mode: types.FinalizeAlways}, logging.Nop())

	result := f.Finalize(context.Background(), "toplantım kaçta", "", calendarDecision(), listOutcomes(), "Standup 14:00'te.")

	assert.True(t, result.UsedFinalizer)
	assert.True(t, result.GuardViolated)
	assert.True(t, result.GuardRetried)
	assert.Equal(t, "Toplantın 14:00'te.", result.Text)
	assert.Equal(t, 2, quality.CallCount())

	// The retry prompt pins the allowed values.
	retryPrompt := quality.Requests[1].Prompt
	assert.Contains(t, retryPrompt, "IMPORTANT")
	assert.Contains(t, retryPrompt, "14:00")
	assert.InDelta(t, retryTemperature, quality.Requests[1].Temperature, 1e-9)
}

func TestFinalizeGuardStillFailingFallsToDraft(t *testing.T) {
	quality := llm.NewMockClient("quality",
		llm.MockResponse{Content: "Toplantın 15:30'da."},
		llm.MockResponse{Content: "Toplantın 16:45'te."},
	)
	f := New(quality, nil, Config{Mode: types.FinalizeAlways}, logging.Nop())

	draft := "Standup 14:00'te."
	result := f.Finalize(context.Background(), "toplantım kaçta", "", calendarDecision(), listOutcomes(), draft)

	assert.False(t, result.UsedFinalizer)
	assert.Equal(t, types.TierDraft, result.Tier)
	assert.True(t, result.GuardViolated)
	assert.Equal(t, draft, result.Text)
}

func TestFinalizeModeGates(t *testing.T) {
	tests := []struct {
		name    string
		mode    types.FinalizeMode
		route   types.Route
		enabled bool
	}{
		{name: "off", mode: types.FinalizeOff, route: types.RouteCalendar, enabled: false},
		{name: "calendarOnly matching", mode: types.FinalizeCalendarOnly, route: types.RouteCalendar, enabled: true},
		{name: "calendarOnly other", mode: types.FinalizeCalendarOnly, route: types.RouteMail, enabled: false},
		{name: "smalltalkOnly matching", mode: types.FinalizeSmalltalkOnly, route: types.RouteSmalltalk, enabled: true},
		{name: "always", mode: types.FinalizeAlways, route: types.RouteMusic, enabled: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quality := llm.NewMockClient("quality", llm.MockResponse{Content: "Tamamdır."})
			f := New(quality, nil, Config{Mode: tt.mode}, logging.Nop())

			decision := calendarDecision()
			decision.Route = tt.route

			result := f.Finalize(context.Background(), "x", "", decision, nil, "taslak")

			if tt.enabled {
				assert.True(t, result.UsedFinalizer)
				assert.Equal(t, "Tamamdır.", result.Text)
			} else {
				assert.False(t, result.UsedFinalizer)
				assert.Equal(t, "taslak", result.Text)
				assert.Zero(t, quality.CallCount())
			}
		})
	}
}

func TestFinalizeDraftFactsOptIn(t *testing.T) {
	// The candidate cites a number that only appears in the draft.
	candidate := "Listende 7 madde var."
	draft := "7 madde buldum."

	blocked := New(llm.NewMockClient("q", llm.MockResponse{Content: candidate}, llm.MockResponse{Content: candidate}), nil,
		Config{Mode: types.FinalizeAlways}, logging.Nop())
	result := blocked.Finalize(context.Background(), "listemde ne var", "", calendarDecision(), nil, draft)
	assert.True(t, result.GuardViolated)
	assert.Equal(t, draft, result.Text)

	allowed := New(llm.NewMockClient("q", llm.MockResponse{Content: candidate}), nil,
		Config{Mode: types.FinalizeAlways, AllowDraftFacts: true}, logging.Nop())
	result = allowed.Finalize(context.Background(), "listemde ne var", "", calendarDecision(), nil, draft)
	assert.False(t, result.GuardViolated)
	assert.Equal(t, candidate, result.Text)
}

func TestFinalizePromptCarriesMaterial(t *testing.T) {
	quality := llm.NewMockClient("quality", llm.MockResponse{Content: "Standup 14:00'te."})
	f := New(quality, nil, Config{Mode: types.FinalizeAlways}, logging.Nop())

	f.Finalize(context.Background(), "toplantım kaçta", "User: selam\nAssistant: selam", calendarDecision(), listOutcomes(), "taslak cevap")

	require.Len(t, quality.Requests, 1)
	prompt := quality.Requests[0].Prompt
	assert.Contains(t, prompt, "toplantım kaçta")
	assert.Contains(t, prompt, "calendar.list")
	assert.Contains(t, prompt, "taslak cevap")
	assert.True(t, strings.Contains(quality.Requests[0].System, "Never invent"))
}
