package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bantz/internal/finalizer"
	"bantz/internal/llm"
	"bantz/internal/logging"
	"bantz/internal/planner"
	"bantz/internal/react"
	"bantz/internal/session"
	"bantz/internal/tools"
	"bantz/internal/tools/builtin"
	"bantz/pkg/types"
)

type testHarness struct {
	pipeline *Pipeline
	sessions *session.Manager
	store    *builtin.CalendarStore
}

func newHarness(t *testing.T, plannerScript, qualityScript []llm.MockResponse) *testHarness {
	t.Helper()

	registry := tools.NewRegistry(logging.Nop())
	store := builtin.NewCalendarStore()
	require.NoError(t, builtin.RegisterAll(registry, store))

	plannerClient := llm.NewMockClient("fast", plannerScript...)
	qualityClient := llm.NewMockClient("quality", qualityScript...)

	plan := planner.New(plannerClient, registry, nil, logging.Nop())
	executor := tools.NewExecutor(registry, tools.ExecutorConfig{}, logging.Nop())
	controller := react.NewController(plan, executor, react.Config{}, nil, logging.Nop())
	fin := finalizer.New(qualityClient, plannerClient, finalizer.Config{Mode: types.FinalizeAlways}, logging.Nop())

	sessions := session.NewManager()
	metrics := MustNewMetrics(prometheus.NewRegistry())
	pipe := New(plan, controller, fin, sessions, metrics, nil, logging.Nop())

	return &testHarness{pipeline: pipe, sessions: sessions, store: store}
}

func decisionJSON(extra string) string {
	return `{"route":"calendar","intent":"create","confidence":0.9,` +
		`"toolPlan":[{"name":"calendar.create","args":{"title":"standup","date":"2026-09-01","time":"14:00"}}],` +
		`"status":"done","assistantReply":"Ekledim."` + extra + `}`
}

func TestProcessTurnCalendarCreate(t *testing.T) {
	h := newHarness(t,
		[]llm.MockResponse{{Content: decisionJSON("")}},
		[]llm.MockResponse{{Content: "Standup toplantısı 2026-09-01 14:00'e eklendi."}},
	)

	result := h.pipeline.ProcessTurn(context.Background(), types.TurnRequest{
		UserInput: "1 eylül 14:00'e standup ekle",
		SessionID: "s",
	})

	assert.Equal(t, types.TurnSay, result.Kind)
	assert.Equal(t, "Standup toplantısı 2026-09-01 14:00'e eklendi.", result.Text)
	assert.Equal(t, types.RouteCalendar, result.Route)
	require.Len(t, result.ToolsExecuted, 1)
	assert.True(t, result.ToolsExecuted[0].Success)
	assert.Equal(t, 1, result.Trace.ReactIterations)
	assert.Equal(t, 1, result.Trace.ObservationCount)
	assert.Equal(t, types.TierQuality, result.Trace.FinalizerTier)

	// The exchange lands in history.
	state := h.sessions.GetOrCreate("s")
	require.Len(t, state.History(), 1)
	assert.Equal(t, types.RouteCalendar, state.History()[0].Route)
}

func TestProcessTurnAskUserShortCircuits(t *testing.T) {
	h := newHarness(t, []llm.MockResponse{{
		Content: `{"route":"calendar","intent":"create","confidence":0.5,"toolPlan":[],` +
			`"askUser":true,"question":"Hangi gün için?","status":"needsMoreInfo","assistantReply":""}`,
	}}, nil)

	result := h.pipeline.ProcessTurn(context.Background(), types.TurnRequest{UserInput: "toplantı ekle", SessionID: "s"})

	assert.Equal(t, types.TurnAskUser, result.Kind)
	assert.Equal(t, "Hangi gün için?", result.Text)
	assert.Empty(t, result.ToolsExecuted)
	assert.Zero(t, result.Trace.ReactIterations)
}

func TestProcessTurnPlannerFailure(t *testing.T) {
	h := newHarness(t, []llm.MockResponse{{Err: errors.New("model unreachable")}}, nil)

	result := h.pipeline.ProcessTurn(context.Background(), types.TurnRequest{UserInput: "x", SessionID: "s"})

	assert.Equal(t, types.TurnFail, result.Kind)
	assert.NotEmpty(t, result.Text)
}

func deleteDecisionJSON() string {
	return `{"route":"calendar","intent":"delete","confidence":0.9,` +
		`"toolPlan":[{"name":"calendar.delete","args":{"id":1}}],` +
		`"status":"done","requiresConfirmation":true,` +
		`"confirmationPrompt":"standup silinsin mi?","assistantReply":"Sildim."}`
}

func TestProcessTurnConfirmationGrantFlow(t *testing.T) {
	h := newHarness(t,
		[]llm.MockResponse{{Content: deleteDecisionJSON()}},
		[]llm.MockResponse{{Content: "Tamam, sildim."}},
	)
	h.store.Create("standup", "2026-09-01", "14:00")

	first := h.pipeline.ProcessTurn(context.Background(), types.TurnRequest{UserInput: "standup'ı sil", SessionID: "s"})

	assert.Equal(t, types.TurnAskUser, first.Kind)
	assert.True(t, first.RequiresConfirmation)
	assert.Equal(t, "standup silinsin mi?", first.Text)
	require.Len(t, first.ToolsExecuted, 1)
	assert.Equal(t, types.ErrConfirmationRequired, first.ToolsExecuted[0].Error)

	second := h.pipeline.ProcessTurn(context.Background(), types.TurnRequest{UserInput: "evet", SessionID: "s"})

	assert.Equal(t, types.TurnSay, second.Kind)
	assert.Equal(t, "Tamam, sildim.", second.Text)
	require.Len(t, second.ToolsExecuted, 1)
	assert.True(t, second.ToolsExecuted[0].Success)
	assert.Nil(t, h.sessions.GetOrCreate("s").Pending())
}

func TestProcessTurnConfirmationWithoutPromptGetsFallback(t *testing.T) {
	// The model requested confirmation but forgot the prompt text; the user
	// still has to see a question.
	h := newHarness(t,
		[]llm.MockResponse{{Content: `{"route":"calendar","intent":"delete","confidence":0.9,` +
			`"toolPlan":[{"name":"calendar.delete","args":{"id":1}}],` +
			`"status":"done","requiresConfirmation":true,"assistantReply":"Sildim."}`}},
		nil,
	)
	h.store.Create("standup", "2026-09-01", "14:00")

	result := h.pipeline.ProcessTurn(context.Background(), types.TurnRequest{UserInput: "standup'ı sil", SessionID: "s"})

	assert.Equal(t, types.TurnAskUser, result.Kind)
	assert.True(t, result.RequiresConfirmation)
	assert.Equal(t, confirmText, result.Text)
	assert.Equal(t, confirmText, result.ConfirmationPrompt)
}

func TestProcessTurnConfirmationDenyFlow(t *testing.T) {
	h := newHarness(t,
		[]llm.MockResponse{{Content: deleteDecisionJSON()}},
		nil,
	)
	h.store.Create("standup", "2026-09-01", "14:00")

	first := h.pipeline.ProcessTurn(context.Background(), types.TurnRequest{UserInput: "standup'ı sil", SessionID: "s"})
	require.Equal(t, types.TurnAskUser, first.Kind)

	second := h.pipeline.ProcessTurn(context.Background(), types.TurnRequest{UserInput: "hayır", SessionID: "s"})

	assert.Equal(t, types.TurnSay, second.Kind)
	assert.Equal(t, cancelText, second.Text)
	assert.Empty(t, second.ToolsExecuted)
	assert.Nil(t, h.sessions.GetOrCreate("s").Pending())
}

func TestProcessTurnAmbiguousConfirmationReplyReplans(t *testing.T) {
	// A non-yes reply drops the pending call and is planned as a fresh turn.
	h := newHarness(t,
		[]llm.MockResponse{
			{Content: deleteDecisionJSON()},
			{Content: `{"route":"smalltalk","intent":"chat","confidence":0.8,"toolPlan":[],` +
				`"status":"done","assistantReply":"Elbette, başka bir şey?"}`},
		},
		[]llm.MockResponse{{Content: "Elbette, başka bir şey?"}},
	)
	h.store.Create("standup", "2026-09-01", "14:00")

	h.pipeline.ProcessTurn(context.Background(), types.TurnRequest{UserInput: "standup'ı sil", SessionID: "s"})
	second := h.pipeline.ProcessTurn(context.Background(), types.TurnRequest{UserInput: "aslında boşver, hava nasıl", SessionID: "s"})

	assert.Equal(t, types.TurnSay, second.Kind)
	assert.Equal(t, types.RouteSmalltalk, second.Route)
	assert.Nil(t, h.sessions.GetOrCreate("s").Pending())
}

func TestProcessTurnFinalizerDegradesToDraft(t *testing.T) {
	// The quality tier fails; the reply still comes out through a lower tier.
	h := newHarness(t,
		[]llm.MockResponse{{Content: decisionJSON("")}},
		[]llm.MockResponse{{Err: errors.New("quality down")}},
	)

	result := h.pipeline.ProcessTurn(context.Background(), types.TurnRequest{UserInput: "standup ekle", SessionID: "s"})

	assert.Equal(t, types.TurnSay, result.Kind)
	assert.NotEmpty(t, result.Text)
	assert.NotEqual(t, types.TierQuality, result.Trace.FinalizerTier)
}

func TestIsAffirmativeAndNegative(t *testing.T) {
	assert.True(t, isAffirmative("Evet"))
	assert.True(t, isAffirmative("  tamam. "))
	assert.True(t, isAffirmative("ok"))
	assert.False(t, isAffirmative("belki"))

	assert.True(t, isNegative("hayır"))
	assert.True(t, isNegative("iptal"))
	assert.True(t, isNegative("no!"))
	assert.False(t, isNegative("evet"))
}
