// Package pipeline orchestrates one user turn end to end: plan, run the
// react loop, finalize the reply, and emit the per-turn trace record. The
// caller serializes turns per session.
package pipeline

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"bantz/internal/finalizer"
	"bantz/internal/logging"
	"bantz/internal/planner"
	"bantz/internal/react"
	"bantz/internal/session"
	"bantz/internal/tools"
	"bantz/pkg/types"
)

const (
	failText    = "Üzgünüm, bir şeyler ters gitti. Tekrar dener misin?"
	cancelText  = "Tamam, iptal ettim."
	confirmText = "Bu işlemi onaylıyor musun?"

	summaryTurns = 4
)

// Pipeline wires the planner, the react controller and the finalizer behind
// a single ProcessTurn entry point.
type Pipeline struct {
	planner   *planner.Planner
	react     *react.Controller
	finalizer *finalizer.Finalizer
	sessions  *session.Manager
	metrics   *Metrics
	tracer    trace.Tracer
	logger    logging.Logger
}

// New builds a pipeline. metrics and tracer may be nil.
func New(p *planner.Planner, controller *react.Controller, f *finalizer.Finalizer, sessions *session.Manager, metrics *Metrics, tracer trace.Tracer, logger logging.Logger) *Pipeline {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("bantz")
	}
	return &Pipeline{
		planner:   p,
		react:     controller,
		finalizer: f,
		sessions:  sessions,
		metrics:   metrics,
		tracer:    tracer,
		logger:    logging.WithComponent(logger, "pipeline"),
	}
}

// ProcessTurn handles one utterance and always returns a result; every
// failure path degrades to a TurnFail result rather than an error.
func (p *Pipeline) ProcessTurn(ctx context.Context, req types.TurnRequest) types.TurnResult {
	start := time.Now()
	ctx, span := p.tracer.Start(ctx, "pipeline.turn",
		trace.WithAttributes(attribute.String("session.id", req.SessionID)))
	defer span.End()

	state := p.sessions.GetOrCreate(req.SessionID)
	state.ResetReact()

	var (
		decision types.Decision
		report   types.RepairReport
	)

	if pending := state.Pending(); pending != nil {
		if isAffirmative(req.UserInput) {
			key := tools.IdempotencyKey(pending.Call.Name, pending.Call.Args)
			call, ok := state.GrantPending(key)
			if !ok {
				return p.finish(req, state, types.TurnResult{Kind: types.TurnFail, Text: failText}, start, span)
			}
			decision = types.Decision{
				Route:    lastRoute(state),
				Status:   types.StatusDone,
				ToolPlan: []types.ToolCall{call},
			}
		} else {
			// Anything short of a clear yes drops the call; the reply is
			// then treated as a fresh utterance.
			state.DenyPending()
			p.logger.Info("pending confirmation denied session=%s tool=%s", req.SessionID, pending.Call.Name)
			if isNegative(req.UserInput) {
				result := types.TurnResult{Kind: types.TurnSay, Text: cancelText, Route: lastRoute(state)}
				return p.finish(req, state, result, start, span)
			}
		}
	}

	if len(decision.ToolPlan) == 0 && decision.Route == "" {
		var err error
		decision, report, err = p.planner.Decide(ctx, req.UserInput, state)
		if err != nil {
			p.logger.Error("decide failed session=%s: %v", req.SessionID, err)
			span.RecordError(err)
			result := types.TurnResult{Kind: types.TurnFail, Text: failText}
			result.Trace.RepairReport = report
			return p.finish(req, state, result, start, span)
		}
	}

	if decision.AskUser && decision.Question != "" {
		result := types.TurnResult{
			Kind:       types.TurnAskUser,
			Text:       decision.Question,
			Route:      decision.Route,
			Intent:     decision.Intent,
			Confidence: decision.Confidence,
		}
		result.Trace.RepairReport = report
		return p.finish(req, state, result, start, span)
	}

	run := p.react.Run(ctx, req.UserInput, decision, state)
	state.RecordToolResults(run.Outcomes)
	terminal := run.Decision

	result := types.TurnResult{
		Route:         terminal.Route,
		Intent:        terminal.Intent,
		Confidence:    terminal.Confidence,
		ToolPlan:      decision.ToolPlan,
		ToolsExecuted: run.Outcomes,
		Metadata:      map[string]any{"stopReason": string(run.Reason)},
	}
	result.Trace.ReactIterations = run.Iterations
	result.Trace.ObservationCount = run.ObservationCount
	result.Trace.RepairReport = report

	if pending := state.Pending(); pending != nil {
		prompt := strings.TrimSpace(pending.Prompt)
		if prompt == "" {
			prompt = confirmText
		}
		result.Kind = types.TurnAskUser
		result.Text = prompt
		result.RequiresConfirmation = true
		result.ConfirmationPrompt = prompt
		return p.finish(req, state, result, start, span)
	}

	if terminal.AskUser && terminal.Question != "" {
		result.Kind = types.TurnAskUser
		result.Text = terminal.Question
		return p.finish(req, state, result, start, span)
	}

	draft := strings.TrimSpace(terminal.AssistantReply)
	if draft == "" {
		draft = strings.TrimSpace(decision.AssistantReply)
	}

	final := p.finalizer.Finalize(ctx, req.UserInput, dialogSummary(state), terminal, run.Outcomes, draft)
	result.Trace.GuardResult = final.Guard
	result.Trace.FinalizerTier = final.Tier

	text := strings.TrimSpace(final.Text)
	if text == "" {
		text = draft
	}
	if text == "" {
		result.Kind = types.TurnFail
		result.Text = failText
		return p.finish(req, state, result, start, span)
	}

	result.Kind = types.TurnSay
	result.Text = text
	return p.finish(req, state, result, start, span)
}

// finish stamps the trace, records history and metrics, and annotates the
// span. Every return path funnels through here.
func (p *Pipeline) finish(req types.TurnRequest, state *session.State, result types.TurnResult, start time.Time, span trace.Span) types.TurnResult {
	result.Trace.Elapsed = types.Millis(time.Since(start))

	if result.Kind == types.TurnSay {
		state.AppendTurn(session.Turn{
			UserInput:      req.UserInput,
			AssistantReply: result.Text,
			Route:          result.Route,
			Timestamp:      time.Now(),
		})
	}

	guardViolated := result.Trace.GuardResult != nil && !result.Trace.GuardResult.Passed
	p.metrics.ObserveTurn(string(result.Kind), result.Trace.ReactIterations, result.Trace.Elapsed.Duration(), guardViolated)

	span.SetAttributes(
		attribute.String("turn.kind", string(result.Kind)),
		attribute.String("turn.route", string(result.Route)),
		attribute.String("turn.intent", result.Intent),
		attribute.Int("turn.react_iterations", result.Trace.ReactIterations),
		attribute.Int("turn.observations", result.Trace.ObservationCount),
	)

	p.logger.Info("turn session=%s kind=%s route=%s intent=%s iterations=%d elapsed=%v",
		req.SessionID, result.Kind, result.Route, result.Intent,
		result.Trace.ReactIterations, result.Trace.Elapsed)
	return result
}

// dialogSummary renders the most recent exchanges for the finalizer prompt.
func dialogSummary(state *session.State) string {
	history := state.History()
	if len(history) > summaryTurns {
		history = history[len(history)-summaryTurns:]
	}
	var b strings.Builder
	for _, turn := range history {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("User: ")
		b.WriteString(turn.UserInput)
		b.WriteString("\nAssistant: ")
		b.WriteString(turn.AssistantReply)
	}
	return b.String()
}

// lastRoute recovers the route of the most recent completed turn so a
// confirmation follow-up keeps its context.
func lastRoute(state *session.State) types.Route {
	history := state.History()
	if len(history) == 0 {
		return types.RouteUnknown
	}
	return history[len(history)-1].Route
}

var affirmativeWords = map[string]bool{
	"evet": true, "e": true, "onayla": true, "onaylıyorum": true,
	"tamam": true, "olur": true, "yap": true,
	"yes": true, "y": true, "ok": true, "okay": true, "confirm": true, "sure": true,
}

var negativeWords = map[string]bool{
	"hayır": true, "hayir": true, "h": true, "iptal": true,
	"vazgeç": true, "vazgec": true, "istemiyorum": true,
	"no": true, "n": true, "nope": true, "cancel": true,
}

func normalizeReply(input string) string {
	s := strings.ToLower(strings.TrimSpace(input))
	return strings.TrimRight(s, ".!? ")
}

func isAffirmative(input string) bool { return affirmativeWords[normalizeReply(input)] }

func isNegative(input string) bool { return negativeWords[normalizeReply(input)] }
