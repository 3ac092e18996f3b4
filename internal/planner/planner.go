// Package planner converts free-form user text into schema-valid decisions
// by prompting the fast model tier. Every raw model response passes through
// the schema repairer before anyone else sees it, so callers are never handed
// an invalid Decision.
package planner

import (
	"context"
	"fmt"

	"bantz/internal/llm"
	"bantz/internal/logging"
	"bantz/internal/schema"
	"bantz/internal/session"
	"bantz/internal/tools"
	"bantz/pkg/types"
)

const (
	decideTemperature = 0.2
	decideMaxTokens   = 512
)

// Planner wraps the fast model behind decide/replan.
type Planner struct {
	client   llm.Client
	registry *tools.Registry
	metrics  *schema.RepairMetrics
	logger   logging.Logger
}

// New builds a planner. registry may be nil when no tools are available;
// metrics may be nil to skip repair tracking.
func New(client llm.Client, registry *tools.Registry, metrics *schema.RepairMetrics, logger logging.Logger) *Planner {
	return &Planner{
		client:   client,
		registry: registry,
		metrics:  metrics,
		logger:   logging.WithComponent(logger, "planner"),
	}
}

// Decide produces the turn's initial decision. The only error cause is a
// failed or unparseable model call: malformed-but-parseable output is always
// repaired into a valid Decision instead of failing.
func (p *Planner) Decide(ctx context.Context, userInput string, state *session.State) (types.Decision, types.RepairReport, error) {
	var history []string
	if state != nil {
		for _, turn := range state.History() {
			history = append(history, "User: "+turn.UserInput, "Assistant: "+turn.AssistantReply)
		}
	}

	resp, err := p.client.Complete(ctx, llm.CompletionRequest{
		System:      p.systemPrompt(),
		Prompt:      decidePrompt(userInput, history),
		Temperature: decideTemperature,
		MaxTokens:   decideMaxTokens,
	})
	if err != nil {
		return types.Decision{}, types.RepairReport{}, fmt.Errorf("planner model call: %w", err)
	}

	raw, err := extractDecisionJSON(resp.Content)
	if err != nil {
		return types.Decision{}, types.RepairReport{}, fmt.Errorf("planner response: %w", err)
	}

	decision, report := p.repair(raw)
	return decision, report, nil
}

// Replan asks the model to reassess the goal against accumulated tool
// observations. It can never fail: a model error, timeout or unparseable
// response degrades to a terminal "done" decision that preserves the previous
// route and intent, which guarantees the react loop terminates even under
// total model failure.
func (p *Planner) Replan(ctx context.Context, userInput string, previous types.Decision, observations []types.Observation, iteration int) (types.Decision, types.RepairReport, error) {
	resp, err := p.client.Complete(ctx, llm.CompletionRequest{
		System:      p.systemPrompt(),
		Prompt:      replanPrompt(userInput, previous, observations, iteration),
		Temperature: decideTemperature,
		MaxTokens:   decideMaxTokens,
	})
	if err != nil {
		p.logger.Warn("replan model call failed, terminating loop: %v", err)
		return terminalFallback(previous), types.RepairReport{}, nil
	}

	raw, err := extractDecisionJSON(resp.Content)
	if err != nil {
		p.logger.Warn("replan response unparseable, terminating loop: %v", err)
		return terminalFallback(previous), types.RepairReport{}, nil
	}

	decision, report := p.repair(raw)
	return decision, report, nil
}

func (p *Planner) repair(raw map[string]any) (types.Decision, types.RepairReport) {
	decision, report := schema.Repair(raw)
	if report.Repaired() {
		p.logger.Debug("decision repaired: missing=%v invalid=%v", report.FieldsMissing, report.FieldsInvalid)
	}
	if p.metrics != nil {
		p.metrics.Record(report)
	}
	return decision, report
}

// terminalFallback is the degraded decision used when the model cannot be
// reached during replan: done, nothing left to execute, previous routing
// preserved.
func terminalFallback(previous types.Decision) types.Decision {
	decision := types.DefaultDecision()
	decision.Route = previous.Route
	decision.Intent = previous.Intent
	decision.Status = types.StatusDone
	return decision
}
