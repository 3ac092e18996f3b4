// Package finalizer turns a terminal decision plus its tool outcomes into
// natural language without ever inventing numbers, times or dates. The
// quality model writes the reply, the guard proves every extracted fact is
// traceable to a source, and on failure the result degrades through
// quality -> fast -> draft, so a fact-unsafe reply can never surface.
package finalizer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"bantz/internal/llm"
	"bantz/internal/logging"
	"bantz/pkg/types"
)

const (
	defaultTokenBudget  = 1200
	finalizeTemperature = 0.5
	retryTemperature    = 0.1
	finalizeMaxTokens   = 300
)

// Config tunes the finalizer.
type Config struct {
	Mode          types.FinalizeMode
	TokenBudget   int
	CheckCurrency bool
	// AllowDraftFacts includes the draft reply among the guard's allowed
	// sources.
	AllowDraftFacts bool
}

// Finalizer wraps the quality model tier with guard and fallback logic.
type Finalizer struct {
	quality llm.Client
	fast    llm.Client
	guard   *Guard
	config  Config
	logger  logging.Logger
}

// New builds a finalizer. fast may equal quality when only one model is
// configured; it is the middle fallback tier.
func New(quality, fast llm.Client, config Config, logger logging.Logger) *Finalizer {
	if config.TokenBudget <= 0 {
		config.TokenBudget = defaultTokenBudget
	}
	if config.Mode == "" {
		config.Mode = types.FinalizeAlways
	}
	return &Finalizer{
		quality: quality,
		fast:    fast,
		guard:   &Guard{CheckCurrency: config.CheckCurrency},
		config:  config,
		logger:  logging.WithComponent(logger, "finalizer"),
	}
}

// Finalize produces the turn's outgoing text. When the mode gates this turn
// out, the draft passes through unchanged.
func (f *Finalizer) Finalize(ctx context.Context, userInput, dialogSummary string, decision types.Decision, outcomes []types.ToolOutcome, draft string) types.FinalResult {
	if !f.enabled(decision.Route) {
		return types.FinalResult{Text: draft, UsedFinalizer: false, Tier: types.TierDraft}
	}

	decisionJSON, _ := json.Marshal(decision)
	outcomesText, tier := serializeOutcomes(outcomes, f.config.TokenBudget)
	f.logger.Debug("outcome serialization tier=%d tokens<=%d", tier, f.config.TokenBudget)

	prompt := buildPrompt(userInput, dialogSummary, string(decisionJSON), outcomesText, draft)

	sources := []string{userInput, dialogSummary, string(decisionJSON), marshalOutcomes(outcomes, false)}
	if f.config.AllowDraftFacts {
		sources = append(sources, draft)
	}

	candidate, usedTier := f.complete(ctx, prompt, finalizeTemperature)
	if usedTier == types.TierDraft {
		return types.FinalResult{Text: draft, UsedFinalizer: false, Tier: types.TierDraft}
	}

	guard := f.guard.Check(sources, candidate)
	if guard.Passed {
		return types.FinalResult{Text: candidate, UsedFinalizer: true, Tier: usedTier, Guard: &guard}
	}

	f.logger.Warn("guard violation, retrying with constrained prompt: %v", guard.Violations)
	retryPrompt := prompt + constraintSuffix(guard)
	retry, retryTier := f.completeOn(ctx, f.clientFor(usedTier), usedTier, retryPrompt, retryTemperature)
	if retryTier != types.TierDraft {
		retryGuard := f.guard.Check(sources, retry)
		if retryGuard.Passed {
			return types.FinalResult{Text: retry, UsedFinalizer: true, Tier: retryTier, GuardViolated: true, GuardRetried: true, Guard: &retryGuard}
		}
		guard = retryGuard
	}

	// The draft never contains model-invented facts; fall back to it.
	return types.FinalResult{Text: draft, UsedFinalizer: false, Tier: types.TierDraft, GuardViolated: true, GuardRetried: true, Guard: &guard}
}

// enabled applies the mode gate for the decision's route.
func (f *Finalizer) enabled(route types.Route) bool {
	switch f.config.Mode {
	case types.FinalizeOff:
		return false
	case types.FinalizeCalendarOnly:
		return route == types.RouteCalendar
	case types.FinalizeSmalltalkOnly:
		return route == types.RouteSmalltalk
	default:
		return true
	}
}

// complete walks the quality -> fast chain and reports which tier answered.
// An error or an empty reply moves to the next tier; TierDraft means both
// model tiers failed.
func (f *Finalizer) complete(ctx context.Context, prompt string, temperature float64) (string, types.FinalizerTier) {
	if text, tier := f.completeOn(ctx, f.quality, types.TierQuality, prompt, temperature); tier != types.TierDraft {
		return text, tier
	}
	if text, tier := f.completeOn(ctx, f.fast, types.TierFast, prompt, temperature); tier != types.TierDraft {
		return text, tier
	}
	return "", types.TierDraft
}

// completeOn runs one model call; any failure or empty reply degrades to the
// draft tier.
func (f *Finalizer) completeOn(ctx context.Context, client llm.Client, tier types.FinalizerTier, prompt string, temperature float64) (string, types.FinalizerTier) {
	if client == nil {
		return "", types.TierDraft
	}
	resp, err := client.Complete(ctx, llm.CompletionRequest{
		System:      finalizeSystemPrompt,
		Prompt:      prompt,
		Temperature: temperature,
		MaxTokens:   finalizeMaxTokens,
	})
	if err != nil {
		f.logger.Warn("%s finalizer call failed: %v", tier, err)
		return "", types.TierDraft
	}
	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return "", types.TierDraft
	}
	return text, tier
}

func (f *Finalizer) clientFor(tier types.FinalizerTier) llm.Client {
	if tier == types.TierFast {
		return f.fast
	}
	return f.quality
}

const finalizeSystemPrompt = "You are the reply writer of a voice assistant. " +
	"Write one short, natural reply in the user's language based strictly on the given tool results. " +
	"Never invent numbers, times, dates or amounts that are not present in the material."

func buildPrompt(userInput, dialogSummary, decisionJSON, outcomesText, draft string) string {
	var b strings.Builder
	b.WriteString("User said: ")
	b.WriteString(userInput)
	if dialogSummary != "" {
		b.WriteString("\n\nDialog so far:\n")
		b.WriteString(dialogSummary)
	}
	b.WriteString("\n\nDecision:\n")
	b.WriteString(decisionJSON)
	b.WriteString("\n\nTool results:\n")
	b.WriteString(outcomesText)
	if draft != "" {
		b.WriteString("\n\nDraft reply (improve on it, keep its facts):\n")
		b.WriteString(draft)
	}
	b.WriteString("\n\nWrite the final reply.")
	return b.String()
}

// constraintSuffix lists the exact allowed values for the low-temperature
// retry after a guard violation.
func constraintSuffix(guard types.GuardResult) string {
	var parts []string
	if len(guard.AllowedNumbers) > 0 {
		parts = append(parts, "numbers: "+strings.Join(guard.AllowedNumbers, ", "))
	}
	if len(guard.AllowedTimes) > 0 {
		parts = append(parts, "times: "+strings.Join(guard.AllowedTimes, ", "))
	}
	if len(guard.AllowedDates) > 0 {
		parts = append(parts, "dates: "+strings.Join(guard.AllowedDates, ", "))
	}
	if len(parts) == 0 {
		return "\n\nIMPORTANT: do not mention any number, time or date in your reply."
	}
	return fmt.Sprintf("\n\nIMPORTANT: use only these values and no others: %s.", strings.Join(parts, "; "))
}
