package tools

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"bantz/internal/logging"
	"bantz/internal/session"
	tokenutil "bantz/internal/token"
	"bantz/pkg/types"
)

const (
	defaultMaxRawResult  = 8192 // runes kept of a raw tool result
	defaultSummaryRunes  = 200  // runes kept in the planner-facing summary
	defaultMaxConcurrent = 4
)

// ExecutorConfig tunes the execution phase.
type ExecutorConfig struct {
	MaxRawResult  int
	SummaryRunes  int
	MaxConcurrent int
	TrackerSize   int
	TrackerTTL    time.Duration
}

// Executor runs a decision's tool plan: confirmation gating, idempotency
// suppression, panic recovery and result truncation. A failed call never
// aborts the rest of the plan and nothing here ever propagates a panic or an
// error to the caller; every planned call yields exactly one ToolOutcome.
type Executor struct {
	registry *Registry
	tracker  *Tracker
	logger   logging.Logger
	config   ExecutorConfig
}

// NewExecutor builds an executor over registry.
func NewExecutor(registry *Registry, config ExecutorConfig, logger logging.Logger) *Executor {
	if config.MaxRawResult <= 0 {
		config.MaxRawResult = defaultMaxRawResult
	}
	if config.SummaryRunes <= 0 {
		config.SummaryRunes = defaultSummaryRunes
	}
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = defaultMaxConcurrent
	}
	return &Executor{
		registry: registry,
		tracker:  NewTracker(config.TrackerSize, config.TrackerTTL),
		logger:   logging.WithComponent(logger, "tool-exec"),
		config:   config,
	}
}

// Execute runs the plan in order and returns one outcome per planned call.
// confirmationPrompt is surfaced in the pending slot when a confirmable call
// is skipped. Plans with no confirmation-gated calls and no duplicate keys
// fan out concurrently; outcomes always come back in plan order.
func (e *Executor) Execute(ctx context.Context, plan []types.ToolCall, confirmationPrompt string, state *session.State) []types.ToolOutcome {
	if len(plan) == 0 {
		return nil
	}

	outcomes := make([]types.ToolOutcome, len(plan))
	if e.canFanOut(plan) {
		g, groupCtx := errgroup.WithContext(ctx)
		g.SetLimit(e.config.MaxConcurrent)
		for i, call := range plan {
			g.Go(func() error {
				outcomes[i] = e.executeOne(groupCtx, call, confirmationPrompt, state)
				return nil
			})
		}
		// Workers never return errors; outcomes carry the failures.
		_ = g.Wait()
		return outcomes
	}

	for i, call := range plan {
		outcomes[i] = e.executeOne(ctx, call, confirmationPrompt, state)
	}
	return outcomes
}

// canFanOut reports whether the plan is safe to run concurrently: every call
// resolves to a confirmation-free tool and no two calls share an idempotency
// key. Confirmation-gated calls run sequentially to preserve the single
// pending-slot invariant.
func (e *Executor) canFanOut(plan []types.ToolCall) bool {
	if len(plan) < 2 {
		return false
	}
	seen := make(map[string]bool, len(plan))
	for _, call := range plan {
		tool, err := e.registry.Get(call.Name)
		if err != nil || tool.RequiresConfirmation() {
			return false
		}
		key := IdempotencyKey(call.Name, call.Args)
		if seen[key] {
			return false
		}
		seen[key] = true
	}
	return true
}

// executeOne produces exactly one outcome for one planned call.
func (e *Executor) executeOne(ctx context.Context, call types.ToolCall, confirmationPrompt string, state *session.State) (outcome types.ToolOutcome) {
	outcome = types.ToolOutcome{Tool: call.Name, Params: call.Args}
	key := IdempotencyKey(call.Name, call.Args)

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("tool %s panicked: %v", call.Name, r)
			// The call never completed, so a replan may retry it.
			e.tracker.Forget(key)
			outcome.Success = false
			outcome.Error = fmt.Sprintf("tool execution panicked: %v", r)
			outcome.ResultSummary = outcome.Error
		}
	}()

	tool, err := e.registry.Get(call.Name)
	if err != nil {
		outcome.Error = err.Error()
		outcome.ResultSummary = outcome.Error
		return outcome
	}

	if tool.RequiresConfirmation() && !state.ConsumeGrant(key) {
		outcome.Error = types.ErrConfirmationRequired
		outcome.ResultSummary = outcome.Error
		if state.SetPending(call, confirmationPrompt) {
			e.logger.Info("tool %s awaiting confirmation", call.Name)
		} else {
			// Slot occupied: deferred to a later turn.
			e.logger.Info("tool %s deferred, another confirmation is pending", call.Name)
		}
		return outcome
	}

	if e.tracker.Seen(key) {
		e.logger.Debug("duplicate call suppressed: %s", key)
		outcome.Success = true
		outcome.ResultSummary = "duplicate call suppressed"
		return outcome
	}

	args := call.Args
	if args == nil {
		args = map[string]any{}
	}

	start := time.Now()
	result, err := tool.Invoke(ctx, args)
	outcome.Elapsed = types.Millis(time.Since(start))

	if err != nil {
		// Allow a retry of the failed call within the same turn.
		e.tracker.Forget(key)
		outcome.Error = err.Error()
		outcome.ResultSummary = tokenutil.TruncateRunes(err.Error(), e.config.SummaryRunes)
		return outcome
	}

	content := ""
	if result != nil {
		content = result.Content
	}
	outcome.Success = true
	outcome.RawResult = tokenutil.TruncateRunes(content, e.config.MaxRawResult)
	outcome.ResultSummary = tokenutil.TruncateRunes(content, e.config.SummaryRunes)
	return outcome
}
