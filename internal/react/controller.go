// Package react owns the observe-replan loop at the center of the turn
// pipeline. The controller executes the current tool plan, digests outcomes
// into observations, asks the planner to reassess, and terminates on a small
// closed set of conditions: a done decision, nothing to observe, an
// outstanding confirmation, bound exhaustion, or planner failure. It never
// raises; bound exhaustion and planner failure are normal termination paths
// that return whatever was collected.
package react

import (
	"context"
	"time"

	"bantz/internal/logging"
	"bantz/internal/session"
	tokenutil "bantz/internal/token"
	"bantz/pkg/types"
)

const (
	defaultMaxIterations = 3
	defaultTimeout       = 20 * time.Second
	observationTokens    = 80
)

// StopReason names the condition that ended a run.
type StopReason string

const (
	StopDone          StopReason = "done"
	StopNoOutcomes    StopReason = "noOutcomes"
	StopConfirmation  StopReason = "pendingConfirmation"
	StopMaxIterations StopReason = "maxIterations"
	StopTimeout       StopReason = "timeout"
	StopCancelled     StopReason = "cancelled"
	StopReplanFailed  StopReason = "replanFailed"
)

// Planner is the replan contract the controller depends on. The concrete
// planner degrades internally on model failure; the error return exists so
// the controller can stay fail-open against anything else.
type Planner interface {
	Replan(ctx context.Context, userInput string, previous types.Decision, observations []types.Observation, iteration int) (types.Decision, types.RepairReport, error)
}

// ToolRunner is the execution-phase contract.
type ToolRunner interface {
	Execute(ctx context.Context, plan []types.ToolCall, confirmationPrompt string, state *session.State) []types.ToolOutcome
}

// Clock abstracts wall-clock time so tests can drive the timeout bound.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the real clock.
func SystemClock() Clock { return systemClock{} }

// Config bounds a run.
type Config struct {
	MaxIterations int
	Timeout       time.Duration
}

// RunResult is the terminal state of one react run plus trace metadata.
type RunResult struct {
	Decision         types.Decision
	Outcomes         []types.ToolOutcome
	Iterations       int
	ObservationCount int
	Elapsed          time.Duration
	Reason           StopReason
}

// Controller drives the loop.
type Controller struct {
	planner Planner
	runner  ToolRunner
	clock   Clock
	config  Config
	logger  logging.Logger
}

// NewController builds a controller; zero config values take defaults and a
// nil clock takes the system clock.
func NewController(planner Planner, runner ToolRunner, config Config, clock Clock, logger logging.Logger) *Controller {
	if config.MaxIterations <= 0 {
		config.MaxIterations = defaultMaxIterations
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}
	if clock == nil {
		clock = SystemClock()
	}
	return &Controller{
		planner: planner,
		runner:  runner,
		clock:   clock,
		config:  config,
		logger:  logging.WithComponent(logger, "react"),
	}
}

// Run executes the loop starting from decision until a stop condition holds.
// Observations are appended in outcome order, so the replan prompt always
// sees result A before result B when A's call preceded B's in the plan.
func (c *Controller) Run(ctx context.Context, userInput string, decision types.Decision, state *session.State) *RunResult {
	start := c.clock.Now()
	current := decision
	result := &RunResult{Decision: decision}

	finish := func(reason StopReason) *RunResult {
		result.Decision = current
		result.Reason = reason
		result.Iterations = state.Iteration()
		result.Elapsed = c.clock.Now().Sub(start)
		c.logger.Info("react finished reason=%s iterations=%d observations=%d elapsed=%v",
			reason, result.Iterations, result.ObservationCount, result.Elapsed)
		return result
	}

	for {
		if ctx.Err() != nil {
			return finish(StopCancelled)
		}

		outcomes := c.runner.Execute(ctx, current.ToolPlan, current.ConfirmationPrompt, state)
		result.Outcomes = append(result.Outcomes, outcomes...)

		// Nothing to observe. A tool legitimately returning "no results"
		// is indistinguishable from an empty plan here; see the project
		// design notes before changing this.
		if len(outcomes) == 0 {
			return finish(StopNoOutcomes)
		}

		// An outstanding confirmation freezes the loop: never replan
		// around a question the user has not answered yet.
		if state.Pending() != nil {
			return finish(StopConfirmation)
		}

		iteration := state.IncrementIteration()
		for _, outcome := range outcomes {
			state.AppendObservation(digest(outcome, iteration))
			result.ObservationCount++
		}

		if current.Status == types.StatusDone {
			return finish(StopDone)
		}
		if iteration >= c.config.MaxIterations {
			return finish(StopMaxIterations)
		}
		if c.clock.Now().Sub(start) >= c.config.Timeout {
			return finish(StopTimeout)
		}
		if ctx.Err() != nil {
			return finish(StopCancelled)
		}

		next, _, err := c.planner.Replan(ctx, userInput, current, state.Observations(), iteration)
		if err != nil {
			// Fail-open: keep what we have.
			c.logger.Warn("replan failed, terminating with collected outcomes: %v", err)
			return finish(StopReplanFailed)
		}
		current = next
	}
}

// digest compresses one outcome into the token-budgeted observation carried
// into the next replan prompt.
func digest(outcome types.ToolOutcome, iteration int) types.Observation {
	return types.Observation{
		Iteration:     iteration,
		Tool:          outcome.Tool,
		ResultSummary: tokenutil.TruncateToTokens(outcome.ResultSummary, observationTokens),
		Success:       outcome.Success,
		Error:         outcome.Error,
	}
}
