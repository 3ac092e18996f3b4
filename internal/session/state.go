// Package session holds per-session conversation state. A State is owned by
// exactly one in-flight turn at a time; the caller serializes turns per
// session. The internal mutex only protects against the executor's fan-out
// goroutines within a single turn.
package session

import (
	"sync"
	"time"

	"bantz/pkg/types"
)

const (
	maxHistory      = 20
	maxToolResults  = 10
	maxObservations = 12
)

// Turn is one completed user/assistant exchange.
type Turn struct {
	UserInput      string
	AssistantReply string
	Route          types.Route
	Timestamp      time.Time
}

// PendingConfirmation is the at-most-one outstanding confirmable tool call.
type PendingConfirmation struct {
	Call      types.ToolCall
	Prompt    string
	CreatedAt time.Time
}

// State is the mutable conversation state for one session.
type State struct {
	mu sync.Mutex

	ID string

	history         []Turn
	lastToolResults []types.ToolOutcome

	reactIteration    int
	reactObservations []types.Observation

	pending *PendingConfirmation
	// granted holds idempotency keys of calls the user confirmed; consumed
	// by the executor on the re-attempt.
	granted map[string]bool
}

// New creates empty state for a session.
func New(id string) *State {
	return &State{ID: id, granted: map[string]bool{}}
}

// AppendTurn records a completed exchange, evicting the oldest when full.
func (s *State) AppendTurn(turn Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.history) == maxHistory {
		s.history = s.history[1:]
	}
	s.history = append(s.history, turn)
}

// History returns a copy of the turn history, oldest first.
func (s *State) History() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Turn{}, s.history...)
}

// RecordToolResults keeps the most recent tool outcomes, bounded FIFO.
func (s *State) RecordToolResults(outcomes []types.ToolOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastToolResults = append(s.lastToolResults, outcomes...)
	if overflow := len(s.lastToolResults) - maxToolResults; overflow > 0 {
		s.lastToolResults = s.lastToolResults[overflow:]
	}
}

// LastToolResults returns a copy of the recent tool outcomes.
func (s *State) LastToolResults() []types.ToolOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.ToolOutcome{}, s.lastToolResults...)
}

// AppendObservation adds a react observation, evicting the oldest when the
// bounded window is full. Order is preserved: the digest sequence handed to
// replan matches the order outcomes were produced.
func (s *State) AppendObservation(obs types.Observation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.reactObservations) == maxObservations {
		s.reactObservations = s.reactObservations[1:]
	}
	s.reactObservations = append(s.reactObservations, obs)
}

// Observations returns a copy of the current observation window.
func (s *State) Observations() []types.Observation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.Observation{}, s.reactObservations...)
}

// IncrementIteration bumps and returns the react iteration counter.
func (s *State) IncrementIteration() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reactIteration++
	return s.reactIteration
}

// Iteration returns the current react iteration counter.
func (s *State) Iteration() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reactIteration
}

// SetPending records the outstanding confirmation. Returns false when one is
// already pending: a second confirmable call cannot claim the slot.
func (s *State) SetPending(call types.ToolCall, prompt string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != nil {
		return false
	}
	s.pending = &PendingConfirmation{Call: call, Prompt: prompt, CreatedAt: time.Now()}
	return true
}

// Pending returns the outstanding confirmation, or nil.
func (s *State) Pending() *PendingConfirmation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// GrantPending approves the outstanding confirmation. The approved call is
// returned so the orchestrator can re-run it; its key enters the granted set
// consumed by the executor.
func (s *State) GrantPending(key string) (types.ToolCall, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return types.ToolCall{}, false
	}
	call := s.pending.Call
	s.pending = nil
	s.granted[key] = true
	return call, true
}

// DenyPending clears the outstanding confirmation without granting it.
func (s *State) DenyPending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
}

// ConsumeGrant reports and clears a granted confirmation for key.
func (s *State) ConsumeGrant(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.granted[key] {
		return false
	}
	delete(s.granted, key)
	return true
}

// ResetReact clears all ReAct-scoped fields at the turn boundary.
func (s *State) ResetReact() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reactIteration = 0
	s.reactObservations = nil
}

// Reset clears the whole session state.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
	s.lastToolResults = nil
	s.reactIteration = 0
	s.reactObservations = nil
	s.pending = nil
	s.granted = map[string]bool{}
}
