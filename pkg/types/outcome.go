package types

// ToolOutcome records one tool invocation attempt. It is owned by the turn
// that produced it; RawResult is bounded in size by the executor and
// ResultSummary is the truncated digest shown to the planner and finalizer.
type ToolOutcome struct {
	Tool          string         `json:"tool"`
	Params        map[string]any `json:"params,omitempty"`
	RawResult     string         `json:"rawResult,omitempty"`
	ResultSummary string         `json:"resultSummary"`
	Success       bool           `json:"success"`
	Elapsed       Millis         `json:"elapsedMs"`
	Error         string         `json:"error,omitempty"`
}

// ErrConfirmationRequired is the sentinel error string set on a ToolOutcome
// when a confirmation-gated tool was skipped. The orchestrator surfaces the
// decision's confirmation prompt to the user when it sees this value.
const ErrConfirmationRequired = "confirmation required"

// Observation is the compact, token-budgeted digest of one ToolOutcome that
// is carried across react iterations and serialized into replan prompts.
type Observation struct {
	Iteration     int    `json:"iteration"`
	Tool          string `json:"tool"`
	ResultSummary string `json:"resultSummary"`
	Success       bool   `json:"success"`
	Error         string `json:"error,omitempty"`
}
