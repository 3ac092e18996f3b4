package types

// TurnKind classifies the outbound turn result for the transport layer.
type TurnKind string

const (
	TurnSay     TurnKind = "say"
	TurnAskUser TurnKind = "askUser"
	TurnFail    TurnKind = "fail"
)

// TurnRequest is the inbound boundary contract: one user utterance plus the
// caller-owned session state. The caller serializes turns per session; the
// pipeline assumes no concurrent re-entrancy for the same session.
type TurnRequest struct {
	UserInput string
	SessionID string
}

// TurnResult is the outbound boundary contract returned to the transport.
type TurnResult struct {
	Kind                 TurnKind       `json:"kind"`
	Text                 string         `json:"text"`
	Route                Route          `json:"route"`
	Intent               string         `json:"intent"`
	Confidence           float64        `json:"confidence"`
	ToolPlan             []ToolCall     `json:"toolPlan,omitempty"`
	ToolsExecuted        []ToolOutcome  `json:"toolsExecuted,omitempty"`
	RequiresConfirmation bool           `json:"requiresConfirmation"`
	ConfirmationPrompt   string         `json:"confirmationPrompt,omitempty"`
	Metadata             map[string]any `json:"metadata,omitempty"`
	Trace                TurnTrace      `json:"trace"`
}

// TurnTrace is the per-turn operability record emitted to the trace sink.
type TurnTrace struct {
	ReactIterations  int           `json:"reactIterations"`
	ObservationCount int           `json:"observationCount"`
	Elapsed          Millis        `json:"elapsedMs"`
	RepairReport     RepairReport  `json:"repairReport"`
	GuardResult      *GuardResult  `json:"guardResult,omitempty"`
	FinalizerTier    FinalizerTier `json:"finalizerTier,omitempty"`
}
