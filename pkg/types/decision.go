// Package types defines the shared data model of the turn-decision pipeline:
// the Decision produced by the planner, tool plan entries, tool outcomes and
// their observation digests, repair reports, guard results and the turn-level
// request/response records exchanged with the transport layer.
package types

// Route classifies a user utterance into one of the closed top-level domains.
type Route string

const (
	RouteCalendar  Route = "calendar"
	RouteMail      Route = "mail"
	RouteSystem    Route = "system"
	RouteMusic     Route = "music"
	RouteSmalltalk Route = "smalltalk"
	RouteUnknown   Route = "unknown"
)

// Status reports whether the planner considers the turn complete or whether
// more tool observations are needed before a reply can be produced.
type Status string

const (
	StatusDone          Status = "done"
	StatusNeedsMoreInfo Status = "needsMoreInfo"
)

// IntentNone is the neutral intent valid for every route.
const IntentNone = "none"

// routeIntents is the closed intent set per route. IntentNone is implicit.
var routeIntents = map[Route][]string{
	RouteCalendar:  {"create", "list", "update", "delete"},
	RouteMail:      {"send", "read", "search"},
	RouteSystem:    {"open_app", "set_volume", "screenshot"},
	RouteMusic:     {"play", "pause", "next"},
	RouteSmalltalk: {"chat", "greet"},
	RouteUnknown:   {},
}

// Routes returns every valid route value.
func Routes() []Route {
	return []Route{RouteCalendar, RouteMail, RouteSystem, RouteMusic, RouteSmalltalk, RouteUnknown}
}

// ValidRoute reports whether r is a member of the closed route set.
func ValidRoute(r Route) bool {
	_, ok := routeIntents[r]
	return ok
}

// IntentsFor returns the closed intent set for a route, IntentNone included.
// An unknown route only admits IntentNone.
func IntentsFor(r Route) []string {
	intents := append([]string{}, routeIntents[r]...)
	return append(intents, IntentNone)
}

// ValidIntent reports whether intent is a member of the closed set for route.
func ValidIntent(r Route, intent string) bool {
	if intent == IntentNone {
		return true
	}
	for _, candidate := range routeIntents[r] {
		if candidate == intent {
			return true
		}
	}
	return false
}

// ToolCall is one planned tool invocation. The planner may emit either a bare
// tool name or a {name,args} record; both normalize to this shape.
type ToolCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// Decision is the structured output of one planner call. It is immutable once
// produced: the react controller builds a fresh Decision on every replan and
// never mutates a previous one.
type Decision struct {
	Route                Route          `json:"route"`
	Intent               string         `json:"intent"`
	Slots                map[string]any `json:"slots,omitempty"`
	Confidence           float64        `json:"confidence"`
	ToolPlan             []ToolCall     `json:"toolPlan"`
	Status               Status         `json:"status"`
	AskUser              bool           `json:"askUser"`
	Question             string         `json:"question,omitempty"`
	RequiresConfirmation bool           `json:"requiresConfirmation"`
	ConfirmationPrompt   string         `json:"confirmationPrompt,omitempty"`
	AssistantReply       string         `json:"assistantReply"`
	ReasoningSummary     []string       `json:"reasoningSummary,omitempty"`
}

// DefaultDecision returns the all-default, schema-valid Decision used as the
// repair base and as the terminal fallback when the planner is unreachable.
func DefaultDecision() Decision {
	return Decision{
		Route:      RouteUnknown,
		Intent:     IntentNone,
		Slots:      map[string]any{},
		Confidence: 0.0,
		ToolPlan:   []ToolCall{},
		Status:     StatusDone,
	}
}
