package planner

import (
	"encoding/json"
	"fmt"
	"strings"

	tokenutil "bantz/internal/token"
	"bantz/pkg/types"
)

const historyTurns = 4

// systemPrompt describes the decision schema to the planner model. The
// closed route/intent sets and the available tools are rendered in.
func (p *Planner) systemPrompt() string {
	var b strings.Builder
	b.WriteString("You are the intent planner of a voice assistant. ")
	b.WriteString("Answer with exactly one JSON object, no prose, matching this schema:\n")
	b.WriteString(`{"route": string, "intent": string, "slots": object, "confidence": number 0..1, ` +
		`"toolPlan": [{"name": string, "args": object}], "status": "done"|"needsMoreInfo", ` +
		`"askUser": bool, "question": string, "requiresConfirmation": bool, ` +
		`"confirmationPrompt": string, "assistantReply": string, "reasoningSummary": [string]}` + "\n\n")

	b.WriteString("Routes and intents:\n")
	for _, route := range types.Routes() {
		b.WriteString(fmt.Sprintf("- %s: %s\n", route, strings.Join(types.IntentsFor(route), ", ")))
	}

	if p.registry != nil {
		if toolList := p.registry.DescribeForPrompt(); toolList != "" {
			b.WriteString("\nAvailable tools:\n")
			b.WriteString(toolList)
		}
	}

	b.WriteString("\nRules:\n")
	b.WriteString("- toolPlan is always a JSON list, never a bare string.\n")
	b.WriteString("- set status to needsMoreInfo only when tool results are required before replying.\n")
	b.WriteString("- when askUser is true, question must contain the question to ask.\n")
	b.WriteString("- set requiresConfirmation for destructive or outward-facing actions and fill confirmationPrompt.\n")
	return b.String()
}

// decidePrompt renders the first planner request of a turn.
func decidePrompt(userInput string, history []string) string {
	var b strings.Builder
	if len(history) > 0 {
		b.WriteString("Recent dialog:\n")
		start := len(history) - historyTurns
		if start < 0 {
			start = 0
		}
		for _, line := range history[start:] {
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	b.WriteString("User: ")
	b.WriteString(userInput)
	return b.String()
}

// replanPrompt serializes the previous decision and the accumulated
// observations so the model can judge whether the goal is satisfied.
// Observations appear in production order.
func replanPrompt(userInput string, previous types.Decision, observations []types.Observation, iteration int) string {
	var b strings.Builder
	b.WriteString("User request: ")
	b.WriteString(userInput)
	b.WriteString("\n\nYour previous decision:\n")

	if encoded, err := json.Marshal(previous); err == nil {
		b.Write(encoded)
	}

	b.WriteString(fmt.Sprintf("\n\nTool observations so far (iteration %d):\n", iteration))
	for _, obs := range observations {
		status := "ok"
		if !obs.Success {
			status = "failed: " + obs.Error
		}
		summary := tokenutil.TruncateToTokens(obs.ResultSummary, 120)
		b.WriteString(fmt.Sprintf("%d. %s [%s] %s\n", obs.Iteration, obs.Tool, status, summary))
	}

	b.WriteString("\nDecide whether the user's goal is satisfied. ")
	b.WriteString("If it is, answer with status \"done\", an empty toolPlan and the assistantReply. ")
	b.WriteString("If more tool calls are needed, plan only the missing ones. Answer with one JSON object.")
	return b.String()
}
