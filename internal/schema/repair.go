package schema

import (
	"sort"
	"strconv"
	"strings"

	"bantz/pkg/types"
)

// truthyStrings are accepted as boolean true during coercion. "evet" is
// Turkish for yes; planner models occasionally answer in the user's language.
var truthyStrings = map[string]bool{"true": true, "1": true, "yes": true, "evet": true}

// Repair converts any input into a schema-valid Decision. It never panics and
// never returns an invalid record: unparseable input produces the full-default
// Decision, near-miss enum values are corrected to their closest valid member,
// numbers are coerced and clamped, and everything else falls back to the
// documented field default. The report records exactly what was changed.
func Repair(input any) (types.Decision, types.RepairReport) {
	raw, ok := input.(map[string]any)
	if !ok || raw == nil {
		report := types.RepairReport{
			ValidBefore:    false,
			ValidAfter:     true,
			FieldsMissing:  append([]string{}, requiredFields...),
			FieldsRepaired: append([]string{}, requiredFields...),
		}
		return types.DefaultDecision(), report
	}

	validBefore, fields := Validate(raw)
	if validBefore {
		return decisionFromValid(raw), types.RepairReport{
			ValidBefore: true,
			ValidAfter:  true,
			Fields:      fields,
		}
	}

	decision := types.DefaultDecision()
	report := types.RepairReport{ValidBefore: false}

	byField := make(map[string]*types.FieldValidation, len(fields))
	for i := range fields {
		byField[fields[i].Field] = &fields[i]
	}

	// Route first: intent membership depends on it.
	decision.Route = repairRoute(raw, byField, &report)
	decision.Intent = repairIntent(raw, decision.Route, byField, &report)
	decision.Confidence = repairConfidence(raw, byField, &report)
	decision.ToolPlan = repairToolPlan(raw, byField, &report)
	decision.AssistantReply = repairString(raw, "assistantReply", byField, &report)
	decision.Question = repairString(raw, "question", byField, &report)
	decision.ConfirmationPrompt = repairString(raw, "confirmationPrompt", byField, &report)
	decision.Status = repairStatus(raw, byField, &report)
	decision.AskUser = repairBool(raw, "askUser", byField, &report)
	decision.RequiresConfirmation = repairBool(raw, "requiresConfirmation", byField, &report)
	decision.Slots = repairSlots(raw, byField, &report)
	decision.ReasoningSummary = repairReasoning(raw, byField, &report)

	// Cross-field invariant: askUser without a question is meaningless.
	if decision.AskUser && strings.TrimSpace(decision.Question) == "" {
		decision.AskUser = false
		markRepaired(byField, &report, "askUser", false)
	}

	report.Fields = fields
	sort.Strings(report.FieldsMissing)
	sort.Strings(report.FieldsInvalid)
	sort.Strings(report.FieldsRepaired)

	// Every field default is itself valid, so the repaired record must pass.
	report.ValidAfter, _ = Validate(rawFromDecision(decision))
	return decision, report
}

// decisionFromValid assembles a Decision from a record that already passed
// validation; missing optional fields take their defaults.
func decisionFromValid(raw map[string]any) types.Decision {
	decision := types.DefaultDecision()
	decision.Route = types.Route(raw["route"].(string))
	decision.Intent = raw["intent"].(string)
	decision.Confidence, _ = asFloat(raw["confidence"])
	decision.AssistantReply = raw["assistantReply"].(string)

	items := raw["toolPlan"].([]any)
	plan := make([]types.ToolCall, 0, len(items))
	for _, item := range items {
		call, _ := toolCallFromItem(item)
		plan = append(plan, call)
	}
	decision.ToolPlan = plan

	if s, ok := raw["status"].(string); ok {
		decision.Status = types.Status(s)
	}
	if b, ok := raw["askUser"].(bool); ok {
		decision.AskUser = b
	}
	if s, ok := raw["question"].(string); ok {
		decision.Question = s
	}
	if b, ok := raw["requiresConfirmation"].(bool); ok {
		decision.RequiresConfirmation = b
	}
	if s, ok := raw["confirmationPrompt"].(string); ok {
		decision.ConfirmationPrompt = s
	}
	if m, ok := raw["slots"].(map[string]any); ok {
		decision.Slots = m
	}
	if items, ok := raw["reasoningSummary"].([]any); ok {
		summary := make([]string, 0, len(items))
		for _, item := range items {
			summary = append(summary, item.(string))
		}
		decision.ReasoningSummary = summary
	}
	return decision
}

func repairRoute(raw map[string]any, byField map[string]*types.FieldValidation, report *types.RepairReport) types.Route {
	fv := byField["route"]
	if fv.Valid {
		return types.Route(raw["route"].(string))
	}
	if _, present := raw["route"]; !present {
		markMissing(byField, report, "route", string(types.RouteUnknown))
		return types.RouteUnknown
	}
	if s, ok := raw["route"].(string); ok {
		candidates := make([]string, 0, len(types.Routes()))
		for _, route := range types.Routes() {
			candidates = append(candidates, string(route))
		}
		if match, ok := ClosestMatch(s, candidates); ok {
			markInvalid(byField, report, "route", match)
			return types.Route(match)
		}
	}
	markInvalid(byField, report, "route", string(types.RouteUnknown))
	return types.RouteUnknown
}

func repairIntent(raw map[string]any, route types.Route, byField map[string]*types.FieldValidation, report *types.RepairReport) string {
	fv := byField["intent"]
	if fv.Valid {
		// Valid relative to the raw route, but the route may have been
		// repaired to a domain with a different intent set.
		intent := raw["intent"].(string)
		if types.ValidIntent(route, intent) {
			return intent
		}
	}
	if _, present := raw["intent"]; !present {
		markMissing(byField, report, "intent", types.IntentNone)
		return types.IntentNone
	}
	if s, ok := raw["intent"].(string); ok {
		if match, ok := ClosestMatch(s, types.IntentsFor(route)); ok {
			markInvalid(byField, report, "intent", match)
			return match
		}
	}
	markInvalid(byField, report, "intent", types.IntentNone)
	return types.IntentNone
}

func repairConfidence(raw map[string]any, byField map[string]*types.FieldValidation, report *types.RepairReport) float64 {
	fv := byField["confidence"]
	if fv.Valid {
		f, _ := asFloat(raw["confidence"])
		return f
	}
	if _, present := raw["confidence"]; !present {
		markMissing(byField, report, "confidence", 0.0)
		return 0.0
	}
	f, ok := asFloat(raw["confidence"])
	if !ok {
		if s, isString := raw["confidence"].(string); isString {
			if parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
				f, ok = parsed, true
			}
		}
	}
	if !ok {
		markInvalid(byField, report, "confidence", 0.0)
		return 0.0
	}
	if f < 0 {
		f = 0.0
	}
	if f > 1 {
		f = 1.0
	}
	markInvalid(byField, report, "confidence", f)
	return f
}

func repairToolPlan(raw map[string]any, byField map[string]*types.FieldValidation, report *types.RepairReport) []types.ToolCall {
	fv := byField["toolPlan"]
	if fv.Valid {
		items := raw["toolPlan"].([]any)
		plan := make([]types.ToolCall, 0, len(items))
		for _, item := range items {
			call, _ := toolCallFromItem(item)
			plan = append(plan, call)
		}
		return plan
	}
	if _, present := raw["toolPlan"]; !present {
		markMissing(byField, report, "toolPlan", []types.ToolCall{})
		return []types.ToolCall{}
	}

	switch value := raw["toolPlan"].(type) {
	case []any:
		// Keep well-formed items, drop the rest.
		plan := make([]types.ToolCall, 0, len(value))
		for _, item := range value {
			if call, ok := toolCallFromItem(item); ok {
				plan = append(plan, call)
			}
		}
		markInvalid(byField, report, "toolPlan", plan)
		return plan
	case string:
		// A comma-separated string of tool names.
		plan := []types.ToolCall{}
		for _, name := range strings.Split(value, ",") {
			name = strings.TrimSpace(name)
			if name != "" {
				plan = append(plan, types.ToolCall{Name: name})
			}
		}
		markInvalid(byField, report, "toolPlan", plan)
		return plan
	default:
		markInvalid(byField, report, "toolPlan", []types.ToolCall{})
		return []types.ToolCall{}
	}
}

func repairStatus(raw map[string]any, byField map[string]*types.FieldValidation, report *types.RepairReport) types.Status {
	fv, present := byField["status"]
	if present && fv.Valid {
		return types.Status(raw["status"].(string))
	}
	if _, exists := raw["status"]; !exists {
		return types.StatusDone
	}
	if s, ok := raw["status"].(string); ok {
		if match, ok := ClosestMatch(s, []string{string(types.StatusDone), string(types.StatusNeedsMoreInfo)}); ok {
			markInvalid(byField, report, "status", match)
			return types.Status(match)
		}
	}
	markInvalid(byField, report, "status", string(types.StatusDone))
	return types.StatusDone
}

func repairBool(raw map[string]any, field string, byField map[string]*types.FieldValidation, report *types.RepairReport) bool {
	fv, present := byField[field]
	if present && fv.Valid {
		return raw[field].(bool)
	}
	value, exists := raw[field]
	if !exists {
		return false
	}
	repaired := coerceBool(value)
	markInvalid(byField, report, field, repaired)
	return repaired
}

// coerceBool applies truthy-string coercion; anything unrecognized is false.
func coerceBool(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return truthyStrings[strings.ToLower(strings.TrimSpace(v))]
	case float64:
		return v != 0
	case int:
		return v != 0
	default:
		return false
	}
}

func repairString(raw map[string]any, field string, byField map[string]*types.FieldValidation, report *types.RepairReport) string {
	fv, present := byField[field]
	if present && fv.Valid {
		return raw[field].(string)
	}
	value, exists := raw[field]
	if !exists {
		if field == "assistantReply" {
			markMissing(byField, report, field, "")
		}
		return ""
	}
	if _, isString := value.(string); !isString {
		markInvalid(byField, report, field, "")
	}
	return ""
}

func repairSlots(raw map[string]any, byField map[string]*types.FieldValidation, report *types.RepairReport) map[string]any {
	fv, present := byField["slots"]
	if present && fv.Valid {
		return raw["slots"].(map[string]any)
	}
	if _, exists := raw["slots"]; !exists {
		return map[string]any{}
	}
	markInvalid(byField, report, "slots", map[string]any{})
	return map[string]any{}
}

func repairReasoning(raw map[string]any, byField map[string]*types.FieldValidation, report *types.RepairReport) []string {
	fv, present := byField["reasoningSummary"]
	if present && fv.Valid {
		items := raw["reasoningSummary"].([]any)
		summary := make([]string, 0, len(items))
		for _, item := range items {
			summary = append(summary, item.(string))
		}
		return summary
	}
	value, exists := raw["reasoningSummary"]
	if !exists {
		return nil
	}
	// Keep string items, drop the rest.
	summary := []string{}
	if items, ok := value.([]any); ok {
		for _, item := range items {
			if s, isString := item.(string); isString {
				summary = append(summary, s)
			}
		}
	}
	markInvalid(byField, report, "reasoningSummary", summary)
	return summary
}

func markMissing(byField map[string]*types.FieldValidation, report *types.RepairReport, field string, repaired any) {
	report.FieldsMissing = append(report.FieldsMissing, field)
	report.FieldsRepaired = append(report.FieldsRepaired, field)
	if fv, ok := byField[field]; ok {
		fv.Repaired = repaired
	}
}

// markRepaired records a field changed by a cross-field rule without
// classifying it missing or invalid. A field already listed by a per-field
// repair is not listed twice.
func markRepaired(byField map[string]*types.FieldValidation, report *types.RepairReport, field string, repaired any) {
	if fv, ok := byField[field]; ok {
		fv.Repaired = repaired
	}
	for _, seen := range report.FieldsRepaired {
		if seen == field {
			return
		}
	}
	report.FieldsRepaired = append(report.FieldsRepaired, field)
}

func markInvalid(byField map[string]*types.FieldValidation, report *types.RepairReport, field string, repaired any) {
	report.FieldsInvalid = append(report.FieldsInvalid, field)
	report.FieldsRepaired = append(report.FieldsRepaired, field)
	if fv, ok := byField[field]; ok {
		fv.Repaired = repaired
	}
}

// rawFromDecision lowers a Decision back to the loosely-typed form Validate
// understands, so repaired output can be re-checked.
func rawFromDecision(d types.Decision) map[string]any {
	plan := make([]any, 0, len(d.ToolPlan))
	for _, call := range d.ToolPlan {
		item := map[string]any{"name": call.Name}
		if call.Args != nil {
			item["args"] = call.Args
		}
		plan = append(plan, item)
	}
	raw := map[string]any{
		"route":                string(d.Route),
		"intent":               d.Intent,
		"confidence":           d.Confidence,
		"toolPlan":             plan,
		"status":               string(d.Status),
		"askUser":              d.AskUser,
		"requiresConfirmation": d.RequiresConfirmation,
		"assistantReply":       d.AssistantReply,
	}
	if d.Question != "" {
		raw["question"] = d.Question
	}
	if d.ConfirmationPrompt != "" {
		raw["confirmationPrompt"] = d.ConfirmationPrompt
	}
	if d.Slots != nil {
		raw["slots"] = d.Slots
	}
	if d.ReasoningSummary != nil {
		summary := make([]any, 0, len(d.ReasoningSummary))
		for _, line := range d.ReasoningSummary {
			summary = append(summary, line)
		}
		raw["reasoningSummary"] = summary
	}
	return raw
}
