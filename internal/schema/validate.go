// Package schema makes raw planner output trustworthy. Validate reports
// exactly which decision fields are missing or invalid; Repair turns any
// input, however malformed, into a schema-valid Decision plus a report of
// what it had to change.
package schema

import (
	"fmt"

	"bantz/pkg/types"
)

// requiredFields are the decision fields that must be present.
var requiredFields = []string{"route", "intent", "confidence", "toolPlan", "assistantReply"}

// optionalFields are validated only when present.
var optionalFields = []string{"slots", "status", "askUser", "question", "requiresConfirmation", "confirmationPrompt", "reasoningSummary"}

// Validate checks a loosely-typed decision record field-by-field against the
// closed schema. It reports "missing" for absent required fields and a
// type/range error for invalid ones. Optional fields are checked only when
// present.
func Validate(raw map[string]any) (bool, []types.FieldValidation) {
	fields := make([]types.FieldValidation, 0, len(requiredFields)+len(optionalFields))
	valid := true

	for _, name := range requiredFields {
		value, present := raw[name]
		fv := types.FieldValidation{Field: name, Original: value}
		if !present {
			fv.Error = "missing"
		} else {
			fv.Error = checkField(name, value, raw)
		}
		fv.Valid = fv.Error == ""
		if !fv.Valid {
			valid = false
		}
		fields = append(fields, fv)
	}

	for _, name := range optionalFields {
		value, present := raw[name]
		if !present {
			continue
		}
		fv := types.FieldValidation{Field: name, Original: value}
		fv.Error = checkField(name, value, raw)
		fv.Valid = fv.Error == ""
		if !fv.Valid {
			valid = false
		}
		fields = append(fields, fv)
	}

	return valid, fields
}

// checkField returns an empty string when value is valid for the named field.
// Intent membership depends on the route; when the route itself is invalid
// the intent is checked against the union of all intent sets.
func checkField(name string, value any, raw map[string]any) string {
	switch name {
	case "route":
		s, ok := value.(string)
		if !ok {
			return fmt.Sprintf("expected string, got %T", value)
		}
		if !types.ValidRoute(types.Route(s)) {
			return fmt.Sprintf("%q is not a valid route", s)
		}
	case "intent":
		s, ok := value.(string)
		if !ok {
			return fmt.Sprintf("expected string, got %T", value)
		}
		if !memberOfIntentSet(s, raw) {
			return fmt.Sprintf("%q is not a valid intent", s)
		}
	case "confidence":
		f, ok := asFloat(value)
		if !ok {
			return fmt.Sprintf("expected number, got %T", value)
		}
		if f < 0 || f > 1 {
			return fmt.Sprintf("%v outside [0,1]", f)
		}
	case "toolPlan":
		items, ok := value.([]any)
		if !ok {
			return fmt.Sprintf("expected list, got %T", value)
		}
		for i, item := range items {
			if _, ok := toolCallFromItem(item); !ok {
				return fmt.Sprintf("item %d is not a tool name or {name,args} record", i)
			}
		}
	case "status":
		s, ok := value.(string)
		if !ok {
			return fmt.Sprintf("expected string, got %T", value)
		}
		if types.Status(s) != types.StatusDone && types.Status(s) != types.StatusNeedsMoreInfo {
			return fmt.Sprintf("%q is not a valid status", s)
		}
	case "askUser", "requiresConfirmation":
		if _, ok := value.(bool); !ok {
			return fmt.Sprintf("expected bool, got %T", value)
		}
	case "question", "confirmationPrompt", "assistantReply":
		if _, ok := value.(string); !ok {
			return fmt.Sprintf("expected string, got %T", value)
		}
	case "slots":
		if _, ok := value.(map[string]any); !ok {
			return fmt.Sprintf("expected object, got %T", value)
		}
	case "reasoningSummary":
		items, ok := value.([]any)
		if !ok {
			return fmt.Sprintf("expected list, got %T", value)
		}
		for i, item := range items {
			if _, ok := item.(string); !ok {
				return fmt.Sprintf("item %d is not a string", i)
			}
		}
	}
	return ""
}

// memberOfIntentSet checks intent validity relative to the record's route.
func memberOfIntentSet(intent string, raw map[string]any) bool {
	if route, ok := raw["route"].(string); ok && types.ValidRoute(types.Route(route)) {
		return types.ValidIntent(types.Route(route), intent)
	}
	for _, route := range types.Routes() {
		if types.ValidIntent(route, intent) {
			return true
		}
	}
	return false
}

// toolCallFromItem normalizes a tool plan item: a bare string or a
// {name,args} record with a non-empty name.
func toolCallFromItem(item any) (types.ToolCall, bool) {
	switch v := item.(type) {
	case string:
		if v == "" {
			return types.ToolCall{}, false
		}
		return types.ToolCall{Name: v}, true
	case map[string]any:
		name, _ := v["name"].(string)
		if name == "" {
			return types.ToolCall{}, false
		}
		args, _ := v["args"].(map[string]any)
		return types.ToolCall{Name: name, Args: args}, true
	default:
		return types.ToolCall{}, false
	}
}

// asFloat coerces JSON numbers (and Go ints from tests) to float64.
func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
