package types

// FieldValidation is the per-field record produced by schema validation.
// Original and Repaired hold the raw values before and after repair so trace
// logs can show exactly what was changed.
type FieldValidation struct {
	Field    string `json:"field"`
	Valid    bool   `json:"valid"`
	Original any    `json:"original,omitempty"`
	Repaired any    `json:"repaired,omitempty"`
	Error    string `json:"error,omitempty"`
}

// RepairReport summarizes one Repair call. It lives for exactly one turn:
// consumed by the repair metrics window and by trace logging, never persisted.
type RepairReport struct {
	ValidBefore    bool              `json:"validBefore"`
	ValidAfter     bool              `json:"validAfter"`
	FieldsMissing  []string          `json:"fieldsMissing,omitempty"`
	FieldsInvalid  []string          `json:"fieldsInvalid,omitempty"`
	FieldsRepaired []string          `json:"fieldsRepaired,omitempty"`
	Fields         []FieldValidation `json:"fields,omitempty"`
}

// Repaired reports whether the record needed any repair at all.
func (r RepairReport) Repaired() bool {
	return len(r.FieldsRepaired) > 0
}
