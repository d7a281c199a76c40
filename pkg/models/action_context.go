package models

// ActionContext is what a handler receives for one execution attempt.
// Handlers must treat it as read-only.
type ActionContext struct {
	TenantID       string         `json:"tenant_id"`
	CollectionID   string         `json:"collection_id"`
	CollectionName string         `json:"collection_name"`
	RecordID       string         `json:"record_id,omitempty"`
	Data           map[string]any `json:"data"`
	PreviousData   map[string]any `json:"previous_data,omitempty"`
	ChangedFields  []string       `json:"changed_fields"`
	UserID         string         `json:"user_id"`
	ActionConfig   string         `json:"action_config"`
	RuleID         string         `json:"rule_id"`
	ExecutionLogID string         `json:"execution_log_id,omitempty"`

	// ResolvedData is reserved for cross-reference resolution and is always empty.
	ResolvedData map[string]any `json:"resolved_data"`
}

// UpdatedFieldsKey is the output key under which field-mutating actions
// report their field name to value mapping.
const UpdatedFieldsKey = "updatedFields"

// ActionResult is the outcome of one execution attempt.
type ActionResult struct {
	Successful   bool           `json:"successful"`
	ErrorMessage string         `json:"error_message,omitempty"`
	OutputData   map[string]any `json:"output_data"`
}

func Success() *ActionResult {
	return &ActionResult{Successful: true, OutputData: map[string]any{}}
}

func SuccessWithOutput(output map[string]any) *ActionResult {
	if output == nil {
		output = map[string]any{}
	}

	return &ActionResult{Successful: true, OutputData: output}
}

func Failure(message string) *ActionResult {
	return &ActionResult{Successful: false, ErrorMessage: message, OutputData: map[string]any{}}
}

// UpdatedFields extracts the field updates reported by a field-mutating action.
func (r *ActionResult) UpdatedFields() map[string]any {
	if r == nil || r.OutputData == nil {
		return nil
	}

	fields, ok := r.OutputData[UpdatedFieldsKey].(map[string]any)
	if !ok {
		return nil
	}

	return fields
}
