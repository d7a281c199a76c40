package models

import "time"

// ExecutionStatus is the lifecycle state of a rule evaluation.
type ExecutionStatus string

const (
	ExecutionStatusExecuting      ExecutionStatus = "EXECUTING"
	ExecutionStatusSuccess        ExecutionStatus = "SUCCESS"
	ExecutionStatusFailure        ExecutionStatus = "FAILURE"
	ExecutionStatusPartialFailure ExecutionStatus = "PARTIAL_FAILURE"
)

// IsTerminal reports whether no further transition is expected.
func (s ExecutionStatus) IsTerminal() bool {
	return s == ExecutionStatusSuccess || s == ExecutionStatusFailure || s == ExecutionStatusPartialFailure
}

// ActionStatus is the outcome of a single attempt.
type ActionStatus string

const (
	ActionStatusSuccess ActionStatus = "SUCCESS"
	ActionStatusFailure ActionStatus = "FAILURE"
)

// WorkflowExecutionLog records one rule evaluation that reached action
// execution or failed its filter formula.
type WorkflowExecutionLog struct {
	ID              string          `json:"id"`
	TenantID        string          `json:"tenant_id"`
	RuleID          string          `json:"rule_id"`
	RecordID        string          `json:"record_id,omitempty"`
	TriggerType     TriggerType     `json:"trigger_type"`
	Status          ExecutionStatus `json:"status"`
	ActionsExecuted int             `json:"actions_executed"`
	ErrorMessage    string          `json:"error_message,omitempty"`
	DurationMs      int64           `json:"duration_ms"`
	ExecutedAt      time.Time       `json:"executed_at"`
}

// WorkflowActionLog records one attempt of one action.
type WorkflowActionLog struct {
	ID             string       `json:"id"`
	ExecutionLogID string       `json:"execution_log_id"`
	ActionID       string       `json:"action_id"`
	ActionType     string       `json:"action_type"`
	Status         ActionStatus `json:"status"`
	ErrorMessage   string       `json:"error_message,omitempty"`
	DurationMs     int64        `json:"duration_ms"`
	AttemptNumber  int          `json:"attempt_number"`
	InputSnapshot  string       `json:"input_snapshot"`
	OutputSnapshot string       `json:"output_snapshot,omitempty"`
	ExecutedAt     time.Time    `json:"executed_at"`
}
