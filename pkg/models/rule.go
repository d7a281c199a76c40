// Package models defines the core domain models for record-change workflow rules.
package models

import (
	"slices"
	"time"
)

// TriggerType identifies what kind of occurrence fires a rule.
type TriggerType string

const (
	TriggerOnCreate         TriggerType = "ON_CREATE"
	TriggerOnUpdate         TriggerType = "ON_UPDATE"
	TriggerOnDelete         TriggerType = "ON_DELETE"
	TriggerOnCreateOrUpdate TriggerType = "ON_CREATE_OR_UPDATE"
	TriggerBeforeCreate     TriggerType = "BEFORE_CREATE"
	TriggerBeforeUpdate     TriggerType = "BEFORE_UPDATE"
	TriggerScheduled        TriggerType = "SCHEDULED"
	TriggerManual           TriggerType = "MANUAL"
)

// ErrorHandling decides what a rule does after one of its actions fails.
type ErrorHandling string

const (
	StopOnError     ErrorHandling = "STOP_ON_ERROR"
	ContinueOnError ErrorHandling = "CONTINUE_ON_ERROR"
)

// WorkflowRule is a named automation configured per tenant and collection.
type WorkflowRule struct {
	ID             string            `json:"id"                        validate:"required"`
	TenantID       string            `json:"tenant_id"                 validate:"required"`
	CollectionID   string            `json:"collection_id"             validate:"required"`
	CollectionName string            `json:"collection_name,omitempty"`
	Name           string            `json:"name"                      validate:"required,min=3"`
	TriggerType    TriggerType       `json:"trigger_type"              validate:"required,oneof=ON_CREATE ON_UPDATE ON_DELETE ON_CREATE_OR_UPDATE BEFORE_CREATE BEFORE_UPDATE SCHEDULED MANUAL"`
	FilterFormula  string            `json:"filter_formula,omitempty"`
	TriggerFields  []string          `json:"trigger_fields,omitempty"`
	ExecutionOrder int               `json:"execution_order"`
	ErrorHandling  ErrorHandling     `json:"error_handling"            validate:"required,oneof=STOP_ON_ERROR CONTINUE_ON_ERROR"`
	Active         bool              `json:"active"`
	CronExpression string            `json:"cron_expression,omitempty" validate:"required_if=TriggerType SCHEDULED"`
	Actions        []*WorkflowAction `json:"actions"                   validate:"dive"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// ActiveActions returns the active actions of the rule in ascending execution order.
// The rule itself is left untouched.
func (r *WorkflowRule) ActiveActions() []*WorkflowAction {
	active := make([]*WorkflowAction, 0, len(r.Actions))

	for _, action := range r.Actions {
		if action != nil && action.Active {
			active = append(active, action)
		}
	}

	slices.SortStableFunc(active, func(a, b *WorkflowAction) int {
		return a.ExecutionOrder - b.ExecutionOrder
	})

	return active
}

// HasTriggerFields reports whether the rule narrows updates to specific fields.
func (r *WorkflowRule) HasTriggerFields() bool {
	return len(r.TriggerFields) > 0
}

// SortRulesByExecutionOrder sorts rules in place by ascending execution order,
// keeping the relative order of rules with equal values.
func SortRulesByExecutionOrder(rules []*WorkflowRule) {
	slices.SortStableFunc(rules, func(a, b *WorkflowRule) int {
		return a.ExecutionOrder - b.ExecutionOrder
	})
}
