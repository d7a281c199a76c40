// Package testutil provides test data builders for rules and actions.
package testutil

import (
	"github.com/dukex/ruleflow/pkg/models"
	"github.com/google/uuid"
)

// CreateTestRule creates an active ON_CREATE rule with one LOG action. Overrides apply in order.
func CreateTestRule(overrides ...func(*models.WorkflowRule)) *models.WorkflowRule {
	rule := &models.WorkflowRule{
		ID:            uuid.New().String(),
		TenantID:      "tenant-1",
		CollectionID:  "col-1",
		Name:          "Test Rule",
		TriggerType:   models.TriggerOnCreate,
		ErrorHandling: models.StopOnError,
		Active:        true,
	}

	rule.Actions = []*models.WorkflowAction{CreateTestAction()}

	for _, override := range overrides {
		override(rule)
	}

	for _, action := range rule.Actions {
		action.RuleID = rule.ID
	}

	return rule
}

// CreateTestAction creates an active LOG action with a valid config.
func CreateTestAction(overrides ...func(*models.WorkflowAction)) *models.WorkflowAction {
	action := &models.WorkflowAction{
		ID:                uuid.New().String(),
		ActionType:        "LOG",
		Config:            `{"message": "record {{ .record_id }} changed", "level": "info"}`,
		ExecutionOrder:    1,
		Active:            true,
		RetryDelaySeconds: models.DefaultRetryDelaySeconds,
		RetryBackoff:      models.BackoffFixed,
	}

	for _, override := range overrides {
		override(action)
	}

	return action
}

func WithID(id string) func(*models.WorkflowRule) {
	return func(r *models.WorkflowRule) {
		r.ID = id
	}
}

func WithTenant(tenantID string) func(*models.WorkflowRule) {
	return func(r *models.WorkflowRule) {
		r.TenantID = tenantID
	}
}

func WithTrigger(triggerType models.TriggerType) func(*models.WorkflowRule) {
	return func(r *models.WorkflowRule) {
		r.TriggerType = triggerType
	}
}

// WithSchedule turns the rule into a SCHEDULED rule.
func WithSchedule(expression string) func(*models.WorkflowRule) {
	return func(r *models.WorkflowRule) {
		r.TriggerType = models.TriggerScheduled
		r.CronExpression = expression
	}
}

func WithActions(actions ...*models.WorkflowAction) func(*models.WorkflowRule) {
	return func(r *models.WorkflowRule) {
		r.Actions = actions
	}
}

func WithActionType(actionType, config string) func(*models.WorkflowAction) {
	return func(a *models.WorkflowAction) {
		a.ActionType = actionType
		a.Config = config
	}
}

func WithRetry(count, delaySeconds int, backoff models.RetryBackoff) func(*models.WorkflowAction) {
	return func(a *models.WorkflowAction) {
		a.RetryCount = count
		a.RetryDelaySeconds = delaySeconds
		a.RetryBackoff = backoff
	}
}
