package workflow

import (
	"context"
	"fmt"

	"github.com/dukex/ruleflow/pkg/models"
	"github.com/dukex/ruleflow/pkg/persistence"
)

// ManualTrigger is an operator request to fire one rule, optionally against a record.
type ManualTrigger struct {
	TenantID string         `json:"tenant_id,omitempty"`
	RuleID   string         `json:"rule_id"`
	RecordID string         `json:"record_id,omitempty"`
	UserID   string         `json:"user_id"`
	Data     map[string]any `json:"data,omitempty"`
}

func fromTriggerContext(rule *models.WorkflowRule, tc models.TriggerContext) execution {
	return execution{
		triggerType:    tc.TriggerType,
		collectionID:   rule.CollectionID,
		collectionName: rule.CollectionName,
		recordID:       tc.RecordID,
		userID:         tc.UserID,
		data:           tc.Data,
		changedFields:  []string{},
	}
}

// ExecuteScheduledRule runs a rule for a cron firing. Trigger fields and the
// filter formula are not consulted.
func (e *Engine) ExecuteScheduledRule(ctx context.Context, rule *models.WorkflowRule) {
	logger := e.logger.With("rule_id", rule.ID, "tenant_id", rule.TenantID)

	defer func() {
		if r := recover(); r != nil {
			logger.ErrorContext(ctx, "Scheduled rule panicked", "panic", r)
		}
	}()

	if !rule.Active {
		logger.InfoContext(ctx, "Scheduled rule is inactive, skipping")

		return
	}

	tc := models.NewScheduledTriggerContext(rule.TenantID)

	_, err := e.runRule(ctx, rule, fromTriggerContext(rule, tc), false, logger)
	if err != nil {
		logger.ErrorContext(ctx, "Scheduled rule execution failed", "error", err)
	}
}

// ExecuteManualRule fires a rule on behalf of a user and returns the id of the
// execution log, whatever the outcome of its actions. An error is returned
// only when the rule cannot be loaded or the log cannot be created.
func (e *Engine) ExecuteManualRule(ctx context.Context, trigger ManualTrigger) (string, error) {
	rule, err := e.rules.RuleByID(ctx, trigger.RuleID)
	if err != nil {
		return "", fmt.Errorf("failed to load rule %s: %w", trigger.RuleID, err)
	}

	if trigger.TenantID != "" && trigger.TenantID != rule.TenantID {
		return "", persistence.NewRuleError("ExecuteManualRule", trigger.RuleID, persistence.ErrRuleNotFound)
	}

	logger := e.logger.With("rule_id", rule.ID, "tenant_id", rule.TenantID, "user_id", trigger.UserID)

	tc := models.NewManualTriggerContext(rule.TenantID, trigger.RecordID, trigger.UserID, trigger.Data)

	return e.runRule(ctx, rule, fromTriggerContext(rule, tc), true, logger)
}
