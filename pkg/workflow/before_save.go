package workflow

import (
	"context"
	"log/slog"
	"maps"
	"strings"

	"github.com/dukex/ruleflow/pkg/actions/fieldupdate"
	"github.com/dukex/ruleflow/pkg/events"
	"github.com/dukex/ruleflow/pkg/models"
)

// BeforeSaveRequest describes a record about to be written.
type BeforeSaveRequest struct {
	TenantID       string            `json:"tenant_id"       validate:"required"`
	CollectionName string            `json:"collection_name" validate:"required"`
	RecordID       string            `json:"record_id,omitempty"`
	ChangeType     events.ChangeType `json:"change_type"     validate:"required,oneof=CREATED UPDATED"`
	Data           map[string]any    `json:"data"`
	PreviousData   map[string]any    `json:"previous_data,omitempty"`
	ChangedFields  []string          `json:"changed_fields,omitempty"`
	UserID         string            `json:"user_id"`
}

// BeforeSaveResult carries the field updates the caller should apply before persisting.
type BeforeSaveResult struct {
	FieldUpdates    map[string]any `json:"field_updates"`
	RulesEvaluated  int            `json:"rules_evaluated"`
	ActionsExecuted int            `json:"actions_executed"`
}

func beforeTriggerFor(changeType events.ChangeType) (models.TriggerType, bool) {
	switch changeType {
	case events.ChangeCreated:
		return models.TriggerBeforeCreate, true
	case events.ChangeUpdated:
		return models.TriggerBeforeUpdate, true
	default:
		return "", false
	}
}

// EvaluateBeforeSave runs BEFORE_CREATE or BEFORE_UPDATE rules synchronously.
// Only field updates execute, once each, and nothing is written to the
// execution log. Later rules overwrite earlier ones for the same field.
func (e *Engine) EvaluateBeforeSave(ctx context.Context, req BeforeSaveRequest) BeforeSaveResult {
	result := BeforeSaveResult{FieldUpdates: map[string]any{}}

	logger := e.logger.With(
		"tenant_id", req.TenantID,
		"collection", req.CollectionName,
		"record_id", req.RecordID,
		"change_type", req.ChangeType,
	)

	triggerType, ok := beforeTriggerFor(req.ChangeType)
	if !ok {
		logger.WarnContext(ctx, "Before-save supports only creates and updates")

		return result
	}

	collectionID, err := e.collections.ResolveCollectionID(ctx, req.TenantID, req.CollectionName)
	if err != nil {
		logger.WarnContext(ctx, "Could not resolve collection, skipping before-save rules", "error", err)

		return result
	}

	rules, err := e.rules.ActiveRules(ctx, req.TenantID, collectionID, triggerType)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to load before-save rules", "error", err)

		return result
	}

	input := execution{
		triggerType:    triggerType,
		collectionID:   collectionID,
		collectionName: req.CollectionName,
		recordID:       req.RecordID,
		userID:         req.UserID,
		data:           req.Data,
		previousData:   req.PreviousData,
		changedFields:  req.ChangedFields,
	}

	for _, rule := range rules {
		e.beforeSaveRule(ctx, rule, input, req.ChangeType, &result, logger.With("rule_id", rule.ID))
	}

	return result
}

func (e *Engine) beforeSaveRule(
	ctx context.Context,
	rule *models.WorkflowRule,
	input execution,
	changeType events.ChangeType,
	result *BeforeSaveResult,
	logger *slog.Logger,
) {
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorContext(ctx, "Before-save rule panicked", "panic", r)
		}
	}()

	if !matchesTriggerFields(rule, changeType, input.changedFields) {
		return
	}

	if strings.TrimSpace(rule.FilterFormula) != "" {
		matched, err := e.formulas.EvaluateBoolean(rule.FilterFormula, input.data)
		if err != nil {
			logger.WarnContext(ctx, "Filter formula evaluation failed, skipping rule", "error", err)

			return
		}

		if !matched {
			return
		}
	}

	result.RulesEvaluated++

	for _, action := range rule.ActiveActions() {
		if action.ActionType != fieldupdate.TypeKey {
			continue
		}

		handler, ok := e.handlers.Handler(action.ActionType)
		if !ok {
			logger.WarnContext(ctx, "No handler registered for field updates")

			return
		}

		actionResult := invoke(ctx, handler, input.actionContext(rule, action, ""), logger)
		result.ActionsExecuted++

		if !actionResult.Successful {
			logger.WarnContext(ctx, "Before-save action failed", "action_id", action.ID, "error", actionResult.ErrorMessage)

			if rule.ErrorHandling == models.ContinueOnError {
				continue
			}

			return
		}

		maps.Copy(result.FieldUpdates, actionResult.UpdatedFields())
	}
}
