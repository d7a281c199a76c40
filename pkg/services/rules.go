package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/ruleflow/pkg/eventbus"
	"github.com/dukex/ruleflow/pkg/events"
	"github.com/dukex/ruleflow/pkg/models"
	"github.com/dukex/ruleflow/pkg/persistence"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Rules saves and reads workflow rules. Saving validates the rule and every
// action configuration before anything is persisted.
type Rules struct {
	persistence persistence.Persistence
	actions     *ActionValidator
	validate    *validator.Validate
	publisher   eventbus.EventPublisher
	logger      *slog.Logger
}

// NewRules creates a rule service. The publisher may be nil, in which case
// no rules.changed notifications are emitted.
func NewRules(
	persistence persistence.Persistence,
	actions *ActionValidator,
	publisher eventbus.EventPublisher,
	logger *slog.Logger,
) *Rules {
	return &Rules{
		persistence: persistence,
		actions:     actions,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		publisher:   publisher,
		logger:      logger.With("module", "rules_service"),
	}
}

// HealthCheck checks the health of the persistence layer.
func (r *Rules) HealthCheck(ctx context.Context) (string, bool) {
	if r.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := r.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// Save validates and stores a rule, filling in identifiers and defaults.
// Validation problems are returned together as a *ValidationError.
func (r *Rules) Save(ctx context.Context, rule *models.WorkflowRule) (*models.WorkflowRule, error) {
	if rule == nil {
		return nil, ErrRuleNil
	}

	err := r.resolveCollection(ctx, rule)
	if err != nil {
		return nil, err
	}

	applyDefaults(rule)

	messages := r.validateRule(rule)
	if len(messages) > 0 {
		return nil, &ValidationError{Messages: messages}
	}

	err = r.persistence.RuleRepository().SaveRule(ctx, rule)
	if err != nil {
		return nil, fmt.Errorf("failed to save rule: %w", err)
	}

	r.notify(ctx, rule.TenantID, rule.ID)

	return rule, nil
}

func (r *Rules) resolveCollection(ctx context.Context, rule *models.WorkflowRule) error {
	if rule.CollectionID != "" || rule.CollectionName == "" {
		return nil
	}

	collectionID, err := r.persistence.CollectionRepository().ResolveCollectionID(ctx, rule.TenantID, rule.CollectionName)
	if err != nil {
		if errors.Is(err, persistence.ErrCollectionNotFound) {
			return &ValidationError{Messages: []string{"Unknown collection: " + rule.CollectionName}}
		}

		return fmt.Errorf("failed to resolve collection: %w", err)
	}

	rule.CollectionID = collectionID

	return nil
}

func applyDefaults(rule *models.WorkflowRule) {
	now := time.Now().UTC()

	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}

	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}

	rule.UpdatedAt = now

	if rule.ErrorHandling == "" {
		rule.ErrorHandling = models.StopOnError
	}

	for _, action := range rule.Actions {
		if action == nil {
			continue
		}

		if action.ID == "" {
			action.ID = uuid.New().String()
		}

		action.RuleID = rule.ID

		if action.RetryDelaySeconds == 0 {
			action.RetryDelaySeconds = models.DefaultRetryDelaySeconds
		}

		if action.RetryBackoff == "" {
			action.RetryBackoff = models.BackoffFixed
		}
	}
}

func (r *Rules) validateRule(rule *models.WorkflowRule) []string {
	messages := []string{}

	err := r.validate.Struct(rule)
	if err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return append(messages, err.Error())
		}

		for _, fieldErr := range validationErrors {
			messages = append(messages, fmt.Sprintf("%s failed on the '%s' rule", fieldErr.Namespace(), fieldErr.Tag()))
		}
	}

	if rule.TriggerType == models.TriggerScheduled && rule.CronExpression != "" {
		_, err = models.ParseCronExpression(rule.CronExpression)
		if err != nil {
			messages = append(messages, err.Error())
		}
	}

	specs := make([]ActionSpec, 0, len(rule.Actions))
	for _, action := range rule.Actions {
		if action == nil {
			continue
		}

		specs = append(specs, ActionSpec{ActionType: action.ActionType, Config: action.Config})
	}

	return append(messages, r.actions.ValidateActions(specs)...)
}

// ByID returns a rule with its actions.
func (r *Rules) ByID(ctx context.Context, id string) (*models.WorkflowRule, error) {
	if id == "" {
		return nil, ErrRuleIDRequired
	}

	return r.persistence.RuleRepository().RuleByID(ctx, id)
}

// Delete removes a rule and its actions.
func (r *Rules) Delete(ctx context.Context, id string) error {
	rule, err := r.ByID(ctx, id)
	if err != nil {
		return err
	}

	err = r.persistence.RuleRepository().DeleteRule(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}

	r.notify(ctx, rule.TenantID, id)

	return nil
}

func (r *Rules) notify(ctx context.Context, tenantID, ruleID string) {
	if r.publisher == nil {
		return
	}

	event := events.RulesChanged{
		BaseEvent: events.NewBaseEvent(events.RulesChangedEvent, tenantID),
		RuleID:    ruleID,
	}

	err := r.publisher.Publish(ctx, ruleID, event)
	if err != nil {
		r.logger.WarnContext(ctx, "Failed to publish rules changed event", "rule_id", ruleID, "error", err)
	}
}
