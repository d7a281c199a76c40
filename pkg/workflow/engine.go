// Package workflow runs workflow rules: it matches rules against record
// changes, gates them by trigger fields and filter formulas, and executes their
// actions with retry while writing the execution audit trail.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/dukex/ruleflow/pkg/events"
	"github.com/dukex/ruleflow/pkg/models"
	"github.com/dukex/ruleflow/pkg/otelhelper"
	"github.com/dukex/ruleflow/pkg/persistence"
	"github.com/dukex/ruleflow/pkg/protocol"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// HandlerLookup resolves the handler for an action type key.
type HandlerLookup interface {
	Handler(key string) (protocol.ActionHandler, bool)
}

// WaitFunc blocks for d or until ctx is done, returning ctx.Err() in the latter case.
type WaitFunc func(ctx context.Context, d time.Duration) error

// Engine evaluates rules on the caller's goroutine. It holds no mutable
// state of its own and is safe for concurrent use.
type Engine struct {
	rules       persistence.RuleRepository
	logs        persistence.ExecutionLogRepository
	collections protocol.CollectionResolver
	formulas    protocol.FormulaEvaluator
	handlers    HandlerLookup
	logger      *slog.Logger
	tracer      trace.Tracer
	wait        WaitFunc
}

type Option func(*Engine)

func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		if tracer != nil {
			e.tracer = tracer
		}
	}
}

// WithWaitFunc replaces the retry wait, mostly for tests.
func WithWaitFunc(wait WaitFunc) Option {
	return func(e *Engine) {
		if wait != nil {
			e.wait = wait
		}
	}
}

func NewEngine(
	rules persistence.RuleRepository,
	logs persistence.ExecutionLogRepository,
	collections protocol.CollectionResolver,
	formulas protocol.FormulaEvaluator,
	handlers HandlerLookup,
	logger *slog.Logger,
	opts ...Option,
) *Engine {
	e := &Engine{
		rules:       rules,
		logs:        logs,
		collections: collections,
		formulas:    formulas,
		handlers:    handlers,
		logger:      logger.With("module", "workflow_engine"),
		tracer:      otelhelper.NoopTracer(),
		wait:        sleepContext,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Evaluate runs every matching rule for a committed record change. Failures
// are logged and never returned; one rule failing does not affect the others.
func (e *Engine) Evaluate(ctx context.Context, event *events.RecordChangeEvent) {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "ruleflow.evaluate",
		attribute.String(otelhelper.EventIDKey, event.ID),
		attribute.String(otelhelper.TenantIDKey, event.TenantID),
		attribute.String(otelhelper.CollectionKey, event.CollectionName),
		attribute.String(otelhelper.RecordIDKey, event.RecordID),
	)
	defer span.End()

	logger := e.logger.With(
		"tenant_id", event.TenantID,
		"collection", event.CollectionName,
		"record_id", event.RecordID,
		"change_type", event.ChangeType,
	)

	collectionID, err := e.collections.ResolveCollectionID(ctx, event.TenantID, event.CollectionName)
	if err != nil {
		logger.WarnContext(ctx, "Could not resolve collection, skipping record change", "error", err)

		return
	}

	triggerType, ok := triggerForChange(event.ChangeType)
	if !ok {
		logger.WarnContext(ctx, "Unknown change type, skipping record change")

		return
	}

	rules, err := e.matchingRules(ctx, event.TenantID, collectionID, triggerType)
	if err != nil {
		otelhelper.SetError(span, err)
		logger.ErrorContext(ctx, "Failed to load rules", "error", err)

		return
	}

	logger.DebugContext(ctx, "Evaluating rules", "trigger_type", triggerType, "rules", len(rules))

	input := execution{
		triggerType:    triggerType,
		collectionID:   collectionID,
		collectionName: event.CollectionName,
		recordID:       event.RecordID,
		userID:         event.UserID,
		data:           event.Data,
		previousData:   event.PreviousData,
		changedFields:  event.ChangedFields,
	}

	for _, rule := range rules {
		e.evaluateRule(ctx, rule, input, event.ChangeType, logger)
	}
}

func triggerForChange(changeType events.ChangeType) (models.TriggerType, bool) {
	switch changeType {
	case events.ChangeCreated:
		return models.TriggerOnCreate, true
	case events.ChangeUpdated:
		return models.TriggerOnUpdate, true
	case events.ChangeDeleted:
		return models.TriggerOnDelete, true
	default:
		return "", false
	}
}

// matchingRules merges ON_CREATE_OR_UPDATE rules into create and update
// lookups, keeping execution order stable across the two queries.
func (e *Engine) matchingRules(ctx context.Context, tenantID, collectionID string, triggerType models.TriggerType) ([]*models.WorkflowRule, error) {
	rules, err := e.rules.ActiveRules(ctx, tenantID, collectionID, triggerType)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s rules: %w", triggerType, err)
	}

	if triggerType != models.TriggerOnCreate && triggerType != models.TriggerOnUpdate {
		return rules, nil
	}

	combined, err := e.rules.ActiveRules(ctx, tenantID, collectionID, models.TriggerOnCreateOrUpdate)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s rules: %w", models.TriggerOnCreateOrUpdate, err)
	}

	if len(combined) == 0 {
		return rules, nil
	}

	merged := make([]*models.WorkflowRule, 0, len(rules)+len(combined))
	merged = append(merged, rules...)
	merged = append(merged, combined...)

	models.SortRulesByExecutionOrder(merged)

	return merged, nil
}

// matchesTriggerFields narrows updates to rules watching at least one changed
// field. Creates and deletes always match.
func matchesTriggerFields(rule *models.WorkflowRule, changeType events.ChangeType, changedFields []string) bool {
	if !rule.HasTriggerFields() || changeType != events.ChangeUpdated {
		return true
	}

	for _, field := range rule.TriggerFields {
		if slices.Contains(changedFields, field) {
			return true
		}
	}

	return false
}

func (e *Engine) evaluateRule(ctx context.Context, rule *models.WorkflowRule, input execution, changeType events.ChangeType, logger *slog.Logger) {
	logger = logger.With("rule_id", rule.ID)

	defer func() {
		if r := recover(); r != nil {
			logger.ErrorContext(ctx, "Rule evaluation panicked", "panic", r)
		}
	}()

	if !matchesTriggerFields(rule, changeType, input.changedFields) {
		logger.DebugContext(ctx, "No trigger field changed, skipping rule")

		return
	}

	if strings.TrimSpace(rule.FilterFormula) != "" {
		matched, err := e.formulas.EvaluateBoolean(rule.FilterFormula, input.data)
		if err != nil {
			logger.WarnContext(ctx, "Filter formula evaluation failed", "error", err)
			e.recordFormulaFailure(ctx, rule, input, err, logger)

			return
		}

		if !matched {
			logger.DebugContext(ctx, "Filter formula did not match, skipping rule")

			return
		}
	}

	_, _ = e.runRule(ctx, rule, input, false, logger)
}

func (e *Engine) recordFormulaFailure(ctx context.Context, rule *models.WorkflowRule, input execution, cause error, logger *slog.Logger) {
	executionLog := newExecutionLog(rule, input)
	executionLog.Status = models.ExecutionStatusFailure
	executionLog.ErrorMessage = "Filter formula evaluation failed: " + cause.Error()

	err := e.logs.CreateExecutionLog(context.WithoutCancel(ctx), executionLog)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to write execution log", "error", err)
	}
}
