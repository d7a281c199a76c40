package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/dukex/ruleflow/pkg/models"
	"github.com/dukex/ruleflow/pkg/otelhelper"
	"github.com/dukex/ruleflow/pkg/protocol"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// execution is the trigger-independent input of one rule run.
type execution struct {
	triggerType    models.TriggerType
	collectionID   string
	collectionName string
	recordID       string
	userID         string
	data           map[string]any
	previousData   map[string]any
	changedFields  []string
}

func (in execution) actionContext(rule *models.WorkflowRule, action *models.WorkflowAction, executionLogID string) models.ActionContext {
	data := maps.Clone(in.data)
	if data == nil {
		data = map[string]any{}
	}

	changed := append([]string{}, in.changedFields...)

	return models.ActionContext{
		TenantID:       rule.TenantID,
		CollectionID:   in.collectionID,
		CollectionName: in.collectionName,
		RecordID:       in.recordID,
		Data:           data,
		PreviousData:   maps.Clone(in.previousData),
		ChangedFields:  changed,
		UserID:         in.userID,
		ActionConfig:   action.Config,
		RuleID:         rule.ID,
		ExecutionLogID: executionLogID,
		ResolvedData:   map[string]any{},
	}
}

func newExecutionLog(rule *models.WorkflowRule, in execution) *models.WorkflowExecutionLog {
	return &models.WorkflowExecutionLog{
		ID:          uuid.New().String(),
		TenantID:    rule.TenantID,
		RuleID:      rule.ID,
		RecordID:    in.recordID,
		TriggerType: in.triggerType,
		Status:      models.ExecutionStatusExecuting,
		ExecutedAt:  time.Now().UTC(),
	}
}

// runRule executes the active actions of a rule in order and returns the id
// of the execution log it wrote. Without active actions nothing is written
// unless alwaysLog is set.
func (e *Engine) runRule(ctx context.Context, rule *models.WorkflowRule, in execution, alwaysLog bool, logger *slog.Logger) (string, error) {
	actions := rule.ActiveActions()
	if len(actions) == 0 && !alwaysLog {
		logger.DebugContext(ctx, "Rule has no active actions, skipping")

		return "", nil
	}

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "ruleflow.rule",
		attribute.String(otelhelper.RuleIDKey, rule.ID),
		attribute.String(otelhelper.RuleNameKey, rule.Name),
		attribute.String(otelhelper.TriggerTypeKey, string(in.triggerType)),
	)
	defer span.End()

	logCtx := context.WithoutCancel(ctx)
	started := time.Now()

	executionLog := newExecutionLog(rule, in)

	err := e.logs.CreateExecutionLog(logCtx, executionLog)
	if err != nil {
		otelhelper.SetError(span, err)
		logger.ErrorContext(ctx, "Failed to create execution log", "error", err)

		return "", fmt.Errorf("failed to create execution log: %w", err)
	}

	logger = logger.With("execution_id", executionLog.ID)
	logger.InfoContext(ctx, "Executing rule", "trigger_type", in.triggerType, "actions", len(actions))

	status := models.ExecutionStatusSuccess
	errorMessage := ""
	executed := 0

	for _, action := range actions {
		actionCtx := in.actionContext(rule, action, executionLog.ID)
		result := e.runAction(ctx, action, actionCtx, executionLog.ID, logger)
		executed++

		if result.Successful {
			continue
		}

		if rule.ErrorHandling == models.ContinueOnError {
			status = models.ExecutionStatusPartialFailure

			if errorMessage == "" {
				errorMessage = result.ErrorMessage
			}

			continue
		}

		status = models.ExecutionStatusFailure
		errorMessage = result.ErrorMessage

		break
	}

	executionLog.Status = status
	executionLog.ActionsExecuted = executed
	executionLog.ErrorMessage = errorMessage
	executionLog.DurationMs = time.Since(started).Milliseconds()

	span.SetAttributes(
		attribute.String(otelhelper.ExecutionIDKey, executionLog.ID),
		attribute.String(otelhelper.ExecutionStateKey, string(status)),
	)

	err = e.logs.UpdateExecutionLog(logCtx, executionLog)
	if err != nil {
		otelhelper.SetError(span, err)
		logger.ErrorContext(ctx, "Failed to finalize execution log", "error", err)
	}

	logger.InfoContext(ctx, "Rule executed", "status", status, "actions_executed", executed, "duration_ms", executionLog.DurationMs)

	return executionLog.ID, nil
}

// runAction runs one action through its retry policy, writing an action log
// for every attempt, and returns the last attempt's result.
func (e *Engine) runAction(
	ctx context.Context,
	action *models.WorkflowAction,
	actionCtx models.ActionContext,
	executionLogID string,
	logger *slog.Logger,
) *models.ActionResult {
	logger = logger.With("action_id", action.ID, "action_type", action.ActionType)

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "ruleflow.action",
		attribute.String(otelhelper.ActionIDKey, action.ID),
		attribute.String(otelhelper.ActionTypeKey, action.ActionType),
	)
	defer span.End()

	record := func(attempt int, result *models.ActionResult, duration time.Duration) {
		e.saveActionLog(ctx, action, actionCtx, executionLogID, attempt, result, duration, logger)
	}

	handler, ok := e.handlers.Handler(action.ActionType)
	if !ok {
		result := models.Failure("Unknown action type: " + action.ActionType)
		record(1, result, 0)
		logger.WarnContext(ctx, "No handler registered for action type")
		span.SetAttributes(attribute.Int(otelhelper.AttemptKey, 1))

		return result
	}

	maxAttempts := action.MaxAttempts()

	var result *models.ActionResult

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		started := time.Now()
		result = invoke(ctx, handler, actionCtx, logger)
		record(attempt, result, time.Since(started))

		span.SetAttributes(attribute.Int(otelhelper.AttemptKey, attempt))

		if result.Successful {
			return result
		}

		logger.WarnContext(ctx, "Action attempt failed", "attempt", attempt, "max_attempts", maxAttempts, "error", result.ErrorMessage)

		if attempt == maxAttempts {
			break
		}

		delay := action.RetryDelay(attempt)

		err := e.wait(ctx, delay)
		if err != nil {
			logger.WarnContext(ctx, "Retry wait interrupted, giving up on action", "attempt", attempt, "error", err)

			break
		}
	}

	otelhelper.SetFailure(span, result.ErrorMessage)

	return result
}

// invoke runs a single attempt. Returned errors and panics become failed results.
func invoke(ctx context.Context, handler protocol.ActionHandler, actionCtx models.ActionContext, logger *slog.Logger) (result *models.ActionResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorContext(ctx, "Action handler panicked", "panic", r)
			result = models.Failure(fmt.Sprintf("%v", r))
		}
	}()

	res, err := handler.Execute(ctx, actionCtx, logger)
	if err != nil {
		return models.Failure(err.Error())
	}

	if res == nil {
		return models.Failure("action handler returned no result")
	}

	out := *res
	if !out.Successful && out.ErrorMessage == "" {
		out.ErrorMessage = "action failed"
	}

	if out.OutputData == nil {
		out.OutputData = map[string]any{}
	}

	return &out
}

func (e *Engine) saveActionLog(
	ctx context.Context,
	action *models.WorkflowAction,
	actionCtx models.ActionContext,
	executionLogID string,
	attempt int,
	result *models.ActionResult,
	duration time.Duration,
	logger *slog.Logger,
) {
	status := models.ActionStatusSuccess
	if !result.Successful {
		status = models.ActionStatusFailure
	}

	actionLog := &models.WorkflowActionLog{
		ID:             uuid.New().String(),
		ExecutionLogID: executionLogID,
		ActionID:       action.ID,
		ActionType:     action.ActionType,
		Status:         status,
		ErrorMessage:   result.ErrorMessage,
		DurationMs:     duration.Milliseconds(),
		AttemptNumber:  attempt,
		InputSnapshot:  inputSnapshot(action.Config, actionCtx),
		OutputSnapshot: outputSnapshot(result.OutputData),
		ExecutedAt:     time.Now().UTC(),
	}

	err := e.logs.SaveActionLog(context.WithoutCancel(ctx), actionLog)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to write action log", "attempt", attempt, "error", err)
	}
}

func inputSnapshot(config string, actionCtx models.ActionContext) string {
	snapshot := map[string]any{
		"config":         config,
		"recordId":       nil,
		"collectionName": actionCtx.CollectionName,
	}

	if json.Valid([]byte(config)) {
		snapshot["config"] = json.RawMessage(config)
	}

	if actionCtx.RecordID != "" {
		snapshot["recordId"] = actionCtx.RecordID
	}

	raw, err := json.Marshal(snapshot)
	if err != nil {
		return "{}"
	}

	return string(raw)
}

func outputSnapshot(output map[string]any) string {
	if len(output) == 0 {
		return ""
	}

	raw, err := json.Marshal(output)
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}

	return string(raw)
}
