package models

import (
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRule() *WorkflowRule {
	return &WorkflowRule{
		ID:            "rule-1",
		TenantID:      "tenant-1",
		CollectionID:  "col-1",
		Name:          "Notify on order",
		TriggerType:   TriggerOnCreate,
		ErrorHandling: StopOnError,
		Active:        true,
		Actions: []*WorkflowAction{
			{ID: "a1", ActionType: "LOG", Config: "{}", Active: true, RetryDelaySeconds: 1},
		},
	}
}

func validationTags(t *testing.T, err error) map[string]string {
	t.Helper()

	var validationErrors validator.ValidationErrors

	require.True(t, errors.As(err, &validationErrors))

	tags := make(map[string]string)
	for _, fieldErr := range validationErrors {
		tags[fieldErr.Field()] = fieldErr.Tag()
	}

	return tags
}

func TestWorkflowRule_Validation(t *testing.T) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	t.Run("valid rule", func(t *testing.T) {
		assert.NoError(t, validate.Struct(validRule()))
	})

	t.Run("unknown trigger type", func(t *testing.T) {
		rule := validRule()
		rule.TriggerType = "ON_WHATEVER"

		err := validate.Struct(rule)
		require.Error(t, err)
		assert.Equal(t, "oneof", validationTags(t, err)["TriggerType"])
	})

	t.Run("scheduled rule needs a cron expression", func(t *testing.T) {
		rule := validRule()
		rule.TriggerType = TriggerScheduled

		err := validate.Struct(rule)
		require.Error(t, err)
		assert.Equal(t, "required_if", validationTags(t, err)["CronExpression"])
	})

	t.Run("retry delay below one second", func(t *testing.T) {
		rule := validRule()
		rule.Actions[0].RetryDelaySeconds = 0

		err := validate.Struct(rule)
		require.Error(t, err)
		assert.Equal(t, "min", validationTags(t, err)["RetryDelaySeconds"])
	})

	t.Run("negative retry count", func(t *testing.T) {
		rule := validRule()
		rule.Actions[0].RetryCount = -1

		err := validate.Struct(rule)
		require.Error(t, err)
		assert.Equal(t, "min", validationTags(t, err)["RetryCount"])
	})
}

func TestWorkflowRule_ActiveActions(t *testing.T) {
	rule := &WorkflowRule{
		Actions: []*WorkflowAction{
			{ID: "c", ExecutionOrder: 3, Active: true},
			{ID: "skip", ExecutionOrder: 0, Active: false},
			{ID: "a", ExecutionOrder: 1, Active: true},
			{ID: "b", ExecutionOrder: 1, Active: true},
		},
	}

	active := rule.ActiveActions()

	ids := make([]string, 0, len(active))
	for _, action := range active {
		ids = append(ids, action.ID)
	}

	assert.Equal(t, []string{"a", "b", "c"}, ids)
	assert.Equal(t, "c", rule.Actions[0].ID, "rule actions must not be reordered")
}

func TestSortRulesByExecutionOrder_Stable(t *testing.T) {
	rules := []*WorkflowRule{
		{ID: "r3", ExecutionOrder: 2},
		{ID: "r1", ExecutionOrder: 1},
		{ID: "r2", ExecutionOrder: 1},
	}

	SortRulesByExecutionOrder(rules)

	assert.Equal(t, "r1", rules[0].ID)
	assert.Equal(t, "r2", rules[1].ID)
	assert.Equal(t, "r3", rules[2].ID)
}

func TestWorkflowAction_RetryDelay(t *testing.T) {
	tests := []struct {
		name     string
		action   WorkflowAction
		attempt  int
		expected time.Duration
	}{
		{"fixed first", WorkflowAction{RetryDelaySeconds: 2, RetryBackoff: BackoffFixed}, 1, 2 * time.Second},
		{"fixed third", WorkflowAction{RetryDelaySeconds: 2, RetryBackoff: BackoffFixed}, 3, 2 * time.Second},
		{"exponential first", WorkflowAction{RetryDelaySeconds: 1, RetryBackoff: BackoffExponential}, 1, 1 * time.Second},
		{"exponential second", WorkflowAction{RetryDelaySeconds: 1, RetryBackoff: BackoffExponential}, 2, 2 * time.Second},
		{"exponential third", WorkflowAction{RetryDelaySeconds: 3, RetryBackoff: BackoffExponential}, 3, 12 * time.Second},
		{"missing delay defaults", WorkflowAction{}, 1, time.Second},
		{"exponential capped", WorkflowAction{RetryDelaySeconds: 60, RetryBackoff: BackoffExponential}, 8, MaxRetryDelay},
		{"exponential past shift width", WorkflowAction{RetryDelaySeconds: 1, RetryBackoff: BackoffExponential}, 40, MaxRetryDelay},
		{"exponential huge attempt", WorkflowAction{RetryDelaySeconds: 5, RetryBackoff: BackoffExponential}, 1 << 20, MaxRetryDelay},
		{"fixed huge delay", WorkflowAction{RetryDelaySeconds: 1 << 40, RetryBackoff: BackoffFixed}, 1, MaxRetryDelay},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.action.RetryDelay(tt.attempt))
		})
	}
}

func TestWorkflowAction_MaxAttempts(t *testing.T) {
	assert.Equal(t, 1, (&WorkflowAction{}).MaxAttempts())
	assert.Equal(t, 3, (&WorkflowAction{RetryCount: 2}).MaxAttempts())
	assert.Equal(t, 1, (&WorkflowAction{RetryCount: -4}).MaxAttempts())
}

func TestActionResult_UpdatedFields(t *testing.T) {
	result := SuccessWithOutput(map[string]any{
		UpdatedFieldsKey: map[string]any{"total": 42},
	})
	assert.Equal(t, map[string]any{"total": 42}, result.UpdatedFields())

	assert.Nil(t, Success().UpdatedFields())
	assert.Nil(t, SuccessWithOutput(map[string]any{UpdatedFieldsKey: "nope"}).UpdatedFields())

	failure := Failure("boom")
	assert.False(t, failure.Successful)
	assert.Equal(t, "boom", failure.ErrorMessage)
	assert.Empty(t, failure.OutputData)
}

func TestTriggerContexts(t *testing.T) {
	scheduled := NewScheduledTriggerContext("tenant-1")
	assert.Equal(t, TriggerScheduled, scheduled.TriggerType)
	assert.Equal(t, SystemUserID, scheduled.UserID)
	assert.Empty(t, scheduled.RecordID)
	assert.NotNil(t, scheduled.Data)

	manual := NewManualTriggerContext("tenant-1", "rec-1", "user-1", nil)
	assert.Equal(t, TriggerManual, manual.TriggerType)
	assert.Equal(t, "rec-1", manual.RecordID)
	assert.NotNil(t, manual.Data)
}

func TestWorkflowRule_NextRun(t *testing.T) {
	rule := &WorkflowRule{CronExpression: "0 * * * *"}
	from := time.Date(2025, 1, 1, 10, 15, 0, 0, time.UTC)

	next, err := rule.NextRun(from)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 1, 11, 0, 0, 0, time.UTC), next)

	_, err = (&WorkflowRule{}).NextRun(from)
	require.ErrorIs(t, err, ErrCronExpressionRequired)

	_, err = (&WorkflowRule{CronExpression: "not a cron"}).NextRun(from)
	require.Error(t, err)
}

func TestExecutionStatus_IsTerminal(t *testing.T) {
	assert.False(t, ExecutionStatusExecuting.IsTerminal())
	assert.True(t, ExecutionStatusSuccess.IsTerminal())
	assert.True(t, ExecutionStatusFailure.IsTerminal())
	assert.True(t, ExecutionStatusPartialFailure.IsTerminal())
}
