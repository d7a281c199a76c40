package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	logaction "github.com/dukex/ruleflow/pkg/actions/log"
	"github.com/dukex/ruleflow/pkg/actions/fieldupdate"
	"github.com/dukex/ruleflow/pkg/events"
	"github.com/dukex/ruleflow/pkg/mocks"
	"github.com/dukex/ruleflow/pkg/models"
	"github.com/dukex/ruleflow/pkg/persistence/file"
	"github.com/dukex/ruleflow/pkg/protocol"
	"github.com/dukex/ruleflow/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()

	reg := registry.NewRegistry(slog.New(slog.DiscardHandler), nil)
	reg.Register(logaction.NewHandler(), fieldupdate.NewHandler())
	reg.Initialize(t.Context())

	return reg
}

func TestActionValidator_ValidateAction(t *testing.T) {
	validator := NewActionValidator(newTestRegistry(t))

	assert.Empty(t, validator.ValidateAction("LOG", `{"message": "hello"}`))
	assert.Equal(t, "Unknown action type: UNKNOWN_TYPE", validator.ValidateAction("UNKNOWN_TYPE", `{}`))

	message := validator.ValidateAction("LOG", `{}`)
	assert.Contains(t, message, "LOG: ")
	assert.Contains(t, message, "message")
}

type handlerMap map[string]protocol.ActionHandler

func (h handlerMap) Handler(key string) (protocol.ActionHandler, bool) {
	handler, ok := h[key]

	return handler, ok
}

func TestActionValidator_HandlerPanics(t *testing.T) {
	handler := mocks.NewMockActionHandler("PLUGIN")
	handler.On("Validate", mock.Anything).Run(func(mock.Arguments) {
		panic("nil config map")
	})

	validator := NewActionValidator(handlerMap{"PLUGIN": handler})

	message := validator.ValidateAction("PLUGIN", `{}`)
	assert.Equal(t, "PLUGIN: validation panicked: nil config map", message)

	messages := validator.ValidateActions([]ActionSpec{{ActionType: "PLUGIN", Config: `{}`}})
	assert.Equal(t, []string{"Action 1: PLUGIN: validation panicked: nil config map"}, messages)
}

func TestActionValidator_ValidateActions(t *testing.T) {
	validator := NewActionValidator(newTestRegistry(t))

	t.Run("empty input", func(t *testing.T) {
		messages := validator.ValidateActions(nil)
		assert.NotNil(t, messages)
		assert.Empty(t, messages)
	})

	t.Run("unknown type is numbered", func(t *testing.T) {
		messages := validator.ValidateActions([]ActionSpec{{ActionType: "UNKNOWN_TYPE", Config: "{}"}})
		assert.Equal(t, []string{"Action 1: Unknown action type: UNKNOWN_TYPE"}, messages)
	})

	t.Run("only failing actions are reported", func(t *testing.T) {
		messages := validator.ValidateActions([]ActionSpec{
			{ActionType: "LOG", Config: `{"message": "ok"}`},
			{ActionType: "FIELD_UPDATE", Config: `{"fields": {}}`},
			{ActionType: "LOG", Config: `{"message": "ok"}`},
		})
		require.Len(t, messages, 1)
		assert.True(t, len(messages[0]) > len("Action 2: FIELD_UPDATE: "))
		assert.Equal(t, "Action 2: FIELD_UPDATE: ", messages[0][:len("Action 2: FIELD_UPDATE: ")])
	})
}

func newRulesService(t *testing.T, publisher *mocks.MockEventBus) (*Rules, *file.Persistence) {
	t.Helper()

	persistence := file.NewPersistence(t.TempDir())

	var service *Rules
	if publisher != nil {
		service = NewRules(persistence, NewActionValidator(newTestRegistry(t)), publisher, slog.New(slog.DiscardHandler))
	} else {
		service = NewRules(persistence, NewActionValidator(newTestRegistry(t)), nil, slog.New(slog.DiscardHandler))
	}

	return service, persistence
}

func newRule() *models.WorkflowRule {
	return &models.WorkflowRule{
		TenantID:     "tenant-1",
		CollectionID: "col-1",
		Name:         "Flag large orders",
		TriggerType:  models.TriggerOnCreate,
		Active:       true,
		Actions: []*models.WorkflowAction{
			{ActionType: "LOG", Config: `{"message": "big order {{ .record_id }}"}`, Active: true},
		},
	}
}

func TestRules_Save(t *testing.T) {
	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, mock.Anything, mock.AnythingOfType("events.RulesChanged")).Return(nil)

	service, persistence := newRulesService(t, bus)

	saved, err := service.Save(t.Context(), newRule())
	require.NoError(t, err)

	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, models.StopOnError, saved.ErrorHandling)
	require.Len(t, saved.Actions, 1)
	assert.NotEmpty(t, saved.Actions[0].ID)
	assert.Equal(t, saved.ID, saved.Actions[0].RuleID)
	assert.Equal(t, models.DefaultRetryDelaySeconds, saved.Actions[0].RetryDelaySeconds)
	assert.Equal(t, models.BackoffFixed, saved.Actions[0].RetryBackoff)

	stored, err := persistence.RuleRepository().RuleByID(t.Context(), saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.Name, stored.Name)

	bus.AssertNumberOfCalls(t, "Publish", 1)
}

func TestRules_Save_CollectsAllProblems(t *testing.T) {
	service, persistence := newRulesService(t, nil)

	rule := newRule()
	rule.Name = "x"
	rule.Actions = append(rule.Actions, &models.WorkflowAction{ActionType: "UNKNOWN_TYPE", Config: "{}", Active: true})

	_, err := service.Save(t.Context(), rule)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Contains(t, validationErr.Messages, "Action 2: Unknown action type: UNKNOWN_TYPE")
	assert.Contains(t, validationErr.Messages, "WorkflowRule.Name failed on the 'min' rule")

	rules, err := persistence.RuleRepository().RulesByTrigger(t.Context(), models.TriggerOnCreate)
	require.NoError(t, err)
	assert.Empty(t, rules, "invalid rules must not be persisted")
}

func TestRules_Save_ScheduledNeedsValidCron(t *testing.T) {
	service, _ := newRulesService(t, nil)

	rule := newRule()
	rule.TriggerType = models.TriggerScheduled
	rule.CronExpression = "every tuesday"

	_, err := service.Save(t.Context(), rule)
	require.Error(t, err)

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	require.Len(t, validationErr.Messages, 1)
	assert.Contains(t, validationErr.Messages[0], "invalid cron expression")
}

func TestRules_Save_ResolvesCollectionName(t *testing.T) {
	service, persistence := newRulesService(t, nil)

	require.NoError(t, persistence.CollectionRepository().SaveCollection(t.Context(), "tenant-1", "col-9", "orders"))

	rule := newRule()
	rule.CollectionID = ""
	rule.CollectionName = "orders"

	saved, err := service.Save(t.Context(), rule)
	require.NoError(t, err)
	assert.Equal(t, "col-9", saved.CollectionID)

	rule = newRule()
	rule.CollectionID = ""
	rule.CollectionName = "invoices"

	_, err = service.Save(t.Context(), rule)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestRules_Save_Nil(t *testing.T) {
	service, _ := newRulesService(t, nil)

	_, err := service.Save(context.Background(), nil)
	require.ErrorIs(t, err, ErrRuleNil)
}

func TestRules_Delete(t *testing.T) {
	service, _ := newRulesService(t, nil)

	saved, err := service.Save(t.Context(), newRule())
	require.NoError(t, err)

	require.NoError(t, service.Delete(t.Context(), saved.ID))

	_, err = service.ByID(t.Context(), saved.ID)
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))

	_, err = service.ByID(t.Context(), "")
	require.ErrorIs(t, err, ErrRuleIDRequired)
}

func TestExecutions(t *testing.T) {
	service, persistence := newRulesService(t, nil)

	saved, err := service.Save(t.Context(), newRule())
	require.NoError(t, err)

	logs := persistence.ExecutionLogRepository()
	require.NoError(t, logs.CreateExecutionLog(t.Context(), &models.WorkflowExecutionLog{
		ID: "exec-1", TenantID: "tenant-1", RuleID: saved.ID, Status: models.ExecutionStatusExecuting,
	}))
	require.NoError(t, logs.SaveActionLog(t.Context(), &models.WorkflowActionLog{
		ID: "alog-1", ExecutionLogID: "exec-1", ActionID: saved.Actions[0].ID, ActionType: "LOG",
		Status: models.ActionStatusSuccess, AttemptNumber: 1,
	}))

	executions := NewExecutions(persistence)

	details, err := executions.ByID(t.Context(), "exec-1")
	require.NoError(t, err)
	assert.Equal(t, saved.ID, details.RuleID)
	require.Len(t, details.Actions, 1)
	assert.Equal(t, "alog-1", details.Actions[0].ID)

	list, err := executions.ByRule(t.Context(), saved.ID, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = executions.ByRule(t.Context(), "missing", 10)
	assert.True(t, IsNotFoundError(err))

	_, err = executions.ByID(t.Context(), "missing")
	assert.True(t, IsNotFoundError(err))
}

func TestRulesChangedPublishFailureIsNotFatal(t *testing.T) {
	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))

	service, _ := newRulesService(t, bus)

	saved, err := service.Save(t.Context(), newRule())
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)

	call := bus.Calls[0]
	event, ok := call.Arguments.Get(2).(events.RulesChanged)
	require.True(t, ok)
	assert.Equal(t, saved.ID, event.RuleID)
}

func TestRules_HealthCheck(t *testing.T) {
	p := mocks.NewMockPersistence()
	p.On("HealthCheck", mock.Anything).Return(errors.New("connection refused")).Once()
	p.On("HealthCheck", mock.Anything).Return(nil).Once()

	rules := NewRules(p, NewActionValidator(newTestRegistry(t)), nil, slog.New(slog.DiscardHandler))

	message, ok := rules.HealthCheck(t.Context())
	assert.False(t, ok)
	assert.Equal(t, "Persistence layer is unhealthy: connection refused", message)

	message, ok = rules.HealthCheck(t.Context())
	assert.True(t, ok)
	assert.Equal(t, "Persistence layer is healthy", message)

	p.AssertExpectations(t)
}

func TestRules_Delete_StorageFailure(t *testing.T) {
	p := mocks.NewMockPersistence()
	p.Rules.On("RuleByID", mock.Anything, "rule-1").Return(&models.WorkflowRule{ID: "rule-1", TenantID: "tenant-1"}, nil)
	p.Rules.On("DeleteRule", mock.Anything, "rule-1").Return(errors.New("disk full"))

	publisher := &mocks.MockEventBus{}

	rules := NewRules(p, NewActionValidator(newTestRegistry(t)), publisher, slog.New(slog.DiscardHandler))

	err := rules.Delete(t.Context(), "rule-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}
