package workflow

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/dukex/ruleflow/pkg/events"
	"github.com/dukex/ruleflow/pkg/formula"
	"github.com/dukex/ruleflow/pkg/mocks"
	"github.com/dukex/ruleflow/pkg/models"
	"github.com/dukex/ruleflow/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newMockedEngine(t *testing.T, p *mocks.MockPersistence, handler *mocks.MockActionHandler) *Engine {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)

	reg := registry.NewRegistry(logger, nil)
	reg.Register(handler)
	reg.Initialize(t.Context())

	return NewEngine(p.Rules, p.ExecutionLogs, p.Collections, formula.NewTemplateEvaluator(), reg, logger)
}

func TestExecuteManualRule_ExecutionLogCreationFails(t *testing.T) {
	p := mocks.NewMockPersistence()
	handler := mocks.NewMockActionHandler("LOG")

	rule := &models.WorkflowRule{
		ID:            "rule-1",
		TenantID:      tenantID,
		CollectionID:  collectionID,
		TriggerType:   models.TriggerManual,
		ErrorHandling: models.StopOnError,
		Actions:       []*models.WorkflowAction{{ID: "a1", ActionType: "LOG", Active: true, RetryDelaySeconds: 1}},
	}

	p.Rules.On("RuleByID", mock.Anything, "rule-1").Return(rule, nil)
	p.ExecutionLogs.On("CreateExecutionLog", mock.Anything, mock.Anything).Return(errors.New("table locked"))

	engine := newMockedEngine(t, p, handler)

	id, err := engine.ExecuteManualRule(t.Context(), ManualTrigger{RuleID: "rule-1", UserID: "user-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "table locked")
	assert.Empty(t, id)

	handler.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything, mock.Anything)
	p.ExecutionLogs.AssertNotCalled(t, "UpdateExecutionLog", mock.Anything, mock.Anything)
}

func TestEvaluate_RuleLookupFailureWritesNothing(t *testing.T) {
	p := mocks.NewMockPersistence()
	handler := mocks.NewMockActionHandler("LOG")

	p.Collections.On("ResolveCollectionID", mock.Anything, tenantID, collectionName).Return(collectionID, nil)
	p.Rules.On("ActiveRules", mock.Anything, tenantID, collectionID, models.TriggerOnDelete).Return(nil, errors.New("timeout"))

	engine := newMockedEngine(t, p, handler)

	engine.Evaluate(t.Context(), &events.RecordChangeEvent{
		ID:             "evt-1",
		TenantID:       tenantID,
		CollectionName: collectionName,
		RecordID:       "rec-1",
		ChangeType:     events.ChangeDeleted,
	})

	p.Rules.AssertExpectations(t)
	p.ExecutionLogs.AssertNotCalled(t, "CreateExecutionLog", mock.Anything, mock.Anything)
	handler.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything, mock.Anything)
}
