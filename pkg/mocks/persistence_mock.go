package mocks

import (
	"context"

	"github.com/dukex/ruleflow/pkg/models"
	"github.com/dukex/ruleflow/pkg/persistence"
	"github.com/stretchr/testify/mock"
)

// MockPersistence is a mock implementation of persistence.Persistence interface.
type MockPersistence struct {
	mock.Mock

	Rules         *MockRuleRepository
	ExecutionLogs *MockExecutionLogRepository
	ActionTypes   *MockActionTypeRepository
	Collections   *MockCollectionRepository
}

// NewMockPersistence wires a fresh mock for every repository.
func NewMockPersistence() *MockPersistence {
	return &MockPersistence{
		Rules:         &MockRuleRepository{},
		ExecutionLogs: &MockExecutionLogRepository{},
		ActionTypes:   &MockActionTypeRepository{},
		Collections:   &MockCollectionRepository{},
	}
}

func (m *MockPersistence) RuleRepository() persistence.RuleRepository {
	return m.Rules
}

func (m *MockPersistence) ExecutionLogRepository() persistence.ExecutionLogRepository {
	return m.ExecutionLogs
}

func (m *MockPersistence) ActionTypeRepository() persistence.ActionTypeRepository {
	return m.ActionTypes
}

func (m *MockPersistence) CollectionRepository() persistence.CollectionRepository {
	return m.Collections
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

// MockRuleRepository is a mock implementation of persistence.RuleRepository interface.
type MockRuleRepository struct {
	mock.Mock
}

func (m *MockRuleRepository) ActiveRules(ctx context.Context, tenantID, collectionID string, triggerType models.TriggerType) ([]*models.WorkflowRule, error) {
	args := m.Called(ctx, tenantID, collectionID, triggerType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.WorkflowRule), args.Error(1)
}

func (m *MockRuleRepository) RulesByTrigger(ctx context.Context, triggerType models.TriggerType) ([]*models.WorkflowRule, error) {
	args := m.Called(ctx, triggerType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.WorkflowRule), args.Error(1)
}

func (m *MockRuleRepository) RuleByID(ctx context.Context, id string) (*models.WorkflowRule, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.WorkflowRule), args.Error(1)
}

func (m *MockRuleRepository) SaveRule(ctx context.Context, rule *models.WorkflowRule) error {
	args := m.Called(ctx, rule)

	return args.Error(0)
}

func (m *MockRuleRepository) DeleteRule(ctx context.Context, id string) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

// MockExecutionLogRepository is a mock implementation of persistence.ExecutionLogRepository interface.
type MockExecutionLogRepository struct {
	mock.Mock
}

func (m *MockExecutionLogRepository) CreateExecutionLog(ctx context.Context, log *models.WorkflowExecutionLog) error {
	args := m.Called(ctx, log)

	return args.Error(0)
}

func (m *MockExecutionLogRepository) UpdateExecutionLog(ctx context.Context, log *models.WorkflowExecutionLog) error {
	args := m.Called(ctx, log)

	return args.Error(0)
}

func (m *MockExecutionLogRepository) SaveActionLog(ctx context.Context, log *models.WorkflowActionLog) error {
	args := m.Called(ctx, log)

	return args.Error(0)
}

func (m *MockExecutionLogRepository) ExecutionLogByID(ctx context.Context, id string) (*models.WorkflowExecutionLog, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.WorkflowExecutionLog), args.Error(1)
}

func (m *MockExecutionLogRepository) ActionLogsByExecution(ctx context.Context, executionLogID string) ([]*models.WorkflowActionLog, error) {
	args := m.Called(ctx, executionLogID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.WorkflowActionLog), args.Error(1)
}

func (m *MockExecutionLogRepository) ExecutionLogsByRule(ctx context.Context, ruleID string, limit int) ([]*models.WorkflowExecutionLog, error) {
	args := m.Called(ctx, ruleID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.WorkflowExecutionLog), args.Error(1)
}

// MockActionTypeRepository is a mock implementation of persistence.ActionTypeRepository interface.
type MockActionTypeRepository struct {
	mock.Mock
}

func (m *MockActionTypeRepository) ActiveActionTypes(ctx context.Context) ([]*models.ActionTypeDefinition, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.ActionTypeDefinition), args.Error(1)
}

func (m *MockActionTypeRepository) ActionTypes(ctx context.Context) ([]*models.ActionTypeDefinition, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.ActionTypeDefinition), args.Error(1)
}

func (m *MockActionTypeRepository) SaveActionType(ctx context.Context, definition *models.ActionTypeDefinition) error {
	args := m.Called(ctx, definition)

	return args.Error(0)
}

// MockCollectionRepository is a mock implementation of persistence.CollectionRepository interface.
type MockCollectionRepository struct {
	mock.Mock
}

func (m *MockCollectionRepository) ResolveCollectionID(ctx context.Context, tenantID, collectionName string) (string, error) {
	args := m.Called(ctx, tenantID, collectionName)

	return args.String(0), args.Error(1)
}

func (m *MockCollectionRepository) SaveCollection(ctx context.Context, tenantID, collectionID, collectionName string) error {
	args := m.Called(ctx, tenantID, collectionID, collectionName)

	return args.Error(0)
}
