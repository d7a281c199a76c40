// Package persistence provides the storage abstraction for rules, execution logs and lookups.
package persistence

import (
	"context"

	"github.com/dukex/ruleflow/pkg/models"
)

type Persistence interface {
	RuleRepository() RuleRepository
	ExecutionLogRepository() ExecutionLogRepository
	ActionTypeRepository() ActionTypeRepository
	CollectionRepository() CollectionRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// RuleRepository reads and writes rules together with their actions.
type RuleRepository interface {
	// ActiveRules returns the active rules of a collection for one trigger
	// type, ordered by execution order.
	ActiveRules(ctx context.Context, tenantID, collectionID string, triggerType models.TriggerType) ([]*models.WorkflowRule, error)

	// RulesByTrigger returns every active rule with the given trigger type across tenants.
	RulesByTrigger(ctx context.Context, triggerType models.TriggerType) ([]*models.WorkflowRule, error)

	RuleByID(ctx context.Context, id string) (*models.WorkflowRule, error)
	SaveRule(ctx context.Context, rule *models.WorkflowRule) error
	DeleteRule(ctx context.Context, id string) error
}

// ExecutionLogRepository stores the audit trail written by the engine.
type ExecutionLogRepository interface {
	CreateExecutionLog(ctx context.Context, log *models.WorkflowExecutionLog) error
	UpdateExecutionLog(ctx context.Context, log *models.WorkflowExecutionLog) error
	SaveActionLog(ctx context.Context, log *models.WorkflowActionLog) error

	ExecutionLogByID(ctx context.Context, id string) (*models.WorkflowExecutionLog, error)
	ActionLogsByExecution(ctx context.Context, executionLogID string) ([]*models.WorkflowActionLog, error)

	// ExecutionLogsByRule returns the most recent logs first; limit <= 0 means no limit.
	ExecutionLogsByRule(ctx context.Context, ruleID string, limit int) ([]*models.WorkflowExecutionLog, error)
}

// ActionTypeRepository stores the declared action type catalogue.
type ActionTypeRepository interface {
	ActiveActionTypes(ctx context.Context) ([]*models.ActionTypeDefinition, error)
	ActionTypes(ctx context.Context) ([]*models.ActionTypeDefinition, error)
	SaveActionType(ctx context.Context, definition *models.ActionTypeDefinition) error
}

// CollectionRepository resolves collection names within a tenant.
type CollectionRepository interface {
	ResolveCollectionID(ctx context.Context, tenantID, collectionName string) (string, error)
	SaveCollection(ctx context.Context, tenantID, collectionID, collectionName string) error
}
