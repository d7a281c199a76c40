package services

import (
	"context"
	"fmt"

	"github.com/dukex/ruleflow/pkg/models"
	"github.com/dukex/ruleflow/pkg/persistence"
)

const (
	defaultExecutionsLimit = 50
	maxExecutionsLimit     = 500
)

// ExecutionDetails is an execution log together with every attempt it recorded.
type ExecutionDetails struct {
	*models.WorkflowExecutionLog

	Actions []*models.WorkflowActionLog `json:"actions"`
}

// Executions reads the audit trail written by the engine.
type Executions struct {
	persistence persistence.Persistence
}

func NewExecutions(persistence persistence.Persistence) *Executions {
	return &Executions{persistence: persistence}
}

func (e *Executions) ByID(ctx context.Context, id string) (*ExecutionDetails, error) {
	repo := e.persistence.ExecutionLogRepository()

	log, err := repo.ExecutionLogByID(ctx, id)
	if err != nil {
		return nil, err
	}

	actions, err := repo.ActionLogsByExecution(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load action logs: %w", err)
	}

	return &ExecutionDetails{WorkflowExecutionLog: log, Actions: actions}, nil
}

// ByRule lists the most recent executions of a rule. The limit is clamped to
// a sane range; zero selects the default.
func (e *Executions) ByRule(ctx context.Context, ruleID string, limit int) ([]*models.WorkflowExecutionLog, error) {
	if ruleID == "" {
		return nil, ErrRuleIDRequired
	}

	switch {
	case limit <= 0:
		limit = defaultExecutionsLimit
	case limit > maxExecutionsLimit:
		limit = maxExecutionsLimit
	}

	_, err := e.persistence.RuleRepository().RuleByID(ctx, ruleID)
	if err != nil {
		return nil, err
	}

	return e.persistence.ExecutionLogRepository().ExecutionLogsByRule(ctx, ruleID, limit)
}
