package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/dukex/ruleflow/pkg/models"
	"github.com/dukex/ruleflow/pkg/persistence"
)

// ExecutionLogRepository keeps execution logs in execution_logs/ and the
// attempts of each execution in action_logs/<execution log id>/.
type ExecutionLogRepository struct {
	root string
	mu   sync.RWMutex
}

func NewExecutionLogRepository(root string) *ExecutionLogRepository {
	return &ExecutionLogRepository{root: root}
}

func (er *ExecutionLogRepository) executionDir() string {
	return filepath.Join(er.root, "execution_logs")
}

func (er *ExecutionLogRepository) actionDir(executionLogID string) string {
	return filepath.Join(er.root, "action_logs", executionLogID)
}

func (er *ExecutionLogRepository) CreateExecutionLog(_ context.Context, log *models.WorkflowExecutionLog) error {
	er.mu.Lock()
	defer er.mu.Unlock()

	err := writeJSON(er.executionDir(), log.ID, log)
	if err != nil {
		return fmt.Errorf("failed to create execution log: %w", err)
	}

	return nil
}

func (er *ExecutionLogRepository) UpdateExecutionLog(_ context.Context, log *models.WorkflowExecutionLog) error {
	er.mu.Lock()
	defer er.mu.Unlock()

	var existing models.WorkflowExecutionLog

	err := readJSON(er.executionDir(), log.ID, &existing)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", persistence.ErrExecutionLogNotFound, log.ID)
		}

		return fmt.Errorf("failed to read execution log %s: %w", log.ID, err)
	}

	err = writeJSON(er.executionDir(), log.ID, log)
	if err != nil {
		return fmt.Errorf("failed to update execution log: %w", err)
	}

	return nil
}

func (er *ExecutionLogRepository) SaveActionLog(_ context.Context, log *models.WorkflowActionLog) error {
	er.mu.Lock()
	defer er.mu.Unlock()

	err := validateID(log.ExecutionLogID)
	if err != nil {
		return fmt.Errorf("invalid execution log id: %w", err)
	}

	err = writeJSON(er.actionDir(log.ExecutionLogID), log.ID, log)
	if err != nil {
		return fmt.Errorf("failed to save action log: %w", err)
	}

	return nil
}

func (er *ExecutionLogRepository) ExecutionLogByID(_ context.Context, id string) (*models.WorkflowExecutionLog, error) {
	er.mu.RLock()
	defer er.mu.RUnlock()

	var log models.WorkflowExecutionLog

	err := readJSON(er.executionDir(), id, &log)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", persistence.ErrExecutionLogNotFound, id)
		}

		return nil, fmt.Errorf("failed to read execution log %s: %w", id, err)
	}

	return &log, nil
}

// ActionLogsByExecution returns attempts ordered by execution time, then attempt number.
func (er *ExecutionLogRepository) ActionLogsByExecution(_ context.Context, executionLogID string) ([]*models.WorkflowActionLog, error) {
	er.mu.RLock()
	defer er.mu.RUnlock()

	err := validateID(executionLogID)
	if err != nil {
		return nil, err
	}

	dir := er.actionDir(executionLogID)

	ids, err := listIDs(dir)
	if err != nil {
		return nil, err
	}

	logs := make([]*models.WorkflowActionLog, 0, len(ids))

	for _, id := range ids {
		var log models.WorkflowActionLog

		err := readJSON(dir, id, &log)
		if err != nil {
			return nil, fmt.Errorf("failed to read action log %s: %w", id, err)
		}

		logs = append(logs, &log)
	}

	slices.SortStableFunc(logs, func(a, b *models.WorkflowActionLog) int {
		if c := a.ExecutedAt.Compare(b.ExecutedAt); c != 0 {
			return c
		}

		return a.AttemptNumber - b.AttemptNumber
	})

	return logs, nil
}

func (er *ExecutionLogRepository) ExecutionLogsByRule(_ context.Context, ruleID string, limit int) ([]*models.WorkflowExecutionLog, error) {
	er.mu.RLock()
	defer er.mu.RUnlock()

	ids, err := listIDs(er.executionDir())
	if err != nil {
		return nil, err
	}

	logs := make([]*models.WorkflowExecutionLog, 0)

	for _, id := range ids {
		var log models.WorkflowExecutionLog

		err := readJSON(er.executionDir(), id, &log)
		if err != nil {
			return nil, fmt.Errorf("failed to read execution log %s: %w", id, err)
		}

		if log.RuleID == ruleID {
			logs = append(logs, &log)
		}
	}

	slices.SortStableFunc(logs, func(a, b *models.WorkflowExecutionLog) int {
		return b.ExecutedAt.Compare(a.ExecutedAt)
	})

	if limit > 0 && len(logs) > limit {
		logs = logs[:limit]
	}

	return logs, nil
}
