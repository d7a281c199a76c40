package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/ruleflow/pkg/models"
	"github.com/dukex/ruleflow/pkg/persistence"
)

const executionLogColumns = `id, tenant_id, rule_id, record_id, trigger_type, status,
	actions_executed, error_message, duration_ms, executed_at`

// ExecutionLogRepository handles execution and action log database operations.
type ExecutionLogRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewExecutionLogRepository(db *sql.DB, logger *slog.Logger) *ExecutionLogRepository {
	return &ExecutionLogRepository{db: db, logger: logger}
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

func (er *ExecutionLogRepository) CreateExecutionLog(ctx context.Context, log *models.WorkflowExecutionLog) error {
	_, err := er.db.ExecContext(ctx, `
		INSERT INTO workflow_execution_logs (`+executionLogColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		log.ID, log.TenantID, log.RuleID, nullString(log.RecordID), log.TriggerType, log.Status,
		log.ActionsExecuted, nullString(log.ErrorMessage), log.DurationMs, log.ExecutedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create execution log: %w", err)
	}

	return nil
}

func (er *ExecutionLogRepository) UpdateExecutionLog(ctx context.Context, log *models.WorkflowExecutionLog) error {
	result, err := er.db.ExecContext(ctx, `
		UPDATE workflow_execution_logs
		SET status = $2, actions_executed = $3, error_message = $4, duration_ms = $5
		WHERE id = $1
	`, log.ID, log.Status, log.ActionsExecuted, nullString(log.ErrorMessage), log.DurationMs)
	if err != nil {
		return fmt.Errorf("failed to update execution log: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update execution log: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("%w: %s", persistence.ErrExecutionLogNotFound, log.ID)
	}

	return nil
}

func (er *ExecutionLogRepository) SaveActionLog(ctx context.Context, log *models.WorkflowActionLog) error {
	_, err := er.db.ExecContext(ctx, `
		INSERT INTO workflow_action_logs (
			id, execution_log_id, action_id, action_type, status, error_message,
			duration_ms, attempt_number, input_snapshot, output_snapshot, executed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		log.ID, log.ExecutionLogID, log.ActionID, log.ActionType, log.Status, nullString(log.ErrorMessage),
		log.DurationMs, log.AttemptNumber, log.InputSnapshot, nullString(log.OutputSnapshot), log.ExecutedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save action log: %w", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExecutionLog(row rowScanner) (*models.WorkflowExecutionLog, error) {
	var (
		log          models.WorkflowExecutionLog
		recordID     sql.NullString
		errorMessage sql.NullString
	)

	err := row.Scan(
		&log.ID, &log.TenantID, &log.RuleID, &recordID, &log.TriggerType, &log.Status,
		&log.ActionsExecuted, &errorMessage, &log.DurationMs, &log.ExecutedAt,
	)
	if err != nil {
		return nil, err
	}

	log.RecordID = recordID.String
	log.ErrorMessage = errorMessage.String

	return &log, nil
}

func (er *ExecutionLogRepository) ExecutionLogByID(ctx context.Context, id string) (*models.WorkflowExecutionLog, error) {
	row := er.db.QueryRowContext(ctx, "SELECT "+executionLogColumns+" FROM workflow_execution_logs WHERE id = $1", id)

	log, err := scanExecutionLog(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", persistence.ErrExecutionLogNotFound, id)
		}

		return nil, fmt.Errorf("failed to scan execution log: %w", err)
	}

	return log, nil
}

func (er *ExecutionLogRepository) ExecutionLogsByRule(ctx context.Context, ruleID string, limit int) ([]*models.WorkflowExecutionLog, error) {
	query := "SELECT " + executionLogColumns + " FROM workflow_execution_logs WHERE rule_id = $1 ORDER BY executed_at DESC"
	args := []any{ruleID}

	if limit > 0 {
		query += " LIMIT $2"

		args = append(args, limit)
	}

	rows, err := er.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query execution logs: %w", err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			er.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	logs := make([]*models.WorkflowExecutionLog, 0)

	for rows.Next() {
		log, err := scanExecutionLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution log: %w", err)
		}

		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate execution logs: %w", err)
	}

	return logs, nil
}

func (er *ExecutionLogRepository) ActionLogsByExecution(ctx context.Context, executionLogID string) ([]*models.WorkflowActionLog, error) {
	rows, err := er.db.QueryContext(ctx, `
		SELECT id, execution_log_id, action_id, action_type, status, error_message,
			duration_ms, attempt_number, input_snapshot, output_snapshot, executed_at
		FROM workflow_action_logs
		WHERE execution_log_id = $1
		ORDER BY executed_at ASC, attempt_number ASC
	`, executionLogID)
	if err != nil {
		return nil, fmt.Errorf("failed to query action logs: %w", err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			er.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	logs := make([]*models.WorkflowActionLog, 0)

	for rows.Next() {
		var (
			log            models.WorkflowActionLog
			errorMessage   sql.NullString
			outputSnapshot sql.NullString
		)

		err := rows.Scan(
			&log.ID, &log.ExecutionLogID, &log.ActionID, &log.ActionType, &log.Status, &errorMessage,
			&log.DurationMs, &log.AttemptNumber, &log.InputSnapshot, &outputSnapshot, &log.ExecutedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan action log: %w", err)
		}

		log.ErrorMessage = errorMessage.String
		log.OutputSnapshot = outputSnapshot.String
		logs = append(logs, &log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate action logs: %w", err)
	}

	return logs, nil
}
