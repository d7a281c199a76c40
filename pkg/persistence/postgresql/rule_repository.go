package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/ruleflow/pkg/models"
	"github.com/dukex/ruleflow/pkg/persistence"
	"github.com/lib/pq"
)

const ruleColumns = `id, tenant_id, collection_id, collection_name, name, trigger_type, filter_formula,
	trigger_fields, execution_order, error_handling, active, cron_expression, created_at, updated_at`

// RuleRepository handles rule and action database operations.
type RuleRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewRuleRepository(db *sql.DB, logger *slog.Logger) *RuleRepository {
	return &RuleRepository{db: db, logger: logger}
}

// SaveRule upserts the rule and replaces its actions in one transaction.
func (rr *RuleRepository) SaveRule(ctx context.Context, rule *models.WorkflowRule) error {
	triggerFields := rule.TriggerFields
	if triggerFields == nil {
		triggerFields = []string{}
	}

	triggerFieldsJSON, err := json.Marshal(triggerFields)
	if err != nil {
		return persistence.NewRuleError("SaveRule", rule.ID, fmt.Errorf("failed to marshal trigger fields: %w", err))
	}

	now := time.Now().UTC()
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}

	rule.UpdatedAt = now

	tx, err := rr.db.BeginTx(ctx, nil)
	if err != nil {
		return persistence.NewRuleError("SaveRule", rule.ID, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO workflow_rules (`+ruleColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			tenant_id = EXCLUDED.tenant_id,
			collection_id = EXCLUDED.collection_id,
			collection_name = EXCLUDED.collection_name,
			name = EXCLUDED.name,
			trigger_type = EXCLUDED.trigger_type,
			filter_formula = EXCLUDED.filter_formula,
			trigger_fields = EXCLUDED.trigger_fields,
			execution_order = EXCLUDED.execution_order,
			error_handling = EXCLUDED.error_handling,
			active = EXCLUDED.active,
			cron_expression = EXCLUDED.cron_expression,
			updated_at = EXCLUDED.updated_at
	`,
		rule.ID, rule.TenantID, rule.CollectionID, rule.CollectionName, rule.Name, rule.TriggerType,
		rule.FilterFormula, string(triggerFieldsJSON), rule.ExecutionOrder, rule.ErrorHandling,
		rule.Active, rule.CronExpression, rule.CreatedAt, rule.UpdatedAt,
	)
	if err != nil {
		_ = tx.Rollback()

		return persistence.NewRuleError("SaveRule", rule.ID, err)
	}

	_, err = tx.ExecContext(ctx, "DELETE FROM workflow_actions WHERE rule_id = $1", rule.ID)
	if err != nil {
		_ = tx.Rollback()

		return persistence.NewRuleError("SaveRule", rule.ID, err)
	}

	for _, action := range rule.Actions {
		action.RuleID = rule.ID

		backoff := action.RetryBackoff
		if backoff == "" {
			backoff = models.BackoffFixed
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO workflow_actions (
				id, rule_id, action_type, config, execution_order, active,
				retry_count, retry_delay_seconds, retry_backoff
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`,
			action.ID, rule.ID, action.ActionType, action.Config, action.ExecutionOrder, action.Active,
			action.RetryCount, max(action.RetryDelaySeconds, models.DefaultRetryDelaySeconds), backoff,
		)
		if err != nil {
			_ = tx.Rollback()

			return persistence.NewRuleError("SaveRule", rule.ID, fmt.Errorf("failed to save action %s: %w", action.ID, err))
		}
	}

	err = tx.Commit()
	if err != nil {
		return persistence.NewRuleError("SaveRule", rule.ID, err)
	}

	return nil
}

func (rr *RuleRepository) RuleByID(ctx context.Context, id string) (*models.WorkflowRule, error) {
	rules, err := rr.query(ctx, "SELECT "+ruleColumns+" FROM workflow_rules WHERE id = $1", id)
	if err != nil {
		return nil, persistence.NewRuleError("RuleByID", id, err)
	}

	if len(rules) == 0 {
		return nil, persistence.NewRuleError("RuleByID", id, persistence.ErrRuleNotFound)
	}

	return rules[0], nil
}

func (rr *RuleRepository) DeleteRule(ctx context.Context, id string) error {
	result, err := rr.db.ExecContext(ctx, "DELETE FROM workflow_rules WHERE id = $1", id)
	if err != nil {
		return persistence.NewRuleError("DeleteRule", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewRuleError("DeleteRule", id, err)
	}

	if affected == 0 {
		return persistence.NewRuleError("DeleteRule", id, persistence.ErrRuleNotFound)
	}

	return nil
}

func (rr *RuleRepository) ActiveRules(
	ctx context.Context,
	tenantID, collectionID string,
	triggerType models.TriggerType,
) ([]*models.WorkflowRule, error) {
	rules, err := rr.query(ctx, `
		SELECT `+ruleColumns+`
		FROM workflow_rules
		WHERE tenant_id = $1 AND collection_id = $2 AND trigger_type = $3 AND active = true
		ORDER BY execution_order ASC, id ASC
	`, tenantID, collectionID, triggerType)
	if err != nil {
		return nil, fmt.Errorf("failed to query active rules: %w", err)
	}

	return rules, nil
}

func (rr *RuleRepository) RulesByTrigger(ctx context.Context, triggerType models.TriggerType) ([]*models.WorkflowRule, error) {
	rules, err := rr.query(ctx, `
		SELECT `+ruleColumns+`
		FROM workflow_rules
		WHERE trigger_type = $1 AND active = true
		ORDER BY execution_order ASC, id ASC
	`, triggerType)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules by trigger: %w", err)
	}

	return rules, nil
}

func (rr *RuleRepository) query(ctx context.Context, query string, args ...any) ([]*models.WorkflowRule, error) {
	rows, err := rr.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			rr.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	rules := make([]*models.WorkflowRule, 0)
	byID := make(map[string]*models.WorkflowRule)
	ids := make([]string, 0)

	for rows.Next() {
		var (
			rule          models.WorkflowRule
			triggerFields string
		)

		err := rows.Scan(
			&rule.ID, &rule.TenantID, &rule.CollectionID, &rule.CollectionName, &rule.Name,
			&rule.TriggerType, &rule.FilterFormula, &triggerFields, &rule.ExecutionOrder,
			&rule.ErrorHandling, &rule.Active, &rule.CronExpression, &rule.CreatedAt, &rule.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}

		err = json.Unmarshal([]byte(triggerFields), &rule.TriggerFields)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal trigger fields of rule %s: %w", rule.ID, err)
		}

		rule.Actions = make([]*models.WorkflowAction, 0)
		rules = append(rules, &rule)
		byID[rule.ID] = &rule
		ids = append(ids, rule.ID)
	}

	err = rows.Err()
	if err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return rules, nil
	}

	err = rr.attachActions(ctx, ids, byID)
	if err != nil {
		return nil, err
	}

	return rules, nil
}

func (rr *RuleRepository) attachActions(ctx context.Context, ruleIDs []string, byID map[string]*models.WorkflowRule) error {
	rows, err := rr.db.QueryContext(ctx, `
		SELECT id, rule_id, action_type, config, execution_order, active,
			retry_count, retry_delay_seconds, retry_backoff
		FROM workflow_actions
		WHERE rule_id = ANY($1)
		ORDER BY execution_order ASC, id ASC
	`, pq.Array(ruleIDs))
	if err != nil {
		return fmt.Errorf("failed to query actions: %w", err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			rr.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	for rows.Next() {
		var action models.WorkflowAction

		err := rows.Scan(
			&action.ID, &action.RuleID, &action.ActionType, &action.Config, &action.ExecutionOrder,
			&action.Active, &action.RetryCount, &action.RetryDelaySeconds, &action.RetryBackoff,
		)
		if err != nil {
			return fmt.Errorf("failed to scan action: %w", err)
		}

		if rule, ok := byID[action.RuleID]; ok {
			rule.Actions = append(rule.Actions, &action)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate actions: %w", err)
	}

	return nil
}
