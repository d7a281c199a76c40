package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dukex/ruleflow/pkg/models"
	"github.com/dukex/ruleflow/pkg/persistence"
)

// RuleRepository stores one JSON document per rule, actions embedded.
type RuleRepository struct {
	dir string
	mu  sync.RWMutex
}

func NewRuleRepository(root string) *RuleRepository {
	return &RuleRepository{dir: filepath.Join(root, "rules")}
}

func (rr *RuleRepository) RuleByID(_ context.Context, id string) (*models.WorkflowRule, error) {
	rr.mu.RLock()
	defer rr.mu.RUnlock()

	return rr.load(id)
}

func (rr *RuleRepository) load(id string) (*models.WorkflowRule, error) {
	var rule models.WorkflowRule

	err := readJSON(rr.dir, id, &rule)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, persistence.NewRuleError("RuleByID", id, persistence.ErrRuleNotFound)
		}

		return nil, persistence.NewRuleError("RuleByID", id, err)
	}

	return &rule, nil
}

func (rr *RuleRepository) SaveRule(_ context.Context, rule *models.WorkflowRule) error {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	now := time.Now().UTC()
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}

	rule.UpdatedAt = now

	for _, action := range rule.Actions {
		action.RuleID = rule.ID
	}

	err := writeJSON(rr.dir, rule.ID, rule)
	if err != nil {
		return persistence.NewRuleError("SaveRule", rule.ID, err)
	}

	return nil
}

func (rr *RuleRepository) DeleteRule(_ context.Context, id string) error {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	err := validateID(id)
	if err != nil {
		return persistence.NewRuleError("DeleteRule", id, err)
	}

	err = os.Remove(filepath.Join(rr.dir, id+".json"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return persistence.NewRuleError("DeleteRule", id, persistence.ErrRuleNotFound)
		}

		return persistence.NewRuleError("DeleteRule", id, err)
	}

	return nil
}

func (rr *RuleRepository) ActiveRules(
	_ context.Context,
	tenantID, collectionID string,
	triggerType models.TriggerType,
) ([]*models.WorkflowRule, error) {
	return rr.filter(func(rule *models.WorkflowRule) bool {
		return rule.TenantID == tenantID &&
			rule.CollectionID == collectionID &&
			rule.TriggerType == triggerType
	})
}

func (rr *RuleRepository) RulesByTrigger(_ context.Context, triggerType models.TriggerType) ([]*models.WorkflowRule, error) {
	return rr.filter(func(rule *models.WorkflowRule) bool {
		return rule.TriggerType == triggerType
	})
}

// filter returns matching active rules ordered by execution order, then id.
func (rr *RuleRepository) filter(match func(*models.WorkflowRule) bool) ([]*models.WorkflowRule, error) {
	rr.mu.RLock()
	defer rr.mu.RUnlock()

	ids, err := listIDs(rr.dir)
	if err != nil {
		return nil, err
	}

	rules := make([]*models.WorkflowRule, 0)

	for _, id := range ids {
		rule, err := rr.load(id)
		if err != nil {
			return nil, err
		}

		if rule.Active && match(rule) {
			rules = append(rules, rule)
		}
	}

	models.SortRulesByExecutionOrder(rules)

	return rules, nil
}
