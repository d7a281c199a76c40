package file

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/dukex/ruleflow/pkg/models"
)

// ActionTypeRepository stores the declared action type catalogue, one document per key.
type ActionTypeRepository struct {
	dir string
	mu  sync.RWMutex
}

func NewActionTypeRepository(root string) *ActionTypeRepository {
	return &ActionTypeRepository{dir: filepath.Join(root, "action_types")}
}

func (ar *ActionTypeRepository) SaveActionType(_ context.Context, definition *models.ActionTypeDefinition) error {
	ar.mu.Lock()
	defer ar.mu.Unlock()

	err := writeJSON(ar.dir, definition.Key, definition)
	if err != nil {
		return fmt.Errorf("failed to save action type %s: %w", definition.Key, err)
	}

	return nil
}

func (ar *ActionTypeRepository) ActionTypes(_ context.Context) ([]*models.ActionTypeDefinition, error) {
	return ar.list(func(*models.ActionTypeDefinition) bool { return true })
}

func (ar *ActionTypeRepository) ActiveActionTypes(_ context.Context) ([]*models.ActionTypeDefinition, error) {
	return ar.list(func(definition *models.ActionTypeDefinition) bool { return definition.Active })
}

func (ar *ActionTypeRepository) list(match func(*models.ActionTypeDefinition) bool) ([]*models.ActionTypeDefinition, error) {
	ar.mu.RLock()
	defer ar.mu.RUnlock()

	ids, err := listIDs(ar.dir)
	if err != nil {
		return nil, err
	}

	definitions := make([]*models.ActionTypeDefinition, 0, len(ids))

	for _, id := range ids {
		var definition models.ActionTypeDefinition

		err := readJSON(ar.dir, id, &definition)
		if err != nil {
			return nil, fmt.Errorf("failed to read action type %s: %w", id, err)
		}

		if match(&definition) {
			definitions = append(definitions, &definition)
		}
	}

	slices.SortFunc(definitions, func(a, b *models.ActionTypeDefinition) int {
		return strings.Compare(a.Key, b.Key)
	})

	return definitions, nil
}
