// Package file provides a JSON file based persistence implementation.
package file

import (
	"context"
	"os"
	"strings"

	"github.com/dukex/ruleflow/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface using the file system.
type Persistence struct {
	root             string
	ruleRepo         *RuleRepository
	executionLogRepo *ExecutionLogRepository
	actionTypeRepo   *ActionTypeRepository
	collectionRepo   *CollectionRepository
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:             cleanRoot,
		ruleRepo:         NewRuleRepository(cleanRoot),
		executionLogRepo: NewExecutionLogRepository(cleanRoot),
		actionTypeRepo:   NewActionTypeRepository(cleanRoot),
		collectionRepo:   NewCollectionRepository(cleanRoot),
	}
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (fp *Persistence) RuleRepository() persistence.RuleRepository {
	return fp.ruleRepo
}

func (fp *Persistence) ExecutionLogRepository() persistence.ExecutionLogRepository {
	return fp.executionLogRepo
}

func (fp *Persistence) ActionTypeRepository() persistence.ActionTypeRepository {
	return fp.actionTypeRepo
}

func (fp *Persistence) CollectionRepository() persistence.CollectionRepository {
	return fp.collectionRepo
}
