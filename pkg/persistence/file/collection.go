package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/dukex/ruleflow/pkg/persistence"
)

// CollectionRepository keeps one name to id index per tenant.
type CollectionRepository struct {
	dir string
	mu  sync.RWMutex
}

func NewCollectionRepository(root string) *CollectionRepository {
	return &CollectionRepository{dir: filepath.Join(root, "collections")}
}

func (cr *CollectionRepository) ResolveCollectionID(_ context.Context, tenantID, collectionName string) (string, error) {
	cr.mu.RLock()
	defer cr.mu.RUnlock()

	index, err := cr.index(tenantID)
	if err != nil {
		return "", persistence.NewCollectionError(tenantID, collectionName, err)
	}

	id, ok := index[collectionName]
	if !ok {
		return "", persistence.NewCollectionError(tenantID, collectionName, persistence.ErrCollectionNotFound)
	}

	return id, nil
}

func (cr *CollectionRepository) SaveCollection(_ context.Context, tenantID, collectionID, collectionName string) error {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	index, err := cr.index(tenantID)
	if err != nil {
		return fmt.Errorf("failed to load collections of tenant %s: %w", tenantID, err)
	}

	index[collectionName] = collectionID

	return writeJSON(cr.dir, tenantID, index)
}

func (cr *CollectionRepository) index(tenantID string) (map[string]string, error) {
	index := make(map[string]string)

	err := readJSON(cr.dir, tenantID, &index)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	return index, nil
}
