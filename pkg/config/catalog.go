// Package config loads the catalogue seed file that declares action types and
// collections before the services start.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dukex/ruleflow/pkg/models"
	"github.com/dukex/ruleflow/pkg/persistence"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var ErrDuplicateKey = errors.New("duplicate action type key")

// CollectionSeed declares a collection name within a tenant.
type CollectionSeed struct {
	TenantID string `yaml:"tenant_id" validate:"required"`
	ID       string `yaml:"id"        validate:"required"`
	Name     string `yaml:"name"      validate:"required"`
}

// Catalog is the structure of the catalogue YAML file.
type Catalog struct {
	ActionTypes []*models.ActionTypeDefinition `yaml:"action_types" validate:"dive"`
	Collections []CollectionSeed               `yaml:"collections"  validate:"dive"`
}

// LoadCatalog reads and validates a catalogue file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file %s: %w", path, err)
	}

	return ParseCatalog(data)
}

func ParseCatalog(data []byte) (*Catalog, error) {
	var catalog Catalog

	err := yaml.Unmarshal(data, &catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML catalog: %w", err)
	}

	err = catalog.Validate()
	if err != nil {
		return nil, err
	}

	return &catalog, nil
}

func (c *Catalog) Validate() error {
	err := validator.New(validator.WithRequiredStructEnabled()).Struct(c)
	if err != nil {
		return fmt.Errorf("invalid catalog: %w", err)
	}

	seen := make(map[string]struct{}, len(c.ActionTypes))

	for _, definition := range c.ActionTypes {
		if _, ok := seen[definition.Key]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateKey, definition.Key)
		}

		seen[definition.Key] = struct{}{}
	}

	return nil
}

// Seed upserts the catalogue into storage.
func (c *Catalog) Seed(ctx context.Context, p persistence.Persistence) error {
	for _, definition := range c.ActionTypes {
		err := p.ActionTypeRepository().SaveActionType(ctx, definition)
		if err != nil {
			return fmt.Errorf("failed to seed action type %s: %w", definition.Key, err)
		}
	}

	for _, collection := range c.Collections {
		err := p.CollectionRepository().SaveCollection(ctx, collection.TenantID, collection.ID, collection.Name)
		if err != nil {
			return fmt.Errorf("failed to seed collection %s: %w", collection.Name, err)
		}
	}

	return nil
}
