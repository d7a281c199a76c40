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

// ActionTypeRepository handles the action_types catalogue table.
type ActionTypeRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewActionTypeRepository(db *sql.DB, logger *slog.Logger) *ActionTypeRepository {
	return &ActionTypeRepository{db: db, logger: logger}
}

func (ar *ActionTypeRepository) SaveActionType(ctx context.Context, definition *models.ActionTypeDefinition) error {
	_, err := ar.db.ExecContext(ctx, `
		INSERT INTO action_types (key, name, description, handler_name, active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (key) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			handler_name = EXCLUDED.handler_name,
			active = EXCLUDED.active
	`, definition.Key, definition.Name, definition.Description, definition.HandlerName, definition.Active)
	if err != nil {
		return fmt.Errorf("failed to save action type %s: %w", definition.Key, err)
	}

	return nil
}

func (ar *ActionTypeRepository) ActionTypes(ctx context.Context) ([]*models.ActionTypeDefinition, error) {
	return ar.list(ctx, "SELECT key, name, description, handler_name, active FROM action_types ORDER BY key")
}

func (ar *ActionTypeRepository) ActiveActionTypes(ctx context.Context) ([]*models.ActionTypeDefinition, error) {
	return ar.list(ctx, "SELECT key, name, description, handler_name, active FROM action_types WHERE active = true ORDER BY key")
}

func (ar *ActionTypeRepository) list(ctx context.Context, query string) ([]*models.ActionTypeDefinition, error) {
	rows, err := ar.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query action types: %w", err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			ar.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	definitions := make([]*models.ActionTypeDefinition, 0)

	for rows.Next() {
		var definition models.ActionTypeDefinition

		err := rows.Scan(&definition.Key, &definition.Name, &definition.Description, &definition.HandlerName, &definition.Active)
		if err != nil {
			return nil, fmt.Errorf("failed to scan action type: %w", err)
		}

		definitions = append(definitions, &definition)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate action types: %w", err)
	}

	return definitions, nil
}

// CollectionRepository resolves collection names from the collections table.
type CollectionRepository struct {
	db *sql.DB
}

func NewCollectionRepository(db *sql.DB) *CollectionRepository {
	return &CollectionRepository{db: db}
}

func (cr *CollectionRepository) ResolveCollectionID(ctx context.Context, tenantID, collectionName string) (string, error) {
	var id string

	err := cr.db.QueryRowContext(ctx,
		"SELECT id FROM collections WHERE tenant_id = $1 AND name = $2", tenantID, collectionName,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", persistence.NewCollectionError(tenantID, collectionName, persistence.ErrCollectionNotFound)
		}

		return "", persistence.NewCollectionError(tenantID, collectionName, err)
	}

	return id, nil
}

func (cr *CollectionRepository) SaveCollection(ctx context.Context, tenantID, collectionID, collectionName string) error {
	_, err := cr.db.ExecContext(ctx, `
		INSERT INTO collections (tenant_id, id, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (tenant_id, id) DO UPDATE SET name = EXCLUDED.name
	`, tenantID, collectionID, collectionName)
	if err != nil {
		return fmt.Errorf("failed to save collection %s: %w", collectionName, err)
	}

	return nil
}
