// Package protocol defines the contracts between the rule engine and its pluggable collaborators.
package protocol

import (
	"context"
	"log/slog"

	"github.com/dukex/ruleflow/pkg/models"
)

// ActionHandler is a pluggable unit of work selected by its action type key.
type ActionHandler interface {
	// ActionTypeKey is the stable identifier rules use to reference the handler.
	ActionTypeKey() string

	// Execute runs the handler against one attempt's context. Expected failures
	// are reported through a failed result; a returned error is treated the same way.
	Execute(ctx context.Context, actionCtx models.ActionContext, logger *slog.Logger) (*models.ActionResult, error)

	// Validate checks a configuration document without side effects.
	Validate(configJSON string) error
}

// DescribedHandler is implemented by handlers that expose catalogue metadata.
type DescribedHandler interface {
	Name() string
	Description() string
	Schema() map[string]any
}
