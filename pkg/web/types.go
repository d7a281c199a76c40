// Package web provides HTTP request and response types for the rule API.
package web

import (
	"github.com/dukex/ruleflow/pkg/protocol"
	"github.com/dukex/ruleflow/pkg/services"
)

// ExecuteRuleRequest represents the request body for firing a rule manually.
type ExecuteRuleRequest struct {
	TenantID string         `json:"tenant_id,omitempty"`
	RecordID string         `json:"record_id,omitempty"`
	UserID   string         `json:"user_id"             validate:"required"`
	Data     map[string]any `json:"data,omitempty"`
}

type ExecuteRuleResponse struct {
	ExecutionID string `json:"execution_id"`
}

// ValidateActionsRequest represents a batch of action configurations to check.
type ValidateActionsRequest struct {
	Actions []services.ActionSpec `json:"actions" validate:"required,dive"`
}

type ValidateActionsResponse struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// ActionHandlerResponse describes a registered handler.
type ActionHandlerResponse struct {
	Key         string         `json:"key"`
	Name        string         `json:"name,omitempty"`
	Description string         `json:"description,omitempty"`
	Schema      map[string]any `json:"schema,omitempty"`
}

// TransformHandlerResponse includes catalogue metadata only for handlers that expose it.
func TransformHandlerResponse(handler protocol.ActionHandler) ActionHandlerResponse {
	response := ActionHandlerResponse{Key: handler.ActionTypeKey()}

	if described, ok := handler.(protocol.DescribedHandler); ok {
		response.Name = described.Name()
		response.Description = described.Description()
		response.Schema = described.Schema()
	}

	return response
}
