// Package publish implements the PUBLISH_EVENT action, which emits a named
// event on the event bus for downstream consumers.
package publish

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/ruleflow/pkg/actions"
	"github.com/dukex/ruleflow/pkg/eventbus"
	"github.com/dukex/ruleflow/pkg/events"
	"github.com/dukex/ruleflow/pkg/models"
	"github.com/dukex/ruleflow/pkg/template"
)

const TypeKey = "PUBLISH_EVENT"

type config struct {
	EventName string         `json:"event_name"`
	Payload   map[string]any `json:"payload"`
}

type Handler struct {
	publisher eventbus.EventPublisher
}

func NewHandler(publisher eventbus.EventPublisher) *Handler {
	return &Handler{publisher: publisher}
}

func (*Handler) ActionTypeKey() string {
	return TypeKey
}

func (*Handler) Name() string {
	return "Publish event"
}

func (*Handler) Description() string {
	return "Publishes a named event carrying the record context and a templated payload."
}

func (*Handler) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"event_name": map[string]any{
				"type":        "string",
				"description": "Name downstream consumers filter on",
				"minLength":   1,
			},
			"payload": map[string]any{
				"type":        "object",
				"description": "Extra payload. String values support templating.",
			},
		},
		"required": []string{"event_name"},
	}
}

func (h *Handler) Validate(configJSON string) error {
	var cfg config

	return actions.DecodeConfig(configJSON, h.Schema(), &cfg)
}

func (h *Handler) Execute(ctx context.Context, actionCtx models.ActionContext, logger *slog.Logger) (*models.ActionResult, error) {
	var cfg config

	err := actions.DecodeConfig(actionCtx.ActionConfig, h.Schema(), &cfg)
	if err != nil {
		return nil, err
	}

	payload := make(map[string]any, len(cfg.Payload))

	for key, value := range cfg.Payload {
		if text, ok := value.(string); ok && template.NeedsTemplating(text) {
			rendered, err := template.RenderStringWithRecord(text, actionCtx)
			if err != nil {
				return models.Failure(fmt.Sprintf("failed to render payload '%s': %v", key, err)), nil
			}

			value = rendered
		}

		payload[key] = value
	}

	event := events.ActionPublished{
		BaseEvent:      events.NewBaseEvent(events.ActionPublishedEvent, actionCtx.TenantID),
		Name:           cfg.EventName,
		RuleID:         actionCtx.RuleID,
		ExecutionLogID: actionCtx.ExecutionLogID,
		CollectionName: actionCtx.CollectionName,
		RecordID:       actionCtx.RecordID,
		Payload:        payload,
	}

	err = h.publisher.Publish(ctx, actionCtx.TenantID, event)
	if err != nil {
		return nil, fmt.Errorf("failed to publish event '%s': %w", cfg.EventName, err)
	}

	logger.InfoContext(ctx, "Published event", "event_name", cfg.EventName, "event_id", event.ID, "rule_id", actionCtx.RuleID)

	return models.SuccessWithOutput(map[string]any{"event_id": event.ID}), nil
}
