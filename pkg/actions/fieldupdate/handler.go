// Package fieldupdate implements the FIELD_UPDATE action: it computes field
// values for the triggering record and reports them as updatedFields.
package fieldupdate

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/dukex/ruleflow/pkg/actions"
	"github.com/dukex/ruleflow/pkg/models"
	"github.com/dukex/ruleflow/pkg/template"
)

// TypeKey is also the only action type allowed to run before a record is saved.
const TypeKey = "FIELD_UPDATE"

type config struct {
	Fields map[string]any `json:"fields"`
}

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (*Handler) ActionTypeKey() string {
	return TypeKey
}

func (*Handler) Name() string {
	return "Field update"
}

func (*Handler) Description() string {
	return "Sets fields on the triggering record. String values may be templates rendered against the record."
}

func (*Handler) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"fields": map[string]any{
				"type":          "object",
				"description":   "Field name to new value. String values support templating.",
				"minProperties": 1,
				"examples": []map[string]any{
					{"status": "reviewed"},
					{"total": "{{ .record.amount }}", "updated_by": "{{ .user_id }}"},
				},
			},
		},
		"required": []string{"fields"},
	}
}

func (h *Handler) Validate(configJSON string) error {
	var cfg config

	err := actions.DecodeConfig(configJSON, h.Schema(), &cfg)
	if err != nil {
		return err
	}

	for name, value := range cfg.Fields {
		text, ok := value.(string)
		if !ok || !template.NeedsTemplating(text) {
			continue
		}

		err = template.Parse(text)
		if err != nil {
			return fmt.Errorf("invalid template for field '%s': %w", name, err)
		}
	}

	return nil
}

func (h *Handler) Execute(ctx context.Context, actionCtx models.ActionContext, logger *slog.Logger) (*models.ActionResult, error) {
	logger = logger.With("module", "field_update_action")

	var cfg config

	err := actions.DecodeConfig(actionCtx.ActionConfig, h.Schema(), &cfg)
	if err != nil {
		return nil, err
	}

	updated := make(map[string]any, len(cfg.Fields))

	for name, value := range cfg.Fields {
		if text, ok := value.(string); ok && template.NeedsTemplating(text) {
			rendered, err := template.RenderStringWithRecord(text, actionCtx)
			if err != nil {
				return models.Failure(fmt.Sprintf("failed to render field '%s': %v", name, err)), nil
			}

			value = rendered
		}

		updated[name] = value
	}

	names := make([]string, 0, len(updated))
	for name := range updated {
		names = append(names, name)
	}

	sort.Strings(names)

	logger.DebugContext(ctx, "Computed field updates", "record_id", actionCtx.RecordID, "fields", names)

	return models.SuccessWithOutput(map[string]any{models.UpdatedFieldsKey: updated}), nil
}
