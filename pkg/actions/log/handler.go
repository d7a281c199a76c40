// Package log implements the LOG action, which writes a templated message to the engine logger.
package log

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/ruleflow/pkg/actions"
	"github.com/dukex/ruleflow/pkg/models"
	"github.com/dukex/ruleflow/pkg/template"
)

const TypeKey = "LOG"

type config struct {
	Message string `json:"message"`
	Level   string `json:"level"`
}

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (*Handler) ActionTypeKey() string {
	return TypeKey
}

func (*Handler) Name() string {
	return "Log"
}

func (*Handler) Description() string {
	return "Logs a message at a specified level. Supports templating for dynamic content."
}

func (*Handler) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"message": map[string]any{
				"type":        "string",
				"description": "The message to log. Supports templating for dynamic content.",
				"minLength":   1,
				"examples": []string{
					"Order {{ .record_id }} changed",
					"Total is now {{ .record.total }} (was {{ .previous.total }})",
				},
			},
			"level": map[string]any{
				"type":        "string",
				"description": "Log level for the message",
				"default":     "info",
				"enum":        []string{"debug", "info", "warn", "warning", "error"},
			},
		},
		"required": []string{"message"},
	}
}

func (h *Handler) Validate(configJSON string) error {
	var cfg config

	err := actions.DecodeConfig(configJSON, h.Schema(), &cfg)
	if err != nil {
		return err
	}

	return template.Parse(cfg.Message)
}

func (h *Handler) Execute(ctx context.Context, actionCtx models.ActionContext, logger *slog.Logger) (*models.ActionResult, error) {
	var cfg config

	err := actions.DecodeConfig(actionCtx.ActionConfig, h.Schema(), &cfg)
	if err != nil {
		return nil, err
	}

	message, err := template.RenderStringWithRecord(cfg.Message, actionCtx)
	if err != nil {
		return models.Failure(fmt.Sprintf("failed to render message: %v", err)), nil
	}

	logger.With("action_type", TypeKey).Log(ctx, parseLevel(cfg.Level), message,
		"rule_id", actionCtx.RuleID,
		"record_id", actionCtx.RecordID,
		"collection", actionCtx.CollectionName,
	)

	return models.SuccessWithOutput(map[string]any{"message": message}), nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
