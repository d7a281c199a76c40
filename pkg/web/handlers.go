// Package web provides HTTP handlers and REST API endpoints for rule management.
package web

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/dukex/ruleflow/pkg/eventbus"
	"github.com/dukex/ruleflow/pkg/events"
	"github.com/dukex/ruleflow/pkg/models"
	"github.com/dukex/ruleflow/pkg/services"
	"github.com/dukex/ruleflow/pkg/workflow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// RuleRunner is the part of the engine the API calls synchronously.
type RuleRunner interface {
	ExecuteManualRule(ctx context.Context, trigger workflow.ManualTrigger) (string, error)
	EvaluateBeforeSave(ctx context.Context, req workflow.BeforeSaveRequest) workflow.BeforeSaveResult
}

// HandlerRegistry exposes the action handler registry to the API.
type HandlerRegistry interface {
	services.HandlerLookup
	RegisteredKeys() []string
	Refresh(ctx context.Context)
	HealthCheck() (string, bool)
}

type APIHandlers struct {
	rules      *services.Rules
	executions *services.Executions
	actions    *services.ActionValidator
	engine     RuleRunner
	registry   HandlerRegistry
	publisher  eventbus.EventPublisher
	validator  *validator.Validate
}

// NewAPIHandlers wires the handlers. The publisher may be nil, in which case
// registry refreshes stay local to this process.
func NewAPIHandlers(
	rules *services.Rules,
	executions *services.Executions,
	engine RuleRunner,
	registry HandlerRegistry,
	publisher eventbus.EventPublisher,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		rules:      rules,
		executions: executions,
		actions:    services.NewActionValidator(registry),
		engine:     engine,
		registry:   registry,
		publisher:  publisher,
		validator:  validator,
	}
}

// Register mounts every route on the router.
func (h *APIHandlers) Register(router fiber.Router) {
	router.Get("/health", h.HealthCheck)

	r := router.Group("/rules")
	r.Post("/", h.SaveRule)
	r.Get("/:id", h.GetRule)
	r.Delete("/:id", h.DeleteRule)
	r.Post("/:id/execute", h.ExecuteRule)
	r.Get("/:id/executions", h.GetRuleExecutions)

	router.Get("/executions/:id", h.GetExecution)

	router.Post("/actions/validate", h.ValidateActions)

	router.Get("/action-handlers", h.GetActionHandlers)
	router.Post("/action-handlers/refresh", h.RefreshActionHandlers)

	router.Post("/hooks/before-save", h.BeforeSave)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	registryCheck, regOk := h.registry.HealthCheck()
	repositoryCheck, repOk := h.rules.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Ruleflow API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if regOk && repOk {
		status = "healthy"
		message = "Ruleflow API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"registry":   registryCheck,
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) SaveRule(c fiber.Ctx) error {
	var rule models.WorkflowRule
	if err := c.Bind().JSON(&rule); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	saved, err := h.rules.Save(c.Context(), &rule)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(saved)
}

func (h *APIHandlers) GetRule(c fiber.Ctx) error {
	rule, err := h.rules.ByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(rule)
}

func (h *APIHandlers) DeleteRule(c fiber.Ctx) error {
	err := h.rules.Delete(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ExecuteRule fires a rule manually. The response carries the execution id
// whatever the outcome of the actions; inspect the execution for the result.
func (h *APIHandlers) ExecuteRule(c fiber.Ctx) error {
	var req ExecuteRuleRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	executionID, err := h.engine.ExecuteManualRule(c.Context(), workflow.ManualTrigger{
		TenantID: req.TenantID,
		RuleID:   c.Params("id"),
		RecordID: req.RecordID,
		UserID:   req.UserID,
		Data:     req.Data,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(ExecuteRuleResponse{ExecutionID: executionID})
}

func (h *APIHandlers) GetRuleExecutions(c fiber.Ctx) error {
	limit := 0

	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil {
			return badRequest(c, "Invalid query parameters: "+err.Error())
		}

		limit = parsed
	}

	logs, err := h.executions.ByRule(c.Context(), c.Params("id"), limit)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"executions":  logs,
		"total_count": len(logs),
	})
}

func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	details, err := h.executions.ByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(details)
}

func (h *APIHandlers) ValidateActions(c fiber.Ctx) error {
	var req ValidateActionsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	messages := h.actions.ValidateActions(req.Actions)

	return c.JSON(ValidateActionsResponse{
		Valid:  len(messages) == 0,
		Errors: messages,
	})
}

func (h *APIHandlers) GetActionHandlers(c fiber.Ctx) error {
	keys := h.registry.RegisteredKeys()
	response := make([]ActionHandlerResponse, 0, len(keys))

	for _, key := range keys {
		handler, ok := h.registry.Handler(key)
		if !ok {
			continue
		}

		response = append(response, TransformHandlerResponse(handler))
	}

	return c.JSON(response)
}

// RefreshActionHandlers rebuilds the local registry and tells the other
// services to do the same.
func (h *APIHandlers) RefreshActionHandlers(c fiber.Ctx) error {
	h.registry.Refresh(c.Context())

	keys := h.registry.RegisteredKeys()

	if h.publisher != nil {
		event := events.ActionTypesChanged{
			BaseEvent: events.NewBaseEvent(events.ActionTypesChangedEvent, ""),
			Keys:      keys,
		}

		err := h.publisher.Publish(c.Context(), string(events.ActionTypesChangedEvent), event)
		if err != nil {
			return internalError(c, err)
		}
	}

	return c.JSON(fiber.Map{"handlers": keys})
}

// BeforeSave runs BEFORE_CREATE and BEFORE_UPDATE rules and returns the field
// updates to apply before the record is written.
func (h *APIHandlers) BeforeSave(c fiber.Ctx) error {
	var req workflow.BeforeSaveRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	return c.JSON(h.engine.EvaluateBeforeSave(c.Context(), req))
}
