// Package main provides the ruleflow API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/dukex/ruleflow/pkg/eventbus"
	"github.com/dukex/ruleflow/pkg/persistence"
	"github.com/dukex/ruleflow/pkg/services"
	"github.com/dukex/ruleflow/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	engine      web.RuleRunner
	registry    web.HandlerRegistry
	eventBus    eventbus.EventBus
	validate    *validator.Validate
}

// NewAPI builds the API. The event bus may be nil, in which case rule changes
// and registry refreshes are not broadcast.
func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	engine web.RuleRunner,
	registry web.HandlerRegistry,
	eventBus eventbus.EventBus,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		engine:      engine,
		registry:    registry,
		eventBus:    eventBus,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	var publisher eventbus.EventPublisher
	if a.eventBus != nil {
		publisher = a.eventBus
	}

	rulesService := services.NewRules(a.persistence, services.NewActionValidator(a.registry), publisher, a.logger)
	executionsService := services.NewExecutions(a.persistence)

	handlers := web.NewAPIHandlers(rulesService, executionsService, a.engine, a.registry, publisher, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("ruleflow API")
	})

	handlers.Register(app)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
