package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/ruleflow/pkg/config"
	"github.com/dukex/ruleflow/pkg/eventbus"
	"github.com/dukex/ruleflow/pkg/formula"
	"github.com/dukex/ruleflow/pkg/otelhelper"
	"github.com/dukex/ruleflow/pkg/persistence"
	"github.com/dukex/ruleflow/pkg/registry"
	"github.com/dukex/ruleflow/pkg/workflow"
	cli "github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/trace"
)

// Runtime holds the collaborators every binary builds from CommonFlags.
type Runtime struct {
	Logger      *slog.Logger
	Persistence persistence.Persistence
	EventBus    eventbus.EventBus
	Registry    *registry.Registry
	Collections persistence.CollectionRepository
	Engine      *workflow.Engine
	Tracer      trace.Tracer

	closers []func() error
}

// Bootstrap builds the runtime for a service. On error everything opened so
// far is closed again.
func Bootstrap(ctx context.Context, command *cli.Command, serviceName string, logger *slog.Logger) (rt *Runtime, err error) {
	rt = &Runtime{Logger: logger, Tracer: otelhelper.NoopTracer()}

	defer func() {
		if err != nil {
			rt.Close(ctx)
			rt = nil
		}
	}()

	if command.Bool("otel") {
		rt.Tracer, err = otelhelper.NewTracer(ctx, serviceName)
		if err != nil {
			return rt, fmt.Errorf("failed to initialize tracer: %w", err)
		}
	}

	rt.Persistence, err = NewPersistence(ctx, logger, command.String("database-url"))
	if err != nil {
		return rt, err
	}

	rt.closers = append(rt.closers, func() error { return rt.Persistence.Close(context.WithoutCancel(ctx)) })

	if path := command.String("action-types-file"); path != "" {
		catalog, err := config.LoadCatalog(path)
		if err != nil {
			return rt, err
		}

		err = catalog.Seed(ctx, rt.Persistence)
		if err != nil {
			return rt, err
		}

		logger.InfoContext(ctx, "Seeded catalogue", "action_types", len(catalog.ActionTypes), "collections", len(catalog.Collections))
	}

	rt.EventBus, err = NewEventBus(EventBusConfig{
		Provider:    command.String("event-bus"),
		Brokers:     command.StringSlice("kafka-brokers"),
		ServiceName: serviceName,
		OTELEnabled: command.Bool("otel"),
	}, logger)
	if err != nil {
		return rt, err
	}

	rt.closers = append(rt.closers, rt.EventBus.Close)

	rt.Registry, err = NewRegistry(ctx, logger, rt.Persistence.ActionTypeRepository(), rt.EventBus, command.String("plugins-path"))
	if err != nil {
		return rt, err
	}

	collections, closeCollections, err := NewCollectionRepository(
		ctx, logger, rt.Persistence, command.String("redis-url"), command.Duration("collection-cache-ttl"),
	)
	if err != nil {
		return rt, err
	}

	rt.Collections = collections
	rt.closers = append(rt.closers, closeCollections)

	rt.Engine = workflow.NewEngine(
		rt.Persistence.RuleRepository(),
		rt.Persistence.ExecutionLogRepository(),
		rt.Collections,
		formula.NewTemplateEvaluator(),
		rt.Registry,
		logger,
		workflow.WithTracer(rt.Tracer),
	)

	return rt, nil
}

// Close releases resources in reverse order of acquisition.
func (rt *Runtime) Close(ctx context.Context) {
	var errs []error

	for i := len(rt.closers) - 1; i >= 0; i-- {
		err := rt.closers[i]()
		if err != nil {
			errs = append(errs, err)
		}
	}

	rt.closers = nil

	if err := errors.Join(errs...); err != nil {
		rt.Logger.ErrorContext(ctx, "Failed to close runtime", "error", err)
	}
}
