package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dukex/ruleflow/pkg/eventbus"
	"github.com/dukex/ruleflow/pkg/events"
)

// RecordEvaluator evaluates committed record changes against the rules.
type RecordEvaluator interface {
	Evaluate(ctx context.Context, event *events.RecordChangeEvent)
}

// HandlerRefresher rebuilds the action handler registry.
type HandlerRefresher interface {
	Refresh(ctx context.Context)
}

type WorkerManager struct {
	id       string
	logger   *slog.Logger
	engine   RecordEvaluator
	registry HandlerRefresher
	eventBus eventbus.EventBus
}

func NewWorkerManager(
	id string,
	engine RecordEvaluator,
	registry HandlerRefresher,
	eventBus eventbus.EventBus,
	logger *slog.Logger,
) *WorkerManager {
	return &WorkerManager{
		id:       id,
		logger:   logger.With("worker_id", id),
		engine:   engine,
		registry: registry,
		eventBus: eventBus,
	}
}

// Start registers the event handlers and begins consuming.
func (w *WorkerManager) Start(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Starting worker manager")

	err := w.eventBus.Handle(events.RecordChangedEvent, w.handleRecordChanged)
	if err != nil {
		return err
	}

	err = w.eventBus.Handle(events.ActionTypesChangedEvent, w.handleActionTypesChanged)
	if err != nil {
		return err
	}

	err = w.eventBus.Subscribe(ctx)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to subscribe to event bus", "error", err)

		return err
	}

	w.logger.InfoContext(ctx, "Worker started successfully")

	return nil
}

// Run starts the worker and blocks until SIGINT or SIGTERM.
func (w *WorkerManager) Run(ctx context.Context) error {
	err := w.Start(ctx)
	if err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-sigChan:
	case <-ctx.Done():
	}

	w.logger.InfoContext(ctx, "Shutting down worker...")

	return nil
}

// Rule and action failures are recorded in the execution logs, so the event
// is always acknowledged.
func (w *WorkerManager) handleRecordChanged(ctx context.Context, event any) error {
	changeEvent, ok := event.(*events.RecordChangeEvent)
	if !ok {
		w.logger.ErrorContext(ctx, "Invalid event type for RecordChangeEvent")

		return nil
	}

	w.logger.DebugContext(ctx, "Processing record change",
		"tenant_id", changeEvent.TenantID,
		"collection", changeEvent.CollectionName,
		"record_id", changeEvent.RecordID,
		"change_type", changeEvent.ChangeType,
	)

	w.engine.Evaluate(ctx, changeEvent)

	return nil
}

func (w *WorkerManager) handleActionTypesChanged(ctx context.Context, event any) error {
	changed, ok := event.(*events.ActionTypesChanged)
	if !ok {
		w.logger.ErrorContext(ctx, "Invalid event type for ActionTypesChanged")

		return nil
	}

	w.logger.InfoContext(ctx, "Refreshing action handlers", "keys", changed.Keys)
	w.registry.Refresh(ctx)

	return nil
}
