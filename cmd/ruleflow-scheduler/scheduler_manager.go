package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukex/ruleflow/pkg/eventbus"
	"github.com/dukex/ruleflow/pkg/events"
)

const shutdownTimeout = 30 * time.Second

// RuleScheduler is the cron side of the scheduler manager.
type RuleScheduler interface {
	Start(ctx context.Context) error
	Reload(ctx context.Context) error
	Stop(ctx context.Context) error
}

type SchedulerManager struct {
	logger    *slog.Logger
	scheduler RuleScheduler
	eventBus  eventbus.EventBus
}

func NewSchedulerManager(scheduler RuleScheduler, eventBus eventbus.EventBus, logger *slog.Logger) *SchedulerManager {
	return &SchedulerManager{
		logger:    logger,
		scheduler: scheduler,
		eventBus:  eventBus,
	}
}

// Start schedules the active rules and listens for rule changes.
func (m *SchedulerManager) Start(ctx context.Context) error {
	m.logger.InfoContext(ctx, "Starting scheduler manager")

	err := m.scheduler.Start(ctx)
	if err != nil {
		return err
	}

	err = m.eventBus.Handle(events.RulesChangedEvent, m.handleRulesChanged)
	if err != nil {
		return err
	}

	err = m.eventBus.Subscribe(ctx)
	if err != nil {
		m.logger.ErrorContext(ctx, "Failed to subscribe to event bus", "error", err)

		return err
	}

	m.logger.InfoContext(ctx, "Scheduler started successfully")

	return nil
}

// Run starts the manager and blocks until SIGINT or SIGTERM, then waits for
// running jobs to finish.
func (m *SchedulerManager) Run(ctx context.Context) error {
	err := m.Start(ctx)
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

	m.logger.InfoContext(ctx, "Shutting down scheduler...")

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	return m.scheduler.Stop(stopCtx)
}

// A failed reload is retried by redelivery.
func (m *SchedulerManager) handleRulesChanged(ctx context.Context, event any) error {
	changed, ok := event.(*events.RulesChanged)
	if !ok {
		m.logger.ErrorContext(ctx, "Invalid event type for RulesChanged")

		return nil
	}

	m.logger.InfoContext(ctx, "Reloading scheduled rules", "rule_id", changed.RuleID)

	return m.scheduler.Reload(ctx)
}
