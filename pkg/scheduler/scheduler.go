// Package scheduler fires SCHEDULED rules on their cron expressions.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/dukex/ruleflow/pkg/models"
	"github.com/robfig/cron/v3"
)

var ErrNotStarted = errors.New("scheduler is not started")

// RuleSource lists the active rules of a trigger type across tenants.
type RuleSource interface {
	RulesByTrigger(ctx context.Context, triggerType models.TriggerType) ([]*models.WorkflowRule, error)
}

// Runner executes a rule for a cron firing.
type Runner interface {
	ExecuteScheduledRule(ctx context.Context, rule *models.WorkflowRule)
}

type Scheduler struct {
	rules    RuleSource
	runner   Runner
	logger   *slog.Logger
	location *time.Location

	mu      sync.Mutex
	ctx     context.Context
	cron    *cron.Cron
	entries map[string]cron.EntryID
}

type Option func(*Scheduler)

func WithLocation(location *time.Location) Option {
	return func(s *Scheduler) {
		if location != nil {
			s.location = location
		}
	}
}

func New(rules RuleSource, runner Runner, logger *slog.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		rules:    rules,
		runner:   runner,
		logger:   logger.With("module", "scheduler"),
		location: time.UTC,
		entries:  map[string]cron.EntryID{},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start loads the scheduled rules and starts firing them. Jobs run with ctx,
// so cancelling it interrupts retry waits of running rules.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()

	if s.cron != nil {
		s.mu.Unlock()

		return nil
	}

	cronLogger := cronLogger{logger: s.logger}

	c := cron.New(
		cron.WithLocation(s.location),
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger)),
	)

	s.ctx = ctx
	s.cron = c
	s.mu.Unlock()

	err := s.Reload(ctx)
	if err != nil {
		s.mu.Lock()
		if s.cron == c {
			s.cron = nil
			s.ctx = nil
			s.entries = map[string]cron.EntryID{}
		}
		s.mu.Unlock()

		return err
	}

	c.Start()
	s.logger.InfoContext(ctx, "Scheduler started")

	return nil
}

// Stop halts new firings and waits for running rules to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.entries = map[string]cron.EntryID{}
	s.mu.Unlock()

	if c == nil {
		return nil
	}

	s.logger.InfoContext(ctx, "Stopping scheduler")

	select {
	case <-c.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reload replaces every registered job with the current set of scheduled
// rules. Rules with an invalid cron expression are logged and skipped.
func (s *Scheduler) Reload(ctx context.Context) error {
	rules, err := s.rules.RulesByTrigger(ctx, models.TriggerScheduled)
	if err != nil {
		return fmt.Errorf("failed to load scheduled rules: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return ErrNotStarted
	}

	for _, id := range s.entries {
		s.cron.Remove(id)
	}

	s.entries = make(map[string]cron.EntryID, len(rules))

	for _, rule := range rules {
		schedule, err := models.ParseCronExpression(rule.CronExpression)
		if err != nil {
			s.logger.WarnContext(ctx, "Skipping scheduled rule with invalid cron expression",
				"rule_id", rule.ID,
				"cron", rule.CronExpression,
				"error", err,
			)

			continue
		}

		job := cron.NewChain(cron.SkipIfStillRunning(cronLogger{logger: s.logger})).Then(s.job(rule))
		s.entries[rule.ID] = s.cron.Schedule(schedule, job)
	}

	s.logger.InfoContext(ctx, "Scheduled rules loaded", "rules", len(s.entries))

	return nil
}

func (s *Scheduler) job(rule *models.WorkflowRule) cron.Job {
	return cron.FuncJob(func() {
		s.mu.Lock()
		ctx := s.ctx
		s.mu.Unlock()

		s.logger.InfoContext(ctx, "Firing scheduled rule", "rule_id", rule.ID, "tenant_id", rule.TenantID)
		s.runner.ExecuteScheduledRule(ctx, rule)
	})
}

// NextRuns returns the next firing time of each registered rule.
func (s *Scheduler) NextRuns() map[string]time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]time.Time, len(s.entries))
	if s.cron == nil {
		return next
	}

	for ruleID, id := range s.entries {
		next[ruleID] = s.cron.Entry(id).Next
	}

	return next
}

// RuleIDs returns the ids of the registered rules.
func (s *Scheduler) RuleIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.entries))
	for id := range maps.Keys(s.entries) {
		ids = append(ids, id)
	}

	return ids
}

// cronLogger adapts slog to the cron.Logger interface.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
