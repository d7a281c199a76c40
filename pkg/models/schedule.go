package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

var ErrCronExpressionRequired = errors.New("cron expression is required")

// ParseCronExpression parses a standard 5-field cron expression.
func ParseCronExpression(expression string) (cron.Schedule, error) {
	if expression == "" {
		return nil, ErrCronExpressionRequired
	}

	schedule, err := cron.ParseStandard(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expression, err)
	}

	return schedule, nil
}

// NextRun returns the next firing time of a scheduled rule after the given time.
func (r *WorkflowRule) NextRun(after time.Time) (time.Time, error) {
	schedule, err := ParseCronExpression(r.CronExpression)
	if err != nil {
		return time.Time{}, err
	}

	return schedule.Next(after), nil
}
