package models

import (
	"time"
)

// RetryBackoff selects how the wait between retry attempts grows.
type RetryBackoff string

const (
	BackoffFixed       RetryBackoff = "FIXED"
	BackoffExponential RetryBackoff = "EXPONENTIAL"
)

// DefaultRetryDelaySeconds is applied when an action does not declare a delay.
const DefaultRetryDelaySeconds = 1

// MaxRetryDelay bounds the wait between two attempts.
const MaxRetryDelay = time.Hour

// WorkflowAction is one step of a rule.
type WorkflowAction struct {
	ID                string       `json:"id"                  validate:"required"`
	RuleID            string       `json:"rule_id"`
	ActionType        string       `json:"action_type"         validate:"required"`
	Config            string       `json:"config"`
	ExecutionOrder    int          `json:"execution_order"`
	Active            bool         `json:"active"`
	RetryCount        int          `json:"retry_count"         validate:"min=0"`
	RetryDelaySeconds int          `json:"retry_delay_seconds" validate:"min=1"`
	RetryBackoff      RetryBackoff `json:"retry_backoff"       validate:"omitempty,oneof=FIXED EXPONENTIAL"`
}

// MaxAttempts is the total number of attempts allowed for the action.
func (a *WorkflowAction) MaxAttempts() int {
	if a.RetryCount < 0 {
		return 1
	}

	return a.RetryCount + 1
}

// RetryDelay returns the wait before the attempt that follows the given
// 1-based attempt number, capped at MaxRetryDelay.
func (a *WorkflowAction) RetryDelay(attempt int) time.Duration {
	delaySeconds := a.RetryDelaySeconds
	if delaySeconds < 1 {
		delaySeconds = DefaultRetryDelaySeconds
	}

	if delaySeconds >= int(MaxRetryDelay/time.Second) {
		return MaxRetryDelay
	}

	delay := time.Duration(delaySeconds) * time.Second

	if a.RetryBackoff == BackoffExponential {
		for i := 1; i < attempt && delay < MaxRetryDelay; i++ {
			delay *= 2
		}
	}

	return min(delay, MaxRetryDelay)
}
