// Package services provides the rule authoring and query layer used by the API.
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dukex/ruleflow/pkg/persistence"
)

// Business Logic Errors - These indicate client errors (4xx responses).
var (
	// Validation Errors (400 Bad Request).
	ErrInvalidRequest = errors.New("invalid request")
	ErrRuleNil        = errors.New("rule cannot be nil")
	ErrRuleIDRequired = errors.New("rule ID is required")

	// Not found (404).
	ErrRuleNotFound         = persistence.ErrRuleNotFound
	ErrExecutionLogNotFound = persistence.ErrExecutionLogNotFound
	ErrCollectionNotFound   = persistence.ErrCollectionNotFound
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// ValidationError carries every problem found while validating a rule.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidRequest
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrRuleNil) ||
		errors.Is(err, ErrRuleIDRequired)
}

// IsNotFoundError checks if an error should return HTTP 404.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrRuleNotFound) ||
		errors.Is(err, ErrExecutionLogNotFound) ||
		errors.Is(err, ErrCollectionNotFound)
}

// NewServiceError creates a new service error with context.
func NewServiceError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
