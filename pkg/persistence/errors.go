package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrRuleNotFound indicates a rule was not found by the given identifier.
	ErrRuleNotFound = errors.New("rule not found")

	// ErrExecutionLogNotFound indicates an execution log was not found.
	ErrExecutionLogNotFound = errors.New("execution log not found")

	// ErrCollectionNotFound indicates the collection name is unknown for the tenant.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrInvalidID indicates an identifier that cannot be stored safely.
	ErrInvalidID = errors.New("invalid identifier")
)

// RuleError wraps rule-related errors with additional context.
type RuleError struct {
	Op     string // Operation being performed (e.g., "RuleByID", "SaveRule")
	RuleID string
	Err    error
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("%s operation failed for rule %s: %v", e.Op, e.RuleID, e.Err)
}

func (e *RuleError) Unwrap() error {
	return e.Err
}

func (e *RuleError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func NewRuleError(op, ruleID string, err error) *RuleError {
	return &RuleError{Op: op, RuleID: ruleID, Err: err}
}

// CollectionError reports a failed collection lookup.
type CollectionError struct {
	TenantID       string
	CollectionName string
	Err            error
}

func (e *CollectionError) Error() string {
	return fmt.Sprintf("collection %q of tenant %s: %v", e.CollectionName, e.TenantID, e.Err)
}

func (e *CollectionError) Unwrap() error {
	return e.Err
}

func NewCollectionError(tenantID, collectionName string, err error) *CollectionError {
	return &CollectionError{TenantID: tenantID, CollectionName: collectionName, Err: err}
}

// IsRuleNotFound checks if an error indicates a rule was not found.
func IsRuleNotFound(err error) bool {
	return errors.Is(err, ErrRuleNotFound)
}

// IsExecutionLogNotFound checks if an error indicates an execution log was not found.
func IsExecutionLogNotFound(err error) bool {
	return errors.Is(err, ErrExecutionLogNotFound)
}

// IsCollectionNotFound checks if an error indicates an unknown collection.
func IsCollectionNotFound(err error) bool {
	return errors.Is(err, ErrCollectionNotFound)
}
