package persistence_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dukex/ruleflow/pkg/persistence"
	"github.com/stretchr/testify/assert"
)

func TestStandardizedErrors(t *testing.T) {
	t.Parallel()

	t.Run("rule error unwraps to sentinel", func(t *testing.T) {
		err := persistence.NewRuleError("RuleByID", "rule-123", persistence.ErrRuleNotFound)

		assert.True(t, persistence.IsRuleNotFound(err))
		assert.True(t, errors.Is(err, persistence.ErrRuleNotFound))
		assert.False(t, persistence.IsExecutionLogNotFound(err))
		assert.Contains(t, err.Error(), "RuleByID")
		assert.Contains(t, err.Error(), "rule-123")
		assert.Contains(t, err.Error(), "rule not found")
	})

	t.Run("collection error unwraps to sentinel", func(t *testing.T) {
		err := persistence.NewCollectionError("tenant-1", "orders", persistence.ErrCollectionNotFound)

		assert.True(t, persistence.IsCollectionNotFound(err))
		assert.Contains(t, err.Error(), `"orders"`)
		assert.Contains(t, err.Error(), "tenant-1")
	})

	t.Run("wrapped sentinels are detected", func(t *testing.T) {
		err := fmt.Errorf("loading log: %w", persistence.ErrExecutionLogNotFound)

		assert.True(t, persistence.IsExecutionLogNotFound(err))
		assert.False(t, persistence.IsCollectionNotFound(err))
	})
}
