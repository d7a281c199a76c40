package formula

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateEvaluator_EvaluateBoolean(t *testing.T) {
	evaluator := NewTemplateEvaluator()
	data := map[string]any{
		"amount": 150.0,
		"status": "paid",
		"vip":    true,
	}

	tests := []struct {
		name       string
		expression string
		expected   bool
	}{
		{"bare comparison", "gt .amount 100.0", true},
		{"wrapped comparison", "{{ lt .amount 100.0 }}", false},
		{"string equality", `eq .status "paid"`, true},
		{"boolean field", ".vip", true},
		{"combined", `and (gt .amount 100.0) (eq .status "paid")`, true},
		{"missing field", ".unknown", false},
		{"blank", "   ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := evaluator.EvaluateBoolean(tt.expression, data)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestTemplateEvaluator_Errors(t *testing.T) {
	evaluator := NewTemplateEvaluator()

	_, err := evaluator.EvaluateBoolean("gt .amount", map[string]any{"amount": 1.0})
	require.Error(t, err)

	_, err = evaluator.EvaluateBoolean("{{ .amount", nil)
	require.Error(t, err)

	_, err = evaluator.EvaluateBoolean(".status", map[string]any{"status": "paid"})
	require.ErrorIs(t, err, ErrNotBoolean)
}
