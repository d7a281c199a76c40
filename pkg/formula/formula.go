// Package formula evaluates rule filter formulas written as text/template expressions.
package formula

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dukex/ruleflow/pkg/template"
)

var ErrNotBoolean = errors.New("formula did not evaluate to a boolean")

// TemplateEvaluator evaluates expressions such as `gt .amount 100.0` or
// `{{ eq .status "paid" }}` against the record data.
type TemplateEvaluator struct{}

func NewTemplateEvaluator() *TemplateEvaluator {
	return &TemplateEvaluator{}
}

func (e *TemplateEvaluator) EvaluateBoolean(expression string, data map[string]any) (bool, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return true, nil
	}

	if !template.NeedsTemplating(expression) {
		expression = "{{ " + expression + " }}"
	}

	if data == nil {
		data = map[string]any{}
	}

	value, err := template.Render(expression, data)
	if err != nil {
		return false, err
	}

	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		// missing keys render empty
		if v == "" {
			return false, nil
		}
	}

	return false, fmt.Errorf("%w: got %v", ErrNotBoolean, value)
}
