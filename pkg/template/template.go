// Package template renders text/template expressions used in action configuration and filter formulas.
package template

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/dukex/ruleflow/pkg/models"
)

// RecordData builds the data document exposed to templates for one action attempt.
func RecordData(actionCtx models.ActionContext) map[string]any {
	return map[string]any{
		"record":         nonNil(actionCtx.Data),
		"previous":       nonNil(actionCtx.PreviousData),
		"changed_fields": actionCtx.ChangedFields,
		"record_id":      actionCtx.RecordID,
		"collection":     actionCtx.CollectionName,
		"tenant_id":      actionCtx.TenantID,
		"user_id":        actionCtx.UserID,
		"rule_id":        actionCtx.RuleID,
		"execution_id":   actionCtx.ExecutionLogID,
	}
}

func RenderWithRecord(input string, actionCtx models.ActionContext) (any, error) {
	return Render(input, RecordData(actionCtx))
}

// RenderStringWithRecord renders input against the record document and returns the text unchanged.
func RenderStringWithRecord(input string, actionCtx models.ActionContext) (string, error) {
	return RenderString(input, RecordData(actionCtx))
}

// NeedsTemplating reports whether the input contains template actions.
func NeedsTemplating(input string) bool {
	return strings.Contains(input, "{{")
}

// Parse checks that input is a well-formed template.
func Parse(input string) error {
	_, err := template.New("ruleflow").Funcs(funcs()).Parse(input)
	if err != nil {
		return fmt.Errorf("failed to parse template '%s': %w", input, err)
	}

	return nil
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"now": func() string {
			return time.Now().UTC().Format(time.RFC3339)
		},
		"rand": func(max int) int {
			if max <= 0 {
				return 0
			}

			num := make([]byte, 1)

			_, err := rand.Read(num)
			if err != nil {
				return 0
			}

			return int(num[0]) % max
		},
		"contains":  strings.Contains,
		"hasPrefix": strings.HasPrefix,
		"hasSuffix": strings.HasSuffix,
		"lower":     strings.ToLower,
		"upper":     strings.ToUpper,
		"trim":      strings.TrimSpace,
		"default": func(fallback, value any) any {
			if value == nil || value == "" {
				return fallback
			}

			return value
		},
		"toFloat": toFloat,
	}
}

func toFloat(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		return strconv.ParseFloat(v, 64)
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("cannot convert %T to float", value)
	}
}

// RenderString executes the template and returns its output as text, with
// missing values rendered empty.
func RenderString(templateStr string, data any) (string, error) {
	tmpl, err := template.
		New("ruleflow").
		Funcs(funcs()).
		Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template '%s': %w", templateStr, err)
	}

	var buf strings.Builder

	err = tmpl.Execute(&buf, data)
	if err != nil {
		return "", fmt.Errorf("failed to execute template '%s': %w", templateStr, err)
	}

	return strings.ReplaceAll(buf.String(), "<no value>", ""), nil
}

// Render executes the template and coerces the trimmed output into a JSON
// document, number or bool when it parses as one.
func Render(templateStr string, data any) (any, error) {
	output, err := RenderString(templateStr, data)
	if err != nil {
		return nil, err
	}

	result := strings.TrimSpace(output)

	// Try to parse as JSON if it looks like JSON
	if (strings.HasPrefix(result, "{") && strings.HasSuffix(result, "}")) ||
		(strings.HasPrefix(result, "[") && strings.HasSuffix(result, "]")) {
		var jsonResult any

		err := json.Unmarshal([]byte(result), &jsonResult)
		if err == nil {
			return jsonResult, nil
		}

		return jsonResult, fmt.Errorf("failed to parse json '%s': %w", templateStr, err)
	}

	if num, err := strconv.ParseFloat(result, 64); err == nil {
		return num, nil
	}

	if b, err := strconv.ParseBool(result); err == nil {
		return b, nil
	}

	return result, nil
}

func nonNil(data map[string]any) map[string]any {
	if data == nil {
		return map[string]any{}
	}

	return data
}
