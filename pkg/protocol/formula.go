package protocol

// FormulaEvaluator evaluates a rule filter formula against record data.
type FormulaEvaluator interface {
	EvaluateBoolean(expression string, data map[string]any) (bool, error)
}
