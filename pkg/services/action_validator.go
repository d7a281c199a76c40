package services

import (
	"fmt"

	"github.com/dukex/ruleflow/pkg/protocol"
)

// HandlerLookup finds the handler registered for an action type.
type HandlerLookup interface {
	Handler(key string) (protocol.ActionHandler, bool)
}

// ActionSpec is an action type and configuration pair awaiting validation.
type ActionSpec struct {
	ActionType string `json:"action_type"`
	Config     string `json:"config"`
}

// ActionValidator checks action configurations against the handlers that will run them.
type ActionValidator struct {
	handlers HandlerLookup
}

func NewActionValidator(handlers HandlerLookup) *ActionValidator {
	return &ActionValidator{handlers: handlers}
}

// ValidateAction returns an empty string when the configuration is accepted,
// otherwise a message naming the action type.
func (v *ActionValidator) ValidateAction(actionType, configJSON string) string {
	handler, ok := v.handlers.Handler(actionType)
	if !ok {
		return "Unknown action type: " + actionType
	}

	err := validateSafely(handler, configJSON)
	if err != nil {
		return fmt.Sprintf("%s: %s", actionType, err.Error())
	}

	return ""
}

// validateSafely turns a panic inside a handler's Validate into an error.
func validateSafely(handler protocol.ActionHandler, configJSON string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("validation panicked: %v", r)
		}
	}()

	return handler.Validate(configJSON)
}

// ValidateActions validates every spec and prefixes each problem with the
// 1-based position of the offending action.
func (v *ActionValidator) ValidateActions(specs []ActionSpec) []string {
	messages := []string{}

	for i, spec := range specs {
		message := v.ValidateAction(spec.ActionType, spec.Config)
		if message != "" {
			messages = append(messages, fmt.Sprintf("Action %d: %s", i+1, message))
		}
	}

	return messages
}
