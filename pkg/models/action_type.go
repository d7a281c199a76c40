package models

// ActionTypeDefinition is a persisted catalogue entry declaring an action
// type and the handler expected to serve it.
type ActionTypeDefinition struct {
	Key         string `json:"key"          yaml:"key"          validate:"required"`
	Name        string `json:"name"         yaml:"name"`
	Description string `json:"description"  yaml:"description"`
	HandlerName string `json:"handler_name" yaml:"handler_name" validate:"required"`
	Active      bool   `json:"active"       yaml:"active"`
}
