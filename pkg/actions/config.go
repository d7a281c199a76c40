// Package actions holds what the built-in action handlers share: configuration
// decoding and JSON Schema validation.
package actions

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

var ErrInvalidConfig = errors.New("invalid action config")

// ValidateConfig parses configJSON as a JSON object and checks it against schema.
// A blank document is treated as an empty object.
func ValidateConfig(configJSON string, schema map[string]any) (map[string]any, error) {
	if strings.TrimSpace(configJSON) == "" {
		configJSON = "{}"
	}

	var config map[string]any

	err := json.Unmarshal([]byte(configJSON), &config)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if config == nil {
		return nil, fmt.Errorf("%w: config must be a JSON object", ErrInvalidConfig)
	}

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewGoLoader(config))
	if err != nil {
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}

	if !result.Valid() {
		messages := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			messages = append(messages, desc.String())
		}

		return nil, fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(messages, "; "))
	}

	return config, nil
}

// DecodeConfig validates configJSON against schema and decodes it into out.
func DecodeConfig(configJSON string, schema map[string]any, out any) error {
	config, err := ValidateConfig(configJSON, schema)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	err = json.Unmarshal(raw, out)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return nil
}
