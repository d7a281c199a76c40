package actions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"message": map[string]any{"type": "string", "minLength": 1},
		"level":   map[string]any{"type": "string", "enum": []string{"info", "error"}},
	},
	"required": []string{"message"},
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		wantErr string
	}{
		{name: "valid", config: `{"message": "hi", "level": "info"}`},
		{name: "blank is empty object", config: "  ", wantErr: "message"},
		{name: "not json", config: `{"message":`, wantErr: "invalid action config"},
		{name: "array", config: `[1, 2]`, wantErr: "invalid action config"},
		{name: "null", config: `null`, wantErr: "must be a JSON object"},
		{name: "wrong enum", config: `{"message": "hi", "level": "loud"}`, wantErr: "level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := ValidateConfig(tt.config, testSchema)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "hi", config["message"])

				return
			}

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDecodeConfig(t *testing.T) {
	var out struct {
		Message string `json:"message"`
		Level   string `json:"level"`
	}

	require.NoError(t, DecodeConfig(`{"message": "hello"}`, testSchema, &out))
	assert.Equal(t, "hello", out.Message)
	assert.Empty(t, out.Level)

	require.ErrorIs(t, DecodeConfig(`{}`, testSchema, &out), ErrInvalidConfig)
}
