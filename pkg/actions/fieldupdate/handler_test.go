package fieldupdate_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/dukex/ruleflow/pkg/actions/fieldupdate"
	"github.com/dukex/ruleflow/pkg/models"
	"github.com/dukex/ruleflow/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ protocol.ActionHandler    = (*fieldupdate.Handler)(nil)
	_ protocol.DescribedHandler = (*fieldupdate.Handler)(nil)
)

func TestHandler_Validate(t *testing.T) {
	handler := fieldupdate.NewHandler()

	assert.NoError(t, handler.Validate(`{"fields": {"status": "done"}}`))
	assert.NoError(t, handler.Validate(`{"fields": {"total": "{{ .record.amount }}"}}`))

	assert.Error(t, handler.Validate(`{}`))
	assert.Error(t, handler.Validate(`{"fields": {}}`))
	assert.Error(t, handler.Validate(`{"fields": "status"}`))
	assert.Error(t, handler.Validate(`{"fields": {"total": "{{ .record.amount "}}`))
}

func TestHandler_Execute(t *testing.T) {
	handler := fieldupdate.NewHandler()

	actionCtx := models.ActionContext{
		TenantID:       "tenant-1",
		CollectionName: "orders",
		RecordID:       "rec-1",
		Data:           map[string]any{"amount": 21.0, "customer": "ada"},
		UserID:         "user-1",
		ActionConfig:   `{"fields": {"status": "reviewed", "total": 42, "owner": "{{ upper .record.customer }}", "reviewer": "{{ .user_id }}"}}`,
	}

	result, err := handler.Execute(context.Background(), actionCtx, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	require.True(t, result.Successful)

	assert.Equal(t, map[string]any{
		"status":   "reviewed",
		"total":    42.0,
		"owner":    "ADA",
		"reviewer": "user-1",
	}, result.UpdatedFields())
}

func TestHandler_Execute_InvalidConfig(t *testing.T) {
	handler := fieldupdate.NewHandler()

	_, err := handler.Execute(context.Background(), models.ActionContext{ActionConfig: `{}`}, slog.New(slog.DiscardHandler))
	require.Error(t, err)
}

func TestHandler_Execute_RenderFailure(t *testing.T) {
	handler := fieldupdate.NewHandler()

	actionCtx := models.ActionContext{
		Data:         map[string]any{"amount": "x"},
		ActionConfig: `{"fields": {"total": "{{ gt .record.amount 1 }}"}}`,
	}

	result, err := handler.Execute(context.Background(), actionCtx, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	assert.False(t, result.Successful)
	assert.Contains(t, result.ErrorMessage, "failed to render field 'total'")
}

func TestHandler_Execute_KeepsRenderedStrings(t *testing.T) {
	t.Setenv("RULEFLOW_DB_PASSWORD", "hunter2")

	handler := fieldupdate.NewHandler()

	actionCtx := models.ActionContext{
		Data: map[string]any{"zip": "02134", "sku": "1e3"},
		ActionConfig: `{"fields": {
			"zip_copy": "{{ .record.zip }}",
			"sku_copy": "{{ .record.sku }}",
			"leak": "{{ .env.RULEFLOW_DB_PASSWORD }}"
		}}`,
	}

	result, err := handler.Execute(context.Background(), actionCtx, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	require.True(t, result.Successful)

	assert.Equal(t, map[string]any{
		"zip_copy": "02134",
		"sku_copy": "1e3",
		"leak":     "",
	}, result.UpdatedFields())
}
