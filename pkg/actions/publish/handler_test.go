package publish_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/dukex/ruleflow/pkg/actions/publish"
	"github.com/dukex/ruleflow/pkg/eventbus"
	"github.com/dukex/ruleflow/pkg/events"
	"github.com/dukex/ruleflow/pkg/mocks"
	"github.com/dukex/ruleflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestHandler_Validate(t *testing.T) {
	handler := publish.NewHandler(nil)

	assert.NoError(t, handler.Validate(`{"event_name": "order.flagged"}`))
	assert.NoError(t, handler.Validate(`{"event_name": "order.flagged", "payload": {"reason": "{{ .record.reason }}"}}`))
	assert.Error(t, handler.Validate(`{"payload": {}}`))
	assert.Error(t, handler.Validate(`{"event_name": "x", "payload": "nope"}`))
}

func TestHandler_Execute(t *testing.T) {
	bus := &mocks.MockEventBus{}

	var published events.ActionPublished

	bus.On("Publish", mock.Anything, "tenant-1", mock.AnythingOfType("events.ActionPublished")).
		Run(func(args mock.Arguments) {
			published = args.Get(2).(events.ActionPublished)
		}).
		Return(nil)

	actionCtx := models.ActionContext{
		TenantID:       "tenant-1",
		CollectionName: "orders",
		RecordID:       "rec-1",
		RuleID:         "rule-1",
		ExecutionLogID: "exec-1",
		Data:           map[string]any{"reason": "late"},
		ActionConfig:   `{"event_name": "order.flagged", "payload": {"reason": "{{ .record.reason }}", "priority": 2}}`,
	}

	result, err := publish.NewHandler(bus).Execute(context.Background(), actionCtx, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	require.True(t, result.Successful)

	assert.Equal(t, "order.flagged", published.Name)
	assert.Equal(t, "rule-1", published.RuleID)
	assert.Equal(t, "exec-1", published.ExecutionLogID)
	assert.Equal(t, "rec-1", published.RecordID)
	assert.Equal(t, map[string]any{"reason": "late", "priority": 2.0}, published.Payload)
	assert.Equal(t, published.ID, result.OutputData["event_id"])

	bus.AssertExpectations(t)
}

func TestHandler_Execute_KeepsRenderedStrings(t *testing.T) {
	bus := &mocks.MockEventBus{}

	var published events.ActionPublished

	bus.On("Publish", mock.Anything, "tenant-1", mock.AnythingOfType("events.ActionPublished")).
		Run(func(args mock.Arguments) {
			published = args.Get(2).(events.ActionPublished)
		}).
		Return(nil)

	actionCtx := models.ActionContext{
		TenantID:     "tenant-1",
		Data:         map[string]any{"zip": "02134"},
		ActionConfig: `{"event_name": "order.shipped", "payload": {"zip": "{{ .record.zip }}"}}`,
	}

	result, err := publish.NewHandler(bus).Execute(context.Background(), actionCtx, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	require.True(t, result.Successful)

	assert.Equal(t, map[string]any{"zip": "02134"}, published.Payload)
}

func TestHandler_Execute_PublishError(t *testing.T) {
	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))

	var publisher eventbus.EventPublisher = bus

	_, err := publish.NewHandler(publisher).Execute(context.Background(), models.ActionContext{
		ActionConfig: `{"event_name": "x"}`,
	}, slog.New(slog.DiscardHandler))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}
