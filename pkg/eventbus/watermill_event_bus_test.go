package eventbus_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/ruleflow/pkg/channels/gochannel"
	"github.com/dukex/ruleflow/pkg/eventbus"
	"github.com/dukex/ruleflow/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBus(t *testing.T) *eventbus.WatermillEventBus {
	t.Helper()

	pub, sub, err := gochannel.CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	t.Cleanup(func() { _ = bus.Close() })

	return bus
}

func TestWatermillEventBus_DeliversRecordChange(t *testing.T) {
	bus := newBus(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan *events.RecordChangeEvent, 1)

	require.NoError(t, bus.Handle(events.RecordChangedEvent, func(_ context.Context, event any) error {
		received <- event.(*events.RecordChangeEvent)

		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx))

	err := bus.Publish(ctx, "tenant-1", events.RecordChangeEvent{
		ID:             "evt-1",
		TenantID:       "tenant-1",
		CollectionName: "orders",
		RecordID:       "rec-1",
		ChangeType:     events.ChangeUpdated,
		Data:           map[string]any{"total": 42.0},
		ChangedFields:  []string{"total"},
	})
	require.NoError(t, err)

	select {
	case event := <-received:
		assert.Equal(t, "rec-1", event.RecordID)
		assert.Equal(t, events.ChangeUpdated, event.ChangeType)
		assert.Equal(t, []string{"total"}, event.ChangedFields)
		assert.Equal(t, 42.0, event.Data["total"])
	case <-time.After(5 * time.Second):
		t.Fatal("record change was not delivered")
	}
}

func TestWatermillEventBus_SkipsUnhandledTypes(t *testing.T) {
	bus := newBus(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu    sync.Mutex
		types []events.EventType
	)

	done := make(chan struct{})

	require.NoError(t, bus.Handle(events.RulesChangedEvent, func(_ context.Context, event any) error {
		mu.Lock()
		types = append(types, event.(*events.RulesChanged).GetType())
		mu.Unlock()
		close(done)

		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx))

	require.NoError(t, bus.Publish(ctx, "t", events.ActionTypesChanged{BaseEvent: events.NewBaseEvent(events.ActionTypesChangedEvent, "")}))
	require.NoError(t, bus.Publish(ctx, "t", events.RulesChanged{BaseEvent: events.NewBaseEvent(events.RulesChangedEvent, "t"), RuleID: "r1"}))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("rules change was not delivered")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []events.EventType{events.RulesChangedEvent}, types)
}

func TestWatermillEventBus_PublishNil(t *testing.T) {
	bus := newBus(t)

	require.ErrorIs(t, bus.Publish(context.Background(), "k", nil), eventbus.ErrNilEvent)
}
