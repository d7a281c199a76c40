package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordChangeEvent_JSON(t *testing.T) {
	original := RecordChangeEvent{
		ID:             "evt-1",
		TenantID:       "tenant-1",
		CollectionName: "orders",
		RecordID:       "rec-1",
		ChangeType:     ChangeUpdated,
		Data:           map[string]any{"amount": 10.0},
		PreviousData:   map[string]any{"amount": 5.0},
		ChangedFields:  []string{"amount"},
		UserID:         "user-1",
		Timestamp:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	assert.Equal(t, RecordChangedEvent, original.GetType())

	payload, err := json.Marshal(original)
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"change_type":"UPDATED"`)
	assert.Contains(t, string(payload), `"collection_name":"orders"`)

	var decoded RecordChangeEvent

	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, original, decoded)
}

func TestNewBaseEvent(t *testing.T) {
	base := NewBaseEvent(ActionTypesChangedEvent, "tenant-1")

	assert.NotEmpty(t, base.ID)
	assert.Equal(t, ActionTypesChangedEvent, base.Type)
	assert.Equal(t, "tenant-1", base.TenantID)
	assert.NotNil(t, base.Metadata)
	assert.WithinDuration(t, time.Now().UTC(), base.Timestamp, time.Minute)
}

func TestEventTypes(t *testing.T) {
	assert.Equal(t, ActionTypesChangedEvent, ActionTypesChanged{}.GetType())
	assert.Equal(t, RulesChangedEvent, RulesChanged{}.GetType())
	assert.Equal(t, ActionPublishedEvent, ActionPublished{}.GetType())
}
