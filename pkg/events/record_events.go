package events

import "time"

// ChangeType is the kind of committed mutation a record went through.
type ChangeType string

const (
	ChangeCreated ChangeType = "CREATED"
	ChangeUpdated ChangeType = "UPDATED"
	ChangeDeleted ChangeType = "DELETED"
)

// RecordChangeEvent notifies that a record was committed.
type RecordChangeEvent struct {
	ID             string         `json:"id"`
	TenantID       string         `json:"tenant_id"`
	CollectionName string         `json:"collection_name"`
	RecordID       string         `json:"record_id,omitempty"`
	ChangeType     ChangeType     `json:"change_type"`
	Data           map[string]any `json:"data"`
	PreviousData   map[string]any `json:"previous_data,omitempty"`
	ChangedFields  []string       `json:"changed_fields,omitempty"`
	UserID         string         `json:"user_id"`
	Timestamp      time.Time      `json:"timestamp"`
}

func (r RecordChangeEvent) GetType() EventType {
	return RecordChangedEvent
}
