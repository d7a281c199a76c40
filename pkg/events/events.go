// Package events defines the messages exchanged over the event bus.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic carries every ruleflow event; consumers dispatch on the event type metadata.
const Topic = "ruleflow.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Record lifecycle.
	RecordChangedEvent EventType = "record.changed"

	// Configuration lifecycle.
	ActionTypesChangedEvent EventType = "action_types.changed"
	RulesChangedEvent       EventType = "rules.changed"

	// Emitted by the PUBLISH_EVENT action.
	ActionPublishedEvent EventType = "workflow.action.published"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	TenantID  string         `json:"tenant_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, tenantID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		TenantID:  tenantID,
		Metadata:  make(map[string]any),
	}
}

// ActionTypesChanged asks running processes to rebuild their handler registry.
type ActionTypesChanged struct {
	BaseEvent

	Keys []string `json:"keys,omitempty"`
}

func (a ActionTypesChanged) GetType() EventType {
	return ActionTypesChangedEvent
}

// RulesChanged asks the scheduler to reload scheduled rules.
type RulesChanged struct {
	BaseEvent

	RuleID string `json:"rule_id"`
}

func (r RulesChanged) GetType() EventType {
	return RulesChangedEvent
}

// ActionPublished is the payload emitted by a PUBLISH_EVENT action.
type ActionPublished struct {
	BaseEvent

	Name           string         `json:"name"`
	RuleID         string         `json:"rule_id"`
	ExecutionLogID string         `json:"execution_log_id,omitempty"`
	CollectionName string         `json:"collection_name"`
	RecordID       string         `json:"record_id,omitempty"`
	Payload        map[string]any `json:"payload"`
}

func (a ActionPublished) GetType() EventType {
	return ActionPublishedEvent
}
