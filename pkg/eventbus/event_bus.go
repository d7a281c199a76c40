// Package eventbus provides the event-driven plumbing that feeds record changes to the rule engine.
package eventbus

import (
	"context"

	"github.com/dukex/ruleflow/pkg/events"
)

// Event is anything that can travel on the ruleflow topic.
type Event interface {
	GetType() events.EventType
}

// EventPublisher publishes events. The key orders events that share it,
// typically a record or rule id.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event Event) error
}

// EventSubscriber dispatches consumed events to one handler per event type.
// Handlers must be registered before Subscribe.
type EventSubscriber interface {
	Handle(eventType events.EventType, handler EventHandler) error
	Subscribe(ctx context.Context) error
}

// EventHandler receives a pointer to the decoded event. Returning an error
// nacks the message so it is redelivered.
type EventHandler func(ctx context.Context, event any) error

type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
	GenerateID() string
}
