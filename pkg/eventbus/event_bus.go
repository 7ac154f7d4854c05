// Package eventbus provides publish/subscribe messaging for workflow
// lifecycle events.
package eventbus

import (
	"context"

	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/events"
)

// Event is anything with an event type, published to the workflow topic.
type Event interface {
	GetType() events.EventType
}

// EventHandler processes a decoded event.
type EventHandler func(ctx context.Context, event any) error

// EventBus publishes and dispatches workflow lifecycle events.
type EventBus interface {
	GenerateID() string
	Publish(ctx context.Context, key string, event Event) error
	Subscribe(ctx context.Context) error
	Handle(eventType events.EventType, handler EventHandler) error
	Close() error
}
