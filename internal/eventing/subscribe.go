package eventing

import (
	"context"

	"github.com/charlesfaubert44-wq/furnacelog-sub001/internal/eventing/eventbus"
)

// ProcessedStore provides idempotency checks.
type ProcessedStore interface {
	HasProcessed(ctx context.Context, eventID, consumerName string) (bool, error)
	MarkProcessed(ctx context.Context, eventID, consumerName string) error
}

// Subscribe wraps handler with idempotency if a store is provided.
func Subscribe(bus eventbus.EventBus, eventType, consumerName string, handler eventbus.EventHandler, store ProcessedStore) {
	if store == nil {
		bus.Subscribe(eventType, handler)
		return
	}
	bus.Subscribe(eventType, WrapHandler(consumerName, handler, store))
}

// WrapHandler enforces idempotency per consumer using the event id.
func WrapHandler(consumerName string, handler eventbus.EventHandler, store ProcessedStore) eventbus.EventHandler {
	return func(ctx context.Context, event any) error {
		eventID := EventIDFromEvent(event)
		if eventID == "" || store == nil {
			return handler(ctx, event)
		}
		done, err := store.HasProcessed(ctx, eventID, consumerName)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if err := handler(ctx, event); err != nil {
			return err
		}
		return store.MarkProcessed(ctx, eventID, consumerName)
	}
}

// Identified is implemented by events that carry their own id.
type Identified interface {
	EventIdentity() string
}

// EventIDFromEvent extracts an event id when the event exposes one.
func EventIDFromEvent(event any) string {
	if identified, ok := event.(Identified); ok {
		return identified.EventIdentity()
	}
	return ""
}
