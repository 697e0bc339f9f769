// Package eventbus carries domain events between bounded contexts in
// process. The outbox dispatcher publishes envelopes onto the bus;
// consumers such as the maintenance auto-logger and the notifier
// subscribe by event type name.
package eventbus

import (
	"context"
	"errors"
	"reflect"
	"sync"
)

// EventHandler consumes one delivered event.
type EventHandler func(ctx context.Context, event any) error

// EventBus fans events out to handlers registered for their type.
type EventBus interface {
	Publish(ctx context.Context, event any) error
	Subscribe(eventType string, handler EventHandler)
}

var (
	// ErrNilEvent rejects publishing a nil event.
	ErrNilEvent = errors.New("eventbus: nil event")
	// ErrInvalidEventType rejects events whose type name cannot be resolved.
	ErrInvalidEventType = errors.New("eventbus: invalid event type")
)

// InMemoryBus delivers events synchronously on the publisher's
// goroutine. A failing handler does not stop delivery to the others;
// the joined errors let the dispatcher retry the envelope.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]EventHandler
}

// NewInMemoryBus constructs an empty bus.
func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{handlers: make(map[string][]EventHandler)}
}

// Publish delivers the event to every handler subscribed to its type.
func (b *InMemoryBus) Publish(ctx context.Context, event any) error {
	if event == nil {
		return ErrNilEvent
	}
	name := EventType(event)
	if name == "" {
		return ErrInvalidEventType
	}

	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.handlers[name]...)
	b.mu.RUnlock()

	var errs []error
	for _, handle := range handlers {
		if err := handle(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Subscribe registers a handler for one event type. Empty type names and
// nil handlers are ignored.
func (b *InMemoryBus) Subscribe(eventType string, handler EventHandler) {
	if eventType == "" || handler == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// EventType resolves the bus type name of an event value, unwrapping
// pointers so *T and T share subscriptions.
func EventType(event any) string {
	if event == nil {
		return ""
	}
	t := reflect.TypeOf(event)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.String()
}

// EventTypeOf resolves the bus type name of T without needing a value.
func EventTypeOf[T any]() string {
	return reflect.TypeOf((*T)(nil)).Elem().String()
}
