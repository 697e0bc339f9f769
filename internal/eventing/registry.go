package eventing

import (
	"encoding/json"
	"errors"
	"reflect"
	"sync"
)

// ErrUnknownEventType is returned when an envelope names an unregistered type.
var ErrUnknownEventType = errors.New("eventing: unknown event type")

// Registry maps event type names to concrete payload types.
type Registry struct {
	mu    sync.RWMutex
	types map[string]reflect.Type
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]reflect.Type)}
}

// Register records the concrete type of an event prototype.
func (r *Registry) Register(prototype any) {
	if r == nil || prototype == nil {
		return
	}
	t := reflect.TypeOf(prototype)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	r.mu.Lock()
	r.types[t.String()] = t
	r.mu.Unlock()
}

// DecodePayload unmarshals the envelope payload into its registered type.
func (r *Registry) DecodePayload(env Envelope) (any, error) {
	if r == nil {
		return nil, ErrUnknownEventType
	}
	r.mu.RLock()
	t, ok := r.types[env.EventType]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrUnknownEventType
	}
	value := reflect.New(t)
	if err := json.Unmarshal(env.Payload, value.Interface()); err != nil {
		return nil, err
	}
	return value.Elem().Interface(), nil
}
