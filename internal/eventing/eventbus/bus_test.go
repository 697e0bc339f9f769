package eventbus

import (
	"context"
	"errors"
	"testing"
)

type filterSwapped struct {
	HomeID string
}

func TestInMemoryBus_DeliversByTypeName(t *testing.T) {
	bus := NewInMemoryBus()
	var got []string
	bus.Subscribe(EventTypeOf[filterSwapped](), func(_ context.Context, event any) error {
		switch e := event.(type) {
		case filterSwapped:
			got = append(got, e.HomeID)
		case *filterSwapped:
			got = append(got, e.HomeID)
		}
		return nil
	})

	if err := bus.Publish(context.Background(), filterSwapped{HomeID: "home-1"}); err != nil {
		t.Fatalf("publish value: %v", err)
	}
	// Pointer events reach the same subscribers as value events.
	if err := bus.Publish(context.Background(), &filterSwapped{HomeID: "home-2"}); err != nil {
		t.Fatalf("publish pointer: %v", err)
	}
	if len(got) != 2 || got[0] != "home-1" || got[1] != "home-2" {
		t.Fatalf("unexpected deliveries: %v", got)
	}
}

func TestInMemoryBus_FailingHandlerDoesNotStopOthers(t *testing.T) {
	bus := NewInMemoryBus()
	handlerErr := errors.New("consumer down")
	delivered := 0
	bus.Subscribe(EventTypeOf[filterSwapped](), func(context.Context, any) error {
		return handlerErr
	})
	bus.Subscribe(EventTypeOf[filterSwapped](), func(context.Context, any) error {
		delivered++
		return nil
	})

	err := bus.Publish(context.Background(), filterSwapped{HomeID: "home-1"})
	if !errors.Is(err, handlerErr) {
		t.Fatalf("expected handler error to surface, got %v", err)
	}
	if delivered != 1 {
		t.Fatalf("second handler must still run, delivered=%d", delivered)
	}
}

func TestInMemoryBus_RejectsNilEvent(t *testing.T) {
	bus := NewInMemoryBus()
	if err := bus.Publish(context.Background(), nil); !errors.Is(err, ErrNilEvent) {
		t.Fatalf("expected ErrNilEvent, got %v", err)
	}
}
