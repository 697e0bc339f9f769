package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charlesfaubert44-wq/furnacelog-sub001/internal/eventing/eventbus"
	schedevents "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/schedule/application/events"
)

func TestWebhookNotifier_PostsJSON(t *testing.T) {
	var received Message
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier, err := NewWebhookNotifier(server.URL)
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}
	msg := Message{TenantID: "tenant-a", HomeID: "home-1", Subject: "Maintenance recorded", Body: "done"}
	if err := notifier.Notify(context.Background(), msg); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if received.Subject != "Maintenance recorded" || received.HomeID != "home-1" {
		t.Fatalf("unexpected payload: %+v", received)
	}
}

func TestWebhookNotifier_Non2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	notifier, err := NewWebhookNotifier(server.URL)
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}
	if err := notifier.Notify(context.Background(), Message{}); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}

type captureNotifier struct {
	messages []Message
	err      error
}

func (c *captureNotifier) Notify(_ context.Context, msg Message) error {
	c.messages = append(c.messages, msg)
	return c.err
}

func TestMultiNotifier_FansOut(t *testing.T) {
	first := &captureNotifier{}
	second := &captureNotifier{}
	multi := NewMultiNotifier(first, nil, second)

	if err := multi.Notify(context.Background(), Message{Subject: "hi"}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(first.messages) != 1 || len(second.messages) != 1 {
		t.Fatalf("expected both notifiers called, got %d and %d", len(first.messages), len(second.messages))
	}
}

func TestConsumer_SwallowsDeliveryErrors(t *testing.T) {
	failing := &captureNotifier{err: context.DeadlineExceeded}
	bus := eventbus.NewInMemoryBus()
	RegisterOccurrenceCompletedConsumer(bus, failing, nil, nil)

	event := schedevents.OccurrenceCompleted{
		EventID:      "evt-1",
		TenantID:     "tenant-a",
		HomeID:       "home-1",
		OccurrenceID: "occ-1",
		Title:        "Flush water heater",
		CompletedOn:  time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := bus.Publish(context.Background(), event); err != nil {
		t.Fatalf("delivery failure must not propagate, got %v", err)
	}
	if len(failing.messages) != 1 {
		t.Fatalf("expected 1 attempted delivery, got %d", len(failing.messages))
	}
}
