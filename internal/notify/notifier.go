package notify

import (
	"context"
	"time"
)

// Message is one outbound notification.
type Message struct {
	TenantID string    `json:"tenant_id"`
	HomeID   string    `json:"home_id"`
	Subject  string    `json:"subject"`
	Body     string    `json:"body"`
	SentAt   time.Time `json:"sent_at"`
}

// Notifier delivers messages to an external channel. Delivery beyond this
// boundary (retries, provider fan-out) is the receiver's concern.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// MultiNotifier fans a message out to several notifiers. The first error
// is returned after all notifiers have been tried.
type MultiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier constructs a MultiNotifier.
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers}
}

// Notify forwards the message to all notifiers.
func (m *MultiNotifier) Notify(ctx context.Context, msg Message) error {
	if m == nil {
		return nil
	}
	var firstErr error
	for _, notifier := range m.notifiers {
		if notifier == nil {
			continue
		}
		if err := notifier.Notify(ctx, msg); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
