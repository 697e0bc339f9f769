package notify

import (
	"context"
	"fmt"
	"log"

	"github.com/charlesfaubert44-wq/furnacelog-sub001/internal/eventing"
	"github.com/charlesfaubert44-wq/furnacelog-sub001/internal/eventing/eventbus"
	schedevents "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/schedule/application/events"
)

const consumerName = "notify.occurrence_completed"

// RegisterOccurrenceCompletedConsumer pings the configured notifier when a
// maintenance task is completed. Notification failures are logged, not
// propagated; a flaky webhook must not poison the event stream.
func RegisterOccurrenceCompletedConsumer(bus eventbus.EventBus, notifier Notifier, store eventing.ProcessedStore, logger *log.Logger) {
	if notifier == nil {
		return
	}
	handler := func(ctx context.Context, event any) error {
		completed, ok := event.(schedevents.OccurrenceCompleted)
		if !ok {
			return fmt.Errorf("notify consumer: unexpected event %T", event)
		}
		msg := Message{
			TenantID: completed.TenantID,
			HomeID:   completed.HomeID,
			Subject:  "Maintenance recorded",
			Body: fmt.Sprintf("%s completed on %s (total cost %.2f)",
				completed.Title,
				completed.CompletedOn.Format("2006-01-02"),
				completed.PartsCost+completed.LaborCost+completed.OtherCost),
			SentAt: completed.OccurredAt,
		}
		if err := notifier.Notify(ctx, msg); err != nil && logger != nil {
			logger.Printf("notify error occurrence_id=%s err=%v", completed.OccurrenceID, err)
		}
		return nil
	}

	eventing.Subscribe(bus, eventbus.EventTypeOf[schedevents.OccurrenceCompleted](), consumerName, handler, store)
}
