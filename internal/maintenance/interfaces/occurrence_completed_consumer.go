package interfaces

import (
	"context"
	"fmt"
	"log"

	"github.com/charlesfaubert44-wq/furnacelog-sub001/internal/eventing"
	"github.com/charlesfaubert44-wq/furnacelog-sub001/internal/eventing/eventbus"
	"github.com/charlesfaubert44-wq/furnacelog-sub001/internal/maintenance/application"
	maintenance "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/maintenance/domain"
	schedevents "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/schedule/application/events"
)

const consumerName = "maintenance.occurrence_completed"

// RegisterOccurrenceCompletedConsumer subscribes the maintenance context to
// occurrence completions so every completed task lands in the history log.
// The processed store keeps redelivered events from producing duplicate
// entries.
func RegisterOccurrenceCompletedConsumer(bus eventbus.EventBus, service *application.Service, store eventing.ProcessedStore, logger *log.Logger) {
	handler := func(ctx context.Context, event any) error {
		completed, ok := event.(schedevents.OccurrenceCompleted)
		if !ok {
			return fmt.Errorf("maintenance consumer: unexpected event %T", event)
		}
		entry, err := service.Record(ctx, application.RecordRequest{
			TenantID:     completed.TenantID,
			HomeID:       completed.HomeID,
			SystemID:     completed.SystemID,
			OccurrenceID: completed.OccurrenceID,
			Title:        completed.Title,
			Date:         completed.CompletedOn,
			Cost: maintenance.Cost{
				Parts: completed.PartsCost,
				Labor: completed.LaborCost,
				Other: completed.OtherCost,
			},
			Notes: completed.Notes,
		})
		if err != nil {
			return fmt.Errorf("maintenance consumer: record entry: %w", err)
		}
		if logger != nil {
			logger.Printf("maintenance log entry recorded entry_id=%s occurrence_id=%s home_id=%s", entry.ID, completed.OccurrenceID, completed.HomeID)
		}
		return nil
	}

	eventing.Subscribe(bus, eventbus.EventTypeOf[schedevents.OccurrenceCompleted](), consumerName, handler, store)
}
