package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/charlesfaubert44-wq/furnacelog-sub001/internal/schedule/application/events"
	schedule "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/schedule/domain"
	"github.com/charlesfaubert44-wq/furnacelog-sub001/internal/schedule/infrastructure/memory"
)

type fixedClock struct {
	at time.Time
}

func (c fixedClock) Now() time.Time { return c.at }

type capturePublisher struct {
	mu     sync.Mutex
	events []any
}

func (p *capturePublisher) Publish(_ context.Context, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func newTestService(t *testing.T, now time.Time) (*Service, *memory.Repository, *capturePublisher) {
	t.Helper()
	store := memory.NewRepository()
	publisher := &capturePublisher{}
	service, err := NewService(store, store.Occurrences(), publisher, fixedClock{at: now}, 10)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service, store, publisher
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seriesRequest() CreateSeriesRequest {
	return CreateSeriesRequest{
		TenantID:   "tenant-a",
		HomeID:     "home-1",
		SystemID:   "system-furnace",
		Title:      "Replace furnace filter",
		Priority:   schedule.PriorityMedium,
		Rule:       schedule.RecurrenceRule{Frequency: schedule.FrequencyMonthly, Interval: 1, End: schedule.EndAfterCount(5)},
		AnchorDate: day(2025, time.September, 15),
	}
}

func TestCreateSeries_MaterializesBatch(t *testing.T) {
	now := time.Date(2025, time.August, 29, 12, 0, 0, 0, time.UTC)
	service, _, publisher := newTestService(t, now)

	result, err := service.CreateSeries(context.Background(), seriesRequest())
	if err != nil {
		t.Fatalf("create series: %v", err)
	}
	if len(result.Occurrences) != 5 {
		t.Fatalf("expected 5 occurrences, got %d", len(result.Occurrences))
	}
	if result.Truncated {
		t.Fatal("count-bounded series must not truncate")
	}
	for i, occ := range result.Occurrences {
		if occ.SequenceIndex != i {
			t.Fatalf("occurrence %d has sequence index %d", i, occ.SequenceIndex)
		}
		if occ.SeriesID != result.Series.ID {
			t.Fatalf("occurrence %d not linked to series", i)
		}
		if occ.Status != schedule.StatusPending {
			t.Fatalf("occurrence %d not pending", i)
		}
	}

	if len(publisher.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(publisher.events))
	}
	created, ok := publisher.events[0].(events.SeriesCreated)
	if !ok {
		t.Fatalf("expected SeriesCreated, got %T", publisher.events[0])
	}
	if created.Occurrences != 5 {
		t.Fatalf("expected 5 occurrences in event, got %d", created.Occurrences)
	}
}

func TestReschedule_LeavesSiblingsUntouched(t *testing.T) {
	now := time.Date(2025, time.August, 29, 12, 0, 0, 0, time.UTC)
	service, _, _ := newTestService(t, now)
	ctx := context.Background()

	result, err := service.CreateSeries(ctx, seriesRequest())
	if err != nil {
		t.Fatalf("create series: %v", err)
	}
	original := make(map[string]time.Time, len(result.Occurrences))
	for _, occ := range result.Occurrences {
		original[occ.ID] = occ.DueDate
	}

	target := result.Occurrences[1]
	moved, err := service.Reschedule(ctx, target.ID, day(2025, time.November, 1))
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if !moved.DueDate.Equal(day(2025, time.November, 1)) {
		t.Fatalf("expected moved due date, got %s", moved.DueDate)
	}

	after, err := service.ListBySeries(ctx, result.Series.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, occ := range after {
		if occ.ID == target.ID {
			continue
		}
		if !occ.DueDate.Equal(original[occ.ID]) {
			t.Fatalf("sibling %s (index %d) moved from %s to %s", occ.ID, occ.SequenceIndex, original[occ.ID], occ.DueDate)
		}
	}

	// The series anchor is untouched by the edit.
	stored, err := service.series.Get(ctx, result.Series.ID)
	if err != nil {
		t.Fatalf("get series: %v", err)
	}
	if !stored.AnchorDate.Equal(result.Series.AnchorDate) {
		t.Fatalf("series anchor changed: %s vs %s", stored.AnchorDate, result.Series.AnchorDate)
	}
}

func TestReschedule_RejectsPastDate(t *testing.T) {
	now := time.Date(2025, time.August, 29, 12, 0, 0, 0, time.UTC)
	service, _, _ := newTestService(t, now)
	ctx := context.Background()

	result, err := service.CreateSeries(ctx, seriesRequest())
	if err != nil {
		t.Fatalf("create series: %v", err)
	}
	if _, err := service.Reschedule(ctx, result.Occurrences[0].ID, day(2025, time.January, 1)); !errors.Is(err, schedule.ErrPastDueDate) {
		t.Fatalf("expected ErrPastDueDate, got %v", err)
	}
}

func TestComplete_PublishesEventAndFreezesOccurrence(t *testing.T) {
	now := time.Date(2025, time.August, 29, 12, 0, 0, 0, time.UTC)
	service, _, publisher := newTestService(t, now)
	ctx := context.Background()

	result, err := service.CreateSeries(ctx, seriesRequest())
	if err != nil {
		t.Fatalf("create series: %v", err)
	}
	target := result.Occurrences[0]

	completed, err := service.Complete(ctx, target.ID, CompleteRequest{PartsCost: 24.99, Notes: "swapped filter"})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if completed.Status != schedule.StatusCompleted {
		t.Fatalf("expected completed, got %s", completed.Status)
	}

	var completedEvent *events.OccurrenceCompleted
	for _, event := range publisher.events {
		if e, ok := event.(events.OccurrenceCompleted); ok {
			completedEvent = &e
		}
	}
	if completedEvent == nil {
		t.Fatal("expected OccurrenceCompleted event")
	}
	if completedEvent.SystemID != "system-furnace" || completedEvent.PartsCost != 24.99 {
		t.Fatalf("unexpected event payload: %+v", completedEvent)
	}

	if _, err := service.Complete(ctx, target.ID, CompleteRequest{}); !errors.Is(err, schedule.ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition on double complete, got %v", err)
	}
	if _, err := service.Reschedule(ctx, target.ID, day(2025, time.December, 1)); !errors.Is(err, schedule.ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition on rescheduling completed, got %v", err)
	}
}

type failingPublisher struct {
	err error
}

func (p failingPublisher) Publish(context.Context, any) error { return p.err }

func TestPublishFailureSurfaces(t *testing.T) {
	now := time.Date(2025, time.August, 29, 12, 0, 0, 0, time.UTC)
	outboxErr := errors.New("outbox insert failed")
	store := memory.NewRepository()
	service, err := NewService(store, store.Occurrences(), failingPublisher{err: outboxErr}, fixedClock{at: now}, 10)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()

	if _, err := service.CreateSeries(ctx, seriesRequest()); !errors.Is(err, outboxErr) {
		t.Fatalf("expected outbox error from create, got %v", err)
	}

	// Seed an occurrence without the publisher in the way, then fail the
	// completion event.
	occ, err := service.CreateOccurrence(ctx, schedule.ScheduledOccurrence{
		TenantID: "tenant-a",
		HomeID:   "home-1",
		SystemID: "system-furnace",
		Title:    "Replace furnace filter",
		DueDate:  day(2025, time.October, 1),
	})
	if err != nil {
		t.Fatalf("create occurrence: %v", err)
	}
	if _, err := service.Complete(ctx, occ.ID, CompleteRequest{}); !errors.Is(err, outboxErr) {
		t.Fatalf("expected outbox error from complete, got %v", err)
	}
}

func TestMaterializeNext_ContinuesSequence(t *testing.T) {
	now := time.Date(2025, time.August, 29, 12, 0, 0, 0, time.UTC)
	store := memory.NewRepository()
	service, err := NewService(store, store.Occurrences(), nil, fixedClock{at: now}, 3)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()

	req := seriesRequest()
	req.Rule = schedule.RecurrenceRule{Frequency: schedule.FrequencyMonthly, Interval: 1, End: schedule.EndNever()}
	result, err := service.CreateSeries(ctx, req)
	if err != nil {
		t.Fatalf("create series: %v", err)
	}
	if len(result.Occurrences) != 3 {
		t.Fatalf("expected initial batch of 3, got %d", len(result.Occurrences))
	}
	if !result.Truncated {
		t.Fatal("never-ending series capped at batch size must report truncation")
	}

	more, err := service.MaterializeNext(ctx, result.Series.ID, 2)
	if err != nil {
		t.Fatalf("materialize next: %v", err)
	}
	if len(more) != 2 {
		t.Fatalf("expected 2 more occurrences, got %d", len(more))
	}
	if more[0].SequenceIndex != 3 || more[1].SequenceIndex != 4 {
		t.Fatalf("sequence did not continue: %d, %d", more[0].SequenceIndex, more[1].SequenceIndex)
	}
	if !more[0].DueDate.Equal(day(2025, time.December, 15)) {
		t.Fatalf("expected continuation from anchor arithmetic, got %s", more[0].DueDate)
	}
}

func TestMaterializeNext_RespectsEndCondition(t *testing.T) {
	now := time.Date(2025, time.August, 29, 12, 0, 0, 0, time.UTC)
	service, _, _ := newTestService(t, now)
	ctx := context.Background()

	result, err := service.CreateSeries(ctx, seriesRequest())
	if err != nil {
		t.Fatalf("create series: %v", err)
	}
	// All 5 occurrences already materialized; nothing further to produce.
	more, err := service.MaterializeNext(ctx, result.Series.ID, 10)
	if err != nil {
		t.Fatalf("materialize next: %v", err)
	}
	if len(more) != 0 {
		t.Fatalf("expected no further occurrences, got %d", len(more))
	}
}

func TestCreateOccurrence_OneOff(t *testing.T) {
	now := time.Date(2025, time.August, 29, 12, 0, 0, 0, time.UTC)
	service, _, _ := newTestService(t, now)
	ctx := context.Background()

	occ, err := service.CreateOccurrence(ctx, schedule.ScheduledOccurrence{
		TenantID: "tenant-a",
		HomeID:   "home-1",
		SystemID: "system-gutters",
		Title:    "Clean gutters",
		DueDate:  day(2025, time.October, 10),
	})
	if err != nil {
		t.Fatalf("create occurrence: %v", err)
	}
	if occ.SeriesID != "" {
		t.Fatalf("one-off occurrence must not belong to a series, got %q", occ.SeriesID)
	}
	if occ.Priority != schedule.PriorityMedium {
		t.Fatalf("expected default priority, got %s", occ.Priority)
	}
}
