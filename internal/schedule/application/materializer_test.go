package application

import (
	"context"
	"testing"
	"time"

	schedule "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/schedule/domain"
	"github.com/charlesfaubert44-wq/furnacelog-sub001/internal/schedule/infrastructure/memory"
)

func TestMaterializer_TopsUpLowSeries(t *testing.T) {
	now := time.Date(2025, time.August, 29, 12, 0, 0, 0, time.UTC)
	store := memory.NewRepository()
	service, err := NewService(store, store.Occurrences(), nil, fixedClock{at: now}, 2)
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
	if len(result.Occurrences) != 2 {
		t.Fatalf("expected initial batch of 2, got %d", len(result.Occurrences))
	}

	materializer := NewMaterializer(service, 5, 4, "03:00", nil)
	materializer.RunOnce(ctx)

	occurrences, err := service.ListBySeries(ctx, result.Series.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(occurrences) != 6 {
		t.Fatalf("expected 2+4 occurrences after top-up, got %d", len(occurrences))
	}
	for i, occ := range occurrences {
		if occ.SequenceIndex != i {
			t.Fatalf("occurrence %d has sequence index %d", i, occ.SequenceIndex)
		}
	}
}

func TestMaterializer_SkipsHealthySeries(t *testing.T) {
	now := time.Date(2025, time.August, 29, 12, 0, 0, 0, time.UTC)
	service, _, _ := newTestService(t, now)
	ctx := context.Background()

	result, err := service.CreateSeries(ctx, seriesRequest())
	if err != nil {
		t.Fatalf("create series: %v", err)
	}

	// Five pending occurrences already exist; a min-pending of 3 is satisfied.
	materializer := NewMaterializer(service, 3, 4, "03:00", nil)
	materializer.RunOnce(ctx)

	occurrences, err := service.ListBySeries(ctx, result.Series.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(occurrences) != 5 {
		t.Fatalf("healthy series must not grow, got %d", len(occurrences))
	}
}
