package integration_test

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	schedule "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/schedule/domain"
	schedulepostgres "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/schedule/infrastructure/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func TestScheduleRepositories_Postgres(t *testing.T) {
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if !tableExists(db, "scheduled_series") || !tableExists(db, "scheduled_occurrences") {
		t.Skip("schedule tables missing; run migrations")
	}

	ctx := context.Background()
	seriesID := "series-it"
	now := time.Date(2026, time.January, 21, 9, 0, 0, 0, time.UTC)

	_, _ = db.ExecContext(ctx, "DELETE FROM scheduled_occurrences WHERE series_id = $1", seriesID)
	_, _ = db.ExecContext(ctx, "DELETE FROM scheduled_series WHERE id = $1", seriesID)

	seriesRepo := schedulepostgres.NewSeriesRepository(db)
	occurrenceRepo := schedulepostgres.NewOccurrenceRepository(db)

	series := &schedule.Series{
		ID:         seriesID,
		TenantID:   "tenant-it",
		HomeID:     "home-it",
		SystemID:   "system-it",
		Title:      "Replace furnace filter",
		Priority:   schedule.PriorityMedium,
		Rule:       schedule.RecurrenceRule{Frequency: schedule.FrequencyMonthly, Interval: 1, End: schedule.EndNever()},
		AnchorDate: now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := seriesRepo.Save(ctx, series); err != nil {
		t.Fatalf("save series: %v", err)
	}

	loaded, err := seriesRepo.Get(ctx, seriesID)
	if err != nil {
		t.Fatalf("get series: %v", err)
	}
	if loaded == nil || loaded.Title != series.Title {
		t.Fatalf("series round trip mismatch: %+v", loaded)
	}
	if !loaded.Rule.End.IsNever() {
		t.Fatalf("expected never-ending rule, got %+v", loaded.Rule)
	}

	batch := []schedule.ScheduledOccurrence{
		{
			ID: "occ-it-0", TenantID: "tenant-it", HomeID: "home-it", SystemID: "system-it",
			SeriesID: seriesID, SequenceIndex: 0, Title: series.Title,
			DueDate: now, Status: schedule.StatusPending, Priority: schedule.PriorityMedium,
			CreatedAt: now, UpdatedAt: now,
		},
		{
			ID: "occ-it-1", TenantID: "tenant-it", HomeID: "home-it", SystemID: "system-it",
			SeriesID: seriesID, SequenceIndex: 1, Title: series.Title,
			DueDate: now.AddDate(0, 1, 0), Status: schedule.StatusPending, Priority: schedule.PriorityMedium,
			CreatedAt: now, UpdatedAt: now,
		},
	}
	if err := occurrenceRepo.Insert(ctx, batch); err != nil {
		t.Fatalf("insert occurrences: %v", err)
	}

	maxIndex, err := occurrenceRepo.MaxSequenceIndex(ctx, seriesID)
	if err != nil {
		t.Fatalf("max sequence index: %v", err)
	}
	if maxIndex != 1 {
		t.Fatalf("expected max index 1, got %d", maxIndex)
	}

	low, err := seriesRepo.ListNeedingMaterialization(ctx, 3)
	if err != nil {
		t.Fatalf("list needing materialization: %v", err)
	}
	found := false
	for _, s := range low {
		if s.ID == seriesID {
			found = true
		}
	}
	if !found {
		t.Fatalf("series with 2 pending must need materialization at min 3")
	}

	occ := batch[0]
	if err := occ.Complete(now.Add(time.Hour)); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := occurrenceRepo.Update(ctx, &occ); err != nil {
		t.Fatalf("update occurrence: %v", err)
	}
	reloaded, err := occurrenceRepo.Get(ctx, occ.ID)
	if err != nil {
		t.Fatalf("get occurrence: %v", err)
	}
	if reloaded == nil || reloaded.Status != schedule.StatusCompleted {
		t.Fatalf("expected completed status, got %+v", reloaded)
	}
}

func tableExists(db *sql.DB, table string) bool {
	var exists bool
	err := db.QueryRow(`
SELECT EXISTS (
	SELECT 1
	FROM information_schema.tables
	WHERE table_schema = 'public' AND table_name = $1
)`, table).Scan(&exists)
	if err != nil {
		return false
	}
	return exists
}
