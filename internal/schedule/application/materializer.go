package application

import (
	"context"
	"log"
	"time"

	"github.com/charlesfaubert44-wq/furnacelog-sub001/internal/observability/metrics"
)

// Materializer tops up occurrence batches for series whose pending window
// has run low. It runs once per day at a configured HH:MM.
type Materializer struct {
	service    *Service
	minPending int
	batchSize  int
	dailyAt    string
	logger     *log.Logger
}

// NewMaterializer constructs a materializer job.
func NewMaterializer(service *Service, minPending, batchSize int, dailyAt string, logger *log.Logger) *Materializer {
	if minPending <= 0 {
		minPending = 3
	}
	if batchSize <= 0 {
		batchSize = 12
	}
	if dailyAt == "" {
		dailyAt = "03:00"
	}
	return &Materializer{
		service:    service,
		minPending: minPending,
		batchSize:  batchSize,
		dailyAt:    dailyAt,
		logger:     logger,
	}
}

// Start begins the materializer loop.
func (m *Materializer) Start(ctx context.Context) {
	if m == nil || m.service == nil {
		return
	}
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if !m.shouldRun(now.UTC()) {
				continue
			}
			m.RunOnce(ctx)
		}
	}
}

// RunOnce materializes the next batch for every series that has run low.
func (m *Materializer) RunOnce(ctx context.Context) {
	series, err := m.service.series.ListNeedingMaterialization(ctx, m.minPending)
	metrics.ObserveMaterializerRun(err)
	if err != nil {
		if m.logger != nil {
			m.logger.Printf("materializer list error: %v", err)
		}
		return
	}
	for _, s := range series {
		batch, err := m.service.MaterializeNext(ctx, s.ID, m.batchSize)
		if err != nil {
			if m.logger != nil {
				m.logger.Printf("materializer error series_id=%s err=%v", s.ID, err)
			}
			continue
		}
		if m.logger != nil && len(batch) > 0 {
			m.logger.Printf("materialized occurrences series_id=%s count=%d", s.ID, len(batch))
		}
	}
}

func (m *Materializer) shouldRun(now time.Time) bool {
	t, err := time.Parse("15:04", m.dailyAt)
	if err != nil {
		return false
	}
	return now.Hour() == t.Hour() && now.Minute() == t.Minute()
}
