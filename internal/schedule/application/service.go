package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/charlesfaubert44-wq/furnacelog-sub001/internal/eventing"
	"github.com/charlesfaubert44-wq/furnacelog-sub001/internal/schedule/application/events"
	schedule "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/schedule/domain"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// Publisher publishes domain events.
type Publisher interface {
	Publish(ctx context.Context, event any) error
}

// Service coordinates series creation and occurrence edits. Edits operate
// on exactly one occurrence; siblings and the series rule are never
// recomputed from an edit.
type Service struct {
	series      schedule.SeriesRepository
	occurrences schedule.OccurrenceRepository
	publisher   Publisher
	clock       Clock
	batchSize   int
}

// NewService constructs a schedule service.
func NewService(series schedule.SeriesRepository, occurrences schedule.OccurrenceRepository, publisher Publisher, clock Clock, batchSize int) (*Service, error) {
	if series == nil {
		return nil, errors.New("schedule service: nil series repository")
	}
	if occurrences == nil {
		return nil, errors.New("schedule service: nil occurrence repository")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if batchSize <= 0 {
		batchSize = schedule.DefaultMaxOccurrences
	}
	if batchSize > schedule.HardMaxOccurrences {
		batchSize = schedule.HardMaxOccurrences
	}
	return &Service{
		series:      series,
		occurrences: occurrences,
		publisher:   publisher,
		clock:       clock,
		batchSize:   batchSize,
	}, nil
}

// CreateSeriesRequest describes a new recurring series.
type CreateSeriesRequest struct {
	TenantID   string
	HomeID     string
	SystemID   string
	Title      string
	Priority   schedule.Priority
	Rule       schedule.RecurrenceRule
	AnchorDate time.Time
}

// CreateSeriesResult reports the created series and its materialized batch.
type CreateSeriesResult struct {
	Series      schedule.Series
	Occurrences []schedule.ScheduledOccurrence
	Truncated   bool
	Warnings    []string
}

// CreateSeries persists a series and materializes its first batch of
// occurrences.
func (s *Service) CreateSeries(ctx context.Context, req CreateSeriesRequest) (*CreateSeriesResult, error) {
	priority := req.Priority
	if priority == "" {
		priority = schedule.PriorityMedium
	}
	series := schedule.Series{
		ID:         newID("series"),
		TenantID:   req.TenantID,
		HomeID:     req.HomeID,
		SystemID:   req.SystemID,
		Title:      req.Title,
		Priority:   priority,
		Rule:       req.Rule,
		AnchorDate: schedule.DateOnly(req.AnchorDate),
	}
	if err := series.Validate(); err != nil {
		return nil, err
	}

	expansion, err := schedule.Expand(series.Rule, series.AnchorDate, s.batchSize)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	series.CreatedAt = now
	series.UpdatedAt = now
	if err := s.series.Save(ctx, &series); err != nil {
		return nil, err
	}

	batch := make([]schedule.ScheduledOccurrence, 0, len(expansion.Dates))
	for i, dueDate := range expansion.Dates {
		batch = append(batch, schedule.ScheduledOccurrence{
			ID:            newID("occ"),
			TenantID:      series.TenantID,
			HomeID:        series.HomeID,
			SystemID:      series.SystemID,
			SeriesID:      series.ID,
			SequenceIndex: i,
			Title:         series.Title,
			DueDate:       dueDate,
			Status:        schedule.StatusPending,
			Priority:      series.Priority,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}
	if len(batch) > 0 {
		if err := s.occurrences.Insert(ctx, batch); err != nil {
			return nil, err
		}
	}

	if s.publisher != nil {
		err := s.publisher.Publish(ctx, events.SeriesCreated{
			EventID:     eventing.NewEventID(),
			TenantID:    series.TenantID,
			HomeID:      series.HomeID,
			SeriesID:    series.ID,
			Occurrences: len(batch),
			Truncated:   expansion.Truncated,
			OccurredAt:  now,
		})
		if err != nil {
			return nil, fmt.Errorf("publish series created: %w", err)
		}
	}

	return &CreateSeriesResult{
		Series:      series,
		Occurrences: batch,
		Truncated:   expansion.Truncated,
		Warnings:    expansion.Warnings,
	}, nil
}

// Preview expands a rule without persisting anything.
func (s *Service) Preview(rule schedule.RecurrenceRule, anchor time.Time, count int) (schedule.Expansion, error) {
	if count <= 0 {
		count = 5
	}
	return schedule.Expand(rule, anchor, count)
}

// CreateOccurrence persists a one-off occurrence outside any series.
func (s *Service) CreateOccurrence(ctx context.Context, occ schedule.ScheduledOccurrence) (*schedule.ScheduledOccurrence, error) {
	now := s.clock.Now()
	occ.ID = newID("occ")
	occ.SeriesID = ""
	occ.SequenceIndex = 0
	occ.Status = schedule.StatusPending
	if occ.Priority == "" {
		occ.Priority = schedule.PriorityMedium
	}
	occ.DueDate = schedule.DateOnly(occ.DueDate)
	occ.CreatedAt = now
	occ.UpdatedAt = now
	if err := occ.Validate(); err != nil {
		return nil, err
	}
	if occ.DueDate.Before(schedule.DateOnly(now)) {
		return nil, schedule.ErrPastDueDate
	}
	if err := s.occurrences.Insert(ctx, []schedule.ScheduledOccurrence{occ}); err != nil {
		return nil, err
	}
	return &occ, nil
}

// MaterializeNext appends up to count further occurrences to a series,
// continuing from its highest materialized sequence index. The rule's end
// condition still applies, so fewer (or zero) occurrences may be produced.
func (s *Service) MaterializeNext(ctx context.Context, seriesID string, count int) ([]schedule.ScheduledOccurrence, error) {
	if count <= 0 {
		count = s.batchSize
	}
	series, err := s.series.Get(ctx, seriesID)
	if err != nil {
		return nil, err
	}
	if series == nil {
		return nil, schedule.ErrSeriesNotFound
	}

	maxIndex, err := s.occurrences.MaxSequenceIndex(ctx, seriesID)
	if err != nil {
		return nil, err
	}

	wanted := maxIndex + 1 + count
	expansion, err := schedule.Expand(series.Rule, series.AnchorDate, wanted)
	if err != nil {
		return nil, err
	}
	if len(expansion.Dates) <= maxIndex+1 {
		return nil, nil
	}

	now := s.clock.Now()
	batch := make([]schedule.ScheduledOccurrence, 0, len(expansion.Dates)-maxIndex-1)
	for i := maxIndex + 1; i < len(expansion.Dates); i++ {
		batch = append(batch, schedule.ScheduledOccurrence{
			ID:            newID("occ"),
			TenantID:      series.TenantID,
			HomeID:        series.HomeID,
			SystemID:      series.SystemID,
			SeriesID:      series.ID,
			SequenceIndex: i,
			Title:         series.Title,
			DueDate:       expansion.Dates[i],
			Status:        schedule.StatusPending,
			Priority:      series.Priority,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}
	if err := s.occurrences.Insert(ctx, batch); err != nil {
		return nil, err
	}
	return batch, nil
}

// Reschedule moves one occurrence to a new due date.
func (s *Service) Reschedule(ctx context.Context, occurrenceID string, newDate time.Time) (*schedule.ScheduledOccurrence, error) {
	occ, err := s.getOccurrence(ctx, occurrenceID)
	if err != nil {
		return nil, err
	}
	if err := occ.Reschedule(newDate, s.clock.Now()); err != nil {
		return nil, err
	}
	if err := s.occurrences.Update(ctx, occ); err != nil {
		return nil, err
	}
	return occ, nil
}

// CompleteRequest carries optional cost details recorded at completion.
type CompleteRequest struct {
	PartsCost float64
	LaborCost float64
	OtherCost float64
	Notes     string
}

// Complete marks one occurrence completed and publishes the completion
// event. Recording the maintenance log entry is the maintenance context's
// responsibility, not this service's.
func (s *Service) Complete(ctx context.Context, occurrenceID string, req CompleteRequest) (*schedule.ScheduledOccurrence, error) {
	if req.PartsCost < 0 || req.LaborCost < 0 || req.OtherCost < 0 {
		return nil, fmt.Errorf("schedule service: negative cost")
	}
	occ, err := s.getOccurrence(ctx, occurrenceID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if err := occ.Complete(now); err != nil {
		return nil, err
	}
	if err := s.occurrences.Update(ctx, occ); err != nil {
		return nil, err
	}

	if s.publisher != nil {
		err := s.publisher.Publish(ctx, events.OccurrenceCompleted{
			EventID:      eventing.NewEventID(),
			TenantID:     occ.TenantID,
			HomeID:       occ.HomeID,
			SystemID:     occ.SystemID,
			OccurrenceID: occ.ID,
			SeriesID:     occ.SeriesID,
			Title:        occ.Title,
			CompletedOn:  schedule.DateOnly(now),
			PartsCost:    req.PartsCost,
			LaborCost:    req.LaborCost,
			OtherCost:    req.OtherCost,
			Notes:        req.Notes,
			OccurredAt:   now,
		})
		if err != nil {
			return nil, fmt.Errorf("publish occurrence completed: %w", err)
		}
	}
	return occ, nil
}

// Cancel marks one occurrence cancelled.
func (s *Service) Cancel(ctx context.Context, occurrenceID string) (*schedule.ScheduledOccurrence, error) {
	occ, err := s.getOccurrence(ctx, occurrenceID)
	if err != nil {
		return nil, err
	}
	if err := occ.Cancel(s.clock.Now()); err != nil {
		return nil, err
	}
	if err := s.occurrences.Update(ctx, occ); err != nil {
		return nil, err
	}
	return occ, nil
}

// GetSeries loads one series.
func (s *Service) GetSeries(ctx context.Context, id string) (*schedule.Series, error) {
	series, err := s.series.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if series == nil {
		return nil, schedule.ErrSeriesNotFound
	}
	return series, nil
}

// ListBySeries returns all materialized occurrences of a series in
// sequence order.
func (s *Service) ListBySeries(ctx context.Context, seriesID string) ([]schedule.ScheduledOccurrence, error) {
	return s.occurrences.ListBySeries(ctx, seriesID)
}

// ListByHome returns occurrences for a home, optionally filtered by status.
func (s *Service) ListByHome(ctx context.Context, homeID string, status schedule.Status) ([]schedule.ScheduledOccurrence, error) {
	return s.occurrences.ListByHome(ctx, homeID, status)
}

// GetOccurrence loads one occurrence.
func (s *Service) GetOccurrence(ctx context.Context, id string) (*schedule.ScheduledOccurrence, error) {
	return s.getOccurrence(ctx, id)
}

func (s *Service) getOccurrence(ctx context.Context, id string) (*schedule.ScheduledOccurrence, error) {
	occ, err := s.occurrences.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if occ == nil {
		return nil, schedule.ErrOccurrenceNotFound
	}
	return occ, nil
}

func newID(prefix string) string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return prefix + "-" + hex.EncodeToString(buf)
}
