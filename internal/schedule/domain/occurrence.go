package schedule

import (
	"context"
	"errors"
	"time"
)

// Status is the lifecycle state of a scheduled occurrence.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Priority ranks how urgent an occurrence is.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether the priority is supported.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// ScheduledOccurrence is one concrete scheduled instance of a task.
// Occurrences in the same series share a SeriesID and are unique per
// (SeriesID, SequenceIndex). A one-off occurrence has an empty SeriesID.
type ScheduledOccurrence struct {
	ID            string
	TenantID      string
	HomeID        string
	SystemID      string
	SeriesID      string
	SequenceIndex int
	Title         string
	DueDate       time.Time
	Status        Status
	Priority      Priority
	CompletedAt   time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate checks occurrence invariants.
func (o ScheduledOccurrence) Validate() error {
	if o.ID == "" {
		return errors.New("occurrence: empty id")
	}
	if o.TenantID == "" {
		return errors.New("occurrence: empty tenant id")
	}
	if o.HomeID == "" {
		return errors.New("occurrence: empty home id")
	}
	if o.DueDate.IsZero() {
		return errors.New("occurrence: empty due date")
	}
	if !o.Priority.Valid() {
		return ErrInvalidPriority
	}
	return nil
}

// Terminal reports whether the occurrence is in a final state.
func (o ScheduledOccurrence) Terminal() bool {
	return o.Status == StatusCompleted || o.Status == StatusCancelled
}

// Reschedule moves this occurrence to a new due date. Sibling occurrences
// and the series rule are never touched.
func (o *ScheduledOccurrence) Reschedule(newDate, now time.Time) error {
	if o.Terminal() {
		return ErrInvalidStateTransition
	}
	newDate = DateOnly(newDate)
	if newDate.Before(DateOnly(now)) {
		return ErrPastDueDate
	}
	o.DueDate = newDate
	o.UpdatedAt = now.UTC()
	return nil
}

// Complete moves the occurrence to its terminal completed state.
func (o *ScheduledOccurrence) Complete(now time.Time) error {
	if o.Terminal() {
		return ErrInvalidStateTransition
	}
	o.Status = StatusCompleted
	o.CompletedAt = now.UTC()
	o.UpdatedAt = now.UTC()
	return nil
}

// Cancel moves the occurrence to its terminal cancelled state.
func (o *ScheduledOccurrence) Cancel(now time.Time) error {
	if o.Terminal() {
		return ErrInvalidStateTransition
	}
	o.Status = StatusCancelled
	o.UpdatedAt = now.UTC()
	return nil
}

// OccurrenceRepository persists scheduled occurrences. Update writes only
// the given occurrence; repositories must never cascade to siblings.
type OccurrenceRepository interface {
	Get(ctx context.Context, id string) (*ScheduledOccurrence, error)
	Insert(ctx context.Context, occurrences []ScheduledOccurrence) error
	Update(ctx context.Context, occurrence *ScheduledOccurrence) error
	ListBySeries(ctx context.Context, seriesID string) ([]ScheduledOccurrence, error)
	ListByHome(ctx context.Context, homeID string, status Status) ([]ScheduledOccurrence, error)
	MaxSequenceIndex(ctx context.Context, seriesID string) (int, error)
}
