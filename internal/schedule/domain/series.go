package schedule

import (
	"context"
	"errors"
	"time"
)

// Series groups the occurrences generated from one recurrence rule and
// anchor date. Rule and AnchorDate are set at creation and never rewritten;
// occurrence edits must not feed back into them.
type Series struct {
	ID         string
	TenantID   string
	HomeID     string
	SystemID   string
	Title      string
	Priority   Priority
	Rule       RecurrenceRule
	AnchorDate time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Validate checks series invariants.
func (s Series) Validate() error {
	if s.ID == "" {
		return errors.New("series: empty id")
	}
	if s.TenantID == "" {
		return errors.New("series: empty tenant id")
	}
	if s.HomeID == "" {
		return errors.New("series: empty home id")
	}
	if s.Title == "" {
		return errors.New("series: empty title")
	}
	if s.AnchorDate.IsZero() {
		return errors.New("series: empty anchor date")
	}
	if !s.Priority.Valid() {
		return ErrInvalidPriority
	}
	return s.Rule.Validate()
}

// SeriesRepository persists series definitions.
type SeriesRepository interface {
	Get(ctx context.Context, id string) (*Series, error)
	Save(ctx context.Context, series *Series) error
	ListByHome(ctx context.Context, homeID string) ([]Series, error)
	// ListNeedingMaterialization returns series whose pending occurrence count
	// is below the given minimum.
	ListNeedingMaterialization(ctx context.Context, minPending int) ([]Series, error)
}
