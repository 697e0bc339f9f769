package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	maintenance "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/maintenance/domain"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// Service records and queries maintenance history.
type Service struct {
	repo  maintenance.Repository
	clock Clock
}

// NewService constructs a maintenance service.
func NewService(repo maintenance.Repository, clock Clock) (*Service, error) {
	if repo == nil {
		return nil, errors.New("maintenance service: nil repository")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Service{repo: repo, clock: clock}, nil
}

// RecordRequest describes a manual log entry.
type RecordRequest struct {
	TenantID     string
	HomeID       string
	SystemID     string
	OccurrenceID string
	Title        string
	Date         time.Time
	Cost         maintenance.Cost
	Notes        string
}

// Record appends a log entry.
func (s *Service) Record(ctx context.Context, req RecordRequest) (*maintenance.LogEntry, error) {
	entry := maintenance.LogEntry{
		ID:           newID(),
		TenantID:     req.TenantID,
		HomeID:       req.HomeID,
		SystemID:     req.SystemID,
		OccurrenceID: req.OccurrenceID,
		Title:        req.Title,
		Date:         dateOnly(req.Date),
		Cost:         req.Cost,
		Notes:        req.Notes,
		CreatedAt:    s.clock.Now(),
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Insert(ctx, entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// List returns the maintenance history matching the filter.
func (s *Service) List(ctx context.Context, filter maintenance.ListFilter) ([]maintenance.LogEntry, error) {
	return s.repo.List(ctx, filter)
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func newID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return "mlog-" + hex.EncodeToString(buf)
}
