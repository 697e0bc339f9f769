package maintenance

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNegativeCost rejects entries with any negative cost component.
	ErrNegativeCost = errors.New("maintenance: negative cost")
	// ErrEntryNotFound indicates a missing log entry.
	ErrEntryNotFound = errors.New("maintenance: entry not found")
)

// Cost breaks a maintenance expense into its components.
type Cost struct {
	Parts float64 `json:"parts"`
	Labor float64 `json:"labor"`
	Other float64 `json:"other"`
}

// Total sums the cost components.
func (c Cost) Total() float64 {
	return c.Parts + c.Labor + c.Other
}

// Validate checks that no component is negative.
func (c Cost) Validate() error {
	if c.Parts < 0 || c.Labor < 0 || c.Other < 0 {
		return ErrNegativeCost
	}
	return nil
}

// LogEntry records one completed maintenance activity against a home
// system. The log is append-only; entries are never updated or deleted.
type LogEntry struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenant_id"`
	HomeID       string    `json:"home_id"`
	SystemID     string    `json:"system_id"`
	OccurrenceID string    `json:"occurrence_id,omitempty"`
	Title        string    `json:"title"`
	Date         time.Time `json:"date"`
	Cost         Cost      `json:"cost"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Validate checks entry invariants.
func (e LogEntry) Validate() error {
	if e.ID == "" {
		return errors.New("maintenance: empty id")
	}
	if e.TenantID == "" {
		return errors.New("maintenance: empty tenant id")
	}
	if e.HomeID == "" {
		return errors.New("maintenance: empty home id")
	}
	if e.SystemID == "" {
		return errors.New("maintenance: empty system id")
	}
	if e.Date.IsZero() {
		return errors.New("maintenance: empty date")
	}
	return e.Cost.Validate()
}

// ListFilter narrows maintenance history queries.
type ListFilter struct {
	HomeID   string
	SystemID string
	From     time.Time
	To       time.Time
}

// Repository persists log entries. Insert is append-only.
type Repository interface {
	Insert(ctx context.Context, entry LogEntry) error
	Get(ctx context.Context, id string) (*LogEntry, error)
	List(ctx context.Context, filter ListFilter) ([]LogEntry, error)
}
