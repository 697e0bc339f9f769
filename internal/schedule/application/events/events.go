package events

import "time"

// SeriesCreated is published when a recurring series is created and its
// initial batch of occurrences is materialized.
type SeriesCreated struct {
	EventID     string    `json:"event_id"`
	TenantID    string    `json:"tenant_id"`
	HomeID      string    `json:"home_id"`
	SeriesID    string    `json:"series_id"`
	Occurrences int       `json:"occurrences"`
	Truncated   bool      `json:"truncated"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// EventIdentity returns the event id for idempotent consumption.
func (e SeriesCreated) EventIdentity() string { return e.EventID }

// OccurrenceCompleted is published when an occurrence reaches its completed
// state. The maintenance context consumes it to record a log entry.
type OccurrenceCompleted struct {
	EventID      string    `json:"event_id"`
	TenantID     string    `json:"tenant_id"`
	HomeID       string    `json:"home_id"`
	SystemID     string    `json:"system_id"`
	OccurrenceID string    `json:"occurrence_id"`
	SeriesID     string    `json:"series_id"`
	Title        string    `json:"title"`
	CompletedOn  time.Time `json:"completed_on"`
	PartsCost    float64   `json:"parts_cost"`
	LaborCost    float64   `json:"labor_cost"`
	OtherCost    float64   `json:"other_cost"`
	Notes        string    `json:"notes"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// EventIdentity returns the event id for idempotent consumption.
func (e OccurrenceCompleted) EventIdentity() string { return e.EventID }
