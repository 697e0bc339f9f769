package application

import "time"

// ObservationRecorded is published when a weather observation is stored or
// replaced via ingest.
type ObservationRecorded struct {
	EventID     string    `json:"event_id"`
	CommunityID string    `json:"community_id"`
	Date        time.Time `json:"date"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// EventIdentity returns the event id for idempotent consumption.
func (e ObservationRecorded) EventIdentity() string { return e.EventID }
