package weather

import (
	"context"
	"errors"
	"time"
)

// ErrObservationNotFound indicates a missing observation.
var ErrObservationNotFound = errors.New("weather: observation not found")

// Extreme event types recorded by the provider feed.
const (
	EventColdSnap  = "cold_snap"
	EventHeatWave  = "heat_wave"
	EventHighWind  = "high_wind"
	EventHeavyRain = "heavy_rain"
	EventHeavySnow = "heavy_snow"
	EventIceStorm  = "ice_storm"
)

// ExtremeEvent flags a notable weather condition on an observation day.
// Severity is an open scale where higher means more severe; providers in
// practice use 1 through 5.
type ExtremeEvent struct {
	Type        string `json:"type"`
	Severity    int    `json:"severity"`
	Description string `json:"description,omitempty"`
}

// Observation is one community's weather for one calendar date. There is at
// most one observation per (community, date); re-ingesting replaces it.
type Observation struct {
	CommunityID     string         `json:"community_id"`
	Date            time.Time      `json:"date"`
	TempHighC       float64        `json:"temp_high_c"`
	TempLowC        float64        `json:"temp_low_c"`
	TempMeanC       float64        `json:"temp_mean_c"`
	PrecipitationMM float64        `json:"precipitation_mm"`
	WindKPH         float64        `json:"wind_kph"`
	ExtremeEvents   []ExtremeEvent `json:"extreme_events,omitempty"`
}

// Validate checks observation invariants.
func (o Observation) Validate() error {
	if o.CommunityID == "" {
		return errors.New("weather: empty community id")
	}
	if o.Date.IsZero() {
		return errors.New("weather: empty date")
	}
	if o.TempHighC < o.TempLowC {
		return errors.New("weather: high temperature below low")
	}
	if o.PrecipitationMM < 0 {
		return errors.New("weather: negative precipitation")
	}
	if o.WindKPH < 0 {
		return errors.New("weather: negative wind speed")
	}
	for _, event := range o.ExtremeEvents {
		if event.Type == "" {
			return errors.New("weather: extreme event missing type")
		}
		if event.Severity < 1 {
			return errors.New("weather: extreme event severity below 1")
		}
	}
	return nil
}

// HasEvent reports whether the observation carries an extreme event of the
// given type at or above minSeverity.
func (o Observation) HasEvent(eventType string, minSeverity int) bool {
	for _, event := range o.ExtremeEvents {
		if event.Type == eventType && event.Severity >= minSeverity {
			return true
		}
	}
	return false
}

// Repository persists weather observations.
type Repository interface {
	Upsert(ctx context.Context, obs Observation) error
	Get(ctx context.Context, communityID string, date time.Time) (*Observation, error)
	ListByCommunity(ctx context.Context, communityID string, from, to time.Time) ([]Observation, error)
}
