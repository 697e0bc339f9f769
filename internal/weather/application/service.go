package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charlesfaubert44-wq/furnacelog-sub001/internal/eventing"
	weather "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/weather/domain"
)

// Publisher publishes domain events.
type Publisher interface {
	Publish(ctx context.Context, event any) error
}

// Service ingests and queries weather observations.
type Service struct {
	repo      weather.Repository
	publisher Publisher
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher makes the service announce each stored observation.
func WithPublisher(publisher Publisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

// NewService constructs a weather service.
func NewService(repo weather.Repository, opts ...Option) (*Service, error) {
	if repo == nil {
		return nil, errors.New("weather service: nil repository")
	}
	s := &Service{repo: repo}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// IngestResult reports how a batch was processed.
type IngestResult struct {
	Accepted int      `json:"accepted"`
	Rejected int      `json:"rejected"`
	Errors   []string `json:"errors,omitempty"`
}

// Ingest upserts a batch of observations. Invalid items are skipped and
// reported; a partially valid batch still stores its valid items.
func (s *Service) Ingest(ctx context.Context, batch []weather.Observation) (IngestResult, error) {
	var result IngestResult
	for i, obs := range batch {
		obs.Date = dateOnly(obs.Date)
		if err := obs.Validate(); err != nil {
			result.Rejected++
			result.Errors = append(result.Errors, fmt.Sprintf("observation %d: %v", i, err))
			continue
		}
		if err := s.repo.Upsert(ctx, obs); err != nil {
			return result, err
		}
		result.Accepted++
		if s.publisher != nil {
			_ = s.publisher.Publish(ctx, ObservationRecorded{
				EventID:     eventing.NewEventID(),
				CommunityID: obs.CommunityID,
				Date:        obs.Date,
				OccurredAt:  time.Now().UTC(),
			})
		}
	}
	return result, nil
}

// List returns a community's observations in [from, to].
func (s *Service) List(ctx context.Context, communityID string, from, to time.Time) ([]weather.Observation, error) {
	return s.repo.ListByCommunity(ctx, communityID, dateOnly(from), dateOnly(to))
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
