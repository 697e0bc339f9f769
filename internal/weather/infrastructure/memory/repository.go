package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	weather "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/weather/domain"
)

// Repository is an in-memory observation store used in tests.
type Repository struct {
	mu           sync.RWMutex
	observations map[string]weather.Observation
}

// NewRepository constructs an empty repository.
func NewRepository() *Repository {
	return &Repository{observations: make(map[string]weather.Observation)}
}

func key(communityID string, date time.Time) string {
	return communityID + "|" + date.UTC().Format("2006-01-02")
}

// Upsert writes one observation, replacing any prior entry for the same
// community and date.
func (r *Repository) Upsert(_ context.Context, obs weather.Observation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observations[key(obs.CommunityID, obs.Date)] = obs
	return nil
}

// Get loads one observation.
func (r *Repository) Get(_ context.Context, communityID string, date time.Time) (*weather.Observation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	obs, ok := r.observations[key(communityID, date)]
	if !ok {
		return nil, nil
	}
	copied := obs
	return &copied, nil
}

// ListByCommunity returns observations in [from, to] ordered by date.
func (r *Repository) ListByCommunity(_ context.Context, communityID string, from, to time.Time) ([]weather.Observation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []weather.Observation
	for _, obs := range r.observations {
		if obs.CommunityID != communityID {
			continue
		}
		if obs.Date.Before(from) || obs.Date.After(to) {
			continue
		}
		result = append(result, obs)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}
