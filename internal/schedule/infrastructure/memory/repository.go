package memory

import (
	"context"
	"sort"
	"sync"

	schedule "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/schedule/domain"
)

// Repository is an in-memory store for series and occurrences, used in
// tests and as a reference implementation of the repository contracts.
type Repository struct {
	mu          sync.RWMutex
	series      map[string]schedule.Series
	occurrences map[string]schedule.ScheduledOccurrence
}

// NewRepository constructs an empty repository.
func NewRepository() *Repository {
	return &Repository{
		series:      make(map[string]schedule.Series),
		occurrences: make(map[string]schedule.ScheduledOccurrence),
	}
}

// Get loads a series by id.
func (r *Repository) Get(_ context.Context, id string) (*schedule.Series, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	series, ok := r.series[id]
	if !ok {
		return nil, nil
	}
	copied := series
	return &copied, nil
}

// Save upserts a series.
func (r *Repository) Save(_ context.Context, series *schedule.Series) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.series[series.ID] = *series
	return nil
}

// ListByHome returns series for a home.
func (r *Repository) ListByHome(_ context.Context, homeID string) ([]schedule.Series, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []schedule.Series
	for _, series := range r.series {
		if series.HomeID == homeID {
			result = append(result, series)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// ListNeedingMaterialization returns series with fewer pending occurrences
// than minPending.
func (r *Repository) ListNeedingMaterialization(_ context.Context, minPending int) ([]schedule.Series, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pending := make(map[string]int)
	for _, occ := range r.occurrences {
		if occ.SeriesID != "" && occ.Status == schedule.StatusPending {
			pending[occ.SeriesID]++
		}
	}
	var result []schedule.Series
	for id, series := range r.series {
		if pending[id] < minPending {
			result = append(result, series)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// GetOccurrence loads an occurrence by id.
func (r *Repository) GetOccurrence(ctx context.Context, id string) (*schedule.ScheduledOccurrence, error) {
	return r.getOccurrence(ctx, id)
}

func (r *Repository) getOccurrence(_ context.Context, id string) (*schedule.ScheduledOccurrence, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	occ, ok := r.occurrences[id]
	if !ok {
		return nil, nil
	}
	copied := occ
	return &copied, nil
}

// Occurrences exposes the occurrence half of the store.
func (r *Repository) Occurrences() *OccurrenceRepository {
	return &OccurrenceRepository{store: r}
}

// OccurrenceRepository adapts the store to schedule.OccurrenceRepository.
type OccurrenceRepository struct {
	store *Repository
}

// Get loads an occurrence by id.
func (r *OccurrenceRepository) Get(ctx context.Context, id string) (*schedule.ScheduledOccurrence, error) {
	return r.store.getOccurrence(ctx, id)
}

// Insert stores a batch of occurrences.
func (r *OccurrenceRepository) Insert(_ context.Context, occurrences []schedule.ScheduledOccurrence) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, occ := range occurrences {
		r.store.occurrences[occ.ID] = occ
	}
	return nil
}

// Update rewrites exactly one occurrence.
func (r *OccurrenceRepository) Update(_ context.Context, occ *schedule.ScheduledOccurrence) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.occurrences[occ.ID]; !ok {
		return schedule.ErrOccurrenceNotFound
	}
	r.store.occurrences[occ.ID] = *occ
	return nil
}

// ListBySeries returns a series' occurrences in sequence order.
func (r *OccurrenceRepository) ListBySeries(_ context.Context, seriesID string) ([]schedule.ScheduledOccurrence, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var result []schedule.ScheduledOccurrence
	for _, occ := range r.store.occurrences {
		if occ.SeriesID == seriesID {
			result = append(result, occ)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SequenceIndex < result[j].SequenceIndex })
	return result, nil
}

// ListByHome returns a home's occurrences, optionally filtered by status.
func (r *OccurrenceRepository) ListByHome(_ context.Context, homeID string, status schedule.Status) ([]schedule.ScheduledOccurrence, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var result []schedule.ScheduledOccurrence
	for _, occ := range r.store.occurrences {
		if occ.HomeID != homeID {
			continue
		}
		if status != "" && occ.Status != status {
			continue
		}
		result = append(result, occ)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DueDate.Equal(result[j].DueDate) {
			return result[i].ID < result[j].ID
		}
		return result[i].DueDate.Before(result[j].DueDate)
	})
	return result, nil
}

// MaxSequenceIndex returns the highest materialized sequence index, or -1.
func (r *OccurrenceRepository) MaxSequenceIndex(_ context.Context, seriesID string) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	maxIndex := -1
	for _, occ := range r.store.occurrences {
		if occ.SeriesID == seriesID && occ.SequenceIndex > maxIndex {
			maxIndex = occ.SequenceIndex
		}
	}
	return maxIndex, nil
}
