package memory

import (
	"context"
	"sort"
	"sync"

	maintenance "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/maintenance/domain"
)

// Repository is an in-memory maintenance log used in tests.
type Repository struct {
	mu      sync.RWMutex
	entries map[string]maintenance.LogEntry
}

// NewRepository constructs an empty repository.
func NewRepository() *Repository {
	return &Repository{entries: make(map[string]maintenance.LogEntry)}
}

// Insert appends one entry.
func (r *Repository) Insert(_ context.Context, entry maintenance.LogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[entry.ID] = entry
	return nil
}

// Get loads one entry by id.
func (r *Repository) Get(_ context.Context, id string) (*maintenance.LogEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[id]
	if !ok {
		return nil, nil
	}
	copied := entry
	return &copied, nil
}

// List returns entries matching the filter, newest first.
func (r *Repository) List(_ context.Context, filter maintenance.ListFilter) ([]maintenance.LogEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []maintenance.LogEntry
	for _, entry := range r.entries {
		if entry.HomeID != filter.HomeID {
			continue
		}
		if filter.SystemID != "" && entry.SystemID != filter.SystemID {
			continue
		}
		if !filter.From.IsZero() && entry.Date.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && entry.Date.After(filter.To) {
			continue
		}
		result = append(result, entry)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Date.Equal(result[j].Date) {
			return result[i].ID < result[j].ID
		}
		return result[i].Date.After(result[j].Date)
	})
	return result, nil
}
