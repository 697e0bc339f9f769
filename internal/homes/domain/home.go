package homes

import (
	"context"
	"errors"
	"time"
)

// Home represents a registered home in the registry.
type Home struct {
	ID          string
	TenantID    string
	CommunityID string
	Name        string
	Address     string
	Timezone    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks home invariants.
func (h Home) Validate() error {
	if h.ID == "" {
		return errors.New("home: empty id")
	}
	if h.TenantID == "" {
		return errors.New("home: empty tenant id")
	}
	if h.CommunityID == "" {
		return errors.New("home: empty community id")
	}
	if h.Name == "" {
		return errors.New("home: empty name")
	}
	return nil
}

// HomeRepository manages home persistence.
type HomeRepository interface {
	Get(ctx context.Context, id string) (*Home, error)
	Save(ctx context.Context, home *Home) error
}
