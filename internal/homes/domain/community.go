package homes

import (
	"errors"
	"time"
)

// Community represents a weather reporting area that homes belong to.
type Community struct {
	ID        string
	Name      string
	Region    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks community invariants.
func (c Community) Validate() error {
	if c.ID == "" {
		return errors.New("community: empty id")
	}
	if c.Name == "" {
		return errors.New("community: empty name")
	}
	return nil
}
