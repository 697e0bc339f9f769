package homes

import (
	"context"
	"errors"
	"time"
)

// Known system kinds. The kind is free-form; these are the seeded defaults.
const (
	SystemFurnace     = "furnace"
	SystemWaterHeater = "water_heater"
	SystemHVAC        = "hvac"
	SystemRoof        = "roof"
	SystemGutters     = "gutters"
	SystemSumpPump    = "sump_pump"
)

// HomeSystem represents a maintainable system registered on a home.
type HomeSystem struct {
	ID          string
	HomeID      string
	Kind        string
	Label       string
	InstalledAt time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks system invariants.
func (s HomeSystem) Validate() error {
	if s.ID == "" {
		return errors.New("home system: empty id")
	}
	if s.HomeID == "" {
		return errors.New("home system: empty home id")
	}
	if s.Kind == "" {
		return errors.New("home system: empty kind")
	}
	return nil
}

// SystemRepository manages home system persistence.
type SystemRepository interface {
	ListByHome(ctx context.Context, homeID string) ([]HomeSystem, error)
	Save(ctx context.Context, system *HomeSystem) error
}
