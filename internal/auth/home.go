package auth

import (
	"context"
	"database/sql"
	"errors"

	homesrepo "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/homes/infrastructure/postgres"
)

var (
	// ErrTenantMismatch indicates the resource belongs to a different tenant.
	ErrTenantMismatch = errors.New("tenant mismatch")
	// ErrNotFound indicates the resource was not found.
	ErrNotFound = errors.New("resource not found")
)

// HomeTenantChecker validates home tenant ownership.
type HomeTenantChecker interface {
	EnsureHomeTenant(ctx context.Context, tenantID, homeID string) error
}

// HomeChecker checks home ownership using the homes registry.
type HomeChecker struct {
	repo *homesrepo.HomeRepository
}

// NewHomeChecker constructs a HomeChecker.
func NewHomeChecker(db *sql.DB) *HomeChecker {
	if db == nil {
		return nil
	}
	return &HomeChecker{repo: homesrepo.NewHomeRepository(db)}
}

// EnsureHomeTenant verifies a home belongs to the tenant.
func (c *HomeChecker) EnsureHomeTenant(ctx context.Context, tenantID, homeID string) error {
	if c == nil || c.repo == nil {
		return nil
	}
	if tenantID == "" {
		return ErrTenantMismatch
	}
	if homeID == "" {
		return ErrNotFound
	}
	home, err := c.repo.Get(ctx, homeID)
	if err != nil {
		return err
	}
	if home == nil {
		return ErrNotFound
	}
	if home.TenantID != tenantID {
		return ErrTenantMismatch
	}
	return nil
}
