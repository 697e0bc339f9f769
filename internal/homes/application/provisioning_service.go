package application

import (
	"context"
	"crypto/sha1"
	"database/sql"
	"encoding/hex"
	"errors"
	"time"

	homes "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/homes/domain"
	homesrepo "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/homes/infrastructure/postgres"
)

// ProvisionRequest defines the home provisioning payload.
type ProvisionRequest struct {
	Home    HomeInput     `json:"home"`
	Systems []SystemInput `json:"systems"`
}

// HomeInput describes a home to provision.
type HomeInput struct {
	ID          string `json:"id"`
	TenantID    string `json:"tenant_id"`
	CommunityID string `json:"community_id"`
	Name        string `json:"name"`
	Address     string `json:"address"`
	Timezone    string `json:"timezone"`
}

// SystemInput describes a home system to register.
type SystemInput struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	Label       string `json:"label"`
	InstalledAt string `json:"installed_at"`
}

// ProvisionResponse summarizes provisioning output.
type ProvisionResponse struct {
	HomeID    string   `json:"home_id"`
	SystemIDs []string `json:"system_ids"`
}

// Service provisions homes and their systems.
type Service struct {
	db *sql.DB
}

// NewService constructs a provisioning service.
func NewService(db *sql.DB) (*Service, error) {
	if db == nil {
		return nil, errors.New("provisioning: nil db")
	}
	return &Service{db: db}, nil
}

// ProvisionHome registers a home and its systems in one transaction.
func (s *Service) ProvisionHome(ctx context.Context, req ProvisionRequest) (*ProvisionResponse, error) {
	if err := validateProvision(req); err != nil {
		return nil, err
	}

	homeID := req.Home.ID
	if homeID == "" {
		homeID = stableID("home", req.Home.TenantID+"|"+req.Home.Name)
	}
	for i := range req.Systems {
		if req.Systems[i].ID == "" {
			req.Systems[i].ID = stableID("system", homeID+"|"+req.Systems[i].Kind+"|"+req.Systems[i].Label)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	homeRepo := homesrepo.NewHomeRepository(tx)
	systemRepo := homesrepo.NewSystemRepository(tx)

	timezone := req.Home.Timezone
	if timezone == "" {
		timezone = "UTC"
	}
	home := &homes.Home{
		ID:          homeID,
		TenantID:    req.Home.TenantID,
		CommunityID: req.Home.CommunityID,
		Name:        req.Home.Name,
		Address:     req.Home.Address,
		Timezone:    timezone,
	}
	if err := homeRepo.Save(ctx, home); err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	systemIDs := make([]string, 0, len(req.Systems))
	for _, input := range req.Systems {
		installedAt := time.Time{}
		if input.InstalledAt != "" {
			parsed, err := time.Parse("2006-01-02", input.InstalledAt)
			if err != nil {
				_ = tx.Rollback()
				return nil, errors.New("provisioning: installed_at must be YYYY-MM-DD")
			}
			installedAt = parsed.UTC()
		}
		system := &homes.HomeSystem{
			ID:          input.ID,
			HomeID:      homeID,
			Kind:        input.Kind,
			Label:       input.Label,
			InstalledAt: installedAt,
		}
		if err := systemRepo.Save(ctx, system); err != nil {
			_ = tx.Rollback()
			return nil, err
		}
		systemIDs = append(systemIDs, system.ID)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &ProvisionResponse{HomeID: homeID, SystemIDs: systemIDs}, nil
}

// ListSystems returns the systems registered on a home.
func (s *Service) ListSystems(ctx context.Context, homeID string) ([]homes.HomeSystem, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("provisioning: nil db")
	}
	return homesrepo.NewSystemRepository(s.db).ListByHome(ctx, homeID)
}

func validateProvision(req ProvisionRequest) error {
	if req.Home.TenantID == "" {
		return errors.New("provisioning: tenant_id required")
	}
	if req.Home.CommunityID == "" {
		return errors.New("provisioning: community_id required")
	}
	if req.Home.Name == "" {
		return errors.New("provisioning: home name required")
	}
	for _, system := range req.Systems {
		if system.Kind == "" {
			return errors.New("provisioning: system kind required")
		}
	}
	return nil
}

func stableID(prefix, seed string) string {
	sum := sha1.Sum([]byte(seed))
	return prefix + "-" + hex.EncodeToString(sum[:8])
}
