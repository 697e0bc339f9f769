package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	homes "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/homes/domain"
)

const defaultSystemsTable = "home_systems"

// SystemRepository is a Postgres implementation for home systems.
type SystemRepository struct {
	db    DBTX
	table string
}

// NewSystemRepository constructs a repository.
func NewSystemRepository(db DBTX) *SystemRepository {
	return &SystemRepository{db: db, table: defaultSystemsTable}
}

// ListByHome lists systems registered on a home.
func (r *SystemRepository) ListByHome(ctx context.Context, homeID string) ([]homes.HomeSystem, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("system repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT id, home_id, kind, label, installed_at, created_at, updated_at
FROM %s
WHERE home_id = $1
ORDER BY kind ASC, label ASC`, r.table)

	rows, err := r.db.QueryContext(ctx, query, homeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []homes.HomeSystem
	for rows.Next() {
		var system homes.HomeSystem
		if err := rows.Scan(
			&system.ID,
			&system.HomeID,
			&system.Kind,
			&system.Label,
			&system.InstalledAt,
			&system.CreatedAt,
			&system.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, system)
	}
	return result, rows.Err()
}

// Save upserts a home system.
func (r *SystemRepository) Save(ctx context.Context, system *homes.HomeSystem) error {
	if r == nil || r.db == nil {
		return errors.New("system repo: nil db")
	}
	if system == nil {
		return errors.New("system repo: nil system")
	}
	if err := system.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC()
	if system.CreatedAt.IsZero() {
		system.CreatedAt = now
	}
	system.UpdatedAt = now

	query := fmt.Sprintf(`
INSERT INTO %s (id, home_id, kind, label, installed_at, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO UPDATE SET
	kind = EXCLUDED.kind,
	label = EXCLUDED.label,
	installed_at = EXCLUDED.installed_at,
	updated_at = EXCLUDED.updated_at`, r.table)

	_, err := r.db.ExecContext(ctx, query,
		system.ID, system.HomeID, system.Kind, system.Label, system.InstalledAt,
		system.CreatedAt, system.UpdatedAt)
	return err
}
