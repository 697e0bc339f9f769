package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	homes "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/homes/domain"
)

const defaultHomesTable = "homes"

// HomeRepository is a Postgres implementation for homes.
type HomeRepository struct {
	db    DBTX
	table string
}

// NewHomeRepository constructs a repository.
func NewHomeRepository(db DBTX) *HomeRepository {
	return &HomeRepository{db: db, table: defaultHomesTable}
}

// Get loads a home by id.
func (r *HomeRepository) Get(ctx context.Context, id string) (*homes.Home, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("home repo: nil db")
	}
	if id == "" {
		return nil, errors.New("home repo: empty id")
	}

	query := fmt.Sprintf(`
SELECT id, tenant_id, community_id, name, address, timezone, created_at, updated_at
FROM %s
WHERE id = $1
LIMIT 1`, r.table)

	var home homes.Home
	if err := r.db.QueryRowContext(ctx, query, id).Scan(
		&home.ID,
		&home.TenantID,
		&home.CommunityID,
		&home.Name,
		&home.Address,
		&home.Timezone,
		&home.CreatedAt,
		&home.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	home.CreatedAt = home.CreatedAt.UTC()
	home.UpdatedAt = home.UpdatedAt.UTC()
	return &home, nil
}

// ListByTenant lists homes owned by a tenant.
func (r *HomeRepository) ListByTenant(ctx context.Context, tenantID string) ([]homes.Home, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("home repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT id, tenant_id, community_id, name, address, timezone, created_at, updated_at
FROM %s
WHERE tenant_id = $1
ORDER BY name ASC`, r.table)

	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []homes.Home
	for rows.Next() {
		var home homes.Home
		if err := rows.Scan(
			&home.ID,
			&home.TenantID,
			&home.CommunityID,
			&home.Name,
			&home.Address,
			&home.Timezone,
			&home.CreatedAt,
			&home.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, home)
	}
	return result, rows.Err()
}

// Save upserts a home.
func (r *HomeRepository) Save(ctx context.Context, home *homes.Home) error {
	if r == nil || r.db == nil {
		return errors.New("home repo: nil db")
	}
	if home == nil {
		return errors.New("home repo: nil home")
	}
	if err := home.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC()
	if home.CreatedAt.IsZero() {
		home.CreatedAt = now
	}
	home.UpdatedAt = now

	query := fmt.Sprintf(`
INSERT INTO %s (id, tenant_id, community_id, name, address, timezone, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET
	community_id = EXCLUDED.community_id,
	name = EXCLUDED.name,
	address = EXCLUDED.address,
	timezone = EXCLUDED.timezone,
	updated_at = EXCLUDED.updated_at`, r.table)

	_, err := r.db.ExecContext(ctx, query,
		home.ID, home.TenantID, home.CommunityID, home.Name, home.Address, home.Timezone,
		home.CreatedAt, home.UpdatedAt)
	return err
}
