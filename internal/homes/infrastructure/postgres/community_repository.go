package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	homes "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/homes/domain"
)

const defaultCommunitiesTable = "communities"

// CommunityRepository is a Postgres implementation for communities.
type CommunityRepository struct {
	db    DBTX
	table string
}

// NewCommunityRepository constructs a repository.
func NewCommunityRepository(db DBTX) *CommunityRepository {
	return &CommunityRepository{db: db, table: defaultCommunitiesTable}
}

// Get loads a community by id.
func (r *CommunityRepository) Get(ctx context.Context, id string) (*homes.Community, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("community repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT id, name, region, created_at, updated_at
FROM %s
WHERE id = $1
LIMIT 1`, r.table)

	var community homes.Community
	if err := r.db.QueryRowContext(ctx, query, id).Scan(
		&community.ID,
		&community.Name,
		&community.Region,
		&community.CreatedAt,
		&community.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &community, nil
}

// Save upserts a community.
func (r *CommunityRepository) Save(ctx context.Context, community *homes.Community) error {
	if r == nil || r.db == nil {
		return errors.New("community repo: nil db")
	}
	if community == nil {
		return errors.New("community repo: nil community")
	}
	if err := community.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC()
	if community.CreatedAt.IsZero() {
		community.CreatedAt = now
	}
	community.UpdatedAt = now

	query := fmt.Sprintf(`
INSERT INTO %s (id, name, region, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name,
	region = EXCLUDED.region,
	updated_at = EXCLUDED.updated_at`, r.table)

	_, err := r.db.ExecContext(ctx, query,
		community.ID, community.Name, community.Region, community.CreatedAt, community.UpdatedAt)
	return err
}
