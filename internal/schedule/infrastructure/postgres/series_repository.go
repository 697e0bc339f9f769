package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	schedule "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/schedule/domain"
)

const defaultSeriesTable = "scheduled_series"

// SeriesRepository is a Postgres implementation of schedule.SeriesRepository.
// The recurrence rule is stored as JSON in a single column using the rule's
// wire format.
type SeriesRepository struct {
	db    DBTX
	table string
}

// NewSeriesRepository constructs a series repository.
func NewSeriesRepository(db DBTX, opts ...SeriesOption) *SeriesRepository {
	repo := &SeriesRepository{db: db, table: defaultSeriesTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// SeriesOption configures the repository.
type SeriesOption func(*SeriesRepository)

// WithSeriesTable overrides the table name.
func WithSeriesTable(table string) SeriesOption {
	return func(repo *SeriesRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Get loads a series by id. Returns nil when absent.
func (r *SeriesRepository) Get(ctx context.Context, id string) (*schedule.Series, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("series repository: nil db")
	}
	query := fmt.Sprintf(`
SELECT id, tenant_id, home_id, system_id, title, priority, rule, anchor_date, created_at, updated_at
FROM %s
WHERE id = $1`, r.table)

	row := r.db.QueryRowContext(ctx, query, id)
	series, err := scanSeries(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return series, nil
}

// Save upserts a series.
func (r *SeriesRepository) Save(ctx context.Context, series *schedule.Series) error {
	if r == nil || r.db == nil {
		return errors.New("series repository: nil db")
	}
	rule, err := json.Marshal(series.Rule)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	id, tenant_id, home_id, system_id, title, priority, rule, anchor_date, created_at, updated_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
)
ON CONFLICT (id) DO UPDATE SET
	title = EXCLUDED.title,
	priority = EXCLUDED.priority,
	updated_at = EXCLUDED.updated_at`, r.table)

	_, err = r.db.ExecContext(ctx, query,
		series.ID,
		series.TenantID,
		series.HomeID,
		series.SystemID,
		series.Title,
		string(series.Priority),
		rule,
		series.AnchorDate,
		series.CreatedAt,
		series.UpdatedAt,
	)
	return err
}

// ListByHome returns a home's series ordered by creation time.
func (r *SeriesRepository) ListByHome(ctx context.Context, homeID string) ([]schedule.Series, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("series repository: nil db")
	}
	query := fmt.Sprintf(`
SELECT id, tenant_id, home_id, system_id, title, priority, rule, anchor_date, created_at, updated_at
FROM %s
WHERE home_id = $1
ORDER BY created_at ASC, id ASC`, r.table)

	rows, err := r.db.QueryContext(ctx, query, homeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSeries(rows)
}

// ListNeedingMaterialization returns series whose pending occurrence count
// is below minPending. The daily materializer job uses this to keep the
// horizon of upcoming occurrences topped up.
func (r *SeriesRepository) ListNeedingMaterialization(ctx context.Context, minPending int) ([]schedule.Series, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("series repository: nil db")
	}
	query := fmt.Sprintf(`
SELECT s.id, s.tenant_id, s.home_id, s.system_id, s.title, s.priority, s.rule, s.anchor_date, s.created_at, s.updated_at
FROM %s s
LEFT JOIN (
	SELECT series_id, COUNT(*) AS pending
	FROM scheduled_occurrences
	WHERE status = 'pending'
	GROUP BY series_id
) p ON p.series_id = s.id
WHERE COALESCE(p.pending, 0) < $1
ORDER BY s.id ASC`, r.table)

	rows, err := r.db.QueryContext(ctx, query, minPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSeries(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSeries(row rowScanner) (*schedule.Series, error) {
	var (
		series   schedule.Series
		priority string
		rule     []byte
	)
	err := row.Scan(
		&series.ID,
		&series.TenantID,
		&series.HomeID,
		&series.SystemID,
		&series.Title,
		&priority,
		&rule,
		&series.AnchorDate,
		&series.CreatedAt,
		&series.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	series.Priority = schedule.Priority(priority)
	if err := json.Unmarshal(rule, &series.Rule); err != nil {
		return nil, fmt.Errorf("series %s: decode rule: %w", series.ID, err)
	}
	series.AnchorDate = series.AnchorDate.UTC()
	series.CreatedAt = series.CreatedAt.UTC()
	series.UpdatedAt = series.UpdatedAt.UTC()
	return &series, nil
}

func collectSeries(rows *sql.Rows) ([]schedule.Series, error) {
	var result []schedule.Series
	for rows.Next() {
		series, err := scanSeries(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *series)
	}
	return result, rows.Err()
}
