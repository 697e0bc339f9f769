package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	schedule "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/schedule/domain"
)

const defaultOccurrenceTable = "scheduled_occurrences"

// OccurrenceRepository is a Postgres implementation of
// schedule.OccurrenceRepository. The table carries a unique index on
// (series_id, sequence_index) so concurrent materializers cannot produce
// duplicate occurrences.
type OccurrenceRepository struct {
	db    DBTX
	table string
}

// NewOccurrenceRepository constructs an occurrence repository.
func NewOccurrenceRepository(db DBTX, opts ...OccurrenceOption) *OccurrenceRepository {
	repo := &OccurrenceRepository{db: db, table: defaultOccurrenceTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// OccurrenceOption configures the repository.
type OccurrenceOption func(*OccurrenceRepository)

// WithOccurrenceTable overrides the table name.
func WithOccurrenceTable(table string) OccurrenceOption {
	return func(repo *OccurrenceRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

const occurrenceColumns = `id, tenant_id, home_id, system_id, series_id, sequence_index, title, due_date, status, priority, completed_at, created_at, updated_at`

// Get loads an occurrence by id. Returns nil when absent.
func (r *OccurrenceRepository) Get(ctx context.Context, id string) (*schedule.ScheduledOccurrence, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("occurrence repository: nil db")
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, occurrenceColumns, r.table)
	row := r.db.QueryRowContext(ctx, query, id)
	occ, err := scanOccurrence(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return occ, nil
}

// Insert writes a batch of occurrences in a single statement.
func (r *OccurrenceRepository) Insert(ctx context.Context, occurrences []schedule.ScheduledOccurrence) error {
	if r == nil || r.db == nil {
		return errors.New("occurrence repository: nil db")
	}
	if len(occurrences) == 0 {
		return nil
	}
	var (
		values []string
		args   []any
	)
	for i, occ := range occurrences {
		base := i * 13
		values = append(values, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10, base+11, base+12, base+13))
		args = append(args,
			occ.ID,
			occ.TenantID,
			occ.HomeID,
			occ.SystemID,
			nullIfEmpty(occ.SeriesID),
			occ.SequenceIndex,
			occ.Title,
			occ.DueDate,
			string(occ.Status),
			string(occ.Priority),
			nullIfZeroTime(occ.CompletedAt),
			occ.CreatedAt,
			occ.UpdatedAt,
		)
	}
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES %s`,
		r.table, occurrenceColumns, strings.Join(values, ", "))
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// Update rewrites exactly one occurrence.
func (r *OccurrenceRepository) Update(ctx context.Context, occ *schedule.ScheduledOccurrence) error {
	if r == nil || r.db == nil {
		return errors.New("occurrence repository: nil db")
	}
	query := fmt.Sprintf(`
UPDATE %s SET
	title = $2,
	due_date = $3,
	status = $4,
	priority = $5,
	completed_at = $6,
	updated_at = $7
WHERE id = $1`, r.table)

	result, err := r.db.ExecContext(ctx, query,
		occ.ID,
		occ.Title,
		occ.DueDate,
		string(occ.Status),
		string(occ.Priority),
		nullIfZeroTime(occ.CompletedAt),
		occ.UpdatedAt,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return schedule.ErrOccurrenceNotFound
	}
	return nil
}

// ListBySeries returns a series' occurrences in sequence order.
func (r *OccurrenceRepository) ListBySeries(ctx context.Context, seriesID string) ([]schedule.ScheduledOccurrence, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("occurrence repository: nil db")
	}
	query := fmt.Sprintf(`
SELECT %s FROM %s
WHERE series_id = $1
ORDER BY sequence_index ASC`, occurrenceColumns, r.table)

	rows, err := r.db.QueryContext(ctx, query, seriesID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOccurrences(rows)
}

// ListByHome returns a home's occurrences by due date, optionally filtered
// by status.
func (r *OccurrenceRepository) ListByHome(ctx context.Context, homeID string, status schedule.Status) ([]schedule.ScheduledOccurrence, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("occurrence repository: nil db")
	}
	query := fmt.Sprintf(`
SELECT %s FROM %s
WHERE home_id = $1 AND ($2 = '' OR status = $2)
ORDER BY due_date ASC, id ASC`, occurrenceColumns, r.table)

	rows, err := r.db.QueryContext(ctx, query, homeID, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOccurrences(rows)
}

// MaxSequenceIndex returns the highest materialized sequence index for a
// series, or -1 when none exist.
func (r *OccurrenceRepository) MaxSequenceIndex(ctx context.Context, seriesID string) (int, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("occurrence repository: nil db")
	}
	query := fmt.Sprintf(`
SELECT COALESCE(MAX(sequence_index), -1) FROM %s WHERE series_id = $1`, r.table)

	var maxIndex int
	if err := r.db.QueryRowContext(ctx, query, seriesID).Scan(&maxIndex); err != nil {
		return 0, err
	}
	return maxIndex, nil
}

func scanOccurrence(row rowScanner) (*schedule.ScheduledOccurrence, error) {
	var (
		occ         schedule.ScheduledOccurrence
		seriesID    sql.NullString
		status      string
		priority    string
		completedAt sql.NullTime
	)
	err := row.Scan(
		&occ.ID,
		&occ.TenantID,
		&occ.HomeID,
		&occ.SystemID,
		&seriesID,
		&occ.SequenceIndex,
		&occ.Title,
		&occ.DueDate,
		&status,
		&priority,
		&completedAt,
		&occ.CreatedAt,
		&occ.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	occ.SeriesID = seriesID.String
	occ.Status = schedule.Status(status)
	occ.Priority = schedule.Priority(priority)
	if completedAt.Valid {
		occ.CompletedAt = completedAt.Time.UTC()
	}
	occ.DueDate = occ.DueDate.UTC()
	occ.CreatedAt = occ.CreatedAt.UTC()
	occ.UpdatedAt = occ.UpdatedAt.UTC()
	return &occ, nil
}

func collectOccurrences(rows *sql.Rows) ([]schedule.ScheduledOccurrence, error) {
	var result []schedule.ScheduledOccurrence
	for rows.Next() {
		occ, err := scanOccurrence(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *occ)
	}
	return result, rows.Err()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullIfZeroTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
