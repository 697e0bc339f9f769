package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	maintenance "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/maintenance/domain"
)

const defaultTable = "maintenance_log"

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repository is a Postgres implementation of maintenance.Repository.
type Repository struct {
	db    DBTX
	table string
}

// NewRepository constructs a maintenance log repository.
func NewRepository(db DBTX, opts ...Option) *Repository {
	repo := &Repository{db: db, table: defaultTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// Option configures the repository.
type Option func(*Repository)

// WithTable overrides the table name.
func WithTable(table string) Option {
	return func(repo *Repository) {
		if table != "" {
			repo.table = table
		}
	}
}

const columns = `id, tenant_id, home_id, system_id, occurrence_id, title, entry_date, parts_cost, labor_cost, other_cost, notes, created_at`

// Insert appends one log entry.
func (r *Repository) Insert(ctx context.Context, entry maintenance.LogEntry) error {
	if r == nil || r.db == nil {
		return errors.New("maintenance repository: nil db")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (%s)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`, r.table, columns)

	var occurrenceID any
	if entry.OccurrenceID != "" {
		occurrenceID = entry.OccurrenceID
	}
	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.TenantID,
		entry.HomeID,
		entry.SystemID,
		occurrenceID,
		entry.Title,
		entry.Date,
		entry.Cost.Parts,
		entry.Cost.Labor,
		entry.Cost.Other,
		entry.Notes,
		entry.CreatedAt,
	)
	return err
}

// Get loads one entry by id. Returns nil when absent.
func (r *Repository) Get(ctx context.Context, id string) (*maintenance.LogEntry, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("maintenance repository: nil db")
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, columns, r.table)
	entry, err := scanEntry(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// List returns entries matching the filter, newest first.
func (r *Repository) List(ctx context.Context, filter maintenance.ListFilter) ([]maintenance.LogEntry, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("maintenance repository: nil db")
	}
	query := fmt.Sprintf(`
SELECT %s FROM %s
WHERE home_id = $1
  AND ($2 = '' OR system_id = $2)
  AND ($3::timestamptz IS NULL OR entry_date >= $3)
  AND ($4::timestamptz IS NULL OR entry_date <= $4)
ORDER BY entry_date DESC, id ASC`, columns, r.table)

	rows, err := r.db.QueryContext(ctx, query, filter.HomeID, filter.SystemID, nullIfZero(filter.From), nullIfZero(filter.To))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []maintenance.LogEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*maintenance.LogEntry, error) {
	var (
		entry        maintenance.LogEntry
		occurrenceID sql.NullString
	)
	err := row.Scan(
		&entry.ID,
		&entry.TenantID,
		&entry.HomeID,
		&entry.SystemID,
		&occurrenceID,
		&entry.Title,
		&entry.Date,
		&entry.Cost.Parts,
		&entry.Cost.Labor,
		&entry.Cost.Other,
		&entry.Notes,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	entry.OccurrenceID = occurrenceID.String
	entry.Date = entry.Date.UTC()
	entry.CreatedAt = entry.CreatedAt.UTC()
	return &entry, nil
}

func nullIfZero(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
