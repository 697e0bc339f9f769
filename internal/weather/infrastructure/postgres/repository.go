package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	weather "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/weather/domain"
)

const defaultTable = "weather_observations"

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repository is a Postgres implementation of weather.Repository. Extreme
// events are stored as a JSONB column.
type Repository struct {
	db    DBTX
	table string
}

// NewRepository constructs a weather repository.
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

// Upsert writes one observation, replacing any prior row for the same
// community and date.
func (r *Repository) Upsert(ctx context.Context, obs weather.Observation) error {
	if r == nil || r.db == nil {
		return errors.New("weather repository: nil db")
	}
	events, err := json.Marshal(obs.ExtremeEvents)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	community_id, observed_on, temp_high_c, temp_low_c, temp_mean_c, precipitation_mm, wind_kph, extreme_events
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8
)
ON CONFLICT (community_id, observed_on) DO UPDATE SET
	temp_high_c = EXCLUDED.temp_high_c,
	temp_low_c = EXCLUDED.temp_low_c,
	temp_mean_c = EXCLUDED.temp_mean_c,
	precipitation_mm = EXCLUDED.precipitation_mm,
	wind_kph = EXCLUDED.wind_kph,
	extreme_events = EXCLUDED.extreme_events`, r.table)

	_, err = r.db.ExecContext(ctx, query,
		obs.CommunityID,
		obs.Date,
		obs.TempHighC,
		obs.TempLowC,
		obs.TempMeanC,
		obs.PrecipitationMM,
		obs.WindKPH,
		events,
	)
	return err
}

// Get loads one observation. Returns nil when absent.
func (r *Repository) Get(ctx context.Context, communityID string, date time.Time) (*weather.Observation, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("weather repository: nil db")
	}
	query := fmt.Sprintf(`
SELECT community_id, observed_on, temp_high_c, temp_low_c, temp_mean_c, precipitation_mm, wind_kph, extreme_events
FROM %s
WHERE community_id = $1 AND observed_on = $2`, r.table)

	obs, err := scanObservation(r.db.QueryRowContext(ctx, query, communityID, date))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return obs, nil
}

// ListByCommunity returns observations in [from, to] ordered by date.
func (r *Repository) ListByCommunity(ctx context.Context, communityID string, from, to time.Time) ([]weather.Observation, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("weather repository: nil db")
	}
	query := fmt.Sprintf(`
SELECT community_id, observed_on, temp_high_c, temp_low_c, temp_mean_c, precipitation_mm, wind_kph, extreme_events
FROM %s
WHERE community_id = $1 AND observed_on >= $2 AND observed_on <= $3
ORDER BY observed_on ASC`, r.table)

	rows, err := r.db.QueryContext(ctx, query, communityID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []weather.Observation
	for rows.Next() {
		obs, err := scanObservation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *obs)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanObservation(row rowScanner) (*weather.Observation, error) {
	var (
		obs    weather.Observation
		events []byte
	)
	err := row.Scan(
		&obs.CommunityID,
		&obs.Date,
		&obs.TempHighC,
		&obs.TempLowC,
		&obs.TempMeanC,
		&obs.PrecipitationMM,
		&obs.WindKPH,
		&events,
	)
	if err != nil {
		return nil, err
	}
	if len(events) > 0 {
		if err := json.Unmarshal(events, &obs.ExtremeEvents); err != nil {
			return nil, fmt.Errorf("weather %s/%s: decode events: %w", obs.CommunityID, obs.Date.Format("2006-01-02"), err)
		}
	}
	obs.Date = obs.Date.UTC()
	return &obs, nil
}
