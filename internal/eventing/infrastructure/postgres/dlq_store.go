package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charlesfaubert44-wq/furnacelog-sub001/internal/eventing"
)

const defaultDLQTable = "dead_letter_events"

// DLQStore is a Postgres implementation for dead letter events.
type DLQStore struct {
	db    *sql.DB
	table string
}

// NewDLQStore constructs a DLQ store.
func NewDLQStore(db *sql.DB) *DLQStore {
	return &DLQStore{db: db, table: defaultDLQTable}
}

// RecordFailure inserts a DLQ record for an undeliverable envelope.
func (s *DLQStore) RecordFailure(ctx context.Context, env eventing.Envelope, cause error) error {
	if s == nil || s.db == nil {
		return errors.New("dlq store: nil db")
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}
	reason := ""
	if cause != nil {
		reason = cause.Error()
	}
	query := fmt.Sprintf(`
INSERT INTO %s (event_id, event_type, payload, reason, failed_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (event_id) DO UPDATE SET reason = EXCLUDED.reason, failed_at = EXCLUDED.failed_at`, s.table)
	_, err = s.db.ExecContext(ctx, query, env.EventID, env.EventType, payload, reason, time.Now().UTC())
	return err
}
