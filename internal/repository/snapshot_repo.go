package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"finbridge"
)

type SnapshotSQLite struct {
	db *sql.DB
}

func NewSnapshotSQLite(db *sql.DB) *SnapshotSQLite {
	return &SnapshotSQLite{db: db}
}

var _ SnapshotRepo = (*SnapshotSQLite)(nil)

const (
	snapshotRowID = 1

	upsertSnapshotSQL = `
		INSERT INTO snapshot (id, data, fetched_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			data=excluded.data,
			fetched_at=excluded.fetched_at
	`

	selectSnapshotSQL = `SELECT data FROM snapshot WHERE id=?`
)

// Save replaces the single persisted snapshot (row id always 1).
func (r *SnapshotSQLite) Save(ctx context.Context, s finbridge.Snapshot) error {
	fetched := s.FetchedAt
	if fetched.IsZero() {
		fetched = time.Now().UTC()
	} else {
		fetched = fetched.UTC()
	}
	s.FetchedAt = fetched

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	_, err = r.db.ExecContext(ctx, upsertSnapshotSQL, snapshotRowID, string(data), fetched)
	return err
}

// Load fetches the persisted snapshot. Returns a zero-value snapshot with
// nil error when nothing is persisted yet.
func (r *SnapshotSQLite) Load(ctx context.Context) (finbridge.Snapshot, error) {
	row := r.db.QueryRowContext(ctx, selectSnapshotSQL, snapshotRowID)

	var data string
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return finbridge.Snapshot{}, nil
		}
		return finbridge.Snapshot{}, err
	}

	var s finbridge.Snapshot
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return finbridge.Snapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	s.FetchedAt = s.FetchedAt.UTC()
	return s, nil
}
