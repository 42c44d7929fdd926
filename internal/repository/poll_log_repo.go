package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"finbridge"

	"github.com/google/uuid"
)

type PollLogSQLite struct {
	db *sql.DB
}

func NewPollLogSQLite(db *sql.DB) *PollLogSQLite { return &PollLogSQLite{db: db} }

var _ PollLogRepo = (*PollLogSQLite)(nil)

const sqliteTimestampLayout = "2006-01-02 15:04:05"

// Append inserts a new poll record. Missing ID or timestamp are filled in.
func (r *PollLogSQLite) Append(ctx context.Context, rec finbridge.PollRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.At.IsZero() {
		rec.At = time.Now().UTC()
	} else {
		rec.At = rec.At.UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO poll_log (id, at, outcome, error_kind, detail, elapsed_ms)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		rec.ID,
		rec.At.Format(sqliteTimestampLayout),
		strings.ToUpper(strings.TrimSpace(rec.Outcome)),
		rec.ErrorKind,
		rec.Detail,
		rec.ElapsedMS,
	)
	return err
}

// List returns records filtered by [from, to] (inclusive) and/or outcome,
// ordered ascending by time.
func (r *PollLogSQLite) List(ctx context.Context, from, to time.Time, outcome string) ([]finbridge.PollRecord, error) {
	var (
		conds []string
		args  []any
	)

	// Bounds must be bound in the exact text layout Append stores, or
	// SQLite compares mismatched strings and the inclusive edges drift.
	if !from.IsZero() {
		conds = append(conds, "at >= ?")
		args = append(args, from.UTC().Format(sqliteTimestampLayout))
	}
	if !to.IsZero() {
		conds = append(conds, "at <= ?")
		args = append(args, to.UTC().Format(sqliteTimestampLayout))
	}
	if outcome = strings.ToUpper(strings.TrimSpace(outcome)); outcome != "" {
		conds = append(conds, "outcome = ?")
		args = append(args, outcome)
	}

	q := `SELECT id, at, outcome, error_kind, detail, elapsed_ms FROM poll_log`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY at ASC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]finbridge.PollRecord, 0, 64)
	for rows.Next() {
		var rec finbridge.PollRecord
		var kind, detail sql.NullString
		if err := rows.Scan(&rec.ID, &rec.At, &rec.Outcome, &kind, &detail, &rec.ElapsedMS); err != nil {
			return nil, err
		}
		rec.At = rec.At.UTC()
		rec.ErrorKind = kind.String
		rec.Detail = detail.String
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
