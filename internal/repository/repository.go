package repository

import (
	"context"
	"database/sql"
	"time"

	"finbridge"
	dbinit "finbridge/internal/repository/db"
)

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*finbridge.User, error)
}

// SnapshotRepo persists the single last-good snapshot. Load returns a
// zero-value snapshot and nil error when nothing is persisted yet.
type SnapshotRepo interface {
	Save(ctx context.Context, s finbridge.Snapshot) error
	Load(ctx context.Context) (finbridge.Snapshot, error)
}

// PollLogRepo is the append-only audit trail of poll attempts.
type PollLogRepo interface {
	Append(ctx context.Context, rec finbridge.PollRecord) error
	List(ctx context.Context, from, to time.Time, outcome string) ([]finbridge.PollRecord, error)
}

type Repository struct {
	Snapshots SnapshotRepo
	PollLog   PollLogRepo
	Auth      Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Snapshots: NewSnapshotSQLite(db),
		PollLog:   NewPollLogSQLite(db),
		Auth:      NewUserSQLite(db),
	}
}

// InitDB opens the SQLite file and ensures the schema exists.
func InitDB(path string) (*sql.DB, error) {
	return dbinit.InitDB(path)
}
