package repository_test

import (
	"context"
	"database/sql/driver"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"finbridge"
	"finbridge/internal/repository"
	"finbridge/internal/repository/db"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

func TestPollLogSQLite_Append_FillsIDAndTimestamp(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := repository.NewPollLogSQLite(db)

	isUUID := sqlmockArgumentFunc(func(v driver.Value) bool {
		s, ok := v.(string)
		if !ok {
			return false
		}
		_, err := uuid.Parse(s)
		return err == nil
	})

	isRecentStamp := sqlmockArgumentFunc(func(v driver.Value) bool {
		s, ok := v.(string)
		if !ok {
			return false
		}
		tm, err := time.Parse("2006-01-02 15:04:05", s)
		if err != nil {
			return false
		}
		now := time.Now().UTC()
		return !tm.Before(now.Add(-5*time.Second)) && !tm.After(now.Add(5*time.Second))
	})

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO poll_log")).
		WithArgs(isUUID, isRecentStamp, "SUCCESS", "", "", int64(412)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	rec := finbridge.PollRecord{
		Outcome:   "success", // lowercase on purpose; Append must uppercase
		ElapsedMS: 412,
	}
	if err := repo.Append(context.Background(), rec); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPollLogSQLite_Append_KeepsGivenFields(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := repository.NewPollLogSQLite(db)

	at := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO poll_log")).
		WithArgs("rec-1", "2026-05-01 10:00:00", "FAILURE", "unreachable", "connection refused", int64(95)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	rec := finbridge.PollRecord{
		ID:        "rec-1",
		At:        at,
		Outcome:   finbridge.PollFailure,
		ErrorKind: "unreachable",
		Detail:    "connection refused",
		ElapsedMS: 95,
	}
	if err := repo.Append(context.Background(), rec); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPollLogSQLite_List_NoFilters(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := repository.NewPollLogSQLite(db)

	cols := []string{"id", "at", "outcome", "error_kind", "detail", "elapsed_ms"}
	rows := sqlmock.NewRows(cols).
		AddRow("a", time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC), "SUCCESS", nil, nil, int64(100)).
		AddRow("b", time.Date(2026, 5, 1, 9, 5, 0, 0, time.UTC), "FAILURE", "timeout", "deadline exceeded", int64(10_000))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, at, outcome, error_kind, detail, elapsed_ms FROM poll_log ORDER BY at ASC")).
		WillReturnRows(rows)

	got, err := repo.List(context.Background(), time.Time{}, time.Time{}, "")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("List() expected 2 records, got %d", len(got))
	}
	if got[0].ErrorKind != "" || got[0].Detail != "" {
		t.Fatalf("List() expected empty kind/detail for NULL columns, got %+v", got[0])
	}
	if got[1].ErrorKind != "timeout" {
		t.Fatalf("List() kind mismatch: %+v", got[1])
	}
}

func TestPollLogSQLite_List_AllFiltersAndOutcomeNormalized(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := repository.NewPollLogSQLite(db)

	from := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 5, 31, 23, 59, 59, 0, time.UTC)

	cols := []string{"id", "at", "outcome", "error_kind", "detail", "elapsed_ms"}
	mock.ExpectQuery(regexp.QuoteMeta("WHERE at >= ? AND at <= ? AND outcome = ?")).
		WithArgs("2026-05-01 00:00:00", "2026-05-31 23:59:59", "FAILURE").
		WillReturnRows(sqlmock.NewRows(cols))

	got, err := repo.List(context.Background(), from, to, "failure")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("List() expected no records, got %d", len(got))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

// Runs against a real SQLite file: a record whose timestamp equals a range
// edge must be returned for both the lower and the upper bound.
func TestPollLogSQLite_List_RangeBoundsAreInclusive(t *testing.T) {
	conn, err := db.InitDB(filepath.Join(t.TempDir(), "poll_log.db"))
	if err != nil {
		t.Fatalf("InitDB(): %v", err)
	}
	defer func() { _ = conn.Close() }()

	repo := repository.NewPollLogSQLite(conn)

	at := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	rec := finbridge.PollRecord{
		ID:        "edge",
		At:        at,
		Outcome:   finbridge.PollSuccess,
		ElapsedMS: 12,
	}
	if err := repo.Append(context.Background(), rec); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	cases := []struct {
		name     string
		from, to time.Time
		want     int
	}{
		{"from equals at", at, time.Time{}, 1},
		{"to equals at", time.Time{}, at, 1},
		{"window around at", at.Add(-time.Hour), at.Add(time.Hour), 1},
		{"from just past at", at.Add(time.Second), time.Time{}, 0},
		{"to just before at", time.Time{}, at.Add(-time.Second), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := repo.List(context.Background(), tc.from, tc.to, "")
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(got) != tc.want {
				t.Fatalf("List() returned %d records, want %d", len(got), tc.want)
			}
			if tc.want == 1 && !got[0].At.Equal(at) {
				t.Fatalf("List() At = %v, want %v", got[0].At, at)
			}
		})
	}
}
