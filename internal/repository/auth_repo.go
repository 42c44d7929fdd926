package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"finbridge"
)

// UserSQLite stores bridge operator accounts. There is no self-service
// user management; rows only ever come from /auth/sign-up.
type UserSQLite struct {
	db *sql.DB
}

func NewUserSQLite(db *sql.DB) *UserSQLite { return &UserSQLite{db: db} }

var _ Authorization = (*UserSQLite)(nil)

func (r *UserSQLite) Create(username, passwordHash string) (int, error) {
	res, err := r.db.Exec(
		`INSERT INTO users (username, password_hash) VALUES (?, ?)`,
		username, passwordHash,
	)
	if err != nil {
		return 0, fmt.Errorf("create operator %q: %w", username, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("operator id for %q: %w", username, err)
	}
	return int(id), nil
}

// GetByUsername returns (nil, nil) when the account does not exist, so
// the auth service can distinguish unknown users from storage failures.
func (r *UserSQLite) GetByUsername(username string) (*finbridge.User, error) {
	row := r.db.QueryRow(
		`SELECT id, username, password_hash FROM users WHERE username = ?`,
		username,
	)

	var u finbridge.User
	switch err := row.Scan(&u.ID, &u.Username, &u.PasswordHash); {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("load operator %q: %w", username, err)
	}
	return &u, nil
}
