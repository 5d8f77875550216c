package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/huddlehq/huddle/internal/backend"
	"github.com/mattn/go-sqlite3"
)

// UpsertUser inserts or updates a user. Empty name, email and avatar keep
// the stored values.
func (db *DB) UpsertUser(u backend.Participant) error {
	if u.ID == "" {
		return fmt.Errorf("upsert user: empty id")
	}
	_, err := db.Exec(`
		INSERT INTO users (id, name, email, avatar, created_at)
		VALUES (?, ?, NULLIF(?, ''), ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = CASE WHEN excluded.name != '' THEN excluded.name ELSE users.name END,
			email = COALESCE(excluded.email, users.email),
			avatar = CASE WHEN excluded.avatar != '' THEN excluded.avatar ELSE users.avatar END`,
		u.ID, u.Name, strings.ToLower(strings.TrimSpace(u.Email)), u.Avatar, time.Now().UnixMilli())
	var sqlErr sqlite3.Error
	if errors.As(err, &sqlErr) && sqlErr.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("email %s: %w", u.Email, ErrExists)
	}
	return err
}

// GetUser returns a user by id.
func (db *DB) GetUser(id string) (backend.Participant, error) {
	return db.scanUser(db.QueryRow(`SELECT id, name, COALESCE(email, ''), avatar FROM users WHERE id = ?`, id))
}

// UserByEmail looks a user up by case-insensitive email.
func (db *DB) UserByEmail(email string) (backend.Participant, error) {
	return db.scanUser(db.QueryRow(`SELECT id, name, COALESCE(email, ''), avatar FROM users WHERE email = ?`,
		strings.ToLower(strings.TrimSpace(email))))
}

func (db *DB) scanUser(row *sql.Row) (backend.Participant, error) {
	var u backend.Participant
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Avatar)
	if errors.Is(err, sql.ErrNoRows) {
		return backend.Participant{}, ErrNotFound
	}
	return u, err
}
