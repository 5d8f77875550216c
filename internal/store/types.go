package store

import (
	"database/sql"
	"encoding/json"
	"errors"
)

var (
	// ErrNotFound is returned when a user, chat or message does not exist.
	ErrNotFound = errors.New("not found")
	// ErrExists is returned when a unique attribute is already taken.
	ErrExists = errors.New("already exists")
	// ErrNotCall is returned when a call status patch targets a plain message.
	ErrNotCall = errors.New("message is not a call")
	// ErrCallEnded is returned when an ended call would become active again.
	ErrCallEnded = errors.New("call has already ended")
)

// nullJSON encodes v as a nullable TEXT column.
func nullJSON(v any, isNil bool) (sql.NullString, error) {
	if isNil {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

// scanJSON decodes a nullable TEXT column into a new T.
func scanJSON[T any](col sql.NullString) (*T, error) {
	if !col.Valid || col.String == "" {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal([]byte(col.String), &v); err != nil {
		return nil, err
	}
	return &v, nil
}
