package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/huddlehq/huddle/internal/backend"
)

const ideaColumns = `id, title, content, category, priority, suggestion, tags, chat_id, message_id, created_by, created_at`

// CreateIdea stores an idea and returns it with its assigned id.
func (db *DB) CreateIdea(ni backend.NewIdea) (backend.Idea, error) {
	tags, err := nullJSON(ni.Tags, len(ni.Tags) == 0)
	if err != nil {
		return backend.Idea{}, fmt.Errorf("encode tags: %w", err)
	}
	res, err := db.Exec(`
		INSERT INTO ideas (title, content, category, priority, suggestion, tags, chat_id, message_id, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ni.Title, ni.Content, ni.Category, ni.Priority, ni.Suggestion, tags,
		ni.ChatID, ni.MessageID, ni.CreatedBy, time.Now().UnixMilli())
	if err != nil {
		return backend.Idea{}, fmt.Errorf("insert idea: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return backend.Idea{}, err
	}
	return db.GetIdea(strconv.FormatInt(id, 10))
}

// GetIdea returns one idea.
func (db *DB) GetIdea(id string) (backend.Idea, error) {
	idea, err := scanIdea(db.QueryRow(`SELECT `+ideaColumns+` FROM ideas WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return backend.Idea{}, ErrNotFound
	}
	return idea, err
}

// ListIdeas returns every idea, newest first.
func (db *DB) ListIdeas() ([]backend.Idea, error) {
	rows, err := db.Query(`SELECT ` + ideaColumns + ` FROM ideas ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	ideas := []backend.Idea{}
	for rows.Next() {
		idea, err := scanIdea(rows)
		if err != nil {
			return nil, err
		}
		ideas = append(ideas, idea)
	}
	return ideas, rows.Err()
}

// DeleteIdea removes an idea.
func (db *DB) DeleteIdea(id string) error {
	res, err := db.Exec(`DELETE FROM ideas WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func scanIdea(row scanner) (backend.Idea, error) {
	var (
		idea      backend.Idea
		id        int64
		tags      sql.NullString
		createdAt int64
	)
	if err := row.Scan(&id, &idea.Title, &idea.Content, &idea.Category, &idea.Priority, &idea.Suggestion,
		&tags, &idea.ChatID, &idea.MessageID, &idea.CreatedBy, &createdAt); err != nil {
		return backend.Idea{}, err
	}
	idea.ID = strconv.FormatInt(id, 10)
	idea.CreatedAt = time.UnixMilli(createdAt).UTC()
	t, err := scanJSON[[]string](tags)
	if err != nil {
		return backend.Idea{}, fmt.Errorf("decode tags: %w", err)
	}
	if t != nil {
		idea.Tags = *t
	}
	return idea, nil
}
