package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/huddlehq/huddle/internal/backend"
)

const chatColumns = `
	c.id, c.name, c.type, c.is_private, c.created_by, c.avatar,
	COALESCE((SELECT CASE m.type WHEN 'text' THEN m.text WHEN 'file' THEN '[file]' ELSE '[call]' END
		FROM messages m WHERE m.chat_id = c.id ORDER BY m.id DESC LIMIT 1), '')`

// CreateChat stores a new chat and registers its initial participants.
func (db *DB) CreateChat(nc backend.NewChat) (backend.Chat, error) {
	tx, err := db.Begin()
	if err != nil {
		return backend.Chat{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	kind := nc.Kind
	if kind == "" {
		kind = backend.Group
	}
	id := uuid.NewString()
	now := time.Now().UnixMilli()
	if _, err := tx.Exec(`
		INSERT INTO chats (id, name, type, is_private, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, nc.Name, kind, nc.IsPrivate, nc.CreatedBy, now); err != nil {
		return backend.Chat{}, fmt.Errorf("insert chat: %w", err)
	}
	for _, p := range nc.Participants {
		if err := addParticipant(tx, id, p, now); err != nil {
			return backend.Chat{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return backend.Chat{}, fmt.Errorf("commit: %w", err)
	}
	return db.GetChat(id)
}

// GetChat returns a chat with its participants.
func (db *DB) GetChat(id string) (backend.Chat, error) {
	var c backend.Chat
	err := db.QueryRow(`SELECT `+chatColumns+` FROM chats c WHERE c.id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Kind, &c.IsPrivate, &c.CreatedBy, &c.Avatar, &c.LastMessage)
	if errors.Is(err, sql.ErrNoRows) {
		return backend.Chat{}, ErrNotFound
	}
	if err != nil {
		return backend.Chat{}, err
	}
	if c.Participants, err = db.Participants(id); err != nil {
		return backend.Chat{}, err
	}
	return c, nil
}

// ListChats returns the chats userID participates in, newest first. An
// empty userID lists every chat.
func (db *DB) ListChats(userID string) ([]backend.Chat, error) {
	if userID == "" {
		return db.queryChats(`SELECT ` + chatColumns + ` FROM chats c ORDER BY c.created_at DESC`)
	}
	return db.queryChats(`
		SELECT `+chatColumns+` FROM chats c
		JOIN participants p ON p.chat_id = c.id AND p.user_id = ?
		ORDER BY c.created_at DESC`, userID)
}

// PublicChats lists groups that are not private.
func (db *DB) PublicChats() ([]backend.Chat, error) {
	return db.queryChats(`
		SELECT `+chatColumns+` FROM chats c
		WHERE c.type = ? AND c.is_private = 0
		ORDER BY c.created_at DESC`, backend.Group)
}

func (db *DB) queryChats(query string, args ...any) ([]backend.Chat, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	chats := []backend.Chat{}
	for rows.Next() {
		var c backend.Chat
		if err := rows.Scan(&c.ID, &c.Name, &c.Kind, &c.IsPrivate, &c.CreatedBy, &c.Avatar, &c.LastMessage); err != nil {
			_ = rows.Close()
			return nil, err
		}
		chats = append(chats, c)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	for i := range chats {
		if chats[i].Participants, err = db.Participants(chats[i].ID); err != nil {
			return nil, err
		}
	}
	return chats, nil
}

// DeleteChat removes a chat with its messages and memberships.
func (db *DB) DeleteChat(id string) error {
	res, err := db.Exec(`DELETE FROM chats WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Participants lists the members of a chat in join order.
func (db *DB) Participants(chatID string) ([]backend.Participant, error) {
	rows, err := db.Query(`
		SELECT u.id, u.name, COALESCE(u.email, ''), u.avatar
		FROM participants p JOIN users u ON u.id = p.user_id
		WHERE p.chat_id = ?
		ORDER BY p.joined_at, u.id`, chatID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	ps := []backend.Participant{}
	for rows.Next() {
		var p backend.Participant
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.Avatar); err != nil {
			return nil, err
		}
		ps = append(ps, p)
	}
	return ps, rows.Err()
}

// AddParticipant adds u to a chat. Adding an existing member is a no-op.
func (db *DB) AddParticipant(chatID string, u backend.Participant) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRow(`SELECT 1 FROM chats WHERE id = ?`, chatID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if err := addParticipant(tx, chatID, u, time.Now().UnixMilli()); err != nil {
		return err
	}
	return tx.Commit()
}

// IsParticipant reports whether userID is a member of chatID.
func (db *DB) IsParticipant(chatID, userID string) (bool, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM participants WHERE chat_id = ? AND user_id = ?`, chatID, userID).Scan(&n)
	return n > 0, err
}

func addParticipant(tx *sql.Tx, chatID string, u backend.Participant, now int64) error {
	if u.ID == "" {
		return fmt.Errorf("add participant: empty user id")
	}
	if _, err := tx.Exec(`
		INSERT INTO users (id, name, avatar, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = CASE WHEN excluded.name != '' THEN excluded.name ELSE users.name END`,
		u.ID, u.Name, u.Avatar, now); err != nil {
		return fmt.Errorf("upsert participant user: %w", err)
	}
	if _, err := tx.Exec(`
		INSERT INTO participants (chat_id, user_id, joined_at) VALUES (?, ?, ?)
		ON CONFLICT(chat_id, user_id) DO NOTHING`,
		chatID, u.ID, now); err != nil {
		return fmt.Errorf("insert participant: %w", err)
	}
	return nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
