package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/huddlehq/huddle/internal/backend"
	"github.com/huddlehq/huddle/internal/timeline"
)

const messageColumns = `id, chat_id, sender, type, text, attachment, reply_to, is_pinned, pinned_at, is_forwarded, call_meta, created_at`

// ListMessages returns every message of a chat in creation order with the
// chat's current sequence number.
func (db *DB) ListMessages(chatID string) (backend.Snapshot, error) {
	var seq uint64
	err := db.QueryRow(`SELECT seq FROM chats WHERE id = ?`, chatID).Scan(&seq)
	if errors.Is(err, sql.ErrNoRows) {
		return backend.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return backend.Snapshot{}, err
	}

	rows, err := db.Query(`SELECT `+messageColumns+` FROM messages WHERE chat_id = ? ORDER BY id`, chatID)
	if err != nil {
		return backend.Snapshot{}, err
	}
	defer func() { _ = rows.Close() }()

	msgs := []timeline.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return backend.Snapshot{}, err
		}
		msgs = append(msgs, m)
	}
	return backend.Snapshot{Seq: seq, Messages: msgs}, rows.Err()
}

// GetMessage returns one message of a chat.
func (db *DB) GetMessage(chatID, msgID string) (timeline.Message, error) {
	m, err := scanMessage(db.QueryRow(`SELECT `+messageColumns+` FROM messages WHERE chat_id = ? AND id = ?`, chatID, msgID))
	if errors.Is(err, sql.ErrNoRows) {
		return timeline.Message{}, ErrNotFound
	}
	return m, err
}

// CreateMessage stores a draft and returns it with its assigned id.
func (db *DB) CreateMessage(d timeline.Draft) (timeline.Message, error) {
	att, err := nullJSON(d.Attachment, d.Attachment == nil)
	if err != nil {
		return timeline.Message{}, fmt.Errorf("encode attachment: %w", err)
	}
	reply, err := nullJSON(d.ReplyTo, d.ReplyTo == nil)
	if err != nil {
		return timeline.Message{}, fmt.Errorf("encode reply: %w", err)
	}
	meta, err := nullJSON(d.CallMeta, d.CallMeta == nil)
	if err != nil {
		return timeline.Message{}, fmt.Errorf("encode call meta: %w", err)
	}

	var id int64
	err = db.mutate(d.ChatID, func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			INSERT INTO messages (chat_id, sender, type, text, attachment, reply_to, is_forwarded, call_meta, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			d.ChatID, d.Sender, d.Type, d.Text, att, reply, d.IsForwarded, meta, time.Now().UnixMilli())
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return timeline.Message{}, err
	}
	return db.GetMessage(d.ChatID, strconv.FormatInt(id, 10))
}

// PatchMessage applies a partial update. A call status patch keeps the
// room and media kind of the stored descriptor and only moves from active
// to ended.
func (db *DB) PatchMessage(chatID, msgID string, p backend.MessagePatch) (timeline.Message, error) {
	err := db.mutate(chatID, func(tx *sql.Tx) error {
		m, err := scanMessage(tx.QueryRow(`SELECT `+messageColumns+` FROM messages WHERE chat_id = ? AND id = ?`, chatID, msgID))
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if p.Text != nil {
			m.Text = *p.Text
		}
		if p.CallMeta != nil {
			if m.CallMeta == nil {
				return ErrNotCall
			}
			if m.CallMeta.Status == timeline.CallEnded && p.CallMeta.Status != timeline.CallEnded {
				return ErrCallEnded
			}
			m.CallMeta.Status = p.CallMeta.Status
		}
		meta, err := nullJSON(m.CallMeta, m.CallMeta == nil)
		if err != nil {
			return err
		}
		_, err = tx.Exec(`UPDATE messages SET text = ?, call_meta = ? WHERE id = ?`, m.Text, meta, msgID)
		return err
	})
	if err != nil {
		return timeline.Message{}, err
	}
	return db.GetMessage(chatID, msgID)
}

// SetPinned sets the pin flag. Pinning an already pinned message keeps
// its original pin time.
func (db *DB) SetPinned(chatID, msgID string, pinned bool) (timeline.Message, error) {
	err := db.mutate(chatID, func(tx *sql.Tx) error {
		var res sql.Result
		var err error
		if pinned {
			res, err = tx.Exec(`
				UPDATE messages SET is_pinned = 1, pinned_at = COALESCE(pinned_at, ?)
				WHERE chat_id = ? AND id = ?`, time.Now().UnixMilli(), chatID, msgID)
		} else {
			res, err = tx.Exec(`
				UPDATE messages SET is_pinned = 0, pinned_at = NULL
				WHERE chat_id = ? AND id = ?`, chatID, msgID)
		}
		if err != nil {
			return err
		}
		return requireRow(res)
	})
	if err != nil {
		return timeline.Message{}, err
	}
	return db.GetMessage(chatID, msgID)
}

// DeleteMessage removes a message for everyone.
func (db *DB) DeleteMessage(chatID, msgID string) error {
	return db.mutate(chatID, func(tx *sql.Tx) error {
		res, err := tx.Exec(`DELETE FROM messages WHERE chat_id = ? AND id = ?`, chatID, msgID)
		if err != nil {
			return err
		}
		return requireRow(res)
	})
}

// ClearMessages removes every message of a chat.
func (db *DB) ClearMessages(chatID string) error {
	return db.mutate(chatID, func(tx *sql.Tx) error {
		_, err := tx.Exec(`DELETE FROM messages WHERE chat_id = ?`, chatID)
		return err
	})
}

// mutate runs fn in a transaction and bumps the chat sequence.
func (db *DB) mutate(chatID string, fn func(tx *sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`UPDATE chats SET seq = seq + 1 WHERE id = ?`, chatID)
	if err != nil {
		return err
	}
	if err := requireRow(res); err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMessage(row scanner) (timeline.Message, error) {
	var (
		m                timeline.Message
		id               int64
		att, reply, meta sql.NullString
		pinnedAt         sql.NullInt64
		createdAt        int64
	)
	if err := row.Scan(&id, &m.ChatID, &m.Sender, &m.Type, &m.Text, &att, &reply,
		&m.IsPinned, &pinnedAt, &m.IsForwarded, &meta, &createdAt); err != nil {
		return timeline.Message{}, err
	}
	m.ID = strconv.FormatInt(id, 10)
	m.CreatedAt = time.UnixMilli(createdAt).UTC()
	if pinnedAt.Valid {
		t := time.UnixMilli(pinnedAt.Int64).UTC()
		m.PinnedAt = &t
	}
	var err error
	if m.Attachment, err = scanJSON[timeline.Attachment](att); err != nil {
		return timeline.Message{}, fmt.Errorf("decode attachment: %w", err)
	}
	if m.ReplyTo, err = scanJSON[timeline.ReplyRef](reply); err != nil {
		return timeline.Message{}, fmt.Errorf("decode reply: %w", err)
	}
	if m.CallMeta, err = scanJSON[timeline.CallMeta](meta); err != nil {
		return timeline.Message{}, fmt.Errorf("decode call meta: %w", err)
	}
	return m, nil
}
