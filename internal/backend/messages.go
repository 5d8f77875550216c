package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/huddlehq/huddle/internal/apperr"
	"github.com/huddlehq/huddle/internal/timeline"
)

// Snapshot is one poll result for a chat. Seq is the server's per-chat
// revision, or 0 when the server does not report one.
type Snapshot struct {
	Seq      uint64             `json:"seq"`
	Messages []timeline.Message `json:"messages"`
}

// UnmarshalJSON accepts both the {seq, messages} envelope and a bare array.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var msgs []timeline.Message
		if err := json.Unmarshal(trimmed, &msgs); err != nil {
			return err
		}
		*s = Snapshot{Messages: msgs}
		return nil
	}
	type envelope Snapshot
	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return err
	}
	*s = Snapshot(env)
	return nil
}

// MessagePatch is a partial message update. Nil fields are left unchanged.
type MessagePatch struct {
	Text     *string        `json:"text,omitempty"`
	CallMeta *CallMetaPatch `json:"callMeta,omitempty"`
}

// CallMetaPatch updates the shared call status.
type CallMetaPatch struct {
	Status timeline.CallStatus `json:"status"`
}

// EndCallPatch is the patch that ends a call for everyone.
func EndCallPatch() MessagePatch {
	text := "Call ended"
	return MessagePatch{Text: &text, CallMeta: &CallMetaPatch{Status: timeline.CallEnded}}
}

type pinRequest struct {
	Pinned bool `json:"pinned"`
}

// ListMessages fetches the full message list of a chat.
func (c *Client) ListMessages(ctx context.Context, chatID string) (Snapshot, error) {
	var snap Snapshot
	err := c.do(ctx, "list messages", http.MethodGet, c.endpoint("chats", chatID, "messages"), nil, &snap)
	if err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// CreateMessage posts a draft and returns the message as stored by the server.
func (c *Client) CreateMessage(ctx context.Context, d timeline.Draft) (timeline.Message, error) {
	if err := d.Validate(); err != nil {
		return timeline.Message{}, err
	}
	var m timeline.Message
	if err := c.do(ctx, "send message", http.MethodPost, c.endpoint("chats", d.ChatID, "messages"), d, &m); err != nil {
		return timeline.Message{}, err
	}
	if m.ID == "" {
		return timeline.Message{}, apperr.NetworkErr("send message", fmt.Errorf("server returned no message id"))
	}
	return m, nil
}

// PatchMessage applies a partial update.
func (c *Client) PatchMessage(ctx context.Context, chatID, msgID string, p MessagePatch) (timeline.Message, error) {
	var m timeline.Message
	err := c.do(ctx, "update message", http.MethodPatch, c.endpoint("chats", chatID, "messages", msgID), p, &m)
	return m, err
}

// DeleteMessage deletes a message for everyone.
func (c *Client) DeleteMessage(ctx context.Context, chatID, msgID string) error {
	return c.do(ctx, "delete message", http.MethodDelete, c.endpoint("chats", chatID, "messages", msgID), nil, nil)
}

// ClearMessages deletes every message of a chat.
func (c *Client) ClearMessages(ctx context.Context, chatID string) error {
	return c.do(ctx, "clear chat", http.MethodDelete, c.endpoint("chats", chatID, "messages"), nil, nil)
}

// SetPinned sets the pin flag to the requested value and returns the
// updated message.
func (c *Client) SetPinned(ctx context.Context, chatID, msgID string, pinned bool) (timeline.Message, error) {
	var m timeline.Message
	err := c.do(ctx, "pin message", http.MethodPost, c.endpoint("chats", chatID, "messages", msgID, "pin"), pinRequest{Pinned: pinned}, &m)
	return m, err
}
