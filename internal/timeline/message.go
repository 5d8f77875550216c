// Package timeline holds the chat-scoped message model and its change detection.
package timeline

import "time"

// Kind is the content type of a message.
type Kind string

const (
	KindText Kind = "text"
	KindFile Kind = "file"
	KindCall Kind = "call"
)

// CallStatus is the shared status of a call descriptor message.
type CallStatus string

const (
	CallActive CallStatus = "active"
	CallEnded  CallStatus = "ended"
)

// Attachment references a blob held by the blob store.
type Attachment struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
	Size     int64  `json:"size"`
}

// ReplyRef is a frozen copy of the message being replied to.
// It is never refreshed when the original changes or disappears.
type ReplyRef struct {
	MessageID string `json:"messageId"`
	Sender    string `json:"sender"`
	Text      string `json:"text,omitempty"`
	Filename  string `json:"filename,omitempty"`
}

// CallMeta marks a message as the descriptor of a shared call.
type CallMeta struct {
	RoomID  string     `json:"roomId"`
	IsVoice bool       `json:"isVoice"`
	Status  CallStatus `json:"status"`
}

// Message is a single chat entry as served by the message store service.
type Message struct {
	ID          string      `json:"id"`
	ChatID      string      `json:"chatId"`
	Sender      string      `json:"sender"`
	Type        Kind        `json:"type"`
	Text        string      `json:"text,omitempty"`
	Attachment  *Attachment `json:"attachment,omitempty"`
	ReplyTo     *ReplyRef   `json:"replyTo,omitempty"`
	IsPinned    bool        `json:"isPinned"`
	PinnedAt    *time.Time  `json:"pinnedAt,omitempty"`
	IsForwarded bool        `json:"isForwarded"`
	CallMeta    *CallMeta   `json:"callMeta,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// Clone returns a deep copy of m.
func (m Message) Clone() Message {
	c := m
	if m.Attachment != nil {
		a := *m.Attachment
		c.Attachment = &a
	}
	if m.ReplyTo != nil {
		r := *m.ReplyTo
		c.ReplyTo = &r
	}
	if m.PinnedAt != nil {
		p := *m.PinnedAt
		c.PinnedAt = &p
	}
	if m.CallMeta != nil {
		cm := *m.CallMeta
		c.CallMeta = &cm
	}
	return c
}

// IsCall reports whether m describes a call.
func (m Message) IsCall() bool {
	return m.Type == KindCall && m.CallMeta != nil
}

// CallActive reports whether m describes a call that has not ended.
func (m Message) CallActive() bool {
	return m.IsCall() && m.CallMeta.Status == CallActive
}

// Preview returns a one-line summary used in lists and reply quotes.
func (m Message) Preview() string {
	switch {
	case m.Text != "":
		return m.Text
	case m.Attachment != nil:
		return m.Attachment.Filename
	case m.IsCall() && m.CallMeta.IsVoice:
		return "Voice call"
	case m.IsCall():
		return "Video call"
	default:
		return ""
	}
}
