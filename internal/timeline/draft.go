package timeline

import (
	"strings"

	"github.com/huddlehq/huddle/internal/apperr"
)

// Draft is an outgoing message before the server assigns it an id.
type Draft struct {
	ChatID      string      `json:"chatId"`
	Sender      string      `json:"sender"`
	Type        Kind        `json:"type"`
	Text        string      `json:"text,omitempty"`
	Attachment  *Attachment `json:"attachment,omitempty"`
	ReplyTo     *ReplyRef   `json:"replyTo,omitempty"`
	IsForwarded bool        `json:"isForwarded,omitempty"`
	CallMeta    *CallMeta   `json:"callMeta,omitempty"`
}

// Validate rejects drafts that must never reach the server.
func (d Draft) Validate() error {
	if d.ChatID == "" {
		return apperr.Validationf("send", "no chat selected")
	}
	switch d.Type {
	case KindText:
		if strings.TrimSpace(d.Text) == "" {
			return apperr.Validationf("send", "message is empty")
		}
	case KindFile:
		if d.Attachment == nil || d.Attachment.URL == "" {
			return apperr.Validationf("send", "attachment is missing")
		}
	case KindCall:
		if d.CallMeta == nil || d.CallMeta.RoomID == "" {
			return apperr.Validationf("send", "call room is missing")
		}
	default:
		return apperr.Validationf("send", "unknown message type %q", d.Type)
	}
	return nil
}

// TextDraft builds a text message, trimming surrounding whitespace.
func TextDraft(chatID, sender, text string, reply *ReplyRef) Draft {
	return Draft{
		ChatID:  chatID,
		Sender:  sender,
		Type:    KindText,
		Text:    strings.TrimSpace(text),
		ReplyTo: reply,
	}
}

// FileDraft builds a file message with an optional caption.
func FileDraft(chatID, sender string, att Attachment, caption string, reply *ReplyRef) Draft {
	return Draft{
		ChatID:     chatID,
		Sender:     sender,
		Type:       KindFile,
		Text:       strings.TrimSpace(caption),
		Attachment: &att,
		ReplyTo:    reply,
	}
}

// CallDraft builds the descriptor message for a new call.
func CallDraft(chatID, sender, roomID string, voice bool) Draft {
	text := "Video call"
	if voice {
		text = "Voice call"
	}
	return Draft{
		ChatID: chatID,
		Sender: sender,
		Type:   KindCall,
		Text:   text,
		CallMeta: &CallMeta{
			RoomID:  roomID,
			IsVoice: voice,
			Status:  CallActive,
		},
	}
}

// NewReplyRef freezes the parts of m shown in a reply quote.
func NewReplyRef(m Message) *ReplyRef {
	ref := &ReplyRef{
		MessageID: m.ID,
		Sender:    m.Sender,
		Text:      m.Text,
	}
	if m.Attachment != nil {
		ref.Filename = m.Attachment.Filename
	}
	if ref.Text == "" && m.IsCall() {
		ref.Text = m.Preview()
	}
	return ref
}

// ForwardDraft copies the content of src into a new message for targetChat.
// Pin state, reply quote and call metadata are not carried over; call
// descriptors are forwarded as plain text. src is left untouched.
func ForwardDraft(src Message, targetChat, sender string) (Draft, error) {
	if targetChat == "" {
		return Draft{}, apperr.Validationf("forward", "no target chat selected")
	}
	d := Draft{
		ChatID:      targetChat,
		Sender:      sender,
		Type:        src.Type,
		Text:        src.Text,
		IsForwarded: true,
	}
	switch {
	case src.Type == KindFile && src.Attachment != nil:
		a := *src.Attachment
		d.Attachment = &a
	case src.Type == KindCall:
		d.Type = KindText
		d.Text = src.Preview()
	}
	if err := d.Validate(); err != nil {
		return Draft{}, err
	}
	return d, nil
}
