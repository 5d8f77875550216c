package controller

import (
	"context"
	"io"
	"strings"

	"github.com/huddlehq/huddle/internal/apperr"
	"github.com/huddlehq/huddle/internal/backend"
	"github.com/huddlehq/huddle/internal/bus"
	"github.com/huddlehq/huddle/internal/timeline"
	"go.uber.org/zap"
)

// SetReplyTarget freezes a copy of message id as the quote for the next send.
func (c *Controller) SetReplyTarget(id string) error {
	m, err := c.find("reply", id)
	if err != nil {
		return c.fail("reply", err)
	}
	c.mu.Lock()
	c.reply = timeline.NewReplyRef(m)
	c.mu.Unlock()
	return nil
}

// ClearReplyTarget drops the pending reply quote.
func (c *Controller) ClearReplyTarget() {
	c.mu.Lock()
	c.reply = nil
	c.mu.Unlock()
}

// Send posts a text message to the active chat. The message appears in
// the store only once the server has accepted it.
func (c *Controller) Send(ctx context.Context, text string) (timeline.Message, error) {
	chatID, gen, err := c.active("send")
	if err != nil {
		return timeline.Message{}, c.fail("send", err)
	}
	c.mu.Lock()
	reply := c.reply
	c.mu.Unlock()

	d := timeline.TextDraft(chatID, c.opts.UserID, text, reply)
	if err := d.Validate(); err != nil {
		return timeline.Message{}, c.fail("send", err)
	}
	return c.create(ctx, "send", gen, d)
}

// SendFile uploads r to the blob store and posts a file message.
func (c *Controller) SendFile(ctx context.Context, filename string, r io.Reader, caption string) (timeline.Message, error) {
	chatID, gen, err := c.active("send file")
	if err != nil {
		return timeline.Message{}, c.fail("send file", err)
	}
	if strings.TrimSpace(filename) == "" {
		return timeline.Message{}, c.fail("send file", apperr.Validationf("send file", "file name is required"))
	}
	url, size, err := c.blobs.Upload(ctx, filename, r)
	if err != nil {
		return timeline.Message{}, c.fail("upload", err)
	}
	c.mu.Lock()
	reply := c.reply
	c.mu.Unlock()

	att := timeline.Attachment{Filename: baseName(filename), URL: url, Size: size}
	return c.create(ctx, "send file", gen, timeline.FileDraft(chatID, c.opts.UserID, att, caption, reply))
}

func (c *Controller) create(ctx context.Context, op string, gen uint64, d timeline.Draft) (timeline.Message, error) {
	m, err := c.messages.CreateMessage(ctx, d)
	if err != nil {
		return timeline.Message{}, c.fail(op, err)
	}
	if m.ChatID == "" {
		m.ChatID = d.ChatID
	}
	var added bool
	c.applyIfCurrent(gen, func() {
		added = c.store.Append(m)
		if d.ReplyTo != nil && c.reply != nil && c.reply.MessageID == d.ReplyTo.MessageID {
			c.reply = nil
		}
	})
	c.logger.Info("message sent", zap.String("chat_id", m.ChatID), zap.String("msg_id", m.ID), zap.Bool("applied", added))
	if added {
		c.bus.Emit(bus.KindMessageAdded, m)
	}
	return m, nil
}

// DeleteForEveryone deletes a message on the server, then locally. The
// id stays suppressed until the server stops reporting it.
func (c *Controller) DeleteForEveryone(ctx context.Context, id string) error {
	chatID, gen, err := c.active("delete message")
	if err != nil {
		return c.fail("delete message", err)
	}
	if err := c.messages.DeleteMessage(ctx, chatID, id); err != nil {
		return c.fail("delete message", err)
	}
	c.applyIfCurrent(gen, func() {
		c.tombstones[id] = struct{}{}
		c.store.Remove(id)
		c.pins.Sync(c.store.Pinned())
		c.clearReplyToLocked(id)
	})
	c.logger.Info("message deleted for everyone", zap.String("chat_id", chatID), zap.String("msg_id", id))
	c.bus.Emit(bus.KindMessageRemoved, id)
	return nil
}

// DeleteForMe hides a message locally without contacting the server. The
// message stays hidden while the daemon runs.
func (c *Controller) DeleteForMe(id string) error {
	chatID, _, err := c.active("delete message")
	if err != nil {
		return c.fail("delete message", err)
	}
	c.mu.Lock()
	if c.hidden[chatID] == nil {
		c.hidden[chatID] = make(map[string]struct{})
	}
	c.hidden[chatID][id] = struct{}{}
	removed := c.store.Remove(id)
	c.pins.Sync(c.store.Pinned())
	c.clearReplyToLocked(id)
	c.mu.Unlock()

	if removed {
		c.bus.Emit(bus.KindMessageRemoved, id)
	}
	return nil
}

func (c *Controller) clearReplyToLocked(id string) {
	if c.reply != nil && c.reply.MessageID == id {
		c.reply = nil
	}
}

// Forward copies message id into targetChat as a new forwarded message.
// The source message is not modified.
func (c *Controller) Forward(ctx context.Context, id, targetChat string) (timeline.Message, error) {
	_, gen, err := c.active("forward")
	if err != nil {
		return timeline.Message{}, c.fail("forward", err)
	}
	src, err := c.find("forward", id)
	if err != nil {
		return timeline.Message{}, c.fail("forward", err)
	}
	d, err := timeline.ForwardDraft(src, targetChat, c.opts.UserID)
	if err != nil {
		return timeline.Message{}, c.fail("forward", err)
	}
	m, err := c.messages.CreateMessage(ctx, d)
	if err != nil {
		return timeline.Message{}, c.fail("forward", err)
	}
	if m.ChatID == "" {
		m.ChatID = targetChat
	}
	var added bool
	c.applyIfCurrent(gen, func() {
		added = c.store.Append(m)
		if _, ok := c.overlay.(ForwardOverlay); ok {
			c.overlay = NoOverlay{}
		}
	})
	if added {
		c.bus.Emit(bus.KindMessageAdded, m)
	}
	c.notify(Info, "Message forwarded")
	return m, nil
}

// AddMember adds the user registered under email to the active chat.
func (c *Controller) AddMember(ctx context.Context, email string) (backend.Participant, error) {
	chatID, gen, err := c.active("add member")
	if err != nil {
		return backend.Participant{}, c.fail("add member", err)
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return backend.Participant{}, c.fail("add member", apperr.Validationf("add member", "email is required"))
	}
	p, err := c.chats.AddParticipant(ctx, chatID, email)
	if err != nil {
		return backend.Participant{}, c.fail("add member", err)
	}
	c.applyIfCurrent(gen, func() {
		if _, ok := c.overlay.(AddMemberOverlay); ok {
			c.overlay = NoOverlay{}
		}
	})
	name := p.Name
	if name == "" {
		name = email
	}
	c.notify(Info, "Added "+name)
	return p, nil
}

// Participants lists the members of the active chat.
func (c *Controller) Participants(ctx context.Context) ([]backend.Participant, error) {
	chatID, _, err := c.active("list participants")
	if err != nil {
		return nil, err
	}
	ps, err := c.chats.Participants(ctx, chatID)
	if err != nil {
		return nil, c.fail("list participants", err)
	}
	return ps, nil
}

// Chats lists the chats of the current user.
func (c *Controller) Chats(ctx context.Context) ([]backend.Chat, error) {
	return c.chats.ListChats(ctx, c.opts.UserID)
}

// PublicChats lists joinable groups.
func (c *Controller) PublicChats(ctx context.Context) ([]backend.Chat, error) {
	return c.chats.PublicChats(ctx)
}

// CreateChat creates a chat with the current user as first participant.
func (c *Controller) CreateChat(ctx context.Context, name string, kind backend.ChatKind, private bool) (backend.Chat, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return backend.Chat{}, c.fail("create chat", apperr.Validationf("create chat", "chat name is required"))
	}
	if kind == "" {
		kind = backend.Group
	}
	chat, err := c.chats.CreateChat(ctx, backend.NewChat{
		Name:         name,
		Kind:         kind,
		Participants: []backend.Participant{c.self()},
		IsPrivate:    private,
		CreatedBy:    c.opts.UserID,
	})
	if err != nil {
		return backend.Chat{}, c.fail("create chat", err)
	}
	return chat, nil
}

// JoinChat joins a public group.
func (c *Controller) JoinChat(ctx context.Context, chatID string) (backend.Chat, error) {
	if chatID == "" {
		return backend.Chat{}, c.fail("join chat", apperr.Validationf("join chat", "chat id is required"))
	}
	chat, err := c.chats.JoinChat(ctx, chatID, c.self())
	if err != nil {
		return backend.Chat{}, c.fail("join chat", err)
	}
	return chat, nil
}

func (c *Controller) self() backend.Participant {
	return backend.Participant{ID: c.opts.UserID, Name: c.opts.DisplayName}
}

func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}
