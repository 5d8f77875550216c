package controller

import (
	"context"

	"github.com/huddlehq/huddle/internal/apperr"
	"github.com/huddlehq/huddle/internal/bus"
	"go.uber.org/zap"
)

// OpenMenu opens the action menu for message id.
func (c *Controller) OpenMenu(id string) error {
	if _, err := c.find("open menu", id); err != nil {
		return c.fail("open menu", err)
	}
	c.setOverlay(MenuOverlay{MessageID: id})
	return nil
}

// OpenForward opens the forward picker for message id.
func (c *Controller) OpenForward(id string) error {
	m, err := c.find("forward message", id)
	if err != nil {
		return c.fail("forward message", err)
	}
	c.setOverlay(ForwardOverlay{Source: m})
	return nil
}

func (c *Controller) OpenAddMember() error {
	if _, _, err := c.active("add member"); err != nil {
		return c.fail("add member", err)
	}
	c.setOverlay(AddMemberOverlay{})
	return nil
}

func (c *Controller) OpenParticipants() error {
	if _, _, err := c.active("list participants"); err != nil {
		return c.fail("list participants", err)
	}
	c.setOverlay(ParticipantsOverlay{})
	return nil
}

// RequestClearChat asks for confirmation before deleting every message.
func (c *Controller) RequestClearChat() error {
	chatID, _, err := c.active("clear chat")
	if err != nil {
		return c.fail("clear chat", err)
	}
	c.setOverlay(ConfirmOverlay{Action: ConfirmClearChat, Target: chatID, Prompt: confirmPrompt(ConfirmClearChat)})
	return nil
}

// RequestDeleteChat asks for confirmation before deleting the chat.
func (c *Controller) RequestDeleteChat() error {
	chatID, _, err := c.active("delete chat")
	if err != nil {
		return c.fail("delete chat", err)
	}
	c.setOverlay(ConfirmOverlay{Action: ConfirmDeleteChat, Target: chatID, Prompt: confirmPrompt(ConfirmDeleteChat)})
	return nil
}

// Overlay returns the open overlay.
func (c *Controller) Overlay() Overlay {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.overlay
}

// Cancel dismisses the open overlay without acting.
func (c *Controller) Cancel() {
	c.setOverlay(NoOverlay{})
}

// Confirm performs the action of the open confirmation overlay. The
// overlay is closed whether or not the action succeeds.
func (c *Controller) Confirm(ctx context.Context) error {
	c.mu.Lock()
	o, ok := c.overlay.(ConfirmOverlay)
	c.mu.Unlock()
	if !ok {
		return apperr.Validationf("confirm", "nothing to confirm")
	}
	c.setOverlay(NoOverlay{})

	switch o.Action {
	case ConfirmEndCall:
		return c.endCall(ctx, o.Target)
	case ConfirmClearChat:
		return c.clearChat(ctx, o.Target)
	case ConfirmDeleteChat:
		return c.deleteChat(ctx, o.Target)
	default:
		return apperr.Validationf("confirm", "unknown action %q", o.Action)
	}
}

func (c *Controller) clearChat(ctx context.Context, chatID string) error {
	cur, gen, err := c.active("clear chat")
	if err != nil {
		return c.fail("clear chat", err)
	}
	if cur != chatID {
		return c.fail("clear chat", apperr.New(apperr.Conflict, "clear chat", "chat changed before confirmation"))
	}
	if err := c.messages.ClearMessages(ctx, chatID); err != nil {
		return c.fail("clear chat", err)
	}
	c.applyIfCurrent(gen, func() {
		c.store.Clear()
		c.pins.Sync(nil)
		c.reply = nil
	})
	c.logger.Info("chat cleared", zap.String("chat_id", chatID))
	c.bus.Emit(bus.KindReplaced, chatID)
	c.bus.Emit(bus.KindPinsChanged, chatID)
	c.notify(Info, "Chat cleared")
	return nil
}

func (c *Controller) deleteChat(ctx context.Context, chatID string) error {
	if err := c.chats.DeleteChat(ctx, chatID); err != nil {
		return c.fail("delete chat", err)
	}
	c.logger.Info("chat deleted", zap.String("chat_id", chatID))
	if c.ActiveChat() == chatID {
		c.Close()
	}
	c.notify(Info, "Chat deleted")
	return nil
}
