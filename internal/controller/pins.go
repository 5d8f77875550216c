package controller

import (
	"context"

	"github.com/huddlehq/huddle/internal/bus"
	"github.com/huddlehq/huddle/internal/timeline"
	"go.uber.org/zap"
)

// Pin pins message id. Pinning a pinned message sends nothing.
func (c *Controller) Pin(ctx context.Context, id string) (timeline.Message, error) {
	return c.setPinned(ctx, id, true)
}

// Unpin unpins message id. Unpinning an unpinned message sends nothing.
func (c *Controller) Unpin(ctx context.Context, id string) (timeline.Message, error) {
	return c.setPinned(ctx, id, false)
}

// TogglePin flips the pin flag of message id.
func (c *Controller) TogglePin(ctx context.Context, id string) (timeline.Message, error) {
	m, err := c.find("pin message", id)
	if err != nil {
		return timeline.Message{}, c.fail("pin message", err)
	}
	return c.setPinned(ctx, id, !m.IsPinned)
}

func (c *Controller) setPinned(ctx context.Context, id string, want bool) (timeline.Message, error) {
	chatID, gen, err := c.active("pin message")
	if err != nil {
		return timeline.Message{}, c.fail("pin message", err)
	}
	cur, err := c.find("pin message", id)
	if err != nil {
		return timeline.Message{}, c.fail("pin message", err)
	}
	if cur.IsPinned == want {
		return cur, nil
	}

	res, err := c.messages.SetPinned(ctx, chatID, id, want)
	if err != nil {
		return timeline.Message{}, c.fail("pin message", err)
	}

	var (
		updated timeline.Message
		found   bool
	)
	applied := c.applyIfCurrent(gen, func() {
		found = c.store.Update(id, func(m *timeline.Message) {
			m.IsPinned = want
			m.PinnedAt = nil
			if want {
				at := c.now().UTC()
				if res.PinnedAt != nil {
					at = *res.PinnedAt
				}
				m.PinnedAt = &at
			}
		})
		if !found {
			// A snapshot applied while the request was in flight dropped id.
			c.pins.Sync(c.store.Pinned())
			return
		}
		updated, _ = c.store.Find(id)
		if want {
			c.pins.Pinned(updated)
		} else {
			c.pins.Unpinned(id)
		}
	})
	if !applied {
		return res, nil
	}
	if !found {
		c.logger.Info("pinned message left the chat before confirmation", zap.String("chat_id", chatID), zap.String("msg_id", id))
		c.bus.Emit(bus.KindPinsChanged, chatID)
		return res, nil
	}
	c.logger.Info("pin changed", zap.String("chat_id", chatID), zap.String("msg_id", id), zap.Bool("pinned", want))
	c.bus.Emit(bus.KindMessageUpdated, updated)
	c.bus.Emit(bus.KindPinsChanged, chatID)
	return updated, nil
}

// NextPin moves the carousel forward.
func (c *Controller) NextPin() {
	c.mu.Lock()
	c.pins.Next()
	chatID := c.store.ChatID()
	c.mu.Unlock()
	c.bus.Emit(bus.KindPinsChanged, chatID)
}

// PrevPin moves the carousel back.
func (c *Controller) PrevPin() {
	c.mu.Lock()
	c.pins.Prev()
	chatID := c.store.ChatID()
	c.mu.Unlock()
	c.bus.Emit(bus.KindPinsChanged, chatID)
}

// JumpToPinned resolves the current pin against the loaded messages and
// returns it with its position in the list.
func (c *Controller) JumpToPinned() (timeline.Message, int, error) {
	c.mu.Lock()
	cur, ok := c.pins.Current()
	idx := -1
	if ok {
		idx = c.store.Index(cur.ID)
	}
	var m timeline.Message
	if idx >= 0 {
		m, _ = c.store.Find(cur.ID)
	}
	c.mu.Unlock()

	if idx < 0 {
		return timeline.Message{}, -1, c.fail("jump to pin", ErrMessageNotLoaded)
	}
	return m, idx, nil
}
