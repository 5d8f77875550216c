// Package pins keeps the pinned-message carousel of the active chat.
package pins

import (
	"slices"

	"github.com/huddlehq/huddle/internal/timeline"
)

// Carousel is the ordered pin set of one chat plus a cursor into it.
// The cursor is always a valid index, or 0 when the set is empty.
type Carousel struct {
	items  []timeline.Message
	cursor int
}

// Len returns the number of pinned messages.
func (c *Carousel) Len() int { return len(c.items) }

// Cursor returns the current index.
func (c *Carousel) Cursor() int { return c.cursor }

// Items returns the pinned messages in pin order.
func (c *Carousel) Items() []timeline.Message {
	return slices.Clone(c.items)
}

// Current returns the message under the cursor.
func (c *Carousel) Current() (timeline.Message, bool) {
	if len(c.items) == 0 {
		return timeline.Message{}, false
	}
	return c.items[c.cursor], true
}

// Sync re-derives the set from a fresh pin list. When the set grew the
// cursor moves to the newest pin, otherwise it is clamped.
func (c *Carousel) Sync(pinned []timeline.Message) {
	grew := len(pinned) > len(c.items)
	c.items = slices.Clone(pinned)
	if grew {
		c.cursor = len(c.items) - 1
		return
	}
	c.clamp()
}

// Pinned records a confirmed pin and moves the cursor onto it.
func (c *Carousel) Pinned(m timeline.Message) {
	if i := c.index(m.ID); i >= 0 {
		c.items = slices.Delete(c.items, i, i+1)
	}
	c.items = append(c.items, m)
	c.cursor = len(c.items) - 1
}

// Unpinned records a confirmed unpin.
func (c *Carousel) Unpinned(id string) {
	if i := c.index(id); i >= 0 {
		c.items = slices.Delete(c.items, i, i+1)
	}
	c.clamp()
}

// Next advances the cursor, wrapping to the first pin.
func (c *Carousel) Next() {
	if len(c.items) == 0 {
		return
	}
	c.cursor = (c.cursor + 1) % len(c.items)
}

// Prev moves the cursor back, wrapping to the last pin.
func (c *Carousel) Prev() {
	if len(c.items) == 0 {
		return
	}
	c.cursor = (c.cursor - 1 + len(c.items)) % len(c.items)
}

// Reset empties the set.
func (c *Carousel) Reset() {
	c.items = nil
	c.cursor = 0
}

func (c *Carousel) clamp() {
	switch {
	case len(c.items) == 0:
		c.cursor = 0
	case c.cursor > len(c.items)-1:
		c.cursor = len(c.items) - 1
	case c.cursor < 0:
		c.cursor = 0
	}
}

func (c *Carousel) index(id string) int {
	return slices.IndexFunc(c.items, func(m timeline.Message) bool { return m.ID == id })
}
