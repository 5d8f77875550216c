package controller

import (
	"github.com/huddlehq/huddle/internal/call"
	"github.com/huddlehq/huddle/internal/conference"
	"github.com/huddlehq/huddle/internal/timeline"
)

// View is a consistent copy of everything the interface renders for the
// active chat.
type View struct {
	ChatID      string
	Messages    []timeline.Message
	Pins        []timeline.Message
	PinCursor   int
	Revision    uint64
	Epoch       uint64
	ReplyTo     *timeline.ReplyRef
	Overlay     Overlay
	Notice      *Notice
	Call        *call.Session
	Room        *conference.Room
	Affordances map[string]call.Affordances
}

// CurrentPin returns the pin under the cursor.
func (v View) CurrentPin() (timeline.Message, bool) {
	if len(v.Pins) == 0 {
		return timeline.Message{}, false
	}
	return v.Pins[v.PinCursor], true
}

// View returns a snapshot of the controller state.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		ChatID:      c.store.ChatID(),
		Messages:    c.store.Messages(),
		Pins:        c.pins.Items(),
		PinCursor:   c.pins.Cursor(),
		Revision:    c.store.Revision(),
		Epoch:       c.store.Epoch(),
		Overlay:     c.overlay,
		Affordances: make(map[string]call.Affordances),
	}
	if c.reply != nil {
		r := *c.reply
		v.ReplyTo = &r
	}
	if c.notice != nil {
		n := *c.notice
		v.Notice = &n
	}
	if c.room != nil {
		r := *c.room
		v.Room = &r
	}
	if s, ok := c.calls.Session(); ok {
		v.Call = &s
	}
	for _, m := range v.Messages {
		if m.IsCall() {
			v.Affordances[m.ID] = c.calls.AffordancesFor(m, c.opts.UserID)
		}
	}
	return v
}

// DismissNotice clears the current notice.
func (c *Controller) DismissNotice() {
	c.mu.Lock()
	c.notice = nil
	c.mu.Unlock()
}

// Calls exposes the call state machine.
func (c *Controller) Calls() *call.Machine { return c.calls }
