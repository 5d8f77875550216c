package controller

import (
	"context"

	"github.com/huddlehq/huddle/internal/apperr"
	"github.com/huddlehq/huddle/internal/backend"
	"github.com/huddlehq/huddle/internal/bus"
	"github.com/huddlehq/huddle/internal/call"
	"github.com/huddlehq/huddle/internal/conference"
	"github.com/huddlehq/huddle/internal/timeline"
	"go.uber.org/zap"
)

// StartCall creates a call descriptor in the active chat and enters
// PreJoin as its initiator.
func (c *Controller) StartCall(ctx context.Context, kind call.Kind) (call.Session, error) {
	chatID, gen, err := c.active("start call")
	if err != nil {
		return call.Session{}, c.fail("start call", err)
	}
	if err := c.calls.Reserve(); err != nil {
		return call.Session{}, c.fail("start call", err)
	}
	room := c.calls.NewRoomID(chatID)
	desc, err := c.messages.CreateMessage(ctx, timeline.CallDraft(chatID, c.opts.UserID, room, kind == call.Voice))
	if err != nil {
		c.calls.Release()
		return call.Session{}, c.fail("start call", err)
	}
	if desc.ChatID == "" {
		desc.ChatID = chatID
	}
	if desc.CallMeta == nil {
		desc.Type = timeline.KindCall
		desc.CallMeta = &timeline.CallMeta{RoomID: room, IsVoice: kind == call.Voice, Status: timeline.CallActive}
	}
	var added bool
	c.applyIfCurrent(gen, func() { added = c.store.Append(desc) })
	if added {
		c.bus.Emit(bus.KindMessageAdded, desc)
	}
	if err := c.calls.Started(desc); err != nil {
		// Nobody owns the descriptor now; end it so it offers no join.
		if _, perr := c.messages.PatchMessage(ctx, chatID, desc.ID, backend.EndCallPatch()); perr != nil {
			c.logger.Warn("end orphaned call", zap.String("msg_id", desc.ID), zap.Error(perr))
		}
		return call.Session{}, c.fail("start call", err)
	}
	s, _ := c.calls.Session()
	c.logger.Info("call started", zap.String("chat_id", chatID), zap.String("room_id", s.RoomID), zap.String("kind", string(s.Kind)))
	return s, nil
}

// JoinCall enters PreJoin for the call described by message id. The media
// kind is taken from the descriptor.
func (c *Controller) JoinCall(id string) (call.Session, error) {
	desc, err := c.find("join call", id)
	if err != nil {
		return call.Session{}, c.fail("join call", err)
	}
	if err := c.calls.Join(desc, c.opts.UserID); err != nil {
		return call.Session{}, c.fail("join call", err)
	}
	s, _ := c.calls.Session()
	c.logger.Info("joining call", zap.String("room_id", s.RoomID), zap.String("kind", string(s.Kind)))
	return s, nil
}

// EnterRoom asks the conferencing provider to open the PreJoin session's room.
func (c *Controller) EnterRoom(ctx context.Context) (conference.Room, error) {
	s, ok := c.calls.Session()
	if !ok || s.State != call.PreJoin {
		return conference.Room{}, c.fail("enter room", apperr.New(apperr.Conflict, "enter room", "no call waiting to be joined"))
	}
	if c.provider == nil {
		return conference.Room{}, c.fail("enter room", apperr.New(apperr.Media, "enter room", "no conferencing provider configured"))
	}
	room, err := c.provider.Open(ctx, s.RoomID, c.opts.DisplayName, s.Kind == call.Voice)
	if err != nil {
		return conference.Room{}, c.fail("enter room", &apperr.Error{Kind: apperr.Media, Op: "enter room", Err: err})
	}
	c.mu.Lock()
	c.room = &room
	c.mu.Unlock()
	return room, nil
}

// HandleSignal applies a lifecycle signal raised by the conferencing
// provider. Media errors are logged and otherwise ignored.
func (c *Controller) HandleSignal(sig conference.Signal) error {
	switch {
	case sig == conference.Joined:
		if err := c.calls.Joined(); err != nil {
			c.logger.Warn("unexpected joined signal", zap.Error(err))
			return err
		}
		return nil
	case sig.Closes():
		return c.LeaveCall()
	case sig.IsError():
		c.logger.Warn("conference media failure", zap.String("signal", string(sig)))
		return nil
	default:
		return apperr.Validationf("call signal", "unknown signal %q", sig)
	}
}

// LeaveCall discards the local session. The shared descriptor is not touched.
func (c *Controller) LeaveCall() error {
	if err := c.calls.Leave(); err != nil {
		return err
	}
	c.mu.Lock()
	c.room = nil
	c.mu.Unlock()
	return nil
}

// RequestEndCall opens the confirmation for ending call id for everyone.
// Only the initiator may end a call.
func (c *Controller) RequestEndCall(id string) error {
	desc, err := c.find("end call", id)
	if err != nil {
		return c.fail("end call", err)
	}
	if !desc.CallActive() {
		return c.fail("end call", apperr.New(apperr.Conflict, "end call", "call has already ended"))
	}
	if desc.Sender != c.opts.UserID {
		return c.fail("end call", apperr.New(apperr.Forbidden, "end call", "only the caller can end this call"))
	}
	c.setOverlay(ConfirmOverlay{Action: ConfirmEndCall, Target: id, Prompt: confirmPrompt(ConfirmEndCall)})
	return nil
}

func (c *Controller) endCall(ctx context.Context, id string) error {
	chatID, gen, err := c.active("end call")
	if err != nil {
		return c.fail("end call", err)
	}
	res, err := c.messages.PatchMessage(ctx, chatID, id, backend.EndCallPatch())
	if err != nil {
		return c.fail("end call", err)
	}
	var updated timeline.Message
	c.applyIfCurrent(gen, func() {
		c.store.Update(id, func(m *timeline.Message) {
			if res.Text != "" {
				m.Text = res.Text
			}
			if m.CallMeta != nil {
				m.CallMeta.Status = timeline.CallEnded
			}
		})
		updated, _ = c.store.Find(id)
	})
	if s, ok := c.calls.Session(); ok && s.DescriptorID == id && c.calls.Busy() {
		if err := c.calls.End(); err != nil {
			c.logger.Warn("end call transition", zap.Error(err))
		}
		c.mu.Lock()
		c.room = nil
		c.mu.Unlock()
	}
	c.logger.Info("call ended for everyone", zap.String("chat_id", chatID), zap.String("msg_id", id))
	if updated.ID != "" {
		c.bus.Emit(bus.KindMessageUpdated, updated)
	}
	return nil
}

// CloseCall dismisses an ended session.
func (c *Controller) CloseCall() error {
	if c.calls.Current() != call.Ended {
		return nil
	}
	return c.LeaveCall()
}
