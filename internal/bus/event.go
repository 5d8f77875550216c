package bus

import "time"

// Event kinds published inside the daemon.
const (
	KindStatusChanged   = "session.status_changed"
	KindChatOpened      = "timeline.chat_opened"
	KindChatClosed      = "timeline.chat_closed"
	KindReplaced        = "timeline.replaced"
	KindPollFailed      = "timeline.poll_failed"
	KindPollDiscarded   = "timeline.poll_discarded"
	KindMessageAdded    = "message.added"
	KindMessageUpdated  = "message.updated"
	KindMessageRemoved  = "message.removed"
	KindPinsChanged     = "pins.changed"
	KindCallChanged     = "call.state_changed"
	KindPresenceChanged = "presence.changed"
	KindNotice          = "notice.raised"
	KindOverlayChanged  = "overlay.changed"
)

// Event represents a domain event published on the bus.
type Event struct {
	ID        string
	Kind      string
	Timestamp time.Time
	Payload   any
}
