package controller

import "github.com/huddlehq/huddle/internal/timeline"

// Overlay is the single modal surface open over the chat. Opening one
// replaces whatever was open before.
type Overlay interface {
	Kind() string
	overlay()
}

// ConfirmAction is a destructive action waiting for confirmation.
type ConfirmAction string

const (
	ConfirmEndCall    ConfirmAction = "end_call"
	ConfirmClearChat  ConfirmAction = "clear_chat"
	ConfirmDeleteChat ConfirmAction = "delete_chat"
)

type NoOverlay struct{}

type MenuOverlay struct {
	MessageID string
}

type ForwardOverlay struct {
	Source timeline.Message
}

type AddMemberOverlay struct{}

type ParticipantsOverlay struct{}

type ConfirmOverlay struct {
	Action ConfirmAction
	Target string
	Prompt string
}

func (NoOverlay) Kind() string           { return "none" }
func (MenuOverlay) Kind() string         { return "menu" }
func (ForwardOverlay) Kind() string      { return "forward" }
func (AddMemberOverlay) Kind() string    { return "add_member" }
func (ParticipantsOverlay) Kind() string { return "participants" }
func (ConfirmOverlay) Kind() string      { return "confirm" }

func (NoOverlay) overlay()           {}
func (MenuOverlay) overlay()         {}
func (ForwardOverlay) overlay()      {}
func (AddMemberOverlay) overlay()    {}
func (ParticipantsOverlay) overlay() {}
func (ConfirmOverlay) overlay()      {}

func confirmPrompt(action ConfirmAction) string {
	switch action {
	case ConfirmEndCall:
		return "End this call for everyone?"
	case ConfirmClearChat:
		return "Delete every message in this chat?"
	case ConfirmDeleteChat:
		return "Delete this chat for all participants?"
	default:
		return "Are you sure?"
	}
}
