package rpc

import (
	"encoding/json"

	"github.com/huddlehq/huddle/internal/backend"
	"github.com/huddlehq/huddle/internal/call"
	"github.com/huddlehq/huddle/internal/conference"
	"github.com/huddlehq/huddle/internal/presence"
	"github.com/huddlehq/huddle/internal/timeline"
)

// Empty is the request or response of methods that carry no data.
type Empty struct{}

type StatusResponse struct {
	Session     string `json:"session"`
	Status      string `json:"status"`
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	APIURL      string `json:"apiUrl"`
	ActiveChat  string `json:"activeChat,omitempty"`
	CallState   string `json:"callState"`
	Online      int    `json:"online"`
	UptimeMs    int64  `json:"uptimeMs"`
}

type WatchRequest struct {
	// Namespace filters events by kind prefix; empty receives all.
	Namespace string `json:"namespace"`
}

// Event is a bus event forwarded to a watcher.
type Event struct {
	ID               string          `json:"id"`
	Kind             string          `json:"kind"`
	OccurredAtUnixMs int64           `json:"occurredAtUnixMs"`
	Payload          json.RawMessage `json:"payload,omitempty"`
}

type PresenceResponse struct {
	Entries []presence.Entry `json:"entries"`
}

type ListChatsRequest struct {
	Public bool `json:"public"`
}

type ListChatsResponse struct {
	Chats []backend.Chat `json:"chats"`
}

type CreateChatRequest struct {
	Name    string           `json:"name"`
	Kind    backend.ChatKind `json:"kind"`
	Private bool             `json:"private"`
}

type ChatRequest struct {
	ChatID string `json:"chatId"`
}

type ChatResponse struct {
	Chat backend.Chat `json:"chat"`
}

type ParticipantsResponse struct {
	Participants []backend.Participant `json:"participants"`
}

type AddMemberRequest struct {
	Email string `json:"email"`
}

type ParticipantResponse struct {
	Participant backend.Participant `json:"participant"`
}

// Overlay kinds.
const (
	OverlayNone         = "none"
	OverlayMenu         = "menu"
	OverlayForward      = "forward"
	OverlayAddMember    = "add_member"
	OverlayParticipants = "participants"
	OverlayConfirm      = "confirm"
)

// OverlayRequest opens an overlay. MessageID is required for menu and forward.
type OverlayRequest struct {
	Kind      string `json:"kind"`
	MessageID string `json:"messageId,omitempty"`
}

type Overlay struct {
	Kind      string            `json:"kind"`
	MessageID string            `json:"messageId,omitempty"`
	Source    *timeline.Message `json:"source,omitempty"`
	Action    string            `json:"action,omitempty"`
	Target    string            `json:"target,omitempty"`
	Prompt    string            `json:"prompt,omitempty"`
}

type Notice struct {
	Level    string `json:"level"`
	Text     string `json:"text"`
	AtUnixMs int64  `json:"atUnixMs"`
}

// View is the renderable state of the active chat.
type View struct {
	ChatID      string                      `json:"chatId"`
	Messages    []timeline.Message          `json:"messages"`
	Pins        []timeline.Message          `json:"pins"`
	PinCursor   int                         `json:"pinCursor"`
	Revision    uint64                      `json:"revision"`
	ReplyTo     *timeline.ReplyRef          `json:"replyTo,omitempty"`
	Overlay     Overlay                     `json:"overlay"`
	Notice      *Notice                     `json:"notice,omitempty"`
	Call        *call.Session               `json:"call,omitempty"`
	Room        *conference.Room            `json:"room,omitempty"`
	Affordances map[string]call.Affordances `json:"affordances,omitempty"`
	Presence    map[string]presence.Entry   `json:"presence,omitempty"`
}

type SendRequest struct {
	Text string `json:"text"`
}

// SendFileRequest names a file readable by the daemon.
type SendFileRequest struct {
	Path    string `json:"path"`
	Caption string `json:"caption,omitempty"`
}

type MessageRequest struct {
	MessageID string `json:"messageId"`
}

type MessageResponse struct {
	Message timeline.Message `json:"message"`
}

type DeleteRequest struct {
	MessageID   string `json:"messageId"`
	ForEveryone bool   `json:"forEveryone"`
}

type ForwardRequest struct {
	MessageID  string `json:"messageId"`
	TargetChat string `json:"targetChat"`
}

// Pin modes.
const (
	PinToggle = "toggle"
	PinOn     = "pin"
	PinOff    = "unpin"
)

type PinRequest struct {
	MessageID string `json:"messageId"`
	Mode      string `json:"mode"`
}

type PinNavRequest struct {
	// Forward moves to the next pin, otherwise to the previous one.
	Forward bool `json:"forward"`
}

type PinResponse struct {
	Cursor  int               `json:"cursor"`
	Count   int               `json:"count"`
	Current *timeline.Message `json:"current,omitempty"`
}

type JumpResponse struct {
	Message timeline.Message `json:"message"`
	Index   int              `json:"index"`
}

type AnalysisResponse struct {
	Analysis backend.Analysis `json:"analysis"`
}

type IdeasResponse struct {
	Ideas []backend.Idea `json:"ideas"`
}

type IdeaRequest struct {
	IdeaID string `json:"ideaId"`
}

type StartCallRequest struct {
	Kind call.Kind `json:"kind"`
}

type CallResponse struct {
	State   call.State    `json:"state"`
	Session *call.Session `json:"session,omitempty"`
}

type RoomResponse struct {
	Room conference.Room `json:"room"`
	// QR renders the room URL for scanning from a phone.
	QR string `json:"qr,omitempty"`
}

type SignalRequest struct {
	Signal string `json:"signal"`
}
