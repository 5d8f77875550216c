package views

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/huddlehq/huddle/internal/backend"
	"github.com/huddlehq/huddle/internal/call"
	"github.com/huddlehq/huddle/internal/presence"
	"github.com/huddlehq/huddle/internal/rpc"
	"github.com/huddlehq/huddle/internal/timeline"
	"github.com/huddlehq/huddle/internal/tui/ui"
)

// MenuAction is an entry of the message action menu.
type MenuAction string

const (
	ActionReply     MenuAction = "reply"
	ActionPin       MenuAction = "pin"
	ActionUnpin     MenuAction = "unpin"
	ActionForward   MenuAction = "forward"
	ActionDeleteMe  MenuAction = "delete_me"
	ActionDeleteAll MenuAction = "delete_all"
	ActionJoinCall  MenuAction = "join_call"
	ActionEndCall   MenuAction = "end_call"
	ActionDownload  MenuAction = "download"
	ActionSaveIdea  MenuAction = "save_idea"
)

// OverlayHandler receives what the user picks in an overlay.
type OverlayHandler interface {
	MenuAction(msg timeline.Message, action MenuAction)
	Forward(msgID, chatID string)
	AddMember(email string)
	Confirm()
	Cancel()
}

// OverlayData is the context an overlay is drawn with.
type OverlayData struct {
	Message      *timeline.Message
	Affordances  call.Affordances
	UserID       string
	ActiveChat   string
	Chats        []backend.Chat
	Participants []backend.Participant
	Presence     map[string]presence.Entry
}

// MenuEntries lists the actions offered for msg.
func MenuEntries(msg timeline.Message, aff call.Affordances, userID string) []MenuAction {
	acts := []MenuAction{ActionReply}
	if msg.IsPinned {
		acts = append(acts, ActionUnpin)
	} else {
		acts = append(acts, ActionPin)
	}
	if !msg.IsCall() {
		acts = append(acts, ActionForward, ActionSaveIdea)
	}
	if msg.Attachment != nil {
		acts = append(acts, ActionDownload)
	}
	if aff.CanJoin {
		acts = append(acts, ActionJoinCall)
	}
	if aff.CanEnd {
		acts = append(acts, ActionEndCall)
	}
	acts = append(acts, ActionDeleteMe)
	if msg.Sender == userID {
		acts = append(acts, ActionDeleteAll)
	}
	return acts
}

var actionLabels = map[MenuAction]string{
	ActionReply:     "Reply",
	ActionPin:       "Pin",
	ActionUnpin:     "Unpin",
	ActionForward:   "Forward",
	ActionDeleteMe:  "Delete for me",
	ActionDeleteAll: "Delete for everyone",
	ActionJoinCall:  "Join call",
	ActionEndCall:   "End call",
	ActionDownload:  "Show download link",
	ActionSaveIdea:  "Save to Idea Hub",
}

// Overlay draws the daemon's open overlay as a centered modal.
type Overlay struct {
	*tview.Flex
	theme   *ui.Theme
	handler OverlayHandler
	slot    *tview.Flex
	kind    string
	focus   tview.Primitive
}

func NewOverlay(theme *ui.Theme, handler OverlayHandler) *Overlay {
	slot := tview.NewFlex().SetDirection(tview.FlexRow)
	outer := tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(slot, 16, 0, true).
			AddItem(nil, 0, 1, false), 60, 0, true).
		AddItem(nil, 0, 1, false)
	return &Overlay{Flex: outer, theme: theme, handler: handler, slot: slot, kind: rpc.OverlayNone}
}

func (o *Overlay) Name() string { return "Overlay" }

func (o *Overlay) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Enter", Description: "Select"},
		{Key: "Esc", Description: "Cancel"},
	}
}

// Kind is the overlay currently drawn.
func (o *Overlay) Kind() string {
	return o.kind
}

// FocusTarget returns the primitive that should take input.
func (o *Overlay) FocusTarget() tview.Primitive {
	return o.focus
}

// Show rebuilds the modal for ov. It reports false when there is
// nothing to show.
func (o *Overlay) Show(ov rpc.Overlay, data OverlayData) bool {
	o.slot.Clear()
	var p tview.Primitive
	switch ov.Kind {
	case rpc.OverlayMenu:
		if data.Message != nil {
			p = o.menu(*data.Message, data)
		}
	case rpc.OverlayForward:
		p = o.forward(ov, data)
	case rpc.OverlayAddMember:
		p = o.addMember()
	case rpc.OverlayParticipants:
		p = o.participants(data)
	case rpc.OverlayConfirm:
		p = o.confirm(ov)
	}
	if p == nil {
		o.kind = rpc.OverlayNone
		o.focus = nil
		return false
	}
	o.kind = ov.Kind
	o.slot.AddItem(p, 0, 1, true)
	o.focus = p
	return true
}

func (o *Overlay) list(title string) *tview.List {
	l := tview.NewList().ShowSecondaryText(false)
	l.SetBorder(true)
	l.SetBorderColor(o.theme.BorderFocusColor)
	l.SetBackgroundColor(o.theme.BgColor)
	l.SetMainTextColor(o.theme.FgColor)
	l.SetSelectedTextColor(o.theme.TableCursorFg)
	l.SetSelectedBackgroundColor(o.theme.TableCursorBg)
	l.SetTitle(" " + title + " ")
	l.SetTitleColor(o.theme.TitleColor)
	l.SetDoneFunc(func() { o.handler.Cancel() })
	return l
}

func (o *Overlay) menu(msg timeline.Message, data OverlayData) tview.Primitive {
	l := o.list("Message")
	for _, act := range MenuEntries(msg, data.Affordances, data.UserID) {
		act := act
		l.AddItem(actionLabels[act], "", 0, func() { o.handler.MenuAction(msg, act) })
	}
	return l
}

func (o *Overlay) forward(ov rpc.Overlay, data OverlayData) tview.Primitive {
	title := "Forward to"
	if ov.Source != nil {
		title = fmt.Sprintf("Forward %q to", truncate(oneLine(ov.Source.Preview()), 24))
	}
	l := o.list(title)
	for _, c := range data.Chats {
		c := c
		name := c.Name
		if name == "" {
			name = c.ID
		}
		if c.ID == data.ActiveChat {
			name += " (this chat)"
		}
		l.AddItem(tview.Escape(name), "", 0, func() { o.handler.Forward(ov.MessageID, c.ID) })
	}
	if len(data.Chats) == 0 {
		l.AddItem("No chats to forward to", "", 0, nil)
	}
	return l
}

func (o *Overlay) addMember() tview.Primitive {
	input := tview.NewInputField().
		SetLabel("Email: ").
		SetFieldWidth(0)
	input.SetBorder(true)
	input.SetBorderColor(o.theme.BorderFocusColor)
	input.SetBackgroundColor(o.theme.BgColor)
	input.SetFieldBackgroundColor(o.theme.BgColor)
	input.SetFieldTextColor(o.theme.FgColor)
	input.SetLabelColor(o.theme.MenuKeyColor)
	input.SetTitle(" Add member ")
	input.SetTitleColor(o.theme.TitleColor)
	input.SetDoneFunc(func(key tcell.Key) {
		switch key {
		case tcell.KeyEnter:
			if email := input.GetText(); email != "" {
				o.handler.AddMember(email)
			}
		case tcell.KeyEscape:
			o.handler.Cancel()
		}
	})
	return input
}

func (o *Overlay) participants(data OverlayData) tview.Primitive {
	l := o.list(fmt.Sprintf("Members (%d)", len(data.Participants)))
	for _, p := range data.Participants {
		dot := ui.Tag(o.theme.OfflineColor) + "○[-]"
		if e, ok := data.Presence[p.ID]; ok && e.Status == presence.Online {
			dot = ui.Tag(o.theme.OnlineColor) + "●[-]"
		}
		name := p.Name
		if name == "" {
			name = p.ID
		}
		if p.ID == data.UserID {
			name += " (you)"
		}
		line := dot + " " + tview.Escape(name)
		if p.Email != "" {
			line += " " + ui.Tag(o.theme.MutedColor) + tview.Escape(p.Email) + "[-]"
		}
		l.AddItem(line, "", 0, nil)
	}
	l.SetSelectedFunc(func(int, string, string, rune) { o.handler.Cancel() })
	return l
}

func (o *Overlay) confirm(ov rpc.Overlay) tview.Primitive {
	prompt := ov.Prompt
	if prompt == "" {
		prompt = "Are you sure?"
	}
	m := tview.NewModal().
		SetText(prompt).
		AddButtons([]string{"Confirm", "Cancel"}).
		SetDoneFunc(func(i int, _ string) {
			if i == 0 {
				o.handler.Confirm()
				return
			}
			o.handler.Cancel()
		})
	m.SetBackgroundColor(o.theme.BgColor)
	m.SetTextColor(o.theme.FgColor)
	m.SetBorderColor(o.theme.BorderFocusColor)
	return m
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
