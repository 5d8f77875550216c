package views

import (
	"fmt"

	"github.com/rivo/tview"

	"github.com/huddlehq/huddle/internal/call"
	"github.com/huddlehq/huddle/internal/conference"
	"github.com/huddlehq/huddle/internal/tui/ui"
)

// CallPanel shows the conference room of the current call with a QR
// code of its join URL.
type CallPanel struct {
	*tview.TextView
	theme *ui.Theme
}

func NewCallPanel(theme *ui.Theme) *CallPanel {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Call ")
	tv.SetTitleColor(theme.TitleColor)
	return &CallPanel{TextView: tv, theme: theme}
}

func (cp *CallPanel) Name() string { return "Call" }

func (cp *CallPanel) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "o", Description: "Joined"},
		{Key: "x", Description: "Closed"},
		{Key: "l", Description: "Leave"},
		{Key: "e", Description: "End"},
		{Key: "Esc", Description: "Back"},
	}
}

// Show renders room. qr may be empty, in which case it is rendered here.
func (cp *CallPanel) Show(room conference.Room, qr string, s *call.Session) {
	cp.Clear()
	if qr == "" {
		if rendered, err := conference.RenderQR(room.URL); err == nil {
			qr = rendered
		}
	}
	kind := "Video call"
	if room.VoiceOnly {
		kind = "Voice call"
	}
	state := call.Idle
	if s != nil {
		state = s.State
	}
	color := cp.theme.CallActiveColor
	if state == call.Ended || state == call.Idle {
		color = cp.theme.CallEndedColor
	}
	_, _ = fmt.Fprintf(cp, "\n[::b]%s[-:-:-]  %s%s[-]\n\n", kind, ui.Tag(color), state)
	_, _ = fmt.Fprintf(cp, "Room %s\n", tview.Escape(room.Name))
	_, _ = fmt.Fprintf(cp, "%s%s[-]\n\n", ui.Tag(cp.theme.MenuKeyColor), tview.Escape(room.URL))
	if qr != "" {
		_, _ = fmt.Fprint(cp, qr)
	}
	_, _ = fmt.Fprintf(cp, "\n%sScan to join from a phone. Press o once you are in the room.[-]\n", ui.Tag(cp.theme.MutedColor))
}

// ShowState updates the panel when there is no room to show.
func (cp *CallPanel) ShowState(s *call.Session) {
	cp.Clear()
	if s == nil {
		_, _ = fmt.Fprint(cp, "\nNo call in progress.\n")
		return
	}
	_, _ = fmt.Fprintf(cp, "\n%s call in chat %s: %s\n", s.Kind, tview.Escape(s.ChatID), s.State)
}
