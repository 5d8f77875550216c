package views

import (
	"fmt"
	"time"

	"github.com/rivo/tview"

	"github.com/huddlehq/huddle/internal/rpc"
	"github.com/huddlehq/huddle/internal/tui/ui"
)

// StatusBar is the bottom line: daemon status, open chat, call and clock.
type StatusBar struct {
	*tview.TextView
	theme  *ui.Theme
	status *rpc.StatusResponse
	chat   string
	now    func() time.Time
}

func NewStatusBar(theme *ui.Theme) *StatusBar {
	tv := tview.NewTextView().SetDynamicColors(true)
	tv.SetBackgroundColor(tview.Styles.MoreContrastBackgroundColor)
	return &StatusBar{TextView: tv, theme: theme, now: time.Now}
}

// Update renders st. chat is the display name of the open chat.
func (sb *StatusBar) Update(st *rpc.StatusResponse, chat string) {
	sb.status = st
	sb.chat = chat
	sb.render()
}

func (sb *StatusBar) render() {
	sb.Clear()
	if sb.status == nil {
		_, _ = fmt.Fprintf(sb, " connecting... | %s", sb.now().Format("15:04"))
		return
	}
	st := sb.status
	statusColor := sb.theme.FlashWarnColor
	if st.Status == "READY" {
		statusColor = sb.theme.OnlineColor
	}
	line := fmt.Sprintf(" [::b]%s[-:-:-] | %s%s[-]", tview.Escape(st.Session), ui.Tag(statusColor), st.Status)
	if sb.chat != "" {
		line += " | # " + tview.Escape(sb.chat)
	}
	if st.CallState != "" && st.CallState != "IDLE" {
		line += fmt.Sprintf(" | %s📞 %s[-]", ui.Tag(sb.theme.CallActiveColor), st.CallState)
	}
	line += fmt.Sprintf(" | %s%d online[-] | %s", ui.Tag(sb.theme.OnlineColor), st.Online, sb.now().Format("15:04"))
	_, _ = fmt.Fprint(sb, line)
}
