package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/huddlehq/huddle/internal/call"
	"github.com/huddlehq/huddle/internal/presence"
	"github.com/huddlehq/huddle/internal/rpc"
	"github.com/huddlehq/huddle/internal/timeline"
	"github.com/huddlehq/huddle/internal/tui/ui"
)

// ChatView shows the open chat: pin carousel, timeline and composer.
type ChatView struct {
	*tview.Flex
	theme    *ui.Theme
	pinBar   *tview.TextView
	table    *tview.Table
	reply    *tview.TextView
	composer *tview.InputField

	title    string
	userID   string
	view     *rpc.View
	messages []timeline.Message
	onSend   func(text string)
	now      func() time.Time
}

func NewChatView(theme *ui.Theme) *ChatView {
	pinBar := tview.NewTextView().SetDynamicColors(true)
	pinBar.SetBackgroundColor(theme.BgColor)

	table := tview.NewTable().SetSelectable(true, false)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	table.SetTitleColor(theme.TitleColor)

	reply := tview.NewTextView().SetDynamicColors(true)
	reply.SetBackgroundColor(theme.BgColor)

	composer := tview.NewInputField().
		SetLabel(" > ").
		SetFieldWidth(0)
	composer.SetBorder(true)
	composer.SetBorderColor(theme.BorderColor)
	composer.SetBackgroundColor(theme.BgColor)
	composer.SetFieldBackgroundColor(theme.BgColor)
	composer.SetFieldTextColor(theme.FgColor)
	composer.SetLabelColor(theme.MenuKeyColor)
	composer.SetTitle(" Compose (i to focus) ")
	composer.SetTitleColor(theme.TitleColor)

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(pinBar, 1, 0, false).
		AddItem(table, 0, 1, true).
		AddItem(reply, 1, 0, false).
		AddItem(composer, 3, 0, false)

	cv := &ChatView{
		Flex:     flex,
		theme:    theme,
		pinBar:   pinBar,
		table:    table,
		reply:    reply,
		composer: composer,
		now:      time.Now,
	}
	composer.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter || cv.onSend == nil {
			return
		}
		text := strings.TrimSpace(composer.GetText())
		if text == "" {
			return
		}
		composer.SetText("")
		cv.onSend(text)
	})
	return cv
}

func (cv *ChatView) Name() string {
	if cv.title != "" {
		return cv.title
	}
	return "Chat"
}

func (cv *ChatView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "i", Description: "Compose"},
		{Key: "r", Description: "Reply"},
		{Key: "Enter", Description: "Actions"},
		{Key: "p", Description: "Pin"},
		{Key: "f", Description: "Forward"},
		{Key: "d", Description: "Delete"},
		{Key: "n/N", Description: "Next pin"},
		{Key: "g", Description: "Go to pin"},
		{Key: "c", Description: "Join call"},
		{Key: "e", Description: "End call"},
		{Key: "m", Description: "Members"},
		{Key: "Esc", Description: "Back"},
	}
}

func (cv *ChatView) SetOnSend(fn func(text string)) {
	cv.onSend = fn
}

func (cv *ChatView) Table() *tview.Table {
	return cv.table
}

func (cv *ChatView) Composer() *tview.InputField {
	return cv.composer
}

// Update renders v. The cursor follows the newest message while it is
// on the last row, and jumps to the bottom when the chat changes.
func (cv *ChatView) Update(title, userID string, v *rpc.View) {
	if v == nil {
		v = &rpc.View{}
	}
	row, _ := cv.table.GetSelection()
	changed := cv.view == nil || cv.view.ChatID != v.ChatID
	atBottom := changed || row >= len(cv.messages)-1

	cv.title = title
	cv.userID = userID
	cv.view = v
	cv.messages = v.Messages

	cv.renderPins()
	cv.renderMessages()
	cv.renderReply()

	switch {
	case len(cv.messages) == 0:
	case atBottom:
		cv.table.Select(len(cv.messages)-1, 0)
		cv.table.ScrollToEnd()
	case row >= len(cv.messages):
		cv.table.Select(len(cv.messages)-1, 0)
	}
}

func (cv *ChatView) renderPins() {
	cv.pinBar.Clear()
	pins := cv.view.Pins
	if len(pins) == 0 {
		return
	}
	cursor := cv.view.PinCursor
	if cursor < 0 || cursor >= len(pins) {
		cursor = 0
	}
	p := pins[cursor]
	_, _ = fmt.Fprintf(cv.pinBar, " %s📌 %d/%d[-] %s %s",
		ui.Tag(cv.theme.PinColor), cursor+1, len(pins),
		tview.Escape(cv.senderLabel(p.Sender)),
		tview.Escape(oneLine(sanitizeForTerminal(p.Preview()))))
}

func (cv *ChatView) renderMessages() {
	cv.table.Clear()
	now := cv.now()
	for i, m := range cv.messages {
		senderColor := cv.theme.FgColor
		if m.Sender == cv.userID {
			senderColor = cv.theme.SelfColor
		}
		cv.table.SetCell(i, 0, tview.NewTableCell(formatTimestamp(m.CreatedAt, now)).SetTextColor(cv.theme.MutedColor))
		cv.table.SetCell(i, 1, tview.NewTableCell(cv.presenceDot(m.Sender)+tview.Escape(cv.senderLabel(m.Sender))).SetTextColor(senderColor))
		cv.table.SetCell(i, 2, tview.NewTableCell(cv.body(m)).SetExpansion(1).SetTextColor(cv.theme.FgColor))
	}
	cv.table.SetTitle(fmt.Sprintf(" %s (%d) ", tview.Escape(cv.Name()), len(cv.messages)))
}

func (cv *ChatView) renderReply() {
	cv.reply.Clear()
	r := cv.view.ReplyTo
	if r == nil {
		return
	}
	quote := r.Text
	if quote == "" {
		quote = r.Filename
	}
	_, _ = fmt.Fprintf(cv.reply, " %s↪ replying to %s:[-] %s  %s(Esc to cancel)[-]",
		ui.Tag(cv.theme.MenuKeyColor), tview.Escape(cv.senderLabel(r.Sender)),
		tview.Escape(oneLine(sanitizeForTerminal(quote))), ui.Tag(cv.theme.MutedColor))
}

func (cv *ChatView) senderLabel(id string) string {
	if id == cv.userID {
		return "you"
	}
	return id
}

func (cv *ChatView) presenceDot(userID string) string {
	e, ok := cv.view.Presence[userID]
	if !ok {
		return "  "
	}
	if e.Status == presence.Online {
		return ui.Tag(cv.theme.OnlineColor) + "●[-] "
	}
	return ui.Tag(cv.theme.OfflineColor) + "○[-] "
}

func (cv *ChatView) body(m timeline.Message) string {
	var b strings.Builder
	if m.IsPinned {
		b.WriteString(ui.Tag(cv.theme.PinColor) + "📌[-] ")
	}
	if m.IsForwarded {
		b.WriteString(ui.Tag(cv.theme.MutedColor) + "⤳ forwarded[-] ")
	}
	if r := m.ReplyTo; r != nil {
		quote := r.Text
		if quote == "" {
			quote = r.Filename
		}
		fmt.Fprintf(&b, "%s↪ %s: %s[-] ", ui.Tag(cv.theme.MutedColor),
			tview.Escape(cv.senderLabel(r.Sender)), tview.Escape(oneLine(sanitizeForTerminal(quote))))
	}
	switch {
	case m.IsCall():
		b.WriteString(cv.callBody(m))
	case m.Attachment != nil:
		fmt.Fprintf(&b, "📎 %s (%s)", tview.Escape(m.Attachment.Filename), humanSize(m.Attachment.Size))
		if m.Text != "" && m.Text != m.Attachment.Filename {
			b.WriteString(" " + tview.Escape(oneLine(sanitizeForTerminal(m.Text))))
		}
	default:
		b.WriteString(tview.Escape(oneLine(sanitizeForTerminal(m.Text))))
	}
	return b.String()
}

func (cv *ChatView) callBody(m timeline.Message) string {
	label := m.Preview()
	if !m.CallActive() {
		return fmt.Sprintf("%s📞 %s ended[-]", ui.Tag(cv.theme.CallEndedColor), label)
	}
	s := fmt.Sprintf("%s📞 %s in progress[-]", ui.Tag(cv.theme.CallActiveColor), label)
	aff := cv.view.Affordances[m.ID]
	var acts []string
	if aff.CanJoin {
		acts = append(acts, "c:join")
	}
	if aff.CanLeave {
		acts = append(acts, ":call leave")
	}
	if aff.CanEnd {
		acts = append(acts, "e:end")
	}
	if c := cv.view.Call; c != nil && c.DescriptorID == m.ID && c.State != call.Idle {
		acts = append([]string{string(c.State)}, acts...)
	}
	if len(acts) > 0 {
		s += " " + ui.Tag(cv.theme.MutedColor) + "(" + strings.Join(acts, ", ") + ")[-]"
	}
	return s
}

// Selected returns the message under the cursor.
func (cv *ChatView) Selected() (timeline.Message, bool) {
	row, _ := cv.table.GetSelection()
	if row < 0 || row >= len(cv.messages) {
		return timeline.Message{}, false
	}
	return cv.messages[row], true
}

// SelectIndex moves the cursor to the message at index i.
func (cv *ChatView) SelectIndex(i int) {
	if i < 0 || i >= len(cv.messages) {
		return
	}
	cv.table.Select(i, 0)
}

// LatestCall returns the newest call descriptor in the timeline.
func (cv *ChatView) LatestCall() (timeline.Message, bool) {
	for i := len(cv.messages) - 1; i >= 0; i-- {
		if cv.messages[i].IsCall() {
			return cv.messages[i], true
		}
	}
	return timeline.Message{}, false
}
