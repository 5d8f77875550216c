package views

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/huddlehq/huddle/internal/backend"
	"github.com/huddlehq/huddle/internal/tui/ui"
)

// ChatList is the table of joined or public chats.
type ChatList struct {
	*tview.Table
	theme   *ui.Theme
	chats   []backend.Chat
	visible []backend.Chat
	filter  string
	public  bool
	active  string
}

func NewChatList(theme *ui.Theme) *ChatList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	table.SetTitleColor(theme.TitleColor)
	return &ChatList{Table: table, theme: theme}
}

func (cl *ChatList) Name() string {
	if cl.public {
		return "Public chats"
	}
	return "Chats"
}

func (cl *ChatList) Hints() []ui.MenuHint {
	if cl.public {
		return []ui.MenuHint{
			{Key: "Enter", Description: "Join"},
			{Key: "p", Description: "My chats"},
			{Key: "/", Description: "Filter"},
		}
	}
	return []ui.MenuHint{
		{Key: "Enter", Description: "Open"},
		{Key: "p", Description: "Public"},
		{Key: "/", Description: "Filter"},
		{Key: ":new", Description: "New group"},
	}
}

// Update replaces the rows. active marks the chat open in the daemon.
func (cl *ChatList) Update(chats []backend.Chat, public bool, active string) {
	cl.chats = chats
	cl.public = public
	cl.active = active
	cl.render()
}

func (cl *ChatList) SetFilter(filter string) {
	cl.filter = filter
	cl.render()
}

func (cl *ChatList) Filter() string {
	return cl.filter
}

func (cl *ChatList) matches(c backend.Chat) bool {
	if cl.filter == "" {
		return true
	}
	return containsFold(c.Name, cl.filter) || containsFold(c.LastMessage, cl.filter) || containsFold(c.ID, cl.filter)
}

func (cl *ChatList) render() {
	row, _ := cl.GetSelection()
	cl.Clear()

	headers := []struct {
		text string
		exp  int
	}{
		{" NAME", 1},
		{" LAST MESSAGE", 2},
		{" MEMBERS", 0},
		{" TYPE", 0},
	}
	for col, h := range headers {
		cl.SetCell(0, col, tview.NewTableCell(h.text).
			SetSelectable(false).
			SetTextColor(cl.theme.TableHeaderFg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(h.exp))
	}

	cl.visible = cl.visible[:0]
	for _, c := range cl.chats {
		if !cl.matches(c) {
			continue
		}
		cl.visible = append(cl.visible, c)
		r := len(cl.visible)

		name := c.Name
		if name == "" {
			name = c.ID
		}
		color := cl.theme.FgColor
		if c.ID == cl.active {
			name = "● " + name
			color = cl.theme.SelfColor
		}
		kind := "GROUP"
		if c.Kind == backend.Direct {
			kind = "DM"
		}
		if c.IsPrivate {
			kind += " 🔒"
		}
		cl.SetCell(r, 0, tview.NewTableCell(" "+tview.Escape(sanitizeForTerminal(name))).SetExpansion(1).SetTextColor(color))
		cl.SetCell(r, 1, tview.NewTableCell(" "+tview.Escape(oneLine(sanitizeForTerminal(c.LastMessage)))).SetExpansion(2).SetTextColor(cl.theme.MutedColor))
		cl.SetCell(r, 2, tview.NewTableCell(fmt.Sprintf("%d", len(c.Participants))).SetAlign(tview.AlignRight).SetTextColor(cl.theme.FgColor))
		cl.SetCell(r, 3, tview.NewTableCell(" "+kind).SetAlign(tview.AlignRight).SetTextColor(cl.theme.FgColor))
	}

	title := cl.Name()
	if cl.filter != "" {
		cl.SetTitle(fmt.Sprintf(" %s (%d/%d) filter: %s ", title, len(cl.visible), len(cl.chats), tview.Escape(cl.filter)))
	} else {
		cl.SetTitle(fmt.Sprintf(" %s (%d) ", title, len(cl.chats)))
	}

	switch {
	case len(cl.visible) == 0:
	case row < 1:
		cl.Select(1, 0)
	case row > len(cl.visible):
		cl.Select(len(cl.visible), 0)
	}
}

// Selected returns the chat under the cursor.
func (cl *ChatList) Selected() (backend.Chat, bool) {
	row, _ := cl.GetSelection()
	if row < 1 || row > len(cl.visible) {
		return backend.Chat{}, false
	}
	return cl.visible[row-1], true
}

// Find returns the first visible chat whose id or name matches query.
func (cl *ChatList) Find(query string) (backend.Chat, bool) {
	for _, c := range cl.chats {
		if c.ID == query {
			return c, true
		}
	}
	for _, c := range cl.chats {
		if containsFold(c.Name, query) {
			return c, true
		}
	}
	return backend.Chat{}, false
}
