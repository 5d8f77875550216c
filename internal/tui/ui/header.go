package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/rivo/tview"
)

var logo = []string{
	` _               _     _ _     `,
	`| |__  _   _  __| | __| | | ___ `,
	`| '_ \| | | |/ _' |/ _' | |/ _ \`,
	`| | | | |_| | (_| | (_| | |  __/`,
	`|_| |_|\__,_|\__,_|\__,_|_|\___|`,
}

// SessionInfo is what the header shows about the daemon.
type SessionInfo struct {
	Session string
	User    string
	Status  string
	Chat    string
	Call    string
	Online  int
	Uptime  time.Duration
}

// Header shows session details, key hints and the logo in one row.
type Header struct {
	*tview.Flex
	theme *Theme
	info  *tview.TextView
	menu  *tview.TextView
}

func NewHeader(theme *Theme) *Header {
	info := tview.NewTextView().SetDynamicColors(true)
	info.SetBackgroundColor(theme.BgColor)
	menu := tview.NewTextView().SetDynamicColors(true)
	menu.SetBackgroundColor(theme.BgColor)
	art := tview.NewTextView().SetDynamicColors(true).SetTextAlign(tview.AlignRight)
	art.SetBackgroundColor(theme.BgColor)
	_, _ = fmt.Fprintf(art, "%s%s[-]", Tag(theme.TitleColor), strings.Join(logo, "\n"))

	flex := tview.NewFlex().
		AddItem(info, 40, 0, false).
		AddItem(menu, 0, 1, false).
		AddItem(art, 34, 0, false)
	return &Header{Flex: flex, theme: theme, info: info, menu: menu}
}

// Height is the number of rows the header needs.
func (h *Header) Height() int {
	return len(logo) + 1
}

func (h *Header) SetInfo(si SessionInfo) {
	h.info.Clear()
	label := Tag(h.theme.MenuKeyColor)
	value := Tag(h.theme.FgColor)
	call := si.Call
	if call == "" {
		call = "IDLE"
	}
	callColor := h.theme.CallEndedColor
	if call == "ACTIVE" || call == "PRE_JOIN" {
		callColor = h.theme.CallActiveColor
	}
	rows := [][2]string{
		{"Session", value + tview.Escape(si.Session)},
		{"User", value + tview.Escape(si.User)},
		{"Status", value + si.Status},
		{"Chat", value + tview.Escape(si.Chat)},
		{"Call", Tag(callColor) + call},
		{"Online", fmt.Sprintf("%s%d", Tag(h.theme.OnlineColor), si.Online)},
	}
	if si.Uptime > 0 {
		rows = append(rows, [2]string{"Uptime", value + si.Uptime.Truncate(time.Second).String()})
	}
	for _, r := range rows {
		_, _ = fmt.Fprintf(h.info, " %s%-8s[-] %s[-]\n", label, r[0]+":", r[1])
	}
}

// SetHints lays the hints out in columns of up to len(logo) rows.
func (h *Header) SetHints(hints []MenuHint) {
	h.menu.Clear()
	rows := len(logo)
	lines := make([]string, rows)
	for i, hint := range hints {
		lines[i%rows] += fmt.Sprintf("%s<%s>[-] %-14s", Tag(h.theme.MenuKeyColor), tview.Escape(hint.Key), hint.Description)
	}
	_, _ = fmt.Fprint(h.menu, strings.Join(lines, "\n"))
}
