package views

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"

	"github.com/huddlehq/huddle/internal/tui/ui"
)

// HelpView lists key bindings and commands.
type HelpView struct {
	*tview.TextView
	theme *ui.Theme
}

func NewHelpView(theme *ui.Theme) *HelpView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Help ")
	tv.SetTitleColor(theme.TitleColor)

	hv := &HelpView{TextView: tv, theme: theme}
	hv.render()
	return hv
}

func (hv *HelpView) Name() string { return "Help" }

func (hv *HelpView) Hints() []ui.MenuHint {
	return []ui.MenuHint{{Key: "Esc", Description: "Back"}}
}

var helpSections = []struct {
	title string
	rows  [][2]string
}{
	{"Global", [][2]string{
		{":", "Command mode"},
		{"/", "Filter chats"},
		{"?", "This help"},
		{"Esc", "Back"},
		{"q", "Quit"},
	}},
	{"Chats", [][2]string{
		{"Enter", "Open or join"},
		{"p", "Toggle public chats"},
	}},
	{"Chat", [][2]string{
		{"i", "Focus composer"},
		{"Enter", "Message actions"},
		{"r", "Reply to message"},
		{"p", "Pin or unpin"},
		{"f", "Forward"},
		{"d / D", "Delete for me / everyone"},
		{"n / N", "Next / previous pin"},
		{"g", "Go to current pin"},
		{"c", "Join the latest call"},
		{"e", "End the latest call"},
		{"v / a", "Start video / voice call"},
		{"m", "Members"},
	}},
	{"Call", [][2]string{
		{"o", "Report joined"},
		{"x", "Report room closed"},
		{"l", "Leave"},
	}},
}

func (hv *HelpView) render() {
	kc := ui.Tag(hv.theme.MenuKeyColor)
	var b strings.Builder
	for _, sec := range helpSections {
		fmt.Fprintf(&b, "\n  [::b]%s[-:-:-]\n\n", sec.title)
		for _, r := range sec.rows {
			fmt.Fprintf(&b, "  %s%-8s[-] %s\n", kc, tview.Escape(r[0]), r[1])
		}
	}
	b.WriteString("\n  [::b]Commands[-:-:-]\n\n")
	for _, c := range CommandHelp {
		fmt.Fprintf(&b, "  %s%-28s[-] %s\n", kc, tview.Escape(c[0]), c[1])
	}
	_, _ = fmt.Fprint(hv, b.String())
}

// CommandHelp documents the command-mode commands.
var CommandHelp = [][2]string{
	{":open <chat>", "Open a chat by id or name"},
	{":join <id>", "Join a public chat"},
	{":new <name> [--private]", "Create a group chat"},
	{":public", "Browse public chats"},
	{":file <path> [caption]", "Send a file"},
	{":call [video|voice]", "Start a call"},
	{":call enter|leave", "Open the room or leave"},
	{":add <email>", "Add a member"},
	{":members", "List members"},
	{":clear", "Delete every message"},
	{":delete-chat", "Delete this chat"},
	{":refresh", "Poll now"},
	{":help", "This help"},
	{":q", "Quit"},
}
