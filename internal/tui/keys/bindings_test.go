package keys

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/require"

	"github.com/huddlehq/huddle/internal/tui/ui"
)

func TestViewBindingShadowsGlobal(t *testing.T) {
	r := NewRegistry()
	var got string
	r.AddGlobal(&Action{Key: tcell.KeyRune, Rune: 'q', Description: "Quit", Visible: true, Handler: func() { got = "quit" }})
	r.AddView("chat", &Action{Key: tcell.KeyRune, Rune: 'q', Description: "Back", Handler: func() { got = "back" }})

	ev := tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)
	require.True(t, r.HandleEvent("chat", ev))
	require.Equal(t, "back", got)
	require.True(t, r.HandleEvent("chats", ev))
	require.Equal(t, "quit", got)

	require.False(t, r.HandleEvent("chat", tcell.NewEventKey(tcell.KeyRune, 'z', tcell.ModNone)))
}

func TestHintsKeepOrder(t *testing.T) {
	r := NewRegistry()
	r.AddGlobal(&Action{Key: tcell.KeyRune, Rune: '?', Description: "Help", Visible: true})
	r.AddView("chat", &Action{Key: tcell.KeyRune, Rune: 'r', Description: "Reply", Visible: true})
	r.AddView("chat", &Action{Key: tcell.KeyRune, Rune: 'x', Description: "Hidden"})
	r.AddView("chat", &Action{Key: tcell.KeyEnter, Label: "Enter", Description: "Send", Visible: true})

	require.Equal(t, []ui.MenuHint{
		{Key: "r", Description: "Reply"},
		{Key: "Enter", Description: "Send"},
		{Key: "?", Description: "Help"},
	}, r.Hints("chat"))
}
