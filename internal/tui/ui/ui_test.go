package ui

import (
	"testing"
	"time"

	"github.com/rivo/tview"
	"github.com/stretchr/testify/require"
)

func TestPagesStack(t *testing.T) {
	p := NewPages()
	for _, name := range []string{"chats", "chat", "help"} {
		p.AddPage(name, tview.NewBox(), true, false)
	}
	var seen [][]string
	p.SetOnChange(func(stack []string) { seen = append(seen, stack) })

	p.Reset("chats")
	p.Push("chat")
	p.Push("chat")
	p.Push("help")
	require.Equal(t, []string{"chats", "chat", "help"}, p.Stack())

	require.Equal(t, "help", p.Pop())
	require.Equal(t, "chat", p.Current())
	require.Equal(t, "chat", p.Pop())
	require.Empty(t, p.Pop(), "last page stays")
	require.Equal(t, "chats", p.Current())
	require.Len(t, seen, 5)
}

func TestFlashExpires(t *testing.T) {
	f := NewFlashModel()
	now := time.Unix(1000, 0)
	f.now = func() time.Time { return now }

	require.Nil(t, f.Current())
	f.Warn("slow network")
	require.Equal(t, "slow network", f.Current().Text)
	require.Equal(t, FlashWarn, (<-f.Watch()).Level)

	now = now.Add(9 * time.Second)
	require.Nil(t, f.Current())
}

func TestLevelOf(t *testing.T) {
	require.Equal(t, FlashErr, LevelOf("error"))
	require.Equal(t, FlashWarn, LevelOf("warn"))
	require.Equal(t, FlashInfo, LevelOf("info"))
	require.Equal(t, FlashInfo, LevelOf(""))
}
