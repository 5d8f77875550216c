package views

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/huddlehq/huddle/internal/backend"
	"github.com/huddlehq/huddle/internal/call"
	"github.com/huddlehq/huddle/internal/rpc"
	"github.com/huddlehq/huddle/internal/timeline"
	"github.com/huddlehq/huddle/internal/tui/ui"
)

func TestSanitizeForTerminal(t *testing.T) {
	require.Equal(t, "👍", sanitizeForTerminal("👍\U0001F3FB"))
	require.Equal(t, "❤", sanitizeForTerminal("❤️"))
	require.Equal(t, "plain", sanitizeForTerminal("plain"))
}

func TestFormatTimestamp(t *testing.T) {
	now := time.Date(2026, 3, 4, 18, 0, 0, 0, time.Local)
	require.Equal(t, "09:15", formatTimestamp(time.Date(2026, 3, 4, 9, 15, 0, 0, time.Local), now))
	require.Equal(t, "03/01", formatTimestamp(time.Date(2026, 3, 1, 9, 15, 0, 0, time.Local), now))
	require.Empty(t, formatTimestamp(time.Time{}, now))
}

func TestHumanSize(t *testing.T) {
	require.Equal(t, "512 B", humanSize(512))
	require.Equal(t, "1.5 KB", humanSize(1536))
	require.Equal(t, "2.0 MB", humanSize(2<<20))
}

func TestMenuEntries(t *testing.T) {
	own := timeline.Message{ID: "1", Sender: "alice", Type: timeline.KindText, Text: "hi"}
	require.Equal(t, []MenuAction{ActionReply, ActionPin, ActionForward, ActionSaveIdea, ActionDeleteMe, ActionDeleteAll},
		MenuEntries(own, call.Affordances{}, "alice"))

	pinned := own
	pinned.Sender = "bob"
	pinned.IsPinned = true
	require.Equal(t, []MenuAction{ActionReply, ActionUnpin, ActionForward, ActionSaveIdea, ActionDeleteMe},
		MenuEntries(pinned, call.Affordances{}, "alice"))

	desc := timeline.Message{ID: "2", Sender: "bob", Type: timeline.KindCall,
		CallMeta: &timeline.CallMeta{RoomID: "r", Status: timeline.CallActive}}
	require.Equal(t, []MenuAction{ActionReply, ActionPin, ActionJoinCall, ActionDeleteMe},
		MenuEntries(desc, call.Affordances{CanJoin: true}, "alice"))
}

func TestChatListFilterAndSelect(t *testing.T) {
	cl := NewChatList(ui.DefaultTheme())
	cl.Update([]backend.Chat{
		{ID: "c1", Name: "Design", LastMessage: "mockups"},
		{ID: "c2", Name: "Ops", LastMessage: "pager rotation"},
		{ID: "c3", Name: "Random"},
	}, false, "c2")

	c, ok := cl.Selected()
	require.True(t, ok)
	require.Equal(t, "c1", c.ID)

	cl.SetFilter("PAGER")
	c, ok = cl.Selected()
	require.True(t, ok)
	require.Equal(t, "c2", c.ID)

	cl.SetFilter("nothing")
	_, ok = cl.Selected()
	require.False(t, ok)

	c, ok = cl.Find("rand")
	require.True(t, ok)
	require.Equal(t, "c3", c.ID)
	c, ok = cl.Find("c1")
	require.True(t, ok)
	require.Equal(t, "Design", c.Name)
}

func TestChatViewFollowsNewest(t *testing.T) {
	cv := NewChatView(ui.DefaultTheme())
	msgs := []timeline.Message{
		{ID: "1", Sender: "bob", Text: "one"},
		{ID: "2", Sender: "alice", Text: "two"},
	}
	cv.Update("team", "alice", &rpc.View{ChatID: "c1", Messages: msgs})
	m, ok := cv.Selected()
	require.True(t, ok)
	require.Equal(t, "2", m.ID)

	msgs = append(msgs, timeline.Message{ID: "3", Sender: "bob", Text: "three"})
	cv.Update("team", "alice", &rpc.View{ChatID: "c1", Messages: msgs})
	m, _ = cv.Selected()
	require.Equal(t, "3", m.ID)

	cv.SelectIndex(0)
	msgs = append(msgs, timeline.Message{ID: "4", Sender: "bob", Text: "four"})
	cv.Update("team", "alice", &rpc.View{ChatID: "c1", Messages: msgs})
	m, _ = cv.Selected()
	require.Equal(t, "1", m.ID, "cursor stays put when scrolled back")
}

func TestChatViewLatestCall(t *testing.T) {
	cv := NewChatView(ui.DefaultTheme())
	cv.Update("team", "alice", &rpc.View{ChatID: "c1", Messages: []timeline.Message{
		{ID: "1", Type: timeline.KindCall, CallMeta: &timeline.CallMeta{RoomID: "a", Status: timeline.CallEnded}},
		{ID: "2", Type: timeline.KindCall, CallMeta: &timeline.CallMeta{RoomID: "b", Status: timeline.CallActive}},
		{ID: "3", Text: "after"},
	}})
	m, ok := cv.LatestCall()
	require.True(t, ok)
	require.Equal(t, "2", m.ID)
}

func TestOverlayShow(t *testing.T) {
	o := NewOverlay(ui.DefaultTheme(), nopHandler{})
	require.False(t, o.Show(rpc.Overlay{Kind: rpc.OverlayNone}, OverlayData{}))
	require.False(t, o.Show(rpc.Overlay{Kind: rpc.OverlayMenu}, OverlayData{}), "menu needs its message")
	require.Equal(t, rpc.OverlayNone, o.Kind())
	require.True(t, o.Show(rpc.Overlay{Kind: rpc.OverlayConfirm, Prompt: "Clear?"}, OverlayData{}))
	require.Equal(t, rpc.OverlayConfirm, o.Kind())
	require.NotNil(t, o.FocusTarget())
}

type nopHandler struct{}

func (nopHandler) MenuAction(timeline.Message, MenuAction) {}
func (nopHandler) Forward(string, string)                  {}
func (nopHandler) AddMember(string)                        {}
func (nopHandler) Confirm()                                {}
func (nopHandler) Cancel()                                 {}
