package tui

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/huddlehq/huddle/internal/call"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in   string
		want Command
	}{
		{"open team", Command{Name: "open", Args: "team"}},
		{"  Q  ", Command{Name: "quit"}},
		{"new  Launch party  --private", Command{Name: "new", Args: "Launch party  --private"}},
		{"m", Command{Name: "members"}},
		{"delete-chat", Command{Name: "delete-chat"}},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, ParseCommand(tt.in), tt.in)
	}
}

func TestNewChatArgs(t *testing.T) {
	name, private := newChatArgs("Launch party --private")
	require.Equal(t, "Launch party", name)
	require.True(t, private)

	name, private = newChatArgs("ops")
	require.Equal(t, "ops", name)
	require.False(t, private)
}

func TestFileArgs(t *testing.T) {
	path, caption, err := fileArgs("/tmp/report.pdf quarterly numbers")
	require.NoError(t, err)
	require.Equal(t, "/tmp/report.pdf", path)
	require.Equal(t, "quarterly numbers", caption)

	path, caption, err = fileArgs(`"/tmp/my file.png" look`)
	require.NoError(t, err)
	require.Equal(t, "/tmp/my file.png", path)
	require.Equal(t, "look", caption)

	_, _, err = fileArgs("")
	require.Error(t, err)
	_, _, err = fileArgs(`"/tmp/broken`)
	require.Error(t, err)
}

func TestParseCallArgs(t *testing.T) {
	v, err := parseCallArgs("")
	require.NoError(t, err)
	require.Equal(t, callVerb{action: "start", kind: call.Video}, v)

	v, err = parseCallArgs("voice")
	require.NoError(t, err)
	require.Equal(t, call.Voice, v.kind)

	v, err = parseCallArgs("LEAVE")
	require.NoError(t, err)
	require.Equal(t, "leave", v.action)

	_, err = parseCallArgs("record")
	require.Error(t, err)
}
