package server

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/huddlehq/huddle/internal/presence"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}

func dialPresence(t *testing.T, baseURL, userID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(baseURL, "http") + "/ws/" + userID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// waitStatus reads frames until userID reports want.
func waitStatus(t *testing.T, conn *websocket.Conn, userID string, want presence.Status) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		require.NoError(t, conn.SetReadDeadline(deadline))
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %s %s", userID, want)
		var evt presence.Event
		require.NoError(t, json.Unmarshal(raw, &evt))
		require.Equal(t, presence.EventStatusUpdate, evt.Type)
		if evt.UserID == userID && evt.Status == want {
			return
		}
	}
}

func TestHubBroadcastsOnlineAndOffline(t *testing.T) {
	f := newFixture(t, nil)

	watcher := dialPresence(t, f.ts.URL, "watcher")
	waitStatus(t, watcher, "watcher", presence.Online)

	alice := dialPresence(t, f.ts.URL, "alice")
	waitStatus(t, watcher, "alice", presence.Online)
	require.Eventually(t, func() bool { return len(f.hub.Online()) == 2 }, time.Second, 10*time.Millisecond)

	_ = alice.Close()
	waitStatus(t, watcher, "alice", presence.Offline)
	require.Eventually(t, func() bool {
		online := f.hub.Online()
		return len(online) == 1 && online[0] == "watcher"
	}, time.Second, 10*time.Millisecond)
}

func TestHubSecondConnectionKeepsUserOnline(t *testing.T) {
	f := newFixture(t, nil)

	first := dialPresence(t, f.ts.URL, "alice")
	waitStatus(t, first, "alice", presence.Online)
	second := dialPresence(t, f.ts.URL, "alice")
	// The new connection learns about users already online.
	waitStatus(t, second, "alice", presence.Online)

	_ = second.Close()
	time.Sleep(100 * time.Millisecond)
	require.Equal(t, []string{"alice"}, f.hub.Online())
}

func TestRedisBrokerFansOutAcrossInstances(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	newBroker := func() Broker {
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		b := NewRedisBroker(client, nil)
		t.Cleanup(func() { _ = b.Close() })
		return b
	}
	east := newFixture(t, newBroker())
	west := newFixture(t, newBroker())

	watcher := dialPresence(t, west.ts.URL, "watcher")
	waitStatus(t, watcher, "watcher", presence.Online)

	alice := dialPresence(t, east.ts.URL, "alice")
	waitStatus(t, watcher, "alice", presence.Online)
	require.Eventually(t, func() bool { return len(west.hub.Online()) == 2 }, time.Second, 10*time.Millisecond)

	_ = alice.Close()
	waitStatus(t, watcher, "alice", presence.Offline)
}

func TestRedisBrokerPublishesJSON(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	b := NewRedisBroker(client, nil)
	defer func() { _ = b.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	got := make(chan presence.Event, 1)
	require.NoError(t, b.Subscribe(ctx, func(evt presence.Event) { got <- evt }))

	want := presence.Event{Type: presence.EventStatusUpdate, UserID: "bob", Status: presence.Offline}
	require.NoError(t, b.Publish(ctx, want))

	select {
	case evt := <-got:
		require.Equal(t, want, evt)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for redis delivery")
	}
}
