package presence

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/huddlehq/huddle/internal/status"
	"go.uber.org/zap"
)

func TestEndpoint(t *testing.T) {
	tests := []struct {
		api, ws, want string
		wantErr       bool
	}{
		{"http://localhost:8000", "", "ws://localhost:8000", false},
		{"https://chat.example.com/api/", "", "wss://chat.example.com/api", false},
		{"http://x", "wss://push.example.com", "wss://push.example.com", false},
		{"ftp://x", "", "", true},
	}
	for _, tt := range tests {
		got, err := Endpoint(tt.api, tt.ws)
		if (err != nil) != tt.wantErr {
			t.Errorf("Endpoint(%q, %q) error = %v", tt.api, tt.ws, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Endpoint(%q, %q) = %q, want %q", tt.api, tt.ws, got, tt.want)
		}
	}
}

func TestLinkDeliversFrames(t *testing.T) {
	upgrader := websocket.Upgrader{}
	paths := make(chan string, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths <- r.URL.Path
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"status_update","userId":"bo","status":"online"}`))
		_, _, _ = conn.ReadMessage()
	}))
	defer srv.Close()

	machine := status.NewMachine(nil)
	consumer := NewConsumer(nil, zap.NewNop())
	link := NewLink(WSDialer{BaseURL: "ws" + strings.TrimPrefix(srv.URL, "http")}, "me", consumer, machine, 50*time.Millisecond, zap.NewNop())
	link.Start(context.Background())
	defer link.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := consumer.Get("bo"); ok {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if _, ok := consumer.Get("bo"); !ok {
		t.Fatal("presence frame not applied")
	}
	if got := <-paths; got != "/ws/me" {
		t.Errorf("path = %q, want /ws/me", got)
	}
	if machine.Current() != status.Ready {
		t.Errorf("status = %s, want READY", machine.Current())
	}
}

type flakyDialer struct {
	mu    sync.Mutex
	calls int
}

func (d *flakyDialer) Dial(ctx context.Context, _ string) (Conn, error) {
	d.mu.Lock()
	d.calls++
	d.mu.Unlock()
	return nil, errors.New("connection refused")
}

func (d *flakyDialer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func TestLinkRetriesAfterDelay(t *testing.T) {
	d := &flakyDialer{}
	machine := status.NewMachine(nil)
	link := NewLink(d, "me", NewConsumer(nil, nil), machine, 20*time.Millisecond, nil)
	link.Start(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for d.count() < 3 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	link.Stop()

	if d.count() < 3 {
		t.Errorf("dial attempts = %d, want >= 3", d.count())
	}
	if s := machine.Current(); s != status.Reconnecting && s != status.Connecting {
		t.Errorf("status = %s, want RECONNECTING or CONNECTING", s)
	}
}

func TestLinkStopWithoutStart(t *testing.T) {
	link := NewLink(&flakyDialer{}, "me", NewConsumer(nil, nil), nil, 0, nil)
	link.Stop()
}
