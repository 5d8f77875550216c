package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/huddlehq/huddle/internal/bus"
	"github.com/huddlehq/huddle/internal/call"
	"github.com/huddlehq/huddle/internal/presence"
	"github.com/huddlehq/huddle/internal/status"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
)

func TestObserveCountsPolls(t *testing.T) {
	r := NewRecorder(bus.New(), nil)
	before := testutil.ToFloat64(Polls().WithLabelValues("applied"))
	failedBefore := testutil.ToFloat64(Polls().WithLabelValues("failed"))

	r.Observe(bus.Event{Kind: bus.KindReplaced, Payload: "c1"})
	r.Observe(bus.Event{Kind: bus.KindReplaced, Payload: "c1"})
	r.Observe(bus.Event{Kind: bus.KindPollFailed, Payload: "c1"})

	if got := testutil.ToFloat64(Polls().WithLabelValues("applied")) - before; got != 2 {
		t.Errorf("applied delta = %v, want 2", got)
	}
	if got := testutil.ToFloat64(Polls().WithLabelValues("failed")) - failedBefore; got != 1 {
		t.Errorf("failed delta = %v, want 1", got)
	}
}

func TestObserveLinkStatusIsExclusive(t *testing.T) {
	r := NewRecorder(bus.New(), nil)
	r.Observe(bus.Event{Kind: bus.KindStatusChanged, Payload: status.StatusChange{From: status.Ready, To: status.Degraded}})

	if v := testutil.ToFloat64(LinkStatus().WithLabelValues(string(status.Degraded))); v != 1 {
		t.Errorf("degraded = %v, want 1", v)
	}
	if v := testutil.ToFloat64(LinkStatus().WithLabelValues(string(status.Ready))); v != 0 {
		t.Errorf("ready = %v, want 0", v)
	}
}

func TestRecorderFollowsBus(t *testing.T) {
	b := bus.New()
	r := NewRecorder(b, nil)
	r.Start(context.Background())
	defer r.Stop()

	label := []string{string(call.Idle), string(call.PreJoin)}
	before := testutil.ToFloat64(CallTransitions().WithLabelValues(label...))
	onlineBefore := testutil.ToFloat64(PresenceUpdates().WithLabelValues(string(presence.Online)))

	b.Emit(bus.KindCallChanged, call.Change{From: call.Idle, To: call.PreJoin})
	b.Emit(bus.KindPresenceChanged, presence.Entry{UserID: "bob", Status: presence.Online})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		calls := testutil.ToFloat64(CallTransitions().WithLabelValues(label...)) - before
		online := testutil.ToFloat64(PresenceUpdates().WithLabelValues(string(presence.Online))) - onlineBefore
		if calls == 1 && online == 1 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("recorder did not observe published events")
}

func TestServerExposesMetrics(t *testing.T) {
	srv := NewServer("127.0.0.1:0", zap.NewNop())
	if err := srv.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer srv.Stop(context.Background())

	Events().WithLabelValues("test.kind").Inc()
	rec := httptest.NewRecorder()
	srv.srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `huddle_events_total{kind="test.kind"}`) {
		t.Fatalf("metrics output missing counter:\n%s", rec.Body.String())
	}
}

func TestNilServerIsDisabled(t *testing.T) {
	srv := NewServer("", nil)
	if srv != nil {
		t.Fatal("expected nil server for empty addr")
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("nil start: %v", err)
	}
	srv.Stop(context.Background())
}
