package call

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/huddlehq/huddle/internal/apperr"
	"github.com/huddlehq/huddle/internal/bus"
	"github.com/huddlehq/huddle/internal/timeline"
)

func descriptor(id, sender string, voice bool, status timeline.CallStatus) timeline.Message {
	return timeline.Message{
		ID:     id,
		ChatID: "c1",
		Sender: sender,
		Type:   timeline.KindCall,
		CallMeta: &timeline.CallMeta{
			RoomID:  "TeamChat-c1-1000",
			IsVoice: voice,
			Status:  status,
		},
	}
}

func TestInitialState(t *testing.T) {
	m := NewMachine(nil)
	if m.Current() != Idle {
		t.Errorf("initial state = %s, want IDLE", m.Current())
	}
	if _, ok := m.Session(); ok {
		t.Error("Session() on idle machine returned a session")
	}
}

func TestStartEnterEnd(t *testing.T) {
	m := NewMachine(nil)
	desc := descriptor("m1", "me", false, timeline.CallActive)

	if err := m.Started(desc); err != nil {
		t.Fatal(err)
	}
	s, _ := m.Session()
	if !s.IsInitiator || s.Kind != Video || s.State != PreJoin {
		t.Errorf("session = %+v", s)
	}
	if err := m.Joined(); err != nil {
		t.Fatal(err)
	}
	if err := m.End(); err != nil {
		t.Fatal(err)
	}
	if m.Current() != Ended {
		t.Errorf("state = %s, want ENDED", m.Current())
	}
}

func TestJoinInheritsVoice(t *testing.T) {
	m := NewMachine(nil)
	if err := m.Join(descriptor("m1", "ana", true, timeline.CallActive), "me"); err != nil {
		t.Fatal(err)
	}
	s, _ := m.Session()
	if s.Kind != Voice {
		t.Errorf("kind = %s, want voice", s.Kind)
	}
	if s.IsInitiator {
		t.Error("joiner marked as initiator")
	}
}

func TestJoinEndedCallFails(t *testing.T) {
	m := NewMachine(nil)
	err := m.Join(descriptor("m1", "ana", false, timeline.CallEnded), "me")
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("err = %v, want conflict", err)
	}
	if m.Current() != Idle {
		t.Errorf("state = %s, want IDLE", m.Current())
	}
}

func TestSecondCallRejected(t *testing.T) {
	m := NewMachine(nil)
	_ = m.Join(descriptor("m1", "ana", false, timeline.CallActive), "me")
	other := descriptor("m2", "bo", false, timeline.CallActive)
	if err := m.Join(other, "me"); err == nil {
		t.Fatal("second Join while in PreJoin should fail")
	}
	s, _ := m.Session()
	if s.DescriptorID != "m1" {
		t.Errorf("descriptor = %s, want m1", s.DescriptorID)
	}
}

func TestLeaveDiscardsSession(t *testing.T) {
	m := NewMachine(nil)
	_ = m.Join(descriptor("m1", "ana", false, timeline.CallActive), "me")
	_ = m.Joined()
	if err := m.Leave(); err != nil {
		t.Fatal(err)
	}
	if _, ok := m.Session(); ok {
		t.Error("session survived Leave")
	}
	if err := m.Leave(); err != nil {
		t.Errorf("Leave on idle = %v, want nil", err)
	}
}

func TestInvalidTransition(t *testing.T) {
	m := NewMachine(nil)
	if err := m.Joined(); err == nil {
		t.Error("Joined from IDLE should fail")
	}
	if err := m.End(); err == nil {
		t.Error("End from IDLE should fail")
	}
}

func TestDescriptorEndedMovesLiveSession(t *testing.T) {
	m := NewMachine(nil)
	_ = m.Join(descriptor("m1", "ana", false, timeline.CallActive), "me")
	_ = m.Joined()

	if m.DescriptorEnded(descriptor("m9", "ana", false, timeline.CallEnded)) {
		t.Error("unrelated descriptor ended the session")
	}
	if !m.DescriptorEnded(descriptor("m1", "ana", false, timeline.CallEnded)) {
		t.Fatal("DescriptorEnded(m1) = false, want true")
	}
	if m.Current() != Ended {
		t.Errorf("state = %s, want ENDED", m.Current())
	}
	if err := m.Join(descriptor("m1", "ana", false, timeline.CallEnded), "me"); err == nil {
		t.Error("rejoining an ended call should fail")
	}
}

func TestRoomIDsAreUnique(t *testing.T) {
	m := NewMachine(nil)
	fixed := time.UnixMilli(5000)
	m.now = func() time.Time { return fixed }

	a := m.NewRoomID("c1")
	b := m.NewRoomID("c1")
	if a == b {
		t.Fatalf("room ids collide: %s", a)
	}
	if a != "TeamChat-c1-5000" || !strings.HasPrefix(b, "TeamChat-c1-") {
		t.Errorf("room ids = %s, %s", a, b)
	}
}

func TestAffordances(t *testing.T) {
	m := NewMachine(nil)
	active := descriptor("m1", "me", false, timeline.CallActive)

	a := m.AffordancesFor(active, "me")
	if !a.CanJoin || a.CanLeave || !a.CanEnd {
		t.Errorf("idle affordances = %+v", a)
	}
	if m.AffordancesFor(active, "bo").CanEnd {
		t.Error("non-initiator offered end for everyone")
	}

	_ = m.Started(active)
	a = m.AffordancesFor(active, "me")
	if a.CanJoin || !a.CanLeave {
		t.Errorf("in-call affordances = %+v", a)
	}

	ended := descriptor("m1", "me", false, timeline.CallEnded)
	if (m.AffordancesFor(ended, "me") != Affordances{}) {
		t.Error("ended call still offers actions")
	}
}

func TestTransitionEmitsEvent(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe("call.", 10)
	defer unsub()

	m := NewMachine(b)
	if err := m.Started(descriptor("m1", "me", true, timeline.CallActive)); err != nil {
		t.Fatal(err)
	}

	select {
	case evt := <-ch:
		change, ok := evt.Payload.(Change)
		if !ok {
			t.Fatalf("payload type = %T, want Change", evt.Payload)
		}
		if change.From != Idle || change.To != PreJoin || change.Session.RoomID != "TeamChat-c1-1000" {
			t.Errorf("change = %+v", change)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for call.state_changed")
	}
}

func TestReserveBlocksJoinUntilStarted(t *testing.T) {
	m := NewMachine(nil)
	if err := m.Reserve(); err != nil {
		t.Fatal(err)
	}
	if !m.Busy() {
		t.Error("reserved machine is not busy")
	}
	other := descriptor("m2", "bob", true, timeline.CallActive)
	if err := m.Join(other, "me"); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("join while starting: err = %v, want conflict", err)
	}
	if err := m.Reserve(); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("second reserve: err = %v, want conflict", err)
	}

	if err := m.Started(descriptor("m1", "me", false, timeline.CallActive)); err != nil {
		t.Fatal(err)
	}
	s, _ := m.Session()
	if s.DescriptorID != "m1" || !s.IsInitiator {
		t.Errorf("session = %+v", s)
	}
}

func TestReleaseFreesReservation(t *testing.T) {
	m := NewMachine(nil)
	if err := m.Reserve(); err != nil {
		t.Fatal(err)
	}
	m.Release()
	if m.Busy() {
		t.Error("released machine is still busy")
	}
	if err := m.Join(descriptor("m2", "bob", false, timeline.CallActive), "me"); err != nil {
		t.Fatalf("join after release: %v", err)
	}
}
