package timeline

import (
	"testing"
	"time"
)

func msg(id string) Message {
	return Message{ID: id, ChatID: "c1", Sender: "ana", Type: KindText, Text: "m-" + id}
}

func TestReplaceDropsDuplicatesAndForeignChats(t *testing.T) {
	s := NewStore()
	s.Reset("c1")

	other := msg("x")
	other.ChatID = "c2"
	s.Replace([]Message{msg("1"), msg("2"), msg("1"), other})

	if s.Len() != 2 {
		t.Fatalf("len = %d, want 2", s.Len())
	}
	if got := s.Messages()[1].ID; got != "2" {
		t.Errorf("second id = %q, want 2", got)
	}
}

func TestAppendDeduplicatesByID(t *testing.T) {
	s := NewStore()
	s.Reset("c1")
	s.Replace([]Message{msg("1")})

	updated := msg("1")
	updated.Text = "edited"
	if !s.Append(updated) {
		t.Fatal("Append() = false, want true")
	}
	if s.Len() != 1 {
		t.Fatalf("len = %d, want 1", s.Len())
	}
	m, _ := s.Find("1")
	if m.Text != "edited" {
		t.Errorf("text = %q, want edited", m.Text)
	}
}

func TestAppendRejectsOtherChat(t *testing.T) {
	s := NewStore()
	s.Reset("c1")
	m := msg("1")
	m.ChatID = "c2"
	if s.Append(m) {
		t.Error("Append() for another chat = true, want false")
	}
}

func TestEpochOnlyMovesOnLocalMutations(t *testing.T) {
	s := NewStore()
	s.Reset("c1")
	epoch := s.Epoch()

	s.Replace([]Message{msg("1"), msg("2")})
	if s.Epoch() != epoch {
		t.Errorf("epoch moved on Replace: %d -> %d", epoch, s.Epoch())
	}

	rev := s.Revision()
	s.Remove("1")
	if s.Epoch() == epoch {
		t.Error("epoch did not move on Remove")
	}
	if s.Revision() == rev {
		t.Error("revision did not move on Remove")
	}
}

func TestFindReturnsCopy(t *testing.T) {
	s := NewStore()
	s.Reset("c1")
	m := msg("1")
	m.Attachment = &Attachment{Filename: "a.txt", URL: "/u/a.txt", Size: 3}
	s.Append(m)

	got, _ := s.Find("1")
	got.Attachment.Filename = "changed"

	again, _ := s.Find("1")
	if again.Attachment.Filename != "a.txt" {
		t.Errorf("store mutated through Find copy: %q", again.Attachment.Filename)
	}
}

func TestPinnedOrderedByPinTime(t *testing.T) {
	s := NewStore()
	s.Reset("c1")
	t0 := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	late := t0.Add(time.Minute)

	a, b, c := msg("a"), msg("b"), msg("c")
	a.IsPinned, a.PinnedAt = true, &late
	b.IsPinned, b.PinnedAt = true, &t0
	c.IsPinned = true
	s.Replace([]Message{a, b, c, msg("d")})

	pinned := s.Pinned()
	var ids []string
	for _, p := range pinned {
		ids = append(ids, p.ID)
	}
	want := []string{"b", "a", "c"}
	if len(ids) != len(want) {
		t.Fatalf("pinned = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("pinned = %v, want %v", ids, want)
		}
	}
}

func TestUpdateKeepsIdentity(t *testing.T) {
	s := NewStore()
	s.Reset("c1")
	s.Append(msg("1"))
	s.Update("1", func(m *Message) {
		m.ID = "other"
		m.IsPinned = true
	})
	m, ok := s.Find("1")
	if !ok || !m.IsPinned {
		t.Errorf("Find(1) = %+v, %v; want pinned message", m, ok)
	}
	if s.Update("missing", func(*Message) {}) {
		t.Error("Update(missing) = true, want false")
	}
}
