package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/huddlehq/huddle/internal/backend"
	"github.com/huddlehq/huddle/internal/timeline"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testChat(t *testing.T, db *DB, members ...string) backend.Chat {
	t.Helper()
	var ps []backend.Participant
	for _, m := range members {
		ps = append(ps, backend.Participant{ID: m, Name: m})
	}
	c, err := db.CreateChat(backend.NewChat{Name: "team", Kind: backend.Group, Participants: ps, CreatedBy: members[0]})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestMigrateAppliesOnFreshDB(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "fresh.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	result, err := db.Migrate()
	if err != nil {
		t.Fatal(err)
	}
	if !result.Changed || result.From != 0 || result.Version != 3 {
		t.Errorf("first Migrate() = %+v, want 0 -> 3", result)
	}

	result, err = db.Migrate()
	if err != nil {
		t.Fatal(err)
	}
	if result.Changed {
		t.Error("second Migrate() should report Changed=false")
	}
	if result.From != 3 || result.Version != 3 {
		t.Errorf("second Migrate() = %+v, want 3 -> 3", result)
	}
}

func TestCreateChatRegistersParticipants(t *testing.T) {
	db := testDB(t)

	c := testChat(t, db, "alice", "bob")
	if c.ID == "" {
		t.Fatal("chat id not assigned")
	}
	if len(c.Participants) != 2 {
		t.Fatalf("participants = %d, want 2", len(c.Participants))
	}

	mine, err := db.ListChats("bob")
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 1 || mine[0].ID != c.ID {
		t.Errorf("ListChats(bob) = %+v", mine)
	}
	other, err := db.ListChats("carol")
	if err != nil {
		t.Fatal(err)
	}
	if len(other) != 0 {
		t.Errorf("ListChats(carol) = %d chats, want 0", len(other))
	}
}

func TestPublicChatsExcludePrivate(t *testing.T) {
	db := testDB(t)

	self := []backend.Participant{{ID: "alice"}}
	if _, err := db.CreateChat(backend.NewChat{Name: "open", Kind: backend.Group, Participants: self}); err != nil {
		t.Fatal(err)
	}
	if _, err := db.CreateChat(backend.NewChat{Name: "secret", Kind: backend.Group, IsPrivate: true, Participants: self}); err != nil {
		t.Fatal(err)
	}
	if _, err := db.CreateChat(backend.NewChat{Name: "dm", Kind: backend.Direct, Participants: self}); err != nil {
		t.Fatal(err)
	}

	public, err := db.PublicChats()
	if err != nil {
		t.Fatal(err)
	}
	if len(public) != 1 || public[0].Name != "open" {
		t.Errorf("public = %+v, want only 'open'", public)
	}
}

func TestAddParticipantByEmail(t *testing.T) {
	db := testDB(t)
	c := testChat(t, db, "alice")

	if err := db.UpsertUser(backend.Participant{ID: "bob", Name: "Bob", Email: "Bob@Example.com"}); err != nil {
		t.Fatal(err)
	}
	u, err := db.UserByEmail("bob@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if u.ID != "bob" {
		t.Fatalf("user = %+v", u)
	}
	if err := db.AddParticipant(c.ID, u); err != nil {
		t.Fatal(err)
	}
	// Adding twice is a no-op.
	if err := db.AddParticipant(c.ID, u); err != nil {
		t.Fatal(err)
	}
	ps, err := db.Participants(c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(ps) != 2 {
		t.Errorf("participants = %d, want 2", len(ps))
	}

	if _, err := db.UserByEmail("nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown email err = %v, want ErrNotFound", err)
	}
	if err := db.AddParticipant("missing", u); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing chat err = %v, want ErrNotFound", err)
	}
}

func TestUpsertUserRejectsTakenEmail(t *testing.T) {
	db := testDB(t)

	if err := db.UpsertUser(backend.Participant{ID: "a", Email: "same@example.com"}); err != nil {
		t.Fatal(err)
	}
	if err := db.UpsertUser(backend.Participant{ID: "b", Email: "same@example.com"}); !errors.Is(err, ErrExists) {
		t.Errorf("err = %v, want ErrExists", err)
	}
}

func TestMessagesBumpSeq(t *testing.T) {
	db := testDB(t)
	c := testChat(t, db, "alice")

	snap, err := db.ListMessages(c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Seq != 0 || len(snap.Messages) != 0 {
		t.Fatalf("fresh snapshot = %+v", snap)
	}

	reply := &timeline.ReplyRef{MessageID: "x", Sender: "bob", Text: "hi"}
	m, err := db.CreateMessage(timeline.TextDraft(c.ID, "alice", "hello", reply))
	if err != nil {
		t.Fatal(err)
	}
	if m.ID == "" || m.Text != "hello" || m.ReplyTo == nil || m.ReplyTo.Text != "hi" {
		t.Fatalf("created = %+v", m)
	}

	snap, err = db.ListMessages(c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Seq != 1 || len(snap.Messages) != 1 {
		t.Fatalf("snapshot = seq %d, %d messages", snap.Seq, len(snap.Messages))
	}

	if err := db.DeleteMessage(c.ID, m.ID); err != nil {
		t.Fatal(err)
	}
	if err := db.DeleteMessage(c.ID, m.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
	snap, _ = db.ListMessages(c.ID)
	if snap.Seq != 2 || len(snap.Messages) != 0 {
		t.Errorf("after delete = seq %d, %d messages", snap.Seq, len(snap.Messages))
	}
}

func TestSetPinnedKeepsFirstPinTime(t *testing.T) {
	db := testDB(t)
	c := testChat(t, db, "alice")
	m, err := db.CreateMessage(timeline.TextDraft(c.ID, "alice", "pin me", nil))
	if err != nil {
		t.Fatal(err)
	}

	first, err := db.SetPinned(c.ID, m.ID, true)
	if err != nil {
		t.Fatal(err)
	}
	if !first.IsPinned || first.PinnedAt == nil {
		t.Fatalf("pinned = %+v", first)
	}
	again, err := db.SetPinned(c.ID, m.ID, true)
	if err != nil {
		t.Fatal(err)
	}
	if !again.PinnedAt.Equal(*first.PinnedAt) {
		t.Errorf("pinnedAt moved from %v to %v", first.PinnedAt, again.PinnedAt)
	}

	off, err := db.SetPinned(c.ID, m.ID, false)
	if err != nil {
		t.Fatal(err)
	}
	if off.IsPinned || off.PinnedAt != nil {
		t.Errorf("unpinned = %+v", off)
	}
}

func TestPatchEndsCall(t *testing.T) {
	db := testDB(t)
	c := testChat(t, db, "alice")
	m, err := db.CreateMessage(timeline.CallDraft(c.ID, "alice", "TeamChat-x-1", true))
	if err != nil {
		t.Fatal(err)
	}

	ended, err := db.PatchMessage(c.ID, m.ID, backend.EndCallPatch())
	if err != nil {
		t.Fatal(err)
	}
	if ended.CallMeta == nil || ended.CallMeta.Status != timeline.CallEnded {
		t.Fatalf("call meta = %+v", ended.CallMeta)
	}
	if ended.CallMeta.RoomID != "TeamChat-x-1" || !ended.CallMeta.IsVoice {
		t.Errorf("patch lost room or kind: %+v", ended.CallMeta)
	}

	if _, err := db.PatchMessage(c.ID, "999", backend.EndCallPatch()); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing message err = %v, want ErrNotFound", err)
	}
}

func TestEndedCallStaysEnded(t *testing.T) {
	db := testDB(t)
	c := testChat(t, db, "alice")
	m, err := db.CreateMessage(timeline.CallDraft(c.ID, "alice", "TeamChat-x-1", false))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.PatchMessage(c.ID, m.ID, backend.EndCallPatch()); err != nil {
		t.Fatal(err)
	}

	revive := backend.MessagePatch{CallMeta: &backend.CallMetaPatch{Status: timeline.CallActive}}
	if _, err := db.PatchMessage(c.ID, m.ID, revive); !errors.Is(err, ErrCallEnded) {
		t.Fatalf("revive err = %v, want ErrCallEnded", err)
	}
	got, err := db.GetMessage(c.ID, m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.CallMeta.Status != timeline.CallEnded {
		t.Errorf("status = %s, want ended", got.CallMeta.Status)
	}
	if _, err := db.PatchMessage(c.ID, m.ID, backend.EndCallPatch()); err != nil {
		t.Errorf("ending twice: %v", err)
	}
}

func TestCallPatchOnTextMessage(t *testing.T) {
	db := testDB(t)
	c := testChat(t, db, "alice")
	m, err := db.CreateMessage(timeline.TextDraft(c.ID, "alice", "hello", nil))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.PatchMessage(c.ID, m.ID, backend.EndCallPatch()); !errors.Is(err, ErrNotCall) {
		t.Fatalf("err = %v, want ErrNotCall", err)
	}
	got, err := db.GetMessage(c.ID, m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.CallMeta != nil || got.Text != "hello" {
		t.Errorf("text message changed: %+v", got)
	}
}

func TestDeleteChatCascades(t *testing.T) {
	db := testDB(t)
	c := testChat(t, db, "alice")
	if _, err := db.CreateMessage(timeline.TextDraft(c.ID, "alice", "bye", nil)); err != nil {
		t.Fatal(err)
	}

	if err := db.DeleteChat(c.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := db.GetChat(c.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetChat err = %v, want ErrNotFound", err)
	}
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM messages`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("messages left = %d, want 0", n)
	}
}

func TestClearMessages(t *testing.T) {
	db := testDB(t)
	c := testChat(t, db, "alice")
	for _, text := range []string{"a", "b"} {
		if _, err := db.CreateMessage(timeline.TextDraft(c.ID, "alice", text, nil)); err != nil {
			t.Fatal(err)
		}
	}
	if err := db.ClearMessages(c.ID); err != nil {
		t.Fatal(err)
	}
	snap, err := db.ListMessages(c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Messages) != 0 || snap.Seq != 3 {
		t.Errorf("after clear = seq %d, %d messages", snap.Seq, len(snap.Messages))
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "nested", "huddle.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	_ = db.Close()
}

func TestIdeasNewestFirst(t *testing.T) {
	db := testDB(t)
	first, err := db.CreateIdea(backend.NewIdea{Title: "Idea from ana", Content: "what if we had a dark mode", Tags: []string{"Detected", "Product"}, ChatID: "c1", MessageID: "7"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.CreateIdea(backend.NewIdea{Title: "File Idea: plan.txt", Content: "ship it"}); err != nil {
		t.Fatal(err)
	}

	ideas, err := db.ListIdeas()
	if err != nil {
		t.Fatal(err)
	}
	if len(ideas) != 2 || ideas[0].Title != "File Idea: plan.txt" {
		t.Fatalf("ideas = %+v", ideas)
	}
	if got := ideas[1]; got.ID != first.ID || len(got.Tags) != 2 || got.MessageID != "7" || got.CreatedAt.IsZero() {
		t.Errorf("stored idea = %+v", got)
	}
	if ideas[0].Tags != nil {
		t.Errorf("untagged idea has tags %v", ideas[0].Tags)
	}

	if err := db.DeleteIdea(first.ID); err != nil {
		t.Fatal(err)
	}
	if err := db.DeleteIdea(first.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}
