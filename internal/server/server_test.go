package server

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/huddlehq/huddle/internal/apperr"
	"github.com/huddlehq/huddle/internal/backend"
	"github.com/huddlehq/huddle/internal/blob"
	"github.com/huddlehq/huddle/internal/store"
	"github.com/huddlehq/huddle/internal/timeline"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	ts     *httptest.Server
	client *backend.Client
	hub    *Hub
}

func newFixture(t *testing.T, broker Broker) *fixture {
	t.Helper()
	dir := t.TempDir()

	db, err := store.Open(filepath.Join(dir, "huddle.db"))
	require.NoError(t, err)
	_, err = db.Migrate()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	blobs, err := blob.NewLocal(filepath.Join(dir, "blobs"))
	require.NoError(t, err)

	if broker == nil {
		broker = NewLocalBroker()
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := NewHub(broker, nil)
	require.NoError(t, hub.Start(ctx))

	ts := httptest.NewServer(New(db, blobs, hub, 1<<20, nil).Handler())
	t.Cleanup(ts.Close)

	client, err := backend.New(ts.URL, 5*time.Second, nil)
	require.NoError(t, err)
	return &fixture{ts: ts, client: client, hub: hub}
}

func TestChatAndMessageContract(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	alice := backend.Participant{ID: "alice", Name: "Alice"}

	chat, err := f.client.CreateChat(ctx, backend.NewChat{Name: "team", Kind: backend.Group, Participants: []backend.Participant{alice}, CreatedBy: "alice"})
	require.NoError(t, err)
	require.NotEmpty(t, chat.ID)

	chats, err := f.client.ListChats(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, chats, 1)

	sent, err := f.client.CreateMessage(ctx, timeline.TextDraft(chat.ID, "alice", "hello", nil))
	require.NoError(t, err)
	require.Equal(t, "hello", sent.Text)

	snap, err := f.client.ListMessages(ctx, chat.ID)
	require.NoError(t, err)
	require.Len(t, snap.Messages, 1)
	require.Equal(t, uint64(1), snap.Seq)

	pinned, err := f.client.SetPinned(ctx, chat.ID, sent.ID, true)
	require.NoError(t, err)
	require.True(t, pinned.IsPinned)
	require.NotNil(t, pinned.PinnedAt)

	callMsg, err := f.client.CreateMessage(ctx, timeline.CallDraft(chat.ID, "alice", "TeamChat-1-1", false))
	require.NoError(t, err)
	ended, err := f.client.PatchMessage(ctx, chat.ID, callMsg.ID, backend.EndCallPatch())
	require.NoError(t, err)
	require.Equal(t, timeline.CallEnded, ended.CallMeta.Status)

	require.NoError(t, f.client.DeleteMessage(ctx, chat.ID, sent.ID))
	err = f.client.DeleteMessage(ctx, chat.ID, sent.ID)
	require.Equal(t, apperr.Rejected, apperr.KindOf(err))
	require.Equal(t, "Message not found", apperr.UserMessage(err))

	require.NoError(t, f.client.ClearMessages(ctx, chat.ID))
	snap, err = f.client.ListMessages(ctx, chat.ID)
	require.NoError(t, err)
	require.Empty(t, snap.Messages)

	require.NoError(t, f.client.DeleteChat(ctx, chat.ID))
	_, err = f.client.ListMessages(ctx, chat.ID)
	require.Error(t, err)
}

func TestCallStatusOnlyMovesToEnded(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	chat, err := f.client.CreateChat(ctx, backend.NewChat{Name: "team", Participants: []backend.Participant{{ID: "a"}}})
	require.NoError(t, err)

	callMsg, err := f.client.CreateMessage(ctx, timeline.CallDraft(chat.ID, "a", "TeamChat-1-1", false))
	require.NoError(t, err)
	_, err = f.client.PatchMessage(ctx, chat.ID, callMsg.ID, backend.EndCallPatch())
	require.NoError(t, err)

	revive := backend.MessagePatch{CallMeta: &backend.CallMetaPatch{Status: timeline.CallActive}}
	_, err = f.client.PatchMessage(ctx, chat.ID, callMsg.ID, revive)
	require.Equal(t, apperr.Rejected, apperr.KindOf(err))
	require.Equal(t, "Call has already ended", apperr.UserMessage(err))

	textMsg, err := f.client.CreateMessage(ctx, timeline.TextDraft(chat.ID, "a", "hi", nil))
	require.NoError(t, err)
	_, err = f.client.PatchMessage(ctx, chat.ID, textMsg.ID, backend.EndCallPatch())
	require.Equal(t, apperr.Rejected, apperr.KindOf(err))
	require.Equal(t, "Message is not a call", apperr.UserMessage(err))

	snap, err := f.client.ListMessages(ctx, chat.ID)
	require.NoError(t, err)
	require.Len(t, snap.Messages, 2)
	require.Equal(t, timeline.CallEnded, snap.Messages[0].CallMeta.Status)
	require.Nil(t, snap.Messages[1].CallMeta)
}

func TestEmptyDraftIsRejectedWithDetail(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	chat, err := f.client.CreateChat(ctx, backend.NewChat{Name: "team", Participants: []backend.Participant{{ID: "a"}}})
	require.NoError(t, err)

	body := strings.NewReader(`{"sender":"a","type":"text","text":"   "}`)
	resp, err := http.Post(f.ts.URL+"/chats/"+chat.ID+"/messages", "application/json", body)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	require.Contains(t, string(raw), "message is empty")
}

func TestJoinAndAddMember(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	open, err := f.client.CreateChat(ctx, backend.NewChat{Name: "open", Kind: backend.Group, Participants: []backend.Participant{{ID: "alice"}}})
	require.NoError(t, err)
	secret, err := f.client.CreateChat(ctx, backend.NewChat{Name: "secret", Kind: backend.Group, IsPrivate: true, Participants: []backend.Participant{{ID: "alice"}}})
	require.NoError(t, err)

	public, err := f.client.PublicChats(ctx)
	require.NoError(t, err)
	require.Len(t, public, 1)
	require.Equal(t, open.ID, public[0].ID)

	joined, err := f.client.JoinChat(ctx, open.ID, backend.Participant{ID: "bob", Name: "Bob"})
	require.NoError(t, err)
	require.Len(t, joined.Participants, 2)

	_, err = f.client.JoinChat(ctx, secret.ID, backend.Participant{ID: "bob"})
	require.Equal(t, "Cannot join a private chat", apperr.UserMessage(err))

	_, err = f.client.AddParticipant(ctx, secret.ID, "carol@example.com")
	require.Equal(t, apperr.Rejected, apperr.KindOf(err))
	require.Equal(t, "User not found", apperr.UserMessage(err))

	req, err := http.NewRequest(http.MethodPut, f.ts.URL+"/users/carol", strings.NewReader(`{"name":"Carol","email":"carol@example.com"}`))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	added, err := f.client.AddParticipant(ctx, secret.ID, "carol@example.com")
	require.NoError(t, err)
	require.Equal(t, "carol", added.ID)

	_, err = f.client.AddParticipant(ctx, secret.ID, "carol@example.com")
	require.Equal(t, "User is already a member", apperr.UserMessage(err))

	ps, err := f.client.Participants(ctx, secret.ID)
	require.NoError(t, err)
	require.Len(t, ps, 2)
}

func TestUploadAndDownload(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	url, size, err := f.client.Upload(ctx, "notes.txt", strings.NewReader("meeting notes"))
	require.NoError(t, err)
	require.Equal(t, int64(len("meeting notes")), size)
	require.True(t, strings.HasPrefix(url, "/files/"))
	require.True(t, strings.HasSuffix(url, "/notes.txt"))

	rc, err := f.client.Download(ctx, url)
	require.NoError(t, err)
	defer func() { _ = rc.Close() }()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "meeting notes", string(got))

	_, err = f.client.Download(ctx, "/files/missing/nothing.txt")
	require.Error(t, err)
}

func TestUploadTooLarge(t *testing.T) {
	f := newFixture(t, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "big.bin")
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte("x"), 2<<20))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(f.ts.URL+"/upload", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestLoadConfigFromEnvFile(t *testing.T) {
	env := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, writeFile(env, "HUDDLE_ADDR=127.0.0.1:9999\nHUDDLE_BLOB_BACKEND=local\nHUDDLE_MAX_UPLOAD_MB=5\n"))
	t.Setenv("HUDDLE_DB", "from-env.db")

	cfg, err := LoadConfig(env)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9999", cfg.Addr)
	require.Equal(t, "from-env.db", cfg.DBPath)
	require.Equal(t, 5, cfg.MaxUploadMB)
}

func TestConfigRejectsIncompleteS3(t *testing.T) {
	cfg := &Config{BlobBackend: "s3", MaxUploadMB: 1}
	require.Error(t, cfg.Validate())
}

func TestIdeaHub(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	chatter, err := f.client.AnalyzeMessage(ctx, backend.MessageAnalysis{Text: "good morning everyone", Sender: "ana"})
	require.NoError(t, err)
	require.False(t, chatter.IsIdea)
	require.Nil(t, chatter.Idea)

	a, err := f.client.AnalyzeMessage(ctx, backend.MessageAnalysis{Text: "What if we added a dark mode feature for users?", Sender: "ana", ChatID: "c1", MessageID: "4"})
	require.NoError(t, err)
	require.True(t, a.IsIdea)
	require.NotNil(t, a.Idea)
	require.Equal(t, "Idea from ana", a.Idea.Title)
	require.Equal(t, "Product", a.Idea.Category)

	url, _, err := f.client.Upload(ctx, "plan.txt", strings.NewReader("We should brainstorm the launch campaign"))
	require.NoError(t, err)
	file, err := f.client.AnalyzeFile(ctx, backend.FileAnalysis{Filename: "plan.txt", URL: url, Sender: "bob"})
	require.NoError(t, err)
	require.True(t, file.IsIdea)
	require.Equal(t, "File Idea: plan.txt", file.Idea.Title)
	require.Equal(t, "We should brainstorm the launch campaign", file.Idea.Content)
	require.Contains(t, file.Idea.Tags, "File")

	binary, err := f.client.AnalyzeFile(ctx, backend.FileAnalysis{Filename: "photo.png", Sender: "bob"})
	require.NoError(t, err)
	require.Equal(t, "File: photo.png", binary.Idea.Content)

	list, err := f.client.ListIdeas(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, binary.Idea.ID, list[0].ID)

	require.NoError(t, f.client.DeleteIdea(ctx, a.Idea.ID))
	err = f.client.DeleteIdea(ctx, a.Idea.ID)
	require.Equal(t, "Idea not found", apperr.UserMessage(err))

	_, err = f.client.CreateIdea(ctx, backend.NewIdea{Title: "  "})
	require.Equal(t, "Idea is empty", apperr.UserMessage(err))
	manual, err := f.client.CreateIdea(ctx, backend.NewIdea{Content: "weekly demo day"})
	require.NoError(t, err)
	require.Equal(t, "weekly demo day", manual.Title)
}
