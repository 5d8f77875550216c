package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/huddlehq/huddle/internal/apperr"
	"github.com/huddlehq/huddle/internal/timeline"
)

func testClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestListMessagesEnvelope(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chats/c1/messages" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"seq":7,"messages":[{"id":"1","chatId":"c1","sender":"ana","type":"text","text":"hi"}]}`)
	})
	snap, err := c.ListMessages(context.Background(), "c1")
	if err != nil {
		t.Fatal(err)
	}
	if snap.Seq != 7 || len(snap.Messages) != 1 || snap.Messages[0].Text != "hi" {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestListMessagesBareArray(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[{"id":"1","chatId":"c1","type":"text","text":"a"},{"id":"2","chatId":"c1","type":"text","text":"b"}]`)
	})
	snap, err := c.ListMessages(context.Background(), "c1")
	if err != nil {
		t.Fatal(err)
	}
	if snap.Seq != 0 || len(snap.Messages) != 2 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestCreateMessageValidatesFirst(t *testing.T) {
	called := false
	c := testClient(t, func(http.ResponseWriter, *http.Request) { called = true })
	_, err := c.CreateMessage(context.Background(), timeline.TextDraft("c1", "me", "  ", nil))
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("err = %v, want validation", err)
	}
	if called {
		t.Error("empty message reached the server")
	}
}

func TestCreateMessageSendsDraft(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		var d timeline.Draft
		if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
			t.Error(err)
			return
		}
		if d.Text != "hello" || d.ReplyTo == nil || d.ReplyTo.MessageID != "9" {
			t.Errorf("draft = %+v", d)
		}
		_ = json.NewEncoder(w).Encode(timeline.Message{ID: "10", ChatID: d.ChatID, Type: d.Type, Text: d.Text, ReplyTo: d.ReplyTo})
	})
	m, err := c.CreateMessage(context.Background(), timeline.TextDraft("c1", "me", "hello", &timeline.ReplyRef{MessageID: "9"}))
	if err != nil {
		t.Fatal(err)
	}
	if m.ID != "10" {
		t.Errorf("id = %q, want 10", m.ID)
	}
}

func TestRejectionCarriesDetail(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"detail":"User already in chat"}`)
	})
	_, err := c.AddParticipant(context.Background(), "c1", "bo@example.com")
	if !errors.Is(err, apperr.ErrRejected) {
		t.Fatalf("err = %v, want rejection", err)
	}
	if apperr.UserMessage(err) != "User already in chat" {
		t.Errorf("message = %q", apperr.UserMessage(err))
	}
}

func TestServerErrorIsNetworkFailure(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	err := c.DeleteMessage(context.Background(), "c1", "1")
	if !errors.Is(err, apperr.ErrNetwork) {
		t.Errorf("err = %v, want network failure", err)
	}
}

func TestTransportErrorIsNetworkFailure(t *testing.T) {
	c, err := New("http://127.0.0.1:1", 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.ListMessages(context.Background(), "c1")
	if !errors.Is(err, apperr.ErrNetwork) {
		t.Errorf("err = %v, want network failure", err)
	}
}

func TestSetPinnedSendsDesiredState(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chats/c1/messages/5/pin" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		var body map[string]bool
		_ = json.NewDecoder(r.Body).Decode(&body)
		_ = json.NewEncoder(w).Encode(timeline.Message{ID: "5", ChatID: "c1", IsPinned: body["pinned"]})
	})
	m, err := c.SetPinned(context.Background(), "c1", "5", true)
	if err != nil {
		t.Fatal(err)
	}
	if !m.IsPinned {
		t.Error("pinned = false, want true")
	}
}

func TestEndCallPatch(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("method = %s, want PATCH", r.Method)
		}
		raw, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(raw), `"callMeta":{"status":"ended"}`) {
			t.Errorf("body = %s", raw)
		}
		_, _ = io.WriteString(w, `{"id":"3","chatId":"c1","type":"call","callMeta":{"roomId":"r","isVoice":false,"status":"ended"}}`)
	})
	m, err := c.PatchMessage(context.Background(), "c1", "3", EndCallPatch())
	if err != nil {
		t.Fatal(err)
	}
	if m.CallActive() {
		t.Error("call still active after patch")
	}
}

func TestUploadAndDownload(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/upload":
			f, hdr, err := r.FormFile("file")
			if err != nil {
				t.Error(err)
				return
			}
			data, _ := io.ReadAll(f)
			if hdr.Filename != "notes.txt" || string(data) != "hello blob" {
				t.Errorf("upload = %s %q", hdr.Filename, data)
			}
			_, _ = io.WriteString(w, `{"url":"/uploads/notes.txt"}`)
		case "/uploads/notes.txt":
			_, _ = io.WriteString(w, "hello blob")
		default:
			http.NotFound(w, r)
		}
	})
	u, size, err := c.Upload(context.Background(), "/tmp/notes.txt", strings.NewReader("hello blob"))
	if err != nil {
		t.Fatal(err)
	}
	if u != "/uploads/notes.txt" || size != int64(len("hello blob")) {
		t.Errorf("upload = %s %d", u, size)
	}
	rc, err := c.Download(context.Background(), u)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = rc.Close() }()
	data, _ := io.ReadAll(rc)
	if string(data) != "hello blob" {
		t.Errorf("download = %q", data)
	}
}

func TestListChatsQuery(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("userId") != "u 1" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		_, _ = io.WriteString(w, `[{"id":"c1","name":"General","type":"group","participants":[{"id":"u 1","name":"Ana"}]}]`)
	})
	chats, err := c.ListChats(context.Background(), "u 1")
	if err != nil {
		t.Fatal(err)
	}
	if len(chats) != 1 || chats[0].Kind != Group || chats[0].Participants[0].Name != "Ana" {
		t.Errorf("chats = %+v", chats)
	}
}

func TestNewRejectsBadScheme(t *testing.T) {
	if _, err := New("ftp://example.com", 0, nil); err == nil {
		t.Error("New() accepted ftp scheme")
	}
}

func TestAnalyzeMessagePostsRequest(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/analyze-message" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		var req MessageAnalysis
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.Text != "what if we ship on friday" || req.Sender != "ana" || req.MessageID != "m1" {
			t.Errorf("request = %+v", req)
		}
		_, _ = io.WriteString(w, `{"isIdea":true,"confidence":0.8,"idea":{"id":"3","title":"Idea from ana"}}`)
	})
	a, err := c.AnalyzeMessage(context.Background(), MessageAnalysis{Text: "what if we ship on friday", Sender: "ana", ChatID: "c1", MessageID: "m1"})
	if err != nil {
		t.Fatal(err)
	}
	if !a.IsIdea || a.Idea == nil || a.Idea.ID != "3" {
		t.Errorf("analysis = %+v", a)
	}
}

func TestDeleteIdeaNotFound(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/ideas/9" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"detail":"Idea not found"}`)
	})
	err := c.DeleteIdea(context.Background(), "9")
	if apperr.UserMessage(err) != "Idea not found" {
		t.Errorf("err = %v", err)
	}
}
