package server

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/gorilla/mux"
	"github.com/huddlehq/huddle/internal/backend"
	"github.com/huddlehq/huddle/internal/blob"
	"github.com/huddlehq/huddle/internal/ideas"
	"go.uber.org/zap"
)

const (
	excerptRunes = 500
	previewBytes = 16 << 10
)

func (s *Server) listIdeas(w http.ResponseWriter, _ *http.Request) {
	list, err := s.db.ListIdeas()
	if err != nil {
		s.writeStoreError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) createIdea(w http.ResponseWriter, r *http.Request) {
	var ni backend.NewIdea
	if !decodeBody(w, r, &ni) {
		return
	}
	ni.Title = strings.TrimSpace(ni.Title)
	ni.Content = strings.TrimSpace(ni.Content)
	if ni.Title == "" && ni.Content == "" {
		writeError(w, http.StatusBadRequest, "Idea is empty")
		return
	}
	if ni.Title == "" {
		ni.Title = ideas.Excerpt(ni.Content, 60)
	}
	idea, err := s.db.CreateIdea(ni)
	if err != nil {
		s.writeStoreError(w, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, idea)
}

func (s *Server) deleteIdea(w http.ResponseWriter, r *http.Request) {
	if err := s.db.DeleteIdea(mux.Vars(r)["id"]); err != nil {
		s.writeStoreError(w, err, "Idea not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) analyzeMessage(w http.ResponseWriter, r *http.Request) {
	var req backend.MessageAnalysis
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "Message text is required")
		return
	}
	a := ideas.Analyze(req.Text)
	if a.IsIdea {
		idea, err := s.db.CreateIdea(backend.NewIdea{
			Title:      ideas.Title(req.Sender),
			Content:    strings.TrimSpace(req.Text),
			Category:   a.Category,
			Priority:   a.Priority,
			Suggestion: a.Suggestion,
			Tags:       []string{"Detected", a.Category},
			ChatID:     req.ChatID,
			MessageID:  req.MessageID,
			CreatedBy:  req.Sender,
		})
		if err != nil {
			s.writeStoreError(w, err, "")
			return
		}
		a.Idea = &idea
	}
	writeJSON(w, http.StatusOK, a)
}

// analyzeFile always saves the file: the user asked for it explicitly.
func (s *Server) analyzeFile(w http.ResponseWriter, r *http.Request) {
	var req backend.FileAnalysis
	if !decodeBody(w, r, &req) {
		return
	}
	req.Filename = strings.TrimSpace(req.Filename)
	if req.Filename == "" {
		writeError(w, http.StatusBadRequest, "Filename is required")
		return
	}
	content := s.preview(r, req.URL)
	if content == "" {
		content = "File: " + req.Filename
	}
	a := ideas.Analyze(content)
	a.IsIdea = true
	idea, err := s.db.CreateIdea(backend.NewIdea{
		Title:      ideas.FileTitle(req.Filename),
		Content:    ideas.Excerpt(content, excerptRunes),
		Category:   a.Category,
		Priority:   a.Priority,
		Suggestion: a.Suggestion,
		Tags:       []string{"File", a.Category},
		ChatID:     req.ChatID,
		MessageID:  req.MessageID,
		CreatedBy:  req.Sender,
	})
	if err != nil {
		s.writeStoreError(w, err, "")
		return
	}
	a.Idea = &idea
	writeJSON(w, http.StatusOK, a)
}

// preview reads the start of an uploaded blob when it is text. Anything
// else yields "".
func (s *Server) preview(r *http.Request, blobURL string) string {
	ref, err := url.Parse(blobURL)
	if err != nil {
		return ""
	}
	key, ok := strings.CutPrefix(ref.Path, "/files/")
	if !ok || !blob.ValidKey(key) {
		return ""
	}
	rc, err := s.blobs.Get(r.Context(), key)
	if err != nil {
		if !errors.Is(err, blob.ErrNotFound) {
			s.logger.Warn("read blob for analysis", zap.String("key", key), zap.Error(err))
		}
		return ""
	}
	defer func() { _ = rc.Close() }()
	raw, err := io.ReadAll(io.LimitReader(rc, previewBytes))
	if err != nil {
		return ""
	}
	// A multi-byte rune may be cut at the limit.
	if len(raw) == previewBytes {
		for i := 0; i < utf8.UTFMax-1 && !utf8.Valid(raw); i++ {
			raw = raw[:len(raw)-1]
		}
	}
	if !utf8.Valid(raw) || strings.ContainsRune(string(raw), 0) {
		return ""
	}
	return strings.TrimSpace(string(raw))
}
