package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/huddlehq/huddle/internal/apperr"
	"github.com/huddlehq/huddle/internal/backend"
	"github.com/huddlehq/huddle/internal/blob"
	"github.com/huddlehq/huddle/internal/timeline"
	"go.uber.org/zap"
)

type joinRequest struct {
	ChatID string              `json:"chat_id"`
	User   backend.Participant `json:"user"`
}

type joinResponse struct {
	Message string       `json:"message"`
	Chat    backend.Chat `json:"chat"`
}

type addParticipantRequest struct {
	Email string `json:"email"`
}

type addParticipantResponse struct {
	Message string              `json:"message"`
	User    backend.Participant `json:"user"`
}

type pinRequest struct {
	Pinned bool `json:"pinned"`
}

type uploadResponse struct {
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

func (s *Server) putUser(w http.ResponseWriter, r *http.Request) {
	var u backend.Participant
	if !decodeBody(w, r, &u) {
		return
	}
	u.ID = mux.Vars(r)["id"]
	if err := s.db.UpsertUser(u); err != nil {
		s.writeStoreError(w, err, "User not found")
		return
	}
	stored, err := s.db.GetUser(u.ID)
	if err != nil {
		s.writeStoreError(w, err, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (s *Server) listChats(w http.ResponseWriter, r *http.Request) {
	chats, err := s.db.ListChats(r.URL.Query().Get("userId"))
	if err != nil {
		s.writeStoreError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, chats)
}

func (s *Server) publicChats(w http.ResponseWriter, _ *http.Request) {
	chats, err := s.db.PublicChats()
	if err != nil {
		s.writeStoreError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, chats)
}

func (s *Server) createChat(w http.ResponseWriter, r *http.Request) {
	var nc backend.NewChat
	if !decodeBody(w, r, &nc) {
		return
	}
	nc.Name = strings.TrimSpace(nc.Name)
	if nc.Name == "" {
		writeError(w, http.StatusBadRequest, "Chat name is required")
		return
	}
	if nc.Kind != "" && nc.Kind != backend.Group && nc.Kind != backend.Direct {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown chat type %q", nc.Kind))
		return
	}
	chat, err := s.db.CreateChat(nc)
	if err != nil {
		s.writeStoreError(w, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, chat)
}

func (s *Server) joinChat(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ChatID == "" || req.User.ID == "" {
		writeError(w, http.StatusBadRequest, "chat_id and user are required")
		return
	}
	chat, err := s.db.GetChat(req.ChatID)
	if err != nil {
		s.writeStoreError(w, err, "Chat not found")
		return
	}
	member, err := s.db.IsParticipant(chat.ID, req.User.ID)
	if err != nil {
		s.writeStoreError(w, err, "")
		return
	}
	if member {
		writeJSON(w, http.StatusOK, joinResponse{Message: "Already a member", Chat: chat})
		return
	}
	if chat.IsPrivate || chat.Kind != backend.Group {
		writeError(w, http.StatusForbidden, "Cannot join a private chat")
		return
	}
	if err := s.db.AddParticipant(chat.ID, req.User); err != nil {
		s.writeStoreError(w, err, "Chat not found")
		return
	}
	if chat, err = s.db.GetChat(chat.ID); err != nil {
		s.writeStoreError(w, err, "Chat not found")
		return
	}
	writeJSON(w, http.StatusOK, joinResponse{Message: "Joined chat", Chat: chat})
}

func (s *Server) deleteChat(w http.ResponseWriter, r *http.Request) {
	if err := s.db.DeleteChat(mux.Vars(r)["id"]); err != nil {
		s.writeStoreError(w, err, "Chat not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listParticipants(w http.ResponseWriter, r *http.Request) {
	chatID := mux.Vars(r)["id"]
	if _, err := s.db.GetChat(chatID); err != nil {
		s.writeStoreError(w, err, "Chat not found")
		return
	}
	ps, err := s.db.Participants(chatID)
	if err != nil {
		s.writeStoreError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (s *Server) addParticipant(w http.ResponseWriter, r *http.Request) {
	var req addParticipantRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		writeError(w, http.StatusBadRequest, "Email is required")
		return
	}
	chatID := mux.Vars(r)["id"]
	u, err := s.db.UserByEmail(req.Email)
	if err != nil {
		s.writeStoreError(w, err, "User not found")
		return
	}
	member, err := s.db.IsParticipant(chatID, u.ID)
	if err != nil {
		s.writeStoreError(w, err, "")
		return
	}
	if member {
		writeError(w, http.StatusBadRequest, "User is already a member")
		return
	}
	if err := s.db.AddParticipant(chatID, u); err != nil {
		s.writeStoreError(w, err, "Chat not found")
		return
	}
	writeJSON(w, http.StatusOK, addParticipantResponse{Message: "Member added", User: u})
}

func (s *Server) listMessages(w http.ResponseWriter, r *http.Request) {
	snap, err := s.db.ListMessages(mux.Vars(r)["id"])
	if err != nil {
		s.writeStoreError(w, err, "Chat not found")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) createMessage(w http.ResponseWriter, r *http.Request) {
	var d timeline.Draft
	if !decodeBody(w, r, &d) {
		return
	}
	d.ChatID = mux.Vars(r)["id"]
	if err := d.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, apperr.UserMessage(err))
		return
	}
	if d.CallMeta != nil && d.CallMeta.Status == "" {
		d.CallMeta.Status = timeline.CallActive
	}
	m, err := s.db.CreateMessage(d)
	if err != nil {
		s.writeStoreError(w, err, "Chat not found")
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) clearMessages(w http.ResponseWriter, r *http.Request) {
	if err := s.db.ClearMessages(mux.Vars(r)["id"]); err != nil {
		s.writeStoreError(w, err, "Chat not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) patchMessage(w http.ResponseWriter, r *http.Request) {
	var p backend.MessagePatch
	if !decodeBody(w, r, &p) {
		return
	}
	if p.CallMeta != nil && p.CallMeta.Status != timeline.CallActive && p.CallMeta.Status != timeline.CallEnded {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown call status %q", p.CallMeta.Status))
		return
	}
	vars := mux.Vars(r)
	m, err := s.db.PatchMessage(vars["id"], vars["mid"], p)
	if err != nil {
		s.writeStoreError(w, err, "Message not found")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) deleteMessage(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := s.db.DeleteMessage(vars["id"], vars["mid"]); err != nil {
		s.writeStoreError(w, err, "Message not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) pinMessage(w http.ResponseWriter, r *http.Request) {
	var req pinRequest
	if !decodeBody(w, r, &req) {
		return
	}
	vars := mux.Vars(r)
	m, err := s.db.SetPinned(vars["id"], vars["mid"], req.Pinned)
	if err != nil {
		s.writeStoreError(w, err, "Message not found")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > s.maxUpload {
		writeError(w, http.StatusRequestEntityTooLarge, "File is too large")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	file, hdr, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "File is too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer func() { _ = file.Close() }()

	key := blob.NewKey(hdr.Filename)
	if err := s.blobs.Put(r.Context(), key, file, hdr.Size, hdr.Header.Get("Content-Type")); err != nil {
		s.logger.Error("store upload", zap.String("key", key), zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{URL: "/files/" + key, Size: hdr.Size})
}

func (s *Server) download(w http.ResponseWriter, r *http.Request) {
	rc, err := s.blobs.Get(r.Context(), mux.Vars(r)["key"])
	if errors.Is(err, blob.ErrNotFound) {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}
	if err != nil {
		s.logger.Error("read upload", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	defer func() { _ = rc.Close() }()
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = io.Copy(w, rc)
}
