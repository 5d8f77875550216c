// Package server is a development backend implementing the message store,
// chat, participant, blob and presence services the huddle daemon talks to.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/huddlehq/huddle/internal/blob"
	"github.com/huddlehq/huddle/internal/store"
	"go.uber.org/zap"
)

// Server routes the HTTP API onto the store, blob store and presence hub.
type Server struct {
	db        *store.DB
	blobs     blob.Store
	hub       *Hub
	logger    *zap.Logger
	maxUpload int64
	router    *mux.Router
}

// New wires the routes. maxUpload caps upload bodies in bytes.
func New(db *store.DB, blobs blob.Store, hub *Hub, maxUpload int64, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{db: db, blobs: blobs, hub: hub, logger: logger, maxUpload: maxUpload}
	s.router = s.routes()
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.loggingMiddleware)

	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	r.HandleFunc("/presence", s.listPresence).Methods(http.MethodGet)
	r.HandleFunc("/users/{id}", s.putUser).Methods(http.MethodPut)

	// Literal paths first so they are not captured by {id}.
	r.HandleFunc("/chats/public", s.publicChats).Methods(http.MethodGet)
	r.HandleFunc("/chats/join", s.joinChat).Methods(http.MethodPost)
	r.HandleFunc("/chats", s.listChats).Methods(http.MethodGet)
	r.HandleFunc("/chats", s.createChat).Methods(http.MethodPost)
	r.HandleFunc("/chats/{id}", s.deleteChat).Methods(http.MethodDelete)
	r.HandleFunc("/chats/{id}/participants", s.listParticipants).Methods(http.MethodGet)
	r.HandleFunc("/chats/{id}/participants", s.addParticipant).Methods(http.MethodPost)

	r.HandleFunc("/chats/{id}/messages", s.listMessages).Methods(http.MethodGet)
	r.HandleFunc("/chats/{id}/messages", s.createMessage).Methods(http.MethodPost)
	r.HandleFunc("/chats/{id}/messages", s.clearMessages).Methods(http.MethodDelete)
	r.HandleFunc("/chats/{id}/messages/{mid}", s.patchMessage).Methods(http.MethodPatch)
	r.HandleFunc("/chats/{id}/messages/{mid}", s.deleteMessage).Methods(http.MethodDelete)
	r.HandleFunc("/chats/{id}/messages/{mid}/pin", s.pinMessage).Methods(http.MethodPost)

	r.HandleFunc("/ideas", s.listIdeas).Methods(http.MethodGet)
	r.HandleFunc("/ideas", s.createIdea).Methods(http.MethodPost)
	r.HandleFunc("/ideas/{id}", s.deleteIdea).Methods(http.MethodDelete)
	r.HandleFunc("/analyze-message", s.analyzeMessage).Methods(http.MethodPost)
	r.HandleFunc("/analyze-file", s.analyzeFile).Methods(http.MethodPost)

	r.HandleFunc("/upload", s.upload).Methods(http.MethodPost)
	r.HandleFunc("/files/{key:.+}", s.download).Methods(http.MethodGet)

	r.HandleFunc("/ws/{userId}", func(w http.ResponseWriter, r *http.Request) {
		s.hub.ServeWS(w, r, mux.Vars(r)["userId"])
	})
	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the hijacker for websockets.
func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)

		if r.Header.Get("Upgrade") == "websocket" {
			s.logger.Info("websocket", zap.String("path", r.URL.Path), zap.String("request_id", reqID))
			next.ServeHTTP(w, r)
			return
		}
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.String("request_id", reqID),
			zap.Duration("took", time.Since(start)))
	})
}

type errorBody struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorBody{Detail: detail})
}

// writeStoreError maps store sentinels onto status codes. notFound is the
// detail used for ErrNotFound.
func (s *Server) writeStoreError(w http.ResponseWriter, err error, notFound string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, notFound)
	case errors.Is(err, store.ErrExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrNotCall):
		writeError(w, http.StatusBadRequest, "Message is not a call")
	case errors.Is(err, store.ErrCallEnded):
		writeError(w, http.StatusConflict, "Call has already ended")
	default:
		s.logger.Error("store error", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listPresence(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"online": s.hub.Online()})
}
