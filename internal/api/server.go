// Package api implements the HTTP API: the chat endpoint plus record
// listings and health/version introspection.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/arpanb/emissary/internal/agent"
	"github.com/arpanb/emissary/internal/buildinfo"
	"github.com/arpanb/emissary/internal/llm"
	"github.com/arpanb/emissary/internal/records"
)

// writeJSON encodes v as JSON to w, logging any errors at debug level.
// Errors here typically mean the client disconnected mid-response,
// which is not actionable but worth tracking for debugging.
func writeJSON(w http.ResponseWriter, v any, logger *slog.Logger) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("failed to write JSON response", "error", err)
	}
}

// Server is the HTTP API server.
type Server struct {
	listen  string
	engine  *agent.Engine
	store   *records.Store
	persona string
	logger  *slog.Logger
	server  *http.Server
}

// NewServer creates a new API server. store may be nil, in which case
// the record listing endpoints report the store as unavailable.
func NewServer(listen string, engine *agent.Engine, store *records.Store, personaName string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		listen:  listen,
		engine:  engine,
		store:   store,
		persona: personaName,
		logger:  logger,
	}
}

// Handler returns the routed handler. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/chat", s.handleChat)

	mux.HandleFunc("GET /v1/records/leads", s.handleLeads)
	mux.HandleFunc("GET /v1/records/questions", s.handleQuestions)

	mux.HandleFunc("GET /v1/version", s.handleVersion)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /", s.handleRoot)

	return s.withLogging(mux)
}

// Start begins serving HTTP requests.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.listen,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // a turn can take several model calls
	}

	s.logger.Info("starting API server", "listen", s.listen)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.New().String()
		next.ServeHTTP(w, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", requestID,
			"duration", time.Since(start),
		)
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{
		"name":    "Emissary",
		"persona": s.persona,
		"version": buildinfo.Version,
		"status":  "ok",
	}, s.logger)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, buildinfo.RuntimeInfo(), s.logger)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{"status": "healthy"}, s.logger)
}

// ChatMessage is one prior turn supplied by the client. Only user and
// assistant turns are meaningful here; tool traffic never leaves the
// engine.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the chat endpoint's request body.
type ChatRequest struct {
	Message string        `json:"message"`
	History []ChatMessage `json:"history,omitempty"`
}

// ChatResponse is the chat endpoint's response body.
type ChatResponse struct {
	Reply string `json:"reply"`
}

// handleChat answers one user message.
// POST /v1/chat {"message": "What do you do?", "history": [...]}
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Message == "" {
		s.errorResponse(w, http.StatusBadRequest, "message is required")
		return
	}

	history := make([]llm.Message, 0, len(req.History))
	for _, m := range req.History {
		if m.Role != llm.RoleUser && m.Role != llm.RoleAssistant {
			s.errorResponse(w, http.StatusBadRequest, "history roles must be user or assistant")
			return
		}
		history = append(history, llm.Message{Role: m.Role, Content: m.Content})
	}

	reply, err := s.engine.Reply(r.Context(), history, req.Message)
	if err != nil {
		s.logger.Error("turn failed", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "agent error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, ChatResponse{Reply: reply}, s.logger)
}

// handleLeads lists recorded leads, most recent first.
// GET /v1/records/leads?limit=N
func (s *Server) handleLeads(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "records store not configured")
		return
	}

	limit, err := parseLimit(r)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	leads, err := s.store.ListLeads(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list leads", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "database error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]any{
		"leads": leads,
		"count": len(leads),
	}, s.logger)
}

// handleQuestions lists recorded unknown questions, most recent first.
// GET /v1/records/questions?limit=N
func (s *Server) handleQuestions(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "records store not configured")
		return
	}

	limit, err := parseLimit(r)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	questions, err := s.store.ListUnknownQuestions(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list questions", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "database error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]any{
		"questions": questions,
		"count":     len(questions),
	}, s.logger)
}

func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, errInvalidLimit
	}
	return limit, nil
}

var errInvalidLimit = errors.New("limit must be a non-negative integer")

func (s *Server) errorResponse(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	writeJSON(w, map[string]any{
		"error": map[string]any{
			"message": message,
			"type":    "invalid_request_error",
			"code":    code,
		},
	}, s.logger)
}
