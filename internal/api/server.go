// Package api exposes the honeypot over HTTP. Every processing failure maps
// to the {"status":"error","message":...} shape; transport-level errors are
// reserved for routing misses.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/trapline-ai/trapline/internal/engine"
	"github.com/trapline-ai/trapline/internal/session"
)

type Server struct {
	router *chi.Mux
	engine *engine.Engine
	port   int
	logger *slog.Logger
}

func NewServer(port int, eng *engine.Engine, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)

	s := &Server{
		router: router,
		engine: eng,
		port:   port,
		logger: logger,
	}

	router.Use(s.recoverer)

	router.Get("/health", s.health)
	router.Get("/", s.info)
	router.Post("/api/v1/analyze", s.analyze)
	router.Post("/analyze", s.analyze) // compatibility alias

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

// analyzeRequest is the inbound turn intake shape.
type analyzeRequest struct {
	SessionID string `json:"sessionId"`
	Message   struct {
		Sender    string `json:"sender"`
		Text      string `json:"text"`
		Timestamp int64  `json:"timestamp"`
	} `json:"message"`
	ConversationHistory []struct {
		Sender    string `json:"sender"`
		Text      string `json:"text"`
		Timestamp int64  `json:"timestamp"`
	} `json:"conversationHistory"`
	Metadata map[string]any `json:"metadata"`
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "invalid request body: "+err.Error())
		return
	}

	history := make([]session.HistoryMessage, 0, len(req.ConversationHistory))
	for _, item := range req.ConversationHistory {
		history = append(history, session.HistoryMessage{
			Sender:          item.Sender,
			Text:            item.Text,
			TimestampMillis: item.Timestamp,
		})
	}

	reply, err := s.engine.ProcessTurn(r.Context(), engine.TurnRequest{
		SessionID:       req.SessionID,
		Text:            req.Message.Text,
		TimestampMillis: req.Message.Timestamp,
		History:         history,
	})
	if err != nil {
		s.writeError(w, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "success",
		"reply":  reply,
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"service":   "trapline",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) info(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"service":     "trapline",
		"description": "agentic honeypot for scam detection and intelligence extraction",
		"endpoints": map[string]string{
			"analyze": "POST /api/v1/analyze",
			"health":  "GET /health",
		},
	})
}

// recoverer converts panics into the error schema so an internal fault never
// poisons the process or leaks a bare transport-level 500.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic in handler", "path", r.URL.Path, "panic", rec)
				s.writeError(w, fmt.Sprintf("internal error: %v", rec))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// writeError emits the error schema. The calling transport expects HTTP 200
// with the error status carried in the body.
func (s *Server) writeError(w http.ResponseWriter, message string) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "error",
		"message": message,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}
