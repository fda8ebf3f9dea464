package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/abreulima/lembra/internal/config"
	"github.com/abreulima/lembra/internal/memory"
	"github.com/abreulima/lembra/internal/observability"
)

// Server exposes session message history over REST. It holds no
// per-session state: a History handle is built per request and all
// state lives in the store.
type Server struct {
	cfg     config.Config
	store   memory.Store
	metrics *observability.Metrics
}

func New(cfg config.Config, store memory.Store, metrics *observability.Metrics) *Server {
	return &Server{cfg: cfg, store: store, metrics: metrics}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/v1/sessions", s.handleCreateSession)
	r.Post("/v1/sessions/{id}/messages", s.handleAppendMessage)
	r.Get("/v1/sessions/{id}/context", s.handleGetContext)
	r.Get("/v1/sessions/{id}", s.handleSessionInfo)
	r.Delete("/v1/sessions/{id}", s.handleClearSession)
	r.Post("/v1/sessions/{id}/retention", s.handleEnforceRetention)

	return r
}

func (s *Server) history(sessionID string) *memory.History {
	return memory.NewHistory(s.store, memory.HistoryConfig{
		SessionID:        sessionID,
		MaxMessages:      s.cfg.MaxMessages,
		ConfusionPhrases: s.cfg.ConfusionPhrases,
		Metrics:          s.metrics,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"store":  s.store.TableName(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

type createSessionRequest struct {
	SessionID string `json:"session_id"`
}

// handleCreateSession mints a session id. Sessions otherwise come into
// existence implicitly on first append; this is a convenience for
// callers that want the service to pick the id.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	id := strings.TrimSpace(req.SessionID)
	if id == "" {
		id = uuid.NewString()
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"session_id":   id,
		"max_messages": s.cfg.MaxMessages,
		"table_name":   s.store.TableName(),
	})
}

type appendMessageRequest struct {
	Role     string         `json:"role"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
}

func (s *Server) handleAppendMessage(w http.ResponseWriter, r *http.Request) {
	id := sessionIDParam(r)
	if id == "" {
		respondError(w, http.StatusBadRequest, "invalid_session_id", "missing session id")
		return
	}

	var req appendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		respondError(w, http.StatusBadRequest, "missing_content", "content is required")
		return
	}

	var role memory.Role
	switch strings.ToLower(strings.TrimSpace(req.Role)) {
	case "", string(memory.RoleHuman):
		role = memory.RoleHuman
	case string(memory.RoleAI):
		role = memory.RoleAI
	default:
		respondError(w, http.StatusBadRequest, "invalid_role", "role must be \"human\" or \"ai\"")
		return
	}

	err := s.history(id).AddMessage(r.Context(), memory.Message{
		Role:     role,
		Content:  req.Content,
		Metadata: req.Metadata,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"status":     "stored",
		"session_id": id,
	})
}

type contextResponse struct {
	SessionID string           `json:"session_id"`
	Count     int              `json:"count"`
	Messages  []memory.Message `json:"messages"`
}

func (s *Server) handleGetContext(w http.ResponseWriter, r *http.Request) {
	id := sessionIDParam(r)
	if id == "" {
		respondError(w, http.StatusBadRequest, "invalid_session_id", "missing session id")
		return
	}

	msgs := s.history(id).Context(r.Context())
	if msgs == nil {
		msgs = []memory.Message{}
	}
	respondJSON(w, http.StatusOK, contextResponse{
		SessionID: id,
		Count:     len(msgs),
		Messages:  msgs,
	})
}

func (s *Server) handleSessionInfo(w http.ResponseWriter, r *http.Request) {
	id := sessionIDParam(r)
	if id == "" {
		respondError(w, http.StatusBadRequest, "invalid_session_id", "missing session id")
		return
	}
	respondJSON(w, http.StatusOK, s.history(id).SessionInfo(r.Context()))
}

func (s *Server) handleClearSession(w http.ResponseWriter, r *http.Request) {
	id := sessionIDParam(r)
	if id == "" {
		respondError(w, http.StatusBadRequest, "invalid_session_id", "missing session id")
		return
	}

	if err := s.history(id).Clear(r.Context()); err != nil {
		respondError(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	s.metrics.SessionsCleared.Inc()

	respondJSON(w, http.StatusOK, map[string]any{
		"status":     "cleared",
		"session_id": id,
	})
}

// handleEnforceRetention runs one retention pass. There is no
// automatic trigger on append; external schedulers hit this endpoint.
func (s *Server) handleEnforceRetention(w http.ResponseWriter, r *http.Request) {
	id := sessionIDParam(r)
	if id == "" {
		respondError(w, http.StatusBadRequest, "invalid_session_id", "missing session id")
		return
	}

	h := s.history(id)
	deleted := h.EnforceLimit(r.Context())

	respondJSON(w, http.StatusOK, map[string]any{
		"session_id":    id,
		"deleted":       deleted,
		"message_count": h.MessageCount(r.Context()),
		"max_messages":  h.MaxMessages(),
	})
}

func sessionIDParam(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "id"))
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
