// Package api exposes the conversation orchestrator and agenda conflict
// operations over HTTP. The handlers are thin: decode, delegate, encode.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/adb1146/itc-conference-app-sub002/internal/common/logger"
	"github.com/adb1146/itc-conference-app-sub002/internal/models"
	"github.com/adb1146/itc-conference-app-sub002/internal/orchestrator"
	"github.com/adb1146/itc-conference-app-sub002/internal/schedule/conflicts"
	"github.com/adb1146/itc-conference-app-sub002/internal/storage"
)

type Server struct {
	orch     *orchestrator.Orchestrator
	detector *conflicts.Detector
	store    *storage.AgendaStore
	logger   logger.Logger
}

func NewServer(orch *orchestrator.Orchestrator, detector *conflicts.Detector, store *storage.AgendaStore, log logger.Logger) *Server {
	return &Server{
		orch:     orch,
		detector: detector,
		store:    store,
		logger: log.With(map[string]interface{}{
			"component": "api",
		}),
	}
}

// Routes builds the HTTP mux.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/conversation", s.handleConversation)
	mux.HandleFunc("DELETE /api/conversation/{sessionId}", s.handleClearSession)
	mux.HandleFunc("GET /api/agenda/{userId}", s.handleGetAgenda)
	mux.HandleFunc("GET /api/agenda/{userId}/conflicts", s.handleGetConflicts)
	mux.HandleFunc("POST /api/agenda/{userId}/conflicts/resolve", s.handleResolveConflicts)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	var req orchestrator.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SessionID == "" || req.Message == "" {
		s.writeError(w, http.StatusBadRequest, "sessionId and message are required")
		return
	}

	resp, err := s.orch.Invoke(r.Context(), req)
	if err != nil {
		s.logger.Error("conversation turn failed", map[string]interface{}{
			"sessionId": req.SessionID,
			"error":     err.Error(),
		})
		s.writeError(w, http.StatusInternalServerError, "conversation unavailable, please retry")
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClearSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionId")
	if err := s.orch.ClearSession(r.Context(), sessionID); err != nil {
		s.writeError(w, http.StatusInternalServerError, "session clear failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetAgenda(w http.ResponseWriter, r *http.Request) {
	saved, err := s.store.GetActiveAgenda(r.Context(), r.PathValue("userId"))
	if errors.Is(err, storage.ErrNoActiveAgenda) {
		s.writeError(w, http.StatusNotFound, "no active agenda")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "agenda lookup failed")
		return
	}
	s.writeJSON(w, http.StatusOK, saved.Agenda)
}

func (s *Server) handleGetConflicts(w http.ResponseWriter, r *http.Request) {
	saved, err := s.store.GetActiveAgenda(r.Context(), r.PathValue("userId"))
	if errors.Is(err, storage.ErrNoActiveAgenda) {
		s.writeError(w, http.StatusNotFound, "no active agenda")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "agenda lookup failed")
		return
	}

	found := s.detector.DetectAgenda(saved.Agenda)
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"conflicts": found,
		"groups":    conflicts.GroupConflicts(found),
	})
}

type resolveRequest struct {
	Keep []string `json:"keep"`
}

type resolveResponse struct {
	Removed            int                 `json:"removed"`
	RemainingConflicts []models.Conflict   `json:"remainingConflicts"`
	Agenda             *models.SmartAgenda `json:"agenda"`
}

// handleResolveConflicts applies one batch of keep choices, removes the losing
// sides, re-runs detection, and persists the new agenda version. Resolution is
// pairwise, so the response may still carry conflicts; callers repeat until
// clean.
func (s *Server) handleResolveConflicts(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")

	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	saved, err := s.store.GetActiveAgenda(r.Context(), userID)
	if errors.Is(err, storage.ErrNoActiveAgenda) {
		s.writeError(w, http.StatusNotFound, "no active agenda")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "agenda lookup failed")
		return
	}

	found := s.detector.DetectAgenda(saved.Agenda)
	resolutions := conflicts.Resolve(found, req.Keep)
	removed := conflicts.ApplyResolutions(saved.Agenda, resolutions)
	saved.Agenda.Conflicts = s.detector.DetectAgenda(saved.Agenda)

	if _, err := s.store.UpdatePersonalizedAgenda(r.Context(), userID, saved.Agenda); err != nil {
		s.logger.Error("resolved agenda persist failed", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
		s.writeError(w, http.StatusInternalServerError, "agenda update failed")
		return
	}

	s.writeJSON(w, http.StatusOK, resolveResponse{
		Removed:            removed,
		RemainingConflicts: saved.Agenda.Conflicts,
		Agenda:             saved.Agenda,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("response encode failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
