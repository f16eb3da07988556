package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/techflow-ai/voiceagent/internal/agents"
)

type createAgentRequest struct {
	Name               string `json:"name"`
	Description        string `json:"description"`
	SystemInstructions string `json:"system_instructions"`
}

type chatRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	all, err := s.agents.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, all)
}

func (s *Server) handleCreateAgent(w http.ResponseWriter, r *http.Request) {
	var req createAgentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "name is required")
		return
	}
	a, err := s.agents.Create(r.Context(), req.Name, req.Description, req.SystemInstructions)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, a)
}

func (s *Server) handleGetAgent(w http.ResponseWriter, r *http.Request) {
	a, err := s.agents.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondAgentError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, a)
}

func (s *Server) handleUpdateAgent(w http.ResponseWriter, r *http.Request) {
	var u agents.Update
	if err := decodeJSON(r, &u); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	a, err := s.agents.Update(r.Context(), chi.URLParam(r, "id"), u)
	if err != nil {
		s.respondAgentError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, a)
}

func (s *Server) handleDeleteAgent(w http.ResponseWriter, r *http.Request) {
	if err := s.agents.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondAgentError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Agent deleted successfully"})
}

func (s *Server) handleCreateChatSession(w http.ResponseWriter, r *http.Request) {
	tr, err := s.chat.CreateSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondAgentError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, tr)
}

func (s *Server) handleGetChatSession(w http.ResponseWriter, r *http.Request) {
	tr, err := s.chat.Session(chi.URLParam(r, "session_id"))
	if err != nil || tr.AgentID != chi.URLParam(r, "id") {
		respondError(w, http.StatusNotFound, "session_not_found", "session not found")
		return
	}
	respondJSON(w, http.StatusOK, tr)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "message is required")
		return
	}
	reply, err := s.chat.Respond(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "session_id"), req.Message)
	if err != nil {
		if errors.Is(err, agents.ErrNotFound) {
			respondError(w, http.StatusNotFound, "agent_not_found", "agent not found")
			return
		}
		respondError(w, http.StatusBadGateway, "chat_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"response": reply})
}

func (s *Server) handleRealtimeConfig(w http.ResponseWriter, r *http.Request) {
	a, err := s.agents.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondAgentError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"model":        s.cfg.RealtimeModel,
		"voice":        s.cfg.RealtimeVoice,
		"instructions": a.SystemInstructions,
	})
}

func (s *Server) respondAgentError(w http.ResponseWriter, err error) {
	if errors.Is(err, agents.ErrNotFound) {
		respondError(w, http.StatusNotFound, "agent_not_found", "agent not found")
		return
	}
	respondError(w, http.StatusInternalServerError, "store_error", err.Error())
}
