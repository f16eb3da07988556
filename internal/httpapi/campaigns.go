package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/techflow-ai/voiceagent/internal/campaigns"
)

type createCampaignRequest struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	AgentID       string `json:"agent_id"`
	EmailSubject  string `json:"email_subject"`
	EmailTemplate string `json:"email_template"`
}

type addContactsRequest struct {
	Contacts []campaigns.NewContact `json:"contacts"`
}

type sendCampaignRequest struct {
	ContactIDs []string `json:"contact_ids"`
}

type contactStatusRequest struct {
	Status campaigns.ContactStatus `json:"status"`
}

func (s *Server) handleListCampaigns(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.campaigns.List())
}

func (s *Server) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req createCampaignRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "name is required")
		return
	}
	c := s.campaigns.Create(req.Name, req.Description, req.AgentID, req.EmailSubject, req.EmailTemplate)
	respondJSON(w, http.StatusCreated, c)
}

func (s *Server) handleGetCampaign(w http.ResponseWriter, r *http.Request) {
	c, err := s.campaigns.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondCampaignError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (s *Server) handleUpdateCampaign(w http.ResponseWriter, r *http.Request) {
	var u campaigns.Update
	if err := decodeJSON(r, &u); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	c, err := s.campaigns.Update(chi.URLParam(r, "id"), u)
	if err != nil {
		respondCampaignError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteCampaign(w http.ResponseWriter, r *http.Request) {
	if err := s.campaigns.Delete(chi.URLParam(r, "id")); err != nil {
		respondCampaignError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleAddContacts(w http.ResponseWriter, r *http.Request) {
	var req addContactsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	added, err := s.campaigns.AddContacts(chi.URLParam(r, "id"), req.Contacts)
	if err != nil {
		respondCampaignError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"added_count": len(added),
		"contacts":    added,
	})
}

func (s *Server) handleRemoveContact(w http.ResponseWriter, r *http.Request) {
	if err := s.campaigns.RemoveContact(chi.URLParam(r, "id"), chi.URLParam(r, "contact_id")); err != nil {
		respondCampaignError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleUpdateContactStatus(w http.ResponseWriter, r *http.Request) {
	var req contactStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.Status == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "status is required")
		return
	}
	err := s.campaigns.UpdateContactStatus(chi.URLParam(r, "id"), chi.URLParam(r, "contact_id"), req.Status)
	if err != nil {
		respondCampaignError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleSendCampaign(w http.ResponseWriter, r *http.Request) {
	var req sendCampaignRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	report, err := s.sender.Send(r.Context(), chi.URLParam(r, "id"), req.ContactIDs)
	if err != nil {
		if errors.Is(err, campaigns.ErrNotFound) {
			respondCampaignError(w, err)
			return
		}
		respondError(w, http.StatusBadRequest, "send_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleCampaignStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.campaigns.CampaignStats(chi.URLParam(r, "id"))
	if err != nil {
		respondCampaignError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, st)
}

func (s *Server) handleValidateToken(w http.ResponseWriter, r *http.Request) {
	info, err := s.campaigns.ValidateToken(chi.URLParam(r, "id"), chi.URLParam(r, "token"))
	if err != nil {
		respondError(w, http.StatusNotFound, "invalid_link", "Invalid link")
		return
	}
	respondJSON(w, http.StatusOK, info)
}

func respondCampaignError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, campaigns.ErrNotFound):
		respondError(w, http.StatusNotFound, "campaign_not_found", "campaign not found")
	case errors.Is(err, campaigns.ErrContactNotFound):
		respondError(w, http.StatusNotFound, "contact_not_found", "contact not found")
	default:
		respondError(w, http.StatusInternalServerError, "campaign_error", err.Error())
	}
}
