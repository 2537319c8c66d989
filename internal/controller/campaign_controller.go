// internal/controller/campaign_controller.go
package controller

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/unclebandit/dripflow-backend/internal/auth"
	appErrors "github.com/unclebandit/dripflow-backend/internal/errors"
	"github.com/unclebandit/dripflow-backend/internal/model"
	"github.com/unclebandit/dripflow-backend/internal/service"
)

type CampaignController struct {
	CampaignService *service.CampaignService
}

func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var body struct {
		Name        string       `json:"name"`
		Description string       `json:"description"`
		Nodes       []model.Node `json:"nodes"`
		Edges       []model.Edge `json:"edges"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	campaign, err := c.CampaignService.CreateCampaign(userID, body.Name, body.Description, body.Nodes, body.Edges)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(campaign)
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	campaigns, err := c.CampaignService.ListCampaigns(userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(campaigns)
}

func (c *CampaignController) GetCampaign(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}
	id := chi.URLParam(r, "id")

	campaign, err := c.CampaignService.GetCampaign(id, userID)
	if err != nil {
		writeCampaignError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(campaign)
}

func (c *CampaignController) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}
	id := chi.URLParam(r, "id")

	var body struct {
		Name        string       `json:"name"`
		Description string       `json:"description"`
		Nodes       []model.Node `json:"nodes"`
		Edges       []model.Edge `json:"edges"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	campaign, err := c.CampaignService.UpdateCampaign(id, userID, body.Name, body.Description, body.Nodes, body.Edges)
	if err != nil {
		writeCampaignError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(campaign)
}

func (c *CampaignController) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}
	id := chi.URLParam(r, "id")

	if err := c.CampaignService.DeleteCampaign(id, userID); err != nil {
		writeCampaignError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "campaign removed"})
}

func writeCampaignError(w http.ResponseWriter, err error) {
	var notFound *appErrors.ErrCampaignNotFound
	var notAuthorized *appErrors.ErrNotAuthorized
	switch {
	case errors.As(err, &notFound):
		http.Error(w, "campaign not found", http.StatusNotFound)
	case errors.As(err, &notAuthorized):
		http.Error(w, "not authorized", http.StatusForbidden)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
