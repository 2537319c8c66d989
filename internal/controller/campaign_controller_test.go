package controller_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/unclebandit/dripflow-backend/internal/auth"
	"github.com/unclebandit/dripflow-backend/internal/controller"
	appErrors "github.com/unclebandit/dripflow-backend/internal/errors"
	"github.com/unclebandit/dripflow-backend/internal/model"
	"github.com/unclebandit/dripflow-backend/internal/service"
)

// --- Mock repository ---

type MockCampaignRepo struct {
	campaigns map[string]*model.Campaign
}

func (m *MockCampaignRepo) ListByOwner(ownerID string) ([]*model.Campaign, error) {
	out := []*model.Campaign{}
	for _, c := range m.campaigns {
		if c.CreatedBy == ownerID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *MockCampaignRepo) GetByID(id string) (*model.Campaign, error) {
	c, ok := m.campaigns[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	return c, nil
}

func (m *MockCampaignRepo) Create(c *model.Campaign) error {
	m.campaigns[c.ID] = c
	return nil
}

func (m *MockCampaignRepo) Update(c *model.Campaign) error {
	m.campaigns[c.ID] = c
	return nil
}

func (m *MockCampaignRepo) Delete(id string) error {
	delete(m.campaigns, id)
	return nil
}

// --- Test harness ---

var testIssuer = &auth.TokenIssuer{Secret: []byte("test-secret")}

func newTestRouter(repo *MockCampaignRepo) http.Handler {
	svc := &service.CampaignService{CampaignRepo: repo}
	ctrl := &controller.CampaignController{CampaignService: svc}

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(testIssuer))
		r.Get("/api/campaigns", ctrl.ListCampaigns)
		r.Post("/api/campaigns", ctrl.CreateCampaign)
		r.Get("/api/campaigns/{id}", ctrl.GetCampaign)
		r.Put("/api/campaigns/{id}", ctrl.UpdateCampaign)
		r.Delete("/api/campaigns/{id}", ctrl.DeleteCampaign)
	})
	return r
}

func authedRequest(t *testing.T, method, target, userID string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	token, err := testIssuer.Issue(userID)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

// --- Tests ---

func TestCreateCampaign(t *testing.T) {
	repo := &MockCampaignRepo{campaigns: map[string]*model.Campaign{}}
	router := newTestRouter(repo)

	body := map[string]any{
		"name":        "Welcome Drip",
		"description": "onboarding",
		"nodes": []map[string]any{{
			"id": "n1", "type": "email",
			"position": map[string]float64{"x": 0, "y": 0},
			"data":     map[string]string{"name": "Welcome", "subject": "Hi", "template": "welcome"},
		}},
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(t, "POST", "/api/campaigns", "u1", body))

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var created model.Campaign
	if err := json.NewDecoder(w.Body).Decode(&created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.CreatedBy != "u1" {
		t.Errorf("expected owner u1, got %q", created.CreatedBy)
	}
	if len(created.Nodes) != 1 || created.Nodes[0].Type != model.NodeEmail {
		t.Errorf("unexpected nodes %+v", created.Nodes)
	}
}

func TestGetCampaignStatusCodes(t *testing.T) {
	repo := &MockCampaignRepo{campaigns: map[string]*model.Campaign{
		"c1": {ID: "c1", Name: "Drip", CreatedBy: "u1", Nodes: []model.Node{}, Edges: []model.Edge{}},
	}}
	router := newTestRouter(repo)

	// Owner.
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(t, "GET", "/api/campaigns/c1", "u1", nil))
	if w.Code != http.StatusOK {
		t.Errorf("owner expected 200, got %d", w.Code)
	}

	// Someone else's campaign.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(t, "GET", "/api/campaigns/c1", "u2", nil))
	if w.Code != http.StatusForbidden {
		t.Errorf("non-owner expected 403, got %d", w.Code)
	}

	// Missing campaign.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(t, "GET", "/api/campaigns/nope", "u1", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("missing expected 404, got %d", w.Code)
	}

	// No token.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/campaigns/c1", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated expected 401, got %d", w.Code)
	}
}

func TestListCampaignsScopedToOwner(t *testing.T) {
	repo := &MockCampaignRepo{campaigns: map[string]*model.Campaign{
		"c1": {ID: "c1", CreatedBy: "u1", Name: "Mine"},
		"c2": {ID: "c2", CreatedBy: "u2", Name: "Theirs"},
	}}
	router := newTestRouter(repo)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(t, "GET", "/api/campaigns", "u1", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var campaigns []model.Campaign
	if err := json.NewDecoder(w.Body).Decode(&campaigns); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(campaigns) != 1 || campaigns[0].ID != "c1" {
		t.Errorf("expected only u1's campaign, got %+v", campaigns)
	}
}

func TestUpdateCampaignPersistsGraph(t *testing.T) {
	repo := &MockCampaignRepo{campaigns: map[string]*model.Campaign{
		"c1": {ID: "c1", Name: "Drip", CreatedBy: "u1"},
	}}
	router := newTestRouter(repo)

	body := map[string]any{
		"name":        "Drip v2",
		"description": "",
		"nodes": []map[string]any{{
			"id": "n1", "type": "wait",
			"position": map[string]float64{"x": 1, "y": 2},
			"data":     map[string]string{"name": "W", "duration": "2d"},
		}},
		"edges": []any{},
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(t, "PUT", "/api/campaigns/c1", "u1", body))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	stored := repo.campaigns["c1"]
	if stored.Name != "Drip v2" || len(stored.Nodes) != 1 {
		t.Errorf("update not persisted: %+v", stored)
	}
	if stored.Nodes[0].Data.(*model.WaitData).Duration != "2d" {
		t.Error("node data lost through the update")
	}
}

func TestDeleteCampaign(t *testing.T) {
	repo := &MockCampaignRepo{campaigns: map[string]*model.Campaign{
		"c1": {ID: "c1", Name: "Drip", CreatedBy: "u1"},
	}}
	router := newTestRouter(repo)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(t, "DELETE", "/api/campaigns/c1", "u1", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if _, ok := repo.campaigns["c1"]; ok {
		t.Error("campaign must be gone after delete")
	}
}
