// internal/service/campaign_service.go
package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/unclebandit/dripflow-backend/internal/errors"
	"github.com/unclebandit/dripflow-backend/internal/model"
	"github.com/unclebandit/dripflow-backend/internal/repository"
)

// CampaignService enforces ownership on the persistence collaborator: every
// operation requires the authenticated caller to match the campaign's
// createdBy. Saves overwrite with no version check; persistence conflicts
// resolve last-write-wins just like the live channel.
type CampaignService struct {
	CampaignRepo repository.CampaignRepositoryInterface
}

func (s *CampaignService) CreateCampaign(ownerID, name, description string, nodes []model.Node, edges []model.Edge) (*model.Campaign, error) {
	if name == "" {
		return nil, fmt.Errorf("campaign name is required")
	}
	if nodes == nil {
		nodes = []model.Node{}
	}
	if edges == nil {
		edges = []model.Edge{}
	}

	c := &model.Campaign{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Nodes:       nodes,
		Edges:       edges,
		CreatedBy:   ownerID,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.CampaignRepo.Create(c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CampaignService) ListCampaigns(ownerID string) ([]*model.Campaign, error) {
	return s.CampaignRepo.ListByOwner(ownerID)
}

func (s *CampaignService) GetCampaign(id, callerID string) (*model.Campaign, error) {
	campaign, err := s.CampaignRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if campaign.CreatedBy != callerID {
		return nil, appErrors.NewNotAuthorized(callerID, id)
	}
	return campaign, nil
}

func (s *CampaignService) UpdateCampaign(id, callerID, name, description string, nodes []model.Node, edges []model.Edge) (*model.Campaign, error) {
	campaign, err := s.GetCampaign(id, callerID)
	if err != nil {
		return nil, err
	}

	campaign.Name = name
	campaign.Description = description
	if nodes != nil {
		campaign.Nodes = nodes
	}
	if edges != nil {
		campaign.Edges = edges
	}

	if err := s.CampaignRepo.Update(campaign); err != nil {
		return nil, err
	}
	return campaign, nil
}

func (s *CampaignService) DeleteCampaign(id, callerID string) error {
	if _, err := s.GetCampaign(id, callerID); err != nil {
		return err
	}
	return s.CampaignRepo.Delete(id)
}
