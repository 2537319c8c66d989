// internal/errors/errors.go
package appErrors

import "fmt"

// ErrCampaignNotFound is a sentinel error
type ErrCampaignNotFound struct {
	CampaignID string
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign %s not found", e.CampaignID)
}

// Helper constructor
func NewCampaignNotFound(id string) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

// ErrNotAuthorized means the caller does not own the campaign
type ErrNotAuthorized struct {
	UserID     string
	CampaignID string
}

func (e *ErrNotAuthorized) Error() string {
	return fmt.Sprintf("user %s is not authorized for campaign %s", e.UserID, e.CampaignID)
}

func NewNotAuthorized(userID, campaignID string) error {
	return &ErrNotAuthorized{UserID: userID, CampaignID: campaignID}
}
