// internal/collab/wire.go
package collab

import (
	"encoding/json"
	"log"

	"github.com/unclebandit/dripflow-backend/internal/model"
)

// Frame is the envelope for every message on the update channel.
type Frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Client -> server frame types.
const (
	FrameJoinCampaign   = "join_campaign"
	FrameLeaveCampaign  = "leave_campaign"
	FrameCampaignChange = "campaign_change"
)

// Server -> client frame types.
const (
	FrameCampaignUpdate      = "campaign_update"
	FrameCollaboratorsUpdate = "collaborators_update"
	FrameUserJoined          = "user_joined"
)

type joinPayload struct {
	CampaignID string `json:"campaignId"`
	UserID     string `json:"userId"`
}

type leavePayload struct {
	CampaignID string `json:"campaignId"`
	UserID     string `json:"userId"`
}

// changePayload is the transient update message: it exists only for the
// duration of a broadcast and is never stored.
type changePayload struct {
	CampaignID string         `json:"campaignId"`
	Campaign   model.Campaign `json:"campaign"`
	UserID     string         `json:"userId"`
}

type updatePayload struct {
	Campaign model.Campaign `json:"campaign"`
	UserID   string         `json:"userId"`
}

type collaboratorsPayload struct {
	Collaborators []string `json:"collaborators"`
}

type userJoinedPayload struct {
	UserID string `json:"userId"`
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		log.Printf("failed to marshal channel payload: %v", err)
		return nil
	}
	return b
}
