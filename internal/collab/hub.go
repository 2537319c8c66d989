// internal/collab/hub.go
package collab

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"

	"github.com/unclebandit/dripflow-backend/internal/model"
	"github.com/unclebandit/dripflow-backend/internal/presence"
	"github.com/unclebandit/dripflow-backend/internal/queue"
)

// BusTopic is the fan-out topic room broadcasts are mirrored on when the
// hub runs with a multi-instance bus.
const BusTopic = "campaign_updates"

// peer is one websocket connection. Writes go through a mutex-guarded
// encoder because room broadcasts come from other connections' goroutines.
type peer struct {
	mu      sync.Mutex
	encoder *json.Encoder

	// joined maps campaign id to the userId this connection joined with,
	// so disconnect teardown can leave every room.
	joined map[string]string
}

func newPeer(encoder *json.Encoder) *peer {
	return &peer{
		encoder: encoder,
		joined:  make(map[string]string),
	}
}

func (p *peer) writeFrame(frame Frame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.encoder.Encode(frame)
}

// Hub owns the server-side rooms: campaign id -> subscribed connections,
// backed by the presence registry for the member-id bookkeeping.
type Hub struct {
	Presence *presence.Registry

	mu         sync.Mutex
	rooms      map[string]map[*peer]struct{}
	instanceID string
	bus        queue.Bus
}

func NewHub(registry *presence.Registry) *Hub {
	return &Hub{
		Presence:   registry,
		rooms:      make(map[string]map[*peer]struct{}),
		instanceID: uuid.NewString(),
	}
}

// busUpdate mirrors a room broadcast across server instances. Origin is the
// publishing instance id so a hub can discard its own copy.
type busUpdate struct {
	Origin     string         `json:"origin"`
	CampaignID string         `json:"campaignId"`
	Campaign   model.Campaign `json:"campaign"`
	UserID     string         `json:"userId"`
}

// AttachBus mirrors every campaign_change onto the bus and applies updates
// published by other instances to this hub's local rooms.
func (h *Hub) AttachBus(bus queue.Bus) error {
	h.mu.Lock()
	h.bus = bus
	h.mu.Unlock()

	return bus.Subscribe(BusTopic, func(payload []byte) {
		var update busUpdate
		if err := json.Unmarshal(payload, &update); err != nil {
			log.Println("⚠️ invalid bus update:", err)
			return
		}
		if update.Origin == h.instanceID {
			return
		}
		h.broadcast(update.CampaignID, Frame{
			Type: FrameCampaignUpdate,
			Payload: mustJSON(updatePayload{
				Campaign: update.Campaign,
				UserID:   update.UserID,
			}),
		}, nil)
	})
}

// Handler returns the websocket endpoint.
func (h *Hub) Handler() http.Handler {
	return websocket.Handler(h.handleConn)
}

func (h *Hub) handleConn(conn *websocket.Conn) {
	defer conn.Close()

	p := newPeer(json.NewEncoder(conn))
	// Required teardown: a dropped connection must leave every room it
	// joined or the presence entry leaks until restart.
	defer h.dropPeer(p)

	decoder := json.NewDecoder(conn)
	for {
		var frame Frame
		if err := decoder.Decode(&frame); err != nil {
			return
		}

		switch frame.Type {
		case FrameJoinCampaign:
			var payload joinPayload
			if err := json.Unmarshal(frame.Payload, &payload); err != nil {
				log.Println("⚠️ invalid join payload:", err)
				continue
			}
			if payload.CampaignID == "" || payload.UserID == "" {
				continue
			}
			h.join(p, payload.CampaignID, payload.UserID)
		case FrameLeaveCampaign:
			var payload leavePayload
			if err := json.Unmarshal(frame.Payload, &payload); err != nil {
				log.Println("⚠️ invalid leave payload:", err)
				continue
			}
			h.leave(p, payload.CampaignID, payload.UserID)
		case FrameCampaignChange:
			var payload changePayload
			if err := json.Unmarshal(frame.Payload, &payload); err != nil {
				log.Println("⚠️ invalid change payload:", err)
				continue
			}
			h.publishUpdate(p, payload)
		default:
			log.Println("⚠️ unsupported frame type:", frame.Type)
		}
	}
}

func (h *Hub) join(p *peer, campaignID, userID string) {
	h.mu.Lock()
	room, ok := h.rooms[campaignID]
	if !ok {
		room = make(map[*peer]struct{})
		h.rooms[campaignID] = room
	}
	room[p] = struct{}{}
	p.mu.Lock()
	p.joined[campaignID] = userID
	p.mu.Unlock()
	h.mu.Unlock()

	h.Presence.Join(campaignID, userID)

	// Notify others in the room, then send everyone (joiner included)
	// the current collaborator list.
	h.broadcast(campaignID, Frame{
		Type:    FrameUserJoined,
		Payload: mustJSON(userJoinedPayload{UserID: userID}),
	}, p)
	h.broadcastCollaborators(campaignID)
}

func (h *Hub) leave(p *peer, campaignID, userID string) {
	h.mu.Lock()
	if room, ok := h.rooms[campaignID]; ok {
		delete(room, p)
		if len(room) == 0 {
			delete(h.rooms, campaignID)
		}
	}
	p.mu.Lock()
	delete(p.joined, campaignID)
	p.mu.Unlock()
	h.mu.Unlock()

	h.Presence.Leave(campaignID, userID)

	if h.Presence.Active(campaignID) {
		h.broadcastCollaborators(campaignID)
	}
}

// publishUpdate re-broadcasts a change to the room excluding the sending
// connection. Sender exclusion happens here, not on the client: a client
// that relied on its own origin check alone could still apply a stale echo
// arriving after a newer remote snapshot.
func (h *Hub) publishUpdate(sender *peer, payload changePayload) {
	h.broadcast(payload.CampaignID, Frame{
		Type: FrameCampaignUpdate,
		Payload: mustJSON(updatePayload{
			Campaign: payload.Campaign,
			UserID:   payload.UserID,
		}),
	}, sender)

	h.mu.Lock()
	bus := h.bus
	h.mu.Unlock()
	if bus == nil {
		return
	}
	body, err := json.Marshal(busUpdate{
		Origin:     h.instanceID,
		CampaignID: payload.CampaignID,
		Campaign:   payload.Campaign,
		UserID:     payload.UserID,
	})
	if err != nil {
		log.Println("⚠️ failed to encode bus update:", err)
		return
	}
	if err := bus.Publish(BusTopic, body); err != nil {
		log.Println("⚠️ failed to publish update to bus:", err)
	}
}

func (h *Hub) broadcastCollaborators(campaignID string) {
	h.broadcast(campaignID, Frame{
		Type: FrameCollaboratorsUpdate,
		Payload: mustJSON(collaboratorsPayload{
			Collaborators: h.Presence.Members(campaignID),
		}),
	}, nil)
}

func (h *Hub) broadcast(campaignID string, frame Frame, except *peer) {
	h.mu.Lock()
	subscribers := make([]*peer, 0, len(h.rooms[campaignID]))
	for p := range h.rooms[campaignID] {
		if p == except {
			continue
		}
		subscribers = append(subscribers, p)
	}
	h.mu.Unlock()

	for _, p := range subscribers {
		if err := p.writeFrame(frame); err != nil {
			log.Println("⚠️ failed to write frame to peer:", err)
		}
	}
}

func (h *Hub) dropPeer(p *peer) {
	p.mu.Lock()
	joined := make(map[string]string, len(p.joined))
	for campaignID, userID := range p.joined {
		joined[campaignID] = userID
	}
	p.mu.Unlock()

	for campaignID, userID := range joined {
		h.leave(p, campaignID, userID)
	}
}
