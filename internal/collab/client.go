// internal/collab/client.go
package collab

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"strings"
	"sync"

	"golang.org/x/net/websocket"

	"github.com/unclebandit/dripflow-backend/internal/model"
)

// Handlers are the client-side callbacks for server frames. Nil handlers
// drop the frame. All callbacks run on the channel's single read goroutine,
// so handlers observe frames from one sender in send order.
type Handlers struct {
	CampaignUpdate func(campaign model.Campaign, userID string)
	Collaborators  func(collaborators []string)
	UserJoined     func(userID string)
	// Disconnect fires once when the read loop exits. After it fires the
	// channel is dead: no reconnection or catch-up of missed updates.
	Disconnect func(err error)
}

// Channel is the client half of the update channel: one websocket
// connection multiplexing join/leave/change frames.
type Channel struct {
	mu       sync.Mutex
	conn     *websocket.Conn
	encoder  *json.Encoder
	closed   bool
	handlers Handlers
}

// Dial connects to a collaboration server. serverURL is the http(s) base
// URL; the websocket endpoint is derived from it.
func Dial(serverURL string, handlers Handlers) (*Channel, error) {
	wsURL := "ws" + strings.TrimPrefix(strings.TrimSuffix(serverURL, "/"), "http") + "/ws"
	conn, err := websocket.Dial(wsURL, "", serverURL)
	if err != nil {
		return nil, err
	}
	return newChannel(conn, handlers), nil
}

func newChannel(conn *websocket.Conn, handlers Handlers) *Channel {
	c := &Channel{
		conn:     conn,
		encoder:  json.NewEncoder(conn),
		handlers: handlers,
	}
	go c.readLoop()
	return c
}

func (c *Channel) readLoop() {
	decoder := json.NewDecoder(c.conn)
	for {
		var frame Frame
		if err := decoder.Decode(&frame); err != nil {
			if errors.Is(err, io.EOF) || c.isClosed() {
				err = nil
			}
			if c.handlers.Disconnect != nil {
				c.handlers.Disconnect(err)
			}
			return
		}
		c.dispatch(frame)
	}
}

func (c *Channel) dispatch(frame Frame) {
	switch frame.Type {
	case FrameCampaignUpdate:
		var payload updatePayload
		if err := json.Unmarshal(frame.Payload, &payload); err != nil {
			log.Println("⚠️ invalid campaign_update payload:", err)
			return
		}
		if c.handlers.CampaignUpdate != nil {
			c.handlers.CampaignUpdate(payload.Campaign, payload.UserID)
		}
	case FrameCollaboratorsUpdate:
		var payload collaboratorsPayload
		if err := json.Unmarshal(frame.Payload, &payload); err != nil {
			log.Println("⚠️ invalid collaborators_update payload:", err)
			return
		}
		if c.handlers.Collaborators != nil {
			c.handlers.Collaborators(payload.Collaborators)
		}
	case FrameUserJoined:
		var payload userJoinedPayload
		if err := json.Unmarshal(frame.Payload, &payload); err != nil {
			log.Println("⚠️ invalid user_joined payload:", err)
			return
		}
		if c.handlers.UserJoined != nil {
			c.handlers.UserJoined(payload.UserID)
		}
	default:
		log.Println("⚠️ unsupported server frame type:", frame.Type)
	}
}

// JoinCampaign subscribes this connection to the campaign's room.
func (c *Channel) JoinCampaign(campaignID, userID string) error {
	return c.writeFrame(Frame{
		Type:    FrameJoinCampaign,
		Payload: mustJSON(joinPayload{CampaignID: campaignID, UserID: userID}),
	})
}

// LeaveCampaign unsubscribes from the room. Updates already in flight may
// still be delivered before the server processes the leave.
func (c *Channel) LeaveCampaign(campaignID, userID string) error {
	return c.writeFrame(Frame{
		Type:    FrameLeaveCampaign,
		Payload: mustJSON(leavePayload{CampaignID: campaignID, UserID: userID}),
	})
}

// SendChange publishes a whole-campaign snapshot to the room, tagged with
// the acting user's id.
func (c *Channel) SendChange(campaignID string, campaign model.Campaign, userID string) error {
	return c.writeFrame(Frame{
		Type: FrameCampaignChange,
		Payload: mustJSON(changePayload{
			CampaignID: campaignID,
			Campaign:   campaign,
			UserID:     userID,
		}),
	})
}

func (c *Channel) writeFrame(frame Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("channel closed")
	}
	return c.encoder.Encode(frame)
}

func (c *Channel) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Close tears the connection down. It does not send leave frames; the
// server's disconnect hook prunes room membership.
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()
	return c.conn.Close()
}
