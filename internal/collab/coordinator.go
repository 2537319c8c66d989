// internal/collab/coordinator.go
package collab

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/unclebandit/dripflow-backend/internal/graph"
	"github.com/unclebandit/dripflow-backend/internal/model"
)

// DefaultDebounce is the quiescence window for coalescing drag updates.
const DefaultDebounce = 300 * time.Millisecond

// Publisher sends a whole-campaign snapshot to the room.
type Publisher interface {
	SendChange(campaignID string, campaign model.Campaign, userID string) error
}

// Saver persists a campaign. Saves are decoupled from broadcasts: peers
// only ever see the ephemeral version until someone explicitly saves.
type Saver interface {
	Save(campaign model.Campaign) error
}

// Coordinator reconciles local mutations, outgoing broadcasts, and incoming
// remote updates against one campaign's graph.
//
// Every local mutation is applied optimistically, then the entire document
// (never a diff) is published. Position changes coalesce: the graph moves
// immediately, but the publish fires once after Debounce of quiet. Remote
// updates replace the whole local graph; last writer wins, concurrent edits
// inside one debounce/network window are silently lost by contract.
type Coordinator struct {
	Graph      *graph.Graph
	Publisher  Publisher
	CampaignID string
	UserID     string
	// Debounce overrides the drag quiescence window; zero means
	// DefaultDebounce.
	Debounce time.Duration

	mu               sync.Mutex
	selectedID       string
	timer            *time.Timer
	positionsPending bool
}

func (c *Coordinator) window() time.Duration {
	if c.Debounce > 0 {
		return c.Debounce
	}
	return DefaultDebounce
}

// AddNode adds a node locally and publishes immediately.
func (c *Coordinator) AddNode(t model.NodeType, pos model.Position) (model.Node, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, err := c.Graph.AddNode(t, pos)
	if err != nil {
		return model.Node{}, err
	}
	added := node.Clone()
	return added, c.publishLocked()
}

// UpdateNodeData shallow-merges a data patch into a node and publishes
// immediately. A patch for a node a peer already deleted is a no-op.
func (c *Coordinator) UpdateNodeData(nodeID string, patch json.RawMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.Graph.UpdateNodeData(nodeID, patch); err != nil {
		return err
	}
	return c.publishLocked()
}

// Connect adds an edge and publishes immediately.
func (c *Coordinator) Connect(source, target, handle string) (model.Edge, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	edge := c.Graph.Connect(source, target, handle)
	return edge, c.publishLocked()
}

// SetEdges replaces the edge list and publishes immediately.
func (c *Coordinator) SetEdges(edges []model.Edge) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Graph.SetEdges(edges)
	return c.publishLocked()
}

// MoveNodes applies a drag's position updates to the local graph right away
// but defers the publish until the drag has been quiet for the debounce
// window, so a continuous drag produces one broadcast instead of hundreds.
func (c *Coordinator) MoveNodes(positions map[string]model.Position) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Graph.Reposition(positions)
	c.positionsPending = true
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.window(), c.flushPositions)
}

func (c *Coordinator) flushPositions() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.positionsPending {
		return
	}
	_ = c.publishLocked()
}

// publishLocked sends the current snapshot. Any pending position flush is
// folded in: the snapshot already carries the latest positions.
func (c *Coordinator) publishLocked() error {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.positionsPending = false
	if c.Publisher == nil {
		return nil
	}
	return c.Publisher.SendChange(c.CampaignID, c.Graph.Snapshot(), c.UserID)
}

// ApplyRemote applies a received campaign_update. Updates tagged with the
// local user's id are discarded: the server already excludes the sender,
// this guards any path where a self-published message loops back.
func (c *Coordinator) ApplyRemote(campaign model.Campaign, originUserID string) {
	if originUserID == c.UserID {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.Graph.ReplaceAll(campaign)

	// Re-resolve the open selection against the new snapshot so the
	// property editor never points at a stale object.
	if c.selectedID != "" {
		if _, ok := c.Graph.Node(c.selectedID); !ok {
			c.selectedID = ""
		}
	}
}

// Select marks a node as open in the property editor.
func (c *Coordinator) Select(nodeID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selectedID = nodeID
}

// Selected returns a copy of the currently selected node, if it still
// exists in the graph.
func (c *Coordinator) Selected() (model.Node, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.selectedID == "" {
		return model.Node{}, false
	}
	node, ok := c.Graph.Node(c.selectedID)
	if !ok {
		return model.Node{}, false
	}
	return node.Clone(), true
}

// Save sends the current in-memory campaign to the persistence collaborator
// and clears the dirty flag only on success. Saving does not broadcast;
// broadcasts already happened during editing.
func (c *Coordinator) Save(saver Saver) error {
	c.mu.Lock()
	snapshot := c.Graph.Snapshot()
	c.mu.Unlock()

	if err := saver.Save(snapshot); err != nil {
		return err
	}

	c.mu.Lock()
	c.Graph.ClearDirty()
	c.mu.Unlock()
	return nil
}

// Dirty reports whether there are unsaved edits.
func (c *Coordinator) Dirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Graph.Dirty()
}

// Snapshot returns a copy of the current campaign.
func (c *Coordinator) Snapshot() model.Campaign {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Graph.Snapshot()
}

// Stop cancels any pending debounced publish without firing it.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.positionsPending = false
}
