// internal/graph/graph.go
package graph

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/unclebandit/dripflow-backend/internal/model"
)

// Graph holds one campaign's nodes and edges and the structural mutation
// primitives shared by local edits and applied remote updates.
//
// Graph is not goroutine-safe. The coordinator serializes all access; the
// model itself stays a plain data structure so it can be tested without any
// transport.
type Graph struct {
	campaign model.Campaign
	dirty    bool
}

func New(campaign model.Campaign) *Graph {
	return &Graph{campaign: campaign.Clone()}
}

// AddNode appends a node of the given type with type-specific default data
// and a fresh id. Ids are uuid-based so two clients adding nodes in the same
// instant cannot collide.
func (g *Graph) AddNode(t model.NodeType, pos model.Position) (*model.Node, error) {
	data, err := model.DefaultData(t)
	if err != nil {
		return nil, err
	}
	node := model.Node{
		ID:       fmt.Sprintf("node-%s", uuid.NewString()),
		Type:     t,
		Position: pos,
		Data:     data,
	}
	g.campaign.Nodes = append(g.campaign.Nodes, node)
	g.dirty = true
	return &g.campaign.Nodes[len(g.campaign.Nodes)-1], nil
}

// UpdateNodeData merges a JSON patch into the node's data. Keys present in
// the patch overwrite, absent keys are preserved, keys outside the node
// type's schema are ignored. An unknown node id is a no-op: a remote peer
// may have deleted the node while this update was in flight.
func (g *Graph) UpdateNodeData(nodeID string, patch json.RawMessage) error {
	for i := range g.campaign.Nodes {
		if g.campaign.Nodes[i].ID != nodeID {
			continue
		}
		next := g.campaign.Nodes[i].Data.Clone()
		if len(patch) > 0 {
			if err := json.Unmarshal(patch, next); err != nil {
				return err
			}
		}
		g.campaign.Nodes[i].Data = next
		g.dirty = true
		return nil
	}
	return nil
}

// Connect appends an edge from source to target. Duplicate edges (same
// source/target/handle) are not rejected here; callers that care dedupe
// before calling.
func (g *Graph) Connect(source, target, handle string) model.Edge {
	edge := model.Edge{
		ID:           fmt.Sprintf("edge-%s", uuid.NewString()),
		Source:       source,
		Target:       target,
		SourceHandle: handle,
	}
	g.campaign.Edges = append(g.campaign.Edges, edge)
	g.dirty = true
	return edge
}

// SetEdges replaces the whole edge list.
func (g *Graph) SetEdges(edges []model.Edge) {
	next := make([]model.Edge, len(edges))
	copy(next, edges)
	g.campaign.Edges = next
	g.dirty = true
}

// Reposition bulk-updates node positions. Unknown ids are skipped; data is
// never touched.
func (g *Graph) Reposition(positions map[string]model.Position) {
	moved := false
	for i := range g.campaign.Nodes {
		if pos, ok := positions[g.campaign.Nodes[i].ID]; ok {
			g.campaign.Nodes[i].Position = pos
			moved = true
		}
	}
	if moved {
		g.dirty = true
	}
}

// ReplaceAll overwrites the graph with a full snapshot. This is what a
// received remote update applies: last writer wins, no merge. Applying the
// same snapshot twice yields identical state.
func (g *Graph) ReplaceAll(campaign model.Campaign) {
	g.campaign = campaign.Clone()
	g.dirty = true
}

// Snapshot returns a deep copy of the current campaign for publishing or
// saving.
func (g *Graph) Snapshot() model.Campaign {
	return g.campaign.Clone()
}

// Node looks up a node by id.
func (g *Graph) Node(id string) (*model.Node, bool) {
	for i := range g.campaign.Nodes {
		if g.campaign.Nodes[i].ID == id {
			return &g.campaign.Nodes[i], true
		}
	}
	return nil, false
}

// ValidEdges returns the edges whose source and target both resolve to
// existing nodes. Dangling edges can exist transiently (a peer deleted a
// node under an in-flight connect) and must be filtered before rendering.
func (g *Graph) ValidEdges() []model.Edge {
	ids := make(map[string]struct{}, len(g.campaign.Nodes))
	for _, n := range g.campaign.Nodes {
		ids[n.ID] = struct{}{}
	}
	valid := make([]model.Edge, 0, len(g.campaign.Edges))
	for _, e := range g.campaign.Edges {
		if _, ok := ids[e.Source]; !ok {
			continue
		}
		if _, ok := ids[e.Target]; !ok {
			continue
		}
		valid = append(valid, e)
	}
	return valid
}

// Dirty reports whether the graph has unsaved mutations.
func (g *Graph) Dirty() bool {
	return g.dirty
}

// ClearDirty marks the graph saved.
func (g *Graph) ClearDirty() {
	g.dirty = false
}
