// internal/model/campaign.go
package model

import "time"

// Campaign is the aggregate root: one drip workflow owned by its creator.
// Nodes and edges are stored as jsonb documents, not relational rows, because
// the whole graph is always read and written together.
type Campaign struct {
	ID          string     `db:"id" json:"id"`
	Name        string     `db:"name" json:"name"`
	Description string     `db:"description" json:"description"`
	Nodes       []Node     `db:"nodes" json:"nodes"`
	Edges       []Edge     `db:"edges" json:"edges"`
	CreatedBy   string     `db:"created_by" json:"createdBy"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   *time.Time `db:"updated_at" json:"updatedAt,omitempty"`
}

// Position is a node's canvas placement.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Edge connects two nodes. SourceHandle distinguishes a condition node's
// "true"/"false" outputs and is empty for every other node type.
type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
}

// Clone returns a deep copy of the campaign. Everything crossing the
// collaboration boundary is copied, never shared.
func (c Campaign) Clone() Campaign {
	out := c
	if c.Nodes != nil {
		out.Nodes = make([]Node, len(c.Nodes))
		for i, n := range c.Nodes {
			out.Nodes[i] = n.Clone()
		}
	}
	if c.Edges != nil {
		out.Edges = make([]Edge, len(c.Edges))
		copy(out.Edges, c.Edges)
	}
	if c.UpdatedAt != nil {
		t := *c.UpdatedAt
		out.UpdatedAt = &t
	}
	return out
}
