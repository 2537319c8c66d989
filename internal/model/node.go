// internal/model/node.go
package model

import (
	"encoding/json"
	"fmt"
)

type NodeType string

const (
	NodeEmail     NodeType = "email"
	NodeWait      NodeType = "wait"
	NodeCondition NodeType = "condition"
	NodeAction    NodeType = "action"
)

type ConditionType string

const (
	ConditionBehavior ConditionType = "behavior"
	ConditionTime     ConditionType = "time"
)

// Node is one step of the workflow graph. Data is a tagged union whose
// concrete shape is determined by Type; a node never carries another
// type's fields.
type Node struct {
	ID       string   `json:"id"`
	Type     NodeType `json:"type"`
	Position Position `json:"position"`
	Data     NodeData `json:"data"`
}

// NodeData is the per-type payload. Implementations are pointers so a
// JSON patch can be decoded onto a copy (shallow merge: present keys
// overwrite, absent keys are preserved).
type NodeData interface {
	nodeData()
	// Clone returns an independent copy of the payload.
	Clone() NodeData
}

type EmailData struct {
	Name     string `json:"name"`
	Subject  string `json:"subject"`
	Template string `json:"template"`
}

type WaitData struct {
	Name string `json:"name"`
	// Duration is free-form, e.g. "2d". It is not parsed by the builder.
	Duration string `json:"duration"`
}

type Condition struct {
	Type      ConditionType `json:"type"`
	Event     string        `json:"event"`
	TimeValue string        `json:"timeValue,omitempty"`
}

type ConditionData struct {
	Name       string      `json:"name"`
	Conditions []Condition `json:"conditions"`
}

type ActionData struct {
	Name        string `json:"name"`
	ActionType  string `json:"actionType"`
	ActionValue string `json:"actionValue,omitempty"`
}

func (*EmailData) nodeData()     {}
func (*WaitData) nodeData()      {}
func (*ConditionData) nodeData() {}
func (*ActionData) nodeData()    {}

func (d *EmailData) Clone() NodeData {
	out := *d
	return &out
}

func (d *WaitData) Clone() NodeData {
	out := *d
	return &out
}

func (d *ConditionData) Clone() NodeData {
	out := *d
	if d.Conditions != nil {
		out.Conditions = make([]Condition, len(d.Conditions))
		copy(out.Conditions, d.Conditions)
	}
	return &out
}

func (d *ActionData) Clone() NodeData {
	out := *d
	return &out
}

// DefaultData seeds a freshly added node's payload.
func DefaultData(t NodeType) (NodeData, error) {
	switch t {
	case NodeEmail:
		return &EmailData{Name: "New Email", Subject: "Subject line", Template: "welcome"}, nil
	case NodeWait:
		return &WaitData{Name: "New Wait", Duration: "1d"}, nil
	case NodeCondition:
		return &ConditionData{
			Name:       "New Condition",
			Conditions: []Condition{{Type: ConditionBehavior, Event: "open"}},
		}, nil
	case NodeAction:
		return &ActionData{Name: "New Action", ActionType: "tag"}, nil
	default:
		return nil, fmt.Errorf("unknown node type %q", t)
	}
}

// DecodeNodeData unmarshals a data payload for the given node type.
func DecodeNodeData(t NodeType, raw []byte) (NodeData, error) {
	var data NodeData
	switch t {
	case NodeEmail:
		data = &EmailData{}
	case NodeWait:
		data = &WaitData{}
	case NodeCondition:
		data = &ConditionData{}
	case NodeAction:
		data = &ActionData{}
	default:
		return nil, fmt.Errorf("unknown node type %q", t)
	}
	if len(raw) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, data); err != nil {
		return nil, err
	}
	return data, nil
}

func (n *Node) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID       string          `json:"id"`
		Type     NodeType        `json:"type"`
		Position Position        `json:"position"`
		Data     json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	data, err := DecodeNodeData(raw.Type, raw.Data)
	if err != nil {
		return fmt.Errorf("node %s: %w", raw.ID, err)
	}
	n.ID = raw.ID
	n.Type = raw.Type
	n.Position = raw.Position
	n.Data = data
	return nil
}

// Clone returns a deep copy of the node.
func (n Node) Clone() Node {
	out := n
	if n.Data != nil {
		out.Data = n.Data.Clone()
	}
	return out
}
