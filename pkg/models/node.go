// Package models defines the editable graph representation used by the
// workflow editor: typed nodes and directed, optionally labeled edges.
package models

import "encoding/json"

// NodeKind is the coarse category of a node, used for rendering and for
// structural rules. Only one trigger node is permitted per graph, and only
// trigger nodes may lack incoming edges.
type NodeKind string

const (
	NodeKindTrigger   NodeKind = "trigger"
	NodeKindAction    NodeKind = "action"
	NodeKindCondition NodeKind = "condition"
	NodeKindWait      NodeKind = "wait"
)

// Position is the 2-D placement of a node on the canvas. It is owned by
// the rendering layer but persisted with the node.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Branch declares a named exit point of a condition or split node,
// distinct from the single default exit of linear nodes.
type Branch struct {
	ID   string `json:"id"   validate:"required"`
	Name string `json:"name" validate:"required"`
}

// Node is one vertex of the editable workflow graph.
//
// Branches is nil for nodes with a single default exit. A non-nil Branches
// list declares named exits whose outgoing edges are matched by
// Edge.SourceHandle; the serializer treats the two exit shapes as mutually
// exclusive.
type Node struct {
	ID       string     `json:"id"`
	Kind     NodeKind   `json:"kind"  validate:"required,oneof=trigger action condition wait"`
	Type     string     `json:"type"  validate:"required"`
	Label    string     `json:"label"`
	Config   NodeConfig `json:"config,omitempty"`
	Position Position   `json:"position"`
	Branches []Branch   `json:"branches,omitempty"`
}

// IsTrigger reports whether the node is the workflow's entry point.
func (n *Node) IsTrigger() bool {
	return n.Kind == NodeKindTrigger
}

// IsBranching reports whether the node declares named exits instead of
// the single default exit.
func (n *Node) IsBranching() bool {
	return len(n.Branches) > 0
}

// UnmarshalJSON decodes the config payload into its typed variant based
// on the node type tag.
func (n *Node) UnmarshalJSON(data []byte) error {
	type alias Node

	var raw struct {
		alias

		Config json.RawMessage `json:"config"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*n = Node(raw.alias)

	if len(raw.Config) == 0 {
		n.Config = nil

		return nil
	}

	config, err := DecodeConfig(n.Type, raw.Config)
	if err != nil {
		return err
	}

	n.Config = config

	return nil
}
