package models

// Edge is a directed connection between two nodes of the editable graph.
//
// SourceHandle identifies which named branch of a multi-exit source node
// the edge leaves from; an empty SourceHandle means the node's single
// default exit. Label is a display annotation, typically mirroring the
// branch name.
type Edge struct {
	ID           string `json:"id"`
	SourceNodeID string `json:"source_node_id" validate:"required"`
	TargetNodeID string `json:"target_node_id" validate:"required"`
	SourceHandle string `json:"source_handle,omitempty"`
	Label        string `json:"label,omitempty"`
}
