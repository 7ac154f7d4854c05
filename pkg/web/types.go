// Package web provides HTTP request and response types for the workflow API.
package web

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/editor"
	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/models"
	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/registry"
)

// CreateWorkflowRequest represents the request body for creating a new workflow.
type CreateWorkflowRequest struct {
	Name        string                   `json:"name"        validate:"required,min=1"`
	Description string                   `json:"description"`
	Owner       string                   `json:"owner"`
	Settings    *models.WorkflowSettings `json:"settings,omitempty"`
}

// UpdateWorkflowRequest represents the request body for updating workflow
// metadata. All fields are optional to support partial updates.
type UpdateWorkflowRequest struct {
	Name        *string                  `json:"name,omitempty"        validate:"omitempty,min=1"`
	Description *string                  `json:"description,omitempty"`
	Settings    *models.WorkflowSettings `json:"settings,omitempty"`
}

// GraphNode is a canvas node as the client sends and receives it. Config
// stays raw JSON on the wire and is decoded against the node type's schema.
type GraphNode struct {
	ID       string          `json:"id"`
	Kind     models.NodeKind `json:"kind,omitempty"`
	Type     string          `json:"type"     validate:"required"`
	Label    string          `json:"label"`
	Config   json.RawMessage `json:"config,omitempty"`
	Position models.Position `json:"position"`
	Branches []models.Branch `json:"branches,omitempty"`
}

// GraphEdge is a canvas connection between two nodes.
type GraphEdge struct {
	ID           string `json:"id"`
	SourceNodeID string `json:"source_node_id" validate:"required"`
	TargetNodeID string `json:"target_node_id" validate:"required"`
	SourceHandle string `json:"source_handle,omitempty"`
	Label        string `json:"label,omitempty"`
}

// GraphPayload is the full editable state of a workflow canvas.
type GraphPayload struct {
	Name        string                   `json:"name"`
	Description string                   `json:"description"`
	Settings    *models.WorkflowSettings `json:"settings,omitempty"`
	Nodes       []GraphNode              `json:"nodes"`
	Edges       []GraphEdge              `json:"edges"`
}

// buildSession reconstructs an editing session from a client payload. Node
// ids are reassigned on insert, so client edge endpoints are remapped to
// the session's ids.
func buildSession(logger *slog.Logger, reg *registry.Registry, payload *GraphPayload) (*editor.Session, error) {
	session := editor.NewSession(logger)
	session.SetName(payload.Name)
	session.SetDescription(payload.Description)

	if payload.Settings != nil {
		session.SetSettings(*payload.Settings)
	}

	idMap := make(map[string]string, len(payload.Nodes))

	for _, n := range payload.Nodes {
		if _, ok := reg.Definition(n.Type); !ok {
			return nil, fmt.Errorf("unknown node type %q", n.Type)
		}

		var config models.NodeConfig

		if len(n.Config) > 0 {
			if err := reg.ValidateConfig(n.Type, n.Config); err != nil {
				return nil, fmt.Errorf("invalid config for node %q: %w", n.ID, err)
			}

			decoded, err := models.DecodeConfig(n.Type, n.Config)
			if err != nil {
				return nil, fmt.Errorf("invalid config for node %q: %w", n.ID, err)
			}

			config = decoded
		}

		label := n.Label
		if label == "" {
			label = reg.Label(n.Type)
		}

		sessionID := session.AddNode(&models.Node{
			Kind:     reg.Kind(n.Type),
			Type:     n.Type,
			Label:    label,
			Config:   config,
			Position: n.Position,
			Branches: n.Branches,
		})
		idMap[n.ID] = sessionID
	}

	for _, e := range payload.Edges {
		source, ok := idMap[e.SourceNodeID]
		if !ok {
			return nil, fmt.Errorf("edge %q references unknown source node %q", e.ID, e.SourceNodeID)
		}

		target, ok := idMap[e.TargetNodeID]
		if !ok {
			return nil, fmt.Errorf("edge %q references unknown target node %q", e.ID, e.TargetNodeID)
		}

		session.AddEdge(&models.Edge{
			SourceNodeID: source,
			TargetNodeID: target,
			SourceHandle: e.SourceHandle,
			Label:        e.Label,
		})
	}

	return session, nil
}

// sessionPayload renders a session back into the wire form, config
// serialized from the typed variants.
func sessionPayload(session *editor.Session) (*GraphPayload, error) {
	settings := session.Settings()
	payload := &GraphPayload{
		Name:        session.Name(),
		Description: session.Description(),
		Settings:    &settings,
		Nodes:       make([]GraphNode, 0, len(session.Nodes())),
		Edges:       make([]GraphEdge, 0, len(session.Edges())),
	}

	for _, node := range session.Nodes() {
		var raw json.RawMessage

		if node.Config != nil {
			encoded, err := json.Marshal(node.Config)
			if err != nil {
				return nil, fmt.Errorf("failed to encode config for node %s: %w", node.ID, err)
			}

			raw = encoded
		}

		payload.Nodes = append(payload.Nodes, GraphNode{
			ID:       node.ID,
			Kind:     node.Kind,
			Type:     node.Type,
			Label:    node.Label,
			Config:   raw,
			Position: node.Position,
			Branches: node.Branches,
		})
	}

	for _, edge := range session.Edges() {
		payload.Edges = append(payload.Edges, GraphEdge{
			ID:           edge.ID,
			SourceNodeID: edge.SourceNodeID,
			TargetNodeID: edge.TargetNodeID,
			SourceHandle: edge.SourceHandle,
			Label:        edge.Label,
		})
	}

	return payload, nil
}
