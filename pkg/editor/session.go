// Package editor implements the editable workflow graph: a per-edit
// session holding nodes and edges, the mutation API used by the canvas
// layer, the structural validator, and the bidirectional conversion
// between the graph and a persistable workflow definition.
package editor

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/models"
)

// Offset applied to the position of a duplicated node so the copy does
// not land exactly on top of the original.
const duplicateOffset = 40

// Session is one workflow edit context. It owns the in-memory graph and
// is confined to a single logical owner; nothing in it is safe for
// concurrent use.
//
// Mutations keep the graph referentially consistent (no edge ever
// references a missing node) but do not enforce the export invariants --
// a graph may transiently violate them between mutations. Validate and
// Export check them on demand.
type Session struct {
	logger *slog.Logger

	workflowID  string
	name        string
	description string
	status      models.WorkflowStatus
	settings    models.WorkflowSettings

	nodes     map[string]*models.Node
	edges     map[string]*models.Edge
	nodeOrder []string
	edgeOrder []string

	selectedNodeID string
	selectedEdgeID string
	dirty          bool
}

// NewSession creates an empty edit session for a new draft workflow.
func NewSession(logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}

	return &Session{
		logger: logger,
		status: models.WorkflowStatusDraft,
		nodes:  make(map[string]*models.Node),
		edges:  make(map[string]*models.Edge),
	}
}

// WorkflowID returns the id of the workflow being edited, empty for a
// session that has never been saved or loaded.
func (s *Session) WorkflowID() string { return s.workflowID }

// Name returns the workflow name.
func (s *Session) Name() string { return s.name }

// SetName updates the workflow name and marks the session dirty.
func (s *Session) SetName(name string) {
	s.name = name
	s.dirty = true
}

// Description returns the workflow description.
func (s *Session) Description() string { return s.description }

// SetDescription updates the workflow description and marks the session dirty.
func (s *Session) SetDescription(description string) {
	s.description = description
	s.dirty = true
}

// Status returns the workflow lifecycle status carried by the session.
func (s *Session) Status() models.WorkflowStatus { return s.status }

// Settings returns the enrollment settings carried by the session.
func (s *Session) Settings() models.WorkflowSettings { return s.settings }

// SetSettings replaces the enrollment settings and marks the session dirty.
func (s *Session) SetSettings(settings models.WorkflowSettings) {
	s.settings = settings
	s.dirty = true
}

// Dirty reports whether the session has unsaved changes.
func (s *Session) Dirty() bool { return s.dirty }

// MarkClean clears the dirty flag, called after a successful save.
func (s *Session) MarkClean() { s.dirty = false }

// Node returns the node with the given id, or nil.
func (s *Session) Node(id string) *models.Node {
	return s.nodes[id]
}

// Nodes returns the nodes in insertion order.
func (s *Session) Nodes() []*models.Node {
	nodes := make([]*models.Node, 0, len(s.nodeOrder))
	for _, id := range s.nodeOrder {
		nodes = append(nodes, s.nodes[id])
	}

	return nodes
}

// Edge returns the edge with the given id, or nil.
func (s *Session) Edge(id string) *models.Edge {
	return s.edges[id]
}

// Edges returns the edges in insertion order.
func (s *Session) Edges() []*models.Edge {
	edges := make([]*models.Edge, 0, len(s.edgeOrder))
	for _, id := range s.edgeOrder {
		edges = append(edges, s.edges[id])
	}

	return edges
}

// AddNode inserts a node, assigning it a fresh identifier, and returns
// that identifier. Any id already set on the node is overwritten; the
// graph owns node identity.
func (s *Session) AddNode(node *models.Node) string {
	node.ID = uuid.NewString()

	s.nodes[node.ID] = node
	s.nodeOrder = append(s.nodeOrder, node.ID)
	s.dirty = true

	return node.ID
}

// NodeUpdate is a partial node update; nil fields are left untouched.
type NodeUpdate struct {
	Label    *string
	Config   models.NodeConfig
	Branches []models.Branch
}

// UpdateNode shallow-merges an update into an existing node. Updating an
// unknown id is a no-op: such calls only arise from stale canvas
// references that reconcile on the next render.
func (s *Session) UpdateNode(id string, update NodeUpdate) {
	s.dirty = true

	node, ok := s.nodes[id]
	if !ok {
		s.logger.Debug("update for unknown node", "node_id", id)

		return
	}

	if update.Label != nil {
		node.Label = *update.Label
	}

	if update.Config != nil {
		node.Config = update.Config
	}

	if update.Branches != nil {
		node.Branches = update.Branches
	}
}

// UpdateNodeConfig replaces a node's config payload, used by the
// per-type configuration panels.
func (s *Session) UpdateNodeConfig(id string, config models.NodeConfig) {
	s.dirty = true

	node, ok := s.nodes[id]
	if !ok {
		s.logger.Debug("config update for unknown node", "node_id", id)

		return
	}

	node.Config = config
}

// UpdateNodePosition is a position-only update, split out because it
// fires continuously while a node is being dragged.
func (s *Session) UpdateNodePosition(id string, position models.Position) {
	s.dirty = true

	node, ok := s.nodes[id]
	if !ok {
		s.logger.Debug("position update for unknown node", "node_id", id)

		return
	}

	node.Position = position
}

// RemoveNode deletes a node and cascades to every edge touching it. The
// node selection is cleared if the removed node was selected.
func (s *Session) RemoveNode(id string) {
	s.dirty = true

	if _, ok := s.nodes[id]; !ok {
		s.logger.Debug("remove for unknown node", "node_id", id)

		return
	}

	s.RemoveEdgesForNode(id)

	delete(s.nodes, id)
	s.nodeOrder = removeID(s.nodeOrder, id)

	if s.selectedNodeID == id {
		s.selectedNodeID = ""
	}
}

// DuplicateNode clones a node and returns the clone's id. The clone gets
// an independent copy of the config, an offset position, and a "(Copy)"
// label suffix; it starts disconnected -- no edges are duplicated.
// Returns "" if the id is unknown.
func (s *Session) DuplicateNode(id string) string {
	node, ok := s.nodes[id]
	if !ok {
		s.logger.Debug("duplicate for unknown node", "node_id", id)

		return ""
	}

	config, err := models.CloneConfig(node.Config)
	if err != nil {
		s.logger.Warn("failed to clone node config", "node_id", id, "error", err)

		return ""
	}

	clone := &models.Node{
		Kind:   node.Kind,
		Type:   node.Type,
		Label:  node.Label + " (Copy)",
		Config: config,
		Position: models.Position{
			X: node.Position.X + duplicateOffset,
			Y: node.Position.Y + duplicateOffset,
		},
	}

	if node.Branches != nil {
		clone.Branches = make([]models.Branch, len(node.Branches))
		copy(clone.Branches, node.Branches)
	}

	return s.AddNode(clone)
}

// AddEdge inserts an edge, assigning it a fresh identifier, and returns
// that identifier. It returns "" without inserting when an edge with the
// same (source, target, handle) triple already exists, when a named
// handle on the source already has an outgoing edge, or when either
// endpoint does not reference a known node. Callers must treat an empty
// return as failure.
func (s *Session) AddEdge(edge *models.Edge) string {
	if _, ok := s.nodes[edge.SourceNodeID]; !ok {
		s.logger.Debug("edge references unknown source node", "node_id", edge.SourceNodeID)

		return ""
	}

	if _, ok := s.nodes[edge.TargetNodeID]; !ok {
		s.logger.Debug("edge references unknown target node", "node_id", edge.TargetNodeID)

		return ""
	}

	for _, id := range s.edgeOrder {
		existing := s.edges[id]
		if existing.SourceNodeID != edge.SourceNodeID || existing.SourceHandle != edge.SourceHandle {
			continue
		}

		// A named handle carries at most one outgoing edge; the default
		// exit only rejects exact duplicates.
		if edge.SourceHandle != "" || existing.TargetNodeID == edge.TargetNodeID {
			return ""
		}
	}

	edge.ID = uuid.NewString()

	s.edges[edge.ID] = edge
	s.edgeOrder = append(s.edgeOrder, edge.ID)
	s.dirty = true

	return edge.ID
}

// EdgeUpdate is a partial edge update; nil fields are left untouched.
type EdgeUpdate struct {
	Label        *string
	SourceHandle *string
}

// UpdateEdge shallow-merges an update into an existing edge. Updating an
// unknown id is a no-op.
func (s *Session) UpdateEdge(id string, update EdgeUpdate) {
	s.dirty = true

	edge, ok := s.edges[id]
	if !ok {
		s.logger.Debug("update for unknown edge", "edge_id", id)

		return
	}

	if update.Label != nil {
		edge.Label = *update.Label
	}

	if update.SourceHandle != nil {
		edge.SourceHandle = *update.SourceHandle
	}
}

// RemoveEdge deletes an edge, clearing the edge selection if needed.
func (s *Session) RemoveEdge(id string) {
	s.dirty = true

	if _, ok := s.edges[id]; !ok {
		s.logger.Debug("remove for unknown edge", "edge_id", id)

		return
	}

	delete(s.edges, id)
	s.edgeOrder = removeID(s.edgeOrder, id)

	if s.selectedEdgeID == id {
		s.selectedEdgeID = ""
	}
}

// RemoveEdgesForNode deletes every edge whose source or target is the
// given node, disconnecting it without deleting it.
func (s *Session) RemoveEdgesForNode(nodeID string) {
	s.dirty = true

	kept := s.edgeOrder[:0]

	for _, id := range s.edgeOrder {
		edge := s.edges[id]
		if edge.SourceNodeID == nodeID || edge.TargetNodeID == nodeID {
			delete(s.edges, id)

			if s.selectedEdgeID == id {
				s.selectedEdgeID = ""
			}

			continue
		}

		kept = append(kept, id)
	}

	s.edgeOrder = kept
}

// SelectNode marks a node as the current selection, clearing any edge
// selection. Selecting an unknown id clears the node selection.
func (s *Session) SelectNode(id string) {
	if _, ok := s.nodes[id]; !ok {
		s.selectedNodeID = ""

		return
	}

	s.selectedNodeID = id
	s.selectedEdgeID = ""
}

// SelectEdge marks an edge as the current selection, clearing any node
// selection. Selecting an unknown id clears the edge selection.
func (s *Session) SelectEdge(id string) {
	if _, ok := s.edges[id]; !ok {
		s.selectedEdgeID = ""

		return
	}

	s.selectedEdgeID = id
	s.selectedNodeID = ""
}

// ClearSelection drops both node and edge selection.
func (s *Session) ClearSelection() {
	s.selectedNodeID = ""
	s.selectedEdgeID = ""
}

// SelectedNode returns the currently selected node, or nil.
func (s *Session) SelectedNode() *models.Node {
	if s.selectedNodeID == "" {
		return nil
	}

	return s.nodes[s.selectedNodeID]
}

// SelectedEdge returns the currently selected edge, or nil.
func (s *Session) SelectedEdge() *models.Edge {
	if s.selectedEdgeID == "" {
		return nil
	}

	return s.edges[s.selectedEdgeID]
}

func removeID(ids []string, id string) []string {
	for i, candidate := range ids {
		if candidate == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}

	return ids
}
