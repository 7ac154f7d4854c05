package editor

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/models"
)

// ErrNoTrigger is returned by Export when the graph has no trigger node.
// This is the one failure that blocks export entirely: a definition
// without a trigger is not a workflow.
var ErrNoTrigger = errors.New("workflow has no trigger node")

// Export converts the current graph into a workflow definition.
//
// Every export allocates fresh step identifiers, so the same graph can be
// exported repeatedly without colliding with previously saved versions;
// callers must not assume step ids are stable across exports. Steps are
// emitted in a breadth-first walk from the trigger, so the trigger's
// successor is always the first step; Load rebuilds the trigger edge
// from step order alone. Nodes unreachable from the trigger follow in
// insertion order, keeping the conversion deterministic for a given
// session history.
func (s *Session) Export() (*models.WorkflowDefinition, error) {
	var trigger *models.Node

	for _, id := range s.nodeOrder {
		if s.nodes[id].IsTrigger() {
			trigger = s.nodes[id]

			break
		}
	}

	if trigger == nil {
		return nil, ErrNoTrigger
	}

	triggerConfig, err := models.CloneConfig(trigger.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to copy trigger config: %w", err)
	}

	// Allocate step ids up front so successor pointers can be resolved
	// in a single pass regardless of node order or cycles.
	stepIDs := make(map[string]string, len(s.nodeOrder))

	for _, id := range s.nodeOrder {
		if id == trigger.ID {
			continue
		}

		stepIDs[id] = uuid.NewString()
	}

	outgoing := make(map[string][]*models.Edge, len(s.nodeOrder))

	for _, id := range s.edgeOrder {
		edge := s.edges[id]
		outgoing[edge.SourceNodeID] = append(outgoing[edge.SourceNodeID], edge)
	}

	steps := make([]*models.WorkflowStep, 0, len(stepIDs))

	for _, id := range s.exportOrder(trigger.ID, outgoing) {
		node := s.nodes[id]

		config, err := models.CloneConfig(node.Config)
		if err != nil {
			return nil, fmt.Errorf("failed to copy config for node %s: %w", id, err)
		}

		position := node.Position
		step := &models.WorkflowStep{
			ID:       stepIDs[id],
			Type:     node.Type,
			Name:     node.Label,
			Config:   config,
			Position: &position,
		}

		if node.IsBranching() {
			step.Branches = make([]models.StepBranch, 0, len(node.Branches))

			for _, branch := range node.Branches {
				step.Branches = append(step.Branches, models.StepBranch{
					ID:         branch.ID,
					Name:       branch.Name,
					NextStepID: targetStepID(outgoing[id], branch.ID, stepIDs),
				})
			}
		} else {
			step.NextStepID = firstStepID(outgoing[id], stepIDs)
		}

		steps = append(steps, step)
	}

	return &models.WorkflowDefinition{
		ID:          s.workflowID,
		Name:        s.name,
		Description: s.description,
		Status:      s.status,
		Trigger: models.TriggerSpec{
			Type:   trigger.Type,
			Config: triggerConfig,
		},
		Steps:    steps,
		Settings: s.settings,
	}, nil
}

// exportOrder walks the graph breadth first from the trigger, following
// outgoing edges in insertion order. The walk puts the trigger's
// successor first regardless of when it was added to the canvas; nodes
// the trigger cannot reach are appended in insertion order. The trigger
// itself is excluded.
func (s *Session) exportOrder(triggerID string, outgoing map[string][]*models.Edge) []string {
	order := make([]string, 0, len(s.nodeOrder))
	visited := map[string]bool{triggerID: true}

	queue := []string{triggerID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		for _, edge := range outgoing[id] {
			if visited[edge.TargetNodeID] {
				continue
			}

			visited[edge.TargetNodeID] = true
			order = append(order, edge.TargetNodeID)
			queue = append(queue, edge.TargetNodeID)
		}
	}

	for _, id := range s.nodeOrder {
		if !visited[id] {
			visited[id] = true
			order = append(order, id)
		}
	}

	return order
}

// targetStepID resolves the successor of a named branch: the step mapped
// from the target of the outgoing edge whose handle matches the branch
// id, or nil when the branch is unconnected.
func targetStepID(edges []*models.Edge, branchID string, stepIDs map[string]string) *string {
	for _, edge := range edges {
		if edge.SourceHandle != branchID {
			continue
		}

		if stepID, ok := stepIDs[edge.TargetNodeID]; ok {
			return &stepID
		}
	}

	return nil
}

// firstStepID resolves the successor of a linear node: the step mapped
// from the target of its first outgoing edge, or nil for terminal steps.
func firstStepID(edges []*models.Edge, stepIDs map[string]string) *string {
	for _, edge := range edges {
		if stepID, ok := stepIDs[edge.TargetNodeID]; ok {
			return &stepID
		}
	}

	return nil
}
