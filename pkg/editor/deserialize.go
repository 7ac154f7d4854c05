package editor

import (
	"log/slog"

	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/models"
)

// Default canvas layout for definitions saved without positions: the
// trigger sits at the top and steps stack vertically beneath it.
const (
	defaultColumnX   = 400
	triggerY         = 60
	firstStepY       = 200
	stepVerticalStep = 140
)

// Catalog resolves node-type metadata during graph reconstruction. The
// registry package provides the canonical implementation.
type Catalog interface {
	// Kind returns the coarse category for a node type.
	Kind(nodeType string) models.NodeKind
	// Label returns the display label for a node type.
	Label(nodeType string) string
}

// Load reconstructs an editable graph from a persisted definition. Every
// node and edge receives a fresh internal identity; only the topology,
// configs, and positions of the definition survive. The returned session
// is clean -- a freshly loaded graph has no unsaved changes.
func Load(logger *slog.Logger, def *models.WorkflowDefinition, catalog Catalog) *Session {
	session := NewSession(logger)
	session.workflowID = def.ID
	session.name = def.Name
	session.description = def.Description
	session.status = def.Status
	session.settings = def.Settings

	// A definition that was never exported has no trigger yet; the
	// loaded graph is then empty and fails validation until one is added.
	var triggerID string

	if def.Trigger.Type != "" {
		triggerConfig, err := models.CloneConfig(def.Trigger.Config)
		if err != nil {
			session.logger.Warn("failed to copy trigger config on load",
				"workflow_id", def.ID, "error", err)

			triggerConfig = def.Trigger.Config
		}

		triggerID = session.AddNode(&models.Node{
			Kind:     models.NodeKindTrigger,
			Type:     def.Trigger.Type,
			Label:    catalog.Label(def.Trigger.Type),
			Config:   triggerConfig,
			Position: models.Position{X: defaultColumnX, Y: triggerY},
		})
	}

	// First pass: one node per step, remembering the step-id mapping so
	// successor pointers can be rebuilt as edges afterwards.
	nodeIDs := make(map[string]string, len(def.Steps))

	for i, step := range def.Steps {
		config, err := models.CloneConfig(step.Config)
		if err != nil {
			session.logger.Warn("failed to copy step config on load",
				"workflow_id", def.ID, "step_id", step.ID, "error", err)

			config = step.Config
		}

		position := models.Position{
			X: defaultColumnX,
			Y: firstStepY + i*stepVerticalStep,
		}
		if step.Position != nil {
			position = *step.Position
		}

		node := &models.Node{
			Kind:     catalog.Kind(step.Type),
			Type:     step.Type,
			Label:    step.Name,
			Config:   config,
			Position: position,
		}

		if len(step.Branches) > 0 {
			node.Branches = make([]models.Branch, 0, len(step.Branches))
			for _, branch := range step.Branches {
				node.Branches = append(node.Branches, models.Branch{
					ID:   branch.ID,
					Name: branch.Name,
				})
			}
		}

		nodeIDs[step.ID] = session.AddNode(node)
	}

	// The definition's step order establishes the trigger's successor.
	if triggerID != "" && len(def.Steps) > 0 {
		session.AddEdge(&models.Edge{
			SourceNodeID: triggerID,
			TargetNodeID: nodeIDs[def.Steps[0].ID],
		})
	}

	for _, step := range def.Steps {
		source := nodeIDs[step.ID]

		if step.NextStepID != nil {
			target, ok := nodeIDs[*step.NextStepID]
			if !ok {
				session.logger.Warn("step points at unknown successor",
					"workflow_id", def.ID, "step_id", step.ID, "next_step_id", *step.NextStepID)

				continue
			}

			session.AddEdge(&models.Edge{
				SourceNodeID: source,
				TargetNodeID: target,
			})
		}

		for _, branch := range step.Branches {
			if branch.NextStepID == nil {
				continue
			}

			target, ok := nodeIDs[*branch.NextStepID]
			if !ok {
				session.logger.Warn("branch points at unknown successor",
					"workflow_id", def.ID, "step_id", step.ID, "branch_id", branch.ID)

				continue
			}

			session.AddEdge(&models.Edge{
				SourceNodeID: source,
				TargetNodeID: target,
				SourceHandle: branch.ID,
				Label:        branch.Name,
			})
		}
	}

	session.dirty = false

	return session
}
