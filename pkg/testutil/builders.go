// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"github.com/google/uuid"

	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/models"
)

// CreateTestNode creates a test canvas node with default values that can be overridden.
func CreateTestNode(overrides ...func(*models.Node)) *models.Node {
	node := &models.Node{
		ID:       uuid.New().String(),
		Kind:     models.NodeKindAction,
		Type:     models.NodeTypeAddTag,
		Label:    "Test Node",
		Config:   &models.AddTagConfig{TagID: "tag-1"},
		Position: models.Position{X: 100, Y: 200},
	}

	for _, override := range overrides {
		override(node)
	}

	return node
}

// WithTriggerNode configures the node as a tag_added trigger.
func WithTriggerNode() func(*models.Node) {
	return func(n *models.Node) {
		n.Kind = models.NodeKindTrigger
		n.Type = models.NodeTypeTagAdded
		n.Label = "Tag Added"
		n.Config = &models.TagAddedConfig{TagID: "tag-1"}
	}
}

// WithConditionNode configures the node as a branching condition step.
func WithConditionNode(expression string) func(*models.Node) {
	return func(n *models.Node) {
		n.Kind = models.NodeKindCondition
		n.Type = models.NodeTypeCondition
		n.Label = "Condition"
		n.Config = &models.ConditionConfig{Expression: expression}
		n.Branches = []models.Branch{
			{ID: "yes", Name: "Yes"},
			{ID: "no", Name: "No"},
		}
	}
}

// WithConfig sets the node configuration.
func WithConfig(config models.NodeConfig) func(*models.Node) {
	return func(n *models.Node) {
		n.Config = config
	}
}

// WithLabel sets the node label.
func WithLabel(label string) func(*models.Node) {
	return func(n *models.Node) {
		n.Label = label
	}
}

// WithPosition sets the node position.
func WithPosition(x, y int) func(*models.Node) {
	return func(n *models.Node) {
		n.Position = models.Position{X: x, Y: y}
	}
}

// WithType sets the node type.
func WithType(kind models.NodeKind, nodeType string) func(*models.Node) {
	return func(n *models.Node) {
		n.Kind = kind
		n.Type = nodeType
	}
}

// WithBranches sets the node's named exits.
func WithBranches(branches ...models.Branch) func(*models.Node) {
	return func(n *models.Node) {
		n.Branches = branches
	}
}

// CreateTestDefinition creates a minimal valid definition: one trigger and
// one linear step.
func CreateTestDefinition() *models.WorkflowDefinition {
	step := &models.WorkflowStep{
		ID:       uuid.New().String(),
		Type:     models.NodeTypeSendEmail,
		Name:     "Welcome Email",
		Config:   &models.SendEmailConfig{TemplateID: "tpl-1"},
		Position: &models.Position{X: 400, Y: 200},
	}

	return &models.WorkflowDefinition{
		ID:          uuid.New().String(),
		Name:        "Test Workflow",
		Description: "A workflow for testing",
		Status:      models.WorkflowStatusDraft,
		Owner:       "test-user",
		Trigger: models.TriggerSpec{
			Type:   models.NodeTypeTagAdded,
			Config: &models.TagAddedConfig{TagID: "tag-1"},
		},
		Steps: []*models.WorkflowStep{step},
	}
}
