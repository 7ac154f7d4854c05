// Package persistence provides the storage abstraction for workflow
// definitions.
package persistence

import (
	"context"

	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/models"
)

// ListWorkflowsOptions controls filtering, sorting, and pagination when
// listing workflows.
type ListWorkflowsOptions struct {
	Limit  int
	Offset int

	Owner  string
	Status *models.WorkflowStatus

	SortBy    string // created_at, updated_at, name
	SortOrder string // asc, desc
}

// WorkflowListResult is a page of workflows plus pagination metadata.
type WorkflowListResult struct {
	Workflows   []*models.WorkflowDefinition `json:"workflows"`
	TotalCount  int64                        `json:"total_count"`
	HasNextPage bool                         `json:"has_next_page"`
}

// WorkflowRepository stores workflow definitions.
type WorkflowRepository interface {
	ListWorkflows(ctx context.Context, opts ListWorkflowsOptions) (*WorkflowListResult, error)

	// GetByID returns the definition, or nil when no workflow exists
	// with that id.
	GetByID(ctx context.Context, id string) (*models.WorkflowDefinition, error)

	Save(ctx context.Context, def *models.WorkflowDefinition) error
	Delete(ctx context.Context, id string) error
}

// Persistence is the storage entry point handed to services.
type Persistence interface {
	WorkflowRepository() WorkflowRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
