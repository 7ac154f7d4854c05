package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/models"
	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/persistence"
)

const workflowFileMode = 0o644

// WorkflowRepository stores one JSON file per workflow definition.
type WorkflowRepository struct {
	root string
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(root string) *WorkflowRepository {
	return &WorkflowRepository{root: root}
}

func (wr *WorkflowRepository) workflowsDir() string {
	return filepath.Join(wr.root, "workflows")
}

func (wr *WorkflowRepository) workflowPath(id string) string {
	return filepath.Join(wr.workflowsDir(), id+".json")
}

// ListWorkflows returns paginated and filtered workflows with in-memory
// filtering and sorting.
func (wr *WorkflowRepository) ListWorkflows(ctx context.Context, opts persistence.ListWorkflowsOptions) (*persistence.WorkflowListResult, error) {
	if opts.Limit <= 0 || opts.Limit > 100 {
		opts.Limit = 20
	}

	if opts.SortBy == "" {
		opts.SortBy = "created_at"
	}

	if opts.SortOrder == "" {
		opts.SortOrder = "desc"
	}

	switch opts.SortBy {
	case "created_at", "updated_at", "name":
	default:
		return nil, fmt.Errorf("%w: %s", persistence.ErrInvalidSortField, opts.SortBy)
	}

	root := os.DirFS(wr.workflowsDir())

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow files: %w", err)
	}

	filtered := make([]*models.WorkflowDefinition, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		id := strings.TrimSuffix(file, ".json")

		def, err := wr.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load workflow %s: %w", id, err)
		}

		if def == nil {
			continue
		}

		if opts.Owner != "" && def.Owner != opts.Owner {
			continue
		}

		if opts.Status != nil && def.Status != *opts.Status {
			continue
		}

		filtered = append(filtered, def)
	}

	wr.sortWorkflows(filtered, opts.SortBy, opts.SortOrder)

	totalCount := int64(len(filtered))

	start := opts.Offset
	if start < 0 {
		start = 0
	}

	if start >= len(filtered) {
		return &persistence.WorkflowListResult{
			Workflows:   []*models.WorkflowDefinition{},
			TotalCount:  totalCount,
			HasNextPage: false,
		}, nil
	}

	end := start + opts.Limit
	if end > len(filtered) {
		end = len(filtered)
	}

	return &persistence.WorkflowListResult{
		Workflows:   filtered[start:end],
		TotalCount:  totalCount,
		HasNextPage: end < len(filtered),
	}, nil
}

func (wr *WorkflowRepository) sortWorkflows(defs []*models.WorkflowDefinition, sortBy, sortOrder string) {
	sort.SliceStable(defs, func(i, j int) bool {
		var less bool

		switch sortBy {
		case "name":
			less = defs[i].Name < defs[j].Name
		case "updated_at":
			less = defs[i].UpdatedAt.Before(defs[j].UpdatedAt)
		default:
			less = defs[i].CreatedAt.Before(defs[j].CreatedAt)
		}

		if sortOrder == "desc" {
			return !less
		}

		return less
	})
}

// GetByID loads a workflow definition, returning nil when no file exists.
func (wr *WorkflowRepository) GetByID(_ context.Context, id string) (*models.WorkflowDefinition, error) {
	data, err := os.ReadFile(wr.workflowPath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}

		return nil, persistence.NewWorkflowError("GetByID", id, err)
	}

	var def models.WorkflowDefinition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, persistence.NewWorkflowError("GetByID", id, err)
	}

	if def.DeletedAt != nil {
		return nil, nil
	}

	return &def, nil
}

// Save writes the definition to its JSON file, creating the workflows
// directory on first use.
func (wr *WorkflowRepository) Save(_ context.Context, def *models.WorkflowDefinition) error {
	if def.ID == "" {
		return persistence.NewWorkflowError("Save", def.ID, errors.New("workflow ID is required"))
	}

	if err := os.MkdirAll(wr.workflowsDir(), 0o755); err != nil {
		return persistence.NewWorkflowError("Save", def.ID, err)
	}

	data, err := json.MarshalIndent(def, "", "  ")
	if err != nil {
		return persistence.NewWorkflowError("Save", def.ID, err)
	}

	if err := os.WriteFile(wr.workflowPath(def.ID), data, workflowFileMode); err != nil {
		return persistence.NewWorkflowError("Save", def.ID, err)
	}

	return nil
}

// Delete removes the workflow's file.
func (wr *WorkflowRepository) Delete(_ context.Context, id string) error {
	err := os.Remove(wr.workflowPath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return persistence.NewWorkflowError("Delete", id, persistence.ErrWorkflowNotFound)
		}

		return persistence.NewWorkflowError("Delete", id, err)
	}

	return nil
}
