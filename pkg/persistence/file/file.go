// Package file provides file-based persistence for workflow definitions,
// used in development and tests.
package file

import (
	"context"
	"os"
	"strings"

	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/persistence"
)

// Persistence implements persistence.Persistence on the local filesystem:
// one JSON file per workflow under <root>/workflows.
type Persistence struct {
	root         string
	workflowRepo *WorkflowRepository
}

// NewPersistence creates a file-backed persistence rooted at the given
// directory. A file:// prefix is stripped so database-url style
// configuration works unchanged.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.TrimPrefix(root, "file://")

	return &Persistence{
		root:         cleanRoot,
		workflowRepo: NewWorkflowRepository(cleanRoot),
	}
}

// WorkflowRepository returns the workflow repository.
func (p *Persistence) WorkflowRepository() persistence.WorkflowRepository {
	return p.workflowRepo
}

// HealthCheck verifies the root directory exists.
func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close is a no-op for file persistence.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}
