package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/models"
	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/persistence"
)

// WorkflowRepository handles workflow-related database operations. The
// trigger, steps, and settings documents are stored as JSONB: they are
// read and written as a unit by the editor, never queried field-by-field.
type WorkflowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(db *sql.DB, logger *slog.Logger) *WorkflowRepository {
	return &WorkflowRepository{db: db, logger: logger}
}

var sortColumns = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"name":       "name",
}

// ListWorkflows returns paginated and filtered workflows.
func (r *WorkflowRepository) ListWorkflows(ctx context.Context, opts persistence.ListWorkflowsOptions) (*persistence.WorkflowListResult, error) {
	if opts.Limit <= 0 || opts.Limit > 100 {
		opts.Limit = 20
	}

	if opts.SortBy == "" {
		opts.SortBy = "created_at"
	}

	if opts.SortOrder != "asc" {
		opts.SortOrder = "desc"
	}

	column, ok := sortColumns[opts.SortBy]
	if !ok {
		return nil, fmt.Errorf("%w: %s", persistence.ErrInvalidSortField, opts.SortBy)
	}

	direction := "DESC"
	if opts.SortOrder == "asc" {
		direction = "ASC"
	}

	where := "deleted_at IS NULL"
	args := []any{}

	if opts.Owner != "" {
		args = append(args, opts.Owner)
		where += fmt.Sprintf(" AND owner = $%d", len(args))
	}

	if opts.Status != nil {
		args = append(args, string(*opts.Status))
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var totalCount int64

	countQuery := "SELECT COUNT(*) FROM workflows WHERE " + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("failed to count workflows: %w", err)
	}

	args = append(args, opts.Limit, opts.Offset)
	query := fmt.Sprintf(`
		SELECT
			id
		  , name
		  , description
		  , status
		  , trigger_spec
		  , steps
		  , settings
		  , owner
		  , created_at
		  , updated_at
		FROM workflows
		WHERE %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, where, column, direction, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	workflows := make([]*models.WorkflowDefinition, 0)

	for rows.Next() {
		def, err := scanWorkflow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}

		workflows = append(workflows, def)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating workflows: %w", err)
	}

	return &persistence.WorkflowListResult{
		Workflows:   workflows,
		TotalCount:  totalCount,
		HasNextPage: int64(opts.Offset+len(workflows)) < totalCount,
	}, nil
}

// GetByID returns a workflow by its id, or nil when absent.
func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.WorkflowDefinition, error) {
	query := `
		SELECT
			id
		  , name
		  , description
		  , status
		  , trigger_spec
		  , steps
		  , settings
		  , owner
		  , created_at
		  , updated_at
		FROM workflows
		WHERE id = $1 AND deleted_at IS NULL
	`

	def, err := scanWorkflow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, persistence.NewWorkflowError("GetByID", id, err)
	}

	return def, nil
}

// Save upserts a workflow definition.
func (r *WorkflowRepository) Save(ctx context.Context, def *models.WorkflowDefinition) error {
	now := time.Now().UTC()

	if def.CreatedAt.IsZero() {
		def.CreatedAt = now
	}

	def.UpdatedAt = now

	if def.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return persistence.NewWorkflowError("Save", "", err)
		}

		def.ID = id.String()
	}

	trigger, err := json.Marshal(def.Trigger)
	if err != nil {
		return persistence.NewWorkflowError("Save", def.ID, err)
	}

	steps, err := json.Marshal(def.Steps)
	if err != nil {
		return persistence.NewWorkflowError("Save", def.ID, err)
	}

	settings, err := json.Marshal(def.Settings)
	if err != nil {
		return persistence.NewWorkflowError("Save", def.ID, err)
	}

	query := `
		INSERT INTO workflows (id, name, description, status, trigger_spec, steps, settings, owner, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name
		  , description = EXCLUDED.description
		  , status = EXCLUDED.status
		  , trigger_spec = EXCLUDED.trigger_spec
		  , steps = EXCLUDED.steps
		  , settings = EXCLUDED.settings
		  , owner = EXCLUDED.owner
		  , updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		def.ID, def.Name, def.Description, string(def.Status),
		trigger, steps, settings, def.Owner, def.CreatedAt, def.UpdatedAt)
	if err != nil {
		return persistence.NewWorkflowError("Save", def.ID, err)
	}

	return nil
}

// Delete soft deletes a workflow by setting its deleted_at timestamp.
func (r *WorkflowRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE workflows SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL",
		time.Now().UTC(), id)
	if err != nil {
		return persistence.NewWorkflowError("Delete", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewWorkflowError("Delete", id, err)
	}

	if affected == 0 {
		return persistence.NewWorkflowError("Delete", id, persistence.ErrWorkflowNotFound)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkflow(row rowScanner) (*models.WorkflowDefinition, error) {
	var (
		def      models.WorkflowDefinition
		status   string
		trigger  []byte
		steps    []byte
		settings []byte
		owner    sql.NullString
	)

	err := row.Scan(&def.ID, &def.Name, &def.Description, &status,
		&trigger, &steps, &settings, &owner, &def.CreatedAt, &def.UpdatedAt)
	if err != nil {
		return nil, err
	}

	def.Status = models.WorkflowStatus(status)
	def.Owner = owner.String

	if err := json.Unmarshal(trigger, &def.Trigger); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trigger: %w", err)
	}

	if err := json.Unmarshal(steps, &def.Steps); err != nil {
		return nil, fmt.Errorf("failed to unmarshal steps: %w", err)
	}

	if err := json.Unmarshal(settings, &def.Settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}

	return &def, nil
}
