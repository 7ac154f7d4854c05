package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/editor"
	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/eventbus"
	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/events"
	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/models"
	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/otelhelper"
	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/persistence"
)

var (
	// ErrWorkflowNotFound is returned when a workflow is not found.
	ErrWorkflowNotFound = persistence.ErrWorkflowNotFound
)

// Workflow orchestrates editing, validation, and lifecycle of workflow
// definitions on top of the persistence and event layers.
type Workflow struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	catalog     editor.Catalog
	tracer      trace.Tracer
}

// NewWorkflow creates a new workflow service.
func NewWorkflow(
	logger *slog.Logger,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	catalog editor.Catalog,
) *Workflow {
	return &Workflow{
		logger:      logger.With("service", "workflow"),
		persistence: persistence,
		eventBus:    eventBus,
		catalog:     catalog,
		tracer:      otel.Tracer("workflow-service"),
	}
}

// HealthCheck checks the health of the persistence layer.
func (w *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if w.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := w.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// ListWorkflowsRequest contains options for listing workflows.
type ListWorkflowsRequest struct {
	// Pagination
	Limit  int `validate:"min=1,max=100"`
	Offset int `validate:"min=0"`

	// Filtering
	Owner  string
	Status *models.WorkflowStatus

	// Sorting
	SortBy    string `validate:"oneof=created_at updated_at name"`
	SortOrder string `validate:"oneof=asc desc"`
}

// ListWorkflowsResponse contains the result of listing workflows.
type ListWorkflowsResponse struct {
	Workflows   []*models.WorkflowDefinition `json:"workflows"`
	TotalCount  int64                        `json:"total_count"`
	HasNextPage bool                         `json:"has_next_page"`
}

// ListWorkflows retrieves workflows with filtering, sorting, and pagination.
func (w *Workflow) ListWorkflows(ctx context.Context, req ListWorkflowsRequest) (*ListWorkflowsResponse, error) {
	if err := w.validateListWorkflowsRequest(&req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	opts := persistence.ListWorkflowsOptions{
		Limit:     req.Limit,
		Offset:    req.Offset,
		Owner:     req.Owner,
		Status:    req.Status,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
	}

	result, err := w.persistence.WorkflowRepository().ListWorkflows(ctx, opts)
	if err != nil {
		if persistence.IsInvalidSortField(err) {
			return nil, ErrInvalidSortField
		}

		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	return &ListWorkflowsResponse{
		Workflows:   result.Workflows,
		TotalCount:  result.TotalCount,
		HasNextPage: result.HasNextPage,
	}, nil
}

// validateListWorkflowsRequest validates and sets defaults for the request.
func (w *Workflow) validateListWorkflowsRequest(req *ListWorkflowsRequest) error {
	if req.Limit <= 0 {
		req.Limit = 20
	}

	if req.Limit > 100 {
		req.Limit = 100
	}

	if req.Offset < 0 {
		req.Offset = 0
	}

	if req.SortBy == "" {
		req.SortBy = "created_at"
	}

	if req.SortOrder == "" {
		req.SortOrder = "desc"
	}

	allowedSorts := []string{"created_at", "updated_at", "name"}

	if !slices.Contains(allowedSorts, req.SortBy) {
		return NewValidationError(
			"validateListWorkflowsRequest",
			"INVALID_SORT_FIELD",
			fmt.Sprintf("invalid sort field '%s', allowed: %s", req.SortBy, strings.Join(allowedSorts, ", ")),
			ErrInvalidSortField,
		)
	}

	if req.SortOrder != "asc" && req.SortOrder != "desc" {
		return NewValidationError(
			"validateListWorkflowsRequest",
			"INVALID_SORT_ORDER",
			fmt.Sprintf("invalid sort order '%s', allowed: asc, desc", req.SortOrder),
			ErrInvalidSortOrder,
		)
	}

	if req.Status != nil && !models.ValidStatus(*req.Status) {
		return NewValidationError(
			"validateListWorkflowsRequest",
			"INVALID_STATUS",
			fmt.Sprintf("invalid status '%s'", *req.Status),
			ErrInvalidStatus,
		)
	}

	req.Owner = strings.TrimSpace(req.Owner)

	return nil
}

// FetchByID retrieves a workflow by its ID.
func (w *Workflow) FetchByID(ctx context.Context, id string) (*models.WorkflowDefinition, error) {
	workflow, err := w.persistence.WorkflowRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if workflow == nil {
		return nil, ErrWorkflowNotFound
	}

	return workflow, nil
}

// Create adds a new workflow in draft status with an empty graph.
func (w *Workflow) Create(ctx context.Context, workflow *models.WorkflowDefinition) (*models.WorkflowDefinition, error) {
	if strings.TrimSpace(workflow.Name) == "" {
		return nil, NewValidationError(
			"Create",
			"NAME_REQUIRED",
			"workflow name is required",
			ErrInvalidRequest,
		)
	}

	now := time.Now().UTC()
	workflow.ID = uuid.New().String()
	workflow.Status = models.WorkflowStatusDraft
	workflow.CreatedAt = now
	workflow.UpdatedAt = now

	if workflow.Steps == nil {
		workflow.Steps = []*models.WorkflowStep{}
	}

	err := w.persistence.WorkflowRepository().Save(ctx, workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to create workflow: %w", err)
	}

	w.publish(ctx, workflow.ID, events.WorkflowCreated{
		BaseEvent: events.NewBaseEvent(events.WorkflowCreatedEvent, workflow.ID),
		Name:      workflow.Name,
		Owner:     workflow.Owner,
	})

	return workflow, nil
}

// UpdateWorkflowRequest carries the mutable metadata fields. Nil pointers
// leave the stored value untouched.
type UpdateWorkflowRequest struct {
	Name        *string
	Description *string
	Settings    *models.WorkflowSettings
}

// Update modifies workflow metadata by its ID. The graph is saved
// separately through SaveGraph.
func (w *Workflow) Update(
	ctx context.Context,
	workflowID string,
	req UpdateWorkflowRequest,
) (*models.WorkflowDefinition, error) {
	existing, err := w.FetchByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if existing.Status == models.WorkflowStatusArchived {
		return nil, ErrWorkflowArchived
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, NewValidationError(
				"Update",
				"NAME_REQUIRED",
				"workflow name is required",
				ErrInvalidRequest,
			)
		}

		existing.Name = *req.Name
	}

	if req.Description != nil {
		existing.Description = *req.Description
	}

	if req.Settings != nil {
		existing.Settings = *req.Settings
	}

	existing.UpdatedAt = time.Now().UTC()

	err = w.persistence.WorkflowRepository().Save(ctx, existing)
	if err != nil {
		return nil, fmt.Errorf("failed to update workflow: %w", err)
	}

	w.publish(ctx, existing.ID, events.WorkflowUpdated{
		BaseEvent: events.NewBaseEvent(events.WorkflowUpdatedEvent, existing.ID),
		Name:      existing.Name,
	})

	return existing, nil
}

// Delete removes a workflow by its ID.
func (w *Workflow) Delete(ctx context.Context, workflowID string) error {
	existing, err := w.FetchByID(ctx, workflowID)
	if err != nil {
		return err
	}

	err = w.persistence.WorkflowRepository().Delete(ctx, workflowID)
	if err != nil {
		return fmt.Errorf("failed to delete workflow: %w", err)
	}

	w.publish(ctx, existing.ID, events.WorkflowDeleted{
		BaseEvent: events.NewBaseEvent(events.WorkflowDeletedEvent, existing.ID),
	})

	return nil
}

// LoadGraph opens an editing session over the stored definition.
func (w *Workflow) LoadGraph(ctx context.Context, workflowID string) (*editor.Session, error) {
	existing, err := w.FetchByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	return editor.Load(w.logger, existing, w.catalog), nil
}

// SaveGraph validates the session's graph, serializes it, and persists it
// under the workflow's existing metadata. Archived workflows reject graph
// saves.
func (w *Workflow) SaveGraph(
	ctx context.Context,
	workflowID string,
	session *editor.Session,
) (*models.WorkflowDefinition, error) {
	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "workflow.save_graph",
		attribute.String(otelhelper.WorkflowIDKey, workflowID),
	)
	defer span.End()

	existing, err := w.FetchByID(ctx, workflowID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	if existing.Status == models.WorkflowStatusArchived {
		otelhelper.SetError(span, ErrWorkflowArchived)

		return nil, ErrWorkflowArchived
	}

	result := session.Validate()
	if !result.Valid {
		err := &GraphInvalidError{Result: result}
		otelhelper.SetError(span, err)

		return nil, err
	}

	def, err := session.Export()
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to serialize graph: %w", err)
	}

	// The session carries draft edits of the graph only. Identity,
	// ownership, and lifecycle stay with the stored record.
	def.ID = existing.ID
	def.Name = session.Name()
	def.Description = session.Description()
	def.Status = existing.Status
	def.Owner = existing.Owner
	def.CreatedAt = existing.CreatedAt
	def.UpdatedAt = time.Now().UTC()

	if def.Name == "" {
		def.Name = existing.Name
	}

	err = w.persistence.WorkflowRepository().Save(ctx, def)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to save graph: %w", err)
	}

	span.SetAttributes(
		attribute.String(otelhelper.WorkflowNameKey, def.Name),
		attribute.String(otelhelper.TriggerTypeKey, def.Trigger.Type),
		attribute.Int(otelhelper.StepCountKey, len(def.Steps)),
	)

	session.MarkClean()

	w.publish(ctx, def.ID, events.WorkflowGraphSaved{
		BaseEvent:   events.NewBaseEvent(events.WorkflowGraphSavedEvent, def.ID),
		TriggerType: def.Trigger.Type,
		StepCount:   len(def.Steps),
	})

	return def, nil
}

// Activate transitions a workflow to active. Only draft and paused
// workflows can be activated, and the stored graph must pass validation.
func (w *Workflow) Activate(ctx context.Context, workflowID string) (*models.WorkflowDefinition, error) {
	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "workflow.activate",
		attribute.String(otelhelper.WorkflowIDKey, workflowID),
	)
	defer span.End()

	existing, err := w.FetchByID(ctx, workflowID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	switch existing.Status {
	case models.WorkflowStatusDraft, models.WorkflowStatusPaused:
	default:
		err := fmt.Errorf("%w: cannot activate %s workflow", ErrInvalidTransition, existing.Status)
		otelhelper.SetError(span, err, attribute.String(otelhelper.WorkflowStatusKey, string(existing.Status)))

		return nil, err
	}

	session := editor.Load(w.logger, existing, w.catalog)

	result := session.Validate()
	if !result.Valid {
		err := &GraphInvalidError{Result: result}
		otelhelper.SetError(span, err)

		return nil, err
	}

	previous := existing.Status
	existing.Status = models.WorkflowStatusActive
	existing.UpdatedAt = time.Now().UTC()

	err = w.persistence.WorkflowRepository().Save(ctx, existing)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to activate workflow: %w", err)
	}

	span.SetAttributes(attribute.String(otelhelper.WorkflowStatusKey, string(existing.Status)))

	w.publish(ctx, existing.ID, events.WorkflowActivated{
		BaseEvent:      events.NewBaseEvent(events.WorkflowActivatedEvent, existing.ID),
		PreviousStatus: previous,
	})

	return existing, nil
}

// Pause suspends enrollment on an active workflow.
func (w *Workflow) Pause(ctx context.Context, workflowID string) (*models.WorkflowDefinition, error) {
	existing, err := w.FetchByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if existing.Status != models.WorkflowStatusActive {
		return nil, fmt.Errorf("%w: cannot pause %s workflow", ErrInvalidTransition, existing.Status)
	}

	existing.Status = models.WorkflowStatusPaused
	existing.UpdatedAt = time.Now().UTC()

	err = w.persistence.WorkflowRepository().Save(ctx, existing)
	if err != nil {
		return nil, fmt.Errorf("failed to pause workflow: %w", err)
	}

	w.publish(ctx, existing.ID, events.WorkflowPaused{
		BaseEvent: events.NewBaseEvent(events.WorkflowPausedEvent, existing.ID),
	})

	return existing, nil
}

// Archive retires a workflow from any non-archived status. Archived
// workflows are read-only from then on.
func (w *Workflow) Archive(ctx context.Context, workflowID string) (*models.WorkflowDefinition, error) {
	existing, err := w.FetchByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if existing.Status == models.WorkflowStatusArchived {
		return nil, fmt.Errorf("%w: workflow is already archived", ErrInvalidTransition)
	}

	previous := existing.Status
	existing.Status = models.WorkflowStatusArchived
	existing.UpdatedAt = time.Now().UTC()

	err = w.persistence.WorkflowRepository().Save(ctx, existing)
	if err != nil {
		return nil, fmt.Errorf("failed to archive workflow: %w", err)
	}

	w.publish(ctx, existing.ID, events.WorkflowArchived{
		BaseEvent:      events.NewBaseEvent(events.WorkflowArchivedEvent, existing.ID),
		PreviousStatus: previous,
	})

	return existing, nil
}

// publish sends a lifecycle event, logging instead of failing the
// operation when the bus is unavailable.
func (w *Workflow) publish(ctx context.Context, workflowID string, event eventbus.Event) {
	if w.eventBus == nil {
		return
	}

	if err := w.eventBus.Publish(ctx, workflowID, event); err != nil {
		w.logger.WarnContext(ctx, "failed to publish workflow event",
			"event_type", event.GetType(),
			"workflow_id", workflowID,
			"error", err)
	}
}
