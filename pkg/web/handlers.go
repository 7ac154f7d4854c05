// Package web provides HTTP handlers and REST API endpoints for the
// workflow editor.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/drafts"
	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/models"
	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/persistence"
	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/registry"
	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/services"
)

type APIHandlers struct {
	logger          *slog.Logger
	workflowService *services.Workflow
	draftStore      *drafts.Store
	validator       *validator.Validate
	registry        *registry.Registry
}

func NewAPIHandlers(
	logger *slog.Logger,
	workflowService *services.Workflow,
	draftStore *drafts.Store,
	validator *validator.Validate,
	registry *registry.Registry,
) *APIHandlers {
	return &APIHandlers{
		logger:          logger.With("module", "web"),
		workflowService: workflowService,
		draftStore:      draftStore,
		validator:       validator,
		registry:        registry,
	}
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	req, err := h.parseListWorkflowsRequest(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters: "+err.Error())
	}

	result, err := h.workflowService.ListWorkflows(c.Context(), *req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"workflows":     result.Workflows,
		"total_count":   result.TotalCount,
		"has_next_page": result.HasNextPage,
		"pagination": fiber.Map{
			"limit":  req.Limit,
			"offset": req.Offset,
		},
		"sorting": fiber.Map{
			"sort_by":    req.SortBy,
			"sort_order": req.SortOrder,
		},
	})
}

// parseListWorkflowsRequest parses and validates query parameters for listing workflows.
func (h *APIHandlers) parseListWorkflowsRequest(c fiber.Ctx) (*services.ListWorkflowsRequest, error) {
	req := &services.ListWorkflowsRequest{}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return nil, err
		}

		req.Limit = limit
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			return nil, err
		}

		req.Offset = offset
	}

	req.Owner = c.Query("owner")

	if statusStr := c.Query("status"); statusStr != "" {
		status := models.WorkflowStatus(statusStr)
		req.Status = &status
	}

	req.SortBy = c.Query("sort_by")
	req.SortOrder = c.Query("sort_order")

	return req, nil
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	workflow, err := h.workflowService.FetchByID(c.Context(), id)
	if err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return notFound(c, "Workflow not found")
		}

		return internalError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req CreateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	workflow := &models.WorkflowDefinition{
		Name:        req.Name,
		Description: req.Description,
		Owner:       req.Owner,
	}

	if req.Settings != nil {
		workflow.Settings = *req.Settings
	}

	created, err := h.workflowService.Create(c.Context(), workflow)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var req UpdateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	updated, err := h.workflowService.Update(c.Context(), id, services.UpdateWorkflowRequest{
		Name:        req.Name,
		Description: req.Description,
		Settings:    req.Settings,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	err := h.workflowService.Delete(c.Context(), id)
	if err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return notFound(c, "Workflow not found")
		}

		return internalError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// GetWorkflowGraph returns the stored definition rebuilt into canvas form.
func (h *APIHandlers) GetWorkflowGraph(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	session, err := h.workflowService.LoadGraph(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	payload, err := sessionPayload(session)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(payload)
}

// SaveWorkflowGraph validates and persists the submitted canvas, replacing
// the stored definition's trigger and steps.
func (h *APIHandlers) SaveWorkflowGraph(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var payload GraphPayload
	if err := c.Bind().JSON(&payload); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	session, err := buildSession(h.logger, h.registry, &payload)
	if err != nil {
		return badRequest(c, err.Error())
	}

	saved, err := h.workflowService.SaveGraph(c.Context(), id, session)
	if err != nil {
		return handleServiceError(c, err)
	}

	if h.draftStore != nil {
		// A saved graph supersedes any pending draft.
		if err := h.draftStore.Discard(c.Context(), id); err != nil {
			h.logger.WarnContext(c.Context(), "failed to discard draft after save",
				"workflow_id", id, "error", err)
		}
	}

	return c.JSON(saved)
}

// ValidateWorkflowGraph runs structural validation on the submitted canvas
// without persisting anything.
func (h *APIHandlers) ValidateWorkflowGraph(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var payload GraphPayload
	if err := c.Bind().JSON(&payload); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	session, err := buildSession(h.logger, h.registry, &payload)
	if err != nil {
		return badRequest(c, err.Error())
	}

	return c.JSON(session.Validate())
}

func (h *APIHandlers) ActivateWorkflow(c fiber.Ctx) error {
	return h.transition(c, h.workflowService.Activate)
}

func (h *APIHandlers) PauseWorkflow(c fiber.Ctx) error {
	return h.transition(c, h.workflowService.Pause)
}

func (h *APIHandlers) ArchiveWorkflow(c fiber.Ctx) error {
	return h.transition(c, h.workflowService.Archive)
}

func (h *APIHandlers) transition(
	c fiber.Ctx,
	apply func(ctx context.Context, id string) (*models.WorkflowDefinition, error),
) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	workflow, err := apply(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

// GetDraft returns the unsaved canvas state previously stashed for this
// workflow.
func (h *APIHandlers) GetDraft(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	if h.draftStore == nil {
		return draftsUnavailable(c)
	}

	data, err := h.draftStore.Load(c.Context(), id)
	if err != nil {
		if drafts.IsDraftNotFound(err) {
			return notFound(c, "No draft for this workflow")
		}

		return internalError(c, err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	return c.Send(data)
}

// SaveDraft stashes the raw canvas payload without validation. Drafts are
// allowed to be structurally broken.
func (h *APIHandlers) SaveDraft(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	if h.draftStore == nil {
		return draftsUnavailable(c)
	}

	var payload GraphPayload
	if err := c.Bind().JSON(&payload); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if _, err := h.workflowService.FetchByID(c.Context(), id); err != nil {
		return handleServiceError(c, err)
	}

	if err := h.draftStore.Save(c.Context(), id, c.Body()); err != nil {
		return internalError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) DiscardDraft(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	if h.draftStore == nil {
		return draftsUnavailable(c)
	}

	if err := h.draftStore.Discard(c.Context(), id); err != nil {
		return internalError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// GetNodeTypes lists the registered node catalog for the editor palette.
func (h *APIHandlers) GetNodeTypes(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"node_types": h.registry.Definitions(),
	})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	registryCheck, regOk := h.registry.HealthCheck()
	repositoryCheck, repOk := h.workflowService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Workflow API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if regOk && repOk {
		status = "healthy"
		message = "Workflow API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"registry":   registryCheck,
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

func draftsUnavailable(c fiber.Ctx) error {
	problem := problems.NewStatusProblem(503).
		WithInstance(c.Path()).
		WithType("drafts_unavailable").
		WithDetail("draft storage is not configured")

	return c.Status(fiber.StatusServiceUnavailable).JSON(problem)
}
