package web_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/models"
	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/persistence/file"
	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/registry"
	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/services"
	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/web"
)

func setupTestApp(t *testing.T) (*fiber.App, *services.Workflow) {
	t.Helper()

	logger := slog.Default()
	reg := registry.NewDefaultRegistry(logger)
	workflowService := services.NewWorkflow(logger, file.NewPersistence(t.TempDir()), nil, reg)
	validate := validator.New(validator.WithRequiredStructEnabled())

	handlers := web.NewAPIHandlers(logger, workflowService, nil, validate, reg)

	app := fiber.New()

	app.Get("/node-types", handlers.GetNodeTypes)

	w := app.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Get("/:id", handlers.GetWorkflow)
	w.Patch("/:id", handlers.UpdateWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)
	w.Get("/:id/graph", handlers.GetWorkflowGraph)
	w.Put("/:id/graph", handlers.SaveWorkflowGraph)
	w.Post("/:id/validate", handlers.ValidateWorkflowGraph)
	w.Post("/:id/activate", handlers.ActivateWorkflow)
	w.Post("/:id/pause", handlers.PauseWorkflow)
	w.Post("/:id/archive", handlers.ArchiveWorkflow)

	return app, workflowService
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader

	if body != nil {
		if raw, ok := body.(string); ok {
			reader = bytes.NewBufferString(raw)
		} else {
			data, err := json.Marshal(body)
			require.NoError(t, err)
			reader = bytes.NewBuffer(data)
		}
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, payload
}

// validGraphPayload wires a tag_added trigger into a send_email step.
func validGraphPayload(name string) web.GraphPayload {
	return web.GraphPayload{
		Name: name,
		Nodes: []web.GraphNode{
			{
				ID:       "n1",
				Type:     models.NodeTypeTagAdded,
				Config:   json.RawMessage(`{"tag_id":"tag-1"}`),
				Position: models.Position{X: 400, Y: 60},
			},
			{
				ID:       "n2",
				Type:     models.NodeTypeSendEmail,
				Label:    "Welcome Email",
				Config:   json.RawMessage(`{"template_id":"tpl-1"}`),
				Position: models.Position{X: 400, Y: 200},
			},
		},
		Edges: []web.GraphEdge{
			{ID: "e1", SourceNodeID: "n1", TargetNodeID: "n2"},
		},
	}
}

func createWorkflow(t *testing.T, app *fiber.App, name string) models.WorkflowDefinition {
	t.Helper()

	resp, body := doJSON(t, app, http.MethodPost, "/workflows", web.CreateWorkflowRequest{Name: name})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.WorkflowDefinition
	require.NoError(t, json.Unmarshal(body, &created))

	return created
}

func TestAPIHandlers_CreateWorkflow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		requestBody    any
		expectedStatus int
	}{
		{
			name:           "successful creation",
			requestBody:    web.CreateWorkflowRequest{Name: "Onboarding", Owner: "user-1"},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "missing name",
			requestBody:    web.CreateWorkflowRequest{Description: "no name"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid JSON",
			requestBody:    "not-json",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app, _ := setupTestApp(t)

			resp, body := doJSON(t, app, http.MethodPost, "/workflows", tt.requestBody)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusCreated {
				var workflow models.WorkflowDefinition
				require.NoError(t, json.Unmarshal(body, &workflow))
				assert.NotEmpty(t, workflow.ID)
				assert.Equal(t, models.WorkflowStatusDraft, workflow.Status)
			}
		})
	}
}

func TestAPIHandlers_GetWorkflow(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)
	created := createWorkflow(t, app, "Lookup Target")

	resp, body := doJSON(t, app, http.MethodGet, "/workflows/"+created.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var fetched models.WorkflowDefinition
	require.NoError(t, json.Unmarshal(body, &fetched))
	assert.Equal(t, created.ID, fetched.ID)

	resp, _ = doJSON(t, app, http.MethodGet, "/workflows/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_UpdateWorkflow(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)
	created := createWorkflow(t, app, "Before")

	name := "After"
	resp, body := doJSON(t, app, http.MethodPatch, "/workflows/"+created.ID, web.UpdateWorkflowRequest{Name: &name})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated models.WorkflowDefinition
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, "After", updated.Name)
}

func TestAPIHandlers_DeleteWorkflow(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)
	created := createWorkflow(t, app, "Doomed")

	resp, _ := doJSON(t, app, http.MethodDelete, "/workflows/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodDelete, "/workflows/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_SaveAndGetGraph(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)
	created := createWorkflow(t, app, "Graph Holder")

	resp, body := doJSON(t, app, http.MethodPut, "/workflows/"+created.ID+"/graph", validGraphPayload("Graph Holder"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var saved models.WorkflowDefinition
	require.NoError(t, json.Unmarshal(body, &saved))
	assert.Equal(t, models.NodeTypeTagAdded, saved.Trigger.Type)
	require.Len(t, saved.Steps, 1)

	resp, body = doJSON(t, app, http.MethodGet, "/workflows/"+created.ID+"/graph", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var graph web.GraphPayload
	require.NoError(t, json.Unmarshal(body, &graph))
	assert.Len(t, graph.Nodes, 2)
	assert.Len(t, graph.Edges, 1)
	assert.Equal(t, models.NodeKindTrigger, graph.Nodes[0].Kind)
}

func TestAPIHandlers_SaveGraph_InvalidGraph(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)
	created := createWorkflow(t, app, "Broken")

	// No trigger node at all.
	payload := web.GraphPayload{
		Name: "Broken",
		Nodes: []web.GraphNode{
			{ID: "n1", Type: models.NodeTypeSendEmail, Config: json.RawMessage(`{"template_id":"tpl-1"}`)},
		},
	}

	resp, body := doJSON(t, app, http.MethodPut, "/workflows/"+created.ID+"/graph", payload)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var problem struct {
		Errors map[string][]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(body, &problem))
	assert.NotEmpty(t, problem.Errors)
}

func TestAPIHandlers_SaveGraph_UnknownNodeType(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)
	created := createWorkflow(t, app, "Typo")

	payload := web.GraphPayload{
		Name: "Typo",
		Nodes: []web.GraphNode{
			{ID: "n1", Type: "teleport_contact"},
		},
	}

	resp, _ := doJSON(t, app, http.MethodPut, "/workflows/"+created.ID+"/graph", payload)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPIHandlers_SaveGraph_BadConfig(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)
	created := createWorkflow(t, app, "Bad Config")

	payload := validGraphPayload("Bad Config")
	// send_email without its required template_id.
	payload.Nodes[1].Config = json.RawMessage(`{"subject":"no template"}`)

	resp, _ := doJSON(t, app, http.MethodPut, "/workflows/"+created.ID+"/graph", payload)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPIHandlers_ValidateGraph(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)
	created := createWorkflow(t, app, "Checked")

	resp, body := doJSON(t, app, http.MethodPost, "/workflows/"+created.ID+"/validate", validGraphPayload("Checked"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Valid  bool                `json:"valid"`
		Errors map[string][]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(body, &result))
	assert.True(t, result.Valid)

	// Validation reports problems without persisting or rejecting.
	broken := web.GraphPayload{Name: ""}
	resp, body = doJSON(t, app, http.MethodPost, "/workflows/"+created.ID+"/validate", broken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, json.Unmarshal(body, &result))
	assert.False(t, result.Valid)
	assert.NotEmpty(t, result.Errors)
}

func TestAPIHandlers_LifecycleTransitions(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)
	created := createWorkflow(t, app, "Lifecycle")

	// Activation requires a valid stored graph.
	resp, _ := doJSON(t, app, http.MethodPost, "/workflows/"+created.ID+"/activate", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPut, "/workflows/"+created.ID+"/graph", validGraphPayload("Lifecycle"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodPost, "/workflows/"+created.ID+"/activate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var workflow models.WorkflowDefinition
	require.NoError(t, json.Unmarshal(body, &workflow))
	assert.Equal(t, models.WorkflowStatusActive, workflow.Status)

	resp, _ = doJSON(t, app, http.MethodPost, "/workflows/"+created.ID+"/pause", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/workflows/"+created.ID+"/archive", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Archived workflows reject further graph saves.
	resp, _ = doJSON(t, app, http.MethodPut, "/workflows/"+created.ID+"/graph", validGraphPayload("Lifecycle"))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// And further transitions.
	resp, _ = doJSON(t, app, http.MethodPost, "/workflows/"+created.ID+"/activate", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAPIHandlers_GetWorkflows(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)
	createWorkflow(t, app, "Alpha")
	createWorkflow(t, app, "Beta")

	resp, body := doJSON(t, app, http.MethodGet, "/workflows/?sort_by=name&sort_order=asc", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Workflows  []models.WorkflowDefinition `json:"workflows"`
		TotalCount int64                       `json:"total_count"`
	}
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, int64(2), result.TotalCount)
	require.Len(t, result.Workflows, 2)
	assert.Equal(t, "Alpha", result.Workflows[0].Name)

	resp, _ = doJSON(t, app, http.MethodGet, "/workflows/?sort_by=owner", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/workflows/?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPIHandlers_GetNodeTypes(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/node-types", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		NodeTypes []struct {
			Type string          `json:"type"`
			Kind models.NodeKind `json:"kind"`
		} `json:"node_types"`
	}
	require.NoError(t, json.Unmarshal(body, &result))
	assert.NotEmpty(t, result.NodeTypes)
}

func TestAPIHandlers_DraftEndpointsWithoutStore(t *testing.T) {
	t.Parallel()

	logger := slog.Default()
	reg := registry.NewDefaultRegistry(logger)
	workflowService := services.NewWorkflow(logger, file.NewPersistence(t.TempDir()), nil, reg)
	validate := validator.New(validator.WithRequiredStructEnabled())
	handlers := web.NewAPIHandlers(logger, workflowService, nil, validate, reg)

	app := fiber.New()
	app.Get("/workflows/:id/draft", handlers.GetDraft)

	resp, _ := doJSON(t, app, http.MethodGet, "/workflows/any/draft", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
