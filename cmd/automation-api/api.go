// Package main provides the automation API server implementation.
package main

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/drafts"
	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/eventbus"
	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/otelhelper"
	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/persistence"
	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/registry"
	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/services"
	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
	draftStore  *drafts.Store
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	registry *registry.Registry,
	eventBus eventbus.EventBus,
	draftStore *drafts.Store,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		registry:    registry,
		eventBus:    eventBus,
		draftStore:  draftStore,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	workflowService := services.NewWorkflow(a.logger, a.persistence, a.eventBus, a.registry)

	handlers := web.NewAPIHandlers(a.logger, workflowService, a.draftStore, a.validate, a.registry)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Cornerstone Automation API")
	})

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

	w.Get("/:id/draft", handlers.GetDraft)
	w.Put("/:id/draft", handlers.SaveDraft)
	w.Delete("/:id/draft", handlers.DiscardDraft)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	ctx := context.Background()

	if _, err := otelhelper.NewTracer(ctx, "automation-api"); err != nil {
		a.logger.WarnContext(ctx, "Tracing disabled", "error", err)
	}

	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
