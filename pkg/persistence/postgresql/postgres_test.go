//go:build integration
// +build integration

package postgresql

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/models"
	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/persistence"
	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/testutil"
)

var postgresContainer *postgres.PostgresContainer

func TestMain(m *testing.M) {
	code := m.Run()

	if postgresContainer != nil {
		_ = postgresContainer.Terminate(context.Background())
	}

	os.Exit(code)
}

// setupTestDB starts (or reuses) a PostgreSQL container and returns a
// migrated persistence instance with an empty workflows table.
func setupTestDB(t *testing.T) (*Persistence, context.Context) {
	t.Helper()

	ctx := context.Background()

	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error
		postgresContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("cornerstone_test"),
			postgres.WithUsername("cornerstone"),
			postgres.WithPassword("cornerstone"),
			postgres.BasicWaitStrategies(),
		)
		require.NoError(t, err)
	}

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	p, err := NewPersistence(ctx, logger, databaseURL)
	require.NoError(t, err)

	_, err = p.db.ExecContext(ctx, "TRUNCATE TABLE workflows")
	require.NoError(t, err)

	return p, ctx
}

func TestWorkflowRepository_SaveAndGetByID(t *testing.T) {
	p, ctx := setupTestDB(t)
	defer p.Close(ctx)

	repo := p.WorkflowRepository()

	def := testutil.CreateTestDefinition()
	require.NoError(t, repo.Save(ctx, def))

	loaded, err := repo.GetByID(ctx, def.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, def.Name, loaded.Name)
	assert.Equal(t, def.Trigger.Type, loaded.Trigger.Type)
	require.Len(t, loaded.Steps, 1)

	config, ok := loaded.Steps[0].Config.(*models.SendEmailConfig)
	require.True(t, ok)
	assert.Equal(t, "tpl-1", config.TemplateID)
}

func TestWorkflowRepository_Save_AssignsID(t *testing.T) {
	p, ctx := setupTestDB(t)
	defer p.Close(ctx)

	repo := p.WorkflowRepository()

	def := testutil.CreateTestDefinition()
	def.ID = ""

	require.NoError(t, repo.Save(ctx, def))
	assert.NotEmpty(t, def.ID)
}

func TestWorkflowRepository_Save_Upsert(t *testing.T) {
	p, ctx := setupTestDB(t)
	defer p.Close(ctx)

	repo := p.WorkflowRepository()

	def := testutil.CreateTestDefinition()
	require.NoError(t, repo.Save(ctx, def))

	def.Name = "Renamed"
	def.Status = models.WorkflowStatusActive
	require.NoError(t, repo.Save(ctx, def))

	loaded, err := repo.GetByID(ctx, def.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", loaded.Name)
	assert.Equal(t, models.WorkflowStatusActive, loaded.Status)

	result, err := repo.ListWorkflows(ctx, persistence.ListWorkflowsOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.TotalCount)
}

func TestWorkflowRepository_Delete_SoftDeletes(t *testing.T) {
	p, ctx := setupTestDB(t)
	defer p.Close(ctx)

	repo := p.WorkflowRepository()

	def := testutil.CreateTestDefinition()
	require.NoError(t, repo.Save(ctx, def))
	require.NoError(t, repo.Delete(ctx, def.ID))

	loaded, err := repo.GetByID(ctx, def.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded)

	err = repo.Delete(ctx, def.ID)
	require.True(t, persistence.IsWorkflowNotFound(err))
}

func TestWorkflowRepository_ListWorkflows_FiltersAndSorting(t *testing.T) {
	p, ctx := setupTestDB(t)
	defer p.Close(ctx)

	repo := p.WorkflowRepository()

	for _, spec := range []struct {
		name   string
		owner  string
		status models.WorkflowStatus
	}{
		{"Alpha", "me", models.WorkflowStatusActive},
		{"Beta", "me", models.WorkflowStatusDraft},
		{"Gamma", "other", models.WorkflowStatusDraft},
	} {
		def := testutil.CreateTestDefinition()
		def.Name = spec.name
		def.Owner = spec.owner
		def.Status = spec.status
		require.NoError(t, repo.Save(ctx, def))
	}

	byOwner, err := repo.ListWorkflows(ctx, persistence.ListWorkflowsOptions{
		Owner:  "me",
		SortBy: "name",
	})
	require.NoError(t, err)
	require.Len(t, byOwner.Workflows, 2)
	assert.Equal(t, "Beta", byOwner.Workflows[0].Name)

	active := models.WorkflowStatusActive
	byStatus, err := repo.ListWorkflows(ctx, persistence.ListWorkflowsOptions{Status: &active})
	require.NoError(t, err)
	require.Len(t, byStatus.Workflows, 1)
	assert.Equal(t, "Alpha", byStatus.Workflows[0].Name)

	_, err = repo.ListWorkflows(ctx, persistence.ListWorkflowsOptions{SortBy: "owner"})
	require.True(t, persistence.IsInvalidSortField(err))
}

func TestWorkflowRepository_ListWorkflows_Pagination(t *testing.T) {
	p, ctx := setupTestDB(t)
	defer p.Close(ctx)

	repo := p.WorkflowRepository()

	for range 5 {
		def := testutil.CreateTestDefinition()
		def.ID = ""
		require.NoError(t, repo.Save(ctx, def))
	}

	page, err := repo.ListWorkflows(ctx, persistence.ListWorkflowsOptions{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Workflows, 2)
	assert.Equal(t, int64(5), page.TotalCount)
	assert.True(t, page.HasNextPage)

	last, err := repo.ListWorkflows(ctx, persistence.ListWorkflowsOptions{Limit: 2, Offset: 4})
	require.NoError(t, err)
	assert.Len(t, last.Workflows, 1)
	assert.False(t, last.HasNextPage)
}

func TestPersistence_HealthCheck(t *testing.T) {
	p, ctx := setupTestDB(t)
	defer p.Close(ctx)

	require.NoError(t, p.HealthCheck(ctx))
}
