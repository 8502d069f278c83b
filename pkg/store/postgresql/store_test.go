package postgresql_test

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/convopilot/convopilot/pkg/models"
	"github.com/convopilot/convopilot/pkg/store"
	"github.com/convopilot/convopilot/pkg/store/postgresql"
)

var postgresContainer *postgres.PostgresContainer

func dropDb(ctx context.Context, t *testing.T, databaseURL string) {
	t.Helper()

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	// Drop tables in reverse dependency order (children first, parents last)
	for _, table := range []string{"workflow_versions", "bots", "schema_migrations"} {
		_, err = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE")
		require.NoError(t, err)
	}

	err = db.Close()
	require.NoError(t, err)
}

func setupTestDB(t *testing.T) (*postgresql.Store, context.Context) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error

		postgresContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("convopilot_test"),
			postgres.WithUsername("convopilot"),
			postgres.WithPassword("convopilot"),
			postgres.BasicWaitStrategies(),
		)
		require.NoError(t, err)
	}

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	dropDb(ctx, t, databaseURL)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	pgStore, err := postgresql.NewStore(ctx, logger, databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		dropDb(ctx, t, databaseURL)

		err = pgStore.Close(ctx)
		require.NoError(t, err)

		cancel()
	})

	return pgStore, ctx
}

func seedBot(ctx context.Context, t *testing.T, s *postgresql.Store, botID string) {
	t.Helper()

	err := s.Bots().Register(ctx, botID, "Test Bot")
	require.NoError(t, err)
}

func testBlueprint(botID string) *models.Blueprint {
	return &models.Blueprint{
		BotID:       botID,
		EntryNodeID: "start",
		Nodes: []*models.Node{
			{ID: "start", Type: models.NodeTypeTrigger, Config: map[string]any{"event": "message_received"}},
			{ID: "welcome", Type: models.NodeTypeMessage, Config: map[string]any{"text": "Hello!"}},
		},
		Edges: []*models.Edge{
			{ID: "e1", From: "start", To: "welcome"},
		},
	}
}

func testDocument(botID string) *models.CompiledDocument {
	return &models.CompiledDocument{
		SchemaVersion: models.CompiledSchemaVersion,
		BotID:         botID,
		Entry:         "start",
		Nodes: []*models.CompiledNode{
			{ID: "start", Kind: "entry", Ports: []string{"main"}},
			{ID: "welcome", Kind: "send-message", Ports: []string{"main"}, Params: map[string]any{"text": "Hello!"}},
		},
		Routes: []*models.CompiledRoute{
			{From: "start", Port: "main", To: "welcome"},
		},
	}
}

func TestNewStore_Migrations(t *testing.T) {
	s, ctx := setupTestDB(t)

	err := s.HealthCheck(ctx)
	assert.NoError(t, err)
}

func TestStore_CreateDraft_Sequencing(t *testing.T) {
	s, ctx := setupTestDB(t)
	seedBot(ctx, t, s, "bot-1")

	for want := 1; want <= 3; want++ {
		version, err := s.CreateDraft(ctx, "bot-1", testBlueprint("bot-1"), testDocument("bot-1"))
		require.NoError(t, err)

		assert.Equal(t, want, version.Version)
		assert.Equal(t, models.VersionStatusDraft, version.Status)
	}
}

func TestStore_ActivateLifecycle(t *testing.T) {
	s, ctx := setupTestDB(t)
	seedBot(ctx, t, s, "bot-1")

	_, err := s.CreateDraft(ctx, "bot-1", testBlueprint("bot-1"), testDocument("bot-1"))
	require.NoError(t, err)
	_, err = s.CreateDraft(ctx, "bot-1", testBlueprint("bot-1"), testDocument("bot-1"))
	require.NoError(t, err)

	v1, err := s.Activate(ctx, "bot-1", 1)
	require.NoError(t, err)
	assert.Equal(t, models.VersionStatusActive, v1.Status)
	require.NotNil(t, v1.ActivatedAt)

	v2, err := s.Activate(ctx, "bot-1", 2)
	require.NoError(t, err)
	assert.Equal(t, models.VersionStatusActive, v2.Status)

	demoted, err := s.Get(ctx, "bot-1", 1)
	require.NoError(t, err)
	assert.Equal(t, models.VersionStatusInactive, demoted.Status)
	assert.NotNil(t, demoted.ActivatedAt)

	active, err := s.Active(ctx, "bot-1")
	require.NoError(t, err)
	assert.Equal(t, 2, active.Version)
}

func TestStore_Activate_ConcurrentSingleActive(t *testing.T) {
	s, ctx := setupTestDB(t)
	seedBot(ctx, t, s, "bot-1")

	const versions = 5

	for range versions {
		_, err := s.CreateDraft(ctx, "bot-1", testBlueprint("bot-1"), testDocument("bot-1"))
		require.NoError(t, err)
	}

	var wg sync.WaitGroup

	for n := 1; n <= versions; n++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			// The advisory bot lock serializes promotions; losers either
			// succeed after the winner or surface as a conflict to retry.
			_, err := s.Activate(ctx, "bot-1", n)
			if err != nil {
				assert.True(t, store.IsConcurrentModification(err), "unexpected error: %v", err)
			}
		}()
	}

	wg.Wait()

	summaries, err := s.List(ctx, "bot-1")
	require.NoError(t, err)
	require.Len(t, summaries, versions)

	activeCount := 0

	for _, summary := range summaries {
		if summary.Status == models.VersionStatusActive {
			activeCount++
		}
	}

	assert.Equal(t, 1, activeCount, "exactly one version stays active")
}

func TestStore_ArchiveRules(t *testing.T) {
	s, ctx := setupTestDB(t)
	seedBot(ctx, t, s, "bot-1")

	_, err := s.CreateDraft(ctx, "bot-1", testBlueprint("bot-1"), testDocument("bot-1"))
	require.NoError(t, err)
	_, err = s.CreateDraft(ctx, "bot-1", testBlueprint("bot-1"), testDocument("bot-1"))
	require.NoError(t, err)

	_, err = s.Activate(ctx, "bot-1", 1)
	require.NoError(t, err)

	_, err = s.Archive(ctx, "bot-1", 1)
	require.Error(t, err)
	assert.True(t, store.IsCannotArchiveActive(err))

	archived, err := s.Archive(ctx, "bot-1", 2)
	require.NoError(t, err)
	assert.Equal(t, models.VersionStatusArchived, archived.Status)
	require.NotNil(t, archived.ArchivedAt)

	_, err = s.Activate(ctx, "bot-1", 2)
	require.Error(t, err)
	assert.True(t, store.IsAlreadyArchived(err))
}

func TestStore_ListAndRoundTrip(t *testing.T) {
	s, ctx := setupTestDB(t)
	seedBot(ctx, t, s, "bot-1")

	created, err := s.CreateDraft(ctx, "bot-1", testBlueprint("bot-1"), testDocument("bot-1"))
	require.NoError(t, err)

	got, err := s.Get(ctx, "bot-1", created.Version)
	require.NoError(t, err)
	require.NotNil(t, got.BlueprintSnapshot)
	assert.Equal(t, "start", got.BlueprintSnapshot.EntryNodeID)
	require.NotNil(t, got.CompiledDocument)
	assert.Len(t, got.CompiledDocument.Nodes, 2)

	summaries, err := s.List(ctx, "bot-1")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 2, summaries[0].NodeCount)
}

func TestStore_NotFoundErrors(t *testing.T) {
	s, ctx := setupTestDB(t)
	seedBot(ctx, t, s, "bot-1")

	_, err := s.Get(ctx, "bot-1", 42)
	require.Error(t, err)
	assert.True(t, store.IsVersionNotFound(err))

	_, err = s.Active(ctx, "bot-1")
	require.Error(t, err)
	assert.True(t, store.IsNoActiveVersion(err))
}

func TestBotRepository_Exists(t *testing.T) {
	s, ctx := setupTestDB(t)
	seedBot(ctx, t, s, "bot-1")

	exists, err := s.Bots().Exists(ctx, "bot-1")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.Bots().Exists(ctx, "bot-unknown")
	require.NoError(t, err)
	assert.False(t, exists)
}
