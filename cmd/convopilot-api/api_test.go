package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convopilot/convopilot/pkg/bots"
	"github.com/convopilot/convopilot/pkg/cmd"
	"github.com/convopilot/convopilot/pkg/integrations"
	"github.com/convopilot/convopilot/pkg/lifecycle"
	"github.com/convopilot/convopilot/pkg/models"
	"github.com/convopilot/convopilot/pkg/store/file"
)

func setupTestApp(tempDir string) *fiber.App {
	registry := cmd.NewNodeRegistry(slog.Default())

	controller := lifecycle.NewController(
		slog.Default(),
		file.NewStore(tempDir),
		registry,
		bots.AllowAll{},
		integrations.NewStaticAllowList("crm"),
	)

	api := NewAPI(slog.Default(), controller, registry)

	return api.App()
}

func TestAPI_RootEndpoint(t *testing.T) {
	app := setupTestApp(t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "Convopilot API", string(body))
}

func TestAPI_Liveness(t *testing.T) {
	app := setupTestApp(t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/livez", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_CORS_Headers(t *testing.T) {
	app := setupTestApp(t.TempDir())

	req := httptest.NewRequest(http.MethodOptions, "/bots/bot-1/versions", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestAPI_Integration_VersionLifecycle(t *testing.T) {
	app := setupTestApp(t.TempDir())

	blueprint := map[string]any{
		"entry_node_id": "start",
		"nodes": []map[string]any{
			{"id": "start", "type": "trigger", "config": map[string]any{"event": "message_received"}},
			{"id": "welcome", "type": "message", "config": map[string]any{"text": "Hello!"}},
		},
		"edges": []map[string]any{
			{"id": "e1", "from": "start", "to": "welcome"},
		},
	}

	payload, err := json.Marshal(blueprint)
	require.NoError(t, err)

	// Submit a blueprint
	req := httptest.NewRequest(http.MethodPost, "/bots/bot-1/versions", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	// Activate version 1
	req = httptest.NewRequest(http.MethodPost, "/bots/bot-1/versions/1/activate", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// The active version is now version 1
	req = httptest.NewRequest(http.MethodGet, "/bots/bot-1/versions/active", nil)
	req.Header.Set("Accept", "application/json")
	resp, err = app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var active models.WorkflowVersion

	err = json.NewDecoder(resp.Body).Decode(&active)
	require.NoError(t, err)
	assert.Equal(t, 1, active.Version)
	assert.Equal(t, models.VersionStatusActive, active.Status)
	require.NotNil(t, active.CompiledDocument)
	assert.Equal(t, models.CompiledSchemaVersion, active.CompiledDocument.SchemaVersion)
}
