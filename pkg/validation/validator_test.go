package validation_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convopilot/convopilot/pkg/integrations"
	"github.com/convopilot/convopilot/pkg/models"
	"github.com/convopilot/convopilot/pkg/nodelib"
	"github.com/convopilot/convopilot/pkg/validation"
)

func testRegistry(t *testing.T) *nodelib.Registry {
	t.Helper()

	registry := nodelib.NewRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)))
	registry.RegisterDefaultTemplates()

	return registry
}

func testAllowList() integrations.AllowList {
	return integrations.NewStaticAllowList("crm", "payments")
}

func triggerNode(id string) *models.Node {
	return &models.Node{
		ID:     id,
		Type:   models.NodeTypeTrigger,
		Config: map[string]any{"event": "message_received"},
	}
}

func messageNode(id, text string) *models.Node {
	return &models.Node{
		ID:     id,
		Type:   models.NodeTypeMessage,
		Config: map[string]any{"text": text},
	}
}

func TestValidate_ValidBlueprint(t *testing.T) {
	blueprint := &models.Blueprint{
		BotID:       "bot-1",
		EntryNodeID: "start",
		Nodes: []*models.Node{
			triggerNode("start"),
			messageNode("welcome", "Hello!"),
		},
		Edges: []*models.Edge{
			{ID: "e1", From: "start", To: "welcome"},
		},
	}

	result := validation.Validate(blueprint, testRegistry(t), testAllowList())

	assert.True(t, result.Valid)
	assert.Empty(t, result.Findings)
}

func TestValidate_EmptyBlueprint(t *testing.T) {
	blueprint := &models.Blueprint{BotID: "bot-1", EntryNodeID: "start"}

	result := validation.Validate(blueprint, testRegistry(t), testAllowList())

	assert.False(t, result.Valid)
	assert.True(t, result.HasFinding(models.FindingEmptyBlueprint))
}

func TestValidate_UnknownNodeType(t *testing.T) {
	blueprint := &models.Blueprint{
		BotID:       "bot-1",
		EntryNodeID: "start",
		Nodes: []*models.Node{
			triggerNode("start"),
			{ID: "mystery", Type: "teleport", Config: map[string]any{}},
		},
		Edges: []*models.Edge{
			{ID: "e1", From: "start", To: "mystery"},
		},
	}

	result := validation.Validate(blueprint, testRegistry(t), testAllowList())

	assert.False(t, result.Valid)
	assert.True(t, result.HasFinding(models.FindingUnknownNodeType))
}

func TestValidate_InvalidNodeConfig(t *testing.T) {
	blueprint := &models.Blueprint{
		BotID:       "bot-1",
		EntryNodeID: "start",
		Nodes: []*models.Node{
			triggerNode("start"),
			{ID: "msg", Type: models.NodeTypeMessage, Config: map[string]any{"buttons": []any{"yes"}}},
		},
		Edges: []*models.Edge{
			{ID: "e1", From: "start", To: "msg"},
		},
	}

	result := validation.Validate(blueprint, testRegistry(t), testAllowList())

	assert.False(t, result.Valid)
	assert.True(t, result.HasFinding(models.FindingInvalidNodeConfig))
}

func TestValidate_UnknownEntryNode(t *testing.T) {
	blueprint := &models.Blueprint{
		BotID:       "bot-1",
		EntryNodeID: "missing",
		Nodes:       []*models.Node{triggerNode("start")},
	}

	result := validation.Validate(blueprint, testRegistry(t), testAllowList())

	assert.False(t, result.Valid)
	assert.True(t, result.HasFinding(models.FindingUnknownEntryNode))
}

func TestValidate_DanglingEdge(t *testing.T) {
	blueprint := &models.Blueprint{
		BotID:       "bot-1",
		EntryNodeID: "start",
		Nodes:       []*models.Node{triggerNode("start")},
		Edges: []*models.Edge{
			{ID: "e1", From: "start", To: "ghost"},
		},
	}

	result := validation.Validate(blueprint, testRegistry(t), testAllowList())

	assert.False(t, result.Valid)
	assert.True(t, result.HasFinding(models.FindingDanglingEdge))
}

func TestValidate_DuplicateNodeID(t *testing.T) {
	blueprint := &models.Blueprint{
		BotID:       "bot-1",
		EntryNodeID: "start",
		Nodes: []*models.Node{
			triggerNode("start"),
			messageNode("dup", "first"),
			messageNode("dup", "second"),
		},
		Edges: []*models.Edge{
			{ID: "e1", From: "start", To: "dup"},
		},
	}

	result := validation.Validate(blueprint, testRegistry(t), testAllowList())

	assert.False(t, result.Valid)
	assert.True(t, result.HasFinding(models.FindingDuplicateNodeID))
}

func TestValidate_DuplicateEdge(t *testing.T) {
	blueprint := &models.Blueprint{
		BotID:       "bot-1",
		EntryNodeID: "start",
		Nodes: []*models.Node{
			triggerNode("start"),
			messageNode("msg", "Hello!"),
		},
		Edges: []*models.Edge{
			{ID: "e1", From: "start", To: "msg"},
			{ID: "e2", From: "start", To: "msg"},
		},
	}

	result := validation.Validate(blueprint, testRegistry(t), testAllowList())

	assert.False(t, result.Valid)
	assert.True(t, result.HasFinding(models.FindingDuplicateEdge))
}

func TestValidate_MissingDefaultEdge(t *testing.T) {
	blueprint := &models.Blueprint{
		BotID:       "bot-1",
		EntryNodeID: "start",
		Nodes: []*models.Node{
			triggerNode("start"),
			{ID: "check", Type: models.NodeTypeCondition, Config: map[string]any{"expression": "{{opted_in}}"}},
			messageNode("yes", "Welcome back!"),
		},
		Edges: []*models.Edge{
			{ID: "e1", From: "start", To: "check"},
			{ID: "e2", From: "check", To: "yes", Label: "true"},
		},
	}

	result := validation.Validate(blueprint, testRegistry(t), testAllowList())

	assert.False(t, result.Valid)
	assert.True(t, result.HasFinding(models.FindingMissingDefaultEdge))
}

func TestValidate_ConditionWithElseEdge(t *testing.T) {
	blueprint := &models.Blueprint{
		BotID:       "bot-1",
		EntryNodeID: "start",
		Nodes: []*models.Node{
			triggerNode("start"),
			{ID: "check", Type: models.NodeTypeCondition, Config: map[string]any{"expression": "{{opted_in}}"}},
			messageNode("yes", "Welcome back!"),
			messageNode("no", "Please opt in first."),
		},
		Edges: []*models.Edge{
			{ID: "e1", From: "start", To: "check"},
			{ID: "e2", From: "check", To: "yes", Label: "true"},
			{ID: "e3", From: "check", To: "no", Label: "else"},
		},
	}

	result := validation.Validate(blueprint, testRegistry(t), testAllowList())

	assert.True(t, result.Valid)
	assert.Empty(t, result.Findings)
}

func TestValidate_UnreachableNodeIsWarning(t *testing.T) {
	blueprint := &models.Blueprint{
		BotID:       "bot-1",
		EntryNodeID: "start",
		Nodes: []*models.Node{
			triggerNode("start"),
			messageNode("welcome", "Hello!"),
			messageNode("orphan", "Nobody routes here."),
		},
		Edges: []*models.Edge{
			{ID: "e1", From: "start", To: "welcome"},
		},
	}

	result := validation.Validate(blueprint, testRegistry(t), testAllowList())

	require.True(t, result.Valid, "warnings must not block compilation")
	assert.True(t, result.HasFinding(models.FindingUnreachableNode))
	assert.Empty(t, result.Errors())
}

func TestValidate_CycleWithoutConditionalExit(t *testing.T) {
	blueprint := &models.Blueprint{
		BotID:       "bot-1",
		EntryNodeID: "start",
		Nodes: []*models.Node{
			triggerNode("start"),
			messageNode("ping", "ping"),
			{ID: "wait", Type: models.NodeTypeDelay, Config: map[string]any{"duration": "30s"}},
		},
		Edges: []*models.Edge{
			{ID: "e1", From: "start", To: "ping"},
			{ID: "e2", From: "ping", To: "wait"},
			{ID: "e3", From: "wait", To: "ping"},
		},
	}

	result := validation.Validate(blueprint, testRegistry(t), testAllowList())

	require.True(t, result.Valid)
	assert.True(t, result.HasFinding(models.FindingNoConditionalExit))
}

func TestValidate_CycleWithConditionalExit(t *testing.T) {
	blueprint := &models.Blueprint{
		BotID:       "bot-1",
		EntryNodeID: "start",
		Nodes: []*models.Node{
			triggerNode("start"),
			{ID: "ask", Type: models.NodeTypeQuestion, Config: map[string]any{"prompt": "Size?", "variable": "size"}},
			{ID: "check", Type: models.NodeTypeCondition, Config: map[string]any{"expression": `{{size}} != ""`}},
			messageNode("done", "Thanks!"),
		},
		Edges: []*models.Edge{
			{ID: "e1", From: "start", To: "ask"},
			{ID: "e2", From: "ask", To: "check"},
			{ID: "e3", From: "check", To: "done", Label: "true"},
			{ID: "e4", From: "check", To: "ask", Label: "else"},
		},
	}

	result := validation.Validate(blueprint, testRegistry(t), testAllowList())

	require.True(t, result.Valid)
	assert.False(t, result.HasFinding(models.FindingNoConditionalExit))
}

func TestValidate_UnknownIntegration(t *testing.T) {
	blueprint := &models.Blueprint{
		BotID:       "bot-1",
		EntryNodeID: "start",
		Nodes: []*models.Node{
			triggerNode("start"),
			{ID: "call", Type: models.NodeTypeIntegration, Config: map[string]any{
				"integration": "warehouse",
				"operation":   "lookup",
			}},
		},
		Edges: []*models.Edge{
			{ID: "e1", From: "start", To: "call"},
		},
	}

	result := validation.Validate(blueprint, testRegistry(t), testAllowList())

	assert.False(t, result.Valid)
	assert.True(t, result.HasFinding(models.FindingUnknownIntegration))
}

func TestValidate_KnownIntegrationCaseInsensitive(t *testing.T) {
	blueprint := &models.Blueprint{
		BotID:       "bot-1",
		EntryNodeID: "start",
		Nodes: []*models.Node{
			triggerNode("start"),
			{ID: "call", Type: models.NodeTypeIntegration, Config: map[string]any{
				"integration": "CRM",
				"operation":   "lookup",
			}},
		},
		Edges: []*models.Edge{
			{ID: "e1", From: "start", To: "call"},
		},
	}

	result := validation.Validate(blueprint, testRegistry(t), testAllowList())

	assert.True(t, result.Valid)
}
