// Package web provides HTTP request and response types for the version API.
package web

import "github.com/convopilot/convopilot/pkg/models"

// SubmitBlueprintRequest represents the request body for submitting a
// blueprint, for both regular submission and dry-run validation.
type SubmitBlueprintRequest struct {
	EntryNodeID string         `json:"entry_node_id" validate:"required"`
	Nodes       []NodeRequest  `json:"nodes"         validate:"required,min=1,dive"`
	Edges       []EdgeRequest  `json:"edges"         validate:"dive"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// NodeRequest represents one node in a submitted blueprint.
type NodeRequest struct {
	ID     string         `json:"id"     validate:"required,min=1"`
	Type   string         `json:"type"   validate:"required"`
	Name   string         `json:"name"`
	Config map[string]any `json:"config"`
}

// EdgeRequest represents one edge in a submitted blueprint.
type EdgeRequest struct {
	ID    string `json:"id"    validate:"required,min=1"`
	From  string `json:"from"  validate:"required"`
	To    string `json:"to"    validate:"required"`
	Label string `json:"label"`
}

// ToBlueprint converts the request into the engine's blueprint model. The
// bot id comes from the URL, not the body.
func (r *SubmitBlueprintRequest) ToBlueprint(botID string) *models.Blueprint {
	blueprint := &models.Blueprint{
		BotID:       botID,
		EntryNodeID: r.EntryNodeID,
		Nodes:       make([]*models.Node, 0, len(r.Nodes)),
		Edges:       make([]*models.Edge, 0, len(r.Edges)),
	}

	for _, node := range r.Nodes {
		blueprint.Nodes = append(blueprint.Nodes, &models.Node{
			ID:     node.ID,
			Type:   node.Type,
			Name:   node.Name,
			Config: node.Config,
		})
	}

	for _, edge := range r.Edges {
		blueprint.Edges = append(blueprint.Edges, &models.Edge{
			ID:    edge.ID,
			From:  edge.From,
			To:    edge.To,
			Label: edge.Label,
		})
	}

	return blueprint
}

// DryRunResponse represents the outcome of a validation-only submission.
type DryRunResponse struct {
	Validation *models.ValidationResult `json:"validation"`
	Compiled   *models.CompiledDocument `json:"compiled_document,omitempty"`
}
