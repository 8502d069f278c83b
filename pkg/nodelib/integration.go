package nodelib

import "github.com/convopilot/convopilot/pkg/models"

const (
	PortSuccess = "success"
	PortError   = "error"
)

// NewIntegrationTemplate describes a node that calls an external integration.
// The slug must name an entry of the integration allow-list; the validator
// enforces that, not the template.
func NewIntegrationTemplate() *NodeTemplate {
	return &NodeTemplate{
		Type:        models.NodeTypeIntegration,
		Kind:        "integration-call",
		Description: "Invokes an operation on a connected integration and routes on success or error.",
		OutputPorts: []string{PortSuccess, PortError},
		DefaultPort: PortSuccess,
		Params: []ParamMapping{
			{ConfigKey: "integration", Field: "integration", Required: true},
			{ConfigKey: "operation", Field: "operation", Required: true},
			{ConfigKey: "params", Field: "params"},
			{ConfigKey: "result_variable", Field: "result_variable"},
		},
		schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"integration": map[string]any{
					"type":        "string",
					"minLength":   1,
					"description": "Slug of the integration to call.",
				},
				"operation": map[string]any{
					"type":        "string",
					"minLength":   1,
					"description": "Operation exposed by the integration.",
				},
				"params": map[string]any{
					"type":        "object",
					"description": "Operation arguments. Values support {{variable}} interpolation.",
				},
				"result_variable": map[string]any{
					"type":        "string",
					"description": "Conversation variable that receives the call result.",
				},
			},
			"required": []string{"integration", "operation"},
		},
	}
}
