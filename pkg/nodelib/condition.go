package nodelib

import "github.com/convopilot/convopilot/pkg/models"

const (
	PortTrue  = "true"
	PortFalse = "false"
)

// NewConditionTemplate describes the branching node. The false port doubles
// as the default/else route, which is why every condition node in a blueprint
// must carry a default edge.
func NewConditionTemplate() *NodeTemplate {
	return &NodeTemplate{
		Type:        models.NodeTypeCondition,
		Kind:        "branch",
		Description: "Evaluates an expression over conversation variables and routes to the true or false path.",
		OutputPorts: []string{PortTrue, PortFalse},
		DefaultPort: PortFalse,
		Branching:   true,
		Params: []ParamMapping{
			{ConfigKey: "expression", Field: "expression", Required: true},
		},
		schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"expression": map[string]any{
					"type":        "string",
					"minLength":   1,
					"description": "Condition expression evaluated by the runtime.",
					"examples": []string{
						`{{order_total}} > 100`,
						`{{language}} == "pt"`,
						`{{opted_in}}`,
					},
				},
			},
			"required": []string{"expression"},
		},
	}
}
