package nodelib

import "github.com/convopilot/convopilot/pkg/models"

// NewHandoffTemplate describes the terminal node that transfers the
// conversation to a human agent. It has no output ports: nothing runs after
// a handoff.
func NewHandoffTemplate() *NodeTemplate {
	return &NodeTemplate{
		Type:        models.NodeTypeHandoff,
		Kind:        "human-handoff",
		Description: "Ends automation and hands the conversation to a human agent queue.",
		Params: []ParamMapping{
			{ConfigKey: "queue", Field: "queue"},
			{ConfigKey: "note", Field: "note"},
		},
		schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"queue": map[string]any{
					"type":        "string",
					"description": "Agent queue that receives the conversation.",
				},
				"note": map[string]any{
					"type":        "string",
					"description": "Context note shown to the agent.",
				},
			},
		},
	}
}

// NewDelayTemplate describes a node that pauses the conversation.
func NewDelayTemplate() *NodeTemplate {
	return &NodeTemplate{
		Type:        models.NodeTypeDelay,
		Kind:        "wait",
		Description: "Pauses the conversation for a fixed duration before continuing.",
		OutputPorts: []string{PortMain},
		DefaultPort: PortMain,
		Params: []ParamMapping{
			{ConfigKey: "duration", Field: "duration", Required: true},
		},
		schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"duration": map[string]any{
					"type":        "string",
					"minLength":   1,
					"description": "Wait duration, e.g. '30s', '5m', '2h'.",
					"pattern":     `^\d+(s|m|h|d)$`,
				},
			},
			"required": []string{"duration"},
		},
	}
}
