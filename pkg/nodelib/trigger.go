package nodelib

import "github.com/convopilot/convopilot/pkg/models"

const PortMain = "main"

// NewTriggerTemplate describes the conversation entry node. Trigger rules
// decide which incoming messages start the workflow.
func NewTriggerTemplate() *NodeTemplate {
	return &NodeTemplate{
		Type:        models.NodeTypeTrigger,
		Kind:        "entry",
		Description: "Starts the conversation when an incoming message matches the trigger rules.",
		OutputPorts: []string{PortMain},
		DefaultPort: PortMain,
		Params: []ParamMapping{
			{ConfigKey: "event", Field: "event", Required: true},
			{ConfigKey: "keywords", Field: "keywords"},
		},
		schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"event": map[string]any{
					"type":        "string",
					"description": "Incoming event that starts the conversation.",
					"enum":        []string{"message_received", "keyword", "referral"},
				},
				"keywords": map[string]any{
					"type":        "array",
					"description": "Keywords that match when event is 'keyword'.",
					"items":       map[string]any{"type": "string"},
				},
			},
			"required": []string{"event"},
		},
	}
}
