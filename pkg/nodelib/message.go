package nodelib

import "github.com/convopilot/convopilot/pkg/models"

// NewMessageTemplate describes a node that sends a message to the contact.
func NewMessageTemplate() *NodeTemplate {
	return &NodeTemplate{
		Type:        models.NodeTypeMessage,
		Kind:        "send-message",
		Description: "Sends a text message, optionally with quick-reply buttons.",
		OutputPorts: []string{PortMain},
		DefaultPort: PortMain,
		Params: []ParamMapping{
			{ConfigKey: "text", Field: "text", Required: true},
			{ConfigKey: "buttons", Field: "buttons"},
		},
		schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text": map[string]any{
					"type":        "string",
					"minLength":   1,
					"description": "Message body. Supports {{variable}} interpolation at runtime.",
				},
				"buttons": map[string]any{
					"type":        "array",
					"description": "Optional quick-reply button labels.",
					"items":       map[string]any{"type": "string"},
					"maxItems":    10,
				},
			},
			"required": []string{"text"},
		},
	}
}

// NewQuestionTemplate describes a node that asks the contact for input and
// stores the answer in a conversation variable.
func NewQuestionTemplate() *NodeTemplate {
	return &NodeTemplate{
		Type:        models.NodeTypeQuestion,
		Kind:        "collect-input",
		Description: "Asks a question and stores the reply in a conversation variable.",
		OutputPorts: []string{PortMain},
		DefaultPort: PortMain,
		Params: []ParamMapping{
			{ConfigKey: "prompt", Field: "prompt", Required: true},
			{ConfigKey: "variable", Field: "variable", Required: true},
			{ConfigKey: "input_type", Field: "input_type"},
		},
		schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"prompt": map[string]any{
					"type":        "string",
					"minLength":   1,
					"description": "Question shown to the contact.",
				},
				"variable": map[string]any{
					"type":        "string",
					"minLength":   1,
					"description": "Conversation variable that receives the answer.",
				},
				"input_type": map[string]any{
					"type":        "string",
					"description": "Expected answer shape.",
					"enum":        []string{"text", "number", "email", "phone"},
					"default":     "text",
				},
			},
			"required": []string{"prompt", "variable"},
		},
	}
}
