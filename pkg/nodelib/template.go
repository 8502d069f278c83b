// Package nodelib provides the closed library of blueprint node types and
// their compiled-node templates.
package nodelib

import (
	"errors"
	"fmt"

	"github.com/convopilot/convopilot/pkg/models"
)

// ErrTemplateNotFound indicates a node type is not in the library.
var ErrTemplateNotFound = errors.New("node template not found")

// ParamMapping maps one blueprint config key to a field of the compiled
// node's params.
type ParamMapping struct {
	ConfigKey string
	Field     string
	Required  bool
}

// NodeTemplate describes how one blueprint node type renders into the target
// format: its compiled kind, output-port names, condition-label routing, and
// parameter-to-field mapping. Templates are immutable after registration.
type NodeTemplate struct {
	Type        string
	Kind        string
	Description string
	OutputPorts []string
	DefaultPort string
	Branching   bool // requires a default/else edge when used in a blueprint
	Params      []ParamMapping

	schema map[string]any
}

// Schema returns the JSON schema for the node type's config.
func (t *NodeTemplate) Schema() map[string]any {
	return t.schema
}

// PortForLabel resolves an edge condition label to one of the template's
// output ports. Empty, "default" and "else" labels route to the default port.
func (t *NodeTemplate) PortForLabel(label string) (string, bool) {
	if models.IsDefaultLabel(label) {
		if t.DefaultPort == "" {
			return "", false
		}

		return t.DefaultPort, true
	}

	for _, port := range t.OutputPorts {
		if port == label {
			return port, true
		}
	}

	return "", false
}

// Terminal reports whether the node type has no output ports.
func (t *NodeTemplate) Terminal() bool {
	return len(t.OutputPorts) == 0
}

// Render maps a blueprint node's config onto the compiled params using the
// template's field mapping. Unmapped config keys are dropped; the compiled
// document carries only fields the runtime understands.
func (t *NodeTemplate) Render(node *models.Node) (map[string]any, error) {
	params := make(map[string]any, len(t.Params))

	for _, mapping := range t.Params {
		value, ok := node.Config[mapping.ConfigKey]
		if !ok {
			if mapping.Required {
				return nil, fmt.Errorf("node %s: missing required config %q", node.ID, mapping.ConfigKey)
			}

			continue
		}

		params[mapping.Field] = value
	}

	return params, nil
}
