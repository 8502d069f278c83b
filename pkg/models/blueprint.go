// Package models defines the core domain models for blueprint compilation and versioning.
package models

// Built-in blueprint node types. The vocabulary is closed: the node library
// enumerates exactly these types and the validator rejects anything else.
const (
	NodeTypeTrigger     = "trigger"
	NodeTypeMessage     = "message"
	NodeTypeQuestion    = "question"
	NodeTypeCondition   = "condition"
	NodeTypeIntegration = "integration"
	NodeTypeHandoff     = "handoff"
	NodeTypeDelay       = "delay"
)

// Edge condition labels that route to a template's default output port.
const (
	EdgeLabelDefault = "default"
	EdgeLabelElse    = "else"
)

// Blueprint is a user-authored bot behavior definition: a typed node/edge
// graph with a designated entry node.
type Blueprint struct {
	BotID       string    `json:"bot_id"        validate:"required"`
	EntryNodeID string    `json:"entry_node_id" validate:"required"`
	Nodes       []*Node   `json:"nodes"`
	Edges       []*Edge   `json:"edges"`
}

// Node is one step in a blueprint. Config holds the type-specific parameters
// validated against the node template's JSON schema.
type Node struct {
	ID     string         `json:"id"     validate:"required"`
	Type   string         `json:"type"   validate:"required"`
	Name   string         `json:"name"`
	Config map[string]any `json:"config"`
}

// Edge is a directed connection between two nodes. Label selects the source
// node's output port; an empty label routes through the default port.
type Edge struct {
	ID     string `json:"id"`
	From   string `json:"from" validate:"required"`
	To     string `json:"to"   validate:"required"`
	Label  string `json:"label,omitempty"`
}

// NodeByID returns the node with the given id, or nil.
func (b *Blueprint) NodeByID(id string) *Node {
	for _, node := range b.Nodes {
		if node.ID == id {
			return node
		}
	}

	return nil
}

// EdgesFrom returns the edges originating at the given node, in declaration order.
func (b *Blueprint) EdgesFrom(nodeID string) []*Edge {
	var edges []*Edge

	for _, edge := range b.Edges {
		if edge.From == nodeID {
			edges = append(edges, edge)
		}
	}

	return edges
}

// IsDefaultLabel reports whether the label routes through a template's
// default output port.
func IsDefaultLabel(label string) bool {
	return label == "" || label == EdgeLabelDefault || label == EdgeLabelElse
}
