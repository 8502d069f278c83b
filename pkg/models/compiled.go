package models

import "encoding/json"

// CompiledSchemaVersion identifies the compiled document format understood by
// the downstream automation runtime.
const CompiledSchemaVersion = "convopilot.workflow/v1"

// CompiledDocument is the deterministic rendering of a blueprint into the
// automation runtime's import format. Given the same blueprint and node
// library state, compilation produces a byte-identical document: no embedded
// timestamps, random identifiers, or map iteration artifacts. Node and route
// order follow the blueprint's declaration order so diffs between versions
// stay meaningful.
type CompiledDocument struct {
	SchemaVersion string           `json:"schema_version"`
	BotID         string           `json:"bot_id"`
	Entry         string           `json:"entry"`
	Nodes         []*CompiledNode  `json:"nodes"`
	Routes        []*CompiledRoute `json:"routes"`
}

// CompiledNode is one node descriptor in the target format.
type CompiledNode struct {
	ID     string         `json:"id"`
	Kind   string         `json:"kind"`
	Ports  []string       `json:"ports"`
	Params map[string]any `json:"params"`
}

// CompiledRoute connects a node's output port to another node.
type CompiledRoute struct {
	From string `json:"from"`
	Port string `json:"port"`
	To   string `json:"to"`
}

// Canonical returns the canonical byte encoding of the document. Two
// compilations of the same blueprint yield identical bytes, which is what
// version diffing relies on.
func (d *CompiledDocument) Canonical() ([]byte, error) {
	return json.Marshal(d)
}
