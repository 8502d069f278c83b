// Package compiler renders validated blueprints into the automation runtime's
// workflow document format.
package compiler

import (
	"fmt"

	"github.com/convopilot/convopilot/pkg/models"
	"github.com/convopilot/convopilot/pkg/nodelib"
)

// Compile renders a blueprint into a compiled workflow document using the
// node library's templates.
//
// Callers must validate first: compilation errors indicate validator/compiler
// drift, not user mistakes. Rendering is deterministic — identical blueprint
// and library state produce byte-identical documents — and preserves the
// blueprint's node and edge declaration order so version diffs stay readable.
func Compile(blueprint *models.Blueprint, registry *nodelib.Registry) (*models.CompiledDocument, error) {
	doc := &models.CompiledDocument{
		SchemaVersion: models.CompiledSchemaVersion,
		BotID:         blueprint.BotID,
		Entry:         blueprint.EntryNodeID,
		Nodes:         make([]*models.CompiledNode, 0, len(blueprint.Nodes)),
		Routes:        make([]*models.CompiledRoute, 0, len(blueprint.Edges)),
	}

	for _, node := range blueprint.Nodes {
		template, err := registry.Resolve(node.Type)
		if err != nil {
			return nil, &CompilationError{NodeID: node.ID, Reason: "unresolved node type " + node.Type, Err: err}
		}

		params, err := template.Render(node)
		if err != nil {
			return nil, &CompilationError{NodeID: node.ID, Reason: "parameter mapping failed", Err: err}
		}

		doc.Nodes = append(doc.Nodes, &models.CompiledNode{
			ID:     node.ID,
			Kind:   template.Kind,
			Ports:  template.OutputPorts,
			Params: params,
		})
	}

	for _, edge := range blueprint.Edges {
		route, err := compileEdge(blueprint, registry, edge)
		if err != nil {
			return nil, err
		}

		doc.Routes = append(doc.Routes, route)
	}

	return doc, nil
}

func compileEdge(blueprint *models.Blueprint, registry *nodelib.Registry, edge *models.Edge) (*models.CompiledRoute, error) {
	source := blueprint.NodeByID(edge.From)
	if source == nil {
		return nil, &CompilationError{NodeID: edge.From, Reason: fmt.Sprintf("edge %s references unknown source node", edge.ID)}
	}

	if blueprint.NodeByID(edge.To) == nil {
		return nil, &CompilationError{NodeID: edge.To, Reason: fmt.Sprintf("edge %s references unknown target node", edge.ID)}
	}

	template, err := registry.Resolve(source.Type)
	if err != nil {
		return nil, &CompilationError{NodeID: source.ID, Reason: "unresolved node type " + source.Type, Err: err}
	}

	port, ok := template.PortForLabel(edge.Label)
	if !ok {
		return nil, &CompilationError{
			NodeID: source.ID,
			Reason: fmt.Sprintf("node type %s has no output port for label %q", source.Type, edge.Label),
		}
	}

	return &models.CompiledRoute{From: edge.From, Port: port, To: edge.To}, nil
}
