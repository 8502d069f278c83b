// Package validation checks blueprints structurally and semantically before
// compilation. Validation is a pure function of its input: user-input
// problems become findings, never errors, and nothing here touches storage.
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/convopilot/convopilot/pkg/integrations"
	"github.com/convopilot/convopilot/pkg/models"
	"github.com/convopilot/convopilot/pkg/nodelib"
)

// Validate runs all checks over the blueprint and collects every finding.
// Checks run in order; a later check is skipped only for nodes an earlier
// check already disqualified (an unknown node type is not also schema-checked).
//
// Check order:
//  1. schema shape: recognized type, config matches the template's JSON schema
//  2. graph integrity: entry exists, edge endpoints exist, no duplicate node
//     ids or duplicate (from, to, label) edges, branching nodes carry a
//     default edge
//  3. reachability from the entry node (warning)
//  4. cycles with no conditional exit (warning, heuristic)
//  5. integration slugs against the supplied allow-list
func Validate(blueprint *models.Blueprint, registry *nodelib.Registry, allowList integrations.AllowList) *models.ValidationResult {
	result := &models.ValidationResult{Valid: true}

	if len(blueprint.Nodes) == 0 {
		result.AddError(models.FindingEmptyBlueprint, "", "", "blueprint has no nodes")

		return result
	}

	checkNodeConfigs(blueprint, registry, result)
	checkGraphIntegrity(blueprint, registry, result)
	checkReachability(blueprint, result)
	checkCycleExits(blueprint, registry, result)
	checkIntegrationRefs(blueprint, allowList, result)

	return result
}

// checkNodeConfigs verifies every node has a recognized type and a config
// matching the template's JSON schema.
func checkNodeConfigs(blueprint *models.Blueprint, registry *nodelib.Registry, result *models.ValidationResult) {
	for _, node := range blueprint.Nodes {
		template, err := registry.Resolve(node.Type)
		if err != nil {
			result.AddError(models.FindingUnknownNodeType, node.ID, "",
				fmt.Sprintf("unknown node type %q, known types: %s", node.Type, strings.Join(registry.Types(), ", ")))

			continue
		}

		config := node.Config
		if config == nil {
			config = map[string]any{}
		}

		schemaResult, err := gojsonschema.Validate(
			gojsonschema.NewGoLoader(template.Schema()),
			gojsonschema.NewGoLoader(config),
		)
		if err != nil {
			result.AddError(models.FindingInvalidNodeConfig, node.ID, "",
				fmt.Sprintf("config could not be checked: %v", err))

			continue
		}

		for _, desc := range schemaResult.Errors() {
			result.AddError(models.FindingInvalidNodeConfig, node.ID, "", desc.String())
		}
	}
}

// checkGraphIntegrity verifies node id uniqueness, entry and edge endpoint
// existence, edge uniqueness, and the default-edge requirement on branching
// nodes.
func checkGraphIntegrity(blueprint *models.Blueprint, registry *nodelib.Registry, result *models.ValidationResult) {
	seen := make(map[string]bool, len(blueprint.Nodes))

	for _, node := range blueprint.Nodes {
		if seen[node.ID] {
			result.AddError(models.FindingDuplicateNodeID, node.ID, "",
				fmt.Sprintf("node id %q is declared more than once", node.ID))

			continue
		}

		seen[node.ID] = true
	}

	if !seen[blueprint.EntryNodeID] {
		result.AddError(models.FindingUnknownEntryNode, blueprint.EntryNodeID, "",
			fmt.Sprintf("entry node %q does not exist", blueprint.EntryNodeID))
	}

	seenEdges := make(map[string]bool, len(blueprint.Edges))

	for _, edge := range blueprint.Edges {
		if !seen[edge.From] {
			result.AddError(models.FindingDanglingEdge, "", edge.ID,
				fmt.Sprintf("edge references unknown source node %q", edge.From))
		}

		if !seen[edge.To] {
			result.AddError(models.FindingDanglingEdge, "", edge.ID,
				fmt.Sprintf("edge references unknown target node %q", edge.To))
		}

		key := edge.From + "\x00" + edge.To + "\x00" + edge.Label
		if seenEdges[key] {
			result.AddError(models.FindingDuplicateEdge, "", edge.ID,
				fmt.Sprintf("duplicate edge from %q to %q with label %q", edge.From, edge.To, edge.Label))
		}

		seenEdges[key] = true
	}

	// Branching nodes need a default/else route so no condition can dangle.
	for _, node := range blueprint.Nodes {
		template, err := registry.Resolve(node.Type)
		if err != nil || !template.Branching {
			continue
		}

		hasDefault := false

		for _, edge := range blueprint.EdgesFrom(node.ID) {
			if port, ok := template.PortForLabel(edge.Label); ok && port == template.DefaultPort {
				hasDefault = true

				break
			}
		}

		if !hasDefault {
			result.AddError(models.FindingMissingDefaultEdge, node.ID, "",
				fmt.Sprintf("%s node %q has no default/else edge", node.Type, node.ID))
		}
	}
}

// checkIntegrationRefs verifies integration-call slugs against the allow-list.
func checkIntegrationRefs(blueprint *models.Blueprint, allowList integrations.AllowList, result *models.ValidationResult) {
	for _, node := range blueprint.Nodes {
		if node.Type != models.NodeTypeIntegration {
			continue
		}

		slug, ok := node.Config["integration"].(string)
		if !ok || slug == "" {
			// Missing slug is already an invalid-node-config finding.
			continue
		}

		if !allowList.Known(slug) {
			result.AddError(models.FindingUnknownIntegration, node.ID, "",
				fmt.Sprintf("integration %q is not connected, available: %s", slug, strings.Join(allowList.Slugs(), ", ")))
		}
	}
}
