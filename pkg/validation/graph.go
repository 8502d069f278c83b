package validation

import (
	"fmt"

	"github.com/convopilot/convopilot/pkg/models"
	"github.com/convopilot/convopilot/pkg/nodelib"
)

// graph is an index arena over a blueprint's nodes and edges. Traversal uses
// explicit stacks and visited sets, never recursion, so cyclic blueprints of
// any size are safe to walk.
type graph struct {
	nodes []*models.Node
	index map[string]int
	out   [][]int
	in    [][]int
}

// buildGraph indexes the blueprint. Edges with unknown endpoints or duplicate
// node ids are skipped here; graph-integrity checks already report them.
func buildGraph(blueprint *models.Blueprint) *graph {
	g := &graph{index: make(map[string]int, len(blueprint.Nodes))}

	for _, node := range blueprint.Nodes {
		if _, ok := g.index[node.ID]; ok {
			continue
		}

		g.index[node.ID] = len(g.nodes)
		g.nodes = append(g.nodes, node)
	}

	g.out = make([][]int, len(g.nodes))
	g.in = make([][]int, len(g.nodes))

	for _, edge := range blueprint.Edges {
		from, okFrom := g.index[edge.From]
		to, okTo := g.index[edge.To]

		if !okFrom || !okTo {
			continue
		}

		g.out[from] = append(g.out[from], to)
		g.in[to] = append(g.in[to], from)
	}

	return g
}

// reachableFrom returns the visited set of an iterative traversal from start.
func (g *graph) reachableFrom(start int) []bool {
	visited := make([]bool, len(g.nodes))
	stack := []int{start}
	visited[start] = true

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, next := range g.out[current] {
			if !visited[next] {
				visited[next] = true
				stack = append(stack, next)
			}
		}
	}

	return visited
}

// checkReachability warns for every node the entry cannot reach. Unreachable
// nodes still compile; the warning points at dead configuration.
func checkReachability(blueprint *models.Blueprint, result *models.ValidationResult) {
	g := buildGraph(blueprint)

	entry, ok := g.index[blueprint.EntryNodeID]
	if !ok {
		// Already an unknown-entry-node error; reachability is meaningless.
		return
	}

	visited := g.reachableFrom(entry)

	for i, node := range g.nodes {
		if !visited[i] {
			result.AddWarning(models.FindingUnreachableNode, node.ID, "",
				fmt.Sprintf("node %q is not reachable from the entry node", node.ID))
		}
	}
}

// checkCycleExits warns for every cycle that has no conditional way out: a
// loop whose only exits (if any) hang off non-branching nodes will repeat
// until the runtime's own limits stop it. This is a heuristic, not a
// termination proof.
func checkCycleExits(blueprint *models.Blueprint, registry *nodelib.Registry, result *models.ValidationResult) {
	g := buildGraph(blueprint)

	for _, component := range g.stronglyConnected() {
		if !g.isCycle(component) {
			continue
		}

		inComponent := make(map[int]bool, len(component))
		for _, i := range component {
			inComponent[i] = true
		}

		hasConditionalExit := false

		for _, i := range component {
			template, err := registry.Resolve(g.nodes[i].Type)
			if err != nil || !template.Branching {
				continue
			}

			for _, next := range g.out[i] {
				if !inComponent[next] {
					hasConditionalExit = true

					break
				}
			}

			if hasConditionalExit {
				break
			}
		}

		if !hasConditionalExit {
			first := component[0]
			for _, i := range component {
				if i < first {
					first = i
				}
			}

			result.AddWarning(models.FindingNoConditionalExit, g.nodes[first].ID, "",
				fmt.Sprintf("cycle through node %q has no conditional exit and may loop forever", g.nodes[first].ID))
		}
	}
}

// isCycle reports whether a strongly connected component actually contains a
// cycle: more than one node, or a single node with a self-loop.
func (g *graph) isCycle(component []int) bool {
	if len(component) > 1 {
		return true
	}

	only := component[0]
	for _, next := range g.out[only] {
		if next == only {
			return true
		}
	}

	return false
}

// stronglyConnected computes SCCs with Kosaraju's algorithm, both passes
// iterative.
func (g *graph) stronglyConnected() [][]int {
	n := len(g.nodes)
	visited := make([]bool, n)
	order := make([]int, 0, n)

	// First pass: finish order over the forward graph.
	for start := range n {
		if visited[start] {
			continue
		}

		// Frame stack: node plus the index of the next child to expand.
		type frame struct {
			node  int
			child int
		}

		stack := []frame{{node: start}}
		visited[start] = true

		for len(stack) > 0 {
			top := &stack[len(stack)-1]

			if top.child < len(g.out[top.node]) {
				next := g.out[top.node][top.child]
				top.child++

				if !visited[next] {
					visited[next] = true
					stack = append(stack, frame{node: next})
				}

				continue
			}

			order = append(order, top.node)
			stack = stack[:len(stack)-1]
		}
	}

	// Second pass: collect components over the reverse graph in reverse
	// finish order.
	component := make([]int, n)
	for i := range component {
		component[i] = -1
	}

	var components [][]int

	for i := n - 1; i >= 0; i-- {
		root := order[i]
		if component[root] != -1 {
			continue
		}

		id := len(components)
		members := []int{}
		stack := []int{root}
		component[root] = id

		for len(stack) > 0 {
			current := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			members = append(members, current)

			for _, prev := range g.in[current] {
				if component[prev] == -1 {
					component[prev] = id
					stack = append(stack, prev)
				}
			}
		}

		components = append(components, members)
	}

	return components
}
