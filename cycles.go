package tessera

import (
	"fmt"
	"strings"
)

// color represents the state of a node during DFS cycle detection.
type color int

const (
	white color = iota // unvisited
	gray               // in current DFS path (cycle if revisited)
	black              // fully processed
)

// CompositionCycles returns every cycle in the composition graph, in
// deterministic declaration order. Each cycle is a path of identities
// whose first element is repeated at the end:
//
//	[]string{"demo/A", "demo/B", "demo/A"}
//
// Direct self-edges are excluded; the structural rules already report
// them, and reporting them twice would be noise. Dangling composition
// targets cannot participate in a cycle and are skipped.
func CompositionCycles(g *Graph) [][]string {
	return detectCycles(g, edgeGraph(g, EdgeCompose, nil))
}

// ContainmentCycles returns every cycle in the bundle containment
// graph: aggregate edges restricted to targets that are themselves
// bundles, since containment can only continue through another bundle.
// Same shape and exclusions as CompositionCycles.
func ContainmentCycles(g *Graph) [][]string {
	return detectCycles(g, edgeGraph(g, EdgeAggregate, func(target *Node) bool {
		return target.IsBundle()
	}))
}

// edgeGraph projects one relation kind into an adjacency map over node
// identities. Self-edges and dangling targets are dropped; keep
// narrows the resolved targets further when non-nil.
func edgeGraph(g *Graph, kind EdgeKind, keep func(*Node) bool) map[string][]string {
	graph := make(map[string][]string)
	for _, n := range g.Nodes {
		for _, e := range n.edges(kind) {
			if e.Target == n.Name {
				continue
			}
			target, ok := g.Lookup(e.Target)
			if !ok {
				continue
			}
			if keep != nil && !keep(target) {
				continue
			}
			graph[n.Name] = append(graph[n.Name], target.Name)
		}
	}
	return graph
}

// detectCycles runs DFS with three-color marking over the adjacency
// map and collects every back-edge as one cycle. Roots and neighbors
// expand in declaration order, so repeated runs over the same graph
// report the same cycles in the same order. Shared sub-structure
// (diamonds) terminates without revisiting: a black node is done.
func detectCycles(g *Graph, graph map[string][]string) [][]string {
	colors := make(map[string]color)
	parent := make(map[string]string)
	var cycles [][]string

	var dfs func(n string)
	dfs = func(n string) {
		colors[n] = gray

		for _, neighbor := range graph[n] {
			switch colors[neighbor] {
			case gray:
				cycles = append(cycles, reconstructCycle(n, neighbor, parent))
			case white:
				parent[neighbor] = n
				dfs(neighbor)
			}
		}

		colors[n] = black
	}

	for _, n := range g.Nodes {
		if colors[n.Name] == white {
			dfs(n.Name)
		}
	}

	return cycles
}

// reconstructCycle builds the cycle path from parent pointers.
// from is the node where we detected the back-edge, to is the node
// we're returning to.
func reconstructCycle(from, to string, parent map[string]string) []string {
	cycle := []string{to}
	for n := from; n != to; n = parent[n] {
		cycle = append([]string{n}, cycle...)
	}
	cycle = append([]string{to}, cycle...)
	return cycle
}

// formatCycle converts a cycle path to a human-readable string.
// Example: "demo/A → demo/B → demo/A"
func formatCycle(cycle []string) string {
	return strings.Join(cycle, " → ")
}

// cycleMembers returns the distinct identities on a cycle path,
// dropping the repeated closing element.
func cycleMembers(cycle []string) []string {
	if len(cycle) == 0 {
		return nil
	}
	return cycle[:len(cycle)-1]
}

// cycleDiagnostics flags every member of every cycle with one error
// naming the full cycle, so downstream consumers see each participant
// blocked, not only the node where detection happened.
func cycleDiagnostics(code Code, cycles [][]string, noun string) map[string][]Diagnostic {
	out := make(map[string][]Diagnostic)
	for _, cycle := range cycles {
		msg := fmt.Sprintf("%s cycle: %s", noun, formatCycle(cycle))
		for _, member := range cycleMembers(cycle) {
			out[member] = append(out[member], errorDiag(code, member, nil, "%s", msg))
		}
	}
	return out
}
