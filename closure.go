package tessera

// ResolvedField is one entry of a flattened closure: the field, its
// declared type, and the node whose declaration contributed it. Origin
// makes conflict messages and generated provenance comments possible
// without re-walking the composition tree.
type ResolvedField struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Origin string `json:"origin"`
}

// Closure is the fully flattened, ordered field list for one composing
// node. Composed fields precede the node's own fields; among composed
// sources, earlier-declared sources come first; within one source the
// same rule applies one level down.
type Closure struct {
	Node   string          `json:"node"`
	Fields []ResolvedField `json:"fields,omitempty"`
}

// flattener computes closures for one pass. The memo is pass-scoped:
// a source reachable over multiple paths (diamond) is flattened once
// and reused, which keeps diamonds linear and conflict reports
// consistent. blocked lists nodes that must not be flattened (cycle
// members and nodes already carrying errors).
type flattener struct {
	graph   *Graph
	memo    map[string][]ResolvedField
	blocked map[string]bool
}

func newFlattener(g *Graph, blocked map[string]bool) *flattener {
	return &flattener{
		graph:   g,
		memo:    make(map[string][]ResolvedField),
		blocked: blocked,
	}
}

// flatten resolves the node's composition closure: every composition
// source in declaration order, fully flattened, then the node's own
// fields. ok is false when the node or a transitive source is blocked;
// such a node has no defined flattening.
//
// Self-edges were reported by the structural rules and contribute
// nothing here. Dangling sources contribute nothing either: the
// front-end already reported the missing symbol.
func (f *flattener) flatten(n *Node) (fields []ResolvedField, ok bool) {
	if fields, done := f.memo[n.Name]; done {
		return fields, true
	}
	if f.blocked[n.Name] {
		return nil, false
	}

	var out []ResolvedField

	for _, e := range n.edges(EdgeCompose) {
		if e.Target == n.Name {
			continue
		}
		source, found := f.graph.Lookup(e.Target)
		if !found {
			continue
		}
		sub, subOK := f.flatten(source)
		if !subOK {
			return nil, false
		}
		out = append(out, sub...)
	}

	for _, fld := range n.Fields {
		out = append(out, ResolvedField{Name: fld.Name, Type: fld.Type, Origin: n.Name})
	}

	f.memo[n.Name] = out
	return out, true
}

// firstConflict scans a flattened list for the first duplicated field
// name, in list order, and returns the two entries that collide. No
// shadowing, no deduplication: a collision is a hard error wherever
// the two declarations came from, including the node's own fields.
func firstConflict(fields []ResolvedField) (first, second ResolvedField, found bool) {
	seen := make(map[string]ResolvedField, len(fields))
	for _, fld := range fields {
		if prev, dup := seen[fld.Name]; dup {
			return prev, fld, true
		}
		seen[fld.Name] = fld
	}
	return ResolvedField{}, ResolvedField{}, false
}

// blockedSourceReason names why a node could not be flattened: the
// first problematic transitive source in declaration order, and
// whether it sits on a composition cycle or carries other errors.
func (f *flattener) blockedSourceReason(n *Node, onCycle map[string]bool) (source string, cycle bool) {
	visited := make(map[string]bool)

	var walk func(n *Node) (string, bool, bool)
	walk = func(n *Node) (string, bool, bool) {
		if visited[n.Name] {
			return "", false, false
		}
		visited[n.Name] = true

		for _, e := range n.edges(EdgeCompose) {
			if e.Target == n.Name {
				continue
			}
			source, found := f.graph.Lookup(e.Target)
			if !found {
				continue
			}
			if f.blocked[source.Name] {
				return source.Name, onCycle[source.Name], true
			}
			if name, isCycle, hit := walk(source); hit {
				return name, isCycle, hit
			}
		}
		return "", false, false
	}

	name, isCycle, _ := walk(n)
	return name, isCycle
}
