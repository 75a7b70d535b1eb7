package tessera

// Field is one declared member of a value type: a name and the
// identity of its type. The front-end filters shared and compile-time
// constant members before building the snapshot, so every field here
// participates in layout.
type Field struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Edge is a typed relation declaration from one node to another.
// The target is an identity, not a resolved node; it may dangle when
// the front-end could not find the symbol, and the resolver treats
// dangling targets leniently rather than failing.
type Edge struct {
	Kind   EdgeKind `json:"kind"`
	Target string   `json:"target"`
}

// Node is a declared type participating in resolution.
//
// Field and edge order is declaration order and is significant: it
// determines flattened field layout and diagnostic positions. Markers
// are a set; their order carries no meaning.
type Node struct {
	Name    string   `json:"name"`
	Kind    NodeKind `json:"kind"`
	Markers []Marker `json:"markers,omitempty"`
	Fields  []Field  `json:"fields,omitempty"`
	Edges   []Edge   `json:"relations,omitempty"`
}

// HasMarker reports whether the node carries the given role marker.
func (n *Node) HasMarker(m Marker) bool {
	for _, have := range n.Markers {
		if have == m {
			return true
		}
	}
	return false
}

// IsComponent reports whether the node is a capability: marked as a
// component or as a tag-only component.
func (n *Node) IsComponent() bool {
	return n.HasMarker(MarkerComponent) || n.HasMarker(MarkerTag)
}

// IsBundle reports whether the node is an aggregate of capabilities.
func (n *Node) IsBundle() bool {
	return n.HasMarker(MarkerBundle)
}

// edges yields the node's relations of one kind, preserving declaration
// order, together with each relation's position in the full edge list.
func (n *Node) edges(kind EdgeKind) []indexedEdge {
	var out []indexedEdge
	for i, e := range n.Edges {
		if e.Kind == kind {
			out = append(out, indexedEdge{Edge: e, Index: i})
		}
	}
	return out
}

type indexedEdge struct {
	Edge
	Index int
}

// Graph is one immutable snapshot of the declaration graph. Build it
// with NewGraph once per resolution pass; the resolver never mutates
// it, so a Graph may be shared by concurrent passes.
type Graph struct {
	// Nodes in declaration order. Iterate this slice, never the lookup
	// index, wherever output order matters.
	Nodes []*Node

	byName map[string]*Node
}

// NewGraph builds a Graph from declared nodes. It copies the input,
// rejects duplicate identities with ErrDuplicateNode, silently
// deduplicates repeated identical relations, and derives one aggregate
// edge per bundle field so that bundle membership flows through the
// same relation machinery as declared edges.
func NewGraph(nodes []Node) (*Graph, error) {
	g := &Graph{
		Nodes:  make([]*Node, 0, len(nodes)),
		byName: make(map[string]*Node, len(nodes)),
	}

	for i := range nodes {
		n := nodes[i] // copy; the caller keeps its slice
		if _, exists := g.byName[n.Name]; exists {
			return nil, duplicateNodeError(n.Name)
		}

		n.Markers = append([]Marker(nil), n.Markers...)
		n.Fields = append([]Field(nil), n.Fields...)
		n.Edges = normalizeEdges(&n)
		g.Nodes = append(g.Nodes, &n)
		g.byName[n.Name] = &n
	}

	return g, nil
}

// Lookup resolves an identity to its node. The second return is false
// for dangling targets.
func (g *Graph) Lookup(name string) (*Node, bool) {
	n, ok := g.byName[name]
	return n, ok
}

// normalizeEdges returns the node's effective relation list: declared
// edges first with exact duplicates removed (first occurrence wins),
// then, for bundles, one derived aggregate edge per field in field
// order. Duplicate declarations are idempotent, not a conflict.
func normalizeEdges(n *Node) []Edge {
	type edgeKey struct {
		kind   EdgeKind
		target string
	}

	seen := make(map[edgeKey]bool)
	out := make([]Edge, 0, len(n.Edges))

	add := func(e Edge) {
		key := edgeKey{kind: e.Kind, target: e.Target}
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, e)
	}

	for _, e := range n.Edges {
		add(e)
	}

	if n.HasMarker(MarkerBundle) {
		for _, f := range n.Fields {
			add(Edge{Kind: EdgeAggregate, Target: f.Type})
		}
	}

	return out
}
