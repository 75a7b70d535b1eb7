package tessera

// BundleMember is one grouped capability: the bundle field and the
// component type it references, exactly as declared.
type BundleMember struct {
	Field     string `json:"field"`
	Component string `json:"component"`
}

// BundleLayout is the resolved artifact for a well-formed bundle: its
// members in declaration order. Aggregation is one level of grouping,
// not inheritance, so nothing is flattened and nested types keep their
// own layouts.
type BundleLayout struct {
	Node    string         `json:"node"`
	Members []BundleMember `json:"members"`
}

// validateBundle checks one bundle's membership: every field must
// reference a component-marked struct (tag-only components qualify),
// and a bundle with no fields at all groups nothing and is an error.
// Dangling field types are assumed legal and stay in the layout.
//
// Containment cycles are a graph-wide property and are reported
// separately via ContainmentCycles.
func validateBundle(g *Graph, n *Node) []Diagnostic {
	if len(n.Fields) == 0 {
		return []Diagnostic{errorDiag(CodeEmptyBundle, n.Name, nil,
			"bundle %q has no component fields", n.Name)}
	}

	aggregateAt := make(map[string]int)
	for i, e := range n.Edges {
		if e.Kind == EdgeAggregate {
			aggregateAt[e.Target] = i
		}
	}

	var out []Diagnostic
	for _, fld := range n.Fields {
		target, ok := g.Lookup(fld.Type)
		if !ok {
			continue
		}
		ref := &EdgeRef{Kind: EdgeAggregate, Target: fld.Type, Index: aggregateAt[fld.Type]}
		if target.Kind != KindStruct {
			out = append(out, errorDiag(CodeBundleMember, n.Name, ref,
				"bundle field %q of %q is typed %q, which is %s, not a component struct",
				fld.Name, n.Name, fld.Type, kindNoun(target.Kind)))
			continue
		}
		if !target.IsComponent() {
			out = append(out, errorDiag(CodeBundleMember, n.Name, ref,
				"bundle field %q of %q is typed %q, which is not marked as a component",
				fld.Name, n.Name, fld.Type))
		}
	}

	return out
}

// bundleLayout builds the layout artifact for a bundle that validated
// cleanly: (field, component) pairs in declaration order.
func bundleLayout(n *Node) BundleLayout {
	members := make([]BundleMember, 0, len(n.Fields))
	for _, fld := range n.Fields {
		members = append(members, BundleMember{Field: fld.Name, Component: fld.Type})
	}
	return BundleLayout{Node: n.Name, Members: members}
}
