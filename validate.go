package tessera

// roleClass names the role a relation kind is reserved for. Component
// role is satisfied by either the component or the tag marker.
type roleClass int

const (
	roleNone roleClass = iota
	roleComponent
	roleSystem
)

// edgeRule is the legality envelope for one relation kind: which target
// kinds are allowed, and which role markers the target and the
// declaring node are expected to carry.
//
// Aggregate edges carry no rule beyond self-reference; bundle
// membership legality is owned by the bundle validator, which reports
// at Error severity instead of warning twice.
type edgeRule struct {
	verb       string
	targetKind NodeKind // zero value: any kind
	targetRole roleClass
	sourceRole roleClass
	sourceNoun string
}

var edgeRules = map[EdgeKind]edgeRule{
	EdgeCompose: {
		verb:       "composes from",
		targetKind: KindStruct,
	},
	EdgeRequire: {
		verb:       "requires",
		targetKind: KindStruct,
		targetRole: roleComponent,
		sourceRole: roleComponent,
		sourceNoun: "requirement",
	},
	EdgeConflict: {
		verb:       "conflicts with",
		targetKind: KindStruct,
		targetRole: roleComponent,
		sourceRole: roleComponent,
		sourceNoun: "conflict",
	},
	EdgeBefore: {
		verb:       "runs before",
		targetKind: KindReference,
		targetRole: roleSystem,
		sourceRole: roleSystem,
		sourceNoun: "ordering",
	},
	EdgeAfter: {
		verb:       "runs after",
		targetKind: KindReference,
		targetRole: roleSystem,
		sourceRole: roleSystem,
		sourceNoun: "ordering",
	},
	EdgeAggregate: {
		verb: "aggregates",
	},
}

// ValidateStructure applies the per-edge structural rules to every node
// and returns the diagnostics in node order, edge position order. It
// never mutates the graph and never fails on a well-formed node.
//
// Rules, per outgoing edge:
//   - a relation targeting its own node is an error (checked first,
//     and textually, so it also catches dangling self-targets)
//   - a dangling target is otherwise assumed legal, so one missing
//     symbol does not cascade into kind and role noise
//   - a resolved target of an illegal kind is an error naming the kind
//     actually found
//   - a resolved target missing the expected role marker is a warning
//
// And per node: declaring relations reserved for a role the node is
// not marked with is a warning; a conflict declared on one side only
// is an info suggesting the reciprocal declaration.
func ValidateStructure(g *Graph) []Diagnostic {
	var diags []Diagnostic
	for _, n := range g.Nodes {
		diags = append(diags, validateNode(g, n)...)
	}
	return diags
}

func validateNode(g *Graph, n *Node) []Diagnostic {
	var out []Diagnostic

	for i, e := range n.Edges {
		out = append(out, validateEdge(g, n, e, i)...)
	}

	out = append(out, validateSourceRoles(n)...)
	out = append(out, validateConflictReciprocity(g, n)...)

	return out
}

// validateEdge applies the self-reference, target-kind, and target-role
// rules to a single relation. At most one error comes out of one edge;
// a kind mismatch makes the role check meaningless so it is skipped.
func validateEdge(g *Graph, n *Node, e Edge, idx int) []Diagnostic {
	rule := edgeRules[e.Kind]
	ref := &EdgeRef{Kind: e.Kind, Target: e.Target, Index: idx}

	if e.Target == n.Name {
		return []Diagnostic{errorDiag(CodeSelfReference, n.Name, ref,
			"%q %s itself", n.Name, rule.verb)}
	}

	target, ok := g.Lookup(e.Target)
	if !ok {
		// Dangling target: an unrelated compilation error may have
		// hidden the symbol. Assume legal.
		return nil
	}

	if rule.targetKind != "" && target.Kind != rule.targetKind {
		return []Diagnostic{errorDiag(CodeTargetKind, n.Name, ref,
			"%q %s %q, which is %s, not %s",
			n.Name, rule.verb, target.Name, kindNoun(target.Kind), kindNoun(rule.targetKind))}
	}

	if !targetRoleSatisfied(rule.targetRole, target) {
		return []Diagnostic{warnDiag(CodeTargetUnmarked, n.Name, ref,
			"%q %s %q, which is not marked as a %s",
			n.Name, rule.verb, target.Name, roleNoun(rule.targetRole))}
	}

	return nil
}

// validateSourceRoles emits at most one warning per role class: a node
// declaring requirement or conflict relations without a component
// marker, or ordering relations without a system marker. The warning
// points at the first relation of the offending class.
func validateSourceRoles(n *Node) []Diagnostic {
	var out []Diagnostic

	flagged := make(map[roleClass]bool)
	for i, e := range n.Edges {
		rule := edgeRules[e.Kind]
		if rule.sourceRole == roleNone || flagged[rule.sourceRole] {
			continue
		}
		if sourceRoleSatisfied(rule.sourceRole, n) {
			flagged[rule.sourceRole] = true // satisfied once is satisfied for all
			continue
		}
		flagged[rule.sourceRole] = true
		ref := &EdgeRef{Kind: e.Kind, Target: e.Target, Index: i}
		out = append(out, warnDiag(CodeSourceUnmarked, n.Name, ref,
			"%q declares %s relations but is not marked as a %s",
			n.Name, rule.sourceNoun, roleNoun(rule.sourceRole)))
	}

	return out
}

// validateConflictReciprocity emits an info for each conflict edge
// whose resolved target does not declare a conflict back. Dangling
// targets are skipped; their declarations are unknowable.
func validateConflictReciprocity(g *Graph, n *Node) []Diagnostic {
	var out []Diagnostic

	for _, e := range n.edges(EdgeConflict) {
		if e.Target == n.Name {
			continue // already an error
		}
		target, ok := g.Lookup(e.Target)
		if !ok {
			continue
		}
		if declaresConflictWith(target, n.Name) {
			continue
		}
		ref := &EdgeRef{Kind: e.Kind, Target: e.Target, Index: e.Index}
		out = append(out, infoDiag(CodeOneWayConflict, n.Name, ref,
			"%q conflicts with %q, but %q does not declare a conflict back",
			n.Name, target.Name, target.Name))
	}

	return out
}

func declaresConflictWith(n *Node, target string) bool {
	for _, e := range n.Edges {
		if e.Kind == EdgeConflict && e.Target == target {
			return true
		}
	}
	return false
}

func targetRoleSatisfied(role roleClass, target *Node) bool {
	switch role {
	case roleComponent:
		return target.IsComponent()
	case roleSystem:
		return target.HasMarker(MarkerSystem)
	default:
		return true
	}
}

func sourceRoleSatisfied(role roleClass, n *Node) bool {
	switch role {
	case roleComponent:
		return n.IsComponent()
	case roleSystem:
		return n.HasMarker(MarkerSystem)
	default:
		return true
	}
}

// kindNoun spells a node kind the way the original declarations read.
func kindNoun(k NodeKind) string {
	switch k {
	case KindStruct:
		return "a struct"
	case KindReference:
		return "a reference type"
	case KindInterface:
		return "an interface"
	case KindEnum:
		return "an enum"
	case KindFunction:
		return "a function signature"
	default:
		return string(k)
	}
}

func roleNoun(role roleClass) string {
	switch role {
	case roleComponent:
		return "component"
	case roleSystem:
		return "system"
	default:
		return ""
	}
}
