package tessera

// validateOrdering flags the locally inconsistent ordering case: one
// node declaring both a run-before and a run-after relation against
// the same target. The error attaches to whichever of the pair was
// declared second.
//
// There is deliberately no topological sort and no cycle check across
// the ordering graph. Ordering constraints are advisory hints for a
// runtime scheduler; this pass only verdicts each declaration's local
// legality (self-reference, target kind, and target role come from the
// structural rules).
func validateOrdering(n *Node) []Diagnostic {
	var out []Diagnostic

	seen := make(map[string]EdgeKind)
	for i, e := range n.Edges {
		if e.Kind != EdgeBefore && e.Kind != EdgeAfter {
			continue
		}
		if e.Target == n.Name {
			continue // already an error
		}
		if prev, ok := seen[e.Target]; ok && prev != e.Kind {
			ref := &EdgeRef{Kind: e.Kind, Target: e.Target, Index: i}
			out = append(out, errorDiag(CodeOrderContradiction, n.Name, ref,
				"%q declares both run-before and run-after relations against %q",
				n.Name, e.Target))
			continue
		}
		seen[e.Target] = e.Kind
	}

	return out
}
