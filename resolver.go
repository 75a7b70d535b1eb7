package tessera

import "context"

// Result is everything one resolution pass produced: the flat ordered
// diagnostic list, the artifacts that survived it, and the content
// fingerprints for every node. Closures and bundle layouts appear in
// declaration order; diagnostics are grouped by node in declaration
// order and, within a node, follow relation positions stage by stage.
type Result struct {
	Diagnostics  []Diagnostic      `json:"diagnostics,omitempty"`
	Closures     []Closure         `json:"closures,omitempty"`
	Bundles      []BundleLayout    `json:"bundles,omitempty"`
	Fingerprints map[string]string `json:"fingerprints,omitempty"`
}

// HasErrors reports whether any diagnostic carries Error severity.
func (r *Result) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.IsError() {
			return true
		}
	}
	return false
}

// ClosureFor returns the flattened closure for a node, if the pass
// produced one.
func (r *Result) ClosureFor(node string) (Closure, bool) {
	for _, c := range r.Closures {
		if c.Node == node {
			return c, true
		}
	}
	return Closure{}, false
}

// BundleFor returns the resolved layout for a bundle, if the pass
// produced one.
func (r *Result) BundleFor(node string) (BundleLayout, bool) {
	for _, b := range r.Bundles {
		if b.Node == node {
			return b, true
		}
	}
	return BundleLayout{}, false
}

// Resolve runs one full pass over the graph: structural validation,
// composition cycle detection, field flattening, bundle validation,
// and ordering verdicts, in that order. Every diagnostic from every
// stage is collected; an Error on one node suppresses that node's
// artifact and nothing else.
//
// The only error Resolve returns is the context's: cancellation is
// honored between nodes, never mid-node, and the partial Result built
// so far comes back alongside ctx.Err() so artifacts already resolved
// stay usable.
//
// Resolve shares no state between calls. Concurrent passes over
// disjoint graphs (or even the same immutable graph) are safe.
func Resolve(ctx context.Context, g *Graph) (*Result, error) {
	p := &pass{
		graph:   g,
		buckets: make([][]Diagnostic, len(g.Nodes)),
		blocked: make(map[string]bool),
	}

	for _, stage := range []func(context.Context) error{
		p.runStructural,
		p.runCompositionCycles,
		p.runClosures,
		p.runBundles,
		p.runOrdering,
	} {
		if err := stage(ctx); err != nil {
			return p.assemble(), err
		}
	}

	return p.assemble(), nil
}

// pass holds the state of one resolution pass. Diagnostics accumulate
// in per-node buckets so the final list comes out grouped by node in
// declaration order no matter which stage found what.
type pass struct {
	graph   *Graph
	buckets [][]Diagnostic
	blocked map[string]bool

	onCycle  map[string]bool
	closures []Closure
	bundles  []BundleLayout
}

func (p *pass) add(i int, diags ...Diagnostic) {
	for _, d := range diags {
		p.buckets[i] = append(p.buckets[i], d)
		if d.IsError() {
			p.blocked[d.Node] = true
		}
	}
}

func (p *pass) runStructural(ctx context.Context) error {
	for i, n := range p.graph.Nodes {
		if err := ctx.Err(); err != nil {
			return err
		}
		p.add(i, validateNode(p.graph, n)...)
	}
	return nil
}

func (p *pass) runCompositionCycles(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cycles := CompositionCycles(p.graph)
	p.onCycle = make(map[string]bool)
	for _, cycle := range cycles {
		for _, member := range cycleMembers(cycle) {
			p.onCycle[member] = true
		}
	}

	perNode := cycleDiagnostics(CodeCompositionCycle, cycles, "composition")
	for i, n := range p.graph.Nodes {
		p.add(i, perNode[n.Name]...)
	}
	return nil
}

// runClosures flattens every struct node that is not a bundle and not
// blocked. Nodes without composition edges still get a closure (their
// own fields); tag components get an empty one. A node whose sources
// cannot be flattened gets an error in place of a closure, because
// only an Error suppresses downstream emission.
func (p *pass) runClosures(ctx context.Context) error {
	f := newFlattener(p.graph, p.blocked)

	for i, n := range p.graph.Nodes {
		if err := ctx.Err(); err != nil {
			return err
		}
		if n.Kind != KindStruct || n.IsBundle() || p.blocked[n.Name] {
			continue
		}

		fields, ok := f.flatten(n)
		if !ok {
			source, onCycle := f.blockedSourceReason(n, p.onCycle)
			switch {
			case source == "":
				p.add(i, errorDiag(CodeBlockedSource, n.Name, nil,
					"%q cannot be flattened", n.Name))
			case onCycle:
				p.add(i, errorDiag(CodeBlockedSource, n.Name, nil,
					"%q cannot be flattened: composition source %q is part of a composition cycle",
					n.Name, source))
			default:
				p.add(i, errorDiag(CodeBlockedSource, n.Name, nil,
					"%q cannot be flattened: composition source %q has structural errors",
					n.Name, source))
			}
			continue
		}

		if first, second, conflict := firstConflict(fields); conflict {
			p.add(i, errorDiag(CodeFieldConflict, n.Name, nil,
				"field %q is declared by both %q and %q in the flattened fields of %q",
				first.Name, first.Origin, second.Origin, n.Name))
			continue
		}

		p.closures = append(p.closures, Closure{Node: n.Name, Fields: fields})
	}
	return nil
}

// runBundles validates membership per bundle, then overlays the
// graph-wide containment cycles, then emits layouts for bundles that
// came through without errors. Bundles already blocked by an earlier
// stage are skipped entirely.
func (p *pass) runBundles(ctx context.Context) error {
	type pending struct {
		index int
		node  *Node
	}
	var clean []pending

	for i, n := range p.graph.Nodes {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !n.IsBundle() {
			continue
		}
		if p.blocked[n.Name] {
			continue
		}
		p.add(i, validateBundle(p.graph, n)...)
		clean = append(clean, pending{index: i, node: n})
	}

	perNode := cycleDiagnostics(CodeContainmentCycle, ContainmentCycles(p.graph), "aggregation")
	for _, b := range clean {
		p.add(b.index, perNode[b.node.Name]...)
	}

	for _, b := range clean {
		if p.blocked[b.node.Name] {
			continue
		}
		p.bundles = append(p.bundles, bundleLayout(b.node))
	}
	return nil
}

func (p *pass) runOrdering(ctx context.Context) error {
	for i, n := range p.graph.Nodes {
		if err := ctx.Err(); err != nil {
			return err
		}
		p.add(i, validateOrdering(n)...)
	}
	return nil
}

// assemble flattens the per-node buckets into the final Result and
// applies the blocked set to the collected artifacts. Ordering verdicts
// land after closures and layouts are built, so a node blocked in that
// stage still has an artifact pending here. Called for completed and
// cancelled passes alike: whatever was resolved before cancellation
// remains valid.
func (p *pass) assemble() *Result {
	res := &Result{
		Fingerprints: Fingerprints(p.graph),
	}
	for _, c := range p.closures {
		if p.blocked[c.Node] {
			continue
		}
		res.Closures = append(res.Closures, c)
	}
	for _, b := range p.bundles {
		if p.blocked[b.Node] {
			continue
		}
		res.Bundles = append(res.Bundles, b)
	}
	for _, bucket := range p.buckets {
		res.Diagnostics = append(res.Diagnostics, bucket...)
	}
	return res
}
