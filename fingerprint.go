package tessera

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
)

// Fingerprints computes a hex sha256 content identity for every node:
// a hash over the node's own declaration and, recursively, over the
// fingerprints of its resolved composition and aggregation sources.
// Equal fingerprints mean the node resolves against an unchanged
// subgraph, so hosts can key output caches on them and skip unchanged
// nodes on republish (see pkg/store).
//
// The encoding is canonical: declaration order for fields and
// relations, sorted markers, explicit separators. Nothing depends on
// wall-clock time, randomness, or pointer identity, so repeated calls
// over the same graph return byte-identical maps.
func Fingerprints(g *Graph) map[string]string {
	f := &fingerprinter{
		graph: g,
		memo:  make(map[string]string, len(g.Nodes)),
		state: make(map[string]color, len(g.Nodes)),
	}

	out := make(map[string]string, len(g.Nodes))
	for _, n := range g.Nodes {
		out[n.Name] = f.fingerprint(n)
	}
	return out
}

// Delta returns the identities whose fingerprint differs between two
// passes, sorted. Identities present on only one side count as
// changed, so hosts see additions and removals too.
func Delta(prev, next map[string]string) []string {
	var changed []string
	for name, fp := range next {
		if prev[name] != fp {
			changed = append(changed, name)
		}
	}
	for name := range prev {
		if _, ok := next[name]; !ok {
			changed = append(changed, name)
		}
	}
	sort.Strings(changed)
	return changed
}

type fingerprinter struct {
	graph *Graph
	memo  map[string]string
	state map[string]color
}

// fingerprint hashes the node and its transitive sources. Cycle
// members hash to something stable too: a source already on the
// current recursion path contributes a back-reference token instead
// of recursing, which terminates and stays deterministic for a fixed
// graph.
func (f *fingerprinter) fingerprint(n *Node) string {
	if fp, ok := f.memo[n.Name]; ok {
		return fp
	}

	f.state[n.Name] = gray

	h := sha256.New()
	writeNode(h, n)

	for _, e := range n.Edges {
		if e.Kind != EdgeCompose && e.Kind != EdgeAggregate {
			continue
		}
		if e.Target == n.Name {
			continue
		}
		source, ok := f.graph.Lookup(e.Target)
		if !ok {
			fmt.Fprintf(h, "dangling\x00%s\x00", e.Target)
			continue
		}
		if f.state[source.Name] == gray {
			fmt.Fprintf(h, "back\x00%s\x00", source.Name)
			continue
		}
		fmt.Fprintf(h, "source\x00%s\x00%s\x00", source.Name, f.fingerprint(source))
	}

	f.state[n.Name] = black

	fp := hex.EncodeToString(h.Sum(nil))
	f.memo[n.Name] = fp
	return fp
}

// writeNode streams the node's own declaration into the hash in a
// canonical shape. Markers are a set and get sorted; everything else
// keeps declaration order because order is load-bearing.
func writeNode(w io.Writer, n *Node) {
	fmt.Fprintf(w, "node\x00%s\x00%s\x00", n.Name, n.Kind)

	markers := make([]string, len(n.Markers))
	for i, m := range n.Markers {
		markers[i] = string(m)
	}
	sort.Strings(markers)
	for _, m := range markers {
		fmt.Fprintf(w, "marker\x00%s\x00", m)
	}

	for _, fld := range n.Fields {
		fmt.Fprintf(w, "field\x00%s\x00%s\x00", fld.Name, fld.Type)
	}

	for _, e := range n.Edges {
		fmt.Fprintf(w, "edge\x00%s\x00%s\x00", e.Kind, e.Target)
	}
}
