// Package snapshot decodes declaration snapshots for tessera.
//
// A snapshot is the YAML hand-off between a compiler front-end and the
// resolution pass: every declared node with its kind, role markers,
// fields, and relations, in declaration order. This package converts
// snapshot bytes into tessera's graph node format. It isolates the YAML
// dependency from other packages.
//
// # Basic Usage
//
// Load a snapshot file:
//
//	nodes, err := snapshot.Load("tessera-snapshot.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	graph, err := tessera.NewGraph(nodes)
//
// Decode snapshot bytes:
//
//	nodes, err := snapshot.Decode(data)
//
// # Format
//
// Snapshots are versioned by a required top-level format number:
//
//	format: 1
//	nodes:
//	  - name: demo/Position
//	    kind: struct
//	    markers: [component]
//	    fields:
//	      - name: X
//	        type: float32
//	    composes: [demo/Vec2]
//
// Kind and marker strings are validated against the closed vocabulary;
// an unknown value fails the decode. Absent relation lists are simply
// absent, not an error. Relations decode in a fixed kind order, and
// within one kind in listed order, so a snapshot re-decodes into the
// same graph every time.
package snapshot

import (
	"errors"
	"fmt"
	"os"

	"sigs.k8s.io/yaml"

	"github.com/tessera-dev/tessera"
)

// Format is the snapshot format version this package reads.
const Format = 1

var (
	// ErrMalformed is returned when snapshot bytes do not decode into
	// the snapshot shape at all.
	ErrMalformed = errors.New("snapshot: malformed snapshot")

	// ErrFormat is returned when the snapshot's format version is
	// missing or not one this package reads.
	ErrFormat = errors.New("snapshot: unsupported format version")
)

// Snapshot is the wire shape of a snapshot file.
type Snapshot struct {
	Format int        `json:"format"`
	Nodes  []NodeDecl `json:"nodes,omitempty"`
}

// NodeDecl is one declared node as the front-end hands it over. The
// relation lists are split per kind in the file; Decode folds them into
// a single ordered relation list.
type NodeDecl struct {
	Name    string      `json:"name"`
	Kind    string      `json:"kind"`
	Markers []string    `json:"markers,omitempty"`
	Fields  []FieldDecl `json:"fields,omitempty"`

	Composes  []string `json:"composes,omitempty"`
	Requires  []string `json:"requires,omitempty"`
	Conflicts []string `json:"conflicts,omitempty"`
	Before    []string `json:"before,omitempty"`
	After     []string `json:"after,omitempty"`
}

// FieldDecl is one declared field: its name and the fully qualified
// name of its type.
type FieldDecl struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Load reads a snapshot file and returns its nodes in declaration
// order.
func Load(path string) ([]tessera.Node, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot file: %w", err)
	}
	return Decode(content)
}

// Decode parses snapshot bytes and returns the declared nodes in
// declaration order. Kinds and markers outside the closed vocabulary
// fail the decode; the error wraps tessera.ErrUnknownKind or
// tessera.ErrUnknownMarker so callers can tell a typo from a torn file.
func Decode(data []byte) ([]tessera.Node, error) {
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if snap.Format != Format {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrFormat, snap.Format, Format)
	}

	nodes := make([]tessera.Node, 0, len(snap.Nodes))
	for i, decl := range snap.Nodes {
		node, err := convertDecl(decl)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", i, err)
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func convertDecl(decl NodeDecl) (tessera.Node, error) {
	if decl.Name == "" {
		return tessera.Node{}, fmt.Errorf("%w: node without a name", ErrMalformed)
	}

	kind, err := tessera.ParseNodeKind(decl.Kind)
	if err != nil {
		return tessera.Node{}, fmt.Errorf("%q: %w", decl.Name, err)
	}

	node := tessera.Node{Name: decl.Name, Kind: kind}

	for _, m := range decl.Markers {
		marker, err := tessera.ParseMarker(m)
		if err != nil {
			return tessera.Node{}, fmt.Errorf("%q: %w", decl.Name, err)
		}
		node.Markers = append(node.Markers, marker)
	}

	for _, f := range decl.Fields {
		if f.Name == "" || f.Type == "" {
			return tessera.Node{}, fmt.Errorf("%w: field of %q without a name or type", ErrMalformed, decl.Name)
		}
		node.Fields = append(node.Fields, tessera.Field{Name: f.Name, Type: f.Type})
	}

	// Relations fold into one list in a fixed kind order so decoding
	// is position-stable no matter how the file groups them.
	for _, group := range []struct {
		kind    tessera.EdgeKind
		targets []string
	}{
		{tessera.EdgeCompose, decl.Composes},
		{tessera.EdgeRequire, decl.Requires},
		{tessera.EdgeConflict, decl.Conflicts},
		{tessera.EdgeBefore, decl.Before},
		{tessera.EdgeAfter, decl.After},
	} {
		for _, target := range group.targets {
			if target == "" {
				return tessera.Node{}, fmt.Errorf("%w: %s relation of %q without a target", ErrMalformed, group.kind, decl.Name)
			}
			node.Edges = append(node.Edges, tessera.Edge{Kind: group.kind, Target: target})
		}
	}

	return node, nil
}
