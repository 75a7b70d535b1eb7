// Package tessera resolves declarative composition and constraint graphs
// for a component-based simulation framework.
//
// A compiler front-end extracts declared types (components, bundles,
// systems, mixins) together with their relation markers and hands the
// result to this package as an immutable Graph. One resolution pass
// validates the graph structure, detects composition and containment
// cycles, flattens composed fields into deterministic closures, checks
// bundle membership, and verdicts ordering constraints. The pass returns
// every diagnostic it found alongside every artifact it could still
// produce; a code generator downstream consumes both.
//
// # Graph Model
//
// Nodes are declared types identified by a fully qualified name. Each
// node carries a closed kind tag (struct, reference, interface, enum,
// function), an ordered field list, a set of role markers, and an
// ordered list of typed relations to other nodes:
//
//	vec := tessera.Node{
//	    Name:   "demo/Vec2",
//	    Kind:   tessera.KindStruct,
//	    Fields: []tessera.Field{{Name: "X", Type: "float32"}, {Name: "Y", Type: "float32"}},
//	}
//	pos := tessera.Node{
//	    Name:    "demo/Position",
//	    Kind:    tessera.KindStruct,
//	    Markers: []tessera.Marker{tessera.MarkerComponent},
//	    Edges:   []tessera.Edge{{Kind: tessera.EdgeCompose, Target: "demo/Vec2"}},
//	}
//
// # Resolution Pass
//
//	graph, err := tessera.NewGraph([]tessera.Node{vec, pos})
//	if err != nil {
//	    return err
//	}
//	result, err := tessera.Resolve(ctx, graph)
//
// Resolve only returns a non-nil error when the context is cancelled;
// everything the pass has to say about the graph itself is carried as
// Diagnostic values in the Result. An Error-severity diagnostic blocks
// the artifact for that node and nothing else; Warning and Info do not
// block anything.
//
// # Determinism
//
// Passes over the same graph produce byte-identical results: relation
// lists keep declaration order, diagnostics are ordered by node and then
// by relation position, and fingerprints are content hashes with no
// dependence on time, randomness, or pointer identity. Hosts key their
// output caches on the fingerprints (see pkg/store for a PostgreSQL
// publication boundary that skips unchanged nodes).
package tessera

// NodeKind classifies a declared type. The front-end computes the kind
// once during extraction; the resolver never introspects types itself.
type NodeKind string

const (
	// KindStruct is a field-carrying value type. Components, mixins,
	// and bundles are all declared as structs.
	KindStruct NodeKind = "struct"

	// KindReference is a reference type. Systems are reference types.
	KindReference NodeKind = "reference"

	// KindInterface is an interface-like declaration.
	KindInterface NodeKind = "interface"

	// KindEnum is an enumeration.
	KindEnum NodeKind = "enum"

	// KindFunction is a function signature declaration.
	KindFunction NodeKind = "function"
)

// String returns the string representation of the kind.
func (k NodeKind) String() string {
	return string(k)
}

// Valid reports whether k is one of the closed kind set.
func (k NodeKind) Valid() bool {
	switch k {
	case KindStruct, KindReference, KindInterface, KindEnum, KindFunction:
		return true
	}
	return false
}

// ParseNodeKind converts a snapshot string into a NodeKind.
// Unknown values return an error wrapping ErrUnknownKind.
func ParseNodeKind(s string) (NodeKind, error) {
	k := NodeKind(s)
	if !k.Valid() {
		return "", unknownKindError(s)
	}
	return k, nil
}

// Marker is a role tag attached to a node by its declaration.
type Marker string

const (
	// MarkerComponent tags a capability: a value type attached to
	// runtime entities.
	MarkerComponent Marker = "component"

	// MarkerTag tags a tag-only capability with zero fields. Tag
	// components satisfy every check that asks for a component.
	MarkerTag Marker = "tag"

	// MarkerBundle tags an aggregate of capabilities. A bundle groups
	// component references under one name without flattening them.
	MarkerBundle Marker = "bundle"

	// MarkerSystem tags a behavior unit participating in ordering
	// constraints.
	MarkerSystem Marker = "system"
)

// String returns the string representation of the marker.
func (m Marker) String() string {
	return string(m)
}

// Valid reports whether m is a known role marker.
func (m Marker) Valid() bool {
	switch m {
	case MarkerComponent, MarkerTag, MarkerBundle, MarkerSystem:
		return true
	}
	return false
}

// ParseMarker converts a snapshot string into a Marker.
// Unknown values return an error wrapping ErrUnknownMarker.
func ParseMarker(s string) (Marker, error) {
	m := Marker(s)
	if !m.Valid() {
		return "", unknownMarkerError(s)
	}
	return m, nil
}

// EdgeKind classifies a relation declaration.
type EdgeKind string

const (
	// EdgeCompose pulls a mixin's fields into the declaring type.
	EdgeCompose EdgeKind = "compose"

	// EdgeRequire declares that a component needs another component
	// present on the same entity.
	EdgeRequire EdgeKind = "require"

	// EdgeConflict declares that two components must not share an
	// entity. Conflicts are expected to be declared on both sides.
	EdgeConflict EdgeKind = "conflict"

	// EdgeBefore orders a system ahead of another system.
	EdgeBefore EdgeKind = "before"

	// EdgeAfter orders a system behind another system.
	EdgeAfter EdgeKind = "after"

	// EdgeAggregate links a bundle to a component it groups. Aggregate
	// edges are derived from a bundle's fields at graph construction,
	// never declared directly.
	EdgeAggregate EdgeKind = "aggregate"
)

// String returns the string representation of the edge kind.
func (k EdgeKind) String() string {
	return string(k)
}
