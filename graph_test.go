package tessera_test

import (
	"testing"

	tessera "github.com/tessera-dev/tessera"
)

// Test fixture helpers shared across this package's tests. They build
// nodes the way the front-end would hand them over.

func component(name string, fields ...tessera.Field) tessera.Node {
	return tessera.Node{
		Name:    name,
		Kind:    tessera.KindStruct,
		Markers: []tessera.Marker{tessera.MarkerComponent},
		Fields:  fields,
	}
}

func mixin(name string, fields ...tessera.Field) tessera.Node {
	return tessera.Node{
		Name:   name,
		Kind:   tessera.KindStruct,
		Fields: fields,
	}
}

func system(name string) tessera.Node {
	return tessera.Node{
		Name:    name,
		Kind:    tessera.KindReference,
		Markers: []tessera.Marker{tessera.MarkerSystem},
	}
}

func bundle(name string, fields ...tessera.Field) tessera.Node {
	return tessera.Node{
		Name:    name,
		Kind:    tessera.KindStruct,
		Markers: []tessera.Marker{tessera.MarkerBundle},
		Fields:  fields,
	}
}

func field(name, typ string) tessera.Field {
	return tessera.Field{Name: name, Type: typ}
}

func edge(kind tessera.EdgeKind, target string) tessera.Edge {
	return tessera.Edge{Kind: kind, Target: target}
}

func withEdges(n tessera.Node, edges ...tessera.Edge) tessera.Node {
	n.Edges = edges
	return n
}

func mustGraph(t *testing.T, nodes ...tessera.Node) *tessera.Graph {
	t.Helper()
	g, err := tessera.NewGraph(nodes)
	if err != nil {
		t.Fatalf("NewGraph() error = %v", err)
	}
	return g
}

func TestNewGraph_DuplicateIdentity(t *testing.T) {
	_, err := tessera.NewGraph([]tessera.Node{
		component("demo/Position"),
		component("demo/Position"),
	})
	if err == nil {
		t.Fatal("expected error for duplicate identity, got nil")
	}
	if !tessera.IsDuplicateNodeErr(err) {
		t.Errorf("IsDuplicateNodeErr(%v) = false, want true", err)
	}
}

func TestNewGraph_DeduplicatesRepeatedEdges(t *testing.T) {
	g := mustGraph(t,
		mixin("demo/Vec2", field("X", "float32")),
		withEdges(component("demo/Position"),
			edge(tessera.EdgeCompose, "demo/Vec2"),
			edge(tessera.EdgeCompose, "demo/Vec2"),
		),
	)

	pos, ok := g.Lookup("demo/Position")
	if !ok {
		t.Fatal("Lookup(demo/Position) not found")
	}
	if len(pos.Edges) != 1 {
		t.Errorf("edges after dedup = %d, want 1", len(pos.Edges))
	}
}

func TestNewGraph_DerivesAggregateEdges(t *testing.T) {
	g := mustGraph(t,
		component("demo/Health"),
		component("demo/Armor"),
		bundle("demo/Survivor",
			field("Health", "demo/Health"),
			field("Armor", "demo/Armor"),
		),
	)

	b, _ := g.Lookup("demo/Survivor")
	if len(b.Edges) != 2 {
		t.Fatalf("derived edges = %d, want 2", len(b.Edges))
	}
	for i, want := range []string{"demo/Health", "demo/Armor"} {
		e := b.Edges[i]
		if e.Kind != tessera.EdgeAggregate || e.Target != want {
			t.Errorf("edge[%d] = %s %s, want aggregate %s", i, e.Kind, e.Target, want)
		}
	}
}

func TestNewGraph_Lookup(t *testing.T) {
	g := mustGraph(t, component("demo/Position"))

	if _, ok := g.Lookup("demo/Position"); !ok {
		t.Error("Lookup(demo/Position) = false, want true")
	}
	if _, ok := g.Lookup("demo/Missing"); ok {
		t.Error("Lookup(demo/Missing) = true, want false")
	}
}

func TestNewGraph_DoesNotAliasCallerSlices(t *testing.T) {
	nodes := []tessera.Node{component("demo/Position", field("X", "float32"))}
	g := mustGraph(t, nodes...)

	nodes[0].Fields[0].Name = "mutated"

	n, _ := g.Lookup("demo/Position")
	if n.Fields[0].Name != "X" {
		t.Errorf("graph field = %q, want %q", n.Fields[0].Name, "X")
	}
}
