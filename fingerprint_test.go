package tessera_test

import (
	"reflect"
	"testing"

	tessera "github.com/tessera-dev/tessera"
)

func TestFingerprints_Stable(t *testing.T) {
	nodes := []tessera.Node{
		mixin("demo/Vec2", field("X", "float32"), field("Y", "float32")),
		withEdges(component("demo/Position"), edge(tessera.EdgeCompose, "demo/Vec2")),
	}

	first := tessera.Fingerprints(mustGraph(t, nodes...))
	for i := 0; i < 10; i++ {
		again := tessera.Fingerprints(mustGraph(t, nodes...))
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("fingerprints changed between runs: %v vs %v", first, again)
		}
	}
	for name, fp := range first {
		if len(fp) != 64 {
			t.Errorf("fingerprint for %s = %q, want hex sha256", name, fp)
		}
	}
}

func TestFingerprints_SourceChangePropagates(t *testing.T) {
	before := tessera.Fingerprints(mustGraph(t,
		mixin("demo/Vec2", field("X", "float32")),
		withEdges(component("demo/Position"), edge(tessera.EdgeCompose, "demo/Vec2")),
		component("demo/Health", field("Points", "int")),
	))
	after := tessera.Fingerprints(mustGraph(t,
		mixin("demo/Vec2", field("X", "float64")),
		withEdges(component("demo/Position"), edge(tessera.EdgeCompose, "demo/Vec2")),
		component("demo/Health", field("Points", "int")),
	))

	changed := tessera.Delta(before, after)
	want := []string{"demo/Position", "demo/Vec2"}
	if !reflect.DeepEqual(changed, want) {
		t.Errorf("Delta = %v, want %v; a source edit must reach its dependents and only them", changed, want)
	}
}

func TestFingerprints_BundleMemberChangePropagates(t *testing.T) {
	before := tessera.Fingerprints(mustGraph(t,
		component("demo/Health", field("Points", "int")),
		bundle("demo/Kit", field("Health", "demo/Health")),
	))
	after := tessera.Fingerprints(mustGraph(t,
		component("demo/Health", field("Points", "uint32")),
		bundle("demo/Kit", field("Health", "demo/Health")),
	))

	changed := tessera.Delta(before, after)
	want := []string{"demo/Health", "demo/Kit"}
	if !reflect.DeepEqual(changed, want) {
		t.Errorf("Delta = %v, want %v", changed, want)
	}
}

func TestFingerprints_MarkerOrderIrrelevant(t *testing.T) {
	a := tessera.Fingerprints(mustGraph(t, tessera.Node{
		Name:    "demo/Kit",
		Kind:    tessera.KindStruct,
		Markers: []tessera.Marker{tessera.MarkerComponent, tessera.MarkerBundle},
		Fields:  []tessera.Field{field("Health", "demo/Health")},
	}))
	b := tessera.Fingerprints(mustGraph(t, tessera.Node{
		Name:    "demo/Kit",
		Kind:    tessera.KindStruct,
		Markers: []tessera.Marker{tessera.MarkerBundle, tessera.MarkerComponent},
		Fields:  []tessera.Field{field("Health", "demo/Health")},
	}))

	if a["demo/Kit"] != b["demo/Kit"] {
		t.Error("marker order changed the fingerprint; markers are a set")
	}
}

func TestFingerprints_FieldOrderMatters(t *testing.T) {
	a := tessera.Fingerprints(mustGraph(t,
		component("demo/P", field("X", "int"), field("Y", "int")),
	))
	b := tessera.Fingerprints(mustGraph(t,
		component("demo/P", field("Y", "int"), field("X", "int")),
	))

	if a["demo/P"] == b["demo/P"] {
		t.Error("field order did not change the fingerprint; declaration order is load-bearing")
	}
}

func TestFingerprints_CycleMembersTerminate(t *testing.T) {
	nodes := []tessera.Node{
		composing("demo/A", "demo/B"),
		composing("demo/B", "demo/A"),
	}

	first := tessera.Fingerprints(mustGraph(t, nodes...))
	again := tessera.Fingerprints(mustGraph(t, nodes...))
	if !reflect.DeepEqual(first, again) {
		t.Errorf("cycle fingerprints unstable: %v vs %v", first, again)
	}
	if first["demo/A"] == first["demo/B"] {
		t.Error("distinct cycle members collided")
	}
}

func TestDelta_AdditionsAndRemovals(t *testing.T) {
	prev := map[string]string{"demo/A": "1", "demo/B": "2"}
	next := map[string]string{"demo/B": "2", "demo/C": "3"}

	want := []string{"demo/A", "demo/C"}
	if got := tessera.Delta(prev, next); !reflect.DeepEqual(got, want) {
		t.Errorf("Delta = %v, want %v", got, want)
	}
}

func TestDelta_Identical(t *testing.T) {
	m := map[string]string{"demo/A": "1"}
	if got := tessera.Delta(m, m); len(got) != 0 {
		t.Errorf("Delta of identical maps = %v, want empty", got)
	}
}
