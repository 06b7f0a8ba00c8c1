package graph

import (
	"context"
	"testing"

	"github.com/latticedb/lattice/pkg/block"
	"github.com/latticedb/lattice/pkg/types"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	store, err := block.NewStore(block.NewMemoryBackend(), 64)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return New(store, "test-graph")
}

func TestCreateAndGetNode(t *testing.T) {
	e := newTestEngine(t)
	id, err := e.CreateNode([]string{"Person"}, map[string]types.Value{"name": types.NewString("ada")}, "")
	if err != nil {
		t.Fatalf("CreateNode: %v", err)
	}
	n, ok := e.GetNode(id)
	if !ok {
		t.Fatalf("expected node %s to exist", id)
	}
	if !n.HasLabel("Person") {
		t.Fatalf("expected label Person, got %v", n.Labels)
	}
	if !n.Properties["name"].Equal(types.NewString("ada")) {
		t.Fatalf("unexpected name property: %v", n.Properties["name"])
	}
}

func TestCreateNodeDuplicateIDRejected(t *testing.T) {
	e := newTestEngine(t)
	if _, err := e.CreateNode(nil, nil, "fixed"); err != nil {
		t.Fatalf("CreateNode: %v", err)
	}
	if _, err := e.CreateNode(nil, nil, "fixed"); err == nil {
		t.Fatalf("expected error creating duplicate id")
	}
}

func TestUpdateNodePartialPatch(t *testing.T) {
	e := newTestEngine(t)
	id, _ := e.CreateNode(nil, map[string]types.Value{
		"a": types.NewInt(1),
		"b": types.NewInt(2),
	}, "")

	if err := e.UpdateNode(id, map[string]types.Value{"a": types.NewInt(99), "c": types.Null}); err != nil {
		t.Fatalf("UpdateNode: %v", err)
	}
	n, _ := e.GetNode(id)
	if !n.Properties["a"].Equal(types.NewInt(99)) {
		t.Fatalf("a = %v, want 99", n.Properties["a"])
	}
	if !n.Properties["b"].Equal(types.NewInt(2)) {
		t.Fatalf("b should be unchanged, got %v", n.Properties["b"])
	}
}

func TestDeleteNodeCascadesRelationships(t *testing.T) {
	e := newTestEngine(t)
	a, _ := e.CreateNode(nil, nil, "a")
	b, _ := e.CreateNode(nil, nil, "b")
	relID, err := e.CreateRelationship("KNOWS", a, b, nil, "")
	if err != nil {
		t.Fatalf("CreateRelationship: %v", err)
	}

	if err := e.DeleteNode(a); err != nil {
		t.Fatalf("DeleteNode: %v", err)
	}
	if _, ok := e.GetNode(a); ok {
		t.Fatalf("expected node a to be gone")
	}
	if e.RelationshipCount() != 0 {
		t.Fatalf("expected incident relationship %s to be cascaded away", relID)
	}
	rels := e.GetRelationships(b, types.DirIn, nil, 0)
	if len(rels) != 0 {
		t.Fatalf("expected no incoming relationships on b after cascade delete")
	}
}

func TestDeleteMissingNodeIsNoop(t *testing.T) {
	e := newTestEngine(t)
	if err := e.DeleteNode("does-not-exist"); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
}

func TestCreateRelationshipMissingEndpointFails(t *testing.T) {
	e := newTestEngine(t)
	a, _ := e.CreateNode(nil, nil, "a")
	if _, err := e.CreateRelationship("KNOWS", a, "ghost", nil, ""); err == nil {
		t.Fatalf("expected validation error for missing endpoint")
	}
}

func TestGetRelationshipsDirectionAndTypeFilter(t *testing.T) {
	e := newTestEngine(t)
	a, _ := e.CreateNode(nil, nil, "a")
	b, _ := e.CreateNode(nil, nil, "b")
	c, _ := e.CreateNode(nil, nil, "c")
	e.CreateRelationship("KNOWS", a, b, nil, "")
	e.CreateRelationship("LIKES", c, a, nil, "")

	out := e.GetRelationships(a, types.DirOut, []string{"KNOWS"}, 0)
	if len(out) != 1 || out[0].Type != "KNOWS" {
		t.Fatalf("unexpected outgoing KNOWS result: %+v", out)
	}
	in := e.GetRelationships(a, types.DirIn, nil, 0)
	if len(in) != 1 || in[0].Type != "LIKES" {
		t.Fatalf("unexpected incoming result: %+v", in)
	}
	both := e.GetRelationships(a, types.DirBoth, nil, 0)
	if len(both) != 2 {
		t.Fatalf("expected 2 relationships in both direction, got %d", len(both))
	}
}

func TestFindNodesScanFallback(t *testing.T) {
	e := newTestEngine(t)
	e.CreateNode([]string{"Person"}, map[string]types.Value{"age": types.NewInt(30)}, "")
	e.CreateNode([]string{"Person"}, map[string]types.Value{"age": types.NewInt(40)}, "")
	e.CreateNode([]string{"Company"}, nil, "")

	people := e.FindNodes("Person", nil, 0)
	if len(people) != 2 {
		t.Fatalf("expected 2 Person nodes, got %d", len(people))
	}
	filtered := e.FindNodes("Person", map[string]types.Value{"age": types.NewInt(30)}, 0)
	if len(filtered) != 1 {
		t.Fatalf("expected 1 filtered node, got %d", len(filtered))
	}
}

func TestTraversePatternNoRevisitOnPath(t *testing.T) {
	e := newTestEngine(t)
	a, _ := e.CreateNode([]string{"N"}, nil, "a")
	b, _ := e.CreateNode([]string{"N"}, nil, "b")
	c, _ := e.CreateNode([]string{"N"}, nil, "c")
	e.CreateRelationship("EDGE", a, b, nil, "")
	e.CreateRelationship("EDGE", b, c, nil, "")
	e.CreateRelationship("EDGE", c, a, nil, "") // cycle back to start

	hops, err := e.TraversePattern(a, "EDGE", types.DirOut, 5, nil, 0)
	if err != nil {
		t.Fatalf("TraversePattern: %v", err)
	}
	seen := map[string]bool{}
	for _, h := range hops {
		if seen[h.Node.ID] {
			t.Fatalf("node %s revisited within traversal", h.Node.ID)
		}
		seen[h.Node.ID] = true
	}
}

func TestFindPathsSimplePaths(t *testing.T) {
	e := newTestEngine(t)
	a, _ := e.CreateNode(nil, nil, "a")
	b, _ := e.CreateNode(nil, nil, "b")
	c, _ := e.CreateNode(nil, nil, "c")
	e.CreateRelationship("EDGE", a, b, nil, "")
	e.CreateRelationship("EDGE", b, c, nil, "")

	paths, err := e.FindPaths(a, c, 5, nil)
	if err != nil {
		t.Fatalf("FindPaths: %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("expected 1 path, got %d", len(paths))
	}
	if len(paths[0].Nodes) != 3 || len(paths[0].Relationships) != 2 {
		t.Fatalf("unexpected path shape: %+v", paths[0])
	}
}

func TestSaveAndLoadGraphRoundTrip(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	a, _ := e.CreateNode([]string{"Person"}, map[string]types.Value{"name": types.NewString("ada")}, "")
	b, _ := e.CreateNode([]string{"Person"}, nil, "")
	e.CreateRelationship("KNOWS", a, b, map[string]types.Value{"since": types.NewInt(2020)}, "")

	if _, err := e.SaveGraph(ctx); err != nil {
		t.Fatalf("SaveGraph: %v", err)
	}

	reloaded := New(e.store, e.headName)
	if err := reloaded.LoadGraph(ctx); err != nil {
		t.Fatalf("LoadGraph: %v", err)
	}
	if reloaded.NodeCount() != 2 || reloaded.RelationshipCount() != 1 {
		t.Fatalf("got %d nodes / %d rels after reload", reloaded.NodeCount(), reloaded.RelationshipCount())
	}
	n, ok := reloaded.GetNode(a)
	if !ok || !n.Properties["name"].Equal(types.NewString("ada")) {
		t.Fatalf("reloaded node missing expected property: %+v", n)
	}
}

func TestLoadGraphWithNoHeadIsEmpty(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	if err := e.LoadGraph(ctx); err != nil {
		t.Fatalf("LoadGraph: %v", err)
	}
	if e.NodeCount() != 0 {
		t.Fatalf("expected empty graph, got %d nodes", e.NodeCount())
	}
}
