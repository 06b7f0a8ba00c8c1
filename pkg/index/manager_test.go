package index

import (
	"testing"

	"github.com/latticedb/lattice/pkg/types"
)

func node(id string, labels []string, props map[string]types.Value) *types.Node {
	return &types.Node{ID: id, Labels: labels, Properties: props}
}

func TestPropertyIndexEqualityLookup(t *testing.T) {
	m := NewManager()
	if err := m.CreateIndex(Spec{Name: "Person.age", Kind: KindProperty, Label: "Person", Property: "age"}); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}

	m.IndexNode(node("a", []string{"Person"}, map[string]types.Value{"age": types.NewInt(30)}))
	m.IndexNode(node("b", []string{"Person"}, map[string]types.Value{"age": types.NewInt(30)}))
	m.IndexNode(node("c", []string{"Person"}, map[string]types.Value{"age": types.NewInt(40)}))

	ids, ok := m.FindNodes("Person", map[string]types.Value{"age": types.NewInt(30)}, 0)
	if !ok {
		t.Fatalf("expected index-backed lookup to succeed")
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 matches, got %d: %v", len(ids), ids)
	}
}

func TestFindNodesFallsBackWithoutIndex(t *testing.T) {
	m := NewManager()
	m.IndexNode(node("a", []string{"Person"}, map[string]types.Value{"age": types.NewInt(30)}))

	_, ok := m.FindNodes("Person", map[string]types.Value{"age": types.NewInt(30)}, 0)
	if ok {
		t.Fatalf("expected fallback (ok=false) when no property index is declared")
	}

	ids, ok := m.FindNodes("Person", nil, 0)
	if !ok || len(ids) != 1 {
		t.Fatalf("label-only lookup should always be index-backed, got ok=%v ids=%v", ok, ids)
	}
}

func TestUniqueConstraintViolation(t *testing.T) {
	m := NewManager()
	if err := m.CreateIndex(Spec{Name: "Person.email", Kind: KindProperty, Label: "Person", Property: "email", Unique: true}); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}

	props := map[string]types.Value{"email": types.NewString("a@example.com")}
	if err := m.CheckUniqueNode([]string{"Person"}, props, ""); err != nil {
		t.Fatalf("expected no violation on first insert: %v", err)
	}
	m.IndexNode(node("n1", []string{"Person"}, props))

	if err := m.CheckUniqueNode([]string{"Person"}, props, ""); err == nil {
		t.Fatalf("expected unique constraint violation for duplicate email")
	}
	if err := m.CheckUniqueNode([]string{"Person"}, props, "n1"); err != nil {
		t.Fatalf("expected self-exclusion to pass during update, got %v", err)
	}
}

func TestReindexNodeMovesPropertyEntry(t *testing.T) {
	m := NewManager()
	m.CreateIndex(Spec{Name: "Person.age", Kind: KindProperty, Label: "Person", Property: "age"})

	old := node("n1", []string{"Person"}, map[string]types.Value{"age": types.NewInt(30)})
	m.IndexNode(old)

	updated := node("n1", []string{"Person"}, map[string]types.Value{"age": types.NewInt(31)})
	m.ReindexNode(old, updated)

	ids, _ := m.FindNodes("Person", map[string]types.Value{"age": types.NewInt(30)}, 0)
	if len(ids) != 0 {
		t.Fatalf("expected stale age 30 entry to be gone, got %v", ids)
	}
	ids, _ = m.FindNodes("Person", map[string]types.Value{"age": types.NewInt(31)}, 0)
	if len(ids) != 1 {
		t.Fatalf("expected fresh age 31 entry, got %v", ids)
	}
}

func TestUnindexNodeRemovesFromLabelAndProperty(t *testing.T) {
	m := NewManager()
	m.CreateIndex(Spec{Name: "Person.age", Kind: KindProperty, Label: "Person", Property: "age"})
	n := node("n1", []string{"Person"}, map[string]types.Value{"age": types.NewInt(30)})
	m.IndexNode(n)
	m.UnindexNode(n)

	ids, ok := m.FindNodes("Person", nil, 0)
	if !ok || len(ids) != 0 {
		t.Fatalf("expected no nodes after unindex, got %v", ids)
	}
}

func TestCompositeIndexUniqueness(t *testing.T) {
	m := NewManager()
	m.CreateIndex(Spec{Name: "Person.name_city", Kind: KindComposite, Label: "Person", Properties: []string{"name", "city"}, Unique: true})

	props := map[string]types.Value{"name": types.NewString("ada"), "city": types.NewString("ldn")}
	if err := m.CheckUniqueNode([]string{"Person"}, props, ""); err != nil {
		t.Fatalf("unexpected violation: %v", err)
	}
	m.IndexNode(node("n1", []string{"Person"}, props))
	if err := m.CheckUniqueNode([]string{"Person"}, props, ""); err == nil {
		t.Fatalf("expected composite unique violation")
	}
}

func TestRelationshipIncidenceByType(t *testing.T) {
	m := NewManager()
	r := &types.Relationship{ID: "r1", Type: "KNOWS", SourceID: "a", TargetID: "b"}
	m.IndexRelationship(r)

	out := m.IncidentByType("a", "KNOWS", types.DirOut)
	if len(out) != 1 || out[0] != "r1" {
		t.Fatalf("unexpected outgoing incidence: %v", out)
	}
	in := m.IncidentByType("b", "KNOWS", types.DirIn)
	if len(in) != 1 || in[0] != "r1" {
		t.Fatalf("unexpected incoming incidence: %v", in)
	}

	m.UnindexRelationship(r)
	if out := m.IncidentByType("a", "KNOWS", types.DirOut); len(out) != 0 {
		t.Fatalf("expected empty incidence after unindex, got %v", out)
	}
}

func TestFullTextSearchRanksByFrequency(t *testing.T) {
	m := NewManager()
	m.CreateIndex(Spec{Name: "Doc.body", Kind: KindFullText, Label: "Doc", Property: "body"})

	m.IndexNode(node("d1", []string{"Doc"}, map[string]types.Value{"body": types.NewString("graph graph database")}))
	m.IndexNode(node("d2", []string{"Doc"}, map[string]types.Value{"body": types.NewString("graph theory")}))

	results, err := m.Search("Doc.body", "graph", 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 || results[0].ID != "d1" {
		t.Fatalf("expected d1 ranked first, got %+v", results)
	}
}

func TestRebuildRestoresIndexesFromSnapshot(t *testing.T) {
	m := NewManager()
	m.CreateIndex(Spec{Name: "Person.age", Kind: KindProperty, Label: "Person", Property: "age"})

	nodes := []*types.Node{
		node("a", []string{"Person"}, map[string]types.Value{"age": types.NewInt(30)}),
		node("b", []string{"Person"}, map[string]types.Value{"age": types.NewInt(40)}),
	}
	rels := []*types.Relationship{{ID: "r1", Type: "KNOWS", SourceID: "a", TargetID: "b"}}

	m.Rebuild(nodes, rels)

	ids, ok := m.FindNodes("Person", map[string]types.Value{"age": types.NewInt(30)}, 0)
	if !ok || len(ids) != 1 {
		t.Fatalf("expected rebuilt index to serve lookup, got ok=%v ids=%v", ok, ids)
	}
	if out := m.IncidentByType("a", "KNOWS", types.DirOut); len(out) != 1 {
		t.Fatalf("expected rebuilt relationship incidence, got %v", out)
	}
}

func TestGetIndexStats(t *testing.T) {
	m := NewManager()
	m.CreateIndex(Spec{Name: "Person.age", Kind: KindProperty, Label: "Person", Property: "age"})
	m.IndexNode(node("a", []string{"Person"}, map[string]types.Value{"age": types.NewInt(30)}))

	stats, err := m.GetIndexStats("Person.age")
	if err != nil {
		t.Fatalf("GetIndexStats: %v", err)
	}
	if stats.Entries != 1 {
		t.Fatalf("expected 1 entry, got %d", stats.Entries)
	}
}

func TestDropIndexThenListIndexes(t *testing.T) {
	m := NewManager()
	m.CreateIndex(Spec{Name: "Person.age", Kind: KindProperty, Label: "Person", Property: "age"})
	if got := m.ListIndexes(); len(got) != 1 {
		t.Fatalf("expected 1 index, got %v", got)
	}
	if err := m.DropIndex("Person.age"); err != nil {
		t.Fatalf("DropIndex: %v", err)
	}
	if got := m.ListIndexes(); len(got) != 0 {
		t.Fatalf("expected 0 indexes after drop, got %v", got)
	}
	if err := m.DropIndex("Person.age"); err == nil {
		t.Fatalf("expected error dropping an already-dropped index")
	}
}
