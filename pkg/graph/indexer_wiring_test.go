package graph

import (
	"testing"

	"github.com/latticedb/lattice/pkg/index"
	"github.com/latticedb/lattice/pkg/types"
)

func TestEngineDelegatesToIndexManager(t *testing.T) {
	e := newTestEngine(t)
	idx := index.NewManager()
	if err := idx.CreateIndex(index.Spec{Name: "Person.email", Kind: index.KindProperty, Label: "Person", Property: "email", Unique: true}); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}
	e.SetIndexer(idx)

	if _, err := e.CreateNode([]string{"Person"}, map[string]types.Value{"email": types.NewString("a@example.com")}, ""); err != nil {
		t.Fatalf("CreateNode: %v", err)
	}
	if _, err := e.CreateNode([]string{"Person"}, map[string]types.Value{"email": types.NewString("a@example.com")}, ""); err == nil {
		t.Fatalf("expected unique constraint violation on duplicate email")
	}

	found := e.FindNodes("Person", map[string]types.Value{"email": types.NewString("a@example.com")}, 0)
	if len(found) != 1 {
		t.Fatalf("expected 1 node served by the index, got %d", len(found))
	}
}
