package txn

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/latticedb/lattice/pkg/block"
	"github.com/latticedb/lattice/pkg/graph"
	"github.com/latticedb/lattice/pkg/index"
	"github.com/latticedb/lattice/pkg/types"
	"github.com/latticedb/lattice/pkg/wal"
)

func newTestManager(t *testing.T) (*Manager, *graph.Engine) {
	t.Helper()
	store, err := block.NewStore(block.NewMemoryBackend(), 64)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	g := graph.New(store, "test-graph")
	g.SetIndexer(index.NewManager())

	w, err := wal.Open(filepath.Join(t.TempDir(), "wal.db"))
	if err != nil {
		t.Fatalf("wal.Open: %v", err)
	}
	t.Cleanup(func() { w.Close() })

	return New(g, w), g
}

func TestCommitAppliesAndPersists(t *testing.T) {
	m, g := newTestManager(t)
	ctx := context.Background()

	tx := m.Begin(types.ReadCommitted)
	if err := m.AddCreateNode(tx, "n1", []string{"Person"}, map[string]types.Value{"name": types.NewString("ada")}); err != nil {
		t.Fatalf("AddCreateNode: %v", err)
	}
	if err := m.Commit(ctx, tx); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	n, ok := g.GetNode("n1")
	if !ok {
		t.Fatalf("expected node n1 to exist after commit")
	}
	if !n.Properties["name"].Equal(types.NewString("ada")) {
		t.Fatalf("unexpected properties: %+v", n.Properties)
	}
	if state, ok := m.State(tx); ok {
		t.Fatalf("expected committed tx to be forgotten, got state %v", state)
	}
}

func TestRollbackDiscardsBuffer(t *testing.T) {
	m, g := newTestManager(t)

	tx := m.Begin(types.ReadCommitted)
	if err := m.AddCreateNode(tx, "n1", nil, nil); err != nil {
		t.Fatalf("AddCreateNode: %v", err)
	}
	if err := m.Rollback(tx); err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	if _, ok := g.GetNode("n1"); ok {
		t.Fatalf("expected node n1 to not exist after rollback")
	}
}

func TestCommitUnknownTxFails(t *testing.T) {
	m, _ := newTestManager(t)
	if err := m.Commit(context.Background(), "ghost"); err == nil {
		t.Fatalf("expected error committing unknown tx")
	}
}

func TestCommitMissingRelationshipEndpointRollsBack(t *testing.T) {
	m, g := newTestManager(t)

	tx := m.Begin(types.ReadCommitted)
	if err := m.AddCreateRelationship(tx, "r1", "KNOWS", "ghost-a", "ghost-b", nil); err != nil {
		t.Fatalf("AddCreateRelationship: %v", err)
	}
	if err := m.Commit(context.Background(), tx); err == nil {
		t.Fatalf("expected commit to fail for missing endpoints")
	}
	if g.RelationshipCount() != 0 {
		t.Fatalf("expected no relationship to be created")
	}
}

func TestSerializableWriteWriteConflict(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	txA := m.Begin(types.Serializable)
	txB := m.Begin(types.Serializable)

	if err := m.AddCreateNode(txA, "shared", nil, nil); err != nil {
		t.Fatalf("AddCreateNode A: %v", err)
	}
	if err := m.AddCreateNode(txB, "shared", nil, nil); err != nil {
		t.Fatalf("AddCreateNode B: %v", err)
	}

	if err := m.Commit(ctx, txA); err != nil {
		t.Fatalf("Commit A: %v", err)
	}
	if err := m.Commit(ctx, txB); err == nil {
		t.Fatalf("expected serializable write-write conflict on commit B")
	}
}

func TestReadCommittedNeverConflicts(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	txA := m.Begin(types.ReadCommitted)
	txB := m.Begin(types.ReadCommitted)

	m.AddCreateNode(txA, "a", nil, nil)
	m.AddCreateNode(txB, "b", nil, nil)

	if err := m.Commit(ctx, txA); err != nil {
		t.Fatalf("Commit A: %v", err)
	}
	if err := m.Commit(ctx, txB); err != nil {
		t.Fatalf("Commit B should not conflict under READ_COMMITTED: %v", err)
	}
}

func TestRepeatableReadConflictsOnlyWithReadSet(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	m.AddCreateNode(m.Begin(types.ReadCommitted), "x", nil, nil)
	seed := m.Begin(types.ReadCommitted)
	m.AddCreateNode(seed, "x", nil, nil)
	m.Commit(ctx, seed)

	reader := m.Begin(types.RepeatableRead)
	if err := m.AddRead(reader, "x"); err != nil {
		t.Fatalf("AddRead: %v", err)
	}

	writer := m.Begin(types.ReadCommitted)
	if err := m.AddSetProperty(writer, "x", map[string]types.Value{"touched": types.NewBool(true)}); err != nil {
		t.Fatalf("AddSetProperty: %v", err)
	}
	if err := m.Commit(ctx, writer); err != nil {
		t.Fatalf("Commit writer: %v", err)
	}

	if err := m.Commit(ctx, reader); err == nil {
		t.Fatalf("expected repeatable-read conflict: reader's read-set overlaps writer's write-set")
	}
}

func TestRecoverReplaysCommittedOperations(t *testing.T) {
	store, err := block.NewStore(block.NewMemoryBackend(), 64)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	g := graph.New(store, "test-graph")
	g.SetIndexer(index.NewManager())

	walPath := filepath.Join(t.TempDir(), "wal.db")
	w, err := wal.Open(walPath)
	if err != nil {
		t.Fatalf("wal.Open: %v", err)
	}

	m := New(g, w)
	ctx := context.Background()
	tx := m.Begin(types.ReadCommitted)
	m.AddCreateNode(tx, "n1", []string{"Person"}, nil)
	if err := m.Commit(ctx, tx); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	w.Close()

	freshStore, err := block.NewStore(block.NewMemoryBackend(), 64)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	freshGraph := graph.New(freshStore, "test-graph")
	freshGraph.SetIndexer(index.NewManager())

	w2, err := wal.Open(walPath)
	if err != nil {
		t.Fatalf("reopen wal: %v", err)
	}
	defer w2.Close()

	m2 := New(freshGraph, w2)
	if err := m2.Recover(); err != nil {
		t.Fatalf("Recover: %v", err)
	}
	if _, ok := freshGraph.GetNode("n1"); !ok {
		t.Fatalf("expected n1 to be restored by recovery")
	}
}
