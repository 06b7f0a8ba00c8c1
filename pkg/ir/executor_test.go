package ir

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/latticedb/lattice/pkg/block"
	"github.com/latticedb/lattice/pkg/expr"
	"github.com/latticedb/lattice/pkg/graph"
	"github.com/latticedb/lattice/pkg/index"
	"github.com/latticedb/lattice/pkg/txn"
	"github.com/latticedb/lattice/pkg/types"
	"github.com/latticedb/lattice/pkg/wal"
)

func openTestWAL(t *testing.T) *wal.WAL {
	t.Helper()
	w, err := wal.Open(filepath.Join(t.TempDir(), "wal.db"))
	if err != nil {
		t.Fatalf("wal.Open: %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return w
}

func newTestExecutor(t *testing.T) (*Executor, *graph.Engine, *txn.Manager, string) {
	t.Helper()
	store, err := block.NewStore(block.NewMemoryBackend(), 64)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	g := graph.New(store, "test")
	g.SetIndexer(index.NewManager())

	m := txn.New(g, openTestWAL(t))
	txID := m.Begin(types.ReadCommitted)
	return New(g, m, txID), g, m, txID
}

func TestCreateNodeThenScanLabelAfterCommit(t *testing.T) {
	ex, g, m, txID := newTestExecutor(t)
	ctx := context.Background()

	create := CreateNode{Input: SingleRow{}, Var: "n", Labels: []string{"Person"}, Properties: map[string]expr.Expr{
		"name": expr.Literal{Value: types.NewString("ada")},
	}}
	rows, err := ex.Run(ctx, create)
	if err != nil {
		t.Fatalf("Run create: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row from CREATE, got %d", len(rows))
	}
	if err := m.Commit(ctx, txID); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if g.NodeCount() != 1 {
		t.Fatalf("expected node to exist after commit")
	}

	scanExec, _, _, _ := newTestExecutorOver(t, g)
	out, err := scanExec.Run(ctx, ScanLabel{Var: "n", Label: "Person"})
	if err != nil {
		t.Fatalf("Run scan: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 scanned row, got %d", len(out))
	}
}

func newTestExecutorOver(t *testing.T, g *graph.Engine) (*Executor, *graph.Engine, *txn.Manager, string) {
	t.Helper()
	m := txn.New(g, openTestWAL(t))
	txID := m.Begin(types.ReadCommitted)
	return New(g, m, txID), g, m, txID
}

func TestFilterDropsRowsWithFalsyExpression(t *testing.T) {
	ex, _, _, _ := newTestExecutor(t)
	ctx := context.Background()

	rows, err := ex.exec(ctx, Filter{
		Input: Union{
			Left:  projectLiteral(5),
			Right: projectLiteral(1),
		},
		Expr: expr.Comparison{Op: ">", Left: expr.Identifier{Name: "x"}, Right: expr.Literal{Value: types.NewInt(2)}},
	}, []expr.Row{{}})
	if err != nil {
		t.Fatalf("exec filter: %v", err)
	}
	if len(rows) != 1 || rows[0]["x"].Int != 5 {
		t.Fatalf("expected only x=5 to survive filter, got %+v", rows)
	}
}

func projectLiteral(n int64) Op {
	return Project{
		Input:       SingleRow{},
		Projections: []Projection{{Expr: expr.Literal{Value: types.NewInt(n)}, Alias: "x"}},
	}
}

func TestUnwindNullListProducesZeroRows(t *testing.T) {
	ex, _, _, _ := newTestExecutor(t)
	ctx := context.Background()
	rows, err := ex.exec(ctx, Unwind{Input: SingleRow{}, Expr: expr.Literal{Value: types.Null}, Alias: "x"}, []expr.Row{{}})
	if err != nil {
		t.Fatalf("exec unwind: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected 0 rows unwinding null, got %d", len(rows))
	}
}

func TestUnwindListProducesOneRowPerElement(t *testing.T) {
	ex, _, _, _ := newTestExecutor(t)
	ctx := context.Background()
	list := types.NewList([]types.Value{types.NewInt(1), types.NewInt(2), types.NewInt(3)})
	rows, err := ex.exec(ctx, Unwind{Input: SingleRow{}, Expr: expr.Literal{Value: list}, Alias: "x"}, []expr.Row{{}})
	if err != nil {
		t.Fatalf("exec unwind: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
}

func TestAggregateCountStar(t *testing.T) {
	ex, g, _, _ := newTestExecutor(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := g.CreateNode([]string{"Item"}, nil, ""); err != nil {
			t.Fatalf("CreateNode: %v", err)
		}
	}

	rows, err := ex.exec(ctx, Aggregate{
		Input: ScanLabel{Var: "n", Label: "Item"},
		Funcs: []AggregateFunc{{Name: "count", Alias: "c"}},
	}, []expr.Row{{}})
	if err != nil {
		t.Fatalf("exec aggregate: %v", err)
	}
	if len(rows) != 1 || rows[0]["c"].Int != 3 {
		t.Fatalf("expected count=3, got %+v", rows)
	}
}

func TestOrderBySortsNullsLast(t *testing.T) {
	ex, _, _, _ := newTestExecutor(t)
	ctx := context.Background()

	list := types.NewList([]types.Value{types.NewInt(2), types.Null, types.NewInt(1)})
	input := Unwind{Input: SingleRow{}, Expr: expr.Literal{Value: list}, Alias: "x"}
	out, err := ex.exec(ctx, OrderBy{Input: input, Keys: []SortKey{{Expr: expr.Identifier{Name: "x"}}}}, []expr.Row{{}})
	if err != nil {
		t.Fatalf("exec orderby: %v", err)
	}
	if len(out) != 3 || out[0]["x"].Int != 1 || out[1]["x"].Int != 2 || !out[2]["x"].IsNull() {
		t.Fatalf("unexpected order: %+v", out)
	}
}
