package partition

import (
	"context"
	"testing"

	"github.com/latticedb/lattice/pkg/engine"
)

func newTestShard(t *testing.T) *engine.Engine {
	t.Helper()
	e, err := engine.Open(t.TempDir(), engine.DefaultOptions())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

func TestFederatedExecuteMergesDistinctRows(t *testing.T) {
	ctx := context.Background()
	a := newTestShard(t)
	b := newTestShard(t)

	if _, err := a.Execute(ctx, `CREATE (:Person {name: "ada"})`, nil, ""); err != nil {
		t.Fatalf("create on shard a: %v", err)
	}
	if _, err := b.Execute(ctx, `CREATE (:Person {name: "grace"})`, nil, ""); err != nil {
		t.Fatalf("create on shard b: %v", err)
	}

	f := NewFederated([]*engine.Engine{a, b})
	res, err := f.Execute(ctx, "MATCH (n:Person) RETURN n.name AS name", nil, "")
	if err != nil {
		t.Fatalf("federated execute: %v", err)
	}
	if len(res.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(res.Rows))
	}
}

func TestFederatedExecuteDedupesIdenticalRows(t *testing.T) {
	ctx := context.Background()
	a := newTestShard(t)
	b := newTestShard(t)

	for _, shard := range []*engine.Engine{a, b} {
		if _, err := shard.Execute(ctx, `CREATE (:Person {name: "ada"})`, nil, ""); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	f := NewFederated([]*engine.Engine{a, b})
	res, err := f.Execute(ctx, "MATCH (n:Person) RETURN n.name AS name", nil, "")
	if err != nil {
		t.Fatalf("federated execute: %v", err)
	}
	if len(res.Rows) != 1 {
		t.Fatalf("rows = %d, want 1 (deduped)", len(res.Rows))
	}
}

func TestFederatedExecuteNoShardsIsValidationError(t *testing.T) {
	f := NewFederated(nil)
	if _, err := f.Execute(context.Background(), "MATCH (n) RETURN n", nil, ""); err == nil {
		t.Fatal("expected an error for zero shards")
	}
}
