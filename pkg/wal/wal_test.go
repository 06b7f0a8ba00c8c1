package wal

import (
	"path/filepath"
	"testing"

	"github.com/latticedb/lattice/pkg/types"
)

func openTemp(t *testing.T) *WAL {
	t.Helper()
	dir := t.TempDir()
	w, err := Open(filepath.Join(dir, "wal.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return w
}

func entry(txID string, state types.TxState, ts int64, ops ...types.Operation) *types.WALEntry {
	return &types.WALEntry{TxID: txID, State: state, Timestamp: ts, Operations: ops}
}

func TestAppendChainsToHead(t *testing.T) {
	w := openTemp(t)

	id1, err := w.Append(entry("tx1", types.TxCommitted, 1,
		types.Operation{Kind: types.OpWriteNode, TargetID: "n1"}))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	id2, err := w.Append(entry("tx2", types.TxCommitted, 2,
		types.Operation{Kind: types.OpWriteNode, TargetID: "n2"}))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	head, ok, err := w.Head()
	if err != nil || !ok {
		t.Fatalf("Head: ok=%v err=%v", ok, err)
	}
	if !head.Equals(id2) {
		t.Fatalf("head = %s, want %s", head, id2)
	}

	entries, err := w.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if !entries[0].CID.Equals(id2) || !entries[1].CID.Equals(id1) {
		t.Fatalf("Read order wrong: got %s, %s", entries[0].CID, entries[1].CID)
	}
	if !entries[0].PrevCID.Equals(id1) {
		t.Fatalf("entries[0].PrevCID = %s, want %s", entries[0].PrevCID, id1)
	}
	if entries[1].PrevCID.Defined() {
		t.Fatalf("first entry should have undefined PrevCID, got %s", entries[1].PrevCID)
	}
}

func TestGetTransactionHistoryFiltersAndOrders(t *testing.T) {
	w := openTemp(t)

	w.Append(entry("tx1", types.TxActive, 1))
	w.Append(entry("tx2", types.TxActive, 2))
	w.Append(entry("tx1", types.TxCommitted, 3))

	hist, err := w.GetTransactionHistory("tx1")
	if err != nil {
		t.Fatalf("GetTransactionHistory: %v", err)
	}
	if len(hist) != 2 {
		t.Fatalf("got %d entries for tx1, want 2", len(hist))
	}
	if hist[0].Timestamp != 1 || hist[1].Timestamp != 3 {
		t.Fatalf("expected oldest-first order, got timestamps %d, %d", hist[0].Timestamp, hist[1].Timestamp)
	}
}

func TestVerifyIntegrityFlagsEmptyCommit(t *testing.T) {
	w := openTemp(t)

	w.Append(entry("tx1", types.TxCommitted, 1,
		types.Operation{Kind: types.OpWriteNode, TargetID: "n1"}))
	ok, err := w.VerifyIntegrity()
	if err != nil {
		t.Fatalf("VerifyIntegrity: %v", err)
	}
	if !ok {
		t.Fatalf("expected integrity ok for well-formed chain")
	}

	w.Append(entry("tx2", types.TxCommitted, 2))
	ok, err = w.VerifyIntegrity()
	if err != nil {
		t.Fatalf("VerifyIntegrity: %v", err)
	}
	if ok {
		t.Fatalf("expected integrity false for a committed entry with no operations")
	}
}

func TestRecoverClassifiesByLatestState(t *testing.T) {
	w := openTemp(t)

	w.Append(entry("tx-committed", types.TxActive, 1))
	w.Append(entry("tx-committed", types.TxCommitting, 2))
	w.Append(entry("tx-committed", types.TxCommitted, 3,
		types.Operation{Kind: types.OpWriteNode, TargetID: "n1"}))

	w.Append(entry("tx-inflight", types.TxActive, 4))
	w.Append(entry("tx-inflight", types.TxCommitting, 5))

	w.Append(entry("tx-aborted", types.TxActive, 6))
	w.Append(entry("tx-aborted", types.TxAborted, 7))

	plan, err := w.Recover()
	if err != nil {
		t.Fatalf("Recover: %v", err)
	}
	if len(plan.Replay) != 1 || plan.Replay[0].TxID != "tx-committed" {
		t.Fatalf("unexpected replay set: %+v", plan.Replay)
	}
	if len(plan.Rollback) != 1 || plan.Rollback[0].TxID != "tx-inflight" {
		t.Fatalf("unexpected rollback set: %+v", plan.Rollback)
	}
	if len(plan.Discard) != 1 || plan.Discard[0].TxID != "tx-aborted" {
		t.Fatalf("unexpected discard set: %+v", plan.Discard)
	}
}

func TestCompactRewritesChainFromNewRoot(t *testing.T) {
	w := openTemp(t)

	w.Append(entry("tx1", types.TxCommitted, 1,
		types.Operation{Kind: types.OpWriteNode, TargetID: "n1"}))
	id2, _ := w.Append(entry("tx2", types.TxCommitted, 2,
		types.Operation{Kind: types.OpWriteNode, TargetID: "n2"}))
	w.Append(entry("tx3", types.TxCommitted, 3,
		types.Operation{Kind: types.OpWriteNode, TargetID: "n3"}))

	if err := w.Compact(id2); err != nil {
		t.Fatalf("Compact: %v", err)
	}

	entries, err := w.Read()
	if err != nil {
		t.Fatalf("Read after compact: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries after compact, want 2", len(entries))
	}
	txIDs := []string{entries[0].TxID, entries[1].TxID}
	if txIDs[0] != "tx3" || txIDs[1] != "tx2" {
		t.Fatalf("unexpected tx order after compact: %v", txIDs)
	}
	if entries[1].PrevCID.Defined() {
		t.Fatalf("new root should have undefined PrevCID, got %s", entries[1].PrevCID)
	}
}

func TestCompactUnknownCIDFails(t *testing.T) {
	w := openTemp(t)
	w.Append(entry("tx1", types.TxCommitted, 1,
		types.Operation{Kind: types.OpWriteNode, TargetID: "n1"}))

	bogus, _ := Open(filepath.Join(t.TempDir(), "other.db"))
	defer bogus.Close()
	bogusID, _ := bogus.Append(entry("tx-bogus", types.TxCommitted, 1,
		types.Operation{Kind: types.OpWriteNode, TargetID: "x"}))

	if err := w.Compact(bogusID); err == nil {
		t.Fatalf("expected error compacting to an unknown CID")
	}
}

func TestOpenTwiceReopensExistingChain(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wal.db")

	w1, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	id, err := w1.Append(entry("tx1", types.TxCommitted, 1,
		types.Operation{Kind: types.OpWriteNode, TargetID: "n1"}))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := w1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	w2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer w2.Close()

	head, ok, err := w2.Head()
	if err != nil || !ok {
		t.Fatalf("Head after reopen: ok=%v err=%v", ok, err)
	}
	if !head.Equals(id) {
		t.Fatalf("head after reopen = %s, want %s", head, id)
	}
}
