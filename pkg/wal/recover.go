package wal

import "github.com/latticedb/lattice/pkg/types"

// RecoveryPlan classifies every transaction found in the log by its
// last recorded state, per spec §4.B crash-recovery rules:
//
//   - Replay: COMMITTED entries. Their operations are idempotent
//     against content-addressed storage, so replaying them is always
//     safe even if the commit had already reached the graph.
//   - Rollback: COMMITTING entries. The transaction reached the
//     commit point but never recorded COMMITTED, so its partial
//     effects must be undone.
//   - Discard: everything else (NEW, ACTIVE, ABORTED). No durable
//     effect was ever promised.
type RecoveryPlan struct {
	Replay   []Entry
	Rollback []Entry
	Discard  []Entry
}

// Recover walks the full chain once and buckets each transaction's
// most recent entry by state. A transaction may appear multiple
// times in the chain (one WALEntry per state transition); only its
// newest entry determines its fate.
func (w *WAL) Recover() (*RecoveryPlan, error) {
	w.mu.Lock()
	entries, err := w.readLocked()
	w.mu.Unlock()
	if err != nil {
		return nil, err
	}

	latest := map[string]Entry{}
	order := []string{}
	for _, e := range entries {
		if _, seen := latest[e.TxID]; !seen {
			order = append(order, e.TxID)
		}
		if cur, ok := latest[e.TxID]; !ok || cur.Timestamp < e.Timestamp {
			latest[e.TxID] = e
		}
	}

	plan := &RecoveryPlan{}
	for _, txID := range order {
		e := latest[txID]
		switch e.State {
		case types.TxCommitted:
			plan.Replay = append(plan.Replay, e)
		case types.TxCommitting:
			plan.Rollback = append(plan.Rollback, e)
		default:
			plan.Discard = append(plan.Discard, e)
		}
	}
	return plan, nil
}
