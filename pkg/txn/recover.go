package txn

import (
	"github.com/latticedb/lattice/pkg/log"
	"github.com/latticedb/lattice/pkg/types"
)

// Recover brings the graph engine up to date after a crash: every
// WAL entry classified COMMITTED is replayed (idempotently, via
// upsert) on top of whatever LoadGraph already restored from the last
// manifest; COMMITTING and ABORTED entries are left untouched (spec
// §4.E.recover / invariant 7 — the post-recovery graph equals the
// graph produced by replaying only COMMITTED entries).
func (m *Manager) Recover() error {
	plan, err := m.log.Recover()
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, entry := range plan.Replay {
		for _, op := range entry.WALEntry.Operations {
			if err := applyOperation(m.g, op); err != nil {
				return types.NewTransactionError("txn.recover", err)
			}
		}
		m.seq++
	}
	log.Logger.Info().
		Int("replayed", len(plan.Replay)).
		Int("rolled_back", len(plan.Rollback)).
		Int("discarded", len(plan.Discard)).
		Msg("wal recovery complete")
	return nil
}
