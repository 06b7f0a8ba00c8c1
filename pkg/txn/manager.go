package txn

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/latticedb/lattice/pkg/graph"
	"github.com/latticedb/lattice/pkg/log"
	"github.com/latticedb/lattice/pkg/types"
	"github.com/latticedb/lattice/pkg/wal"
)

// Manager owns every in-flight and committed transaction against one
// graph.Engine. Only one transaction may be committing at a time —
// spec §5's single-writer discipline — enforced by holding mu across
// the whole of Commit, not just its bookkeeping.
type Manager struct {
	mu sync.Mutex

	g   *graph.Engine
	log *wal.WAL

	txs      map[string]*Tx
	seq      uint64
	commits  []commitRecord
	maxCommits int
}

type commitRecord struct {
	txID     string
	seq      uint64
	writeSet map[string]bool
}

// New creates a transaction manager over an already-loaded graph
// engine and an open WAL.
func New(g *graph.Engine, w *wal.WAL) *Manager {
	return &Manager{
		g:          g,
		log:        w,
		txs:        map[string]*Tx{},
		maxCommits: 10_000,
	}
}

// Begin starts a new transaction under the given isolation level and
// returns its id.
func (m *Manager) Begin(isolation types.IsolationLevel) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.NewString()
	m.txs[id] = newTx(id, isolation, m.seq)
	return id
}

// AddOperation buffers a write into tx's operation list and updates
// its write-set.
func (m *Manager) AddOperation(txID string, op types.Operation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx, err := m.activeLocked(txID)
	if err != nil {
		return err
	}
	tx.ops = append(tx.ops, op)
	tx.writeSet[op.TargetID] = true
	return nil
}

// AddRead records a read against entityID. Only REPEATABLE_READ and
// SERIALIZABLE transactions consult the read-set at commit time, but
// every isolation level tracks it — cheap to record, and lets a
// caller inspect it regardless of level.
func (m *Manager) AddRead(txID, entityID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx, err := m.activeLocked(txID)
	if err != nil {
		return err
	}
	tx.readSet[entityID] = true
	return nil
}

func (m *Manager) activeLocked(txID string) (*Tx, error) {
	tx, ok := m.txs[txID]
	if !ok {
		return nil, types.NewNotFoundError("txn.tx", txID)
	}
	if tx.State != types.TxActive {
		return nil, types.NewTransactionError("txn.tx", errNotActive(tx.State))
	}
	return tx, nil
}

// Commit runs the transaction's buffered operations against the
// graph, persists a new manifest, and appends a COMMITTED WAL entry,
// in that order (spec §4.E / §5 ordering guarantee). Any failure
// applying operations or persisting the manifest rolls the
// transaction back; a failure only in the WAL append leaves the
// transaction in COMMITTING and surfaces a TransactionError, since
// the graph and manifest already reflect the commit.
func (m *Manager) Commit(ctx context.Context, txID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx, err := m.activeLocked(txID)
	if err != nil {
		return err
	}

	if err := m.checkConflictsLocked(tx); err != nil {
		m.rollbackLocked(tx, err)
		return err
	}

	for _, op := range tx.ops {
		if err := applyOperation(m.g, op); err != nil {
			m.rollbackLocked(tx, err)
			return err
		}
	}

	if _, err := m.g.SaveGraph(ctx); err != nil {
		m.rollbackLocked(tx, err)
		return err
	}

	tx.State = types.TxCommitting
	entry := &types.WALEntry{
		TxID:       tx.ID,
		State:      types.TxCommitted,
		Timestamp:  time.Now().UnixNano(),
		Operations: tx.ops,
	}
	if _, err := m.log.Append(entry); err != nil {
		log.WithTxID(tx.ID).Error().Err(err).Msg("commit left in COMMITTING: WAL append failed")
		return types.NewTransactionError("txn.commit", err)
	}

	tx.State = types.TxCommitted
	m.seq++
	m.commits = append(m.commits, commitRecord{txID: tx.ID, seq: m.seq, writeSet: tx.writeSet})
	if len(m.commits) > m.maxCommits {
		m.commits = m.commits[len(m.commits)-m.maxCommits:]
	}
	delete(m.txs, tx.ID)
	return nil
}

// Rollback discards a transaction's buffers and appends an ABORTED
// WAL entry.
func (m *Manager) Rollback(txID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx, ok := m.txs[txID]
	if !ok {
		return types.NewNotFoundError("txn.rollback", txID)
	}
	m.rollbackLocked(tx, nil)
	return nil
}

func (m *Manager) rollbackLocked(tx *Tx, cause error) {
	tx.State = types.TxAborted
	entry := &types.WALEntry{
		TxID:      tx.ID,
		State:     types.TxAborted,
		Timestamp: time.Now().UnixNano(),
	}
	if _, err := m.log.Append(entry); err != nil {
		log.WithTxID(tx.ID).Error().Err(err).Msg("rollback WAL append failed")
	}
	delete(m.txs, tx.ID)
}

// checkConflictsLocked implements the three isolation levels' commit
// rules against every commit that landed after tx began.
func (m *Manager) checkConflictsLocked(tx *Tx) error {
	switch tx.Isolation {
	case types.ReadCommitted:
		return nil
	case types.RepeatableRead:
		for _, c := range m.commits {
			if c.seq <= tx.baseSeq || c.txID == tx.ID {
				continue
			}
			if intersects(tx.readSet, c.writeSet) {
				return types.NewConflictError("txn.commit", tx.ID)
			}
		}
		return nil
	case types.Serializable:
		for _, c := range m.commits {
			if c.seq <= tx.baseSeq || c.txID == tx.ID {
				continue
			}
			if intersects(tx.readSet, c.writeSet) || intersects(tx.writeSet, c.writeSet) {
				return types.NewConflictError("txn.commit", tx.ID)
			}
		}
		return nil
	default:
		return types.NewConfigurationError("txn.commit", "isolation must be one of READ_COMMITTED|REPEATABLE_READ|SERIALIZABLE", errUnknownIsolation(tx.Isolation))
	}
}

func intersects(a, b map[string]bool) bool {
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	for k := range small {
		if large[k] {
			return true
		}
	}
	return false
}

// State reports the current state of a transaction, or ("", false)
// if it's unknown (either never existed or already terminal and
// forgotten).
func (m *Manager) State(txID string) (types.TxState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txs[txID]
	if !ok {
		return "", false
	}
	return tx.State, true
}
