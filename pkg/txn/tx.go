package txn

import "github.com/latticedb/lattice/pkg/types"

// Tx is one transaction's buffered state. Callers never mutate it
// directly — every field is owned by Manager, which holds the
// package lock for the duration of any method that touches a Tx.
type Tx struct {
	ID        string
	Isolation types.IsolationLevel
	State     types.TxState

	// baseSeq is the manager's global commit sequence number at
	// begin time; only commits with a higher seq are "concurrent"
	// with this transaction for conflict-detection purposes.
	baseSeq uint64

	readSet  map[string]bool
	writeSet map[string]bool
	ops      []types.Operation
}

func newTx(id string, isolation types.IsolationLevel, baseSeq uint64) *Tx {
	return &Tx{
		ID:        id,
		Isolation: isolation,
		State:     types.TxActive,
		baseSeq:   baseSeq,
		readSet:   map[string]bool{},
		writeSet:  map[string]bool{},
	}
}

// ReadSet and WriteSet return copies for inspection/testing; Manager
// never hands out the live maps.
func (t *Tx) ReadSet() []string  { return keys(t.readSet) }
func (t *Tx) WriteSet() []string { return keys(t.writeSet) }

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
