package txn

import (
	"fmt"

	"github.com/latticedb/lattice/pkg/types"
)

func errNotActive(state types.TxState) error {
	return fmt.Errorf("transaction is %s, not ACTIVE", state)
}

func errUnknownIsolation(level types.IsolationLevel) error {
	return fmt.Errorf("unknown isolation level %q", level)
}

func errUnknownOperation(kind types.OperationKind) error {
	return fmt.Errorf("unknown operation kind %q", kind)
}
