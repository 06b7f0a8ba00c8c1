package types

import cid "github.com/ipfs/go-cid"

// NodeBlock and RelBlock are the serialized forms stored under their
// own CID in the block store. They carry the full entity so a block
// can be rehydrated without any other lookup.
type NodeBlock struct {
	Node *Node
}

type RelBlock struct {
	Rel *Relationship
}

// GraphManifest lists the CIDs that make up one committed version of
// a graph, plus metadata and the version counter. A manifest is
// itself stored as one block; Head (pkg/block) names the current
// manifest CID for a graph.
type GraphManifest struct {
	NodeCIDs []cid.Cid
	RelCIDs  []cid.Cid
	Metadata map[string]Value
	Version  int
}

// OperationKind enumerates the mutation kinds a transaction can
// record in its WAL entry.
type OperationKind string

const (
	OpWriteNode    OperationKind = "WRITE_NODE"
	OpDeleteNode   OperationKind = "DELETE_NODE"
	OpWriteRel     OperationKind = "WRITE_REL"
	OpDeleteRel    OperationKind = "DELETE_REL"
	OpSetProperty  OperationKind = "SET_PROPERTY"
)

// Operation is one buffered mutation inside a transaction.
type Operation struct {
	Kind     OperationKind
	TargetID string
	Payload  Value
}

// TxState is the lifecycle state of a transaction, mirrored into its
// WAL entry on commit/rollback.
type TxState string

const (
	TxNew        TxState = "NEW"
	TxActive     TxState = "ACTIVE"
	TxCommitting TxState = "COMMITTING"
	TxCommitted  TxState = "COMMITTED"
	TxAborted    TxState = "ABORTED"
)

// WALEntry is one link in the write-ahead log chain. PrevCID is the
// CID of the entry appended just before it, whatever that entry's
// state (the zero Cid for the first entry in a chain); the entry's
// own CID is computed by pkg/wal on
// append and is not stored inside the entry itself.
type WALEntry struct {
	TxID       string
	State      TxState
	Timestamp  int64 // unix nanos, set by the caller so replay is deterministic
	PrevCID    cid.Cid
	Operations []Operation
}

// IsolationLevel selects the conflict-detection contract a
// transaction runs under (spec §4.E).
type IsolationLevel string

const (
	ReadCommitted  IsolationLevel = "READ_COMMITTED"
	RepeatableRead IsolationLevel = "REPEATABLE_READ"
	Serializable   IsolationLevel = "SERIALIZABLE"
)
