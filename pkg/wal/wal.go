package wal

import (
	"sync"

	cid "github.com/ipfs/go-cid"
	"github.com/hashicorp/raft"
	raftboltdb "github.com/hashicorp/raft-boltdb"

	"github.com/latticedb/lattice/pkg/block"
	"github.com/latticedb/lattice/pkg/metrics"
	"github.com/latticedb/lattice/pkg/types"
)

var (
	keyHead      = []byte("wal/head")
	keyLastIndex = []byte("wal/last_index")
)

func idxKey(id cid.Cid) []byte { return []byte("wal/idx/" + id.KeyString()) }

// Entry pairs a decoded WALEntry with the CID it was stored under —
// the CID is computed at append time and is not itself part of the
// serialized entry.
type Entry struct {
	CID cid.Cid
	*types.WALEntry
}

// WAL is the append-only transaction log described in spec §4.B. It
// owns one raft-boltdb BoltStore on disk, used purely as a sequential
// log plus a small key/value side table (head CID, entry counter,
// CID→index lookup) — never as a raft.LogStore for an actual
// raft.Raft instance.
type WAL struct {
	mu    sync.Mutex
	store *raftboltdb.BoltStore
}

// Open creates or opens a WAL file at path.
func Open(path string) (*WAL, error) {
	store, err := raftboltdb.NewBoltStore(path)
	if err != nil {
		return nil, types.NewStorageError("wal.open", err)
	}
	return &WAL{store: store}, nil
}

// Append links entry to the current head, writes it, and advances
// the head pointer. The whole sequence — read head, compute CID,
// store log, advance counters — runs under WAL's lock, which is the
// single-writer discipline spec §5 requires.
func (w *WAL) Append(entry *types.WALEntry) (cid.Cid, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	head, _, err := w.headLocked()
	if err != nil {
		return cid.Undef, err
	}
	entry.PrevCID = head

	data, err := encodeEntry(entry)
	if err != nil {
		return cid.Undef, types.NewSerializationError("wal.append", err)
	}
	id, err := block.DeriveCID(block.CodecRaw, data)
	if err != nil {
		return cid.Undef, types.NewSerializationError("wal.append", err)
	}

	lastIndex, err := w.store.LastIndex()
	if err != nil {
		return cid.Undef, types.NewTransactionError("wal.append", err)
	}
	nextIndex := lastIndex + 1

	log := &raft.Log{Index: nextIndex, Term: 1, Type: raft.LogCommand, Data: data}
	if err := w.store.StoreLog(log); err != nil {
		return cid.Undef, types.NewTransactionError("wal.append", err)
	}
	if err := w.store.Set(idxKey(id), uint64Bytes(nextIndex)); err != nil {
		return cid.Undef, types.NewTransactionError("wal.append", err)
	}
	if err := w.store.Set(keyHead, id.Bytes()); err != nil {
		return cid.Undef, types.NewTransactionError("wal.append", err)
	}
	if err := w.store.SetUint64(keyLastIndex, nextIndex); err != nil {
		return cid.Undef, types.NewTransactionError("wal.append", err)
	}
	metrics.WALEntriesTotal.Inc()
	return id, nil
}

// Head returns the CID of the most recently appended entry, and
// whether the log has any entries at all.
func (w *WAL) Head() (cid.Cid, bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.headLocked()
}

func (w *WAL) headLocked() (cid.Cid, bool, error) {
	data, err := w.store.Get(keyHead)
	if err != nil || len(data) == 0 {
		return cid.Undef, false, nil
	}
	id, err := cid.Cast(data)
	if err != nil {
		return cid.Undef, false, types.NewDeserializationError("wal.head", err)
	}
	return id, true, nil
}

// Read walks the chain newest→oldest. It detects cycles (a CID seen
// twice) and stops, flagging corruption rather than looping forever.
func (w *WAL) Read() ([]Entry, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.readLocked()
}

func (w *WAL) readLocked() ([]Entry, error) {
	head, ok, err := w.headLocked()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var out []Entry
	seen := map[string]bool{}
	cur := head
	for cur.Defined() {
		key := cur.KeyString()
		if seen[key] {
			return out, types.NewIntegrityError("wal.read", errCycle(cur))
		}
		seen[key] = true

		entry, err := w.getLocked(cur)
		if err != nil {
			return out, err
		}
		out = append(out, Entry{CID: cur, WALEntry: entry})
		cur = entry.PrevCID
	}
	return out, nil
}

func (w *WAL) getLocked(id cid.Cid) (*types.WALEntry, error) {
	raw, err := w.store.Get(idxKey(id))
	if err != nil || len(raw) == 0 {
		return nil, types.NewDeserializationError("wal.read", errMissing(id))
	}
	index := bytesUint64(raw)
	var log raft.Log
	if err := w.store.GetLog(index, &log); err != nil {
		return nil, types.NewDeserializationError("wal.read", err)
	}
	entry, err := decodeEntry(log.Data)
	if err != nil {
		return nil, types.NewDeserializationError("wal.read", err)
	}
	return entry, nil
}

// VerifyIntegrity walks the full chain. It returns false with Read's
// error if a link is broken, the chain cycles, or a referenced CID is
// unreachable, and false with a nil error if any COMMITTED entry has
// zero operations.
func (w *WAL) VerifyIntegrity() (bool, error) {
	entries, err := w.Read()
	if err != nil {
		return false, err
	}
	for _, e := range entries {
		if len(e.Operations) == 0 && e.State == types.TxCommitted {
			return false, nil
		}
	}
	return true, nil
}

// GetTransactionHistory filters the chain by transaction id, oldest
// first.
func (w *WAL) GetTransactionHistory(txID string) ([]Entry, error) {
	entries, err := w.Read()
	if err != nil {
		return nil, err
	}
	var out []Entry
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].TxID == txID {
			out = append(out, entries[i])
		}
	}
	return out, nil
}

func (w *WAL) Close() error { return w.store.Close() }
