package wal

import (
	cid "github.com/ipfs/go-cid"
	"github.com/hashicorp/raft"

	"github.com/latticedb/lattice/pkg/block"
	"github.com/latticedb/lattice/pkg/metrics"
	"github.com/latticedb/lattice/pkg/types"
)

// Compact rewrites the log starting from upTo: the entry addressed by
// upTo becomes the new root (its PrevCID zeroed), the chain below it
// is discarded, and the entry counter resets. Every kept entry after
// the new root is recomputed and re-stored, since zeroing the root's
// PrevCID changes its CID and therefore every descendant's PrevCID
// link and CID in turn.
func (w *WAL) Compact(upTo cid.Cid) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	entries, err := w.readLocked()
	if err != nil {
		return err
	}

	cutIndex := -1
	for i, e := range entries {
		if e.CID.Equals(upTo) {
			cutIndex = i
			break
		}
	}
	if cutIndex == -1 {
		return types.NewValidationError("wal.compact", errMissing(upTo))
	}

	// entries is newest→oldest; kept (inclusive of upTo) reversed to
	// oldest→newest for re-linking.
	kept := entries[:cutIndex+1]
	oldestFirst := make([]Entry, len(kept))
	for i, e := range kept {
		oldestFirst[len(kept)-1-i] = e
	}

	if last, err := w.store.LastIndex(); err == nil && last > 0 {
		if err := w.store.DeleteRange(0, last); err != nil {
			return types.NewTransactionError("wal.compact", err)
		}
	}
	if err := w.store.Set(keyHead, nil); err != nil {
		return types.NewTransactionError("wal.compact", err)
	}
	if err := w.store.SetUint64(keyLastIndex, 0); err != nil {
		return types.NewTransactionError("wal.compact", err)
	}

	prev := cid.Undef
	var index uint64
	for _, e := range oldestFirst {
		e.PrevCID = prev
		data, err := encodeEntry(e.WALEntry)
		if err != nil {
			return types.NewSerializationError("wal.compact", err)
		}
		id, err := block.DeriveCID(block.CodecRaw, data)
		if err != nil {
			return types.NewSerializationError("wal.compact", err)
		}
		index++
		if err := w.storeAtLocked(index, id, data); err != nil {
			return err
		}
		prev = id
	}

	if err := w.store.Set(keyHead, prev.Bytes()); err != nil {
		return types.NewTransactionError("wal.compact", err)
	}
	if err := w.store.SetUint64(keyLastIndex, index); err != nil {
		return err
	}
	metrics.WALCompactionsTotal.Inc()
	return nil
}

func (w *WAL) storeAtLocked(index uint64, id cid.Cid, data []byte) error {
	log := &raft.Log{Index: index, Term: 1, Type: raft.LogCommand, Data: data}
	if err := w.store.StoreLog(log); err != nil {
		return types.NewTransactionError("wal.compact", err)
	}
	return w.store.Set(idxKey(id), uint64Bytes(index))
}
