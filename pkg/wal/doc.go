/*
Package wal implements the write-ahead log (spec §4.B): a totally
ordered, append-only chain of transaction outcomes, durable across
crashes.

The physical storage is github.com/hashicorp/raft-boltdb's BoltStore,
the same dependency the teacher uses for its Raft log — but only its
storage shape is reused here (raft.LogStore for sequential entries,
raft.StableStore for the head pointer and entry counter), not Raft's
consensus machinery. Lattice has no multi-host distributed commit
(spec non-goal), so there is no raft.Raft, no FSM, and no network
transport: one process, one writer, one log.

Each WALEntry is content-addressed like every other block: append
computes the entry's CID, links PrevCID to the current head, and
advances the head atomically under a single in-process lock (spec §5
single-writer discipline).
*/
package wal
