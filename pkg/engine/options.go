package engine

import "github.com/latticedb/lattice/pkg/types"

// Options carries the operational knobs from spec §6. Not every field
// changes behavior in this build: BTreeOrder is recorded for the
// config surface but pkg/index.Manager fixes its own btree degree
// (see DESIGN.md), and WALSync is recorded for the same reason —
// pkg/wal.WAL always commits synchronously through bbolt's
// transaction, there is no async-fsync mode to disable.
type Options struct {
	// CacheCapacity bounds the block store's LRU cache (default 1024).
	CacheCapacity int
	// WALSync records whether commits should fsync; always true in
	// this build (see type doc).
	WALSync bool
	// WALCompactThresholdEntries triggers an automatic WAL compaction
	// once the log grows past this many entries (default 10_000).
	WALCompactThresholdEntries int
	// DefaultIsolation is used by Execute when the caller does not
	// name an isolation level explicitly.
	DefaultIsolation types.IsolationLevel
	// DefaultTimeoutMillis bounds a call to Execute when the caller's
	// context carries no deadline of its own (default 30_000).
	DefaultTimeoutMillis int
	// BTreeOrder is recorded for the config surface but unused (see
	// type doc) — pkg/index.Manager fixes its btree degree internally.
	BTreeOrder int
	// Strict selects error propagation mode (spec §7): when true,
	// Execute returns a Go error for a failed query; when false it
	// returns a zero-valued Result with Err populated and Rows empty.
	Strict bool
	// GraphHeadName names the block-store head pointer this engine's
	// graph is stored under, letting one block store back more than
	// one named graph.
	GraphHeadName string
}

// DefaultOptions returns the knob defaults spec §6 names.
func DefaultOptions() Options {
	return Options{
		CacheCapacity:              1024,
		WALSync:                    true,
		WALCompactThresholdEntries: 10_000,
		DefaultIsolation:           types.ReadCommitted,
		DefaultTimeoutMillis:       30_000,
		BTreeOrder:                 64,
		Strict:                     false,
		GraphHeadName:              "main",
	}
}
