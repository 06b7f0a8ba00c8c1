// Package partition implements spec §5's optional partitioning and
// federation layer on top of pkg/engine: a Partitioner assigns keys to
// shards (hash, range, or round-robin), and Federated fans a query out
// to a fixed set of local Engines, merging and deduping their rows by
// a canonical-JSON fingerprint. It adds no network protocol of its
// own — every "shard" is a local *engine.Engine the caller opened.
package partition
