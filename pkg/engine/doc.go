/*
Package engine is the public façade the spec's embedded library API
(§4.L, §6) is written against: Open, Execute, ExecuteAsync,
Begin/Commit/Rollback, Save/Load, RegisterFormat, and the index
lifecycle calls. It owns nothing the other packages don't already
implement — it wires pkg/block, pkg/wal, pkg/graph, pkg/index,
pkg/txn, pkg/cypher, pkg/ir and pkg/format into one construction path,
the way the teacher's pkg/manager.Manager wires storage, the event
broker, the CA and DNS server behind one Config-driven constructor.

Execute classifies its input (a Cypher string vs. a pre-compiled IR
operator tree), begins a transaction at the requested isolation level,
runs the operator tree, and commits or rolls back depending on the
outcome — a single-writer discipline enforced by pkg/txn.Manager, not
by this package.

Open also starts a pkg/metrics.Collector sampling graph/index size on a
tick, and ExecuteOp times every call into pkg/metrics.QueryDuration and
counts its terminal outcome (committed, rolled_back, failed) — the
query-engine side of the ambient metrics surface; pkg/wal and pkg/block
instrument the storage side (WAL entries/compactions, cache hits/misses).
*/
package engine
