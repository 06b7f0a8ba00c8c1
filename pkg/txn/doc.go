/*
Package txn is the transaction manager (spec §4.E): it gives callers
atomic, isolation-configurable views over pkg/graph, commits in the
order apply→persist→log, and replays pkg/wal on recovery.

The commit/apply/persist/log ordering and the NEW→ACTIVE→(COMMITTING→
COMMITTED)|ABORTED state machine mirror the teacher's
pkg/manager/manager.go + fsm.go split — there, Manager.Apply runs a
Raft-committed command against the FSM and only then is the result
visible; here, Commit runs buffered operations against pkg/graph and
only then persists a manifest and appends to pkg/wal. Terminal states
never revert, same as the teacher's FSM apply semantics.
*/
package txn
