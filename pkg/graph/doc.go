/*
Package graph is the in-memory authoritative state of one graph
(spec §4.C): node/relationship CRUD, traversal, and hydration against
pkg/block.

The engine keeps every node and relationship in memory once loaded —
there is no partial paging and no lazy hydration; cidMap only records
the block CID each entity was last loaded from or saved to. This mirrors
the teacher's BoltStore, which keeps nothing in memory and always hits
disk; here the roles invert; the block store is the disk, the Graph
is the cache that is allowed to go stale only between explicit
SaveGraph/LoadGraph calls.

Every mutating method assumes the caller already holds the
transaction discipline described in pkg/txn — this package has no
opinion on commit/rollback, only on what a committed state looks like.
*/
package graph
