/*
Package types defines the data model shared by every Lattice
component: the tagged Value union, Node and Relationship entities, the
in-memory Graph, the durable block shapes (NodeBlock, RelBlock,
GraphManifest, WALEntry, Operation), and the typed error taxonomy.

None of these types know how to persist or query themselves — that is
the job of pkg/block, pkg/graph, pkg/wal and pkg/ir. Keeping them here
lets every other package depend on a single, storage-agnostic
vocabulary.

# Value

Value is a tagged union over null, bool, int64, float64, string,
bytes, list<Value> and map<string,Value>. Every serializer in
pkg/format must branch on Kind, and must check KindBool before
KindInt — a bool is not an int, and subclass-style resolution order
bugs here have bitten real systems before.

# Identity

Node.ID and Relationship.ID are caller-stable strings, not database
row numbers. CIDs (pkg/block) are a different, derived concept: the
content address of a serialized block, not the identity of an entity.
A node keeps the same ID across many versions with many different
CIDs.
*/
package types
