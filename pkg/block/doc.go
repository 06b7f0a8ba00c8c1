/*
Package block implements the content-addressed block store (spec
§4.A): put/get of CID-addressed bytes with an LRU read cache in front
of a pluggable backend.

Backends are either a Bolt-backed local file (BoltBackend, grounded on
the teacher's pkg/storage/boltdb.go bucket-per-kind BoltStore) or an
in-process map (MemoryBackend, for tests and ephemeral graphs).
store(x) is idempotent: equal bytes hash to the equal CID, so a
duplicate Store is a no-op write. Pin/Unpin are retention hints passed
straight through to the backend.
*/
package block
