/*
Package format implements the migration serializer registry (spec
§4.K): a process-wide, mutex-guarded map from format name to a
save/load function pair, plus the built-in serializers themselves —
CSV, JSON, JSON-Lines, JSON-LD, DAG-JSON, DAG-CBOR/CAR, GraphML, GEXF
and Pajek.

Every serializer round-trips through pkg/graph.Engine.Snapshot /
ImportSnapshot rather than the block-store/WAL path: a format is a
view onto a types.Graph, not a second persistence mechanism. Loading
a graph a format exported is required to reproduce an isomorphic
graph (exact id match when the format preserves ids, spec invariant
1).

RDF has no driver in this module's dependency set — no repo in the
retrieval pack this module was built from imports one — so it is
registered with save/load functions that always fail with a
ConfigurationError carrying remediation text, per spec §4.K/§9's
"gate behind a capability probe" guidance, rather than silently
omitted or backed by a hand-rolled RDF/XML emitter.
*/
package format
