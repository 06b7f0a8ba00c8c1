/*
Package ir is the intermediate representation pkg/cypher's compiler
targets (spec §4.H) and pkg/ir's own executor runs (spec §4.I): a tree
of Op nodes, each a row-stream transformer. Rows flow top-down as
expr.Row (variable -> value); operators compose by nesting, the same
shape as the teacher's reconciler/scheduler pass pipelines but over
graph rows instead of cluster objects.

Clients can also build an Op tree directly without going through
Cypher at all — the IR is a stable, documented layer in its own right
(spec §4.H/4.I), not merely a compiler output format.
*/
package ir
