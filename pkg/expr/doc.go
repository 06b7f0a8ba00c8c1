/*
Package expr is the scalar expression evaluator used by pkg/cypher's
compiled IR (spec §4.J). An Expr tree is built once by pkg/cypher's
compiler and evaluated per-row by pkg/ir's Filter/Project/OrderBy
operators.

Evaluate never returns an error: an unknown identifier, a type
mismatch in a comparison, or a call to an undefined function all
produce types.Null rather than aborting the row stream, mirroring the
teacher's fsm.Apply posture of never panicking mid-pipeline on bad
input — errors surface through logged warnings instead, not through
the call stack.
*/
package expr
