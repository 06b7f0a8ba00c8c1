/*
Package cypher implements the query-language front end (spec §4.F-H):
a lexer, a recursive-descent parser producing an AST, and a compiler
translating that AST into a pkg/ir operator tree. Every stage is
error-tolerant at its own boundary — the lexer never emits anything
but tokens (unrecognized input becomes an error token), the parser
never panics on a malformed query (every failure becomes a
CypherParseError carrying position and expected-token context), and
the compiler rejects any AST shape it has no handler for with a
CypherCompileError rather than silently dropping it.
*/
package cypher
