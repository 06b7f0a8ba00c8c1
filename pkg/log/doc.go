/*
Package log provides structured logging for Lattice using zerolog.

A single package-level zerolog.Logger is configured once via Init and
shared by every component. Component loggers (WithComponent,
WithTxID, WithQueryID, WithGraphID) attach context fields without
reconfiguring the sink.

Per spec §4.J, the expression evaluator logs a Warn for every unknown
function name; other evaluation failures (a type mismatch, a missing
property) yield null without a log entry. Neither is returned as a Go
error up the call stack, since an unknown function evaluates to null
rather than failing the query.
*/
package log
