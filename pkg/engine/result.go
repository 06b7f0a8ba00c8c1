package engine

import (
	"github.com/latticedb/lattice/pkg/expr"
	"github.com/latticedb/lattice/pkg/types"
)

// Stats counts the mutations a query made, diffed from the graph's
// node/relationship counts before and after the operator tree ran.
// PropertiesSet is not tracked at this granularity anywhere below this
// package (neither pkg/ir nor pkg/txn thread a per-call counter) and
// is always 0; it is kept on Stats so the shape matches spec §6's
// Result contract and can be wired up without a breaking change if a
// future operator tree starts reporting it.
type Stats struct {
	NodesCreated  int
	RelsCreated   int
	PropertiesSet int
}

// Summary is the non-row part of a Result (spec §6 "Result shape").
type Summary struct {
	DurationMillis int64
	Plan           string
	Stats          Stats
}

// Result is what Execute returns: a column-oriented view over the row
// stream pkg/ir's executor produces, plus the commit/rollback summary.
// Err is populated instead of rows when the engine is opened in
// non-strict mode and the query failed (spec §7).
type Result struct {
	Columns []string
	Rows    [][]types.Value
	Summary Summary
	Err     error
}

func rowsToResult(columns []string, rows []expr.Row) [][]types.Value {
	out := make([][]types.Value, 0, len(rows))
	for _, row := range rows {
		rec := make([]types.Value, len(columns))
		for i, col := range columns {
			rec[i] = row[col]
		}
		out = append(out, rec)
	}
	return out
}
