package ir

import (
	"context"
	"math"

	"github.com/latticedb/lattice/pkg/expr"
	"github.com/latticedb/lattice/pkg/types"
)

type groupState struct {
	keyRow expr.Row
	counts map[int]int64         // per-func index: total seen
	sums   map[int]float64       // per-func index: running sum
	sumOK  map[int]bool          // per-func index: every value so far was numeric
	mins   map[int]types.Value
	maxs   map[int]types.Value
	lists  map[int][]types.Value // collect()
	distinctSeen map[int]map[string]bool
	sqSums map[int]float64 // for stddev: sum of squares
}

func newGroupState() *groupState {
	return &groupState{
		counts:       map[int]int64{},
		sums:         map[int]float64{},
		sumOK:        map[int]bool{},
		mins:         map[int]types.Value{},
		maxs:         map[int]types.Value{},
		lists:        map[int][]types.Value{},
		distinctSeen: map[int]map[string]bool{},
		sqSums:       map[int]float64{},
	}
}

func (ex *Executor) aggregate(ctx context.Context, n Aggregate, seed []expr.Row) ([]expr.Row, error) {
	rows, err := ex.exec(ctx, n.Input, seed)
	if err != nil {
		return nil, err
	}

	groups := map[string]*groupState{}
	var order []string

	for _, row := range rows {
		keyRow := make(expr.Row, len(n.GroupKeys))
		key := ""
		for _, gk := range n.GroupKeys {
			v := expr.Evaluate(gk.Expr, row)
			keyRow[gk.Alias] = v
			key += gk.Alias + "=" + v.String() + ";"
		}
		g, ok := groups[key]
		if !ok {
			g = newGroupState()
			g.keyRow = keyRow
			groups[key] = g
			order = append(order, key)
		}
		for i, f := range n.Funcs {
			feedAggregate(g, i, f, row)
		}
	}

	if len(order) == 0 && len(n.GroupKeys) == 0 {
		// No input rows and no grouping keys: still emit one row, the
		// identity a bare `RETURN count(*)` expects over an empty graph.
		g := newGroupState()
		g.keyRow = expr.Row{}
		groups[""] = g
		order = []string{""}
	}

	out := make([]expr.Row, 0, len(order))
	for _, key := range order {
		g := groups[key]
		row := cloneRow(g.keyRow)
		for i, f := range n.Funcs {
			row[f.Alias] = finalizeAggregate(g, i, f)
		}
		out = append(out, row)
	}
	return out, nil
}

func feedAggregate(g *groupState, i int, f AggregateFunc, row expr.Row) {
	var v types.Value
	if f.Arg != nil {
		v = expr.Evaluate(f.Arg, row)
	}

	if f.Distinct {
		if g.distinctSeen[i] == nil {
			g.distinctSeen[i] = map[string]bool{}
		}
		if v.IsNull() {
			return
		}
		key := v.String()
		if g.distinctSeen[i][key] {
			return
		}
		g.distinctSeen[i][key] = true
	}

	switch f.Name {
	case "count":
		if f.Arg == nil || !v.IsNull() {
			g.counts[i]++
		}
	case "sum", "avg", "stddev":
		if v.IsNull() {
			return
		}
		fv, ok := numericOf(v)
		if !ok {
			return
		}
		if _, seen := g.sumOK[i]; !seen {
			g.sumOK[i] = true
		}
		g.sums[i] += fv
		g.sqSums[i] += fv * fv
		g.counts[i]++
	case "min":
		if v.IsNull() {
			return
		}
		cur, ok := g.mins[i]
		if !ok || compareNullsLast(v, cur) < 0 {
			g.mins[i] = v
		}
	case "max":
		if v.IsNull() {
			return
		}
		cur, ok := g.maxs[i]
		if !ok || compareNullsLast(v, cur) > 0 {
			g.maxs[i] = v
		}
	case "collect":
		if v.IsNull() {
			return
		}
		g.lists[i] = append(g.lists[i], v)
	}
}

func finalizeAggregate(g *groupState, i int, f AggregateFunc) types.Value {
	switch f.Name {
	case "count":
		return types.NewInt(g.counts[i])
	case "sum":
		if g.counts[i] == 0 {
			return types.Null
		}
		return types.NewFloat(g.sums[i])
	case "avg":
		if g.counts[i] == 0 {
			return types.Null
		}
		return types.NewFloat(g.sums[i] / float64(g.counts[i]))
	case "stddev":
		n := g.counts[i]
		if n == 0 {
			return types.Null
		}
		mean := g.sums[i] / float64(n)
		variance := g.sqSums[i]/float64(n) - mean*mean
		if variance < 0 {
			variance = 0
		}
		return types.NewFloat(math.Sqrt(variance))
	case "min":
		if v, ok := g.mins[i]; ok {
			return v
		}
		return types.Null
	case "max":
		if v, ok := g.maxs[i]; ok {
			return v
		}
		return types.Null
	case "collect":
		return types.NewList(g.lists[i])
	default:
		return types.Null
	}
}
