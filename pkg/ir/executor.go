package ir

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/latticedb/lattice/pkg/expr"
	"github.com/latticedb/lattice/pkg/graph"
	"github.com/latticedb/lattice/pkg/txn"
	"github.com/latticedb/lattice/pkg/types"
)

// Executor runs a compiled Op tree against one graph engine, staging
// every write through one transaction. All reads go through g; all
// writes go through tx (spec §4.I: "no execution step may bypass the
// tx buffer").
type Executor struct {
	g    *graph.Engine
	tx   *txn.Manager
	txID string
}

func New(g *graph.Engine, tx *txn.Manager, txID string) *Executor {
	return &Executor{g: g, tx: tx, txID: txID}
}

// Run executes the full tree, honoring ctx's deadline cooperatively at
// each operator boundary.
func (ex *Executor) Run(ctx context.Context, op Op) ([]expr.Row, error) {
	return ex.exec(ctx, op, []expr.Row{{}})
}

// exec dispatches one Op. seed is the row set CurrentRow resolves to
// — the row(s) a Foreach/CallSubquery/Merge sub-plan was spawned from.
func (ex *Executor) exec(ctx context.Context, op Op, seed []expr.Row) ([]expr.Row, error) {
	if err := ctx.Err(); err != nil {
		if err == context.DeadlineExceeded {
			return nil, types.NewQueryTimeoutError("ir.execute")
		}
		return nil, types.NewCancelledError("ir.execute")
	}

	switch n := op.(type) {
	case SingleRow:
		return []expr.Row{{}}, nil
	case CurrentRow:
		return seed, nil
	case ScanAll:
		return ex.scanAll(n)
	case ScanLabel:
		return ex.scanLabel(n)
	case ScanByIndex:
		return ex.scanByIndex(n)
	case Filter:
		return ex.filter(ctx, n, seed)
	case Expand:
		return ex.expand(ctx, n, seed, false)
	case OptionalExpand:
		return ex.expand(ctx, n.Expand, seed, true)
	case Project:
		return ex.project(ctx, n, seed)
	case WithProject:
		return ex.withProject(ctx, n, seed)
	case Aggregate:
		return ex.aggregate(ctx, n, seed)
	case OrderBy:
		return ex.orderBy(ctx, n, seed)
	case Skip:
		return ex.skip(ctx, n, seed)
	case Limit:
		return ex.limit(ctx, n, seed)
	case Unwind:
		return ex.unwind(ctx, n, seed)
	case CreateNode:
		return ex.createNode(ctx, n, seed)
	case CreateRelationship:
		return ex.createRelationship(ctx, n, seed)
	case SetProperty:
		return ex.setProperty(ctx, n, seed)
	case RemoveProperty:
		return ex.removeProperty(ctx, n, seed)
	case RemoveLabel:
		return ex.removeLabel(ctx, n, seed)
	case AddLabel:
		return ex.addLabel(ctx, n, seed)
	case Delete:
		return ex.delete_(ctx, n, seed)
	case Merge:
		return ex.merge(ctx, n, seed)
	case Foreach:
		return ex.foreach(ctx, n, seed)
	case CallSubquery:
		return ex.callSubquery(ctx, n, seed)
	case Union:
		return ex.union(ctx, n, seed)
	default:
		return nil, types.NewExecutionError("ir.execute", fmt.Errorf("no executor handler for %T", op))
	}
}

func (ex *Executor) scanAll(n ScanAll) ([]expr.Row, error) {
	nodes := ex.g.FindNodes("", nil, 0)
	out := make([]expr.Row, len(nodes))
	for i, node := range nodes {
		out[i] = expr.Row{n.Var: nodeToValue(node)}
	}
	return out, nil
}

func (ex *Executor) scanLabel(n ScanLabel) ([]expr.Row, error) {
	nodes := ex.g.FindNodes(n.Label, nil, 0)
	out := make([]expr.Row, len(nodes))
	for i, node := range nodes {
		out[i] = expr.Row{n.Var: nodeToValue(node)}
	}
	return out, nil
}

func (ex *Executor) scanByIndex(n ScanByIndex) ([]expr.Row, error) {
	nodes := ex.g.FindNodes(n.Label, n.Filter, 0)
	out := make([]expr.Row, len(nodes))
	for i, node := range nodes {
		out[i] = expr.Row{n.Var: nodeToValue(node)}
	}
	return out, nil
}

func (ex *Executor) filter(ctx context.Context, n Filter, seed []expr.Row) ([]expr.Row, error) {
	rows, err := ex.exec(ctx, n.Input, seed)
	if err != nil {
		return nil, err
	}
	out := rows[:0]
	for _, row := range rows {
		v := expr.Evaluate(n.Expr, row)
		if v.Kind == types.KindBool && v.Bool {
			out = append(out, row)
		}
	}
	return out, nil
}

func relTypeFilter(t string) []string {
	if t == "" {
		return nil
	}
	return []string{t}
}

func (ex *Executor) expand(ctx context.Context, n Expand, seed []expr.Row, optional bool) ([]expr.Row, error) {
	rows, err := ex.exec(ctx, n.Input, seed)
	if err != nil {
		return nil, err
	}
	var out []expr.Row
	for _, row := range rows {
		srcVal, ok := row[n.SourceVar]
		if !ok {
			continue
		}
		sourceID := entityID(srcVal)
		rels := ex.g.GetRelationships(sourceID, n.Direction, relTypeFilter(n.RelType), 0)

		matched := 0
		for _, r := range rels {
			otherID := r.TargetID
			if r.SourceID != sourceID {
				otherID = r.SourceID
			}
			target, ok := ex.g.GetNode(otherID)
			if !ok {
				continue
			}
			if n.TargetLabel != "" && !target.HasLabel(n.TargetLabel) {
				continue
			}
			next := cloneRow(row)
			next[n.TargetVar] = nodeToValue(target)
			if n.RelVar != "" {
				next[n.RelVar] = relToValue(r)
			}
			out = append(out, next)
			matched++
		}
		if optional && matched == 0 {
			next := cloneRow(row)
			next[n.TargetVar] = types.Null
			if n.RelVar != "" {
				next[n.RelVar] = types.Null
			}
			out = append(out, next)
		}
	}
	return out, nil
}

func cloneRow(row expr.Row) expr.Row {
	out := make(expr.Row, len(row)+2)
	for k, v := range row {
		out[k] = v
	}
	return out
}

func (ex *Executor) project(ctx context.Context, n Project, seed []expr.Row) ([]expr.Row, error) {
	rows, err := ex.exec(ctx, n.Input, seed)
	if err != nil {
		return nil, err
	}
	return projectRows(rows, n.Projections, n.Distinct), nil
}

func projectRows(rows []expr.Row, projections []Projection, distinct bool) []expr.Row {
	out := make([]expr.Row, 0, len(rows))
	seen := map[string]bool{}
	for _, row := range rows {
		next := make(expr.Row, len(projections))
		for _, p := range projections {
			next[p.Alias] = expr.Evaluate(p.Expr, row)
		}
		if distinct {
			key := rowHash(next, projections)
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		out = append(out, next)
	}
	return out
}

func rowHash(row expr.Row, projections []Projection) string {
	key := ""
	for _, p := range projections {
		key += p.Alias + "=" + row[p.Alias].String() + ";"
	}
	return key
}

func (ex *Executor) withProject(ctx context.Context, n WithProject, seed []expr.Row) ([]expr.Row, error) {
	rows, err := ex.exec(ctx, n.Input, seed)
	if err != nil {
		return nil, err
	}
	projected := projectRows(rows, n.Projections, n.Distinct)
	if n.Having == nil {
		return projected, nil
	}
	out := projected[:0]
	for _, row := range projected {
		v := expr.Evaluate(n.Having, row)
		if v.Kind == types.KindBool && v.Bool {
			out = append(out, row)
		}
	}
	return out, nil
}

func (ex *Executor) orderBy(ctx context.Context, n OrderBy, seed []expr.Row) ([]expr.Row, error) {
	rows, err := ex.exec(ctx, n.Input, seed)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, key := range n.Keys {
			a := expr.Evaluate(key.Expr, rows[i])
			b := expr.Evaluate(key.Expr, rows[j])
			if a.IsNull() != b.IsNull() {
				return b.IsNull()
			}
			cmp := compareNullsLast(a, b)
			if cmp == 0 {
				continue
			}
			if key.Descending {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
	return rows, nil
}

// compareNullsLast orders two values for ORDER BY: null always sorts
// after any non-null value regardless of direction.
func compareNullsLast(a, b types.Value) int {
	if a.IsNull() && b.IsNull() {
		return 0
	}
	if a.IsNull() {
		return 1
	}
	if b.IsNull() {
		return -1
	}
	switch {
	case a.Kind == types.KindString && b.Kind == types.KindString:
		if a.Str < b.Str {
			return -1
		}
		if a.Str > b.Str {
			return 1
		}
		return 0
	default:
		af, aok := numericOf(a)
		bf, bok := numericOf(b)
		if aok && bok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
		return 0
	}
}

func numericOf(v types.Value) (float64, bool) {
	switch v.Kind {
	case types.KindInt:
		return float64(v.Int), true
	case types.KindFloat:
		return v.Float, true
	default:
		return 0, false
	}
}

func (ex *Executor) skip(ctx context.Context, n Skip, seed []expr.Row) ([]expr.Row, error) {
	rows, err := ex.exec(ctx, n.Input, seed)
	if err != nil {
		return nil, err
	}
	if n.N >= int64(len(rows)) {
		return nil, nil
	}
	if n.N <= 0 {
		return rows, nil
	}
	return rows[n.N:], nil
}

func (ex *Executor) limit(ctx context.Context, n Limit, seed []expr.Row) ([]expr.Row, error) {
	rows, err := ex.exec(ctx, n.Input, seed)
	if err != nil {
		return nil, err
	}
	if n.N < 0 || n.N >= int64(len(rows)) {
		return rows, nil
	}
	return rows[:n.N], nil
}

func (ex *Executor) unwind(ctx context.Context, n Unwind, seed []expr.Row) ([]expr.Row, error) {
	rows, err := ex.exec(ctx, n.Input, seed)
	if err != nil {
		return nil, err
	}
	var out []expr.Row
	for _, row := range rows {
		v := expr.Evaluate(n.Expr, row)
		switch v.Kind {
		case types.KindNull:
			continue
		case types.KindList:
			for _, el := range v.List {
				next := cloneRow(row)
				next[n.Alias] = el
				out = append(out, next)
			}
		default:
			next := cloneRow(row)
			next[n.Alias] = v
			out = append(out, next)
		}
	}
	return out, nil
}

func (ex *Executor) createNode(ctx context.Context, n CreateNode, seed []expr.Row) ([]expr.Row, error) {
	rows, err := ex.exec(ctx, n.Input, seed)
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		id := uuid.NewString()
		properties := evalProperties(n.Properties, row)
		if err := ex.tx.AddCreateNode(ex.txID, id, n.Labels, properties); err != nil {
			return nil, err
		}
		next := cloneRow(row)
		next[n.Var] = nodeToValue(&types.Node{ID: id, Labels: n.Labels, Properties: properties})
		rows[i] = next
	}
	return rows, nil
}

func (ex *Executor) createRelationship(ctx context.Context, n CreateRelationship, seed []expr.Row) ([]expr.Row, error) {
	rows, err := ex.exec(ctx, n.Input, seed)
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		sourceVal, sok := row[n.SourceVar]
		targetVal, tok := row[n.TargetVar]
		if !sok || !tok {
			return nil, types.NewValidationError("ir.create_relationship", fmt.Errorf("endpoint %q or %q not bound", n.SourceVar, n.TargetVar))
		}
		id := uuid.NewString()
		properties := evalProperties(n.Properties, row)
		sourceID, targetID := entityID(sourceVal), entityID(targetVal)
		if err := ex.tx.AddCreateRelationship(ex.txID, id, n.Type, sourceID, targetID, properties); err != nil {
			return nil, err
		}
		next := cloneRow(row)
		next[n.Var] = relToValue(&types.Relationship{ID: id, Type: n.Type, SourceID: sourceID, TargetID: targetID, Properties: properties})
		rows[i] = next
	}
	return rows, nil
}

func (ex *Executor) setProperty(ctx context.Context, n SetProperty, seed []expr.Row) ([]expr.Row, error) {
	rows, err := ex.exec(ctx, n.Input, seed)
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		val, ok := row[n.Var]
		if !ok {
			continue
		}
		newVal := expr.Evaluate(n.Value, row)
		id := entityID(val)
		patch := map[string]types.Value{n.Property: newVal}
		if err := ex.tx.AddSetProperty(ex.txID, id, patch); err != nil {
			return nil, err
		}
		updated := cloneValue(val)
		updated.Map[n.Property] = newVal
		next := cloneRow(row)
		next[n.Var] = updated
		rows[i] = next
	}
	return rows, nil
}

func cloneValue(v types.Value) types.Value {
	return types.Value{Kind: v.Kind, Map: types.CloneMap(v.Map)}
}

func (ex *Executor) removeProperty(ctx context.Context, n RemoveProperty, seed []expr.Row) ([]expr.Row, error) {
	rows, err := ex.exec(ctx, n.Input, seed)
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		val, ok := row[n.Var]
		if !ok {
			continue
		}
		id := entityID(val)
		if err := ex.tx.AddSetProperty(ex.txID, id, map[string]types.Value{n.Property: types.Null}); err != nil {
			return nil, err
		}
		updated := cloneValue(val)
		delete(updated.Map, n.Property)
		next := cloneRow(row)
		next[n.Var] = updated
		rows[i] = next
	}
	return rows, nil
}

func (ex *Executor) removeLabel(ctx context.Context, n RemoveLabel, seed []expr.Row) ([]expr.Row, error) {
	rows, err := ex.exec(ctx, n.Input, seed)
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		val, ok := row[n.Var]
		if !ok {
			continue
		}
		id := entityID(val)
		labels := nodeLabels(val)
		filtered := labels[:0]
		for _, l := range labels {
			if l != n.Label {
				filtered = append(filtered, l)
			}
		}
		if err := ex.tx.AddCreateNode(ex.txID, id, filtered, propertiesOnly(val)); err != nil {
			return nil, err
		}
		updated := cloneValue(val)
		labelValues := make([]types.Value, len(filtered))
		for i, l := range filtered {
			labelValues[i] = types.NewString(l)
		}
		updated.Map[keyLabels] = types.NewList(labelValues)
		next := cloneRow(row)
		next[n.Var] = updated
		rows[i] = next
	}
	return rows, nil
}

func (ex *Executor) addLabel(ctx context.Context, n AddLabel, seed []expr.Row) ([]expr.Row, error) {
	rows, err := ex.exec(ctx, n.Input, seed)
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		val, ok := row[n.Var]
		if !ok {
			continue
		}
		id := entityID(val)
		labels := nodeLabels(val)
		has := false
		for _, l := range labels {
			if l == n.Label {
				has = true
				break
			}
		}
		if !has {
			labels = append(labels, n.Label)
		}
		if err := ex.tx.AddCreateNode(ex.txID, id, labels, propertiesOnly(val)); err != nil {
			return nil, err
		}
		updated := cloneValue(val)
		labelValues := make([]types.Value, len(labels))
		for i, l := range labels {
			labelValues[i] = types.NewString(l)
		}
		updated.Map[keyLabels] = types.NewList(labelValues)
		next := cloneRow(row)
		next[n.Var] = updated
		rows[i] = next
	}
	return rows, nil
}

func (ex *Executor) delete_(ctx context.Context, n Delete, seed []expr.Row) ([]expr.Row, error) {
	rows, err := ex.exec(ctx, n.Input, seed)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		for _, v := range n.Vars {
			val, ok := row[v]
			if !ok || val.IsNull() {
				continue
			}
			id := entityID(val)
			if isRelationshipValue(val) {
				if err := ex.tx.AddDeleteRelationship(ex.txID, id); err != nil {
					return nil, err
				}
				continue
			}
			if !n.Detach {
				if incident := ex.g.GetRelationships(id, types.DirBoth, nil, 0); len(incident) > 0 {
					return nil, types.NewValidationError("ir.delete", fmt.Errorf("node %s has incident relationships; use DETACH DELETE", id))
				}
			} else {
				for _, r := range ex.g.GetRelationships(id, types.DirBoth, nil, 0) {
					if err := ex.tx.AddDeleteRelationship(ex.txID, r.ID); err != nil {
						return nil, err
					}
				}
			}
			if err := ex.tx.AddDeleteNode(ex.txID, id); err != nil {
				return nil, err
			}
		}
	}
	return rows, nil
}

func (ex *Executor) merge(ctx context.Context, n Merge, seed []expr.Row) ([]expr.Row, error) {
	outer, err := ex.exec(ctx, n.Input, seed)
	if err != nil {
		return nil, err
	}
	var out []expr.Row
	for _, orow := range outer {
		matches, err := ex.exec(ctx, n.MatchPlan, []expr.Row{orow})
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			if n.OnCreate == nil {
				continue
			}
			created, err := ex.exec(ctx, n.OnCreate, []expr.Row{orow})
			if err != nil {
				return nil, err
			}
			out = append(out, created...)
			continue
		}
		for _, mrow := range matches {
			if n.OnMatch == nil {
				out = append(out, mrow)
				continue
			}
			updated, err := ex.exec(ctx, n.OnMatch, []expr.Row{mrow})
			if err != nil {
				return nil, err
			}
			out = append(out, updated...)
		}
	}
	return out, nil
}

func (ex *Executor) foreach(ctx context.Context, n Foreach, seed []expr.Row) ([]expr.Row, error) {
	rows, err := ex.exec(ctx, n.Input, seed)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		listVal := expr.Evaluate(n.List, row)
		if listVal.Kind != types.KindList {
			continue
		}
		for _, el := range listVal.List {
			iterRow := cloneRow(row)
			iterRow[n.Alias] = el
			if _, err := ex.exec(ctx, n.Body, []expr.Row{iterRow}); err != nil {
				return nil, err
			}
		}
	}
	return rows, nil
}

func (ex *Executor) callSubquery(ctx context.Context, n CallSubquery, seed []expr.Row) ([]expr.Row, error) {
	rows, err := ex.exec(ctx, n.Input, seed)
	if err != nil {
		return nil, err
	}
	var out []expr.Row
	for _, row := range rows {
		innerRows, err := ex.exec(ctx, n.Inner, []expr.Row{row})
		if err != nil {
			return nil, err
		}
		for _, innerRow := range innerRows {
			merged := cloneRow(row)
			for k, v := range innerRow {
				alias := k
				if renamed, ok := n.Yield[k]; ok {
					alias = renamed
				}
				merged[alias] = v
			}
			out = append(out, merged)
		}
	}
	return out, nil
}

func (ex *Executor) union(ctx context.Context, n Union, seed []expr.Row) ([]expr.Row, error) {
	left, err := ex.exec(ctx, n.Left, seed)
	if err != nil {
		return nil, err
	}
	right, err := ex.exec(ctx, n.Right, seed)
	if err != nil {
		return nil, err
	}
	combined := append(left, right...)
	if n.All {
		return combined, nil
	}
	seen := map[string]bool{}
	out := combined[:0]
	for _, row := range combined {
		key := rowKeyAllColumns(row)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, row)
	}
	return out, nil
}

func rowKeyAllColumns(row expr.Row) string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	key := ""
	for _, k := range keys {
		key += k + "=" + row[k].String() + ";"
	}
	return key
}
