package cypher

import (
	"fmt"

	"github.com/latticedb/lattice/pkg/expr"
	"github.com/latticedb/lattice/pkg/ir"
	"github.com/latticedb/lattice/pkg/types"
)

// Compiler translates a parsed Query into a pkg/ir.Op tree. One
// Compiler instance handles one top-level query (a UNION branch gets
// its own instance, so anonymous-variable numbering restarts per
// branch).
type Compiler struct {
	nodeCounter int
	relCounter  int
	anonCounter int
	known       map[string]bool
}

// Compile compiles source text straight to an ir.Op tree.
func Compile(src string) (ir.Op, error) {
	q, err := ParseQuery(src)
	if err != nil {
		return nil, err
	}
	return CompileQuery(q)
}

func CompileQuery(q *Query) (ir.Op, error) {
	c := newCompiler()
	op, err := c.compileClauses(q.Clauses, ir.SingleRow{})
	if err != nil {
		return nil, types.NewCompileError("cypher.compile", err)
	}
	for _, u := range q.Unions {
		uc := newCompiler()
		right, err := uc.compileClauses(u.Query.Clauses, ir.SingleRow{})
		if err != nil {
			return nil, types.NewCompileError("cypher.compile", err)
		}
		op = ir.Union{Left: op, Right: right, All: u.All}
	}
	return op, nil
}

func newCompiler() *Compiler {
	return &Compiler{known: map[string]bool{}}
}

func (c *Compiler) nextNodeName() string {
	c.nodeCounter++
	return fmt.Sprintf("_n%d", c.nodeCounter)
}

func (c *Compiler) nextRelName() string {
	c.relCounter++
	return fmt.Sprintf("_r%d", c.relCounter)
}

func (c *Compiler) nextAnonAlias() string {
	c.anonCounter++
	return fmt.Sprintf("_anon%d", c.anonCounter)
}

func (c *Compiler) compileClauses(clauses []Clause, start ir.Op) (ir.Op, error) {
	op := start
	var err error
	for _, cl := range clauses {
		op, err = c.compileClause(op, cl)
		if err != nil {
			return nil, err
		}
	}
	return op, nil
}

func (c *Compiler) compileClause(op ir.Op, cl Clause) (ir.Op, error) {
	switch n := cl.(type) {
	case MatchClause:
		return c.compileMatch(op, n)
	case CreateClause:
		return c.compileCreate(op, n)
	case MergeClause:
		return c.compileMerge(op, n)
	case SetClause:
		return c.compileSet(op, n.Items)
	case RemoveClause:
		return c.compileRemove(op, n)
	case DeleteClause:
		return ir.Delete{Input: op, Vars: n.Vars, Detach: n.Detach}, nil
	case WithClause:
		return c.compileWith(op, n)
	case ReturnClause:
		return c.compileReturn(op, n)
	case UnwindClause:
		alias := n.Alias
		c.known[alias] = true
		return ir.Unwind{Input: op, Expr: n.List, Alias: alias}, nil
	case ForeachClause:
		return c.compileForeach(op, n)
	case CallClause:
		return nil, newCompileError("CALL "+n.Name, "procedure calls are not supported")
	default:
		return nil, newCompileError(fmt.Sprintf("%T", cl), "unhandled clause")
	}
}

// --- MATCH ---

func (c *Compiler) compileMatch(op ir.Op, n MatchClause) (ir.Op, error) {
	var err error
	for _, part := range n.Pattern {
		op, err = c.compilePatternPart(op, part, n.Optional)
		if err != nil {
			return nil, err
		}
	}
	if n.Where != nil {
		where := n.Where
		if n.Optional {
			// OPTIONAL MATCH keeps a row whose WHERE is null and drops
			// it only on an explicit false.
			where = expr.BooleanOp{Op: "OR", Left: expr.IsNullCheck{Operand: n.Where}, Right: n.Where}
		}
		op = ir.Filter{Input: op, Expr: where}
	}
	return op, nil
}

// compilePatternPart folds one comma-separated pattern part into op,
// either as a scan cross-joined via CallSubquery (fresh variables) or
// as an Expand chain rooted at an already-bound variable.
func (c *Compiler) compilePatternPart(op ir.Op, part PatternPart, optional bool) (ir.Op, error) {
	if len(part.Elements) == 0 {
		return op, newCompileError("MATCH", "empty pattern")
	}
	n0 := part.Elements[0].(NodePattern)
	var sourceVar string

	if n0.Var != "" && c.known[n0.Var] {
		sourceVar = n0.Var
	} else {
		name := n0.Var
		if name == "" {
			name = c.nextAnonAlias()
		}
		scan := c.buildNodeScan(name, n0)
		if _, isSingle := op.(ir.SingleRow); isSingle {
			op = scan
		} else {
			op = ir.CallSubquery{Input: op, Inner: scan, Yield: map[string]string{name: name}}
		}
		c.known[name] = true
		sourceVar = name
	}

	return c.expandPatternTail(op, sourceVar, part.Elements[1:], optional)
}

// expandPatternTail walks the Rel,Node,Rel,Node... tail of a pattern,
// emitting an Expand/OptionalExpand per hop directly atop op.
func (c *Compiler) expandPatternTail(op ir.Op, sourceVar string, rest []PatternElement, optional bool) (ir.Op, error) {
	for i := 0; i+1 < len(rest); i += 2 {
		rel := rest[i].(RelPattern)
		nodeNext := rest[i+1].(NodePattern)
		if rel.VarLength {
			return nil, newCompileError("MATCH", "variable-length relationship patterns are not supported")
		}
		targetVar := nodeNext.Var
		if targetVar == "" {
			targetVar = c.nextAnonAlias()
		}
		relVar := rel.Var
		relType := ""
		if len(rel.Types) > 0 {
			relType = rel.Types[0]
		}
		targetLabel := ""
		if len(nodeNext.Labels) > 0 {
			targetLabel = nodeNext.Labels[0]
		}
		expand := ir.Expand{
			Input:       op,
			SourceVar:   sourceVar,
			RelType:     relType,
			Direction:   convertDirection(rel.Direction),
			TargetVar:   targetVar,
			RelVar:      relVar,
			TargetLabel: targetLabel,
		}
		if optional {
			op = ir.OptionalExpand{Expand: expand}
		} else {
			op = expand
		}
		if len(rel.Types) > 1 {
			op = ir.Filter{Input: op, Expr: relTypeInExpr(relVar, rel.Types)}
		}
		if len(nodeNext.Labels) > 1 {
			op = applyExtraLabelFilters(op, targetVar, nodeNext.Labels[1:])
		}
		if len(nodeNext.Properties) > 0 {
			op = ir.Filter{Input: op, Expr: combineAnd(propEqExprs(targetVar, nodeNext.Properties))}
		}
		if len(rel.Properties) > 0 && relVar != "" {
			op = ir.Filter{Input: op, Expr: combineAnd(propEqExprs(relVar, rel.Properties))}
		}
		c.known[targetVar] = true
		if relVar != "" {
			c.known[relVar] = true
		}
		sourceVar = targetVar
	}
	return op, nil
}

func convertDirection(d Direction) types.Direction {
	switch d {
	case DirRight:
		return types.DirOut
	case DirLeft:
		return types.DirIn
	default:
		return types.DirBoth
	}
}

func (c *Compiler) buildNodeScan(varName string, n NodePattern) ir.Op {
	var op ir.Op
	switch {
	case len(n.Labels) == 0:
		op = ir.ScanAll{Var: varName}
		if len(n.Properties) > 0 {
			op = ir.Filter{Input: op, Expr: combineAnd(propEqExprs(varName, n.Properties))}
		}
	case allLiteral(n.Properties):
		filt := map[string]types.Value{}
		for k, e := range n.Properties {
			filt[k] = e.(expr.Literal).Value
		}
		op = ir.ScanByIndex{Var: varName, Label: n.Labels[0], Filter: filt}
	default:
		op = ir.ScanLabel{Var: varName, Label: n.Labels[0]}
		if len(n.Properties) > 0 {
			op = ir.Filter{Input: op, Expr: combineAnd(propEqExprs(varName, n.Properties))}
		}
	}
	if len(n.Labels) > 1 {
		op = applyExtraLabelFilters(op, varName, n.Labels[1:])
	}
	return op
}

func applyExtraLabelFilters(op ir.Op, varName string, labels []string) ir.Op {
	for _, l := range labels {
		op = ir.Filter{Input: op, Expr: labelInExpr(varName, l)}
	}
	return op
}

func allLiteral(m map[string]expr.Expr) bool {
	if len(m) == 0 {
		return false
	}
	for _, e := range m {
		if _, ok := e.(expr.Literal); !ok {
			return false
		}
	}
	return true
}

func propEqExprs(varName string, props map[string]expr.Expr) []expr.Expr {
	out := make([]expr.Expr, 0, len(props))
	for k, v := range props {
		out = append(out, expr.Comparison{Op: "=", Left: expr.PropertyAccess{Target: expr.Identifier{Name: varName}, Property: k}, Right: v})
	}
	return out
}

func combineAnd(exprs []expr.Expr) expr.Expr {
	if len(exprs) == 0 {
		return expr.Literal{Value: types.NewBool(true)}
	}
	out := exprs[0]
	for _, e := range exprs[1:] {
		out = expr.BooleanOp{Op: "AND", Left: out, Right: e}
	}
	return out
}

func labelInExpr(varName, label string) expr.Expr {
	return expr.InExpr{
		Item: expr.Literal{Value: types.NewString(label)},
		List: expr.PropertyAccess{Target: expr.Identifier{Name: varName}, Property: "_labels"},
	}
}

func relTypeInExpr(relVar string, types_ []string) expr.Expr {
	elems := make([]expr.Expr, len(types_))
	for i, t := range types_ {
		elems[i] = expr.Literal{Value: types.NewString(t)}
	}
	return expr.InExpr{
		Item: expr.PropertyAccess{Target: expr.Identifier{Name: relVar}, Property: "_type"},
		List: expr.ListLiteral{Elements: elems},
	}
}

// --- CREATE ---

func (c *Compiler) compileCreate(op ir.Op, n CreateClause) (ir.Op, error) {
	var err error
	for _, part := range n.Pattern {
		op, err = c.compileCreatePart(op, part)
		if err != nil {
			return nil, err
		}
	}
	return op, nil
}

func (c *Compiler) compileCreatePart(op ir.Op, part PatternPart) (ir.Op, error) {
	if len(part.Elements) == 0 {
		return op, newCompileError("CREATE", "empty pattern")
	}
	n0 := part.Elements[0].(NodePattern)
	sourceVar, op := c.resolveOrCreateNode(op, n0)

	rest := part.Elements[1:]
	for i := 0; i+1 < len(rest); i += 2 {
		rel := rest[i].(RelPattern)
		nodeNext := rest[i+1].(NodePattern)
		if rel.VarLength {
			return nil, newCompileError("CREATE", "variable-length relationship patterns cannot be created")
		}
		if rel.Direction == DirEither {
			return nil, newCompileError("CREATE", "relationship direction must be specified")
		}
		targetVar, nextOp := c.resolveOrCreateNode(op, nodeNext)
		op = nextOp

		relVar := rel.Var
		if relVar == "" {
			relVar = c.nextRelName()
		}
		relType := ""
		if len(rel.Types) > 0 {
			relType = rel.Types[0]
		}
		srcVar, tgtVar := sourceVar, targetVar
		if rel.Direction == DirLeft {
			srcVar, tgtVar = targetVar, sourceVar
		}
		op = ir.CreateRelationship{
			Input:      op,
			Var:        relVar,
			Type:       relType,
			SourceVar:  srcVar,
			TargetVar:  tgtVar,
			Properties: rel.Properties,
		}
		c.known[relVar] = true
		sourceVar = targetVar
	}
	return op, nil
}

func (c *Compiler) resolveOrCreateNode(op ir.Op, n NodePattern) (string, ir.Op) {
	if n.Var != "" && c.known[n.Var] {
		return n.Var, op
	}
	name := n.Var
	if name == "" {
		name = c.nextNodeName()
	}
	op = ir.CreateNode{Input: op, Var: name, Labels: n.Labels, Properties: n.Properties}
	c.known[name] = true
	return name, op
}

// --- MERGE ---

func (c *Compiler) compileMerge(op ir.Op, n MergeClause) (ir.Op, error) {
	if len(n.Pattern) != 1 {
		return nil, newCompileError("MERGE", "exactly one pattern is supported")
	}
	part := n.Pattern[0]

	matchKnown := map[string]bool{}
	for k := range c.known {
		matchKnown[k] = true
	}
	sub := &Compiler{known: matchKnown, nodeCounter: c.nodeCounter, relCounter: c.relCounter, anonCounter: c.anonCounter}
	matchPlan, err := sub.compilePatternPart(ir.CurrentRow{}, part, false)
	if err != nil {
		return nil, err
	}

	createKnown := map[string]bool{}
	for k := range c.known {
		createKnown[k] = true
	}
	csub := &Compiler{known: createKnown, nodeCounter: sub.nodeCounter, relCounter: sub.relCounter, anonCounter: sub.anonCounter}
	onCreate, err := csub.compileCreatePart(ir.CurrentRow{}, part)
	if err != nil {
		return nil, err
	}
	if len(n.OnCreate) > 0 {
		onCreate, err = csub.compileSet(onCreate, n.OnCreate)
		if err != nil {
			return nil, err
		}
	}

	var onMatch ir.Op
	if len(n.OnMatch) > 0 {
		msub := &Compiler{known: matchKnown, nodeCounter: csub.nodeCounter, relCounter: csub.relCounter, anonCounter: csub.anonCounter}
		onMatch, err = msub.compileSet(ir.CurrentRow{}, n.OnMatch)
		if err != nil {
			return nil, err
		}
		c.nodeCounter, c.relCounter, c.anonCounter = msub.nodeCounter, msub.relCounter, msub.anonCounter
	} else {
		c.nodeCounter, c.relCounter, c.anonCounter = csub.nodeCounter, csub.relCounter, csub.anonCounter
	}

	for k := range matchKnown {
		c.known[k] = true
	}
	for k := range createKnown {
		c.known[k] = true
	}

	return ir.Merge{Input: op, MatchPlan: matchPlan, OnCreate: onCreate, OnMatch: onMatch}, nil
}

// --- SET / REMOVE ---

func (c *Compiler) compileSet(op ir.Op, items []SetItem) (ir.Op, error) {
	for _, it := range items {
		switch {
		case it.Label != "":
			op = ir.AddLabel{Input: op, Var: it.Var, Label: it.Label}
		case it.Property != "":
			op = ir.SetProperty{Input: op, Var: it.Var, Property: it.Property, Value: it.Value}
		default:
			m, ok := it.Value.(expr.MapLiteral)
			if !ok {
				return nil, newCompileError("SET", "whole-entity SET requires a map literal on the right-hand side")
			}
			for k, v := range m.Entries {
				op = ir.SetProperty{Input: op, Var: it.Var, Property: k, Value: v}
			}
		}
	}
	return op, nil
}

func (c *Compiler) compileRemove(op ir.Op, n RemoveClause) (ir.Op, error) {
	for _, it := range n.Items {
		switch {
		case it.Label != "":
			op = ir.RemoveLabel{Input: op, Var: it.Var, Label: it.Label}
		case it.Property != "":
			op = ir.RemoveProperty{Input: op, Var: it.Var, Property: it.Property}
		default:
			return nil, newCompileError("REMOVE", "empty remove item")
		}
	}
	return op, nil
}

// --- WITH / RETURN ---

func (c *Compiler) compileWith(op ir.Op, n WithClause) (ir.Op, error) {
	projections, err := c.resolveReturnItems(n.Items)
	if err != nil {
		return nil, err
	}
	proj := ir.Project{Input: op, Projections: projections, Distinct: n.Distinct}
	var result ir.Op = proj
	if n.Where != nil {
		result = ir.WithProject{Project: proj, Having: n.Where}
	}
	for _, alias := range projections {
		c.known[alias.Alias] = true
	}
	result, err = c.applyOrderSkipLimit(result, n.OrderBy, n.Skip, n.Limit)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Compiler) compileReturn(op ir.Op, n ReturnClause) (ir.Op, error) {
	projections, err := c.resolveReturnItems(n.Items)
	if err != nil {
		return nil, err
	}
	if hasAggregate(n.Items) {
		funcs, groupKeys := splitAggregates(projections, n.Items)
		op = ir.Aggregate{Input: op, GroupKeys: groupKeys, Funcs: funcs}
	} else {
		op = ir.Project{Input: op, Projections: projections, Distinct: n.Distinct}
	}
	op, err = c.applyOrderSkipLimit(op, n.OrderBy, n.Skip, n.Limit)
	if err != nil {
		return nil, err
	}
	return op, nil
}

func (c *Compiler) resolveReturnItems(items []ReturnItem) ([]ir.Projection, error) {
	var out []ir.Projection
	for _, it := range items {
		if it.Star {
			for v := range c.known {
				out = append(out, ir.Projection{Expr: expr.Identifier{Name: v}, Alias: v})
			}
			continue
		}
		alias := it.Alias
		if alias == "" {
			if id, ok := it.Expr.(expr.Identifier); ok {
				alias = id.Name
			} else {
				alias = c.nextAnonAlias()
			}
		}
		out = append(out, ir.Projection{Expr: it.Expr, Alias: alias})
	}
	return out, nil
}

func (c *Compiler) applyOrderSkipLimit(op ir.Op, order []OrderItem, skip, limit expr.Expr) (ir.Op, error) {
	if len(order) > 0 {
		keys := make([]ir.SortKey, len(order))
		for i, o := range order {
			keys[i] = ir.SortKey{Expr: o.Expr, Descending: o.Descending}
		}
		op = ir.OrderBy{Input: op, Keys: keys}
	}
	if skip != nil {
		lit, ok := skip.(expr.Literal)
		if !ok || lit.Value.Kind != types.KindInt {
			return nil, newCompileError("SKIP", "must be an integer literal")
		}
		op = ir.Skip{Input: op, N: lit.Value.Int}
	}
	if limit != nil {
		lit, ok := limit.(expr.Literal)
		if !ok || lit.Value.Kind != types.KindInt {
			return nil, newCompileError("LIMIT", "must be an integer literal")
		}
		op = ir.Limit{Input: op, N: lit.Value.Int}
	}
	return op, nil
}

func hasAggregate(items []ReturnItem) bool {
	for _, it := range items {
		if containsAggregateCall(it.Expr) {
			return true
		}
	}
	return false
}

var aggregateNames = map[string]bool{
	"count": true, "sum": true, "avg": true, "min": true, "max": true,
	"collect": true, "stddev": true,
}

func containsAggregateCall(e expr.Expr) bool {
	fc, ok := e.(expr.FunctionCall)
	if !ok {
		return false
	}
	return aggregateNames[fc.Name]
}

// splitAggregates separates RETURN items into plain group-by keys and
// aggregate-function calls. Non-aggregate items become GroupKeys.
func splitAggregates(projections []ir.Projection, items []ReturnItem) ([]ir.AggregateFunc, []ir.Projection) {
	var funcs []ir.AggregateFunc
	var groupKeys []ir.Projection
	for i, it := range items {
		if fc, ok := it.Expr.(expr.FunctionCall); ok && aggregateNames[fc.Name] {
			var arg expr.Expr
			if !fc.Star && len(fc.Args) > 0 {
				arg = fc.Args[0]
			}
			funcs = append(funcs, ir.AggregateFunc{Name: fc.Name, Arg: arg, Distinct: fc.Distinct, Alias: projections[i].Alias})
			continue
		}
		groupKeys = append(groupKeys, projections[i])
	}
	return funcs, groupKeys
}

// --- FOREACH ---

func (c *Compiler) compileForeach(op ir.Op, n ForeachClause) (ir.Op, error) {
	sub := &Compiler{known: map[string]bool{n.Alias: true}, nodeCounter: c.nodeCounter, relCounter: c.relCounter, anonCounter: c.anonCounter}
	for k := range c.known {
		sub.known[k] = true
	}
	body, err := sub.compileClauses(n.Updates, ir.CurrentRow{})
	if err != nil {
		return nil, err
	}
	c.nodeCounter, c.relCounter, c.anonCounter = sub.nodeCounter, sub.relCounter, sub.anonCounter
	return ir.Foreach{Input: op, Alias: n.Alias, List: n.List, Body: body}, nil
}
