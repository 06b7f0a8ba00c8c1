package ir

import (
	"github.com/latticedb/lattice/pkg/expr"
	"github.com/latticedb/lattice/pkg/types"
)

// Op is any node in a compiled query plan. Implementations are plain
// data structs; exec (executor.go), reached through Executor.Run,
// switches on the concrete type.
type Op interface{ isOp() }

// SingleRow is the synthetic root every query starts from: one empty
// row, matching Cypher's "one row, no bindings" starting point.
type SingleRow struct{}

// CurrentRow is a leaf substituted by the executor with whatever row
// is being iterated by the enclosing Foreach/CallSubquery/Merge —
// it's how a sub-plan sees the outer row it was spawned from.
type CurrentRow struct{}

// ScanAll yields one row per node in the graph, bound to Var.
type ScanAll struct{ Var string }

// ScanLabel yields one row per node carrying Label.
type ScanLabel struct {
	Var   string
	Label string
}

// ScanByIndex yields nodes matching an equality filter the compiler
// has pushed down from an overlying Filter, preferred over ScanLabel
// whenever the index manager can serve it (spec §4.I).
type ScanByIndex struct {
	Var    string
	Label  string
	Filter map[string]types.Value
}

// Filter drops rows where Expr is not truthy.
type Filter struct {
	Input Op
	Expr  expr.Expr
}

// Expand walks relationships out of SourceVar, binding the far node to
// TargetVar and (optionally) the relationship itself to RelVar.
type Expand struct {
	Input      Op
	SourceVar  string
	RelType    string // "" means any type
	Direction  types.Direction
	TargetVar  string
	RelVar     string // "" means the relationship isn't bound
	TargetLabel string // "" means no label constraint
}

// OptionalExpand behaves like Expand but emits exactly one row with
// null bindings when a source has no matching relationship.
type OptionalExpand struct {
	Expand
}

// Projection is one RETURN/WITH item: expression plus the alias it's
// bound to downstream.
type Projection struct {
	Expr  expr.Expr
	Alias string
}

// Project narrows a row down to Projections, optionally deduping by
// the hash of the projected tuple.
type Project struct {
	Input       Op
	Projections []Projection
	Distinct    bool
}

// WithProject is Project plus a WHERE applied to the projected rows
// before they flow downstream (WITH ... WHERE ...).
type WithProject struct {
	Project
	Having expr.Expr // nil means no filter
}

// AggregateFunc is one aggregate call in an Aggregate operator.
type AggregateFunc struct {
	Name     string // count, sum, avg, min, max, collect, stddev
	Arg      expr.Expr // nil means count(*)
	Distinct bool
	Alias    string
}

// Aggregate groups rows by GroupKeys and emits one row per group with
// the group key bindings plus each AggregateFunc's result.
type Aggregate struct {
	Input     Op
	GroupKeys []Projection
	Funcs     []AggregateFunc
}

// SortKey is one ORDER BY term.
type SortKey struct {
	Expr       expr.Expr
	Descending bool
}

// OrderBy sorts the full row buffer; nulls sort last regardless of
// direction.
type OrderBy struct {
	Input Op
	Keys  []SortKey
}

type Skip struct {
	Input Op
	N     int64
}

type Limit struct {
	Input Op
	N     int64
}

// Unwind expands a list-valued expression into one row per element,
// binding Alias. A null list yields zero rows; a scalar yields one
// row with that scalar bound.
type Unwind struct {
	Input Op
	Expr  expr.Expr
	Alias string
}

// CreateNode stages a node creation in the enclosing transaction.
// Anonymous variables get a deterministic name (spec §4.H: `_n{i}`).
type CreateNode struct {
	Input      Op
	Var        string
	Labels     []string
	Properties map[string]expr.Expr
}

// CreateRelationship stages a relationship between two already-bound
// variables.
type CreateRelationship struct {
	Input      Op
	Var        string
	Type       string
	SourceVar  string
	TargetVar  string
	Properties map[string]expr.Expr
}

// SetProperty stages a property write on a bound node or relationship.
type SetProperty struct {
	Input    Op
	Var      string
	Property string
	Value    expr.Expr
}

type RemoveProperty struct {
	Input    Op
	Var      string
	Property string
}

type RemoveLabel struct {
	Input Op
	Var   string
	Label string
}

// AddLabel stages a label addition on a bound node (SET n:Label).
type AddLabel struct {
	Input Op
	Var   string
	Label string
}

// Delete removes bound entities; Detach also removes incident
// relationships. Deleting a node with incident relationships without
// Detach compiles fine but fails at execution (spec §4.H).
type Delete struct {
	Input  Op
	Vars   []string
	Detach bool
}

// Merge attempts the wrapped pattern-match first; on zero matches it
// runs OnCreate's CREATE + SET path, on >=1 match it runs OnMatch's
// SET path. The match sub-plan and create sub-plan share Vars.
type Merge struct {
	Input     Op
	MatchPlan Op // wired with Input as its own root; yields matches (possibly zero)
	OnCreate  Op // wired with Input as its own root; runs when MatchPlan yields zero rows
	OnMatch   Op // wired with MatchPlan's output as its own root; runs per match
}

// Foreach runs Body once per element of ListExpr, binding Alias; the
// body's write operators accumulate into the enclosing transaction.
// Body is wired with a synthetic single-row input carrying Alias.
type Foreach struct {
	Input Op
	Alias string
	List  expr.Expr
	Body  Op
}

// CallSubquery runs Inner in an isolated row stream per outer row and
// merges results back as additional columns, optionally renamed via
// Yield.
type CallSubquery struct {
	Input Op
	Inner Op
	Yield map[string]string // inner column -> outer alias
}

// Union concatenates Left and Right's streams; All disables dedup.
type Union struct {
	Left, Right Op
	All         bool
}

func (SingleRow) isOp()            {}
func (CurrentRow) isOp()           {}
func (ScanAll) isOp()             {}
func (ScanLabel) isOp()            {}
func (ScanByIndex) isOp()          {}
func (Filter) isOp()               {}
func (Expand) isOp()               {}
func (OptionalExpand) isOp()       {}
func (Project) isOp()              {}
func (WithProject) isOp()          {}
func (Aggregate) isOp()            {}
func (OrderBy) isOp()              {}
func (Skip) isOp()                 {}
func (Limit) isOp()                {}
func (Unwind) isOp()               {}
func (CreateNode) isOp()           {}
func (CreateRelationship) isOp()   {}
func (SetProperty) isOp()          {}
func (RemoveProperty) isOp()       {}
func (RemoveLabel) isOp()          {}
func (AddLabel) isOp()             {}
func (Delete) isOp()               {}
func (Merge) isOp()                {}
func (Foreach) isOp()              {}
func (CallSubquery) isOp()         {}
func (Union) isOp()                {}
