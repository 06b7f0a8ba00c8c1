package cypher

import "github.com/latticedb/lattice/pkg/expr"

// Query is a sequence of clauses, optionally chained by UNION.
type Query struct {
	Clauses []Clause
	Unions  []UnionPart
}

type UnionPart struct {
	All   bool
	Query Query
}

// Clause is any top-level Cypher clause.
type Clause interface{ isClause() }

type MatchClause struct {
	Optional bool
	Pattern  []PatternPart
	Where    expr.Expr
}

type CreateClause struct {
	Pattern []PatternPart
}

type MergeClause struct {
	Pattern  []PatternPart
	OnCreate []SetItem
	OnMatch  []SetItem
}

type SetClause struct {
	Items []SetItem
}

type SetItem struct {
	Var      string
	Property string // empty when setting whole-entity / label
	Label    string // non-empty for SET n:Label
	Value    expr.Expr
}

type RemoveClause struct {
	Items []RemoveItem
}

type RemoveItem struct {
	Var      string
	Property string
	Label    string
}

type DeleteClause struct {
	Detach bool
	Vars   []string
}

type WithClause struct {
	Items    []ReturnItem
	Distinct bool
	Where    expr.Expr
	OrderBy  []OrderItem
	Skip     expr.Expr
	Limit    expr.Expr
}

type ReturnClause struct {
	Items    []ReturnItem
	Distinct bool
	OrderBy  []OrderItem
	Skip     expr.Expr
	Limit    expr.Expr
}

type ReturnItem struct {
	Expr  expr.Expr
	Alias string
	Star  bool
}

type OrderItem struct {
	Expr       expr.Expr
	Descending bool
}

type UnwindClause struct {
	List  expr.Expr
	Alias string
}

type ForeachClause struct {
	Alias   string
	List    expr.Expr
	Updates []Clause
}

type CallClause struct {
	Name  string
	Args  []expr.Expr
	Yield []string
}

func (MatchClause) isClause()   {}
func (CreateClause) isClause()  {}
func (MergeClause) isClause()   {}
func (SetClause) isClause()     {}
func (RemoveClause) isClause()  {}
func (DeleteClause) isClause()  {}
func (WithClause) isClause()    {}
func (ReturnClause) isClause()  {}
func (UnwindClause) isClause()  {}
func (ForeachClause) isClause() {}
func (CallClause) isClause()    {}

// PatternPart is one node-relationship-node... chain within a pattern.
type PatternPart struct {
	Elements []PatternElement // alternating NodePattern, RelPattern, NodePattern, ...
}

type NodePattern struct {
	Var        string
	Labels     []string
	Properties map[string]expr.Expr
}

type RelPattern struct {
	Var        string
	Types      []string
	Properties map[string]expr.Expr
	Direction  Direction
	MinHops    *int
	MaxHops    *int
	VarLength  bool
}

type Direction int

const (
	DirRight Direction = iota // (a)-[]->(b)
	DirLeft                   // (a)<-[]-(b)
	DirEither                 // (a)-[]-(b)
)

// PatternElement is either a NodePattern or a RelPattern.
type PatternElement interface{ isPatternElement() }

func (NodePattern) isPatternElement() {}
func (RelPattern) isPatternElement()  {}
