package cypher

import (
	"testing"

	"github.com/latticedb/lattice/pkg/ir"
)

func mustCompile(t *testing.T, src string) ir.Op {
	t.Helper()
	op, err := Compile(src)
	if err != nil {
		t.Fatalf("Compile(%q): %v", src, err)
	}
	return op
}

func TestCompileMatchReturnProducesScanAndProject(t *testing.T) {
	op := mustCompile(t, "MATCH (n:Person) RETURN n.name AS name")
	proj, ok := op.(ir.Project)
	if !ok {
		t.Fatalf("expected top-level Project, got %T", op)
	}
	if len(proj.Projections) != 1 || proj.Projections[0].Alias != "name" {
		t.Fatalf("unexpected projections: %+v", proj.Projections)
	}
	if _, ok := proj.Input.(ir.ScanLabel); !ok {
		t.Fatalf("expected ScanLabel beneath Project, got %T", proj.Input)
	}
}

func TestCompileMatchWithIndexablePropertyUsesScanByIndex(t *testing.T) {
	op := mustCompile(t, "MATCH (n:Person {id: 7}) RETURN n")
	proj := op.(ir.Project)
	if _, ok := proj.Input.(ir.ScanByIndex); !ok {
		t.Fatalf("expected ScanByIndex, got %T", proj.Input)
	}
}

func TestCompileMatchWithWhereWrapsFilter(t *testing.T) {
	op := mustCompile(t, "MATCH (n:Person) WHERE n.age > 21 RETURN n")
	proj := op.(ir.Project)
	if _, ok := proj.Input.(ir.Filter); !ok {
		t.Fatalf("expected Filter beneath Project, got %T", proj.Input)
	}
}

func TestCompileRelationshipPatternProducesExpand(t *testing.T) {
	op := mustCompile(t, "MATCH (a:Person)-[:KNOWS]->(b:Person) RETURN a, b")
	proj := op.(ir.Project)
	expand, ok := proj.Input.(ir.Expand)
	if !ok {
		t.Fatalf("expected Expand beneath Project, got %T", proj.Input)
	}
	if expand.SourceVar != "a" || expand.TargetVar != "b" || expand.RelType != "KNOWS" {
		t.Fatalf("unexpected expand: %+v", expand)
	}
}

func TestCompileCreateNodeAndRelationship(t *testing.T) {
	op := mustCompile(t, "CREATE (a:Person {name: 'Ada'})-[:FOLLOWS]->(b:Person {name: 'Bob'})")
	rel, ok := op.(ir.CreateRelationship)
	if !ok {
		t.Fatalf("expected top-level CreateRelationship, got %T", op)
	}
	if rel.SourceVar != "a" || rel.TargetVar != "b" || rel.Type != "FOLLOWS" {
		t.Fatalf("unexpected create relationship: %+v", rel)
	}
	targetCreate, ok := rel.Input.(ir.CreateNode)
	if !ok || targetCreate.Var != "b" {
		t.Fatalf("expected CreateNode for b beneath relationship, got %+v", rel.Input)
	}
}

func TestCompileCreateRequiresExplicitDirection(t *testing.T) {
	_, err := Compile("CREATE (a)-[:X]-(b)")
	if err == nil {
		t.Fatalf("expected a compile error for undirected CREATE relationship")
	}
}

func TestCompileVariableLengthPathIsRejected(t *testing.T) {
	_, err := Compile("MATCH (a)-[:X*1..3]->(b) RETURN a")
	if err == nil {
		t.Fatalf("expected a compile error for variable-length pattern")
	}
}

func TestCompileReturnCountStarProducesAggregate(t *testing.T) {
	op := mustCompile(t, "MATCH (n:Person) RETURN count(*) AS c")
	agg, ok := op.(ir.Aggregate)
	if !ok {
		t.Fatalf("expected Aggregate, got %T", op)
	}
	if len(agg.Funcs) != 1 || agg.Funcs[0].Name != "count" || agg.Funcs[0].Alias != "c" {
		t.Fatalf("unexpected aggregate funcs: %+v", agg.Funcs)
	}
}

func TestCompileSetLabelProducesAddLabel(t *testing.T) {
	op := mustCompile(t, "MATCH (n:Person) SET n:Admin RETURN n")
	proj := op.(ir.Project)
	if _, ok := proj.Input.(ir.AddLabel); !ok {
		t.Fatalf("expected AddLabel beneath Project, got %T", proj.Input)
	}
}

func TestCompileMergeProducesMergeOp(t *testing.T) {
	op := mustCompile(t, "MERGE (n:Person {id: 1}) ON CREATE SET n.created = true")
	merge, ok := op.(ir.Merge)
	if !ok {
		t.Fatalf("expected Merge, got %T", op)
	}
	if merge.MatchPlan == nil || merge.OnCreate == nil {
		t.Fatalf("expected both MatchPlan and OnCreate to be wired")
	}
}

func TestCompileOrderBySkipLimit(t *testing.T) {
	op := mustCompile(t, "MATCH (n:Person) RETURN n ORDER BY n.age DESC SKIP 5 LIMIT 10")
	limit, ok := op.(ir.Limit)
	if !ok || limit.N != 10 {
		t.Fatalf("expected top-level Limit(10), got %+v", op)
	}
	skip, ok := limit.Input.(ir.Skip)
	if !ok || skip.N != 5 {
		t.Fatalf("expected Skip(5) beneath Limit, got %+v", limit.Input)
	}
	if _, ok := skip.Input.(ir.OrderBy); !ok {
		t.Fatalf("expected OrderBy beneath Skip, got %T", skip.Input)
	}
}

func TestCompileUnionCombinesBranches(t *testing.T) {
	op := mustCompile(t, "MATCH (n:A) RETURN n.x AS x UNION MATCH (n:B) RETURN n.x AS x")
	u, ok := op.(ir.Union)
	if !ok {
		t.Fatalf("expected Union, got %T", op)
	}
	if u.All {
		t.Fatalf("plain UNION should dedup (All=false)")
	}
}

func TestCompileDeleteClause(t *testing.T) {
	op := mustCompile(t, "MATCH (n:Person) DETACH DELETE n")
	del, ok := op.(ir.Delete)
	if !ok {
		t.Fatalf("expected Delete, got %T", op)
	}
	if !del.Detach || len(del.Vars) != 1 || del.Vars[0] != "n" {
		t.Fatalf("unexpected delete: %+v", del)
	}
}
