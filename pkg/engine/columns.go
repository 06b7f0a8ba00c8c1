package engine

import "github.com/latticedb/lattice/pkg/cypher"

// columnsFromQuery walks a parsed query's clauses in order, tracking
// the item aliases of the most recent RETURN or WITH clause. This
// mirrors the executor's own behavior: each WITH re-shapes the row,
// and the final RETURN (or trailing WITH, for a query with no RETURN)
// fixes the result's column order. A query with neither yields no
// columns — CREATE/SET/DELETE-only queries return an empty row set.
func columnsFromQuery(q *cypher.Query) []string {
	var cols []string
	for _, cl := range q.Clauses {
		switch c := cl.(type) {
		case cypher.ReturnClause:
			cols = itemAliases(c.Items)
		case cypher.WithClause:
			cols = itemAliases(c.Items)
		}
	}
	if len(q.Unions) > 0 {
		cols = columnsFromQuery(&q.Unions[len(q.Unions)-1].Query)
	}
	return cols
}

func itemAliases(items []cypher.ReturnItem) []string {
	cols := make([]string, 0, len(items))
	for _, it := range items {
		cols = append(cols, it.Alias)
	}
	return cols
}
