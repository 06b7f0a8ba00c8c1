package graph

import "github.com/latticedb/lattice/pkg/types"

// Hop is one result of TraversePattern: the node reached, the
// relationship used to reach it, and how many hops away from start it
// is (always at least 1; the start node itself is not reported).
type Hop struct {
	Node         *types.Node
	Relationship *types.Relationship
	Depth        int
}

// Path is one simple path found by FindPaths: nodes in order from
// start to end, and the relationship connecting each consecutive
// pair (len(Relationships) == len(Nodes)-1).
type Path struct {
	Nodes         []*types.Node
	Relationships []*types.Relationship
}

// TraversePattern performs a BFS from start, following relationships
// of the given type (empty matches any type) in the given direction,
// down to maxDepth hops. A node is never revisited within a single
// path, though distinct paths may converge on the same node. Hops
// whose target doesn't match targetLabels are skipped from the
// result but still expanded further; a neighbor id with no backing
// node (a dangling relationship) is silently skipped entirely.
func (e *Engine) TraversePattern(start, relType string, direction types.Direction, maxDepth int, targetLabels []string, limit int) ([]Hop, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if _, ok := e.nodes[start]; !ok {
		return nil, types.NewNotFoundError("graph.traverse_pattern", start)
	}

	type item struct {
		id      string
		depth   int
		rel     *types.Relationship
		visited map[string]bool
	}

	queue := []item{{id: start, depth: 0, visited: map[string]bool{start: true}}}
	var out []Hop

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur.depth > 0 {
			n := e.nodes[cur.id]
			if n != nil && matchesLabels(n, targetLabels) {
				out = append(out, Hop{Node: n.Clone(), Relationship: cloneRel(cur.rel), Depth: cur.depth})
				if limit > 0 && len(out) >= limit {
					return out, nil
				}
			}
		}
		if cur.depth >= maxDepth {
			continue
		}

		for _, relID := range e.incidentRelIDs(cur.id, direction) {
			r := e.rels[relID]
			if r == nil || (relType != "" && r.Type != relType) {
				continue
			}
			next := otherEnd(r, cur.id, direction)
			if next == "" || cur.visited[next] {
				continue
			}
			if _, ok := e.nodes[next]; !ok {
				continue
			}
			nv := make(map[string]bool, len(cur.visited)+1)
			for k := range cur.visited {
				nv[k] = true
			}
			nv[next] = true
			queue = append(queue, item{id: next, depth: cur.depth + 1, rel: r, visited: nv})
		}
	}
	return out, nil
}

// FindPaths enumerates simple (cycle-free) paths between start and
// end, up to maxDepth relationships long, optionally restricted to
// rel_types. Relationships are treated as undirected for path
// discovery — the direction a relationship was created with doesn't
// constrain which way it can be walked when just looking for a path.
func (e *Engine) FindPaths(start, end string, maxDepth int, relTypes []string) ([]Path, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if _, ok := e.nodes[start]; !ok {
		return nil, types.NewNotFoundError("graph.find_paths", start)
	}
	if _, ok := e.nodes[end]; !ok {
		return nil, types.NewNotFoundError("graph.find_paths", end)
	}

	var out []Path
	visited := map[string]bool{start: true}
	nodePath := []*types.Node{e.nodes[start]}
	var relPath []*types.Relationship

	var dfs func(cur string, depth int)
	dfs = func(cur string, depth int) {
		if cur == end && depth > 0 {
			out = append(out, Path{Nodes: cloneNodes(nodePath), Relationships: cloneRels(relPath)})
			return
		}
		if depth >= maxDepth {
			return
		}
		for _, relID := range e.incidentRelIDs(cur, types.DirBoth) {
			r := e.rels[relID]
			if r == nil || !wantsRelType(relTypes, r.Type) {
				continue
			}
			next := otherEnd(r, cur, types.DirBoth)
			if next == "" || visited[next] {
				continue
			}
			if _, ok := e.nodes[next]; !ok {
				continue
			}
			visited[next] = true
			nodePath = append(nodePath, e.nodes[next])
			relPath = append(relPath, r)

			dfs(next, depth+1)

			nodePath = nodePath[:len(nodePath)-1]
			relPath = relPath[:len(relPath)-1]
			visited[next] = false
		}
	}
	dfs(start, 0)
	return out, nil
}

func (e *Engine) incidentRelIDs(nodeID string, direction types.Direction) []string {
	switch direction {
	case types.DirOut:
		return e.outgoing[nodeID]
	case types.DirIn:
		return e.incoming[nodeID]
	default:
		return append(append([]string(nil), e.outgoing[nodeID]...), e.incoming[nodeID]...)
	}
}

// otherEnd returns the node at the far side of r from nodeID,
// respecting direction: for DirOut only a relationship sourced at
// nodeID qualifies, for DirIn only one targeted at nodeID, and
// DirBoth accepts either (a self-loop returns nodeID itself).
func otherEnd(r *types.Relationship, nodeID string, direction types.Direction) string {
	switch direction {
	case types.DirOut:
		if r.SourceID == nodeID {
			return r.TargetID
		}
		return ""
	case types.DirIn:
		if r.TargetID == nodeID {
			return r.SourceID
		}
		return ""
	default:
		if r.SourceID == nodeID {
			return r.TargetID
		}
		if r.TargetID == nodeID {
			return r.SourceID
		}
		return ""
	}
}

func matchesLabels(n *types.Node, labels []string) bool {
	if len(labels) == 0 {
		return true
	}
	for _, l := range labels {
		if n.HasLabel(l) {
			return true
		}
	}
	return false
}

func wantsRelType(want []string, got string) bool {
	if len(want) == 0 {
		return true
	}
	for _, w := range want {
		if w == got {
			return true
		}
	}
	return false
}

func cloneRel(r *types.Relationship) *types.Relationship {
	if r == nil {
		return nil
	}
	return r.Clone()
}

func cloneNodes(ns []*types.Node) []*types.Node {
	out := make([]*types.Node, len(ns))
	for i, n := range ns {
		out[i] = n.Clone()
	}
	return out
}

func cloneRels(rs []*types.Relationship) []*types.Relationship {
	out := make([]*types.Relationship, len(rs))
	for i, r := range rs {
		out[i] = r.Clone()
	}
	return out
}
