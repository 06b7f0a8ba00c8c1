package index

import "github.com/latticedb/lattice/pkg/types"

// Rebuild clears every declared index and built-in map, then replays
// nodes and rels through the same hooks pkg/graph calls on create.
// The manager never reaches into pkg/graph itself (one-way coupling);
// the caller supplies the current snapshot.
func (m *Manager) Rebuild(nodes []*types.Node, rels []*types.Relationship) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, pi := range m.properties {
		pi.tree.Clear(false)
		pi.values = map[string]types.Value{}
		pi.hits, pi.misses = 0, 0
	}
	for _, ci := range m.composites {
		ci.tree.Clear(false)
		ci.values = map[string][]types.Value{}
		ci.hits, ci.misses = 0, 0
	}
	for name, ft := range m.fulltext {
		m.fulltext[name] = newFulltextIndex(ft.spec)
	}
	m.labelIdx = map[string]map[string]bool{}
	m.relOut = map[string]map[string][]string{}
	m.relIn = map[string]map[string][]string{}

	for _, n := range nodes {
		m.indexNodeLocked(n)
	}
	for _, r := range rels {
		m.relOut[r.Type] = mapAppend(m.relOut[r.Type], r.SourceID, r.ID)
		m.relIn[r.Type] = mapAppend(m.relIn[r.Type], r.TargetID, r.ID)
	}
}

func mapAppend(m map[string][]string, key, val string) map[string][]string {
	if m == nil {
		m = map[string][]string{}
	}
	m[key] = append(m[key], val)
	return m
}
