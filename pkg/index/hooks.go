package index

import (
	"sort"

	"github.com/google/btree"

	"github.com/latticedb/lattice/pkg/types"
)

// IndexNode adds n to every built-in and declared index whose label
// it carries. It implements graph.Indexer.
func (m *Manager) IndexNode(n *types.Node) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.indexNodeLocked(n)
}

func (m *Manager) indexNodeLocked(n *types.Node) {
	for _, label := range n.Labels {
		if m.labelIdx[label] == nil {
			m.labelIdx[label] = map[string]bool{}
		}
		m.labelIdx[label][n.ID] = true

		for _, specName := range m.byLabel[label] {
			if pi, ok := m.properties[specName]; ok {
				if v, present := n.Properties[pi.spec.Property]; present {
					pi.tree.ReplaceOrInsert(propertyItem{value: v, id: n.ID})
					pi.values[n.ID] = v
				}
				continue
			}
			if ci, ok := m.composites[specName]; ok {
				if tuple, complete := compositeTuple(ci.spec.Properties, n.Properties); complete {
					ci.tree.ReplaceOrInsert(compositeItem{values: tuple, id: n.ID})
					ci.values[n.ID] = tuple
				}
				continue
			}
			if ft, ok := m.fulltext[specName]; ok {
				if v, present := n.Properties[ft.spec.Property]; present && v.Kind == types.KindString {
					ft.index(n.ID, v.Str)
				}
			}
		}
	}
}

// ReindexNode updates every index touched by a property-patch update:
// stale entries keyed by the old property value are removed, fresh
// ones inserted.
func (m *Manager) ReindexNode(old, updated *types.Node) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unindexNodeLocked(old)
	m.indexNodeLocked(updated)
}

// UnindexNode removes n from every index.
func (m *Manager) UnindexNode(n *types.Node) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unindexNodeLocked(n)
}

func (m *Manager) unindexNodeLocked(n *types.Node) {
	for _, label := range n.Labels {
		if set := m.labelIdx[label]; set != nil {
			delete(set, n.ID)
		}
		for _, specName := range m.byLabel[label] {
			if pi, ok := m.properties[specName]; ok {
				if v, present := pi.values[n.ID]; present {
					pi.tree.Delete(propertyItem{value: v, id: n.ID})
					delete(pi.values, n.ID)
				}
				continue
			}
			if ci, ok := m.composites[specName]; ok {
				if tuple, present := ci.values[n.ID]; present {
					ci.tree.Delete(compositeItem{values: tuple, id: n.ID})
					delete(ci.values, n.ID)
				}
				continue
			}
			if ft, ok := m.fulltext[specName]; ok {
				ft.remove(n.ID)
			}
		}
	}
}

// IndexRelationship maintains the always-on (type, direction)
// incidence maps.
func (m *Manager) IndexRelationship(r *types.Relationship) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.relOut[r.Type] == nil {
		m.relOut[r.Type] = map[string][]string{}
	}
	if m.relIn[r.Type] == nil {
		m.relIn[r.Type] = map[string][]string{}
	}
	m.relOut[r.Type][r.SourceID] = append(m.relOut[r.Type][r.SourceID], r.ID)
	m.relIn[r.Type][r.TargetID] = append(m.relIn[r.Type][r.TargetID], r.ID)
}

// UnindexRelationship removes r from the incidence maps.
func (m *Manager) UnindexRelationship(r *types.Relationship) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.relOut[r.Type][r.SourceID] = removeStr(m.relOut[r.Type][r.SourceID], r.ID)
	m.relIn[r.Type][r.TargetID] = removeStr(m.relIn[r.Type][r.TargetID], r.ID)
}

func removeStr(list []string, target string) []string {
	out := list[:0]
	for _, v := range list {
		if v != target {
			out = append(out, v)
		}
	}
	return out
}

// IncidentByType enumerates relationship ids of the given type
// incident to nodeID in direction dir — the relationship-index
// contract from spec §4.D's table.
func (m *Manager) IncidentByType(nodeID, relType string, dir types.Direction) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	switch dir {
	case types.DirOut:
		return append([]string(nil), m.relOut[relType][nodeID]...)
	case types.DirIn:
		return append([]string(nil), m.relIn[relType][nodeID]...)
	default:
		return append(append([]string(nil), m.relOut[relType][nodeID]...), m.relIn[relType][nodeID]...)
	}
}

// FindNodes serves find_nodes when every filter key (and the label,
// if any nodes carry it) has backing index coverage; otherwise ok is
// false and the caller should fall back to a full scan.
func (m *Manager) FindNodes(label string, filter map[string]types.Value, limit int) ([]string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if label == "" {
		return nil, false
	}
	labelSet := m.labelIdx[label]
	if len(filter) == 0 {
		return setToSortedSlice(labelSet, limit), true
	}

	var candidate map[string]bool
	for prop, want := range filter {
		pi, ok := m.properties[propSpecName(m.byLabel[label], m.properties, label, prop)]
		if !ok {
			return nil, false
		}
		matched := pi.lookupEqual(want)
		if candidate == nil {
			candidate = matched
		} else {
			candidate = intersect(candidate, matched)
		}
	}
	candidate = intersect(candidate, labelSet)
	return setToSortedSlice(candidate, limit), true
}

func propSpecName(names []string, properties map[string]*propertyIndex, label, prop string) string {
	for _, name := range names {
		if pi, ok := properties[name]; ok && pi.spec.Label == label && pi.spec.Property == prop {
			return name
		}
	}
	return ""
}

func (pi *propertyIndex) lookupEqual(want types.Value) map[string]bool {
	out := map[string]bool{}
	pi.tree.AscendGreaterOrEqual(propertyItem{value: want, id: ""}, func(item btree.Item) bool {
		entry := item.(propertyItem)
		if compareValues(entry.value, want) != 0 {
			return false
		}
		out[entry.id] = true
		return true
	})
	if len(out) > 0 {
		pi.hits++
	} else {
		pi.misses++
	}
	return out
}

func intersect(a, b map[string]bool) map[string]bool {
	if a == nil || b == nil {
		return map[string]bool{}
	}
	out := map[string]bool{}
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	for k := range small {
		if large[k] {
			out[k] = true
		}
	}
	return out
}

func setToSortedSlice(set map[string]bool, limit int) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// CheckUniqueNode consults every unique property/composite index
// declared against any of labels and rejects the insert/update if a
// different entity already holds the same value (spec §4.D: fires
// "before the node/rel reaches the main map").
func (m *Manager) CheckUniqueNode(labels []string, properties map[string]types.Value, excludeID string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, label := range labels {
		for _, specName := range m.byLabel[label] {
			if pi, ok := m.properties[specName]; ok && pi.spec.Unique {
				v, present := properties[pi.spec.Property]
				if !present {
					continue
				}
				if holder := pi.firstHolder(v, excludeID); holder != "" {
					return types.NewUniqueConstraintViolation("index.check_unique", specName, v)
				}
			}
			if ci, ok := m.composites[specName]; ok && ci.spec.Unique {
				tuple, complete := compositeTuple(ci.spec.Properties, properties)
				if !complete {
					continue
				}
				if holder := ci.firstHolder(tuple, excludeID); holder != "" {
					return types.NewUniqueConstraintViolation("index.check_unique", specName, tuple[0])
				}
			}
		}
	}
	return nil
}

func (pi *propertyIndex) firstHolder(want types.Value, excludeID string) string {
	holder := ""
	pi.tree.AscendGreaterOrEqual(propertyItem{value: want, id: ""}, func(item btree.Item) bool {
		entry := item.(propertyItem)
		if compareValues(entry.value, want) != 0 {
			return false
		}
		if entry.id != excludeID {
			holder = entry.id
			return false
		}
		return true
	})
	return holder
}

func (ci *compositeIndex) firstHolder(want []types.Value, excludeID string) string {
	holder := ""
	ci.tree.AscendGreaterOrEqual(compositeItem{values: want, id: ""}, func(item btree.Item) bool {
		entry := item.(compositeItem)
		if compareTuples(entry.values, want) != 0 {
			return false
		}
		if entry.id != excludeID {
			holder = entry.id
			return false
		}
		return true
	})
	return holder
}

func compositeTuple(props []string, source map[string]types.Value) ([]types.Value, bool) {
	out := make([]types.Value, len(props))
	for i, p := range props {
		v, ok := source[p]
		if !ok {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}
