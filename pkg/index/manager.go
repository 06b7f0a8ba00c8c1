package index

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/btree"

	"github.com/latticedb/lattice/pkg/types"
)

// Kind is the index flavor, matching the table in spec §4.D.
type Kind string

const (
	KindProperty     Kind = "property"
	KindComposite    Kind = "composite"
	KindRelationship Kind = "relationship"
	KindFullText     Kind = "fulltext"
)

// Spec describes one explicitly created index.
type Spec struct {
	Name       string
	Kind       Kind
	Label      string   // property, composite, fulltext
	Property   string   // property, fulltext
	Properties []string // composite
	RelType    string   // relationship
	Unique     bool
}

// Stats answers get_index_stats: entry count, tree depth (estimated
// from the entry count for property, composite and relationship
// indexes; 0 for full-text), approximate byte footprint, and the
// cumulative lookup hit rate since creation.
type Stats struct {
	Entries int
	Depth   int
	Bytes   int
	HitRate float64
}

const btreeOrder = 32

type propertyIndex struct {
	spec   Spec
	tree   *btree.BTree
	values map[string]types.Value // node/rel id -> last indexed value
	hits   int
	misses int
}

type compositeIndex struct {
	spec   Spec
	tree   *btree.BTree
	values map[string][]types.Value
	hits   int
	misses int
}

// Manager keeps every secondary index for one graph consistent with
// pkg/graph via the one-way Indexer hook (spec §4.D: "this coupling
// is one-way (engine → manager)"). It never reaches back into the
// graph's own maps; Rebuild is the one exception, and it is driven by
// a caller-supplied node snapshot rather than a manager-held graph
// reference.
type Manager struct {
	mu sync.RWMutex

	properties map[string]*propertyIndex  // spec.Name -> index
	composites map[string]*compositeIndex // spec.Name -> index
	byLabel    map[string][]string        // label -> property/composite spec names declared against it

	// labelIdx and relOut/relIn are always-on, built-in indexes (not
	// separately declared) backing find_nodes(label) and incident
	// relationship lookup by type/direction.
	labelIdx map[string]map[string]bool
	relOut   map[string]map[string][]string // relType -> sourceID -> []relID
	relIn    map[string]map[string][]string // relType -> targetID -> []relID

	fulltext map[string]*fulltextIndex
}

func NewManager() *Manager {
	return &Manager{
		properties: map[string]*propertyIndex{},
		composites: map[string]*compositeIndex{},
		byLabel:    map[string][]string{},
		labelIdx:   map[string]map[string]bool{},
		relOut:     map[string]map[string][]string{},
		relIn:      map[string]map[string][]string{},
		fulltext:   map[string]*fulltextIndex{},
	}
}

// CreateIndex registers a new property, composite, relationship or
// full-text index. It does not backfill existing data — call Rebuild
// afterward with a node/relationship snapshot to populate it.
func (m *Manager) CreateIndex(spec Spec) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if spec.Name == "" {
		return types.NewValidationError("index.create_index", fmt.Errorf("index name is required"))
	}
	if _, exists := m.properties[spec.Name]; exists {
		return types.NewValidationError("index.create_index", fmt.Errorf("index %q already exists", spec.Name))
	}
	if _, exists := m.composites[spec.Name]; exists {
		return types.NewValidationError("index.create_index", fmt.Errorf("index %q already exists", spec.Name))
	}

	switch spec.Kind {
	case KindProperty:
		m.properties[spec.Name] = &propertyIndex{spec: spec, tree: btree.New(btreeOrder), values: map[string]types.Value{}}
		m.byLabel[spec.Label] = append(m.byLabel[spec.Label], spec.Name)
	case KindComposite:
		m.composites[spec.Name] = &compositeIndex{spec: spec, tree: btree.New(btreeOrder), values: map[string][]types.Value{}}
		m.byLabel[spec.Label] = append(m.byLabel[spec.Label], spec.Name)
	case KindFullText:
		m.fulltext[spec.Name] = newFulltextIndex(spec)
		m.byLabel[spec.Label] = append(m.byLabel[spec.Label], spec.Name)
	case KindRelationship:
		// relOut/relIn are always-on; declaring a relationship index
		// just registers the name for ListIndexes/GetIndexStats.
		m.properties[spec.Name] = &propertyIndex{spec: spec, tree: btree.New(btreeOrder), values: map[string]types.Value{}}
	default:
		return types.NewValidationError("index.create_index", fmt.Errorf("unknown index kind %q", spec.Kind))
	}
	return nil
}

// DropIndex removes a declared index. Built-in label/relationship
// incidence tracking is never dropped.
func (m *Manager) DropIndex(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.properties[name]; ok {
		delete(m.properties, name)
		m.removeFromByLabel(name)
		return nil
	}
	if _, ok := m.composites[name]; ok {
		delete(m.composites, name)
		m.removeFromByLabel(name)
		return nil
	}
	if _, ok := m.fulltext[name]; ok {
		delete(m.fulltext, name)
		m.removeFromByLabel(name)
		return nil
	}
	return types.NewNotFoundError("index.drop_index", name)
}

func (m *Manager) removeFromByLabel(name string) {
	for label, names := range m.byLabel {
		out := names[:0]
		for _, n := range names {
			if n != name {
				out = append(out, n)
			}
		}
		m.byLabel[label] = out
	}
}

// ListIndexes returns the name of every declared index.
func (m *Manager) ListIndexes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []string
	for name := range m.properties {
		out = append(out, name)
	}
	for name := range m.composites {
		out = append(out, name)
	}
	for name := range m.fulltext {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// GetIndexStats reports entries/depth/bytes/hit_rate for a declared
// index.
func (m *Manager) GetIndexStats(name string) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if pi, ok := m.properties[name]; ok {
		return Stats{
			Entries: pi.tree.Len(),
			Depth:   btreeDepth(pi.tree.Len()),
			Bytes:   pi.tree.Len() * approxEntryBytes,
			HitRate: hitRate(pi.hits, pi.misses),
		}, nil
	}
	if ci, ok := m.composites[name]; ok {
		return Stats{
			Entries: ci.tree.Len(),
			Depth:   btreeDepth(ci.tree.Len()),
			Bytes:   ci.tree.Len() * approxEntryBytes,
			HitRate: hitRate(ci.hits, ci.misses),
		}, nil
	}
	if ft, ok := m.fulltext[name]; ok {
		return Stats{
			Entries: ft.entryCount(),
			Depth:   0,
			Bytes:   ft.entryCount() * approxEntryBytes,
			HitRate: hitRate(ft.hits, ft.misses),
		}, nil
	}
	return Stats{}, types.NewNotFoundError("index.get_index_stats", name)
}

const approxEntryBytes = 64

func hitRate(hits, misses int) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// btreeDepth estimates tree depth for an order-`btreeOrder` tree
// holding n entries; it is reporting-only and never used for routing.
func btreeDepth(n int) int {
	if n <= 1 {
		return 1
	}
	depth := 1
	size := btreeOrder
	for size < n {
		size *= btreeOrder
		depth++
	}
	return depth
}
