package graph

import (
	"sync"

	cid "github.com/ipfs/go-cid"

	"github.com/google/uuid"

	"github.com/latticedb/lattice/pkg/block"
	"github.com/latticedb/lattice/pkg/types"
)

// Indexer is the one-way hook into pkg/index (spec §4.D: "this coupling
// is one-way (engine → manager)"). Defining it here, rather than
// importing pkg/index, keeps pkg/graph free of a dependency on the
// index manager's implementation — pkg/index depends on pkg/graph's
// types, not the other way around.
type Indexer interface {
	IndexNode(n *types.Node)
	ReindexNode(old, updated *types.Node)
	UnindexNode(n *types.Node)
	IndexRelationship(r *types.Relationship)
	UnindexRelationship(r *types.Relationship)
	// FindNodes attempts an index-backed lookup. ok is false when no
	// index can serve the filter, in which case the engine falls back
	// to a full scan.
	FindNodes(label string, filter map[string]types.Value, limit int) (ids []string, ok bool)
	// CheckUniqueNode is consulted before a node is inserted or
	// updated, so a unique-constraint violation is raised before the
	// node ever reaches the engine's map (spec §4.D).
	CheckUniqueNode(labels []string, properties map[string]types.Value, excludeID string) error
}

type noopIndexer struct{}

func (noopIndexer) IndexNode(*types.Node)                  {}
func (noopIndexer) ReindexNode(*types.Node, *types.Node)   {}
func (noopIndexer) UnindexNode(*types.Node)                {}
func (noopIndexer) IndexRelationship(*types.Relationship)   {}
func (noopIndexer) UnindexRelationship(*types.Relationship) {}
func (noopIndexer) FindNodes(string, map[string]types.Value, int) ([]string, bool) {
	return nil, false
}
func (noopIndexer) CheckUniqueNode([]string, map[string]types.Value, string) error { return nil }

// Engine is the in-memory authoritative state of one graph. It is
// safe for concurrent readers; writers must hold the exclusive lock
// for the duration of a mutation (spec §5 single-writer discipline).
type Engine struct {
	mu sync.RWMutex

	nodes map[string]*types.Node
	rels  map[string]*types.Relationship

	// outgoing/incoming index relationship ids by node id, for O(1)
	// incident-relationship lookup and cascade delete.
	outgoing map[string][]string
	incoming map[string][]string

	// cidMap records the block CID an entity was last hydrated from
	// or dehydrated to by LoadGraph/SaveGraph. LoadGraph hydrates every
	// entity eagerly; nothing reads this map to load an entity later.
	cidMap map[string]cid.Cid

	store    *block.Store
	headName string
	indexer  Indexer

	metadata map[string]types.Value
	version  int
}

// New creates an empty graph engine backed by store. headName names
// the manifest head (pkg/block.Backend.GetHead/SetHead) this engine's
// SaveGraph/LoadGraph calls operate under — callers typically use one
// head name per distinct graph.
func New(store *block.Store, headName string) *Engine {
	return &Engine{
		nodes:    map[string]*types.Node{},
		rels:     map[string]*types.Relationship{},
		outgoing: map[string][]string{},
		incoming: map[string][]string{},
		cidMap:   map[string]cid.Cid{},
		store:    store,
		headName: headName,
		indexer:  noopIndexer{},
		metadata: map[string]types.Value{},
	}
}

// SetIndexer wires a pkg/index manager into this engine. Until
// called, FindNodes always falls back to a full scan.
func (e *Engine) SetIndexer(idx Indexer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if idx == nil {
		idx = noopIndexer{}
	}
	e.indexer = idx
}

// CreateNode inserts a node with a generated id when id is empty, and
// returns the id used. Labels/properties are cloned so the caller's
// slices/maps cannot alias internal state.
func (e *Engine) CreateNode(labels []string, properties map[string]types.Value, id string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if id == "" {
		id = uuid.NewString()
	}
	if _, exists := e.nodes[id]; exists {
		return "", types.NewValidationError("graph.create_node", errDuplicateID(id))
	}
	if err := e.indexer.CheckUniqueNode(labels, properties, ""); err != nil {
		return "", err
	}

	n := &types.Node{
		ID:         id,
		Labels:     append([]string(nil), labels...),
		Properties: types.CloneMap(properties),
	}
	e.nodes[id] = n
	e.indexer.IndexNode(n)
	return id, nil
}

// UpsertNode replaces a node's labels and properties wholesale if id
// already exists, or creates it otherwise. Used by pkg/txn to apply a
// WRITE_NODE operation idempotently on WAL replay: replaying the same
// operation any number of times converges to the same state.
func (e *Engine) UpsertNode(id string, labels []string, properties map[string]types.Value) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	n, exists := e.nodes[id]
	if !exists {
		if err := e.indexer.CheckUniqueNode(labels, properties, ""); err != nil {
			return err
		}
		n = &types.Node{ID: id}
		e.nodes[id] = n
		n.Labels = append([]string(nil), labels...)
		n.Properties = types.CloneMap(properties)
		e.indexer.IndexNode(n)
		return nil
	}

	before := n.Clone()
	if err := e.indexer.CheckUniqueNode(labels, properties, id); err != nil {
		return err
	}
	n.Labels = append([]string(nil), labels...)
	n.Properties = types.CloneMap(properties)
	e.indexer.ReindexNode(before, n)
	return nil
}

// UpsertRelationship replaces a relationship's type/endpoints/
// properties if id already exists, or creates it otherwise. Both
// endpoints must exist. Used for idempotent WAL replay of WRITE_REL.
func (e *Engine) UpsertRelationship(id, relType, sourceID, targetID string, properties map[string]types.Value) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.nodes[sourceID]; !ok {
		return types.NewValidationError("graph.upsert_relationship", errMissingEndpoint(sourceID))
	}
	if _, ok := e.nodes[targetID]; !ok {
		return types.NewValidationError("graph.upsert_relationship", errMissingEndpoint(targetID))
	}

	if existing, ok := e.rels[id]; ok {
		e.outgoing[existing.SourceID] = removeString(e.outgoing[existing.SourceID], id)
		e.incoming[existing.TargetID] = removeString(e.incoming[existing.TargetID], id)
		e.indexer.UnindexRelationship(existing)
	}

	r := &types.Relationship{
		ID:         id,
		Type:       relType,
		SourceID:   sourceID,
		TargetID:   targetID,
		Properties: types.CloneMap(properties),
	}
	e.rels[id] = r
	e.outgoing[sourceID] = append(e.outgoing[sourceID], id)
	e.incoming[targetID] = append(e.incoming[targetID], id)
	e.indexer.IndexRelationship(r)
	return nil
}

// GetNode returns a clone of the node, or (nil, false) when absent.
func (e *Engine) GetNode(id string) (*types.Node, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	n, ok := e.nodes[id]
	if !ok {
		return nil, false
	}
	c := n.Clone()
	return c, true
}

// UpdateNode applies a partial property patch: keys present in patch
// are set (a types.Null value deletes the key), keys absent are left
// unchanged.
func (e *Engine) UpdateNode(id string, patch map[string]types.Value) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	n, ok := e.nodes[id]
	if !ok {
		return types.NewNotFoundError("graph.update_node", id)
	}
	before := n.Clone()

	patched := before.Clone()
	for k, v := range patch {
		if v.IsNull() {
			delete(patched.Properties, k)
			continue
		}
		patched.Properties[k] = v.Clone()
	}
	if err := e.indexer.CheckUniqueNode(patched.Labels, patched.Properties, id); err != nil {
		return err
	}

	for k, v := range patch {
		if v.IsNull() {
			delete(n.Properties, k)
			continue
		}
		n.Properties[k] = v.Clone()
	}
	e.indexer.ReindexNode(before, n)
	return nil
}

// DeleteNode removes a node and every relationship incident to it in
// the same logical step. Deleting a node that doesn't exist is a
// no-op (spec §4.C edge case).
func (e *Engine) DeleteNode(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.deleteNodeLocked(id)
}

func (e *Engine) deleteNodeLocked(id string) error {
	n, ok := e.nodes[id]
	if !ok {
		return nil
	}
	incident := append(append([]string(nil), e.outgoing[id]...), e.incoming[id]...)
	for _, relID := range incident {
		e.deleteRelationshipLocked(relID)
	}
	delete(e.nodes, id)
	delete(e.outgoing, id)
	delete(e.incoming, id)
	delete(e.cidMap, id)
	e.indexer.UnindexNode(n)
	return nil
}

// CreateRelationship links two existing nodes. Both endpoints must
// already be present in this engine's in-memory state; pkg/txn is
// responsible for allowing a pending-creation endpoint within the
// same transaction before this is called. A caller-supplied id
// (WAL replay, migration import) is used verbatim when non-empty;
// otherwise one is generated.
func (e *Engine) CreateRelationship(relType, sourceID, targetID string, properties map[string]types.Value, id string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.nodes[sourceID]; !ok {
		return "", types.NewValidationError("graph.create_relationship", errMissingEndpoint(sourceID))
	}
	if _, ok := e.nodes[targetID]; !ok {
		return "", types.NewValidationError("graph.create_relationship", errMissingEndpoint(targetID))
	}
	if id == "" {
		id = uuid.NewString()
	}
	if _, exists := e.rels[id]; exists {
		return "", types.NewValidationError("graph.create_relationship", errDuplicateID(id))
	}

	r := &types.Relationship{
		ID:         id,
		Type:       relType,
		SourceID:   sourceID,
		TargetID:   targetID,
		Properties: types.CloneMap(properties),
	}
	e.rels[id] = r
	e.outgoing[sourceID] = append(e.outgoing[sourceID], id)
	e.incoming[targetID] = append(e.incoming[targetID], id)
	e.indexer.IndexRelationship(r)
	return id, nil
}

// GetRelationship returns a clone of the relationship, or (nil, false)
// when absent.
func (e *Engine) GetRelationship(id string) (*types.Relationship, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	r, ok := e.rels[id]
	if !ok {
		return nil, false
	}
	return r.Clone(), true
}

// GetRelationships returns relationships incident to nodeID filtered
// by direction and, optionally, by relationship type and a result
// limit (0 means unlimited).
func (e *Engine) GetRelationships(nodeID string, dir types.Direction, relTypes []string, limit int) []*types.Relationship {
	e.mu.RLock()
	defer e.mu.RUnlock()

	wantType := func(t string) bool {
		if len(relTypes) == 0 {
			return true
		}
		for _, want := range relTypes {
			if want == t {
				return true
			}
		}
		return false
	}

	var ids []string
	switch dir {
	case types.DirOut:
		ids = e.outgoing[nodeID]
	case types.DirIn:
		ids = e.incoming[nodeID]
	default:
		ids = append(append([]string(nil), e.outgoing[nodeID]...), e.incoming[nodeID]...)
	}

	seen := map[string]bool{}
	var out []*types.Relationship
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		r, ok := e.rels[id]
		if !ok || !wantType(r.Type) {
			continue
		}
		out = append(out, r.Clone())
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// DeleteRelationship removes a relationship by id. Deleting one that
// doesn't exist is a no-op.
func (e *Engine) DeleteRelationship(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.deleteRelationshipLocked(id)
	return nil
}

func (e *Engine) deleteRelationshipLocked(id string) {
	r, ok := e.rels[id]
	if !ok {
		return
	}
	e.outgoing[r.SourceID] = removeString(e.outgoing[r.SourceID], id)
	e.incoming[r.TargetID] = removeString(e.incoming[r.TargetID], id)
	delete(e.rels, id)
	e.indexer.UnindexRelationship(r)
}

// FindNodes scans for nodes matching an optional label and property
// filter. When the indexer can serve the filter it is used; otherwise
// this falls back to a straight scan.
func (e *Engine) FindNodes(label string, filter map[string]types.Value, limit int) []*types.Node {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if ids, ok := e.indexer.FindNodes(label, filter, limit); ok {
		out := make([]*types.Node, 0, len(ids))
		for _, id := range ids {
			if n, ok := e.nodes[id]; ok {
				out = append(out, n.Clone())
			}
		}
		return out
	}

	var out []*types.Node
	for _, n := range e.nodes {
		if label != "" && !n.HasLabel(label) {
			continue
		}
		if !matchesFilter(n.Properties, filter) {
			continue
		}
		out = append(out, n.Clone())
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

func matchesFilter(props map[string]types.Value, filter map[string]types.Value) bool {
	for k, want := range filter {
		got, ok := props[k]
		if !ok || !got.Equal(want) {
			return false
		}
	}
	return true
}

func removeString(list []string, target string) []string {
	out := list[:0]
	for _, v := range list {
		if v != target {
			out = append(out, v)
		}
	}
	return out
}

// NodeCount and RelationshipCount are used by tests and stats
// reporting; they take the read lock like any other accessor.
func (e *Engine) NodeCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.nodes)
}

func (e *Engine) RelationshipCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.rels)
}
