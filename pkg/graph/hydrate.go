package graph

import (
	"context"

	cid "github.com/ipfs/go-cid"

	"github.com/latticedb/lattice/pkg/block"
	"github.com/latticedb/lattice/pkg/types"
)

// SaveGraph serializes every node and relationship as its own block,
// builds a manifest listing their CIDs, stores the manifest, and
// advances this engine's head to point at it (spec §4.C). The new
// version number is manifest version = previous + 1.
func (e *Engine) SaveGraph(ctx context.Context) (types.GraphManifest, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	manifest := types.GraphManifest{
		Metadata: types.CloneMap(e.metadata),
		Version:  e.version + 1,
	}

	for _, n := range e.nodes {
		data, err := block.EncodeNode(n)
		if err != nil {
			return types.GraphManifest{}, types.NewSerializationError("graph.save_graph", err)
		}
		id, err := e.store.Store(ctx, data)
		if err != nil {
			return types.GraphManifest{}, err
		}
		e.cidMap[n.ID] = id
		manifest.NodeCIDs = append(manifest.NodeCIDs, id)
	}
	for _, r := range e.rels {
		data, err := block.EncodeRel(r)
		if err != nil {
			return types.GraphManifest{}, types.NewSerializationError("graph.save_graph", err)
		}
		id, err := e.store.Store(ctx, data)
		if err != nil {
			return types.GraphManifest{}, err
		}
		e.cidMap[r.ID] = id
		manifest.RelCIDs = append(manifest.RelCIDs, id)
	}

	manifestData, err := block.EncodeManifest(&manifest)
	if err != nil {
		return types.GraphManifest{}, types.NewSerializationError("graph.save_graph", err)
	}
	manifestCID, err := e.store.Store(ctx, manifestData)
	if err != nil {
		return types.GraphManifest{}, err
	}
	if err := e.store.SetHead(ctx, e.headName, manifestCID); err != nil {
		return types.GraphManifest{}, err
	}

	e.version = manifest.Version
	return manifest, nil
}

// LoadGraph rehydrates this engine's in-memory state from the head
// manifest, replacing whatever was in memory. An engine with no head
// yet (a brand-new graph) loads as empty — LoadGraph is idempotent
// and safe to call on a graph that has never been saved.
func (e *Engine) LoadGraph(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	head, ok, err := e.store.GetHead(ctx, e.headName)
	if err != nil {
		return err
	}
	if !ok {
		e.resetLocked()
		return nil
	}

	manifestData, err := e.store.Retrieve(ctx, head)
	if err != nil {
		return err
	}
	manifest, err := block.DecodeManifest(manifestData)
	if err != nil {
		return types.NewDeserializationError("graph.load_graph", err)
	}

	e.resetLocked()
	e.metadata = types.CloneMap(manifest.Metadata)
	e.version = manifest.Version

	for _, id := range manifest.NodeCIDs {
		data, err := e.store.Retrieve(ctx, id)
		if err != nil {
			return err
		}
		n, err := block.DecodeNode(data)
		if err != nil {
			return types.NewDeserializationError("graph.load_graph", err)
		}
		e.nodes[n.ID] = n
		e.cidMap[n.ID] = id
		e.indexer.IndexNode(n)
	}
	for _, id := range manifest.RelCIDs {
		data, err := e.store.Retrieve(ctx, id)
		if err != nil {
			return err
		}
		r, err := block.DecodeRel(data)
		if err != nil {
			return types.NewDeserializationError("graph.load_graph", err)
		}
		e.rels[r.ID] = r
		e.cidMap[r.ID] = id
		e.outgoing[r.SourceID] = append(e.outgoing[r.SourceID], r.ID)
		e.incoming[r.TargetID] = append(e.incoming[r.TargetID], r.ID)
		e.indexer.IndexRelationship(r)
	}
	return nil
}

// Snapshot returns a deep copy of every node and relationship, for use
// by pkg/format's export path. Unlike SaveGraph it never touches the
// block store — it is the in-memory view an exporter walks.
func (e *Engine) Snapshot() *types.Graph {
	e.mu.Lock()
	defer e.mu.Unlock()

	g := types.NewGraph()
	g.Metadata = types.CloneMap(e.metadata)
	g.Version = e.version
	for id, n := range e.nodes {
		g.Nodes[id] = n.Clone()
	}
	for id, r := range e.rels {
		g.Rels[id] = r.Clone()
	}
	return g
}

// ImportSnapshot replaces this engine's in-memory state with g,
// reindexing every node and relationship. Used by pkg/format's import
// path; callers still need SaveGraph to persist the result.
func (e *Engine) ImportSnapshot(g *types.Graph) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.resetLocked()
	e.metadata = types.CloneMap(g.Metadata)
	e.version = g.Version
	for _, n := range g.Nodes {
		if err := e.indexer.CheckUniqueNode(n.Labels, n.Properties, ""); err != nil {
			return err
		}
		e.nodes[n.ID] = n.Clone()
		e.indexer.IndexNode(n)
	}
	for _, r := range g.Rels {
		if _, ok := e.nodes[r.SourceID]; !ok {
			return types.NewValidationError("graph.import_snapshot", errMissingEndpoint(r.SourceID))
		}
		if _, ok := e.nodes[r.TargetID]; !ok {
			return types.NewValidationError("graph.import_snapshot", errMissingEndpoint(r.TargetID))
		}
		e.rels[r.ID] = r.Clone()
		e.outgoing[r.SourceID] = append(e.outgoing[r.SourceID], r.ID)
		e.incoming[r.TargetID] = append(e.incoming[r.TargetID], r.ID)
		e.indexer.IndexRelationship(r)
	}
	return nil
}

func (e *Engine) resetLocked() {
	e.nodes = map[string]*types.Node{}
	e.rels = map[string]*types.Relationship{}
	e.outgoing = map[string][]string{}
	e.incoming = map[string][]string{}
	e.cidMap = map[string]cid.Cid{}
	e.metadata = map[string]types.Value{}
	e.version = 0
}
