package format

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/latticedb/lattice/pkg/block"
	"github.com/latticedb/lattice/pkg/types"
)

// dagJSONLink is the {"/": "<cid>"} link convention DAG-JSON uses in
// place of a typed codec (spec §4.K, and SPEC_FULL.md's rationale for
// leaning on go-cid's string form rather than a dedicated IPLD
// codec).
type dagJSONLink struct {
	Slash string `json:"/"`
}

func newDAGJSONLink(id interface{ String() string }) dagJSONLink {
	return dagJSONLink{Slash: id.String()}
}

type dagJSONManifest struct {
	Metadata map[string]interface{} `json:"metadata"`
	Version  int                    `json:"version"`
	Nodes    []dagJSONLink           `json:"nodes"`
	Rels     []dagJSONLink           `json:"relationships"`
}

// SaveDAGJSON writes g as one JSON document per node/relationship
// block under the directory path, named by that block's CID, plus a
// manifest.json listing the blocks as {"/": "<cid>"} links (spec
// §4.K "DAG-JSON — one JSON document per block; manifest lists
// children").
func SaveDAGJSON(_ context.Context, g *types.Graph, path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return types.NewStorageError("format.dagjson.save", err)
	}

	meta, err := propsToJSON(g.Metadata)
	if err != nil {
		return types.NewSerializationError("format.dagjson.save", err)
	}
	manifest := dagJSONManifest{Metadata: meta, Version: g.Version}

	for _, n := range sortedNodes(g) {
		jn, err := nodeToJSON(n)
		if err != nil {
			return types.NewSerializationError("format.dagjson.save", err)
		}
		id, err := writeDAGJSONBlock(path, jn)
		if err != nil {
			return err
		}
		manifest.Nodes = append(manifest.Nodes, newDAGJSONLink(id))
	}
	for _, r := range sortedRels(g) {
		jr, err := relToJSON(r)
		if err != nil {
			return types.NewSerializationError("format.dagjson.save", err)
		}
		id, err := writeDAGJSONBlock(path, jr)
		if err != nil {
			return err
		}
		manifest.Rels = append(manifest.Rels, newDAGJSONLink(id))
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return types.NewSerializationError("format.dagjson.save", err)
	}
	if err := os.WriteFile(filepath.Join(path, "manifest.json"), data, 0o644); err != nil {
		return types.NewStorageError("format.dagjson.save", err)
	}
	return nil
}

func writeDAGJSONBlock(dir string, v interface{}) (interface{ String() string }, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, types.NewSerializationError("format.dagjson.save", err)
	}
	id, err := block.DeriveCID(block.CodecJSON, data)
	if err != nil {
		return nil, types.NewSerializationError("format.dagjson.save", err)
	}
	if err := os.WriteFile(filepath.Join(dir, id.String()+".json"), data, 0o644); err != nil {
		return nil, types.NewStorageError("format.dagjson.save", err)
	}
	return id, nil
}

// LoadDAGJSON reads back the directory SaveDAGJSON wrote.
func LoadDAGJSON(_ context.Context, path string) (*types.Graph, error) {
	data, err := os.ReadFile(filepath.Join(path, "manifest.json"))
	if err != nil {
		return nil, types.NewStorageError("format.dagjson.load", err)
	}
	var manifest dagJSONManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, types.NewDeserializationError("format.dagjson.load", err)
	}

	g := types.NewGraph()
	meta, err := propsFromJSON(manifest.Metadata)
	if err != nil {
		return nil, err
	}
	g.Metadata = meta
	g.Version = manifest.Version

	for _, link := range manifest.Nodes {
		var jn jsonNode
		if err := readDAGJSONBlock(path, link, &jn); err != nil {
			return nil, err
		}
		n, err := nodeFromJSON(jn)
		if err != nil {
			return nil, err
		}
		g.Nodes[n.ID] = n
	}
	for _, link := range manifest.Rels {
		var jr jsonRel
		if err := readDAGJSONBlock(path, link, &jr); err != nil {
			return nil, err
		}
		r, err := relFromJSON(jr)
		if err != nil {
			return nil, err
		}
		g.Rels[r.ID] = r
	}
	return g, nil
}

func readDAGJSONBlock(dir string, link dagJSONLink, out interface{}) error {
	data, err := os.ReadFile(filepath.Join(dir, link.Slash+".json"))
	if err != nil {
		return types.NewStorageError("format.dagjson.load", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return types.NewDeserializationError("format.dagjson.load", err)
	}
	return nil
}
