package block

import (
	"encoding/json"

	cid "github.com/ipfs/go-cid"

	"github.com/latticedb/lattice/pkg/types"
)

// EncodeNode/DecodeNode, EncodeRel/DecodeRel and
// EncodeManifest/DecodeManifest are the block-store wire format for
// the durable shapes in spec §3. JSON keeps the internal block
// encoding independent from the external DAG-CBOR encoding pkg/format
// uses for CAR export (spec §4.K).

type nodeJSON struct {
	ID         string                 `json:"id"`
	Labels     []string               `json:"labels"`
	Properties map[string]interface{} `json:"properties"`
}

func EncodeNode(n *types.Node) ([]byte, error) {
	props, err := propsToJSON(n.Properties)
	if err != nil {
		return nil, err
	}
	return json.Marshal(nodeJSON{ID: n.ID, Labels: n.Labels, Properties: props})
}

func DecodeNode(data []byte) (*types.Node, error) {
	var nj nodeJSON
	if err := json.Unmarshal(data, &nj); err != nil {
		return nil, err
	}
	props, err := propsFromJSON(nj.Properties)
	if err != nil {
		return nil, err
	}
	return &types.Node{ID: nj.ID, Labels: nj.Labels, Properties: props}, nil
}

type relJSON struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	SourceID   string                 `json:"source_id"`
	TargetID   string                 `json:"target_id"`
	Properties map[string]interface{} `json:"properties"`
}

func EncodeRel(r *types.Relationship) ([]byte, error) {
	props, err := propsToJSON(r.Properties)
	if err != nil {
		return nil, err
	}
	return json.Marshal(relJSON{
		ID: r.ID, Type: r.Type, SourceID: r.SourceID, TargetID: r.TargetID, Properties: props,
	})
}

func DecodeRel(data []byte) (*types.Relationship, error) {
	var rj relJSON
	if err := json.Unmarshal(data, &rj); err != nil {
		return nil, err
	}
	props, err := propsFromJSON(rj.Properties)
	if err != nil {
		return nil, err
	}
	return &types.Relationship{
		ID: rj.ID, Type: rj.Type, SourceID: rj.SourceID, TargetID: rj.TargetID, Properties: props,
	}, nil
}

type manifestJSON struct {
	NodeCIDs []string               `json:"node_cids"`
	RelCIDs  []string               `json:"rel_cids"`
	Metadata map[string]interface{} `json:"metadata"`
	Version  int                    `json:"version"`
}

func EncodeManifest(m *types.GraphManifest) ([]byte, error) {
	meta, err := propsToJSON(m.Metadata)
	if err != nil {
		return nil, err
	}
	nodeCIDs := make([]string, len(m.NodeCIDs))
	for i, c := range m.NodeCIDs {
		nodeCIDs[i] = c.String()
	}
	relCIDs := make([]string, len(m.RelCIDs))
	for i, c := range m.RelCIDs {
		relCIDs[i] = c.String()
	}
	return json.Marshal(manifestJSON{NodeCIDs: nodeCIDs, RelCIDs: relCIDs, Metadata: meta, Version: m.Version})
}

func DecodeManifest(data []byte) (*types.GraphManifest, error) {
	var mj manifestJSON
	if err := json.Unmarshal(data, &mj); err != nil {
		return nil, err
	}
	meta, err := propsFromJSON(mj.Metadata)
	if err != nil {
		return nil, err
	}
	nodeCIDs := make([]cid.Cid, len(mj.NodeCIDs))
	for i, s := range mj.NodeCIDs {
		c, err := cid.Decode(s)
		if err != nil {
			return nil, err
		}
		nodeCIDs[i] = c
	}
	relCIDs := make([]cid.Cid, len(mj.RelCIDs))
	for i, s := range mj.RelCIDs {
		c, err := cid.Decode(s)
		if err != nil {
			return nil, err
		}
		relCIDs[i] = c
	}
	return &types.GraphManifest{NodeCIDs: nodeCIDs, RelCIDs: relCIDs, Metadata: meta, Version: mj.Version}, nil
}

func propsToJSON(m map[string]types.Value) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		jv, err := types.ToJSON(v)
		if err != nil {
			return nil, err
		}
		out[k] = jv
	}
	return out, nil
}

func propsFromJSON(m map[string]interface{}) (map[string]types.Value, error) {
	out := make(map[string]types.Value, len(m))
	for k, raw := range m {
		v, err := types.FromJSON(raw)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}
