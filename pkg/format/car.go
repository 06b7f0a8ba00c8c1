package format

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fxamacker/cbor/v2"
	cid "github.com/ipfs/go-cid"
	blocks "github.com/ipfs/go-libipfs/blocks"
	carv2 "github.com/ipld/go-car/v2"
	carbs "github.com/ipld/go-car/v2/blockstore"

	"github.com/latticedb/lattice/pkg/block"
	"github.com/latticedb/lattice/pkg/types"
)

// carNode/carRel/carManifest are the DAG-CBOR payload shapes CAR
// export uses (spec §4.K "payload is DAG-CBOR per block"). They carry
// the same fields as pkg/block's internal node/rel/manifest JSON
// encoding but are a distinct wire format on purpose: the block
// store's internal blocks and a CAR export are different audiences
// (durable local storage vs. a portable interchange file) and must
// stay free to evolve independently.
type carNode struct {
	ID         string                 `cbor:"id"`
	Labels     []string               `cbor:"labels"`
	Properties map[string]interface{} `cbor:"properties"`
}

type carRel struct {
	ID         string                 `cbor:"id"`
	Type       string                 `cbor:"type"`
	Source     string                 `cbor:"source"`
	Target     string                 `cbor:"target"`
	Properties map[string]interface{} `cbor:"properties"`
}

type carManifest struct {
	Metadata map[string]interface{} `cbor:"metadata"`
	Version  int                    `cbor:"version"`
	NodeCIDs []string                `cbor:"node_cids"`
	RelCIDs  []string                `cbor:"rel_cids"`
}

func dagCBORBlock(v interface{}) (blocks.Block, error) {
	data, err := cbor.Marshal(v)
	if err != nil {
		return nil, err
	}
	id, err := block.DeriveCID(block.CodecDagCBOR, data)
	if err != nil {
		return nil, err
	}
	return blocks.NewBlockWithCid(data, id)
}

// SaveCAR writes g as a single CARv1 file: one DAG-CBOR block per
// node and relationship, a DAG-CBOR manifest block listing their
// CIDs, and the manifest CID as the CAR's sole root (spec §4.K "CAR
// container").
func SaveCAR(ctx context.Context, g *types.Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return types.NewStorageError("format.car.save", err)
	}
	defer f.Close()
	return writeCAR(ctx, g, f)
}

func writeCAR(ctx context.Context, g *types.Graph, w io.Writer) error {
	meta, err := propsToJSON(g.Metadata)
	if err != nil {
		return types.NewSerializationError("format.car.save", err)
	}

	var nodeBlocks, relBlocks []blocks.Block
	manifest := carManifest{Metadata: meta, Version: g.Version}

	for _, n := range sortedNodes(g) {
		props, err := propsToJSON(n.Properties)
		if err != nil {
			return types.NewSerializationError("format.car.save", err)
		}
		blk, err := dagCBORBlock(carNode{ID: n.ID, Labels: n.Labels, Properties: props})
		if err != nil {
			return types.NewSerializationError("format.car.save", err)
		}
		nodeBlocks = append(nodeBlocks, blk)
		manifest.NodeCIDs = append(manifest.NodeCIDs, blk.Cid().String())
	}
	for _, r := range sortedRels(g) {
		props, err := propsToJSON(r.Properties)
		if err != nil {
			return types.NewSerializationError("format.car.save", err)
		}
		blk, err := dagCBORBlock(carRel{ID: r.ID, Type: r.Type, Source: r.SourceID, Target: r.TargetID, Properties: props})
		if err != nil {
			return types.NewSerializationError("format.car.save", err)
		}
		relBlocks = append(relBlocks, blk)
		manifest.RelCIDs = append(manifest.RelCIDs, blk.Cid().String())
	}

	manifestBlock, err := dagCBORBlock(manifest)
	if err != nil {
		return types.NewSerializationError("format.car.save", err)
	}

	wo, err := carbs.CreateWriteOnlyV1(w, []cid.Cid{manifestBlock.Cid()})
	if err != nil {
		return types.NewSerializationError("format.car.save", err)
	}
	if err := wo.Put(ctx, manifestBlock); err != nil {
		return types.NewSerializationError("format.car.save", err)
	}
	if err := wo.PutMany(ctx, nodeBlocks); err != nil {
		return types.NewSerializationError("format.car.save", err)
	}
	if err := wo.PutMany(ctx, relBlocks); err != nil {
		return types.NewSerializationError("format.car.save", err)
	}
	return nil
}

// LoadCAR reads back the file SaveCAR wrote: every block is buffered
// by CID, the manifest is read off the CAR's single root, then nodes
// and relationships are decoded in the order the manifest lists them.
func LoadCAR(ctx context.Context, path string) (*types.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, types.NewStorageError("format.car.load", err)
	}
	defer f.Close()
	return readCAR(ctx, f)
}

func readCAR(ctx context.Context, r io.Reader) (*types.Graph, error) {
	br, err := carv2.NewBlockReader(r)
	if err != nil {
		return nil, types.NewDeserializationError("format.car.load", err)
	}
	if len(br.Roots) != 1 {
		return nil, types.NewDeserializationError("format.car.load",
			fmt.Errorf("expected exactly one CAR root, got %d", len(br.Roots)))
	}

	byCID := map[string][]byte{}
	for {
		if err := ctx.Err(); err != nil {
			return nil, types.NewCancelledError("format.car.load")
		}
		blk, err := br.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, types.NewDeserializationError("format.car.load", err)
		}
		byCID[blk.Cid().String()] = blk.RawData()
	}

	manifestData, ok := byCID[br.Roots[0].String()]
	if !ok {
		return nil, types.NewDeserializationError("format.car.load", fmt.Errorf("root block missing from CAR"))
	}
	var manifest carManifest
	if err := cbor.Unmarshal(manifestData, &manifest); err != nil {
		return nil, types.NewDeserializationError("format.car.load", err)
	}

	g := types.NewGraph()
	g.Version = manifest.Version
	meta, err := propsFromJSON(manifest.Metadata)
	if err != nil {
		return nil, err
	}
	g.Metadata = meta

	for _, c := range manifest.NodeCIDs {
		data, ok := byCID[c]
		if !ok {
			return nil, types.NewDeserializationError("format.car.load", fmt.Errorf("node block %s missing from CAR", c))
		}
		var cn carNode
		if err := cbor.Unmarshal(data, &cn); err != nil {
			return nil, types.NewDeserializationError("format.car.load", err)
		}
		props, err := propsFromJSON(cn.Properties)
		if err != nil {
			return nil, err
		}
		g.Nodes[cn.ID] = &types.Node{ID: cn.ID, Labels: cn.Labels, Properties: props}
	}
	for _, c := range manifest.RelCIDs {
		data, ok := byCID[c]
		if !ok {
			return nil, types.NewDeserializationError("format.car.load", fmt.Errorf("relationship block %s missing from CAR", c))
		}
		var cr carRel
		if err := cbor.Unmarshal(data, &cr); err != nil {
			return nil, types.NewDeserializationError("format.car.load", err)
		}
		props, err := propsFromJSON(cr.Properties)
		if err != nil {
			return nil, err
		}
		g.Rels[cr.ID] = &types.Relationship{ID: cr.ID, Type: cr.Type, SourceID: cr.Source, TargetID: cr.Target, Properties: props}
	}
	return g, nil
}
