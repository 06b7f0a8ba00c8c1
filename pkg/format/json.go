package format

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/latticedb/lattice/pkg/types"
)

// jsonNode/jsonRel/jsonDoc are the on-disk shape for the plain JSON
// and JSON-Lines formats: JSON-LD (below) wraps the same fields with
// `@context`/`@type` keys rather than redefining them, per spec §4.K
// ("JSON-LD is plain JSON with @context/@type keys").
type jsonNode struct {
	ID         string                 `json:"id"`
	Labels     []string               `json:"labels"`
	Properties map[string]interface{} `json:"properties"`
}

type jsonRel struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	Source     string                 `json:"source"`
	Target     string                 `json:"target"`
	Properties map[string]interface{} `json:"properties"`
}

type jsonDoc struct {
	Metadata      map[string]interface{} `json:"metadata"`
	Version       int                    `json:"version"`
	Nodes         []jsonNode             `json:"nodes"`
	Relationships []jsonRel              `json:"relationships"`
}

func nodeToJSON(n *types.Node) (jsonNode, error) {
	props, err := propsToJSON(n.Properties)
	if err != nil {
		return jsonNode{}, err
	}
	return jsonNode{ID: n.ID, Labels: n.Labels, Properties: props}, nil
}

func relToJSON(r *types.Relationship) (jsonRel, error) {
	props, err := propsToJSON(r.Properties)
	if err != nil {
		return jsonRel{}, err
	}
	return jsonRel{ID: r.ID, Type: r.Type, Source: r.SourceID, Target: r.TargetID, Properties: props}, nil
}

func nodeFromJSON(jn jsonNode) (*types.Node, error) {
	props, err := propsFromJSON(jn.Properties)
	if err != nil {
		return nil, err
	}
	return &types.Node{ID: jn.ID, Labels: jn.Labels, Properties: props}, nil
}

func relFromJSON(jr jsonRel) (*types.Relationship, error) {
	props, err := propsFromJSON(jr.Properties)
	if err != nil {
		return nil, err
	}
	return &types.Relationship{ID: jr.ID, Type: jr.Type, SourceID: jr.Source, TargetID: jr.Target, Properties: props}, nil
}

func graphToDoc(g *types.Graph) (jsonDoc, error) {
	meta, err := propsToJSON(g.Metadata)
	if err != nil {
		return jsonDoc{}, err
	}
	doc := jsonDoc{Metadata: meta, Version: g.Version}
	for _, n := range g.Nodes {
		jn, err := nodeToJSON(n)
		if err != nil {
			return jsonDoc{}, err
		}
		doc.Nodes = append(doc.Nodes, jn)
	}
	for _, r := range g.Rels {
		jr, err := relToJSON(r)
		if err != nil {
			return jsonDoc{}, err
		}
		doc.Relationships = append(doc.Relationships, jr)
	}
	return doc, nil
}

func docToGraph(doc jsonDoc) (*types.Graph, error) {
	g := types.NewGraph()
	g.Version = doc.Version
	meta, err := propsFromJSON(doc.Metadata)
	if err != nil {
		return nil, err
	}
	g.Metadata = meta
	for _, jn := range doc.Nodes {
		n, err := nodeFromJSON(jn)
		if err != nil {
			return nil, err
		}
		g.Nodes[n.ID] = n
	}
	for _, jr := range doc.Relationships {
		r, err := relFromJSON(jr)
		if err != nil {
			return nil, err
		}
		g.Rels[r.ID] = r
	}
	return g, nil
}

func writeJSON(_ context.Context, g *types.Graph, w io.Writer) error {
	doc, err := graphToDoc(g)
	if err != nil {
		return types.NewSerializationError("format.json.save", err)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return types.NewSerializationError("format.json.save", err)
	}
	return nil
}

// SaveJSON writes g as a single indented JSON document to path.
func SaveJSON(ctx context.Context, g *types.Graph, path string) error {
	return withCreatedFile(path, func(w io.Writer) error { return writeJSON(ctx, g, w) })
}

// LoadJSON reads a graph back from the document SaveJSON wrote.
func LoadJSON(_ context.Context, path string) (*types.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, types.NewStorageError("format.json.load", err)
	}
	defer f.Close()

	var doc jsonDoc
	if err := json.NewDecoder(f).Decode(&doc); err != nil {
		return nil, types.NewDeserializationError("format.json.load", err)
	}
	return docToGraph(doc)
}

// jsonLinesRecord is one line of the JSON-Lines format: exactly one
// of Manifest/Node/Rel is populated, discriminated by Kind.
type jsonLinesRecord struct {
	Kind     string                  `json:"kind"`
	Metadata map[string]interface{}  `json:"metadata,omitempty"`
	Version  int                     `json:"version,omitempty"`
	Node     *jsonNode               `json:"node,omitempty"`
	Rel      *jsonRel                `json:"relationship,omitempty"`
}

func writeJSONLines(_ context.Context, g *types.Graph, w io.Writer) error {
	meta, err := propsToJSON(g.Metadata)
	if err != nil {
		return types.NewSerializationError("format.jsonlines.save", err)
	}
	enc := json.NewEncoder(w)
	if err := enc.Encode(jsonLinesRecord{Kind: "manifest", Metadata: meta, Version: g.Version}); err != nil {
		return types.NewSerializationError("format.jsonlines.save", err)
	}
	for chunk := range IterNodesChunked(g, DefaultChunkSize) {
		for _, n := range chunk {
			jn, err := nodeToJSON(n)
			if err != nil {
				return types.NewSerializationError("format.jsonlines.save", err)
			}
			if err := enc.Encode(jsonLinesRecord{Kind: "node", Node: &jn}); err != nil {
				return types.NewSerializationError("format.jsonlines.save", err)
			}
		}
	}
	for chunk := range IterRelationshipsChunked(g, DefaultChunkSize) {
		for _, r := range chunk {
			jr, err := relToJSON(r)
			if err != nil {
				return types.NewSerializationError("format.jsonlines.save", err)
			}
			if err := enc.Encode(jsonLinesRecord{Kind: "relationship", Rel: &jr}); err != nil {
				return types.NewSerializationError("format.jsonlines.save", err)
			}
		}
	}
	return nil
}

// SaveJSONLines writes g as one manifest preamble line followed by one
// line per node and one line per relationship.
func SaveJSONLines(ctx context.Context, g *types.Graph, path string) error {
	return withCreatedFile(path, func(w io.Writer) error { return writeJSONLines(ctx, g, w) })
}

// LoadJSONLines reads a graph back from the stream SaveJSONLines wrote.
func LoadJSONLines(_ context.Context, path string) (*types.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, types.NewStorageError("format.jsonlines.load", err)
	}
	defer f.Close()

	g := types.NewGraph()
	dec := json.NewDecoder(f)
	for dec.More() {
		var rec jsonLinesRecord
		if err := dec.Decode(&rec); err != nil {
			return nil, types.NewDeserializationError("format.jsonlines.load", err)
		}
		switch rec.Kind {
		case "manifest":
			meta, err := propsFromJSON(rec.Metadata)
			if err != nil {
				return nil, err
			}
			g.Metadata = meta
			g.Version = rec.Version
		case "node":
			n, err := nodeFromJSON(*rec.Node)
			if err != nil {
				return nil, err
			}
			g.Nodes[n.ID] = n
		case "relationship":
			r, err := relFromJSON(*rec.Rel)
			if err != nil {
				return nil, err
			}
			g.Rels[r.ID] = r
		}
	}
	return g, nil
}

// jsonldDoc is a JSON-LD document whose graph is an @graph array of
// node/relationship objects, grounded on evalgo-org-eve's Schema.org
// JSON-LD structures (db/semantic/graphdb.go).
type jsonldDoc struct {
	Context string        `json:"@context"`
	Graph   []interface{} `json:"@graph"`
}

const jsonldContext = "https://schema.org/"

func writeJSONLD(_ context.Context, g *types.Graph, w io.Writer) error {
	doc := jsonldDoc{Context: jsonldContext}
	for chunk := range IterNodesChunked(g, DefaultChunkSize) {
		for _, n := range chunk {
			props, err := propsToJSON(n.Properties)
			if err != nil {
				return types.NewSerializationError("format.jsonld.save", err)
			}
			obj := map[string]interface{}{"@id": n.ID, "@type": n.Labels}
			for k, v := range props {
				obj[k] = v
			}
			doc.Graph = append(doc.Graph, obj)
		}
	}
	for chunk := range IterRelationshipsChunked(g, DefaultChunkSize) {
		for _, r := range chunk {
			props, err := propsToJSON(r.Properties)
			if err != nil {
				return types.NewSerializationError("format.jsonld.save", err)
			}
			obj := map[string]interface{}{
				"@id": r.ID, "@type": r.Type, "source": r.SourceID, "target": r.TargetID,
			}
			for k, v := range props {
				obj[k] = v
			}
			doc.Graph = append(doc.Graph, obj)
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return types.NewSerializationError("format.jsonld.save", err)
	}
	return nil
}

// SaveJSONLD writes g as a JSON-LD document with one @graph entry per
// node and relationship.
func SaveJSONLD(ctx context.Context, g *types.Graph, path string) error {
	return withCreatedFile(path, func(w io.Writer) error { return writeJSONLD(ctx, g, w) })
}

// LoadJSONLD reads a graph back from the document SaveJSONLD wrote.
// A relationship entry is distinguished from a node entry by carrying
// "source"/"target" keys.
func LoadJSONLD(_ context.Context, path string) (*types.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, types.NewStorageError("format.jsonld.load", err)
	}
	defer f.Close()

	var doc jsonldDoc
	if err := json.NewDecoder(f).Decode(&doc); err != nil {
		return nil, types.NewDeserializationError("format.jsonld.load", err)
	}

	g := types.NewGraph()
	for _, raw := range doc.Graph {
		obj, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		id, _ := obj["@id"].(string)
		if src, hasSrc := obj["source"].(string); hasSrc {
			tgt, _ := obj["target"].(string)
			typ, _ := obj["@type"].(string)
			props, err := jsonldProperties(obj, "@id", "@type", "source", "target")
			if err != nil {
				return nil, err
			}
			g.Rels[id] = &types.Relationship{ID: id, Type: typ, SourceID: src, TargetID: tgt, Properties: props}
			continue
		}
		labels := jsonldLabels(obj["@type"])
		props, err := jsonldProperties(obj, "@id", "@type")
		if err != nil {
			return nil, err
		}
		g.Nodes[id] = &types.Node{ID: id, Labels: labels, Properties: props}
	}
	return g, nil
}

func jsonldLabels(raw interface{}) []string {
	switch v := raw.(type) {
	case string:
		return []string{v}
	case []interface{}:
		labels := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				labels = append(labels, s)
			}
		}
		return labels
	default:
		return nil
	}
}

func jsonldProperties(obj map[string]interface{}, skip ...string) (map[string]types.Value, error) {
	excluded := make(map[string]bool, len(skip))
	for _, k := range skip {
		excluded[k] = true
	}
	props := make(map[string]types.Value, len(obj))
	for k, v := range obj {
		if excluded[k] {
			continue
		}
		val, err := types.FromJSON(v)
		if err != nil {
			return nil, types.NewDeserializationError("format.jsonld.load", err)
		}
		props[k] = val
	}
	return props, nil
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

// withCreatedFile opens path for writing through a StreamBufferSize
// buffer and runs fn against it. The file is closed even on error; the
// buffer is flushed only when fn succeeds.
func withCreatedFile(path string, fn func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return types.NewStorageError("format.save", err)
	}
	defer f.Close()

	bw := bufio.NewWriterSize(f, StreamBufferSize)
	if err := fn(bw); err != nil {
		return err
	}
	return bw.Flush()
}
