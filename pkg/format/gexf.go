package format

import (
	"context"
	"encoding/xml"
	"io"
	"os"
	"strconv"

	"github.com/latticedb/lattice/pkg/types"
)

// GEXF structs use the format's literal attribute names, most
// notably `class` on <attributes> (spec §4.K) — GEXF's schema
// distinguishes node-scoped from edge-scoped attribute declarations
// with that exact name, not a renamed equivalent.
type gexfDocument struct {
	XMLName xml.Name  `xml:"gexf"`
	Version string    `xml:"version,attr"`
	Graph   gexfGraph `xml:"graph"`
}

type gexfGraph struct {
	Mode            string          `xml:"mode,attr"`
	DefaultEdgeType string          `xml:"defaultedgetype,attr"`
	Attributes      []gexfAttrClass `xml:"attributes"`
	Nodes           gexfNodes       `xml:"nodes"`
	Edges           gexfEdges       `xml:"edges"`
}

type gexfAttrClass struct {
	Class      string          `xml:"class,attr"`
	Attributes []gexfAttribute `xml:"attribute"`
}

type gexfAttribute struct {
	ID    string `xml:"id,attr"`
	Title string `xml:"title,attr"`
	Type  string `xml:"type,attr"`
}

type gexfNodes struct {
	Node []gexfNode `xml:"node"`
}

type gexfNode struct {
	ID        string         `xml:"id,attr"`
	Label     string         `xml:"label,attr"`
	AttValues []gexfAttValue `xml:"attvalues>attvalue"`
}

type gexfEdges struct {
	Edge []gexfEdge `xml:"edge"`
}

type gexfEdge struct {
	ID        string         `xml:"id,attr"`
	Source    string         `xml:"source,attr"`
	Target    string         `xml:"target,attr"`
	Label     string         `xml:"label,attr,omitempty"`
	Weight    float64        `xml:"weight,attr"`
	AttValues []gexfAttValue `xml:"attvalues>attvalue"`
}

type gexfAttValue struct {
	For   string `xml:"for,attr"`
	Value string `xml:"value,attr"`
}

func writeGEXF(_ context.Context, g *types.Graph, w io.Writer) error {
	nodeKeys := collectKeys(nodePropertySets(g))
	relKeys := collectKeys(relPropertySets(g))

	nodeAttrs := gexfAttrClass{Class: "node"}
	for i, k := range nodeKeys {
		nodeAttrs.Attributes = append(nodeAttrs.Attributes,
			gexfAttribute{ID: strconv.Itoa(i), Title: k, Type: gexfAttrType(g, k, true)})
	}
	edgeAttrs := gexfAttrClass{Class: "edge"}
	for i, k := range relKeys {
		edgeAttrs.Attributes = append(edgeAttrs.Attributes,
			gexfAttribute{ID: strconv.Itoa(i), Title: k, Type: gexfAttrType(g, k, false)})
	}

	doc := gexfDocument{Version: "1.3", Graph: gexfGraph{
		Mode: "static", DefaultEdgeType: "directed",
		Attributes: []gexfAttrClass{nodeAttrs, edgeAttrs},
	}}

	for _, n := range sortedNodes(g) {
		gn := gexfNode{ID: n.ID, Label: joinLabels(n.Labels)}
		for i, k := range nodeKeys {
			if v, ok := n.Properties[k]; ok {
				gn.AttValues = append(gn.AttValues, gexfAttValue{For: strconv.Itoa(i), Value: formatCSVValue(v)})
			}
		}
		doc.Graph.Nodes.Node = append(doc.Graph.Nodes.Node, gn)
	}
	for _, r := range sortedRels(g) {
		ge := gexfEdge{ID: r.ID, Source: r.SourceID, Target: r.TargetID, Label: r.Type, Weight: 1.0}
		for i, k := range relKeys {
			if v, ok := r.Properties[k]; ok {
				ge.AttValues = append(ge.AttValues, gexfAttValue{For: strconv.Itoa(i), Value: formatCSVValue(v)})
			}
		}
		doc.Graph.Edges.Edge = append(doc.Graph.Edges.Edge, ge)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return types.NewSerializationError("format.gexf.save", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return types.NewSerializationError("format.gexf.save", err)
	}
	return nil
}

// SaveGEXF writes g as a GEXF 1.3 document.
func SaveGEXF(ctx context.Context, g *types.Graph, path string) error {
	return withCreatedFile(path, func(w io.Writer) error { return writeGEXF(ctx, g, w) })
}

// LoadGEXF reads back the document SaveGEXF wrote. Edge ids are
// preserved (GEXF requires an explicit edge id, unlike GraphML).
func LoadGEXF(_ context.Context, path string) (*types.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, types.NewStorageError("format.gexf.load", err)
	}
	defer f.Close()

	var doc gexfDocument
	if err := xml.NewDecoder(f).Decode(&doc); err != nil {
		return nil, types.NewDeserializationError("format.gexf.load", err)
	}

	nodeTitle := map[string]string{}
	edgeTitle := map[string]string{}
	for _, cls := range doc.Graph.Attributes {
		for _, a := range cls.Attributes {
			if cls.Class == "node" {
				nodeTitle[a.ID] = a.Title
			} else {
				edgeTitle[a.ID] = a.Title
			}
		}
	}

	g := types.NewGraph()
	for _, gn := range doc.Graph.Nodes.Node {
		n := &types.Node{ID: gn.ID, Labels: splitLabels(gn.Label), Properties: map[string]types.Value{}}
		for _, av := range gn.AttValues {
			n.Properties[nodeTitle[av.For]] = parseCSVValue(av.Value)
		}
		g.Nodes[n.ID] = n
	}
	for _, ge := range doc.Graph.Edges.Edge {
		r := &types.Relationship{ID: ge.ID, Type: ge.Label, SourceID: ge.Source, TargetID: ge.Target, Properties: map[string]types.Value{}}
		for _, av := range ge.AttValues {
			r.Properties[edgeTitle[av.For]] = parseCSVValue(av.Value)
		}
		g.Rels[r.ID] = r
	}
	return g, nil
}

func gexfAttrType(g *types.Graph, key string, isNode bool) string {
	typ := graphmlAttrType(g, key, isNode)
	if typ == "long" {
		return "integer"
	}
	return typ
}
