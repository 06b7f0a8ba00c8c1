package format

import (
	"context"
	"encoding/xml"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/latticedb/lattice/pkg/types"
)

// GraphML structs mirror the standard schema's element/attribute
// names verbatim — "for" and "attr.name" are the literal XML
// attribute names the format defines, not Go-keyword workarounds
// (spec §4.K "GraphML/GEXF must write XML attributes using their
// literal names"); encoding/xml lets a struct tag spell `for` exactly
// because it is the wire name, not a Go identifier.
type graphmlDocument struct {
	XMLName xml.Name     `xml:"graphml"`
	Keys    []graphmlKey `xml:"key"`
	Graph   graphmlGraph `xml:"graph"`
}

type graphmlKey struct {
	ID       string `xml:"id,attr"`
	For      string `xml:"for,attr"`
	AttrName string `xml:"attr.name,attr"`
	AttrType string `xml:"attr.type,attr"`
}

type graphmlGraph struct {
	EdgeDefault string        `xml:"edgedefault,attr"`
	Nodes       []graphmlNode `xml:"node"`
	Edges       []graphmlEdge `xml:"edge"`
}

type graphmlNode struct {
	ID   string          `xml:"id,attr"`
	Data []graphmlData   `xml:"data"`
}

type graphmlEdge struct {
	Source string        `xml:"source,attr"`
	Target string        `xml:"target,attr"`
	Data   []graphmlData `xml:"data"`
}

type graphmlData struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

const (
	graphmlKeyLabels = "labels"
	graphmlKeyType   = "type"
)

func writeGraphML(_ context.Context, g *types.Graph, w io.Writer) error {
	nodeKeys := collectKeys(nodePropertySets(g))
	relKeys := collectKeys(relPropertySets(g))

	doc := graphmlDocument{Graph: graphmlGraph{EdgeDefault: "directed"}}
	doc.Keys = append(doc.Keys, graphmlKey{ID: graphmlKeyLabels, For: "node", AttrName: "labels", AttrType: "string"})
	for _, k := range nodeKeys {
		doc.Keys = append(doc.Keys, graphmlKey{ID: "n_" + k, For: "node", AttrName: k, AttrType: graphmlAttrType(g, k, true)})
	}
	doc.Keys = append(doc.Keys, graphmlKey{ID: graphmlKeyType, For: "edge", AttrName: "type", AttrType: "string"})
	for _, k := range relKeys {
		doc.Keys = append(doc.Keys, graphmlKey{ID: "e_" + k, For: "edge", AttrName: k, AttrType: graphmlAttrType(g, k, false)})
	}

	for _, n := range sortedNodes(g) {
		gn := graphmlNode{ID: n.ID, Data: []graphmlData{{Key: graphmlKeyLabels, Value: joinLabels(n.Labels)}}}
		for _, k := range nodeKeys {
			if v, ok := n.Properties[k]; ok {
				gn.Data = append(gn.Data, graphmlData{Key: "n_" + k, Value: formatCSVValue(v)})
			}
		}
		doc.Graph.Nodes = append(doc.Graph.Nodes, gn)
	}
	for _, r := range sortedRels(g) {
		ge := graphmlEdge{Source: r.SourceID, Target: r.TargetID, Data: []graphmlData{{Key: graphmlKeyType, Value: r.Type}}}
		for _, k := range relKeys {
			if v, ok := r.Properties[k]; ok {
				ge.Data = append(ge.Data, graphmlData{Key: "e_" + k, Value: formatCSVValue(v)})
			}
		}
		doc.Graph.Edges = append(doc.Graph.Edges, ge)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return types.NewSerializationError("format.graphml.save", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return types.NewSerializationError("format.graphml.save", err)
	}
	return nil
}

// SaveGraphML writes g as a GraphML document, one <key> per distinct
// property name plus a synthetic "labels"/"type" key.
func SaveGraphML(ctx context.Context, g *types.Graph, path string) error {
	return withCreatedFile(path, func(w io.Writer) error { return writeGraphML(ctx, g, w) })
}

// LoadGraphML reads back the document SaveGraphML wrote. Key
// attr.name values, not key ids, become property keys on the
// rehydrated nodes/relationships.
func LoadGraphML(_ context.Context, path string) (*types.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, types.NewStorageError("format.graphml.load", err)
	}
	defer f.Close()

	var doc graphmlDocument
	if err := xml.NewDecoder(f).Decode(&doc); err != nil {
		return nil, types.NewDeserializationError("format.graphml.load", err)
	}

	keyName := make(map[string]string, len(doc.Keys))
	for _, k := range doc.Keys {
		keyName[k.ID] = k.AttrName
	}

	g := types.NewGraph()
	for _, gn := range doc.Graph.Nodes {
		n := &types.Node{ID: gn.ID, Properties: map[string]types.Value{}}
		for _, d := range gn.Data {
			name := keyName[d.Key]
			switch name {
			case "labels":
				n.Labels = splitLabels(d.Value)
			default:
				n.Properties[name] = parseCSVValue(d.Value)
			}
		}
		g.Nodes[n.ID] = n
	}
	for i, ge := range doc.Graph.Edges {
		r := &types.Relationship{
			ID: graphmlSyntheticID("e", i), SourceID: ge.Source, TargetID: ge.Target,
			Properties: map[string]types.Value{},
		}
		for _, d := range ge.Data {
			name := keyName[d.Key]
			switch name {
			case "type":
				r.Type = d.Value
			default:
				r.Properties[name] = parseCSVValue(d.Value)
			}
		}
		g.Rels[r.ID] = r
	}
	return g, nil
}

func graphmlAttrType(g *types.Graph, key string, isNode bool) string {
	var sets []map[string]types.Value
	if isNode {
		sets = nodePropertySets(g)
	} else {
		sets = relPropertySets(g)
	}
	for _, s := range sets {
		if v, ok := s[key]; ok {
			return xmlAttrType(v)
		}
	}
	return "string"
}

// xmlAttrType maps a Value's Kind to a GraphML/GEXF attr.type token.
// Bool is checked before int so a boolean property is never declared
// (or later parsed) as an integer attribute (spec §4.K "bool before
// int").
func xmlAttrType(v types.Value) string {
	switch v.Kind {
	case types.KindBool:
		return "boolean"
	case types.KindInt:
		return "long"
	case types.KindFloat:
		return "double"
	default:
		return "string"
	}
}

func joinLabels(labels []string) string {
	return strings.Join(labels, csvLabelSep)
}

func splitLabels(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, csvLabelSep)
}

func graphmlSyntheticID(prefix string, i int) string {
	return prefix + "_" + strconv.Itoa(i)
}

func sortedNodes(g *types.Graph) []*types.Node {
	out := make([]*types.Node, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortedRels(g *types.Graph) []*types.Relationship {
	out := make([]*types.Relationship, 0, len(g.Rels))
	for _, r := range g.Rels {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
