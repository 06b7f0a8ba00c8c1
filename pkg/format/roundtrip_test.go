package format

import (
	"context"
	"testing"

	"github.com/latticedb/lattice/pkg/types"
)

func sampleGraph() *types.Graph {
	g := types.NewGraph()
	g.Version = 3
	g.Metadata["origin"] = types.NewString("test")
	g.Nodes["n1"] = &types.Node{
		ID: "n1", Labels: []string{"Person"},
		Properties: map[string]types.Value{
			"name":   types.NewString("Ada"),
			"age":    types.NewInt(37),
			"active": types.NewBool(true),
		},
	}
	g.Nodes["n2"] = &types.Node{
		ID: "n2", Labels: []string{"Person"},
		Properties: map[string]types.Value{
			"name":   types.NewString("Bob"),
			"age":    types.NewInt(0),
			"active": types.NewBool(false),
		},
	}
	g.Rels["r1"] = &types.Relationship{
		ID: "r1", Type: "KNOWS", SourceID: "n1", TargetID: "n2",
		Properties: map[string]types.Value{"since": types.NewInt(2020)},
	}
	return g
}

func TestJSONRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/graph.json"
	g := sampleGraph()

	if err := SaveJSON(context.Background(), g, path); err != nil {
		t.Fatalf("SaveJSON: %v", err)
	}
	got, err := LoadJSON(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if len(got.Nodes) != 2 || len(got.Rels) != 1 {
		t.Fatalf("unexpected shape: %d nodes, %d rels", len(got.Nodes), len(got.Rels))
	}
	if !got.Nodes["n1"].Properties["active"].Equal(types.NewBool(true)) {
		t.Fatalf("expected active=true to round-trip as bool, got %v", got.Nodes["n1"].Properties["active"])
	}
	if !got.Nodes["n2"].Properties["age"].Equal(types.NewInt(0)) {
		t.Fatalf("expected age=0 to round-trip as int, got %v", got.Nodes["n2"].Properties["age"])
	}
}

func TestJSONLinesRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/graph.jsonl"
	g := sampleGraph()

	if err := SaveJSONLines(context.Background(), g, path); err != nil {
		t.Fatalf("SaveJSONLines: %v", err)
	}
	got, err := LoadJSONLines(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadJSONLines: %v", err)
	}
	if got.Version != 3 {
		t.Fatalf("version = %d, want 3", got.Version)
	}
	if len(got.Nodes) != 2 || len(got.Rels) != 1 {
		t.Fatalf("unexpected shape: %d nodes, %d rels", len(got.Nodes), len(got.Rels))
	}
}

func TestJSONLDRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/graph.jsonld"
	g := sampleGraph()

	if err := SaveJSONLD(context.Background(), g, path); err != nil {
		t.Fatalf("SaveJSONLD: %v", err)
	}
	got, err := LoadJSONLD(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadJSONLD: %v", err)
	}
	if len(got.Nodes) != 2 || len(got.Rels) != 1 {
		t.Fatalf("unexpected shape: %d nodes, %d rels", len(got.Nodes), len(got.Rels))
	}
	if got.Rels["r1"].Type != "KNOWS" {
		t.Fatalf("relationship type = %q, want KNOWS", got.Rels["r1"].Type)
	}
}

func TestCSVRoundTrip(t *testing.T) {
	dir := t.TempDir()
	g := sampleGraph()

	if err := SaveCSV(context.Background(), g, dir); err != nil {
		t.Fatalf("SaveCSV: %v", err)
	}
	got, err := LoadCSV(context.Background(), dir)
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	if len(got.Nodes) != 2 || len(got.Rels) != 1 {
		t.Fatalf("unexpected shape: %d nodes, %d rels", len(got.Nodes), len(got.Rels))
	}
	if !got.Nodes["n1"].Properties["active"].Equal(types.NewBool(true)) {
		t.Fatalf("bool property did not round-trip as bool: %v", got.Nodes["n1"].Properties["active"])
	}
	if !got.Nodes["n2"].Properties["age"].Equal(types.NewInt(0)) {
		t.Fatalf("int property 0 round-tripped as %v, want int(0)", got.Nodes["n2"].Properties["age"])
	}
}

func TestGraphMLRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/graph.graphml"
	g := sampleGraph()

	if err := SaveGraphML(context.Background(), g, path); err != nil {
		t.Fatalf("SaveGraphML: %v", err)
	}
	got, err := LoadGraphML(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadGraphML: %v", err)
	}
	if len(got.Nodes) != 2 || len(got.Rels) != 1 {
		t.Fatalf("unexpected shape: %d nodes, %d rels", len(got.Nodes), len(got.Rels))
	}
	if !got.Nodes["n1"].Properties["active"].Equal(types.NewBool(true)) {
		t.Fatalf("bool property did not round-trip: %v", got.Nodes["n1"].Properties["active"])
	}
}

func TestGEXFRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/graph.gexf"
	g := sampleGraph()

	if err := SaveGEXF(context.Background(), g, path); err != nil {
		t.Fatalf("SaveGEXF: %v", err)
	}
	got, err := LoadGEXF(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadGEXF: %v", err)
	}
	if len(got.Nodes) != 2 || len(got.Rels) != 1 {
		t.Fatalf("unexpected shape: %d nodes, %d rels", len(got.Nodes), len(got.Rels))
	}
	if got.Rels["r1"].Type != "KNOWS" {
		t.Fatalf("relationship type = %q, want KNOWS", got.Rels["r1"].Type)
	}
}

func TestPajekRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/graph.net"
	g := sampleGraph()

	if err := SavePajek(context.Background(), g, path); err != nil {
		t.Fatalf("SavePajek: %v", err)
	}
	got, err := LoadPajek(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadPajek: %v", err)
	}
	if len(got.Nodes) != 2 || len(got.Rels) != 1 {
		t.Fatalf("unexpected shape: %d nodes, %d rels", len(got.Nodes), len(got.Rels))
	}
}

func TestDAGJSONRoundTrip(t *testing.T) {
	dir := t.TempDir()
	g := sampleGraph()

	if err := SaveDAGJSON(context.Background(), g, dir); err != nil {
		t.Fatalf("SaveDAGJSON: %v", err)
	}
	got, err := LoadDAGJSON(context.Background(), dir)
	if err != nil {
		t.Fatalf("LoadDAGJSON: %v", err)
	}
	if len(got.Nodes) != 2 || len(got.Rels) != 1 {
		t.Fatalf("unexpected shape: %d nodes, %d rels", len(got.Nodes), len(got.Rels))
	}
	if got.Version != 3 {
		t.Fatalf("version = %d, want 3", got.Version)
	}
}

func TestCARRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/graph.car"
	g := sampleGraph()

	if err := SaveCAR(context.Background(), g, path); err != nil {
		t.Fatalf("SaveCAR: %v", err)
	}
	got, err := LoadCAR(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadCAR: %v", err)
	}
	if len(got.Nodes) != 2 || len(got.Rels) != 1 {
		t.Fatalf("unexpected shape: %d nodes, %d rels", len(got.Nodes), len(got.Rels))
	}
	if !got.Nodes["n1"].Properties["active"].Equal(types.NewBool(true)) {
		t.Fatalf("bool property did not round-trip: %v", got.Nodes["n1"].Properties["active"])
	}
}

func TestRegistryRoundTripsThroughSaveLoadToFile(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/graph.json"
	g := sampleGraph()

	if err := SaveToFile(context.Background(), g, path, "json"); err != nil {
		t.Fatalf("SaveToFile: %v", err)
	}
	got, err := LoadFromFile(context.Background(), path, "JSON")
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if len(got.Nodes) != 2 {
		t.Fatalf("node count = %d, want 2", len(got.Nodes))
	}
}

func TestUnregisteredFormatIsUnsupportedFormatError(t *testing.T) {
	_, err := LoadFromFile(context.Background(), "/dev/null", "not-a-real-format")
	if err == nil {
		t.Fatalf("expected an error for an unregistered format")
	}
	if types.ErrorClass(err) != "unsupported_format" {
		t.Fatalf("error class = %q, want unsupported_format", types.ErrorClass(err))
	}
}

func TestRDFReportsConfigurationError(t *testing.T) {
	err := SaveToFile(context.Background(), sampleGraph(), "/dev/null", "rdf")
	if err == nil {
		t.Fatalf("expected an error saving to the rdf format")
	}
	if types.ErrorClass(err) != "configuration" {
		t.Fatalf("error class = %q, want configuration", types.ErrorClass(err))
	}
}

func TestIterNodesChunkedRespectsChunkSize(t *testing.T) {
	g := sampleGraph()
	var chunks [][]*types.Node
	for chunk := range IterNodesChunked(g, 1) {
		chunks = append(chunks, chunk)
	}
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2 (chunk size 1 over 2 nodes)", len(chunks))
	}
	for _, c := range chunks {
		if len(c) != 1 {
			t.Fatalf("chunk size = %d, want 1", len(c))
		}
	}
}
