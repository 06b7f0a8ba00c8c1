package format

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/latticedb/lattice/pkg/types"
)

const (
	csvNodesFile = "nodes.csv"
	csvRelsFile  = "rels.csv"
	csvLabelSep  = "|"
)

// SaveCSV writes g as a pair of flat files under the directory path:
// nodes.csv and rels.csv, header line first, properties flattened
// into one column per distinct key used across the entity kind (spec
// §4.K "File formats — CSV").
func SaveCSV(_ context.Context, g *types.Graph, path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return types.NewStorageError("format.csv.save", err)
	}

	nodeKeys := collectKeys(nodePropertySets(g))
	if err := writeCSVFile(filepath.Join(path, csvNodesFile), append([]string{"id", "labels"}, nodeKeys...),
		func(w *csv.Writer) error {
			for _, n := range g.Nodes {
				row := append([]string{n.ID, strings.Join(n.Labels, csvLabelSep)}, propertyRow(n.Properties, nodeKeys)...)
				if err := w.Write(row); err != nil {
					return err
				}
			}
			return nil
		}); err != nil {
		return err
	}

	relKeys := collectKeys(relPropertySets(g))
	if err := writeCSVFile(filepath.Join(path, csvRelsFile), append([]string{"id", "type", "source", "target"}, relKeys...),
		func(w *csv.Writer) error {
			for _, r := range g.Rels {
				row := append([]string{r.ID, r.Type, r.SourceID, r.TargetID}, propertyRow(r.Properties, relKeys)...)
				if err := w.Write(row); err != nil {
					return err
				}
			}
			return nil
		}); err != nil {
		return err
	}
	return nil
}

// LoadCSV reads back the nodes.csv/rels.csv pair SaveCSV wrote.
func LoadCSV(_ context.Context, path string) (*types.Graph, error) {
	g := types.NewGraph()

	nodeRows, nodeHeader, err := readCSVFile(filepath.Join(path, csvNodesFile))
	if err != nil {
		return nil, err
	}
	for _, row := range nodeRows {
		n := &types.Node{ID: row[0], Properties: map[string]types.Value{}}
		if row[1] != "" {
			n.Labels = strings.Split(row[1], csvLabelSep)
		}
		for i := 2; i < len(nodeHeader) && i < len(row); i++ {
			if row[i] == "" {
				continue
			}
			n.Properties[nodeHeader[i]] = parseCSVValue(row[i])
		}
		g.Nodes[n.ID] = n
	}

	relRows, relHeader, err := readCSVFile(filepath.Join(path, csvRelsFile))
	if err != nil {
		return nil, err
	}
	for _, row := range relRows {
		r := &types.Relationship{
			ID: row[0], Type: row[1], SourceID: row[2], TargetID: row[3],
			Properties: map[string]types.Value{},
		}
		for i := 4; i < len(relHeader) && i < len(row); i++ {
			if row[i] == "" {
				continue
			}
			r.Properties[relHeader[i]] = parseCSVValue(row[i])
		}
		g.Rels[r.ID] = r
	}
	return g, nil
}

func writeCSVFile(path string, header []string, body func(w *csv.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return types.NewStorageError("format.csv.save", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return types.NewSerializationError("format.csv.save", err)
	}
	if err := body(w); err != nil {
		return types.NewSerializationError("format.csv.save", err)
	}
	w.Flush()
	return w.Error()
}

func readCSVFile(path string) (rows [][]string, header []string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, types.NewStorageError("format.csv.load", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, types.NewDeserializationError("format.csv.load", err)
	}
	if len(records) == 0 {
		return nil, nil, nil
	}
	return records[1:], records[0], nil
}

func nodePropertySets(g *types.Graph) []map[string]types.Value {
	sets := make([]map[string]types.Value, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		sets = append(sets, n.Properties)
	}
	return sets
}

func relPropertySets(g *types.Graph) []map[string]types.Value {
	sets := make([]map[string]types.Value, 0, len(g.Rels))
	for _, r := range g.Rels {
		sets = append(sets, r.Properties)
	}
	return sets
}

func collectKeys(sets []map[string]types.Value) []string {
	seen := map[string]bool{}
	for _, s := range sets {
		for k := range s {
			seen[k] = true
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func propertyRow(props map[string]types.Value, keys []string) []string {
	row := make([]string, len(keys))
	for i, k := range keys {
		if v, ok := props[k]; ok {
			row[i] = formatCSVValue(v)
		}
	}
	return row
}

// formatCSVValue renders a Value as CSV text. Bool is branched before
// Int so a boolean property never round-trips through "1"/"0" (spec
// §4.K "bool before int").
func formatCSVValue(v types.Value) string {
	switch v.Kind {
	case types.KindNull:
		return ""
	case types.KindBool:
		return strconv.FormatBool(v.Bool)
	case types.KindInt:
		return strconv.FormatInt(v.Int, 10)
	case types.KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case types.KindString:
		return v.Str
	default:
		return fmt.Sprintf("%v", v.String())
	}
}

// parseCSVValue infers a Value's type from CSV text. It checks the
// literal tokens "true"/"false" before attempting an int parse —
// strconv.ParseBool also accepts "1"/"0", which would otherwise steal
// every integer 1 or 0 property and turn it into a bool on load (spec
// §4.K "bool before int" cuts both ways: a bool must not round-trip
// as an int, and an int must not round-trip as a bool).
func parseCSVValue(s string) types.Value {
	switch s {
	case "true":
		return types.NewBool(true)
	case "false":
		return types.NewBool(false)
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return types.NewInt(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return types.NewFloat(f)
	}
	return types.NewString(s)
}
