package format

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/latticedb/lattice/pkg/types"
)

// Pajek's *Vertices/*Arcs sections have no typed-value ambiguity to
// resolve (spec §4.K) — a vertex is an index and a quoted label, an
// arc is a pair of indices and a weight — so this format carries no
// properties beyond a "weight" property used as the arc weight.
func writePajek(_ context.Context, g *types.Graph, w io.Writer) error {
	nodes := sortedNodes(g)
	index := make(map[string]int, len(nodes))

	if _, err := fmt.Fprintf(w, "*Vertices %d\n", len(nodes)); err != nil {
		return types.NewSerializationError("format.pajek.save", err)
	}
	for i, n := range nodes {
		index[n.ID] = i + 1
		label := n.ID
		if len(n.Labels) > 0 {
			label = n.Labels[0]
		}
		if _, err := fmt.Fprintf(w, "%d %q\n", i+1, label); err != nil {
			return types.NewSerializationError("format.pajek.save", err)
		}
	}

	rels := sortedRels(g)
	if _, err := fmt.Fprintf(w, "*Arcs %d\n", len(rels)); err != nil {
		return types.NewSerializationError("format.pajek.save", err)
	}
	for _, r := range rels {
		src, ok := index[r.SourceID]
		if !ok {
			continue
		}
		tgt, ok := index[r.TargetID]
		if !ok {
			continue
		}
		weight := pajekWeight(r)
		if _, err := fmt.Fprintf(w, "%d %d %s\n", src, tgt, weight); err != nil {
			return types.NewSerializationError("format.pajek.save", err)
		}
	}
	return nil
}

// SavePajek writes g as a *Vertices/*Arcs Pajek network file. Each
// vertex line carries its 1-based index and the node's first label
// (or the node id, if unlabelled). On load the vertex index becomes
// the node id and the quoted text its single label — Pajek has no id
// slot beyond the vertex index, so original node ids do not
// round-trip through this format.
func SavePajek(ctx context.Context, g *types.Graph, path string) error {
	return withCreatedFile(path, func(w io.Writer) error { return writePajek(ctx, g, w) })
}

// LoadPajek reads back the network file SavePajek wrote.
func LoadPajek(_ context.Context, path string) (*types.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, types.NewStorageError("format.pajek.load", err)
	}
	defer f.Close()

	g := types.NewGraph()
	byIndex := map[int]string{}

	section := ""
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "*") {
			section = strings.ToLower(strings.Fields(line)[0])
			continue
		}
		switch section {
		case "*vertices":
			idx, label, ok := parsePajekVertex(line)
			if !ok {
				continue
			}
			id := strconv.Itoa(idx)
			byIndex[idx] = id
			g.Nodes[id] = &types.Node{ID: id, Labels: []string{label}, Properties: map[string]types.Value{}}
		case "*arcs", "*edges":
			src, tgt, weight, ok := parsePajekArc(line)
			if !ok {
				continue
			}
			srcID, tgtID := byIndex[src], byIndex[tgt]
			id := fmt.Sprintf("%s->%s", srcID, tgtID)
			g.Rels[id] = &types.Relationship{
				ID: id, Type: "ARC", SourceID: srcID, TargetID: tgtID,
				Properties: map[string]types.Value{"weight": types.NewFloat(weight)},
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, types.NewDeserializationError("format.pajek.load", err)
	}
	return g, nil
}

func pajekWeight(r *types.Relationship) string {
	if v, ok := r.Properties["weight"]; ok {
		return formatCSVValue(v)
	}
	return "1"
}

func parsePajekVertex(line string) (idx int, label string, ok bool) {
	fields := strings.SplitN(line, " ", 2)
	if len(fields) < 2 {
		return 0, "", false
	}
	idx, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, "", false
	}
	return idx, strings.Trim(strings.TrimSpace(fields[1]), `"`), true
}

func parsePajekArc(line string) (src, tgt int, weight float64, ok bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0, 0, 0, false
	}
	src, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, 0, false
	}
	tgt, err = strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, 0, false
	}
	weight = 1
	if len(fields) >= 3 {
		if w, err := strconv.ParseFloat(fields[2], 64); err == nil {
			weight = w
		}
	}
	return src, tgt, weight, true
}
