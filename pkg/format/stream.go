package format

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/latticedb/lattice/pkg/types"
)

// DefaultChunkSize is the chunk_size spec §4.K's streaming export API
// defaults to.
const DefaultChunkSize = 500

// StreamBufferSize is the buffer size exporters write through so a
// format never accumulates the whole output file in memory (spec
// §4.K "exporter writes in 64 KiB buffers").
const StreamBufferSize = 64 * 1024

// IterNodesChunked yields g's nodes in slices of at most chunkSize, in
// map iteration order (callers that need a stable order sort within a
// chunk). A non-positive chunkSize falls back to DefaultChunkSize.
func IterNodesChunked(g *types.Graph, chunkSize int) iter.Seq[[]*types.Node] {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return func(yield func([]*types.Node) bool) {
		chunk := make([]*types.Node, 0, chunkSize)
		for _, n := range g.Nodes {
			chunk = append(chunk, n)
			if len(chunk) == chunkSize {
				if !yield(chunk) {
					return
				}
				chunk = make([]*types.Node, 0, chunkSize)
			}
		}
		if len(chunk) > 0 {
			yield(chunk)
		}
	}
}

// IterRelationshipsChunked is IterNodesChunked for relationships.
func IterRelationshipsChunked(g *types.Graph, chunkSize int) iter.Seq[[]*types.Relationship] {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return func(yield func([]*types.Relationship) bool) {
		chunk := make([]*types.Relationship, 0, chunkSize)
		for _, r := range g.Rels {
			chunk = append(chunk, r)
			if len(chunk) == chunkSize {
				if !yield(chunk) {
					return
				}
				chunk = make([]*types.Relationship, 0, chunkSize)
			}
		}
		if len(chunk) > 0 {
			yield(chunk)
		}
	}
}

// ExportStreaming writes g to w in format, through a StreamBufferSize
// buffer, without going through a temporary file. Not every format
// supports a bare io.Writer target (CSV and DAG-JSON fan out into
// several files and need a directory); those report
// UnsupportedFormatError here rather than pretending to stream.
func ExportStreaming(ctx context.Context, g *types.Graph, w io.Writer, format string) error {
	streamer, ok := streamableFormats[strings.ToLower(format)]
	if !ok {
		return types.NewUnsupportedFormatError("format.export_streaming",
			fmt.Errorf("format %q does not support streaming export", format))
	}
	bw := bufio.NewWriterSize(w, StreamBufferSize)
	if err := streamer(ctx, g, bw); err != nil {
		return err
	}
	return bw.Flush()
}

// streamableFormats lists the formats ExportStreaming can target
// directly, each writing through the caller-supplied buffered writer.
var streamableFormats = map[string]func(context.Context, *types.Graph, io.Writer) error{
	"json":      writeJSON,
	"jsonlines": writeJSONLines,
	"jsonld":    writeJSONLD,
	"graphml":   writeGraphML,
	"gexf":      writeGEXF,
	"pajek":     writePajek,
}
