package format

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/latticedb/lattice/pkg/types"
)

// SaveFunc serializes g to path in one format's on-disk shape. Some
// formats write a single file (JSON, JSON-Lines, GraphML, GEXF,
// Pajek, CAR); others (CSV, DAG-JSON) treat path as a directory they
// populate with several files. Either way the call is synchronous; a
// save that fails part-way can leave a partially written file or
// directory at path.
type SaveFunc func(ctx context.Context, g *types.Graph, path string) error

// LoadFunc is SaveFunc's inverse: it rehydrates a types.Graph from
// whatever SaveFunc wrote at path.
type LoadFunc func(ctx context.Context, path string) (*types.Graph, error)

type formatEntry struct {
	save SaveFunc
	load LoadFunc
}

// Registry is the pluggable (de)serializer table spec §4.K describes.
// It is safe for concurrent registration and lookup — registration
// takes the exclusive lock, lookup takes the read lock, following the
// same internal-mutex discipline pkg/block.Store uses for its cache
// (spec §5 "acquire an internal mutex for registration and expose a
// read-only snapshot for lookups").
type Registry struct {
	mu      sync.RWMutex
	formats map[string]formatEntry
}

// NewRegistry returns an empty registry. Engines that want isolation
// from the process-wide default (tests, mainly) construct their own.
func NewRegistry() *Registry {
	return &Registry{formats: map[string]formatEntry{}}
}

// Register installs save/load under name, replacing any prior
// registration of the same name. Names are case-insensitive.
func (r *Registry) Register(name string, save SaveFunc, load LoadFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.formats[strings.ToLower(name)] = formatEntry{save: save, load: load}
}

func (r *Registry) lookup(name string) (formatEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.formats[strings.ToLower(name)]
	if !ok {
		return formatEntry{}, types.NewUnsupportedFormatError("format.lookup", fmt.Errorf("format %q is not registered", name))
	}
	return e, nil
}

// SaveToFile looks up format and serializes g to path through it.
func (r *Registry) SaveToFile(ctx context.Context, g *types.Graph, path, format string) error {
	e, err := r.lookup(format)
	if err != nil {
		return err
	}
	return e.save(ctx, g, path)
}

// LoadFromFile looks up format and rehydrates a graph from path.
func (r *Registry) LoadFromFile(ctx context.Context, path, format string) (*types.Graph, error) {
	e, err := r.lookup(format)
	if err != nil {
		return nil, err
	}
	return e.load(ctx, path)
}

// Names returns the registered format names in sorted order, for
// diagnostics and the CLI's `import`/`export --help` listing.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.formats))
	for n := range r.formats {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// defaultRegistry is the process-wide registry the embedded library
// API (Engine.register_format et al, spec §6) reads from when a
// caller doesn't supply its own.
var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry { return defaultRegistry }

// RegisterFormat installs a save/load pair into the default registry.
func RegisterFormat(name string, save SaveFunc, load LoadFunc) {
	defaultRegistry.Register(name, save, load)
}

// SaveToFile serializes g to path using the default registry.
func SaveToFile(ctx context.Context, g *types.Graph, path, format string) error {
	return defaultRegistry.SaveToFile(ctx, g, path, format)
}

// LoadFromFile rehydrates a graph from path using the default
// registry.
func LoadFromFile(ctx context.Context, path, format string) (*types.Graph, error) {
	return defaultRegistry.LoadFromFile(ctx, path, format)
}

func init() {
	RegisterFormat("json", SaveJSON, LoadJSON)
	RegisterFormat("jsonlines", SaveJSONLines, LoadJSONLines)
	RegisterFormat("jsonld", SaveJSONLD, LoadJSONLD)
	RegisterFormat("dagjson", SaveDAGJSON, LoadDAGJSON)
	RegisterFormat("csv", SaveCSV, LoadCSV)
	RegisterFormat("graphml", SaveGraphML, LoadGraphML)
	RegisterFormat("gexf", SaveGEXF, LoadGEXF)
	RegisterFormat("pajek", SavePajek, LoadPajek)
	RegisterFormat("car", SaveCAR, LoadCAR)
	RegisterFormat("rdf", saveRDFUnavailable, loadRDFUnavailable)
}
