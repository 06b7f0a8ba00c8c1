package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/latticedb/lattice/pkg/block"
	"github.com/latticedb/lattice/pkg/cypher"
	"github.com/latticedb/lattice/pkg/format"
	"github.com/latticedb/lattice/pkg/graph"
	"github.com/latticedb/lattice/pkg/index"
	"github.com/latticedb/lattice/pkg/ir"
	"github.com/latticedb/lattice/pkg/log"
	"github.com/latticedb/lattice/pkg/metrics"
	"github.com/latticedb/lattice/pkg/txn"
	"github.com/latticedb/lattice/pkg/types"
	"github.com/latticedb/lattice/pkg/wal"
)

// Engine bundles the block store, WAL, graph engine, index manager
// and transaction manager behind the single entry point spec §4.L
// calls out — the way the teacher's pkg/manager.Manager bundles its
// store, event broker, CA and DNS server behind one Config-driven
// constructor.
type Engine struct {
	mu sync.Mutex // serializes Execute/Save/Load against one another

	opts Options

	store     *block.Store
	log       *wal.WAL
	graph     *graph.Engine
	indexMgr  *index.Manager
	txMgr     *txn.Manager
	formats   *format.Registry
	collector *metrics.Collector

	commitsSinceCompact int
}

// Open constructs an Engine rooted at path: a blocks/ directory for
// the bbolt-backed block store and a wal.db file for the WAL's own
// bbolt database. An existing graph at path is rehydrated from its head
// manifest and WAL recovery is run before Open returns, so every
// Engine handed back is immediately consistent (spec §4.L / §8
// invariant 7).
func Open(path string, opts Options) (*Engine, error) {
	blocksDir := filepath.Join(path, "blocks")
	if err := os.MkdirAll(blocksDir, 0o755); err != nil {
		return nil, types.NewStorageError("engine.open", err)
	}
	backend, err := block.NewBoltBackend(blocksDir)
	if err != nil {
		return nil, types.NewStorageError("engine.open", err)
	}
	store, err := block.NewStore(backend, opts.CacheCapacity)
	if err != nil {
		return nil, err
	}

	w, err := wal.Open(filepath.Join(path, "wal.db"))
	if err != nil {
		return nil, types.NewStorageError("engine.open", err)
	}

	g := graph.New(store, opts.GraphHeadName)
	idx := index.NewManager()
	g.SetIndexer(idx)

	ctx := context.Background()
	if err := g.LoadGraph(ctx); err != nil {
		return nil, err
	}
	snap := g.Snapshot()
	nodes := make([]*types.Node, 0, len(snap.Nodes))
	for _, n := range snap.Nodes {
		nodes = append(nodes, n)
	}
	rels := make([]*types.Relationship, 0, len(snap.Rels))
	for _, r := range snap.Rels {
		rels = append(rels, r)
	}
	idx.Rebuild(nodes, rels)

	txMgr := txn.New(g, w)
	if err := txMgr.Recover(); err != nil {
		return nil, err
	}

	e := &Engine{
		opts:     opts,
		store:    store,
		log:      w,
		graph:    g,
		indexMgr: idx,
		txMgr:    txMgr,
		formats:  format.NewRegistry(),
	}
	registerDefaultFormats(e.formats)

	e.collector = metrics.NewCollector(e.statsSnapshot)
	e.collector.Start()

	metrics.RegisterComponent("block", true, "")
	metrics.RegisterComponent("wal", true, "")
	metrics.RegisterComponent("graph", true, "")

	return e, nil
}

// statsSnapshot samples the current graph/index sizes for
// metrics.Collector (spec's ambient metrics requirement — gauges
// refreshed on a tick, not just on commit).
func (e *Engine) statsSnapshot() metrics.EngineStats {
	return metrics.EngineStats{
		NodeCount:  e.graph.NodeCount(),
		RelCount:   e.graph.RelationshipCount(),
		IndexCount: len(e.indexMgr.ListIndexes()),
	}
}

// Close stops the metrics collector and releases the block store and
// WAL's underlying bbolt handles.
func (e *Engine) Close() error {
	e.collector.Stop()
	if err := e.log.Close(); err != nil {
		return err
	}
	return e.store.Close()
}

// Execute classifies query as Cypher source, compiles it to an
// operator tree, and runs ExecuteOp against it (spec §4.L step 1-2).
func (e *Engine) Execute(ctx context.Context, query string, params map[string]types.Value, isolation types.IsolationLevel) (Result, error) {
	src := substituteParams(query, params)
	q, err := cypher.ParseQuery(src)
	if err != nil {
		return e.fail(types.NewParseError("engine.execute", err))
	}
	op, err := cypher.CompileQuery(q)
	if err != nil {
		return e.fail(types.NewCompileError("engine.execute", err))
	}
	return e.ExecuteOp(ctx, op, columnsFromQuery(q), isolation)
}

// ExecuteOp runs a pre-compiled IR operator tree inside its own
// transaction: begin, run, commit on success or roll back on any
// error (spec §4.L step 2, §5 cancellation/timeout handling).
func (e *Engine) ExecuteOp(ctx context.Context, op ir.Op, columns []string, isolation types.IsolationLevel) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if isolation == "" {
		isolation = e.opts.DefaultIsolation
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && e.opts.DefaultTimeoutMillis > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(e.opts.DefaultTimeoutMillis)*time.Millisecond)
		defer cancel()
	}

	timer := metrics.NewTimer()
	start := time.Now()
	nodesBefore, relsBefore := e.graph.NodeCount(), e.graph.RelationshipCount()

	txID := e.txMgr.Begin(isolation)
	ex := ir.New(e.graph, e.txMgr, txID)
	rows, runErr := ex.Run(ctx, op)

	if runErr != nil {
		e.txMgr.Rollback(txID)
		e.observeOutcome(timer, "failed")
		return e.fail(classifyRunError(ctx, runErr))
	}
	if err := ctx.Err(); err != nil {
		e.txMgr.Rollback(txID)
		e.observeOutcome(timer, "failed")
		return e.fail(classifyRunError(ctx, err))
	}

	if err := e.txMgr.Commit(ctx, txID); err != nil {
		if types.ErrorClass(err) == "conflict" {
			metrics.TxConflictsTotal.Inc()
		}
		metrics.TxRollbacksTotal.Inc()
		e.observeOutcome(timer, "rolled_back")
		return e.fail(err)
	}
	metrics.TxCommitsTotal.Inc()
	metrics.NodesTotal.Set(float64(e.graph.NodeCount()))
	metrics.RelationshipsTotal.Set(float64(e.graph.RelationshipCount()))
	e.observeOutcome(timer, "committed")
	e.maybeCompactLocked()

	res := Result{
		Columns: columns,
		Rows:    rowsToResult(columns, rows),
		Summary: Summary{
			DurationMillis: time.Since(start).Milliseconds(),
			Stats: Stats{
				NodesCreated: e.graph.NodeCount() - nodesBefore,
				RelsCreated:  e.graph.RelationshipCount() - relsBefore,
			},
		},
	}
	return res, nil
}

// observeOutcome records query duration and count for the given
// terminal outcome (spec's ambient metrics requirement).
func (e *Engine) observeOutcome(timer *metrics.Timer, outcome string) {
	timer.ObserveDurationVec(metrics.QueryDuration, outcome)
	metrics.QueriesTotal.WithLabelValues(outcome).Inc()
}

func classifyRunError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return types.NewQueryTimeoutError("engine.execute")
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return types.NewCancelledError("engine.execute")
	}
	if _, ok := err.(*types.EngineError); ok {
		return err
	}
	return types.NewExecutionError("engine.execute", err)
}

// fail honors the strict/non-strict contract of spec §7: in strict
// mode the error is returned from Execute directly; otherwise it is
// folded into a Result with empty rows so the caller can inspect it
// without a type switch on error.
func (e *Engine) fail(err error) (Result, error) {
	if e.opts.Strict {
		return Result{}, err
	}
	return Result{Err: err}, nil
}

func (e *Engine) maybeCompactLocked() {
	e.commitsSinceCompact++
	if e.opts.WALCompactThresholdEntries <= 0 || e.commitsSinceCompact < e.opts.WALCompactThresholdEntries {
		return
	}
	head, ok, err := e.log.Head()
	if err != nil || !ok {
		return
	}
	if err := e.log.Compact(head); err != nil {
		log.Logger.Warn().Err(err).Msg("automatic wal compaction failed")
		return
	}
	e.commitsSinceCompact = 0
}

// ExecuteAsync offloads Execute to a goroutine and returns a Future
// that blocks on Wait (spec §4.L.3 "without blocking the caller's
// scheduler").
func (e *Engine) ExecuteAsync(ctx context.Context, query string, params map[string]types.Value, isolation types.IsolationLevel) *Future {
	f := &Future{done: make(chan struct{})}
	go func() {
		f.result, f.err = e.Execute(ctx, query, params, isolation)
		close(f.done)
	}()
	return f
}

// Future is the handle ExecuteAsync returns.
type Future struct {
	done   chan struct{}
	result Result
	err    error
}

// Wait blocks until the async call completes or ctx is done, whichever
// comes first.
func (f *Future) Wait(ctx context.Context) (Result, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		return Result{}, types.NewCancelledError("engine.execute_async.wait")
	}
}

// Tx is the explicit, manually-driven transaction handle spec §6
// names (`Engine.begin(isolation) → Tx`). It is the lower-level
// counterpart to Execute for callers building up operations through
// pkg/txn directly rather than via Cypher.
type Tx struct {
	eng *Engine
	id  string
}

// Begin starts a transaction at the given isolation level without
// running any query against it.
func (e *Engine) Begin(isolation types.IsolationLevel) *Tx {
	if isolation == "" {
		isolation = e.opts.DefaultIsolation
	}
	return &Tx{eng: e, id: e.txMgr.Begin(isolation)}
}

func (t *Tx) ID() string { return t.id }

func (t *Tx) AddCreateNode(nodeID string, labels []string, properties map[string]types.Value) error {
	return t.eng.txMgr.AddCreateNode(t.id, nodeID, labels, properties)
}

func (t *Tx) AddDeleteNode(nodeID string) error {
	return t.eng.txMgr.AddDeleteNode(t.id, nodeID)
}

func (t *Tx) AddCreateRelationship(relID, relType, sourceID, targetID string, properties map[string]types.Value) error {
	return t.eng.txMgr.AddCreateRelationship(t.id, relID, relType, sourceID, targetID, properties)
}

func (t *Tx) AddDeleteRelationship(relID string) error {
	return t.eng.txMgr.AddDeleteRelationship(t.id, relID)
}

func (t *Tx) AddSetProperty(nodeID string, patch map[string]types.Value) error {
	return t.eng.txMgr.AddSetProperty(t.id, nodeID, patch)
}

// Commit commits the transaction, linearizing the WAL append after
// the applied graph mutation (spec §5 "manifest first, WAL second"
// ordering is internal to pkg/txn.Manager.Commit).
func (t *Tx) Commit(ctx context.Context) error {
	return t.eng.txMgr.Commit(ctx, t.id)
}

// Rollback discards every buffered operation without touching the
// graph.
func (t *Tx) Rollback() error {
	return t.eng.txMgr.Rollback(t.id)
}

// Save serializes the current graph through the named format (spec
// §4.L / §6 "Engine.save(path)"). The format must already be
// registered, either built in (pkg/format's defaults) or via
// RegisterFormat.
func (e *Engine) Save(ctx context.Context, path, formatName string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	snap := e.graph.Snapshot()
	return e.formats.SaveToFile(ctx, snap, path, formatName)
}

// Load replaces the current graph with the contents of path, read
// through the named format, then persists it through SaveGraph so it
// survives process restart (spec §6 "Engine.load(path)").
func (e *Engine) Load(ctx context.Context, path, formatName string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	g, err := e.formats.LoadFromFile(ctx, path, formatName)
	if err != nil {
		return err
	}
	if err := e.graph.ImportSnapshot(g); err != nil {
		return err
	}
	snap := e.graph.Snapshot()
	nodes := make([]*types.Node, 0, len(snap.Nodes))
	for _, n := range snap.Nodes {
		nodes = append(nodes, n)
	}
	rels := make([]*types.Relationship, 0, len(snap.Rels))
	for _, r := range snap.Rels {
		rels = append(rels, r)
	}
	e.indexMgr.Rebuild(nodes, rels)
	_, err = e.graph.SaveGraph(ctx)
	return err
}

// RegisterFormat adds a caller-supplied (de)serializer to this
// engine's private format registry (spec §6 "Engine.register_format").
func (e *Engine) RegisterFormat(name string, save format.SaveFunc, load format.LoadFunc) {
	e.formats.Register(name, save, load)
}

func registerDefaultFormats(r *format.Registry) {
	for _, name := range format.Default().Names() {
		entry := name
		r.Register(entry,
			func(ctx context.Context, g *types.Graph, path string) error {
				return format.SaveToFile(ctx, g, path, entry)
			},
			func(ctx context.Context, path string) (*types.Graph, error) {
				return format.LoadFromFile(ctx, path, entry)
			},
		)
	}
}

// CreateIndex declares a new secondary index and immediately backfills
// it from the current graph (spec §6 "Engine.create_index(spec)").
func (e *Engine) CreateIndex(spec index.Spec) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.indexMgr.CreateIndex(spec); err != nil {
		return err
	}
	snap := e.graph.Snapshot()
	nodes := make([]*types.Node, 0, len(snap.Nodes))
	for _, n := range snap.Nodes {
		nodes = append(nodes, n)
	}
	rels := make([]*types.Relationship, 0, len(snap.Rels))
	for _, r := range snap.Rels {
		rels = append(rels, r)
	}
	e.indexMgr.Rebuild(nodes, rels)
	return nil
}

// DropIndex removes a previously declared index.
func (e *Engine) DropIndex(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.indexMgr.DropIndex(name)
}

// ListIndexes returns the names of every currently declared index.
func (e *Engine) ListIndexes() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.indexMgr.ListIndexes()
}

// VerifyWAL walks the write-ahead log's PrevCID chain and confirms
// every entry's recomputed CID matches what it's stored under (spec §6
// "wal verify").
func (e *Engine) VerifyWAL() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.log.VerifyIntegrity()
}

// CompactWAL forces an immediate compaction up to the current head,
// bypassing the commit-count threshold maybeCompactLocked normally
// waits for (spec §6 "wal compact").
func (e *Engine) CompactWAL() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	head, ok, err := e.log.Head()
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if err := e.log.Compact(head); err != nil {
		return err
	}
	e.commitsSinceCompact = 0
	return nil
}
