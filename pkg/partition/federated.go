package partition

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"errors"
	"sort"

	"github.com/latticedb/lattice/pkg/engine"
	"github.com/latticedb/lattice/pkg/types"
)

var errNoShards = errors.New("partition: no shards configured")

// Federated fans a query out to a fixed set of local engines and
// merges the results, deduping rows that came back from more than one
// shard. It does not own or close the engines it wraps.
//
// The fan-out shape mirrors pkg/engine.ExecuteAsync/Future: one
// goroutine per shard, collected over a channel, rather than a
// shared-state worker pool.
type Federated struct {
	shards []*engine.Engine
}

// NewFederated wraps a fixed slice of engines for federated execution.
func NewFederated(shards []*engine.Engine) *Federated {
	return &Federated{shards: shards}
}

type shardResult struct {
	index  int
	result engine.Result
	err    error
}

// Execute runs query against every shard concurrently and returns the
// deduped union of their rows. Columns are taken from the
// lowest-indexed shard that returned without error; a shard whose
// columns don't match is treated as
// contributing no rows rather than failing the whole call, since a
// partially-unavailable shard shouldn't abort federation per spec §5's
// "federation tolerates partial shard failure" note.
func (f *Federated) Execute(ctx context.Context, query string, params map[string]types.Value, isolation types.IsolationLevel) (engine.Result, error) {
	if len(f.shards) == 0 {
		return engine.Result{}, types.NewValidationError("partition.federated.execute", errNoShards)
	}

	ch := make(chan shardResult, len(f.shards))
	for i, shard := range f.shards {
		go func(i int, shard *engine.Engine) {
			res, err := shard.Execute(ctx, query, params, isolation)
			ch <- shardResult{index: i, result: res, err: err}
		}(i, shard)
	}

	results := make([]shardResult, len(f.shards))
	for range f.shards {
		sr := <-ch
		results[sr.index] = sr
	}

	var columns []string
	var firstErr error
	seen := map[string]struct{}{}
	var rows [][]types.Value
	var totalDuration int64
	var stats engine.Stats

	for _, sr := range results {
		if sr.err != nil {
			if firstErr == nil {
				firstErr = sr.err
			}
			continue
		}
		if columns == nil {
			columns = sr.result.Columns
		} else if !columnsEqual(columns, sr.result.Columns) {
			continue
		}
		totalDuration += sr.result.Summary.DurationMillis
		stats.NodesCreated += sr.result.Summary.Stats.NodesCreated
		stats.RelsCreated += sr.result.Summary.Stats.RelsCreated
		stats.PropertiesSet += sr.result.Summary.Stats.PropertiesSet

		for _, row := range sr.result.Rows {
			key, err := fingerprint(columns, row)
			if err != nil {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			rows = append(rows, row)
		}
	}

	if columns == nil {
		if firstErr != nil {
			return engine.Result{}, firstErr
		}
		return engine.Result{}, nil
	}

	return engine.Result{
		Columns: columns,
		Rows:    rows,
		Summary: engine.Summary{
			DurationMillis: totalDuration,
			Stats:          stats,
		},
	}, nil
}

func columnsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// fingerprint produces a stable SHA-1 digest of a row's canonical JSON
// form, keyed by column name so field order can't change the hash.
func fingerprint(columns []string, row []types.Value) (string, error) {
	obj := make(map[string]interface{}, len(columns))
	for i, col := range columns {
		if i >= len(row) {
			continue
		}
		v, err := types.ToJSON(row[i])
		if err != nil {
			return "", err
		}
		obj[col] = v
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ordered := make([]interface{}, 0, len(keys)*2)
	for _, k := range keys {
		ordered = append(ordered, k, obj[k])
	}
	data, err := json.Marshal(ordered)
	if err != nil {
		return "", err
	}
	sum := sha1.Sum(data)
	return string(sum[:]), nil
}
