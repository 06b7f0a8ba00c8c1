package block

import (
	"context"
	"encoding/json"
	"sync"

	cid "github.com/ipfs/go-cid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/latticedb/lattice/pkg/metrics"
	"github.com/latticedb/lattice/pkg/types"
)

const DefaultCacheCapacity = 1024

// Store puts/gets CID-addressed bytes through an LRU cache in front
// of a Backend. The cache is a pure optimization: every value it
// returns equals what the backend would have returned (spec
// invariant 6); len(cache) == 0 is never used as a proxy for "cache
// disabled" anywhere in this package — that affordance only applies
// at the call site, never baked into Store.
type Store struct {
	backend Backend
	mu      sync.Mutex
	cache   *lru.Cache[string, []byte]
}

// NewStore wraps backend with an LRU cache of the given capacity. A
// non-positive capacity falls back to DefaultCacheCapacity.
func NewStore(backend Backend, capacity int) (*Store, error) {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	cache, err := lru.New[string, []byte](capacity)
	if err != nil {
		return nil, types.NewConfigurationError("block.new_store", "cache.capacity must be a positive int", err)
	}
	return &Store{backend: backend, cache: cache}, nil
}

// Store hashes data as a raw block, writes it if absent, and caches
// it. Idempotent: calling it twice with the same bytes returns the
// same CID and performs one write.
func (s *Store) Store(ctx context.Context, data []byte) (cid.Cid, error) {
	id, err := DeriveCID(CodecRaw, data)
	if err != nil {
		return cid.Undef, types.NewSerializationError("block.store", err)
	}
	if err := s.backend.Put(ctx, id, data); err != nil {
		return cid.Undef, types.NewStorageError("block.store", err)
	}
	s.mu.Lock()
	s.cache.Add(id.KeyString(), data)
	s.mu.Unlock()
	return id, nil
}

// Retrieve returns the bytes for id, checking the cache first. A
// cache hit moves the entry to MRU (handled internally by the LRU
// implementation); a miss loads from the backend and populates the
// cache.
func (s *Store) Retrieve(ctx context.Context, id cid.Cid) ([]byte, error) {
	s.mu.Lock()
	if data, ok := s.cache.Get(id.KeyString()); ok {
		s.mu.Unlock()
		metrics.CacheHitsTotal.Inc()
		return data, nil
	}
	s.mu.Unlock()
	metrics.CacheMissesTotal.Inc()

	data, err := s.backend.Get(ctx, id)
	if err != nil {
		return nil, err // already a typed *types.EngineError from the backend
	}
	s.mu.Lock()
	s.cache.Add(id.KeyString(), data)
	s.mu.Unlock()
	return data, nil
}

// StoreJSON marshals v as JSON and stores it as a block tagged with
// the JSON codec.
func (s *Store) StoreJSON(ctx context.Context, v types.Value) (cid.Cid, error) {
	jv, err := types.ToJSON(v)
	if err != nil {
		return cid.Undef, types.NewSerializationError("block.store_json", err)
	}
	data, err := json.Marshal(jv)
	if err != nil {
		return cid.Undef, types.NewSerializationError("block.store_json", err)
	}
	id, err := DeriveCID(CodecJSON, data)
	if err != nil {
		return cid.Undef, types.NewSerializationError("block.store_json", err)
	}
	if err := s.backend.Put(ctx, id, data); err != nil {
		return cid.Undef, types.NewStorageError("block.store_json", err)
	}
	s.mu.Lock()
	s.cache.Add(id.KeyString(), data)
	s.mu.Unlock()
	return id, nil
}

// RetrieveJSON loads and decodes a JSON block back into a Value.
func (s *Store) RetrieveJSON(ctx context.Context, id cid.Cid) (types.Value, error) {
	data, err := s.Retrieve(ctx, id)
	if err != nil {
		return types.Null, err
	}
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return types.Null, types.NewDeserializationError("block.retrieve_json", err)
	}
	v, err := types.FromJSON(raw)
	if err != nil {
		return types.Null, types.NewDeserializationError("block.retrieve_json", err)
	}
	return v, nil
}

// Pin and Unpin forward retention hints to the backend; both are
// idempotent.
func (s *Store) Pin(ctx context.Context, id cid.Cid) error   { return s.backend.Pin(ctx, id) }
func (s *Store) Unpin(ctx context.Context, id cid.Cid) error { return s.backend.Unpin(ctx, id) }

// GetHead and SetHead expose the mutable named pointer to the current
// manifest CID for a graph (spec §3 "Head").
func (s *Store) GetHead(ctx context.Context, name string) (cid.Cid, bool, error) {
	return s.backend.GetHead(ctx, name)
}

func (s *Store) SetHead(ctx context.Context, name string, id cid.Cid) error {
	return s.backend.SetHead(ctx, name, id)
}

func (s *Store) Close() error { return s.backend.Close() }
