package block

import (
	"context"
	"sync"

	cid "github.com/ipfs/go-cid"
	"github.com/latticedb/lattice/pkg/types"
)

// MemoryBackend is an in-process Backend, used for tests and
// ephemeral graphs that never call save()/load() against a file.
type MemoryBackend struct {
	mu     sync.RWMutex
	blocks map[string][]byte
	pinned map[string]bool
	heads  map[string]cid.Cid
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{blocks: map[string][]byte{}, pinned: map[string]bool{}, heads: map[string]cid.Cid{}}
}

func (m *MemoryBackend) GetHead(_ context.Context, name string) (cid.Cid, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.heads[name]
	return id, ok, nil
}

func (m *MemoryBackend) SetHead(_ context.Context, name string, id cid.Cid) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.heads[name] = id
	return nil
}

func (m *MemoryBackend) Has(_ context.Context, id cid.Cid) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.blocks[id.KeyString()]
	return ok, nil
}

func (m *MemoryBackend) Put(_ context.Context, id cid.Cid, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blocks[id.KeyString()]; ok {
		return nil // idempotent
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	m.blocks[id.KeyString()] = cp
	return nil
}

func (m *MemoryBackend) Get(_ context.Context, id cid.Cid) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.blocks[id.KeyString()]
	if !ok {
		return nil, types.NewNotFoundError("block.get", DisplayString(id))
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

func (m *MemoryBackend) Pin(_ context.Context, id cid.Cid) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pinned[id.KeyString()] = true
	return nil
}

func (m *MemoryBackend) Unpin(_ context.Context, id cid.Cid) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pinned, id.KeyString())
	return nil
}

func (m *MemoryBackend) Close() error { return nil }
