package block

import (
	"context"

	cid "github.com/ipfs/go-cid"
)

// Backend is the pluggable storage underneath the block store: local
// filesystem (BoltBackend), in-memory (MemoryBackend), or — per spec
// §4.A — a content-addressed network store a caller wires in.
//
// GetHead/SetHead implement the mutable named pointer (Head, spec
// §3) a graph's manifest CID is published under. Heads live beside
// the immutable blocks but are not themselves content-addressed.
type Backend interface {
	Has(ctx context.Context, id cid.Cid) (bool, error)
	Put(ctx context.Context, id cid.Cid, data []byte) error
	Get(ctx context.Context, id cid.Cid) ([]byte, error)
	Pin(ctx context.Context, id cid.Cid) error
	Unpin(ctx context.Context, id cid.Cid) error
	GetHead(ctx context.Context, name string) (cid.Cid, bool, error)
	SetHead(ctx context.Context, name string, id cid.Cid) error
	Close() error
}
