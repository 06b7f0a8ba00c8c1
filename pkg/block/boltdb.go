package block

import (
	"context"
	"fmt"
	"path/filepath"

	cid "github.com/ipfs/go-cid"
	bolt "go.etcd.io/bbolt"

	"github.com/latticedb/lattice/pkg/types"
)

var (
	bucketBlocks = []byte("blocks")
	bucketPins   = []byte("pins")
	bucketHeads  = []byte("heads")
)

// BoltBackend is a Backend on top of a local bbolt file, following
// the teacher's BoltStore shape: one bucket for the blocks themselves,
// one for pin hints and one for named heads, opened once at
// construction.
type BoltBackend struct {
	db *bolt.DB
}

// NewBoltBackend opens (creating if absent) a bbolt-backed block
// store under dataDir/blocks.db.
func NewBoltBackend(dataDir string) (*BoltBackend, error) {
	dbPath := filepath.Join(dataDir, "blocks.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, types.NewStorageError("block.open", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketBlocks, bucketPins, bucketHeads} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, types.NewStorageError("block.open", err)
	}

	return &BoltBackend{db: db}, nil
}

func (b *BoltBackend) Has(_ context.Context, id cid.Cid) (bool, error) {
	var found bool
	err := b.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(bucketBlocks).Get(id.Bytes()) != nil
		return nil
	})
	return found, err
}

func (b *BoltBackend) Put(_ context.Context, id cid.Cid, data []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketBlocks)
		if bucket.Get(id.Bytes()) != nil {
			return nil // idempotent
		}
		return bucket.Put(id.Bytes(), data)
	})
}

func (b *BoltBackend) Get(_ context.Context, id cid.Cid) ([]byte, error) {
	var out []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketBlocks).Get(id.Bytes())
		if data == nil {
			return types.NewNotFoundError("block.get", DisplayString(id))
		}
		out = make([]byte, len(data))
		copy(out, data)
		return nil
	})
	return out, err
}

func (b *BoltBackend) Pin(_ context.Context, id cid.Cid) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPins).Put(id.Bytes(), []byte{1})
	})
}

func (b *BoltBackend) Unpin(_ context.Context, id cid.Cid) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPins).Delete(id.Bytes())
	})
}

func (b *BoltBackend) GetHead(_ context.Context, name string) (cid.Cid, bool, error) {
	var id cid.Cid
	var found bool
	err := b.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketHeads).Get([]byte(name))
		if data == nil {
			return nil
		}
		parsed, err := cid.Cast(data)
		if err != nil {
			return types.NewDeserializationError("block.get_head", err)
		}
		id, found = parsed, true
		return nil
	})
	return id, found, err
}

func (b *BoltBackend) SetHead(_ context.Context, name string, id cid.Cid) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketHeads).Put([]byte(name), id.Bytes())
	})
}

func (b *BoltBackend) Close() error {
	return b.db.Close()
}
