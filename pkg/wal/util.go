package wal

import (
	"encoding/binary"
	"fmt"

	cid "github.com/ipfs/go-cid"
)

func uint64Bytes(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func bytesUint64(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}

func errCycle(id cid.Cid) error {
	return fmt.Errorf("wal chain cycle detected at %s", id)
}

func errMissing(id cid.Cid) error {
	return fmt.Errorf("wal entry %s referenced but missing", id)
}
