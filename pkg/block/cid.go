package block

import (
	cid "github.com/ipfs/go-cid"
	mbase "github.com/multiformats/go-multibase"
	mh "github.com/multiformats/go-multihash"
)

// Codec selects the multicodec tag embedded in a derived CID so a
// reader can tell a raw block from a DAG-CBOR block without opening
// it.
const (
	CodecRaw    = cid.Raw
	CodecDagCBOR = cid.DagCBOR
	CodecJSON    = cid.Json
)

// DeriveCID computes the deterministic CIDv1 for a block's bytes
// under the given codec. Equal bytes under the same codec always
// produce the equal CID (spec invariant 5).
func DeriveCID(codec uint64, data []byte) (cid.Cid, error) {
	sum, err := mh.Sum(data, mh.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(codec, sum), nil
}

// DisplayString renders a CID using explicit base32 multibase
// encoding, for logs and CLI output where a stable, human-typeable
// form matters more than whatever default the cid package picks.
func DisplayString(c cid.Cid) string {
	s, err := mbase.Encode(mbase.Base32, c.Bytes())
	if err != nil {
		return c.String()
	}
	return s
}

// ParseCID parses a CID from its string form (either the cid
// package's default encoding or a multibase-prefixed string from
// DisplayString).
func ParseCID(s string) (cid.Cid, error) {
	return cid.Decode(s)
}
