package wal

import (
	"encoding/json"

	cid "github.com/ipfs/go-cid"

	"github.com/latticedb/lattice/pkg/types"
)

type opJSON struct {
	Kind     string      `json:"kind"`
	TargetID string      `json:"target_id"`
	Payload  interface{} `json:"payload"`
}

type entryJSON struct {
	TxID       string   `json:"tx_id"`
	State      string   `json:"state"`
	Timestamp  int64    `json:"timestamp"`
	PrevCID    string   `json:"prev_cid,omitempty"`
	Operations []opJSON `json:"operations"`
}

func encodeEntry(e *types.WALEntry) ([]byte, error) {
	ops := make([]opJSON, len(e.Operations))
	for i, op := range e.Operations {
		jv, err := types.ToJSON(op.Payload)
		if err != nil {
			return nil, err
		}
		ops[i] = opJSON{Kind: string(op.Kind), TargetID: op.TargetID, Payload: jv}
	}
	var prev string
	if e.PrevCID.Defined() {
		prev = e.PrevCID.String()
	}
	return json.Marshal(entryJSON{
		TxID:       e.TxID,
		State:      string(e.State),
		Timestamp:  e.Timestamp,
		PrevCID:    prev,
		Operations: ops,
	})
}

func decodeEntry(data []byte) (*types.WALEntry, error) {
	var ej entryJSON
	if err := json.Unmarshal(data, &ej); err != nil {
		return nil, err
	}
	ops := make([]types.Operation, len(ej.Operations))
	for i, op := range ej.Operations {
		v, err := types.FromJSON(op.Payload)
		if err != nil {
			return nil, err
		}
		ops[i] = types.Operation{Kind: types.OperationKind(op.Kind), TargetID: op.TargetID, Payload: v}
	}
	var prev cid.Cid
	if ej.PrevCID != "" {
		c, err := cid.Decode(ej.PrevCID)
		if err != nil {
			return nil, err
		}
		prev = c
	}
	return &types.WALEntry{
		TxID:       ej.TxID,
		State:      types.TxState(ej.State),
		Timestamp:  ej.Timestamp,
		PrevCID:    prev,
		Operations: ops,
	}, nil
}
