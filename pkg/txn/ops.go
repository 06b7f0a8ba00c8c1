package txn

import "github.com/latticedb/lattice/pkg/types"

// The Add* helpers below are the ergonomic entry points pkg/engine
// uses to stage a mutation: they build the right Operation payload
// and route it through AddOperation so callers never construct a
// types.Operation by hand.

func (m *Manager) AddCreateNode(txID, nodeID string, labels []string, properties map[string]types.Value) error {
	return m.AddOperation(txID, types.Operation{
		Kind:     types.OpWriteNode,
		TargetID: nodeID,
		Payload:  encodeNodePayload(labels, properties),
	})
}

func (m *Manager) AddDeleteNode(txID, nodeID string) error {
	return m.AddOperation(txID, types.Operation{Kind: types.OpDeleteNode, TargetID: nodeID})
}

func (m *Manager) AddCreateRelationship(txID, relID, relType, sourceID, targetID string, properties map[string]types.Value) error {
	return m.AddOperation(txID, types.Operation{
		Kind:     types.OpWriteRel,
		TargetID: relID,
		Payload:  encodeRelPayload(relType, sourceID, targetID, properties),
	})
}

func (m *Manager) AddDeleteRelationship(txID, relID string) error {
	return m.AddOperation(txID, types.Operation{Kind: types.OpDeleteRel, TargetID: relID})
}

func (m *Manager) AddSetProperty(txID, nodeID string, patch map[string]types.Value) error {
	return m.AddOperation(txID, types.Operation{
		Kind:     types.OpSetProperty,
		TargetID: nodeID,
		Payload:  types.NewMap(patch),
	})
}
