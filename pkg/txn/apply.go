package txn

import (
	"github.com/latticedb/lattice/pkg/graph"
	"github.com/latticedb/lattice/pkg/types"
)

// applyOperation dispatches one buffered operation onto the graph
// engine. WRITE_NODE/WRITE_REL use upsert semantics so replaying a
// COMMITTED transaction's operations any number of times (spec §5
// recovery guarantee) converges to the same state rather than
// erroring on a duplicate id.
func applyOperation(g *graph.Engine, op types.Operation) error {
	switch op.Kind {
	case types.OpWriteNode:
		labels, properties := decodeNodePayload(op.Payload)
		return g.UpsertNode(op.TargetID, labels, properties)
	case types.OpDeleteNode:
		return g.DeleteNode(op.TargetID)
	case types.OpWriteRel:
		relType, source, target, properties := decodeRelPayload(op.Payload)
		return g.UpsertRelationship(op.TargetID, relType, source, target, properties)
	case types.OpDeleteRel:
		return g.DeleteRelationship(op.TargetID)
	case types.OpSetProperty:
		patch := op.Payload.Map
		return g.UpdateNode(op.TargetID, patch)
	default:
		return types.NewValidationError("txn.apply", errUnknownOperation(op.Kind))
	}
}

// encodeNodePayload/decodeNodePayload pack a node's labels and
// properties into the single Value an Operation carries.
func encodeNodePayload(labels []string, properties map[string]types.Value) types.Value {
	labelValues := make([]types.Value, len(labels))
	for i, l := range labels {
		labelValues[i] = types.NewString(l)
	}
	return types.NewMap(map[string]types.Value{
		"labels":     types.NewList(labelValues),
		"properties": types.NewMap(properties),
	})
}

func decodeNodePayload(v types.Value) ([]string, map[string]types.Value) {
	if v.Kind != types.KindMap {
		return nil, nil
	}
	var labels []string
	if lv, ok := v.Map["labels"]; ok {
		for _, e := range lv.List {
			labels = append(labels, e.Str)
		}
	}
	properties := map[string]types.Value{}
	if pv, ok := v.Map["properties"]; ok {
		properties = pv.Map
	}
	return labels, properties
}

func encodeRelPayload(relType, source, target string, properties map[string]types.Value) types.Value {
	return types.NewMap(map[string]types.Value{
		"type":       types.NewString(relType),
		"source":     types.NewString(source),
		"target":     types.NewString(target),
		"properties": types.NewMap(properties),
	})
}

func decodeRelPayload(v types.Value) (relType, source, target string, properties map[string]types.Value) {
	if v.Kind != types.KindMap {
		return "", "", "", nil
	}
	relType = v.Map["type"].Str
	source = v.Map["source"].Str
	target = v.Map["target"].Str
	properties = map[string]types.Value{}
	if pv, ok := v.Map["properties"]; ok {
		properties = pv.Map
	}
	return relType, source, target, properties
}
