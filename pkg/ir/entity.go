package ir

import (
	"github.com/latticedb/lattice/pkg/expr"
	"github.com/latticedb/lattice/pkg/types"
)

// Bound nodes/relationships carry their identity alongside their
// properties inside one expr.Value map, under these reserved keys.
// pkg/expr.PropertyAccess reads straight through them like any other
// map key, so `n.name` and `n._id` share one code path (pkg/expr has
// no id() function).
const (
	keyID     = "_id"
	keyLabels = "_labels"
	keyType   = "_type"
	keySource = "_source"
	keyTarget = "_target"
)

func nodeToValue(n *types.Node) types.Value {
	m := types.CloneMap(n.Properties)
	m[keyID] = types.NewString(n.ID)
	labels := make([]types.Value, len(n.Labels))
	for i, l := range n.Labels {
		labels[i] = types.NewString(l)
	}
	m[keyLabels] = types.NewList(labels)
	return types.NewMap(m)
}

func relToValue(r *types.Relationship) types.Value {
	m := types.CloneMap(r.Properties)
	m[keyID] = types.NewString(r.ID)
	m[keyType] = types.NewString(r.Type)
	m[keySource] = types.NewString(r.SourceID)
	m[keyTarget] = types.NewString(r.TargetID)
	return types.NewMap(m)
}

// isRelationshipValue distinguishes a bound relationship from a bound
// node: only a relationship carries _type.
func isRelationshipValue(v types.Value) bool {
	_, ok := v.Map[keyType]
	return ok
}

func entityID(v types.Value) string {
	if id, ok := v.Map[keyID]; ok {
		return id.Str
	}
	return ""
}

func nodeLabels(v types.Value) []string {
	lv, ok := v.Map[keyLabels]
	if !ok {
		return nil
	}
	out := make([]string, len(lv.List))
	for i, e := range lv.List {
		out[i] = e.Str
	}
	return out
}

// propertiesOnly strips the reserved bookkeeping keys, leaving just
// the user-visible properties — what tx.AddCreateNode/AddCreateRelationship
// expect to persist.
func propertiesOnly(v types.Value) map[string]types.Value {
	out := map[string]types.Value{}
	for k, val := range v.Map {
		switch k {
		case keyID, keyLabels, keyType, keySource, keyTarget:
			continue
		default:
			out[k] = val
		}
	}
	return out
}

func evalProperties(exprs map[string]expr.Expr, row expr.Row) map[string]types.Value {
	out := make(map[string]types.Value, len(exprs))
	for k, e := range exprs {
		out[k] = expr.Evaluate(e, row)
	}
	return out
}
