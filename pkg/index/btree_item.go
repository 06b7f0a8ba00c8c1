package index

import (
	"github.com/google/btree"

	"github.com/latticedb/lattice/pkg/types"
)

// propertyItem is one (value, entityID) pair stored in a property
// B-tree. Ordering by value first means a range scan over the tree
// visits keys in value order, with entries sharing a value broken by
// id so duplicates (non-unique indexes) still have a deterministic
// position.
type propertyItem struct {
	value types.Value
	id    string
}

func (a propertyItem) Less(than btree.Item) bool {
	b := than.(propertyItem)
	if c := compareValues(a.value, b.value); c != 0 {
		return c < 0
	}
	return a.id < b.id
}

// compositeItem is the same idea over a fixed-width tuple of values,
// for composite (label, [p1..pn]) indexes.
type compositeItem struct {
	values []types.Value
	id     string
}

func (a compositeItem) Less(than btree.Item) bool {
	b := than.(compositeItem)
	if c := compareTuples(a.values, b.values); c != 0 {
		return c < 0
	}
	return a.id < b.id
}
