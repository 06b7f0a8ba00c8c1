package index

import "github.com/latticedb/lattice/pkg/types"

// compareValues imposes a total order over Value so mixed-kind
// entries can still coexist in one B-tree without colliding: values
// of the same comparable kind order by that kind's natural order;
// values of differing kinds fall back to ordering by Kind itself so
// the order is still total (and therefore safe to use as a btree
// key), even though it carries no semantic meaning across kinds.
func compareValues(a, b types.Value) int {
	if a.Kind == types.KindInt && b.Kind == types.KindFloat {
		return compareFloat(float64(a.Int), b.Float)
	}
	if a.Kind == types.KindFloat && b.Kind == types.KindInt {
		return compareFloat(a.Float, float64(b.Int))
	}
	if a.Kind != b.Kind {
		if a.Kind < b.Kind {
			return -1
		}
		return 1
	}
	switch a.Kind {
	case types.KindNull:
		return 0
	case types.KindBool:
		return compareBool(a.Bool, b.Bool)
	case types.KindInt:
		return compareInt(a.Int, b.Int)
	case types.KindFloat:
		return compareFloat(a.Float, b.Float)
	case types.KindString:
		return compareString(a.Str, b.Str)
	case types.KindBytes:
		return compareString(string(a.Bytes), string(b.Bytes))
	default:
		// Lists/maps have no natural order; fall back to a stable but
		// arbitrary comparison by rendered string so the tree stays
		// well-formed.
		return compareString(a.String(), b.String())
	}
}

func compareBool(a, b bool) int {
	if a == b {
		return 0
	}
	if !a {
		return -1
	}
	return 1
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// compareTuples compares two equal-length value tuples lexicographically.
func compareTuples(a, b []types.Value) int {
	for i := range a {
		if c := compareValues(a[i], b[i]); c != 0 {
			return c
		}
	}
	return 0
}
