package main

import (
	"errors"
	"testing"

	"github.com/latticedb/lattice/pkg/types"
)

func TestExitCodeFor(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"plain error", errors.New("boom"), 1},
		{"validation", types.NewValidationError("op", errors.New("bad")), 2},
		{"unsupported format", types.NewUnsupportedFormatError("op", errors.New("bad")), 2},
		{"storage", types.NewStorageError("op", errors.New("disk")), 3},
		{"not found", types.NewNotFoundError("op", "n1"), 3},
		{"aborted", types.NewTransactionAbortedError("op", "tx1", errors.New("cause")), 4},
		{"conflict", types.NewConflictError("op", "tx1"), 4},
		{"parse", types.NewParseError("op", errors.New("syntax")), 5},
		{"compile", types.NewCompileError("op", errors.New("bad ir")), 5},
		{"timeout", types.NewQueryTimeoutError("op"), 64},
		{"cancelled", types.NewCancelledError("op"), 130},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := exitCodeFor(tc.err); got != tc.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tc.err, got, tc.want)
			}
		})
	}
}

func TestIsolationLevel(t *testing.T) {
	cases := map[string]types.IsolationLevel{
		"":                "",
		"bogus":           "",
		"READ_COMMITTED":  types.ReadCommitted,
		"REPEATABLE_READ": types.RepeatableRead,
		"SERIALIZABLE":    types.Serializable,
	}
	for in, want := range cases {
		if got := isolationLevel(in); got != want {
			t.Errorf("isolationLevel(%q) = %q, want %q", in, got, want)
		}
	}
}
