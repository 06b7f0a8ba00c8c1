package partition

import "testing"

func TestHashPartitionerStable(t *testing.T) {
	p := New(Hash)
	a := p.Assign("node-1", 4)
	b := p.Assign("node-1", 4)
	if a != b {
		t.Fatalf("Assign not stable: %d != %d", a, b)
	}
	if a < 0 || a >= 4 {
		t.Fatalf("Assign out of range: %d", a)
	}
}

func TestHashPartitionerSpreads(t *testing.T) {
	p := New(Hash)
	seen := map[int]bool{}
	for i := 0; i < 64; i++ {
		seen[p.Assign(string(rune('a'+i%26))+string(rune(i)), 8)] = true
	}
	if len(seen) < 2 {
		t.Fatalf("expected Assign to spread across buckets, got %v", seen)
	}
}

func TestRangePartitionerBounds(t *testing.T) {
	p := New(Range)
	for _, key := range []string{"a", "m", "z", "", "A"} {
		got := p.Assign(key, 4)
		if got < 0 || got >= 4 {
			t.Fatalf("Assign(%q, 4) = %d out of range", key, got)
		}
	}
}

func TestRoundRobinPartitionerCycles(t *testing.T) {
	p := New(RoundRobin)
	var got []int
	for i := 0; i < 6; i++ {
		got = append(got, p.Assign("ignored", 3))
	}
	want := []int{0, 1, 2, 0, 1, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sequence = %v, want %v", got, want)
		}
	}
}

func TestUnknownKindFallsBackToHash(t *testing.T) {
	p := New(Kind("bogus"))
	if _, ok := p.(hashPartitioner); !ok {
		t.Fatalf("New(bogus) = %T, want hashPartitioner", p)
	}
}

func TestZeroShardsAssignsZero(t *testing.T) {
	for _, kind := range []Kind{Hash, Range, RoundRobin} {
		p := New(kind)
		if got := p.Assign("k", 0); got != 0 {
			t.Fatalf("%s.Assign(k, 0) = %d, want 0", kind, got)
		}
	}
}
