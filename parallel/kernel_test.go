package parallel_test

import (
	"sort"
	"sync"
	"testing"

	"github.com/jakson-labs/carbon/parallel"
)

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestForSingleAndMultiThread(t *testing.T) {
	for _, k := range []*parallel.Kernel{
		parallel.New(parallel.WithThreads(0)),
		parallel.New(parallel.WithThreads(4), parallel.WithThreshold(1)),
	} {
		seen := make([]bool, 1000)
		var mu sync.Mutex
		err := k.For(1000, func(i int) error {
			mu.Lock()
			seen[i] = true
			mu.Unlock()
			return nil
		})
		if err != nil {
			t.Fatalf("For: %v", err)
		}
		for i, v := range seen {
			if !v {
				t.Fatalf("index %d never visited", i)
			}
		}
	}
}

func TestMapPreservesOrder(t *testing.T) {
	k := parallel.New(parallel.WithThreads(4), parallel.WithThreshold(1))
	in := seq(500)
	out := parallel.Map(k, in, func(v int) int { return v * 2 })
	for i, v := range out {
		if v != i*2 {
			t.Fatalf("out[%d] = %d, want %d", i, v, i*2)
		}
	}
}

func TestGatherScatterRoundTrip(t *testing.T) {
	k := parallel.New(parallel.WithThreads(4), parallel.WithThreshold(1))
	src := seq(100)
	positions := []int{99, 0, 50, 1}

	got, err := parallel.Gather(k, src, positions)
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	want := []int{99, 0, 50, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Gather[%d] = %d, want %d", i, got[i], want[i])
		}
	}

	dst := make([]int, 100)
	if err := parallel.Scatter(k, dst, positions, []int{1, 2, 3, 4}); err != nil {
		t.Fatalf("Scatter: %v", err)
	}
	if dst[99] != 1 || dst[0] != 2 || dst[50] != 3 || dst[1] != 4 {
		t.Fatalf("scatter did not land values at positions: %v", dst[:60])
	}
}

func TestGatherOutOfBounds(t *testing.T) {
	k := parallel.New(parallel.WithThreads(0))
	_, err := parallel.Gather(k, []int{1, 2, 3}, []int{5})
	if err == nil {
		t.Fatalf("Gather: want out-of-bounds error")
	}
}

func TestShuffleIsGatherByPermutation(t *testing.T) {
	k := parallel.New(parallel.WithThreads(4), parallel.WithThreshold(1))
	src := []string{"a", "b", "c", "d"}
	perm := []int{3, 2, 1, 0}
	out, err := parallel.Shuffle(k, src, perm)
	if err != nil {
		t.Fatalf("Shuffle: %v", err)
	}
	want := []string{"d", "c", "b", "a"}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("Shuffle[%d] = %q, want %q", i, out[i], want[i])
		}
	}
}

func TestFilterEarlyPreservesOrder(t *testing.T) {
	k := parallel.New(parallel.WithThreads(4), parallel.WithThreshold(1))
	in := seq(200)
	out := parallel.FilterEarly(k, in, func(v int) bool { return v%3 == 0 })
	for i := 1; i < len(out); i++ {
		if out[i] <= out[i-1] {
			t.Fatalf("FilterEarly broke input order at %d: %v", i, out[i-5:i+5])
		}
	}
	if len(out) != 67 {
		t.Fatalf("FilterEarly count = %d, want 67", len(out))
	}
}

func TestFilterLateFindsEveryMatch(t *testing.T) {
	k := parallel.New(parallel.WithThreads(3), parallel.WithThreshold(1))
	n := 400
	out := parallel.FilterLate(k, n, func(i int) bool { return i%7 == 0 })

	var want []int
	for i := 0; i < n; i++ {
		if i%7 == 0 {
			want = append(want, i)
		}
	}

	gotSorted := append([]int(nil), out...)
	sort.Ints(gotSorted)
	if len(gotSorted) != len(want) {
		t.Fatalf("FilterLate count = %d, want %d", len(gotSorted), len(want))
	}
	for i := range want {
		if gotSorted[i] != want[i] {
			t.Fatalf("FilterLate result set mismatch at %d: got %d want %d", i, gotSorted[i], want[i])
		}
	}
}
