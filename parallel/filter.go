package parallel

import (
	"github.com/bits-and-blooms/bitset"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/cpu"
)

// FilterEarly returns the elements of src for which pred holds, in their
// original relative order (a stable partition). The predicate is evaluated
// for every element under k's threading policy; the order-preserving
// compaction itself is sequential, since reordering is exactly what
// FilterEarly must not do.
func FilterEarly[T any](k *Kernel, src []T, pred func(T) bool) []T {
	keep := make([]bool, len(src))
	_ = k.For(len(src), func(i int) error {
		keep[i] = pred(src[i])
		return nil
	})

	out := make([]T, 0, len(src))
	for i, v := range src {
		if keep[i] {
			out = append(out, v)
		}
	}
	return out
}

// segmentScratch is one worker's accumulated match positions for its chunk.
// The CacheLinePad field keeps adjacent workers' scratch entries on
// different cache lines — the only per-worker state FilterLate carries
// across the join, per the kernel's join-only synchronization model.
type segmentScratch struct {
	bits  *bitset.BitSet
	lo    int
	width int
	_     cpu.CacheLinePad
}

// FilterLate returns the indices in [0,n) for which pred holds, grouped by
// thread segment rather than globally sorted: each of the kernel's T+1
// chunks contributes its matches as a contiguous run, in chunk order. pred
// receives the global index, so a caller needing a different base offset
// can simply close over it.
func FilterLate(k *Kernel, n int, pred func(i int) bool) []int {
	if n <= 0 {
		return nil
	}
	if !k.multiThread(n) {
		out := make([]int, 0, n)
		for i := 0; i < n; i++ {
			if pred(i) {
				out = append(out, i)
			}
		}
		return out
	}

	chunks := k.chunks(n)
	scratch := make([]segmentScratch, len(chunks))
	for ci, c := range chunks {
		scratch[ci] = segmentScratch{bits: bitset.New(uint(c[1] - c[0])), lo: c[0], width: c[1] - c[0]}
	}

	var g errgroup.Group
	for ci, c := range chunks {
		ci, lo, hi := ci, c[0], c[1]
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if pred(i) {
					scratch[ci].bits.Set(uint(i - lo))
				}
			}
			return nil
		})
	}
	_ = g.Wait() // pred returns no error, so no goroutine can fail

	out := make([]int, 0, n)
	for _, s := range scratch {
		for j := 0; j < s.width; j++ {
			if s.bits.Test(uint(j)) {
				out = append(out, s.lo+j)
			}
		}
	}
	return out
}
