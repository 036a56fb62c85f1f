// Package parallel implements a bulk-ingest parallel kernel: the same
// for/map/gather/scatter/filter primitives used by batch builders to process
// large input arrays, each with a single-thread fallback and a
// multi-thread backend. Synchronization between workers is join-only: a
// Kernel call partitions work into T+1 near-equal-sized chunks, runs every
// chunk on its own spawned goroutine while the caller waits at the join, and
// merges only the per-worker scratch each call explicitly returns. The
// caller itself processes no chunk.
package parallel

import (
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Kernel holds the threading policy shared by every call in this package.
type Kernel struct {
	threads   int
	threshold int
}

// Option configures a Kernel, following the corpus's functional-options idiom.
type Option func(*Kernel)

// WithThreads overrides the worker count (default runtime.GOMAXPROCS(0)-1,
// floored at 0 — 0 means every call runs single-threaded).
func WithThreads(n int) Option {
	return func(k *Kernel) {
		if n < 0 {
			n = 0
		}
		k.threads = n
	}
}

// WithThreshold sets the minimum element count below which a call always
// runs single-threaded regardless of WithThreads, avoiding goroutine
// spin-up overhead on small batches.
func WithThreshold(n int) Option {
	return func(k *Kernel) {
		if n < 1 {
			n = 1
		}
		k.threshold = n
	}
}

// New builds a Kernel. The default threading policy uses GOMAXPROCS-1
// worker goroutines and a threshold of 4096 elements.
func New(opts ...Option) *Kernel {
	k := &Kernel{threads: runtime.GOMAXPROCS(0) - 1, threshold: 4096}
	if k.threads < 0 {
		k.threads = 0
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// multiThread reports whether a call over n elements should use the
// multi-thread backend.
func (k *Kernel) multiThread(n int) bool {
	return k.threads > 0 && n >= k.threshold
}

// chunks partitions [0,n) into k.threads+1 near-equal-sized, contiguous
// ranges; multi-threaded calls run each range on its own goroutine.
func (k *Kernel) chunks(n int) [][2]int {
	parts := k.threads + 1
	size := n / parts
	rem := n % parts
	out := make([][2]int, 0, parts)
	start := 0
	for i := 0; i < parts; i++ {
		end := start + size
		if i < rem {
			end++
		}
		if end > start {
			out = append(out, [2]int{start, end})
		}
		start = end
	}
	return out
}

// For invokes body(i) for every i in [0,n), in order when run
// single-threaded and with no ordering guarantee across chunks when run
// multi-threaded (the chunk itself is always processed in order). A worker
// error aborts the remaining iterations of its own chunk and is joined via a
// fail-fast mailbox: the first error observed across all chunks is returned,
// wrapped with its origin stack trace.
func (k *Kernel) For(n int, body func(i int) error) error {
	if n <= 0 {
		return nil
	}
	if !k.multiThread(n) {
		for i := 0; i < n; i++ {
			if err := body(i); err != nil {
				return errors.Wrapf(err, "parallel: for: index %d", i)
			}
		}
		return nil
	}

	var g errgroup.Group
	for _, c := range k.chunks(n) {
		lo, hi := c[0], c[1]
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := body(i); err != nil {
					return errors.Wrapf(err, "parallel: for: index %d", i)
				}
			}
			return nil
		})
	}
	return g.Wait()
}
