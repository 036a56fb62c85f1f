package parallel

import "github.com/pkg/errors"

// Map applies f to every element of in, preserving order, using k's
// threading policy.
func Map[T, R any](k *Kernel, in []T, f func(T) R) []R {
	out := make([]R, len(in))
	_ = k.For(len(in), func(i int) error {
		out[i] = f(in[i])
		return nil
	})
	return out
}

// Gather reads src at each of positions and returns the collected values in
// positions' order — the read-side half of the gather/scatter decomposition.
func Gather[T any](k *Kernel, src []T, positions []int) ([]T, error) {
	out := make([]T, len(positions))
	err := k.For(len(positions), func(i int) error {
		p := positions[i]
		if p < 0 || p >= len(src) {
			return errors.Errorf("parallel: gather: position %d out of bounds (len %d)", p, len(src))
		}
		out[i] = src[p]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GatherAddr is Gather's address-returning counterpart: it yields a pointer
// into src for each position instead of copying the value, for callers that
// need to mutate the source slot in place afterward.
func GatherAddr[T any](k *Kernel, src []T, positions []int) ([]*T, error) {
	out := make([]*T, len(positions))
	err := k.For(len(positions), func(i int) error {
		p := positions[i]
		if p < 0 || p >= len(src) {
			return errors.Errorf("parallel: gather_addr: position %d out of bounds (len %d)", p, len(src))
		}
		out[i] = &src[p]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Scatter is gather's dual: it writes values[i] into dst[positions[i]] for
// every i. Positions must be pairwise distinct; Scatter does not detect
// write collisions between worker chunks.
func Scatter[T any](k *Kernel, dst []T, positions []int, values []T) error {
	if len(positions) != len(values) {
		return errors.Errorf("parallel: scatter: positions (%d) and values (%d) length mismatch", len(positions), len(values))
	}
	return k.For(len(positions), func(i int) error {
		p := positions[i]
		if p < 0 || p >= len(dst) {
			return errors.Errorf("parallel: scatter: position %d out of bounds (len %d)", p, len(dst))
		}
		dst[p] = values[i]
		return nil
	})
}

// Shuffle reorders src according to perm (perm[i] is the source index that
// should land at output index i) via the gather-scatter decomposition: a
// gather using perm as the position list.
func Shuffle[T any](k *Kernel, src []T, perm []int) ([]T, error) {
	if len(perm) != len(src) {
		return nil, errors.Errorf("parallel: shuffle: permutation length %d does not match source length %d", len(perm), len(src))
	}
	return Gather(k, src, perm)
}
