// Package stringdict is a minimal stand-in for the string dictionary: an
// opaque string_id -> bytes map that a bulk-ingest path populates as it
// interns repeated byte strings, reset after every write batch. It exists so
// the bulk-ingest parallel kernel call has a concrete external collaborator
// to populate; the dictionary's own persistence is out of scope here. Dict
// guards its state with its own mutex, so concurrent Intern calls are safe.
package stringdict

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/jakson-labs/carbon/carbon/record"
)

// Dict interns byte strings under small integer ids, using a bloom filter
// to short-circuit the common case of "definitely not seen before" without
// touching the map — the same bloom-before-lookup check an SST writer runs
// ahead of a block seek.
type Dict struct {
	ctx *record.Context

	estimate uint
	fp       float64

	mu      sync.Mutex
	filter  *bloom.BloomFilter
	entries map[uint64][]byte
	reverse map[string]uint64
	nextID  uint64
}

// New returns an empty Dict sized for roughly estimatedEntries distinct
// strings at the given false-positive rate.
func New(ctx *record.Context, estimatedEntries uint, falsePositiveRate float64) *Dict {
	if ctx == nil {
		ctx = record.Background()
	}
	return &Dict{
		ctx:      ctx,
		estimate: estimatedEntries,
		fp:       falsePositiveRate,
		filter:   bloom.NewWithEstimates(estimatedEntries, falsePositiveRate),
		entries:  make(map[uint64][]byte),
		reverse:  make(map[string]uint64),
	}
}

// Intern returns the id for value, assigning a fresh one the first time
// value is seen. existing reports whether value was already interned.
func (d *Dict) Intern(value []byte) (id uint64, existing bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.filter.Test(value) {
		if id, ok := d.reverse[string(value)]; ok {
			return id, true
		}
	}

	id = d.nextID
	d.nextID++
	stored := append([]byte(nil), value...)
	d.entries[id] = stored
	d.reverse[string(stored)] = id
	d.filter.Add(stored)
	return id, false
}

// Lookup returns the bytes interned under id.
func (d *Dict) Lookup(id uint64) ([]byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.entries[id]
	return v, ok
}

// Len reports the number of distinct strings currently interned.
func (d *Dict) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entries)
}

// Reset clears the dictionary for the next write batch, discarding every
// interned entry and rebuilding the bloom filter at the same sizing.
func (d *Dict) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries = make(map[uint64][]byte)
	d.reverse = make(map[string]uint64)
	d.filter = bloom.NewWithEstimates(d.estimate, d.fp)
	d.nextID = 0
	d.ctx.Logger.Debug("stringdict: reset after write batch")
}
