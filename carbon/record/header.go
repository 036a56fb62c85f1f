// Package record implements RecordHeader: the Key/Commit/Payload layout
// every carbon record opens with, the record lifecycle (builder to commit),
// and the commit-hash function.
package record

import (
	"fmt"
	"sync/atomic"

	"github.com/jakson-labs/carbon/carbon/memfile"
	"github.com/jakson-labs/carbon/carbon/types"
)

// ErrCommitMismatch is returned when a record's stored commit hash doesn't
// match its payload bytes.
var ErrCommitMismatch = fmt.Errorf("record: commit hash does not match payload")

// ErrNotAnArray is returned when the payload's first marker isn't an array
// marker — the payload is always the root container and must start as an
// array (possibly a unit-array).
var ErrNotAnArray = fmt.Errorf("record: payload does not begin with an array marker")

// Record is a parsed [Key | Commit? | Payload] byte image.
type Record struct {
	mf            *memfile.MemFile
	key           Key
	commit        uint64
	payloadOffset int
	stale         bool

	writeLock  spinLock
	committing atomic.Bool
}

// Open parses data as a record. It does not verify the commit hash; call
// Verify for that.
func Open(data []byte) (*Record, error) {
	mf := memfile.Open(data, memfile.ReadOnly)
	mf.Seek(0)

	key, err := decodeKey(mf)
	if err != nil {
		return nil, fmt.Errorf("record: decode key: %w", err)
	}

	var commit uint64
	if key.HasCommit() {
		v, err := readU64(mf)
		if err != nil {
			return nil, fmt.Errorf("record: decode commit: %w", err)
		}
		commit = v
	}

	payloadOffset := mf.Tell()
	b, err := mf.Peek(1)
	if err != nil {
		return nil, fmt.Errorf("record: empty payload: %w", err)
	}
	if !types.IsArray(types.Marker(b[0])) {
		return nil, ErrNotAnArray
	}

	return &Record{mf: mf, key: key, commit: commit, payloadOffset: payloadOffset}, nil
}

// Key returns the record's decoded key header.
func (r *Record) Key() Key { return r.key }

// Commit returns the record's stored commit hash (zero if the key type is
// KeyNone, which carries no commit field).
func (r *Record) Commit() uint64 { return r.commit }

// PayloadOffset returns the byte offset of the root array marker.
func (r *Record) PayloadOffset() int { return r.payloadOffset }

// Payload returns the payload bytes (root array through its terminator and
// any trailing slack).
func (r *Record) Payload() []byte { return r.mf.Bytes()[r.payloadOffset:] }

// Bytes returns the full record image.
func (r *Record) Bytes() []byte { return r.mf.Bytes() }

// MemFile returns the backing MemFile, positioned at the payload offset,
// for iterators to open against.
func (r *Record) MemFile() *memfile.MemFile {
	r.mf.Seek(r.payloadOffset)
	return r.mf
}

// Verify recomputes the commit hash over the payload and compares it to the
// stored value. Records with KeyNone have no commit field and always
// verify.
func (r *Record) Verify() error {
	if !r.key.HasCommit() {
		return nil
	}
	if CommitHash(r.Payload()) != r.commit {
		return ErrCommitMismatch
	}
	return nil
}

// IsStale reports whether a revise session has superseded this record with
// a newer committed version.
func (r *Record) IsStale() bool { return r.stale }

// MarkStale flags this record as superseded. Called by the revise session
// on commit.
func (r *Record) MarkStale() { r.stale = true }
