package record

import "github.com/cespare/xxhash/v2"

// CommitHash computes the record's 64-bit fingerprint over payload bytes,
// deterministic and collision-resistant enough to detect accidental
// corruption. Pinned to xxhash.Sum64 and locked down by the test vector in
// commit_test.go so every caller agrees byte-for-byte.
func CommitHash(payload []byte) uint64 {
	return xxhash.Sum64(payload)
}
