package parallel

import (
	"github.com/jakson-labs/carbon/carbon/inserter"
	"github.com/jakson-labs/carbon/stringdict"
)

// BulkIngest is the string-dictionary-populating phase a bulk ingest path
// drives ahead of a build batch: it interns each of values into dict,
// across k's worker chunks, then appends the resulting string_ids, in
// input order, as unsigned column elements to col. Interning runs through
// Dict's own lock, so concurrent chunks interning the same repeated value
// still converge on a single id; only the final append to col — which
// mutates a single MemFile cursor — runs on the caller goroutine.
func BulkIngest(k *Kernel, dict *stringdict.Dict, col *inserter.Inserter, values []string) error {
	ids := make([]uint64, len(values))
	if err := k.For(len(values), func(i int) error {
		id, _ := dict.Intern([]byte(values[i]))
		ids[i] = id
		return nil
	}); err != nil {
		return err
	}
	for _, id := range ids {
		if err := col.ColumnU64(id); err != nil {
			return err
		}
	}
	return nil
}
