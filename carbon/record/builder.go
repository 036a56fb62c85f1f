package record

import (
	"github.com/jakson-labs/carbon/carbon/inserter"
	"github.com/jakson-labs/carbon/carbon/memfile"
	"github.com/jakson-labs/carbon/carbon/types"
)

// Builder creates a fresh record: it writes the key header, a placeholder
// commit slot, and opens the root array inserter. Closing the builder
// computes the commit hash and returns the finished Record.
type Builder struct {
	ctx       *Context
	mf        *memfile.MemFile
	key       Key
	rootClass types.AbstractClass
	commitPos int // -1 if this key type has no commit field
	root      *inserter.Inserter
}

// BuilderOption configures a Builder, following the same functional
// options idiom as segmentmanager.DiskSegmentManagerOption.
type BuilderOption func(*Builder)

// WithRootClass opens the root array with a non-default abstract class
// instead of unsorted-multiset.
func WithRootClass(class types.AbstractClass) BuilderOption {
	return func(b *Builder) { b.rootClass = class }
}

// NewBuilder starts building a record with the given key, under ctx (nil
// is equivalent to record.Background()).
func NewBuilder(ctx *Context, key Key, opts ...BuilderOption) (*Builder, error) {
	if ctx == nil {
		ctx = Background()
	}
	mf := memfile.Open(nil, memfile.ReadWrite)

	b := &Builder{ctx: ctx, mf: mf, key: key, commitPos: -1, rootClass: types.UnsortedMultiset}
	for _, opt := range opts {
		opt(b)
	}

	if err := key.encode(mf); err != nil {
		return nil, err
	}
	if key.HasCommit() {
		b.commitPos = mf.Tell()
		if err := mf.Append(make([]byte, 8)); err != nil {
			return nil, err
		}
	}

	root, err := inserter.OpenRootArray(mf, b.rootClass)
	if err != nil {
		return nil, err
	}
	b.root = root

	ctx.log().WithField("key_type", key.Type).Debug("carbon: opened record builder")
	return b, nil
}

// Root returns the root array inserter, for the caller to populate.
func (b *Builder) Root() *inserter.Inserter { return b.root }

// Close finalizes the record: closes the root inserter, computes the commit
// hash over the payload, and returns the resulting Record.
func (b *Builder) Close() (*Record, error) {
	if err := b.root.Close(); err != nil {
		return nil, err
	}

	rec, err := Open(b.mf.Bytes())
	if err != nil {
		return nil, err
	}
	if err := CheckNoDuplicates(rec); err != nil {
		return nil, err
	}

	if rec.key.HasCommit() {
		hash := CommitHash(rec.Payload())
		buf := make([]byte, 8)
		for i := 0; i < 8; i++ {
			buf[i] = byte(hash >> (8 * uint(i)))
		}
		copy(rec.mf.Bytes()[b.commitPos:b.commitPos+8], buf)
		rec.commit = hash
	}

	b.ctx.log().WithField("commit", rec.commit).Debug("carbon: closed record builder")
	return rec, nil
}
