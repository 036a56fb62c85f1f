package path

import (
	"github.com/jakson-labs/carbon/carbon/citer"
	"github.com/jakson-labs/carbon/carbon/memfile"
	"github.com/jakson-labs/carbon/carbon/types"
)

// Located names the open, positioned iterator handle for the container
// holding a resolved slot. Unlike Result, which discards the walk's
// intermediate iterators in favor of a bare offset, Located keeps the
// positioned handle so a mutator (the reviser's remove/update operations)
// can act on the slot directly instead of re-deriving it.
type Located struct {
	Status      Status
	Array       *citer.ArrayIt  // positioned at the slot, if its parent is an array
	Object      *citer.ObjectIt // positioned at the slot, if its parent is an object
	Column      *citer.ColumnIt // if the slot is a column element
	ColumnIndex uint64
}

// LocateParent resolves all but the last segment of path, then positions
// the parent container's cursor at the slot the last segment designates.
// The root itself (an empty path) has no parent and locates to NoContainer.
func LocateParent(mf *memfile.MemFile, rootPos int, p string) (*Located, error) {
	segments, err := Parse(p)
	if err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return &Located{Status: NoContainer}, nil
	}
	return locateAt(mf, rootPos, segments)
}

func locateAt(mf *memfile.MemFile, pos int, segments []Segment) (*Located, error) {
	m := markerAt(mf, pos)
	switch {
	case types.IsArray(m):
		return locateArray(mf, pos, segments)
	case types.IsObject(m):
		return locateObject(mf, pos, segments)
	case types.IsColumn(m):
		return locateColumn(mf, pos, segments)
	default:
		return &Located{Status: NotTraversable}, nil
	}
}

func locateArray(mf *memfile.MemFile, pos int, segments []Segment) (*Located, error) {
	it, err := citer.OpenArray(mf, pos)
	if err != nil {
		return nil, err
	}
	if it.IsEmpty() {
		return &Located{Status: EmptyDoc}, nil
	}

	unit, err := it.IsUnit()
	if err != nil {
		return nil, err
	}
	if unit {
		inner, err := citer.OpenArray(mf, pos)
		if err != nil {
			return nil, err
		}
		if _, err := inner.Next(); err != nil {
			return nil, err
		}
		return locateAt(mf, inner.Pos(), segments)
	}

	seg := segments[0]
	if seg.Kind == SegKey {
		return &Located{Status: NotAnObject}, nil
	}

	it2, err := citer.OpenArray(mf, pos)
	if err != nil {
		return nil, err
	}
	var i uint64
	for {
		more, err := it2.Next()
		if err != nil {
			return nil, err
		}
		if !more {
			return &Located{Status: NoSuchIndex}, nil
		}
		if i == seg.Index {
			if len(segments) == 1 {
				return &Located{Status: Resolved, Array: it2}, nil
			}
			return locateAt(mf, it2.Pos(), segments[1:])
		}
		i++
	}
}

func locateObject(mf *memfile.MemFile, pos int, segments []Segment) (*Located, error) {
	seg := segments[0]
	if seg.Kind != SegKey {
		return &Located{Status: NotTraversable}, nil
	}
	it, err := citer.OpenObject(mf, pos)
	if err != nil {
		return nil, err
	}
	for {
		more, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !more {
			return &Located{Status: NoSuchKey}, nil
		}
		name, err := it.PropName()
		if err != nil {
			return nil, err
		}
		if name == seg.Key {
			if len(segments) == 1 {
				return &Located{Status: Resolved, Object: it}, nil
			}
			return locateAt(mf, it.ValuePos(), segments[1:])
		}
	}
}

func locateColumn(mf *memfile.MemFile, pos int, segments []Segment) (*Located, error) {
	seg := segments[0]
	if seg.Kind != SegIndex {
		return &Located{Status: NotAnObject}, nil
	}
	ci, err := citer.OpenColumn(mf, pos)
	if err != nil {
		return nil, err
	}
	count, err := ci.Count()
	if err != nil {
		return nil, err
	}
	if seg.Index >= count {
		return &Located{Status: NoSuchIndex}, nil
	}
	if len(segments) > 1 {
		return &Located{Status: NoNesting}, nil
	}
	return &Located{Status: Resolved, Column: ci, ColumnIndex: seg.Index}, nil
}
