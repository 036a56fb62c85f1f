package revise

import (
	"github.com/jakson-labs/carbon/carbon/citer"
	"github.com/jakson-labs/carbon/carbon/memfile"
	"github.com/jakson-labs/carbon/carbon/types"
	"github.com/jakson-labs/carbon/carbon/varint"
)

// Pack walks every container in the revised payload and, for each column,
// trims its unused capacity tail down to its count. Arrays and objects
// need no excision in this implementation: Remove always deletes bytes in
// place, so no tombstone region is ever left before a terminator.
//
// The walk restarts from the root after every trim rather than tracking
// the shift each trim introduces into the rest of the tree — the simplest
// re-sync available for a recursive walk whose enclosing cursor must stay
// valid after each nested pack: a fresh scan.
func (s *Session) Pack() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	for {
		trimmed, err := packPass(s.mf, s.payloadOffset())
		if err != nil {
			return err
		}
		if !trimmed {
			return nil
		}
	}
}

func packPass(mf *memfile.MemFile, pos int) (bool, error) {
	m := types.Marker(mf.Bytes()[pos])
	switch {
	case types.IsColumn(m):
		return trimColumn(mf, pos)
	case types.IsArray(m):
		it, err := citer.OpenArray(mf, pos)
		if err != nil {
			return false, err
		}
		for {
			more, err := it.Next()
			if err != nil {
				return false, err
			}
			if !more {
				return false, nil
			}
			fm, err := it.FieldType()
			if err != nil {
				return false, err
			}
			if types.IsTraversable(fm) {
				changed, err := packPass(mf, it.Pos())
				if err != nil {
					return false, err
				}
				if changed {
					return true, nil
				}
			}
		}
	case types.IsObject(m):
		it, err := citer.OpenObject(mf, pos)
		if err != nil {
			return false, err
		}
		for {
			more, err := it.Next()
			if err != nil {
				return false, err
			}
			if !more {
				return false, nil
			}
			fm, err := it.PropType()
			if err != nil {
				return false, err
			}
			if types.IsTraversable(fm) {
				changed, err := packPass(mf, it.ValuePos())
				if err != nil {
					return false, err
				}
				if changed {
					return true, nil
				}
			}
		}
	default:
		return false, nil
	}
}

// trimColumn removes a column's unused capacity slots and rewrites its
// capacity varint to match count. Returns false (no trim performed) when
// capacity already equals count.
func trimColumn(mf *memfile.MemFile, markerPos int) (bool, error) {
	count, capacity, dataPos, err := citer.ColumnHeader(mf.Bytes(), markerPos)
	if err != nil {
		return false, err
	}
	if capacity == count {
		return false, nil
	}

	elem, err := types.ColumnElemOf(types.Marker(mf.Bytes()[markerPos]))
	if err != nil {
		return false, err
	}
	width := elem.Width()

	removeStart := dataPos + int(count)*width
	removeLen := int(capacity-count) * width
	if err := mf.Seek(removeStart); err != nil {
		return false, err
	}
	if err := mf.InplaceRemove(removeLen); err != nil {
		return false, err
	}

	countLen := varint.SizeOf(count)
	capPos := markerPos + 1 + countLen
	if _, err := mf.UpdateVarIntStream(capPos, count); err != nil {
		return false, err
	}
	return true, nil
}

// Shrink truncates any tailing free space of the revised MemFile past the
// root container's terminator.
func (s *Session) Shrink() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	end, err := citer.ContainerEnd(s.mf.Bytes(), s.payloadOffset())
	if err != nil {
		return err
	}
	if end < s.mf.Size() {
		return s.mf.Cut(s.mf.Size() - end)
	}
	return nil
}
