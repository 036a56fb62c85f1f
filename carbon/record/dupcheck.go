package record

import (
	"bytes"
	"fmt"

	"github.com/jakson-labs/carbon/carbon/citer"
	"github.com/jakson-labs/carbon/carbon/memfile"
	"github.com/jakson-labs/carbon/carbon/types"
)

// ErrDuplicateEntry is returned when a sorted-set or sorted-map container
// holds two adjacent equal entries at commit time.
var ErrDuplicateEntry = fmt.Errorf("record: sorted container holds a duplicate entry")

// CheckNoDuplicates walks rec's payload, rejecting any sorted-set or
// sorted-map container (at any nesting depth) that holds two adjacent
// equal values or keys. Builder.Close and Session.End both call this
// before finalizing a commit.
func CheckNoDuplicates(rec *Record) error {
	return checkNoDuplicates(rec.MemFile(), rec.PayloadOffset())
}

func checkNoDuplicates(mf *memfile.MemFile, pos int) error {
	m := types.Marker(mf.Bytes()[pos])
	switch {
	case types.IsArray(m):
		return checkArrayDuplicates(mf, pos)
	case types.IsObject(m):
		return checkObjectDuplicates(mf, pos)
	case types.IsColumn(m):
		return checkColumnDuplicates(mf, pos)
	default:
		return nil
	}
}

// checkArrayDuplicates rejects adjacent equal slots in a sorted-set array;
// every slot, rejecting or not, is still recursed into for its own nested
// sorted containers.
func checkArrayDuplicates(mf *memfile.MemFile, pos int) error {
	it, err := citer.OpenArray(mf, pos)
	if err != nil {
		return err
	}
	reject := it.Class().RejectsDuplicates()
	var prev []byte
	for {
		more, err := it.Next()
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
		if err := checkNoDuplicates(mf, it.Pos()); err != nil {
			return err
		}
		if !reject {
			continue
		}
		end, err := citer.FieldEnd(mf.Bytes(), it.Pos())
		if err != nil {
			return err
		}
		cur := mf.Bytes()[it.Pos():end]
		if prev != nil && bytes.Equal(prev, cur) {
			return ErrDuplicateEntry
		}
		prev = cur
	}
}

// checkObjectDuplicates rejects adjacent equal keys in a sorted-map object.
func checkObjectDuplicates(mf *memfile.MemFile, pos int) error {
	it, err := citer.OpenObject(mf, pos)
	if err != nil {
		return err
	}
	reject := it.Class().RejectsDuplicates()
	var prev string
	havePrev := false
	for {
		more, err := it.Next()
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
		if err := checkNoDuplicates(mf, it.ValuePos()); err != nil {
			return err
		}
		if !reject {
			continue
		}
		key, err := it.PropName()
		if err != nil {
			return err
		}
		if havePrev && key == prev {
			return ErrDuplicateEntry
		}
		prev, havePrev = key, true
	}
}

// checkColumnDuplicates rejects adjacent equal slots in a sorted-set
// column, comparing raw bit patterns (columns hold a single element type,
// so a raw compare is exact).
func checkColumnDuplicates(mf *memfile.MemFile, pos int) error {
	ci, err := citer.OpenColumn(mf, pos)
	if err != nil {
		return err
	}
	if !ci.Class().RejectsDuplicates() {
		return nil
	}
	count, err := ci.Count()
	if err != nil {
		return err
	}
	var prev uint64
	havePrev := false
	for i := uint64(0); i < count; i++ {
		v, err := ci.RawAt(i)
		if err != nil {
			return err
		}
		if havePrev && v == prev {
			return ErrDuplicateEntry
		}
		prev, havePrev = v, true
	}
	return nil
}
