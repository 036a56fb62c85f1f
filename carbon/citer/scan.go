// Package citer implements the three cursor types that read carbon
// containers: ArrayIt, ObjectIt and ColumnIt. Each holds a view over a
// shared MemFile plus the byte offset of its container's opening marker;
// rather than cache a tail offset that every mutation would need to shift,
// iterators recompute slot boundaries by scanning forward from the
// container start each time they need one — the format is self-delimiting,
// so this is cheap and never goes stale.
package citer

import (
	"fmt"

	"github.com/jakson-labs/carbon/carbon/types"
	"github.com/jakson-labs/carbon/carbon/varint"
)

// Errors shared by all three iterator kinds.
var (
	ErrCorrupted          = fmt.Errorf("citer: corrupted container: missing terminator or truncated field")
	ErrUnsupportedMarker  = fmt.Errorf("citer: unsupported field marker")
	ErrWrongContainerKind = fmt.Errorf("citer: marker does not match the expected container kind")
	ErrNoSuchIndex        = fmt.Errorf("citer: no such index")
	ErrTypeMismatch       = fmt.Errorf("citer: field type mismatch")
)

// fieldEnd returns the offset immediately after the field (marker +
// payload, recursing into nested containers) starting at markerPos.
func fieldEnd(buf []byte, markerPos int) (int, error) {
	if markerPos >= len(buf) {
		return 0, ErrCorrupted
	}
	m := types.Marker(buf[markerPos])

	switch {
	case m == types.Null || m == types.True || m == types.False:
		return markerPos + 1, nil
	case types.ScalarWidth(m) > 0:
		return markerPos + 1 + types.ScalarWidth(m), nil
	case m == types.String:
		return stringEnd(buf, markerPos+1)
	case m == types.Binary || m == types.BinaryCustom:
		return binaryEnd(buf, markerPos+1)
	case types.IsArray(m) || types.IsObject(m):
		return containerEnd(buf, markerPos)
	case types.IsColumn(m):
		return columnEnd(buf, markerPos)
	default:
		return 0, ErrUnsupportedMarker
	}
}

func stringEnd(buf []byte, lenPos int) (int, error) {
	n, consumed, err := varint.Decode(buf[lenPos:])
	if err != nil {
		return 0, err
	}
	end := lenPos + consumed + int(n)
	if end > len(buf) {
		return 0, ErrCorrupted
	}
	return end, nil
}

func binaryEnd(buf []byte, pos int) (int, error) {
	mimeLen, c1, err := varint.Decode(buf[pos:])
	if err != nil {
		return 0, err
	}
	pos += c1 + int(mimeLen)
	if pos > len(buf) {
		return 0, ErrCorrupted
	}
	dataLen, c2, err := varint.Decode(buf[pos:])
	if err != nil {
		return 0, err
	}
	end := pos + c2 + int(dataLen)
	if end > len(buf) {
		return 0, ErrCorrupted
	}
	return end, nil
}

// containerEnd scans every slot of an array/object starting at its marker
// and returns the offset immediately after the terminator.
func containerEnd(buf []byte, markerPos int) (int, error) {
	m := types.Marker(buf[markerPos])
	isObject := types.IsObject(m)
	pos := markerPos + 1

	for {
		if pos >= len(buf) {
			return 0, ErrCorrupted
		}
		b := buf[pos]
		if (isObject && types.Marker(b) == types.ObjectEnd) || (!isObject && types.Marker(b) == types.ArrayEnd) {
			return pos + 1, nil
		}
		if isObject {
			keyLen, consumed, err := varint.Decode(buf[pos:])
			if err != nil {
				return 0, err
			}
			pos += consumed + int(keyLen)
			if pos > len(buf) {
				return 0, ErrCorrupted
			}
		}
		end, err := fieldEnd(buf, pos)
		if err != nil {
			return 0, err
		}
		pos = end
	}
}

// columnHeader decodes a column's (count, capacity) header, returning the
// values and the offset of the first data slot.
func columnHeader(buf []byte, markerPos int) (count, capacity uint64, dataPos int, err error) {
	pos := markerPos + 1
	count, c1, err := varint.Decode(buf[pos:])
	if err != nil {
		return
	}
	pos += c1
	capacity, c2, err := varint.Decode(buf[pos:])
	if err != nil {
		return
	}
	pos += c2
	dataPos = pos
	return
}

// FieldEnd is the exported form of fieldEnd, for callers outside this
// package (the reviser) that need to splice individual fields.
func FieldEnd(buf []byte, markerPos int) (int, error) { return fieldEnd(buf, markerPos) }

// ContainerEnd is the exported form of containerEnd.
func ContainerEnd(buf []byte, markerPos int) (int, error) { return containerEnd(buf, markerPos) }

// ColumnHeader is the exported form of columnHeader.
func ColumnHeader(buf []byte, markerPos int) (count, capacity uint64, dataPos int, err error) {
	return columnHeader(buf, markerPos)
}

// ColumnEnd is the exported form of columnEnd.
func ColumnEnd(buf []byte, markerPos int) (int, error) { return columnEnd(buf, markerPos) }

func columnEnd(buf []byte, markerPos int) (int, error) {
	_, capacity, dataPos, err := columnHeader(buf, markerPos)
	if err != nil {
		return 0, err
	}
	elem, err := types.ColumnElemOf(types.Marker(buf[markerPos]))
	if err != nil {
		return 0, err
	}
	end := dataPos + int(capacity)*elem.Width()
	if end > len(buf) {
		return 0, ErrCorrupted
	}
	return end, nil
}
