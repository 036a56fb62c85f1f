package citer

import (
	"fmt"
	"math"

	"github.com/jakson-labs/carbon/carbon/memfile"
	"github.com/jakson-labs/carbon/carbon/types"
)

// ErrPromotionRequired is returned by ColumnIt's typed mutators when the
// value being written can't be represented by the column's element type.
// ColumnIt never promotes itself — promotion happens at the reviser layer;
// this error only signals that the caller (the Reviser) must do it.
var ErrPromotionRequired = fmt.Errorf("citer: value not representable in column element type, promotion required")

// ColumnIt is a cursor over a column-of-T container's typed slice.
type ColumnIt struct {
	mf    *memfile.MemFile
	start int // offset of the column marker
	elem  types.ColumnElem
	class types.AbstractClass
}

// OpenColumn opens a ColumnIt over the column whose marker sits at start.
func OpenColumn(mf *memfile.MemFile, start int) (*ColumnIt, error) {
	b, err := peekAt(mf, start, 1)
	if err != nil {
		return nil, err
	}
	m := types.Marker(b[0])
	if !types.IsColumn(m) {
		return nil, ErrWrongContainerKind
	}
	elem, err := types.ColumnElemOf(m)
	if err != nil {
		return nil, err
	}
	class, _ := types.AbstractClassOf(m)
	return &ColumnIt{mf: mf, start: start, elem: elem, class: class}, nil
}

func (ci *ColumnIt) ElemType() types.ColumnElem { return ci.elem }
func (ci *ColumnIt) Class() types.AbstractClass { return ci.class }

// MarkerPos returns the byte offset of the column's marker, the splice
// point a reviser uses when promoting the column to an array.
func (ci *ColumnIt) MarkerPos() int { return ci.start }

// Count returns the number of slots in use.
func (ci *ColumnIt) Count() (uint64, error) {
	count, _, _, err := columnHeader(ci.mf.Bytes(), ci.start)
	return count, err
}

// Capacity returns the total number of physically allocated slots.
func (ci *ColumnIt) Capacity() (uint64, error) {
	_, cap_, _, err := columnHeader(ci.mf.Bytes(), ci.start)
	return cap_, err
}

func (ci *ColumnIt) slotOffset(index uint64) (int, error) {
	count, _, dataPos, err := columnHeader(ci.mf.Bytes(), ci.start)
	if err != nil {
		return 0, err
	}
	if index >= count {
		return 0, ErrNoSuchIndex
	}
	return dataPos + int(index)*ci.elem.Width(), nil
}

func (ci *ColumnIt) rawAt(index uint64) (uint64, error) {
	off, err := ci.slotOffset(index)
	if err != nil {
		return 0, err
	}
	return readLE(ci.mf.Bytes(), off, ci.elem.Width()), nil
}

// RawAt returns the slot's raw little-endian bit pattern, width-zero-
// extended to 64 bits. Two slots of the same element type hold the same
// logical value exactly when RawAt agrees, which is what a generic
// duplicate scan over a column needs without switching on ElemType.
func (ci *ColumnIt) RawAt(index uint64) (uint64, error) { return ci.rawAt(index) }

// IsNull reports whether the slot at index holds the element type's null
// sentinel.
func (ci *ColumnIt) IsNull(index uint64) (bool, error) {
	v, err := ci.rawAt(index)
	if err != nil {
		return false, err
	}
	return v == ci.elem.NullSentinel(), nil
}

// Unsigned returns the unsigned value at index.
func (ci *ColumnIt) Unsigned(index uint64) (uint64, error) {
	if ci.elem != types.ColU8 && ci.elem != types.ColU16 && ci.elem != types.ColU32 && ci.elem != types.ColU64 {
		return 0, ErrTypeMismatch
	}
	return ci.rawAt(index)
}

// Signed returns the signed value at index.
func (ci *ColumnIt) Signed(index uint64) (int64, error) {
	switch ci.elem {
	case types.ColI8, types.ColI16, types.ColI32, types.ColI64:
	default:
		return 0, ErrTypeMismatch
	}
	v, err := ci.rawAt(index)
	if err != nil {
		return 0, err
	}
	return signExtend(v, ci.elem.Width()), nil
}

// Float returns the float32 value at index.
func (ci *ColumnIt) Float(index uint64) (float32, error) {
	if ci.elem != types.ColFloat32 {
		return 0, ErrTypeMismatch
	}
	v, err := ci.rawAt(index)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(uint32(v)), nil
}

// Bool returns the boolean value at index.
func (ci *ColumnIt) Bool(index uint64) (bool, error) {
	if ci.elem != types.ColBool {
		return false, ErrTypeMismatch
	}
	v, err := ci.rawAt(index)
	if err != nil {
		return false, err
	}
	return v == 1, nil
}

func (ci *ColumnIt) writeRaw(index uint64, v uint64) error {
	off, err := ci.slotOffset(index)
	if err != nil {
		return err
	}
	if err := ci.mf.Seek(off); err != nil {
		return err
	}
	_, err = ci.mf.Write(leBytes(v, ci.elem.Width()))
	return err
}

func leBytes(v uint64, width int) []byte {
	b := make([]byte, width)
	for i := 0; i < width; i++ {
		b[i] = byte(v >> (8 * uint(i)))
	}
	return b
}

// UpdateSetNull overwrites the slot at index with the element type's null
// sentinel. Always representable, regardless of element type.
func (ci *ColumnIt) UpdateSetNull(index uint64) error {
	return ci.writeRaw(index, ci.elem.NullSentinel())
}

// UpdateSetTrue sets the slot at index to true. Only representable in a
// bool column; other element types return ErrPromotionRequired so the
// Reviser can promote the column to an array.
func (ci *ColumnIt) UpdateSetTrue(index uint64) error {
	if ci.elem != types.ColBool {
		return ErrPromotionRequired
	}
	return ci.writeRaw(index, 1)
}

// UpdateSetFalse is the false-valued counterpart of UpdateSetTrue.
func (ci *ColumnIt) UpdateSetFalse(index uint64) error {
	if ci.elem != types.ColBool {
		return ErrPromotionRequired
	}
	return ci.writeRaw(index, 0)
}

// Remove deletes the slot at index: shifts trailing elements left,
// decrements count, and appends a zeroed slot at the tail so capacity (and
// thus the container's total footprint) is unchanged.
func (ci *ColumnIt) Remove(index uint64) error {
	count, _, dataPos, err := columnHeader(ci.mf.Bytes(), ci.start)
	if err != nil {
		return err
	}
	if index >= count {
		return ErrNoSuchIndex
	}
	width := ci.elem.Width()
	removeOff := dataPos + int(index)*width

	buf := ci.mf.Bytes()
	tailStart := removeOff + width
	tailEnd := dataPos + int(count)*width
	copy(buf[removeOff:], buf[tailStart:tailEnd])
	for i := tailEnd - width; i < tailEnd; i++ {
		buf[i] = 0
	}

	headerPos := ci.start + 1
	if _, err := ci.mf.UpdateVarIntStream(headerPos, count-1); err != nil {
		return err
	}
	return nil
}

// AsArraySlots decodes every in-use slot as a (marker, payload) pair, in
// the concrete scalar encoding an equivalent array would use for the same
// logical values. Used by the Reviser when promoting a column to an array.
func (ci *ColumnIt) AsArraySlots() ([]ArraySlot, error) {
	count, err := ci.Count()
	if err != nil {
		return nil, err
	}
	out := make([]ArraySlot, 0, count)
	for i := uint64(0); i < count; i++ {
		null, err := ci.IsNull(i)
		if err != nil {
			return nil, err
		}
		if null {
			out = append(out, ArraySlot{Marker: types.Null})
			continue
		}
		switch ci.elem {
		case types.ColU8, types.ColU16, types.ColU32, types.ColU64:
			v, _ := ci.Unsigned(i)
			out = append(out, ArraySlot{Marker: unsignedMarker(ci.elem), Value: v})
		case types.ColI8, types.ColI16, types.ColI32, types.ColI64:
			v, _ := ci.Signed(i)
			out = append(out, ArraySlot{Marker: signedMarker(ci.elem), Value: uint64(v)})
		case types.ColFloat32:
			v, _ := ci.Float(i)
			out = append(out, ArraySlot{Marker: types.Float32, Value: uint64(math.Float32bits(v))})
		case types.ColBool:
			v, _ := ci.Bool(i)
			if v {
				out = append(out, ArraySlot{Marker: types.True})
			} else {
				out = append(out, ArraySlot{Marker: types.False})
			}
		}
	}
	return out, nil
}

// ArraySlot is a decoded scalar ready to be re-inserted as an array
// element. Value is unused for Null/True/False markers.
type ArraySlot struct {
	Marker types.Marker
	Value  uint64
}

func unsignedMarker(e types.ColumnElem) types.Marker {
	switch e {
	case types.ColU8:
		return types.U8
	case types.ColU16:
		return types.U16
	case types.ColU32:
		return types.U32
	default:
		return types.U64
	}
}

func signedMarker(e types.ColumnElem) types.Marker {
	switch e {
	case types.ColI8:
		return types.I8
	case types.ColI16:
		return types.I16
	case types.ColI32:
		return types.I32
	default:
		return types.I64
	}
}
