package citer

import (
	"math"

	"github.com/jakson-labs/carbon/carbon/memfile"
	"github.com/jakson-labs/carbon/carbon/types"
	"github.com/jakson-labs/carbon/carbon/varint"
)

// ArrayIt is a forward cursor over an array's slots.
type ArrayIt struct {
	mf      *memfile.MemFile
	start   int // offset of the array marker
	class   types.AbstractClass
	cur     int // offset of the current slot's marker; -1 before the first Next
	started bool
}

// OpenArray opens an ArrayIt over the array container whose marker sits at
// start.
func OpenArray(mf *memfile.MemFile, start int) (*ArrayIt, error) {
	b, err := peekAt(mf, start, 1)
	if err != nil {
		return nil, err
	}
	if !types.IsArray(types.Marker(b[0])) {
		return nil, ErrWrongContainerKind
	}
	class, _ := types.AbstractClassOf(types.Marker(b[0]))
	return &ArrayIt{mf: mf, start: start, class: class, cur: -1}, nil
}

func peekAt(mf *memfile.MemFile, pos, n int) ([]byte, error) {
	buf := mf.Bytes()
	if pos < 0 || pos+n > len(buf) {
		return nil, ErrCorrupted
	}
	return buf[pos : pos+n], nil
}

// Class returns the array's abstract type class.
func (it *ArrayIt) Class() types.AbstractClass { return it.class }

// Next advances to the next present slot, skipping past the previous one if
// any. It returns false once the terminator is reached.
func (it *ArrayIt) Next() (bool, error) {
	buf := it.mf.Bytes()
	var pos int
	if !it.started {
		pos = it.start + 1
		it.started = true
	} else {
		end, err := fieldEnd(buf, it.cur)
		if err != nil {
			return false, err
		}
		pos = end
	}
	if pos >= len(buf) {
		return false, ErrCorrupted
	}
	if types.Marker(buf[pos]) == types.ArrayEnd {
		it.cur = -1
		return false, nil
	}
	it.cur = pos
	return true, nil
}

// FastForward positions the iterator at the terminator without
// materializing any further slot.
func (it *ArrayIt) FastForward() error {
	buf := it.mf.Bytes()
	end, err := containerEnd(buf, it.start)
	if err != nil {
		return err
	}
	it.cur = end - 1 // offset of the terminator byte itself
	it.started = true
	return nil
}

// Pos returns the byte offset of the current slot's marker.
func (it *ArrayIt) Pos() int { return it.cur }

// FieldType returns the current slot's marker.
func (it *ArrayIt) FieldType() (types.Marker, error) {
	if it.cur < 0 {
		return 0, ErrCorrupted
	}
	return types.Marker(it.mf.Bytes()[it.cur]), nil
}

// TerminatorPos returns the offset of the array's terminator byte, the
// insertion point for a tail-bound Inserter.
func (it *ArrayIt) TerminatorPos() (int, error) {
	return containerEnd(it.mf.Bytes(), it.start)
}

// IsUnit reports whether this array has exactly one slot and that slot is
// an object or column — the wrapper shape a path resolver transparently
// descends through.
func (it *ArrayIt) IsUnit() (bool, error) {
	probe, err := OpenArray(it.mf, it.start)
	if err != nil {
		return false, err
	}
	ok, err := probe.Next()
	if err != nil || !ok {
		return false, err
	}
	m, err := probe.FieldType()
	if err != nil {
		return false, err
	}
	if !(types.IsObject(m) || types.IsColumn(m)) {
		return false, nil
	}
	more, err := probe.Next()
	if err != nil {
		return false, err
	}
	return !more, nil
}

// IsEmpty reports whether the array has no slots at all.
func (it *ArrayIt) IsEmpty() bool {
	buf := it.mf.Bytes()
	return types.Marker(buf[it.start+1]) == types.ArrayEnd
}

// Remove deletes the current slot and leaves the iterator positioned
// immediately before the next slot (callers should call Next again).
func (it *ArrayIt) Remove() error {
	if it.cur < 0 {
		return ErrCorrupted
	}
	buf := it.mf.Bytes()
	end, err := fieldEnd(buf, it.cur)
	if err != nil {
		return err
	}
	saved := it.cur
	it.mf.Seek(saved)
	if err := it.mf.InplaceRemove(end - saved); err != nil {
		return err
	}
	// rewind to the slot preceding saved (or to the not-yet-started state when
	// none precedes it) so the next Next() lands on the slot now at saved
	it.cur, it.started = -1, false
	for pos := it.start + 1; pos < saved; {
		next, err := fieldEnd(it.mf.Bytes(), pos)
		if err != nil {
			return err
		}
		it.cur, it.started = pos, true
		pos = next
	}
	return nil
}

func (it *ArrayIt) payloadStart() int { return it.cur + 1 }

// Bool returns the current slot's boolean value.
func (it *ArrayIt) Bool() (bool, error) {
	m, err := it.FieldType()
	if err != nil {
		return false, err
	}
	switch m {
	case types.True:
		return true, nil
	case types.False:
		return false, nil
	default:
		return false, ErrTypeMismatch
	}
}

// Unsigned returns the current slot's unsigned integer value.
func (it *ArrayIt) Unsigned() (uint64, error) {
	m, err := it.FieldType()
	if err != nil {
		return 0, err
	}
	if !types.IsUnsigned(m) {
		return 0, ErrTypeMismatch
	}
	return readLE(it.mf.Bytes(), it.payloadStart(), types.ScalarWidth(m)), nil
}

// Signed returns the current slot's signed integer value.
func (it *ArrayIt) Signed() (int64, error) {
	m, err := it.FieldType()
	if err != nil {
		return 0, err
	}
	if !types.IsSigned(m) {
		return 0, ErrTypeMismatch
	}
	width := types.ScalarWidth(m)
	v := readLE(it.mf.Bytes(), it.payloadStart(), width)
	return signExtend(v, width), nil
}

// Float returns the current slot's float32 value.
func (it *ArrayIt) Float() (float32, error) {
	m, err := it.FieldType()
	if err != nil {
		return 0, err
	}
	if m != types.Float32 {
		return 0, ErrTypeMismatch
	}
	bits := uint32(readLE(it.mf.Bytes(), it.payloadStart(), 4))
	return math.Float32frombits(bits), nil
}

// String returns the current slot's string value.
func (it *ArrayIt) String() (string, error) {
	m, err := it.FieldType()
	if err != nil {
		return "", err
	}
	if m != types.String {
		return "", ErrTypeMismatch
	}
	buf := it.mf.Bytes()
	n, consumed, err := varint.Decode(buf[it.payloadStart():])
	if err != nil {
		return "", err
	}
	start := it.payloadStart() + consumed
	return string(buf[start : start+int(n)]), nil
}

// Binary returns the current slot's MIME type and payload.
func (it *ArrayIt) Binary() (mime string, payload []byte, err error) {
	m, err := it.FieldType()
	if err != nil {
		return "", nil, err
	}
	if m != types.Binary && m != types.BinaryCustom {
		return "", nil, ErrTypeMismatch
	}
	buf := it.mf.Bytes()
	pos := it.payloadStart()
	mimeLen, c1, err := varint.Decode(buf[pos:])
	if err != nil {
		return "", nil, err
	}
	pos += c1
	mime = string(buf[pos : pos+int(mimeLen)])
	pos += int(mimeLen)
	dataLen, c2, err := varint.Decode(buf[pos:])
	if err != nil {
		return "", nil, err
	}
	pos += c2
	payload = buf[pos : pos+int(dataLen)]
	return mime, payload, nil
}

// OpenArray opens the current slot as a nested ArrayIt.
func (it *ArrayIt) OpenArray() (*ArrayIt, error) {
	m, err := it.FieldType()
	if err != nil {
		return nil, err
	}
	if !types.IsArray(m) {
		return nil, ErrWrongContainerKind
	}
	return OpenArray(it.mf, it.cur)
}

// OpenObject opens the current slot as a nested ObjectIt.
func (it *ArrayIt) OpenObject() (*ObjectIt, error) {
	m, err := it.FieldType()
	if err != nil {
		return nil, err
	}
	if !types.IsObject(m) {
		return nil, ErrWrongContainerKind
	}
	return OpenObject(it.mf, it.cur)
}

// OpenColumn opens the current slot as a ColumnIt.
func (it *ArrayIt) OpenColumn() (*ColumnIt, error) {
	m, err := it.FieldType()
	if err != nil {
		return nil, err
	}
	if !types.IsColumn(m) {
		return nil, ErrWrongContainerKind
	}
	return OpenColumn(it.mf, it.cur)
}

func readLE(buf []byte, pos, width int) uint64 {
	var v uint64
	for i := 0; i < width; i++ {
		v |= uint64(buf[pos+i]) << (8 * uint(i))
	}
	return v
}

func signExtend(v uint64, width int) int64 {
	bits := uint(width * 8)
	shift := 64 - bits
	return int64(v<<shift) >> shift
}
