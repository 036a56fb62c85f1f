package citer

import (
	"math"

	"github.com/jakson-labs/carbon/carbon/memfile"
	"github.com/jakson-labs/carbon/carbon/types"
	"github.com/jakson-labs/carbon/carbon/varint"
)

// ObjectIt is a forward cursor over an object's properties.
type ObjectIt struct {
	mf       *memfile.MemFile
	start    int
	class    types.AbstractClass
	curKey   int // offset of the current property's key-length varint
	curValue int // offset of the current property's value marker
	started  bool
}

// OpenObject opens an ObjectIt over the object container whose marker sits
// at start.
func OpenObject(mf *memfile.MemFile, start int) (*ObjectIt, error) {
	b, err := peekAt(mf, start, 1)
	if err != nil {
		return nil, err
	}
	if !types.IsObject(types.Marker(b[0])) {
		return nil, ErrWrongContainerKind
	}
	class, _ := types.AbstractClassOf(types.Marker(b[0]))
	return &ObjectIt{mf: mf, start: start, class: class, curKey: -1}, nil
}

func (it *ObjectIt) Class() types.AbstractClass { return it.class }

// Next advances to the next property.
func (it *ObjectIt) Next() (bool, error) {
	buf := it.mf.Bytes()
	var pos int
	if !it.started {
		pos = it.start + 1
		it.started = true
	} else {
		end, err := fieldEnd(buf, it.curValue)
		if err != nil {
			return false, err
		}
		pos = end
	}
	if pos >= len(buf) {
		return false, ErrCorrupted
	}
	if types.Marker(buf[pos]) == types.ObjectEnd {
		it.curKey, it.curValue = -1, -1
		return false, nil
	}
	keyLen, consumed, err := varint.Decode(buf[pos:])
	if err != nil {
		return false, err
	}
	it.curKey = pos
	it.curValue = pos + consumed + int(keyLen)
	if it.curValue > len(buf) {
		return false, ErrCorrupted
	}
	return true, nil
}

// PropName returns the current property's key bytes.
func (it *ObjectIt) PropName() (string, error) {
	if it.curKey < 0 {
		return "", ErrCorrupted
	}
	buf := it.mf.Bytes()
	n, consumed, err := varint.Decode(buf[it.curKey:])
	if err != nil {
		return "", err
	}
	start := it.curKey + consumed
	return string(buf[start : start+int(n)]), nil
}

// PropType returns the current property's value marker.
func (it *ObjectIt) PropType() (types.Marker, error) {
	if it.curValue < 0 {
		return 0, ErrCorrupted
	}
	return types.Marker(it.mf.Bytes()[it.curValue]), nil
}

// FastForward positions the iterator at the terminator.
func (it *ObjectIt) FastForward() error {
	end, err := containerEnd(it.mf.Bytes(), it.start)
	if err != nil {
		return err
	}
	it.curValue = end - 1
	it.started = true
	return nil
}

// TerminatorPos returns the offset of the object's terminator byte.
func (it *ObjectIt) TerminatorPos() (int, error) {
	return containerEnd(it.mf.Bytes(), it.start)
}

// Remove deletes the current property (key and value together).
func (it *ObjectIt) Remove() error {
	if it.curKey < 0 {
		return ErrCorrupted
	}
	buf := it.mf.Bytes()
	end, err := fieldEnd(buf, it.curValue)
	if err != nil {
		return err
	}
	start := it.curKey
	it.mf.Seek(start)
	if err := it.mf.InplaceRemove(end - start); err != nil {
		return err
	}
	it.curKey = start - 1
	it.curValue = -1
	it.started = it.curKey >= it.start
	return nil
}

func (it *ObjectIt) valueStart() int { return it.curValue + 1 }

// ValuePos returns the byte offset of the current property's value marker,
// the entry point a path evaluator descends through.
func (it *ObjectIt) ValuePos() int { return it.curValue }

func (it *ObjectIt) Bool() (bool, error) {
	m, err := it.PropType()
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

func (it *ObjectIt) Unsigned() (uint64, error) {
	m, err := it.PropType()
	if err != nil {
		return 0, err
	}
	if !types.IsUnsigned(m) {
		return 0, ErrTypeMismatch
	}
	return readLE(it.mf.Bytes(), it.valueStart(), types.ScalarWidth(m)), nil
}

func (it *ObjectIt) Signed() (int64, error) {
	m, err := it.PropType()
	if err != nil {
		return 0, err
	}
	if !types.IsSigned(m) {
		return 0, ErrTypeMismatch
	}
	width := types.ScalarWidth(m)
	v := readLE(it.mf.Bytes(), it.valueStart(), width)
	return signExtend(v, width), nil
}

func (it *ObjectIt) Float() (float32, error) {
	m, err := it.PropType()
	if err != nil {
		return 0, err
	}
	if m != types.Float32 {
		return 0, ErrTypeMismatch
	}
	bits := uint32(readLE(it.mf.Bytes(), it.valueStart(), 4))
	return math.Float32frombits(bits), nil
}

func (it *ObjectIt) String() (string, error) {
	m, err := it.PropType()
	if err != nil {
		return "", err
	}
	if m != types.String {
		return "", ErrTypeMismatch
	}
	buf := it.mf.Bytes()
	n, consumed, err := varint.Decode(buf[it.valueStart():])
	if err != nil {
		return "", err
	}
	start := it.valueStart() + consumed
	return string(buf[start : start+int(n)]), nil
}

func (it *ObjectIt) Binary() (mime string, payload []byte, err error) {
	m, err := it.PropType()
	if err != nil {
		return "", nil, err
	}
	if m != types.Binary && m != types.BinaryCustom {
		return "", nil, ErrTypeMismatch
	}
	buf := it.mf.Bytes()
	pos := it.valueStart()
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

// OpenArray opens the current property's value as a nested ArrayIt.
func (it *ObjectIt) OpenArray() (*ArrayIt, error) {
	m, err := it.PropType()
	if err != nil {
		return nil, err
	}
	if !types.IsArray(m) {
		return nil, ErrWrongContainerKind
	}
	return OpenArray(it.mf, it.curValue)
}

// OpenObject opens the current property's value as a nested ObjectIt.
func (it *ObjectIt) OpenObject() (*ObjectIt, error) {
	m, err := it.PropType()
	if err != nil {
		return nil, err
	}
	if !types.IsObject(m) {
		return nil, ErrWrongContainerKind
	}
	return OpenObject(it.mf, it.curValue)
}

// OpenColumn opens the current property's value as a ColumnIt.
func (it *ObjectIt) OpenColumn() (*ColumnIt, error) {
	m, err := it.PropType()
	if err != nil {
		return nil, err
	}
	if !types.IsColumn(m) {
		return nil, ErrWrongContainerKind
	}
	return OpenColumn(it.mf, it.curValue)
}
