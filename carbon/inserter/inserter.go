// Package inserter implements the in-place appenders bound to a container
// iterator's tail position. An Inserter always operates by
// inserting bytes immediately before its container's terminator (or, for a
// column, immediately before the unused-capacity tail), so opening an
// Inserter at the very end of a fresh buffer and opening one against an
// existing container's tail are the same operation: MemFile.InplaceInsert
// at a cursor that happens to sit at len(buf) degenerates to a plain
// append.
package inserter

import (
	"fmt"

	"github.com/jakson-labs/carbon/carbon/memfile"
	"github.com/jakson-labs/carbon/carbon/types"
)

// Errors covering structural misuse (illegal-operation) and column type
// violations (type-mismatch).
var (
	ErrParentNotClosed  = fmt.Errorf("inserter: child inserter still open")
	ErrAlreadyClosed    = fmt.Errorf("inserter: already closed")
	ErrPartialProperty  = fmt.Errorf("inserter: object property missing its value")
	ErrWrongColumnType  = fmt.Errorf("inserter: value does not match column element type")
	ErrNotAColumn       = fmt.Errorf("inserter: not a column inserter")
)

// Inserter appends primitive fields and opens nested container inserters at
// a single container's tail.
type Inserter struct {
	mf       *memfile.MemFile
	parent   *Inserter
	child    *Inserter
	kind     types.ContainerKind
	class    types.AbstractClass
	elem     types.ColumnElem
	closed   bool
	awaiting bool // object: true when a key has been written, awaiting its value

	// column bookkeeping: headerPos is the offset of the count varint.
	// capPos/dataPos/count/capacity are recomputed from the buffer rather
	// than tracked incrementally (see package doc and DESIGN.md).
	headerPos int
}

// OpenRootArray opens the very first container of a record: writes the
// array marker and its terminator at mf's current cursor (which must be at
// the end of the buffer for a fresh build) and returns an Inserter
// positioned to receive the root's slots.
func OpenRootArray(mf *memfile.MemFile, class types.AbstractClass) (*Inserter, error) {
	return openContainer(mf, nil, types.KindArray, class, 0)
}

// OpenArray opens a nested array as the next slot of parent.
func (in *Inserter) OpenArray(class types.AbstractClass) (*Inserter, error) {
	if err := in.precheck(); err != nil {
		return nil, err
	}
	child, err := openContainer(in.mf, in, types.KindArray, class, 0)
	if err != nil {
		return nil, err
	}
	in.child = child
	in.afterValueWritten()
	return child, nil
}

// OpenObject opens a nested object as the next slot/property value of in.
func (in *Inserter) OpenObject(class types.AbstractClass) (*Inserter, error) {
	if err := in.precheck(); err != nil {
		return nil, err
	}
	child, err := openContainer(in.mf, in, types.KindObject, class, 0)
	if err != nil {
		return nil, err
	}
	in.child = child
	in.afterValueWritten()
	return child, nil
}

// OpenColumn opens a nested column-of-elem as the next slot/property value
// of in. The element type is fixed for the lifetime of the returned
// Inserter; an append whose byte width differs from that type's width
// returns ErrWrongColumnType. Appends of another element type with the same
// width are not rejected.
func (in *Inserter) OpenColumn(elem types.ColumnElem, class types.AbstractClass) (*Inserter, error) {
	if err := in.precheck(); err != nil {
		return nil, err
	}
	child, err := openColumn(in.mf, in, elem, class)
	if err != nil {
		return nil, err
	}
	in.child = child
	in.afterValueWritten()
	return child, nil
}

func openContainer(mf *memfile.MemFile, parent *Inserter, kind types.ContainerKind, class types.AbstractClass, headerPos int) (*Inserter, error) {
	var marker types.Marker
	switch kind {
	case types.KindArray:
		marker = types.DeriveArray(class)
	case types.KindObject:
		marker = types.DeriveObject(class)
	}
	if err := mf.InplaceInsert(1); err != nil {
		return nil, err
	}
	if _, err := mf.Write([]byte{byte(marker)}); err != nil {
		return nil, err
	}
	var end types.Marker
	if kind == types.KindArray {
		end = types.ArrayEnd
	} else {
		end = types.ObjectEnd
	}
	if err := mf.InplaceInsert(1); err != nil {
		return nil, err
	}
	if _, err := mf.Write([]byte{byte(end)}); err != nil {
		return nil, err
	}
	// leave the cursor between marker and terminator
	if err := mf.Skip(-1); err != nil {
		return nil, err
	}
	return &Inserter{mf: mf, parent: parent, kind: kind, class: class}, nil
}

func openColumn(mf *memfile.MemFile, parent *Inserter, elem types.ColumnElem, class types.AbstractClass) (*Inserter, error) {
	marker := types.DeriveColumn(elem, class)
	headerPos := mf.Tell()
	if err := mf.InplaceInsert(1); err != nil {
		return nil, err
	}
	if _, err := mf.Write([]byte{byte(marker)}); err != nil {
		return nil, err
	}
	if err := mf.WriteVarIntStream(0); err != nil { // count
		return nil, err
	}
	if err := mf.WriteVarIntStream(0); err != nil { // capacity
		return nil, err
	}
	return &Inserter{mf: mf, parent: parent, kind: types.KindColumn, class: class, elem: elem, headerPos: headerPos + 1}, nil
}

func (in *Inserter) precheck() error {
	if in.closed {
		return ErrAlreadyClosed
	}
	if in.child != nil && !in.child.closed {
		return ErrParentNotClosed
	}
	if in.kind == types.KindObject && !in.awaiting {
		return fmt.Errorf("inserter: object value written without a preceding key")
	}
	return nil
}

func (in *Inserter) afterValueWritten() {
	if in.kind == types.KindObject {
		in.awaiting = false
	}
}

// Key writes an object property's key name. Must be followed by exactly one
// value write (a primitive, or an opened-then-closed container).
func (in *Inserter) Key(name string) error {
	if in.kind != types.KindObject {
		return fmt.Errorf("inserter: Key called on a non-object inserter")
	}
	if in.closed {
		return ErrAlreadyClosed
	}
	if in.awaiting {
		return ErrPartialProperty
	}
	body := []byte(name)
	if err := in.mf.WriteVarIntStream(uint64(len(body))); err != nil {
		return err
	}
	if err := in.mf.InplaceInsert(len(body)); err != nil {
		return err
	}
	if _, err := in.mf.Write(body); err != nil {
		return err
	}
	in.awaiting = true
	return nil
}

func (in *Inserter) writeMarkerAndPayload(marker types.Marker, payload []byte) error {
	if err := in.precheck(); err != nil {
		return err
	}
	n := 1 + len(payload)
	if err := in.mf.InplaceInsert(n); err != nil {
		return err
	}
	if _, err := in.mf.Write([]byte{byte(marker)}); err != nil {
		return err
	}
	if len(payload) > 0 {
		if _, err := in.mf.Write(payload); err != nil {
			return err
		}
	}
	in.afterValueWritten()
	return nil
}

func (in *Inserter) Null() error  { return in.writeMarkerAndPayload(types.Null, nil) }
func (in *Inserter) True() error  { return in.writeMarkerAndPayload(types.True, nil) }
func (in *Inserter) False() error { return in.writeMarkerAndPayload(types.False, nil) }

func le(width int, v uint64) []byte {
	b := make([]byte, width)
	for i := 0; i < width; i++ {
		b[i] = byte(v >> (8 * uint(i)))
	}
	return b
}

func (in *Inserter) U8(v uint8) error   { return in.writeMarkerAndPayload(types.U8, le(1, uint64(v))) }
func (in *Inserter) U16(v uint16) error { return in.writeMarkerAndPayload(types.U16, le(2, uint64(v))) }
func (in *Inserter) U32(v uint32) error { return in.writeMarkerAndPayload(types.U32, le(4, uint64(v))) }
func (in *Inserter) U64(v uint64) error { return in.writeMarkerAndPayload(types.U64, le(8, v)) }

func (in *Inserter) I8(v int8) error   { return in.writeMarkerAndPayload(types.I8, le(1, uint64(uint8(v)))) }
func (in *Inserter) I16(v int16) error { return in.writeMarkerAndPayload(types.I16, le(2, uint64(uint16(v)))) }
func (in *Inserter) I32(v int32) error { return in.writeMarkerAndPayload(types.I32, le(4, uint64(uint32(v)))) }
func (in *Inserter) I64(v int64) error { return in.writeMarkerAndPayload(types.I64, le(8, uint64(v))) }

func (in *Inserter) Float32(v float32) error {
	return in.writeMarkerAndPayload(types.Float32, le(4, uint64(mathFloat32bits(v))))
}

// String writes a VarInt-prefixed UTF-8 string slot.
func (in *Inserter) String(s string) error {
	body := []byte(s)
	payload := append(varIntPrefix(len(body)), body...)
	return in.writeMarkerAndPayload(types.String, payload)
}

// Binary writes a MIME-tagged VarInt-prefixed binary slot. mime is stored
// verbatim, never sniffed.
func (in *Inserter) Binary(mime string, payload []byte) error {
	mimeBytes := []byte(mime)
	body := append(varIntPrefix(len(mimeBytes)), mimeBytes...)
	body = append(body, varIntPrefix(len(payload))...)
	body = append(body, payload...)
	return in.writeMarkerAndPayload(types.Binary, body)
}

func varIntPrefix(n int) []byte {
	return encodeVarInt(uint64(n))
}

// appendColumnElement pushes one element onto a column inserter, growing capacity if
// needed. v must be width bytes, little-endian.
func (in *Inserter) appendColumnElement(v []byte) error {
	if in.kind != types.KindColumn {
		return ErrNotAColumn
	}
	if in.closed {
		return ErrAlreadyClosed
	}
	width := in.elem.Width()
	if len(v) != width {
		return ErrWrongColumnType
	}

	countVal, countLen, capVal, capLen, dataPos, err := in.layout()
	if err != nil {
		return err
	}

	if countVal >= capVal {
		newCap := capVal*2 + 1
		if err := in.mf.Seek(dataPos + int(capVal)*width); err != nil {
			return err
		}
		if err := in.mf.InplaceInsert(int(newCap-capVal) * width); err != nil {
			return err
		}
		capPos := in.headerPos + countLen
		if _, err := in.mf.UpdateVarIntStream(capPos, newCap); err != nil {
			return err
		}
		capVal = newCap
		_, countLen, _, capLen, dataPos, err = in.layout()
		if err != nil {
			return err
		}
	}

	if err := in.mf.Seek(dataPos + int(countVal)*width); err != nil {
		return err
	}
	if _, err := in.mf.Write(v); err != nil {
		return err
	}

	countPos := in.headerPos
	if _, err := in.mf.UpdateVarIntStream(countPos, countVal+1); err != nil {
		return err
	}
	_ = countLen
	_ = capLen
	return nil
}

// layout recomputes (count, countLen, capacity, capLen, dataPos) by
// decoding the column's two stream varints fresh from the buffer.
func (in *Inserter) layout() (count uint64, countLen int, capacity uint64, capLen int, dataPos int, err error) {
	buf := in.mf.Bytes()
	count, countLen, err = decodeVarInt(buf[in.headerPos:])
	if err != nil {
		return
	}
	capacity, capLen, err = decodeVarInt(buf[in.headerPos+countLen:])
	if err != nil {
		return
	}
	dataPos = in.headerPos + countLen + capLen
	return
}

func (in *Inserter) ColumnU8(v uint8) error   { return in.appendColumnElement([]byte{v}) }
func (in *Inserter) ColumnU16(v uint16) error { return in.appendColumnElement(le(2, uint64(v))) }
func (in *Inserter) ColumnU32(v uint32) error { return in.appendColumnElement(le(4, uint64(v))) }
func (in *Inserter) ColumnU64(v uint64) error { return in.appendColumnElement(le(8, v)) }
func (in *Inserter) ColumnI8(v int8) error    { return in.appendColumnElement([]byte{byte(v)}) }
func (in *Inserter) ColumnI16(v int16) error  { return in.appendColumnElement(le(2, uint64(uint16(v)))) }
func (in *Inserter) ColumnI32(v int32) error  { return in.appendColumnElement(le(4, uint64(uint32(v)))) }
func (in *Inserter) ColumnI64(v int64) error  { return in.appendColumnElement(le(8, uint64(v))) }
func (in *Inserter) ColumnFloat32(v float32) error {
	return in.appendColumnElement(le(4, uint64(mathFloat32bits(v))))
}
func (in *Inserter) ColumnBool(v bool) error {
	if v {
		return in.appendColumnElement([]byte{1})
	}
	return in.appendColumnElement([]byte{0})
}

// Close finalizes the inserter. For arrays/objects the cursor is advanced
// past the terminator; for columns nothing further needs writing since the
// header already reflects count/capacity, and the cursor is advanced past
// the unused-capacity tail. Either way the parent resumes after the
// container's last byte. Close fails if a child inserter is still open.
func (in *Inserter) Close() error {
	if in.closed {
		return ErrAlreadyClosed
	}
	if in.child != nil && !in.child.closed {
		return ErrParentNotClosed
	}
	if in.kind == types.KindObject && in.awaiting {
		return ErrPartialProperty
	}
	if in.kind == types.KindColumn {
		_, _, capVal, _, dataPos, err := in.layout()
		if err != nil {
			return err
		}
		if err := in.mf.Seek(dataPos + int(capVal)*in.elem.Width()); err != nil {
			return err
		}
	} else if err := in.mf.Skip(1); err != nil { // step over the terminator
		return err
	}
	in.closed = true
	return nil
}
