package path

import (
	"fmt"

	"github.com/jakson-labs/carbon/carbon/citer"
	"github.com/jakson-labs/carbon/carbon/memfile"
	"github.com/jakson-labs/carbon/carbon/record"
	"github.com/jakson-labs/carbon/carbon/types"
)

// Errors covering the typed-accessor and illegal-state outcomes.
var (
	ErrNotResolved  = fmt.Errorf("path: typed result fetched from an unresolved path")
	ErrTypeMismatch = fmt.Errorf("path: field type mismatch")
	ErrNoContainer  = fmt.Errorf("path: field is not a container of the requested kind")
)

// Find layers a typed projection over a resolved path: it caches the
// concrete field type so scalar and sub-iterator accessors can be read
// without re-walking the path.
type Find struct {
	res    *Result
	marker types.Marker
}

// Open resolves path against rec's committed payload and wraps the result
// for typed access.
func Open(rec *record.Record, path string) (*Find, error) {
	res, err := ResolveRecord(rec, path)
	if err != nil {
		return nil, err
	}
	return newFind(res)
}

// FindAt resolves path starting at rootPos within mf — the entry point a
// revise session uses against its own mutable MemFile, reading bytes owned
// by an open revise session rather than a record's committed payload.
func FindAt(mf *memfile.MemFile, rootPos int, path string) (*Find, error) {
	res, err := Resolve(mf, rootPos, path)
	if err != nil {
		return nil, err
	}
	return newFind(res)
}

func newFind(res *Result) (*Find, error) {
	f := &Find{res: res}
	if res.Status != Resolved {
		return f, nil
	}
	if res.Column != nil {
		return f, nil
	}
	f.marker = markerAt(res.mf, res.Pos)
	return f, nil
}

// Status reports the underlying path-resolution outcome.
func (f *Find) Status() Status { return f.res.Status }

// Resolved reports whether the path resolved to a field.
func (f *Find) Resolved() bool { return f.res.Status == Resolved }

func (f *Find) checkResolved() error {
	if !f.Resolved() {
		return ErrNotResolved
	}
	return nil
}

// Bool returns the resolved field's boolean value.
func (f *Find) Bool() (bool, error) {
	if err := f.checkResolved(); err != nil {
		return false, err
	}
	if f.res.Column != nil {
		if f.res.Column.ElemType() != types.ColBool {
			return false, ErrTypeMismatch
		}
		return f.res.Column.Bool(f.res.ColumnIndex)
	}
	switch f.marker {
	case types.True:
		return true, nil
	case types.False:
		return false, nil
	default:
		return false, ErrTypeMismatch
	}
}

// IsNull reports whether the resolved field is null (or the column slot
// holds its element type's null sentinel).
func (f *Find) IsNull() (bool, error) {
	if err := f.checkResolved(); err != nil {
		return false, err
	}
	if f.res.Column != nil {
		return f.res.Column.IsNull(f.res.ColumnIndex)
	}
	return f.marker == types.Null, nil
}

// Unsigned returns the resolved field's unsigned integer value.
func (f *Find) Unsigned() (uint64, error) {
	if err := f.checkResolved(); err != nil {
		return 0, err
	}
	if f.res.Column != nil {
		return f.res.Column.Unsigned(f.res.ColumnIndex)
	}
	if !types.IsUnsigned(f.marker) {
		return 0, ErrTypeMismatch
	}
	return scalarAt(f.res.mf, f.res.Pos, f.marker).unsigned()
}

// Signed returns the resolved field's signed integer value.
func (f *Find) Signed() (int64, error) {
	if err := f.checkResolved(); err != nil {
		return 0, err
	}
	if f.res.Column != nil {
		return f.res.Column.Signed(f.res.ColumnIndex)
	}
	if !types.IsSigned(f.marker) {
		return 0, ErrTypeMismatch
	}
	return scalarAt(f.res.mf, f.res.Pos, f.marker).signed()
}

// Float returns the resolved field's float32 value.
func (f *Find) Float() (float32, error) {
	if err := f.checkResolved(); err != nil {
		return 0, err
	}
	if f.res.Column != nil {
		return f.res.Column.Float(f.res.ColumnIndex)
	}
	if f.marker != types.Float32 {
		return 0, ErrTypeMismatch
	}
	return scalarAt(f.res.mf, f.res.Pos, f.marker).float()
}

// String returns the resolved field's string value.
func (f *Find) String() (string, error) {
	if err := f.checkResolved(); err != nil {
		return "", err
	}
	if f.res.Column != nil {
		return "", ErrTypeMismatch
	}
	if f.marker != types.String {
		return "", ErrTypeMismatch
	}
	return scalarAt(f.res.mf, f.res.Pos, f.marker).str()
}

// Binary returns the resolved field's MIME type and payload.
func (f *Find) Binary() (mime string, payload []byte, err error) {
	if err := f.checkResolved(); err != nil {
		return "", nil, err
	}
	if f.res.Column != nil {
		return "", nil, ErrTypeMismatch
	}
	if f.marker != types.Binary && f.marker != types.BinaryCustom {
		return "", nil, ErrTypeMismatch
	}
	return scalarAt(f.res.mf, f.res.Pos, f.marker).binary()
}

// Array opens the resolved field as an ArrayIt.
func (f *Find) Array() (*citer.ArrayIt, error) {
	if err := f.checkResolved(); err != nil {
		return nil, err
	}
	if f.res.Column != nil || !types.IsArray(f.marker) {
		return nil, ErrNoContainer
	}
	return citer.OpenArray(f.res.mf, f.res.Pos)
}

// Object opens the resolved field as an ObjectIt.
func (f *Find) Object() (*citer.ObjectIt, error) {
	if err := f.checkResolved(); err != nil {
		return nil, err
	}
	if f.res.Column != nil || !types.IsObject(f.marker) {
		return nil, ErrNoContainer
	}
	return citer.OpenObject(f.res.mf, f.res.Pos)
}

// Column opens the resolved field as a ColumnIt. If resolution already
// landed on a column element, the column itself is returned directly.
func (f *Find) Column() (*citer.ColumnIt, error) {
	if err := f.checkResolved(); err != nil {
		return nil, err
	}
	if f.res.Column != nil {
		return f.res.Column, nil
	}
	if !types.IsColumn(f.marker) {
		return nil, ErrNoContainer
	}
	return citer.OpenColumn(f.res.mf, f.res.Pos)
}
