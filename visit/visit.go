// Package visit implements the printer bridge: a visitor interface an
// external printer implements and this package drives by walking a record
// through the iterator layer. Printers themselves (JSON, human-readable,
// etc.) are external and out of scope; this package only owns the walk.
package visit

import (
	"github.com/jakson-labs/carbon/carbon/citer"
	"github.com/jakson-labs/carbon/carbon/memfile"
	"github.com/jakson-labs/carbon/carbon/record"
	"github.com/jakson-labs/carbon/carbon/types"
)

// Visitor receives callbacks as Walk descends a record's payload. Enter*
// calls are always paired with the matching Exit* once every child has been
// visited; PropertyName precedes each object value's own visit callback.
type Visitor interface {
	VisitNull() error
	VisitBool(v bool) error
	VisitUnsigned(v uint64) error
	VisitSigned(v int64) error
	VisitFloat(v float32) error
	VisitString(v string) error
	VisitBinary(mime string, payload []byte) error

	EnterArray(class types.AbstractClass) error
	ExitArray() error

	EnterObject(class types.AbstractClass) error
	PropertyName(name string) error
	ExitObject() error

	// EnterColumn/ExitColumn bracket a column's walk; each element in
	// between is reported through the same Visit* callbacks scalars use
	// (VisitNull for a slot holding the element type's null sentinel,
	// VisitUnsigned/VisitSigned/VisitBool/VisitFloat otherwise).
	EnterColumn(elem types.ColumnElem, class types.AbstractClass, count uint64) error
	ExitColumn() error
}

// Walk drives v over rec's committed payload.
func Walk(rec *record.Record, v Visitor) error {
	return WalkAt(rec.MemFile(), rec.PayloadOffset(), v)
}

// WalkAt drives v over the container at pos within mf, for callers (e.g. a
// revise session) that need to visit an uncommitted clone.
func WalkAt(mf *memfile.MemFile, pos int, v Visitor) error {
	m := types.Marker(mf.Bytes()[pos])
	switch {
	case types.IsArray(m):
		return walkArray(mf, pos, v)
	case types.IsObject(m):
		return walkObject(mf, pos, v)
	case types.IsColumn(m):
		return walkColumn(mf, pos, v)
	default:
		return citer.ErrWrongContainerKind
	}
}

func walkArray(mf *memfile.MemFile, pos int, v Visitor) error {
	it, err := citer.OpenArray(mf, pos)
	if err != nil {
		return err
	}
	if err := v.EnterArray(it.Class()); err != nil {
		return err
	}
	for {
		more, err := it.Next()
		if err != nil {
			return err
		}
		if !more {
			break
		}
		m, err := it.FieldType()
		if err != nil {
			return err
		}
		if types.IsTraversable(m) {
			if err := WalkAt(mf, it.Pos(), v); err != nil {
				return err
			}
			continue
		}
		if err := visitScalar(m, arrayScalar{it}, v); err != nil {
			return err
		}
	}
	return v.ExitArray()
}

func walkObject(mf *memfile.MemFile, pos int, v Visitor) error {
	it, err := citer.OpenObject(mf, pos)
	if err != nil {
		return err
	}
	if err := v.EnterObject(it.Class()); err != nil {
		return err
	}
	for {
		more, err := it.Next()
		if err != nil {
			return err
		}
		if !more {
			break
		}
		name, err := it.PropName()
		if err != nil {
			return err
		}
		if err := v.PropertyName(name); err != nil {
			return err
		}
		m, err := it.PropType()
		if err != nil {
			return err
		}
		if types.IsTraversable(m) {
			if err := WalkAt(mf, it.ValuePos(), v); err != nil {
				return err
			}
			continue
		}
		if err := visitScalar(m, objectScalar{it}, v); err != nil {
			return err
		}
	}
	return v.ExitObject()
}

func walkColumn(mf *memfile.MemFile, pos int, v Visitor) error {
	ci, err := citer.OpenColumn(mf, pos)
	if err != nil {
		return err
	}
	count, err := ci.Count()
	if err != nil {
		return err
	}
	if err := v.EnterColumn(ci.ElemType(), ci.Class(), count); err != nil {
		return err
	}
	for i := uint64(0); i < count; i++ {
		null, err := ci.IsNull(i)
		if err != nil {
			return err
		}
		if null {
			if err := v.VisitNull(); err != nil {
				return err
			}
			continue
		}
		if err := visitColumnValue(ci, i, v); err != nil {
			return err
		}
	}
	return v.ExitColumn()
}

// scalarSource abstracts over ArrayIt/ObjectIt's identically-shaped typed
// accessors, so visitScalar dispatches once instead of duplicating the
// marker switch per container kind.
type scalarSource interface {
	Bool() (bool, error)
	Unsigned() (uint64, error)
	Signed() (int64, error)
	Float() (float32, error)
	String() (string, error)
	Binary() (string, []byte, error)
}

type arrayScalar struct{ it *citer.ArrayIt }

func (a arrayScalar) Bool() (bool, error)                 { return a.it.Bool() }
func (a arrayScalar) Unsigned() (uint64, error)           { return a.it.Unsigned() }
func (a arrayScalar) Signed() (int64, error)              { return a.it.Signed() }
func (a arrayScalar) Float() (float32, error)             { return a.it.Float() }
func (a arrayScalar) String() (string, error)             { return a.it.String() }
func (a arrayScalar) Binary() (string, []byte, error)     { return a.it.Binary() }

type objectScalar struct{ it *citer.ObjectIt }

func (o objectScalar) Bool() (bool, error)             { return o.it.Bool() }
func (o objectScalar) Unsigned() (uint64, error)       { return o.it.Unsigned() }
func (o objectScalar) Signed() (int64, error)          { return o.it.Signed() }
func (o objectScalar) Float() (float32, error)         { return o.it.Float() }
func (o objectScalar) String() (string, error)         { return o.it.String() }
func (o objectScalar) Binary() (string, []byte, error) { return o.it.Binary() }

func visitColumnValue(ci *citer.ColumnIt, index uint64, v Visitor) error {
	switch ci.ElemType() {
	case types.ColBool:
		b, err := ci.Bool(index)
		if err != nil {
			return err
		}
		return v.VisitBool(b)
	case types.ColFloat32:
		f, err := ci.Float(index)
		if err != nil {
			return err
		}
		return v.VisitFloat(f)
	case types.ColI8, types.ColI16, types.ColI32, types.ColI64:
		s, err := ci.Signed(index)
		if err != nil {
			return err
		}
		return v.VisitSigned(s)
	default:
		u, err := ci.Unsigned(index)
		if err != nil {
			return err
		}
		return v.VisitUnsigned(u)
	}
}

func visitScalar(m types.Marker, src scalarSource, v Visitor) error {
	switch {
	case m == types.Null:
		return v.VisitNull()
	case m == types.True, m == types.False:
		b, err := src.Bool()
		if err != nil {
			return err
		}
		return v.VisitBool(b)
	case types.IsUnsigned(m):
		u, err := src.Unsigned()
		if err != nil {
			return err
		}
		return v.VisitUnsigned(u)
	case types.IsSigned(m):
		s, err := src.Signed()
		if err != nil {
			return err
		}
		return v.VisitSigned(s)
	case m == types.Float32:
		f, err := src.Float()
		if err != nil {
			return err
		}
		return v.VisitFloat(f)
	case m == types.String:
		s, err := src.String()
		if err != nil {
			return err
		}
		return v.VisitString(s)
	case m == types.Binary, m == types.BinaryCustom:
		mime, payload, err := src.Binary()
		if err != nil {
			return err
		}
		return v.VisitBinary(mime, payload)
	default:
		return citer.ErrTypeMismatch
	}
}
