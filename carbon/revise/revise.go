// Package revise implements the Reviser: a copy-on-write mutation session
// over a single record. Opening a session clones the record's
// bytes under the record's per-record write lock; the clone is the
// mutation target, and the original stays readable (and byte-identical)
// until the session commits.
package revise

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/jakson-labs/carbon/carbon/citer"
	"github.com/jakson-labs/carbon/carbon/inserter"
	"github.com/jakson-labs/carbon/carbon/memfile"
	"github.com/jakson-labs/carbon/carbon/path"
	"github.com/jakson-labs/carbon/carbon/record"
	"github.com/jakson-labs/carbon/carbon/types"
)

// Errors specific to the reviser, layered over the format's error taxonomy.
var (
	ErrSessionDone       = fmt.Errorf("revise: session already ended")
	ErrKeyTypeMismatch   = fmt.Errorf("revise: key mutator does not match the record's key type")
	ErrNotAColumnElement = fmt.Errorf("revise: update_set_true/false targets a column element path")
	ErrCannotRemoveRoot  = fmt.Errorf("revise: cannot remove the record root")
)

// Session is an open revise session against one record.
type Session struct {
	ctx      *record.Context
	original *record.Record
	mf       *memfile.MemFile
	key      record.Key
	token    uuid.UUID
	done     bool
}

// Begin opens a revise session: it acquires rec's write lock, clones its
// bytes, and returns a Session positioned to mutate the clone. ctx may be
// nil (record.Background() is used).
func Begin(ctx *record.Context, rec *record.Record) (*Session, error) {
	if ctx == nil {
		ctx = record.Background()
	}
	if err := rec.BeginRevise(); err != nil {
		return nil, err
	}

	cloned := make([]byte, len(rec.Bytes()))
	copy(cloned, rec.Bytes())
	mf := memfile.Open(cloned, memfile.ReadWrite)

	s := &Session{ctx: ctx, original: rec, mf: mf, key: rec.Key(), token: uuid.New()}
	ctx.log().WithField("session", s.token).Debug("carbon: opened revise session")
	return s, nil
}

// Token identifies this session, for logging and diagnostics.
func (s *Session) Token() uuid.UUID { return s.token }

func (s *Session) payloadOffset() int {
	offset := s.key.HeaderLen()
	if s.key.HasCommit() {
		offset += 8
	}
	return offset
}

func (s *Session) commitPos() int {
	if !s.key.HasCommit() {
		return -1
	}
	return s.key.HeaderLen()
}

func (s *Session) checkOpen() error {
	if s.done {
		return ErrSessionDone
	}
	return nil
}

// IteratorOpen returns an ArrayIt over the revised payload's root, for
// direct read-write iteration.
func (s *Session) IteratorOpen() (*citer.ArrayIt, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	return citer.OpenArray(s.mf, s.payloadOffset())
}

// Find resolves path against the revised payload.
func (s *Session) Find(p string) (*path.Find, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	return path.FindAt(s.mf, s.payloadOffset(), p)
}

// Remove resolves path, then deletes the slot it designates.
func (s *Session) Remove(p string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	loc, err := path.LocateParent(s.mf, s.payloadOffset(), p)
	if err != nil {
		return err
	}
	switch loc.Status {
	case path.Resolved:
	case path.NoContainer:
		return ErrCannotRemoveRoot
	default:
		return statusError(loc.Status)
	}
	switch {
	case loc.Array != nil:
		return loc.Array.Remove()
	case loc.Object != nil:
		return loc.Object.Remove()
	case loc.Column != nil:
		return loc.Column.Remove(loc.ColumnIndex)
	default:
		return fmt.Errorf("revise: internal: resolved location names no handle")
	}
}

// UpdateSetTrue sets the column element at path to true; a path that does
// not resolve to a column element returns ErrNotAColumnElement. If the
// column's element type can't represent a boolean, the column is promoted
// to an array that preserves every existing value.
func (s *Session) UpdateSetTrue(p string) error { return s.updateSetBool(p, true) }

// UpdateSetFalse is the false-valued counterpart of UpdateSetTrue.
func (s *Session) UpdateSetFalse(p string) error { return s.updateSetBool(p, false) }

func (s *Session) updateSetBool(p string, v bool) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	loc, err := path.LocateParent(s.mf, s.payloadOffset(), p)
	if err != nil {
		return err
	}
	if loc.Status != path.Resolved {
		return statusError(loc.Status)
	}
	if loc.Column == nil {
		return ErrNotAColumnElement
	}

	var setErr error
	if v {
		setErr = loc.Column.UpdateSetTrue(loc.ColumnIndex)
	} else {
		setErr = loc.Column.UpdateSetFalse(loc.ColumnIndex)
	}
	if setErr == nil {
		return nil
	}
	if setErr != citer.ErrPromotionRequired {
		return setErr
	}
	return s.promoteColumnAndSetBool(loc.Column, loc.ColumnIndex, v)
}

// promoteColumnAndSetBool rewrites a column-of-T in place as an array
// holding the same logical values, overriding one slot with the boolean
// that couldn't be represented in T. A column that is the root array's only
// slot is replaced together with that root wrapper, so the new array becomes
// the root and index paths keep addressing the same elements.
func (s *Session) promoteColumnAndSetBool(col *citer.ColumnIt, index uint64, v bool) error {
	class := col.Class()
	start := col.MarkerPos()

	slots, err := col.AsArraySlots()
	if err != nil {
		return err
	}
	if v {
		slots[index] = citer.ArraySlot{Marker: types.True}
	} else {
		slots[index] = citer.ArraySlot{Marker: types.False}
	}

	end, err := citer.ColumnEnd(s.mf.Bytes(), start)
	if err != nil {
		return err
	}
	root := s.payloadOffset()
	if buf := s.mf.Bytes(); start == root+1 && end < len(buf) && types.Marker(buf[end]) == types.ArrayEnd {
		start, end = root, end+1
	}
	if err := s.mf.Seek(start); err != nil {
		return err
	}
	if err := s.mf.InplaceRemove(end - start); err != nil {
		return err
	}
	if err := s.mf.Seek(start); err != nil {
		return err
	}

	arr, err := inserter.OpenRootArray(s.mf, class)
	if err != nil {
		return err
	}
	for _, slot := range slots {
		if err := writeSlot(arr, slot); err != nil {
			return err
		}
	}
	return arr.Close()
}

func writeSlot(arr *inserter.Inserter, slot citer.ArraySlot) error {
	switch slot.Marker {
	case types.Null:
		return arr.Null()
	case types.True:
		return arr.True()
	case types.False:
		return arr.False()
	case types.U8:
		return arr.U8(uint8(slot.Value))
	case types.U16:
		return arr.U16(uint16(slot.Value))
	case types.U32:
		return arr.U32(uint32(slot.Value))
	case types.U64:
		return arr.U64(slot.Value)
	case types.I8:
		return arr.I8(int8(slot.Value))
	case types.I16:
		return arr.I16(int16(slot.Value))
	case types.I32:
		return arr.I32(int32(slot.Value))
	case types.I64:
		return arr.I64(int64(slot.Value))
	case types.Float32:
		return arr.Float32(math.Float32frombits(uint32(slot.Value)))
	default:
		return fmt.Errorf("revise: internal: unhandled promoted slot marker %#x", byte(slot.Marker))
	}
}

// SetUnsignedKey overwrites an unsigned key's value in place. Gated by the
// original key type: a session opened against a record with a different
// key type rejects the mutator outright.
func (s *Session) SetUnsignedKey(v uint64) error {
	if s.key.Type != record.KeyUnsigned {
		return ErrKeyTypeMismatch
	}
	if err := s.writeFixedKeyBody(v); err != nil {
		return err
	}
	s.key.Unsigned = v
	return nil
}

// SetSignedKey overwrites a signed key's value in place.
func (s *Session) SetSignedKey(v int64) error {
	if s.key.Type != record.KeySigned {
		return ErrKeyTypeMismatch
	}
	if err := s.writeFixedKeyBody(uint64(v)); err != nil {
		return err
	}
	s.key.Signed = v
	return nil
}

// GenerateAutoKey replaces an auto-uid key's value with a freshly generated
// one, gated on the record having been built with KeyAuto.
func (s *Session) GenerateAutoKey() (uint64, error) {
	if s.key.Type != record.KeyAuto {
		return 0, ErrKeyTypeMismatch
	}
	fresh := uuid.New()
	id := binary.LittleEndian.Uint64(fresh[:8])
	if err := s.writeFixedKeyBody(id); err != nil {
		return 0, err
	}
	s.key.Unsigned = id
	return id, nil
}

func (s *Session) writeFixedKeyBody(v uint64) error {
	if err := s.mf.Seek(1); err != nil {
		return err
	}
	var buf [8]byte
	for i := range buf {
		buf[i] = byte(v >> (8 * uint(i)))
	}
	_, err := s.mf.Write(buf[:])
	return err
}

// SetStringKey overwrites a string key's value, splicing in a new length
// prefix and body.
func (s *Session) SetStringKey(v string) error {
	if s.key.Type != record.KeyString {
		return ErrKeyTypeMismatch
	}
	oldLen := s.key.HeaderLen() - 1
	if err := s.mf.Seek(1); err != nil {
		return err
	}
	if err := s.mf.InplaceRemove(oldLen); err != nil {
		return err
	}
	if err := s.mf.WriteVarIntStream(uint64(len(v))); err != nil {
		return err
	}
	body := []byte(v)
	if err := s.mf.InplaceInsert(len(body)); err != nil {
		return err
	}
	if _, err := s.mf.Write(body); err != nil {
		return err
	}
	s.key.Str = v
	return nil
}

// End commits the session: it recomputes the commit hash over the revised
// payload, marks the original record stale, releases the write lock, and
// returns the new record.
func (s *Session) End() (*record.Record, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	rec, err := record.Open(s.mf.Bytes())
	if err != nil {
		return nil, err
	}
	if err := record.CheckNoDuplicates(rec); err != nil {
		return nil, err
	}
	if s.key.HasCommit() {
		hash := record.CommitHash(rec.Payload())
		pos := s.commitPos()
		var buf [8]byte
		for i := range buf {
			buf[i] = byte(hash >> (8 * uint(i)))
		}
		copy(rec.Bytes()[pos:pos+8], buf[:])
		// re-parse so the record's cached commit field reflects the byte
		// patch just applied, rather than the placeholder it was opened with.
		rec, err = record.Open(s.mf.Bytes())
		if err != nil {
			return nil, err
		}
		if err := rec.Verify(); err != nil {
			return nil, err
		}
	}

	s.original.MarkStale()
	s.original.EndRevise()
	s.done = true

	s.ctx.log().WithField("session", s.token).Debug("carbon: committed revise session")
	return rec, nil
}

// Abort discards the clone without affecting the original record.
func (s *Session) Abort() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.original.EndRevise()
	s.done = true
	s.ctx.log().WithField("session", s.token).Debug("carbon: aborted revise session")
	return nil
}

func statusError(st path.Status) error {
	return fmt.Errorf("revise: path resolution status: %s", st)
}
