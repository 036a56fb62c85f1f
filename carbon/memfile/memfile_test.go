package memfile

import (
	"bytes"
	"testing"
)

func TestSeekSkipRemain(t *testing.T) {
	mf := Open([]byte("0123456789"), ReadOnly)

	if mf.Size() != 10 {
		t.Fatalf("size = %d, want 10", mf.Size())
	}

	if err := mf.Seek(4); err != nil {
		t.Fatal(err)
	}
	if mf.Remain() != 6 {
		t.Fatalf("remain = %d, want 6", mf.Remain())
	}

	if err := mf.Skip(2); err != nil {
		t.Fatal(err)
	}
	if mf.Tell() != 6 {
		t.Fatalf("tell = %d, want 6", mf.Tell())
	}

	if err := mf.Seek(-1); err != ErrOutOfBounds {
		t.Fatalf("err = %v, want ErrOutOfBounds", err)
	}
}

func TestPeekDoesNotAdvance(t *testing.T) {
	mf := Open([]byte("hello world"), ReadOnly)
	b, err := mf.Peek(5)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "hello" {
		t.Fatalf("peek = %q", b)
	}
	if mf.Tell() != 0 {
		t.Fatalf("tell moved after peek: %d", mf.Tell())
	}

	r, err := mf.Read(5)
	if err != nil {
		t.Fatal(err)
	}
	if string(r) != "hello" || mf.Tell() != 5 {
		t.Fatalf("read = %q, tell = %d", r, mf.Tell())
	}
}

func TestSaveRestorePositionStack(t *testing.T) {
	mf := Open([]byte("0123456789"), ReadOnly)
	mf.Seek(2)
	mf.SavePosition()
	mf.Seek(8)
	mf.SavePosition()
	mf.Seek(5)

	if err := mf.RestorePosition(); err != nil {
		t.Fatal(err)
	}
	if mf.Tell() != 8 {
		t.Fatalf("tell = %d, want 8", mf.Tell())
	}

	if err := mf.RestorePosition(); err != nil {
		t.Fatal(err)
	}
	if mf.Tell() != 2 {
		t.Fatalf("tell = %d, want 2", mf.Tell())
	}

	if err := mf.RestorePosition(); err != ErrEmptyStack {
		t.Fatalf("err = %v, want ErrEmptyStack", err)
	}
}

func TestInplaceInsertRemove(t *testing.T) {
	mf := Open([]byte("abcXYZ"), ReadWrite)
	mf.Seek(3)
	if err := mf.InplaceInsert(3); err != nil {
		t.Fatal(err)
	}
	mf.Write([]byte("123"))
	if !bytes.Equal(mf.Bytes(), []byte("abc123XYZ")) {
		t.Fatalf("got %q", mf.Bytes())
	}

	mf.Seek(3)
	if err := mf.InplaceRemove(3); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(mf.Bytes(), []byte("abcXYZ")) {
		t.Fatalf("got %q", mf.Bytes())
	}
}

func TestReadOnlyRejectsWrites(t *testing.T) {
	mf := Open([]byte("abc"), ReadOnly)
	if _, err := mf.Write([]byte("x")); err != ErrReadOnly {
		t.Fatalf("err = %v, want ErrReadOnly", err)
	}
	if err := mf.InplaceInsert(1); err != ErrReadOnly {
		t.Fatalf("err = %v, want ErrReadOnly", err)
	}
}

func TestUpdateVarIntStreamGrowsAndShiftsShrinks(t *testing.T) {
	mf := Open(nil, ReadWrite)
	mf.Append([]byte{0xAA})
	if err := mf.WriteVarIntStream(5); err != nil {
		t.Fatal(err)
	}
	mf.Append([]byte{0xBB, 0xCC})

	shift, err := mf.UpdateVarIntStream(1, 1<<20)
	if err != nil {
		t.Fatal(err)
	}
	if shift != 2 {
		t.Fatalf("shift = %d, want 2", shift)
	}

	mf.Seek(1)
	got, err := mf.ReadVarIntStream()
	if err != nil {
		t.Fatal(err)
	}
	if got != 1<<20 {
		t.Fatalf("got %d", got)
	}

	tail, err := mf.Read(2)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(tail, []byte{0xBB, 0xCC}) {
		t.Fatalf("tail corrupted: %v", tail)
	}

	shift, err = mf.UpdateVarIntStream(1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if shift != -2 {
		t.Fatalf("shift = %d, want -2", shift)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	mf := Open([]byte("original"), ReadWrite)
	clone := mf.Clone()
	clone.Seek(0)
	clone.Write([]byte("CHANGED!"))

	if string(mf.Bytes()) != "original" {
		t.Fatalf("original mutated: %q", mf.Bytes())
	}
	if string(clone.Bytes()) != "CHANGED!" {
		t.Fatalf("clone = %q", clone.Bytes())
	}
}
