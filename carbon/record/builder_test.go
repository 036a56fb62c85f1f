package record

import (
	"testing"

	"github.com/jakson-labs/carbon/carbon/types"
)

func TestBuilderEmptyArray(t *testing.T) {
	b, err := NewBuilder(nil, NoKey())
	if err != nil {
		t.Fatal(err)
	}
	rec, err := b.Close()
	if err != nil {
		t.Fatal(err)
	}
	if err := rec.Verify(); err != nil {
		t.Fatal(err)
	}
	if rec.Key().Type != KeyNone {
		t.Fatalf("key type = %v", rec.Key().Type)
	}
}

func TestBuilderScalars(t *testing.T) {
	b, err := NewBuilder(nil, StringKey("orders/42"))
	if err != nil {
		t.Fatal(err)
	}
	root := b.Root()
	if err := root.U8(1); err != nil {
		t.Fatal(err)
	}
	if err := root.True(); err != nil {
		t.Fatal(err)
	}
	if err := root.String("hello"); err != nil {
		t.Fatal(err)
	}

	rec, err := b.Close()
	if err != nil {
		t.Fatal(err)
	}
	if err := rec.Verify(); err != nil {
		t.Fatal(err)
	}
	if rec.Key().Str != "orders/42" {
		t.Fatalf("key = %q", rec.Key().Str)
	}
}

func TestBuilderDetectsCorruption(t *testing.T) {
	b, _ := NewBuilder(nil, UnsignedKey(7))
	_ = b.Root().U32(99)
	rec, err := b.Close()
	if err != nil {
		t.Fatal(err)
	}

	bad := append([]byte(nil), rec.Bytes()...)
	bad[len(bad)-1] ^= 0xFF // corrupt the array terminator

	// Open still accepts the bytes (it checks only the payload's first
	// marker), but Verify rejects them: the commit hash covers every payload
	// byte, including the corrupted terminator.
	corrupted, err := Open(bad)
	if err != nil {
		t.Fatal(err)
	}
	if err := corrupted.Verify(); err == nil {
		t.Fatal("expected commit mismatch after corrupting payload bytes")
	}
}

func TestBuilderRejectsDuplicateSortedSetValues(t *testing.T) {
	b, err := NewBuilder(nil, NoKey(), WithRootClass(types.SortedSet))
	if err != nil {
		t.Fatal(err)
	}
	root := b.Root()
	_ = root.U8(1)
	_ = root.U8(1)
	if _, err := b.Close(); err != ErrDuplicateEntry {
		t.Fatalf("Close() error = %v, want ErrDuplicateEntry", err)
	}
}

func TestBuilderAllowsSortedSetWithoutDuplicates(t *testing.T) {
	b, err := NewBuilder(nil, NoKey(), WithRootClass(types.SortedSet))
	if err != nil {
		t.Fatal(err)
	}
	root := b.Root()
	_ = root.U8(1)
	_ = root.U8(2)
	rec, err := b.Close()
	if err != nil {
		t.Fatal(err)
	}
	if err := rec.Verify(); err != nil {
		t.Fatal(err)
	}
}

func TestBuilderRejectsDuplicateSortedMapKeys(t *testing.T) {
	b, err := NewBuilder(nil, NoKey())
	if err != nil {
		t.Fatal(err)
	}
	obj, err := b.Root().OpenObject(types.SortedMap)
	if err != nil {
		t.Fatal(err)
	}
	_ = obj.Key("a")
	_ = obj.U8(1)
	_ = obj.Key("a")
	_ = obj.U8(2)
	if err := obj.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Close(); err != ErrDuplicateEntry {
		t.Fatalf("Close() error = %v, want ErrDuplicateEntry", err)
	}
}
