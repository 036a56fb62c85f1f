package stringdict_test

import (
	"testing"

	"github.com/jakson-labs/carbon/stringdict"
)

func TestInternDedup(t *testing.T) {
	d := stringdict.New(nil, 1000, 0.01)

	id1, existing1 := d.Intern([]byte("hello"))
	if existing1 {
		t.Fatalf("first Intern reported existing")
	}
	id2, existing2 := d.Intern([]byte("hello"))
	if !existing2 {
		t.Fatalf("second Intern of same value did not report existing")
	}
	if id1 != id2 {
		t.Fatalf("ids differ for the same interned value: %d != %d", id1, id2)
	}

	id3, existing3 := d.Intern([]byte("world"))
	if existing3 {
		t.Fatalf("distinct value reported existing")
	}
	if id3 == id1 {
		t.Fatalf("distinct values collided on id %d", id1)
	}

	v, ok := d.Lookup(id1)
	if !ok || string(v) != "hello" {
		t.Fatalf("Lookup(%d) = %q, %v, want \"hello\", true", id1, v, ok)
	}

	if d.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", d.Len())
	}
}

func TestResetClearsEntries(t *testing.T) {
	d := stringdict.New(nil, 10, 0.01)
	d.Intern([]byte("a"))
	d.Intern([]byte("b"))
	d.Reset()

	if d.Len() != 0 {
		t.Fatalf("Len() after Reset = %d, want 0", d.Len())
	}
	id, existing := d.Intern([]byte("a"))
	if existing {
		t.Fatalf("value reported existing right after Reset")
	}
	if id != 0 {
		t.Fatalf("id after Reset = %d, want 0 (ids restart)", id)
	}
}
