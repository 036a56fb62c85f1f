package visit_test

import (
	"testing"

	"github.com/jakson-labs/carbon/carbon/record"
	"github.com/jakson-labs/carbon/carbon/types"
	"github.com/jakson-labs/carbon/visit"
)

type recording struct {
	events []string
}

func (r *recording) VisitNull() error          { r.events = append(r.events, "null"); return nil }
func (r *recording) VisitBool(v bool) error     { r.events = append(r.events, boolTag(v)); return nil }
func (r *recording) VisitUnsigned(v uint64) error {
	r.events = append(r.events, "u:"+itoa(int64(v)))
	return nil
}
func (r *recording) VisitSigned(v int64) error {
	r.events = append(r.events, "i:"+itoa(v))
	return nil
}
func (r *recording) VisitFloat(v float32) error { r.events = append(r.events, "f"); return nil }
func (r *recording) VisitString(v string) error { r.events = append(r.events, "s:"+v); return nil }
func (r *recording) VisitBinary(mime string, payload []byte) error {
	r.events = append(r.events, "bin:"+mime)
	return nil
}
func (r *recording) EnterArray(class types.AbstractClass) error {
	r.events = append(r.events, "enter-array")
	return nil
}
func (r *recording) ExitArray() error { r.events = append(r.events, "exit-array"); return nil }
func (r *recording) EnterObject(class types.AbstractClass) error {
	r.events = append(r.events, "enter-object")
	return nil
}
func (r *recording) PropertyName(name string) error {
	r.events = append(r.events, "prop:"+name)
	return nil
}
func (r *recording) ExitObject() error { r.events = append(r.events, "exit-object"); return nil }
func (r *recording) EnterColumn(elem types.ColumnElem, class types.AbstractClass, count uint64) error {
	r.events = append(r.events, "enter-column")
	return nil
}
func (r *recording) ExitColumn() error { r.events = append(r.events, "exit-column"); return nil }

func boolTag(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

func itoa(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWalkObjectWithArrayAndColumn(t *testing.T) {
	b, err := record.NewBuilder(nil, record.NoKey())
	must(t, err)

	obj, err := b.Root().OpenObject(types.UnsortedMultimap)
	must(t, err)
	must(t, obj.Key("a"))
	must(t, obj.U8(1))

	must(t, obj.Key("b"))
	barr, err := obj.OpenArray(types.UnsortedMultiset)
	must(t, err)
	must(t, barr.True())
	must(t, barr.False())
	must(t, barr.Null())
	must(t, barr.Close())

	must(t, obj.Key("c"))
	col, err := obj.OpenColumn(types.ColU8, types.UnsortedMultiset)
	must(t, err)
	must(t, col.ColumnU8(1))
	must(t, col.ColumnU8(2))
	must(t, col.Close())

	must(t, obj.Close())
	rec, err := b.Close()
	must(t, err)

	rv := &recording{}
	must(t, visit.Walk(rec, rv))

	want := []string{
		"enter-array", // record-payload unit-array wrapping the object
		"enter-object",
		"prop:a", "u:1",
		"prop:b", "enter-array", "true", "false", "null", "exit-array",
		"prop:c", "enter-column", "u:1", "u:2", "exit-column",
		"exit-object",
		"exit-array",
	}
	if len(rv.events) != len(want) {
		t.Fatalf("event count = %d, want %d\ngot:  %v\nwant: %v", len(rv.events), len(want), rv.events, want)
	}
	for i := range want {
		if rv.events[i] != want[i] {
			t.Fatalf("event[%d] = %q, want %q\ngot:  %v\nwant: %v", i, rv.events[i], want[i], rv.events, want)
		}
	}
}
