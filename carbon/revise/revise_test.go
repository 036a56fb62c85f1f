package revise_test

import (
	"testing"

	"github.com/jakson-labs/carbon/carbon/path"
	"github.com/jakson-labs/carbon/carbon/record"
	"github.com/jakson-labs/carbon/carbon/revise"
	"github.com/jakson-labs/carbon/carbon/types"
)

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func buildRemoveFixture(t *testing.T) *record.Record {
	t.Helper()
	b, err := record.NewBuilder(nil, record.UnsignedKey(7))
	must(t, err)

	obj, err := b.Root().OpenObject(types.UnsortedMultimap)
	must(t, err)
	must(t, obj.Key("b"))
	barr, err := obj.OpenArray(types.UnsortedMultiset)
	must(t, err)
	must(t, barr.True())
	must(t, barr.False())
	must(t, barr.Null())
	must(t, barr.Close())
	must(t, obj.Close())

	rec, err := b.Close()
	must(t, err)
	return rec
}

func TestReviseRemoveScenarioTwo(t *testing.T) {
	rec := buildRemoveFixture(t)
	preCommit := rec.Commit()

	sess, err := revise.Begin(nil, rec)
	must(t, err)

	must(t, sess.Remove("b.[0]"))

	next, err := sess.End()
	must(t, err)

	if next.Commit() == preCommit {
		t.Fatalf("commit hash unchanged after revise: %#x", next.Commit())
	}
	if err := next.Verify(); err != nil {
		t.Fatalf("post-commit record fails verification: %v", err)
	}

	f0, err := path.Open(next, "b.[0]")
	must(t, err)
	if v, err := f0.Bool(); err != nil || v != false {
		t.Fatalf("b.[0] after remove = %v, %v, want false", v, err)
	}
	f1, err := path.Open(next, "b.[1]")
	must(t, err)
	if null, err := f1.IsNull(); err != nil || !null {
		t.Fatalf("b.[1] after remove = %v, %v, want null", null, err)
	}
	f2, err := path.Open(next, "b.[2]")
	must(t, err)
	if f2.Status() != path.NoSuchIndex {
		t.Fatalf("b.[2] after remove status = %v, want no-such-index", f2.Status())
	}

	if !rec.IsStale() {
		t.Fatalf("original record not marked stale after commit")
	}
}

func TestReviseAbortLeavesOriginalUntouched(t *testing.T) {
	rec := buildRemoveFixture(t)
	before := append([]byte(nil), rec.Bytes()...)

	sess, err := revise.Begin(nil, rec)
	must(t, err)
	must(t, sess.Remove("b.[0]"))
	must(t, sess.Abort())

	if string(before) != string(rec.Bytes()) {
		t.Fatalf("original record bytes changed after abort")
	}
	if rec.IsStale() {
		t.Fatalf("original record marked stale after abort")
	}

	// the lock must be released so a fresh session can open.
	sess2, err := revise.Begin(nil, rec)
	must(t, err)
	must(t, sess2.Abort())
}

func TestReviseBusyRejectsConcurrentSession(t *testing.T) {
	rec := buildRemoveFixture(t)
	sess, err := revise.Begin(nil, rec)
	must(t, err)
	defer sess.Abort()

	if _, err := revise.Begin(nil, rec); err != record.ErrBusy {
		t.Fatalf("second Begin = %v, want ErrBusy", err)
	}
}

func buildColumnPromotionFixture(t *testing.T) *record.Record {
	t.Helper()
	b, err := record.NewBuilder(nil, record.NoKey())
	must(t, err)
	col, err := b.Root().OpenColumn(types.ColU8, types.UnsortedMultiset)
	must(t, err)
	for _, v := range []uint8{1, 2, 3, 4} {
		must(t, col.ColumnU8(v))
	}
	must(t, col.Close())
	rec, err := b.Close()
	must(t, err)
	return rec
}

func TestReviseColumnPromotionScenarioThree(t *testing.T) {
	rec := buildColumnPromotionFixture(t)

	sess, err := revise.Begin(nil, rec)
	must(t, err)
	must(t, sess.UpdateSetTrue("[2]"))
	next, err := sess.End()
	must(t, err)

	f2, err := path.Open(next, "[2]")
	must(t, err)
	if v, err := f2.Bool(); err != nil || !v {
		t.Fatalf("[2] after promotion = %v, %v, want true", v, err)
	}
	f0, err := path.Open(next, "[0]")
	must(t, err)
	if v, err := f0.Unsigned(); err != nil || v != 1 {
		t.Fatalf("[0] after promotion = %d, %v, want 1", v, err)
	}
	f3, err := path.Open(next, "[3]")
	must(t, err)
	if v, err := f3.Unsigned(); err != nil || v != 4 {
		t.Fatalf("[3] after promotion = %d, %v, want 4", v, err)
	}
}

func TestReviseUpdateSetTrueOnNonColumnPathRejected(t *testing.T) {
	rec := buildRemoveFixture(t)
	sess, err := revise.Begin(nil, rec)
	must(t, err)
	defer sess.Abort()

	if err := sess.UpdateSetTrue("b"); err != revise.ErrNotAColumnElement {
		t.Fatalf("UpdateSetTrue on non-column path = %v, want ErrNotAColumnElement", err)
	}
}

func TestReviseEndRejectsDuplicateIntroducedBySortedSetMutation(t *testing.T) {
	b, err := record.NewBuilder(nil, record.NoKey())
	must(t, err)
	col, err := b.Root().OpenColumn(types.ColBool, types.SortedSet)
	must(t, err)
	must(t, col.ColumnBool(false))
	must(t, col.ColumnBool(true))
	must(t, col.Close())
	rec, err := b.Close()
	must(t, err)

	sess, err := revise.Begin(nil, rec)
	must(t, err)
	must(t, sess.UpdateSetTrue("[0]"))

	if _, err := sess.End(); err != record.ErrDuplicateEntry {
		t.Fatalf("End() error = %v, want ErrDuplicateEntry", err)
	}
}

func TestRevisePackTrimsColumnCapacity(t *testing.T) {
	b, err := record.NewBuilder(nil, record.NoKey())
	must(t, err)
	col, err := b.Root().OpenColumn(types.ColU32, types.UnsortedMultiset)
	must(t, err)
	// grow capacity 0 -> 1 -> 3 -> 7 so capacity (7) > count (4)
	for i := 0; i < 4; i++ {
		must(t, col.ColumnU32(uint32(i)))
	}
	must(t, col.Close())
	rec, err := b.Close()
	must(t, err)

	sess, err := revise.Begin(nil, rec)
	must(t, err)
	must(t, sess.Pack())
	next, err := sess.End()
	must(t, err)

	f, err := path.Open(next, "[0]")
	must(t, err)
	col2, err := f.Column()
	must(t, err)
	count, err := col2.Count()
	must(t, err)
	capacity, err := col2.Capacity()
	must(t, err)
	if count != capacity {
		t.Fatalf("after pack: count=%d capacity=%d, want equal", count, capacity)
	}
}
