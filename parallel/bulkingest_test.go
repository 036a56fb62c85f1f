package parallel_test

import (
	"testing"

	"github.com/jakson-labs/carbon/carbon/record"
	"github.com/jakson-labs/carbon/carbon/types"
	"github.com/jakson-labs/carbon/parallel"
	"github.com/jakson-labs/carbon/stringdict"
)

func TestBulkIngestInternsRepeatedValuesAndAppendsIDs(t *testing.T) {
	b, err := record.NewBuilder(nil, record.NoKey())
	if err != nil {
		t.Fatal(err)
	}
	col, err := b.Root().OpenColumn(types.ColU64, types.UnsortedMultiset)
	if err != nil {
		t.Fatal(err)
	}

	dict := stringdict.New(nil, 64, 0.01)
	values := []string{"red", "green", "red", "blue", "green", "red"}
	if err := parallel.BulkIngest(parallel.New(), dict, col, values); err != nil {
		t.Fatal(err)
	}
	if err := col.Close(); err != nil {
		t.Fatal(err)
	}
	rec, err := b.Close()
	if err != nil {
		t.Fatal(err)
	}
	if err := rec.Verify(); err != nil {
		t.Fatal(err)
	}

	if got, want := dict.Len(), 3; got != want {
		t.Fatalf("dict.Len() = %d, want %d", got, want)
	}
}
