// Command carbon is a small demonstration CLI: it builds a record, revises
// a field, then prints the result by driving visit.Walk with a minimal
// JSON-ish printer. It exists to give the engine packages a runnable
// caller, not as a production tool.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/jakson-labs/carbon/carbon/path"
	"github.com/jakson-labs/carbon/carbon/record"
	"github.com/jakson-labs/carbon/carbon/revise"
	"github.com/jakson-labs/carbon/carbon/types"
	"github.com/jakson-labs/carbon/parallel"
	"github.com/jakson-labs/carbon/stringdict"
	"github.com/jakson-labs/carbon/visit"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "carbon:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := record.NewContext(nil)

	b, err := record.NewBuilder(ctx, record.AutoKey(1))
	if err != nil {
		return err
	}
	obj, err := b.Root().OpenObject(types.UnsortedMultimap)
	if err != nil {
		return err
	}
	if err := obj.Key("name"); err != nil {
		return err
	}
	if err := obj.String("demo"); err != nil {
		return err
	}
	if err := obj.Key("scores"); err != nil {
		return err
	}
	col, err := obj.OpenColumn(types.ColU8, types.UnsortedMultiset)
	if err != nil {
		return err
	}
	for _, v := range []uint8{1, 2, 3} {
		if err := col.ColumnU8(v); err != nil {
			return err
		}
	}
	if err := col.Close(); err != nil {
		return err
	}

	if err := obj.Key("tags"); err != nil {
		return err
	}
	tagCol, err := obj.OpenColumn(types.ColU64, types.UnsortedMultiset)
	if err != nil {
		return err
	}
	dict := stringdict.New(ctx, 64, 0.01)
	tags := []string{"alpha", "beta", "alpha", "gamma", "beta"}
	if err := parallel.BulkIngest(parallel.New(), dict, tagCol, tags); err != nil {
		return err
	}
	if err := tagCol.Close(); err != nil {
		return err
	}

	if err := obj.Close(); err != nil {
		return err
	}
	rec, err := b.Close()
	if err != nil {
		return err
	}

	sess, err := revise.Begin(ctx, rec)
	if err != nil {
		return err
	}
	if err := sess.UpdateSetTrue("scores.[1]"); err != nil {
		return err
	}
	rec, err = sess.End()
	if err != nil {
		return err
	}

	if err := rec.Verify(); err != nil {
		return err
	}

	f, err := path.Open(rec, "name")
	if err != nil {
		return err
	}
	name, err := f.String()
	if err != nil {
		return err
	}
	fmt.Println("name:", name)

	return visit.Walk(rec, &printer{})
}

// printer is a Visitor that renders the walk as compact JSON-ish text.
type printer struct {
	needsComma []bool
}

func (p *printer) sep() {
	if len(p.needsComma) > 0 {
		if p.needsComma[len(p.needsComma)-1] {
			fmt.Print(",")
		}
		p.needsComma[len(p.needsComma)-1] = true
	}
}

func (p *printer) VisitNull() error           { p.sep(); fmt.Print("null"); return nil }
func (p *printer) VisitBool(v bool) error     { p.sep(); fmt.Print(strconv.FormatBool(v)); return nil }
func (p *printer) VisitUnsigned(v uint64) error {
	p.sep()
	fmt.Print(strconv.FormatUint(v, 10))
	return nil
}
func (p *printer) VisitSigned(v int64) error {
	p.sep()
	fmt.Print(strconv.FormatInt(v, 10))
	return nil
}
func (p *printer) VisitFloat(v float32) error {
	p.sep()
	fmt.Print(strconv.FormatFloat(float64(v), 'g', -1, 32))
	return nil
}
func (p *printer) VisitString(v string) error {
	p.sep()
	fmt.Printf("%q", v)
	return nil
}
func (p *printer) VisitBinary(mime string, payload []byte) error {
	p.sep()
	fmt.Printf("<binary %s, %d bytes>", mime, len(payload))
	return nil
}

func (p *printer) EnterArray(class types.AbstractClass) error {
	p.sep()
	fmt.Print("[")
	p.needsComma = append(p.needsComma, false)
	return nil
}
func (p *printer) ExitArray() error {
	p.needsComma = p.needsComma[:len(p.needsComma)-1]
	fmt.Print("]")
	return nil
}

func (p *printer) EnterObject(class types.AbstractClass) error {
	p.sep()
	fmt.Print("{")
	p.needsComma = append(p.needsComma, false)
	return nil
}
func (p *printer) PropertyName(name string) error {
	p.sep()
	fmt.Printf("%q:", name)
	p.needsComma[len(p.needsComma)-1] = false
	return nil
}
func (p *printer) ExitObject() error {
	p.needsComma = p.needsComma[:len(p.needsComma)-1]
	fmt.Print("}")
	return nil
}

func (p *printer) EnterColumn(elem types.ColumnElem, class types.AbstractClass, count uint64) error {
	p.sep()
	fmt.Print("[")
	p.needsComma = append(p.needsComma, false)
	return nil
}
func (p *printer) ExitColumn() error {
	p.needsComma = p.needsComma[:len(p.needsComma)-1]
	fmt.Print("]")
	return nil
}
