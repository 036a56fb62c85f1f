// Package path implements PathEvaluator: resolving a dot-path against a
// record's payload to the container+position it designates.
package path

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jakson-labs/carbon/carbon/citer"
	"github.com/jakson-labs/carbon/carbon/memfile"
	"github.com/jakson-labs/carbon/carbon/record"
	"github.com/jakson-labs/carbon/carbon/types"
)

// Status is a path-evaluation outcome.
type Status int

const (
	Resolved Status = iota
	EmptyDoc
	NoSuchKey
	NoSuchIndex
	NotTraversable
	NotAnObject
	NoContainer
	NoNesting
	InternalError
)

func (s Status) String() string {
	switch s {
	case Resolved:
		return "resolved"
	case EmptyDoc:
		return "empty-doc"
	case NoSuchKey:
		return "no-such-key"
	case NoSuchIndex:
		return "no-such-index"
	case NotTraversable:
		return "not-traversable"
	case NotAnObject:
		return "not-an-object"
	case NoContainer:
		return "no-container"
	case NoNesting:
		return "no-nesting"
	default:
		return "internal-error"
	}
}

// ErrParse signals a malformed dot-path (the format's dot-path-parse-error
// kind).
var ErrParse = fmt.Errorf("path: malformed dot-path")

// SegmentKind discriminates a parsed path node.
type SegmentKind int

const (
	SegKey SegmentKind = iota
	SegIndex
)

// Segment is one node of a parsed dot-path.
type Segment struct {
	Kind  SegmentKind
	Key   string
	Index uint64
}

// Parse splits path into its segments: path := segment ("." segment)*,
// segment := key | [index]. An empty string parses to zero segments,
// designating the record root itself.
func Parse(path string) ([]Segment, error) {
	if path == "" {
		return nil, nil
	}
	tokens := strings.Split(path, ".")
	out := make([]Segment, 0, len(tokens))
	for _, tok := range tokens {
		if tok == "" {
			return nil, ErrParse
		}
		if tok[0] == '[' {
			if tok[len(tok)-1] != ']' {
				return nil, ErrParse
			}
			n, err := strconv.ParseUint(tok[1:len(tok)-1], 10, 64)
			if err != nil {
				return nil, ErrParse
			}
			out = append(out, Segment{Kind: SegIndex, Index: n})
			continue
		}
		out = append(out, Segment{Kind: SegKey, Key: tok})
	}
	return out, nil
}

// Result is the outcome of a path resolution: on Resolved, either Pos names
// a scalar/container field directly, or Column plus ColumnIndex names a
// slot within a column.
type Result struct {
	Status      Status
	Pos         int // marker offset of the resolved field (non-column case)
	Column      *citer.ColumnIt
	ColumnIndex uint64
	mf          *memfile.MemFile
}

func markerAt(mf *memfile.MemFile, pos int) types.Marker {
	return types.Marker(mf.Bytes()[pos])
}

// Resolve walks segments starting at the container marker rooted at pos
// within mf.
func Resolve(mf *memfile.MemFile, rootPos int, path string) (*Result, error) {
	segments, err := Parse(path)
	if err != nil {
		return nil, err
	}
	return resolveAt(mf, rootPos, segments)
}

// ResolveRecord resolves path against rec's committed payload.
func ResolveRecord(rec *record.Record, path string) (*Result, error) {
	return Resolve(rec.MemFile(), rec.PayloadOffset(), path)
}

func resolveAt(mf *memfile.MemFile, pos int, segments []Segment) (*Result, error) {
	if len(segments) == 0 {
		return &Result{Status: Resolved, Pos: pos, mf: mf}, nil
	}

	m := markerAt(mf, pos)
	switch {
	case types.IsArray(m):
		return resolveArray(mf, pos, segments)
	case types.IsObject(m):
		return resolveObject(mf, pos, segments)
	case types.IsColumn(m):
		return resolveColumn(mf, pos, segments)
	default:
		return &Result{Status: NotTraversable}, nil
	}
}

func resolveArray(mf *memfile.MemFile, pos int, segments []Segment) (*Result, error) {
	it, err := citer.OpenArray(mf, pos)
	if err != nil {
		return nil, err
	}
	if it.IsEmpty() {
		return &Result{Status: EmptyDoc}, nil
	}

	// A single-slot array wrapping an object or column is transparent to
	// path resolution, for both key and index segments.
	unit, err := it.IsUnit()
	if err != nil {
		return nil, err
	}
	if unit {
		inner, err := citer.OpenArray(mf, pos)
		if err != nil {
			return nil, err
		}
		if _, err := inner.Next(); err != nil {
			return nil, err
		}
		return resolveAt(mf, inner.Pos(), segments)
	}

	seg := segments[0]
	if seg.Kind == SegKey {
		return &Result{Status: NotAnObject}, nil
	}

	it2, err := citer.OpenArray(mf, pos)
	if err != nil {
		return nil, err
	}
	var i uint64
	for {
		more, err := it2.Next()
		if err != nil {
			return nil, err
		}
		if !more {
			return &Result{Status: NoSuchIndex}, nil
		}
		if i == seg.Index {
			return resolveAt(mf, it2.Pos(), segments[1:])
		}
		i++
	}
}

func resolveObject(mf *memfile.MemFile, pos int, segments []Segment) (*Result, error) {
	seg := segments[0]
	if seg.Kind != SegKey {
		return &Result{Status: NotTraversable}, nil
	}
	it, err := citer.OpenObject(mf, pos)
	if err != nil {
		return nil, err
	}
	for {
		more, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !more {
			return &Result{Status: NoSuchKey}, nil
		}
		name, err := it.PropName()
		if err != nil {
			return nil, err
		}
		if name == seg.Key {
			return resolveAt(mf, it.ValuePos(), segments[1:])
		}
	}
}

func resolveColumn(mf *memfile.MemFile, pos int, segments []Segment) (*Result, error) {
	seg := segments[0]
	if seg.Kind != SegIndex {
		return &Result{Status: NotAnObject}, nil
	}
	ci, err := citer.OpenColumn(mf, pos)
	if err != nil {
		return nil, err
	}
	count, err := ci.Count()
	if err != nil {
		return nil, err
	}
	if seg.Index >= count {
		return &Result{Status: NoSuchIndex}, nil
	}
	if len(segments) > 1 {
		return &Result{Status: NoNesting}, nil
	}
	return &Result{Status: Resolved, Column: ci, ColumnIndex: seg.Index, mf: mf}, nil
}
