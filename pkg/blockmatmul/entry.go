package blockmatmul

import (
	"cmp"
	"fmt"
)

// Entry is one cell of a matrix. Row and Col start from 1.
type Entry struct {
	Row, Col int
	Value    float64
}

// String implements fmt.Stringer.
func (e Entry) String() string {
	return fmt.Sprintf("(%d,%d)=%g", e.Row, e.Col, e.Value)
}

// CompareEntries orders entries by row, then by column. Values are not compared.
func CompareEntries(a, b Entry) int {
	if c := cmp.Compare(a.Row, b.Row); c != 0 {
		return c
	}
	return cmp.Compare(a.Col, b.Col)
}

// Source tells which matrix an entry comes from.
type Source uint8

const (
	SourceA Source = iota
	SourceB
)

// String implements fmt.Stringer.
func (s Source) String() string {
	switch s {
	case SourceA:
		return "A"
	case SourceB:
		return "B"
	default:
		return fmt.Sprintf("Source(%d)", int(s))
	}
}

// TaggedEntry is the value exchanged between the emitters and JoinBlock.
type TaggedEntry struct {
	Source Source
	Entry
}

// String implements fmt.Stringer.
func (t TaggedEntry) String() string {
	return t.Source.String() + t.Entry.String()
}
