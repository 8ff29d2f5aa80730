package daphne

import (
	"fmt"
	"strconv"
)

type idxKind int

const (
	idxInvalid idxKind = iota
	idxPos
	idxRange
	idxSel
)

// rawIdx is index text rendered verbatim into scripts, without the
// quoting applied to ordinary string literals.
type rawIdx string

// Idx selects rows or columns in an indexed read or write. Build one
// with Pos, Range, RangeFrom, RangeTo, All or Sel; the zero value is
// rejected.
type Idx struct {
	kind        idxKind
	pos         int64
	start, stop *int64
	sel         *Matrix
}

// Pos selects the single row or column at position i.
func Pos(i int64) Idx { return Idx{kind: idxPos, pos: i} }

// Range selects the half-open interval [start, stop).
func Range(start, stop int64) Idx {
	return Idx{kind: idxRange, start: &start, stop: &stop}
}

// RangeFrom selects everything from start to the end.
func RangeFrom(start int64) Idx { return Idx{kind: idxRange, start: &start} }

// RangeTo selects everything from the beginning up to stop.
func RangeTo(stop int64) Idx { return Idx{kind: idxRange, stop: &stop} }

// All selects every row or column.
func All() Idx { return Idx{kind: idxRange} }

// Sel selects positions given by a matrix, for reads only.
func Sel(m *Matrix) Idx { return Idx{kind: idxSel, sel: m} }

func (ix Idx) rangeText() rawIdx {
	var s, e string
	if ix.start != nil {
		s = strconv.FormatInt(*ix.start, 10)
	}
	if ix.stop != nil {
		e = strconv.FormatInt(*ix.stop, 10)
	}
	return rawIdx(s + ":" + e)
}

// readInput encodes the key as an operator input for an indexed read.
func (ix Idx) readInput() (input, error) {
	switch ix.kind {
	case idxPos:
		return litIn(ix.pos), nil
	case idxRange:
		return litIn(ix.rangeText()), nil
	case idxSel:
		return nodeIn(ix.sel.n), nil
	}
	return input{}, fmt.Errorf("%w: uninitialized index", ErrIndexKey)
}

// writeInput encodes the key for an indexed write. Matrix selections
// cannot appear on the left-hand side.
func (ix Idx) writeInput() (input, error) {
	switch ix.kind {
	case idxPos:
		return litIn(ix.pos), nil
	case idxRange:
		return litIn(ix.rangeText()), nil
	case idxSel:
		return input{}, fmt.Errorf("%w: matrix selection cannot be assigned to", ErrIndexKey)
	}
	return input{}, fmt.Errorf("%w: uninitialized index", ErrIndexKey)
}
