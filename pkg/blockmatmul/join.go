// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package blockmatmul

import (
	"github.com/gomlx/blockmatmul/pkg/support/sets"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// maxReportedIndices limits how many missing inner indices are listed in an error message.
const maxReportedIndices = 10

// denseRows is a row-major dense matrix that tracks which cells were set.
type denseRows struct {
	numCols int
	values  []float64
	present []bool
}

func newDenseRows(numRows, numCols int) *denseRows {
	return &denseRows{
		numCols: numCols,
		values:  make([]float64, numRows*numCols),
		present: make([]bool, numRows*numCols),
	}
}

// set stores the value at 0-based (row, col), and returns false if it was already set.
func (d *denseRows) set(row, col int, value float64) bool {
	idx := row*d.numCols + col
	if d.present[idx] {
		return false
	}
	d.values[idx] = value
	d.present[idx] = true
	return true
}

// row returns the values and presence flags of the 0-based row.
func (d *denseRows) row(row int) (values []float64, present []bool) {
	start := row * d.numCols
	return d.values[start : start+d.numCols], d.present[start : start+d.numCols]
}

// JoinBlock computes the output block key from all the entries sent to it by
// EmitRowBlock and EmitColumnBlock, in any order.
//
// A is looked up by (row, inner) and B by (column, inner), i.e. through Bᵗ, and each cell is
// C[i][j] = Σ_k A[i][k]·Bᵗ[j][k] for k in 1..K, rounded half-up to 2 decimal places.
// The inner dimension K is the one configured, it is never inferred from the entries.
//
// The cells are returned in row-major order, one per (row, column) of the block. JoinBlock has
// no side effects, so calling it again with the same entries returns the same output.
//
// Errors:
//   - ErrDimensionMismatch: the key is not a block of cfg, an entry does not belong to this
//     block, or (with AbortOnMissing) some inner index has no entry at all.
//   - ErrDuplicateEntry: the same cell of A or B was given twice.
//   - ErrMissingEntry: (with AbortOnMissing) an entry needed for the block is absent.
func JoinBlock(cfg Config, key BlockKey, values []TaggedEntry) ([]Entry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !key.In(cfg) {
		return nil, errors.Wrapf(ErrDimensionMismatch, "block %s is out of the %dx%d blocks grid", key, cfg.M(), cfg.N())
	}
	rowStart, rowEnd := cfg.RowRange(key.Row)
	colStart, colEnd := cfg.ColRange(key.Col)
	numRows, numCols, inner := rowEnd-rowStart+1, colEnd-colStart+1, cfg.inner

	// a holds A[rowStart..rowEnd][1..K], bt holds Bᵗ[colStart..colEnd][1..K].
	a := newDenseRows(numRows, inner)
	bt := newDenseRows(numCols, inner)
	innerSeen := sets.Make[int](inner)
	var numA, numB int
	for _, v := range values {
		switch v.Source {
		case SourceA:
			if v.Row < rowStart || v.Row > rowEnd || v.Col < 1 || v.Col > inner {
				return nil, errors.Wrapf(ErrDimensionMismatch, "block %s: A entry (%d,%d) is outside rows [%d,%d] and inner indices [1,%d]",
					key, v.Row, v.Col, rowStart, rowEnd, inner)
			}
			if !a.set(v.Row-rowStart, v.Col-1, v.Value) {
				return nil, errors.Wrapf(ErrDuplicateEntry, "block %s: A entry (%d,%d)", key, v.Row, v.Col)
			}
			innerSeen.Insert(v.Col)
			numA++
		case SourceB:
			if v.Col < colStart || v.Col > colEnd || v.Row < 1 || v.Row > inner {
				return nil, errors.Wrapf(ErrDimensionMismatch, "block %s: B entry (%d,%d) is outside columns [%d,%d] and inner indices [1,%d]",
					key, v.Row, v.Col, colStart, colEnd, inner)
			}
			if !bt.set(v.Col-colStart, v.Row-1, v.Value) {
				return nil, errors.Wrapf(ErrDuplicateEntry, "block %s: B entry (%d,%d)", key, v.Row, v.Col)
			}
			innerSeen.Insert(v.Row)
			numB++
		default:
			return nil, errors.Errorf("block %s: entry %s has an unknown source", key, v)
		}
	}
	klog.V(2).Infof("block %s: %d entries of A, %d entries of B, computing %dx%d cells", key, numA, numB, numRows, numCols)

	abort := cfg.missing == AbortOnMissing
	if abort && len(innerSeen) != inner {
		missing := sets.Sorted(sets.MakeSpan(1, inner).Sub(innerSeen))
		if len(missing) > maxReportedIndices {
			missing = missing[:maxReportedIndices]
		}
		return nil, errors.Wrapf(ErrDimensionMismatch, "block %s: only %d of the %d inner indices have entries, missing %v",
			key, len(innerSeen), inner, missing)
	}

	output := make([]Entry, 0, numRows*numCols)
	for i := range numRows {
		aRow, aPresent := a.row(i)
		for j := range numCols {
			btRow, btPresent := bt.row(j)
			var sum float64
			for k := range inner {
				if !aPresent[k] || !btPresent[k] {
					if abort {
						return nil, missingEntryError(key, rowStart+i, colStart+j, k+1, aPresent[k])
					}
					continue
				}
				sum += aRow[k] * btRow[k]
			}
			output = append(output, Entry{Row: rowStart + i, Col: colStart + j, Value: RoundHalfUp(sum, 2)})
		}
	}
	return output, nil
}

// missingEntryError reports which of A[row][k] or B[k][col] is absent.
func missingEntryError(key BlockKey, row, col, k int, hasA bool) error {
	if !hasA {
		return errors.Wrapf(ErrMissingEntry, "block %s: A entry (%d,%d) needed for output (%d,%d)", key, row, k, row, col)
	}
	return errors.Wrapf(ErrMissingEntry, "block %s: B entry (%d,%d) needed for output (%d,%d)", key, k, col, row, col)
}
