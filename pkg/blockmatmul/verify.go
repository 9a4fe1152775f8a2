package blockmatmul

import (
	"math"

	"github.com/gomlx/blockmatmul/pkg/support/sets"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// DenseProduct computes A·B in memory, without rounding, to check the result of Multiply
// on matrices small enough to fit in one process.
//
// Absent entries are taken as 0. Entries outside the configured dimensions return ErrDimensionMismatch.
func DenseProduct(cfg Config, a, b []Entry) (*mat.Dense, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	aDense, err := toDense("A", cfg.rows, cfg.inner, a)
	if err != nil {
		return nil, err
	}
	bDense, err := toDense("B", cfg.inner, cfg.cols, b)
	if err != nil {
		return nil, err
	}
	var product mat.Dense
	product.Mul(aDense, bDense)
	return &product, nil
}

func toDense(name string, rows, cols int, entries []Entry) (*mat.Dense, error) {
	dense := mat.NewDense(rows, cols, nil)
	for _, e := range entries {
		if e.Row < 1 || e.Row > rows || e.Col < 1 || e.Col > cols {
			return nil, errors.Wrapf(ErrDimensionMismatch, "entry (%d,%d) is outside of %s, a %dx%d matrix",
				e.Row, e.Col, name, rows, cols)
		}
		dense.Set(e.Row-1, e.Col-1, e.Value)
	}
	return dense, nil
}

// VerifyProduct checks that got holds exactly one cell for each (row, column) of the output,
// and that each value is within tolerance of the dense product of a and b rounded half-up
// to OutputDecimals places.
//
// A different summation order can move a sum across a rounding boundary, so a tolerance of
// one unit in the last decimal place (0.01) is the tightest that holds for any input.
func VerifyProduct(cfg Config, a, b, got []Entry, tolerance float64) error {
	want, err := DenseProduct(cfg, a, b)
	if err != nil {
		return err
	}
	if len(got) != cfg.rows*cfg.cols {
		return errors.Errorf("product should have %d cells (%dx%d), got %d", cfg.rows*cfg.cols, cfg.rows, cfg.cols, len(got))
	}
	type cell struct{ row, col int }
	seen := sets.Make[cell](len(got))
	for _, e := range got {
		if e.Row < 1 || e.Row > cfg.rows || e.Col < 1 || e.Col > cfg.cols {
			return errors.Wrapf(ErrDimensionMismatch, "output cell (%d,%d) is outside of the %dx%d product",
				e.Row, e.Col, cfg.rows, cfg.cols)
		}
		c := cell{e.Row, e.Col}
		if seen.Has(c) {
			return errors.Wrapf(ErrDuplicateEntry, "output cell (%d,%d)", e.Row, e.Col)
		}
		seen.Insert(c)
		wantValue := RoundHalfUp(want.At(e.Row-1, e.Col-1), OutputDecimals)
		if math.Abs(wantValue-e.Value) > tolerance {
			return errors.Errorf("output cell (%d,%d) = %s, but the dense product gives %s",
				e.Row, e.Col, FormatValue(e.Value), FormatValue(wantValue))
		}
	}
	return nil
}
