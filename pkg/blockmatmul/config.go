// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package blockmatmul

import (
	"fmt"

	"github.com/pkg/errors"
)

// MissingPolicy defines what JoinBlock does when an entry of A or B it needs is absent.
type MissingPolicy int

const (
	// AbortOnMissing fails the block with ErrMissingEntry (or ErrDimensionMismatch if a whole
	// inner index is absent). This is the default.
	AbortOnMissing MissingPolicy = iota

	// ZeroFill takes absent entries as 0.
	ZeroFill
)

// String implements fmt.Stringer.
func (p MissingPolicy) String() string {
	switch p {
	case AbortOnMissing:
		return "abort"
	case ZeroFill:
		return "zero_fill"
	default:
		return fmt.Sprintf("MissingPolicy(%d)", int(p))
	}
}

// Config holds the dimensions of the product and how it is split in blocks.
//
// It is an immutable value: create it once with NewConfig, and pass it to every emitter
// and joiner invocation. The zero value is invalid.
type Config struct {
	rows, inner, cols  int // I, K and J.
	rowBlock, colBlock int // IB and KB.

	numRowBlocks, numColBlocks int // M and N.

	missing MissingPolicy
}

// NewConfig returns the configuration to multiply A (rows×inner) by B (inner×inner), with
// output blocks of rowBlock rows by colBlock columns.
//
// Use Config.WithCols if B has a number of columns different from inner.
func NewConfig(rows, inner, rowBlock, colBlock int) (Config, error) {
	c := Config{rows: rows, inner: inner, cols: inner, rowBlock: rowBlock, colBlock: colBlock}
	return c.finish()
}

// WithCols returns a copy of the configuration with B having cols columns.
func (c Config) WithCols(cols int) (Config, error) {
	c.cols = cols
	return c.finish()
}

// WithMissingPolicy returns a copy of the configuration using the given policy for absent entries.
func (c Config) WithMissingPolicy(policy MissingPolicy) Config {
	c.missing = policy
	return c
}

func (c Config) finish() (Config, error) {
	for _, dim := range []struct {
		name  string
		value int
	}{
		{"rows (I)", c.rows},
		{"inner dimension (K)", c.inner},
		{"columns (J)", c.cols},
		{"row block size (IB)", c.rowBlock},
		{"column block size (KB)", c.colBlock},
	} {
		if dim.value < 1 {
			return Config{}, errors.Wrapf(ErrInvalidConfig, "%s must be >= 1, got %d", dim.name, dim.value)
		}
	}
	c.numRowBlocks = ceilDiv(c.rows, c.rowBlock)
	c.numColBlocks = ceilDiv(c.cols, c.colBlock)
	return c, nil
}

// Validate returns ErrInvalidConfig if c was not created with NewConfig.
func (c Config) Validate() error {
	if c.numRowBlocks < 1 || c.numColBlocks < 1 {
		return errors.Wrap(ErrInvalidConfig, "Config must be created with NewConfig")
	}
	return nil
}

// ceilDiv returns ceil(a/b) for positive a and b.
func ceilDiv(a, b int) int {
	if a%b == 0 {
		return a / b
	}
	return a/b + 1
}

// Rows returns I, the number of rows of A and of the output.
func (c Config) Rows() int { return c.rows }

// Inner returns K, the number of columns of A and rows of B.
func (c Config) Inner() int { return c.inner }

// Cols returns J, the number of columns of B and of the output.
func (c Config) Cols() int { return c.cols }

// RowBlock returns IB, the number of rows of a block.
func (c Config) RowBlock() int { return c.rowBlock }

// ColBlock returns KB, the number of columns of a block.
func (c Config) ColBlock() int { return c.colBlock }

// M returns the number of row-blocks, ceil(I/IB).
func (c Config) M() int { return c.numRowBlocks }

// N returns the number of column-blocks, ceil(J/KB).
func (c Config) N() int { return c.numColBlocks }

// NumBlocks returns M·N.
func (c Config) NumBlocks() int { return c.numRowBlocks * c.numColBlocks }

// MissingPolicy returns the policy for absent entries.
func (c Config) MissingPolicy() MissingPolicy { return c.missing }

// RowBlockOf returns the row-block index m of the 1-based row.
func (c Config) RowBlockOf(row int) int { return ceilDiv(row, c.rowBlock) }

// ColBlockOf returns the column-block index n of the 1-based output column.
func (c Config) ColBlockOf(col int) int { return ceilDiv(col, c.colBlock) }

// RowRange returns the first and last (inclusive) output rows of row-block m.
// The last row-block is clipped to I.
func (c Config) RowRange(m int) (start, end int) {
	start = (m-1)*c.rowBlock + 1
	end = min(m*c.rowBlock, c.rows)
	return
}

// ColRange returns the first and last (inclusive) output columns of column-block n.
// The last column-block is clipped to J.
func (c Config) ColRange(n int) (start, end int) {
	start = (n-1)*c.colBlock + 1
	end = min(n*c.colBlock, c.cols)
	return
}

// String implements fmt.Stringer.
func (c Config) String() string {
	return fmt.Sprintf("A(%dx%d)·B(%dx%d), blocks of %dx%d (M=%d, N=%d, missing=%s)",
		c.rows, c.inner, c.inner, c.cols, c.rowBlock, c.colBlock, c.numRowBlocks, c.numColBlocks, c.missing)
}
