// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package blockmatmul

import (
	"github.com/gomlx/blockmatmul/pkg/mapreduce"
	"github.com/pkg/errors"
)

// Emitter receives the tagged entries sent to each block.
type Emitter = mapreduce.Emitter[BlockKey, TaggedEntry]

// EmitRowBlock sends an entry A[r][c] to every block of its row-block m = ceil(r/IB),
// that is, to the N blocks (m, 1..N).
//
// It returns ErrDimensionMismatch if the entry is outside A, or the first error returned by emit.
func EmitRowBlock(cfg Config, entry Entry, emit Emitter) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if entry.Row < 1 || entry.Row > cfg.rows || entry.Col < 1 || entry.Col > cfg.inner {
		return errors.Wrapf(ErrDimensionMismatch, "entry (%d,%d) is outside of A, a %dx%d matrix",
			entry.Row, entry.Col, cfg.rows, cfg.inner)
	}
	key := BlockKey{Row: cfg.RowBlockOf(entry.Row)}
	value := TaggedEntry{Source: SourceA, Entry: entry}
	for n := 1; n <= cfg.numColBlocks; n++ {
		key.Col = n
		if err := emit.Emit(key, value); err != nil {
			return err
		}
	}
	return nil
}

// EmitColumnBlock sends an entry B[r][c] to every block of its column-block n = ceil(c/KB),
// that is, to the M blocks (1..M, n).
//
// It returns ErrDimensionMismatch if the entry is outside B, or the first error returned by emit.
func EmitColumnBlock(cfg Config, entry Entry, emit Emitter) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if entry.Row < 1 || entry.Row > cfg.inner || entry.Col < 1 || entry.Col > cfg.cols {
		return errors.Wrapf(ErrDimensionMismatch, "entry (%d,%d) is outside of B, a %dx%d matrix",
			entry.Row, entry.Col, cfg.inner, cfg.cols)
	}
	key := BlockKey{Col: cfg.ColBlockOf(entry.Col)}
	value := TaggedEntry{Source: SourceB, Entry: entry}
	for m := 1; m <= cfg.numRowBlocks; m++ {
		key.Row = m
		if err := emit.Emit(key, value); err != nil {
			return err
		}
	}
	return nil
}
