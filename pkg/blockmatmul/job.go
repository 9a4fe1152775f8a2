// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package blockmatmul

import (
	"context"
	"slices"
	"strings"

	"github.com/gomlx/blockmatmul/pkg/mapreduce"
	"github.com/gomlx/blockmatmul/pkg/support/sets"
	"github.com/gomlx/blockmatmul/pkg/support/xslices"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// JobName is the name of the jobs created by NewJob.
const JobName = "blockmatmul"

// Names of the map stages of the job: they are used in mapreduce.Stats.
const (
	StageA = "A"
	StageB = "B"
)

// Job is a mapreduce job that reads the entries of A and B as text lines and outputs the
// cells of their product.
type Job = mapreduce.Job[mapreduce.Line, BlockKey, TaggedEntry, Entry]

// NewJob creates the job that multiplies the matrices read from a and b.
//
// Records of a go through EmitRowBlock, records of b through EmitColumnBlock, and every block
// is computed by JoinBlock. Blank lines are skipped; any malformed line fails the job.
// Intermediate values are serialized with TaggedCodec.
func NewJob(cfg Config, a, b mapreduce.Input[mapreduce.Line]) *Job {
	return &Job{
		Name: JobName,
		Stages: []mapreduce.MapStage[mapreduce.Line, BlockKey, TaggedEntry]{
			{Name: StageA, Input: a, Map: mapLines(cfg, SourceA)},
			{Name: StageB, Input: b, Map: mapLines(cfg, SourceB)},
		},
		Reduce: func(_ context.Context, key BlockKey, values []TaggedEntry) ([]Entry, error) {
			return JoinBlock(cfg, key, values)
		},
		Codec: TaggedCodec{},
	}
}

// mapLines parses records of the source matrix and emits them to their blocks.
func mapLines(cfg Config, source Source) mapreduce.MapFunc[mapreduce.Line, BlockKey, TaggedEntry] {
	emitFn := EmitRowBlock
	if source == SourceB {
		emitFn = EmitColumnBlock
	}
	return func(_ context.Context, line mapreduce.Line, emit Emitter) error {
		if strings.TrimSpace(line.Text) == "" {
			return nil
		}
		entry, err := ParseEntry(line.Text)
		if err == nil {
			err = emitFn(cfg, entry, emit)
		}
		if err != nil {
			return errors.WithMessagef(err, "matrix %s, line %s", source, line)
		}
		return nil
	}
}

// Multiply runs the job created by NewJob on the engine, and returns the cells of the
// product sorted by row and column.
//
// The whole computation fails if any record or block fails. A block that received no entry
// at all fails with ErrMissingEntry, unless cfg uses ZeroFill, in which case it is computed
// as zeros.
func Multiply(ctx context.Context, engine *mapreduce.Engine, cfg Config, a, b mapreduce.Input[mapreduce.Line]) ([]Entry, *mapreduce.Stats, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	klog.V(1).Infof("Multiplying %s", cfg)
	output, stats, err := NewJob(cfg, a, b).Run(ctx, engine)
	if err != nil {
		return nil, stats, err
	}

	if stats.Groups != cfg.NumBlocks() {
		computed := sets.Make[BlockKey](stats.Groups)
		for _, e := range output {
			computed.Insert(BlockKey{Row: cfg.RowBlockOf(e.Row), Col: cfg.ColBlockOf(e.Col)})
		}
		for m := 1; m <= cfg.M(); m++ {
			for n := 1; n <= cfg.N(); n++ {
				key := BlockKey{Row: m, Col: n}
				if computed.Has(key) {
					continue
				}
				if cfg.missing == AbortOnMissing {
					return nil, stats, errors.Wrapf(ErrMissingEntry, "block %s received no entries", key)
				}
				cells, err := JoinBlock(cfg, key, nil)
				if err != nil {
					return nil, stats, err
				}
				output = append(output, cells...)
			}
		}
	}
	slices.SortFunc(output, CompareEntries)
	return output, stats, nil
}

// EntriesInput creates an in-memory input with the entries encoded as text lines (see EncodeEntry),
// divided in numSplits splits.
func EntriesInput(name string, entries []Entry, numSplits int) *mapreduce.SliceInput[mapreduce.Line] {
	return mapreduce.NewLinesInput(name, xslices.Map(entries, EncodeEntry), numSplits)
}
