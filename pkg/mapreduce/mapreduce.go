// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package mapreduce defines the grouped key-value execution model used by blockmatmul,
// and an in-memory Engine that implements it on a single host.
//
// The model guarantees that:
//
//   - Every value emitted by a MapFunc is delivered to exactly one group, selected by its key.
//   - All values sharing a key are delivered together to a single ReduceFunc call.
//   - No ordering exists among the values of a group.
//
// Any engine offering the same guarantees (a distributed one included) can run the same Job.
package mapreduce

import (
	"context"
	"fmt"
)

// Key is the constraint on keys used to group emitted values.
//
// Compare must define a total order, used to return results in a deterministic order,
// and Hash must be a pure function of the key, used to assign keys to partitions.
type Key[K any] interface {
	comparable
	Compare(other K) int
	Hash() uint64
}

// Emitter receives the key-value pairs produced by a MapFunc.
type Emitter[K any, V any] interface {
	Emit(key K, value V) error
}

// MapFunc processes one input record and emits zero or more key-value pairs.
// An error fails the job.
type MapFunc[I any, K any, V any] func(ctx context.Context, record I, emit Emitter[K, V]) error

// ReduceFunc is called once per distinct key with all values emitted under it, in no particular order.
// An error fails the job.
type ReduceFunc[K any, V any, R any] func(ctx context.Context, key K, values []V) ([]R, error)

// Codec serializes intermediate values.
//
// When a Job has a Codec, every emitted value is encoded and decoded before it reaches the
// reducer, the way it would be when shuffled across processes.
type Codec[V any] interface {
	Encode(value V) ([]byte, error)
	Decode(data []byte) (V, error)
}

// Input is a source of records, divided in independent splits that can be read in parallel.
type Input[I any] interface {
	// Name identifies the input in errors and logs.
	Name() string

	// NumSplits returns the number of splits, numbered from 0.
	NumSplits() int

	// ReadSplit calls fn for each record of the split, stopping at the first error.
	ReadSplit(ctx context.Context, split int, fn func(record I) error) error
}

// Line is a text record, along with where it came from.
type Line struct {
	// Origin is the file (or any other source) name.
	Origin string

	// Number of the line within Origin, starting from 1.
	Number int

	Text string
}

// String returns "origin:number".
func (l Line) String() string {
	return fmt.Sprintf("%s:%d", l.Origin, l.Number)
}

// MapStage pairs an input with the MapFunc that processes its records.
type MapStage[I any, K any, V any] struct {
	// Name of the stage, used in Stats and in error messages. Defaults to the input name.
	Name  string
	Input Input[I]
	Map   MapFunc[I, K, V]
}

// Job describes a full map, shuffle and reduce computation.
type Job[I any, K Key[K], V any, R any] struct {
	Name   string
	Stages []MapStage[I, K, V]
	Reduce ReduceFunc[K, V, R]

	// Codec is optional. See Codec.
	Codec Codec[V]
}
