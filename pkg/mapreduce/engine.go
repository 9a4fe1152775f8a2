// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package mapreduce

import (
	"math/rand/v2"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/gomlx/blockmatmul/internal/workerspool"
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Engine runs Jobs in the current process.
//
// Map tasks (one per input split) and reduce calls (one per key) run in parallel on a
// pool of workers. Emitted pairs are partitioned by Key.Hash, and each partition is grouped
// by sorting on Key.Compare.
//
// An Engine can run several jobs, but its configuration should not change while a job is running.
// The zero value is ready to use, with the same defaults as New.
type Engine struct {
	pool          *workerspool.Pool
	numPartitions int

	shuffleValues bool
	shuffleSeed   uint64

	progress func(done, total int)
}

// New creates an Engine with parallelism and number of partitions set to runtime.NumCPU().
func New() *Engine {
	return (&Engine{}).withDefaults()
}

// withDefaults sets the pool and the number of partitions if they were not set yet.
func (e *Engine) withDefaults() *Engine {
	if e.pool == nil {
		e.pool = workerspool.New()
	}
	if e.numPartitions < 1 {
		e.numPartitions = runtime.NumCPU()
	}
	return e
}

// WithParallelism sets the maximum number of tasks running at the same time.
// 0 runs everything sequentially in the calling goroutine, and -1 removes the limit.
func (e *Engine) WithParallelism(parallelism int) *Engine {
	e.withDefaults().pool.SetMaxParallelism(parallelism)
	return e
}

// Parallelism returns the limit of tasks running concurrently. See WithParallelism.
func (e *Engine) Parallelism() int {
	return e.withDefaults().pool.MaxParallelism()
}

// WithPartitions sets the number of shuffle partitions. Values < 1 are taken as 1.
func (e *Engine) WithPartitions(numPartitions int) *Engine {
	e.numPartitions = max(numPartitions, 1)
	return e
}

// Partitions returns the number of shuffle partitions.
func (e *Engine) Partitions() int {
	return e.withDefaults().numPartitions
}

// WithValueShuffling makes the engine randomly permute the values of each group before
// reducing them, with a permutation derived from seed and the key hash.
//
// Reduce functions must not depend on the order of values; this makes it observable in tests.
func (e *Engine) WithValueShuffling(seed uint64) *Engine {
	e.shuffleValues = true
	e.shuffleSeed = seed
	return e
}

// WithProgress registers fn to be called after each reduce call finishes, with the number of
// groups reduced so far and the total. Calls to fn are serialized.
func (e *Engine) WithProgress(fn func(done, total int)) *Engine {
	e.progress = fn
	return e
}

// pair is an emitted key-value pair.
type pair[K any, V any] struct {
	key   K
	value V
}

type group[K any, V any] struct {
	key    K
	values []V
}

func partitionOf[K Key[K]](key K, numPartitions int) int {
	return int(key.Hash() % uint64(numPartitions))
}

// taskEmitter buffers the pairs emitted by one map task, already partitioned.
// It is owned by a single goroutine.
type taskEmitter[K Key[K], V any] struct {
	partitions [][]pair[K, V]
	codec      Codec[V]
	emitted    int64
}

// Emit implements Emitter.
func (e *taskEmitter[K, V]) Emit(key K, value V) error {
	if e.codec != nil {
		data, err := e.codec.Encode(value)
		if err != nil {
			return errors.WithMessagef(err, "failed to encode value emitted with key %v", key)
		}
		value, err = e.codec.Decode(data)
		if err != nil {
			return errors.WithMessagef(err, "failed to decode value emitted with key %v", key)
		}
	}
	p := partitionOf(key, len(e.partitions))
	e.partitions[p] = append(e.partitions[p], pair[K, V]{key: key, value: value})
	e.emitted++
	return nil
}

// shuffle collects the output of all map tasks.
type shuffle[K Key[K], V any] struct {
	mu         []sync.Mutex
	partitions [][]pair[K, V]
}

func newShuffle[K Key[K], V any](numPartitions int) *shuffle[K, V] {
	return &shuffle[K, V]{
		mu:         make([]sync.Mutex, numPartitions),
		partitions: make([][]pair[K, V], numPartitions),
	}
}

func (s *shuffle[K, V]) merge(local [][]pair[K, V]) {
	for p, pairs := range local {
		if len(pairs) == 0 {
			continue
		}
		s.mu[p].Lock()
		s.partitions[p] = append(s.partitions[p], pairs...)
		s.mu[p].Unlock()
	}
}

// groupPartition sorts the pairs by key and collects the values of each key.
// If value shuffling is enabled, the values of each group are permuted.
func groupPartition[K Key[K], V any](e *Engine, pairs []pair[K, V]) []group[K, V] {
	slices.SortStableFunc(pairs, func(a, b pair[K, V]) int { return a.key.Compare(b.key) })
	var groups []group[K, V]
	for start := 0; start < len(pairs); {
		end := start + 1
		for end < len(pairs) && pairs[end].key.Compare(pairs[start].key) == 0 {
			end++
		}
		values := make([]V, end-start)
		for ii := range values {
			values[ii] = pairs[start+ii].value
		}
		if e.shuffleValues {
			rng := rand.New(rand.NewPCG(e.shuffleSeed, pairs[start].key.Hash()))
			rng.Shuffle(len(values), func(i, j int) { values[i], values[j] = values[j], values[i] })
		}
		groups = append(groups, group[K, V]{key: pairs[start].key, values: values})
		start = end
	}
	return groups
}

// callSafely calls fn and converts a panic into an error.
func callSafely(fn func() error) (err error) {
	exception := exceptions.Try(func() { err = fn() })
	if exception == nil {
		return err
	}
	if exceptionErr, ok := exception.(error); ok {
		return errors.Wrap(exceptionErr, "panic")
	}
	return errors.Errorf("panic: %v", exception)
}

// logDuration logs at verbosity 1 how long a phase of the job took.
func logDuration(jobName, phase string, start time.Time) time.Duration {
	elapsed := time.Since(start)
	klog.V(1).Infof("mapreduce %q: %s finished in %s", jobName, phase, elapsed)
	return elapsed
}
