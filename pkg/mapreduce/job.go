// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package mapreduce

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/pkg/errors"
)

func (s *MapStage[I, K, V]) name() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Input.Name()
}

func (job *Job[I, K, V, R]) validate() error {
	if len(job.Stages) == 0 {
		return errors.Errorf("job %q has no map stages", job.Name)
	}
	for ii, stage := range job.Stages {
		if stage.Input == nil || stage.Map == nil {
			return errors.Errorf("job %q: map stage #%d requires both an Input and a MapFunc", job.Name, ii)
		}
	}
	if job.Reduce == nil {
		return errors.Errorf("job %q has no ReduceFunc", job.Name)
	}
	return nil
}

// Run executes the job on the engine and returns the concatenated reduce results,
// in ascending key order.
//
// The first error, from any map task or reduce call, cancels the remaining work and is returned:
// partial results are never returned. The Stats are returned also on error, with whatever was
// counted until then.
func (job *Job[I, K, V, R]) Run(ctx context.Context, engine *Engine) ([]R, *Stats, error) {
	stats := &Stats{Job: job.Name}
	if err := job.validate(); err != nil {
		return nil, stats, err
	}
	engine.withDefaults()
	stats.Stages = make([]StageStats, len(job.Stages))
	for ii := range job.Stages {
		stats.Stages[ii].Name = job.Stages[ii].name()
		stats.Stages[ii].Splits = job.Stages[ii].Input.NumSplits()
	}

	start := time.Now()
	sh := newShuffle[K, V](engine.numPartitions)
	if err := job.runMaps(ctx, engine, sh, stats); err != nil {
		return nil, stats, err
	}
	stats.MapDuration = logDuration(job.Name, "map", start)

	start = time.Now()
	groups, err := job.group(ctx, engine, sh)
	if err != nil {
		return nil, stats, err
	}
	stats.Groups = len(groups)
	stats.ShuffleDuration = logDuration(job.Name, "shuffle", start)

	start = time.Now()
	results, err := job.runReduces(ctx, engine, groups)
	if err != nil {
		return nil, stats, err
	}
	stats.Outputs = len(results)
	stats.ReduceDuration = logDuration(job.Name, "reduce", start)
	return results, stats, nil
}

// runMaps runs one task per split of each stage, and merges their output into the shuffle.
func (job *Job[I, K, V, R]) runMaps(ctx context.Context, engine *Engine, sh *shuffle[K, V], stats *Stats) error {
	var statsMu sync.Mutex
	g := engine.pool.NewGroup(ctx)
	for stageIdx := range job.Stages {
		stage := &job.Stages[stageIdx]
		for split := range stats.Stages[stageIdx].Splits {
			g.Go(func(ctx context.Context) error {
				emitter := &taskEmitter[K, V]{
					partitions: make([][]pair[K, V], engine.numPartitions),
					codec:      job.Codec,
				}
				var numRecords int64
				err := callSafely(func() error {
					return stage.Input.ReadSplit(ctx, split, func(record I) error {
						numRecords++
						return stage.Map(ctx, record, emitter)
					})
				})
				statsMu.Lock()
				stats.Stages[stageIdx].Records += numRecords
				stats.Stages[stageIdx].Emitted += emitter.emitted
				statsMu.Unlock()
				if err != nil {
					return errors.WithMessagef(err, "job %q: map stage %q failed on split %d",
						job.Name, stage.name(), split)
				}
				sh.merge(emitter.partitions)
				return nil
			})
		}
	}
	return g.Wait()
}

// group groups each partition in parallel, and returns all groups sorted by key.
func (job *Job[I, K, V, R]) group(ctx context.Context, engine *Engine, sh *shuffle[K, V]) ([]group[K, V], error) {
	perPartition := make([][]group[K, V], len(sh.partitions))
	g := engine.pool.NewGroup(ctx)
	for p := range sh.partitions {
		g.Go(func(ctx context.Context) error {
			perPartition[p] = groupPartition(engine, sh.partitions[p])
			sh.partitions[p] = nil
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var numGroups int
	for _, groups := range perPartition {
		numGroups += len(groups)
	}
	all := make([]group[K, V], 0, numGroups)
	for _, groups := range perPartition {
		all = append(all, groups...)
	}
	slices.SortFunc(all, func(a, b group[K, V]) int { return a.key.Compare(b.key) })
	return all, nil
}

// runReduces calls the ReduceFunc once per group, and concatenates the results in group order.
func (job *Job[I, K, V, R]) runReduces(ctx context.Context, engine *Engine, groups []group[K, V]) ([]R, error) {
	perGroup := make([][]R, len(groups))
	var progressMu sync.Mutex
	var numDone int
	g := engine.pool.NewGroup(ctx)
	for ii := range groups {
		g.Go(func(ctx context.Context) error {
			key := groups[ii].key
			err := callSafely(func() error {
				var err error
				perGroup[ii], err = job.Reduce(ctx, key, groups[ii].values)
				return err
			})
			if err != nil {
				return errors.WithMessagef(err, "job %q: reduce failed for key %v", job.Name, key)
			}
			if engine.progress != nil {
				progressMu.Lock()
				numDone++
				engine.progress(numDone, len(groups))
				progressMu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var numResults int
	for _, results := range perGroup {
		numResults += len(results)
	}
	results := make([]R, 0, numResults)
	for _, groupResults := range perGroup {
		results = append(results, groupResults...)
	}
	return results, nil
}
