// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package workerspool runs map and reduce tasks on a bounded number of goroutines.
//
// A Pool only bounds parallelism; a Group built on top of it tracks a batch of tasks,
// collects the first error and cancels the context handed to the remaining ones.
package workerspool

import (
	"context"
	"runtime"
	"sync"
)

type Pool struct {
	// maxParallelism is the limit of tasks running at the same time.
	// 0 means tasks run inline, -1 means no limit.
	maxParallelism int
	mu             sync.Mutex
	cond           sync.Cond // Should be signaled whenever numRunning is decreased.
	numRunning     int
}

// New return a new Pool of workers with the default parallelism (runtime.NumCPU()).
func New() *Pool {
	w := &Pool{}
	w.maxParallelism = runtime.NumCPU()
	w.cond = sync.Cond{L: &w.mu}
	return w
}

// IsEnabled returns whether parallelism is enabled (maxParallelism is != 0)
func (w *Pool) IsEnabled() bool {
	return w.maxParallelism != 0
}

// IsUnlimited returns whether parallelism is unlimited (maxParallelism < 0)
func (w *Pool) IsUnlimited() bool {
	return w.maxParallelism < 0
}

// MaxParallelism returns the limit of tasks running concurrently.
// If 0 parallelism is disabled, if -1 parallelism is unlimited.
func (w *Pool) MaxParallelism() int {
	return w.maxParallelism
}

// SetMaxParallelism sets the maxParallelism.
//
// It should only be changed while no tasks are running.
func (w *Pool) SetMaxParallelism(maxParallelism int) {
	w.maxParallelism = maxParallelism
}

// NumRunning returns the number of tasks currently running in their own goroutine.
func (w *Pool) NumRunning() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.numRunning
}

// lockedIsFull returns whether all available workers are in use.
//
// It must be called with Pool.mu acquired.
func (w *Pool) lockedIsFull() bool {
	if w.maxParallelism == 0 {
		return true
	} else if w.maxParallelism < 0 {
		return false
	}
	return w.numRunning >= w.maxParallelism
}

// WaitToStart waits until there is a worker available to run the task.
//
// If parallelism is disabled (maxParallelism is 0), it runs the task inline and returns when it is finished.
func (w *Pool) WaitToStart(task func()) {
	if w.maxParallelism == 0 {
		task()
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for w.lockedIsFull() {
		w.cond.Wait()
	}
	w.lockedRunTaskInGoroutine(task)
}

// lockedRunTaskInGoroutine and keep tabs on w.numRunning.
//
// It must be called with Pool.mu acquired.
func (w *Pool) lockedRunTaskInGoroutine(task func()) {
	w.numRunning++
	go func() {
		task()
		w.mu.Lock()
		w.numRunning--
		w.cond.Signal()
		w.mu.Unlock()
	}()
}

// Group is a batch of tasks run on a Pool.
//
// The first task to return an error cancels the context passed to all tasks, and
// Wait returns that error. Tasks submitted after the cancellation are not started.
type Group struct {
	pool   *Pool
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	errOnce sync.Once
	err     error
}

// NewGroup creates a Group whose tasks run on the pool and receive a context derived from ctx.
func (w *Pool) NewGroup(ctx context.Context) *Group {
	g := &Group{pool: w}
	g.ctx, g.cancel = context.WithCancel(ctx)
	return g
}

// Context returned is canceled when a task fails or when Wait returns.
func (g *Group) Context() context.Context {
	return g.ctx
}

func (g *Group) setErr(err error) {
	g.errOnce.Do(func() {
		g.err = err
		g.cancel()
	})
}

// Go waits for a free worker and runs task on it.
//
// If the group context is already done the task is dropped and the context error
// is recorded, unless an earlier task error was recorded first.
func (g *Group) Go(task func(ctx context.Context) error) {
	if err := g.ctx.Err(); err != nil {
		g.setErr(err)
		return
	}
	g.wg.Add(1)
	g.pool.WaitToStart(func() {
		defer g.wg.Done()
		if err := task(g.ctx); err != nil {
			g.setErr(err)
		}
	})
}

// Wait blocks until all submitted tasks finished and returns the first error, if any.
func (g *Group) Wait() error {
	g.wg.Wait()
	g.cancel()
	return g.err
}
