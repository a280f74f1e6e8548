// Package worker provides a bounded task pool used by the orchestrator
// to fan out independent per-ticker pipeline runs.
package worker

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Pool bounds the number of concurrently running tasks submitted via Go.
// Unlike a fire-and-forget queue, Wait blocks until every submitted task
// has completed and returns the first error encountered, if any. It is a
// thin wrapper around errgroup.Group with a concurrency limit.
type Pool struct {
	g   *errgroup.Group
	ctx context.Context
}

// New returns a Pool bounded to size concurrent tasks; size <= 0 uses
// runtime.NumCPU().
func New(size int) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	g := &errgroup.Group{}
	g.SetLimit(size)
	return &Pool{g: g}
}

// Go submits fn for execution, blocking until a slot is free. If ctx is
// already done when the task starts, fn is not run and ctx's error is
// recorded like any other task failure.
func (p *Pool) Go(ctx context.Context, fn func() error) {
	p.g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fn()
	})
}

// Wait blocks until every submitted task has completed, returning the
// first error encountered across all of them (nil if none failed).
func (p *Pool) Wait() error {
	return p.g.Wait()
}
