// Package parallel runs plane-level work units on a bounded set of
// goroutines.
package parallel

import (
	"context"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Progress is called after each finished work unit with the number of
// finished units and the total. It may be called from several goroutines.
type Progress func(done, total int)

// For calls fn(i) for every i in [0, n) using at most workers goroutines
// (runtime.NumCPU() if workers <= 0). Each index is handed to exactly one
// call. The context is checked before every unit, so cancellation never
// interrupts a unit that has started. The first error stops the scheduling
// of further units and is returned.
func For(ctx context.Context, n, workers int, progress Progress, fn func(i int) error) error {
	if n <= 0 {
		return ctx.Err()
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, n)

	g, gctx := errgroup.WithContext(ctx)
	var next, done atomic.Int64
	for range workers {
		g.Go(func() error {
			for {
				if err := gctx.Err(); err != nil {
					return err
				}
				i := int(next.Add(1) - 1)
				if i >= n {
					return nil
				}
				if err := fn(i); err != nil {
					return err
				}
				if progress != nil {
					progress(int(done.Add(1)), n)
				}
			}
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
