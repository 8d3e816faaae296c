// Package workerpool runs a bounded number of goroutines over a list of
// items, cancelling outstanding work on the first error. The fan-out
// pattern (buffered item channel, errgroup.WithContext, worker count capped
// at len(items)) mirrors the GitHub client's file-fetch worker pool.
package workerpool

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is used when a caller passes a non-positive worker count.
const DefaultWorkers = 2

// Run applies fn to every item in items using at most workers goroutines,
// returning the first error encountered. It blocks until all items have
// been processed or an error cancels the remaining work.
func Run[T any](ctx context.Context, items []T, workers int, fn func(ctx context.Context, item T) error) error {
	if len(items) == 0 {
		return nil
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}
	workerCount := min(workers, len(items))

	g, gctx := errgroup.WithContext(ctx)
	itemChan := make(chan T, len(items))
	for _, item := range items {
		itemChan <- item
	}
	close(itemChan)

	for i := 0; i < workerCount; i++ {
		g.Go(func() error {
			for item := range itemChan {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := fn(gctx, item); err != nil {
					return err
				}
			}
			return nil
		})
	}

	return g.Wait()
}

// Map applies fn to every item in items using at most workers goroutines and
// collects the results in input order. The first error cancels remaining
// work and is returned with a nil result slice.
func Map[T any, R any](ctx context.Context, items []T, workers int, fn func(ctx context.Context, item T) (R, error)) ([]R, error) {
	results := make([]R, len(items))
	indexed := make([]int, len(items))
	for i := range items {
		indexed[i] = i
	}

	err := Run(ctx, indexed, workers, func(ctx context.Context, idx int) error {
		r, err := fn(ctx, items[idx])
		if err != nil {
			return err
		}
		results[idx] = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}
