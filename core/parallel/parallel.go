package parallel

import (
	"context"
	"runtime"
	"sync"

	"github.com/YuminosukeSato/scitree/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Workers normalizes a requested worker count: n <= 0 means one worker per CPU.
func Workers(n int) int {
	if n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

// Parallelize divides the specified total number (items) according to the number of CPU cores,
// and executes the specified function (fn) in parallel for each range (start, end)
func Parallelize(items int, fn func(start, end int)) {
	if items == 0 {
		return
	}

	numWorkers := runtime.NumCPU()
	if numWorkers > items {
		numWorkers = items
	}

	// Ceiling division so the last chunk picks up the remainder.
	chunkSize := (items + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > items {
			end = items
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}

	wg.Wait()
}

// ParallelizeWithThreshold performs parallelization only when the number of items exceeds the threshold
// If below threshold, normal sequential processing is performed
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if items <= threshold {
		fn(0, items)
		return
	}
	Parallelize(items, fn)
}

// Map calls fn for every index in [0, items) on at most workers goroutines
// and waits for all of them. The first error cancels the context passed to
// the remaining calls and is returned. A panic inside fn is returned as an
// *errors.PanicError. With workers == 1 the calls run in order on the
// calling goroutine.
func Map(ctx context.Context, items, workers int, fn func(ctx context.Context, i int) error) error {
	if items < 0 {
		return errors.Newf("parallel.Map: negative item count %d", items)
	}
	if items == 0 {
		return nil
	}
	workers = Workers(workers)

	if workers == 1 || items == 1 {
		for i := 0; i < items; i++ {
			if err := ctx.Err(); err != nil {
				return errors.WithStack(err)
			}
			if err := safeCall(ctx, i, fn); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < items; i++ {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return errors.WithStack(err)
			}
			return safeCall(gctx, i, fn)
		})
	}
	return g.Wait()
}

func safeCall(ctx context.Context, i int, fn func(ctx context.Context, i int) error) error {
	return errors.SafeExecute("parallel.Map", func() error {
		return fn(ctx, i)
	})
}
