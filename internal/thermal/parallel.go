package thermal

import "golang.org/x/sync/errgroup"

// minColumnsPerWorker keeps tiny grids on a single goroutine.
const minColumnsPerWorker = 8

// parallelFor splits [lo, hi) into contiguous chunks, one per worker, and
// blocks until all chunks are done. The partition depends only on the inputs.
func parallelFor(lo, hi, workers int, fn func(lo, hi int)) {
	n := hi - lo
	if n <= 0 {
		return
	}
	if n/minColumnsPerWorker < workers {
		workers = n / minColumnsPerWorker
	}
	if workers <= 1 {
		fn(lo, hi)
		return
	}

	chunk := (n + workers - 1) / workers
	var g errgroup.Group
	for start := lo; start < hi; start += chunk {
		end := start + chunk
		if end > hi {
			end = hi
		}
		s, e := start, end
		g.Go(func() error {
			fn(s, e)
			return nil
		})
	}
	_ = g.Wait()
}
