// Package parallel provides the worker pool used to offset independent
// contours concurrently.
//
// Jobs write their results by index into caller-owned slices, so the
// outcome of a batch does not depend on scheduling:
//
//	pool := parallel.NewWorkerPool(4)
//	defer pool.Close()
//
//	out := make([]T, len(in))
//	work := make([]func(), len(in))
//	for i := range in {
//	    work[i] = func() { out[i] = process(in[i]) }
//	}
//	pool.ExecuteAll(work)
package parallel
