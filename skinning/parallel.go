package skinning

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

const minChunkSize = 256

func chunkSize(n, workers int) int {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	size := (n + workers - 1) / workers
	if size < minChunkSize {
		size = minChunkSize
	}
	return size
}

// chunkCount returns the number of chunks forEachChunk will use.
func chunkCount(n, workers int) int {
	size := chunkSize(n, workers)
	return (n + size - 1) / size
}

// forEachChunk splits [0, n) into contiguous chunks and calls fn for each
// chunk on up to workers goroutines. Chunks never overlap, so fn may write
// rows lo..hi-1 without locking.
func forEachChunk(n, workers int, fn func(chunk, lo, hi int) error) error {
	size := chunkSize(n, workers)
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for chunk, lo := 0, 0; lo < n; chunk, lo = chunk+1, lo+size {
		chunk, lo, hi := chunk, lo, min(lo+size, n)
		g.Go(func() error {
			return fn(chunk, lo, hi)
		})
	}
	return g.Wait()
}
