// Package threading provides the parallel sweep primitive used by the
// visibility engine: a blocking parallel-for over an index range with a
// shared pool for per-worker scratch buffers.
package threading

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// ParallelRange calls fn over chunks of [0, n) of at most grain indices,
// from up to GOMAXPROCS goroutines. It returns once every chunk has run.
// fn must be safe to call concurrently; chunks never overlap.
func ParallelRange(n, grain int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if grain <= 0 {
		grain = 1
	}
	chunks := (n + grain - 1) / grain
	workers := runtime.GOMAXPROCS(0)
	if workers > chunks {
		workers = chunks
	}
	if workers <= 1 {
		fn(0, n)
		return
	}

	var next atomic.Int64
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for {
				c := int(next.Add(1)) - 1
				if c >= chunks {
					return
				}
				start := c * grain
				end := start + grain
				if end > n {
					end = n
				}
				fn(start, end)
			}
		}()
	}
	wg.Wait()
}

// Scratch hands out reusable per-worker values inside ParallelRange bodies,
// so hot loops don't allocate a fresh buffer per chunk.
type Scratch[T any] struct {
	pool sync.Pool
}

// NewScratch returns a Scratch whose values are created by newT.
func NewScratch[T any](newT func() T) *Scratch[T] {
	return &Scratch[T]{pool: sync.Pool{New: func() any { return newT() }}}
}

// Get borrows a value. Return it with Put when the chunk is done.
func (s *Scratch[T]) Get() T {
	return s.pool.Get().(T)
}

// Put returns a borrowed value to the pool.
func (s *Scratch[T]) Put(v T) {
	s.pool.Put(v)
}
