// Copyright 2025 The go-matbench Authors. SPDX-License-Identifier: Apache-2.0

// Package workerpool provides a fixed-size pool of goroutines that executes a
// single work-shared loop at a time, the Go counterpart of a compiler-directed
// "parallel for" over the rows of a matrix.
//
// The pool owns how the loop is chunked: ParallelFor splits [0, n) into at
// most NumWorkers contiguous chunks of ceil(n/NumWorkers) items and returns
// only after every chunk has run, so the call itself is the barrier.
//
// Usage:
//
//	pool := workerpool.New(w)
//	defer pool.Close()
//
//	pool.ParallelFor(d, func(start, end int) {
//	    mm.ClassicRange(a, b, c, d, start, end)
//	})
package workerpool

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool is a persistent set of worker goroutines. Workers are spawned once at
// creation and reused by every ParallelFor call until Close.
type Pool struct {
	numWorkers int
	workC      chan chunk
	closeOnce  sync.Once
	closed     atomic.Bool
}

// chunk is one contiguous slice of a loop, handed to a single worker.
type chunk struct {
	start, end int
	fn         func(start, end int)
	barrier    *sync.WaitGroup
}

// New creates a pool with numWorkers goroutines.
// If numWorkers <= 0, uses GOMAXPROCS; callers that must reject a bad worker
// count validate it before calling New.
func New(numWorkers int) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	p := &Pool{
		numWorkers: numWorkers,
		workC:      make(chan chunk, numWorkers),
	}
	for range numWorkers {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	for c := range p.workC {
		c.fn(c.start, c.end)
		c.barrier.Done()
	}
}

// NumWorkers returns the number of workers in the pool.
func (p *Pool) NumWorkers() int {
	return p.numWorkers
}

// Close stops the workers once queued chunks have drained.
// Calling Close multiple times is safe.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		close(p.workC)
	})
}

// Chunks returns the [start, end) pairs ParallelFor would hand out for a loop
// of n items. It never returns an empty chunk.
func (p *Pool) Chunks(n int) [][2]int {
	if n <= 0 {
		return nil
	}
	workers := min(p.numWorkers, n)
	size := (n + workers - 1) / workers

	chunks := make([][2]int, 0, workers)
	for start := 0; start < n; start += size {
		chunks = append(chunks, [2]int{start, min(start+size, n)})
	}
	return chunks
}

// ParallelFor executes fn over [0, n) on the pool and blocks until every
// chunk has completed. fn receives (start, end) and must process [start, end).
// Chunks are disjoint, so fn may write to per-index state without locking.
//
// A closed pool runs the whole loop on the calling goroutine.
func (p *Pool) ParallelFor(n int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if p.closed.Load() {
		fn(0, n)
		return
	}

	chunks := p.Chunks(n)

	var wg sync.WaitGroup
	wg.Add(len(chunks))
	for _, c := range chunks {
		p.workC <- chunk{start: c[0], end: c[1], fn: fn, barrier: &wg}
	}
	wg.Wait()
}
