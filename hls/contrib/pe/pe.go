// Copyright 2025 The go-hlsdense Authors. SPDX-License-Identifier: Apache-2.0

// Package pe models a bank of spatially replicated processing elements.
//
// An Array is created once and shared by every kernel of a deployment. Each
// call to Step issues one schedule step: a batch of independent operations
// that the hardware would execute on distinct multipliers in the same
// cycle. The batch is spread across persistent worker goroutines and Step
// returns only when all of it has finished, so consecutive steps never
// overlap.
//
// Usage:
//
//	arr := pe.New(runtime.GOMAXPROCS(0))
//	defer arr.Close()
//
//	for _, step := range plan.Schedule(issued) {
//	    arr.Step(len(step), hls.Lanes(), func(start, end int) {
//	        multiply(step[start:end])
//	    })
//	}
package pe

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Array is a persistent set of workers that execute schedule steps.
type Array struct {
	workers int
	workC   chan job

	// mu guards closed and every send on workC, so Close never closes the
	// channel under a sender.
	mu     sync.RWMutex
	closed bool

	steps  atomic.Int64
	issued atomic.Int64
}

type job struct {
	fn      func()
	barrier *sync.WaitGroup
}

// New creates an array backed by the given number of workers.
// If workers <= 0, uses GOMAXPROCS.
func New(workers int) *Array {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	a := &Array{
		workers: workers,
		workC:   make(chan job, workers*2),
	}
	for i := 0; i < workers; i++ {
		go a.worker()
	}
	return a
}

func (a *Array) worker() {
	for j := range a.workC {
		j.fn()
		j.barrier.Done()
	}
}

// Workers returns the number of worker goroutines.
func (a *Array) Workers() int {
	return a.workers
}

// Close stops the workers. Steps issued after Close, or racing with it, run
// sequentially on the caller. Close waits for steps that are handing work
// to the workers. Calling Close multiple times is safe.
func (a *Array) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.closed {
		a.closed = true
		close(a.workC)
	}
}

// Step runs fn over [0, n) as one schedule step and blocks until every
// operation has completed. Work is split into contiguous ranges of at least
// grain operations.
func (a *Array) Step(n, grain int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	a.steps.Add(1)
	a.issued.Add(int64(n))

	grain = max(grain, 1)
	chunks := min(a.workers, (n+grain-1)/grain)
	if chunks <= 1 {
		fn(0, n)
		return
	}

	a.mu.RLock()
	if a.closed {
		a.mu.RUnlock()
		fn(0, n)
		return
	}
	chunk := (n + chunks - 1) / chunks
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		start := start
		end := min(start+chunk, n)
		wg.Add(1)
		a.workC <- job{
			fn:      func() { fn(start, end) },
			barrier: &wg,
		}
	}
	a.mu.RUnlock()
	wg.Wait()
}

// Stats reports the work an array has executed.
type Stats struct {
	// Steps is the number of schedule steps issued, one emulated cycle each.
	Steps int64

	// Issued is the total number of operations across all steps.
	Issued int64
}

// Stats returns a snapshot of the array's counters.
func (a *Array) Stats() Stats {
	return Stats{Steps: a.steps.Load(), Issued: a.issued.Load()}
}
