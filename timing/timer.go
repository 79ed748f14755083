// Copyright 2025 The go-matbench Authors. SPDX-License-Identifier: Apache-2.0

// Package timing measures the wall-clock latency of a parallel region in
// microseconds.
//
// Usage:
//
//	t := timing.New(nil)
//	t.Start()
//	runParallelRegion()
//	elapsed := t.Stop() // microseconds
//
// Only the parallel multiplication belongs between Start and Stop; operand
// initialization and printing stay outside.
package timing

// Timeval is a wall-clock reading split into whole seconds and microseconds,
// in the shape gettimeofday(2) reports it.
type Timeval struct {
	Sec  int64
	Usec int64
}

// Clock returns the current wall-clock time.
type Clock func() Timeval

const usecPerSec = 1_000_000

// Elapsed returns stop - start in microseconds.
//
// The microsecond difference borrows from the seconds when it goes negative,
// so a measurement that straddles a second boundary (start 1s+999999µs,
// stop 2s+1µs) reports 2 rather than a negative value. A stop reading that
// precedes start (wall clock stepped backwards) reports 0.
func Elapsed(start, stop Timeval) float64 {
	sec := stop.Sec - start.Sec
	usec := stop.Usec - start.Usec
	for usec < 0 {
		sec--
		usec += usecPerSec
	}
	for usec >= usecPerSec {
		sec++
		usec -= usecPerSec
	}
	if sec < 0 {
		return 0
	}
	return float64(sec*usecPerSec + usec)
}

// Timer brackets one region. It is not safe for concurrent use; each run owns
// its own Timer.
type Timer struct {
	clock   Clock
	start   Timeval
	running bool
}

// New returns a Timer reading clock. A nil clock uses SystemClock.
func New(clock Clock) *Timer {
	if clock == nil {
		clock = SystemClock
	}
	return &Timer{clock: clock}
}

// Start records the beginning of the region.
func (t *Timer) Start() {
	t.start = t.clock()
	t.running = true
}

// Stop returns the microseconds since Start. Calling Stop without Start
// returns 0.
func (t *Timer) Stop() float64 {
	if !t.running {
		return 0
	}
	t.running = false
	return Elapsed(t.start, t.clock())
}

// Measure runs fn between Start and Stop and returns the elapsed
// microseconds along with fn's error.
func (t *Timer) Measure(fn func() error) (float64, error) {
	t.Start()
	err := fn()
	return t.Stop(), err
}
