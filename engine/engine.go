// Copyright 2025 The go-matbench Authors. SPDX-License-Identifier: Apache-2.0

// Package engine runs the d×d product C = A·B under interchangeable
// concurrency backends and reports how long the parallel region took.
//
// Every backend shares the same rules:
//   - a bad dimension or worker count is rejected before any worker starts;
//   - A and B are only read, and each cell of C is written by exactly one
//     worker, so no backend takes a lock;
//   - C is read back only after every worker has been joined;
//   - the returned duration covers the fan-out and the join, nothing else.
//
// Backends:
//   - Threads: one goroutine per row range, joined with a WaitGroup.
//   - Processes: one OS process per row range, sharing A, B and C through a
//     shared-memory arena, joined by waiting on every child.
//   - ParallelFor: a fixed pool of w goroutines running one work-shared row
//     loop; the pool decides which rows each goroutine gets.
package engine

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/ajroetker/go-matbench/mm"
	"github.com/ajroetker/go-matbench/timing"
)

var (
	// ErrWorkerFailed is returned when a worker ran but did not finish its rows.
	ErrWorkerFailed = errors.New("engine: worker failed")

	// ErrUnknownEngine is returned by New for an unrecognized name.
	ErrUnknownEngine = errors.New("engine: unknown engine")
)

// Engine multiplies two d×d matrices with w workers.
type Engine interface {
	// Name identifies the backend, e.g. "threads".
	Name() string

	// Kernel reports which range kernel the engine applies, and therefore
	// whether b must be supplied transposed.
	Kernel() mm.Kernel

	// Run computes c = a·b (or a·bᵀ-layout for the transposed kernel) and
	// returns the elapsed microseconds of the parallel region. On error no
	// result is guaranteed in c.
	Run(a, b, c []float64, d, w int) (float64, error)
}

// Options are shared by every backend. The zero value is usable.
type Options struct {
	// Policy splits rows for the Threads and Processes backends.
	Policy mm.Policy

	// Log receives debug traces; nil uses the process logger.
	Log logrus.FieldLogger

	// Clock overrides the timer's clock; nil uses the system clock.
	Clock timing.Clock

	// Stdout and Stderr receive worker process output. nil discards it.
	Stdout io.Writer
	Stderr io.Writer
}

var constructors = map[string]func(Options) Engine{
	"threads": func(o Options) Engine {
		return &Threads{Policy: o.Policy, Log: o.Log, Clock: o.Clock}
	},
	"processes": func(o Options) Engine {
		return &Processes{Policy: o.Policy, Log: o.Log, Clock: o.Clock, Stdout: o.Stdout, Stderr: o.Stderr}
	},
	"parallel-for": func(o Options) Engine {
		return &ParallelFor{KernelKind: mm.Classic, Log: o.Log, Clock: o.Clock}
	},
	"parallel-for-transposed": func(o Options) Engine {
		return &ParallelFor{KernelKind: mm.Transposed, Log: o.Log, Clock: o.Clock}
	},
}

// Names returns the registered engine names in sorted order.
func Names() []string {
	names := lo.Keys(constructors)
	slices.Sort(names)
	return names
}

// New returns the engine registered under name.
func New(name string, opts Options) (Engine, error) {
	ctor, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (have %v)", ErrUnknownEngine, name, Names())
	}
	return ctor(opts), nil
}

// validate is the configuration gate every backend passes before spawning.
func validate(a, b, c []float64, d, w int) error {
	if err := mm.CheckConfig(d, w); err != nil {
		return err
	}
	return mm.CheckOperands(d, a, b, c)
}
