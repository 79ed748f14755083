// Copyright 2025 The go-matbench Authors. SPDX-License-Identifier: Apache-2.0

package engine

import (
	"github.com/sirupsen/logrus"

	"github.com/ajroetker/go-matbench/contrib/workerpool"
	"github.com/ajroetker/go-matbench/internal/logging"
	"github.com/ajroetker/go-matbench/mm"
	"github.com/ajroetker/go-matbench/timing"
)

// ParallelFor runs the row loop as a single work-shared loop over a pool of w
// goroutines. The pool, not mm.Partition, decides the row chunks, so a row
// may land on a different worker than Threads would give it. ParallelFor
// returns only after the whole loop has finished.
//
// With KernelKind mm.Transposed, b must hold the transpose of the intended
// right-hand operand.
type ParallelFor struct {
	KernelKind mm.Kernel
	Log        logrus.FieldLogger
	Clock      timing.Clock
}

func (p *ParallelFor) Name() string {
	if p.KernelKind == mm.Transposed {
		return "parallel-for-transposed"
	}
	return "parallel-for"
}

func (p *ParallelFor) Kernel() mm.Kernel { return p.KernelKind }

// Run sizes the pool to w before timing starts; only the loop is timed.
func (p *ParallelFor) Run(a, b, c []float64, d, w int) (float64, error) {
	if err := validate(a, b, c, d, w); err != nil {
		return 0, err
	}
	kernel, err := p.KernelKind.Func()
	if err != nil {
		return 0, err
	}

	pool := workerpool.New(w)
	defer pool.Close()

	log := logging.Or(p.Log).WithField("engine", p.Name())
	log.Debugf("d=%d w=%d kernel=%s chunks=%v", d, w, p.KernelKind, pool.Chunks(d))

	timer := timing.New(p.Clock)
	timer.Start()
	pool.ParallelFor(d, func(start, end int) {
		kernel(a, b, c, d, start, end)
	})
	elapsed := timer.Stop()

	log.Debugf("loop finished in %.0f us", elapsed)
	return elapsed, nil
}
