// Copyright 2025 The go-matbench Authors. SPDX-License-Identifier: Apache-2.0

package engine

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ajroetker/go-matbench/internal/logging"
	"github.com/ajroetker/go-matbench/mm"
	"github.com/ajroetker/go-matbench/timing"
)

// Threads runs the classic kernel on one goroutine per row range.
//
// All goroutines share a, b and c by reference. Each is bound to one
// WorkRange and writes only those rows of c; ranges are disjoint, so no lock
// is needed.
type Threads struct {
	Policy mm.Policy
	Log    logrus.FieldLogger
	Clock  timing.Clock
}

func (t *Threads) Name() string { return "threads" }

func (t *Threads) Kernel() mm.Kernel { return mm.Classic }

// Run spawns w goroutines, including those whose range is empty, and joins
// all of them before returning.
func (t *Threads) Run(a, b, c []float64, d, w int) (float64, error) {
	if err := validate(a, b, c, d, w); err != nil {
		return 0, err
	}
	ranges, err := t.Policy.Partition(d, w)
	if err != nil {
		return 0, err
	}
	log := logging.Or(t.Log).WithField("engine", t.Name())
	log.Debugf("d=%d w=%d policy=%s ranges=%v", d, w, t.Policy, ranges)

	timer := timing.New(t.Clock)
	timer.Start()

	var wg sync.WaitGroup
	wg.Add(len(ranges))
	for _, r := range ranges {
		go func() {
			defer wg.Done()
			mm.ClassicRange(a, b, c, d, r.Start, r.End)
		}()
	}
	wg.Wait()

	elapsed := timer.Stop()
	log.Debugf("joined %d goroutines in %.0f us", len(ranges), elapsed)
	return elapsed, nil
}
