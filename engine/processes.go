// Copyright 2025 The go-matbench Authors. SPDX-License-Identifier: Apache-2.0

package engine

import (
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ajroetker/go-matbench/internal/logging"
	"github.com/ajroetker/go-matbench/internal/shm"
	"github.com/ajroetker/go-matbench/mm"
	"github.com/ajroetker/go-matbench/timing"
)

// Processes runs the classic kernel in w worker processes.
//
// Child processes do not share the parent's heap, so A, B and C are copied
// into one shared-memory arena laid out as [A | B | C] before the fan-out.
// Every child maps the arena, computes its WorkRange into the C region and
// exits. The parent keeps the only handle it reads C from, and reads it only
// after waiting for every child.
//
// Children are copies of the running binary. Its main (or TestMain) must
// check IsWorkerProcess and hand control to RunWorker before doing anything
// else.
type Processes struct {
	Policy mm.Policy
	Log    logrus.FieldLogger
	Clock  timing.Clock

	// Command returns the command that starts one worker. The engine adds
	// the worker environment, the arena descriptor and the output streams.
	// nil re-executes the current binary with no arguments.
	Command func() (*exec.Cmd, error)

	// Stdout and Stderr receive children's output; nil discards it.
	Stdout io.Writer
	Stderr io.Writer
}

func (p *Processes) Name() string { return "processes" }

func (p *Processes) Kernel() mm.Kernel { return mm.Classic }

// Run copies the operands into a fresh arena, times the spawn and the wait
// for all children, then copies C out.
//
// If a worker cannot be started, no more are spawned, the ones already
// running are waited for, and Run returns an error wrapping mm.ErrSpawn.
// A worker that exits unsuccessfully yields ErrWorkerFailed. In both cases c
// is left as it was.
func (p *Processes) Run(a, b, c []float64, d, w int) (float64, error) {
	if err := validate(a, b, c, d, w); err != nil {
		return 0, err
	}
	ranges, err := p.Policy.Partition(d, w)
	if err != nil {
		return 0, err
	}
	log := logging.Or(p.Log).WithField("engine", p.Name())

	n := d * d
	arena, err := shm.Create("matbench", arenaLen(d))
	if err != nil {
		return 0, err
	}
	defer arena.Close()

	copy(arena.Float64s(0, n), a[:n])
	copy(arena.Float64s(n, n), b[:n])
	// Rows a policy leaves unassigned keep the caller's values.
	copy(arena.Float64s(2*n, n), c[:n])

	log.Debugf("d=%d w=%d policy=%s ranges=%v", d, w, p.Policy, ranges)

	timer := timing.New(p.Clock)
	elapsed, err := timer.Measure(func() error {
		return p.fanOut(log, arena, d, ranges)
	})
	if err != nil {
		return 0, err
	}

	copy(c[:n], arena.Float64s(2*n, n))
	log.Debugf("waited for %d workers in %.0f us", len(ranges), elapsed)
	return elapsed, nil
}

// fanOut starts one child per range and waits for every child it started.
func (p *Processes) fanOut(log logrus.FieldLogger, arena *shm.Arena, d int, ranges []mm.WorkRange) error {
	var (
		g        errgroup.Group
		spawnErr error
	)
	for i, r := range ranges {
		task := workerTask{Index: i, Workers: len(ranges), Dim: d, Policy: p.Policy}
		cmd, err := p.command(arena, task)
		if err == nil {
			err = cmd.Start()
		}
		if err != nil {
			spawnErr = fmt.Errorf("%w: worker %d of %d: %v", mm.ErrSpawn, i, len(ranges), err)
			log.Errorf("spawn failed, waiting for %d started workers: %v", i, err)
			break
		}

		pid := cmd.Process.Pid
		log.Debugf("worker %d pid %d rows %v", i, pid, r)
		g.Go(func() error {
			if err := cmd.Wait(); err != nil {
				return fmt.Errorf("%w: worker %d (pid %d) rows %v: %v", ErrWorkerFailed, i, pid, r, err)
			}
			return nil
		})
	}

	waitErr := g.Wait()
	if spawnErr != nil {
		return spawnErr
	}
	return waitErr
}

func (p *Processes) command(arena *shm.Arena, task workerTask) (*exec.Cmd, error) {
	var cmd *exec.Cmd
	if p.Command != nil {
		var err error
		if cmd, err = p.Command(); err != nil {
			return nil, err
		}
	} else {
		exe, err := os.Executable()
		if err != nil {
			return nil, err
		}
		cmd = exec.Command(exe)
	}

	env := cmd.Env
	if env == nil {
		env = os.Environ()
	}
	cmd.Env = append(env, task.environ()...)
	cmd.ExtraFiles = []*os.File{arena.File()}
	cmd.Stdout = p.Stdout
	cmd.Stderr = p.Stderr
	return cmd, nil
}

// arenaLen is the element count of the [A | B | C] arena.
func arenaLen(d int) int {
	return 3 * d * d
}
