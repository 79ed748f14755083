// Copyright 2025 The go-matbench Authors. SPDX-License-Identifier: Apache-2.0

package engine

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/ajroetker/go-matbench/internal/logging"
	"github.com/ajroetker/go-matbench/internal/shm"
	"github.com/ajroetker/go-matbench/mm"
)

// Worker environment. A process started by Processes carries all of these.
const (
	envWorkerIndex  = "MATBENCH_WORKER_INDEX"
	envWorkerCount  = "MATBENCH_WORKER_COUNT"
	envWorkerDim    = "MATBENCH_WORKER_DIM"
	envWorkerPolicy = "MATBENCH_WORKER_POLICY"
	arenaFD         = 3 // first entry of exec.Cmd.ExtraFiles
)

var errNotWorker = errors.New("engine: not a worker process")

// workerTask tells a child which slice of the product it owns.
type workerTask struct {
	Index   int
	Workers int
	Dim     int
	Policy  mm.Policy
}

func (t workerTask) environ() []string {
	return []string{
		envWorkerIndex + "=" + strconv.Itoa(t.Index),
		envWorkerCount + "=" + strconv.Itoa(t.Workers),
		envWorkerDim + "=" + strconv.Itoa(t.Dim),
		envWorkerPolicy + "=" + t.Policy.String(),
	}
}

func parseWorkerTask(getenv func(string) string) (workerTask, error) {
	if getenv(envWorkerIndex) == "" {
		return workerTask{}, errNotWorker
	}
	var (
		t   workerTask
		err error
	)
	ints := []struct {
		key string
		dst *int
	}{
		{envWorkerIndex, &t.Index},
		{envWorkerCount, &t.Workers},
		{envWorkerDim, &t.Dim},
	}
	for _, f := range ints {
		if *f.dst, err = strconv.Atoi(getenv(f.key)); err != nil {
			return workerTask{}, fmt.Errorf("engine: bad %s: %w", f.key, err)
		}
	}
	if t.Policy, err = mm.ParsePolicy(getenv(envWorkerPolicy)); err != nil {
		return workerTask{}, err
	}
	if err := mm.CheckConfig(t.Dim, t.Workers); err != nil {
		return workerTask{}, err
	}
	if t.Index < 0 || t.Index >= t.Workers {
		return workerTask{}, fmt.Errorf("engine: worker index %d outside [0, %d)", t.Index, t.Workers)
	}
	return t, nil
}

// IsWorkerProcess reports whether this process was started by Processes.
func IsWorkerProcess() bool {
	return os.Getenv(envWorkerIndex) != ""
}

// RunWorker computes this process's share of the product into the inherited
// arena. Small products are echoed to out, row by row, so a run can be
// followed by eye.
func RunWorker(out io.Writer) error {
	task, err := parseWorkerTask(os.Getenv)
	if err != nil {
		return err
	}
	f := os.NewFile(arenaFD, "matbench-arena")
	if f == nil {
		return fmt.Errorf("engine: worker %d has no arena descriptor", task.Index)
	}
	arena, err := shm.Open(f, arenaLen(task.Dim))
	if err != nil {
		return err
	}
	defer arena.Close()

	return computeShare(arena, task, out)
}

func computeShare(arena *shm.Arena, task workerTask, out io.Writer) error {
	ranges, err := task.Policy.Partition(task.Dim, task.Workers)
	if err != nil {
		return err
	}
	r := ranges[task.Index]

	d, n := task.Dim, task.Dim*task.Dim
	a := arena.Float64s(0, n)
	b := arena.Float64s(n, n)
	c := arena.Float64s(2*n, n)
	mm.ClassicRange(a, b, c, d, r.Start, r.End)

	pid := os.Getpid()
	logging.Debugf("worker %d pid %d computed rows %v", task.Index, pid, r)
	if out != nil {
		return mm.FprintRows(out, fmt.Sprintf("worker %d (pid %d)", task.Index, pid), c, d, r)
	}
	return nil
}
