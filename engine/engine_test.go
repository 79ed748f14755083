// Copyright 2025 The go-matbench Authors. SPDX-License-Identifier: Apache-2.0

package engine

import (
	"fmt"
	"math/rand/v2"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/go-matbench/mm"
	"github.com/ajroetker/go-matbench/timing"
)

func quietLogger() logrus.FieldLogger {
	l, _ := test.NewNullLogger()
	return l
}

// allEngines returns one instance of every backend.
func allEngines(t *testing.T, opts Options) []Engine {
	t.Helper()
	if opts.Log == nil {
		opts.Log = quietLogger()
	}
	var engines []Engine
	for _, name := range Names() {
		e, err := New(name, opts)
		require.NoError(t, err)
		engines = append(engines, e)
	}
	return engines
}

// operand returns b laid out the way e expects it.
func operand(t *testing.T, e Engine, b []float64, d int) []float64 {
	t.Helper()
	if e.Kernel() != mm.Transposed {
		return b
	}
	bt := make([]float64, d*d)
	require.NoError(t, mm.Transpose(b, d, bt))
	return bt
}

func randomPair(d int, seed uint64) (a, b []float64) {
	a = make([]float64, d*d)
	b = make([]float64, d*d)
	mm.Fill(a, b, rand.New(rand.NewPCG(seed, 1)))
	return a, b
}

func TestNames(t *testing.T) {
	require.Equal(t, []string{"parallel-for", "parallel-for-transposed", "processes", "threads"}, Names())

	_, err := New("gpu", Options{})
	require.ErrorIs(t, err, ErrUnknownEngine)
}

func TestKnownSmallProduct(t *testing.T) {
	d := 2
	a := []float64{1, 2, 3, 4}
	b := []float64{5, 6, 7, 8}
	want := []float64{19, 22, 43, 50}

	for _, e := range allEngines(t, Options{}) {
		for _, w := range []int{1, 2, 3} {
			t.Run(fmt.Sprintf("%s/w=%d", e.Name(), w), func(t *testing.T) {
				c := make([]float64, d*d)
				elapsed, err := e.Run(a, operand(t, e, b, d), c, d, w)
				require.NoError(t, err)
				require.GreaterOrEqual(t, elapsed, 0.0)
				require.Equal(t, want, c)
			})
		}
	}
}

func TestIdentityProduct(t *testing.T) {
	d := 9
	a, _ := randomPair(d, 5)
	identity, err := mm.Identity(d)
	require.NoError(t, err)

	for _, e := range allEngines(t, Options{}) {
		t.Run(e.Name(), func(t *testing.T) {
			c := make([]float64, d*d)
			_, err := e.Run(a, operand(t, e, identity, d), c, d, 4)
			require.NoError(t, err)
			require.Equal(t, a, c)
		})
	}
}

// Every backend must reproduce the single-worker classic product bit for bit,
// including when there are more workers than rows.
func TestEnginesAgree(t *testing.T) {
	for _, d := range []int{1, 8, 13} {
		a, b := randomPair(d, uint64(d))
		want := make([]float64, d*d)
		mm.ClassicRange(a, b, want, d, 0, d)

		for _, e := range allEngines(t, Options{}) {
			for _, w := range []int{1, 4, d + 3} {
				t.Run(fmt.Sprintf("%s/d=%d/w=%d", e.Name(), d, w), func(t *testing.T) {
					c := make([]float64, d*d)
					_, err := e.Run(a, operand(t, e, b, d), c, d, w)
					require.NoError(t, err)
					if diff := cmp.Diff(want, c); diff != "" {
						t.Errorf("product mismatch (-want +got):\n%s", diff)
					}
				})
			}
		}
	}
}

// countingClock reports how often the timer was read, which tells whether a
// run ever reached its parallel region.
func countingClock(calls *atomic.Int32) timing.Clock {
	return func() timing.Timeval {
		n := calls.Add(1)
		return timing.Timeval{Sec: 100, Usec: int64(n) * 250}
	}
}

func TestConfigErrorsStopBeforeSpawn(t *testing.T) {
	var clockCalls, spawns atomic.Int32
	opts := Options{Clock: countingClock(&clockCalls)}

	engines := allEngines(t, opts)
	for _, e := range engines {
		if p, ok := e.(*Processes); ok {
			p.Command = func() (*exec.Cmd, error) {
				spawns.Add(1)
				return exec.Command(os.Args[0]), nil
			}
		}
	}

	cases := []struct {
		name string
		d, w int
		want error
	}{
		{"zero workers", 4, 0, mm.ErrInvalidWorkers},
		{"negative workers", 4, -2, mm.ErrInvalidWorkers},
		{"zero dimension", 0, 2, mm.ErrInvalidDimension},
		{"negative dimension", -1, 2, mm.ErrInvalidDimension},
	}
	for _, e := range engines {
		for _, tc := range cases {
			t.Run(e.Name()+"/"+tc.name, func(t *testing.T) {
				buf := make([]float64, 16)
				_, err := e.Run(buf, buf, buf, tc.d, tc.w)
				require.ErrorIs(t, err, tc.want)
			})
		}
		t.Run(e.Name()+"/short buffer", func(t *testing.T) {
			_, err := e.Run(make([]float64, 4), make([]float64, 3), make([]float64, 4), 2, 1)
			require.ErrorIs(t, err, mm.ErrShortBuffer)
		})
	}
	require.Zero(t, clockCalls.Load(), "timer started for a rejected configuration")
	require.Zero(t, spawns.Load(), "worker spawned for a rejected configuration")
}

func TestElapsedBracketsParallelRegion(t *testing.T) {
	d := 4
	a, b := randomPair(d, 3)
	for _, name := range Names() {
		var calls atomic.Int32
		e, err := New(name, Options{Clock: countingClock(&calls), Log: quietLogger()})
		require.NoError(t, err)

		c := make([]float64, d*d)
		elapsed, err := e.Run(a, operand(t, e, b, d), c, d, 2)
		require.NoError(t, err)
		require.Equal(t, int32(2), calls.Load(), "%s: one Start and one Stop", name)
		require.Equal(t, 250.0, elapsed, name)
	}
}

func TestDropRemainderLeavesRowsUntouched(t *testing.T) {
	d, w := 10, 4
	a, b := randomPair(d, 11)
	want := make([]float64, d*d)
	mm.ClassicRange(a, b, want, d, 0, d)

	dropped := mm.DropRemainder.DroppedRows(d, w)
	require.Equal(t, 2, dropped)
	covered := (d - dropped) * d

	for _, e := range []Engine{
		&Threads{Policy: mm.DropRemainder, Log: quietLogger()},
		&Processes{Policy: mm.DropRemainder, Log: quietLogger()},
	} {
		t.Run(e.Name(), func(t *testing.T) {
			c := make([]float64, d*d)
			for i := range c {
				c[i] = -7
			}
			_, err := e.Run(a, b, c, d, w)
			require.NoError(t, err)

			require.Equal(t, want[:covered], c[:covered])
			for i := covered; i < d*d; i++ {
				require.Equalf(t, -7.0, c[i], "c[%d] should be left untouched", i)
			}
		})
	}
}

func TestParallelForTransposedTrustsItsOperand(t *testing.T) {
	d := 2
	a := []float64{1, 2, 3, 4}
	b := []float64{5, 6, 7, 8}

	e, err := New("parallel-for-transposed", Options{Log: quietLogger()})
	require.NoError(t, err)

	// b handed over untransposed: the engine computes A·Bᵀ without complaint.
	c := make([]float64, d*d)
	_, err = e.Run(a, b, c, d, 2)
	require.NoError(t, err)
	require.Equal(t, []float64{17, 23, 39, 53}, c)
}

func TestProcessesSpawnFailureJoinsStartedWorkers(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shared memory arenas need a unix platform")
	}
	exe, err := os.Executable()
	require.NoError(t, err)

	var started atomic.Int32
	p := &Processes{
		Log: quietLogger(),
		Command: func() (*exec.Cmd, error) {
			if started.Add(1) > 2 {
				return exec.Command("/nonexistent/matbench-worker"), nil
			}
			return exec.Command(exe), nil
		},
	}

	d := 6
	a, b := randomPair(d, 2)
	c := make([]float64, d*d)
	_, err = p.Run(a, b, c, d, 4)
	require.ErrorIs(t, err, mm.ErrSpawn)
	require.Equal(t, int32(3), started.Load(), "spawning stops at the first failure")
	require.Equal(t, make([]float64, d*d), c, "no partial result is returned")
}

func TestProcessesWorkerFailure(t *testing.T) {
	falseBin, err := exec.LookPath("false")
	if err != nil {
		t.Skip("no false(1) binary on this system")
	}
	p := &Processes{
		Log:     quietLogger(),
		Command: func() (*exec.Cmd, error) { return exec.Command(falseBin), nil },
	}

	d := 3
	a, b := randomPair(d, 4)
	c := make([]float64, d*d)
	_, err = p.Run(a, b, c, d, 2)
	require.ErrorIs(t, err, ErrWorkerFailed)
	require.Equal(t, make([]float64, d*d), c)
}

func TestProcessesEchoesSmallResults(t *testing.T) {
	d := 2
	a := []float64{1, 2, 3, 4}
	b := []float64{5, 6, 7, 8}

	var out syncBuffer
	p := &Processes{Log: quietLogger(), Stdout: &out}
	c := make([]float64, d*d)
	_, err := p.Run(a, b, c, d, 2)
	require.NoError(t, err)

	got := out.String()
	require.Contains(t, got, "computed rows 0 to 0:")
	require.Contains(t, got, "computed rows 1 to 1:")
	require.Contains(t, got, " 43.00  50.00 ")
}

func TestWorkerTaskRoundTrip(t *testing.T) {
	task := workerTask{Index: 2, Workers: 5, Dim: 17, Policy: mm.DropRemainder}
	env := map[string]string{}
	for _, kv := range task.environ() {
		k, v, _ := strings.Cut(kv, "=")
		env[k] = v
	}
	got, err := parseWorkerTask(func(k string) string { return env[k] })
	require.NoError(t, err)
	require.Equal(t, task, got)

	_, err = parseWorkerTask(func(string) string { return "" })
	require.ErrorIs(t, err, errNotWorker)

	env[envWorkerIndex] = "5"
	_, err = parseWorkerTask(func(k string) string { return env[k] })
	require.Error(t, err)

	env[envWorkerIndex] = "1"
	env[envWorkerCount] = "0"
	_, err = parseWorkerTask(func(k string) string { return env[k] })
	require.ErrorIs(t, err, mm.ErrInvalidWorkers)
}

func BenchmarkEngines(b *testing.B) {
	d := 128
	a, m := randomPair(d, 1)
	mt := make([]float64, d*d)
	_ = mm.Transpose(m, d, mt)
	c := make([]float64, d*d)

	for _, name := range []string{"threads", "parallel-for", "parallel-for-transposed"} {
		e, err := New(name, Options{Log: quietLogger()})
		if err != nil {
			b.Fatal(err)
		}
		rhs := m
		if e.Kernel() == mm.Transposed {
			rhs = mt
		}
		for _, w := range []int{1, 4} {
			b.Run(fmt.Sprintf("%s/w=%d", name, w), func(b *testing.B) {
				for b.Loop() {
					if _, err := e.Run(a, rhs, c, d, w); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}
