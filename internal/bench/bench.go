// Copyright 2025 The go-matbench Authors. SPDX-License-Identifier: Apache-2.0

// Package bench sweeps engines across matrix sizes and worker counts and
// summarizes the timings.
package bench

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"os"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ajroetker/go-matbench/contrib/workerpool"
	"github.com/ajroetker/go-matbench/engine"
	"github.com/ajroetker/go-matbench/internal/logging"
	"github.com/ajroetker/go-matbench/internal/sysinfo"
	"github.com/ajroetker/go-matbench/mm"
)

// Plan describes one sweep.
type Plan struct {
	Engines []string
	Sizes   []int
	Workers []int
	Repeat  int
	Seed    uint64
	Options engine.Options
}

// Result is one (engine, size, workers) cell of the sweep.
type Result struct {
	Engine  string    `json:"engine"`
	Size    int       `json:"size"`
	Workers int       `json:"workers"`
	Runs    []float64 `json:"runs_us"`
	MinUs   float64   `json:"min_us"`
	MeanUs  float64   `json:"mean_us"`
	GFLOPS  float64   `json:"gflops"`
	// Speedup is relative to the same engine and size with one worker, or 0
	// when the sweep has no single-worker run to compare with.
	Speedup float64 `json:"speedup_vs_w1"`
}

// Report is the outcome of a sweep.
type Report struct {
	Timestamp time.Time    `json:"timestamp"`
	Host      sysinfo.Host `json:"host"`
	Results   []Result     `json:"results"`
}

// Run executes the plan. Operands are generated once per size and reused by
// every engine, so all engines multiply the same matrices.
func Run(plan Plan) (*Report, error) {
	if plan.Repeat < 1 {
		return nil, fmt.Errorf("bench: repeat must be at least 1, got %d", plan.Repeat)
	}
	log := logging.Or(plan.Options.Log)

	engines := make([]engine.Engine, 0, len(plan.Engines))
	for _, name := range plan.Engines {
		e, err := engine.New(name, plan.Options)
		if err != nil {
			return nil, err
		}
		engines = append(engines, e)
	}

	report := &Report{Timestamp: time.Now(), Host: sysinfo.Detect()}
	for _, d := range plan.Sizes {
		ops, err := newOperands(d, plan.Seed)
		if err != nil {
			return nil, err
		}
		for _, e := range engines {
			rhs := ops.b
			if e.Kernel() == mm.Transposed {
				rhs = ops.bt
			}
			for _, w := range plan.Workers {
				r, err := measure(log, e, ops.a, rhs, d, w, plan.Repeat)
				if err != nil {
					return nil, fmt.Errorf("bench: %s d=%d w=%d: %w", e.Name(), d, w, err)
				}
				report.Results = append(report.Results, r)
			}
		}
	}
	fillSpeedups(report.Results)
	return report, nil
}

type operands struct {
	a, b, bt []float64
}

func newOperands(d int, seed uint64) (operands, error) {
	a, err := mm.New(d)
	if err != nil {
		return operands{}, err
	}
	b, _ := mm.New(d)
	bt, _ := mm.New(d)
	mm.Fill(a, b, rand.New(rand.NewPCG(seed, uint64(d))))

	pool := workerpool.New(0)
	defer pool.Close()
	if err := mm.ParallelTranspose(pool, b, d, bt); err != nil {
		return operands{}, err
	}
	return operands{a: a, b: b, bt: bt}, nil
}

func measure(log logrus.FieldLogger, e engine.Engine, a, b []float64, d, w, repeat int) (Result, error) {
	c := make([]float64, d*d)
	r := Result{Engine: e.Name(), Size: d, Workers: w}
	for range repeat {
		us, err := e.Run(a, b, c, d, w)
		if err != nil {
			return Result{}, err
		}
		r.Runs = append(r.Runs, us)
	}
	r.MinUs = lo.Min(r.Runs)
	r.MeanUs = lo.Sum(r.Runs) / float64(len(r.Runs))
	r.GFLOPS = GFLOPS(d, r.MinUs)
	log.Debugf("%s d=%d w=%d min=%.0fus mean=%.0fus", r.Engine, d, w, r.MinUs, r.MeanUs)
	return r, nil
}

// GFLOPS converts a d×d product time into billions of floating point
// operations per second (2·d³ operations). A zero time yields 0.
func GFLOPS(d int, us float64) float64 {
	if us <= 0 {
		return 0
	}
	flops := 2 * math.Pow(float64(d), 3)
	return flops / (us * 1e3)
}

func fillSpeedups(results []Result) {
	type key struct {
		engine string
		size   int
	}
	baseline := map[key]float64{}
	for _, r := range results {
		if r.Workers == 1 {
			baseline[key{r.Engine, r.Size}] = r.MinUs
		}
	}
	for i := range results {
		base, ok := baseline[key{results[i].Engine, results[i].Size}]
		if ok && results[i].MinUs > 0 {
			results[i].Speedup = base / results[i].MinUs
		}
	}
}

// Fprint writes the report as an aligned table.
func (r *Report) Fprint(w io.Writer) error {
	p := message.NewPrinter(language.English)
	if _, err := p.Fprintf(w, "%-24s %6s %4s %14s %14s %9s %8s\n",
		"ENGINE", "SIZE", "W", "MIN (us)", "MEAN (us)", "GFLOPS", "SPEEDUP"); err != nil {
		return err
	}
	for _, res := range r.Results {
		speedup := "-"
		if res.Speedup > 0 {
			speedup = p.Sprintf("%.2fx", res.Speedup)
		}
		if _, err := p.Fprintf(w, "%-24s %6d %4d %14.0f %14.0f %9.3f %8s\n",
			res.Engine, res.Size, res.Workers, res.MinUs, res.MeanUs, res.GFLOPS, speedup); err != nil {
			return err
		}
	}
	return nil
}

// WriteJSON saves the report to path.
func (r *Report) WriteJSON(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
