// Copyright 2025 The go-matbench Authors. SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ajroetker/go-matbench/contrib/workerpool"
	"github.com/ajroetker/go-matbench/engine"
	"github.com/ajroetker/go-matbench/internal/config"
	"github.com/ajroetker/go-matbench/internal/logging"
	"github.com/ajroetker/go-matbench/mm"
)

var runDescriptions = map[string]string{
	"processes":               "Fan rows out to worker processes that share A, B and C through shared memory",
	"threads":                 "Fan rows out to one goroutine per row range",
	"parallel-for":            "Run the row loop on a fixed worker pool with the classic kernel",
	"parallel-for-transposed": "Run the row loop on a fixed worker pool with the transposed kernel",
}

func newRunCommands() []*cobra.Command {
	cmds := make([]*cobra.Command, 0, len(config.EngineNames))
	for _, name := range config.EngineNames {
		cmd := &cobra.Command{
			Use:   name + " [dim] [workers]",
			Short: runDescriptions[name],
			Args:  cobra.MaximumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runEngine(cmd, name, args)
			},
		}
		f := cmd.Flags()
		f.Int("dim", 512, "matrix dimension D (overridden by the first argument)")
		f.Int("workers", 4, "worker count W (overridden by the second argument)")
		f.Uint64("seed", 0, "random seed for the operands (0 picks one from the clock)")
		f.Bool("print", true, "print operands and result when D < 9")
		switch name {
		case "threads", "processes":
			f.String("policy", "remainder-to-last", "row partition policy (remainder-to-last, drop-remainder)")
		case "parallel-for-transposed":
			f.Bool("raw-transposed", false, "use the random B as B_t directly instead of transposing it")
		}
		cmds = append(cmds, cmd)
	}
	return cmds
}

// runSettings resolves the dimension and worker count, with positional
// arguments taking precedence over flags and config.
func runSettings(args []string) (d, w int, err error) {
	d, w = cfg.Run.Dim, cfg.Run.Workers
	if len(args) > 0 {
		if d, err = strconv.Atoi(args[0]); err != nil {
			return 0, 0, fmt.Errorf("dimension %q: %w", args[0], err)
		}
	}
	if len(args) > 1 {
		if w, err = strconv.Atoi(args[1]); err != nil {
			return 0, 0, fmt.Errorf("worker count %q: %w", args[1], err)
		}
	}
	return d, w, mm.CheckConfig(d, w)
}

func runEngine(cmd *cobra.Command, name string, args []string) error {
	d, w, err := runSettings(args)
	if err != nil {
		return err
	}
	policy, err := mm.ParsePolicy(cfg.Run.Policy)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	e, err := engine.New(name, engine.Options{
		Policy: policy,
		Log:    logging.Get(),
		Stdout: out,
		Stderr: os.Stderr,
	})
	if err != nil {
		return err
	}
	if dropped := droppedRows(name, policy, d, w); dropped > 0 {
		logging.Warnf("policy %s leaves the last %d rows of C uncomputed", policy, dropped)
	}

	a, b, c, err := operands(d, cfg.Run.Seed)
	if err != nil {
		return err
	}
	rhs, err := rightOperand(e, b, d, w)
	if err != nil {
		return err
	}

	if cfg.Run.Print {
		if err := printOperands(out, e, a, rhs, d); err != nil {
			return err
		}
	}

	elapsed, err := e.Run(a, rhs, c, d, w)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if _, err := fmt.Fprintf(out, "%9.0f \n", elapsed); err != nil {
		return err
	}

	if cfg.Run.Print {
		return mm.Fprint(out, c, d, mm.RowLayout)
	}
	return nil
}

// droppedRows is the number of rows of C the run leaves uncomputed. Only
// the threads and processes engines partition by policy; the pool engines
// always cover every row.
func droppedRows(name string, policy mm.Policy, d, w int) int {
	switch name {
	case "threads", "processes":
		return policy.DroppedRows(d, w)
	default:
		return 0
	}
}

func operands(d int, seed uint64) (a, b, c []float64, err error) {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	if a, err = mm.New(d); err != nil {
		return nil, nil, nil, err
	}
	b, _ = mm.New(d)
	c, _ = mm.New(d)
	mm.Fill(a, b, rand.New(rand.NewPCG(seed, seed>>1)))
	logging.Debugf("operands d=%d seed=%d", d, seed)
	return a, b, c, nil
}

// rightOperand returns b in the layout e expects. The transposed kernel gets
// the transpose of b, unless raw_transposed asks for b itself to be treated
// as already transposed.
func rightOperand(e engine.Engine, b []float64, d, w int) ([]float64, error) {
	if e.Kernel() != mm.Transposed || cfg.Run.RawTransposed {
		return b, nil
	}
	bt, err := mm.New(d)
	if err != nil {
		return nil, err
	}
	pool := workerpool.New(w)
	defer pool.Close()
	if err := mm.ParallelTranspose(pool, b, d, bt); err != nil {
		return nil, err
	}
	return bt, nil
}

// printOperands shows A and the right-hand operand in its mathematical
// orientation, so a transposed operand is printed column by column.
func printOperands(out io.Writer, e engine.Engine, a, rhs []float64, d int) error {
	if err := mm.Fprint(out, a, d, mm.RowLayout); err != nil {
		return err
	}
	layout := mm.RowLayout
	if e.Kernel() == mm.Transposed {
		layout = mm.ColumnLayout
	}
	return mm.Fprint(out, rhs, d, layout)
}
