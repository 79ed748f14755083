// Copyright 2025 The go-matbench Authors. SPDX-License-Identifier: Apache-2.0

package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ajroetker/go-matbench/engine"
	"github.com/ajroetker/go-matbench/internal/bench"
	"github.com/ajroetker/go-matbench/internal/config"
	"github.com/ajroetker/go-matbench/internal/logging"
	"github.com/ajroetker/go-matbench/mm"
)

func newBenchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Sweep engines across sizes and worker counts",
		Args:  cobra.NoArgs,
		RunE:  runBench,
	}
	def := config.DefaultConfig().Bench
	f := cmd.Flags()
	f.IntSlice("sizes", def.Sizes, "matrix dimensions to run")
	f.IntSlice("worker-counts", def.Workers, "worker counts to run")
	f.StringSlice("engines", def.Engines, "engines to run")
	f.Int("repeat", def.Repeat, "runs per cell; the table reports min and mean")
	f.Uint64("seed", 0, "random seed for the operands")
	f.String("json", "", "also write the report as JSON to this file")
	f.String("policy", "remainder-to-last", "row partition policy for threads and processes")
	return cmd
}

func runBench(cmd *cobra.Command, _ []string) error {
	policy, err := mm.ParsePolicy(cfg.Run.Policy)
	if err != nil {
		return err
	}
	report, err := bench.Run(bench.Plan{
		Engines: cfg.Bench.Engines,
		Sizes:   cfg.Bench.Sizes,
		Workers: cfg.Bench.Workers,
		Repeat:  cfg.Bench.Repeat,
		Seed:    cfg.Run.Seed,
		Options: engine.Options{
			Policy: policy,
			Log:    logging.Get(),
			Stderr: os.Stderr,
		},
	})
	if err != nil {
		return err
	}
	if err := report.Fprint(cmd.OutOrStdout()); err != nil {
		return err
	}
	if cfg.Bench.JSON != "" {
		if err := report.WriteJSON(cfg.Bench.JSON); err != nil {
			return err
		}
		logging.Infof("wrote %s", cfg.Bench.JSON)
	}
	return nil
}
