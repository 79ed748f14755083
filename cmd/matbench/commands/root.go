// Copyright 2025 The go-matbench Authors. SPDX-License-Identifier: Apache-2.0

// Package commands implements the matbench command tree.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ajroetker/go-matbench/internal/config"
	"github.com/ajroetker/go-matbench/internal/logging"
)

var (
	cfgFile string
	cfg     *config.Config
)

// flagKeys maps flag names to the config keys they override.
var flagKeys = map[string]string{
	"log-level":      "logging.level",
	"log-file":       "logging.file",
	"policy":         "run.policy",
	"seed":           "run.seed",
	"print":          "run.print",
	"raw-transposed": "run.raw_transposed",
	"dim":            "run.dim",
	"workers":        "run.workers",
	"sizes":          "bench.sizes",
	"worker-counts":  "bench.workers",
	"engines":        "bench.engines",
	"repeat":         "bench.repeat",
	"json":           "bench.json",
}

// NewRootCommand builds the command tree. Each call returns an independent
// tree, which keeps tests from sharing flag state.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "matbench",
		Short: "Parallel dense matrix multiplication micro-benchmark",
		Long: `matbench multiplies two random square matrices of float64 under one of
several parallelization strategies and prints the wall-clock time of the
parallel region in microseconds.

Operand generation, transposition and printing are never timed.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: loadConfig,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is ./matbench.yaml or $HOME/.matbench/matbench.yaml)")
	pf.String("log-level", "warn", "log level (trace, debug, info, warn, error)")
	pf.String("log-file", "", "also write logs to this file")

	root.AddCommand(newRunCommands()...)
	root.AddCommand(newBenchCommand(), newInfoCommand())
	return root
}

// Execute runs the root command
func Execute() error {
	return NewRootCommand().Execute()
}

// loadConfig layers defaults, config file, environment and the flags the
// user actually set, then initializes logging.
func loadConfig(cmd *cobra.Command, _ []string) error {
	_, v, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := bindFlags(cmd, v); err != nil {
		return err
	}
	c, err := config.Decode(v)
	if err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	if err := logging.Init(c.Logging.Level, c.Logging.File, c.Logging.Console); err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	if used := v.ConfigFileUsed(); used != "" {
		logging.Debugf("using config file %s", used)
	}
	cfg = c
	return nil
}

func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	for name, key := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return err
		}
	}
	return nil
}
