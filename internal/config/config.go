// Copyright 2025 The go-matbench Authors. SPDX-License-Identifier: Apache-2.0

// Package config loads matbench settings from defaults, an optional YAML
// file and MATBENCH_* environment variables, in increasing precedence.
// Command-line flags are bound on top by the CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment override, e.g.
// MATBENCH_RUN_WORKERS=8.
const EnvPrefix = "MATBENCH"

// Config represents the application configuration
type Config struct {
	Run     RunConfig     `mapstructure:"run"`
	Bench   BenchConfig   `mapstructure:"bench"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// RunConfig drives a single multiplication.
type RunConfig struct {
	Dim     int    `mapstructure:"dim"`
	Workers int    `mapstructure:"workers"`
	Policy  string `mapstructure:"policy"`
	Seed    uint64 `mapstructure:"seed"`
	// Print dumps operands and result when the dimension is small.
	Print bool `mapstructure:"print"`
	// RawTransposed feeds the random B straight into the transposed kernel
	// instead of transposing it first.
	RawTransposed bool `mapstructure:"raw_transposed"`
}

// BenchConfig drives the sweep command.
type BenchConfig struct {
	Sizes   []int    `mapstructure:"sizes"`
	Workers []int    `mapstructure:"workers"`
	Engines []string `mapstructure:"engines"`
	Repeat  int      `mapstructure:"repeat"`
	JSON    string   `mapstructure:"json"`
}

type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	File    string `mapstructure:"file"`
	Console bool   `mapstructure:"console"`
}

// EngineNames lists the engines a config may name.
var EngineNames = []string{"processes", "threads", "parallel-for", "parallel-for-transposed"}

var (
	policyNames = []string{"remainder-to-last", "drop-remainder"}
	levelNames  = []string{"trace", "debug", "info", "warn", "error"}
)

// DefaultConfig returns configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Run: RunConfig{
			Dim:     512,
			Workers: 4,
			Policy:  "remainder-to-last",
			Print:   true,
		},
		Bench: BenchConfig{
			Sizes:   []int{128, 256, 512},
			Workers: []int{1, 2, 4, 8},
			Engines: slices.Clone(EngineNames),
			Repeat:  3,
		},
		Logging: LoggingConfig{
			Level:   "warn",
			Console: true,
		},
	}
}

// Load loads configuration from file, environment, and defaults.
// A missing file is fine unless cfgFile names it explicitly.
func Load(cfgFile string) (*Config, *viper.Viper, error) {
	v := viper.New()

	setDefaults(v, DefaultConfig())

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".matbench"))
		}
		v.SetConfigType("yaml")
		v.SetConfigName("matbench")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg, err := Decode(v)
	if err != nil {
		return nil, nil, err
	}
	return cfg, v, nil
}

// Decode re-reads cfg from v, picking up flags bound after Load.
// Defaults come from v itself, so a list value replaces the default list
// instead of being merged into it.
func Decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("run.dim", cfg.Run.Dim)
	v.SetDefault("run.workers", cfg.Run.Workers)
	v.SetDefault("run.policy", cfg.Run.Policy)
	v.SetDefault("run.seed", cfg.Run.Seed)
	v.SetDefault("run.print", cfg.Run.Print)
	v.SetDefault("run.raw_transposed", cfg.Run.RawTransposed)

	v.SetDefault("bench.sizes", cfg.Bench.Sizes)
	v.SetDefault("bench.workers", cfg.Bench.Workers)
	v.SetDefault("bench.engines", cfg.Bench.Engines)
	v.SetDefault("bench.repeat", cfg.Bench.Repeat)
	v.SetDefault("bench.json", cfg.Bench.JSON)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.console", cfg.Logging.Console)
}

// Validate checks the settings that do not depend on positional arguments.
// Dimension and worker counts are checked by the engines themselves so the
// same errors surface whether they came from a flag or an argument.
func (c *Config) Validate() error {
	if !lo.Contains(policyNames, c.Run.Policy) {
		return fmt.Errorf("run.policy must be one of: %v", policyNames)
	}
	if !lo.Contains(levelNames, c.Logging.Level) {
		return fmt.Errorf("logging.level must be one of: %v", levelNames)
	}
	if c.Bench.Repeat < 1 {
		return errors.New("bench.repeat must be at least 1")
	}
	if unknown, _ := lo.Difference(c.Bench.Engines, EngineNames); len(unknown) > 0 {
		return fmt.Errorf("bench.engines: unknown engines %v, want a subset of %v", unknown, EngineNames)
	}
	if bad := lo.Filter(c.Bench.Sizes, func(n int, _ int) bool { return n <= 0 }); len(bad) > 0 {
		return fmt.Errorf("bench.sizes must be positive, got %v", bad)
	}
	if bad := lo.Filter(c.Bench.Workers, func(n int, _ int) bool { return n <= 0 }); len(bad) > 0 {
		return fmt.Errorf("bench.workers must be positive, got %v", bad)
	}
	return nil
}
