// Copyright 2025 The go-matbench Authors. SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ajroetker/go-matbench/engine"
	"github.com/ajroetker/go-matbench/internal/sysinfo"
)

func newInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print the host CPU summary and available engines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if err := sysinfo.Detect().Fprint(out); err != nil {
				return err
			}
			_, err := fmt.Fprintf(out, "Engines: %v\n", engine.Names())
			return err
		},
	}
}
