// Copyright 2025 go-matbench Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command matbench times dense square matrix multiplication under several
// parallelization strategies.
//
// Usage:
//
//	matbench threads 1024 8                  # goroutine per row range
//	matbench processes 1024 8                # worker processes over shared memory
//	matbench parallel-for 1024 8             # pool-driven work-shared row loop
//	matbench parallel-for-transposed 1024 8  # same, cache-friendly kernel
//	matbench bench --sizes 256,512 --worker-counts 1,2,4,8
//
// Each run prints the elapsed microseconds of the parallel region only.
package main

import (
	"fmt"
	"os"

	"github.com/ajroetker/go-matbench/cmd/matbench/commands"
	"github.com/ajroetker/go-matbench/engine"
)

func main() {
	// Worker processes are re-executions of this binary and must not parse
	// the command line.
	if engine.IsWorkerProcess() {
		if err := engine.RunWorker(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
