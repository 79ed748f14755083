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

// Package mm holds the pieces shared by every multiplication engine: the row
// partitioner, the two range kernels and a few helpers for building and
// printing square matrices.
//
// All matrices are flat, contiguous, row-major []float64 of length d*d, and
// element (r, c) lives at index r*d+c.
//
// Example usage:
//
//	// C = A * B, rows split across 4 workers
//	ranges, err := mm.Partition(d, 4)
//	if err != nil {
//		return err
//	}
//	for _, r := range ranges {
//		go mm.ClassicRange(a, b, c, d, r.Start, r.End)
//	}
//
// Kernels never synchronize: each call writes only rows [rowStart, rowEnd)
// of c, so disjoint ranges may be computed concurrently.
package mm
