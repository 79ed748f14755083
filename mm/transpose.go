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

package mm

import "github.com/ajroetker/go-matbench/contrib/workerpool"

// Transpose tuning parameters
const (
	// MinTransposeParallelOps is the minimum elements before parallelizing transpose
	MinTransposeParallelOps = 64 * 64

	// TransposeRowsPerStrip defines how many source rows each worker moves at a time
	TransposeRowsPerStrip = 64
)

// Transpose writes the transpose of the d×d matrix src into dst.
// src and dst must not overlap.
func Transpose(src []float64, d int, dst []float64) error {
	if d <= 0 {
		return ErrInvalidDimension
	}
	if err := CheckOperands(d, src, dst); err != nil {
		return err
	}
	transposeRows(src, 0, d, d, dst)
	return nil
}

// transposeRows moves rows [rowStart, rowEnd) of src into columns
// [rowStart, rowEnd) of dst.
func transposeRows(src []float64, rowStart, rowEnd, d int, dst []float64) {
	for i := rowStart; i < rowEnd; i++ {
		row := src[i*d : i*d+d]
		for j, v := range row {
			dst[j*d+i] = v
		}
	}
}

// ParallelTranspose is Transpose spread over a worker pool in horizontal
// strips. Small matrices are transposed on the calling goroutine.
//
// Building Bt is preparation for the transposed kernel, not part of the
// multiplication, so callers run it before starting the timer.
func ParallelTranspose(pool *workerpool.Pool, src []float64, d int, dst []float64) error {
	if d <= 0 {
		return ErrInvalidDimension
	}
	if err := CheckOperands(d, src, dst); err != nil {
		return err
	}
	if pool == nil || d*d < MinTransposeParallelOps {
		transposeRows(src, 0, d, d, dst)
		return nil
	}

	numStrips := (d + TransposeRowsPerStrip - 1) / TransposeRowsPerStrip
	pool.ParallelFor(numStrips, func(start, end int) {
		for strip := start; strip < end; strip++ {
			rowStart := strip * TransposeRowsPerStrip
			rowEnd := min(rowStart+TransposeRowsPerStrip, d)
			transposeRows(src, rowStart, rowEnd, d, dst)
		}
	})
	return nil
}
