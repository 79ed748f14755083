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

import (
	"fmt"
	"strings"
)

// RangeFunc computes rows [rowStart, rowEnd) of a d×d product into c.
type RangeFunc func(a, b, c []float64, d, rowStart, rowEnd int)

// Kernel names one of the two range kernels.
type Kernel int

const (
	// Classic multiplies A by B, walking B down its columns.
	Classic Kernel = iota

	// Transposed multiplies A by the transpose of its second operand, which
	// the caller must already supply transposed (see TransposedRange).
	Transposed
)

// String returns the kernel name accepted by ParseKernel.
func (k Kernel) String() string {
	switch k {
	case Classic:
		return "classic"
	case Transposed:
		return "transposed"
	default:
		return "unknown"
	}
}

// Func returns the range kernel for k.
func (k Kernel) Func() (RangeFunc, error) {
	switch k {
	case Classic:
		return ClassicRange, nil
	case Transposed:
		return TransposedRange, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKernel, int(k))
	}
}

// ParseKernel maps a name back to its Kernel.
func ParseKernel(s string) (Kernel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "classic", "":
		return Classic, nil
	case "transposed", "trans":
		return Transposed, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKernel, s)
	}
}

// ClassicRange computes C[i,j] = sum(A[i,k] * B[k,j]) for i in [rowStart, rowEnd).
// B is read with stride d, so every inner step lands on a new cache line for
// large d. This is the unoptimized baseline.
//
// The sum for each cell is accumulated in a local in ascending k order, which
// makes the result independent of how rows were split across workers.
// An empty range (rowStart >= rowEnd) writes nothing.
func ClassicRange(a, b, c []float64, d, rowStart, rowEnd int) {
	for i := rowStart; i < rowEnd; i++ {
		aRow := a[i*d : i*d+d]
		cRow := c[i*d : i*d+d]
		for j := range d {
			var sum float64
			bIdx := j
			for k := range d {
				sum += aRow[k] * b[bIdx]
				bIdx += d
			}
			cRow[j] = sum
		}
	}
}

// TransposedRange computes C[i,j] = sum(A[i,k] * Bt[j,k]) for i in [rowStart, rowEnd).
// Both operands are walked with unit stride.
//
// The kernel trusts its caller: bt must already hold the transpose of the
// intended right-hand operand. Passing a matrix that was never transposed is
// not detected and yields A·btᵀ, which is a different product from
// ClassicRange on the same buffers unless bt is symmetric.
func TransposedRange(a, bt, c []float64, d, rowStart, rowEnd int) {
	for i := rowStart; i < rowEnd; i++ {
		aRow := a[i*d : i*d+d]
		cRow := c[i*d : i*d+d]
		for j := range d {
			btRow := bt[j*d : j*d+d]
			var sum float64
			for k := range d {
				sum += aRow[k] * btRow[k]
			}
			cRow[j] = sum
		}
	}
}
