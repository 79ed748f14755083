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
	"math"
	"math/rand/v2"
	"testing"
)

// matmulReference computes C = A * B using the textbook triple loop.
// Used as reference for correctness testing.
func matmulReference(a, b, c []float64, d int) {
	for i := range d {
		for j := range d {
			var sum float64
			for k := range d {
				sum += a[i*d+k] * b[k*d+j]
			}
			c[i*d+j] = sum
		}
	}
}

func randomMatrices(d int, seed uint64) (a, b []float64) {
	a = make([]float64, d*d)
	b = make([]float64, d*d)
	Fill(a, b, rand.New(rand.NewPCG(seed, seed+1)))
	return a, b
}

// multiplyInRanges runs kernel over partition(d, w) sequentially.
func multiplyInRanges(t testing.TB, kernel RangeFunc, a, b []float64, d, w int) []float64 {
	t.Helper()
	ranges, err := Partition(d, w)
	if err != nil {
		t.Fatalf("Partition(%d, %d): %v", d, w, err)
	}
	c := make([]float64, d*d)
	for _, r := range ranges {
		kernel(a, b, c, d, r.Start, r.End)
	}
	return c
}

func TestClassicKnownSmall(t *testing.T) {
	a := []float64{1, 2, 3, 4}
	b := []float64{5, 6, 7, 8}
	want := []float64{19, 22, 43, 50}

	c := make([]float64, 4)
	ClassicRange(a, b, c, 2, 0, 2)

	for i := range c {
		if c[i] != want[i] {
			t.Errorf("c[%d] = %v, want %v", i, c[i], want[i])
		}
	}
}

func TestClassicIdentity(t *testing.T) {
	for _, d := range []int{1, 3, 8, 17} {
		a, _ := randomMatrices(d, uint64(d))
		identity, err := Identity(d)
		if err != nil {
			t.Fatal(err)
		}

		c := multiplyInRanges(t, ClassicRange, a, identity, d, 3)
		for i := range c {
			if c[i] != a[i] {
				t.Fatalf("d=%d: c[%d] = %v, want %v", d, i, c[i], a[i])
			}
		}
	}
}

func TestClassicMatchesReference(t *testing.T) {
	for _, d := range []int{1, 2, 5, 16, 33} {
		a, b := randomMatrices(d, 7)
		want := make([]float64, d*d)
		matmulReference(a, b, want, d)

		c := multiplyInRanges(t, ClassicRange, a, b, d, 4)
		for i := range c {
			if math.Abs(c[i]-want[i]) > 1e-9 {
				t.Errorf("d=%d: c[%d] = %v, want %v", d, i, c[i], want[i])
			}
		}
	}
}

// The per-cell summation order is fixed, so splitting the rows differently
// must not change a single bit of the result.
func TestClassicIndependentOfWorkerCount(t *testing.T) {
	d := 8
	a, b := randomMatrices(d, 42)
	single := multiplyInRanges(t, ClassicRange, a, b, d, 1)

	for _, w := range []int{2, 3, 4, 8, 11} {
		c := multiplyInRanges(t, ClassicRange, a, b, d, w)
		for i := range c {
			if c[i] != single[i] {
				t.Fatalf("w=%d: c[%d] = %v, want %v (bit-identical to w=1)", w, i, c[i], single[i])
			}
		}
	}
}

func TestKernelEmptyRangeWritesNothing(t *testing.T) {
	d := 4
	a, b := randomMatrices(d, 3)
	for _, kernel := range []RangeFunc{ClassicRange, TransposedRange} {
		c := make([]float64, d*d)
		for i := range c {
			c[i] = -1
		}
		kernel(a, b, c, d, 2, 2)
		kernel(a, b, c, d, 3, 1)
		for i := range c {
			if c[i] != -1 {
				t.Fatalf("c[%d] = %v, want untouched", i, c[i])
			}
		}
	}
}

func TestTransposedMatchesClassic(t *testing.T) {
	for _, d := range []int{1, 2, 7, 8, 20} {
		for _, w := range []int{1, 3, 4, 25} {
			t.Run(fmt.Sprintf("d=%d/w=%d", d, w), func(t *testing.T) {
				a, b := randomMatrices(d, uint64(d*100+w))
				bt := make([]float64, d*d)
				if err := Transpose(b, d, bt); err != nil {
					t.Fatal(err)
				}

				classic := multiplyInRanges(t, ClassicRange, a, b, d, w)
				transposed := multiplyInRanges(t, TransposedRange, a, bt, d, w)
				for i := range classic {
					if classic[i] != transposed[i] {
						t.Fatalf("c[%d]: classic %v, transposed %v", i, classic[i], transposed[i])
					}
				}
			})
		}
	}
}

// Feeding an operand that was never transposed is accepted silently and
// computes A·Bᵀ instead of A·B.
func TestTransposedWithoutTransposeComputesDifferentProduct(t *testing.T) {
	d := 2
	a := []float64{1, 2, 3, 4}
	b := []float64{5, 6, 7, 8}

	c := make([]float64, d*d)
	TransposedRange(a, b, c, d, 0, d)

	// A·Bᵀ = [[1*5+2*6, 1*7+2*8], [3*5+4*6, 3*7+4*8]]
	want := []float64{17, 23, 39, 53}
	for i := range c {
		if c[i] != want[i] {
			t.Errorf("c[%d] = %v, want %v", i, c[i], want[i])
		}
	}

	classic := make([]float64, d*d)
	ClassicRange(a, b, classic, d, 0, d)
	same := true
	for i := range c {
		same = same && c[i] == classic[i]
	}
	if same {
		t.Error("transposed kernel on an untransposed operand matched the classic product")
	}
}

func TestKernelNaNPropagates(t *testing.T) {
	d := 2
	a := []float64{math.NaN(), 0, 0, 1}
	b := []float64{1, 0, 0, math.Inf(1)}
	c := make([]float64, d*d)
	ClassicRange(a, b, c, d, 0, d)

	if !math.IsNaN(c[0]) {
		t.Errorf("c[0] = %v, want NaN", c[0])
	}
	if !math.IsInf(c[3], 1) {
		t.Errorf("c[3] = %v, want +Inf", c[3])
	}
}

func TestParseKernel(t *testing.T) {
	for _, k := range []Kernel{Classic, Transposed} {
		got, err := ParseKernel(k.String())
		if err != nil || got != k {
			t.Errorf("ParseKernel(%q) = %v, %v; want %v", k.String(), got, err, k)
		}
		if fn, err := k.Func(); err != nil || fn == nil {
			t.Errorf("%v.Func() = %v, %v", k, fn, err)
		}
	}
	if _, err := ParseKernel("strassen"); err == nil {
		t.Error("ParseKernel(strassen) should fail")
	}
	if _, err := Kernel(9).Func(); err == nil {
		t.Error("Kernel(9).Func() should fail")
	}
}

func BenchmarkKernels(b *testing.B) {
	for _, d := range []int{64, 256} {
		a, m := randomMatrices(d, 1)
		mt := make([]float64, d*d)
		_ = Transpose(m, d, mt)
		c := make([]float64, d*d)

		b.Run(fmt.Sprintf("classic/%d", d), func(b *testing.B) {
			for b.Loop() {
				ClassicRange(a, m, c, d, 0, d)
			}
		})
		b.Run(fmt.Sprintf("transposed/%d", d), func(b *testing.B) {
			for b.Loop() {
				TransposedRange(a, mt, c, d, 0, d)
			}
		})
	}
}
