// Copyright 2025 The go-matbench Authors. SPDX-License-Identifier: Apache-2.0

package mm

import (
	"fmt"
	"io"
	"math/rand/v2"
)

// PrintLimit is the largest dimension + 1 that Fprint will print; bigger
// matrices are skipped so benchmark output stays readable.
const PrintLimit = 9

// Operand value range used by Fill. Both operands are drawn from [0, FillScale).
const FillScale = 4.0

// New allocates a zeroed d×d matrix.
func New(d int) ([]float64, error) {
	if d <= 0 {
		return nil, ErrInvalidDimension
	}
	return make([]float64, d*d), nil
}

// Identity returns the d×d identity matrix.
func Identity(d int) ([]float64, error) {
	m, err := New(d)
	if err != nil {
		return nil, err
	}
	for i := range d {
		m[i*d+i] = 1
	}
	return m, nil
}

// Fill overwrites a and b with uniform values in [0, FillScale), interleaving
// draws so a given seed always produces the same pair.
func Fill(a, b []float64, rng *rand.Rand) {
	n := min(len(a), len(b))
	for i := range n {
		a[i] = rng.Float64() * FillScale
		b[i] = rng.Float64() * FillScale
	}
}

// Layout selects how Fprint walks a matrix.
type Layout int

const (
	// RowLayout prints row i on line i.
	RowLayout Layout = iota

	// ColumnLayout prints column j on line j. Use it to show an operand that
	// is stored transposed in its mathematical orientation.
	ColumnLayout
)

// Fprint writes m to w for debugging when d < PrintLimit, and does nothing
// otherwise.
func Fprint(w io.Writer, m []float64, d int, layout Layout) error {
	if d <= 0 || d >= PrintLimit {
		return nil
	}
	if err := CheckOperands(d, m); err != nil {
		return err
	}
	for line := range d {
		for pos := range d {
			idx := line*d + pos
			if layout == ColumnLayout {
				idx = pos*d + line
			}
			if _, err := fmt.Fprintf(w, " %.2f ", m[idx]); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, ">-------------------->")
	return err
}

// FprintRows writes rows r of m, prefixed by label, when d < PrintLimit.
// Worker processes use it to show the slice of C they computed.
func FprintRows(w io.Writer, label string, m []float64, d int, r WorkRange) error {
	if d <= 0 || d >= PrintLimit || r.Empty() {
		return nil
	}
	if _, err := fmt.Fprintf(w, "%s computed rows %d to %d:\n", label, r.Start, r.End-1); err != nil {
		return err
	}
	for i := r.Start; i < r.End; i++ {
		for j := range d {
			if _, err := fmt.Fprintf(w, " %.2f ", m[i*d+j]); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}
